package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"bnbillains/models"
	"bnbillains/repositories"
	"bnbillains/utils"
)

type ReviewService struct {
	DB  *gorm.DB
	now func() time.Time
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{DB: db, now: time.Now}
}

type ReviewFilter struct {
	// Score keeps only reviews with exactly this many stars when non-zero.
	Score     int
	Query     string
	LairID    uint
	VillainID uint
	Sort      SortKey
}

type ReviewInput struct {
	Comment   string
	Score     int
	VillainID uint
	LairID    uint
	// Defaults to today.
	PublishedOn *time.Time
}

func (in *ReviewInput) normalize() error {
	in.Comment = strings.TrimSpace(in.Comment)
	switch {
	case in.Score < 1 || in.Score > 5:
		return errInvalidInput("Score must be between 1 and 5.")
	case utf8.RuneCountInString(in.Comment) > 1000:
		return errInvalidInput("Comment must be at most 1000 characters.")
	case in.VillainID == 0:
		return errInvalidInput("Villain is required.")
	case in.LairID == 0:
		return errInvalidInput("Lair is required.")
	}
	return nil
}

func (s *ReviewService) List(ctx context.Context, f ReviewFilter, pr PageRequest) (Page[models.Review], error) {
	q := s.DB.WithContext(ctx).Model(&models.Review{})
	if f.Score > 0 {
		q = q.Where("score = ?", f.Score)
	}
	if text := strings.TrimSpace(f.Query); text != "" {
		q = q.Where(containsClause("comment"), containsPattern(text))
	}
	if f.LairID != 0 {
		q = q.Where("lair_id = ?", f.LairID)
	}
	if f.VillainID != 0 {
		q = q.Where("villain_id = ?", f.VillainID)
	}
	return paginate[models.Review](q, func(db *gorm.DB) *gorm.DB { return ReviewSorts.apply(db, f.Sort) }, pr)
}

func (s *ReviewService) Get(ctx context.Context, id uint) (*models.Review, error) {
	var r models.Review
	if err := s.DB.WithContext(ctx).First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("Review", id)
		}
		return nil, fmt.Errorf("load review %d: %w", id, err)
	}
	return &r, nil
}

func (s *ReviewService) ensureRefs(tx *gorm.DB, in ReviewInput) error {
	ok, err := exists(tx, &models.Villain{}, "id = ?", in.VillainID)
	if err != nil {
		return err
	}
	if !ok {
		return errNotFound("Villain", in.VillainID)
	}
	ok, err = exists(tx, &models.Lair{}, "id = ?", in.LairID)
	if err != nil {
		return err
	}
	if !ok {
		return errNotFound("Lair", in.LairID)
	}
	return nil
}

// reviewWriteError maps a foreign key failure, left by a villain or lair
// deleted after ensureRefs, to not_found.
func reviewWriteError(err error, in ReviewInput) error {
	if repositories.IsForeignKeyViolation(err) {
		return &ValidationError{
			Kind:    KindNotFound,
			Message: fmt.Sprintf("Villain %d or lair %d not found.", in.VillainID, in.LairID),
		}
	}
	return err
}

func (s *ReviewService) publishedOn(in ReviewInput) datatypes.Date {
	if in.PublishedOn != nil {
		return datatypes.Date(utils.CivilDate(*in.PublishedOn))
	}
	return datatypes.Date(utils.CivilDate(s.now()))
}

func (s *ReviewService) Create(ctx context.Context, in ReviewInput) (*models.Review, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	r := models.Review{
		Comment:     in.Comment,
		Score:       in.Score,
		PublishedOn: s.publishedOn(in),
		VillainID:   in.VillainID,
		LairID:      in.LairID,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureRefs(tx, in); err != nil {
			return err
		}
		return tx.Create(&r).Error
	})
	if err != nil {
		return nil, reviewWriteError(err, in)
	}
	return &r, nil
}

func (s *ReviewService) Update(ctx context.Context, id uint, in ReviewInput) (*models.Review, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var r models.Review
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&r, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errNotFound("Review", id)
			}
			return err
		}
		if err := s.ensureRefs(tx, in); err != nil {
			return err
		}
		r.Comment = in.Comment
		r.Score = in.Score
		r.VillainID = in.VillainID
		r.LairID = in.LairID
		if in.PublishedOn != nil {
			r.PublishedOn = s.publishedOn(in)
		}
		return tx.Save(&r).Error
	})
	if err != nil {
		return nil, reviewWriteError(err, in)
	}
	return &r, nil
}

func (s *ReviewService) Delete(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.Review{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete review %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return errNotFound("Review", id)
	}
	return nil
}
