package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bnbillains/models"
	"bnbillains/repositories"
)

var minNightlyPrice = decimal.NewFromInt(1)

type LairService struct {
	DB    *gorm.DB
	cache OccupancyCache
	log   *logrus.Logger
}

func NewLairService(db *gorm.DB, cache OccupancyCache, log *logrus.Logger) *LairService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LairService{DB: db, cache: cache, log: log}
}

type LairFilter struct {
	Name     string
	Location string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     SortKey
}

type LairInput struct {
	Name         string
	Description  string
	Location     string
	NightlyPrice decimal.Decimal
	Image        string
	SecretRoomID *uint
	AmenityIDs   []uint
}

func (in *LairInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Location = strings.TrimSpace(in.Location)
	in.Description = strings.TrimSpace(in.Description)
	in.Image = strings.TrimSpace(in.Image)
	if in.SecretRoomID != nil && *in.SecretRoomID == 0 {
		in.SecretRoomID = nil
	}

	switch {
	case in.Name == "":
		return errInvalidInput("Name is required.")
	case in.Location == "":
		return errInvalidInput("Location is required.")
	case utf8.RuneCountInString(in.Description) > 1000:
		return errInvalidInput("Description must be at most 1000 characters.")
	case in.NightlyPrice.LessThan(minNightlyPrice):
		return errInvalidInput("Nightly price must be at least 1.")
	}
	return nil
}

func (s *LairService) List(ctx context.Context, f LairFilter, pr PageRequest) (Page[models.Lair], error) {
	q := s.DB.WithContext(ctx).Model(&models.Lair{})
	if name := strings.TrimSpace(f.Name); name != "" {
		q = q.Where(containsClause("name"), containsPattern(name))
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		q = q.Where("location = ?", loc)
	}
	if f.MinPrice != nil {
		q = q.Where("nightly_price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("nightly_price <= ?", *f.MaxPrice)
	}
	// preload only on the page query, never on the count
	return paginate[models.Lair](q, func(db *gorm.DB) *gorm.DB {
		return LairSorts.apply(db.Preload("Amenities"), f.Sort)
	}, pr)
}

func (s *LairService) Get(ctx context.Context, id uint) (*models.Lair, error) {
	var lair models.Lair
	if err := s.DB.WithContext(ctx).Preload("Amenities").First(&lair, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("Lair", id)
		}
		return nil, fmt.Errorf("load lair %d: %w", id, err)
	}
	return &lair, nil
}

// resolveLinks checks the name, the secret room and the amenities of in.
func (s *LairService) resolveLinks(tx *gorm.DB, in LairInput, selfID uint) ([]models.Amenity, error) {
	taken, err := exists(tx, &models.Lair{}, "name = ? AND id <> ?", in.Name, selfID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errDuplicate("A lair named %q already exists.", in.Name)
	}

	if in.SecretRoomID != nil {
		roomID := *in.SecretRoomID
		ok, err := exists(tx, &models.SecretRoom{}, "id = ?", roomID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errNotFound("Secret room", roomID)
		}
		taken, err := exists(tx, &models.Lair{}, "secret_room_id = ? AND id <> ?", roomID, selfID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, errDuplicate("Secret room %d already belongs to another lair.", roomID)
		}
	}

	amenities := make([]models.Amenity, 0, len(in.AmenityIDs))
	if len(in.AmenityIDs) > 0 {
		if err := tx.Where("id IN ?", in.AmenityIDs).Find(&amenities).Error; err != nil {
			return nil, err
		}
		found := make(map[uint]bool, len(amenities))
		for _, a := range amenities {
			found[a.ID] = true
		}
		for _, id := range in.AmenityIDs {
			if !found[id] {
				return nil, errNotFound("Amenity", id)
			}
		}
	}
	return amenities, nil
}

func (s *LairService) Create(ctx context.Context, in LairInput) (*models.Lair, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var lair models.Lair
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		amenities, err := s.resolveLinks(tx, in, 0)
		if err != nil {
			return err
		}
		lair = models.Lair{
			Name:         in.Name,
			Description:  in.Description,
			Location:     in.Location,
			NightlyPrice: in.NightlyPrice,
			Image:        in.Image,
			SecretRoomID: in.SecretRoomID,
			Amenities:    amenities,
		}
		return tx.Create(&lair).Error
	})
	if repositories.IsDuplicateKey(err) {
		return nil, errDuplicate("A lair named %q already exists.", in.Name)
	}
	if err != nil {
		return nil, err
	}
	return &lair, nil
}

// Update replaces every field of the lair, amenities included. Existing
// reservations keep the cost they were booked at.
func (s *LairService) Update(ctx context.Context, id uint, in LairInput) (*models.Lair, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var lair models.Lair
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&lair, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errNotFound("Lair", id)
			}
			return err
		}
		amenities, err := s.resolveLinks(tx, in, id)
		if err != nil {
			return err
		}

		lair.Name = in.Name
		lair.Description = in.Description
		lair.Location = in.Location
		lair.NightlyPrice = in.NightlyPrice
		lair.Image = in.Image
		lair.SecretRoomID = in.SecretRoomID
		if err := tx.Omit("Amenities").Save(&lair).Error; err != nil {
			return err
		}
		if err := tx.Model(&lair).Association("Amenities").Replace(amenities); err != nil {
			return fmt.Errorf("replace amenities of lair %d: %w", id, err)
		}
		lair.Amenities = amenities
		return nil
	})
	if repositories.IsDuplicateKey(err) {
		return nil, errDuplicate("A lair named %q already exists.", in.Name)
	}
	if err != nil {
		return nil, err
	}
	return &lair, nil
}

// Delete removes the lair with its secret room, reviews, reservations,
// their invoices and its amenity links.
func (s *LairService) Delete(ctx context.Context, id uint) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lair models.Lair
		if err := tx.First(&lair, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errNotFound("Lair", id)
			}
			return err
		}

		reservations := tx.Model(&models.Reservation{}).Select("id").Where("lair_id = ?", id)
		if err := tx.Where("reservation_id IN (?)", reservations).Delete(&models.Invoice{}).Error; err != nil {
			return fmt.Errorf("delete invoices of lair %d: %w", id, err)
		}
		if err := tx.Where("lair_id = ?", id).Delete(&models.Reservation{}).Error; err != nil {
			return fmt.Errorf("delete reservations of lair %d: %w", id, err)
		}
		if err := tx.Where("lair_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return fmt.Errorf("delete reviews of lair %d: %w", id, err)
		}
		if err := tx.Model(&lair).Association("Amenities").Clear(); err != nil {
			return fmt.Errorf("unlink amenities of lair %d: %w", id, err)
		}
		if err := tx.Delete(&lair).Error; err != nil {
			return err
		}
		if lair.SecretRoomID != nil {
			if err := tx.Delete(&models.SecretRoom{}, *lair.SecretRoomID).Error; err != nil {
				return fmt.Errorf("delete secret room of lair %d: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	invalidateCalendars(ctx, s.cache, s.log, id)
	s.log.WithField("lair_id", id).Info("lair deleted")
	return nil
}

// SetImage points the lair at a stored picture and returns the previous one.
func (s *LairService) SetImage(ctx context.Context, id uint, image string) (*models.Lair, string, error) {
	lair, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	previous := lair.Image
	if err := s.DB.WithContext(ctx).Model(&models.Lair{}).Where("id = ?", id).Update("image", image).Error; err != nil {
		return nil, "", fmt.Errorf("set image of lair %d: %w", id, err)
	}
	lair.Image = image
	return lair, previous, nil
}

// ImagePath returns the public image URL of a lair.
func (s *LairService) ImagePath(ctx context.Context, id uint) (string, error) {
	lair, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return lair.ImagePath(), nil
}
