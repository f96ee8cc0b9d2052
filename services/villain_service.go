package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bnbillains/models"
	"bnbillains/repositories"
)

// three digits, one letter, six digits
var licensePattern = regexp.MustCompile(`^[0-9]{3}[A-Za-z][0-9]{6}$`)

type VillainService struct {
	DB    *gorm.DB
	cache OccupancyCache
	log   *logrus.Logger
}

func NewVillainService(db *gorm.DB, cache OccupancyCache, log *logrus.Logger) *VillainService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &VillainService{DB: db, cache: cache, log: log}
}

type VillainFilter struct {
	// Query matches name or alias.
	Query string
	Sort  SortKey
}

type VillainInput struct {
	Name        string
	Alias       string
	LicenseCode string
	Email       string
}

func (in *VillainInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Alias = strings.TrimSpace(in.Alias)
	in.LicenseCode = strings.ToUpper(strings.TrimSpace(in.LicenseCode))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	switch {
	case in.Name == "":
		return errInvalidInput("Name is required.")
	case utf8.RuneCountInString(in.Name) > 255:
		return errInvalidInput("Name must be at most 255 characters.")
	case in.Alias == "":
		return errInvalidInput("Alias is required.")
	case utf8.RuneCountInString(in.Alias) > 255:
		return errInvalidInput("Alias must be at most 255 characters.")
	case !licensePattern.MatchString(in.LicenseCode):
		return errInvalidInput("License code must be 3 digits, 1 letter and 6 digits.")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return errInvalidInput("Email %q is not valid.", in.Email)
	}
	return nil
}

func (s *VillainService) List(ctx context.Context, f VillainFilter, pr PageRequest) (Page[models.Villain], error) {
	q := s.DB.WithContext(ctx).Model(&models.Villain{})
	if strings.TrimSpace(f.Query) != "" {
		p := containsPattern(f.Query)
		q = q.Where(containsClause("name")+" OR "+containsClause("alias"), p, p)
	}
	return paginate[models.Villain](q, func(db *gorm.DB) *gorm.DB { return VillainSorts.apply(db, f.Sort) }, pr)
}

func (s *VillainService) Get(ctx context.Context, id uint) (*models.Villain, error) {
	var v models.Villain
	if err := s.DB.WithContext(ctx).First(&v, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("Villain", id)
		}
		return nil, fmt.Errorf("load villain %d: %w", id, err)
	}
	return &v, nil
}

// ensureUnique rejects a license code or email held by another villain.
func (s *VillainService) ensureUnique(tx *gorm.DB, in VillainInput, selfID uint) error {
	taken, err := exists(tx, &models.Villain{}, "license_code = ? AND id <> ?", in.LicenseCode, selfID)
	if err != nil {
		return err
	}
	if taken {
		return errDuplicate("A villain with license %s already exists.", in.LicenseCode)
	}
	taken, err = exists(tx, &models.Villain{}, "email = ? AND id <> ?", in.Email, selfID)
	if err != nil {
		return err
	}
	if taken {
		return errDuplicate("A villain with email %s already exists.", in.Email)
	}
	return nil
}

func (s *VillainService) Create(ctx context.Context, in VillainInput) (*models.Villain, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	v := models.Villain{Name: in.Name, Alias: in.Alias, LicenseCode: in.LicenseCode, Email: in.Email}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureUnique(tx, in, 0); err != nil {
			return err
		}
		return tx.Create(&v).Error
	})
	if repositories.IsDuplicateKey(err) {
		return nil, errDuplicate("A villain with this license or email already exists.")
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *VillainService) Update(ctx context.Context, id uint, in VillainInput) (*models.Villain, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var v models.Villain
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&v, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errNotFound("Villain", id)
			}
			return err
		}
		if err := s.ensureUnique(tx, in, id); err != nil {
			return err
		}
		v.Name, v.Alias, v.LicenseCode, v.Email = in.Name, in.Alias, in.LicenseCode, in.Email
		return tx.Save(&v).Error
	})
	if repositories.IsDuplicateKey(err) {
		return nil, errDuplicate("A villain with this license or email already exists.")
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Delete removes the villain with their reservations, invoices and reviews.
func (s *VillainService) Delete(ctx context.Context, id uint) error {
	var lairIDs []uint
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := exists(tx, &models.Villain{}, "id = ?", id)
		if err != nil {
			return err
		}
		if !ok {
			return errNotFound("Villain", id)
		}

		if err := tx.Model(&models.Reservation{}).Where("villain_id = ?", id).Distinct().Pluck("lair_id", &lairIDs).Error; err != nil {
			return fmt.Errorf("list lairs of villain %d: %w", id, err)
		}
		reservations := tx.Model(&models.Reservation{}).Select("id").Where("villain_id = ?", id)
		if err := tx.Where("reservation_id IN (?)", reservations).Delete(&models.Invoice{}).Error; err != nil {
			return fmt.Errorf("delete invoices of villain %d: %w", id, err)
		}
		if err := tx.Where("villain_id = ?", id).Delete(&models.Reservation{}).Error; err != nil {
			return fmt.Errorf("delete reservations of villain %d: %w", id, err)
		}
		if err := tx.Where("villain_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return fmt.Errorf("delete reviews of villain %d: %w", id, err)
		}
		return tx.Delete(&models.Villain{}, id).Error
	})
	if err != nil {
		return err
	}

	invalidateCalendars(ctx, s.cache, s.log, lairIDs...)
	s.log.WithFields(logrus.Fields{"villain_id": id, "lairs_touched": len(lairIDs)}).Info("villain deleted")
	return nil
}

// exists reports whether any row of model matches the condition.
func exists(tx *gorm.DB, model any, query string, args ...any) (bool, error) {
	var count int64
	if err := tx.Model(model).Where(query, args...).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
