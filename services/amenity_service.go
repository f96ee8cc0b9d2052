package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"bnbillains/models"
	"bnbillains/repositories"
)

type AmenityService struct {
	DB *gorm.DB
}

func NewAmenityService(db *gorm.DB) *AmenityService {
	return &AmenityService{DB: db}
}

type AmenityFilter struct {
	Name string
	Sort SortKey
}

type AmenityInput struct {
	Name         string
	SelfDestruct bool
}

func (s *AmenityService) List(ctx context.Context, f AmenityFilter, pr PageRequest) (Page[models.Amenity], error) {
	q := s.DB.WithContext(ctx).Model(&models.Amenity{})
	if name := strings.TrimSpace(f.Name); name != "" {
		q = q.Where(containsClause("name"), containsPattern(name))
	}
	return paginate[models.Amenity](q, func(db *gorm.DB) *gorm.DB { return AmenitySorts.apply(db, f.Sort) }, pr)
}

func (s *AmenityService) Get(ctx context.Context, id uint) (*models.Amenity, error) {
	var a models.Amenity
	if err := s.DB.WithContext(ctx).First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("Amenity", id)
		}
		return nil, fmt.Errorf("load amenity %d: %w", id, err)
	}
	return &a, nil
}

// amenity names are unique regardless of case
func (s *AmenityService) ensureUnique(tx *gorm.DB, name string, selfID uint) error {
	taken, err := exists(tx, &models.Amenity{}, "LOWER(name) = ? AND id <> ?", strings.ToLower(name), selfID)
	if err != nil {
		return err
	}
	if taken {
		return errDuplicate("An amenity named %q already exists.", name)
	}
	return nil
}

func (s *AmenityService) Create(ctx context.Context, in AmenityInput) (*models.Amenity, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, errInvalidInput("Name is required.")
	}

	a := models.Amenity{Name: in.Name, SelfDestruct: in.SelfDestruct}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureUnique(tx, in.Name, 0); err != nil {
			return err
		}
		return tx.Create(&a).Error
	})
	if repositories.IsDuplicateKey(err) {
		return nil, errDuplicate("An amenity named %q already exists.", in.Name)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AmenityService) Update(ctx context.Context, id uint, in AmenityInput) (*models.Amenity, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, errInvalidInput("Name is required.")
	}

	var a models.Amenity
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&a, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errNotFound("Amenity", id)
			}
			return err
		}
		if err := s.ensureUnique(tx, in.Name, id); err != nil {
			return err
		}
		a.Name, a.SelfDestruct = in.Name, in.SelfDestruct
		return tx.Save(&a).Error
	})
	if repositories.IsDuplicateKey(err) {
		return nil, errDuplicate("An amenity named %q already exists.", in.Name)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Delete unlinks the amenity from every lair before removing it.
func (s *AmenityService) Delete(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := exists(tx, &models.Amenity{}, "id = ?", id)
		if err != nil {
			return err
		}
		if !ok {
			return errNotFound("Amenity", id)
		}
		if err := tx.Exec("DELETE FROM lair_amenities WHERE amenity_id = ?", id).Error; err != nil {
			return fmt.Errorf("unlink amenity %d: %w", id, err)
		}
		return tx.Delete(&models.Amenity{}, id).Error
	})
}
