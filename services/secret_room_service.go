package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bnbillains/models"
)

const maxAccessCodeLength = 8

type SecretRoomService struct {
	DB   *gorm.DB
	cost int
}

func NewSecretRoomService(db *gorm.DB) *SecretRoomService {
	return &SecretRoomService{DB: db, cost: bcrypt.DefaultCost}
}

type SecretRoomFilter struct {
	// Query matches the main function.
	Query string
	Sort  SortKey
}

type SecretRoomInput struct {
	// Required on create. On update an empty code keeps the current one.
	AccessCode    string
	MainFunction  string
	EmergencyExit bool
}

func (s *SecretRoomService) hash(code string) (string, error) {
	if utf8.RuneCountInString(code) > maxAccessCodeLength {
		return "", errInvalidInput("Access code must be at most %d characters.", maxAccessCodeLength)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(code), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash access code: %w", err)
	}
	return string(h), nil
}

func (s *SecretRoomService) List(ctx context.Context, f SecretRoomFilter, pr PageRequest) (Page[models.SecretRoom], error) {
	q := s.DB.WithContext(ctx).Model(&models.SecretRoom{})
	if text := strings.TrimSpace(f.Query); text != "" {
		q = q.Where(containsClause("main_function"), containsPattern(text))
	}
	return paginate[models.SecretRoom](q, func(db *gorm.DB) *gorm.DB { return SecretRoomSorts.apply(db, f.Sort) }, pr)
}

func (s *SecretRoomService) Get(ctx context.Context, id uint) (*models.SecretRoom, error) {
	var room models.SecretRoom
	if err := s.DB.WithContext(ctx).First(&room, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("Secret room", id)
		}
		return nil, fmt.Errorf("load secret room %d: %w", id, err)
	}
	return &room, nil
}

func (s *SecretRoomService) Create(ctx context.Context, in SecretRoomInput) (*models.SecretRoom, error) {
	in.AccessCode = strings.TrimSpace(in.AccessCode)
	in.MainFunction = strings.TrimSpace(in.MainFunction)
	if in.AccessCode == "" {
		return nil, errInvalidInput("Access code is required.")
	}
	if in.MainFunction == "" {
		return nil, errInvalidInput("Main function is required.")
	}

	hash, err := s.hash(in.AccessCode)
	if err != nil {
		return nil, err
	}
	room := models.SecretRoom{AccessCodeHash: hash, MainFunction: in.MainFunction, EmergencyExit: in.EmergencyExit}
	if err := s.DB.WithContext(ctx).Create(&room).Error; err != nil {
		return nil, fmt.Errorf("create secret room: %w", err)
	}
	return &room, nil
}

func (s *SecretRoomService) Update(ctx context.Context, id uint, in SecretRoomInput) (*models.SecretRoom, error) {
	in.AccessCode = strings.TrimSpace(in.AccessCode)
	in.MainFunction = strings.TrimSpace(in.MainFunction)
	if in.MainFunction == "" {
		return nil, errInvalidInput("Main function is required.")
	}

	room, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.AccessCode != "" {
		if room.AccessCodeHash, err = s.hash(in.AccessCode); err != nil {
			return nil, err
		}
	}
	room.MainFunction = in.MainFunction
	room.EmergencyExit = in.EmergencyExit
	if err := s.DB.WithContext(ctx).Save(room).Error; err != nil {
		return nil, fmt.Errorf("update secret room %d: %w", id, err)
	}
	return room, nil
}

// Verify reports whether code opens the room.
func (s *SecretRoomService) Verify(ctx context.Context, id uint, code string) (bool, error) {
	room, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	err = bcrypt.CompareHashAndPassword([]byte(room.AccessCodeHash), []byte(strings.TrimSpace(code)))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("verify access code of room %d: %w", id, err)
	}
	return true, nil
}

// Delete detaches the room from its lair, if any, then removes it.
func (s *SecretRoomService) Delete(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := exists(tx, &models.SecretRoom{}, "id = ?", id)
		if err != nil {
			return err
		}
		if !ok {
			return errNotFound("Secret room", id)
		}
		if err := tx.Model(&models.Lair{}).Where("secret_room_id = ?", id).Update("secret_room_id", nil).Error; err != nil {
			return fmt.Errorf("detach secret room %d: %w", id, err)
		}
		return tx.Delete(&models.SecretRoom{}, id).Error
	})
}
