package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"bnbillains/models"
	"bnbillains/repositories"
	"bnbillains/utils"
)

// InvoiceService covers the invoice screens. Amount and tax are never set
// from outside: they always come from the reservation cost.
type InvoiceService struct {
	DB  *gorm.DB
	now func() time.Time
}

func NewInvoiceService(db *gorm.DB) *InvoiceService {
	return &InvoiceService{DB: db, now: time.Now}
}

type InvoiceFilter struct {
	PaymentMethod string
	MinAmount     *decimal.Decimal
	MaxAmount     *decimal.Decimal
	Sort          SortKey
}

type InvoiceUpdate struct {
	PaymentMethod string
	IssueDate     *time.Time
}

func (s *InvoiceService) List(ctx context.Context, f InvoiceFilter, pr PageRequest) (Page[models.Invoice], error) {
	q := s.DB.WithContext(ctx).Model(&models.Invoice{})
	if pm := strings.TrimSpace(f.PaymentMethod); pm != "" {
		q = q.Where(containsClause("payment_method"), containsPattern(pm))
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	return paginate[models.Invoice](q, func(db *gorm.DB) *gorm.DB { return InvoiceSorts.apply(db, f.Sort) }, pr)
}

func (s *InvoiceService) Get(ctx context.Context, id uint) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.DB.WithContext(ctx).First(&inv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("Invoice", id)
		}
		return nil, fmt.Errorf("load invoice %d: %w", id, err)
	}
	return &inv, nil
}

// ListByVillain returns every invoice of the villain's reservations, newest first.
func (s *InvoiceService) ListByVillain(ctx context.Context, villainID uint) ([]models.Invoice, error) {
	db := s.DB.WithContext(ctx)
	reservations := db.Model(&models.Reservation{}).Select("id").Where("villain_id = ?", villainID)

	out := make([]models.Invoice, 0)
	if err := db.Where("reservation_id IN (?)", reservations).Order("id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list invoices of villain %d: %w", villainID, err)
	}
	return out, nil
}

// Create invoices a reservation that has none, e.g. after its invoice was
// deleted by hand.
func (s *InvoiceService) Create(ctx context.Context, reservationID uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var res models.Reservation
		if err := tx.First(&res, reservationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errNotFound("Reservation", reservationID)
			}
			return err
		}
		taken, err := exists(tx, &models.Invoice{}, "reservation_id = ?", reservationID)
		if err != nil {
			return err
		}
		if taken {
			return errDuplicate("Reservation %d has already been invoiced.", reservationID)
		}
		inv = newInvoice(res.ID, res.TotalCost, s.now())
		return tx.Create(&inv).Error
	})
	if repositories.IsDuplicateKey(err) {
		return nil, errDuplicate("Reservation %d has already been invoiced.", reservationID)
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *InvoiceService) Update(ctx context.Context, id uint, in InvoiceUpdate) (*models.Invoice, error) {
	in.PaymentMethod = strings.TrimSpace(in.PaymentMethod)
	if in.PaymentMethod == "" {
		return nil, errInvalidInput("Payment method is required.")
	}
	if utf8.RuneCountInString(in.PaymentMethod) > 100 {
		return nil, errInvalidInput("Payment method must be at most 100 characters.")
	}

	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.PaymentMethod = in.PaymentMethod
	if in.IssueDate != nil {
		inv.IssueDate = datatypes.Date(utils.CivilDate(*in.IssueDate))
	}
	if err := s.DB.WithContext(ctx).Save(inv).Error; err != nil {
		return nil, fmt.Errorf("update invoice %d: %w", id, err)
	}
	return inv, nil
}

func (s *InvoiceService) Delete(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.Invoice{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete invoice %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return errNotFound("Invoice", id)
	}
	return nil
}
