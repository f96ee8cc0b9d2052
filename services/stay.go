package services

import (
	"time"

	"github.com/shopspring/decimal"

	"bnbillains/models"
	"bnbillains/utils"
)

// TaxRate is the flat tax applied to every invoice.
var TaxRate = decimal.RequireFromString("0.21")

// Stay is an inclusive range of calendar days.
type Stay struct {
	Start time.Time
	End   time.Time
}

// NewStay normalises both ends to calendar dates and requires End > Start.
func NewStay(start, end time.Time) (Stay, error) {
	s := Stay{Start: utils.CivilDate(start), End: utils.CivilDate(end)}
	if !s.End.After(s.Start) {
		return Stay{}, errInvalidRange()
	}
	return s, nil
}

func stayOf(r models.Reservation) Stay {
	return Stay{Start: r.Start(), End: r.End()}
}

// Overlaps uses inclusive bounds: a stay ending on the day another starts conflicts.
func (s Stay) Overlaps(o Stay) bool {
	return !s.Start.After(o.End) && !s.End.Before(o.Start)
}

// Nights is the calendar-day difference, never less than one.
func (s Stay) Nights() int {
	n := int(utils.CivilDate(s.End).Sub(utils.CivilDate(s.Start)).Hours() / 24)
	if n < 1 {
		n = 1
	}
	return n
}

// Days lists every date from Start to End, both included.
func (s Stay) Days() []time.Time {
	start, end := utils.CivilDate(s.Start), utils.CivilDate(s.End)
	if end.Before(start) {
		return nil
	}
	days := make([]time.Time, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// PriceStay returns nights * nightlyPrice with nights floored at one.
func PriceStay(start, end time.Time, nightlyPrice decimal.Decimal) decimal.Decimal {
	nights := Stay{Start: start, End: end}.Nights()
	return nightlyPrice.Mul(decimal.NewFromInt(int64(nights)))
}

// TaxFor applies TaxRate to an amount.
func TaxFor(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(TaxRate)
}
