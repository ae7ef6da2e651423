package ordering

import (
	"fmt"
	"time"
)

// WindowPolicy decides whether a requested fulfillment date/time is far
// enough in the future for the order's timing class. All comparisons
// happen in the business time zone regardless of where the client is.
type WindowPolicy struct {
	loc         *time.Location
	walkInLead  time.Duration
	preorderMin int
}

func NewWindowPolicy(loc *time.Location, walkInLeadHours, preorderMinDays int) *WindowPolicy {
	return &WindowPolicy{
		loc:         loc,
		walkInLead:  time.Duration(walkInLeadHours) * time.Hour,
		preorderMin: preorderMinDays,
	}
}

func (p *WindowPolicy) Location() *time.Location {
	return p.loc
}

// Validate checks dateStr (YYYY-MM-DD) and timeStr (HH:MM) against now.
// Walk-in orders need the full date-time at least walkInLead ahead;
// pre-orders only need the date at least preorderMin calendar days out,
// compared at start-of-day granularity.
func (p *WindowPolicy) Validate(orderType OrderType, dateStr, timeStr string, now time.Time) *Error {
	requested, err := p.ParseLocal(dateStr, timeStr)
	if err != nil {
		return ValidationError(ErrInvalidDateTime, "Invalid fulfillment date or time")
	}

	now = now.In(p.loc)

	switch orderType {
	case OrderWalkIn:
		if requested.Before(now.Add(p.walkInLead)) {
			return ValidationError(ErrLeadTimeNotMet,
				fmt.Sprintf("Walk-in orders need at least %d hours notice", int(p.walkInLead.Hours())))
		}
	case OrderPreorder:
		earliest := startOfDay(now, p.loc).AddDate(0, 0, p.preorderMin)
		if startOfDay(requested, p.loc).Before(earliest) {
			return ValidationError(ErrLeadTimeNotMet,
				fmt.Sprintf("Pre-orders need at least %d days notice", p.preorderMin))
		}
	default:
		return ValidationError(ErrValidation, "Valid order type is required (WALK_IN or PREORDER)")
	}

	return nil
}

// ParseLocal combines the stored date and time strings into an instant
// in the business time zone.
func (p *WindowPolicy) ParseLocal(dateStr, timeStr string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", dateStr+" "+timeStr, p.loc)
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
