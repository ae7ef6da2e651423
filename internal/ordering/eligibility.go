package ordering

import (
	"context"
	"fmt"
	"time"
)

// CatalogStore is the read-only slice of catalog persistence the
// admission pipeline needs.
type CatalogStore interface {
	MenuItem(ctx context.Context, id int64) (*MenuItem, error)
	Branch(ctx context.Context, id int64) (*Branch, error)
}

// EligibilityChecker cross-validates each ordered line's pre-order flag
// against the order's timing class. The first violation is reported and
// checking stops there; a later re-validation starts over from line one.
type EligibilityChecker struct {
	catalog CatalogStore
	loc     *time.Location
	now     func() time.Time
}

func NewEligibilityChecker(catalog CatalogStore, loc *time.Location) *EligibilityChecker {
	return &EligibilityChecker{catalog: catalog, loc: loc, now: time.Now}
}

// Check resolves every line's menu item and returns it alongside the
// validation result so admission can snapshot names and prices without
// a second catalog round trip.
func (c *EligibilityChecker) Check(ctx context.Context, orderType OrderType, fulfillmentDate string, lines []OrderItemInput) (map[int64]*MenuItem, *Error) {
	resolved := make(map[int64]*MenuItem, len(lines))

	for _, line := range lines {
		item, ok := resolved[line.ProductID]
		if !ok {
			fetched, err := c.catalog.MenuItem(ctx, line.ProductID)
			if err != nil {
				return nil, InternalError("Failed to load menu item")
			}
			if fetched == nil {
				return nil, ValidationError(ErrItemUnavailable, fmt.Sprintf("Menu item %d not found", line.ProductID))
			}
			resolved[line.ProductID] = fetched
			item = fetched
		}

		if !item.IsAvailable || !item.InStock {
			return nil, ValidationError(ErrItemUnavailable, fmt.Sprintf("%q is currently unavailable", item.Name))
		}

		switch orderType {
		case OrderWalkIn:
			if item.PreorderEnabled {
				return nil, ValidationError(ErrItemNotEligible,
					fmt.Sprintf("%q is a pre-order item and cannot be added to a walk-in order", item.Name))
			}
		case OrderPreorder:
			if !item.PreorderEnabled {
				return nil, ValidationError(ErrItemNotEligible,
					fmt.Sprintf("%q is a same-day item and cannot be pre-ordered", item.Name))
			}
			if item.PreorderMinDays > 0 {
				if reason := c.checkItemLead(item, fulfillmentDate); reason != nil {
					return nil, reason
				}
			}
		}
	}

	return resolved, nil
}

// Some items need more notice than the global pre-order minimum.
func (c *EligibilityChecker) checkItemLead(item *MenuItem, fulfillmentDate string) *Error {
	requested, err := time.ParseInLocation("2006-01-02", fulfillmentDate, c.loc)
	if err != nil {
		return ValidationError(ErrInvalidDateTime, "Invalid fulfillment date or time")
	}
	earliest := startOfDay(c.now().In(c.loc), c.loc).AddDate(0, 0, item.PreorderMinDays)
	if requested.Before(earliest) {
		return ValidationError(ErrLeadTimeNotMet,
			fmt.Sprintf("%q needs at least %d days notice", item.Name, item.PreorderMinDays))
	}
	return nil
}
