package ordering

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"one18-order-service/internal/delivery"
	"one18-order-service/internal/geo"

	"go.uber.org/zap"
)

// OrderRequest is the schema-validated decode of a raw order payload.
// Prices are never taken from the client: admission snapshots them from
// the catalog.
type OrderRequest struct {
	OrderType       string           `json:"orderType"`
	FulfillmentType string           `json:"fulfillmentType"`
	BranchID        int64            `json:"branchId"`
	FulfillmentDate string           `json:"fulfillmentDate"`
	FulfillmentTime string           `json:"fulfillmentTime"`
	Customer        CustomerInput    `json:"customer"`
	Items           []OrderItemInput `json:"items"`
	PaymentMethod   string           `json:"paymentMethod"`
}

type CustomerInput struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Company    string `json:"company"`
	Phone      string `json:"phone"`
	Message    string `json:"message"`
	Address    string `json:"address"`
	Apartment  string `json:"apartment"`
	PostalCode string `json:"postalCode"`
}

type OrderItemInput struct {
	ProductID int64  `json:"productId"`
	Variant   string `json:"variant"`
	Qty       int32  `json:"qty"`
}

// PostalValidator is the geographic gate for delivery orders.
type PostalValidator interface {
	Validate(ctx context.Context, postalCode string) (geo.Location, bool)
}

// OrderStore persists admitted orders. CreateOrder must write the order
// and its items in a single transaction; NextOrderNumber must be an
// atomic fetch-and-increment, serializable across concurrent admissions.
type OrderStore interface {
	NextOrderNumber(ctx context.Context) (int64, error)
	CreateOrder(ctx context.Context, order *Order) error
}

// Notifier delivers best-effort notifications. Implementations must not
// return errors into the admission path; failures are logged and
// swallowed because the order is already committed.
type Notifier interface {
	OrderAdmitted(ctx context.Context, order *Order)
}

type AdmissionService struct {
	window      *WindowPolicy
	geo         PostalValidator
	fees        *delivery.FeeCalculator
	eligibility *EligibilityChecker
	catalog     CatalogStore
	orders      OrderStore
	notifier    Notifier
	log         *zap.Logger
	now         func() time.Time
}

func NewAdmissionService(
	window *WindowPolicy,
	postal PostalValidator,
	fees *delivery.FeeCalculator,
	eligibility *EligibilityChecker,
	catalog CatalogStore,
	orders OrderStore,
	notifier Notifier,
	log *zap.Logger,
) *AdmissionService {
	return &AdmissionService{
		window:      window,
		geo:         postal,
		fees:        fees,
		eligibility: eligibility,
		catalog:     catalog,
		orders:      orders,
		notifier:    notifier,
		log:         log,
		now:         time.Now,
	}
}

// Admit validates an incoming order end to end and persists it exactly
// once. Each step short-circuits with the first applicable rejection;
// nothing is written until every check has passed.
func (s *AdmissionService) Admit(ctx context.Context, req OrderRequest) (*Order, *Error) {
	orderType := OrderType(strings.ToUpper(strings.TrimSpace(req.OrderType)))
	if orderType != OrderWalkIn && orderType != OrderPreorder {
		return nil, ValidationError(ErrValidation, "Valid order type is required (WALK_IN or PREORDER)")
	}

	fulfillmentType := FulfillmentType(strings.ToLower(strings.TrimSpace(req.FulfillmentType)))
	if fulfillmentType != FulfillmentPickup && fulfillmentType != FulfillmentDelivery {
		return nil, ValidationError(ErrValidation, "Valid fulfillment type is required (pickup or delivery)")
	}

	if strings.TrimSpace(req.Customer.FirstName) == "" || strings.TrimSpace(req.Customer.LastName) == "" {
		return nil, ValidationError(ErrValidation, "Customer name is required")
	}
	if strings.TrimSpace(req.Customer.Phone) == "" {
		return nil, ValidationError(ErrValidation, "Customer phone is required")
	}
	if len(req.Items) == 0 {
		return nil, ValidationError(ErrValidation, "Order must have at least one item")
	}
	for _, line := range req.Items {
		if line.Qty <= 0 {
			return nil, ValidationError(ErrValidation, "Item quantity must be positive")
		}
	}

	paymentMethod := PaymentMethod(strings.ToLower(strings.TrimSpace(req.PaymentMethod)))
	if paymentMethod != PayNow && paymentMethod != Stripe {
		return nil, ValidationError(ErrInvalidPaymentMethod, "Valid payment method is required (paynow or stripe)")
	}

	if fulfillmentType == FulfillmentDelivery {
		if strings.TrimSpace(req.Customer.Address) == "" {
			return nil, ValidationError(ErrValidation, "Delivery address is required")
		}
		if strings.TrimSpace(req.Customer.PostalCode) == "" {
			return nil, ValidationError(ErrValidation, "Postal code is required for delivery")
		}
	}

	// Every order carries its branch: pickup orders snapshot it as the
	// collection point, delivery orders use it as the courier pickup
	// leg. Either way it must exist, be active, and have coordinates,
	// or the order would be admitted and then never dispatchable.
	branch, err := s.catalog.Branch(ctx, req.BranchID)
	if err != nil {
		return nil, InternalError("Failed to load branch")
	}
	if branch == nil || !branch.IsActive {
		return nil, ValidationError(ErrBranchNotFound, "Branch not found")
	}
	if branch.Lat == nil || branch.Lng == nil {
		return nil, ValidationError(ErrBranchNoCoordinates, "Branch has no location configured")
	}

	var pickup *PickupLocation
	if fulfillmentType == FulfillmentPickup {
		pickup = &PickupLocation{
			Name:    branch.Name,
			Address: branch.Address,
			Lat:     *branch.Lat,
			Lng:     *branch.Lng,
		}
	}

	phone, ok := NormalizePhone(req.Customer.Phone)
	if !ok {
		return nil, ValidationError(ErrInvalidPhone, "Phone must be a valid Singapore number")
	}

	if verr := s.window.Validate(orderType, req.FulfillmentDate, req.FulfillmentTime, s.now()); verr != nil {
		return nil, verr
	}

	var deliveryAddr *DeliveryAddress
	if fulfillmentType == FulfillmentDelivery {
		postal := strings.TrimSpace(req.Customer.PostalCode)
		location, valid := s.geo.Validate(ctx, postal)
		if !valid {
			return nil, ValidationError(ErrInvalidPostalCode, "Postal code could not be validated for Singapore delivery")
		}
		deliveryAddr = &DeliveryAddress{
			AddressText: strings.TrimSpace(req.Customer.Address),
			PostalCode:  postal,
			Area:        location.Area,
			Lat:         location.Lat,
			Lng:         location.Lng,
		}
	}

	menu, verr := s.eligibility.Check(ctx, orderType, req.FulfillmentDate, req.Items)
	if verr != nil {
		return nil, verr
	}

	items, subtotal, verr := snapshotItems(req.Items, menu)
	if verr != nil {
		return nil, verr
	}

	deliveryFee := 0.0
	if deliveryAddr != nil {
		deliveryFee = s.fees.Fee(subtotal, deliveryAddr.PostalCode)
	}

	seq, err := s.orders.NextOrderNumber(ctx)
	if err != nil {
		return nil, InternalError("Failed to generate order number")
	}

	now := s.now()
	order := &Order{
		OrderNumber:     fmt.Sprintf("#%04d", seq),
		OrderType:       orderType,
		FulfillmentType: fulfillmentType,
		FulfillmentDate: req.FulfillmentDate,
		FulfillmentTime: req.FulfillmentTime,
		BranchID:        req.BranchID,
		Customer: Customer{
			FirstName: strings.TrimSpace(req.Customer.FirstName),
			LastName:  strings.TrimSpace(req.Customer.LastName),
			Email:     strings.TrimSpace(req.Customer.Email),
			Company:   strings.TrimSpace(req.Customer.Company),
			Phone:     phone,
			Message:   strings.TrimSpace(req.Customer.Message),
		},
		DeliveryAddress: deliveryAddr,
		PickupLocation:  pickup,
		Items:           items,
		Subtotal:        subtotal,
		DeliveryFee:     deliveryFee,
		TotalAmount:     round2(subtotal + deliveryFee),
		PaymentMethod:   paymentMethod,
		PaymentStatus:   PaymentPending,
		CourierStatus:   courierStatusFor(fulfillmentType),
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		s.log.Error("order persist failed", zap.Error(err))
		return nil, InternalError("Failed to create order")
	}

	// Already committed: notification failure must not fail admission.
	s.notifier.OrderAdmitted(context.WithoutCancel(ctx), order)

	return order, nil
}

func snapshotItems(lines []OrderItemInput, menu map[int64]*MenuItem) ([]OrderItem, float64, *Error) {
	items := make([]OrderItem, 0, len(lines))
	var subtotal float64

	for _, line := range lines {
		item := menu[line.ProductID]
		if item == nil {
			return nil, 0, ValidationError(ErrItemUnavailable, fmt.Sprintf("Menu item %d not found", line.ProductID))
		}

		price, variant, ok := resolveVariant(item, line.Variant)
		if !ok {
			return nil, 0, ValidationError(ErrValidation,
				fmt.Sprintf("Unknown variant %q for %q", line.Variant, item.Name))
		}

		items = append(items, OrderItem{
			ProductID: item.ID,
			Name:      item.Name,
			Variant:   variant,
			Price:     price,
			Qty:       line.Qty,
		})
		subtotal = round2(subtotal + price*float64(line.Qty))
	}

	return items, subtotal, nil
}

func resolveVariant(item *MenuItem, label string) (float64, string, bool) {
	if len(item.Variants) == 0 {
		return 0, "", false
	}
	label = strings.TrimSpace(label)
	if label == "" {
		v := item.Variants[0]
		return v.Price, v.Label, true
	}
	for _, v := range item.Variants {
		if strings.EqualFold(v.Label, label) {
			return v.Price, v.Label, true
		}
	}
	return 0, "", false
}

func courierStatusFor(ft FulfillmentType) CourierStatus {
	if ft == FulfillmentDelivery {
		return CourierNotBooked
	}
	return CourierNotRequired
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
