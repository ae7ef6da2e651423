package ordering

import "time"

// OrderType is the timing class of an order: same-day walk-in vs
// multi-day pre-order.
type OrderType string

const (
	OrderWalkIn   OrderType = "WALK_IN"
	OrderPreorder OrderType = "PREORDER"
)

type FulfillmentType string

const (
	FulfillmentPickup   FulfillmentType = "pickup"
	FulfillmentDelivery FulfillmentType = "delivery"
)

type PaymentMethod string

const (
	PayNow PaymentMethod = "paynow"
	Stripe PaymentMethod = "stripe"
)

type PaymentStatus string

const (
	PaymentPending             PaymentStatus = "pending"
	PaymentPendingVerification PaymentStatus = "pending_verification"
	PaymentPaid                PaymentStatus = "paid"
	PaymentRejected            PaymentStatus = "rejected"
	PaymentFailed              PaymentStatus = "failed"
)

type CourierStatus string

const (
	CourierNotRequired      CourierStatus = "not_required"
	CourierNotBooked        CourierStatus = "not_booked"
	CourierBookingRequested CourierStatus = "booking_requested"
	CourierBooked           CourierStatus = "booked"
	CourierFailed           CourierStatus = "failed"
)

// Status is the operational kitchen status, set by staff independently
// of payment and courier state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type Customer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Company   string `json:"company,omitempty"`
	Phone     string `json:"phone"`
	Message   string `json:"message,omitempty"`
}

type DeliveryAddress struct {
	AddressText string  `json:"addressText"`
	PostalCode  string  `json:"postalCode"`
	Area        string  `json:"area"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

type PickupLocation struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// OrderItem snapshots name, variant and unit price at admission. The
// catalog may change afterwards without repricing existing orders.
type OrderItem struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Variant   string  `json:"variant,omitempty"`
	Price     float64 `json:"price"`
	Qty       int32   `json:"qty"`
}

type Order struct {
	ID          int64  `json:"id"`
	OrderNumber string `json:"orderNumber"`

	OrderType       OrderType       `json:"orderType"`
	FulfillmentType FulfillmentType `json:"fulfillmentType"`
	FulfillmentDate string          `json:"fulfillmentDate"`
	FulfillmentTime string          `json:"fulfillmentTime"`

	BranchID int64    `json:"branchId,omitempty"`
	Customer Customer `json:"customer"`

	DeliveryAddress *DeliveryAddress `json:"deliveryAddress,omitempty"`
	PickupLocation  *PickupLocation  `json:"pickupLocation,omitempty"`

	Items       []OrderItem `json:"items"`
	Subtotal    float64     `json:"subtotal"`
	DeliveryFee float64     `json:"deliveryFee"`
	TotalAmount float64     `json:"totalAmount"`

	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	PaymentProofURL *string       `json:"paymentProof,omitempty"`
	TransactionID   *string       `json:"transactionId,omitempty"`
	CreditedAccount *string       `json:"creditedAccount,omitempty"`
	PaidAmount      float64       `json:"paidAmount"`
	PaidAt          *time.Time    `json:"paidAt,omitempty"`

	CourierStatus       CourierStatus `json:"courierStatus"`
	CourierBookingID    *string       `json:"courierBookingId,omitempty"`
	CourierTrackingLink *string       `json:"courierTrackingLink,omitempty"`

	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MenuItem is the slice of the catalog the admission pipeline reads.
// The core never mutates catalog records.
type MenuItem struct {
	ID              int64
	Name            string
	PreorderEnabled bool
	PreorderMinDays int
	IsAvailable     bool
	InStock         bool
	Variants        []MenuVariant
}

type MenuVariant struct {
	Label string
	Price float64
}

type Branch struct {
	ID       int64
	Name     string
	Address  string
	Lat      *float64
	Lng      *float64
	IsActive bool
}

func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusPending, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}
