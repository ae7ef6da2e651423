package courier

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"one18-order-service/internal/ordering"
)

// Provider is the slice of the courier API the dispatcher drives.
type Provider interface {
	Quote(ctx context.Context, pickup, drop Stop, scheduleAt time.Time) (*Quotation, error)
	Book(ctx context.Context, quote *Quotation, sender, recipient Contact) (*Booking, error)
}

// DispatchStore persists courier state transitions. BeginBooking is
// conditional: it succeeds only when the order is currently in
// not_booked or failed, so concurrent dispatch attempts collapse to a
// single winner.
type DispatchStore interface {
	GetOrder(ctx context.Context, orderID int64) (*ordering.Order, error)
	Branch(ctx context.Context, branchID int64) (*ordering.Branch, error)
	BeginBooking(ctx context.Context, orderID int64) (bool, error)
	CompleteBooking(ctx context.Context, orderID int64, bookingID, trackingLink string) error
	FailBooking(ctx context.Context, orderID int64) error
}

type DispatcherConfig struct {
	SenderName  string
	SenderPhone string
	MinLead     time.Duration
}

// Dispatcher books a courier for a paid delivery order.
type Dispatcher struct {
	store    DispatchStore
	provider Provider
	cfg      DispatcherConfig
	loc      *time.Location
	log      *zap.Logger
	now      func() time.Time
}

func NewDispatcher(store DispatchStore, provider Provider, cfg DispatcherConfig, loc *time.Location, log *zap.Logger) *Dispatcher {
	if cfg.MinLead <= 0 {
		cfg.MinLead = time.Hour
	}
	return &Dispatcher{
		store:    store,
		provider: provider,
		cfg:      cfg,
		loc:      loc,
		log:      log,
		now:      time.Now,
	}
}

// Dispatch runs the two-phase booking (quotation, then order) for a
// single delivery order. The transition into booking_requested is a
// conditional update; losing it means another dispatch is already in
// flight and the caller gets a conflict rather than a double booking.
func (d *Dispatcher) Dispatch(ctx context.Context, orderID int64) (*ordering.Order, *ordering.Error) {
	order, err := d.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, ordering.InternalError("Failed to load order")
	}
	if order == nil {
		return nil, ordering.NotFoundError(ordering.ErrOrderNotFound, "Order not found")
	}

	if order.FulfillmentType != ordering.FulfillmentDelivery {
		return nil, ordering.ConflictError(ordering.ErrCourierNotRequired, "Order is not a delivery order")
	}
	switch order.CourierStatus {
	case ordering.CourierBooked:
		return nil, ordering.ConflictError(ordering.ErrCourierAlreadyBooked, "Courier already booked for this order")
	case ordering.CourierBookingRequested:
		return nil, ordering.ConflictError(ordering.ErrCourierInProgress, "A courier booking is already in progress")
	}
	// Manual-rail orders must be verified before spending on a courier;
	// redirect-rail orders are only visible here once paid anyway.
	if order.PaymentStatus != ordering.PaymentPaid {
		return nil, ordering.ConflictError(ordering.ErrPaymentStateConflict, "Order must be paid before booking a courier")
	}
	if order.DeliveryAddress == nil || order.DeliveryAddress.Lat == 0 || order.DeliveryAddress.Lng == 0 {
		return nil, ordering.ConflictError(ordering.ErrMissingCoordinates, "Order has no delivery coordinates")
	}

	branch, err := d.store.Branch(ctx, order.BranchID)
	if err != nil {
		return nil, ordering.InternalError("Failed to load branch")
	}
	if branch == nil {
		return nil, ordering.NotFoundError(ordering.ErrBranchNotFound, "Dispatch branch not found")
	}
	if branch.Lat == nil || branch.Lng == nil {
		return nil, ordering.ConflictError(ordering.ErrBranchNoCoordinates, "Dispatch branch has no location configured")
	}

	scheduleAt, perr := d.scheduleFor(order)
	if perr != nil {
		return nil, perr
	}

	won, err := d.store.BeginBooking(ctx, orderID)
	if err != nil {
		return nil, ordering.InternalError("Failed to update courier state")
	}
	if !won {
		return nil, ordering.ConflictError(ordering.ErrCourierInProgress, "A courier booking is already in progress")
	}

	booking, err := d.book(ctx, order, branch, scheduleAt)
	if err != nil {
		d.log.Error("courier booking failed",
			zap.Int64("order_id", orderID),
			zap.String("order_number", order.OrderNumber),
			zap.Error(err))
		if ferr := d.store.FailBooking(ctx, orderID); ferr != nil {
			d.log.Error("failed to record courier failure", zap.Int64("order_id", orderID), zap.Error(ferr))
		}
		return nil, ordering.BadGatewayError(ordering.ErrCourierProvider, "Courier booking failed")
	}

	if err := d.store.CompleteBooking(ctx, orderID, booking.ID, booking.TrackingLink); err != nil {
		// The provider booking exists; surface it even though the local
		// record could not be updated.
		d.log.Error("courier booked but state update failed",
			zap.Int64("order_id", orderID),
			zap.String("booking_id", booking.ID),
			zap.Error(err))
		return nil, ordering.InternalError("Courier booked but order update failed")
	}

	d.log.Info("courier booked",
		zap.Int64("order_id", orderID),
		zap.String("order_number", order.OrderNumber),
		zap.String("booking_id", booking.ID))

	updated, err := d.store.GetOrder(ctx, orderID)
	if err != nil || updated == nil {
		return order, nil
	}
	return updated, nil
}

func (d *Dispatcher) book(ctx context.Context, order *ordering.Order, branch *ordering.Branch, scheduleAt time.Time) (*Booking, error) {
	pickup := Stop{Address: branch.Address, Lat: *branch.Lat, Lng: *branch.Lng}
	drop := Stop{
		Address: order.DeliveryAddress.AddressText,
		Lat:     order.DeliveryAddress.Lat,
		Lng:     order.DeliveryAddress.Lng,
	}

	quote, err := d.provider.Quote(ctx, pickup, drop, scheduleAt)
	if err != nil {
		return nil, err
	}

	sender := Contact{Name: d.cfg.SenderName, Phone: d.cfg.SenderPhone}
	recipient := Contact{
		Name:  order.Customer.FirstName + " " + order.Customer.LastName,
		Phone: order.Customer.Phone,
	}
	return d.provider.Book(ctx, quote, sender, recipient)
}

// scheduleFor resolves the pickup instant from the order's fulfillment
// slot, interpreted in the business time zone. Instants inside the
// provider's minimum lead are rejected up front; the provider would
// refuse them anyway and the operator should reschedule instead.
func (d *Dispatcher) scheduleFor(order *ordering.Order) (time.Time, *ordering.Error) {
	at, err := time.ParseInLocation("2006-01-02 15:04", order.FulfillmentDate+" "+order.FulfillmentTime, d.loc)
	if err != nil {
		return time.Time{}, ordering.InternalError(fmt.Sprintf("Order %s has an unparseable fulfillment slot", order.OrderNumber))
	}
	if at.Before(d.now().Add(d.cfg.MinLead)) {
		return time.Time{}, ordering.ConflictError(ordering.ErrCourierLeadTime, "Fulfillment slot is within the courier's minimum lead time")
	}
	return at, nil
}
