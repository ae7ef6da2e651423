package courier

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"one18-order-service/internal/ordering"
)

type stubDispatchStore struct {
	mu     sync.Mutex
	order  *ordering.Order
	branch *ordering.Branch
}

func (s *stubDispatchStore) GetOrder(ctx context.Context, orderID int64) (*ordering.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.order == nil || s.order.ID != orderID {
		return nil, nil
	}
	copied := *s.order
	return &copied, nil
}

func (s *stubDispatchStore) Branch(ctx context.Context, branchID int64) (*ordering.Branch, error) {
	return s.branch, nil
}

func (s *stubDispatchStore) BeginBooking(ctx context.Context, orderID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.order == nil || s.order.ID != orderID {
		return false, nil
	}
	if s.order.CourierStatus != ordering.CourierNotBooked && s.order.CourierStatus != ordering.CourierFailed {
		return false, nil
	}
	s.order.CourierStatus = ordering.CourierBookingRequested
	return true, nil
}

func (s *stubDispatchStore) CompleteBooking(ctx context.Context, orderID int64, bookingID, trackingLink string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order.CourierStatus = ordering.CourierBooked
	s.order.CourierBookingID = &bookingID
	s.order.CourierTrackingLink = &trackingLink
	return nil
}

func (s *stubDispatchStore) FailBooking(ctx context.Context, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order.CourierStatus = ordering.CourierFailed
	return nil
}

type stubProvider struct {
	quoteErr error
	bookErr  error
	quotes   int32
	books    int32
}

func (p *stubProvider) Quote(ctx context.Context, pickup, drop Stop, scheduleAt time.Time) (*Quotation, error) {
	atomic.AddInt32(&p.quotes, 1)
	if p.quoteErr != nil {
		return nil, p.quoteErr
	}
	return &Quotation{ID: "q_1", SenderStopID: "s_1", RecipientStopID: "s_2", PriceTotal: "12.00", Currency: "SGD"}, nil
}

func (p *stubProvider) Book(ctx context.Context, quote *Quotation, sender, recipient Contact) (*Booking, error) {
	atomic.AddInt32(&p.books, 1)
	if p.bookErr != nil {
		return nil, p.bookErr
	}
	return &Booking{ID: "lm_789", TrackingLink: "https://track.example.com/lm_789"}, nil
}

func paidDeliveryOrder() *ordering.Order {
	return &ordering.Order{
		ID:              1,
		OrderNumber:     "#0001",
		FulfillmentType: ordering.FulfillmentDelivery,
		FulfillmentDate: "2026-03-12",
		FulfillmentTime: "15:00",
		BranchID:        1,
		Customer: ordering.Customer{
			FirstName: "Wei Ling", LastName: "Tan", Phone: "+6591234567",
		},
		DeliveryAddress: &ordering.DeliveryAddress{
			AddressText: "Blk 123 Serangoon Ave 3",
			PostalCode:  "550123",
			Lat:         1.3554,
			Lng:         103.8679,
		},
		PaymentMethod: ordering.PayNow,
		PaymentStatus: ordering.PaymentPaid,
		CourierStatus: ordering.CourierNotBooked,
	}
}

func testDispatcher(t *testing.T, store *stubDispatchStore, provider Provider) *Dispatcher {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Singapore")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	if store.branch == nil {
		lat, lng := 1.3006, 103.8576
		store.branch = &ordering.Branch{ID: 1, Name: "Main Branch", Address: "18 Baker St", Lat: &lat, Lng: &lng, IsActive: true}
	}
	d := NewDispatcher(store, provider, DispatcherConfig{
		SenderName:  "ONE18 Bakery",
		SenderPhone: "+6563334444",
		MinLead:     time.Hour,
	}, loc, zap.NewNop())
	d.now = func() time.Time { return time.Date(2026, 3, 10, 10, 0, 0, 0, loc) }
	return d
}

func TestDispatchBooksDelivery(t *testing.T) {
	store := &stubDispatchStore{order: paidDeliveryOrder()}
	provider := &stubProvider{}
	d := testDispatcher(t, store, provider)

	order, derr := d.Dispatch(context.Background(), 1)
	if derr != nil {
		t.Fatalf("unexpected rejection: %s (%s)", derr.Message, derr.Code)
	}
	if order.CourierStatus != ordering.CourierBooked {
		t.Fatalf("courier status = %s, want booked", order.CourierStatus)
	}
	if order.CourierBookingID == nil || *order.CourierBookingID != "lm_789" {
		t.Fatalf("booking id = %v, want lm_789", order.CourierBookingID)
	}
	if order.CourierTrackingLink == nil || *order.CourierTrackingLink == "" {
		t.Fatal("tracking link not persisted")
	}
	if provider.quotes != 1 || provider.books != 1 {
		t.Fatalf("provider calls = %d quotes, %d books; want 1 each", provider.quotes, provider.books)
	}
}

func TestDispatchRejectsPickup(t *testing.T) {
	order := paidDeliveryOrder()
	order.FulfillmentType = ordering.FulfillmentPickup
	order.CourierStatus = ordering.CourierNotRequired
	store := &stubDispatchStore{order: order}
	provider := &stubProvider{}
	d := testDispatcher(t, store, provider)

	_, derr := d.Dispatch(context.Background(), 1)
	if derr == nil || derr.Code != ordering.ErrCourierNotRequired {
		t.Fatalf("err = %v, want %s", derr, ordering.ErrCourierNotRequired)
	}
	if provider.quotes != 0 {
		t.Fatal("provider called for a pickup order")
	}
	if store.order.CourierStatus != ordering.CourierNotRequired {
		t.Fatalf("courier status mutated to %s", store.order.CourierStatus)
	}
}

func TestDispatchRejectsMissingCoordinates(t *testing.T) {
	order := paidDeliveryOrder()
	order.DeliveryAddress.Lat = 0
	order.DeliveryAddress.Lng = 0
	store := &stubDispatchStore{order: order}
	provider := &stubProvider{}
	d := testDispatcher(t, store, provider)

	_, derr := d.Dispatch(context.Background(), 1)
	if derr == nil || derr.Code != ordering.ErrMissingCoordinates {
		t.Fatalf("err = %v, want %s", derr, ordering.ErrMissingCoordinates)
	}
	if provider.quotes != 0 {
		t.Fatal("provider called despite missing coordinates")
	}
	if store.order.CourierStatus != ordering.CourierNotBooked {
		t.Fatalf("courier status mutated to %s", store.order.CourierStatus)
	}
}

func TestDispatchRejectsUnpaidManualRail(t *testing.T) {
	order := paidDeliveryOrder()
	order.PaymentStatus = ordering.PaymentPendingVerification
	store := &stubDispatchStore{order: order}
	provider := &stubProvider{}
	d := testDispatcher(t, store, provider)

	_, derr := d.Dispatch(context.Background(), 1)
	if derr == nil || derr.Code != ordering.ErrPaymentStateConflict {
		t.Fatalf("err = %v, want %s", derr, ordering.ErrPaymentStateConflict)
	}
	if provider.quotes != 0 {
		t.Fatal("provider called before payment confirmed")
	}
}

func TestDispatchRejectsAlreadyBooked(t *testing.T) {
	order := paidDeliveryOrder()
	order.CourierStatus = ordering.CourierBooked
	d := testDispatcher(t, &stubDispatchStore{order: order}, &stubProvider{})

	_, derr := d.Dispatch(context.Background(), 1)
	if derr == nil || derr.Code != ordering.ErrCourierAlreadyBooked {
		t.Fatalf("err = %v, want %s", derr, ordering.ErrCourierAlreadyBooked)
	}
}

func TestDispatchRejectsInFlightBooking(t *testing.T) {
	order := paidDeliveryOrder()
	order.CourierStatus = ordering.CourierBookingRequested
	d := testDispatcher(t, &stubDispatchStore{order: order}, &stubProvider{})

	_, derr := d.Dispatch(context.Background(), 1)
	if derr == nil || derr.Code != ordering.ErrCourierInProgress {
		t.Fatalf("err = %v, want %s", derr, ordering.ErrCourierInProgress)
	}
}

func TestDispatchRejectsSlotInsideCourierLead(t *testing.T) {
	order := paidDeliveryOrder()
	order.FulfillmentDate = "2026-03-10"
	order.FulfillmentTime = "10:30" // now is 10:00, lead is 1h
	store := &stubDispatchStore{order: order}
	provider := &stubProvider{}
	d := testDispatcher(t, store, provider)

	_, derr := d.Dispatch(context.Background(), 1)
	if derr == nil || derr.Code != ordering.ErrCourierLeadTime {
		t.Fatalf("err = %v, want %s", derr, ordering.ErrCourierLeadTime)
	}
	if provider.quotes != 0 {
		t.Fatal("provider called for a slot inside the minimum lead")
	}
	if store.order.CourierStatus != ordering.CourierNotBooked {
		t.Fatalf("courier status mutated to %s", store.order.CourierStatus)
	}
}

func TestDispatchProviderFailureIsRetryable(t *testing.T) {
	store := &stubDispatchStore{order: paidDeliveryOrder()}
	provider := &stubProvider{quoteErr: errors.New("upstream 500")}
	d := testDispatcher(t, store, provider)

	_, derr := d.Dispatch(context.Background(), 1)
	if derr == nil || derr.Code != ordering.ErrCourierProvider {
		t.Fatalf("err = %v, want %s", derr, ordering.ErrCourierProvider)
	}
	if store.order.CourierStatus != ordering.CourierFailed {
		t.Fatalf("courier status = %s, want failed", store.order.CourierStatus)
	}

	// A retry after the provider recovers runs both phases from scratch.
	provider.quoteErr = nil
	order, derr := d.Dispatch(context.Background(), 1)
	if derr != nil {
		t.Fatalf("retry rejected: %s (%s)", derr.Message, derr.Code)
	}
	if order.CourierStatus != ordering.CourierBooked {
		t.Fatalf("retry courier status = %s, want booked", order.CourierStatus)
	}
	if provider.quotes != 2 {
		t.Fatalf("quote calls = %d, want 2 (fresh quote per attempt)", provider.quotes)
	}
}

func TestDispatchBookingPhaseFailure(t *testing.T) {
	store := &stubDispatchStore{order: paidDeliveryOrder()}
	provider := &stubProvider{bookErr: errors.New("quote expired")}
	d := testDispatcher(t, store, provider)

	_, derr := d.Dispatch(context.Background(), 1)
	if derr == nil || derr.Code != ordering.ErrCourierProvider {
		t.Fatalf("err = %v, want %s", derr, ordering.ErrCourierProvider)
	}
	if store.order.CourierStatus != ordering.CourierFailed {
		t.Fatalf("courier status = %s, want failed", store.order.CourierStatus)
	}
}

func TestDispatchOrderNotFound(t *testing.T) {
	d := testDispatcher(t, &stubDispatchStore{}, &stubProvider{})

	_, derr := d.Dispatch(context.Background(), 99)
	if derr == nil || derr.Code != ordering.ErrOrderNotFound {
		t.Fatalf("err = %v, want %s", derr, ordering.ErrOrderNotFound)
	}
}
