package ordering

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"one18-order-service/internal/delivery"
	"one18-order-service/internal/geo"
)

type stubGeo struct {
	loc   geo.Location
	valid bool
	calls int32
}

func (s *stubGeo) Validate(ctx context.Context, postalCode string) (geo.Location, bool) {
	atomic.AddInt32(&s.calls, 1)
	return s.loc, s.valid
}

type stubOrders struct {
	mu      sync.Mutex
	seq     int64
	created []*Order
}

func (s *stubOrders) NextOrderNumber(ctx context.Context) (int64, error) {
	return atomic.AddInt64(&s.seq, 1), nil
}

func (s *stubOrders) CreateOrder(ctx context.Context, order *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order.ID = int64(len(s.created) + 1)
	s.created = append(s.created, order)
	return nil
}

type stubNotifier struct {
	admitted int32
	paid     int32
	rejected int32
}

func (s *stubNotifier) OrderAdmitted(ctx context.Context, order *Order)   { atomic.AddInt32(&s.admitted, 1) }
func (s *stubNotifier) PaymentReceived(ctx context.Context, order *Order) { atomic.AddInt32(&s.paid, 1) }
func (s *stubNotifier) PaymentRejected(ctx context.Context, order *Order) { atomic.AddInt32(&s.rejected, 1) }

func testAdmission(t *testing.T, geoStub *stubGeo) (*AdmissionService, *stubOrders, *stubNotifier, *stubCatalog) {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Singapore")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	catalog := testCatalog()
	lat, lng := 1.3006, 103.8576
	catalog.branches = map[int64]*Branch{
		1: {ID: 1, Name: "Main Branch", Address: "18 Baker St", Lat: &lat, Lng: &lng, IsActive: true},
		2: {ID: 2, Name: "No Coords", Address: "Somewhere", IsActive: true},
	}

	orders := &stubOrders{}
	notifier := &stubNotifier{}
	fees := testFees()
	svc := NewAdmissionService(
		NewWindowPolicy(loc, 2, 3),
		geoStub,
		fees,
		NewEligibilityChecker(catalog, loc),
		catalog,
		orders,
		notifier,
		zap.NewNop(),
	)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 10, 0, 0, 0, loc) }
	return svc, orders, notifier, catalog
}

func testFees() *delivery.FeeCalculator {
	return delivery.NewFeeCalculator(delivery.FeeConfig{
		FreeThreshold: 180,
		NearFee:       10,
		FarFee:        15,
		FarPrefixes:   []string{"52", "79"},
	})
}

func pickupRequest() OrderRequest {
	return OrderRequest{
		OrderType:       "WALK_IN",
		FulfillmentType: "pickup",
		BranchID:        1,
		FulfillmentDate: "2026-03-10",
		FulfillmentTime: "15:00",
		Customer: CustomerInput{
			FirstName: "Wei Ling",
			LastName:  "Tan",
			Email:     "weiling@example.com",
			Phone:     "9123 4567",
		},
		Items:         []OrderItemInput{{ProductID: 1, Qty: 2}},
		PaymentMethod: "paynow",
	}
}

func deliveryRequest() OrderRequest {
	req := pickupRequest()
	req.OrderType = "PREORDER"
	req.FulfillmentType = "delivery"
	req.FulfillmentDate = "2030-01-10"
	req.Customer.Address = "Blk 123 Serangoon Ave 3 #05-01"
	req.Customer.PostalCode = "550123"
	req.Items = []OrderItemInput{{ProductID: 2, Qty: 1, Variant: "6 inch"}}
	req.PaymentMethod = "stripe"
	return req
}

func TestAdmitPickupWalkIn(t *testing.T) {
	geoStub := &stubGeo{valid: true}
	svc, orders, notifier, _ := testAdmission(t, geoStub)

	order, err := svc.Admit(context.Background(), pickupRequest())
	if err != nil {
		t.Fatalf("unexpected rejection: %s (%s)", err.Message, err.Code)
	}

	if order.OrderNumber != "#0001" {
		t.Fatalf("order number = %q, want #0001", order.OrderNumber)
	}
	if order.CourierStatus != CourierNotRequired {
		t.Fatalf("courier status = %s, want %s", order.CourierStatus, CourierNotRequired)
	}
	if order.PaymentStatus != PaymentPending || order.Status != StatusPending {
		t.Fatalf("initial states = %s/%s, want pending/pending", order.PaymentStatus, order.Status)
	}
	if order.PickupLocation == nil || order.PickupLocation.Name != "Main Branch" {
		t.Fatalf("pickup location not snapshotted: %+v", order.PickupLocation)
	}
	if order.DeliveryAddress != nil {
		t.Fatalf("pickup order must not carry a delivery address")
	}
	if order.Customer.Phone != "+6591234567" {
		t.Fatalf("phone = %q, want normalized +6591234567", order.Customer.Phone)
	}
	if order.Subtotal != 17 || order.DeliveryFee != 0 || order.TotalAmount != 17 {
		t.Fatalf("amounts = %v/%v/%v, want 17/0/17", order.Subtotal, order.DeliveryFee, order.TotalAmount)
	}
	if atomic.LoadInt32(&geoStub.calls) != 0 {
		t.Fatalf("pickup order must not trigger geocoding")
	}
	if len(orders.created) != 1 {
		t.Fatalf("persisted %d orders, want 1", len(orders.created))
	}
	if atomic.LoadInt32(&notifier.admitted) != 1 {
		t.Fatalf("admitted notifications = %d, want 1", notifier.admitted)
	}
}

func TestAdmitDeliveryPreorder(t *testing.T) {
	geoStub := &stubGeo{
		valid: true,
		loc:   geo.Location{Area: "Serangoon", Lat: 1.3554, Lng: 103.8679},
	}
	svc, _, _, _ := testAdmission(t, geoStub)

	order, err := svc.Admit(context.Background(), deliveryRequest())
	if err != nil {
		t.Fatalf("unexpected rejection: %s (%s)", err.Message, err.Code)
	}

	if order.CourierStatus != CourierNotBooked {
		t.Fatalf("courier status = %s, want %s", order.CourierStatus, CourierNotBooked)
	}
	if order.DeliveryAddress == nil {
		t.Fatal("delivery order must carry a delivery address")
	}
	if order.DeliveryAddress.Area != "Serangoon" || order.DeliveryAddress.Lat == 0 {
		t.Fatalf("delivery address not enriched from geocode: %+v", order.DeliveryAddress)
	}
	if order.PickupLocation != nil {
		t.Fatalf("delivery order must not carry a pickup location")
	}
	if order.Subtotal != 68 || order.DeliveryFee != 10 || order.TotalAmount != 78 {
		t.Fatalf("amounts = %v/%v/%v, want 68/10/78", order.Subtotal, order.DeliveryFee, order.TotalAmount)
	}
}

func TestAdmitRejectsBeforeGeocodeOnLeadTime(t *testing.T) {
	geoStub := &stubGeo{valid: true}
	svc, orders, notifier, _ := testAdmission(t, geoStub)

	req := deliveryRequest()
	req.FulfillmentDate = "2026-03-12" // two days out, pre-order needs three
	req.FulfillmentTime = "10:00"

	_, err := svc.Admit(context.Background(), req)
	if err == nil || err.Code != ErrLeadTimeNotMet {
		t.Fatalf("err = %v, want %s", err, ErrLeadTimeNotMet)
	}
	if atomic.LoadInt32(&geoStub.calls) != 0 {
		t.Fatalf("geocode called %d times before the date check failed", geoStub.calls)
	}
	if len(orders.created) != 0 {
		t.Fatalf("rejected order was persisted")
	}
	if atomic.LoadInt32(&notifier.admitted) != 0 {
		t.Fatalf("rejected order sent a notification")
	}
}

func TestAdmitRejectsInvalidPostal(t *testing.T) {
	geoStub := &stubGeo{valid: false}
	svc, orders, _, _ := testAdmission(t, geoStub)

	_, err := svc.Admit(context.Background(), deliveryRequest())
	if err == nil || err.Code != ErrInvalidPostalCode {
		t.Fatalf("err = %v, want %s", err, ErrInvalidPostalCode)
	}
	if len(orders.created) != 0 {
		t.Fatalf("rejected order was persisted")
	}
}

func TestAdmitValidationRejections(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*OrderRequest)
		wantCode ErrorCode
	}{
		{"bad order type", func(r *OrderRequest) { r.OrderType = "EXPRESS" }, ErrValidation},
		{"bad fulfillment type", func(r *OrderRequest) { r.FulfillmentType = "teleport" }, ErrValidation},
		{"missing name", func(r *OrderRequest) { r.Customer.FirstName = " " }, ErrValidation},
		{"missing phone", func(r *OrderRequest) { r.Customer.Phone = "" }, ErrValidation},
		{"no items", func(r *OrderRequest) { r.Items = nil }, ErrValidation},
		{"zero qty", func(r *OrderRequest) { r.Items[0].Qty = 0 }, ErrValidation},
		{"bad payment method", func(r *OrderRequest) { r.PaymentMethod = "cash" }, ErrInvalidPaymentMethod},
		{"bad phone", func(r *OrderRequest) { r.Customer.Phone = "12345" }, ErrInvalidPhone},
		{"unknown branch", func(r *OrderRequest) { r.BranchID = 42 }, ErrBranchNotFound},
		{"branch without coordinates", func(r *OrderRequest) { r.BranchID = 2 }, ErrBranchNoCoordinates},
		{"unknown variant", func(r *OrderRequest) { r.Items[0].Variant = "Jumbo" }, ErrValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, orders, _, _ := testAdmission(t, &stubGeo{valid: true})
			req := pickupRequest()
			tc.mutate(&req)

			_, err := svc.Admit(context.Background(), req)
			if err == nil {
				t.Fatal("expected rejection, got admission")
			}
			if err.Code != tc.wantCode {
				t.Fatalf("code = %s, want %s", err.Code, tc.wantCode)
			}
			if len(orders.created) != 0 {
				t.Fatalf("rejected order was persisted")
			}
		})
	}
}

func TestAdmitDeliveryRequiresAddress(t *testing.T) {
	svc, _, _, _ := testAdmission(t, &stubGeo{valid: true})

	req := deliveryRequest()
	req.Customer.Address = ""
	if _, err := svc.Admit(context.Background(), req); err == nil || err.Code != ErrValidation {
		t.Fatalf("missing address: err = %v, want %s", err, ErrValidation)
	}

	req = deliveryRequest()
	req.Customer.PostalCode = ""
	if _, err := svc.Admit(context.Background(), req); err == nil || err.Code != ErrValidation {
		t.Fatalf("missing postal: err = %v, want %s", err, ErrValidation)
	}
}

func TestAdmitDeliveryRequiresDispatchableBranch(t *testing.T) {
	geoStub := &stubGeo{
		valid: true,
		loc:   geo.Location{Area: "Serangoon", Lat: 1.3554, Lng: 103.8679},
	}

	svc, orders, _, _ := testAdmission(t, geoStub)
	req := deliveryRequest()
	req.BranchID = 42
	_, err := svc.Admit(context.Background(), req)
	if err == nil || err.Code != ErrBranchNotFound {
		t.Fatalf("unknown branch: err = %v, want %s", err, ErrBranchNotFound)
	}
	if len(orders.created) != 0 {
		t.Fatal("delivery order with unknown branch was persisted")
	}

	// A branch without coordinates can never serve as the courier
	// pickup leg, so the order is rejected up front.
	svc, orders, _, _ = testAdmission(t, geoStub)
	req = deliveryRequest()
	req.BranchID = 2
	_, err = svc.Admit(context.Background(), req)
	if err == nil || err.Code != ErrBranchNoCoordinates {
		t.Fatalf("branch without coords: err = %v, want %s", err, ErrBranchNoCoordinates)
	}
	if len(orders.created) != 0 {
		t.Fatal("delivery order with undispatchable branch was persisted")
	}

	svc, _, _, _ = testAdmission(t, geoStub)
	order, verr := svc.Admit(context.Background(), deliveryRequest())
	if verr != nil {
		t.Fatalf("unexpected rejection: %s (%s)", verr.Message, verr.Code)
	}
	if order.BranchID != 1 {
		t.Fatalf("branch id = %d, want 1", order.BranchID)
	}
	if order.PickupLocation != nil {
		t.Fatal("delivery order must not snapshot a pickup location")
	}
}

func TestAdmitConcurrentOrderNumbersAreUnique(t *testing.T) {
	svc, orders, _, _ := testAdmission(t, &stubGeo{valid: true})

	const n = 20
	var wg sync.WaitGroup
	results := make([]*Order, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			order, err := svc.Admit(context.Background(), pickupRequest())
			if err != nil {
				t.Errorf("admission %d rejected: %s", i, err.Message)
				return
			}
			results[i] = order
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, order := range results {
		if order == nil {
			continue
		}
		if seen[order.OrderNumber] {
			t.Fatalf("duplicate order number %s", order.OrderNumber)
		}
		seen[order.OrderNumber] = true
	}
	if len(orders.created) != n {
		t.Fatalf("persisted %d orders, want %d", len(orders.created), n)
	}
}
