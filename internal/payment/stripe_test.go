package payment

import (
	"testing"

	"github.com/stripe/stripe-go/v81"

	"one18-order-service/internal/ordering"
)

func checkoutOrder() *ordering.Order {
	return &ordering.Order{
		ID:          42,
		OrderNumber: "#0042",
		Customer:    ordering.Customer{Email: "weiling@example.com"},
		Items: []ordering.OrderItem{
			{ProductID: 2, Name: "Celebration Cake", Variant: "6 inch", Price: 68, Qty: 1},
			{ProductID: 1, Name: "Sourdough Loaf", Price: 8.5, Qty: 2},
		},
		Subtotal:    85,
		DeliveryFee: 10,
		TotalAmount: 95,
	}
}

func TestCheckoutParams(t *testing.T) {
	g := NewStripeGateway(StripeConfig{SecretKey: "sk_test", ClientURL: "https://shop.example.com"})

	params := g.checkoutParams(checkoutOrder())

	if got := len(params.LineItems); got != 3 {
		t.Fatalf("line items = %d, want 2 products + delivery fee", got)
	}
	if name := *params.LineItems[0].PriceData.ProductData.Name; name != "Celebration Cake (6 inch)" {
		t.Errorf("item name = %q, want variant appended", name)
	}
	if cents := *params.LineItems[0].PriceData.UnitAmount; cents != 6800 {
		t.Errorf("unit amount = %d, want 6800", cents)
	}
	if cents := *params.LineItems[1].PriceData.UnitAmount; cents != 850 {
		t.Errorf("unit amount = %d, want 850", cents)
	}
	fee := params.LineItems[2]
	if *fee.PriceData.ProductData.Name != "Delivery fee" || *fee.PriceData.UnitAmount != 1000 {
		t.Errorf("fee line = %q/%d, want Delivery fee/1000", *fee.PriceData.ProductData.Name, *fee.PriceData.UnitAmount)
	}
	if params.Metadata["orderId"] != "42" || params.Metadata["orderNumber"] != "#0042" {
		t.Errorf("metadata = %v, want orderId/orderNumber stamped", params.Metadata)
	}
	if params.CustomerEmail == nil || *params.CustomerEmail != "weiling@example.com" {
		t.Errorf("customer email = %v", params.CustomerEmail)
	}
}

func TestCheckoutParamsOmitsEmptyEmail(t *testing.T) {
	g := NewStripeGateway(StripeConfig{SecretKey: "sk_test", ClientURL: "https://shop.example.com"})

	order := checkoutOrder()
	order.Customer.Email = ""
	order.DeliveryFee = 0

	params := g.checkoutParams(order)
	if params.CustomerEmail != nil {
		t.Errorf("customer email = %q, want omitted", *params.CustomerEmail)
	}
	if got := len(params.LineItems); got != 2 {
		t.Errorf("line items = %d, want no fee line for free delivery", got)
	}
}

func TestRedirectSessionFrom(t *testing.T) {
	sess := &stripe.CheckoutSession{
		ID:            "cs_123",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotal:   9500,
		Metadata:      map[string]string{"orderId": "42", "orderNumber": "#0042"},
		PaymentIntent: &stripe.PaymentIntent{ID: "pi_456"},
	}

	out := redirectSessionFrom(sess)
	if !out.Paid || out.Failed {
		t.Fatalf("paid/failed = %v/%v, want true/false", out.Paid, out.Failed)
	}
	if out.OrderID != 42 {
		t.Fatalf("order id = %d, want 42 from metadata", out.OrderID)
	}
	if out.AmountTotal != 95 || out.TransactionID != "pi_456" {
		t.Fatalf("amount/txn = %v/%q", out.AmountTotal, out.TransactionID)
	}
}

func TestRedirectSessionFromUnstamped(t *testing.T) {
	// A session created outside this service carries no orderId
	// metadata and must never match a real order.
	out := redirectSessionFrom(&stripe.CheckoutSession{
		ID:            "cs_foreign",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
	})
	if out.OrderID != 0 {
		t.Fatalf("order id = %d, want 0", out.OrderID)
	}

	expired := redirectSessionFrom(&stripe.CheckoutSession{
		ID:     "cs_expired",
		Status: stripe.CheckoutSessionStatusExpired,
	})
	if !expired.Failed || expired.Paid {
		t.Fatalf("expired session paid/failed = %v/%v, want false/true", expired.Paid, expired.Failed)
	}
}
