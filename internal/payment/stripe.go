// Package payment holds the two payment rails: Stripe hosted checkout
// (redirect rail) and PayNow QR with manual proof (manual rail).
package payment

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"

	"one18-order-service/internal/ordering"
)

type StripeConfig struct {
	SecretKey string
	ClientURL string
}

// StripeGateway creates and retrieves hosted checkout sessions. It
// implements ordering.RedirectProcessor.
type StripeGateway struct {
	cfg StripeConfig
}

func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	stripe.Key = cfg.SecretKey
	return &StripeGateway{cfg: cfg}
}

// CreateCheckoutSession builds a hosted checkout for the order's items
// plus the delivery fee as its own line. Amounts are converted to
// cents; the order total is authoritative and already rounded.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, order *ordering.Order) (sessionID, checkoutURL string, err error) {
	params := g.checkoutParams(order)
	params.Params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return "", "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.ID, sess.URL, nil
}

func (g *StripeGateway) checkoutParams(order *ordering.Order) *stripe.CheckoutSessionParams {
	var lineItems []*stripe.CheckoutSessionLineItemParams
	for _, item := range order.Items {
		name := item.Name
		if item.Variant != "" {
			name = fmt.Sprintf("%s (%s)", item.Name, item.Variant)
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(string(stripe.CurrencySGD)),
				UnitAmount: stripe.Int64(toCents(item.Price)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(name),
				},
			},
			Quantity: stripe.Int64(int64(item.Qty)),
		})
	}
	if order.DeliveryFee > 0 {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(string(stripe.CurrencySGD)),
				UnitAmount: stripe.Int64(toCents(order.DeliveryFee)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Delivery fee"),
				},
			},
			Quantity: stripe.Int64(1),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(fmt.Sprintf("%s/payment/success?orderId=%d&session_id={CHECKOUT_SESSION_ID}", g.cfg.ClientURL, order.ID)),
		CancelURL:  stripe.String(fmt.Sprintf("%s/payment/cancel?orderId=%d", g.cfg.ClientURL, order.ID)),
	}
	if order.Customer.Email != "" {
		params.CustomerEmail = stripe.String(order.Customer.Email)
	}
	params.AddMetadata("orderId", fmt.Sprintf("%d", order.ID))
	params.AddMetadata("orderNumber", order.OrderNumber)
	return params
}

// RetrieveSession maps the processor's session state onto the payment
// state machine's inputs.
func (g *StripeGateway) RetrieveSession(ctx context.Context, sessionID string) (*ordering.RedirectSession, error) {
	params := &stripe.CheckoutSessionParams{Params: stripe.Params{Context: ctx}}
	params.AddExpand("payment_intent")

	sess, err := session.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session: %w", err)
	}
	return redirectSessionFrom(sess), nil
}

func redirectSessionFrom(sess *stripe.CheckoutSession) *ordering.RedirectSession {
	out := &ordering.RedirectSession{
		ID:          sess.ID,
		Paid:        sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Failed:      sess.Status == stripe.CheckoutSessionStatusExpired,
		AmountTotal: float64(sess.AmountTotal) / 100,
	}
	// The orderId metadata stamped at creation; a session without it
	// parses to 0 and never matches a real order.
	out.OrderID, _ = strconv.ParseInt(sess.Metadata["orderId"], 10, 64)
	if sess.PaymentIntent != nil {
		out.TransactionID = sess.PaymentIntent.ID
	}
	return out
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
