package ordering

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RedirectSession is the processor's authoritative view of a hosted
// checkout session. OrderID is read back from the session metadata
// stamped at creation; it is what ties a session to the one order it
// was opened for.
type RedirectSession struct {
	ID            string
	OrderID       int64
	Paid          bool
	Failed        bool
	AmountTotal   float64
	TransactionID string
}

// RedirectProcessor retrieves checkout session status from the hosted
// payment provider.
type RedirectProcessor interface {
	RetrieveSession(ctx context.Context, sessionID string) (*RedirectSession, error)
}

// PaymentStore is the slice of persistence PaymentGate mutates. The
// Mark* operations are conditional updates: they succeed only when the
// current payment status is one of the allowed prior states, and report
// whether a row transitioned.
type PaymentStore interface {
	GetOrder(ctx context.Context, orderID int64) (*Order, error)
	MarkPaid(ctx context.Context, orderID int64, txnID, creditedAccount string, amount float64, paidAt time.Time) (bool, error)
	MarkPaymentFailed(ctx context.Context, orderID int64) (bool, error)
	MarkPaymentRejected(ctx context.Context, orderID int64) (bool, error)
	AttachPaymentProof(ctx context.Context, orderID int64, proofURL string) (bool, error)
}

// PaymentNotifier extends the admission notifier with payment outcomes.
type PaymentNotifier interface {
	PaymentReceived(ctx context.Context, order *Order)
	PaymentRejected(ctx context.Context, order *Order)
}

// PaymentGate drives paymentStatus through its state machine for both
// rails. paid is reachable only from pending or pending_verification;
// rejected and failed are terminal.
type PaymentGate struct {
	orders    PaymentStore
	processor RedirectProcessor
	notifier  PaymentNotifier
	log       *zap.Logger
	now       func() time.Time
}

func NewPaymentGate(orders PaymentStore, processor RedirectProcessor, notifier PaymentNotifier, log *zap.Logger) *PaymentGate {
	return &PaymentGate{
		orders:    orders,
		processor: processor,
		notifier:  notifier,
		log:       log,
		now:       time.Now,
	}
}

// VerifyRedirect checks the processor's authoritative session status
// and applies the result. Idempotent: re-verifying an already-paid
// order changes nothing and sends no second notification.
func (g *PaymentGate) VerifyRedirect(ctx context.Context, orderID int64, sessionID string) (*Order, *Error) {
	order, err := g.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, InternalError("Failed to load order")
	}
	if order == nil {
		return nil, NotFoundError(ErrOrderNotFound, "Order not found")
	}
	if order.PaymentMethod != Stripe {
		return nil, ValidationError(ErrInvalidPaymentMethod, "Order is not a redirect-rail payment")
	}

	if order.PaymentStatus == PaymentPaid {
		return order, nil
	}
	if order.PaymentStatus == PaymentRejected || order.PaymentStatus == PaymentFailed {
		return nil, ConflictError(ErrPaymentStateConflict, "Payment is in a terminal state")
	}

	session, err := g.processor.RetrieveSession(ctx, sessionID)
	if err != nil {
		g.log.Warn("checkout session retrieval failed", zap.String("session", sessionID), zap.Error(err))
		return nil, BadGatewayError(ErrPaymentNotConfirmed, "Could not verify payment with processor")
	}

	// The session was stamped with its order at creation; a paid
	// session for some other order must never settle this one.
	if session.OrderID != order.ID {
		g.log.Warn("checkout session bound to a different order",
			zap.String("session", sessionID),
			zap.Int64("session_order_id", session.OrderID),
			zap.Int64("order_id", order.ID))
		return nil, ConflictError(ErrPaymentStateConflict, "Checkout session does not belong to this order")
	}

	if session.Failed {
		if _, err := g.orders.MarkPaymentFailed(ctx, orderID); err != nil {
			return nil, InternalError("Failed to record payment failure")
		}
		return nil, ConflictError(ErrPaymentStateConflict, "Payment failed at the processor")
	}
	if !session.Paid {
		return nil, ValidationError(ErrPaymentNotConfirmed, "Payment has not completed")
	}
	// Cent-rounding slack only; anything short of the total is not a
	// settled payment for this order.
	if session.AmountTotal < order.TotalAmount-0.01 {
		g.log.Warn("checkout session underpays order",
			zap.String("session", sessionID),
			zap.Float64("session_amount", session.AmountTotal),
			zap.Float64("order_total", order.TotalAmount))
		return nil, ValidationError(ErrPaymentNotConfirmed, "Session amount does not cover the order total")
	}

	transitioned, err := g.orders.MarkPaid(ctx, orderID, session.TransactionID, "Stripe", session.AmountTotal, g.now())
	if err != nil {
		return nil, InternalError("Failed to record payment")
	}

	order, err = g.orders.GetOrder(ctx, orderID)
	if err != nil || order == nil {
		return nil, InternalError("Failed to reload order")
	}

	// A concurrent verify may have won the conditional update; only the
	// caller that actually transitioned the row notifies.
	if transitioned {
		g.notifier.PaymentReceived(context.WithoutCancel(ctx), order)
	}
	return order, nil
}

// AttachProof records an uploaded proof-of-payment artifact and moves a
// pending manual-proof order to pending_verification.
func (g *PaymentGate) AttachProof(ctx context.Context, orderID int64, proofURL string) (*Order, *Error) {
	order, err := g.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, InternalError("Failed to load order")
	}
	if order == nil {
		return nil, NotFoundError(ErrOrderNotFound, "Order not found")
	}
	if order.PaymentMethod != PayNow {
		return nil, ValidationError(ErrInvalidPaymentMethod, "Order is not a manual-proof payment")
	}

	transitioned, err := g.orders.AttachPaymentProof(ctx, orderID, proofURL)
	if err != nil {
		return nil, InternalError("Failed to record payment proof")
	}
	if !transitioned {
		return nil, ConflictError(ErrPaymentStateConflict, "Payment is not awaiting proof")
	}

	return g.reload(ctx, orderID)
}

// AcceptManual is the operator confirmation of an out-of-band transfer.
// Redirect-rail orders settle only through their processor session.
func (g *PaymentGate) AcceptManual(ctx context.Context, orderID int64, creditedAccount string) (*Order, *Error) {
	order, err := g.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, InternalError("Failed to load order")
	}
	if order == nil {
		return nil, NotFoundError(ErrOrderNotFound, "Order not found")
	}
	if order.PaymentMethod != PayNow {
		return nil, ValidationError(ErrInvalidPaymentMethod, "Order is not a manual-proof payment")
	}

	transitioned, err := g.orders.MarkPaid(ctx, orderID, "", creditedAccount, order.TotalAmount, g.now())
	if err != nil {
		return nil, InternalError("Failed to record payment")
	}
	if !transitioned {
		return nil, ConflictError(ErrPaymentStateConflict, "Payment cannot be accepted from its current state")
	}

	order, verr := g.reload(ctx, orderID)
	if verr != nil {
		return nil, verr
	}
	g.notifier.PaymentReceived(context.WithoutCancel(ctx), order)
	return order, nil
}

// RejectManual is terminal: a rejected payment cannot transition again.
func (g *PaymentGate) RejectManual(ctx context.Context, orderID int64) (*Order, *Error) {
	order, err := g.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, InternalError("Failed to load order")
	}
	if order == nil {
		return nil, NotFoundError(ErrOrderNotFound, "Order not found")
	}
	if order.PaymentMethod != PayNow {
		return nil, ValidationError(ErrInvalidPaymentMethod, "Order is not a manual-proof payment")
	}

	transitioned, err := g.orders.MarkPaymentRejected(ctx, orderID)
	if err != nil {
		return nil, InternalError("Failed to record rejection")
	}
	if !transitioned {
		return nil, ConflictError(ErrPaymentStateConflict, "Payment cannot be rejected from its current state")
	}

	order, verr := g.reload(ctx, orderID)
	if verr != nil {
		return nil, verr
	}
	g.notifier.PaymentRejected(context.WithoutCancel(ctx), order)
	return order, nil
}

func (g *PaymentGate) reload(ctx context.Context, orderID int64) (*Order, *Error) {
	order, err := g.orders.GetOrder(ctx, orderID)
	if err != nil || order == nil {
		return nil, InternalError("Failed to reload order")
	}
	return order, nil
}
