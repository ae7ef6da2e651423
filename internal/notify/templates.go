package notify

import (
	"fmt"
	"html"
	"strings"

	"one18-order-service/internal/ordering"
)

// renderOrderRows builds the line-item table shared by all order
// emails. Values are escaped; item names come from the catalog but the
// catalog is operator-editable.
func renderOrderRows(order *ordering.Order) string {
	var b strings.Builder
	for _, item := range order.Items {
		name := html.EscapeString(item.Name)
		if item.Variant != "" {
			name += " (" + html.EscapeString(item.Variant) + ")"
		}
		fmt.Fprintf(&b,
			`<tr><td style="padding:6px 12px;border-bottom:1px solid #eee;">%s</td>`+
				`<td style="padding:6px 12px;border-bottom:1px solid #eee;text-align:center;">%d</td>`+
				`<td style="padding:6px 12px;border-bottom:1px solid #eee;text-align:right;">$%.2f</td></tr>`,
			name, item.Qty, item.Price*float64(item.Qty))
	}
	return b.String()
}

func renderFulfillment(order *ordering.Order) string {
	when := fmt.Sprintf("%s at %s", order.FulfillmentDate, order.FulfillmentTime)
	if order.FulfillmentType == ordering.FulfillmentDelivery && order.DeliveryAddress != nil {
		return fmt.Sprintf("Delivery to %s, S%s (%s) on %s",
			html.EscapeString(order.DeliveryAddress.AddressText),
			html.EscapeString(order.DeliveryAddress.PostalCode),
			html.EscapeString(order.DeliveryAddress.Area), when)
	}
	if order.PickupLocation != nil {
		return fmt.Sprintf("Self-collection at %s, %s on %s",
			html.EscapeString(order.PickupLocation.Name),
			html.EscapeString(order.PickupLocation.Address), when)
	}
	return "Self-collection on " + when
}

func orderConfirmationEmail(bakeryName string, order *ordering.Order) (subject, body string) {
	subject = fmt.Sprintf("%s — Order %s received", bakeryName, order.OrderNumber)
	body = fmt.Sprintf(`
		<div style="font-family:Arial,sans-serif;max-width:560px;margin:0 auto;">
		<h2>Thank you for your order, %s!</h2>
		<p>We have received order <strong>%s</strong>.</p>
		<p>%s</p>
		<table style="width:100%%;border-collapse:collapse;">%s</table>
		<p style="text-align:right;">Subtotal: $%.2f<br>Delivery fee: $%.2f<br><strong>Total: $%.2f</strong></p>
		<p>Payment method: %s. We will be in touch once your payment is confirmed.</p>
		</div>`,
		html.EscapeString(order.Customer.FirstName), order.OrderNumber,
		renderFulfillment(order), renderOrderRows(order),
		order.Subtotal, order.DeliveryFee, order.TotalAmount,
		paymentMethodLabel(order.PaymentMethod))
	return subject, body
}

func newOrderStaffEmail(bakeryName string, order *ordering.Order) (subject, body string) {
	subject = fmt.Sprintf("New order %s (%s, %s)", order.OrderNumber, order.OrderType, order.FulfillmentType)
	body = fmt.Sprintf(`
		<div style="font-family:Arial,sans-serif;max-width:560px;margin:0 auto;">
		<h2>%s — new order %s</h2>
		<p>%s %s &lt;%s&gt; · %s</p>
		<p>%s</p>
		<table style="width:100%%;border-collapse:collapse;">%s</table>
		<p style="text-align:right;"><strong>Total: $%.2f</strong> (%s, %s)</p>
		</div>`,
		html.EscapeString(bakeryName), order.OrderNumber,
		html.EscapeString(order.Customer.FirstName), html.EscapeString(order.Customer.LastName),
		html.EscapeString(order.Customer.Email), html.EscapeString(order.Customer.Phone),
		renderFulfillment(order), renderOrderRows(order),
		order.TotalAmount, paymentMethodLabel(order.PaymentMethod), order.PaymentStatus)
	return subject, body
}

func paymentReceivedEmail(bakeryName string, order *ordering.Order) (subject, body string) {
	subject = fmt.Sprintf("%s — Payment confirmed for order %s", bakeryName, order.OrderNumber)
	body = fmt.Sprintf(`
		<div style="font-family:Arial,sans-serif;max-width:560px;margin:0 auto;">
		<h2>Payment confirmed</h2>
		<p>Hi %s, we have received your payment of <strong>$%.2f</strong> for order <strong>%s</strong>.</p>
		<p>%s</p>
		<p>See you soon!</p>
		</div>`,
		html.EscapeString(order.Customer.FirstName), order.PaidAmount, order.OrderNumber,
		renderFulfillment(order))
	return subject, body
}

func paymentRejectedEmail(bakeryName, bakeryPhone string, order *ordering.Order) (subject, body string) {
	subject = fmt.Sprintf("%s — Issue with payment for order %s", bakeryName, order.OrderNumber)
	body = fmt.Sprintf(`
		<div style="font-family:Arial,sans-serif;max-width:560px;margin:0 auto;">
		<h2>We could not verify your payment</h2>
		<p>Hi %s, unfortunately we could not verify the payment submitted for order <strong>%s</strong>.</p>
		<p>If you believe this is a mistake, please contact us at %s.</p>
		</div>`,
		html.EscapeString(order.Customer.FirstName), order.OrderNumber,
		html.EscapeString(bakeryPhone))
	return subject, body
}

func paymentMethodLabel(method ordering.PaymentMethod) string {
	switch method {
	case ordering.PayNow:
		return "PayNow"
	case ordering.Stripe:
		return "card"
	}
	return string(method)
}
