package payment

import (
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/skip2/go-qrcode"
)

// PayNowQR renders the scannable transfer code for an order. The
// reference embeds the order id so inbound transfers can be matched to
// orders during manual verification.
type PayNowQR struct {
	uen string
}

func NewPayNowQR(uen string) *PayNowQR {
	return &PayNowQR{uen: uen}
}

func (p *PayNowQR) Payload(orderID int64, amount float64) string {
	q := url.Values{}
	q.Set("uen", p.uen)
	q.Set("amount", fmt.Sprintf("%.2f", amount))
	q.Set("ref", fmt.Sprintf("ORDER_%d", orderID))
	return "paynow://pay?" + q.Encode()
}

// DataURL returns the QR as a PNG data URL ready to embed in a page.
func (p *PayNowQR) DataURL(orderID int64, amount float64) (string, error) {
	png, err := qrcode.Encode(p.Payload(orderID, amount), qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("encode paynow qr: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
