// Package courier books third-party deliveries through the Lalamove v3
// API: a price quotation followed by an order placed against that
// quotation, both HMAC-signed per request.
package courier

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

type ClientConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Market    string
	Timeout   time.Duration
}

type Client struct {
	cfg    ClientConfig
	client *http.Client
	now    func() time.Time
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		now:    time.Now,
	}
}

type Stop struct {
	Address string
	Lat     float64
	Lng     float64
}

type Contact struct {
	Name  string
	Phone string
}

type Quotation struct {
	ID              string
	SenderStopID    string
	RecipientStopID string
	PriceTotal      string
	Currency        string
}

type Booking struct {
	ID           string
	TrackingLink string
}

// ProviderError carries the courier API's error payload so callers can
// surface it verbatim.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("courier provider returned %d: %s", e.Status, e.Body)
}

type quotationResponse struct {
	Data struct {
		QuotationID string `json:"quotationId"`
		Stops       []struct {
			StopID string `json:"stopId"`
		} `json:"stops"`
		PriceBreakdown struct {
			Total    string `json:"total"`
			Currency string `json:"currency"`
		} `json:"priceBreakdown"`
	} `json:"data"`
}

type orderResponse struct {
	Data struct {
		OrderID   string `json:"orderId"`
		ShareLink string `json:"shareLink"`
	} `json:"data"`
}

// Quote requests a price quotation for the pickup/drop pair at the
// given schedule instant.
func (c *Client) Quote(ctx context.Context, pickup, drop Stop, scheduleAt time.Time) (*Quotation, error) {
	body := map[string]any{
		"data": map[string]any{
			"serviceType": "MOTORCYCLE",
			"language":    "en_SG",
			"scheduleAt":  scheduleAt.UTC().Format(time.RFC3339),
			"stops": []map[string]any{
				stopPayload(pickup),
				stopPayload(drop),
			},
		},
	}

	var parsed quotationResponse
	if err := c.post(ctx, "/v3/quotations", body, &parsed); err != nil {
		return nil, err
	}
	if parsed.Data.QuotationID == "" || len(parsed.Data.Stops) < 2 {
		return nil, fmt.Errorf("courier quotation response missing stops")
	}

	return &Quotation{
		ID:              parsed.Data.QuotationID,
		SenderStopID:    parsed.Data.Stops[0].StopID,
		RecipientStopID: parsed.Data.Stops[1].StopID,
		PriceTotal:      parsed.Data.PriceBreakdown.Total,
		Currency:        parsed.Data.PriceBreakdown.Currency,
	}, nil
}

// Book confirms an order against a previously obtained quotation.
func (c *Client) Book(ctx context.Context, quote *Quotation, sender, recipient Contact) (*Booking, error) {
	body := map[string]any{
		"data": map[string]any{
			"quotationId": quote.ID,
			"sender": map[string]any{
				"stopId": quote.SenderStopID,
				"name":   sender.Name,
				"phone":  sender.Phone,
			},
			"recipients": []map[string]any{
				{
					"stopId": quote.RecipientStopID,
					"name":   recipient.Name,
					"phone":  recipient.Phone,
				},
			},
		},
	}

	var parsed orderResponse
	if err := c.post(ctx, "/v3/orders", body, &parsed); err != nil {
		return nil, err
	}
	if parsed.Data.OrderID == "" {
		return nil, fmt.Errorf("courier order response missing orderId")
	}

	return &Booking{
		ID:           parsed.Data.OrderID,
		TrackingLink: parsed.Data.ShareLink,
	}, nil
}

// post marshals the body exactly once; those bytes are both signed and
// transmitted, so the signature can never drift from the payload.
func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	timestamp := strconv.FormatInt(c.now().UnixMilli(), 10)
	signature := sign(c.cfg.APISecret, timestamp, http.MethodPost, path, body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Market", c.cfg.Market)
	req.Header.Set("Authorization", fmt.Sprintf("hmac %s:%s:%s", c.cfg.APIKey, timestamp, signature))

	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &ProviderError{Status: res.StatusCode, Body: string(raw)}
	}

	return json.Unmarshal(raw, out)
}

// sign computes the per-request HMAC over the exact concatenation the
// provider verifies: timestamp, method, path, blank line, body.
func sign(secret, timestamp, method, path string, body []byte) string {
	raw := timestamp + "\r\n" + method + "\r\n" + path + "\r\n\r\n" + string(body)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// Lalamove expects coordinates as strings.
func stopPayload(s Stop) map[string]any {
	return map[string]any{
		"address": s.Address,
		"coordinates": map[string]string{
			"lat": strconv.FormatFloat(s.Lat, 'f', 6, 64),
			"lng": strconv.FormatFloat(s.Lng, 'f', 6, 64),
		},
	}
}
