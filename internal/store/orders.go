package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"one18-order-service/internal/ordering"
)

const orderColumns = `
	id, order_number, order_type, fulfillment_type, fulfillment_date, fulfillment_time,
	branch_id,
	customer_first_name, customer_last_name, customer_email, customer_company, customer_phone, customer_message,
	delivery_address_text, delivery_postal_code, delivery_area, delivery_lat, delivery_lng,
	pickup_name, pickup_address, pickup_lat, pickup_lng,
	subtotal, delivery_fee, total_amount,
	payment_method, payment_status, payment_proof_url, transaction_id, credited_account, paid_amount, paid_at,
	courier_status, courier_booking_id, courier_tracking_link,
	status, created_at, updated_at`

// CreateOrder writes the order and its line items in one transaction
// and fills in the generated id and timestamps.
func (s *Store) CreateOrder(ctx context.Context, order *ordering.Order) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin order tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var addrText, postal, area *string
	var dLat, dLng *float64
	if order.DeliveryAddress != nil {
		addrText = &order.DeliveryAddress.AddressText
		postal = &order.DeliveryAddress.PostalCode
		area = &order.DeliveryAddress.Area
		dLat = &order.DeliveryAddress.Lat
		dLng = &order.DeliveryAddress.Lng
	}
	var pName, pAddr *string
	var pLat, pLng *float64
	if order.PickupLocation != nil {
		pName = &order.PickupLocation.Name
		pAddr = &order.PickupLocation.Address
		pLat = &order.PickupLocation.Lat
		pLng = &order.PickupLocation.Lng
	}

	err = tx.QueryRow(ctx, `
		insert into orders (
			order_number, order_type, fulfillment_type, fulfillment_date, fulfillment_time,
			branch_id,
			customer_first_name, customer_last_name, customer_email, customer_company, customer_phone, customer_message,
			delivery_address_text, delivery_postal_code, delivery_area, delivery_lat, delivery_lng,
			pickup_name, pickup_address, pickup_lat, pickup_lng,
			subtotal, delivery_fee, total_amount,
			payment_method, payment_status, paid_amount,
			courier_status, status
		) values (
			$1, $2, $3, $4, $5,
			$6,
			$7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17,
			$18, $19, $20, $21,
			$22, $23, $24,
			$25, $26, 0,
			$27, $28
		)
		returning id, created_at, updated_at
	`,
		order.OrderNumber, order.OrderType, order.FulfillmentType, order.FulfillmentDate, order.FulfillmentTime,
		nullIfZero(order.BranchID),
		order.Customer.FirstName, order.Customer.LastName, order.Customer.Email,
		nullIfEmpty(order.Customer.Company), order.Customer.Phone, nullIfEmpty(order.Customer.Message),
		addrText, postal, area, dLat, dLng,
		pName, pAddr, pLat, pLng,
		order.Subtotal, order.DeliveryFee, order.TotalAmount,
		order.PaymentMethod, order.PaymentStatus,
		order.CourierStatus, order.Status,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		_, err = tx.Exec(ctx, `
			insert into order_items (order_id, product_id, name, variant, price, qty)
			values ($1, $2, $3, $4, $5, $6)
		`, order.ID, item.ProductID, item.Name, nullIfEmpty(item.Variant), item.Price, item.Qty)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order tx: %w", err)
	}
	return nil
}

// GetOrder returns nil without error when the order does not exist.
func (s *Store) GetOrder(ctx context.Context, orderID int64) (*ordering.Order, error) {
	row := s.pool.QueryRow(ctx, `select `+orderColumns+` from orders where id = $1`, orderID)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if err := s.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

type ListFilter struct {
	Status          string
	PaymentStatus   string
	FulfillmentType string
	Limit           int
	Offset          int
}

// ListOrders returns newest-first, optionally filtered. Items are
// loaded per order; listing is an admin-dashboard path, not a hot one.
func (s *Store) ListOrders(ctx context.Context, filter ListFilter) ([]*ordering.Order, error) {
	var conds []string
	var args []any
	add := func(col, val string) {
		if val != "" {
			args = append(args, val)
			conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
		}
	}
	add("status", filter.Status)
	add("payment_status", filter.PaymentStatus)
	add("fulfillment_type", filter.FulfillmentType)

	query := `select ` + orderColumns + ` from orders`
	if len(conds) > 0 {
		query += " where " + strings.Join(conds, " and ")
	}
	query += " order by created_at desc"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" limit $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" offset $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []*ordering.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	for _, order := range orders {
		if err := s.loadItems(ctx, order); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// UpdateStatus sets the operational kitchen status. It does not touch
// payment or courier state.
func (s *Store) UpdateStatus(ctx context.Context, orderID int64, status ordering.Status) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		update orders set status = $1, updated_at = now() where id = $2
	`, status, orderID)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkPaid transitions to paid only from pending or
// pending_verification. Terminal and already-paid rows are untouched
// and the caller learns it from the false return.
func (s *Store) MarkPaid(ctx context.Context, orderID int64, txnID, creditedAccount string, amount float64, paidAt time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		update orders
		set payment_status = 'paid',
		    transaction_id = coalesce($1, transaction_id),
		    credited_account = $2,
		    paid_amount = $3,
		    paid_at = $4,
		    updated_at = now()
		where id = $5 and payment_status in ('pending', 'pending_verification')
	`, nullIfEmpty(txnID), creditedAccount, amount, paidAt, orderID)
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) MarkPaymentFailed(ctx context.Context, orderID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		update orders set payment_status = 'failed', updated_at = now()
		where id = $1 and payment_status in ('pending', 'pending_verification')
	`, orderID)
	if err != nil {
		return false, fmt.Errorf("mark payment failed: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) MarkPaymentRejected(ctx context.Context, orderID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		update orders set payment_status = 'rejected', updated_at = now()
		where id = $1 and payment_status in ('pending', 'pending_verification')
	`, orderID)
	if err != nil {
		return false, fmt.Errorf("mark payment rejected: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// AttachPaymentProof moves pending to pending_verification. Re-uploads
// against a non-pending order change nothing.
func (s *Store) AttachPaymentProof(ctx context.Context, orderID int64, proofURL string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		update orders
		set payment_status = 'pending_verification', payment_proof_url = $1, updated_at = now()
		where id = $2 and payment_status = 'pending'
	`, proofURL, orderID)
	if err != nil {
		return false, fmt.Errorf("attach payment proof: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// BeginBooking claims the order for dispatch. Only not_booked and
// failed rows can be claimed; a false return means a concurrent
// dispatch holds the claim or the booking already succeeded.
func (s *Store) BeginBooking(ctx context.Context, orderID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		update orders set courier_status = 'booking_requested', updated_at = now()
		where id = $1 and courier_status in ('not_booked', 'failed')
	`, orderID)
	if err != nil {
		return false, fmt.Errorf("begin courier booking: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) CompleteBooking(ctx context.Context, orderID int64, bookingID, trackingLink string) error {
	_, err := s.pool.Exec(ctx, `
		update orders
		set courier_status = 'booked', courier_booking_id = $1, courier_tracking_link = $2, updated_at = now()
		where id = $3 and courier_status = 'booking_requested'
	`, bookingID, nullIfEmpty(trackingLink), orderID)
	if err != nil {
		return fmt.Errorf("complete courier booking: %w", err)
	}
	return nil
}

func (s *Store) FailBooking(ctx context.Context, orderID int64) error {
	_, err := s.pool.Exec(ctx, `
		update orders set courier_status = 'failed', updated_at = now()
		where id = $1 and courier_status = 'booking_requested'
	`, orderID)
	if err != nil {
		return fmt.Errorf("fail courier booking: %w", err)
	}
	return nil
}

func (s *Store) loadItems(ctx context.Context, order *ordering.Order) error {
	rows, err := s.pool.Query(ctx, `
		select product_id, name, variant, price, qty
		from order_items where order_id = $1 order by id
	`, order.ID)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	order.Items = order.Items[:0]
	for rows.Next() {
		var item ordering.OrderItem
		var variant *string
		if err := rows.Scan(&item.ProductID, &item.Name, &variant, &item.Price, &item.Qty); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if variant != nil {
			item.Variant = *variant
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (*ordering.Order, error) {
	var o ordering.Order
	var branchID *int64
	var company, message *string
	var addrText, postal, area *string
	var dLat, dLng *float64
	var pName, pAddr *string
	var pLat, pLng *float64

	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.OrderType, &o.FulfillmentType, &o.FulfillmentDate, &o.FulfillmentTime,
		&branchID,
		&o.Customer.FirstName, &o.Customer.LastName, &o.Customer.Email, &company, &o.Customer.Phone, &message,
		&addrText, &postal, &area, &dLat, &dLng,
		&pName, &pAddr, &pLat, &pLng,
		&o.Subtotal, &o.DeliveryFee, &o.TotalAmount,
		&o.PaymentMethod, &o.PaymentStatus, &o.PaymentProofURL, &o.TransactionID, &o.CreditedAccount, &o.PaidAmount, &o.PaidAt,
		&o.CourierStatus, &o.CourierBookingID, &o.CourierTrackingLink,
		&o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if branchID != nil {
		o.BranchID = *branchID
	}
	if company != nil {
		o.Customer.Company = *company
	}
	if message != nil {
		o.Customer.Message = *message
	}
	if addrText != nil {
		o.DeliveryAddress = &ordering.DeliveryAddress{
			AddressText: *addrText,
		}
		if postal != nil {
			o.DeliveryAddress.PostalCode = *postal
		}
		if area != nil {
			o.DeliveryAddress.Area = *area
		}
		if dLat != nil {
			o.DeliveryAddress.Lat = *dLat
		}
		if dLng != nil {
			o.DeliveryAddress.Lng = *dLng
		}
	}
	if pName != nil && pAddr != nil {
		o.PickupLocation = &ordering.PickupLocation{Name: *pName, Address: *pAddr}
		if pLat != nil {
			o.PickupLocation.Lat = *pLat
		}
		if pLng != nil {
			o.PickupLocation.Lng = *pLng
		}
	}
	return &o, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullIfZero(n int64) *int64 {
	if n == 0 {
		return nil
	}
	return &n
}
