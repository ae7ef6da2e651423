package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"one18-order-service/internal/ordering"
)

// MenuItem returns nil without error when the item does not exist.
func (s *Store) MenuItem(ctx context.Context, id int64) (*ordering.MenuItem, error) {
	var item ordering.MenuItem
	err := s.pool.QueryRow(ctx, `
		select id, name, preorder_enabled, preorder_min_days, is_available, in_stock
		from menu_items where id = $1
	`, id).Scan(&item.ID, &item.Name, &item.PreorderEnabled, &item.PreorderMinDays, &item.IsAvailable, &item.InStock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get menu item: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		select label, price from menu_item_variants where menu_item_id = $1 order by id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load menu item variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v ordering.MenuVariant
		if err := rows.Scan(&v.Label, &v.Price); err != nil {
			return nil, fmt.Errorf("scan menu item variant: %w", err)
		}
		item.Variants = append(item.Variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load menu item variants: %w", err)
	}
	return &item, nil
}

func (s *Store) Branch(ctx context.Context, id int64) (*ordering.Branch, error) {
	var b ordering.Branch
	err := s.pool.QueryRow(ctx, `
		select id, name, address, lat, lng, is_active from branches where id = $1
	`, id).Scan(&b.ID, &b.Name, &b.Address, &b.Lat, &b.Lng, &b.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get branch: %w", err)
	}
	return &b, nil
}

// AdminByEmail returns the stored bcrypt hash alongside the profile.
func (s *Store) AdminByEmail(ctx context.Context, email string) (*Admin, error) {
	var a Admin
	err := s.pool.QueryRow(ctx, `
		select id, email, name, password_hash from admins where lower(email) = lower($1)
	`, email).Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return &a, nil
}

type Admin struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
}
