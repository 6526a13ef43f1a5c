package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/nandusaji2001/ServConnect-sub001/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderRepository defines the interface for gas order data.
type OrderRepository interface {
	Insert(ctx context.Context, o *model.Order) error
	GetByID(ctx context.Context, orderID string) (*model.Order, error)
	ListByUserID(ctx context.Context, userID string, limit int) ([]model.Order, error)
	ListByVendorID(ctx context.Context, vendorID string, limit int) ([]model.Order, error)
	// ListOpenByVendorID returns the vendor's orders still in a non-terminal state.
	ListOpenByVendorID(ctx context.Context, vendorID string) ([]model.Order, error)
	// ApplyTransition persists status, vendor message, stage timestamps, and
	// the delivery-verification fields in one write, after the lifecycle
	// manager has validated the transition. Writing the verification flag
	// together with the status keeps a verified order from ever being stored
	// in a non-Delivered state.
	ApplyTransition(ctx context.Context, o *model.Order) error
	// SetDeliveryVerification records a failed weight check: the post-delivery
	// weight with the flag left false.
	SetDeliveryVerification(ctx context.Context, orderID string, postWeightGrams float64, verified bool) error
}

type orderRepo struct {
	pool *pgxpool.Pool
}

// NewOrderRepo creates a new OrderRepository.
func NewOrderRepo(pool *pgxpool.Pool) OrderRepository {
	return &orderRepo{pool: pool}
}

const orderColumns = `
	id, user_id, user_name, user_email, user_phone, delivery_address,
	vendor_id, vendor_name, is_auto_triggered, trigger_gas_percentage,
	gas_item_id, gas_item_name, price_cents, status, vendor_message,
	created_at, updated_at, accepted_at, out_for_delivery_at, delivered_at,
	pre_delivery_weight_grams, post_delivery_weight_grams, is_delivery_verified`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.UserName, &o.UserEmail, &o.UserPhone, &o.DeliveryAddress,
		&o.VendorID, &o.VendorName, &o.IsAutoTriggered, &o.TriggerGasPercentage,
		&o.GasItemID, &o.GasItemName, &o.PriceCents, &o.Status, &o.VendorMessage,
		&o.CreatedAt, &o.UpdatedAt, &o.AcceptedAt, &o.OutForDeliveryAt, &o.DeliveredAt,
		&o.PreDeliveryWeightGrams, &o.PostDeliveryWeightGrams, &o.IsDeliveryVerified,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning order row: %w", err)
	}
	return &o, nil
}

func (r *orderRepo) Insert(ctx context.Context, o *model.Order) error {
	query := `
		INSERT INTO gas_orders (
			user_id, user_name, user_email, user_phone, delivery_address,
			vendor_id, vendor_name, is_auto_triggered, trigger_gas_percentage,
			gas_item_id, gas_item_name, price_cents, status, pre_delivery_weight_grams
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		o.UserID, o.UserName, o.UserEmail, o.UserPhone, o.DeliveryAddress,
		o.VendorID, o.VendorName, o.IsAutoTriggered, o.TriggerGasPercentage,
		o.GasItemID, o.GasItemName, o.PriceCents, o.Status, o.PreDeliveryWeightGrams,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting order for user %s: %w", o.UserID, err)
	}
	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, orderID string) (*model.Order, error) {
	query := `SELECT` + orderColumns + ` FROM gas_orders WHERE id = $1`
	return scanOrder(r.pool.QueryRow(ctx, query, orderID))
}

func (r *orderRepo) listQuery(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order rows: %w", err)
	}
	if len(orders) == 0 {
		return []model.Order{}, nil
	}
	return orders, nil
}

func (r *orderRepo) ListByUserID(ctx context.Context, userID string, limit int) ([]model.Order, error) {
	query := `SELECT` + orderColumns + `
		FROM gas_orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	return r.listQuery(ctx, query, userID, limit)
}

func (r *orderRepo) ListByVendorID(ctx context.Context, vendorID string, limit int) ([]model.Order, error) {
	query := `SELECT` + orderColumns + `
		FROM gas_orders
		WHERE vendor_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	return r.listQuery(ctx, query, vendorID, limit)
}

func (r *orderRepo) ListOpenByVendorID(ctx context.Context, vendorID string) ([]model.Order, error) {
	query := `SELECT` + orderColumns + `
		FROM gas_orders
		WHERE vendor_id = $1
		  AND status IN ('Pending', 'Accepted', 'OutForDelivery')
		ORDER BY created_at DESC`
	return r.listQuery(ctx, query, vendorID)
}

func (r *orderRepo) ApplyTransition(ctx context.Context, o *model.Order) error {
	query := `
		UPDATE gas_orders
		SET status = $2,
		    vendor_message = $3,
		    updated_at = $4,
		    accepted_at = $5,
		    out_for_delivery_at = $6,
		    delivered_at = $7,
		    post_delivery_weight_grams = $8,
		    is_delivery_verified = $9
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query,
		o.ID, o.Status, o.VendorMessage, o.UpdatedAt, o.AcceptedAt, o.OutForDeliveryAt, o.DeliveredAt,
		o.PostDeliveryWeightGrams, o.IsDeliveryVerified,
	)
	if err != nil {
		return fmt.Errorf("applying transition on order %s: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %s not found for transition", o.ID)
	}
	return nil
}

func (r *orderRepo) SetDeliveryVerification(ctx context.Context, orderID string, postWeightGrams float64, verified bool) error {
	query := `
		UPDATE gas_orders
		SET post_delivery_weight_grams = $2,
		    is_delivery_verified = $3
		WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, orderID, postWeightGrams, verified); err != nil {
		return fmt.Errorf("recording delivery verification on order %s: %w", orderID, err)
	}
	return nil
}
