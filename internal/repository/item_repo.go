package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/nandusaji2001/ServConnect-sub001/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ItemRepository is the read-only catalog lookup used to price gas orders.
// The items table is owned by the marketplace.
type ItemRepository interface {
	// FindActiveGasItem returns the vendor's first active gas-categorized
	// item, or nil when the vendor lists none (not an error).
	FindActiveGasItem(ctx context.Context, vendorID string) (*model.Item, error)
}

type itemRepo struct {
	pool *pgxpool.Pool
}

// NewItemRepo creates a new ItemRepository.
func NewItemRepo(pool *pgxpool.Pool) ItemRepository {
	return &itemRepo{pool: pool}
}

func (r *itemRepo) FindActiveGasItem(ctx context.Context, vendorID string) (*model.Item, error) {
	query := `
		SELECT id, owner_id, title, category, price_cents, is_active
		FROM items
		WHERE owner_id = $1
		  AND is_active = TRUE
		  AND (category IN ('Gas', 'LPG') OR LOWER(title) LIKE '%gas%' OR LOWER(title) LIKE '%lpg%')
		LIMIT 1`
	var it model.Item
	err := r.pool.QueryRow(ctx, query, vendorID).Scan(
		&it.ID, &it.OwnerID, &it.Title, &it.Category, &it.PriceCents, &it.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding gas item for vendor %s: %w", vendorID, err)
	}
	return &it, nil
}
