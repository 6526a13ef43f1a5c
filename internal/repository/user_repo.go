package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/nandusaji2001/ServConnect-sub001/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository is the read-only identity lookup used to snapshot user and
// vendor details onto orders. The users table is owned by the platform.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*model.User, error)
	// ListGasVendors returns approved vendors registered for gas delivery.
	ListGasVendors(ctx context.Context) ([]model.User, error)
}

type userRepo struct {
	pool *pgxpool.Pool
}

// NewUserRepo creates a new UserRepository.
func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepo{pool: pool}
}

const userColumns = `
	id, full_name, business_name, email, phone, address, business_address,
	role, is_gas_vendor, is_admin_approved`

func (r *userRepo) GetByID(ctx context.Context, userID string) (*model.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1`
	var u model.User
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&u.ID, &u.FullName, &u.BusinessName, &u.Email, &u.Phone, &u.Address, &u.BusinessAddress,
		&u.Role, &u.IsGasVendor, &u.IsAdminApproved,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting user by id %s: %w", userID, err)
	}
	return &u, nil
}

func (r *userRepo) ListGasVendors(ctx context.Context) ([]model.User, error) {
	query := `SELECT` + userColumns + `
		FROM users
		WHERE role = $1
		  AND is_admin_approved = TRUE
		  AND is_gas_vendor = TRUE
		ORDER BY COALESCE(business_name, full_name)`
	rows, err := r.pool.Query(ctx, query, model.RoleVendor)
	if err != nil {
		return nil, fmt.Errorf("querying gas vendors: %w", err)
	}
	defer rows.Close()

	var vendors []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.ID, &u.FullName, &u.BusinessName, &u.Email, &u.Phone, &u.Address, &u.BusinessAddress,
			&u.Role, &u.IsGasVendor, &u.IsAdminApproved,
		); err != nil {
			return nil, fmt.Errorf("scanning vendor row: %w", err)
		}
		vendors = append(vendors, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vendor rows: %w", err)
	}
	if len(vendors) == 0 {
		return []model.User{}, nil
	}
	return vendors, nil
}
