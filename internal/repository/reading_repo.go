package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/nandusaji2001/ServConnect-sub001/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReadingRepository defines the interface for the append-only reading log.
type ReadingRepository interface {
	Insert(ctx context.Context, rd *model.Reading) error
	ListByUserID(ctx context.Context, userID string, limit int) ([]model.Reading, error)
	LatestByUserID(ctx context.Context, userID string) (*model.Reading, error)
	// TrimToCap deletes the oldest readings beyond cap for the given user and
	// returns how many rows were removed.
	TrimToCap(ctx context.Context, userID string, cap int) (int64, error)
}

type readingRepo struct {
	pool *pgxpool.Pool
}

// NewReadingRepo creates a new ReadingRepository.
func NewReadingRepo(pool *pgxpool.Pool) ReadingRepository {
	return &readingRepo{pool: pool}
}

func (r *readingRepo) Insert(ctx context.Context, rd *model.Reading) error {
	query := `
		INSERT INTO gas_readings (user_id, device_id, weight_grams, gas_percentage, status, ts, battery_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := r.pool.QueryRow(ctx, query,
		rd.UserID, rd.DeviceID, rd.WeightGrams, rd.GasPercentage, rd.Status, rd.Timestamp, rd.BatteryLevel,
	).Scan(&rd.ID)
	if err != nil {
		return fmt.Errorf("inserting reading for device %s: %w", rd.DeviceID, err)
	}
	return nil
}

func (r *readingRepo) ListByUserID(ctx context.Context, userID string, limit int) ([]model.Reading, error) {
	query := `
		SELECT id, user_id, device_id, weight_grams, gas_percentage, status, ts, battery_level
		FROM gas_readings
		WHERE user_id = $1
		ORDER BY ts DESC
		LIMIT $2`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying readings for user %s: %w", userID, err)
	}
	defer rows.Close()

	var readings []model.Reading
	for rows.Next() {
		var rd model.Reading
		if err := rows.Scan(&rd.ID, &rd.UserID, &rd.DeviceID, &rd.WeightGrams, &rd.GasPercentage, &rd.Status, &rd.Timestamp, &rd.BatteryLevel); err != nil {
			return nil, fmt.Errorf("scanning reading row: %w", err)
		}
		readings = append(readings, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reading rows: %w", err)
	}
	if len(readings) == 0 {
		return []model.Reading{}, nil
	}
	return readings, nil
}

func (r *readingRepo) LatestByUserID(ctx context.Context, userID string) (*model.Reading, error) {
	query := `
		SELECT id, user_id, device_id, weight_grams, gas_percentage, status, ts, battery_level
		FROM gas_readings
		WHERE user_id = $1
		ORDER BY ts DESC
		LIMIT 1`
	var rd model.Reading
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&rd.ID, &rd.UserID, &rd.DeviceID, &rd.WeightGrams, &rd.GasPercentage, &rd.Status, &rd.Timestamp, &rd.BatteryLevel,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting latest reading for user %s: %w", userID, err)
	}
	return &rd, nil
}

func (r *readingRepo) TrimToCap(ctx context.Context, userID string, cap int) (int64, error) {
	query := `
		DELETE FROM gas_readings
		WHERE user_id = $1
		  AND id NOT IN (
			SELECT id FROM gas_readings
			WHERE user_id = $1
			ORDER BY ts DESC
			LIMIT $2
		  )`
	tag, err := r.pool.Exec(ctx, query, userID, cap)
	if err != nil {
		return 0, fmt.Errorf("trimming readings for user %s: %w", userID, err)
	}
	return tag.RowsAffected(), nil
}
