package repository

import (
	"context"
	"errors"
	"fmt"

	"sessionbot/database"
	"sessionbot/models"

	"github.com/jackc/pgx/v5"
)

const numberColumns = `id, platform, country, price, payload, used, used_by, used_at, created_at`

// NumberRepository implements the NumberRepository interface and is the inventory store
type NumberRepository struct {
	q queryable
}

// NewNumberRepository creates a new number repository
func NewNumberRepository(db *database.DB) *NumberRepository {
	return &NumberRepository{q: db.Pool}
}

// newNumberRepositoryWithTx creates a new number repository with a transaction
func newNumberRepositoryWithTx(tx queryable) *NumberRepository {
	return &NumberRepository{q: tx}
}

func scanNumber(row pgx.Row) (*models.NumberRecord, error) {
	var record models.NumberRecord
	err := row.Scan(
		&record.ID,
		&record.Platform,
		&record.Country,
		&record.Price,
		&record.Payload,
		&record.Used,
		&record.UsedBy,
		&record.UsedAt,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Create stores a new unused record
func (r *NumberRepository) Create(ctx context.Context, record *models.NumberRecord) (*models.NumberRecord, error) {
	query := `
		INSERT INTO numbers (platform, country, price, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + numberColumns

	created, err := scanNumber(r.q.QueryRow(ctx, query,
		record.Platform,
		record.Country,
		record.Price,
		record.Payload,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create number record: %w", err)
	}

	return created, nil
}

// GetByID retrieves a record by ID
func (r *NumberRepository) GetByID(ctx context.Context, id int64) (*models.NumberRecord, error) {
	query := `SELECT ` + numberColumns + ` FROM numbers WHERE id = $1`

	record, err := scanNumber(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get number record %d: %w", id, err)
	}

	return record, nil
}

// ListAvailablePlatforms returns the distinct platforms with unused records
func (r *NumberRepository) ListAvailablePlatforms(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT platform FROM numbers WHERE used = FALSE ORDER BY platform`

	platforms, err := r.queryStrings(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list available platforms: %w", err)
	}
	return platforms, nil
}

// ListAvailableCountries returns the distinct countries with unused records for a platform
func (r *NumberRepository) ListAvailableCountries(ctx context.Context, platform string) ([]string, error) {
	query := `SELECT DISTINCT country FROM numbers WHERE platform = $1 AND used = FALSE ORDER BY country`

	countries, err := r.queryStrings(ctx, query, platform)
	if err != nil {
		return nil, fmt.Errorf("failed to list available countries for %s: %w", platform, err)
	}
	return countries, nil
}

func (r *NumberRepository) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		values = append(values, value)
	}

	return values, rows.Err()
}

// PeekAvailable returns the oldest unused record matching the filter without locking it
func (r *NumberRepository) PeekAvailable(ctx context.Context, platform, country string) (*models.NumberRecord, error) {
	query := `
		SELECT ` + numberColumns + `
		FROM numbers
		WHERE platform = $1 AND country = $2 AND used = FALSE
		ORDER BY id
		LIMIT 1
	`

	record, err := scanNumber(r.q.QueryRow(ctx, query, platform, country))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to peek available number: %w", err)
	}

	return record, nil
}

// Reserve marks one unused matching record as used by buyer in a single statement.
// SKIP LOCKED lets concurrent buyers move on to the next candidate instead of waiting,
// and the outer used = FALSE predicate keeps the update conditional.
func (r *NumberRepository) Reserve(ctx context.Context, platform, country string, buyer int64) (*models.NumberRecord, error) {
	query := `
		UPDATE numbers
		SET used = TRUE, used_by = $3, used_at = NOW()
		WHERE id = (
			SELECT id FROM numbers
			WHERE platform = $1 AND country = $2 AND used = FALSE
			ORDER BY id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		) AND used = FALSE
		RETURNING ` + numberColumns

	record, err := scanNumber(r.q.QueryRow(ctx, query, platform, country, buyer))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reserve number for user %d: %w", buyer, err)
	}

	return record, nil
}

// Release returns a record held by buyer to the unused state
func (r *NumberRepository) Release(ctx context.Context, id int64, buyer int64) (bool, error) {
	query := `
		UPDATE numbers
		SET used = FALSE, used_by = NULL, used_at = NULL
		WHERE id = $1 AND used_by = $2 AND used = TRUE
	`

	result, err := r.q.Exec(ctx, query, id, buyer)
	if err != nil {
		return false, fmt.Errorf("failed to release number %d: %w", id, err)
	}

	return result.RowsAffected() == 1, nil
}

// StockLevels summarises unused records per platform and country
func (r *NumberRepository) StockLevels(ctx context.Context) ([]*models.StockLevel, error) {
	query := `
		SELECT platform, country, COUNT(*) AS available, MIN(price) AS min_price
		FROM numbers
		WHERE used = FALSE
		GROUP BY platform, country
		ORDER BY platform, country
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get stock levels: %w", err)
	}
	defer rows.Close()

	var levels []*models.StockLevel
	for rows.Next() {
		var level models.StockLevel
		if err := rows.Scan(&level.Platform, &level.Country, &level.Available, &level.MinPrice); err != nil {
			return nil, fmt.Errorf("failed to scan stock level: %w", err)
		}
		levels = append(levels, &level)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stock levels: %w", err)
	}

	return levels, nil
}
