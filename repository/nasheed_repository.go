package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"ajnadfm/model"
)

// NasheedRepository defines the interface for catalog row operations.
type NasheedRepository interface {
	Create(ctx context.Context, n *model.Nasheed) error
	GetByID(ctx context.Context, id string) (*model.Nasheed, error)
	Search(ctx context.Context, q string, limit int) ([]model.Nasheed, error)
	SearchPage(ctx context.Context, q string, offset, limit int) ([]model.Nasheed, error)
	Delete(ctx context.Context, id string) error
}

// mysqlNasheedRepository implements NasheedRepository for MySQL.
type mysqlNasheedRepository struct {
	db *sql.DB
}

// NewMySQLNasheedRepository creates a new mysqlNasheedRepository.
func NewMySQLNasheedRepository(db *sql.DB) NasheedRepository {
	return &mysqlNasheedRepository{db: db}
}

const nasheedColumns = "id, title, artist, duration, file_url, cover_url, created_at"

// Create inserts a new catalog row.
func (r *mysqlNasheedRepository) Create(ctx context.Context, n *model.Nasheed) error {
	query := `INSERT INTO nasheeds (id, title, artist, duration, file_url, cover_url, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for Create: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	if n.CreatedAt == nil {
		n.CreatedAt = &now
	}
	_, err = stmt.ExecContext(ctx, n.ID, n.Title, n.Artist, n.Duration, n.FileURL, n.CoverURL, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute Create for nasheed %s: %w", n.ID, err)
	}
	return nil
}

// GetByID retrieves a row by its id.
func (r *mysqlNasheedRepository) GetByID(ctx context.Context, id string) (*model.Nasheed, error) {
	query := fmt.Sprintf("SELECT %s FROM nasheeds WHERE id = ?", nasheedColumns)
	row := r.db.QueryRowContext(ctx, query, id)

	n := &model.Nasheed{}
	err := row.Scan(&n.ID, &n.Title, &n.Artist, &n.Duration, &n.FileURL, &n.CoverURL, &n.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to scan nasheed %s: %w", id, err)
	}
	return n, nil
}

// Search returns rows ordered by creation time descending, with a
// case-insensitive substring match against title OR artist when a term
// is given, capped at limit.
func (r *mysqlNasheedRepository) Search(ctx context.Context, q string, limit int) ([]model.Nasheed, error) {
	return r.SearchPage(ctx, q, 0, limit)
}

// SearchPage is Search with an offset, used by the catalog function's
// page/limit range.
func (r *mysqlNasheedRepository) SearchPage(ctx context.Context, q string, offset, limit int) ([]model.Nasheed, error) {
	var (
		query strings.Builder
		args  []interface{}
	)
	query.WriteString(fmt.Sprintf("SELECT %s FROM nasheeds", nasheedColumns))

	term := strings.TrimSpace(q)
	if term != "" {
		query.WriteString(" WHERE LOWER(title) LIKE ? OR LOWER(artist) LIKE ?")
		pattern := "%" + strings.ToLower(term) + "%"
		args = append(args, pattern, pattern)
	}

	query.WriteString(" ORDER BY created_at DESC LIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query nasheeds: %w", err)
	}
	defer rows.Close()

	out := make([]model.Nasheed, 0)
	for rows.Next() {
		var n model.Nasheed
		if err := rows.Scan(&n.ID, &n.Title, &n.Artist, &n.Duration, &n.FileURL, &n.CoverURL, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan nasheed in SearchPage: %w", err)
		}
		out = append(out, n)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in SearchPage: %w", err)
	}
	return out, nil
}

// Delete removes a row.
func (r *mysqlNasheedRepository) Delete(ctx context.Context, id string) error {
	stmt, err := r.db.PrepareContext(ctx, "DELETE FROM nasheeds WHERE id = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare statement for Delete: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to execute Delete for nasheed %s: %w", id, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
