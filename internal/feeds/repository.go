package feeds

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/signcast/signcast/internal/db"
)

type Repository struct {
	db *db.DB
}

func NewRepository(database *db.DB) *Repository {
	return &Repository{db: database}
}

const feedColumns = `id, group_id, name, url, source, duration, active,
	last_fetched_at, last_status, item_count, consecutive_errors, created_at, updated_at`

func scanFeed(row interface{ Scan(...interface{}) error }) (*Feed, error) {
	f := &Feed{}
	err := row.Scan(
		&f.ID, &f.GroupID, &f.Name, &f.URL, &f.Source, &f.Duration, &f.Active,
		&f.LastFetchedAt, &f.LastStatus, &f.ItemCount, &f.ConsecutiveErrors,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *Repository) Create(f *Feed) error {
	query := `
		INSERT INTO feeds (group_id, name, url, source, duration, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(query, f.GroupID, f.Name, f.URL, f.Source, f.Duration, f.Active).
		Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create feed: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(id uuid.UUID) (*Feed, error) {
	query := `SELECT ` + feedColumns + ` FROM feeds WHERE id = $1`
	f, err := scanFeed(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("feed not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}
	return f, nil
}

func (r *Repository) List(activeOnly bool) ([]*Feed, error) {
	query := `SELECT ` + feedColumns + ` FROM feeds`
	if activeOnly {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}
	defer rows.Close()

	var out []*Feed
	for rows.Next() {
		f, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *Repository) Update(f *Feed) error {
	query := `
		UPDATE feeds
		SET name = $2, url = $3, source = $4, duration = $5, active = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(query, f.ID, f.Name, f.URL, f.Source, f.Duration, f.Active).
		Scan(&f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update feed: %w", err)
	}
	return nil
}

func (r *Repository) Deactivate(id uuid.UUID) error {
	_, err := r.db.Exec(`UPDATE feeds SET active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate feed: %w", err)
	}
	return nil
}

// RecordFetch writes the outcome of one sync attempt. A successful fetch
// resets the consecutive error counter; a failure increments it.
func (r *Repository) RecordFetch(id uuid.UUID, status string, itemCount int, ok bool) error {
	var query string
	if ok {
		query = `
			UPDATE feeds
			SET last_fetched_at = NOW(), last_status = $2, item_count = $3,
			    consecutive_errors = 0, updated_at = NOW()
			WHERE id = $1`
	} else {
		query = `
			UPDATE feeds
			SET last_fetched_at = NOW(), last_status = $2, item_count = $3,
			    consecutive_errors = consecutive_errors + 1, updated_at = NOW()
			WHERE id = $1`
	}
	if _, err := r.db.Exec(query, id, status, itemCount); err != nil {
		return fmt.Errorf("failed to record feed fetch: %w", err)
	}
	return nil
}
