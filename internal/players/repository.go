package players

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

const playerColumns = `id, group_id, name, location, status, playlist_id,
	last_connection, active, created_at, updated_at`

func scanPlayer(row interface{ Scan(...interface{}) error }) (*Player, error) {
	p := &Player{}
	err := row.Scan(
		&p.ID, &p.GroupID, &p.Name, &p.Location, &p.Status, &p.PlaylistID,
		&p.LastConnection, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) Create(p *Player) error {
	query := `
		INSERT INTO players (group_id, name, location, status, playlist_id, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(query, p.GroupID, p.Name, p.Location, p.Status, p.PlaylistID, p.Active).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(id uuid.UUID) (*Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`
	p, err := scanPlayer(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("player not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return p, nil
}

func (r *Repository) List(groupID *uuid.UUID, activeOnly bool) ([]*Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE 1=1`
	args := []interface{}{}

	if groupID != nil {
		args = append(args, *groupID)
		query += fmt.Sprintf(" AND group_id = $%d", len(args))
	}
	if activeOnly {
		query += " AND active = true"
	}
	query += " ORDER BY name"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var out []*Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) Update(p *Player) error {
	query := `
		UPDATE players
		SET name = $2, location = $3, active = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(query, p.ID, p.Name, p.Location, p.Active).Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}
	return nil
}

func (r *Repository) Deactivate(id uuid.UUID) error {
	_, err := r.db.Exec(`UPDATE players SET active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate player: %w", err)
	}
	return nil
}

func (r *Repository) AssignPlaylist(playerID uuid.UUID, playlistID *uuid.UUID) error {
	_, err := r.db.Exec(
		`UPDATE players SET playlist_id = $2, updated_at = NOW() WHERE id = $1`,
		playerID, playlistID,
	)
	if err != nil {
		return fmt.Errorf("failed to assign playlist: %w", err)
	}
	return nil
}

func (r *Repository) SetStatus(id uuid.UUID, status Status) error {
	_, err := r.db.Exec(
		`UPDATE players SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("failed to set player status: %w", err)
	}
	return nil
}

// TouchConnection stamps the player's last contact time. Called on every
// playlist fetch and status report.
func (r *Repository) TouchConnection(id uuid.UUID) error {
	_, err := r.db.Exec(
		`UPDATE players SET last_connection = NOW(), updated_at = NOW() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to touch player connection: %w", err)
	}
	return nil
}
