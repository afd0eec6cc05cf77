package groups

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(g *Group) error {
	return r.db.QueryRow(`
		INSERT INTO groups (name, description, can_manage_playlists, can_manage_media, can_manage_players)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, active, created_at, updated_at`,
		g.Name, g.Description, g.CanManagePlaylists, g.CanManageMedia, g.CanManagePlayers,
	).Scan(&g.ID, &g.Active, &g.CreatedAt, &g.UpdatedAt)
}

func (r *Repository) GetByID(id uuid.UUID) (*Group, error) {
	g := &Group{}
	err := r.db.QueryRow(`
		SELECT id, name, description, can_manage_playlists, can_manage_media, can_manage_players,
		       active, created_at, updated_at
		FROM groups WHERE id=$1`, id,
	).Scan(&g.ID, &g.Name, &g.Description, &g.CanManagePlaylists, &g.CanManageMedia,
		&g.CanManagePlayers, &g.Active, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("group not found: %w", err)
	}
	return g, nil
}

func (r *Repository) List() ([]Group, error) {
	rows, err := r.db.Query(`
		SELECT id, name, description, can_manage_playlists, can_manage_media, can_manage_players,
		       active, created_at, updated_at
		FROM groups WHERE active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.CanManagePlaylists,
			&g.CanManageMedia, &g.CanManagePlayers, &g.Active, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Repository) Update(g *Group) error {
	result, err := r.db.Exec(`
		UPDATE groups SET name=$2, description=$3, can_manage_playlists=$4,
		       can_manage_media=$5, can_manage_players=$6, updated_at=now()
		WHERE id=$1`,
		g.ID, g.Name, g.Description, g.CanManagePlaylists, g.CanManageMedia, g.CanManagePlayers)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("group not found")
	}
	return nil
}

func (r *Repository) Deactivate(id uuid.UUID) error {
	_, err := r.db.Exec("UPDATE groups SET active=FALSE, updated_at=now() WHERE id=$1", id)
	return err
}
