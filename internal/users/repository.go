package users

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

func (r *Repository) Create(u *User) error {
	return r.db.QueryRow(`
		INSERT INTO users (name, email, password_hash, role, group_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, active, created_at, updated_at`,
		u.Name, u.Email, u.PasswordHash, u.Role, u.GroupID,
	).Scan(&u.ID, &u.Active, &u.CreatedAt, &u.UpdatedAt)
}

func (r *Repository) GetByID(id uuid.UUID) (*User, error) {
	u := &User{}
	err := r.db.QueryRow(`
		SELECT id, name, email, password_hash, role, group_id, active, created_at, updated_at
		FROM users WHERE id=$1`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.GroupID,
		&u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	return u, nil
}

func (r *Repository) GetByEmail(email string) (*User, error) {
	u := &User{}
	err := r.db.QueryRow(`
		SELECT id, name, email, password_hash, role, group_id, active, created_at, updated_at
		FROM users WHERE email=$1`, email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.GroupID,
		&u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	return u, nil
}

func (r *Repository) List() ([]User, error) {
	rows, err := r.db.Query(`
		SELECT id, name, email, role, group_id, active, created_at, updated_at
		FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.GroupID,
			&u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repository) Update(u *User) error {
	result, err := r.db.Exec(`
		UPDATE users SET name=$2, email=$3, role=$4, group_id=$5, active=$6, updated_at=now()
		WHERE id=$1`,
		u.ID, u.Name, u.Email, u.Role, u.GroupID, u.Active)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

func (r *Repository) Deactivate(id uuid.UUID) error {
	_, err := r.db.Exec("UPDATE users SET active=FALSE, updated_at=now() WHERE id=$1", id)
	return err
}
