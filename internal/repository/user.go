package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)

type UserRow struct {
	ID        string
	Name      string
	Email     string
	Role      string
	CreatedAt time.Time
}

func CreateUser(ctx context.Context, q Querier, name, email, role string) (string, error) {
	id := uuid.New().String()
	_, err := q.ExecContext(ctx,
		`INSERT INTO users (id, name, email, role, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, name, email, role, formatTime(time.Now()),
	)
	return id, err
}

func UserByID(ctx context.Context, q Querier, id string) (*UserRow, error) {
	var u UserRow
	var createdAt string
	err := q.QueryRowContext(ctx,
		`SELECT id, name, email, role, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}
