package requests

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workdeck/backend/internal/apperr"
	"github.com/workdeck/backend/internal/models"
	"github.com/workdeck/backend/pkg/database"
)

func loadUserPublic(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID) (*models.UserPublic, error) {
	var u models.UserPublic
	err := pool.QueryRow(ctx,
		`SELECT id, email, full_name, phone, avatar, created_at FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.FullName, &u.Phone, &u.Avatar, &u.CreatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	return &u, nil
}
