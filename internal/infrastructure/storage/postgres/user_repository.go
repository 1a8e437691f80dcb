package postgres

import (
	"context"
	"errors"
	"fmt"

	"anchorview/internal/domain/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"
)

func NewUserRepository(storage *Storage, log *slog.Logger) *UserRepository {
	return &UserRepository{
		storage: storage,
		log:     log,
	}
}

type UserRepository struct {
	storage *Storage
	log     *slog.Logger
}

func (r *UserRepository) Create(ctx context.Context, u user.User) (string, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	_, err := r.storage.pool.Exec(ctx,
		`INSERT INTO user_credentials (id, email, name, company_id, role, password_hash, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Email, u.Name, u.CompanyID, u.Role, u.PasswordHash, u.Active)
	if isUniqueViolation(err) {
		return "", fmt.Errorf("%w: email %s already registered", user.ErrInvalidInput, u.Email)
	}
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}
	return u.ID, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	err := r.storage.pool.QueryRow(ctx,
		`SELECT id, email, name, company_id, role, password_hash, active, created_at
		 FROM user_credentials WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.Name, &u.CompanyID, &u.Role, &u.PasswordHash, &u.Active, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}
