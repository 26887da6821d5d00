package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yourorg/schoolhealth-notify/internal/model"
)

// UserRepository handles database operations for user accounts
type UserRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// GetByEmail retrieves a user by email, or nil when none exists
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user,
		`SELECT id, email, full_name, role, password_hash, is_active, created_at
		 FROM users WHERE email = ?`, email)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		r.logger.Error("Failed to get user by email", zap.Error(err))
		return nil, err
	}

	return &user, nil
}

// GetByID retrieves a user by id, or nil when none exists
func (r *UserRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user,
		`SELECT id, email, full_name, role, password_hash, is_active, created_at
		 FROM users WHERE id = ?`, id)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		r.logger.Error("Failed to get user by id", zap.Error(err))
		return nil, err
	}

	return &user, nil
}

// Create inserts a user and returns its id. Existing emails are left
// untouched, which makes seeding idempotent.
func (r *UserRepository) Create(ctx context.Context, email, fullName, role, passwordHash string) (int, error) {
	existing, err := r.GetByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, full_name, role, password_hash) VALUES (?, ?, ?, ?)`,
		email, fullName, role, passwordHash)
	if err != nil {
		r.logger.Error("Failed to create user", zap.Error(err))
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	return int(id), nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
