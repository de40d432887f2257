package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	"github.com/garyjia/travel-approval/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// UserRepository implements port.UserRepository over the users table
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

const userColumns = `id, name, role, department, email, hierarchy_chain, avatar`

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(sqlite.Conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUsersByRole lists the users holding role
func (r *UserRepository) GetUsersByRole(ctx context.Context, role entity.Role) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = ? ORDER BY id ASC`

	rows, err := sqlite.Conn(ctx, r.db).QueryContext(ctx, query, role)
	if err != nil {
		r.logger.Error("Failed to get users by role", zap.String("role", string(role)), zap.Error(err))
		return nil, fmt.Errorf("failed to get users by role: %w", err)
	}
	defer rows.Close()

	users := []*entity.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Upsert inserts the user or replaces the row with the same ID
func (r *UserRepository) Upsert(ctx context.Context, user *entity.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("invalid user %d: %w", user.ID, err)
	}

	chain, err := json.Marshal(user.HierarchyChain)
	if err != nil {
		return fmt.Errorf("failed to encode hierarchy chain: %w", err)
	}

	query := `
		INSERT INTO users (id, name, role, department, email, hierarchy_chain, avatar)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			role = excluded.role,
			department = excluded.department,
			email = excluded.email,
			hierarchy_chain = excluded.hierarchy_chain,
			avatar = excluded.avatar
	`

	if _, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Role,
		user.Department,
		user.Email,
		chain,
		user.Avatar,
	); err != nil {
		r.logger.Error("Failed to upsert user", zap.Int64("id", user.ID), zap.Error(err))
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func scanUser(s scanner) (*entity.User, error) {
	var u entity.User
	var chain []byte
	if err := s.Scan(&u.ID, &u.Name, &u.Role, &u.Department, &u.Email, &chain, &u.Avatar); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(chain, &u.HierarchyChain); err != nil {
		return nil, fmt.Errorf("failed to decode hierarchy chain: %w", err)
	}
	return &u, nil
}

var _ port.UserRepository = (*UserRepository)(nil)
