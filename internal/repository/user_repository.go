package repository

import (
	"context"
	"database/sql"
	"errors"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/sharding"
)

type UserRepository struct {
	dbShards []*sql.DB
	router   *sharding.ShardRouter
}

func NewUserRepository(dbShards []*sql.DB, router *sharding.ShardRouter) *UserRepository {
	return &UserRepository{dbShards, router}
}

const userColumns = `id, email, name, COALESCE(password_hash, ''), is_admin, provider, created_at`

func scanUser(row *sql.Row) (*entity.User, error) {
	user := &entity.User{}
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.IsAdmin, &user.Provider, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	db := r.dbShards[r.router.GetShard(user.ID)]

	query := `INSERT INTO users (id, email, name, password_hash, is_admin, provider) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, user.ID, user.Email, user.Name, user.PasswordHash, user.IsAdmin, user.Provider)
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	db := r.dbShards[r.router.GetShard(id)]

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(db.QueryRowContext(ctx, query, id))
}

// GetByEmail is used at login, before the user id is known, so it probes
// every shard.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`

	for _, db := range r.dbShards {
		user, err := scanUser(db.QueryRowContext(ctx, query, email))
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}
	return nil, sql.ErrNoRows
}

func (r *UserRepository) UpdateName(ctx context.Context, id, name string) error {
	db := r.dbShards[r.router.GetShard(id)]

	_, err := db.ExecContext(ctx, `UPDATE users SET name = ? WHERE id = ?`, name, id)
	return err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	db := r.dbShards[r.router.GetShard(id)]

	_, err := db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	return err
}

// Delete removes the account and everything it owns.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	db := r.dbShards[r.router.GetShard(id)]

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	for _, query := range []string{
		`DELETE FROM cart_items WHERE user_id = ?`,
		`DELETE FROM subscriptions WHERE user_id = ?`,
		`DELETE FROM users WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, query, id); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}
