package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/practicelog/internal/models"
)

var userRules = Rules{
	Conflict:   "User name already taken",
	ForeignKey: "User still owns practice sessions",
	Check:      "User name too long",
	NotFound:   "User not found",
}

// UserRepository implements [models.Repository] for user [models.User] persistence.
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Insert validates and stores a new user, returning the row with its generated id
func (r *UserRepository) Insert(ctx context.Context, user *models.User) (*models.User, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO users (user_name, password_hash) VALUES (?, ?)
		RETURNING user_id, user_name, password_hash
	`

	created, err := r.scan(r.db.QueryRowContext(ctx, query, user.UserName, user.PasswordHash))
	if err != nil {
		return nil, Classify(err, userRules)
	}
	return created, nil
}

// GetByName retrieves a user by exact user name
func (r *UserRepository) GetByName(ctx context.Context, name string) (*models.User, error) {
	query := `SELECT user_id, user_name, password_hash FROM users WHERE user_name = ?`

	user, err := r.scan(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		return nil, Classify(err, userRules)
	}
	return user, nil
}

// Get retrieves a user by id
func (r *UserRepository) Get(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT user_id, user_name, password_hash FROM users WHERE user_id = ?`

	user, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, Classify(err, userRules)
	}
	return user, nil
}

// Select retrieves all users matching filter, ordered by id
func (r *UserRepository) Select(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	where := r.conditions(filter)
	query := `SELECT user_id, user_name, password_hash FROM users` + where.where() + ` ORDER BY user_id ASC`

	rows, err := r.db.QueryContext(ctx, query, where.args...)
	if err != nil {
		return nil, Classify(fmt.Errorf("failed to query users: %w", err), userRules)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := r.scan(rows)
		if err != nil {
			return nil, Classify(err, userRules)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, Classify(fmt.Errorf("row iteration error: %w", err), userRules)
	}

	return users, nil
}

// Delete removes the users matching filter.
// Users that still own practice sessions cannot be deleted.
func (r *UserRepository) Delete(ctx context.Context, filter models.UserFilter) (int64, error) {
	if filter.IsEmpty() {
		return 0, emptyFilter()
	}

	where := r.conditions(filter)
	result, err := r.db.ExecContext(ctx, `DELETE FROM users`+where.where(), where.args...)
	if err != nil {
		return 0, Classify(err, userRules)
	}
	return deleted(result)
}

func (r *UserRepository) conditions(filter models.UserFilter) *conditions {
	c := &conditions{}
	if filter.UserID != nil {
		c.add("user_id = ?", *filter.UserID)
	}
	if filter.UserName != "" {
		c.add("user_name = ?", filter.UserName)
	}
	return c
}

type scanner interface {
	Scan(dest ...any) error
}

var (
	_ scanner = (*sql.Row)(nil)
	_ scanner = (*sql.Rows)(nil)
)

// scan reads one row into a [models.User]
func (r *UserRepository) scan(row scanner) (*models.User, error) {
	var user models.User
	if err := row.Scan(&user.UserID, &user.UserName, &user.PasswordHash); err != nil {
		return nil, err
	}
	return &user, nil
}
