package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"reviewhub/internal/domain"
)

// pqUniqueViolation is the PostgreSQL error code for unique_violation.
const pqUniqueViolation = "23505"

// PostgresUserStore implements UserStore on PostgreSQL.
type PostgresUserStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresUserStore wraps an already-connected database handle.
func NewPostgresUserStore(db *sqlx.DB, logger *slog.Logger) (*PostgresUserStore, error) {
	if db == nil {
		return nil, errors.New("database handle cannot be nil for PostgresUserStore")
	}
	return &PostgresUserStore{db: db, logger: logger}, nil
}

const userColumns = `id, username, email, role, bio, first_name, last_name,
	confirmation_code_hash, email_confirmed, created_at, updated_at`

func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (id, username, email, role, bio, first_name, last_name,
	              confirmation_code_hash, email_confirmed, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt

	s.logger.DebugContext(ctx, "Executing Create user query",
		slog.String("userID", user.ID), slog.String("username", user.Username))
	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.Role, user.Bio, user.FirstName, user.LastName,
		user.CodeHash, user.EmailConfirmed, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			s.logger.WarnContext(ctx, "User already exists (unique constraint violation)",
				slog.String("username", user.Username),
				slog.String("constraint", pqErr.Constraint))
			return ErrUserConflict
		}
		s.logger.ErrorContext(ctx, "Failed to create user in DB", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *PostgresUserStore) getBy(ctx context.Context, column, value string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, column)
	var user domain.User
	err := s.db.GetContext(ctx, &user, query, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get user from DB",
			slog.String("column", column), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	return &user, nil
}

func (s *PostgresUserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.getBy(ctx, "id", id)
}

func (s *PostgresUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.getBy(ctx, "username", username)
}

func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getBy(ctx, "email", email)
}

func (s *PostgresUserStore) List(ctx context.Context, params ListParams) ([]*domain.User, int, error) {
	params = params.Normalize()

	where := ""
	args := []interface{}{}
	if params.Search != "" {
		where = ` WHERE username ILIKE $1 OR email ILIKE $1`
		args = append(args, "%"+params.Search+"%")
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`+where, args...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to count users in DB", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	if total == 0 {
		return []*domain.User{}, 0, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY username LIMIT %d OFFSET %d`,
		userColumns, where, params.PageSize, params.Offset())
	var users []*domain.User
	if err := s.db.SelectContext(ctx, &users, query, args...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list users from DB", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func (s *PostgresUserStore) Update(ctx context.Context, user *domain.User) error {
	query := `UPDATE users SET username = $1, email = $2, role = $3, bio = $4,
	              first_name = $5, last_name = $6, updated_at = $7
	          WHERE id = $8`
	user.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, query,
		user.Username, user.Email, user.Role, user.Bio, user.FirstName, user.LastName,
		user.UpdatedAt, user.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			s.logger.WarnContext(ctx, "Update failed: username or email already taken",
				slog.String("userID", user.ID), slog.String("constraint", pqErr.Constraint))
			return ErrUserConflict
		}
		s.logger.ErrorContext(ctx, "Failed to update user in DB",
			slog.String("userID", user.ID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to update user: %w", err)
	}
	return checkAffected(result, ErrUserNotFound)
}

func (s *PostgresUserStore) Delete(ctx context.Context, username string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete user from DB",
			slog.String("username", username), slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return checkAffected(result, ErrUserNotFound)
}

func (s *PostgresUserStore) SetConfirmationCode(ctx context.Context, userID, codeHash string) error {
	query := `UPDATE users SET confirmation_code_hash = $1, updated_at = $2 WHERE id = $3`
	result, err := s.db.ExecContext(ctx, query, codeHash, time.Now().UTC(), userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to store confirmation code hash",
			slog.String("userID", userID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to set confirmation code: %w", err)
	}
	return checkAffected(result, ErrUserNotFound)
}

func (s *PostgresUserStore) MarkConfirmed(ctx context.Context, userID string) error {
	query := `UPDATE users SET email_confirmed = TRUE, updated_at = $1 WHERE id = $2`
	result, err := s.db.ExecContext(ctx, query, time.Now().UTC(), userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to mark user confirmed",
			slog.String("userID", userID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to mark user confirmed: %w", err)
	}
	return checkAffected(result, ErrUserNotFound)
}

// checkAffected maps a zero-row result to the given not-found sentinel.
func checkAffected(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
