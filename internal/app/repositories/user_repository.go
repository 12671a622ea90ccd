package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/lms/internal/app/models"
	"github.com/yigit/lms/internal/pkg/apperrors"
	"github.com/yigit/lms/internal/pkg/dberrors"
	"github.com/yigit/lms/internal/pkg/helpers"
	"github.com/yigit/lms/internal/pkg/logger"
)

var userColumns = []string{"id", "email", "password_hash", "name", "avatar_url", "role", "created_at", "updated_at"}

// UserRepository handles user database operations
type UserRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{
		db: db,
		sb: newStatementBuilder(),
	}
}

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.AvatarURL, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a new user. ID and timestamps are filled in when empty.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	sql, args, err := r.sb.Insert("users").
		Columns("email", "password_hash", "name", "avatar_url", "role").
		Values(user.Email, user.PasswordHash, user.Name, user.AvatarURL, user.Role).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create user SQL")
		return fmt.Errorf("failed to build create user query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "users_email_key") {
			return apperrors.ErrEmailAlreadyExists
		}
		logger.Error().Err(err).Str("email", user.Email).Msg("Error executing create user query")
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Eq) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).
		From("users").
		Where(where).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get user SQL")
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	user, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Msg("Error scanning user row")
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email})
}

// EmailExists checks if an email is already registered
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	sql, args, err := r.sb.Select("1").
		Prefix("SELECT EXISTS (").
		From("users").
		Where(squirrel.Eq{"email": email}).
		Suffix(")").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building email exists SQL")
		return false, fmt.Errorf("failed to build email exists query: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		logger.Error().Err(err).Str("email", email).Msg("Error executing email exists query")
		return false, fmt.Errorf("error checking email: %w", err)
	}
	return exists, nil
}

// List returns every user ordered by creation date
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).
		From("users").
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list users SQL")
		return nil, fmt.Errorf("failed to build list users query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list users query")
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning user row")
			return nil, fmt.Errorf("error scanning user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// UpdateProfile changes name and avatar. Nil values are left untouched.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, name *string, avatarURL *string) (*models.User, error) {
	query := r.sb.Update("users").
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id}).
		Suffix(helpers.Returning(userColumns))
	if name != nil {
		query = query.Set("name", *name)
	}
	if avatarURL != nil {
		query = query.Set("avatar_url", helpers.NilIfEmpty(*avatarURL))
	}
	return r.updateOne(ctx, query, "id", id)
}

// UpdateRoleByEmail changes the role of the user with the given email
func (r *UserRepository) UpdateRoleByEmail(ctx context.Context, email string, role models.RoleType) (*models.User, error) {
	query := r.sb.Update("users").
		Set("role", role).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"email": email}).
		Suffix(helpers.Returning(userColumns))
	return r.updateOne(ctx, query, "email", email)
}

func (r *UserRepository) updateOne(ctx context.Context, query squirrel.UpdateBuilder, key, value string) (*models.User, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update user SQL")
		return nil, fmt.Errorf("failed to build update user query: %w", err)
	}

	user, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		if dberrors.IsCheckViolation(err) {
			return nil, apperrors.ErrInvalidRole
		}
		logger.Error().Err(err).Str(key, value).Msg("Error executing update user query")
		return nil, fmt.Errorf("error updating user: %w", err)
	}
	return user, nil
}
