package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"contentcraft/internal/model"
)

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, password_hashed, company, role, industry, niche,
       audience, keywords, bio, interests, avatar_url, avatar_key, setup_completed,
       created_at, updated_at`

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (name, email, password_hashed, setup_completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, setup_completed, created_at, updated_at
	`

	row := r.db.QueryRowxContext(ctx, query,
		u.Name,
		u.Email,
		u.PasswordHashed,
		u.SetupCompleted,
	)

	err := row.Scan(&u.ID, &u.SetupCompleted, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &u, nil
}

// GetByEmail retrieves a user by their email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &u, nil
}

// ExistsByEmail checks if an email is already registered
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, email)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return exists, nil
}

// CompleteSetup writes the onboarding fields and marks setup as completed.
// setup_completed = TRUE is sticky: the column is never set back to false.
func (r *userRepository) CompleteSetup(ctx context.Context, userID int64, req *model.CompleteSetupRequest) (*model.User, error) {
	query := `
		UPDATE users
		SET company = NULLIF($2, ''),
		    role = NULLIF($3, ''),
		    industry = NULLIF($4, ''),
		    niche = NULLIF($5, ''),
		    audience = NULLIF($6, ''),
		    keywords = NULLIF($7, ''),
		    bio = NULLIF($8, ''),
		    interests = $9,
		    setup_completed = TRUE,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns + `
	`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, userID,
		req.Company,
		req.Role,
		req.Industry,
		req.Niche,
		req.Audience,
		req.Keywords,
		req.Bio,
		pq.StringArray(req.Interests),
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to complete setup: %w", err)
	}

	return &u, nil
}

// UpdateProfile applies partial profile edits. COALESCE keeps the stored
// value for every field the caller left nil.
func (r *userRepository) UpdateProfile(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.User, error) {
	var interests interface{}
	if req.Interests != nil {
		interests = pq.StringArray(*req.Interests)
	}

	query := `
		UPDATE users
		SET name = COALESCE($2, name),
		    company = COALESCE($3, company),
		    role = COALESCE($4, role),
		    industry = COALESCE($5, industry),
		    niche = COALESCE($6, niche),
		    audience = COALESCE($7, audience),
		    keywords = COALESCE($8, keywords),
		    bio = COALESCE($9, bio),
		    interests = COALESCE($10, interests),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns + `
	`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, userID,
		req.Name,
		req.Company,
		req.Role,
		req.Industry,
		req.Niche,
		req.Audience,
		req.Keywords,
		req.Bio,
		interests,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return &u, nil
}

// UpdateAvatar stores the new avatar location for a user
func (r *userRepository) UpdateAvatar(ctx context.Context, userID int64, avatarURL, avatarKey string) error {
	query := `
		UPDATE users
		SET avatar_url = $2, avatar_key = $3, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, userID, avatarURL, avatarKey)
	if err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrUserNotFound
	}

	return nil
}
