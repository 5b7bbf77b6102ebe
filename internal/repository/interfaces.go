package repository

import (
	"context"
	"time"

	"contentcraft/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// CompleteSetup writes the onboarding fields and flips setup_completed to
	// true. The flag never transitions back to false.
	CompleteSetup(ctx context.Context, userID int64, req *model.CompleteSetupRequest) (*model.User, error)
	UpdateProfile(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.User, error)
	UpdateAvatar(ctx context.Context, userID int64, avatarURL, avatarKey string) error
}

type PostRepository interface {
	Create(ctx context.Context, userID int64, platform, content string) (*model.Post, error)
	// ListByUser returns all posts owned by userID, newest first.
	ListByUser(ctx context.Context, userID int64) ([]model.Post, error)
	GetByIDs(ctx context.Context, userID int64, postIDs []int64) ([]model.Post, error)
	// Delete removes the row only when it exists and belongs to userID.
	// Missing and wrong-owner both surface model.ErrPostNotFound.
	Delete(ctx context.Context, postID, userID int64) error
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, id string, replacedBy *string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}
