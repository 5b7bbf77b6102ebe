package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"contentcraft/internal/model"
	"contentcraft/internal/repository"
)

// UserService handles business logic for accounts and profiles
type UserService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Signup creates a new account. New accounts always start with
// setup_completed=false; the onboarding wizard flips it.
func (s *UserService) Signup(ctx context.Context, req *model.SignupRequest) (*model.User, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("name is required")
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, fmt.Errorf("email is required")
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, fmt.Errorf("password is required")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, model.ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:           strings.TrimSpace(req.Name),
		Email:          email,
		PasswordHashed: string(hashedPassword),
		SetupCompleted: false,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user with email and password.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		// Don't reveal whether the email exists
		return nil, model.ErrInvalidCredentials
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password))
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// NeedsSetup reports whether the account behind the email still has to run
// the onboarding wizard.
func (s *UserService) NeedsSetup(ctx context.Context, email string) (bool, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return false, err
	}
	return !user.SetupCompleted, nil
}

// CompleteSetup stores the wizard answers and marks setup as done. Repeat
// calls update the fields again but the flag never reverts to false.
func (s *UserService) CompleteSetup(ctx context.Context, userID int64, req *model.CompleteSetupRequest) (*model.User, error) {
	user, err := s.repo.CompleteSetup(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies partial settings edits after onboarding.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.User, error) {
	return s.repo.UpdateProfile(ctx, userID, req)
}

// UpdateAvatar records the uploaded avatar location and returns the key of
// the previous avatar so the caller can clean it up in storage.
func (s *UserService) UpdateAvatar(ctx context.Context, userID int64, avatarURL, avatarKey string) (string, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	if err := s.repo.UpdateAvatar(ctx, userID, avatarURL, avatarKey); err != nil {
		return "", err
	}

	oldKey := ""
	if user.AvatarKey != nil {
		oldKey = *user.AvatarKey
	}
	return oldKey, nil
}
