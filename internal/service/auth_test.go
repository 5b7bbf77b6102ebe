package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"contentcraft/internal/config"
	"contentcraft/internal/model"
)

// =============================================================================
// MOCK REPOSITORY
// =============================================================================

// mockRefreshTokenRepository keeps tokens in memory keyed by hash, close
// enough to the real table to exercise rotation and reuse detection.
type mockRefreshTokenRepository struct {
	byHash map[string]*model.RefreshToken
	nextID int

	revokeAllCalls []int64
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{byHash: make(map[string]*model.RefreshToken)}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	m.nextID++
	token.ID = fmt.Sprintf("token-%d", m.nextID)
	token.CreatedAt = time.Now()
	m.byHash[token.TokenHash] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	token, ok := m.byHash[tokenHash]
	if !ok {
		return nil, model.ErrRefreshTokenNotFound
	}
	return token, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, id string, replacedBy *string) error {
	for _, token := range m.byHash {
		if token.ID == id {
			now := time.Now()
			token.RevokedAt = &now
			token.ReplacedBy = replacedBy
			return nil
		}
	}
	return model.ErrRefreshTokenNotFound
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID int64) error {
	m.revokeAllCalls = append(m.revokeAllCalls, userID)
	now := time.Now()
	for _, token := range m.byHash {
		if token.UserID == userID && token.RevokedAt == nil {
			token.RevokedAt = &now
		}
	}
	return nil
}

func (m *mockRefreshTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	return 0, nil
}

func (m *mockRefreshTokenRepository) activeCount(userID int64) int {
	n := 0
	for _, token := range m.byHash {
		if token.UserID == userID && token.RevokedAt == nil {
			n++
		}
	}
	return n
}

func testAuthService(tokenRepo *mockRefreshTokenRepository) *AuthService {
	userRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Email: "test@example.com"}, nil
		},
	}
	cfg := &config.Config{
		JWTSecret:          "test-secret",
		AccessTokenMaxAge:  900,
		RefreshTokenMaxAge: 3600,
	}
	return NewAuthService(tokenRepo, userRepo, cfg)
}

// =============================================================================
// TOKEN PAIR TESTS
// =============================================================================

func TestAuthService_GenerateTokenPair(t *testing.T) {
	tokenRepo := newMockRefreshTokenRepository()
	svc := testAuthService(tokenRepo)

	pair, err := svc.GenerateTokenPair(context.Background(), 42, "test@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pair.ExpiresIn != 900 {
		t.Errorf("ExpiresIn = %d, want 900", pair.ExpiresIn)
	}

	// The access token carries the identity claims
	token, err := jwt.Parse(pair.AccessToken, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil {
		t.Fatalf("access token should parse: %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["user_id"].(float64) != 42 {
		t.Errorf("user_id claim = %v, want 42", claims["user_id"])
	}
	if claims["email"].(string) != "test@example.com" {
		t.Errorf("email claim = %v", claims["email"])
	}

	// The raw refresh token is never stored as-is
	if _, ok := tokenRepo.byHash[pair.RefreshToken]; ok {
		t.Error("raw refresh token must not be stored, only its hash")
	}
	if tokenRepo.activeCount(42) != 1 {
		t.Errorf("active tokens = %d, want 1", tokenRepo.activeCount(42))
	}
}

// =============================================================================
// ROTATION TESTS
// =============================================================================

func TestAuthService_RefreshTokens_Rotation(t *testing.T) {
	tokenRepo := newMockRefreshTokenRepository()
	svc := testAuthService(tokenRepo)
	ctx := context.Background()

	pair, err := svc.GenerateTokenPair(ctx, 42, "test@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	newPair, userID, err := svc.RefreshTokens(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != 42 {
		t.Errorf("userID = %d, want 42", userID)
	}
	if newPair.RefreshToken == pair.RefreshToken {
		t.Error("rotation must issue a different refresh token")
	}

	// The old token is revoked; only the new one is active
	if tokenRepo.activeCount(42) != 1 {
		t.Errorf("active tokens = %d, want 1", tokenRepo.activeCount(42))
	}

	// Rotating again with the new token works
	if _, _, err := svc.RefreshTokens(ctx, newPair.RefreshToken); err != nil {
		t.Fatalf("rotating with the new token failed: %v", err)
	}
}

func TestAuthService_RefreshTokens_ReuseRevokesFamily(t *testing.T) {
	tokenRepo := newMockRefreshTokenRepository()
	svc := testAuthService(tokenRepo)
	ctx := context.Background()

	pair, _ := svc.GenerateTokenPair(ctx, 42, "test@example.com")
	newPair, _, err := svc.RefreshTokens(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Presenting the already-rotated token is reuse
	_, _, err = svc.RefreshTokens(ctx, pair.RefreshToken)
	if !errors.Is(err, model.ErrRefreshTokenReused) {
		t.Fatalf("error = %v, want %v", err, model.ErrRefreshTokenReused)
	}

	// The whole family dies, including the fresh token
	if len(tokenRepo.revokeAllCalls) != 1 || tokenRepo.revokeAllCalls[0] != 42 {
		t.Errorf("RevokeAllForUser calls = %v, want [42]", tokenRepo.revokeAllCalls)
	}
	if _, _, err := svc.RefreshTokens(ctx, newPair.RefreshToken); err == nil {
		t.Error("the rotated-to token should be dead after reuse detection")
	}
}

func TestAuthService_RefreshTokens_Expired(t *testing.T) {
	tokenRepo := newMockRefreshTokenRepository()
	svc := testAuthService(tokenRepo)
	ctx := context.Background()

	pair, _ := svc.GenerateTokenPair(ctx, 42, "test@example.com")

	// Age the stored token past its expiry
	for _, token := range tokenRepo.byHash {
		token.ExpiresAt = time.Now().Add(-time.Minute)
	}

	_, _, err := svc.RefreshTokens(ctx, pair.RefreshToken)
	if !errors.Is(err, model.ErrRefreshTokenExpired) {
		t.Errorf("error = %v, want %v", err, model.ErrRefreshTokenExpired)
	}
}

func TestAuthService_RefreshTokens_Unknown(t *testing.T) {
	svc := testAuthService(newMockRefreshTokenRepository())

	_, _, err := svc.RefreshTokens(context.Background(), "never-issued")
	if !errors.Is(err, model.ErrRefreshTokenNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrRefreshTokenNotFound)
	}
}

// =============================================================================
// LOGOUT TESTS
// =============================================================================

func TestAuthService_RevokeRefreshToken(t *testing.T) {
	tokenRepo := newMockRefreshTokenRepository()
	svc := testAuthService(tokenRepo)
	ctx := context.Background()

	pair, _ := svc.GenerateTokenPair(ctx, 42, "test@example.com")

	if err := svc.RevokeRefreshToken(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokenRepo.activeCount(42) != 0 {
		t.Error("token should be revoked after logout")
	}

	// A revoked token presented to refresh is reuse, not a silent success
	if _, _, err := svc.RefreshTokens(ctx, pair.RefreshToken); err == nil {
		t.Error("refresh with a logged-out token should fail")
	}
}

func TestAuthService_RevokeAllUserTokens(t *testing.T) {
	tokenRepo := newMockRefreshTokenRepository()
	svc := testAuthService(tokenRepo)
	ctx := context.Background()

	svc.GenerateTokenPair(ctx, 42, "test@example.com")
	svc.GenerateTokenPair(ctx, 42, "test@example.com")
	svc.GenerateTokenPair(ctx, 7, "other@example.com")

	if err := svc.RevokeAllUserTokens(ctx, 42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tokenRepo.activeCount(42) != 0 {
		t.Error("all of user 42's tokens should be revoked")
	}
	// Other users keep their sessions
	if tokenRepo.activeCount(7) != 1 {
		t.Error("user 7's token should survive")
	}
}
