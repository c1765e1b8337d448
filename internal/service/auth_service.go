package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"roommatch/internal/cache"
	"roommatch/internal/middleware"
	"roommatch/internal/models"
	"roommatch/internal/repository"
	"roommatch/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// PasswordResetTTL is how long a reset token stays valid.
const PasswordResetTTL = 30 * time.Minute

const msgInvalidCredentials = "Invalid email or password"

// AuthResult is returned by register and login.
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type AuthService struct {
	users      repository.UserRepository
	resets     repository.PasswordResetRepository
	tokens     *middleware.TokenManager
	bcryptCost int
	now        func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	resets repository.PasswordResetRepository,
	tokens *middleware.TokenManager,
	bcryptCost int,
) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:      users,
		resets:     resets,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	email = models.NormalizeEmail(email)
	if err := validation.Struct(models.CredentialsRequest{Email: email, Password: password}); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("User with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{Email: email, Password: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, models.NewValidationError("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError(msgInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError(msgInvalidCredentials)
	}
	return s.issue(user)
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// Logout revokes the token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, claims *middleware.Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if err := cache.RevokeToken(ctx, claims.ID, ttl); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// RequestPasswordReset stores a hashed single-use token and returns the raw
// token. Delivering it to the user is the caller's concern.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if err := validation.Struct(models.PasswordResetRequest{Email: models.NormalizeEmail(email)}); err != nil {
		return "", models.NewValidationError(err.Error())
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", models.NewNotFoundMessage("User with this email not found")
	}

	token := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	reset := &models.PasswordReset{
		UserID:    user.ID,
		TokenHash: hashResetToken(token),
		ExpiresAt: s.now().Add(PasswordResetTTL),
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return "", err
	}

	middleware.Logger.InfoContext(ctx, "password reset requested", "user_id", user.ID)
	return token, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validation.Struct(models.PasswordResetConfirmRequest{Token: token, Password: newPassword}); err != nil {
		return models.NewValidationError(err.Error())
	}

	now := s.now()
	reset, err := s.resets.GetActiveByHash(ctx, hashResetToken(token), now)
	if err != nil {
		return err
	}
	if reset == nil {
		return models.NewValidationError("Invalid or expired reset token")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	return s.resets.Consume(ctx, reset, string(hash), now)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, _, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}
