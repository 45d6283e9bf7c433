package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/warta-arena/arena-api/models"
	"github.com/warta-arena/arena-api/repositories"
)

const (
	minPasswordLength    = 8
	confirmationTokenTTL = 24 * time.Hour
	resetTokenTTL        = 1 * time.Hour
)

type RegisterUserInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type AuthService interface {
	Register(ctx context.Context, input RegisterUserInput) (*models.User, string, error)
	Login(ctx context.Context, input models.Credentials) (*models.User, error)
	ConfirmEmail(ctx context.Context, token string) error
	GeneratePasswordResetToken(ctx context.Context, email string) (string, error)
	ResetPasswordByToken(ctx context.Context, token, newPassword string) error
}

type authService struct {
	userRepo repositories.UserRepository
	now      func() time.Time
}

func NewAuthService(userRepo repositories.UserRepository) AuthService {
	return &authService{
		userRepo: userRepo,
		now:      time.Now,
	}
}

// Register creates an inactive account with a 24h confirmation token. The
// token is returned to the caller so the notification can be sent outside
// the request path.
func (s *authService) Register(ctx context.Context, input RegisterUserInput) (*models.User, string, error) {
	if input.FirstName == "" || input.LastName == "" || input.Email == "" {
		return nil, "", ErrValidationFailed
	}
	if len(input.Password) < minPasswordLength {
		return nil, "", ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	token, err := generateToken()
	if err != nil {
		return nil, "", err
	}
	expiry := s.now().Add(confirmationTokenTTL)

	user := &models.User{
		FirstName:             input.FirstName,
		LastName:              input.LastName,
		Email:                 input.Email,
		PasswordHash:          string(hashedPassword),
		IsActive:              false,
		ConfirmationToken:     &token,
		ConfirmationExpiresAt: &expiry,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	user.PasswordHash = ""
	return user, token, nil
}

func (s *authService) Login(ctx context.Context, input models.Credentials) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	if !user.IsActive {
		return nil, ErrAccountNotActivated
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) ConfirmEmail(ctx context.Context, token string) error {
	user, err := s.userRepo.GetByConfirmationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrTokenInvalid
		}
		return err
	}
	if user.ConfirmationExpiresAt == nil || user.ConfirmationExpiresAt.Before(s.now()) {
		return ErrTokenExpired
	}
	return s.userRepo.Activate(ctx, user.ID)
}

// GeneratePasswordResetToken returns an empty token without error for an
// unknown email, so the endpoint does not reveal which addresses exist.
func (s *authService) GeneratePasswordResetToken(ctx context.Context, email string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return "", nil
		}
		return "", err
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}
	if err := s.userRepo.SetResetToken(ctx, user.ID, token, s.now().Add(resetTokenTTL)); err != nil {
		return "", err
	}
	return token, nil
}

func (s *authService) ResetPasswordByToken(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.userRepo.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrTokenInvalid
		}
		return err
	}
	if user.ResetExpiresAt == nil || user.ResetExpiresAt.Before(s.now()) {
		return ErrTokenExpired
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.userRepo.UpdatePassword(ctx, user.ID, string(hashedPassword))
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
