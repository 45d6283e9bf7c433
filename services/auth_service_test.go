package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/warta-arena/arena-api/models"
	"github.com/warta-arena/arena-api/repositories"
)

type fakeUserRepo struct {
	users  map[int]*models.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]*models.User), nextID: 1}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	user.ID = r.nextID
	r.nextID++
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) GetByConfirmationToken(ctx context.Context, token string) (*models.User, error) {
	for _, u := range r.users {
		if u.ConfirmationToken != nil && *u.ConfirmationToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	for _, u := range r.users {
		if u.ResetToken != nil && *u.ResetToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) Activate(ctx context.Context, id int) error {
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.IsActive = true
	u.ConfirmationToken = nil
	u.ConfirmationExpiresAt = nil
	return nil
}

func (r *fakeUserRepo) SetResetToken(ctx context.Context, id int, token string, expiresAt time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.ResetToken = &token
	u.ResetExpiresAt = &expiresAt
	return nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetToken = nil
	u.ResetExpiresAt = nil
	return nil
}

func validSignup() RegisterUserInput {
	return RegisterUserInput{
		FirstName: "Anna",
		LastName:  "Nowak",
		Email:     "anna@example.com",
		Password:  "correct-horse",
	}
}

func TestAuthRegisterCreatesInactiveAccount(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo)

	user, token, err := svc.Register(context.Background(), validSignup())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if token == "" {
		t.Error("expected a non-empty confirmation token")
	}
	if user.IsActive {
		t.Error("new account must start inactive")
	}
	if user.PasswordHash != "" {
		t.Error("password hash must not leak out of the service")
	}

	stored := repo.users[user.ID]
	if stored.PasswordHash == "" || stored.PasswordHash == "correct-horse" {
		t.Error("stored password must be hashed")
	}
}

func TestAuthRegisterPasswordTooShort(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())

	input := validSignup()
	input.Password = "short"
	_, _, err := svc.Register(context.Background(), input)
	if !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestAuthRegisterEmailTaken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo)

	if _, _, err := svc.Register(context.Background(), validSignup()); err != nil {
		t.Fatalf("first Register returned error: %v", err)
	}
	_, _, err := svc.Register(context.Background(), validSignup())
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthLoginRequiresConfirmedAccount(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo)

	_, token, err := svc.Register(context.Background(), validSignup())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	creds := models.Credentials{Email: "anna@example.com", Password: "correct-horse"}
	if _, err := svc.Login(context.Background(), creds); !errors.Is(err, ErrAccountNotActivated) {
		t.Fatalf("expected ErrAccountNotActivated before confirmation, got %v", err)
	}

	if err := svc.ConfirmEmail(context.Background(), token); err != nil {
		t.Fatalf("ConfirmEmail returned error: %v", err)
	}

	user, err := svc.Login(context.Background(), creds)
	if err != nil {
		t.Fatalf("Login after confirmation returned error: %v", err)
	}
	if user.Email != "anna@example.com" {
		t.Errorf("unexpected user returned: %+v", user)
	}
}

func TestAuthLoginWrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo)

	_, token, err := svc.Register(context.Background(), validSignup())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if err := svc.ConfirmEmail(context.Background(), token); err != nil {
		t.Fatalf("ConfirmEmail returned error: %v", err)
	}

	_, err = svc.Login(context.Background(), models.Credentials{Email: "anna@example.com", Password: "wrong-password"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())

	_, err := svc.Login(context.Background(), models.Credentials{Email: "ghost@example.com", Password: "whatever-long"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthConfirmEmailExpiredToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo)

	_, token, err := svc.Register(context.Background(), validSignup())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	svc.(*authService).now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	if err := svc.ConfirmEmail(context.Background(), token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestAuthConfirmEmailUnknownToken(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())

	if err := svc.ConfirmEmail(context.Background(), "no-such-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

// An unknown email yields an empty token and no error, so the HTTP layer can
// answer identically whether or not the account exists.
func TestAuthForgotPasswordUnknownEmailSilent(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())

	token, err := svc.GeneratePasswordResetToken(context.Background(), "ghost@example.com")
	if err != nil {
		t.Fatalf("expected no error for unknown email, got %v", err)
	}
	if token != "" {
		t.Errorf("expected empty token for unknown email, got %q", token)
	}
}

func TestAuthResetPasswordFlow(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo)

	user, confirmToken, err := svc.Register(context.Background(), validSignup())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if err := svc.ConfirmEmail(context.Background(), confirmToken); err != nil {
		t.Fatalf("ConfirmEmail returned error: %v", err)
	}

	resetToken, err := svc.GeneratePasswordResetToken(context.Background(), "anna@example.com")
	if err != nil {
		t.Fatalf("GeneratePasswordResetToken returned error: %v", err)
	}
	if resetToken == "" {
		t.Fatal("expected a non-empty reset token")
	}

	if err := svc.ResetPasswordByToken(context.Background(), resetToken, "new-password-123"); err != nil {
		t.Fatalf("ResetPasswordByToken returned error: %v", err)
	}

	stored := repo.users[user.ID]
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("new-password-123")); err != nil {
		t.Errorf("new password does not verify against stored hash: %v", err)
	}
	if stored.ResetToken != nil {
		t.Error("reset token must be cleared after use")
	}
}

func TestAuthResetPasswordExpiredToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo)

	_, confirmToken, err := svc.Register(context.Background(), validSignup())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if err := svc.ConfirmEmail(context.Background(), confirmToken); err != nil {
		t.Fatalf("ConfirmEmail returned error: %v", err)
	}
	resetToken, err := svc.GeneratePasswordResetToken(context.Background(), "anna@example.com")
	if err != nil {
		t.Fatalf("GeneratePasswordResetToken returned error: %v", err)
	}

	svc.(*authService).now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	err = svc.ResetPasswordByToken(context.Background(), resetToken, "new-password-123")
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}
