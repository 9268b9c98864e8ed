package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/jingally/booking-system/internal/core/domain"
	"github.com/jingally/booking-system/internal/core/ports"
)

type stubCodeStore struct {
	codes   map[string]string
	lastTTL time.Duration
}

func newStubCodeStore() *stubCodeStore {
	return &stubCodeStore{codes: make(map[string]string)}
}

func (s *stubCodeStore) Save(_ context.Context, userID, code string, ttl time.Duration) error {
	s.codes[userID] = code
	s.lastTTL = ttl
	return nil
}

func (s *stubCodeStore) Get(_ context.Context, userID string) (string, error) {
	code, ok := s.codes[userID]
	if !ok {
		return "", domain.ErrInvalidVerificationCode
	}
	return code, nil
}

func (s *stubCodeStore) Delete(_ context.Context, userID string) error {
	delete(s.codes, userID)
	return nil
}

type stubVerificationNotifier struct {
	sent map[string]string // email -> code
	err  error
}

func (n *stubVerificationNotifier) SendVerificationCode(_ context.Context, account domain.Account, code string) error {
	if n.err != nil {
		return n.err
	}
	n.sent[account.Email] = code
	return nil
}

type authFixture struct {
	svc      *AuthService
	users    *stubUserRepo
	codes    *stubCodeStore
	notifier *stubVerificationNotifier
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users:    newStubUserRepo(),
		codes:    newStubCodeStore(),
		notifier: &stubVerificationNotifier{sent: make(map[string]string)},
	}
	f.svc = NewAuthService(f.users, f.codes, f.notifier, "secret", time.Hour, discardLogger)
	return f
}

func registerInput(email, role string) ports.RegisterInput {
	return ports.RegisterInput{
		Email:     email,
		Password:  "pass123",
		FirstName: "Alice",
		LastName:  "Ade",
		Role:      role,
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	f := newAuthFixture()

	user, err := f.svc.Register(context.Background(), registerInput(" Alice@Example.com ", ""))
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected default role user, got %s", user.Role)
	}
	if user.IsVerified {
		t.Fatal("new accounts start unverified")
	}

	code := f.notifier.sent["alice@example.com"]
	if len(code) != 6 {
		t.Fatalf("expected a 6-digit code, got %q", code)
	}
	if f.codes.codes[user.ID] != code {
		t.Fatal("sent code must match the stored code")
	}
	if f.codes.lastTTL != verificationCodeTTL {
		t.Fatalf("expected ttl %v, got %v", verificationCodeTTL, f.codes.lastTTL)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	f := newAuthFixture()

	in := registerInput("", "")
	if _, err := f.svc.Register(context.Background(), in); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := f.svc.Register(context.Background(), registerInput("bob@example.com", domain.RoleAdmin)); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for admin self-registration, got %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	f := newAuthFixture()

	_, _ = f.svc.Register(context.Background(), registerInput("bob@example.com", ""))
	if _, err := f.svc.Register(context.Background(), registerInput("bob@example.com", "")); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Register_NotifierFailureIsNotFatal(t *testing.T) {
	f := newAuthFixture()
	f.notifier.err = errors.New("smtp down")

	if _, err := f.svc.Register(context.Background(), registerInput("dan@example.com", domain.RoleDriver)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	f := newAuthFixture()
	if _, err := f.svc.Register(context.Background(), registerInput("carol@example.com", domain.RoleDriver)); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, user, err := f.svc.Login(context.Background(), "carol@example.com", "pass123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user == nil || user.Email != "carol@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["user_id"] != user.ID {
		t.Fatalf("unexpected user_id claim: %v", claims["user_id"])
	}
	if claims["role"] != domain.RoleDriver {
		t.Fatalf("unexpected role claim: %v", claims["role"])
	}
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	f := newAuthFixture()
	_, _ = f.svc.Register(context.Background(), registerInput("dave@example.com", ""))

	if _, _, err := f.svc.Login(context.Background(), "dave@example.com", "wrong"); err != domain.ErrInvalidCredentials {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := f.svc.Login(context.Background(), "nobody@example.com", "pass123"); err != domain.ErrInvalidCredentials {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_VerifyEmail(t *testing.T) {
	f := newAuthFixture()
	user, _ := f.svc.Register(context.Background(), registerInput("erin@example.com", ""))
	code := f.notifier.sent["erin@example.com"]

	if _, err := f.svc.VerifyEmail(context.Background(), "erin@example.com", "000000x"); !errors.Is(err, domain.ErrInvalidVerificationCode) {
		t.Fatalf("expected ErrInvalidVerificationCode, got %v", err)
	}

	verified, err := f.svc.VerifyEmail(context.Background(), "erin@example.com", code)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !verified.IsVerified || !f.users.users[user.ID].IsVerified {
		t.Fatal("account must be marked verified")
	}
	if _, ok := f.codes.codes[user.ID]; ok {
		t.Fatal("code must be single use")
	}
	if _, err := f.svc.VerifyEmail(context.Background(), "erin@example.com", code); !errors.Is(err, domain.ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified, got %v", err)
	}
}

func TestAuthService_ResendVerification(t *testing.T) {
	f := newAuthFixture()
	user, _ := f.svc.Register(context.Background(), registerInput("fay@example.com", ""))
	delete(f.codes.codes, user.ID)

	if err := f.svc.ResendVerification(context.Background(), "fay@example.com"); err != nil {
		t.Fatalf("resend failed: %v", err)
	}
	if f.codes.codes[user.ID] == "" {
		t.Fatal("expected a fresh code")
	}
	if err := f.svc.ResendVerification(context.Background(), "ghost@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestGenerateVerificationCode_Range(t *testing.T) {
	for range 50 {
		code, err := generateVerificationCode()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(code) != 6 || code[0] == '0' {
			t.Fatalf("code out of range: %q", code)
		}
	}
}
