package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jingally/booking-system/internal/core/domain"
	"github.com/jingally/booking-system/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.User, error)
	verifyFn   func(ctx context.Context, email, code string) (*domain.User, error)
	resendFn   func(ctx context.Context, email string) error
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) VerifyEmail(ctx context.Context, email, code string) (*domain.User, error) {
	return s.verifyFn(ctx, email, code)
}

func (s *stubAuthService) ResendVerification(ctx context.Context, email string) error {
	return s.resendFn(ctx, email)
}

// --- Register ---

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(_ context.Context, in ports.RegisterInput) (*domain.User, error) {
			if in.Email != "ada@example.com" || in.FirstName != "Ada" || in.Role != "driver" {
				t.Fatalf("unexpected input %+v", in)
			}
			return &domain.User{ID: "u1", Email: in.Email, FirstName: in.FirstName, Role: in.Role, PasswordHash: "hash"}, nil
		},
	}
	body := `{"email":"ada@example.com","password":"supersecret","firstName":"Ada","lastName":"Lovelace","role":"driver"}`
	c, rec := newContext(e, http.MethodPost, "/auth/register", body)

	if err := NewAuthHandler(stub).Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	user, ok := data["user"].(map[string]any)
	if !ok {
		t.Fatalf("missing user in %v", data)
	}
	if user["email"] != "ada@example.com" || user["role"] != "driver" {
		t.Errorf("unexpected user %v", user)
	}
	if _, leaked := user["PasswordHash"]; leaked {
		t.Error("password hash must never be serialized")
	}
	if _, hasToken := data["token"]; hasToken {
		t.Error("register must not issue a token")
	}
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"short password", `{"email":"a@example.com","password":"short","firstName":"A","lastName":"B"}`, "password"},
		{"bad email", `{"email":"nope","password":"supersecret","firstName":"A","lastName":"B"}`, "email"},
		{"admin role", `{"email":"a@example.com","password":"supersecret","firstName":"A","lastName":"B","role":"admin"}`, "role"},
		{"missing name", `{"email":"a@example.com","password":"supersecret"}`, "firstName"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEcho()
			c, _ := newContext(e, http.MethodPost, "/auth/register", tc.body)

			ve := asValidation(t, NewAuthHandler(&stubAuthService{}).Register(c))
			if !hasField(ve, tc.field) {
				t.Errorf("expected %q error, got %+v", tc.field, ve.Fields)
			}
		})
	}
}

func TestAuthHandler_Register_Conflict(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}
	c, _ := newContext(e, http.MethodPost, "/auth/register", `{"email":"a@example.com","password":"supersecret","firstName":"A","lastName":"B"}`)

	if err := NewAuthHandler(stub).Register(c); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

// --- Login ---

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(_ context.Context, email, password string) (string, *domain.User, error) {
			if email != "ada@example.com" || password != "supersecret" {
				t.Fatalf("unexpected credentials %s %s", email, password)
			}
			return "jwt-token", &domain.User{ID: "u1", Email: email, Role: domain.RoleUser}, nil
		},
	}
	c, rec := newContext(e, http.MethodPost, "/auth/login", `{"email":"ada@example.com","password":"supersecret"}`)

	if err := NewAuthHandler(stub).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	if data["token"] != "jwt-token" {
		t.Errorf("unexpected token %v", data["token"])
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (string, *domain.User, error) {
			return "", nil, domain.ErrInvalidCredentials
		},
	}
	c, _ := newContext(e, http.MethodPost, "/auth/login", `{"email":"ada@example.com","password":"wrong"}`)

	if err := NewAuthHandler(stub).Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

// --- Verification ---

func TestAuthHandler_VerifyEmail(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		verifyFn: func(_ context.Context, email, code string) (*domain.User, error) {
			if code != "123456" {
				t.Fatalf("unexpected code %s", code)
			}
			return &domain.User{ID: "u1", Email: email, IsVerified: true}, nil
		},
	}
	c, rec := newContext(e, http.MethodPost, "/auth/verify-email", `{"email":"ada@example.com","code":"123456"}`)

	if err := NewAuthHandler(stub).VerifyEmail(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	user := decodeEnvelope(t, rec)["data"].(map[string]any)["user"].(map[string]any)
	if user["isVerified"] != true {
		t.Errorf("expected verified user, got %v", user)
	}
}

func TestAuthHandler_VerifyEmail_MalformedCode(t *testing.T) {
	for _, code := range []string{"12345", "abcdef", "1234567"} {
		e := newEcho()
		c, _ := newContext(e, http.MethodPost, "/auth/verify-email", `{"email":"ada@example.com","code":"`+code+`"}`)

		ve := asValidation(t, NewAuthHandler(&stubAuthService{}).VerifyEmail(c))
		if !hasField(ve, "code") {
			t.Errorf("%s: expected code error, got %+v", code, ve.Fields)
		}
	}
}

func TestAuthHandler_ResendVerification(t *testing.T) {
	e := newEcho()
	var got string
	stub := &stubAuthService{
		resendFn: func(_ context.Context, email string) error {
			got = email
			return nil
		},
	}
	c, rec := newContext(e, http.MethodPost, "/auth/resend-verification", `{"email":"ada@example.com"}`)

	if err := NewAuthHandler(stub).ResendVerification(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got != "ada@example.com" || rec.Code != http.StatusOK {
		t.Errorf("unexpected result email=%q code=%d", got, rec.Code)
	}
}
