package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/brickfund/platform/internal/model"
	"github.com/brickfund/platform/internal/service"
)

func TestRegister(t *testing.T) {
	f := newFixture(t, false)

	user := f.register(t, "Ana", "Ana@X.com")

	if user.Email != "ana@x.com" {
		t.Errorf("email = %q, want lower-cased", user.Email)
	}
	if user.Role != model.RoleUser {
		t.Errorf("role = %q, want user", user.Role)
	}
	if user.PasswordHash != "" {
		t.Error("register returned the password hash")
	}
	if user.IsEmailVerified() || user.EmailVerificationToken == nil {
		t.Fatal("new user should be unverified with a token")
	}

	msg, ok := f.mailer.Last()
	if !ok {
		t.Fatal("no verification email sent")
	}
	if msg.To != "ana@x.com" || msg.Type != "verification" {
		t.Errorf("mail = %+v", msg)
	}
	if !strings.Contains(msg.Body, f.email.VerificationURL(*user.EmailVerificationToken)) {
		t.Error("mail body is missing the verification link")
	}
}

func TestRegisterAdminEmail(t *testing.T) {
	f := newFixture(t, false)

	user := f.register(t, "Admin", strings.ToUpper(testAdminEmail))
	if user.Role != model.RoleAdmin {
		t.Errorf("role = %q, want admin", user.Role)
	}
}

func TestRegisterDuplicateKeepsStoredUser(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.register(t, "Ana", "ana@x.com")

	before, err := f.repo.ByEmailWithPassword(ctx, "ana@x.com")
	if err != nil {
		t.Fatal(err)
	}

	_, err = f.auth.Register(ctx, service.RegisterInput{Name: "Other", Email: "ana@x.com", Password: "different1"})
	if !errors.Is(err, service.ErrEmailAlreadyExists) {
		t.Fatalf("err = %v, want ErrEmailAlreadyExists", err)
	}

	after, err := f.repo.ByEmailWithPassword(ctx, "ana@x.com")
	if err != nil {
		t.Fatal(err)
	}
	if after.PasswordHash != before.PasswordHash || after.Name != "Ana" {
		t.Error("duplicate registration modified the stored user")
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t, false)

	tests := []struct {
		name string
		in   service.RegisterInput
	}{
		{"missing name", service.RegisterInput{Email: "a@x.com", Password: "password1"}},
		{"missing email", service.RegisterInput{Name: "A", Password: "password1"}},
		{"missing password", service.RegisterInput{Name: "A", Email: "a@x.com"}},
		{"invalid email", service.RegisterInput{Name: "A", Email: "not-an-email", Password: "password1"}},
		{"short password", service.RegisterInput{Name: "A", Email: "a@x.com", Password: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.Register(context.Background(), tt.in)
			if !isValidationError(err) {
				t.Errorf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	user := f.register(t, "Ana", "ana@x.com")

	// Unverified is reported before the password is checked
	_, err := f.auth.Login(ctx, "ana@x.com", "wrong-password")
	if !errors.Is(err, service.ErrEmailNotVerified) {
		t.Fatalf("unverified: err = %v, want ErrEmailNotVerified", err)
	}

	_, err = f.auth.VerifyEmail(ctx, *user.EmailVerificationToken)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"unknown email", "nobody@x.com", "password1", service.ErrInvalidCredentials},
		{"wrong password", "ana@x.com", "wrong-password", service.ErrInvalidCredentials},
		{"success", "ANA@x.com", "password1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.auth.Login(ctx, tt.email, tt.password)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if tt.want == nil && got.PasswordHash != "" {
				t.Error("login returned the password hash")
			}
		})
	}

	_, err = f.auth.Login(ctx, "", "")
	if !isValidationError(err) {
		t.Errorf("missing fields: err = %v, want ValidationError", err)
	}
}

func TestVerifyEmailConsumesToken(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	user := f.register(t, "Ana", "ana@x.com")
	token := *user.EmailVerificationToken

	_, err := f.auth.VerifyEmail(ctx, token)
	if err != nil {
		t.Fatalf("first verify: %v", err)
	}

	_, err = f.auth.VerifyEmail(ctx, token)
	if !errors.Is(err, service.ErrInvalidVerificationToken) {
		t.Errorf("second verify: err = %v, want ErrInvalidVerificationToken", err)
	}

	stored, err := f.repo.ByID(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.IsEmailVerified() || stored.EmailVerificationToken != nil {
		t.Error("user should be verified with the token cleared")
	}
}

func TestJWT(t *testing.T) {
	f := newFixture(t, false)
	user := &model.User{ID: "u1", Email: "ana@x.com", Role: model.RoleUser}

	token, expiresAt, err := f.auth.GenerateJWT(user)
	if err != nil {
		t.Fatal(err)
	}
	if time.Until(expiresAt) > time.Hour || time.Until(expiresAt) < 59*time.Minute {
		t.Errorf("expiry = %v, want one hour from now", expiresAt)
	}

	claims, err := f.auth.VerifyJWT(token)
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims["user_id"] != "u1" || claims["role"] != model.RoleUser {
		t.Errorf("claims = %v", claims)
	}

	other := service.NewAuthService(f.repo, f.email, "another-secret-another-secret-xx", time.Hour, false, "")
	_, err = other.VerifyJWT(token)
	if err == nil {
		t.Error("token signed with another secret was accepted")
	}
}
