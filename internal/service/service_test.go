package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brickfund/platform/internal/model"
	"github.com/brickfund/platform/internal/repository"
	"github.com/brickfund/platform/internal/service"
	"github.com/brickfund/platform/internal/storage"
	"github.com/brickfund/platform/internal/testutil"
)

const (
	testAppURL     = "http://app.test"
	testAdminEmail = "admin@brickfund.cl"
)

type fixture struct {
	repo         repository.UserRepository
	mailer       *testutil.MemoryMailer
	storage      *testutil.MemoryStorage
	email        *service.EmailService
	auth         *service.AuthService
	users        *service.UserService
	verification *service.VerificationService
	admin        *service.AdminService
}

// newFixture wires the services over a fresh database. With withStorage the
// identity images go to an in-memory object store.
func newFixture(t *testing.T, withStorage bool) *fixture {
	t.Helper()

	f := &fixture{
		repo:   repository.NewUserRepository(testutil.MustOpenDB(t)),
		mailer: &testutil.MemoryMailer{},
	}

	var fileStorage storage.Storage
	if withStorage {
		f.storage = testutil.NewMemoryStorage()
		fileStorage = f.storage
	}

	f.email = service.NewEmailService(f.mailer, testAppURL, "Brickfund", "contacto@brickfund.cl")
	f.auth = service.NewAuthService(f.repo, f.email, "test-secret-test-secret-test-secret", time.Hour, false, testAdminEmail)
	f.users = service.NewUserService(f.repo, f.auth, fileStorage)
	f.verification = service.NewVerificationService(f.repo, fileStorage, service.VerificationConfig{
		AppURL:       testAppURL,
		QRRenderURL:  "https://qr.test/render?size=240x240",
		PollInterval: 5 * time.Millisecond,
		WaitMax:      100 * time.Millisecond,
	})
	f.admin = service.NewAdminService(f.repo, fileStorage)
	return f
}

// register creates a user through the service and returns it with its
// verification token.
func (f *fixture) register(t *testing.T, name, email string) *model.User {
	t.Helper()
	user, err := f.auth.Register(context.Background(), service.RegisterInput{
		Name:     name,
		Email:    email,
		Password: "password1",
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return user
}

// registerVerified registers and verifies a user.
func (f *fixture) registerVerified(t *testing.T, name, email string) *model.User {
	t.Helper()
	user := f.register(t, name, email)
	_, err := f.auth.VerifyEmail(context.Background(), *user.EmailVerificationToken)
	if err != nil {
		t.Fatalf("verify %s: %v", email, err)
	}
	return user
}

func isValidationError(err error) bool {
	var v *service.ValidationError
	return errors.As(err, &v)
}
