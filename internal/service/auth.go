package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/brickfund/platform/internal/metrics"
	"github.com/brickfund/platform/internal/model"
	"github.com/brickfund/platform/internal/repository"
	"github.com/brickfund/platform/internal/validation"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const AuthCookieName = "auth_token"

type AuthService struct {
	userRepository repository.UserRepository
	emailService   *EmailService
	jwtSecret      string
	jwtExpiry      time.Duration
	cookieSecure   bool
	adminEmail     string
}

func NewAuthService(
	userRepository repository.UserRepository,
	emailService *EmailService,
	jwtSecret string,
	jwtExpiry time.Duration,
	cookieSecure bool,
	adminEmail string,
) *AuthService {
	return &AuthService{
		userRepository: userRepository,
		emailService:   emailService,
		jwtSecret:      jwtSecret,
		jwtExpiry:      jwtExpiry,
		cookieSecure:   cookieSecure,
		adminEmail:     strings.ToLower(adminEmail),
	}
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an unverified account and mails the verification link.
// A failed send is logged and does not fail the registration.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(strings.ToLower(in.Email))

	if name == "" || email == "" || in.Password == "" {
		return nil, invalid("name, email and password are required")
	}
	err := validation.ValidateName(name)
	if err != nil {
		return nil, invalidErr(err)
	}
	err = validation.ValidateEmail(email)
	if err != nil {
		return nil, invalidErr(err)
	}
	err = validation.ValidatePassword(in.Password)
	if err != nil {
		return nil, invalidErr(err)
	}

	_, err = s.userRepository.ByEmail(ctx, email)
	if err == nil {
		metrics.AuthEvents.WithLabelValues("register", "duplicate").Inc()
		return nil, ErrEmailAlreadyExists
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}

	role := model.RoleUser
	if s.adminEmail != "" && email == s.adminEmail {
		role = model.RoleAdmin
	}

	now := time.Now().UTC()
	settings := model.DefaultSettings()
	user := &model.User{
		ID:                     uuid.New().String(),
		Email:                  email,
		Name:                   name,
		PasswordHash:           hash,
		Role:                   role,
		EmailVerificationToken: &token,
		Settings:               &settings,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	err = s.userRepository.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			metrics.AuthEvents.WithLabelValues("register", "duplicate").Inc()
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	err = s.emailService.SendVerificationEmail(ctx, user.Email, user.Name, token)
	if err != nil {
		slog.Warn("failed to send verification email", "error", err, "user_id", user.ID)
	}

	metrics.AuthEvents.WithLabelValues("register", "success").Inc()
	slog.Info("user registered", "user_id", user.ID, "role", user.Role)

	user.PasswordHash = ""
	return user, nil
}

// Login checks the verification state before the password, so an unverified
// account answers ErrEmailNotVerified even when the password is wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, invalid("email and password are required")
	}

	user, err := s.userRepository.ByEmailWithPassword(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			metrics.AuthEvents.WithLabelValues("login", "unknown_email").Inc()
			return nil, fmt.Errorf("invalid credentials: %w", ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsEmailVerified() {
		metrics.AuthEvents.WithLabelValues("login", "unverified").Inc()
		return nil, fmt.Errorf("login blocked: %w", ErrEmailNotVerified)
	}

	err = s.ComparePassword(password, user.PasswordHash)
	if err != nil {
		metrics.AuthEvents.WithLabelValues("login", "wrong_password").Inc()
		return nil, fmt.Errorf("invalid credentials: %w", ErrInvalidCredentials)
	}

	metrics.AuthEvents.WithLabelValues("login", "success").Inc()
	user.PasswordHash = ""
	return user, nil
}

// VerifyEmail consumes a verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrInvalidVerificationToken
	}

	user, err := s.userRepository.ByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			metrics.AuthEvents.WithLabelValues("verify_email", "invalid").Inc()
			return nil, ErrInvalidVerificationToken
		}
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}

	err = s.userRepository.MarkEmailVerified(ctx, user.ID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to verify email: %w", err)
	}

	metrics.AuthEvents.WithLabelValues("verify_email", "success").Inc()
	slog.Info("email verified", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// generateToken returns 32 random bytes, hex encoded.
func generateToken() (string, error) {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func (s *AuthService) GenerateJWT(user *model.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.jwtExpiry)
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     expiresAt.Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

func (s *AuthService) VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

func (s *AuthService) SetJWTCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Expires:  expiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) ClearJWTCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
