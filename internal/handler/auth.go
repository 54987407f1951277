package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/brickfund/platform/internal/service"
)

type AuthHandler struct {
	authService         *service.AuthService
	verificationService *service.VerificationService
}

func NewAuthHandler(authService *service.AuthService, verificationService *service.VerificationService) *AuthHandler {
	return &AuthHandler{
		authService:         authService,
		verificationService: verificationService,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if !decodeJSON(w, r, &in, maxBodyBytes) {
		return
	}

	user, err := h.authService.Register(r.Context(), in)
	if err != nil {
		handleServiceError(w, r, err, "register user")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message": "registration successful, check your email to verify your account",
		"user":    user,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		return
	}

	user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, r, err, "log in")
		return
	}

	token, expiresAt, err := h.authService.GenerateJWT(user)
	if err != nil {
		handleServiceError(w, r, err, "generate session token")
		return
	}
	h.authService.SetJWTCookie(w, token, expiresAt)

	slog.Info("user logged in", "user_id", user.ID)
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "login successful",
		"user":    user,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearJWTCookie(w)
	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// VerifyEmail consumes the emailed link and sends the browser to the login page.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	_, err := h.authService.VerifyEmail(r.Context(), r.PathValue("token"))
	if err != nil {
		handleServiceError(w, r, err, "verify email")
		return
	}

	http.Redirect(w, r, "/login?verified=true", http.StatusFound)
}

// VerifyHandoffToken tells the mobile page whether its link is still usable.
func (h *AuthHandler) VerifyHandoffToken(w http.ResponseWriter, r *http.Request) {
	_, err := h.verificationService.ResolveToken(r.Context(), r.PathValue("token"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidHandoffToken) {
			respondJSON(w, http.StatusNotFound, map[string]any{"isValid": false})
			return
		}
		handleServiceError(w, r, err, "check hand-off token")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"isValid": true})
}
