package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/brickfund/platform/internal/ctxkeys"
	"github.com/brickfund/platform/internal/repository"
	"github.com/brickfund/platform/internal/service"
)

// Request bodies above this size are rejected. Identity uploads carry a
// base64 image and get their own larger limit.
const (
	maxBodyBytes   = 1 << 20
	maxUploadBytes = 8 << 20
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// decodeJSON reads the request body into dst, answering 400 itself when the
// body is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, limit int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "request body is too large")
			return false
		}
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// errorStatus maps service and repository sentinels to a status code. The
// sentinel's text is the response message unless one is given.
var errorStatus = []struct {
	err     error
	status  int
	message string
}{
	{service.ErrInvalidCredentials, http.StatusUnauthorized, ""},
	{service.ErrEmailNotVerified, http.StatusForbidden, "please verify your email before logging in"},
	{repository.ErrUserNotFound, http.StatusNotFound, "user not found"},
	{service.ErrInvalidHandoffToken, http.StatusNotFound, ""},
	{service.ErrProjectNotFound, http.StatusNotFound, ""},
	{service.ErrPageNotFound, http.StatusNotFound, ""},
	{service.ErrEmailAlreadyExists, http.StatusConflict, ""},
	{repository.ErrDuplicateEmail, http.StatusConflict, service.ErrEmailAlreadyExists.Error()},
	{service.ErrInvalidVerificationToken, http.StatusBadRequest, ""},
	{service.ErrWrongPassword, http.StatusBadRequest, ""},
	{service.ErrSelfDemotion, http.StatusBadRequest, ""},
	{service.ErrSelfDelete, http.StatusBadRequest, ""},
}

// statusFor returns the status code and client message for err.
func statusFor(err error) (int, string) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, validationErr.Message
	}
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			if e.message != "" {
				return e.status, e.message
			}
			return e.status, e.err.Error()
		}
	}
	return http.StatusInternalServerError, "internal server error"
}

// handleServiceError answers err with its mapped status. Unexpected errors
// are logged and hidden behind a generic message.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error(fmt.Sprintf("failed to %s", action),
			"error", err,
			"path", r.URL.Path,
			"request_id", ctxkeys.RequestID(r.Context()),
		)
	}
	respondError(w, status, message)
}

// userID returns the session user's id. Handlers reading it are wrapped in
// middleware.RequireAuth.
func userID(r *http.Request) string {
	identity := ctxkeys.IdentityFrom(r.Context())
	if identity == nil {
		return ""
	}
	return identity.UserID
}
