package handler

import (
	"net/http"

	"github.com/brickfund/platform/internal/service"
)

type VerificationHandler struct {
	verificationService *service.VerificationService
}

func NewVerificationHandler(verificationService *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{verificationService: verificationService}
}

// QRCode returns the hand-off link for the signed-in user and the QR image
// URL encoding it.
func (h *VerificationHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	handoff, err := h.verificationService.HandoffLink(r.Context(), userID(r))
	if err != nil {
		handleServiceError(w, r, err, "issue hand-off link")
		return
	}
	respondJSON(w, http.StatusOK, handoff)
}

// UploadIdentity takes one document side from the mobile device. The token
// in the body is the only credential.
func (h *VerificationHandler) UploadIdentity(w http.ResponseWriter, r *http.Request) {
	var in service.UploadInput
	if !decodeJSON(w, r, &in, maxUploadBytes) {
		return
	}

	result, err := h.verificationService.UploadIdentity(r.Context(), in)
	if err != nil {
		handleServiceError(w, r, err, "upload identity image")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message":          "image uploaded",
		"side":             result.Side,
		"identityVerified": result.IdentityVerified,
	})
}

func (h *VerificationHandler) Onboarding(w http.ResponseWriter, r *http.Request) {
	state, err := h.verificationService.Onboarding(r.Context(), userID(r))
	if err != nil {
		handleServiceError(w, r, err, "get onboarding state")
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// Status answers with the onboarding state. With ?wait=1 it holds the
// request until the identity step completes or the wait bound passes.
func (h *VerificationHandler) Status(w http.ResponseWriter, r *http.Request) {
	var (
		state *service.OnboardingState
		err   error
	)
	switch r.URL.Query().Get("wait") {
	case "1", "true":
		state, err = h.verificationService.WaitForIdentity(r.Context(), userID(r))
	default:
		state, err = h.verificationService.Onboarding(r.Context(), userID(r))
	}
	if err != nil {
		handleServiceError(w, r, err, "get verification status")
		return
	}
	respondJSON(w, http.StatusOK, state)
}
