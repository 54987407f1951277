package handler

import (
	"net/http"

	"github.com/brickfund/platform/internal/model"
	"github.com/brickfund/platform/internal/service"
)

// UserHandler serves the signed-in user's own record, one field group per
// endpoint.
type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.Profile(r.Context(), userID(r))
	if err != nil {
		handleServiceError(w, r, err, "get profile")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in service.ProfileInput
	if !decodeJSON(w, r, &in, maxBodyBytes) {
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID(r), in)
	if err != nil {
		handleServiceError(w, r, err, "update profile")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "profile updated",
		"user":    user,
	})
}

func (h *UserHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	var in model.Address
	if !decodeJSON(w, r, &in, maxBodyBytes) {
		return
	}

	address, err := h.userService.UpdateAddress(r.Context(), userID(r), in)
	if err != nil {
		handleServiceError(w, r, err, "update address")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "address updated",
		"address": address,
	})
}

func (h *UserHandler) UpdatePhone(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
	}
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		return
	}

	phone, err := h.userService.UpdatePhone(r.Context(), userID(r), req.Phone)
	if err != nil {
		handleServiceError(w, r, err, "update phone")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "phone updated",
		"phone":   phone,
	})
}

func (h *UserHandler) UpdateMaritalStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MaritalStatus string `json:"maritalStatus"`
	}
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		return
	}

	info, err := h.userService.UpdateMaritalStatus(r.Context(), userID(r), req.MaritalStatus)
	if err != nil {
		handleServiceError(w, r, err, "update marital status")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message":      "marital status updated",
		"personalInfo": info,
	})
}

func (h *UserHandler) UpdateNationality(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Nationality *bool `json:"nationality"`
	}
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		return
	}

	info, err := h.userService.UpdateNationality(r.Context(), userID(r), req.Nationality)
	if err != nil {
		handleServiceError(w, r, err, "update nationality")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message":      "nationality updated",
		"personalInfo": info,
	})
}

func (h *UserHandler) UpdatePersonalData(w http.ResponseWriter, r *http.Request) {
	var in service.PersonalDataInput
	if !decodeJSON(w, r, &in, maxBodyBytes) {
		return
	}

	info, err := h.userService.UpdatePersonalData(r.Context(), userID(r), in)
	if err != nil {
		handleServiceError(w, r, err, "update personal data")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message":      "personal data updated",
		"personalInfo": info,
	})
}

func (h *UserHandler) UpdateRegulatoryInfo(w http.ResponseWriter, r *http.Request) {
	var in service.RegulatoryInput
	if !decodeJSON(w, r, &in, maxBodyBytes) {
		return
	}

	info, err := h.userService.UpdateRegulatoryInfo(r.Context(), userID(r), in)
	if err != nil {
		handleServiceError(w, r, err, "update regulatory info")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message":        "regulatory information updated",
		"regulatoryInfo": info,
	})
}

func (h *UserHandler) Settings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.userService.Settings(r.Context(), userID(r))
	if err != nil {
		handleServiceError(w, r, err, "get settings")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"settings": settings})
}

func (h *UserHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch service.SettingsPatch
	if !decodeJSON(w, r, &patch, maxBodyBytes) {
		return
	}

	settings, err := h.userService.UpdateSettings(r.Context(), userID(r), patch)
	if err != nil {
		handleServiceError(w, r, err, "update settings")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message":  "settings updated",
		"settings": settings,
	})
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		return
	}

	err := h.userService.ChangePassword(r.Context(), userID(r), req.CurrentPassword, req.NewPassword)
	if err != nil {
		handleServiceError(w, r, err, "change password")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}
