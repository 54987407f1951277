package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/brickfund/platform/internal/service"
)

// AdminHandler serves the user table. The session gate has already checked
// the admin role for every route here.
type AdminHandler struct {
	adminService *service.AdminService
}

func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := queryInt(q.Get("page"), 1)
	limit := queryInt(q.Get("limit"), service.DefaultPageLimit)
	search := strings.TrimSpace(q.Get("search"))

	result, err := h.adminService.ListUsers(r.Context(), page, limit, search)
	if err != nil {
		handleServiceError(w, r, err, "list users")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *AdminHandler) User(w http.ResponseWriter, r *http.Request) {
	user, err := h.adminService.User(r.Context(), r.PathValue("id"))
	if err != nil {
		handleServiceError(w, r, err, "get user")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		return
	}

	user, err := h.adminService.UpdateRole(r.Context(), userID(r), r.PathValue("id"), strings.TrimSpace(req.Role))
	if err != nil {
		handleServiceError(w, r, err, "update user role")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "user updated",
		"user":    user,
	})
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	err := h.adminService.DeleteUser(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		handleServiceError(w, r, err, "delete user")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// queryInt parses a positive integer query value, falling back to def.
func queryInt(value string, def int) int {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return def
	}
	return n
}
