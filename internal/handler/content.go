package handler

import (
	"net/http"
	"strings"

	"github.com/brickfund/platform/internal/service"
	"github.com/brickfund/platform/internal/validation"
)

// ContentHandler serves the public catalog, legal pages and contact form.
type ContentHandler struct {
	catalogService *service.CatalogService
	legalService   *service.LegalService
	emailService   *service.EmailService
}

func NewContentHandler(catalogService *service.CatalogService, legalService *service.LegalService, emailService *service.EmailService) *ContentHandler {
	return &ContentHandler{
		catalogService: catalogService,
		legalService:   legalService,
		emailService:   emailService,
	}
}

func (h *ContentHandler) Projects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	projects, err := h.catalogService.Projects(service.ProjectFilter{
		Status:   strings.TrimSpace(q.Get("status")),
		Category: strings.TrimSpace(q.Get("category")),
	})
	if err != nil {
		handleServiceError(w, r, err, "list projects")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (h *ContentHandler) Project(w http.ResponseWriter, r *http.Request) {
	project, err := h.catalogService.Project(r.PathValue("slug"))
	if err != nil {
		handleServiceError(w, r, err, "get project")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"project": project})
}

func (h *ContentHandler) Page(w http.ResponseWriter, r *http.Request) {
	page, err := h.legalService.Page(r.PathValue("slug"))
	if err != nil {
		handleServiceError(w, r, err, "get page")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"page": page})
}

const maxContactMessage = 5000

func (h *ContentHandler) Contact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		return
	}

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(strings.ToLower(req.Email))
	message := strings.TrimSpace(req.Message)

	err := validation.Required("name", name, "email", email, "message", message)
	if err == nil {
		err = validation.ValidateName(name)
	}
	if err == nil {
		err = validation.ValidateEmail(email)
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(message) > maxContactMessage {
		respondError(w, http.StatusBadRequest, "message is too long")
		return
	}

	err = h.emailService.SendContactMessage(r.Context(), name, email, message)
	if err != nil {
		handleServiceError(w, r, err, "send contact message")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "message sent"})
}
