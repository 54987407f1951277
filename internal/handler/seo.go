package handler

import (
	"log/slog"
	"net/http"
)

type SEOHandler struct {
	sitemapService sitemapGenerator
	baseURL        string
}

type sitemapGenerator interface {
	GenerateSitemap() ([]byte, error)
}

func NewSEOHandler(sitemapService sitemapGenerator, baseURL string) *SEOHandler {
	return &SEOHandler{
		sitemapService: sitemapService,
		baseURL:        baseURL,
	}
}

// Robots keeps crawlers out of the API and signed-in areas.
func (h *SEOHandler) Robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("User-agent: *\n" +
		"Allow: /\n" +
		"Disallow: /api/\n" +
		"Disallow: /admin\n" +
		"Disallow: /dashboard\n" +
		"Disallow: /verify-identity/\n" +
		"Sitemap: " + h.baseURL + "/sitemap.xml\n"))
}

func (h *SEOHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	sitemap, err := h.sitemapService.GenerateSitemap()
	if err != nil {
		slog.Error("failed to generate sitemap", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to generate sitemap")
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(sitemap)
}
