package service

import (
	"encoding/xml"
	"log/slog"
	"time"
)

// Public pages listed in the sitemap. Signed-in pages stay out.
var publicRoutes = []struct {
	Path       string
	Priority   string
	ChangeFreq string
}{
	{"/", "1.0", "daily"},
	{"/projects", "0.9", "daily"},
	{"/contact", "0.5", "monthly"},
	{"/privacy", "0.2", "yearly"},
	{"/terms", "0.2", "yearly"},
	{"/login", "0.3", "monthly"},
	{"/register", "0.3", "monthly"},
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type SitemapService struct {
	catalogService *CatalogService
	baseURL        string
}

func NewSitemapService(catalogService *CatalogService, baseURL string) *SitemapService {
	return &SitemapService{
		catalogService: catalogService,
		baseURL:        baseURL,
	}
}

// GenerateSitemap lists the static public pages and every catalog project.
func (s *SitemapService) GenerateSitemap() ([]byte, error) {
	today := time.Now().Format(time.DateOnly)
	set := sitemapURLSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}

	for _, route := range publicRoutes {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        s.baseURL + route.Path,
			LastMod:    today,
			ChangeFreq: route.ChangeFreq,
			Priority:   route.Priority,
		})
	}

	projects, err := s.catalogService.Projects(ProjectFilter{})
	if err != nil {
		slog.Warn("failed to list projects for sitemap", "error", err)
	}
	for _, p := range projects {
		entry := sitemapURL{
			Loc:        s.baseURL + "/projects/" + p.Slug,
			ChangeFreq: "weekly",
			Priority:   "0.7",
		}
		if !p.Date.IsZero() {
			entry.LastMod = p.Date.Format(time.DateOnly)
		}
		set.URLs = append(set.URLs, entry)
	}

	output, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return []byte(xml.Header + string(output)), nil
}
