package service

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/brickfund/platform/internal/markdown"
)

type LegalPage struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Content     string `json:"content"`
	LastUpdated string `json:"lastUpdated"`
}

// LegalService serves the privacy policy, terms and similar pages from
// <content>/legal. Pages are read on every request so edits show up
// without a restart.
type LegalService struct {
	parser     *markdown.Parser
	contentDir string
}

func NewLegalService(contentPath string) *LegalService {
	return &LegalService{
		parser:     markdown.NewParser(),
		contentDir: filepath.Join(contentPath, "legal"),
	}
}

func (s *LegalService) Page(slug string) (*LegalPage, error) {
	if !slugPattern.MatchString(slug) {
		return nil, ErrPageNotFound
	}

	filePath := filepath.Join(s.contentDir, slug+".md")
	content, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrPageNotFound
		}
		return nil, fmt.Errorf("failed to read page %s: %w", slug, err)
	}

	html, meta, err := s.parser.ParseWithFrontmatter(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse markdown: %w", err)
	}

	title := metaString(meta, "title")
	if title == "" {
		title = titleCase(slug)
	}

	// Frontmatter date first, file modification time otherwise
	var updated time.Time
	if value, ok := meta["lastUpdated"]; ok {
		updated = parseDate(value)
	}
	if updated.IsZero() {
		info, err := os.Stat(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to get file info: %w", err)
		}
		updated = info.ModTime()
	}

	return &LegalPage{
		Title:       title,
		Slug:        slug,
		Content:     string(html),
		LastUpdated: updated.Format(time.DateOnly),
	}, nil
}
