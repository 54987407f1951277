package service

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/brickfund/platform/internal/markdown"
	"github.com/brickfund/platform/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// CatalogService reads the project listings from markdown files with
// frontmatter under <content>/projects.
type CatalogService struct {
	parser      *markdown.Parser
	contentPath string
}

func NewCatalogService(contentPath string) *CatalogService {
	return &CatalogService{
		parser:      markdown.NewParser(),
		contentPath: contentPath,
	}
}

type ProjectFilter struct {
	Status   string
	Category string
}

// Projects lists projects newest first. Files that fail to parse are skipped.
func (s *CatalogService) Projects(filter ProjectFilter) ([]*model.Project, error) {
	pattern := filepath.Join(s.contentPath, "projects", "*.md")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}

	projects := []*model.Project{}
	for _, file := range files {
		project, err := s.Project(strings.TrimSuffix(filepath.Base(file), ".md"))
		if err != nil {
			continue
		}
		if filter.Status != "" && project.Status != filter.Status {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(project.Category, filter.Category) {
			continue
		}
		project.HTMLContent = ""
		projects = append(projects, project)
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].Date.After(projects[j].Date)
	})

	return projects, nil
}

func (s *CatalogService) Project(slug string) (*model.Project, error) {
	if !slugPattern.MatchString(slug) {
		return nil, ErrProjectNotFound
	}

	path := filepath.Join(s.contentPath, "projects", slug+".md")
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to read project %s: %w", slug, err)
	}

	htmlContent, meta, err := s.parser.ParseWithFrontmatter(content)
	if err != nil {
		return nil, err
	}

	project := &model.Project{
		Slug:           slug,
		HTMLContent:    string(htmlContent),
		Title:          metaString(meta, "title"),
		Summary:        metaString(meta, "summary"),
		Location:       metaString(meta, "location"),
		Category:       titleCase(metaString(meta, "category")),
		Status:         metaString(meta, "status"),
		Image:          metaString(meta, "image"),
		TargetAmount:   int64(metaNumber(meta, "target_amount")),
		RaisedAmount:   int64(metaNumber(meta, "raised_amount")),
		MinInvestment:  int64(metaNumber(meta, "min_investment")),
		ExpectedReturn: metaNumber(meta, "expected_return"),
		TermMonths:     int(metaNumber(meta, "term_months")),
	}
	if project.Status == "" {
		project.Status = model.ProjectStatusSoon
	}
	project.FundedPercent = project.Funded()

	date, ok := meta["date"]
	if ok {
		project.Date = parseDate(date)
	}

	return project, nil
}

func metaString(meta map[string]any, key string) string {
	v, _ := meta[key].(string)
	return strings.TrimSpace(v)
}

// metaNumber reads YAML ints and floats alike.
func metaNumber(meta map[string]any, key string) float64 {
	switch v := meta[key].(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	case float64:
		return v
	default:
		return 0
	}
}

func titleCase(s string) string {
	return cases.Title(language.Spanish).String(strings.ReplaceAll(s, "-", " "))
}

// parseDate accepts YAML timestamps and the usual string layouts.
func parseDate(value any) time.Time {
	switch v := value.(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range []string{time.DateOnly, "2006/01/02", "02.01.2006", time.RFC3339} {
			t, err := time.Parse(layout, v)
			if err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
