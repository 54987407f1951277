package markdown

import (
	"strings"
	"testing"
)

func TestParseWithFrontmatter(t *testing.T) {
	source := []byte(`---
title: Edificio Alameda
target_amount: 150000000
expected_return: 9.5
---

# Ubicación

Cerca del **metro**.
`)

	html, meta, err := NewParser().ParseWithFrontmatter(source)
	if err != nil {
		t.Fatalf("ParseWithFrontmatter: %v", err)
	}

	if meta["title"] != "Edificio Alameda" {
		t.Errorf("title = %v", meta["title"])
	}
	if meta["target_amount"] != 150000000 {
		t.Errorf("target_amount = %#v, want int 150000000", meta["target_amount"])
	}
	if meta["expected_return"] != 9.5 {
		t.Errorf("expected_return = %#v, want 9.5", meta["expected_return"])
	}

	out := string(html)
	if !strings.Contains(out, "<strong>metro</strong>") {
		t.Errorf("body not rendered: %s", out)
	}
	if strings.Contains(out, "target_amount") {
		t.Errorf("frontmatter leaked into body: %s", out)
	}
}

func TestParseWithoutFrontmatter(t *testing.T) {
	_, meta, err := NewParser().ParseWithFrontmatter([]byte("plain text"))
	if err != nil {
		t.Fatalf("ParseWithFrontmatter: %v", err)
	}
	if meta == nil || len(meta) != 0 {
		t.Errorf("meta = %v, want empty map", meta)
	}
}

func TestRawHTMLDropped(t *testing.T) {
	html, _, err := NewParser().ParseWithFrontmatter([]byte("<script>alert(1)</script>\n"))
	if err != nil {
		t.Fatalf("ParseWithFrontmatter: %v", err)
	}
	if strings.Contains(string(html), "<script>") {
		t.Errorf("raw HTML rendered: %s", html)
	}
}
