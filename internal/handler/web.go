package handler

import (
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

// WebHandler serves the pre-built web client with index.html as the fallback
// for client-side routes. Without a directory every unmatched path is a JSON 404.
type WebHandler struct {
	root   http.FileSystem
	dir    fs.FS
	hasDir bool
}

func NewWebHandler(webDir string) *WebHandler {
	if webDir == "" {
		return &WebHandler{}
	}
	return &WebHandler{
		root:   http.Dir(webDir),
		dir:    os.DirFS(webDir),
		hasDir: true,
	}
}

func (h *WebHandler) Serve(w http.ResponseWriter, r *http.Request) {
	if !h.hasDir || strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/api" {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	if name != "" && h.isFile(name) {
		http.FileServer(h.root).ServeHTTP(w, r)
		return
	}

	index, err := fs.ReadFile(h.dir, "index.html")
	if err != nil {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write(index)
	}
}

func (h *WebHandler) isFile(name string) bool {
	info, err := fs.Stat(h.dir, name)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
