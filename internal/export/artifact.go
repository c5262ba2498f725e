package export

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/escapekit/internal/domain"
)

// Content types of exported artifacts
const (
	ContentTypeHTML = "text/html; charset=utf-8"
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeYAML = "application/yaml; charset=utf-8"
)

// Artifact is a named document ready to be opened or saved
type Artifact struct {
	Name        string
	ContentType string
	Body        []byte
}

// HTMLArtifact wraps a generated HTML document
func HTMLArtifact(name, html string) Artifact {
	return Artifact{Name: Filename(name, ".html"), ContentType: ContentTypeHTML, Body: []byte(html)}
}

// TextArtifact wraps a plain-text export
func TextArtifact(name, text string) Artifact {
	return Artifact{Name: Filename(name, ".txt"), ContentType: ContentTypeText, Body: []byte(text)}
}

// Filename turns a title into a safe file name with the given extension
func Filename(title, ext string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, strings.TrimSpace(title))
	name = strings.Join(strings.Fields(name), "_")
	name = strings.Trim(name, ".")
	if name == "" {
		name = "escape-room"
	}
	if !strings.HasSuffix(name, ext) {
		name += ext
	}
	return name
}

// WriteAttachment writes the artifact as a download
func WriteAttachment(w http.ResponseWriter, a Artifact) error {
	return write(w, "attachment", a)
}

// WriteInline writes the artifact for display in the browser
func WriteInline(w http.ResponseWriter, a Artifact) error {
	return write(w, "inline", a)
}

func write(w http.ResponseWriter, disposition string, a Artifact) error {
	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Body)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": a.Name}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(a.Body); err != nil {
		return &domain.ClientSideError{Op: "download", Err: err}
	}
	return nil
}

// WriteFile saves the artifact into dir and returns its path
func WriteFile(dir string, a Artifact) (string, error) {
	if len(a.Body) == 0 {
		return "", &domain.ClientSideError{Op: "save", Err: ErrEmptyArtifact}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &domain.ClientSideError{Op: "save", Err: fmt.Errorf("create directory: %w", err)}
	}

	path := filepath.Join(dir, a.Name)
	if err := os.WriteFile(path, a.Body, 0644); err != nil {
		return "", &domain.ClientSideError{Op: "save", Err: err}
	}
	return path, nil
}
