// Package web embeds the single-page planning UI served by the daemon.
package web

import (
	"bytes"
	"embed"
	"io/fs"
	"net/http"
	"strings"
	"time"
)

//go:embed static
var staticFS embed.FS

// Handler serves the embedded page. The root, /index.html and unknown paths
// all get the index page directly, without FileServer's index redirect.
func Handler() http.Handler {
	subFS, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("web: failed to create sub filesystem: " + err.Error())
	}
	index, err := fs.ReadFile(subFS, "index.html")
	if err != nil {
		panic("web: missing index.html: " + err.Error())
	}

	fileServer := http.FileServer(http.FS(subFS))
	serveIndex := func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "index.html", time.Time{}, bytes.NewReader(index))
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")
		if path == "" || path == "index.html" {
			serveIndex(w, r)
			return
		}

		if info, err := fs.Stat(subFS, path); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}
		serveIndex(w, r)
	})
}
