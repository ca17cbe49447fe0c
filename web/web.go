// Package web serves the embedded dashboard assets.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

//go:embed dist/*
var content embed.FS

// Handler returns an http.Handler serving the embedded dashboard. Unknown
// paths fall back to index.html so client-side routing keeps working.
func Handler() (http.Handler, error) {
	fsys, err := fs.Sub(content, "dist")
	if err != nil {
		return nil, fmt.Errorf("loading embedded web assets: %w", err)
	}

	indexBytes, err := fs.ReadFile(fsys, "index.html")
	if err != nil {
		return nil, fmt.Errorf("reading embedded index.html: %w", err)
	}

	static := http.FileServer(http.FS(fsys))

	serveIndex := func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(indexBytes)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cleanPath := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if cleanPath == "." || cleanPath == "" {
			serveIndex(w)
			return
		}
		if _, err := fs.Stat(fsys, cleanPath); err == nil {
			static.ServeHTTP(w, r)
			return
		}
		serveIndex(w)
	}), nil
}
