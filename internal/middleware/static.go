package middleware

import (
	"net/http"
	"os"
	"path/filepath"
)

const fallbackAvatarSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 200 200"><rect width="200" height="200" fill="#1a1a2e"/><circle cx="100" cy="80" r="35" fill="#6c5ce7"/><path d="M40 180c0-33.1 26.9-60 60-60s60 26.9 60 60" fill="#6c5ce7"/></svg>`

// StaticFileServer serves avatar images, falling back to an anonymous
// silhouette for profiles that never uploaded one.
func StaticFileServer(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean(r.URL.Path))

		if _, err := os.Stat(path); err == nil {
			w.Header().Set("Cache-Control", "public, max-age=2592000")
			http.ServeFile(w, r, path)
			return
		}

		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.Write([]byte(fallbackAvatarSVG))
	})
}
