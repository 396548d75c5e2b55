package http

import (
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/keymark-edu/keymark/internal/storage"
)

// MountBlobs exposes stored blobs (archived answer images, result exports)
// under the given router:
//
//	GET /url/*  -> {"url": "..."} pointing at the blob
//	GET /*      -> streams the blob body
func MountBlobs(r chi.Router, bs storage.BlobStore) {
	r.Get("/url/*", func(w http.ResponseWriter, req *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(req, "*"), "/")
		u, err := bs.SignedURL(key)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]string{"key": key, "url": u})
	})
	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(req, "*"), "/")
		rc, err := bs.Get(key)
		if err != nil {
			if os.IsNotExist(err) {
				http.Error(w, "not found", http.StatusNotFound)
			} else {
				http.Error(w, "invalid key", http.StatusBadRequest)
			}
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.Copy(w, rc)
	})
}
