package http

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-quiz/internal/storage"
)

const maxFigureBytes = 8 << 20

// MountFigures serves question figures from bs.
func MountFigures(r chi.Router, bs storage.BlobStore) {
	// POST /figures  (multipart, field "file")
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxFigureBytes)
		f, hdr, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file required"})
			return
		}
		defer f.Close()

		ct := hdr.Header.Get("Content-Type")
		if !strings.HasPrefix(ct, "image/") {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "image required, got " + ct})
			return
		}
		ext := ""
		if exts, _ := mime.ExtensionsByType(ct); len(exts) > 0 {
			ext = exts[0]
		}
		key, err := bs.Put("figures/"+uuid.NewString()+ext, f)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"key": key})
	})

	// GET /figures/*  -> the blob at whatever follows /figures/
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := "figures/" + strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get(key)
		switch {
		case errors.Is(err, storage.ErrInvalidKey):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		case errors.Is(err, os.ErrNotExist):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		case err != nil:
			writeError(w, r, err)
			return
		}
		defer rc.Close()
		if ct := mime.TypeByExtension(extOf(key)); ct != "" {
			w.Header().Set("Content-Type", ct)
		} else {
			w.Header().Set("Content-Type", "application/octet-stream")
		}
		_, _ = io.Copy(w, rc)
	})
}

func extOf(key string) string {
	if i := strings.LastIndexByte(key, '.'); i >= 0 && !strings.Contains(key[i:], "/") {
		return key[i:]
	}
	return ""
}
