package server

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h Handler) asset(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.serveAsset(w, r, name)
	}
}

// Icon serves icons/{name}.png. The router restricts name to a single
// path segment that does not start with a dot.
func (h Handler) Icon(w http.ResponseWriter, r *http.Request) {
	h.serveAsset(w, r, path.Join("icons", chi.URLParam(r, "name")+".png"))
}

func (h Handler) serveAsset(w http.ResponseWriter, r *http.Request, name string) {
	slog.Info("handling asset",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("name", name),
	)

	f, err := h.assets.Open(name)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
		http.NotFound(w, r)
		return
	} else if err != nil {
		slog.Error("opening asset", slog.String("name", name), slog.String("error", err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		slog.Error("stat asset", slog.String("name", name), slog.String("error", err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if info.IsDir() {
		http.NotFound(w, r)
		return
	}

	content, ok := f.(io.ReadSeeker)
	if !ok {
		b, err := io.ReadAll(f)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		content = bytes.NewReader(b)
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", "attachment")
	http.ServeContent(w, r, info.Name(), info.ModTime(), content)
}
