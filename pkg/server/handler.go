package server

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thepwagner/cydiarepo/pkg/repo"
	"github.com/thepwagner/cydiarepo/pkg/signing"
	"github.com/thepwagner/cydiarepo/pkg/storage"
)

type Handler struct {
	mux *chi.Mux

	source  repo.Source
	baseURL string
	assets  fs.FS
	signer  *signing.Signer
}

func NewHandler(cfg *Config, source repo.Source) (*Handler, error) {
	signer, err := signing.SignerFromConfig(cfg.Signing)
	if err != nil {
		return nil, fmt.Errorf("error building signer: %w", err)
	}

	h := &Handler{
		mux:     chi.NewRouter(),
		source:  source,
		baseURL: cfg.BaseURL,
		assets:  os.DirFS(cfg.AssetsDir),
		signer:  signer,
	}
	h.mux.Use(middleware.RequestID)
	h.mux.Use(middleware.RealIP)
	h.mux.Use(Logger)
	h.mux.Use(Metrics)

	h.mux.Get("/Release", h.Release)
	h.mux.Get("/InRelease", h.InRelease)
	h.mux.Get("/Release.gpg", h.ReleaseSignature)

	h.mux.Get("/Packages", h.Packages)
	h.mux.Get("/Packages.{compression:[gx]z}", h.Packages)

	h.mux.Get("/CydiaIcon.png", h.asset("CydiaIcon.png"))
	h.mux.Get("/footerIcon.png", h.asset("footerIcon.png"))
	h.mux.Get("/icons/{name:[A-Za-z0-9_][A-Za-z0-9_.-]*}", h.Icon)

	h.mux.Get("/sileo-featured.json", h.Featured)

	h.mux.Get("/healthz", h.Health)
	h.mux.Handle("/metrics", promhttp.Handler())
	return h, nil
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h Handler) Release(w http.ResponseWriter, r *http.Request) {
	slog.Info("handling Release", slog.String("request_id", middleware.GetReqID(r.Context())))

	releases, err := h.source.Releases(r.Context())
	if err != nil {
		storageError(w, r, "source.Releases", err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(repo.FormatRelease(releases)))
}

func (h Handler) InRelease(w http.ResponseWriter, r *http.Request) {
	h.signedRelease(w, r, "InRelease", "text/plain; charset=utf-8", (*signing.Signer).Clearsign)
}

func (h Handler) ReleaseSignature(w http.ResponseWriter, r *http.Request) {
	h.signedRelease(w, r, "Release.gpg", "application/pgp-signature", (*signing.Signer).DetachSign)
}

func (h Handler) signedRelease(w http.ResponseWriter, r *http.Request, name, contentType string, sign func(*signing.Signer, []byte) ([]byte, error)) {
	slog.Info("handling "+name,
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Bool("signing", h.signer != nil),
	)
	if h.signer == nil {
		http.NotFound(w, r)
		return
	}

	releases, err := h.source.Releases(r.Context())
	if err != nil {
		storageError(w, r, "source.Releases", err)
		return
	}

	res, err := sign(h.signer, []byte(repo.FormatRelease(releases)))
	if err != nil {
		slog.Error("signing release", slog.String("error", err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(res)
}

func (h Handler) Packages(w http.ResponseWriter, r *http.Request) {
	compression := repo.ParseCompression(chi.URLParam(r, "compression"))
	slog.Info("handling Packages",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Any("compression", compression),
	)

	pkgs, err := h.source.VisiblePackages(r.Context())
	if err != nil {
		storageError(w, r, "source.VisiblePackages", err)
		return
	}
	body := []byte(repo.FormatPackages(pkgs, h.baseURL))

	if compression == repo.CompressionNone {
		// The plain index is always sent gzip content-encoded.
		res, err := repo.CompressionGZIP.Compress(body)
		if err != nil {
			slog.Error("compressing Packages", slog.String("error", err.Error()))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", compression.ContentType())
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Set("Vary", "Accept-Encoding")
		_, _ = w.Write(res)
		return
	}

	res, err := compression.Compress(body)
	if err != nil {
		slog.Error("compressing Packages", slog.Any("compression", compression), slog.String("error", err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", compression.ContentType())
	_, _ = w.Write(res)
}

func (h Handler) Featured(w http.ResponseWriter, r *http.Request) {
	slog.Info("handling Featured", slog.String("request_id", middleware.GetReqID(r.Context())))

	banners, err := h.source.FeaturedBanners(r.Context())
	if err != nil {
		storageError(w, r, "source.FeaturedBanners", err)
		return
	}

	res, err := json.Marshal(repo.NewFeatured(banners))
	if err != nil {
		slog.Error("encoding featured", slog.String("error", err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(res)
}

type pinger interface {
	Ping(ctx context.Context) error
}

func (h Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.source.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			slog.Warn("health check failed", slog.String("error", err.Error()))
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// storageError maps a failed read to 503 when the pool could not serve a
// connection and 500 otherwise.
func storageError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := http.StatusInternalServerError
	if storage.IsUnavailable(err) {
		status = http.StatusServiceUnavailable
	}
	slog.Error(op,
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	)
	http.Error(w, http.StatusText(status), status)
}
