// Package server exposes a resolved extension model as a read-only JSON
// API. It backs the serve command.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/extwrangler/pkg/buildinfo"
	"github.com/matzehuels/extwrangler/pkg/emit"
	"github.com/matzehuels/extwrangler/pkg/errors"
	"github.com/matzehuels/extwrangler/pkg/model"
	"github.com/matzehuels/extwrangler/pkg/observability"
	"github.com/matzehuels/extwrangler/pkg/render/nodelink"
)

// Server serves one model. The model is never modified after New.
type Server struct {
	httpServer *http.Server
	logger     *log.Logger
}

// New creates a server listening on addr.
func New(addr string, m *emit.Model, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(m),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("serving model", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// NewRouter builds the route table:
//
//	GET /healthz
//	GET /model
//	GET /versions
//	GET /extensions?type=device&version=VK_VERSION_1_2
//	GET /extensions/{name}
//	GET /extensions/{name}/deps/{version}
//	GET /graph/{version}?focus=VK_KHR_swapchain
func NewRouter(m *emit.Model) http.Handler {
	h := &handler{m: m}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(observe)

	r.Get("/healthz", h.health)
	r.Get("/model", h.model)
	r.Get("/versions", h.versions)
	r.Route("/extensions", func(r chi.Router) {
		r.Get("/", h.extensions)
		r.Get("/{name}", h.extension)
		r.Get("/{name}/deps/{version}", h.deps)
	})
	r.Get("/graph/{version}", h.graph)
	return r
}

// observe reports every request to the HTTP hooks.
func observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

type handler struct {
	m *emit.Model
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"build":         buildinfo.Resolved(),
		"registry_hash": h.m.RegistryHash,
	})
}

func (h *handler) model(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.m)
}

func (h *handler) versions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.m.Versions)
}

func (h *handler) extensions(w http.ResponseWriter, r *http.Request) {
	typ := r.URL.Query().Get("type")
	if typ != "" && typ != model.TypeDevice && typ != model.TypeInstance {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "type must be %s or %s", model.TypeDevice, model.TypeInstance))
		return
	}
	version := r.URL.Query().Get("version")
	if version != "" {
		if _, ok := h.m.VersionIndex(version); !ok {
			writeError(w, errors.New(errors.ErrCodeVersionNotFound, "unknown version %s", version))
			return
		}
	}

	out := make([]emit.Extension, 0, len(h.m.Extensions))
	for i := range h.m.Extensions {
		ext := &h.m.Extensions[i]
		if typ != "" && ext.Type != typ {
			continue
		}
		if version != "" {
			if _, ok := h.m.EntryAt(ext, version); !ok {
				continue
			}
		}
		out = append(out, *ext)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) extension(w http.ResponseWriter, r *http.Request) {
	ext, err := h.lookup(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ext)
}

func (h *handler) deps(w http.ResponseWriter, r *http.Request) {
	ext, err := h.lookup(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	version := chi.URLParam(r, "version")
	if err := errors.ValidateVersionName(version); err != nil {
		writeError(w, err)
		return
	}
	if _, ok := h.m.VersionIndex(version); !ok {
		writeError(w, errors.New(errors.ErrCodeVersionNotFound, "unknown version %s", version))
		return
	}
	entry, ok := h.m.EntryAt(ext, version)
	if !ok {
		writeError(w, errors.New(errors.ErrCodeNotFound, "%s is not available on %s", ext.Name, version))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *handler) graph(w http.ResponseWriter, r *http.Request) {
	dot, err := nodelink.ToDOT(h.m, chi.URLParam(r, "version"), nodelink.Options{
		Focus:        r.URL.Query().Get("focus"),
		HidePromoted: r.URL.Query().Get("hide_promoted") == "true",
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(dot))
}

func (h *handler) lookup(name string) (*emit.Extension, error) {
	if err := errors.ValidateItemName(name); err != nil {
		return nil, err
	}
	ext, ok := h.m.Extension(name)
	if !ok {
		return nil, errors.New(errors.ErrCodeItemNotFound, "unknown extension %s", name)
	}
	return ext, nil
}

type errorBody struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code"`
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	writeJSON(w, statusFor(code), errorBody{Error: errors.UserMessage(err), Code: code})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound, errors.ErrCodeItemNotFound, errors.ErrCodeVersionNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
