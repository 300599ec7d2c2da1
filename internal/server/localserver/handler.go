package localserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/yndnr/authstore/internal/core/domain"
	"github.com/yndnr/authstore/internal/core/service"
	"github.com/yndnr/authstore/internal/infra/buildinfo"
	"github.com/yndnr/authstore/internal/telemetry/logger"
	"github.com/yndnr/authstore/internal/telemetry/metric"
)

// Error codes written by the agent itself. Storage errors keep their
// domain code.
const (
	codeBadRequest  = "AS-ARG-4000"
	codeNotFound    = "AS-STORE-4040"
	codeRateLimited = "AS-SYS-4290"
	codeInternal    = "AS-SYS-5000"
	codeTimeout     = "AS-SYS-5040"
)

// maxBodyBytes bounds PUT bodies.
const maxBodyBytes = 1 << 20

// ItemBody is the JSON body of GET responses and PUT requests.
type ItemBody struct {
	Value string `json:"value"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status       string   `json:"status" yaml:"status"`
	Backend      string   `json:"backend,omitempty" yaml:"backend,omitempty"`
	DisabledKeys []string `json:"disabled_keys,omitempty" yaml:"disabled_keys,omitempty"`
	Version      string   `json:"version" yaml:"version"`
	Time         string   `json:"time" yaml:"time"`
}

// statusReporter is implemented by the native pipeline.
type statusReporter interface {
	BackendName() string
	DisabledKeys() []string
}

// HandlerConfig wires a Handler.
type HandlerConfig struct {
	Storage service.Storage
	Logger  logger.Logger

	// Metrics enables /metrics and request instrumentation. Optional.
	Metrics *metric.Registry

	// RateLimit is the request budget per second. Zero disables limiting.
	RateLimit int
}

// Handler routes agent requests to the storage pipeline.
type Handler struct {
	store   service.Storage
	metrics *metric.Registry
	mux     *http.ServeMux
}

// NewHandler returns the agent handler wrapped in its middleware chain.
// Order: Recover -> RequestID -> Instrument -> RateLimit -> routes.
func NewHandler(cfg HandlerConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	h := &Handler{
		store:   cfg.Storage,
		metrics: cfg.Metrics,
		mux:     http.NewServeMux(),
	}
	h.registerRoutes()

	return Chain(h.mux,
		Recover(),
		RequestID(log.With("component", "agent")),
		Instrument(cfg.Metrics),
		RateLimit(cfg.RateLimit),
	)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /healthz", h.handleHealth)
	h.mux.HandleFunc("GET /v1/items/{key}", h.handleGet)
	h.mux.HandleFunc("PUT /v1/items/{key}", h.handleSet)
	h.mux.HandleFunc("DELETE /v1/items/{key}", h.handleRemove)
	if h.metrics != nil {
		h.mux.Handle("GET /metrics", h.metrics.Handler())
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	value, found, err := h.store.GetItem(r.Context(), key)
	if err != nil {
		h.handleStorageError(w, r, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, codeNotFound, "item not found")
		return
	}
	writeJSON(w, http.StatusOK, ItemBody{Value: value})
}

func (h *Handler) handleSet(w http.ResponseWriter, r *http.Request) {
	var body ItemBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, codeBadRequest, "request body must be a single JSON object")
		return
	}

	if err := h.store.SetItem(r.Context(), r.PathValue("key"), body.Value); err != nil {
		h.handleStorageError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	if err := h.store.RemoveItem(r.Context(), r.PathValue("key")); err != nil {
		h.handleStorageError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: buildinfo.Get().Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	if sr, ok := h.store.(statusReporter); ok {
		resp.Backend = sr.BackendName()
		resp.DisabledKeys = sr.DisabledKeys()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStorageError maps pipeline errors to HTTP responses.
func (h *Handler) handleStorageError(w http.ResponseWriter, r *http.Request, err error) {
	logger.L(r.Context()).Error("storage request failed", "item", r.PathValue("key"), "error", err)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, codeTimeout, "storage timed out")
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, codeInternal, "request canceled")
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrMissingArgument):
		writeError(w, http.StatusBadRequest, domain.GetErrorCode(err), err.Error())
	case errors.Is(err, domain.ErrCryptoUnavailable), errors.Is(err, domain.ErrStoreLocked):
		writeError(w, http.StatusServiceUnavailable, domain.GetErrorCode(err), err.Error())
	default:
		code := domain.GetErrorCode(err)
		if code == "" {
			code = codeInternal
		}
		writeError(w, http.StatusInternalServerError, code, "storage error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
