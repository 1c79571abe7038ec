package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/poyrazK/cloudKeys/internal/core/domain"
	"github.com/poyrazK/cloudKeys/internal/core/ports"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// APIHandler handles HTTP requests for API key management.
type APIHandler struct {
	svc    ports.KeyService
	logger *slog.Logger
}

// NewAPIHandler creates and returns a new APIHandler instance.
func NewAPIHandler(svc ports.KeyService, logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandler{svc: svc, logger: logger}
}

type createKeyRequest struct {
	Name string `json:"name"`
}

type lookupRequest struct {
	Secret string `json:"secret"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// RegisterRoutes mounts the public health endpoints and the tenant-scoped key routes.
func (h *APIHandler) RegisterRoutes(r chi.Router, identity ports.IdentityProvider) {
	// Public Routes
	r.Get("/healthz", h.Liveness)
	r.Get("/health", h.HealthCheck)
	r.Get("/metrics", h.Metrics)

	// Protected Routes (scoped by the tenant resolved from the request)
	r.Group(func(r chi.Router) {
		r.Use(IdentityMiddleware(identity, h.logger))

		r.Post("/keys", h.CreateKey)
		r.Get("/keys", h.ListKeys)
		r.Delete("/keys/{id}", h.DeleteKey)
		r.Post("/keys/{id}", h.RegenerateKey)
		r.Post("/lookup", h.LookupKey)
	})
}

// Metrics handles Prometheus metrics scraping requests.
func (h *APIHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// Liveness reports that the process is serving without touching storage.
func (h *APIHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
}

// HealthCheck handles readiness requests.
func (h *APIHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "UP"
	details := make(map[string]string)
	checks := h.svc.HealthCheck(r.Context())

	for name, checkErr := range checks {
		if checkErr != nil {
			status = "DEGRADED"
			details[name] = checkErr.Error()
		} else {
			details[name] = "OK"
		}
	}

	code := http.StatusOK
	if status == "DEGRADED" {
		code = http.StatusServiceUnavailable
	}
	h.writeJSON(w, code, map[string]interface{}{
		"status":  status,
		"details": details,
	})
}

func (h *APIHandler) CreateKey(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := domain.ValidateKeyName(req.Name); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid key name: "+err.Error())
		return
	}

	key, err := h.svc.CreateKey(r.Context(), TenantFromContext(r.Context()), req.Name)
	if err != nil {
		h.handleServiceError(w, r, "CreateKey", err)
		return
	}
	h.writeJSON(w, http.StatusOK, key)
}

func (h *APIHandler) ListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.svc.ListKeys(r.Context(), TenantFromContext(r.Context()))
	if err != nil {
		h.handleServiceError(w, r, "ListKeys", err)
		return
	}
	h.writeJSON(w, http.StatusOK, keys)
}

func (h *APIHandler) DeleteKey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := domain.ValidateKeyID(id); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid key id")
		return
	}

	if err := h.svc.DeleteKey(r.Context(), TenantFromContext(r.Context()), id); err != nil {
		h.handleServiceError(w, r, "DeleteKey", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) RegenerateKey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := domain.ValidateKeyID(id); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid key id")
		return
	}

	key, err := h.svc.RegenerateKey(r.Context(), TenantFromContext(r.Context()), id)
	if err != nil {
		h.handleServiceError(w, r, "RegenerateKey", err)
		return
	}
	h.writeJSON(w, http.StatusOK, key)
}

func (h *APIHandler) LookupKey(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Secret == "" {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.svc.LookupKey(r.Context(), TenantFromContext(r.Context()), req.Secret)
	if err != nil {
		h.handleServiceError(w, r, "LookupKey", err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// handleServiceError maps lifecycle errors to status codes. Internal detail
// goes to the log only.
func (h *APIHandler) handleServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, domain.ErrNotFound.Error())
		return
	}

	h.logger.ErrorContext(r.Context(), "key operation failed",
		slog.String("op", op),
		slog.String("tenant_id", TenantFromContext(r.Context())),
		slog.String("error", err.Error()),
	)
	AddError(r.Context(), err)
	h.writeError(w, http.StatusInternalServerError, "internal server error")
}

func (h *APIHandler) writeError(w http.ResponseWriter, code int, msg string) {
	h.writeJSON(w, code, errorResponse{Error: msg})
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}
