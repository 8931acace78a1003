package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/spherenn/internal/domain"
	"github.com/kailas-cloud/spherenn/internal/domain/geo"
	healthuc "github.com/kailas-cloud/spherenn/internal/usecase/health"
	refsetuc "github.com/kailas-cloud/spherenn/internal/usecase/refset"
)

const defaultMaxBodyBytes = 32 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the spherenn HTTP API.
type Server struct {
	refsets       *refsetuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	maxBodyBytes  int64
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(refsets *refsetuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		refsets:      refsets,
		health:       health,
		logger:       logger,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	s.errorHandlers = []errorHandler{
		queryErrorHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrInvalidReferenceSet, http.StatusBadRequest, ErrorCodeInvalidReferenceSet),
		sentinelHandler(domain.ErrEmptyReferenceSet, http.StatusUnprocessableEntity, ErrorCodeEmptyReferenceSet),
		sentinelHandler(domain.ErrUnknownEngine, http.StatusBadRequest, ErrorCodeUnknownEngine),
	}
	return s
}

// WithMaxBodyBytes caps request body size.
func (s *Server) WithMaxBodyBytes(n int64) *Server {
	if n > 0 {
		s.maxBodyBytes = n
	}
	return s
}

// Register mounts every route on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/distance", s.Distance)
		r.Get("/sets", s.ListSets)
		r.Route("/sets/{name}", func(r chi.Router) {
			r.Put("/", s.PutSet)
			r.Get("/", s.GetSet)
			r.Delete("/", s.DeleteSet)
			r.Get("/nearest", s.Nearest)
			r.Post("/validate", s.Validate)
		})
		r.Get("/reports/{id}", s.GetReport)
	})
}

// Distance handles POST /v1/distance.
func (s *Server) Distance(w http.ResponseWriter, r *http.Request) {
	var req DistanceRequest
	if !s.decode(w, r, &req) {
		return
	}

	d, err := s.refsets.Distance(req.A, req.B)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DistanceResponse{
		Metric:  s.refsets.Metric().String(),
		Radians: d,
		Degrees: toDegrees(d),
	})
}

// PutSet handles PUT /v1/sets/{name}.
func (s *Server) PutSet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req PutSetRequest
	if !s.decode(w, r, &req) {
		return
	}

	set, created, err := s.refsets.Put(r.Context(), name, req.Description, req.Points)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		w.Header().Set("Location", fmt.Sprintf("/v1/sets/%s", name))
	}
	writeJSON(w, status, setToResponse(set, false))
}

// GetSet handles GET /v1/sets/{name}.
func (s *Server) GetSet(w http.ResponseWriter, r *http.Request) {
	set, err := s.refsets.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, setToResponse(set, true))
}

// ListSets handles GET /v1/sets.
func (s *Server) ListSets(w http.ResponseWriter, r *http.Request) {
	items, err := s.refsets.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SetListResponse{Items: items, Total: len(items)})
}

// DeleteSet handles DELETE /v1/sets/{name}.
func (s *Server) DeleteSet(w http.ResponseWriter, r *http.Request) {
	if err := s.refsets.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Nearest handles GET /v1/sets/{name}/nearest.
func (s *Server) Nearest(w http.ResponseWriter, r *http.Request) {
	params, err := bindNearestParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	k := 1
	if params.K != nil {
		k = *params.K
	}
	mode := ""
	if params.Mode != nil {
		mode = *params.Mode
	}
	m, err := refsetuc.ParseMode(mode)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	q := geo.Coordinate{AzimuthDeg: params.Azimuth, ElevationDeg: params.Elevation}
	res, err := s.refsets.Nearest(r.Context(), chi.URLParam(r, "name"), q, k, m)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nearestToResponse(q, res))
}

// Validate handles POST /v1/sets/{name}/validate.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if !s.decodeOptional(w, r, &req) {
		return
	}

	rep, err := s.refsets.Validate(r.Context(), chi.URLParam(r, "name"), refsetuc.ValidateRequest{
		Queries:   req.Queries,
		Count:     req.Count,
		Seed:      req.Seed,
		Tolerance: req.Tolerance,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/reports/"+rep.ID)
	writeJSON(w, http.StatusOK, rep)
}

// GetReport handles GET /v1/reports/{id}.
func (s *Server) GetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.refsets.GetReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Indexes: report.Indexes,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func bindNearestParams(r *http.Request) (NearestParams, error) {
	var params NearestParams
	query := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, true, "azimuth", query, &params.Azimuth); err != nil {
		return params, fmt.Errorf("invalid format for parameter azimuth: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, true, "elevation", query, &params.Elevation); err != nil {
		return params, fmt.Errorf("invalid format for parameter elevation: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "k", query, &params.K); err != nil {
		return params, fmt.Errorf("invalid format for parameter k: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "mode", query, &params.Mode); err != nil {
		return params, fmt.Errorf("invalid format for parameter mode: %w", err)
	}
	return params, nil
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// decodeOptional accepts an empty body as the zero value.
func (s *Server) decodeOptional(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func toDegrees(rad float64) float64 { return rad / (2 * math.Pi) * 360 }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrEmptyReferenceSet,
		domain.ErrInvalidReferenceSet,
		domain.ErrUnknownEngine,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// queryErrorHandler reports which parameter was rejected.
func queryErrorHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrInvalidQuery) {
		return false
	}
	var qe *domain.QueryError
	if errors.As(err, &qe) {
		writeError(w, http.StatusBadRequest, ErrorCodeInvalidQuery, qe.Error())
		return true
	}
	writeError(w, http.StatusBadRequest, ErrorCodeInvalidQuery, domain.ErrInvalidQuery.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
