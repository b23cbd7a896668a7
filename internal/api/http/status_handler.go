// internal/api/http/status_handler.go
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"single-instance/internal/domain"
	"single-instance/internal/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StatusPath is where the claim status is served.
const StatusPath = "/claim"

// StatusHandler serves the state of the process's instance claim.
type StatusHandler struct {
	status domain.StatusProvider
	logger *slog.Logger
	tracer trace.Tracer
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(status domain.StatusProvider, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		status: status,
		logger: logger.With("component", "status-handler"),
		tracer: otel.Tracer("single-instance-api"),
	}
}

// A helper struct to capture the status code
type instrumentedResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *instrumentedResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// RegisterRoutes registers the status route on mux.
func (h *StatusHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle(StatusPath, h.instrument(StatusPath, http.HandlerFunc(h.handleStatus)))
}

func (h *StatusHandler) instrument(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := h.tracer.Start(r.Context(), "HTTP "+r.Method+" "+path, trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.target", r.URL.Path),
		))
		defer span.End()

		iw := &instrumentedResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(iw, r.WithContext(ctx))

		metrics.HttpRequestsTotal.WithLabelValues(path, r.Method, strconv.Itoa(iw.statusCode)).Inc()

		span.SetAttributes(attribute.Int("http.status_code", iw.statusCode))
		if iw.statusCode >= 500 {
			span.SetStatus(codes.Error, "Server Error")
		}
	})
}

// handleStatus handles GET /claim
func (h *StatusHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	_, span := h.tracer.Start(r.Context(), "handler.GetClaimStatus")
	defer span.End()

	resp := NewStatusResponse(h.status.Status())
	span.SetAttributes(
		attribute.String("claim.name", resp.ClaimName),
		attribute.Bool("claim.single", resp.IsSingle),
	)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		span.RecordError(err)
		h.logger.Error("error encoding claim status", "error", err)
	}
}
