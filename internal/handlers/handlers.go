package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ProcureAI/internal/domain"
)

const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// ProcurementService is the request-path use case set the API exposes.
type ProcurementService interface {
	GenerateRFP(ctx context.Context, prompt string) (*domain.RFP, error)
	ListVendors(ctx context.Context) ([]domain.Vendor, error)
	CreateVendor(ctx context.Context, vendor domain.Vendor) (*domain.Vendor, error)
	ListRFPs(ctx context.Context) ([]domain.RFP, error)
	GetRFP(ctx context.Context, id int64) (*domain.RFP, error)
	SendRFP(ctx context.Context, rfpID int64, vendorIDs []int64) (domain.SendResult, error)
}

// SyncService runs one inbox sync.
type SyncService interface {
	SyncProposals(ctx context.Context) (domain.SyncResult, error)
}

// Handler serves the procurement HTTP API.
type Handler struct {
	Procurement ProcurementService
	Sync        SyncService
	Logger      *slog.Logger
	now         func() time.Time
}

// NewHandler creates a new Handler
func NewHandler(procurement ProcurementService, sync SyncService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Procurement: procurement, Sync: sync, Logger: logger, now: time.Now}
}

// Routes builds the chi router with every endpoint mounted.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/generate", h.GenerateRFPHandler)
	r.Get("/vendors", h.ListVendorsHandler)
	r.Post("/vendors", h.CreateVendorHandler)
	r.Get("/rfps", h.ListRFPsHandler)
	r.Get("/rfps/{id}", h.GetRFPHandler)
	r.Get("/rfps/{id}/view", h.ViewRFPHandler)
	r.Post("/rfps/{id}/send", h.SendRFPHandler)
	r.Post("/sync-emails", h.SyncEmailsHandler)

	return r
}

// HealthHandler reports liveness.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps use case errors onto status codes. Unknown errors
// are logged and answered with fallback.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var (
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
		conflict   *domain.ConflictError
	)
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Message)
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Entity+" not found")
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, conflict.Message)
	default:
		h.Logger.Error(fallback, "error", err, "method", r.Method, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()))
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// decodeJSON reads a size-limited JSON body into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return domain.NewValidationError("Invalid JSON format")
	}
	return nil
}

func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return domain.NewValidationError("%s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed rule '%s'", field, fe.Tag())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("Invalid ID")
	}
	return id, nil
}
