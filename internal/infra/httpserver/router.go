package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appchecks "github.com/bryanwahyu/mediaverify/internal/application/checks"
	appreports "github.com/bryanwahyu/mediaverify/internal/application/reports"
	domai "github.com/bryanwahyu/mediaverify/internal/domain/ai"
	"github.com/bryanwahyu/mediaverify/internal/domain/analysis"
	domain "github.com/bryanwahyu/mediaverify/internal/domain/checks"
	"github.com/bryanwahyu/mediaverify/internal/middleware"
)

// maxUploadBytes caps the multipart body; the video pipeline applies its
// own tighter 50 MB limit afterwards.
const maxUploadBytes = 64 << 20

type Router struct {
	checksSvc  *appchecks.Service
	reportsSvc *appreports.Service
}

func NewRouter(checksSvc *appchecks.Service, reportsSvc *appreports.Service) http.Handler {
	r := &Router{checksSvc: checksSvc, reportsSvc: reportsSvc}
	mux := chi.NewRouter()

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.Route("/v1/{tenant}", func(rt chi.Router) {
		rt.Use(validateTenant)
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Get("/checks/latest", r.wrap(r.handleLatest))
		rt.Get("/checks/{id}", r.wrap(r.handleGet))
		rt.Get("/checks/{id}/failures", r.wrap(r.handleListFailures))
		rt.Get("/checks", r.wrap(r.handlePaginate))
		rt.Get("/summary", r.wrap(r.handleSummary))
		rt.Post("/reports/generate", r.wrap(r.handleGenerateReport))
		rt.Get("/reports", r.wrap(r.handleListReports))
	})

	return mux
}

// validateTenant rejects malformed tenant path segments before any handler
// or repository sees them.
func validateTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if err := middleware.ValidateTenantID(chi.URLParam(req, "tenant")); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, req)
	})
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps the typed domain errors onto HTTP statuses; these are the
// seams the presentation layer switches on.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		switch {
		case errors.Is(err, sql.ErrNoRows):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrQuotaExceeded):
			http.Error(w, "daily check quota exceeded", http.StatusTooManyRequests)
		case errors.Is(err, domai.ErrQuotaExceeded):
			http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
		case errors.Is(err, analysis.ErrUnsupportedMedia):
			http.Error(w, "unsupported media type", http.StatusUnsupportedMediaType)
		default:
			var tooLarge *analysis.FileTooLargeError
			var tooLong *analysis.VideoTooLongError
			var external *analysis.ExternalServiceError
			switch {
			case errors.As(err, &tooLarge):
				http.Error(w, tooLarge.Error(), http.StatusRequestEntityTooLarge)
			case errors.As(err, &tooLong):
				http.Error(w, tooLong.Error(), http.StatusUnprocessableEntity)
			case errors.As(err, &external):
				http.Error(w, fmt.Sprintf("service %s unavailable: %s", external.Service, external.Reason), http.StatusServiceUnavailable)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

// POST /v1/{tenant}/analyze
// Multipart form: file (optional), text_content, user_id, username, first_name.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")

	req.Body = http.MaxBytesReader(w, req.Body, maxUploadBytes)
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		return &analysis.FileTooLargeError{SizeBytes: req.ContentLength, MaxBytes: maxUploadBytes}
	}

	userID, err := strconv.ParseInt(req.FormValue("user_id"), 10, 64)
	if err != nil {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return nil
	}

	cmd := appchecks.RunCheckCommand{
		TenantID:    tenant,
		UserID:      userID,
		Username:    req.FormValue("username"),
		FirstName:   req.FormValue("first_name"),
		TextContent: req.FormValue("text_content"),
	}

	if file, header, err := req.FormFile("file"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return err
		}
		cmd.Data = data
		cmd.Filename = header.Filename
		cmd.ContentType = header.Header.Get("Content-Type")
	}

	check, err := r.checksSvc.RunCheck(req.Context(), cmd)
	if err != nil {
		return err
	}

	middleware.IncrementChecks()
	middleware.RecordVerdict(string(check.Verdict))

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(check)
}

// GET /v1/{tenant}/checks/latest?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	limit = middleware.ValidateLimit(limit)

	list, err := r.checksSvc.Latest(req.Context(), tenant, limit)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{tenant}/checks/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateCheckID(id); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}

	check, err := r.checksSvc.Get(req.Context(), tenant, domain.CheckID(id))
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(check)
}

// GET /v1/{tenant}/checks/{id}/failures?limit=20
func (r *Router) handleListFailures(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateCheckID(id); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	limit = middleware.ValidateLimit(limit)

	list, err := r.checksSvc.ListFailures(req.Context(), tenant, id, limit)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{tenant}/checks?page=&page_size=&media_type=&verdict=
func (r *Router) handlePaginate(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	filters := map[string]interface{}{}
	if v := req.URL.Query().Get("media_type"); v != "" {
		filters["media_type"] = v
	}
	if v := req.URL.Query().Get("verdict"); v != "" {
		filters["verdict"] = v
	}

	result, err := r.checksSvc.Paginate(req.Context(), tenant, page, size, filters)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(result)
}

// GET /v1/{tenant}/summary?days=7
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))
	days = middleware.ValidateDays(days)

	summary, err := r.checksSvc.Summary(req.Context(), tenant, days)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(summary)
}

// POST /v1/{tenant}/reports/generate
// Body: {"check_id": "<id>"}
func (r *Router) handleGenerateReport(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	var body struct {
		CheckID string `json:"check_id"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	if err := middleware.ValidateCheckID(body.CheckID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}

	report, err := r.reportsSvc.GenerateAndStore(req.Context(), tenant, domain.CheckID(body.CheckID))
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(report)
}

// GET /v1/{tenant}/reports?page=&page_size=
func (r *Router) handleListReports(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.reportsSvc.List(req.Context(), tenant, page, size)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}
