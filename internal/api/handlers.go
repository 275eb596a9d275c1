package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maltedev/market-search-scraper/internal/models"
)

type Handlers struct {
	search SearchFunc
	jobs   *JobManager
	logger *slog.Logger
}

func NewHandlers(search SearchFunc, jobs *JobManager) *Handlers {
	return &Handlers{
		search: search,
		jobs:   jobs,
		logger: slog.Default().With("component", "api"),
	}
}

// Router wires all endpoints with the shared middleware stack.
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/search", h.Search)
		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", h.CreateJob)
			r.Get("/", h.ListJobs)
			r.Get("/{jobID}", h.GetJob)
		})
	})

	return r
}

// SearchRequest describes one search, synchronous or as a job.
type SearchRequest struct {
	Term     string `json:"term"`
	Platform string `json:"platform"`
	MaxPages int    `json:"max_pages"`
}

// SearchResponse carries the records of a completed synchronous search.
type SearchResponse struct {
	Term    string          `json:"term"`
	Count   int             `json:"count"`
	Records []models.Record `json:"records"`
}

func (r *SearchRequest) query() (models.Query, bool) {
	if r.Term == "" {
		return models.Query{}, false
	}

	platform := models.Platform(r.Platform)
	if r.Platform == "" {
		platform = models.PlatformAmazon
	}
	switch platform {
	case models.PlatformAmazon, models.PlatformMercadoLibre:
	default:
		return models.Query{}, false
	}

	maxPages := r.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}

	return models.Query{Term: r.Term, Platform: platform, MaxPages: maxPages}, true
}

// Search runs a query inline and responds with its records.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	q, ok := req.query()
	if !ok {
		h.respondError(w, http.StatusBadRequest, "term is required and platform must be amazon or mercadolibre")
		return
	}

	records, err := h.search(r.Context(), q)
	if err != nil {
		h.logger.Error("search failed", "term", q.Term, "error", err)
		h.respondError(w, http.StatusBadGateway, "search failed")
		return
	}

	h.respondJSON(w, http.StatusOK, SearchResponse{
		Term:    q.Term,
		Count:   len(records),
		Records: records,
	})
}

// CreateJob starts an asynchronous search and responds with its handle.
func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	q, ok := req.query()
	if !ok {
		h.respondError(w, http.StatusBadRequest, "term is required and platform must be amazon or mercadolibre")
		return
	}

	job := h.jobs.Create(q)
	h.respondJSON(w, http.StatusCreated, job)
}

func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, err := h.jobs.Get(jobID)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "job not found")
		return
	}

	h.respondJSON(w, http.StatusOK, job)
}

func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.jobs.List())
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
