package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/hyperengineering/paceline/internal/load"
	"github.com/hyperengineering/paceline/internal/metrics"
	"github.com/hyperengineering/paceline/internal/plan"
	"github.com/hyperengineering/paceline/internal/profile"
	"github.com/hyperengineering/paceline/internal/store"
	"github.com/hyperengineering/paceline/internal/types"
	"github.com/hyperengineering/paceline/internal/validation"
)

// Handler implements the API handlers
type Handler struct {
	store   store.Store
	loads   *load.Service
	plans   *plan.Service
	apiKey  string
	version string

	// defaultHorizon is the projection length used when the request does
	// not name one.
	defaultHorizon int
}

// NewHandler creates a new Handler over the store and domain services.
func NewHandler(s store.Store, loads *load.Service, plans *plan.Service, apiKey, version string, defaultHorizon int) *Handler {
	return &Handler{
		store:          s,
		loads:          loads,
		plans:          plans,
		apiKey:         apiKey,
		version:        version,
		defaultHorizon: defaultHorizon,
	}
}

// HealthResponse is the payload of GET /health.
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	AthleteCount int    `json:"athlete_count"`
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ids, err := h.store.ListAthleteIDs(r.Context())
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:       "healthy",
		Version:      h.version,
		AthleteCount: len(ids),
	})
}

// MetricsRequest is the payload of POST /metrics. FTP resolution: an
// explicit ftp_watts wins; otherwise athlete_id plus date select the FTP
// that was valid on the ride day.
type MetricsRequest struct {
	AthleteID string              `json:"athlete_id"`
	Date      string              `json:"date"`
	FTPWatts  int                 `json:"ftp_watts"`
	Samples   []types.PowerSample `json:"samples"`
}

// MetricsResponse pairs the computed load metrics with the ride's best
// efforts over the standard durations.
type MetricsResponse struct {
	Metrics    types.WorkoutMetrics `json:"metrics"`
	PowerCurve types.PowerCurve     `json:"power_curve"`
	FTPWatts   int                  `json:"ftp_watts"`
}

// ComputeMetrics handles POST /api/v1/metrics
func (h *Handler) ComputeMetrics(w http.ResponseWriter, r *http.Request) {
	var req MetricsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	var c validation.Collector
	if req.FTPWatts != 0 {
		c.Add(validation.ValidatePositiveInt("ftp_watts", req.FTPWatts))
	} else {
		c.Add(validation.ValidateRequired("athlete_id", req.AthleteID))
		c.Add(validation.ValidateDate("date", req.Date))
	}
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", c.Errors())
		return
	}

	ftp := req.FTPWatts
	if ftp == 0 {
		day, _ := time.Parse(types.DateLayout, req.Date)
		var err error
		ftp, err = h.store.FTPOn(r.Context(), req.AthleteID, day)
		if err != nil {
			MapDomainError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, MetricsResponse{
		Metrics:    metrics.Compute(req.Samples, ftp),
		PowerCurve: metrics.StandardCurve(req.Samples),
		FTPWatts:   ftp,
	})
}

// ExtendLoadRequest is the payload of POST /athletes/{id}/load/days. With
// fill set, intervening rest days are filled with zero TSS; without it the
// date must be exactly the next day after the history head.
type ExtendLoadRequest struct {
	Date string  `json:"date"`
	TSS  float64 `json:"tss"`
	Fill bool    `json:"fill"`
}

// ExtendLoad handles POST /api/v1/athletes/{id}/load/days
func (h *Handler) ExtendLoad(w http.ResponseWriter, r *http.Request) {
	athleteID := chi.URLParam(r, "id")

	var req ExtendLoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	var c validation.Collector
	c.Add(validation.ValidateDate("date", req.Date))
	if req.TSS < 0 {
		c.Add(&validation.ValidationError{Field: "tss", Message: "must not be negative"})
	}
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", c.Errors())
		return
	}
	day, _ := time.Parse(types.DateLayout, req.Date)

	extend := h.loads.Extend
	if req.Fill {
		extend = h.loads.ExtendThrough
	}
	rec, err := extend(r.Context(), athleteID, day, req.TSS)
	if err != nil {
		slog.Error("load extension failed", "athlete_id", athleteID, "date", req.Date, "error", err)
		MapDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// LoadHistory handles GET /api/v1/athletes/{id}/load
func (h *Handler) LoadHistory(w http.ResponseWriter, r *http.Request) {
	athleteID := chi.URLParam(r, "id")

	var c validation.Collector
	c.Add(validation.ValidateDate("from", r.URL.Query().Get("from")))
	c.Add(validation.ValidateDate("to", r.URL.Query().Get("to")))
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", c.Errors())
		return
	}
	from, _ := time.Parse(types.DateLayout, r.URL.Query().Get("from"))
	to, _ := time.Parse(types.DateLayout, r.URL.Query().Get("to"))

	history, err := h.loads.History(r.Context(), athleteID, from, to)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	if history == nil {
		history = []types.DailyLoad{}
	}

	writeJSON(w, http.StatusOK, history)
}

// Projection handles GET /api/v1/athletes/{id}/projection
func (h *Handler) Projection(w http.ResponseWriter, r *http.Request) {
	athleteID := chi.URLParam(r, "id")

	horizon := h.defaultHorizon
	if raw := r.URL.Query().Get("horizon_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{
				{Field: "horizon_days", Message: "must be a positive integer"},
			})
			return
		}
		horizon = parsed
	}

	projection, err := h.loads.ProjectForward(r.Context(), athleteID, horizon)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, projection)
}

// ProfileRequest is the payload of POST /athletes/{id}/profile. The power
// curve may be supplied directly or derived from a raw sample stream.
type ProfileRequest struct {
	WeightKg   float64             `json:"weight_kg"`
	PowerCurve types.PowerCurve    `json:"power_curve"`
	Samples    []types.PowerSample `json:"samples"`
}

// Profile handles POST /api/v1/athletes/{id}/profile
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	curve := req.PowerCurve
	if len(curve) == 0 && len(req.Samples) > 0 {
		curve = metrics.StandardCurve(req.Samples)
	}

	p := profile.Classify(curve, req.WeightKg)
	if p == nil {
		WriteProblemWithErrors(w, r, "Profile cannot be classified", []validation.ValidationError{
			{Field: "power_curve", Message: "requires at least one positive best effort and a positive weight_kg"},
		})
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// SetFTPRequest is the payload of PUT /athletes/{id}/ftp.
type SetFTPRequest struct {
	EffectiveDate string `json:"effective_date"`
	Watts         int    `json:"watts"`
}

// SetFTP handles PUT /api/v1/athletes/{id}/ftp
func (h *Handler) SetFTP(w http.ResponseWriter, r *http.Request) {
	athleteID := chi.URLParam(r, "id")

	var req SetFTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	var c validation.Collector
	c.Add(validation.ValidateDate("effective_date", req.EffectiveDate))
	c.Add(validation.ValidatePositiveInt("watts", req.Watts))
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", c.Errors())
		return
	}
	effective, _ := time.Parse(types.DateLayout, req.EffectiveDate)

	if err := h.store.SetFTP(r.Context(), athleteID, effective, req.Watts); err != nil {
		MapDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateEventRequest is the payload of POST /athletes/{id}/events.
type CreateEventRequest struct {
	Date     string `json:"date"`
	Priority string `json:"priority"`
	Name     string `json:"name"`
}

// CreateEvent handles POST /api/v1/athletes/{id}/events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	athleteID := chi.URLParam(r, "id")

	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	var c validation.Collector
	c.Add(validation.ValidateDate("date", req.Date))
	c.Add(validation.ValidateEnum("priority", req.Priority, []string{"A", "B", "C"}))
	c.Add(validation.ValidateRequired("name", req.Name))
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", c.Errors())
		return
	}
	day, _ := time.Parse(types.DateLayout, req.Date)

	ev := types.Event{
		ID:        ulid.Make().String(),
		AthleteID: athleteID,
		Date:      day,
		Priority:  types.EventPriority(req.Priority),
		Name:      req.Name,
	}
	if err := h.store.CreateEvent(r.Context(), ev); err != nil {
		MapDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, ev)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
