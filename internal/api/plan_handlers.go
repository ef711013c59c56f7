package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/paceline/internal/plan"
	"github.com/hyperengineering/paceline/internal/types"
	"github.com/hyperengineering/paceline/internal/validation"
)

// CreatePlanRequest is the payload of POST /plans. Either template_id names
// the template directly, or event_date lets the server select one from the
// weeks remaining and the athlete's current CTL.
type CreatePlanRequest struct {
	AthleteID  string `json:"athlete_id"`
	TemplateID string `json:"template_id"`
	EventDate  string `json:"event_date"`
	StartDate  string `json:"start_date"`
}

// PlanResponse pairs a plan with its days.
type PlanResponse struct {
	Plan *types.TrainingPlan `json:"plan"`
	Days []types.PlanDay     `json:"days"`
}

// CreatePlan handles POST /api/v1/plans
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	var c validation.Collector
	c.Add(validation.ValidateRequired("athlete_id", req.AthleteID))
	c.Add(validation.ValidateDate("start_date", req.StartDate))
	if req.TemplateID == "" {
		c.Add(validation.ValidateDate("event_date", req.EventDate))
	}
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", c.Errors())
		return
	}
	start, _ := time.Parse(types.DateLayout, req.StartDate)

	templateID := plan.TemplateID(req.TemplateID)
	if req.TemplateID == "" {
		eventDay, _ := time.Parse(types.DateLayout, req.EventDate)
		templateID = h.selectTemplate(r, req.AthleteID, start, eventDay)
	}
	if _, ok := plan.TemplateByID(templateID); !ok {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{
			{Field: "template_id", Message: "unknown plan template"},
		})
		return
	}

	p, days, err := h.plans.Create(r.Context(), templateID, req.AthleteID, start)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, PlanResponse{Plan: p, Days: days})
}

// selectTemplate picks a template from the weeks until the event and the
// athlete's current CTL. An athlete with no load history selects as CTL 0.
func (h *Handler) selectTemplate(r *http.Request, athleteID string, start, event time.Time) plan.TemplateID {
	var ctl float64
	if latest, err := h.store.LatestDailyLoad(r.Context(), athleteID); err == nil {
		ctl = latest.CTL
	}
	return plan.SelectTemplate(plan.WeeksUntil(start, event), ctl)
}

// GetPlan handles GET /api/v1/plans/{id}
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.store.GetPlan(r.Context(), id)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	days, err := h.store.ListPlanDays(r.Context(), id)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	if days == nil {
		days = []types.PlanDay{}
	}

	writeJSON(w, http.StatusOK, PlanResponse{Plan: p, Days: days})
}

// ListPlans handles GET /api/v1/athletes/{id}/plans
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	athleteID := chi.URLParam(r, "id")

	plans, err := h.store.ListPlans(r.Context(), athleteID)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	if plans == nil {
		plans = []types.TrainingPlan{}
	}

	writeJSON(w, http.StatusOK, plans)
}

// ActivatePlanRequest is the payload of POST /plans/{id}/activate.
type ActivatePlanRequest struct {
	AthleteID string `json:"athlete_id"`
}

// ActivatePlan handles POST /api/v1/plans/{id}/activate
func (h *Handler) ActivatePlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ActivatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if err := validation.ValidateRequired("athlete_id", req.AthleteID); err != nil {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{*err})
		return
	}

	if err := h.plans.Activate(r.Context(), req.AthleteID, id); err != nil {
		MapDomainError(w, r, err)
		return
	}

	p, err := h.store.GetPlan(r.Context(), id)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CompleteDayRequest is the payload of POST /plan-days/{id}/complete.
type CompleteDayRequest struct {
	ActualTSS         *int   `json:"actual_tss"`
	ActualDurationMin *int   `json:"actual_duration_min"`
	Notes             string `json:"notes"`
}

// CompleteDay handles POST /api/v1/plan-days/{id}/complete
func (h *Handler) CompleteDay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req CompleteDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	day, err := h.plans.CompleteDay(r.Context(), id, plan.Completion{
		ActualTSS:         req.ActualTSS,
		ActualDurationMin: req.ActualDurationMin,
		Notes:             req.Notes,
	})
	if err != nil {
		MapDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, day)
}

// SkipDay handles POST /api/v1/plan-days/{id}/skip
func (h *Handler) SkipDay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	day, err := h.plans.SkipDay(r.Context(), id)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, day)
}

// RescheduleDayRequest is the payload of POST /plan-days/{id}/reschedule.
type RescheduleDayRequest struct {
	NewDate string `json:"new_date"`
}

// RescheduleDayResponse returns both halves of a reschedule: the original
// day marked rescheduled and the replacement scheduled at the new date.
type RescheduleDayResponse struct {
	Original    *types.PlanDay `json:"original"`
	Rescheduled *types.PlanDay `json:"rescheduled"`
}

// RescheduleDay handles POST /api/v1/plan-days/{id}/reschedule
func (h *Handler) RescheduleDay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req RescheduleDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if err := validation.ValidateDate("new_date", req.NewDate); err != nil {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{*err})
		return
	}
	newDate, _ := time.Parse(types.DateLayout, req.NewDate)

	original, moved, err := h.plans.RescheduleDay(r.Context(), id, newDate)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, RescheduleDayResponse{Original: original, Rescheduled: moved})
}

// AnnotateDayRequest is the payload of POST /plan-days/{id}/annotate.
type AnnotateDayRequest struct {
	Notes string `json:"notes"`
}

// AnnotateDay handles POST /api/v1/plan-days/{id}/annotate
func (h *Handler) AnnotateDay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req AnnotateDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	day, err := h.plans.AnnotateDay(r.Context(), id, req.Notes)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, day)
}
