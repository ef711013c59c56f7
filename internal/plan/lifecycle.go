package plan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/hyperengineering/paceline/internal/store"
	"github.com/hyperengineering/paceline/internal/types"
	"github.com/oklog/ulid/v2"
)

// complianceCap bounds the compliance score: riding past 150% of target
// earns no extra credit.
const complianceCap = 1.5

var (
	// ErrMissingActuals is returned when a completion carries neither an
	// actual TSS nor an actual duration.
	ErrMissingActuals = errors.New("completion requires actual tss or duration")

	// ErrInvalidTransition is returned when a lifecycle transition is
	// applied to a day that is no longer scheduled.
	ErrInvalidTransition = errors.New("plan day is not in a transitionable state")
)

// Completion is the payload of a complete transition. Skip and annotate
// carry their own parameters; each transition has its own method so illegal
// combinations (completed and skipped at once) are unrepresentable.
type Completion struct {
	ActualTSS         *int
	ActualDurationMin *int
	Notes             string
}

// Store defines the persistence operations the plan service needs.
// Implemented by store.SQLiteStore.
type Store interface {
	CreatePlan(ctx context.Context, plan *types.TrainingPlan, days []types.PlanDay) error
	GetPlan(ctx context.Context, id string) (*types.TrainingPlan, error)
	ListPlans(ctx context.Context, athleteID string) ([]types.TrainingPlan, error)
	ActivePlan(ctx context.Context, athleteID string) (*types.TrainingPlan, error)
	SetPlanStatus(ctx context.Context, id string, status types.PlanStatus) error
	SetPlanProgress(ctx context.Context, id string, percent float64) error
	GetPlanDay(ctx context.Context, id string) (*types.PlanDay, error)
	ListPlanDays(ctx context.Context, planID string) ([]types.PlanDay, error)
	UpdatePlanDay(ctx context.Context, day types.PlanDay) error
	InsertPlanDay(ctx context.Context, day types.PlanDay) error
}

// Service owns TrainingPlan and PlanDay lifecycles.
type Service struct {
	store Store
}

// NewService creates a plan service over the given store.
func NewService(s Store) *Service {
	return &Service{store: s}
}

// Create generates a plan from the template and persists it as a draft.
func (s *Service) Create(ctx context.Context, templateID TemplateID, athleteID string, startDate time.Time) (*types.TrainingPlan, []types.PlanDay, error) {
	p, days, err := Generate(templateID, athleteID, startDate)
	if err != nil {
		return nil, nil, err
	}
	if err := s.store.CreatePlan(ctx, p, days); err != nil {
		return nil, nil, fmt.Errorf("persist plan: %w", err)
	}
	return p, days, nil
}

// Activate makes the plan the athlete's single active plan. It is a
// two-step saga with no cross-step atomicity: any currently active plan is
// abandoned first, then the target plan is activated. Both steps are
// idempotent, so re-running a partially completed activation is safe.
func (s *Service) Activate(ctx context.Context, athleteID, planID string) error {
	p, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return err
	}
	if p.AthleteID != athleteID {
		return store.ErrNotFound
	}

	existing, err := s.store.ActivePlan(ctx, athleteID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// Nothing to deactivate.
	case err != nil:
		return fmt.Errorf("look up active plan: %w", err)
	case existing.ID != planID:
		// Step one of the saga. A crash after this leaves no active plan;
		// re-running activation completes step two.
		if err := s.store.SetPlanStatus(ctx, existing.ID, types.PlanAbandoned); err != nil {
			return fmt.Errorf("abandon plan %s: %w", existing.ID, err)
		}
	default:
		// Already active: re-activation is a no-op.
		return nil
	}

	if err := s.store.SetPlanStatus(ctx, planID, types.PlanActive); err != nil {
		return fmt.Errorf("activate plan %s: %w", planID, err)
	}
	return nil
}

// CompleteDay marks a scheduled day completed with the athlete's actuals
// and computes its compliance score. At least one of actual TSS or actual
// duration is required.
func (s *Service) CompleteDay(ctx context.Context, dayID string, c Completion) (*types.PlanDay, error) {
	if c.ActualTSS == nil && c.ActualDurationMin == nil {
		return nil, ErrMissingActuals
	}
	if (c.ActualTSS != nil && *c.ActualTSS < 0) || (c.ActualDurationMin != nil && *c.ActualDurationMin < 0) {
		return nil, ErrMissingActuals
	}

	day, err := s.transitionable(ctx, dayID)
	if err != nil {
		return nil, err
	}

	day.State = types.DayCompleted
	day.ActualTSS = c.ActualTSS
	day.ActualDurationMin = c.ActualDurationMin
	if c.Notes != "" {
		day.Notes = c.Notes
	}
	// Compliance is only defined against a positive target; a zero or
	// absent target leaves the score unset rather than dividing by zero.
	if c.ActualTSS != nil && day.TargetTSS > 0 {
		score := math.Min(float64(*c.ActualTSS)/float64(day.TargetTSS), complianceCap)
		day.ComplianceScore = &score
	}

	if err := s.store.UpdatePlanDay(ctx, *day); err != nil {
		return nil, err
	}
	s.refreshProgress(ctx, day.PlanID)
	return day, nil
}

// SkipDay marks a scheduled day skipped. No actuals are required.
func (s *Service) SkipDay(ctx context.Context, dayID string) (*types.PlanDay, error) {
	day, err := s.transitionable(ctx, dayID)
	if err != nil {
		return nil, err
	}

	day.State = types.DaySkipped
	if err := s.store.UpdatePlanDay(ctx, *day); err != nil {
		return nil, err
	}
	s.refreshProgress(ctx, day.PlanID)
	return day, nil
}

// RescheduleDay moves a scheduled day to a new date: a fresh scheduled day
// is created at the target date carrying the same target and workout, and
// the original is marked rescheduled, excluding it from the plan's forward
// series and from progress counting.
func (s *Service) RescheduleDay(ctx context.Context, dayID string, newDate time.Time) (old, moved *types.PlanDay, err error) {
	day, err := s.transitionable(ctx, dayID)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	replacement := types.PlanDay{
		ID:         ulid.Make().String(),
		PlanID:     day.PlanID,
		Date:       types.Day(newDate),
		TargetTSS:  day.TargetTSS,
		WorkoutRef: day.WorkoutRef,
		State:      types.DayScheduled,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	day.State = types.DayRescheduled
	if err := s.store.UpdatePlanDay(ctx, *day); err != nil {
		return nil, nil, err
	}
	// Second step of a non-atomic pair. A failure here leaves the original
	// marked rescheduled with no replacement; the caller retries the insert
	// rather than rolling back the first step.
	if err := s.store.InsertPlanDay(ctx, replacement); err != nil {
		return nil, nil, fmt.Errorf("insert rescheduled day: %w", err)
	}

	s.refreshProgress(ctx, day.PlanID)
	return day, &replacement, nil
}

// AnnotateDay attaches athlete notes to a day in any state except
// rescheduled-away.
func (s *Service) AnnotateDay(ctx context.Context, dayID, notes string) (*types.PlanDay, error) {
	day, err := s.store.GetPlanDay(ctx, dayID)
	if err != nil {
		return nil, err
	}
	if day.State == types.DayRescheduled {
		return nil, ErrInvalidTransition
	}

	day.Notes = notes
	if err := s.store.UpdatePlanDay(ctx, *day); err != nil {
		return nil, err
	}
	return day, nil
}

// RecomputeProgress recalculates the plan's completion percentage and
// writes it back. Completed days count toward progress; skipped days stay
// in the denominator (progress measures plan completion, not adherence of
// attempted days); rescheduled-away days are excluded entirely.
func (s *Service) RecomputeProgress(ctx context.Context, planID string) (float64, error) {
	if _, err := s.store.GetPlan(ctx, planID); err != nil {
		return 0, err
	}
	days, err := s.store.ListPlanDays(ctx, planID)
	if err != nil {
		return 0, fmt.Errorf("list plan days: %w", err)
	}

	var completed, countable int
	for _, d := range days {
		if d.State == types.DayRescheduled {
			continue
		}
		countable++
		if d.State == types.DayCompleted {
			completed++
		}
	}

	var percent float64
	if countable > 0 {
		percent = math.Round(float64(completed)/float64(countable)*1000) / 10
	}
	if err := s.store.SetPlanProgress(ctx, planID, percent); err != nil {
		return 0, fmt.Errorf("write plan progress: %w", err)
	}
	return percent, nil
}

// transitionable loads a day and verifies it is still scheduled.
func (s *Service) transitionable(ctx context.Context, dayID string) (*types.PlanDay, error) {
	day, err := s.store.GetPlanDay(ctx, dayID)
	if err != nil {
		return nil, err
	}
	if day.State != types.DayScheduled {
		return nil, fmt.Errorf("day %s is %s: %w", dayID, day.State, ErrInvalidTransition)
	}
	return day, nil
}

// refreshProgress recomputes plan progress after a lifecycle transition.
// The transition and the recompute are not atomic: a failed recompute is
// reported but never rolls back the transition that triggered it.
func (s *Service) refreshProgress(ctx context.Context, planID string) {
	if _, err := s.RecomputeProgress(ctx, planID); err != nil {
		slog.Warn("plan progress recompute failed",
			"component", "plan",
			"plan_id", planID,
			"error", err,
		)
	}
}
