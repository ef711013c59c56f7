package load

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hyperengineering/paceline/internal/store"
	"github.com/hyperengineering/paceline/internal/types"
)

// Store defines the persistence operations the load service needs.
// Implemented by store.SQLiteStore.
type Store interface {
	LatestDailyLoad(ctx context.Context, athleteID string) (*types.DailyLoad, error)
	AppendDailyLoad(ctx context.Context, day types.DailyLoad) error
	DailyLoadRange(ctx context.Context, athleteID string, from, to time.Time) ([]types.DailyLoad, error)
	ActivePlan(ctx context.Context, athleteID string) (*types.TrainingPlan, error)
	ListPlanDays(ctx context.Context, planID string) ([]types.PlanDay, error)
	EventsInRange(ctx context.Context, athleteID string, from, to time.Time) ([]types.Event, error)
}

// Service owns the athlete's DailyLoad history. All history extension goes
// through here so that updates for one athlete are strictly serialized;
// the recurrence is order-dependent and interleaved writers would corrupt
// it silently.
type Service struct {
	store Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a load service over the given store.
func NewService(s Store) *Service {
	return &Service{
		store: s,
		locks: make(map[string]*sync.Mutex),
	}
}

// athleteLock returns the mutex serializing history extension for one
// athlete. Concurrent extension attempts queue behind it rather than
// interleave.
func (s *Service) athleteLock(athleteID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[athleteID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[athleteID] = l
	}
	return l
}

// Extend appends exactly one day to the athlete's load history. The date
// must be the calendar day immediately following the latest persisted day
// (or any day, on cold start); anything else is rejected with
// store.ErrOutOfOrder rather than silently corrupting the recurrence.
func (s *Service) Extend(ctx context.Context, athleteID string, date time.Time, tss float64) (*types.DailyLoad, error) {
	lock := s.athleteLock(athleteID)
	lock.Lock()
	defer lock.Unlock()

	prior, err := s.latest(ctx, athleteID)
	if err != nil {
		return nil, err
	}

	date = types.Day(date)
	if prior != nil && !date.Equal(types.NextDay(prior.Date)) {
		return nil, fmt.Errorf("extend %s to %s after %s: %w",
			athleteID, date.Format(types.DateLayout), prior.Date.Format(types.DateLayout), store.ErrOutOfOrder)
	}

	day := Advance(prior, athleteID, date, tss)
	if err := s.store.AppendDailyLoad(ctx, day); err != nil {
		return nil, fmt.Errorf("append daily load: %w", err)
	}
	return &day, nil
}

// ExtendThrough advances the athlete's history day by day up to and
// including date, filling every intermediate day with zero TSS and applying
// tss on the final day. A date at or before the latest persisted day is
// rejected with store.ErrOutOfOrder.
func (s *Service) ExtendThrough(ctx context.Context, athleteID string, date time.Time, tss float64) (*types.DailyLoad, error) {
	lock := s.athleteLock(athleteID)
	lock.Lock()
	defer lock.Unlock()

	prior, err := s.latest(ctx, athleteID)
	if err != nil {
		return nil, err
	}

	date = types.Day(date)
	if prior != nil && !prior.Date.Before(date) {
		return nil, fmt.Errorf("extend %s through %s after %s: %w",
			athleteID, date.Format(types.DateLayout), prior.Date.Format(types.DateLayout), store.ErrOutOfOrder)
	}

	return s.walkTo(ctx, athleteID, prior, date, tss)
}

// CatchUp brings the athlete's history forward through the given day with
// zero-TSS rest days. A history already at or past that day is a no-op, as
// is an athlete with no history at all.
func (s *Service) CatchUp(ctx context.Context, athleteID string, through time.Time) error {
	lock := s.athleteLock(athleteID)
	lock.Lock()
	defer lock.Unlock()

	latest, err := s.latest(ctx, athleteID)
	if err != nil {
		return err
	}
	if latest == nil || !latest.Date.Before(types.Day(through)) {
		return nil
	}

	_, err = s.walkTo(ctx, athleteID, latest, types.Day(through), 0)
	return err
}

// walkTo advances one day at a time from prior's successor through date,
// zero TSS on every day except the final one. Caller holds the athlete lock.
func (s *Service) walkTo(ctx context.Context, athleteID string, prior *types.DailyLoad, date time.Time, tss float64) (*types.DailyLoad, error) {
	cursor := date
	if prior != nil {
		cursor = types.NextDay(prior.Date)
	}

	var last types.DailyLoad
	for !cursor.After(date) {
		dayTSS := 0.0
		if cursor.Equal(date) {
			dayTSS = tss
		}
		last = Advance(prior, athleteID, cursor, dayTSS)
		if err := s.store.AppendDailyLoad(ctx, last); err != nil {
			return nil, fmt.Errorf("append daily load %s: %w", cursor.Format(types.DateLayout), err)
		}
		prior = &last
		cursor = types.NextDay(cursor)
	}

	return &last, nil
}

// History returns the persisted DailyLoad series for the date range.
func (s *Service) History(ctx context.Context, athleteID string, from, to time.Time) ([]types.DailyLoad, error) {
	return s.store.DailyLoadRange(ctx, athleteID, types.Day(from), types.Day(to))
}

// ProjectForward projects the athlete's current state across horizonDays
// using the scheduled days of their active plan and any events in the
// horizon. An athlete with no active plan projects pure decay.
func (s *Service) ProjectForward(ctx context.Context, athleteID string, horizonDays int) ([]types.ProjectedFitness, error) {
	current, err := s.latest(ctx, athleteID)
	if err != nil {
		return nil, err
	}

	var planDays []types.PlanDay
	plan, err := s.store.ActivePlan(ctx, athleteID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// No active plan: project decay only.
	case err != nil:
		return nil, fmt.Errorf("load active plan: %w", err)
	default:
		planDays, err = s.store.ListPlanDays(ctx, plan.ID)
		if err != nil {
			return nil, fmt.Errorf("load plan days: %w", err)
		}
	}

	start := time.Now().UTC()
	if current != nil {
		start = current.Date
	}
	events, err := s.store.EventsInRange(ctx, athleteID, types.NextDay(start), types.Day(start).AddDate(0, 0, horizonDays))
	if err != nil {
		slog.Warn("event lookup failed, projecting without event annotations",
			"component", "load",
			"athlete_id", athleteID,
			"error", err,
		)
		events = nil
	}

	return Project(current, planDays, events, horizonDays), nil
}

// latest fetches the most recent persisted day, mapping "no history yet" to
// a nil state rather than an error.
func (s *Service) latest(ctx context.Context, athleteID string) (*types.DailyLoad, error) {
	latest, err := s.store.LatestDailyLoad(ctx, athleteID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load latest daily load: %w", err)
	}
	return latest, nil
}
