package store

import (
	"context"
	"time"

	"github.com/hyperengineering/paceline/internal/types"
)

// Store defines the persistence contract consumed by the engine. The engine
// never talks to a network or file system directly; everything goes through
// here.
type Store interface {
	// Daily load history, append-only, keyed (athlete, calendar day).
	LatestDailyLoad(ctx context.Context, athleteID string) (*types.DailyLoad, error)
	AppendDailyLoad(ctx context.Context, day types.DailyLoad) error
	DailyLoadRange(ctx context.Context, athleteID string, from, to time.Time) ([]types.DailyLoad, error)
	ListAthleteIDs(ctx context.Context) ([]string, error)

	// FTP history. Metrics depend on the FTP valid at ride time, looked up
	// by date, never on a "current FTP" ambient value.
	SetFTP(ctx context.Context, athleteID string, effective time.Time, watts int) error
	FTPOn(ctx context.Context, athleteID string, date time.Time) (int, error)

	// Training plans and plan days.
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

	// Events, read-mostly.
	CreateEvent(ctx context.Context, ev types.Event) error
	EventsInRange(ctx context.Context, athleteID string, from, to time.Time) ([]types.Event, error)

	Close() error
}
