package types

import (
	"encoding/json"
	"time"
)

// DateLayout is the canonical calendar-day encoding used throughout the
// engine and the store. Load history, plan days, and events are keyed by
// calendar day, never by instant.
const DateLayout = "2006-01-02"

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NextDay returns the calendar day immediately following d.
func NextDay(d time.Time) time.Time {
	return Day(d).AddDate(0, 0, 1)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// PowerSample is a single point of a recorded workout stream, nominally one
// per second. Power may be absent (recording gaps); the timestamp never is.
type PowerSample struct {
	Timestamp time.Time `json:"timestamp"`
	Power     *int      `json:"power_watts,omitempty"`
	HeartRate *int      `json:"heart_rate,omitempty"`
	Cadence   *int      `json:"cadence,omitempty"`
	Speed     *float64  `json:"speed,omitempty"`
}

// WorkoutMetrics holds the standardized load metrics derived from one
// workout stream. Derived data: recomputed whenever the stream or the
// FTP-at-ride-time changes, never hand-edited.
type WorkoutMetrics struct {
	NormalizedPower int     `json:"normalized_power"`
	IntensityFactor float64 `json:"intensity_factor"`
	TSS             int     `json:"tss"`
	DurationSeconds int     `json:"duration_seconds"`
}

// PowerCurve maps a duration in seconds to the best average power (watts)
// held for that duration.
type PowerCurve map[int]int

// StandardDurations are the power-curve durations the profile classifier
// requires, in seconds: 5s, 1min, 5min, 20min.
var StandardDurations = []int{5, 60, 300, 1200}

// DailyLoad is one day of the athlete's rolling fitness state. Append-only:
// a day's record depends only on the prior day's record and that day's TSS.
type DailyLoad struct {
	AthleteID string    `json:"athlete_id"`
	Date      time.Time `json:"date"`
	CTL       float64   `json:"ctl"`
	ATL       float64   `json:"atl"`
	TSB       float64   `json:"tsb"`
	TSS       float64   `json:"contributing_tss"`
}

// EventPriority ranks how much an event matters to the athlete.
type EventPriority string

const (
	PriorityA EventPriority = "A"
	PriorityB EventPriority = "B"
	PriorityC EventPriority = "C"
)

// Event is an external race or goal date. The projector and the template
// selector only read events; nothing in this engine mutates them.
type Event struct {
	ID        string        `json:"id"`
	AthleteID string        `json:"athlete_id"`
	Date      time.Time     `json:"date"`
	Priority  EventPriority `json:"priority"`
	Name      string        `json:"name"`
}

// PlanStatus is the lifecycle state of a TrainingPlan.
type PlanStatus string

const (
	PlanDraft     PlanStatus = "draft"
	PlanActive    PlanStatus = "active"
	PlanAbandoned PlanStatus = "abandoned"
	PlanCompleted PlanStatus = "completed"
)

// TrainingPlan is a generated multi-week plan. At most one plan per athlete
// is active at a time; activation abandons any previously active plan.
type TrainingPlan struct {
	ID              string     `json:"id"`
	AthleteID       string     `json:"athlete_id"`
	Goal            string     `json:"goal"`
	TemplateID      string     `json:"template_id"`
	StartDate       time.Time  `json:"start_date"`
	EndDate         time.Time  `json:"end_date"`
	DurationWeeks   int        `json:"duration_weeks"`
	Status          PlanStatus `json:"status"`
	ProgressPercent float64    `json:"progress_percent"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// DayState is the lifecycle state of a single planned training day.
//
// scheduled is the only non-terminal state. rescheduled days are excluded
// from the plan's forward series and progress counting; the replacement day
// starts over as scheduled.
type DayState string

const (
	DayScheduled   DayState = "scheduled"
	DayCompleted   DayState = "completed"
	DaySkipped     DayState = "skipped"
	DayRescheduled DayState = "rescheduled"
)

// PlanDay is one planned training day. Created at plan-generation time and
// mutated only through lifecycle transitions.
type PlanDay struct {
	ID                string    `json:"id"`
	PlanID            string    `json:"plan_id"`
	Date              time.Time `json:"date"`
	TargetTSS         int       `json:"target_tss"`
	WorkoutRef        string    `json:"workout_template_ref"`
	State             DayState  `json:"state"`
	ActualTSS         *int      `json:"actual_tss,omitempty"`
	ActualDurationMin *int      `json:"actual_duration_minutes,omitempty"`
	Notes             string    `json:"athlete_notes,omitempty"`
	ComplianceScore   *float64  `json:"compliance_score,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ProjectedFitness is one simulated day of the forward projection. Pure
// function output; recomputed on demand, never persisted.
type ProjectedFitness struct {
	Date          time.Time     `json:"date"`
	CTL           float64       `json:"projected_ctl"`
	ATL           float64       `json:"projected_atl"`
	TSB           float64       `json:"projected_tsb"`
	IsEventDay    bool          `json:"is_event_day"`
	EventName     string        `json:"event_name,omitempty"`
	EventPriority EventPriority `json:"event_priority,omitempty"`
}

// RiderType is a power-profile archetype.
type RiderType string

const (
	RiderSprinter     RiderType = "sprinter"
	RiderPursuiter    RiderType = "pursuiter"
	RiderClimber      RiderType = "climber"
	RiderTTSpecialist RiderType = "tt_specialist"
	RiderAllRounder   RiderType = "all_rounder"
)

// ArchetypeScores holds the raw threshold-rule scores per archetype. Small
// non-negative integers, not normalized probabilities.
type ArchetypeScores struct {
	Sprinter     int `json:"sprinter"`
	Pursuiter    int `json:"pursuiter"`
	Climber      int `json:"climber"`
	TTSpecialist int `json:"tt_specialist"`
}

// RiderProfile classifies a rider from their power-duration curve and
// weight. Derived data, not a source of truth.
type RiderProfile struct {
	Type      RiderType       `json:"type"`
	Strengths []string        `json:"strengths"`
	Limiters  []string        `json:"limiters"`
	Scores    ArchetypeScores `json:"scores"`
}

// MarshalJSON ensures nil slices in RiderProfile marshal as [] not null.
func (p RiderProfile) MarshalJSON() ([]byte, error) {
	if p.Strengths == nil {
		p.Strengths = []string{}
	}
	if p.Limiters == nil {
		p.Limiters = []string{}
	}
	type Alias RiderProfile
	return json.Marshal(Alias(p))
}
