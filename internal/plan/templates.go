// Package plan generates multi-week training plans from periodization
// templates and tracks each planned day through its lifecycle.
package plan

import (
	"math"
	"time"

	"github.com/hyperengineering/paceline/internal/types"
)

// TemplateID identifies a periodization template.
type TemplateID string

const (
	TemplateTaper3W     TemplateID = "taper-3w"
	TemplateEventPrep12W TemplateID = "event-prep-12w"
	TemplateBase4W      TemplateID = "base-4w"
	TemplateFTPBuild8W  TemplateID = "ftp-build-8w"
)

// SelectTemplate picks a periodization template from the weeks remaining
// until the target event and the athlete's current CTL. Ordered policy,
// first match wins.
func SelectTemplate(weeksUntilEvent int, currentCTL float64) TemplateID {
	switch {
	case weeksUntilEvent <= 4:
		return TemplateTaper3W
	case weeksUntilEvent >= 10:
		return TemplateEventPrep12W
	case weeksUntilEvent >= 6 && currentCTL < 50:
		return TemplateBase4W
	default:
		return TemplateFTPBuild8W
	}
}

// WeeksUntil is the ceiling of calendar days between the two dates divided
// by seven. Same-day and past events count as zero weeks.
func WeeksUntil(from, event time.Time) int {
	days := int(types.Day(event).Sub(types.Day(from)).Hours() / 24)
	if days <= 0 {
		return 0
	}
	return int(math.Ceil(float64(days) / 7))
}

// WorkoutTemplate describes the structure a plan day references: category,
// interval layout, and intensity bounds as a fraction of FTP.
type WorkoutTemplate struct {
	Ref          string  `json:"ref"`
	Category     string  `json:"category"`
	Intervals    string  `json:"intervals"`
	MinIntensity float64 `json:"min_intensity"`
	MaxIntensity float64 `json:"max_intensity"`
}

// Workouts is the catalog of workout structures plan days reference.
var Workouts = map[string]WorkoutTemplate{
	"recovery-spin":  {Ref: "recovery-spin", Category: "recovery", Intervals: "1x45min", MinIntensity: 0.40, MaxIntensity: 0.55},
	"endurance-2h":   {Ref: "endurance-2h", Category: "endurance", Intervals: "1x120min", MinIntensity: 0.60, MaxIntensity: 0.70},
	"endurance-3h":   {Ref: "endurance-3h", Category: "endurance", Intervals: "1x180min", MinIntensity: 0.60, MaxIntensity: 0.70},
	"tempo-3x15":     {Ref: "tempo-3x15", Category: "tempo", Intervals: "3x15min", MinIntensity: 0.76, MaxIntensity: 0.90},
	"sweetspot-3x12": {Ref: "sweetspot-3x12", Category: "sweetspot", Intervals: "3x12min", MinIntensity: 0.88, MaxIntensity: 0.94},
	"threshold-2x20": {Ref: "threshold-2x20", Category: "threshold", Intervals: "2x20min", MinIntensity: 0.95, MaxIntensity: 1.05},
	"vo2-5x5":        {Ref: "vo2-5x5", Category: "vo2max", Intervals: "5x5min", MinIntensity: 1.06, MaxIntensity: 1.20},
	"openers":        {Ref: "openers", Category: "openers", Intervals: "4x90s", MinIntensity: 1.00, MaxIntensity: 1.10},
}

// daySpec is one weekday slot of a template's base week. A zero TSS is a
// rest day and produces no PlanDay.
type daySpec struct {
	Ref string
	TSS int
}

// Template is a periodization template: a base training week plus a
// per-week load multiplier. Expansion is a pure function of template, start
// date, and duration, so the same inputs always yield the same plan.
type Template struct {
	ID    TemplateID
	Goal  string
	Weeks int

	// baseWeek is Monday-first; rest days have zero TSS.
	baseWeek [7]daySpec

	// weekScale scales the base week's targets per week, length Weeks.
	weekScale []float64
}

var templates = map[TemplateID]Template{
	TemplateTaper3W: {
		ID:    TemplateTaper3W,
		Goal:  "Freshen up for the target event without losing fitness",
		Weeks: 3,
		baseWeek: [7]daySpec{
			{"recovery-spin", 30},
			{"threshold-2x20", 75},
			{},
			{"sweetspot-3x12", 60},
			{},
			{"openers", 45},
			{"endurance-2h", 80},
		},
		weekScale: []float64{1.0, 0.75, 0.5},
	},
	TemplateEventPrep12W: {
		ID:    TemplateEventPrep12W,
		Goal:  "Full event preparation: base, build, and peak",
		Weeks: 12,
		baseWeek: [7]daySpec{
			{},
			{"sweetspot-3x12", 70},
			{"endurance-2h", 85},
			{"vo2-5x5", 90},
			{"recovery-spin", 30},
			{"threshold-2x20", 95},
			{"endurance-3h", 120},
		},
		weekScale: []float64{0.7, 0.8, 0.9, 0.7, 0.9, 1.0, 1.1, 0.75, 1.1, 1.0, 0.8, 0.55},
	},
	TemplateBase4W: {
		ID:    TemplateBase4W,
		Goal:  "Build aerobic base before harder training",
		Weeks: 4,
		baseWeek: [7]daySpec{
			{},
			{"endurance-2h", 75},
			{"tempo-3x15", 65},
			{},
			{"sweetspot-3x12", 60},
			{"endurance-2h", 85},
			{"endurance-3h", 110},
		},
		weekScale: []float64{0.85, 1.0, 1.1, 0.7},
	},
	TemplateFTPBuild8W: {
		ID:    TemplateFTPBuild8W,
		Goal:  "Raise sustainable threshold power",
		Weeks: 8,
		baseWeek: [7]daySpec{
			{},
			{"threshold-2x20", 90},
			{"recovery-spin", 30},
			{"vo2-5x5", 85},
			{},
			{"sweetspot-3x12", 70},
			{"endurance-3h", 115},
		},
		weekScale: []float64{0.8, 0.9, 1.0, 0.65, 0.95, 1.05, 1.1, 0.7},
	},
}

// TemplateByID looks up a template definition.
func TemplateByID(id TemplateID) (Template, bool) {
	t, ok := templates[id]
	return t, ok
}
