package plan

import (
	"fmt"
	"math"
	"time"

	"github.com/hyperengineering/paceline/internal/types"
	"github.com/oklog/ulid/v2"
)

// ErrUnknownTemplate is returned when a plan references a template id that
// does not exist in the catalog.
var ErrUnknownTemplate = fmt.Errorf("unknown plan template")

// Generate expands a template into a draft TrainingPlan and its PlanDays
// starting from startDate. Expansion is deterministic: identical template,
// start date, and duration always yield the same day sequence and targets
// (ids and timestamps aside). Generating a plan never touches any existing
// plan; activation is a separate, explicit operation.
func Generate(templateID TemplateID, athleteID string, startDate time.Time) (*types.TrainingPlan, []types.PlanDay, error) {
	tpl, ok := TemplateByID(templateID)
	if !ok {
		return nil, nil, fmt.Errorf("template %q: %w", templateID, ErrUnknownTemplate)
	}

	start := types.Day(startDate)
	now := time.Now().UTC()

	p := &types.TrainingPlan{
		ID:            ulid.Make().String(),
		AthleteID:     athleteID,
		Goal:          tpl.Goal,
		TemplateID:    string(tpl.ID),
		StartDate:     start,
		EndDate:       start.AddDate(0, 0, tpl.Weeks*7-1),
		DurationWeeks: tpl.Weeks,
		Status:        types.PlanDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var days []types.PlanDay
	for week := 0; week < tpl.Weeks; week++ {
		scale := tpl.weekScale[week]
		for weekday, slot := range tpl.baseWeek {
			if slot.TSS == 0 {
				continue // rest day
			}
			target := int(math.Round(float64(slot.TSS) * scale))
			days = append(days, types.PlanDay{
				ID:         ulid.Make().String(),
				PlanID:     p.ID,
				Date:       start.AddDate(0, 0, week*7+weekday),
				TargetTSS:  target,
				WorkoutRef: slot.Ref,
				State:      types.DayScheduled,
				CreatedAt:  now,
				UpdatedAt:  now,
			})
		}
	}

	return p, days, nil
}
