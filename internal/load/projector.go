package load

import (
	"time"

	"github.com/hyperengineering/paceline/internal/types"
)

// Project simulates the load recurrence forward from the current persisted
// state across horizonDays calendar days. Days with a scheduled plan entry
// contribute their target TSS; every other day decays at zero. Event days
// are annotated in place.
//
// The output is a live recomputation of "what-if" planned load, never
// persisted: a plan edit is reflected by the next call with no cache to
// invalidate. A nil current state projects from a cold start.
func Project(current *types.DailyLoad, planDays []types.PlanDay, events []types.Event, horizonDays int) []types.ProjectedFitness {
	if horizonDays <= 0 {
		return []types.ProjectedFitness{}
	}

	targets := make(map[time.Time]float64, len(planDays))
	for _, pd := range planDays {
		// Only days still on the schedule drive future load; completed,
		// skipped, and rescheduled-away days contribute nothing here.
		if pd.State != types.DayScheduled {
			continue
		}
		targets[types.Day(pd.Date)] += float64(pd.TargetTSS)
	}

	eventsByDay := make(map[time.Time]types.Event, len(events))
	for _, ev := range events {
		eventsByDay[types.Day(ev.Date)] = ev
	}

	start := time.Now().UTC()
	athleteID := ""
	if current != nil {
		start = current.Date
		athleteID = current.AthleteID
	}

	projection := make([]types.ProjectedFitness, 0, horizonDays)
	prior := current
	day := types.NextDay(start)

	for i := 0; i < horizonDays; i++ {
		next := Advance(prior, athleteID, day, targets[day])
		pf := types.ProjectedFitness{
			Date: day,
			CTL:  next.CTL,
			ATL:  next.ATL,
			TSB:  next.TSB,
		}
		if ev, ok := eventsByDay[day]; ok {
			pf.IsEventDay = true
			pf.EventName = ev.Name
			pf.EventPriority = ev.Priority
		}
		projection = append(projection, pf)

		prior = &next
		day = types.NextDay(day)
	}

	return projection
}
