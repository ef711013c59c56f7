// Package load maintains the athlete's rolling fitness state (CTL/ATL/TSB)
// and projects it forward across a planning horizon.
package load

import (
	"math"
	"time"

	"github.com/hyperengineering/paceline/internal/types"
)

// Exponential decay time constants, in days. CTL tracks long-run fitness,
// ATL short-run fatigue.
const (
	CTLDecayDays = 42
	ATLDecayDays = 7
)

var (
	ctlAlpha = 1 - math.Exp(-1.0/CTLDecayDays)
	atlAlpha = 1 - math.Exp(-1.0/ATLDecayDays)
)

// Advance computes the next day's load state from the prior day's state and
// that day's total TSS. A nil prior is the athlete's cold start: fitness
// begins at zero, with the first day's TSS applied once.
//
// The recurrence is order-dependent and not associative across days. Callers
// must apply it once per calendar day, in order; skipped rest days take a
// TSS of zero and must each be advanced individually, since exponential
// decay is not linear over multiple periods.
func Advance(prior *types.DailyLoad, athleteID string, date time.Time, tss float64) types.DailyLoad {
	var ctl, atl float64
	if prior != nil {
		ctl = prior.CTL
		atl = prior.ATL
	}
	if tss < 0 {
		tss = 0
	}

	ctl += (tss - ctl) * ctlAlpha
	atl += (tss - atl) * atlAlpha

	return types.DailyLoad{
		AthleteID: athleteID,
		Date:      types.Day(date),
		CTL:       ctl,
		ATL:       atl,
		TSB:       ctl - atl,
		TSS:       tss,
	}
}

// DayTSS is one day's total training stress: the sum of TSS across every
// session recorded on that calendar date.
type DayTSS struct {
	Date time.Time
	TSS  float64
}

// Replay folds an ordered (date, tss) history into the full DailyLoad
// series from the first day through the last, advancing one calendar day at
// a time and filling gaps between entries with zero-TSS rest days.
//
// Replay is deterministic: replaying the same history always reproduces the
// same series bit for bit, which makes backfill and re-sync safe.
func Replay(athleteID string, history []DayTSS) []types.DailyLoad {
	if len(history) == 0 {
		return nil
	}

	var series []types.DailyLoad
	var prior *types.DailyLoad

	cursor := types.Day(history[0].Date)
	for _, h := range history {
		target := types.Day(h.Date)
		for cursor.Before(target) {
			rest := Advance(prior, athleteID, cursor, 0)
			series = append(series, rest)
			prior = &series[len(series)-1]
			cursor = types.NextDay(cursor)
		}
		day := Advance(prior, athleteID, target, h.TSS)
		series = append(series, day)
		prior = &series[len(series)-1]
		cursor = types.NextDay(target)
	}

	return series
}
