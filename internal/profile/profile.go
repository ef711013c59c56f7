// Package profile classifies a rider's power-duration curve against the
// classic track/road archetypes.
package profile

import (
	"github.com/hyperengineering/paceline/internal/types"
)

// Scoring durations, seconds.
const (
	durSprint    = 5
	durMinute    = 60
	durFiveMin   = 300
	durTwentyMin = 1200
)

// minWinningScore is the strict-maximum score an archetype needs to win;
// anything less means the curve doesn't differentiate and the rider is an
// all-rounder.
const minWinningScore = 4

// ruleIncrement is the fixed score contribution of each satisfied threshold
// rule.
const ruleIncrement = 2

// tieBreakOrder resolves equal top scores. The order is a fixed priority
// list kept for behavioral compatibility; there is no physiological
// argument for it.
var tieBreakOrder = []types.RiderType{
	types.RiderSprinter,
	types.RiderPursuiter,
	types.RiderClimber,
	types.RiderTTSpecialist,
}

// benchmarks is the reference W/kg per archetype at each scoring duration.
// Strengths and limiters are measured against the winning archetype's row.
var benchmarks = map[types.RiderType]map[int]float64{
	types.RiderSprinter:     {durSprint: 16.0, durMinute: 9.5, durFiveMin: 5.2, durTwentyMin: 3.8},
	types.RiderPursuiter:    {durSprint: 13.0, durMinute: 10.5, durFiveMin: 6.2, durTwentyMin: 4.4},
	types.RiderClimber:      {durSprint: 11.0, durMinute: 8.5, durFiveMin: 6.4, durTwentyMin: 5.2},
	types.RiderTTSpecialist: {durSprint: 11.5, durMinute: 8.8, durFiveMin: 6.0, durTwentyMin: 4.9},
	types.RiderAllRounder:   {durSprint: 13.0, durMinute: 9.0, durFiveMin: 5.8, durTwentyMin: 4.5},
}

var metricNames = map[int]string{
	durSprint:    "5s power",
	durMinute:    "1min power",
	durFiveMin:   "5min power",
	durTwentyMin: "20min power",
}

// Classify scores the rider's power-duration curve and weight against the
// archetypes. Returns nil when the curve has no usable points or the weight
// is unknown: a profile is never fabricated from partial data.
func Classify(curve types.PowerCurve, weightKg float64) *types.RiderProfile {
	if len(curve) == 0 || weightKg <= 0 {
		return nil
	}

	wkg := make(map[int]float64, len(curve))
	for dur, watts := range curve {
		if watts > 0 {
			wkg[dur] = float64(watts) / weightKg
		}
	}
	if len(wkg) == 0 {
		return nil
	}

	scores := score(wkg)
	winner := pickWinner(scores)

	p := &types.RiderProfile{
		Type:      winner,
		Scores:    scores,
		Strengths: []string{},
		Limiters:  []string{},
	}

	bench := benchmarks[winner]
	for _, dur := range types.StandardDurations {
		ref, ok := bench[dur]
		if !ok || ref <= 0 {
			continue
		}
		value := wkg[dur]
		switch {
		case value >= ref*1.10:
			p.Strengths = append(p.Strengths, metricNames[dur])
		case value > 0 && value < ref*0.90:
			p.Limiters = append(p.Limiters, metricNames[dur])
		}
		// Within 10% of benchmark: neither strength nor limiter.
	}

	return p
}

// score applies the threshold rules. Each satisfied rule contributes a fixed
// increment; totals are small non-negative integers, not probabilities.
func score(wkg map[int]float64) types.ArchetypeScores {
	var s types.ArchetypeScores

	sprint := wkg[durSprint]
	minute := wkg[durMinute]
	fiveMin := wkg[durFiveMin]
	twentyMin := wkg[durTwentyMin]

	// Sprinter: explosive 5s power, big sprint-to-threshold ratio.
	if sprint > 15 {
		s.Sprinter += ruleIncrement
	}
	if sprint > 18 {
		s.Sprinter += ruleIncrement
	}
	if twentyMin > 0 && sprint/twentyMin > 3.5 {
		s.Sprinter += ruleIncrement
	}

	// Pursuiter: outstanding 1-minute power backed by solid 5-minute power.
	if minute > 9.5 {
		s.Pursuiter += ruleIncrement
	}
	if minute > 11 {
		s.Pursuiter += ruleIncrement
	}
	if fiveMin > 6.2 {
		s.Pursuiter += ruleIncrement
	}

	// Climber: sustained 5- and 20-minute W/kg.
	if twentyMin > 4.9 {
		s.Climber += ruleIncrement
	}
	if twentyMin > 5.6 {
		s.Climber += ruleIncrement
	}
	if fiveMin > 6.1 {
		s.Climber += ruleIncrement
	}

	// TT specialist: strong 20-minute power with a flat curve above it,
	// judged on 20-minute and 5-second power jointly.
	if twentyMin > 4.6 {
		s.TTSpecialist += ruleIncrement
	}
	if twentyMin > 5.2 && sprint > 0 && sprint/twentyMin < 2.6 {
		s.TTSpecialist += ruleIncrement
	}
	if fiveMin > 0 && twentyMin > 0 && fiveMin/twentyMin < 1.18 {
		s.TTSpecialist += ruleIncrement
	}

	return s
}

// pickWinner returns the archetype with the strict maximum score, falling
// back to all_rounder when nothing reaches the winning threshold. Ties
// resolve by the fixed priority order.
func pickWinner(s types.ArchetypeScores) types.RiderType {
	byType := map[types.RiderType]int{
		types.RiderSprinter:     s.Sprinter,
		types.RiderPursuiter:    s.Pursuiter,
		types.RiderClimber:      s.Climber,
		types.RiderTTSpecialist: s.TTSpecialist,
	}

	best := types.RiderAllRounder
	bestScore := 0
	for _, rt := range tieBreakOrder {
		if byType[rt] > bestScore {
			best = rt
			bestScore = byType[rt]
		}
	}

	if bestScore < minWinningScore {
		return types.RiderAllRounder
	}
	return best
}
