package metrics

import (
	"math"

	"github.com/hyperengineering/paceline/internal/types"
)

// BestEfforts extracts the power-duration curve from a workout stream: for
// each requested duration, the best average power held over that many
// consecutive power-bearing samples (nominal 1 Hz). Durations longer than
// the recording are omitted rather than extrapolated.
func BestEfforts(samples []types.PowerSample, durations []int) types.PowerCurve {
	powers := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s.Power != nil {
			powers = append(powers, float64(*s.Power))
		}
	}
	if len(powers) == 0 {
		return types.PowerCurve{}
	}

	prefix := make([]float64, len(powers)+1)
	for i, p := range powers {
		prefix[i+1] = prefix[i] + p
	}

	curve := types.PowerCurve{}
	for _, d := range durations {
		if d <= 0 || d > len(powers) {
			continue
		}
		var best float64
		for i := 0; i+d <= len(powers); i++ {
			if avg := (prefix[i+d] - prefix[i]) / float64(d); avg > best {
				best = avg
			}
		}
		curve[d] = int(math.Round(best))
	}
	return curve
}

// StandardCurve is BestEfforts over the classifier's standard durations.
func StandardCurve(samples []types.PowerSample) types.PowerCurve {
	return BestEfforts(samples, types.StandardDurations)
}
