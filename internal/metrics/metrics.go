// Package metrics derives standardized training-load metrics from raw
// workout power streams.
package metrics

import (
	"math"

	"github.com/hyperengineering/paceline/internal/types"
)

// rollingWindow is the Normalized Power rolling-mean width in samples,
// assuming nominal 1 Hz recording.
const rollingWindow = 30

// Compute derives NormalizedPower, IntensityFactor, and TSS from an ordered
// power stream and the FTP valid at ride time.
//
// Degenerate input never fails: missing power, zero FTP, and empty streams
// all degrade to zero-valued metrics so an incomplete recording cannot block
// the rest of the pipeline.
func Compute(samples []types.PowerSample, ftp int) types.WorkoutMetrics {
	m := types.WorkoutMetrics{
		DurationSeconds: durationSeconds(samples),
	}

	m.NormalizedPower = normalizedPower(samples)
	m.IntensityFactor = intensityFactor(m.NormalizedPower, ftp)

	if m.NormalizedPower == 0 || m.DurationSeconds == 0 || ftp <= 0 {
		return m
	}

	raw := float64(m.DurationSeconds) * float64(m.NormalizedPower) * m.IntensityFactor /
		(float64(ftp) * 3600) * 100
	m.TSS = int(math.Round(raw))
	return m
}

// durationSeconds is the elapsed time between the first and last sample.
func durationSeconds(samples []types.PowerSample) int {
	if len(samples) < 2 {
		return 0
	}
	d := samples[len(samples)-1].Timestamp.Sub(samples[0].Timestamp).Seconds()
	if d <= 0 {
		return 0
	}
	return int(math.Round(d))
}

// normalizedPower computes the 30-sample rolling 4th-power mean of the
// power-bearing samples. With fewer than 30 power samples it falls back to
// the direct 4th-power mean of whatever exists: a degraded approximation for
// short or sparse recordings, not an error.
func normalizedPower(samples []types.PowerSample) int {
	powers := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s.Power != nil {
			powers = append(powers, float64(*s.Power))
		}
	}
	if len(powers) == 0 {
		return 0
	}

	if len(powers) < rollingWindow {
		var sum float64
		for _, p := range powers {
			sum += math.Pow(p, 4)
		}
		return int(math.Round(math.Pow(sum/float64(len(powers)), 0.25)))
	}

	// Prefix sums give each rolling mean in O(1).
	prefix := make([]float64, len(powers)+1)
	for i, p := range powers {
		prefix[i+1] = prefix[i] + p
	}

	var fourthSum float64
	windows := len(powers) - rollingWindow + 1
	for i := 0; i < windows; i++ {
		mean := (prefix[i+rollingWindow] - prefix[i]) / rollingWindow
		fourthSum += math.Pow(mean, 4)
	}

	return int(math.Round(math.Pow(fourthSum/float64(windows), 0.25)))
}

// intensityFactor is NP as a fraction of FTP, rounded to two decimals.
func intensityFactor(np, ftp int) float64 {
	if np == 0 || ftp <= 0 {
		return 0
	}
	return math.Round(float64(np)/float64(ftp)*100) / 100
}
