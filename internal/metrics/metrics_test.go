package metrics

import (
	"testing"
	"time"

	"github.com/hyperengineering/paceline/internal/types"
)

var streamStart = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

// constantStream builds a 1 Hz stream of n+1 samples (covering n seconds)
// all at the given wattage.
func constantStream(watts, seconds int) []types.PowerSample {
	samples := make([]types.PowerSample, 0, seconds+1)
	for i := 0; i <= seconds; i++ {
		w := watts
		samples = append(samples, types.PowerSample{
			Timestamp: streamStart.Add(time.Duration(i) * time.Second),
			Power:     &w,
		})
	}
	return samples
}

func TestCompute_SteadyThresholdRide(t *testing.T) {
	// One hour at exactly FTP: IF 1.00, TSS 100.
	m := Compute(constantStream(250, 3600), 250)

	if m.NormalizedPower != 250 {
		t.Errorf("NormalizedPower = %d, want 250", m.NormalizedPower)
	}
	if m.IntensityFactor != 1.00 {
		t.Errorf("IntensityFactor = %.2f, want 1.00", m.IntensityFactor)
	}
	if m.TSS != 100 {
		t.Errorf("TSS = %d, want 100", m.TSS)
	}
	if m.DurationSeconds != 3600 {
		t.Errorf("DurationSeconds = %d, want 3600", m.DurationSeconds)
	}
}

func TestCompute_VariableRideWeightsSurges(t *testing.T) {
	// Alternating 100W/400W minutes: NP must exceed the 250W simple average
	// because the 4th-power weighting penalizes variability.
	samples := make([]types.PowerSample, 0, 1200)
	for i := 0; i < 1200; i++ {
		w := 100
		if (i/60)%2 == 1 {
			w = 400
		}
		watts := w
		samples = append(samples, types.PowerSample{
			Timestamp: streamStart.Add(time.Duration(i) * time.Second),
			Power:     &watts,
		})
	}

	m := Compute(samples, 250)
	if m.NormalizedPower <= 250 {
		t.Errorf("NormalizedPower = %d, want > 250 for a surgy ride", m.NormalizedPower)
	}
}

func TestCompute_DegenerateInputs(t *testing.T) {
	tests := []struct {
		name    string
		samples []types.PowerSample
		ftp     int
	}{
		{"empty stream", nil, 250},
		{"zero ftp", constantStream(200, 600), 0},
		{"negative ftp", constantStream(200, 600), -10},
		{"single sample", constantStream(200, 0), 250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Compute(tt.samples, tt.ftp)
			if m.TSS != 0 {
				t.Errorf("TSS = %d, want 0", m.TSS)
			}
		})
	}
}

func TestCompute_NoPowerSamplesYieldsZeroNP(t *testing.T) {
	hr := 150
	samples := []types.PowerSample{
		{Timestamp: streamStart, HeartRate: &hr},
		{Timestamp: streamStart.Add(time.Hour), HeartRate: &hr},
	}

	m := Compute(samples, 250)
	if m.NormalizedPower != 0 || m.IntensityFactor != 0 || m.TSS != 0 {
		t.Errorf("got %+v, want zero-valued metrics for power-free stream", m)
	}
	if m.DurationSeconds != 3600 {
		t.Errorf("DurationSeconds = %d, want 3600 (duration survives missing power)", m.DurationSeconds)
	}
}

func TestCompute_ShortStreamFallback(t *testing.T) {
	// Fewer than 30 power samples: direct 4th-power mean, no rolling window.
	m := Compute(constantStream(300, 10), 250)
	if m.NormalizedPower != 300 {
		t.Errorf("NormalizedPower = %d, want 300", m.NormalizedPower)
	}
}

func TestCompute_GapsExcludedFromWindows(t *testing.T) {
	// A stream where every other sample has no power must produce the same
	// NP as the compacted power-only stream.
	full := constantStream(260, 120)
	gappy := make([]types.PowerSample, len(full))
	copy(gappy, full)
	for i := range gappy {
		if i%2 == 1 {
			gappy[i].Power = nil
		}
	}

	if got, want := Compute(gappy, 250).NormalizedPower, 260; got != want {
		t.Errorf("NormalizedPower = %d, want %d", got, want)
	}
}

func TestCompute_NPMonotoneInAnySample(t *testing.T) {
	base := constantStream(200, 300)
	before := Compute(base, 250).NormalizedPower

	for _, idx := range []int{0, 37, 150, 299} {
		bumped := constantStream(200, 300)
		w := 350
		bumped[idx].Power = &w
		after := Compute(bumped, 250).NormalizedPower
		if after < before {
			t.Errorf("raising sample %d dropped NP from %d to %d", idx, before, after)
		}
	}
}

func TestCompute_TSSIncreasesWithDuration(t *testing.T) {
	prev := 0
	for _, seconds := range []int{1800, 3600, 5400, 7200} {
		tss := Compute(constantStream(250, seconds), 250).TSS
		if tss <= prev {
			t.Errorf("TSS(%ds) = %d, want > %d", seconds, tss, prev)
		}
		prev = tss
	}
}

func TestBestEfforts(t *testing.T) {
	// 60s at 500W inside an otherwise steady 200W hour.
	samples := constantStream(200, 3600)
	for i := 600; i < 660; i++ {
		w := 500
		samples[i].Power = &w
	}

	curve := BestEfforts(samples, types.StandardDurations)

	if curve[5] != 500 {
		t.Errorf("curve[5] = %d, want 500", curve[5])
	}
	if curve[60] != 500 {
		t.Errorf("curve[60] = %d, want 500", curve[60])
	}
	if curve[300] <= 200 || curve[300] >= 500 {
		t.Errorf("curve[300] = %d, want between 200 and 500", curve[300])
	}
	if curve[1200] <= 200 || curve[1200] > 215 {
		t.Errorf("curve[1200] = %d, want slightly above 200", curve[1200])
	}
}

func TestBestEfforts_ShortRecordingOmitsLongDurations(t *testing.T) {
	curve := BestEfforts(constantStream(220, 100), types.StandardDurations)

	if _, ok := curve[300]; ok {
		t.Error("curve should omit 300s for a 100s recording")
	}
	if _, ok := curve[1200]; ok {
		t.Error("curve should omit 1200s for a 100s recording")
	}
	if curve[60] != 220 {
		t.Errorf("curve[60] = %d, want 220", curve[60])
	}
}

func TestBestEfforts_EmptyStream(t *testing.T) {
	curve := BestEfforts(nil, types.StandardDurations)
	if len(curve) != 0 {
		t.Errorf("curve = %v, want empty", curve)
	}
}
