package session

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/motion_session/internal/halog"
)

// makeDataset builds a dataset with ramp data so sample identity is
// visible in values: channel c sample i holds base(c) + i.
func makeDataset(t *testing.T, unitID string, startUS uint64, rateHz float64, n int) *Dataset {
	t.Helper()
	h := halog.Header{
		FormatVersion:    1,
		UnitID:           unitID,
		SampleRateHz:     rateHz,
		SampleCount:      n,
		StartTimestampUS: startUS,
		EnabledChannels:  []string{"acc_x", "acc_y", "acc_z"},
		AccRangeG:        2,
		GyroRangeDPS:     1000,
	}
	channels := make(map[string][]float64, 3)
	for c, name := range h.EnabledChannels {
		samples := make([]float64, n)
		for i := range samples {
			samples[i] = float64(c*10000 + i)
		}
		channels[name] = samples
	}
	ds, err := NewDataset(h, channels, n)
	require.NoError(t, err)
	return ds
}

func TestTrimBasics(t *testing.T) {
	ds := makeDataset(t, "HA-L-0042", 0, 100, 100)

	out, err := ds.Trim(10, 20)
	require.NoError(t, err)
	assert.Equal(t, 10, out.Len())
	assert.Equal(t, 10, out.Header.SampleCount)
	assert.Equal(t, 10.0, out.Channels["acc_x"][0])
	assert.InDelta(t, 0.10, out.Timestamps[0], 1e-9)

	// Copy-on-trim: the original is untouched.
	assert.Equal(t, 100, ds.Len())
	assert.Equal(t, 0.0, ds.Channels["acc_x"][0])
}

func TestTrimEmptyRangeFails(t *testing.T) {
	ds := makeDataset(t, "HA-L-0042", 0, 100, 100)

	var rangeErr *IndexRangeError
	_, err := ds.Trim(0, 0)
	require.ErrorAs(t, err, &rangeErr)

	_, err = ds.Trim(20, 10)
	require.ErrorAs(t, err, &rangeErr)

	_, err = ds.Trim(-1, 10)
	require.ErrorAs(t, err, &rangeErr)

	_, err = ds.Trim(90, 101)
	require.ErrorAs(t, err, &rangeErr)
}

func TestTrimComposition(t *testing.T) {
	ds := makeDataset(t, "HA-L-0042", 0, 100, 100)

	direct, err := ds.Trim(25, 75)
	require.NoError(t, err)

	composed, err := direct.Trim(0, 50)
	require.NoError(t, err)

	if diff := cmp.Diff(direct, composed); diff != "" {
		t.Errorf("trim(a,b) then trim(0,b-a) differs from trim(a,b) (-want +got):\n%s", diff)
	}
}

func TestConcatAndRecoverBoundaries(t *testing.T) {
	first := makeDataset(t, "HA-L-0042", 0, 100, 60)
	// Second part starts exactly where the first ends plus one period.
	second := makeDataset(t, "HA-L-0042", 600_000, 100, 40)

	joined, err := first.Concat(second)
	require.NoError(t, err)
	assert.Equal(t, 100, joined.Len())

	backFirst, err := joined.Trim(0, 60)
	require.NoError(t, err)
	backSecond, err := joined.Trim(60, 100)
	require.NoError(t, err)

	assert.Equal(t, first.Channels, backFirst.Channels)
	assert.Equal(t, second.Channels, backSecond.Channels)
	assert.Equal(t, first.Timestamps, backFirst.Timestamps)
	assert.Equal(t, second.Timestamps, backSecond.Timestamps)
}

func TestConcatIncompatible(t *testing.T) {
	base := makeDataset(t, "HA-L-0042", 0, 100, 10)
	var incompatible *IncompatibleSessionError

	t.Run("different unit", func(t *testing.T) {
		other := makeDataset(t, "HA-R-0042", 1_000_000, 100, 10)
		_, err := base.Concat(other)
		assert.ErrorAs(t, err, &incompatible)
	})

	t.Run("different rate", func(t *testing.T) {
		other := makeDataset(t, "HA-L-0042", 1_000_000, 200, 10)
		_, err := base.Concat(other)
		assert.ErrorAs(t, err, &incompatible)
	})

	t.Run("overlapping start", func(t *testing.T) {
		other := makeDataset(t, "HA-L-0042", 50_000, 100, 10)
		_, err := base.Concat(other)
		assert.ErrorAs(t, err, &incompatible)
	})

	t.Run("different channels", func(t *testing.T) {
		other := makeDataset(t, "HA-L-0042", 1_000_000, 100, 10)
		other.Channels["gyro_x"] = make([]float64, 10)
		_, err := base.Concat(other)
		assert.ErrorAs(t, err, &incompatible)
	})

	t.Run("different header channels", func(t *testing.T) {
		// Channel storage matches, but the headers disagree about what
		// was recorded.
		other := makeDataset(t, "HA-L-0042", 1_000_000, 100, 10)
		other.Header.EnabledChannels[2] = "gyro_z"
		_, err := base.Concat(other)
		assert.ErrorAs(t, err, &incompatible)
	})
}

func TestDownsample(t *testing.T) {
	ds := makeDataset(t, "HA-L-0042", 0, 100, 10)

	out, err := ds.Downsample(2)
	require.NoError(t, err)
	assert.Equal(t, 5, out.Len())
	assert.Equal(t, 50.0, out.Header.SampleRateHz)
	// Bins average consecutive pairs of the ramp: (0+1)/2, (2+3)/2, ...
	assert.Equal(t, []float64{0.5, 2.5, 4.5, 6.5, 8.5}, out.Channels["acc_x"])
	assert.InDelta(t, 0.0, out.Timestamps[0], 1e-9)
	assert.InDelta(t, 0.02, out.Timestamps[1], 1e-9)

	_, err = ds.Downsample(0)
	assert.Error(t, err)
	_, err = ds.Downsample(11)
	assert.Error(t, err)
}
