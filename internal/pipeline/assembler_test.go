package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/motion_session/internal/halog"
	"github.com/relabs-tech/motion_session/internal/session"
)

// encodeLog builds a complete raw log for one unit with ramp data.
func encodeLog(t *testing.T, unitID string, startUS uint64, count int) []byte {
	t.Helper()
	h := halog.Header{
		FormatVersion:    1,
		UnitID:           unitID,
		SampleRateHz:     100,
		SampleCount:      count,
		StartTimestampUS: startUS,
		EnabledChannels:  []string{"acc_x", "acc_y", "acc_z", "gyro_x", "gyro_y", "gyro_z"},
		AccRangeG:        2,
		GyroRangeDPS:     1000,
		Firmware:         "3.1.7",
	}
	channels := make(map[string][]int32, len(h.EnabledChannels))
	for c, name := range h.EnabledChannels {
		samples := make([]int32, count)
		for i := range samples {
			samples[i] = int32(c*1000 + i%100)
		}
		channels[name] = samples
	}
	blob, err := halog.EncodeLog(h, channels)
	require.NoError(t, err)
	return blob
}

func TestLoadFullLog(t *testing.T) {
	raw := encodeLog(t, "HA-L-0042", 1_700_000_000_000_000, 500)

	ds, err := Assembler{}.Load(raw)
	require.NoError(t, err)

	assert.Equal(t, "HA-L-0042", ds.UnitID)
	assert.Equal(t, 500, ds.Len())
	assert.False(t, ds.Short)
	assert.True(t, ds.Uncalibrated) // no registry configured
	assert.NotEmpty(t, ds.Warnings)

	// 100 Hz means 10 ms between consecutive samples.
	require.Len(t, ds.Timestamps, 500)
	assert.InDelta(t, 1_700_000_000.0, ds.Timestamps[0], 1e-6)
	assert.InDelta(t, 0.01, ds.Timestamps[1]-ds.Timestamps[0], 1e-9)

	// Identity fallback: values match the raw samples.
	assert.Equal(t, 0.0, ds.Channels["acc_x"][0])
	assert.Equal(t, 1001.0, ds.Channels["acc_y"][1])
}

func TestLoadTruncated(t *testing.T) {
	raw := encodeLog(t, "HA-L-0042", 0, 20)
	short := raw[:len(raw)-5*12] // drop the last five records

	t.Run("strict", func(t *testing.T) {
		_, err := Assembler{Strict: true}.Load(short)
		var truncated *halog.TruncatedLogError
		require.ErrorAs(t, err, &truncated)
		assert.Equal(t, 20, truncated.Declared)
		assert.Equal(t, 15, truncated.Complete)
	})

	t.Run("degraded", func(t *testing.T) {
		ds, err := Assembler{}.Load(short)
		require.NoError(t, err)
		assert.True(t, ds.Short)
		assert.Equal(t, 15, ds.Len())
		assert.Contains(t, ds.Warnings, "log truncated: 15 of 20 declared samples decoded")
	})
}

func TestLoadRejectsMalformedHeader(t *testing.T) {
	raw := encodeLog(t, "HA-L-0042", 0, 10)
	raw[0] = 'X' // corrupt the magic

	_, err := Assembler{}.Load(raw)
	var malformed *halog.MalformedHeaderError
	assert.ErrorAs(t, err, &malformed)
}

func TestLoadAllPreservesOrder(t *testing.T) {
	raws := [][]byte{
		encodeLog(t, "HA-L-0042", 0, 10),
		encodeLog(t, "HA-R-0042", 0, 10),
	}

	datasets, err := Assembler{}.LoadAll(raws)
	require.NoError(t, err)
	require.Len(t, datasets, 2)
	assert.Equal(t, "HA-L-0042", datasets[0].UnitID)
	assert.Equal(t, "HA-R-0042", datasets[1].UnitID)

	raws[1][0] = 'X'
	_, err = Assembler{}.LoadAll(raws)
	assert.ErrorContains(t, err, "log 1:")
}

func TestLoadAndSynchronize(t *testing.T) {
	raws := [][]byte{
		encodeLog(t, "HA-L-0042", 0, 1000),
		encodeLog(t, "HA-R-0042", 50_000, 1000),
	}

	synced, err := Assembler{}.LoadAndSynchronize(raws, session.SyncOptions{})
	require.NoError(t, err)

	assert.Equal(t, "HA-L-0042", synced.ReferenceUnit)
	require.Len(t, synced.Datasets, 2)
	assert.Equal(t, synced.Datasets[0].Len(), synced.Datasets[1].Len())
	assert.InDelta(t, 0.05, synced.Alignments["HA-R-0042"].OffsetSeconds, 1e-9)
}
