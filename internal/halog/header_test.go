package halog

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHeader() Header {
	return Header{
		FormatVersion:    1,
		UnitID:           "HA-L-0042",
		SampleRateHz:     100,
		SampleCount:      500,
		StartTimestampUS: 1_700_000_000_000_000,
		EnabledChannels:  []string{"acc_x", "acc_y", "acc_z", "gyro_x", "gyro_y", "gyro_z"},
		AccRangeG:        2,
		GyroRangeDPS:     1000,
		Firmware:         "3.1.7",
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	want := testHeader()
	raw, err := EncodeHeader(want)
	require.NoError(t, err)
	require.Len(t, raw, HeaderSize)

	got, err := DecodeHeader(raw)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestHeaderToleratesPadding(t *testing.T) {
	raw, err := EncodeHeader(testHeader())
	require.NoError(t, err)

	// Garbage in the reserved region must not affect decoding.
	for i := 44; i < HeaderSize; i++ {
		raw[i] = 0xAB
	}
	got, err := DecodeHeader(raw)
	require.NoError(t, err)
	assert.Equal(t, testHeader(), got)
}

func TestHeaderMagOnlyOnV3(t *testing.T) {
	h := testHeader()
	h.FormatVersion = 3
	h.EnabledChannels = append(h.EnabledChannels, "mag_x", "mag_y", "mag_z")

	raw, err := EncodeHeader(h)
	require.NoError(t, err)
	got, err := DecodeHeader(raw)
	require.NoError(t, err)
	assert.Equal(t, h.EnabledChannels, got.EnabledChannels)

	// Same mask on a v1 log is a layout violation.
	binary.LittleEndian.PutUint16(raw[4:6], 1)
	_, err = DecodeHeader(raw)
	var malformed *MalformedHeaderError
	require.ErrorAs(t, err, &malformed)
}

func TestHeaderMalformed(t *testing.T) {
	valid, err := EncodeHeader(testHeader())
	require.NoError(t, err)

	corrupt := func(f func(b []byte)) []byte {
		b := append([]byte(nil), valid...)
		f(b)
		return b
	}

	cases := []struct {
		name string
		raw  []byte
	}{
		{"too short", valid[:HeaderSize-1]},
		{"bad magic", corrupt(func(b []byte) { copy(b, "XXXX") })},
		{"unknown version", corrupt(func(b []byte) { binary.LittleEndian.PutUint16(b[4:6], 99) })},
		{"no channels", corrupt(func(b []byte) { binary.LittleEndian.PutUint16(b[6:8], 0) })},
		{"unknown mask bits", corrupt(func(b []byte) { binary.LittleEndian.PutUint16(b[6:8], 0x80) })},
		{"zero rate", corrupt(func(b []byte) { binary.LittleEndian.PutUint64(b[12:20], 0) })},
		{"nan rate", corrupt(func(b []byte) {
			binary.LittleEndian.PutUint64(b[12:20], math.Float64bits(math.NaN()))
		})},
		{"empty unit id", corrupt(func(b []byte) {
			for i := 28; i < 38; i++ {
				b[i] = 0
			}
		})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeHeader(tc.raw)
			var malformed *MalformedHeaderError
			assert.ErrorAs(t, err, &malformed)
		})
	}
}

func TestHeaderTimestamps(t *testing.T) {
	h := testHeader()
	h.StartTimestampUS = 2_000_000 // 2s on the device clock
	ts := h.Timestamps(5)
	require.Len(t, ts, 5)
	for i, want := range []float64{2.00, 2.01, 2.02, 2.03, 2.04} {
		assert.InDelta(t, want, ts[i], 1e-9)
	}
}

func TestHeaderCloneIsDeep(t *testing.T) {
	h := testHeader()
	c := h.Clone()
	c.EnabledChannels[0] = "tampered"
	assert.Equal(t, "acc_x", h.EnabledChannels[0])
}
