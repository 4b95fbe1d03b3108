package calib

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const registryYAML = `
sets:
  - unit_id: HA-L-0042
    valid_from: 2025-01-01T00:00:00Z
    valid_until: 2025-06-30T00:00:00Z
    accel:
      scale: [[1.01, 0.002, 0.0], [0.0, 0.99, 0.001], [0.0, 0.0, 1.0]]
      offset: [12.5, -3.0, 0.25]
    gyro:
      scale: [[1.0, 0.0, 0.0], [0.0, 1.0, 0.0], [0.0, 0.0, 1.0]]
      offset: [0.0, 0.0, 0.0]
  - unit_id: HA-L-0042
    valid_from: 2025-07-01T00:00:00Z
    accel:
      scale: [[2.0, 0.0, 0.0], [0.0, 2.0, 0.0], [0.0, 0.0, 2.0]]
      offset: [0.0, 0.0, 0.0]
    gyro:
      scale: [[1.0, 0.0, 0.0], [0.0, 1.0, 0.0], [0.0, 0.0, 1.0]]
      offset: [0.0, 0.0, 0.0]
`

func TestParseRegistry(t *testing.T) {
	reg, err := ParseRegistry([]byte(registryYAML))
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())
}

func TestRegistryLookupCoveringWindow(t *testing.T) {
	reg, err := ParseRegistry([]byte(registryYAML))
	require.NoError(t, err)

	set, ok := reg.Lookup("HA-L-0042", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, 12.5, set.Accel.Offset[0])
	assert.Equal(t, 1.01, set.Accel.Scale.At(0, 0))
}

func TestRegistryLookupClosest(t *testing.T) {
	reg, err := ParseRegistry([]byte(registryYAML))
	require.NoError(t, err)

	// Recording just before the first window starts: the first set is
	// one day away, the second six months.
	set, ok := reg.Lookup("HA-L-0042", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, 12.5, set.Accel.Offset[0])

	// Well after the first window ends, inside the open-ended second.
	set, ok = reg.Lookup("HA-L-0042", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, 2.0, set.Accel.Scale.At(0, 0))
}

func TestRegistryLookupCaseInsensitive(t *testing.T) {
	reg, err := ParseRegistry([]byte(registryYAML))
	require.NoError(t, err)

	_, ok := reg.Lookup("ha-l-0042", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, ok)
}

func TestRegistryLookupUnknownUnit(t *testing.T) {
	reg, err := ParseRegistry([]byte(registryYAML))
	require.NoError(t, err)

	_, ok := reg.Lookup("HA-R-9999", time.Now())
	assert.False(t, ok)

	var nilReg *Registry
	_, ok = nilReg.Lookup("HA-L-0042", time.Now())
	assert.False(t, ok)
}

func TestParseRegistryRejectsBadShape(t *testing.T) {
	bad := `
sets:
  - unit_id: HA-L-0001
    accel:
      scale: [[1.0, 0.0], [0.0, 1.0]]
      offset: [0.0, 0.0, 0.0]
    gyro:
      scale: [[1.0, 0.0, 0.0], [0.0, 1.0, 0.0], [0.0, 0.0, 1.0]]
      offset: [0.0, 0.0, 0.0]
`
	_, err := ParseRegistry([]byte(bad))
	assert.Error(t, err)
}
