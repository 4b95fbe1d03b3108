package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "motion_session.conf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "# nothing overridden\n"))
	require.NoError(t, err)

	assert.Equal(t, "motion/samples", cfg.TopicSamples)
	assert.Equal(t, 8080, cfg.WebServerPort)
	assert.Equal(t, 115200, cfg.CaptureBaudRate)
	assert.Equal(t, 100.0, cfg.BenchSampleRateHz)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
MQTT_BROKER=tcp://broker.local:1883
TOPIC_SAMPLES=lab/motion
WEB_SERVER_PORT=9000
CAPTURE_SERIAL_PORT=/dev/ttyUSB0
BENCH_ACCEL_RANGE=2
BENCH_GYRO_RANGE=3
`))
	require.NoError(t, err)

	assert.Equal(t, "tcp://broker.local:1883", cfg.MQTTBroker)
	assert.Equal(t, "lab/motion", cfg.TopicSamples)
	assert.Equal(t, 9000, cfg.WebServerPort)
	assert.Equal(t, "/dev/ttyUSB0", cfg.CaptureSerialPort)
	assert.Equal(t, byte(2), cfg.BenchAccelRange)
	assert.Equal(t, byte(3), cfg.BenchGyroRange)
}

func TestLoadRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"unknown key":        "NOT_A_KEY=1\n",
		"missing separator":  "WEB_SERVER_PORT 8080\n",
		"non-numeric port":   "WEB_SERVER_PORT=eighty\n",
		"range out of bound": "BENCH_ACCEL_RANGE=7\n",
		"zero sample rate":   "BENCH_SAMPLE_RATE_HZ=0\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.conf"))
	assert.Error(t, err)
}

func TestInitGlobalRetriesAfterFailure(t *testing.T) {
	resetGlobal(t)

	err := InitGlobal(filepath.Join(t.TempDir(), "nope.conf"))
	require.Error(t, err)
	assert.Nil(t, Get())

	// A failed load must not latch: the next attempt with a readable
	// file has to succeed.
	good := writeConfig(t, "WEB_SERVER_PORT=9000\n")
	require.NoError(t, InitGlobal(good))
	require.NotNil(t, Get())
	assert.Equal(t, 9000, Get().WebServerPort)

	// Once loaded, later calls keep the first configuration.
	other := writeConfig(t, "WEB_SERVER_PORT=7000\n")
	require.NoError(t, InitGlobal(other))
	assert.Equal(t, 9000, Get().WebServerPort)
}

func resetGlobal(t *testing.T) {
	t.Helper()
	configMu.Lock()
	globalConfig = nil
	configMu.Unlock()
	t.Cleanup(func() {
		configMu.Lock()
		globalConfig = nil
		configMu.Unlock()
	})
}
