package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all tooling configuration values. The decoding core never
// reads this; calibration registries and marker files are passed into
// the pipeline explicitly.
type Config struct {
	// MQTT
	MQTTBroker         string
	MQTTClientIDReplay string
	MQTTClientIDViewer string

	// Topics
	TopicSamples string // prefix; one subtopic per unit id

	// Web server
	WebServerPort int

	// Capture (docked unit over serial)
	CaptureSerialPort string
	CaptureBaudRate   int

	// Bench recorder (MPU9250 over SPI)
	BenchSPIDevice    string
	BenchCSPin        string
	BenchUnitID       string
	BenchSampleRateHz float64
	// Accelerometer range index: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	BenchAccelRange byte
	// Gyroscope range index: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	BenchGyroRange byte
}

var (
	globalConfig *Config
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		MQTTClientIDReplay: "motion-session-replay",
		MQTTClientIDViewer: "motion-session-viewer",
		TopicSamples:       "motion/samples",
		WebServerPort:      8080,
		CaptureBaudRate:    115200,
		BenchUnitID:        "BENCH-0001",
		BenchSampleRateHz:  100,
	}
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_REPLAY":
		c.MQTTClientIDReplay = value
	case "MQTT_CLIENT_ID_VIEWER":
		c.MQTTClientIDViewer = value

	// Topics
	case "TOPIC_SAMPLES":
		c.TopicSamples = value

	// Web server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Capture
	case "CAPTURE_SERIAL_PORT":
		c.CaptureSerialPort = value
	case "CAPTURE_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CAPTURE_BAUD_RATE %q: %w", value, err)
		}
		c.CaptureBaudRate = rate

	// Bench recorder
	case "BENCH_SPI_DEVICE":
		c.BenchSPIDevice = value
	case "BENCH_CS_PIN":
		c.BenchCSPin = value
	case "BENCH_UNIT_ID":
		c.BenchUnitID = value
	case "BENCH_SAMPLE_RATE_HZ":
		rate, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid BENCH_SAMPLE_RATE_HZ %q: %w", value, err)
		}
		if rate <= 0 {
			return fmt.Errorf("BENCH_SAMPLE_RATE_HZ must be positive, got %v", rate)
		}
		c.BenchSampleRateHz = rate
	case "BENCH_ACCEL_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid BENCH_ACCEL_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("BENCH_ACCEL_RANGE must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", rangeVal)
		}
		c.BenchAccelRange = byte(rangeVal)
	case "BENCH_GYRO_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid BENCH_GYRO_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("BENCH_GYRO_RANGE must be 0-3 (0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s), got %d", rangeVal)
		}
		c.BenchGyroRange = byte(rangeVal)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// InitGlobal initializes the global configuration from file. Repeated
// calls after a successful load are harmless no-ops; a failed load
// leaves the global unset so the caller can retry with a fixed file.
func InitGlobal(configPath string) error {
	configMu.Lock()
	defer configMu.Unlock()
	if globalConfig != nil {
		return nil
	}
	cfg, err := Load(configPath)
	if err != nil {
		return err
	}
	globalConfig = cfg
	return nil
}

// Get returns the global configuration instance. InitGlobal must be
// called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
