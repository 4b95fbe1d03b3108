// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"
	"os"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/motion_session/internal/config"
	"github.com/relabs-tech/motion_session/internal/halog"
)

var (
	accelRangeG  = []uint8{2, 4, 8, 16}
	gyroRangeDPS = []uint16{250, 500, 1000, 2000}
)

// RunBenchLog records a reference log straight from an MPU9250 on the
// calibration bench and writes it as a format-v1 container. Bench
// recordings run through the same decode pipeline as device logs, which
// is what makes them usable for deriving calibration sets.
func RunBenchLog(outPath string, duration time.Duration) error {
	cfg := config.Get()
	if cfg.BenchSPIDevice == "" {
		return fmt.Errorf("BENCH_SPI_DEVICE is required")
	}

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("bench IMU: periph host init: %w", err)
	}

	cs := gpioreg.ByName(cfg.BenchCSPin)
	if cs == nil {
		return fmt.Errorf("bench IMU: CS pin %q not found", cfg.BenchCSPin)
	}

	tr, err := mpu9250.NewSpiTransport(cfg.BenchSPIDevice, cs)
	if err != nil {
		return fmt.Errorf("bench IMU: SPI transport (%s): %w", cfg.BenchSPIDevice, err)
	}

	imu, err := mpu9250.New(tr)
	if err != nil {
		return fmt.Errorf("bench IMU: device creation: %w", err)
	}
	if err := imu.Init(); err != nil {
		return fmt.Errorf("bench IMU: initialization: %w", err)
	}

	if err := imu.SetAccelRange(cfg.BenchAccelRange); err != nil {
		return fmt.Errorf("bench IMU: set accel range: %w", err)
	}
	if err := imu.SetGyroRange(cfg.BenchGyroRange); err != nil {
		return fmt.Errorf("bench IMU: set gyro range: %w", err)
	}
	log.Printf("bench IMU: ranges set to ±%dg / ±%d°/s",
		accelRangeG[cfg.BenchAccelRange], gyroRangeDPS[cfg.BenchGyroRange])

	count := int(duration.Seconds() * cfg.BenchSampleRateHz)
	if count <= 0 {
		return fmt.Errorf("recording duration %v too short for %g Hz", duration, cfg.BenchSampleRateHz)
	}

	channels := map[string][]int32{
		"acc_x": make([]int32, 0, count), "acc_y": make([]int32, 0, count), "acc_z": make([]int32, 0, count),
		"gyro_x": make([]int32, 0, count), "gyro_y": make([]int32, 0, count), "gyro_z": make([]int32, 0, count),
	}

	start := time.Now()
	interval := time.Duration(float64(time.Second) / cfg.BenchSampleRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("bench IMU: recording %d samples at %g Hz", count, cfg.BenchSampleRateHz)
	for len(channels["acc_x"]) < count {
		<-ticker.C

		ax, err := imu.GetAccelerationX()
		if err != nil {
			return fmt.Errorf("bench IMU accel X: %w", err)
		}
		ay, err := imu.GetAccelerationY()
		if err != nil {
			return fmt.Errorf("bench IMU accel Y: %w", err)
		}
		az, err := imu.GetAccelerationZ()
		if err != nil {
			return fmt.Errorf("bench IMU accel Z: %w", err)
		}
		gx, err := imu.GetRotationX()
		if err != nil {
			return fmt.Errorf("bench IMU gyro X: %w", err)
		}
		gy, err := imu.GetRotationY()
		if err != nil {
			return fmt.Errorf("bench IMU gyro Y: %w", err)
		}
		gz, err := imu.GetRotationZ()
		if err != nil {
			return fmt.Errorf("bench IMU gyro Z: %w", err)
		}

		channels["acc_x"] = append(channels["acc_x"], int32(ax))
		channels["acc_y"] = append(channels["acc_y"], int32(ay))
		channels["acc_z"] = append(channels["acc_z"], int32(az))
		channels["gyro_x"] = append(channels["gyro_x"], int32(gx))
		channels["gyro_y"] = append(channels["gyro_y"], int32(gy))
		channels["gyro_z"] = append(channels["gyro_z"], int32(gz))
	}

	header := halog.Header{
		FormatVersion:    1,
		UnitID:           cfg.BenchUnitID,
		SampleRateHz:     cfg.BenchSampleRateHz,
		SampleCount:      count,
		StartTimestampUS: uint64(start.UnixMicro()),
		EnabledChannels:  []string{"acc_x", "acc_y", "acc_z", "gyro_x", "gyro_y", "gyro_z"},
		AccRangeG:        accelRangeG[cfg.BenchAccelRange],
		GyroRangeDPS:     gyroRangeDPS[cfg.BenchGyroRange],
	}

	blob, err := halog.EncodeLog(header, channels)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, blob, 0644); err != nil {
		return fmt.Errorf("write log file %s: %w", outPath, err)
	}
	log.Printf("bench IMU: wrote %d bytes to %s", len(blob), outPath)
	return nil
}
