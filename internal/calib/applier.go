package calib

import (
	"fmt"
	"time"

	"github.com/relabs-tech/motion_session/internal/halog"
)

// Result is the calibrated output for one raw sample block. Channel
// slices have the same length as the input block.
type Result struct {
	Channels map[string][]float64

	// Uncalibrated marks that no measured calibration set was found and a
	// fallback transform was used. Raw-unit data stays usable; this is a
	// degraded state, never an error.
	Uncalibrated bool
	Warnings     []string
}

// Applier maps raw integer sensor ticks to physically scaled float64
// measurements using the coefficient sets held by a registry.
type Applier struct {
	Registry *Registry

	// UseFactory selects the fallback for units without a measured set:
	// datasheet-derived range scaling from the header instead of the
	// identity transform.
	UseFactory bool
}

// Apply transforms a raw sample block into calibrated channel data. The
// accelerometer and gyroscope groups each get their 3×3 scale and
// 3-vector offset; channels outside a calibrated group pass through as
// float64. All arithmetic is double precision.
func (a Applier) Apply(h halog.Header, block *halog.SampleBlock) Result {
	res := Result{Channels: make(map[string][]float64, len(block.Channels))}

	accel, gyro := Identity(), Identity()
	start := time.UnixMicro(int64(h.StartTimestampUS)).UTC()
	if set, ok := a.Registry.Lookup(h.UnitID, start); ok {
		accel, gyro = set.Accel, set.Gyro
	} else {
		res.Uncalibrated = true
		if a.UseFactory {
			accel, gyro = factoryCoefficients(h)
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("no calibration for unit %s, applied factory range scaling", h.UnitID))
		} else {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("no calibration for unit %s, returning raw ticks", h.UnitID))
		}
	}

	applyGroup(res.Channels, block, "acc", accel)
	applyGroup(res.Channels, block, "gyro", gyro)

	// Remaining channels (mag on v3 logs) pass through unscaled.
	for name, raw := range block.Channels {
		if _, done := res.Channels[name]; done {
			continue
		}
		out := make([]float64, len(raw))
		for i, v := range raw {
			out[i] = float64(v)
		}
		res.Channels[name] = out
	}
	return res
}

// factoryCoefficients derives per-tick scaling from the full-scale
// ranges declared in the header and the sample width of the format
// version: one tick = range / 2^(bits-1).
func factoryCoefficients(h halog.Header) (accel, gyro Coefficients) {
	layout, ok := halog.LayoutFor(h.FormatVersion)
	if !ok {
		return Identity(), Identity()
	}
	halfScale := float64(int32(1) << (layout.SampleWidth*8 - 1))
	accel = Diagonal(float64(h.AccRangeG) / halfScale)
	gyro = Diagonal(float64(h.GyroRangeDPS) / halfScale)
	return accel, gyro
}

// applyGroup runs calibrated = scale · (raw − offset) over the x/y/z
// channels of one sensor group, when the group is present.
func applyGroup(out map[string][]float64, block *halog.SampleBlock, group string, coef Coefficients) {
	x, okX := block.Channels[group+"_x"]
	y, okY := block.Channels[group+"_y"]
	z, okZ := block.Channels[group+"_z"]
	if !okX || !okY || !okZ {
		return
	}

	// Pull the matrix into locals once; the per-sample loop is hot.
	var s [3][3]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			s[r][c] = coef.Scale.At(r, c)
		}
	}
	o := coef.Offset

	n := len(x)
	cx, cy, cz := make([]float64, n), make([]float64, n), make([]float64, n)
	for i := 0; i < n; i++ {
		vx := float64(x[i]) - o[0]
		vy := float64(y[i]) - o[1]
		vz := float64(z[i]) - o[2]
		cx[i] = s[0][0]*vx + s[0][1]*vy + s[0][2]*vz
		cy[i] = s[1][0]*vx + s[1][1]*vy + s[1][2]*vz
		cz[i] = s[2][0]*vx + s[2][1]*vy + s[2][2]*vz
	}
	out[group+"_x"] = cx
	out[group+"_y"] = cy
	out[group+"_z"] = cz
}
