package calib

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Coefficients hold the affine transform for one three-axis sensor
// group: calibrated = Scale · (raw − Offset). The scale matrix carries
// cross-axis terms off the diagonal.
type Coefficients struct {
	Scale  *mat.Dense // 3×3
	Offset []float64  // length 3
}

// Identity returns pass-through coefficients (scale = I, offset = 0).
func Identity() Coefficients {
	return Coefficients{
		Scale:  mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}),
		Offset: make([]float64, 3),
	}
}

// Diagonal returns coefficients that scale each axis by the same factor
// with zero offset. Used for datasheet-derived factory scaling.
func Diagonal(scale float64) Coefficients {
	return Coefficients{
		Scale:  mat.NewDense(3, 3, []float64{scale, 0, 0, 0, scale, 0, 0, 0, scale}),
		Offset: make([]float64, 3),
	}
}

func (c Coefficients) validate(group string) error {
	if c.Scale == nil || c.Offset == nil {
		return fmt.Errorf("calibration %s: missing scale or offset", group)
	}
	if r, cols := c.Scale.Dims(); r != 3 || cols != 3 {
		return fmt.Errorf("calibration %s: scale must be 3×3, got %d×%d", group, r, cols)
	}
	if len(c.Offset) != 3 {
		return fmt.Errorf("calibration %s: offset must have 3 entries, got %d", group, len(c.Offset))
	}
	return nil
}

// Set carries the measured calibration for one unit, valid for an
// optional date window. Sets are immutable once loaded.
type Set struct {
	UnitID     string
	ValidFrom  time.Time // zero = open start
	ValidUntil time.Time // zero = open end

	Accel Coefficients
	Gyro  Coefficients
}

// Validate checks the structural invariants of a loaded set.
func (s *Set) Validate() error {
	if s.UnitID == "" {
		return fmt.Errorf("calibration set without unit id")
	}
	if err := s.Accel.validate("accel"); err != nil {
		return fmt.Errorf("unit %s: %w", s.UnitID, err)
	}
	if err := s.Gyro.validate("gyro"); err != nil {
		return fmt.Errorf("unit %s: %w", s.UnitID, err)
	}
	if !s.ValidFrom.IsZero() && !s.ValidUntil.IsZero() && s.ValidUntil.Before(s.ValidFrom) {
		return fmt.Errorf("unit %s: validity window ends before it starts", s.UnitID)
	}
	return nil
}

// covers reports whether t falls inside the validity window.
func (s *Set) covers(t time.Time) bool {
	if !s.ValidFrom.IsZero() && t.Before(s.ValidFrom) {
		return false
	}
	if !s.ValidUntil.IsZero() && t.After(s.ValidUntil) {
		return false
	}
	return true
}

// distance returns how far t lies outside the validity window; zero when
// covered. Used to pick the closest set when none covers the recording.
func (s *Set) distance(t time.Time) time.Duration {
	if s.covers(t) {
		return 0
	}
	if !s.ValidFrom.IsZero() && t.Before(s.ValidFrom) {
		return s.ValidFrom.Sub(t)
	}
	return t.Sub(s.ValidUntil)
}
