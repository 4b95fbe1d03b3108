package calib

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// Registry is an immutable collection of calibration sets, loaded once
// and passed explicitly into the pipeline. There is deliberately no
// process-wide registry: decoding stays deterministic and parallel-safe.
type Registry struct {
	sets []Set
}

// NewRegistry builds a registry from validated sets.
func NewRegistry(sets []Set) (*Registry, error) {
	for i := range sets {
		if err := sets[i].Validate(); err != nil {
			return nil, err
		}
	}
	return &Registry{sets: sets}, nil
}

// Len returns the number of sets held.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.sets)
}

// Lookup returns the calibration set for a unit at a recording time.
// A set whose validity window covers the time wins; otherwise the set
// closest in time is used. Unit ids match case-insensitively. Returns
// false when the unit has no sets at all.
func (r *Registry) Lookup(unitID string, at time.Time) (*Set, bool) {
	if r == nil {
		return nil, false
	}
	var best *Set
	var bestDist time.Duration
	for i := range r.sets {
		s := &r.sets[i]
		if !strings.EqualFold(s.UnitID, unitID) {
			continue
		}
		d := s.distance(at)
		if best == nil || d < bestDist || (d == bestDist && s.ValidFrom.Before(best.ValidFrom)) {
			best, bestDist = s, d
		}
	}
	return best, best != nil
}

// registryFile is the YAML on-disk shape of a calibration registry.
type registryFile struct {
	Sets []setFile `yaml:"sets"`
}

type setFile struct {
	UnitID     string    `yaml:"unit_id"`
	ValidFrom  time.Time `yaml:"valid_from,omitempty"`
	ValidUntil time.Time `yaml:"valid_until,omitempty"`
	Accel      coefFile  `yaml:"accel"`
	Gyro       coefFile  `yaml:"gyro"`
}

type coefFile struct {
	Scale  [][]float64 `yaml:"scale"`
	Offset []float64   `yaml:"offset"`
}

func (c coefFile) coefficients(group string) (Coefficients, error) {
	if len(c.Scale) != 3 {
		return Coefficients{}, fmt.Errorf("%s scale must have 3 rows, got %d", group, len(c.Scale))
	}
	data := make([]float64, 0, 9)
	for i, row := range c.Scale {
		if len(row) != 3 {
			return Coefficients{}, fmt.Errorf("%s scale row %d must have 3 entries, got %d", group, i, len(row))
		}
		data = append(data, row...)
	}
	if len(c.Offset) != 3 {
		return Coefficients{}, fmt.Errorf("%s offset must have 3 entries, got %d", group, len(c.Offset))
	}
	return Coefficients{
		Scale:  mat.NewDense(3, 3, data),
		Offset: append([]float64(nil), c.Offset...),
	}, nil
}

// ParseRegistry decodes a YAML calibration registry document.
func ParseRegistry(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse calibration registry: %w", err)
	}
	sets := make([]Set, 0, len(file.Sets))
	for _, sf := range file.Sets {
		accel, err := sf.Accel.coefficients("accel")
		if err != nil {
			return nil, fmt.Errorf("unit %s: %w", sf.UnitID, err)
		}
		gyro, err := sf.Gyro.coefficients("gyro")
		if err != nil {
			return nil, fmt.Errorf("unit %s: %w", sf.UnitID, err)
		}
		sets = append(sets, Set{
			UnitID:     sf.UnitID,
			ValidFrom:  sf.ValidFrom,
			ValidUntil: sf.ValidUntil,
			Accel:      accel,
			Gyro:       gyro,
		})
	}
	return NewRegistry(sets)
}

// LoadRegistry reads a YAML calibration registry from disk.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load calibration registry: %w", err)
	}
	return ParseRegistry(data)
}
