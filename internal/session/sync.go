package session

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Marker pairs one observation of the shared synchronization clock with
// the device clock of a unit: a dock pulse seen at DeviceTime on the
// unit while the shared clock read SharedTime. Two or more markers per
// unit allow a linear drift correction.
type Marker struct {
	DeviceTime float64 // seconds, unit's own clock
	SharedTime float64 // seconds, shared sync clock
}

// Alignment reports the correction actually applied to one unit during
// synchronization, for audit and debugging.
type Alignment struct {
	UnitID        string
	OffsetSeconds float64 // start offset relative to the reference unit
	OffsetSamples float64 // same offset in reference sample periods
	DriftFactor   float64 // clock-rate correction slope; 1 when skipped
	MarkersUsed   int
}

// SyncOptions configure multi-unit synchronization.
type SyncOptions struct {
	// MasterUnitID designates the reference unit explicitly. Empty means
	// the unit with the earliest start timestamp.
	MasterUnitID string

	// Markers supply per-unit drift observations, keyed by unit id.
	// Units without at least two markers get no drift correction.
	Markers map[string][]Marker
}

// SyncedSession is a collection of datasets, one per unit, aligned onto
// a single canonical timestamp axis. All members have identical sample
// counts and cover the same real-time window to within a sample period.
type SyncedSession struct {
	ReferenceUnit string
	Datasets      []*Dataset
	Timestamps    []float64 // the reference unit's post-trim axis
	Alignments    map[string]Alignment
	Warnings      []string
}

// DatasetByUnit returns the aligned dataset recorded by a unit.
func (s *SyncedSession) DatasetByUnit(unitID string) (*Dataset, bool) {
	for _, d := range s.Datasets {
		if d.UnitID == unitID {
			return d, true
		}
	}
	return nil, false
}

// DatasetByPosition returns the aligned dataset recorded at a wear
// position, "ha_left" or "ha_right". The position is carried in the
// unit id: fleet serials follow HA-<side>-<number> with side L or R.
func (s *SyncedSession) DatasetByPosition(position string) (*Dataset, bool) {
	for _, d := range s.Datasets {
		if positionOf(d.UnitID) == position {
			return d, true
		}
	}
	return nil, false
}

// positionOf maps a unit id onto its wear position, or "" when the id
// does not follow the HA-<side>-<number> scheme.
func positionOf(unitID string) string {
	parts := strings.SplitN(unitID, "-", 3)
	if len(parts) < 3 {
		return ""
	}
	switch strings.ToUpper(parts[1]) {
	case "L":
		return "ha_left"
	case "R":
		return "ha_right"
	}
	return ""
}

// Synchronize aligns datasets recorded concurrently by different units
// onto a common time axis, compensating start offsets and, when markers
// are available, linear clock drift. Inputs are only read; the returned
// session holds new datasets. The result is deterministic for identical
// inputs, and samples are only ever trimmed, never fabricated.
func Synchronize(datasets []*Dataset, opts SyncOptions) (*SyncedSession, error) {
	if len(datasets) == 0 {
		return nil, &IncompatibleSessionError{Reason: "no datasets to synchronize"}
	}
	for _, d := range datasets {
		if d.Len() == 0 {
			return nil, &IncompatibleSessionError{Reason: fmt.Sprintf("unit %s has no samples", d.UnitID)}
		}
	}
	seen := make(map[string]bool, len(datasets))
	for _, d := range datasets {
		if seen[d.UnitID] {
			return nil, &IncompatibleSessionError{Reason: fmt.Sprintf("unit %s appears twice", d.UnitID)}
		}
		seen[d.UnitID] = true
	}

	var warnings []string
	if len(datasets) == 1 {
		warnings = append(warnings, "single dataset in session, alignment not necessary")
	}

	// Drift correction: remap each unit's time axis onto the shared sync
	// clock via least squares over its markers. Units without enough
	// markers keep their device axis; only the coarse start offset then
	// separates them from the others (documented degraded mode).
	remapped := make([]*Dataset, len(datasets))
	drift := make(map[string]float64, len(datasets))
	markersUsed := make(map[string]int, len(datasets))
	for i, d := range datasets {
		markers := opts.Markers[d.UnitID]
		if len(markers) < 2 {
			remapped[i] = d
			drift[d.UnitID] = 1
			markersUsed[d.UnitID] = 0
			if len(opts.Markers) > 0 {
				warnings = append(warnings,
					fmt.Sprintf("unit %s: %d sync markers, drift correction skipped", d.UnitID, len(markers)))
			}
			continue
		}

		device := make([]float64, len(markers))
		shared := make([]float64, len(markers))
		for j, m := range markers {
			device[j] = m.DeviceTime
			shared[j] = m.SharedTime
		}
		alpha, beta := stat.LinearRegression(device, shared, nil, false)

		ts := make([]float64, d.Len())
		for j, t := range d.Timestamps {
			ts[j] = alpha + beta*t
		}
		remapped[i] = d.withTimestamps(ts)
		drift[d.UnitID] = beta
		markersUsed[d.UnitID] = len(markers)
	}
	if len(opts.Markers) == 0 && len(datasets) > 1 {
		warnings = append(warnings, "no sync markers supplied, coarse start offsets only")
	}

	ref, err := pickReference(remapped, opts.MasterUnitID)
	if err != nil {
		return nil, err
	}

	// Overlapping window common to all participants.
	lo, hi := remapped[0].Timestamps[0], remapped[0].Timestamps[remapped[0].Len()-1]
	for _, d := range remapped[1:] {
		if first := d.Timestamps[0]; first > lo {
			lo = first
		}
		if last := d.Timestamps[d.Len()-1]; last < hi {
			hi = last
		}
	}
	if lo > hi {
		return nil, &NoOverlapError{Start: lo, End: hi}
	}

	trimmed := make([]*Dataset, len(remapped))
	minCount := -1
	for i, d := range remapped {
		start := searchGE(d.Timestamps, lo)
		end := searchGT(d.Timestamps, hi)
		if start >= end {
			return nil, &NoOverlapError{Start: lo, End: hi}
		}
		t, err := d.Trim(start, end)
		if err != nil {
			return nil, err
		}
		trimmed[i] = t
		if minCount < 0 || t.Len() < minCount {
			minCount = t.Len()
		}
	}

	// Rate jitter across units can leave counts one sample apart; cut
	// every member to the common count so the invariant holds exactly.
	for i, d := range trimmed {
		if d.Len() > minCount {
			t, err := d.Trim(0, minCount)
			if err != nil {
				return nil, err
			}
			trimmed[i] = t
		}
	}

	session := &SyncedSession{
		ReferenceUnit: ref.UnitID,
		Datasets:      trimmed,
		Alignments:    make(map[string]Alignment, len(trimmed)),
		Warnings:      warnings,
	}
	for i, d := range remapped {
		session.Alignments[d.UnitID] = Alignment{
			UnitID:        d.UnitID,
			OffsetSeconds: d.Timestamps[0] - ref.Timestamps[0],
			OffsetSamples: (d.Timestamps[0] - ref.Timestamps[0]) * ref.Header.SampleRateHz,
			DriftFactor:   drift[d.UnitID],
			MarkersUsed:   markersUsed[d.UnitID],
		}
		if d.UnitID == ref.UnitID {
			session.Timestamps = append([]float64(nil), trimmed[i].Timestamps...)
		}
		session.Warnings = append(session.Warnings, trimmed[i].Warnings...)
	}
	return session, nil
}

// pickReference selects the designated master unit, or the unit with the
// earliest start timestamp (ties broken by unit id, for determinism).
func pickReference(datasets []*Dataset, master string) (*Dataset, error) {
	if master != "" {
		for _, d := range datasets {
			if d.UnitID == master {
				return d, nil
			}
		}
		return nil, &IncompatibleSessionError{Reason: fmt.Sprintf("master unit %s not among datasets", master)}
	}
	ref := datasets[0]
	for _, d := range datasets[1:] {
		if d.Timestamps[0] < ref.Timestamps[0] ||
			(d.Timestamps[0] == ref.Timestamps[0] && d.UnitID < ref.UnitID) {
			ref = d
		}
	}
	return ref, nil
}

// searchGE returns the first index with ts[i] >= t.
func searchGE(ts []float64, t float64) int {
	return sort.SearchFloat64s(ts, t)
}

// searchGT returns the first index with ts[i] > t.
func searchGT(ts []float64, t float64) int {
	return sort.Search(len(ts), func(i int) bool { return ts[i] > t })
}
