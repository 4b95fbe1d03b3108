// Package pipeline drives the full log-to-dataset flow: header decode,
// sample stream decode, calibration, dataset construction, and optional
// multi-unit synchronization.
package pipeline

import (
	"fmt"

	"github.com/relabs-tech/motion_session/internal/calib"
	"github.com/relabs-tech/motion_session/internal/halog"
	"github.com/relabs-tech/motion_session/internal/session"
)

// Assembler orchestrates decoding, calibration, and synchronization.
// The zero value decodes in degraded-tolerant mode with identity
// calibration fallback. Independent loads share no mutable state, so
// callers may run them concurrently.
type Assembler struct {
	// Registry supplies measured calibration coefficients. Nil means no
	// unit ever matches and every load is flagged uncalibrated.
	Registry *calib.Registry

	// Strict fails truncated logs with TruncatedLogError instead of
	// returning a short-flagged dataset.
	Strict bool

	// UseFactory falls back to datasheet range scaling instead of the
	// identity transform when no measured calibration exists.
	UseFactory bool
}

// Load decodes and calibrates one raw log into a dataset. Structural
// failures from any stage propagate unchanged; degraded outcomes
// (truncation in non-strict mode, missing calibration) surface as flags
// and warnings on the dataset.
func (a Assembler) Load(raw []byte) (*session.Dataset, error) {
	header, err := halog.DecodeHeader(raw)
	if err != nil {
		return nil, err
	}

	block, err := halog.DecodeSamples(header, raw[halog.HeaderSize:], a.Strict)
	if err != nil {
		return nil, err
	}

	applier := calib.Applier{Registry: a.Registry, UseFactory: a.UseFactory}
	result := applier.Apply(header, block)

	ds, err := session.NewDataset(header, result.Channels, block.SampleCount)
	if err != nil {
		return nil, fmt.Errorf("assemble dataset for unit %s: %w", header.UnitID, err)
	}
	ds.Short = block.Short
	ds.Uncalibrated = result.Uncalibrated
	ds.Warnings = append(ds.Warnings, result.Warnings...)
	if block.Short {
		ds.Warnings = append(ds.Warnings,
			fmt.Sprintf("log truncated: %d of %d declared samples decoded", block.SampleCount, header.SampleCount))
	}
	return ds, nil
}

// LoadAll decodes several independent logs, preserving input order. The
// first failure aborts the batch.
func (a Assembler) LoadAll(raws [][]byte) ([]*session.Dataset, error) {
	out := make([]*session.Dataset, len(raws))
	for i, raw := range raws {
		ds, err := a.Load(raw)
		if err != nil {
			return nil, fmt.Errorf("log %d: %w", i, err)
		}
		out[i] = ds
	}
	return out, nil
}

// LoadAndSynchronize decodes a group of concurrently recorded logs and
// aligns them onto a common time axis.
func (a Assembler) LoadAndSynchronize(raws [][]byte, opts session.SyncOptions) (*session.SyncedSession, error) {
	datasets, err := a.LoadAll(raws)
	if err != nil {
		return nil, err
	}
	return session.Synchronize(datasets, opts)
}
