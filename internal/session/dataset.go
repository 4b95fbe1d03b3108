package session

import (
	"fmt"
	"math"

	"github.com/relabs-tech/motion_session/internal/halog"
)

// Dataset is one decoded, calibrated recording from a single unit:
// time-indexed channel data plus the owned header copy. Datasets are
// immutable after creation; operations like Trim and Concat return new
// instances so callers holding the original are never surprised.
type Dataset struct {
	Header     halog.Header
	UnitID     string
	Channels   map[string][]float64
	Timestamps []float64 // absolute seconds, monotonically non-decreasing

	// Short marks a recording decoded from a truncated log.
	Short bool
	// Uncalibrated marks data that only saw a fallback transform.
	Uncalibrated bool
	Warnings     []string
}

// NewDataset builds a dataset from a header and calibrated channel data.
// Every channel must carry exactly n samples; timestamps are derived
// from the header's start time and rate.
func NewDataset(h halog.Header, channels map[string][]float64, n int) (*Dataset, error) {
	for name, samples := range channels {
		if len(samples) != n {
			return nil, fmt.Errorf("channel %s has %d samples, expected %d", name, len(samples), n)
		}
	}
	return &Dataset{
		Header:     h.Clone(),
		UnitID:     h.UnitID,
		Channels:   channels,
		Timestamps: h.Timestamps(n),
	}, nil
}

// Len returns the number of samples per channel.
func (d *Dataset) Len() int {
	return len(d.Timestamps)
}

// Duration returns the covered time span in seconds.
func (d *Dataset) Duration() float64 {
	if len(d.Timestamps) == 0 {
		return 0
	}
	return d.Timestamps[len(d.Timestamps)-1] - d.Timestamps[0]
}

// Trim returns a new dataset containing only samples in [start, end).
// The range must be non-empty and inside the dataset; copy-on-trim, the
// receiver is untouched.
func (d *Dataset) Trim(start, end int) (*Dataset, error) {
	if start < 0 || end > d.Len() || start >= end {
		return nil, &IndexRangeError{Start: start, End: end, Len: d.Len()}
	}

	out := d.shallowClone()
	out.Timestamps = append([]float64(nil), d.Timestamps[start:end]...)
	out.Channels = make(map[string][]float64, len(d.Channels))
	for name, samples := range d.Channels {
		out.Channels[name] = append([]float64(nil), samples[start:end]...)
	}
	out.Header.SampleCount = end - start
	out.Header.StartTimestampUS = uint64(math.Round(out.Timestamps[0] * 1e6))
	return out, nil
}

// Concat appends another dataset recorded by the same unit as a later
// part of the same logical session. Headers must agree on rate and
// channel set, and other may not start before this dataset ends; samples
// are never reordered.
func (d *Dataset) Concat(other *Dataset) (*Dataset, error) {
	if d.UnitID != other.UnitID {
		return nil, &IncompatibleSessionError{Reason: fmt.Sprintf("units %s and %s differ", d.UnitID, other.UnitID)}
	}
	if d.Header.SampleRateHz != other.Header.SampleRateHz {
		return nil, &IncompatibleSessionError{
			Reason: fmt.Sprintf("sample rates %v and %v differ", d.Header.SampleRateHz, other.Header.SampleRateHz),
		}
	}
	if !sameChannelOrder(d.Header.EnabledChannels, other.Header.EnabledChannels) {
		return nil, &IncompatibleSessionError{Reason: "header channel sets differ"}
	}
	if !sameChannelSet(d.Channels, other.Channels) {
		return nil, &IncompatibleSessionError{Reason: "channel sets differ"}
	}
	if d.Len() > 0 && other.Len() > 0 && other.Timestamps[0] < d.Timestamps[d.Len()-1] {
		return nil, &IncompatibleSessionError{Reason: "second part starts before the first part ends"}
	}

	out := d.shallowClone()
	out.Timestamps = make([]float64, 0, d.Len()+other.Len())
	out.Timestamps = append(out.Timestamps, d.Timestamps...)
	out.Timestamps = append(out.Timestamps, other.Timestamps...)
	out.Channels = make(map[string][]float64, len(d.Channels))
	for name, samples := range d.Channels {
		joined := make([]float64, 0, len(samples)+len(other.Channels[name]))
		joined = append(joined, samples...)
		joined = append(joined, other.Channels[name]...)
		out.Channels[name] = joined
	}
	out.Header.SampleCount = d.Len() + other.Len()
	out.Short = d.Short || other.Short
	out.Uncalibrated = d.Uncalibrated || other.Uncalibrated
	out.Warnings = append(append([]string(nil), d.Warnings...), other.Warnings...)
	return out, nil
}

// Downsample reduces the rate by an integer factor, averaging each
// factor-sized bin of samples (box decimation). Each bin is stamped with
// its first sample's time. Trailing samples that do not fill a bin are
// dropped.
func (d *Dataset) Downsample(factor int) (*Dataset, error) {
	if factor < 1 {
		return nil, fmt.Errorf("downsample factor must be >= 1, got %d", factor)
	}
	bins := d.Len() / factor
	if bins == 0 {
		return nil, fmt.Errorf("downsample factor %d exceeds dataset length %d", factor, d.Len())
	}
	if factor == 1 {
		return d.Trim(0, d.Len())
	}

	out := d.shallowClone()
	out.Timestamps = make([]float64, bins)
	for i := 0; i < bins; i++ {
		out.Timestamps[i] = d.Timestamps[i*factor]
	}
	out.Channels = make(map[string][]float64, len(d.Channels))
	for name, samples := range d.Channels {
		binned := make([]float64, bins)
		for i := 0; i < bins; i++ {
			sum := 0.0
			for j := i * factor; j < (i+1)*factor; j++ {
				sum += samples[j]
			}
			binned[i] = sum / float64(factor)
		}
		out.Channels[name] = binned
	}
	out.Header.SampleCount = bins
	out.Header.SampleRateHz = d.Header.SampleRateHz / float64(factor)
	return out, nil
}

// shallowClone copies the scalar fields and header; the caller replaces
// channel and timestamp storage.
func (d *Dataset) shallowClone() *Dataset {
	return &Dataset{
		Header:       d.Header.Clone(),
		UnitID:       d.UnitID,
		Short:        d.Short,
		Uncalibrated: d.Uncalibrated,
		Warnings:     append([]string(nil), d.Warnings...),
	}
}

// withTimestamps returns a copy carrying a replacement time axis.
// Channel storage is shared; every consumer of the result only reads it
// or copies via Trim.
func (d *Dataset) withTimestamps(ts []float64) *Dataset {
	out := d.shallowClone()
	out.Channels = d.Channels
	out.Timestamps = ts
	return out
}

func sameChannelOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameChannelSet(a, b map[string][]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for name := range a {
		if _, ok := b[name]; !ok {
			return false
		}
	}
	return true
}
