package halog

import (
	"encoding/binary"
	"fmt"
)

// SampleBlock holds the decoded integer samples for every enabled
// channel. All channel slices have the same length. A block is owned by
// the decoding pipeline and discarded once calibration has produced a
// dataset.
type SampleBlock struct {
	Channels    map[string][]int32
	SampleCount int

	// Short marks a block truncated to the records actually present,
	// produced when the log was shorter than declared and degraded
	// decoding was requested.
	Short bool
}

// DecodeSamples decodes the sample region that follows the header,
// producing one integer sequence per enabled channel. Each record holds
// one fixed-width sample per channel in declared order; width and byte
// order come from the format-version layout table.
//
// When fewer complete records are present than the header declares,
// strict mode fails with TruncatedLogError; otherwise the block is
// truncated to the complete records and flagged Short. Samples are never
// fabricated. Bytes beyond the declared records make the log malformed.
func DecodeSamples(h Header, data []byte, strict bool) (*SampleBlock, error) {
	layout, ok := LayoutFor(h.FormatVersion)
	if !ok {
		return nil, &MalformedHeaderError{Reason: fmt.Sprintf("unsupported format version %d", h.FormatVersion)}
	}

	recordSize := layout.RecordSize(len(h.EnabledChannels))
	complete := len(data) / recordSize

	n := h.SampleCount
	short := false
	switch {
	case complete < n:
		if strict {
			return nil, &TruncatedLogError{Declared: n, Complete: complete}
		}
		n = complete
		short = true
	case len(data) > n*recordSize:
		return nil, &MalformedHeaderError{
			Reason: fmt.Sprintf("%d trailing bytes after %d declared records", len(data)-n*recordSize, n),
		}
	}

	block := &SampleBlock{
		Channels:    make(map[string][]int32, len(h.EnabledChannels)),
		SampleCount: n,
		Short:       short,
	}
	for _, c := range h.EnabledChannels {
		block.Channels[c] = make([]int32, n)
	}

	off := 0
	for i := 0; i < n; i++ {
		for _, c := range h.EnabledChannels {
			block.Channels[c][i] = decodeSample(layout, data[off:off+layout.SampleWidth])
			off += layout.SampleWidth
		}
	}
	return block, nil
}

// decodeSample sign-extends one fixed-width sample. Widths come from the
// layout table, so every representable value lands inside the layout's
// documented raw range.
func decodeSample(layout Layout, b []byte) int32 {
	switch layout.SampleWidth {
	case 2:
		if layout.BigEndian {
			return int32(int16(binary.BigEndian.Uint16(b)))
		}
		return int32(int16(binary.LittleEndian.Uint16(b)))
	case 3:
		var v uint32
		if layout.BigEndian {
			v = uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
		} else {
			v = uint32(b[2])<<16 | uint32(b[1])<<8 | uint32(b[0])
		}
		if v&0x800000 != 0 {
			v |= 0xFF000000
		}
		return int32(v)
	default:
		panic(fmt.Sprintf("halog: layout version %d has unhandled sample width %d", layout.Version, layout.SampleWidth))
	}
}
