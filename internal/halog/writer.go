package halog

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// EncodeHeader serializes a header into the fixed 64-byte layout.
// Reserved bytes are zero.
func EncodeHeader(h Header) ([]byte, error) {
	layout, ok := LayoutFor(h.FormatVersion)
	if !ok {
		return nil, fmt.Errorf("encode header: unsupported format version %d", h.FormatVersion)
	}
	if len(h.EnabledChannels) == 0 {
		return nil, fmt.Errorf("encode header: no channels enabled")
	}
	if h.SampleRateHz <= 0 {
		return nil, fmt.Errorf("encode header: invalid sample rate %v", h.SampleRateHz)
	}
	if len(h.UnitID) == 0 || len(h.UnitID) > unitIDSize {
		return nil, fmt.Errorf("encode header: unit id %q must be 1-%d bytes", h.UnitID, unitIDSize)
	}
	mask := h.channelMask()
	if mask&maskMag != 0 && !layout.AllowMag {
		return nil, fmt.Errorf("encode header: magnetometer channels not valid for format version %d", h.FormatVersion)
	}

	var fw [3]uint8
	if _, err := fmt.Sscanf(strings.TrimPrefix(h.Firmware, "v"), "%d.%d.%d", &fw[0], &fw[1], &fw[2]); err != nil && h.Firmware != "" {
		return nil, fmt.Errorf("encode header: firmware version %q: %w", h.Firmware, err)
	}

	buf := make([]byte, HeaderSize)
	copy(buf[0:4], Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.FormatVersion)
	binary.LittleEndian.PutUint16(buf[6:8], mask)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(h.SampleCount))
	binary.LittleEndian.PutUint64(buf[12:20], math.Float64bits(h.SampleRateHz))
	binary.LittleEndian.PutUint64(buf[20:28], h.StartTimestampUS)
	copy(buf[28:28+unitIDSize], h.UnitID)
	buf[38] = h.AccRangeG
	binary.LittleEndian.PutUint16(buf[39:41], h.GyroRangeDPS)
	buf[41], buf[42], buf[43] = fw[0], fw[1], fw[2]
	return buf, nil
}

// EncodeLog serializes a complete log container: header followed by one
// fixed-width record per sample. Every enabled channel must supply
// exactly h.SampleCount values inside the layout's raw range. The bench
// recorder and the test fixtures are built on this.
func EncodeLog(h Header, channels map[string][]int32) ([]byte, error) {
	layout, ok := LayoutFor(h.FormatVersion)
	if !ok {
		return nil, fmt.Errorf("encode log: unsupported format version %d", h.FormatVersion)
	}
	for _, c := range h.EnabledChannels {
		samples, ok := channels[c]
		if !ok {
			return nil, fmt.Errorf("encode log: missing samples for channel %s", c)
		}
		if len(samples) != h.SampleCount {
			return nil, fmt.Errorf("encode log: channel %s has %d samples, header declares %d", c, len(samples), h.SampleCount)
		}
		for i, v := range samples {
			if v < layout.MinRaw || v > layout.MaxRaw {
				return nil, fmt.Errorf("encode log: channel %s sample %d value %d outside [%d, %d]", c, i, v, layout.MinRaw, layout.MaxRaw)
			}
		}
	}

	head, err := EncodeHeader(h)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, HeaderSize+h.SampleCount*layout.RecordSize(len(h.EnabledChannels)))
	copy(buf, head)
	off := HeaderSize
	for i := 0; i < h.SampleCount; i++ {
		for _, c := range h.EnabledChannels {
			encodeSample(layout, buf[off:off+layout.SampleWidth], channels[c][i])
			off += layout.SampleWidth
		}
	}
	return buf, nil
}

func encodeSample(layout Layout, b []byte, v int32) {
	switch layout.SampleWidth {
	case 2:
		if layout.BigEndian {
			binary.BigEndian.PutUint16(b, uint16(int16(v)))
		} else {
			binary.LittleEndian.PutUint16(b, uint16(int16(v)))
		}
	case 3:
		u := uint32(v)
		if layout.BigEndian {
			b[0], b[1], b[2] = byte(u>>16), byte(u>>8), byte(u)
		} else {
			b[0], b[1], b[2] = byte(u), byte(u>>8), byte(u>>16)
		}
	}
}
