package halog

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Container format constants. The header region is fixed-size; bytes past
// the last defined field are padding and ignored.
const (
	Magic      = "HALG"
	HeaderSize = 64

	unitIDSize = 10
)

// Channel mask bits, one per sensor group.
const (
	maskAccel = 1 << 0
	maskGyro  = 1 << 1
	maskMag   = 1 << 2

	maskAll = maskAccel | maskGyro | maskMag
)

// Channel names in declared record order.
var (
	accelChannels = []string{"acc_x", "acc_y", "acc_z"}
	gyroChannels  = []string{"gyro_x", "gyro_y", "gyro_z"}
	magChannels   = []string{"mag_x", "mag_y", "mag_z"}
)

// Header is the decoded metadata block at the start of a log. It carries
// everything the sample stream decoder and calibration need.
type Header struct {
	FormatVersion    uint16
	UnitID           string
	SampleRateHz     float64
	SampleCount      int
	StartTimestampUS uint64 // device clock at recording start, microseconds

	// EnabledChannels lists channel names in record order, expanded from
	// the channel mask (accel group, then gyro, then mag).
	EnabledChannels []string

	AccRangeG    uint8  // accelerometer full-scale range, ±g
	GyroRangeDPS uint16 // gyroscope full-scale range, ±deg/s
	Firmware     string // device firmware version, "major.minor.patch"
}

// DecodeHeader parses the fixed-layout header region of a raw log. It
// reads only the provided bytes and performs no I/O. Trailing padding
// inside the header region is ignored.
func DecodeHeader(raw []byte) (Header, error) {
	if len(raw) < HeaderSize {
		return Header{}, &MalformedHeaderError{Reason: fmt.Sprintf("need %d header bytes, have %d", HeaderSize, len(raw))}
	}
	if string(raw[0:4]) != Magic {
		return Header{}, &MalformedHeaderError{Reason: fmt.Sprintf("bad magic %q", raw[0:4])}
	}

	version := binary.LittleEndian.Uint16(raw[4:6])
	layout, ok := LayoutFor(version)
	if !ok {
		return Header{}, &MalformedHeaderError{Reason: fmt.Sprintf("unsupported format version %d", version)}
	}

	mask := binary.LittleEndian.Uint16(raw[6:8])
	channels, err := channelsFromMask(mask, layout)
	if err != nil {
		return Header{}, err
	}

	rate := math.Float64frombits(binary.LittleEndian.Uint64(raw[12:20]))
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return Header{}, &MalformedHeaderError{Reason: fmt.Sprintf("invalid sample rate %v", rate)}
	}

	unitID := string(bytes.TrimRight(raw[28:28+unitIDSize], "\x00"))
	if unitID == "" {
		return Header{}, &MalformedHeaderError{Reason: "empty unit id"}
	}

	h := Header{
		FormatVersion:    version,
		UnitID:           unitID,
		SampleRateHz:     rate,
		SampleCount:      int(binary.LittleEndian.Uint32(raw[8:12])),
		StartTimestampUS: binary.LittleEndian.Uint64(raw[20:28]),
		EnabledChannels:  channels,
		AccRangeG:        raw[38],
		GyroRangeDPS:     binary.LittleEndian.Uint16(raw[39:41]),
		Firmware:         fmt.Sprintf("%d.%d.%d", raw[41], raw[42], raw[43]),
	}
	return h, nil
}

func channelsFromMask(mask uint16, layout Layout) ([]string, error) {
	if mask == 0 {
		return nil, &MalformedHeaderError{Reason: "no channels enabled"}
	}
	if mask&^uint16(maskAll) != 0 {
		return nil, &MalformedHeaderError{Reason: fmt.Sprintf("unknown channel mask bits 0x%04x", mask)}
	}
	if mask&maskMag != 0 && !layout.AllowMag {
		return nil, &MalformedHeaderError{Reason: fmt.Sprintf("magnetometer channels not valid for format version %d", layout.Version)}
	}

	var channels []string
	if mask&maskAccel != 0 {
		channels = append(channels, accelChannels...)
	}
	if mask&maskGyro != 0 {
		channels = append(channels, gyroChannels...)
	}
	if mask&maskMag != 0 {
		channels = append(channels, magChannels...)
	}
	return channels, nil
}

// channelMask reconstructs the mask bits from the enabled channel list.
func (h Header) channelMask() uint16 {
	var mask uint16
	for _, c := range h.EnabledChannels {
		switch c {
		case "acc_x":
			mask |= maskAccel
		case "gyro_x":
			mask |= maskGyro
		case "mag_x":
			mask |= maskMag
		}
	}
	return mask
}

// StartTime returns the recording start as seconds on the device clock.
func (h Header) StartTime() float64 {
	return float64(h.StartTimestampUS) / 1e6
}

// Timestamps materializes the implicit per-sample time axis for the first
// n samples: sample i is stamped start + i/rate. The device encodes only
// a start time and a fixed rate; per-sample times are derived, not parsed.
func (h Header) Timestamps(n int) []float64 {
	ts := make([]float64, n)
	start := h.StartTime()
	for i := range ts {
		ts[i] = start + float64(i)/h.SampleRateHz
	}
	return ts
}

// Clone returns a deep copy of the header.
func (h Header) Clone() Header {
	c := h
	c.EnabledChannels = append([]string(nil), h.EnabledChannels...)
	return c
}

// HasGroup reports whether a sensor group ("acc", "gyro", "mag") is
// enabled in this recording.
func (h Header) HasGroup(group string) bool {
	for _, c := range h.EnabledChannels {
		if c == group+"_x" {
			return true
		}
	}
	return false
}
