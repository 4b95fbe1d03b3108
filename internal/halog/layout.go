package halog

// Layout describes the fixed-width sample record shape used by one
// container format version. The stream decoder consumes layouts
// generically, so supporting a new firmware generation only means adding
// a table entry here.
type Layout struct {
	Version     uint16
	SampleWidth int  // bytes per channel sample within a record
	BigEndian   bool // byte order of each sample
	AllowMag    bool // whether the magnetometer channel group may be enabled

	// Valid raw range after sign extension. Samples outside this range
	// cannot be produced by the decoder; calibration may assume it.
	MinRaw, MaxRaw int32
}

var layouts = map[uint16]Layout{
	// Generation 1 firmware: 16-bit little-endian samples, acc+gyro only.
	1: {Version: 1, SampleWidth: 2, MinRaw: -32768, MaxRaw: 32767},
	// Generation 2 firmware switched the sample words to big-endian.
	2: {Version: 2, SampleWidth: 2, BigEndian: true, MinRaw: -32768, MaxRaw: 32767},
	// Generation 3 firmware: 24-bit little-endian samples, optional mag.
	3: {Version: 3, SampleWidth: 3, AllowMag: true, MinRaw: -8388608, MaxRaw: 8388607},
}

// LayoutFor returns the record layout for a container format version.
func LayoutFor(version uint16) (Layout, bool) {
	l, ok := layouts[version]
	return l, ok
}

// RecordSize returns the number of bytes one sample record occupies for
// the given number of enabled channels.
func (l Layout) RecordSize(channels int) int {
	return l.SampleWidth * channels
}
