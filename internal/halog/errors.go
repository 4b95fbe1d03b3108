package halog

import "fmt"

// MalformedHeaderError reports a log whose structure cannot be decoded at
// all: bad magic, unsupported version, inconsistent channel declaration,
// or a byte length that contradicts the header. Not recoverable.
type MalformedHeaderError struct {
	Reason string
}

func (e *MalformedHeaderError) Error() string {
	return "malformed log: " + e.Reason
}

// TruncatedLogError reports that fewer complete sample records were
// present than the header declares. Callers that can work with a short
// recording may retry with degraded decoding enabled.
type TruncatedLogError struct {
	Declared int // records the header promises
	Complete int // complete records actually present
}

func (e *TruncatedLogError) Error() string {
	return fmt.Sprintf("truncated log: header declares %d records, only %d complete", e.Declared, e.Complete)
}
