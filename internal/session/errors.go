package session

import "fmt"

// IndexRangeError reports a trim range that is empty or out of bounds.
type IndexRangeError struct {
	Start, End, Len int
}

func (e *IndexRangeError) Error() string {
	return fmt.Sprintf("invalid sample range [%d, %d) for dataset of %d samples", e.Start, e.End, e.Len)
}

// IncompatibleSessionError reports dataset combinations that cannot be
// merged or synchronized: mismatched units, rates, channel sets, or
// overlapping recording order.
type IncompatibleSessionError struct {
	Reason string
}

func (e *IncompatibleSessionError) Error() string {
	return "incompatible session: " + e.Reason
}

// NoOverlapError reports that the recordings of the participating units
// share no common time window.
type NoOverlapError struct {
	Start, End float64 // computed window bounds, seconds
}

func (e *NoOverlapError) Error() string {
	return fmt.Sprintf("no overlapping recording window (computed [%v, %v])", e.Start, e.End)
}
