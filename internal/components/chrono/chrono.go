package chrono

import "time"

// the portal has no DST to worry about, so a fixed zone is enough
var jst = time.FixedZone("JST", 9*60*60)

// JST returns the [*time.Location] the portal runs in.
func JST() *time.Location {
	return jst
}

// TimeAPI is the interface that anything depending on the system clock should use.
type TimeAPI interface {
	// Now returns the current time in JST.
	Now() time.Time
}

// StandardTime is the standard implementation of TimeAPI using the standard library.
type StandardTime struct{}

func NewStandardTime() StandardTime {
	return StandardTime{}
}

func (StandardTime) Now() time.Time {
	return time.Now().In(jst)
}

// FixedTime always returns the same instant, for tests.
type FixedTime struct {
	At time.Time
}

func (f FixedTime) Now() time.Time {
	return f.At.In(jst)
}
