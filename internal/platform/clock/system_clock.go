package clock

import "time"

// SystemClock reads the wall clock in UTC, truncated to microseconds so a timestamp returned
// from a write equals the one Postgres hands back on the next read.
type SystemClock struct{}

func NewSystemClock() SystemClock { return SystemClock{} }

func (SystemClock) Now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }
