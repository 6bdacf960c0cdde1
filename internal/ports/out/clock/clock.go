package clock

import "time"

// Clock stamps createdAt, updatedAt and joinedAt values and token issue times.
type Clock interface {
	Now() time.Time
}
