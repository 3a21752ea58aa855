package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock abstracts time.Now so period math can be tested deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// New returns a Clock backed by the system time in UTC.
func New() Clock {
	return systemClock{}
}

// Module provides the system clock.
var Module = fx.Module("clock", fx.Provide(New))
