package usecase

import "time"

// Clock supplies wall time for day boundaries and trade timestamps.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
