package views

import "time"

// Clock schedules session expiry; tests drive it manually.
type Clock interface {
	Now() time.Time
	AfterFunc(delay time.Duration, expire func()) Timer
}

// Timer is satisfied by *time.Timer.
type Timer interface {
	Stop() bool
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(delay time.Duration, expire func()) Timer {
	return time.AfterFunc(delay, expire)
}
