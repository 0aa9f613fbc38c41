package quiz

import "time"

// Clock abstracts wall-clock time so tests can inject a fixed moment.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
