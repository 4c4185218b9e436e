package application

import "time"

// Clock supaya timestamp record dan nama file export gampang ditest
type Clock interface {
	Now() time.Time
}

// SystemClock reports the current time in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always reports the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }
