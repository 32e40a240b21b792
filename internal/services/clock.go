package services

import "time"

// Clock supplies the current instant to services
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock reads the wall clock in UTC
func SystemClock() Clock { return systemClock{} }

// FixedClock always returns t
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }
