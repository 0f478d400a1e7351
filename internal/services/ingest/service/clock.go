package service

import "time"

// Timer is a pending scheduled call
type Timer interface {
	Stop() bool
}

// Clock schedules calls; tests swap in a manual clock
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
