package service

import (
	dom "zaplens/internal/services/ingest/domain"
)

type eventKind uint8

const (
	evStart eventKind = iota
	evSucceed
	evFail
	evRetarget
	evReset
)

// event is the only input to the phase machine
type event struct {
	kind     eventKind
	complete bool // succeed, retarget
}

// next returns the phase after ev or false when ev is not allowed in from
//
//	idle|error          --start-->    fetching
//	fetching            --succeed-->  idle|complete
//	fetching            --fail-->     error
//	idle|complete|error --retarget--> idle|complete
//	any                 --reset-->    idle
func next(from dom.Phase, ev event) (dom.Phase, bool) {
	switch ev.kind {
	case evStart:
		if from == dom.PhaseIdle || from == dom.PhaseError {
			return dom.PhaseFetching, true
		}
	case evSucceed:
		if from == dom.PhaseFetching {
			return doneOrIdle(ev.complete), true
		}
	case evFail:
		if from == dom.PhaseFetching {
			return dom.PhaseError, true
		}
	case evRetarget:
		if from != dom.PhaseFetching {
			return doneOrIdle(ev.complete), true
		}
	case evReset:
		return dom.PhaseIdle, true
	}
	return from, false
}

func doneOrIdle(complete bool) dom.Phase {
	if complete {
		return dom.PhaseComplete
	}
	return dom.PhaseIdle
}
