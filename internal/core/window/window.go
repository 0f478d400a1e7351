// Package window models the since/until range an analytic view is scoped to
package window

import (
	"fmt"
	"strings"
	"time"

	perr "zaplens/internal/platform/errors"
	ptime "zaplens/internal/platform/time"
)

// Range names a preset window
type Range string

// Preset ranges
const (
	Range24h    Range = "24h"
	Range7d     Range = "7d"
	Range30d    Range = "30d"
	Range90d    Range = "90d"
	Range1y     Range = "1y"
	RangeAll    Range = "all"
	RangeCustom Range = "custom"
)

// Ranges lists every accepted range name
var Ranges = []Range{Range24h, Range7d, Range30d, Range90d, Range1y, RangeAll, RangeCustom}

var lookback = map[Range]time.Duration{
	Range24h: 24 * time.Hour,
	Range7d:  7 * 24 * time.Hour,
	Range30d: 30 * 24 * time.Hour,
	Range90d: 90 * 24 * time.Hour,
	Range1y:  365 * 24 * time.Hour,
}

// Window is inclusive at Since and inclusive at Until when set; nil Until is open ended
type Window struct {
	Since time.Time  `json:"since"`
	Until *time.Time `json:"until,omitempty"`
	Range Range      `json:"range"`
}

// FromRange resolves a preset range against now. Custom is rejected here, use Custom
func FromRange(name string, now time.Time) (Window, error) {
	r := Range(strings.ToLower(strings.TrimSpace(name)))
	switch r {
	case RangeAll:
		return Window{Since: time.Unix(0, 0).UTC(), Range: r}, nil
	case RangeCustom:
		return Window{}, perr.WithField(perr.InvalidArgf("custom range needs since and until"), "since")
	}
	d, ok := lookback[r]
	if !ok {
		return Window{}, perr.WithField(perr.InvalidArgf("unknown range %q", name), "range")
	}
	return Window{Since: now.UTC().Add(-d).Truncate(time.Second), Range: r}, nil
}

// Custom builds an explicit window; until must not precede since
func Custom(since, until time.Time) (Window, error) {
	if since.IsZero() || until.IsZero() {
		return Window{}, perr.WithField(perr.InvalidArgf("custom range needs since and until"), "since")
	}
	if until.Before(since) {
		return Window{}, perr.WithField(perr.InvalidArgf("until %s precedes since %s",
			until.Format(time.RFC3339), since.Format(time.RFC3339)), "until")
	}
	u := until.UTC().Truncate(time.Second)
	return Window{Since: since.UTC().Truncate(time.Second), Until: &u, Range: RangeCustom}, nil
}

// Resolve builds a window from request style inputs. since/until are unix seconds
func Resolve(name string, since, until *int64, now time.Time) (Window, error) {
	if Range(strings.ToLower(strings.TrimSpace(name))) != RangeCustom {
		return FromRange(name, now)
	}
	if since == nil || until == nil {
		return Window{}, perr.WithField(perr.InvalidArgf("custom range needs since and until"), "since")
	}
	return Custom(ptime.Unix(*since), ptime.Unix(*until))
}

// IsCustom reports whether the window carries an explicit upper bound
func (w Window) IsCustom() bool { return w.Until != nil }

// Contains reports since <= t and, when bounded, t <= until
func (w Window) Contains(t time.Time) bool {
	if t.Before(w.Since) {
		return false
	}
	return w.Until == nil || !t.After(*w.Until)
}

// End is Until for custom windows, otherwise now
func (w Window) End(now time.Time) time.Time {
	if w.Until != nil {
		return *w.Until
	}
	return now
}

// Span is the covered duration, measured up to now for open windows
func (w Window) Span(now time.Time) time.Duration {
	if d := w.End(now).Sub(w.Since); d > 0 {
		return d
	}
	return 0
}

// Key identifies a window for equality checks
func (w Window) Key() string {
	if w.Until == nil {
		return fmt.Sprintf("%s:%d", w.Range, w.Since.Unix())
	}
	return fmt.Sprintf("%s:%d-%d", w.Range, w.Since.Unix(), w.Until.Unix())
}

func (w Window) String() string { return w.Key() }
