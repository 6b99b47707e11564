// Package clock abstracts the current time and the blocking wait so the
// scheduler can be driven deterministically in tests and in single-shot runs.
package clock

import (
	"context"
	"fmt"
	"time"

	"waktusholat/internal/model"
)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// RealClock returns the wall clock in the local zone on every call.
type RealClock struct{}

// NewRealClock creates a new RealClock.
func NewRealClock() *RealClock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the instant it was built with. A scheduler
// driven by a FixedClock runs a single cycle.
type FixedClock struct {
	at time.Time
}

func NewFixedClock(at time.Time) *FixedClock {
	return &FixedClock{at: at}
}

func (c *FixedClock) Now() time.Time {
	return c.at
}

// IsFixed reports whether c is an override clock.
func IsFixed(c Clock) bool {
	_, ok := c.(*FixedClock)
	return ok
}

// Waiter suspends the caller for a duration.
type Waiter interface {
	// Wait blocks for d or until ctx is done, whichever comes first, and
	// returns ctx.Err() in the latter case. A non-positive d returns at once.
	Wait(ctx context.Context, d time.Duration) error
}

// TimerWaiter blocks on a real timer.
type TimerWaiter struct{}

func (TimerWaiter) Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoWait returns immediately. It lets a single-shot run report the computed
// wait without physically blocking.
type NoWait struct{}

func (NoWait) Wait(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// ResolveLocal maps a wall-clock time on the given calendar date to the single
// instant it denotes in loc. It fails with model.ErrAmbiguousLocalTime when the
// wall time is skipped by a daylight saving transition or occurs twice.
func ResolveLocal(year int, month time.Month, day, hour, minute, sec int, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	wall := time.Date(year, month, day, hour, minute, sec, 0, time.UTC)
	found := instantsAt(wall, loc)

	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return time.Time{}, fmt.Errorf("%w: %s does not exist in %s",
			model.ErrAmbiguousLocalTime, wall.Format("2006-01-02 15:04:05"), loc)
	default:
		return time.Time{}, fmt.Errorf("%w: %s occurs %d times in %s",
			model.ErrAmbiguousLocalTime, wall.Format("2006-01-02 15:04:05"), len(found), loc)
	}
}

// CheckUnambiguous fails with model.ErrAmbiguousLocalTime when t's wall-clock
// reading occurs more than once in t's location, as in the hour repeated when
// daylight saving ends.
func CheckUnambiguous(t time.Time) error {
	y, m, d := t.Date()
	wall := time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
	if n := len(instantsAt(wall, t.Location())); n > 1 {
		return fmt.Errorf("%w: %s occurs %d times in %s",
			model.ErrAmbiguousLocalTime, wall.Format("2006-01-02 15:04:05"), n, t.Location())
	}
	return nil
}

// instantsAt lists every instant whose reading in loc is wall (a UTC time
// carrying the wall-clock fields).
func instantsAt(wall time.Time, loc *time.Location) []time.Time {
	guess := time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), wall.Second(), 0, loc)

	// Candidate offsets are those in effect a day either side of the guess;
	// zones do not change offset more than once within that window.
	offsets := map[int]struct{}{}
	for _, near := range []time.Time{guess.Add(-24 * time.Hour), guess, guess.Add(24 * time.Hour)} {
		_, off := near.Zone()
		offsets[off] = struct{}{}
	}

	var found []time.Time
	for off := range offsets {
		cand := wall.Add(-time.Duration(off) * time.Second).In(loc)
		if sameWall(cand, wall) {
			found = append(found, cand)
		}
	}
	return found
}

func sameWall(t, wall time.Time) bool {
	y, m, d := t.Date()
	wy, wm, wd := wall.Date()
	return y == wy && m == wm && d == wd &&
		t.Hour() == wall.Hour() && t.Minute() == wall.Minute() && t.Second() == wall.Second()
}

// ParseOverride interprets an "HH:MM" string as a wall-clock time on the
// calendar date of today, in today's location.
func ParseOverride(s string, today time.Time) (time.Time, error) {
	tod, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid --test-at %q, expected HH:MM", model.ErrConfiguration, s)
	}
	y, m, d := today.Date()
	return ResolveLocal(y, m, d, tod.Hour(), tod.Minute(), 0, today.Location())
}
