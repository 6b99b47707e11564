package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"waktusholat/internal/clock"
	"waktusholat/internal/model"
)

// RolloverGrace is added to midnight so the wake-up never ties with the
// provider's own start of day.
const RolloverGrace = time.Second

// rolloverSpec fires at 00:00:01 every day in the location of the time it is
// evaluated against.
var rolloverSpec = mustParseRollover("1 0 0 * * *")

func mustParseRollover(expr string) cron.Schedule {
	p := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := p.Parse(expr)
	if err != nil {
		panic(fmt.Sprintf("scheduler: bad rollover spec %q: %v", expr, err))
	}
	return sched
}

// SelectNext returns the first prayer of sched strictly after now, or the
// rollover to the following date when every prayer has passed.
func SelectNext(sched model.DailySchedule, now time.Time) (model.NextEvent, error) {
	for _, p := range model.Prayers() {
		if at := sched.Time(p); at.After(now) {
			return model.PrayerEvent(p, at), nil
		}
	}
	at, err := RolloverAt(now)
	if err != nil {
		return model.NextEvent{}, err
	}
	return model.RolloverEvent(at), nil
}

// RolloverAt returns the next firing of the daily rollover schedule after
// now's date, which is the start of the following calendar day plus
// RolloverGrace in now's location. It fails with model.ErrAmbiguousLocalTime
// when that wall time is skipped or repeated by a daylight saving change.
func RolloverAt(now time.Time) (time.Time, error) {
	loc := now.Location()
	y, m, d := now.Date()

	// Anchor at noon so the next firing is tomorrow's, whatever now's time
	// of day.
	at := rolloverSpec.Next(time.Date(y, m, d, 12, 0, 0, 0, loc))

	// When tomorrow's 00:00:01 is skipped the schedule jumps to a later day.
	ty, tm, td := time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC).Date()
	if ay, am, ad := at.Date(); ay != ty || am != tm || ad != td ||
		at.Hour() != 0 || at.Minute() != 0 || at.Second() != int(RolloverGrace/time.Second) {
		return time.Time{}, fmt.Errorf("%w: rollover after %04d-%02d-%02d: %04d-%02d-%02d 00:00:01 does not exist in %s",
			model.ErrAmbiguousLocalTime, y, m, d, ty, tm, td, loc)
	}
	if err := clock.CheckUnambiguous(at); err != nil {
		return time.Time{}, fmt.Errorf("rollover after %04d-%02d-%02d: %w", y, m, d, err)
	}
	return at, nil
}
