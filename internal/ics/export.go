// Package ics renders upcoming prayer schedules as an iCalendar feed.
package ics

import (
	"errors"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	appLog "waktusholat/internal/log"
	"waktusholat/internal/model"
	"waktusholat/internal/notify"
)

const (
	productID = "-//waktusholat//prayer times//EN"

	// DefaultEventLength is how long each prayer occupies in a calendar view.
	DefaultEventLength = 15 * time.Minute

	// MaxDays caps a single export.
	MaxDays = 366
)

// uidNamespace scopes event UIDs so the same prayer on the same day at the
// same place always gets the same UID, letting subscribers update in place.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://waktusholat.local/ics"))

// Provider computes the schedule of date's calendar day.
type Provider interface {
	Schedule(date time.Time, coords model.Coordinates, cfg model.CalcConfig) (model.DailySchedule, error)
}

// Exporter builds calendars for one location and calculation setup.
type Exporter struct {
	Provider    Provider
	Coordinates model.Coordinates
	Calc        model.CalcConfig
	Template    notify.Template

	// Place is written to LOCATION; the coordinates are used when empty.
	Place string

	// EventLength defaults to DefaultEventLength.
	EventLength time.Duration
}

// Dates returns days consecutive calendar dates starting with from's, each
// at noon in from's location.
func Dates(from time.Time, days int) ([]time.Time, error) {
	if days <= 0 || days > MaxDays {
		return nil, fmt.Errorf("%w: days must be between 1 and %d, got %d", model.ErrConfiguration, MaxDays, days)
	}
	y, m, d := from.Date()
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Count:   days,
		Dtstart: time.Date(y, m, d, 12, 0, 0, 0, from.Location()),
	})
	if err != nil {
		return nil, err
	}
	return r.All(), nil
}

// Calendar builds a PUBLISH calendar with one event per prayer for days
// calendar days starting at from's date. from also stamps every event.
func (e *Exporter) Calendar(from time.Time, days int) (*ical.Calendar, error) {
	if e.Provider == nil {
		return nil, errors.New("ics: provider is required")
	}
	dates, err := Dates(from, days)
	if err != nil {
		return nil, err
	}

	length := e.EventLength
	if length <= 0 {
		length = DefaultEventLength
	}
	place := e.Place
	if place == "" {
		place = e.Coordinates.String()
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName("Waktu Sholat " + place)

	for _, date := range dates {
		sched, err := e.Provider.Schedule(date, e.Coordinates, e.Calc)
		if err != nil {
			return nil, fmt.Errorf("schedule for %s: %w", date.Format("2006-01-02"), err)
		}
		for _, p := range model.Prayers() {
			at := sched.Time(p)
			msg := e.Template.Render(p)

			ev := cal.AddEvent(e.uid(at, p))
			ev.SetDtStampTime(from)
			ev.SetStartAt(at)
			ev.SetEndAt(at.Add(length))
			ev.SetSummary(msg.Summary)
			ev.SetDescription(msg.Body)
			ev.SetLocation(place)
		}
	}

	appLog.Debug("calendar built", "from", dates[0].Format("2006-01-02"), "days", len(dates), "place", place)
	return cal, nil
}

func (e *Exporter) uid(at time.Time, p model.Prayer) string {
	name := fmt.Sprintf("%s|%s|%s|%s|%s", at.Format("2006-01-02"), p, e.Coordinates, e.Calc.Method, e.Calc.Madhab)
	return uuid.NewSHA1(uidNamespace, []byte(name)).String() + "@waktusholat"
}
