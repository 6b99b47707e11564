package model

import (
	"fmt"
	"time"
)

// Prayer identifies one of the five daily prayers. The numeric order is the
// canonical order of the day.
type Prayer int

const (
	Fajr Prayer = iota
	Dhuhr
	Asr
	Maghrib
	Isha
)

// PrayerCount is the number of prayers in a DailySchedule.
const PrayerCount = 5

var prayerNames = [PrayerCount]string{"Fajr", "Dhuhr", "Asr", "Maghrib", "Isha"}

// Prayers returns all prayers in canonical order.
func Prayers() []Prayer {
	return []Prayer{Fajr, Dhuhr, Asr, Maghrib, Isha}
}

func (p Prayer) String() string {
	if p < Fajr || p > Isha {
		return fmt.Sprintf("Prayer(%d)", int(p))
	}
	return prayerNames[p]
}

// Coordinates is a geographic position in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}

// CalcConfig holds the parameters that map location and date to prayer
// instants. It is fixed for the lifetime of a process.
type CalcConfig struct {
	Method           string `json:"method"`
	Madhab           string `json:"madhab"`
	HighLatitudeRule string `json:"high_latitude_rule"`
}

// DailySchedule is the five prayer instants of one calendar date, in
// canonical order.
type DailySchedule struct {
	// Date is local midnight (or the closest valid instant) of the
	// schedule's calendar date; its Location is the display zone.
	Date  time.Time
	Times [PrayerCount]time.Time
}

// Time returns the instant of p.
func (s DailySchedule) Time(p Prayer) time.Time {
	return s.Times[p]
}

// Validate checks that the instants are set and strictly increasing.
func (s DailySchedule) Validate() error {
	for i, t := range s.Times {
		if t.IsZero() {
			return fmt.Errorf("%w: %s is not set", ErrCalculation, Prayer(i))
		}
		if i > 0 && !t.After(s.Times[i-1]) {
			return fmt.Errorf("%w: %s (%s) is not after %s (%s)", ErrCalculation,
				Prayer(i), t.Format(time.RFC3339), Prayer(i-1), s.Times[i-1].Format(time.RFC3339))
		}
	}
	return nil
}

// EventKind discriminates NextEvent.
type EventKind int

const (
	EventPrayer EventKind = iota
	EventRollover
)

func (k EventKind) String() string {
	switch k {
	case EventPrayer:
		return "prayer"
	case EventRollover:
		return "rollover"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// NextEvent is what the scheduler waits for next: either a prayer of the
// current schedule or the start of the following date.
type NextEvent struct {
	Kind EventKind
	// Prayer is only meaningful when Kind == EventPrayer.
	Prayer Prayer
	At     time.Time
}

func PrayerEvent(p Prayer, at time.Time) NextEvent {
	return NextEvent{Kind: EventPrayer, Prayer: p, At: at}
}

func RolloverEvent(at time.Time) NextEvent {
	return NextEvent{Kind: EventRollover, At: at}
}

// IsPrayer reports whether the event should trigger a notification.
func (e NextEvent) IsPrayer() bool {
	return e.Kind == EventPrayer
}

func (e NextEvent) String() string {
	if e.IsPrayer() {
		return e.Prayer.String() + "@" + e.At.Format(time.RFC3339)
	}
	return "rollover@" + e.At.Format(time.RFC3339)
}

// Cycle is one pass of the scheduler as seen by observers.
type Cycle struct {
	Now      time.Time
	Schedule DailySchedule
	Next     NextEvent
	Wait     time.Duration
}
