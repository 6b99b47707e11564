// Package status turns one scheduler cycle into the JSON line consumed by
// status bar widgets polling the process's stdout.
package status

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"waktusholat/internal/model"
)

// TimeLayout is the zero-padded 24-hour format of every time field.
const TimeLayout = "15:04"

// Record is one cycle's snapshot. Field order is the wire order.
type Record struct {
	Fajr    string `json:"Fajr"`
	Dhuhr   string `json:"Dhuhr"`
	Asr     string `json:"Asr"`
	Maghrib string `json:"Maghrib"`
	Isha    string `json:"Isha"`
	Next    string `json:"next"`
}

// NewRecord formats sched in its own location. When next is a rollover the
// label is the first prayer of the day, although tomorrow's schedule has not
// been computed yet.
func NewRecord(sched model.DailySchedule, next model.NextEvent) Record {
	label := model.Prayers()[0].String()
	if next.IsPrayer() {
		label = next.Prayer.String()
	}
	return Record{
		Fajr:    sched.Time(model.Fajr).Format(TimeLayout),
		Dhuhr:   sched.Time(model.Dhuhr).Format(TimeLayout),
		Asr:     sched.Time(model.Asr).Format(TimeLayout),
		Maghrib: sched.Time(model.Maghrib).Format(TimeLayout),
		Isha:    sched.Time(model.Isha).Format(TimeLayout),
		Next:    label,
	}
}

// Time returns the formatted field of p.
func (r Record) Time(p model.Prayer) string {
	switch p {
	case model.Fajr:
		return r.Fajr
	case model.Dhuhr:
		return r.Dhuhr
	case model.Asr:
		return r.Asr
	case model.Maghrib:
		return r.Maghrib
	case model.Isha:
		return r.Isha
	default:
		return ""
	}
}

// Emitter writes one newline-terminated JSON record per call.
type Emitter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

// Emit encodes rec and writes it, with its trailing newline, in a single
// Write so a polling reader never sees a partial line.
func (e *Emitter) Emit(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	data = append(data, '\n')

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.w.Write(data); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	return nil
}
