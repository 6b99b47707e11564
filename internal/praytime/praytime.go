// Package praytime computes the five daily prayer instants for a date and
// location on top of the adhango astronomical calculator.
package praytime

import (
	"fmt"
	"math"
	"time"

	"github.com/mnadev/adhango/pkg/calc"
	"github.com/mnadev/adhango/pkg/data"
	"github.com/mnadev/adhango/pkg/util"

	"waktusholat/internal/model"
)

// Calculator implements the prayer time provider. It is stateless; a zero
// value is ready to use.
type Calculator struct{}

func New() *Calculator {
	return &Calculator{}
}

// Schedule returns the prayers of date's calendar day. Instants are rounded to
// the minute and expressed in date's Location.
func (c *Calculator) Schedule(date time.Time, coords model.Coordinates, cfg model.CalcConfig) (model.DailySchedule, error) {
	if err := validateCoordinates(coords); err != nil {
		return model.DailySchedule{}, err
	}
	method, err := LookupMethod(cfg.Method)
	if err != nil {
		return model.DailySchedule{}, fmt.Errorf("%w: %v", model.ErrCalculation, err)
	}
	params := calc.GetMethodParameters(method.method)
	if err := applyMadhab(&params.Madhab, cfg.Madhab); err != nil {
		return model.DailySchedule{}, fmt.Errorf("%w: %v", model.ErrCalculation, err)
	}
	if err := applyHighLatRule(&params.HighLatitudeRule, cfg.HighLatitudeRule); err != nil {
		return model.DailySchedule{}, fmt.Errorf("%w: %v", model.ErrCalculation, err)
	}

	point, err := util.NewCoordinates(coords.Latitude, coords.Longitude)
	if err != nil {
		return model.DailySchedule{}, fmt.Errorf("%w: %v", model.ErrCalculation, err)
	}

	loc := date.Location()
	y, m, d := date.Date()
	day := data.NewDateComponents(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))

	times, err := calc.NewPrayerTimes(point, day, params)
	if err != nil {
		return model.DailySchedule{}, fmt.Errorf("%w: %04d-%02d-%02d at %s: %v", model.ErrCalculation, y, m, d, coords, err)
	}

	sched := model.DailySchedule{
		Date: time.Date(y, m, d, 0, 0, 0, 0, loc),
		Times: [model.PrayerCount]time.Time{
			model.Fajr:    times.Fajr.In(loc),
			model.Dhuhr:   times.Dhuhr.In(loc),
			model.Asr:     times.Asr.In(loc),
			model.Maghrib: times.Maghrib.In(loc),
			model.Isha:    times.Isha.In(loc),
		},
	}
	if err := sched.Validate(); err != nil {
		return model.DailySchedule{}, err
	}
	return sched, nil
}

func validateCoordinates(c model.Coordinates) error {
	for _, v := range []float64{c.Latitude, c.Longitude} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: coordinates %s are not finite", model.ErrCalculation, c)
		}
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %g out of range [-90, 90]", model.ErrCalculation, c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %g out of range [-180, 180]", model.ErrCalculation, c.Longitude)
	}
	return nil
}
