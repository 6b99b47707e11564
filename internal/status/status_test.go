package status

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waktusholat/internal/model"
)

var sgt = time.FixedZone("SGT", 8*3600)

func testSchedule() model.DailySchedule {
	at := func(h, m int) time.Time { return time.Date(2024, 6, 1, h, m, 0, 0, sgt) }
	return model.DailySchedule{
		Date:  at(0, 0),
		Times: [model.PrayerCount]time.Time{at(5, 36), at(13, 2), at(16, 27), at(19, 9), at(20, 24)},
	}
}

func TestNewRecord_Prayer(t *testing.T) {
	sched := testSchedule()
	rec := NewRecord(sched, model.PrayerEvent(model.Asr, sched.Time(model.Asr)))

	assert.Equal(t, Record{
		Fajr: "05:36", Dhuhr: "13:02", Asr: "16:27", Maghrib: "19:09", Isha: "20:24", Next: "Asr",
	}, rec)
}

func TestNewRecord_RolloverLabelsFirstPrayer(t *testing.T) {
	rec := NewRecord(testSchedule(), model.RolloverEvent(time.Date(2024, 6, 2, 0, 0, 1, 0, sgt)))
	assert.Equal(t, "Fajr", rec.Next)
}

func TestNewRecord_UsesScheduleLocation(t *testing.T) {
	sched := testSchedule()
	for i := range sched.Times {
		sched.Times[i] = sched.Times[i].UTC().In(sgt)
	}
	rec := NewRecord(sched, model.PrayerEvent(model.Fajr, sched.Time(model.Fajr)))
	assert.Equal(t, "05:36", rec.Fajr)
}

func TestRecord_RoundTripToMinute(t *testing.T) {
	sched := testSchedule()
	sched.Times[model.Dhuhr] = sched.Times[model.Dhuhr].Add(42 * time.Second)
	rec := NewRecord(sched, model.PrayerEvent(model.Fajr, sched.Time(model.Fajr)))

	y, m, d := sched.Date.Date()
	for _, p := range model.Prayers() {
		tod, err := time.Parse(TimeLayout, rec.Time(p))
		require.NoError(t, err)
		back := time.Date(y, m, d, tod.Hour(), tod.Minute(), 0, 0, sgt)
		assert.True(t, back.Equal(sched.Time(p).Truncate(time.Minute)), p.String())
	}
}

func TestEmitter_WritesSingleLine(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf)

	require.NoError(t, e.Emit(NewRecord(testSchedule(), model.PrayerEvent(model.Fajr, time.Time{}))))

	assert.Equal(t,
		`{"Fajr":"05:36","Dhuhr":"13:02","Asr":"16:27","Maghrib":"19:09","Isha":"20:24","next":"Fajr"}`+"\n",
		buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestEmitter_WriteError(t *testing.T) {
	err := NewEmitter(failingWriter{}).Emit(Record{})
	assert.ErrorContains(t, err, "broken pipe")
}
