package praytime

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waktusholat/internal/model"
)

var (
	sgt       = time.FixedZone("SGT", 8*3600)
	singapore = model.Coordinates{Latitude: 1.35, Longitude: 103.8}
	defaults  = model.CalcConfig{Method: "singapore", Madhab: "shafi"}
)

func TestSchedule_SingaporeReference(t *testing.T) {
	sched, err := New().Schedule(time.Date(2024, 6, 1, 0, 0, 0, 0, sgt), singapore, defaults)
	require.NoError(t, err)

	// Published MUIS times for 2024-06-01. MUIS rounds up and adds a small
	// safety margin, so allow two minutes either way.
	want := map[model.Prayer]string{
		model.Fajr:    "05:36",
		model.Dhuhr:   "13:02",
		model.Asr:     "16:27",
		model.Maghrib: "19:09",
		model.Isha:    "20:24",
	}
	for p, hhmm := range want {
		ref, err := time.ParseInLocation("2006-01-02 15:04", "2024-06-01 "+hhmm, sgt)
		require.NoError(t, err)
		got := sched.Time(p)
		diff := got.Sub(ref)
		if diff < 0 {
			diff = -diff
		}
		assert.LessOrEqual(t, diff, 2*time.Minute, "%s: got %s want about %s", p, got.Format("15:04"), hhmm)
		assert.Equal(t, sgt, got.Location())
	}
}

func TestSchedule_StrictlyIncreasing(t *testing.T) {
	places := []model.Coordinates{
		singapore,
		{Latitude: -6.2088, Longitude: 106.8456}, // Jakarta
		{Latitude: 21.3891, Longitude: 39.8579},  // Mecca
		{Latitude: 51.5074, Longitude: -0.1278},  // London
		{Latitude: -33.8688, Longitude: 151.2093},
		{Latitude: 40.7128, Longitude: -74.0060},
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, method := range MethodNames() {
		for _, madhab := range []string{MadhabShafi, MadhabHanafi} {
			cfg := model.CalcConfig{Method: method, Madhab: madhab, HighLatitudeRule: HighLatMiddleOfNight}
			for _, c := range places {
				for day := 0; day < 365; day += 17 {
					date := start.AddDate(0, 0, day)
					sched, err := New().Schedule(date, c, cfg)
					require.NoError(t, err, "%s %s %s %s", method, madhab, c, date.Format("2006-01-02"))
					for i := 1; i < model.PrayerCount; i++ {
						assert.True(t, sched.Times[i].After(sched.Times[i-1]),
							"%s %s %s: %s not after %s", method, c, date.Format("2006-01-02"), model.Prayer(i), model.Prayer(i-1))
					}
				}
			}
		}
	}
}

func TestSchedule_Deterministic(t *testing.T) {
	date := time.Date(2024, 6, 1, 15, 0, 0, 0, sgt)
	a, err := New().Schedule(date, singapore, defaults)
	require.NoError(t, err)
	b, err := New().Schedule(date, singapore, defaults)
	require.NoError(t, err)
	assert.Equal(t, a.Times, b.Times)
}

func TestSchedule_TimeOfDayIgnored(t *testing.T) {
	a, err := New().Schedule(time.Date(2024, 6, 1, 0, 0, 0, 0, sgt), singapore, defaults)
	require.NoError(t, err)
	b, err := New().Schedule(time.Date(2024, 6, 1, 23, 59, 0, 0, sgt), singapore, defaults)
	require.NoError(t, err)
	assert.Equal(t, a.Times, b.Times)
}

func TestSchedule_HanafiAsrLater(t *testing.T) {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, sgt)
	shafi, err := New().Schedule(date, singapore, defaults)
	require.NoError(t, err)
	hanafi, err := New().Schedule(date, singapore, model.CalcConfig{Method: "singapore", Madhab: "hanafi"})
	require.NoError(t, err)

	assert.True(t, hanafi.Time(model.Asr).After(shafi.Time(model.Asr)))
	assert.Equal(t, shafi.Time(model.Fajr), hanafi.Time(model.Fajr))
}

func TestSchedule_IshaMinutesMethod(t *testing.T) {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	sched, err := New().Schedule(date, model.Coordinates{Latitude: 21.3891, Longitude: 39.8579}, model.CalcConfig{Method: "umm_al_qura"})
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, sched.Time(model.Isha).Sub(sched.Time(model.Maghrib)))
}

func TestSchedule_HighLatitude(t *testing.T) {
	oslo := model.Coordinates{Latitude: 59.9139, Longitude: 10.7522}
	midsummer := time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)

	var ishas []time.Time
	for _, rule := range HighLatRules() {
		sched, err := New().Schedule(midsummer, oslo, model.CalcConfig{Method: "mwl", HighLatitudeRule: rule})
		require.NoError(t, err, rule)
		require.NoError(t, sched.Validate(), rule)
		ishas = append(ishas, sched.Time(model.Isha))
	}
	// A seventh of the night ends Isha well before the middle of it.
	assert.True(t, ishas[1].Before(ishas[0]), "seventh %s, middle %s", ishas[1], ishas[0])

	defaulted, err := New().Schedule(midsummer, oslo, model.CalcConfig{Method: "mwl"})
	require.NoError(t, err)
	assert.True(t, defaulted.Time(model.Isha).Equal(ishas[0]))
}

func TestSchedule_InvalidInput(t *testing.T) {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, sgt)
	tests := []struct {
		name   string
		coords model.Coordinates
		cfg    model.CalcConfig
	}{
		{"latitude too large", model.Coordinates{Latitude: 91, Longitude: 0}, defaults},
		{"longitude too small", model.Coordinates{Latitude: 0, Longitude: -181}, defaults},
		{"unknown method", singapore, model.CalcConfig{Method: "sundial"}},
		{"unknown madhab", singapore, model.CalcConfig{Madhab: "maliki-ish"}},
		{"unknown rule", singapore, model.CalcConfig{HighLatitudeRule: "sometimes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Schedule(date, tt.coords, tt.cfg)
			assert.ErrorIs(t, err, model.ErrCalculation)
		})
	}
}

func TestLookupMethod(t *testing.T) {
	m, err := LookupMethod("")
	require.NoError(t, err)
	assert.Equal(t, DefaultMethod, m.Name)

	m, err = LookupMethod(" ISNA ")
	require.NoError(t, err)
	assert.Equal(t, "isna", m.Name)

	_, err = LookupMethod("nope")
	assert.Error(t, err)
	assert.Contains(t, MethodNames(), "moonsighting")
	assert.True(t, sort.StringsAreSorted(MethodNames()))
}

func TestValidHighLatRule(t *testing.T) {
	for _, r := range HighLatRules() {
		assert.True(t, ValidHighLatRule(r), r)
	}
	assert.True(t, ValidHighLatRule(" Middle_Of_Night "))
	assert.False(t, ValidHighLatRule("none"))
	assert.False(t, ValidHighLatRule("sometimes"))
}

func TestSchedule_QatarIshaInterval(t *testing.T) {
	doha := model.Coordinates{Latitude: 25.2854, Longitude: 51.5310}
	sched, err := New().Schedule(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), doha, model.CalcConfig{Method: "qatar"})
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, sched.Time(model.Isha).Sub(sched.Time(model.Maghrib)))
}
