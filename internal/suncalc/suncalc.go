// Package suncalc computes sunrise and sunset for the farm location and
// answers whether it is daylight at a given moment.
package suncalc

import (
	"sync"
	"time"

	"github.com/sj14/astral/pkg/astral"

	"github.com/farmwatch/farmwatch/internal/errors"
)

// Daytime hours used when the sun does not rise or set on a date.
const (
	fallbackDayStart = 6
	fallbackDayEnd   = 18
)

// SunEventTimes holds the sun event times of one date in the configured zone.
type SunEventTimes struct {
	CivilDawn time.Time
	Sunrise   time.Time
	Sunset    time.Time
	CivilDusk time.Time
}

type cacheEntry struct {
	times SunEventTimes
	err   error
}

// SunCalc caches sun event times per date.
type SunCalc struct {
	mu       sync.RWMutex
	cache    map[string]cacheEntry
	observer astral.Observer
	loc      *time.Location
}

// NewSunCalc returns a calculator for the given coordinates. Times are
// reported in loc, or time.Local when loc is nil.
func NewSunCalc(latitude, longitude float64, loc *time.Location) *SunCalc {
	if loc == nil {
		loc = time.Local
	}
	return &SunCalc{
		cache:    make(map[string]cacheEntry),
		observer: astral.Observer{Latitude: latitude, Longitude: longitude},
		loc:      loc,
	}
}

// GetSunEventTimes returns the sun event times of the date containing date.
func (sc *SunCalc) GetSunEventTimes(date time.Time) (SunEventTimes, error) {
	date = date.In(sc.loc)
	key := date.Format("2006-01-02")

	sc.mu.RLock()
	entry, ok := sc.cache[key]
	sc.mu.RUnlock()
	if ok {
		return entry.times, entry.err
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, sc.loc)
	times, err := sc.calculate(day)

	sc.mu.Lock()
	sc.cache[key] = cacheEntry{times: times, err: err}
	sc.mu.Unlock()
	return times, err
}

func (sc *SunCalc) calculate(day time.Time) (SunEventTimes, error) {
	wrap := func(err error, event string) error {
		return errors.New(err).
			Component("suncalc").
			Category(errors.CategoryProcessing).
			Context("event", event).
			Context("date", day.Format("2006-01-02")).
			Build()
	}

	dawn, err := astral.Dawn(sc.observer, day, astral.DepressionCivil)
	if err != nil {
		return SunEventTimes{}, wrap(err, "civil_dawn")
	}
	sunrise, err := astral.Sunrise(sc.observer, day)
	if err != nil {
		return SunEventTimes{}, wrap(err, "sunrise")
	}
	sunset, err := astral.Sunset(sc.observer, day)
	if err != nil {
		return SunEventTimes{}, wrap(err, "sunset")
	}
	dusk, err := astral.Dusk(sc.observer, day, astral.DepressionCivil)
	if err != nil {
		return SunEventTimes{}, wrap(err, "civil_dusk")
	}

	return SunEventTimes{
		CivilDawn: dawn.In(sc.loc),
		Sunrise:   sunrise.In(sc.loc),
		Sunset:    sunset.In(sc.loc),
		CivilDusk: dusk.In(sc.loc),
	}, nil
}

// IsDaylight reports whether t is between sunrise and sunset. When the sun
// events cannot be computed, 06:00 to 18:00 local time counts as day.
func (sc *SunCalc) IsDaylight(t time.Time) bool {
	times, err := sc.GetSunEventTimes(t)
	if err != nil {
		h := t.In(sc.loc).Hour()
		return h >= fallbackDayStart && h < fallbackDayEnd
	}
	return !t.Before(times.Sunrise) && t.Before(times.Sunset)
}

// IsDaytimeHour is the clock-only day rule used without coordinates.
func IsDaytimeHour(t time.Time) bool {
	h := t.Hour()
	return h >= fallbackDayStart && h <= fallbackDayEnd
}
