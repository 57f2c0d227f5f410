package preprocess

import "time"

// Seasons by meteorological month grouping.
const (
	SeasonSpring = "spring"
	SeasonSummer = "summer"
	SeasonAutumn = "autumn"
	SeasonWinter = "winter"
)

// Window sizes for the derived features, in rows of hourly data.
const (
	window24h = 24
	window7d  = 168
)

// featureColumns get moving window and difference features.
var featureColumns = []string{ColTemperature, ColHumidity, ColSoilMoisture}

// DaylightFunc reports whether the sun is up at t.
type DaylightFunc func(t time.Time) bool

// SeasonOf returns the season for a month.
func SeasonOf(m time.Month) string {
	switch m {
	case time.December, time.January, time.February:
		return SeasonWinter
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	default:
		return SeasonAutumn
	}
}

// HeatIndex is the simplified heat index used for the heat_index feature.
func HeatIndex(temperature, humidity float64) float64 {
	return 0.5 * (temperature + 61.0 + (temperature-68.0)*1.2 + humidity*0.094)
}

// CreateFeatures adds calendar, moving window, difference, heat index and
// optional daylight features to f.
func CreateFeatures(f *Frame, daylight DaylightFunc) {
	n := f.Len()
	hour := make([]float64, n)
	dow := make([]float64, n)
	month := make([]float64, n)
	season := make([]string, n)
	for i, ts := range f.Timestamps {
		hour[i] = float64(ts.Hour())
		// Monday is 0
		dow[i] = float64((int(ts.Weekday()) + 6) % 7)
		month[i] = float64(ts.Month())
		season[i] = SeasonOf(ts.Month())
	}
	f.Set("hour", hour)
	f.Set("day_of_week", dow)
	f.Set("month", month)
	f.Labels["season"] = season

	for _, col := range featureColumns {
		values, ok := f.Columns[col]
		if !ok {
			continue
		}
		f.Set(col+"_ma_24h", trailingRolling(values, window24h, mean))
		f.Set(col+"_ma_7d", trailingRolling(values, window7d, mean))
		f.Set(col+"_diff", diff(values, 1))
		f.Set(col+"_diff_24h", diff(values, window24h))
	}

	if t, ok := f.Columns[ColTemperature]; ok {
		if h, ok := f.Columns[ColHumidity]; ok {
			hi := make([]float64, n)
			for i := range hi {
				hi[i] = HeatIndex(t[i], h[i])
			}
			f.Set("heat_index", hi)
		}
	}

	for _, col := range featureColumns {
		values, ok := f.Columns[col]
		if !ok {
			continue
		}
		f.Set(col+"_std_24h", trailingRolling(values, window24h, sampleStd))
		f.Set(col+"_min_24h", trailingRolling(values, window24h, func(w []float64) float64 { lo, _ := minMax(w); return lo }))
		f.Set(col+"_max_24h", trailingRolling(values, window24h, func(w []float64) float64 { _, hi := minMax(w); return hi }))
	}

	if daylight != nil {
		up := make([]float64, n)
		for i, ts := range f.Timestamps {
			if daylight(ts) {
				up[i] = 1
			}
		}
		f.Set("is_daylight", up)
	}
}

// diff returns x[i] - x[i-periods]; the first periods rows are NaN.
func diff(values []float64, periods int) []float64 {
	out := nanSlice(len(values))
	for i := periods; i < len(values); i++ {
		out[i] = values[i] - values[i-periods]
	}
	return out
}
