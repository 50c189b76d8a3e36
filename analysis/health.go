package analysis

import (
	"time"

	"github.com/viktsys/gasinsight/models"
)

// Health is the completeness of the union of streams over [start, end]: the rows
// observed inside [start@boundary, end@boundary + 1 day) against the rows the
// policy expects from every stream on every day, clamped to [0, 100].
func Health(policy models.OperatingDayPolicy, start, end time.Time, streams ...models.Stream) float64 {
	days := len(models.DaysInclusive(start, end))
	if days == 0 || len(streams) == 0 {
		return 0
	}

	from := policy.WindowStart(start)
	to := policy.WindowStart(end).AddDate(0, 0, 1)

	actual := 0
	for _, s := range streams {
		for _, r := range s.Readings {
			if !r.Timestamp.Before(from) && r.Timestamp.Before(to) {
				actual++
			}
		}
	}
	return percent(actual, days*policy.ExpectedPerDay()*len(streams))
}

// HealthSeries returns one completeness value per operating day in [start, end],
// zero for days without readings. The series is always dense.
func HealthSeries(policy models.OperatingDayPolicy, start, end time.Time, streams ...models.Stream) []models.HealthPoint {
	days := models.DaysInclusive(start, end)
	counts := make(map[time.Time]int, len(days))
	for _, s := range streams {
		for _, r := range s.Readings {
			counts[policy.DayKey(r.Timestamp)]++
		}
	}

	expected := policy.ExpectedPerDay() * len(streams)
	series := make([]models.HealthPoint, 0, len(days))
	for _, day := range days {
		series = append(series, models.HealthPoint{Day: day, HealthPct: percent(counts[day], expected)})
	}
	return series
}
