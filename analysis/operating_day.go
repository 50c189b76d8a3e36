package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/viktsys/gasinsight/models"
)

// DayLabelLayout renders a day as dd-mm.
const DayLabelLayout = "02-01"

// DailyAggregates groups a stream into operating days and computes, per day, the
// consumption (last cumulative volume minus first) and the completeness against
// the policy's expected record count. Only days with readings are returned, in
// day order.
func DailyAggregates(policy models.OperatingDayPolicy, stream models.Stream) []models.DailyAggregate {
	if stream.Empty() {
		return nil
	}

	readings := make([]models.Reading, stream.Len())
	copy(readings, stream.Readings)
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})

	expected := policy.ExpectedPerDay()
	var (
		out   []models.DailyAggregate
		day   time.Time
		first float64
		last  float64
		count int
	)
	flush := func() {
		if count == 0 {
			return
		}
		out = append(out, models.DailyAggregate{
			Section:         stream.Section,
			Day:             day,
			DayLabel:        day.Format(DayLabelLayout),
			Consumption:     consumption(first, last),
			ExpectedRecords: expected,
			ActualRecords:   count,
			HealthPct:       percent(count, expected),
		})
	}

	for _, r := range readings {
		key := policy.DayKey(r.Timestamp)
		if count == 0 || !key.Equal(day) {
			flush()
			day, first, count = key, r.Volume, 0
		}
		last = r.Volume
		count++
	}
	flush()
	return out
}

func consumption(first, last float64) float64 {
	c := last - first
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return 0
	}
	return c
}

// percent is min(100, 100*actual/expected), 0 when nothing is expected.
func percent(actual, expected int) float64 {
	if expected <= 0 || actual <= 0 {
		return 0
	}
	return math.Min(100, 100*float64(actual)/float64(expected))
}

// clipDays keeps the aggregates whose operating day lies in [start, end].
func clipDays(daily []models.DailyAggregate, start, end time.Time) []models.DailyAggregate {
	start, end = models.Midnight(start), models.Midnight(end)
	out := daily[:0:0]
	for _, d := range daily {
		if d.Day.Before(start) || d.Day.After(end) {
			continue
		}
		out = append(out, d)
	}
	return out
}
