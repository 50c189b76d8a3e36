package analysis

import (
	"fmt"
	"sort"
	"time"

	"github.com/viktsys/gasinsight/models"
)

// weekOrder lists weekdays Monday first.
var weekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// WeekdayAverages averages daily consumption per weekday across every observed
// week, Monday to Sunday. Weekdays without data are omitted.
func WeekdayAverages(daily []models.DailyAggregate) []models.WeekdayAverage {
	sums := make(map[time.Weekday]float64, 7)
	counts := make(map[time.Weekday]int, 7)
	for _, d := range daily {
		wd := d.Day.Weekday()
		sums[wd] += d.Consumption
		counts[wd]++
	}

	var out []models.WeekdayAverage
	for _, wd := range weekOrder {
		n := counts[wd]
		if n == 0 {
			continue
		}
		out = append(out, models.WeekdayAverage{
			Weekday: wd,
			Name:    wd.String(),
			Average: sums[wd] / float64(n),
			Days:    n,
		})
	}
	return out
}

// WeekKey is the ISO week a day falls in, e.g. 2025-W10.
func WeekKey(day time.Time) string {
	year, week := day.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// Weeks lists the ISO weeks present in the aggregates in chronological order.
func Weeks(daily []models.DailyAggregate) []models.WeekBucket {
	byKey := make(map[string]*models.WeekBucket)
	for _, d := range daily {
		key := WeekKey(d.Day)
		b, ok := byKey[key]
		if !ok {
			byKey[key] = &models.WeekBucket{Key: key, First: d.Day, Last: d.Day}
			continue
		}
		if d.Day.Before(b.First) {
			b.First = d.Day
		}
		if d.Day.After(b.Last) {
			b.Last = d.Day
		}
	}

	out := make([]models.WeekBucket, 0, len(byKey))
	for _, b := range byKey {
		b.Label = fmt.Sprintf("Week of %s to %s", b.First.Format("02 Jan"), b.Last.Format("02 Jan"))
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// CompareWeeks sets the mean daily consumption of each weekday in two weeks side
// by side. Empty keys select the last two weeks in the data.
func CompareWeeks(section models.Section, daily []models.DailyAggregate, first, second string) (models.WeekComparison, error) {
	weeks := Weeks(daily)
	if len(weeks) < 2 {
		return models.WeekComparison{}, fmt.Errorf("%w: %s has %d week(s)", ErrInsufficientHistory, section, len(weeks))
	}
	if first == "" {
		first = weeks[len(weeks)-2].Key
	}
	if second == "" {
		second = weeks[len(weeks)-1].Key
	}

	find := func(key string) (models.WeekBucket, error) {
		for _, w := range weeks {
			if w.Key == key {
				return w, nil
			}
		}
		return models.WeekBucket{}, fmt.Errorf("%w: %s", ErrUnknownWeek, key)
	}
	w1, err := find(first)
	if err != nil {
		return models.WeekComparison{}, err
	}
	w2, err := find(second)
	if err != nil {
		return models.WeekComparison{}, err
	}

	byWeek := func(key string) map[time.Weekday]float64 {
		sums := make(map[time.Weekday]float64)
		counts := make(map[time.Weekday]int)
		for _, d := range daily {
			if WeekKey(d.Day) != key {
				continue
			}
			sums[d.Day.Weekday()] += d.Consumption
			counts[d.Day.Weekday()]++
		}
		for wd, n := range counts {
			sums[wd] /= float64(n)
		}
		return sums
	}
	m1, m2 := byWeek(w1.Key), byWeek(w2.Key)

	cmp := models.WeekComparison{Section: section, First: w1, Second: w2}
	for _, wd := range weekOrder {
		v1, ok1 := m1[wd]
		v2, ok2 := m2[wd]
		if !ok1 && !ok2 {
			continue
		}
		row := models.WeekComparisonRow{Weekday: wd, Name: wd.String()}
		if ok1 {
			row.First = &v1
		}
		if ok2 {
			row.Second = &v2
		}
		cmp.Rows = append(cmp.Rows, row)
	}
	return cmp, nil
}
