package analysis

import (
	"math"
	"time"

	"github.com/viktsys/gasinsight/models"
)

const slotWidth = 30 * time.Minute

// HalfHourProfile averages the volume entering between consecutive readings per
// half-hour slot of the day. Slots are ordered from the operating day boundary
// and only slots with at least one delta are returned.
func HalfHourProfile(policy models.OperatingDayPolicy, stream models.Stream) []models.SlotAverage {
	const slots = 48
	sums := make([]float64, slots)
	counts := make([]int, slots)

	for i := 1; i < stream.Len(); i++ {
		delta := stream.Readings[i].Volume - stream.Readings[i-1].Volume
		if math.IsNaN(delta) {
			continue
		}
		ts := stream.Readings[i].Timestamp
		idx := int(ts.Sub(models.Midnight(ts)) / slotWidth)
		if idx < 0 || idx >= slots {
			continue
		}
		sums[idx] += delta
		counts[idx]++
	}

	first := int(policy.Boundary() / slotWidth)
	var out []models.SlotAverage
	for k := 0; k < slots; k++ {
		idx := (first + k) % slots
		if counts[idx] == 0 {
			continue
		}
		out = append(out, models.SlotAverage{
			Slot:    slotLabel(idx),
			Average: sums[idx] / float64(counts[idx]),
			Samples: counts[idx],
		})
	}
	return out
}

func slotLabel(idx int) string {
	return time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(idx) * slotWidth).Format("15:04")
}

// Fluctuation is the volume delta of every reading against the previous one.
// The first reading and missing volumes count as 0; repeated timestamps keep the first.
func Fluctuation(stream models.Stream) []models.Delta {
	out := make([]models.Delta, 0, stream.Len())
	var prev float64
	for i, r := range stream.Readings {
		delta := 0.0
		if i > 0 {
			delta = r.Volume - prev
			if math.IsNaN(delta) {
				delta = 0
			}
		}
		prev = r.Volume
		if n := len(out); n > 0 && out[n-1].Timestamp.Equal(r.Timestamp) {
			continue
		}
		out = append(out, models.Delta{Timestamp: r.Timestamp, Volume: delta})
	}
	return out
}

// Gauges projects the pressure and temperature series of a stream.
func Gauges(stream models.Stream) []models.GaugePoint {
	out := make([]models.GaugePoint, 0, stream.Len())
	for _, r := range stream.Readings {
		out = append(out, r.Gauges())
	}
	return out
}

// DenseDaily lays the plant consumption out on every calendar day of [start, end],
// zero filled, with the per-day health of both plant streams together.
func DenseDaily(policy models.OperatingDayPolicy, start, end time.Time, byc, pisos models.Stream, bycDaily, pisosDaily []models.DailyAggregate) []models.DenseDay {
	index := func(daily []models.DailyAggregate) map[time.Time]float64 {
		m := make(map[time.Time]float64, len(daily))
		for _, d := range daily {
			m[d.Day] = d.Consumption
		}
		return m
	}
	b, p := index(bycDaily), index(pisosDaily)
	health := HealthSeries(policy, start, end, byc, pisos)

	out := make([]models.DenseDay, 0, len(health))
	for _, h := range health {
		out = append(out, models.DenseDay{
			Day:       h.Day,
			ByC:       b[h.Day],
			Pisos:     p[h.Day],
			Total:     b[h.Day] + p[h.Day],
			HealthPct: h.HealthPct,
		})
	}
	return out
}

// Totals sums consumption per section in presentation order, followed by the
// plant total byc + pisos.
func Totals(daily map[models.Section][]models.DailyAggregate) []models.SectionTotal {
	sum := func(section models.Section) float64 {
		total := 0.0
		for _, d := range daily[section] {
			total += d.Consumption
		}
		return total
	}

	out := make([]models.SectionTotal, 0, len(models.AllSections)+1)
	for _, s := range models.AllSections {
		out = append(out, models.SectionTotal{Name: s.Label(), Consumption: sum(s)})
	}
	out = append(out, models.SectionTotal{Name: "Total", Consumption: sum(models.SectionByC) + sum(models.SectionPisos)})
	return out
}

const (
	GroupPlant = "plant"
	GroupMeter = "meter"
)

var averageGroups = []struct {
	section models.Section
	group   string
}{
	{models.SectionByC, GroupPlant},
	{models.SectionPisos, GroupPlant},
	{models.SectionHorno, GroupMeter},
	{models.SectionERM, GroupMeter},
	{models.SectionInterno, GroupMeter},
}

// Averages is the mean daily consumption per section: the plain sum for a single
// day, the sum divided by the number of requested days for a range.
func Averages(mode Mode, start, end time.Time, daily map[models.Section][]models.DailyAggregate) []models.SectionAverage {
	days := len(models.DaysInclusive(start, end))
	if mode == ModeDay || days == 0 {
		days = 1
	}

	out := make([]models.SectionAverage, 0, len(averageGroups))
	for _, g := range averageGroups {
		total := 0.0
		for _, d := range daily[g.section] {
			total += d.Consumption
		}
		out = append(out, models.SectionAverage{Section: g.section, Group: g.group, Average: total / float64(days)})
	}
	return out
}
