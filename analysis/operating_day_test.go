package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viktsys/gasinsight/models"
)

func TestConsumptionIsLastMinusFirst(t *testing.T) {
	ts := []time.Time{at("2025-03-03", "07:00"), at("2025-03-03", "12:00"), at("2025-03-04", "05:30")}
	daily := DailyAggregates(models.StandardPolicy, volumes(models.SectionERM, ts, 10, 15, 22))

	require.Len(t, daily, 1)
	assert.Equal(t, 12.0, daily[0].Consumption)
	assert.Equal(t, date("2025-03-03"), daily[0].Day)
	assert.Equal(t, "03-03", daily[0].DayLabel)
	assert.Equal(t, 48, daily[0].ExpectedRecords)
	assert.Equal(t, 3, daily[0].ActualRecords)
	assert.InDelta(t, 6.25, daily[0].HealthPct, 1e-9)
}

func TestSingleReadingDayIsZero(t *testing.T) {
	daily := DailyAggregates(models.StandardPolicy, volumes(models.SectionHorno, []time.Time{at("2025-03-03", "09:00")}, 500))
	require.Len(t, daily, 1)
	assert.Equal(t, 0.0, daily[0].Consumption)
}

func TestMissingVolumeYieldsZero(t *testing.T) {
	ts := []time.Time{at("2025-03-03", "07:00"), at("2025-03-03", "08:00")}
	daily := DailyAggregates(models.StandardPolicy, volumes(models.SectionERM, ts, math.NaN(), math.NaN()))
	require.Len(t, daily, 1)
	assert.Equal(t, 0.0, daily[0].Consumption)
}

func TestOperatingDayBoundaries(t *testing.T) {
	ts := []time.Time{
		at("2025-03-03", "05:59"), // previous day
		at("2025-03-03", "06:00"),
		at("2025-03-03", "06:15"),
		at("2025-03-03", "06:30"),
		at("2025-03-04", "05:45"),
	}
	stream := volumes(models.SectionInterno, ts, 1, 2, 3, 4, 9)

	standard := DailyAggregates(models.StandardPolicy, stream)
	require.Len(t, standard, 2)
	assert.Equal(t, date("2025-03-02"), standard[0].Day)
	assert.Equal(t, 0.0, standard[0].Consumption)
	assert.Equal(t, date("2025-03-03"), standard[1].Day)
	assert.Equal(t, 7.0, standard[1].Consumption)

	shifted := DailyAggregates(models.Shift0630Policy, stream)
	require.Len(t, shifted, 2)
	assert.Equal(t, 3, shifted[0].ActualRecords)
	assert.Equal(t, 2.0, shifted[0].Consumption)
	assert.Equal(t, 96, shifted[0].ExpectedRecords)
	assert.Equal(t, 5.0, shifted[1].Consumption)
}

func TestDailyAggregatesEmpty(t *testing.T) {
	assert.Empty(t, DailyAggregates(models.StandardPolicy, models.Stream{}))
}

func TestDailyHealthIsClamped(t *testing.T) {
	stream := regular(models.SectionByC, at("2025-03-03", "06:00"), 10*time.Minute, 144, 0, 1)
	daily := DailyAggregates(models.StandardPolicy, stream)
	require.Len(t, daily, 1)
	assert.Equal(t, 100.0, daily[0].HealthPct)
	assert.Equal(t, 143.0, daily[0].Consumption)
}

func TestClipDays(t *testing.T) {
	daily := []models.DailyAggregate{{Day: date("2025-03-02")}, {Day: date("2025-03-03")}, {Day: date("2025-03-05")}}
	clipped := clipDays(daily, date("2025-03-03"), date("2025-03-04"))
	require.Len(t, clipped, 1)
	assert.Equal(t, date("2025-03-03"), clipped[0].Day)
	assert.Len(t, daily, 3)
}
