package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viktsys/gasinsight/models"
)

func aggregates(pairs ...interface{}) []models.DailyAggregate {
	var out []models.DailyAggregate
	for i := 0; i < len(pairs); i += 2 {
		day := date(pairs[i].(string))
		out = append(out, models.DailyAggregate{Section: models.SectionByC, Day: day, DayLabel: day.Format(DayLabelLayout), Consumption: pairs[i+1].(float64)})
	}
	return out
}

func TestWeekdayAverages(t *testing.T) {
	// 2025-03-03 and 2025-03-10 are Mondays
	daily := aggregates(
		"2025-03-09", 7.0,
		"2025-03-03", 10.0,
		"2025-03-04", 4.0,
		"2025-03-10", 20.0,
	)

	avg := WeekdayAverages(daily)
	require.Len(t, avg, 3)
	assert.Equal(t, time.Monday, avg[0].Weekday)
	assert.Equal(t, "Monday", avg[0].Name)
	assert.Equal(t, 15.0, avg[0].Average)
	assert.Equal(t, 2, avg[0].Days)
	assert.Equal(t, time.Tuesday, avg[1].Weekday)
	assert.Equal(t, time.Sunday, avg[2].Weekday)
}

func TestWeeks(t *testing.T) {
	daily := aggregates(
		"2025-03-11", 1.0,
		"2025-03-03", 1.0,
		"2025-03-09", 1.0,
		"2025-03-12", 1.0,
	)

	weeks := Weeks(daily)
	require.Len(t, weeks, 2)
	assert.Equal(t, "2025-W10", weeks[0].Key)
	assert.Equal(t, "Week of 03 Mar to 09 Mar", weeks[0].Label)
	assert.Equal(t, "2025-W11", weeks[1].Key)
	assert.Equal(t, "Week of 11 Mar to 12 Mar", weeks[1].Label)
}

func TestWeekKeyAcrossYears(t *testing.T) {
	assert.Equal(t, "2025-W01", WeekKey(date("2024-12-30")))
	assert.Equal(t, "2026-W53", WeekKey(date("2027-01-01")))
}

func TestCompareWeeksInsufficientHistory(t *testing.T) {
	daily := aggregates("2025-03-03", 10.0, "2025-03-05", 12.0)
	_, err := CompareWeeks(models.SectionByC, daily, "", "")
	assert.ErrorIs(t, err, ErrInsufficientHistory)

	_, err = CompareWeeks(models.SectionByC, nil, "", "")
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestCompareWeeksDefaultsToLastTwo(t *testing.T) {
	daily := aggregates(
		"2025-02-24", 1.0,
		"2025-03-03", 10.0,
		"2025-03-05", 12.0,
		"2025-03-10", 20.0,
		"2025-03-16", 30.0,
	)

	cmp, err := CompareWeeks(models.SectionByC, daily, "", "")
	require.NoError(t, err)
	assert.Equal(t, "2025-W10", cmp.First.Key)
	assert.Equal(t, "2025-W11", cmp.Second.Key)

	require.Len(t, cmp.Rows, 3)
	assert.Equal(t, time.Monday, cmp.Rows[0].Weekday)
	require.NotNil(t, cmp.Rows[0].First)
	require.NotNil(t, cmp.Rows[0].Second)
	assert.Equal(t, 10.0, *cmp.Rows[0].First)
	assert.Equal(t, 20.0, *cmp.Rows[0].Second)

	assert.Equal(t, time.Wednesday, cmp.Rows[1].Weekday)
	assert.Equal(t, 12.0, *cmp.Rows[1].First)
	assert.Nil(t, cmp.Rows[1].Second)

	assert.Equal(t, time.Sunday, cmp.Rows[2].Weekday)
	assert.Nil(t, cmp.Rows[2].First)
	assert.Equal(t, 30.0, *cmp.Rows[2].Second)
}

func TestCompareWeeksExplicitAndUnknown(t *testing.T) {
	daily := aggregates("2025-02-24", 1.0, "2025-03-03", 10.0, "2025-03-10", 20.0)

	cmp, err := CompareWeeks(models.SectionByC, daily, "2025-W09", "2025-W11")
	require.NoError(t, err)
	assert.Equal(t, 1.0, *cmp.Rows[0].First)
	assert.Equal(t, 20.0, *cmp.Rows[0].Second)

	_, err = CompareWeeks(models.SectionByC, daily, "2024-W01", "2025-W11")
	assert.ErrorIs(t, err, ErrUnknownWeek)
}
