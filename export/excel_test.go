package export

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"

	"github.com/viktsys/gasinsight/models"
)

func TestFileName(t *testing.T) {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "IIOT Baños y Cocina 2025-03-03.xlsx", FileName("IIOT", models.SectionByC, start, start))
	assert.Equal(t, "IIOT ERM 2025-03-03 - 2025-03-09.xlsx", FileName("IIOT", models.SectionERM, start, start.AddDate(0, 0, 6)))
}

func TestDailyRoundTrip(t *testing.T) {
	daily := []models.DailyAggregate{
		{Day: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), DayLabel: "03-03", Consumption: 282.5, ExpectedRecords: 48, ActualRecords: 48, HealthPct: 100},
		{Day: time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), DayLabel: "04-03", Consumption: 0, ExpectedRecords: 48, ActualRecords: 1, HealthPct: 2.0833333333333335},
	}

	data, err := Bytes("Baños y Cocina", DailySheet(daily))
	require.NoError(t, err)

	back, err := ReadDaily(data)
	require.NoError(t, err)
	require.Len(t, back, len(daily))
	for i := range daily {
		assert.Equal(t, daily[i].DayLabel, back[i].DayLabel)
		assert.Equal(t, daily[i].Consumption, back[i].Consumption)
		assert.True(t, daily[i].Day.Equal(back[i].Day), "day %d: %s", i, back[i].Day)
		assert.Equal(t, daily[i].ActualRecords, back[i].ActualRecords)
	}
}

func TestDailySheetWritesDateCells(t *testing.T) {
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	data, err := Bytes("ERM", DailySheet([]models.DailyAggregate{{Day: day, DayLabel: "03-03"}}))
	require.NoError(t, err)

	file, err := xlsx.OpenBinary(data)
	require.NoError(t, err)
	cell := file.Sheets[0].Rows[1].Cells[0]
	assert.NotEqual(t, "2025-03-03", cell.Value, "stored as a date serial")
	got, err := cell.GetTime(file.Date1904)
	require.NoError(t, err)
	assert.Equal(t, day.Format("2006-01-02"), got.Round(24*time.Hour).Format("2006-01-02"))
}

func TestRawSheetBlanksMissing(t *testing.T) {
	stream := models.Stream{Section: models.SectionInterno, Readings: []models.Reading{
		{Timestamp: time.Date(2025, 3, 3, 6, 0, 0, 0, time.UTC), Volume: 10.5, Flow: math.NaN(), Pressure: 1.2, Temperature: math.NaN()},
	}}

	data, err := Bytes("Interno", RawSheet(stream))
	require.NoError(t, err)

	file, err := xlsx.OpenBinary(data)
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)
	rows := file.Sheets[0].Rows
	require.Len(t, rows, 2)
	assert.Equal(t, "fecha", rows[0].Cells[0].Value)
	assert.Equal(t, "2025-03-03 06:00:00", rows[1].Cells[0].Value)
	assert.Equal(t, "10.5", rows[1].Cells[1].Value)
	assert.Equal(t, "", rows[1].Cells[2].Value)
}

func TestReadDailyRejectsGarbage(t *testing.T) {
	_, err := ReadDaily([]byte("not a workbook"))
	assert.Error(t, err)
}
