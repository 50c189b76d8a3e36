package ingest

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viktsys/gasinsight/models"
)

func TestParseRawRow(t *testing.T) {
	row := models.RawRow{
		Fecha:          "2025-03-04 06:30:00",
		VolCorregido:   "1250,75",
		FlujoCorregido: "12.5",
		Presion:        "1,8",
		Temperatura:    "",
	}

	reading, err := parseRawRow(row)
	if err != nil {
		t.Fatalf("Failed to parse raw row: %v", err)
	}

	expected := time.Date(2025, 3, 4, 6, 30, 0, 0, time.UTC)
	if !reading.Timestamp.Equal(expected) {
		t.Errorf("Expected timestamp %v, got %v", expected, reading.Timestamp)
	}
	if reading.Volume != 1250.75 {
		t.Errorf("Expected volume 1250.75, got %f", reading.Volume)
	}
	if reading.Pressure != 1.8 {
		t.Errorf("Expected pressure 1.8, got %f", reading.Pressure)
	}
	if !math.IsNaN(reading.Temperature) {
		t.Errorf("Expected missing temperature, got %f", reading.Temperature)
	}
}

func TestParseInvalidTimestamp(t *testing.T) {
	_, err := parseRawRow(models.RawRow{Fecha: "invalid-date", VolCorregido: "1"})
	if err == nil {
		t.Fatal("Expected error for invalid timestamp, got nil")
	}
	if !errors.Is(err, ErrMalformedRow) {
		t.Errorf("Expected ErrMalformedRow, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid timestamp") {
		t.Errorf("Expected 'invalid timestamp' error, got %v", err)
	}
}

func TestParseInvalidNumber(t *testing.T) {
	_, err := parseRawRow(models.RawRow{Fecha: "2025-03-04 06:30:00", VolCorregido: "12", Presion: "abc"})
	assert.ErrorIs(t, err, ErrMalformedRow)
	assert.Contains(t, err.Error(), "presion")
}

func TestParseRejectsInfinity(t *testing.T) {
	for _, value := range []string{"inf", "+Inf", "-inf", "Infinity", "1e999"} {
		_, err := parseRawRow(models.RawRow{Fecha: "2025-03-04 06:30:00", VolCorregido: value})
		assert.ErrorIs(t, err, ErrMalformedRow, value)
	}

	stream := Clean(models.SectionInterno, []models.RawRow{
		{Fecha: "2025-03-04 06:00:00", VolCorregido: "10"},
		{Fecha: "2025-03-04 06:30:00", VolCorregido: "inf"},
		{Fecha: "2025-03-04 07:00:00", VolCorregido: "12"},
	})
	require.Len(t, stream.Readings, 2)
	for _, r := range stream.Readings {
		assert.False(t, math.IsInf(r.Volume, 0))
	}
}

func TestParseTimestampFormats(t *testing.T) {
	want := time.Date(2025, 3, 4, 6, 30, 15, 0, time.UTC)
	for _, value := range []string{
		"2025-03-04 06:30:15",
		"2025-03-04T06:30:15",
		"2025-03-04T06:30:15-05:00",
		" 2025-03-04 06:30:15 ",
	} {
		got, err := ParseTimestamp(value)
		require.NoError(t, err, value)
		assert.Equal(t, want, got, value)
	}
}

func TestCleanDropsDuplicatesAndMalformed(t *testing.T) {
	rows := []models.RawRow{
		{Fecha: "2025-03-04 07:00:00", VolCorregido: "20"},
		{Fecha: "2025-03-04 06:00:00", VolCorregido: "10"},
		{Fecha: "2025-03-04 06:00:00", VolCorregido: "10"},
		{Fecha: "garbage", VolCorregido: "15"},
		{Fecha: "2025-03-04 06:30:00", VolCorregido: "x"},
		{Fecha: "2025-03-04 06:30:42", VolCorregido: "15"},
		{Fecha: "2025-03-04 06:30:10", VolCorregido: "16"},
	}

	stream := Clean(models.SectionERM, rows)
	require.Equal(t, models.SectionERM, stream.Section)
	require.Len(t, stream.Readings, 3)

	assert.Equal(t, time.Date(2025, 3, 4, 6, 0, 0, 0, time.UTC), stream.Readings[0].Timestamp)
	assert.Equal(t, time.Date(2025, 3, 4, 6, 30, 0, 0, time.UTC), stream.Readings[1].Timestamp)
	// 06:30:10 sorts before 06:30:42, so it wins the minute.
	assert.Equal(t, 16.0, stream.Readings[1].Volume)
	assert.Equal(t, 20.0, stream.Readings[2].Volume)
}

func TestCleanFillsZeroSentinels(t *testing.T) {
	rows := []models.RawRow{
		{Fecha: "2025-03-04 06:00:00", VolCorregido: "0", Presion: "0", Temperatura: "0"},
		{Fecha: "2025-03-04 06:30:00", VolCorregido: "100", Presion: "0", Temperatura: "0"},
		{Fecha: "2025-03-04 07:00:00", VolCorregido: "0", Presion: "1,5", Temperatura: "0"},
		{Fecha: "2025-03-04 07:30:00", VolCorregido: "110", Presion: "", Temperatura: "0"},
	}

	readings := Clean(models.SectionInterno, rows).Readings
	require.Len(t, readings, 4)

	volumes := []float64{readings[0].Volume, readings[1].Volume, readings[2].Volume, readings[3].Volume}
	assert.Equal(t, []float64{100, 100, 100, 110}, volumes)
	pressures := []float64{readings[0].Pressure, readings[1].Pressure, readings[2].Pressure, readings[3].Pressure}
	assert.Equal(t, []float64{1.5, 1.5, 1.5, 1.5}, pressures)

	for _, r := range readings {
		assert.True(t, math.IsNaN(r.Temperature), "a field missing everywhere stays missing")
	}
}

func TestCleanEmpty(t *testing.T) {
	stream := Clean(models.SectionHorno, nil)
	assert.True(t, stream.Empty())
}

func TestCleanedStreamsAreStrictlyIncreasing(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := time.Date(2025, 3, 4, 6, 0, 0, 0, time.UTC)

	for iter := 0; iter < 200; iter++ {
		var rows []models.RawRow
		n := rng.Intn(60)
		for i := 0; i < n; i++ {
			ts := base.Add(time.Duration(rng.Intn(180)) * time.Minute).Add(time.Duration(rng.Intn(60)) * time.Second)
			vol := "0"
			if rng.Intn(4) > 0 {
				vol = fmt.Sprintf("%d,%d", 1000+rng.Intn(500), rng.Intn(10))
			}
			row := models.RawRow{
				Fecha:        ts.Format(models.TimestampLayout),
				VolCorregido: vol,
				Presion:      fmt.Sprintf("%d", rng.Intn(3)),
				Temperatura:  fmt.Sprintf("%d.5", rng.Intn(30)),
			}
			rows = append(rows, row)
			if rng.Intn(5) == 0 {
				rows = append(rows, row)
			}
		}
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })

		readings := Clean(models.SectionERM, rows).Readings
		for i := 1; i < len(readings); i++ {
			if !readings[i].Timestamp.After(readings[i-1].Timestamp) {
				t.Fatalf("iteration %d: timestamps not strictly increasing at %d", iter, i)
			}
		}
		for _, r := range readings {
			assert.Zero(t, r.Timestamp.Second())
			assert.NotEqual(t, 0.0, r.Volume)
			assert.NotEqual(t, 0.0, r.Pressure)
		}

		again := CleanReadings(readings)
		require.Len(t, again, len(readings))
		for i := range readings {
			assertSameReading(t, readings[i], again[i])
		}
	}
}

func assertSameReading(t *testing.T, want, got models.Reading) {
	t.Helper()
	assert.Equal(t, want.Timestamp, got.Timestamp)
	for _, pair := range [][2]float64{
		{want.Volume, got.Volume},
		{want.Flow, got.Flow},
		{want.Pressure, got.Pressure},
		{want.Temperature, got.Temperature},
	} {
		if math.IsNaN(pair[0]) {
			assert.True(t, math.IsNaN(pair[1]))
			continue
		}
		assert.Equal(t, pair[0], pair[1])
	}
}
