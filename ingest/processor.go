package ingest

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/viktsys/gasinsight/logger"
	"github.com/viktsys/gasinsight/models"
)

// ErrMalformedRow marks a row whose timestamp or numeric fields cannot be parsed.
// Such rows are dropped during cleaning.
var ErrMalformedRow = errors.New("malformed row")

var timestampLayouts = []string{
	models.TimestampLayout,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05 -0700",
}

// ParseTimestamp accepts the formats the store and the cache files use and
// returns the wall clock reading, ignoring any zone offset.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid timestamp %q", ErrMalformedRow, value)
}

// parseValue reads a locale formatted decimal. Empty and null markers are missing (NaN),
// infinities are malformed.
func parseValue(value string) (float64, error) {
	value = strings.TrimSpace(value)
	switch strings.ToLower(value) {
	case "", "nan", "null", "none":
		return math.NaN(), nil
	}
	f, err := strconv.ParseFloat(strings.Replace(value, ",", ".", -1), 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: invalid number %q", ErrMalformedRow, value)
	}
	return f, nil
}

func parseRawRow(row models.RawRow) (models.Reading, error) {
	var reading models.Reading

	ts, err := ParseTimestamp(row.Fecha)
	if err != nil {
		return reading, err
	}

	volume, err := parseValue(row.VolCorregido)
	if err != nil {
		return reading, fmt.Errorf("vol_corregido: %w", err)
	}
	flow, err := parseValue(row.FlujoCorregido)
	if err != nil {
		return reading, fmt.Errorf("flujo_corregido: %w", err)
	}
	pressure, err := parseValue(row.Presion)
	if err != nil {
		return reading, fmt.Errorf("presion: %w", err)
	}
	temperature, err := parseValue(row.Temperatura)
	if err != nil {
		return reading, fmt.Errorf("temperatura: %w", err)
	}

	reading.Timestamp = ts
	reading.Volume = volume
	reading.Flow = flow
	reading.Pressure = pressure
	reading.Temperature = temperature
	return reading, nil
}

// Clean turns the raw rows of one sensor into a cleaned stream: exact duplicates
// and malformed rows are dropped, readings are sorted and truncated to the minute,
// one reading is kept per minute and gauge gaps are filled.
func Clean(section models.Section, rows []models.RawRow) models.Stream {
	seen := make(map[models.RawRow]struct{}, len(rows))
	readings := make([]models.Reading, 0, len(rows))
	duplicates, malformed := 0, 0

	for _, row := range rows {
		if _, ok := seen[row]; ok {
			duplicates++
			continue
		}
		seen[row] = struct{}{}

		reading, err := parseRawRow(row)
		if err != nil {
			malformed++
			continue
		}
		readings = append(readings, reading)
	}

	readings = CleanReadings(readings)

	logger.GetLogger().WithComponent("cleaner").WithFields(logger.Fields{
		"section":    section,
		"raw_rows":   len(rows),
		"duplicates": duplicates,
		"malformed":  malformed,
		"readings":   len(readings),
	}).Debug("stream cleaned")

	return models.Stream{Section: section, Readings: readings}
}

// CleanReadings applies the ordering and gap filling steps to parsed readings.
// Applying it to its own output returns the same readings.
func CleanReadings(readings []models.Reading) []models.Reading {
	out := make([]models.Reading, len(readings))
	copy(out, readings)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	unique := out[:0]
	for _, r := range out {
		r.Timestamp = r.Timestamp.Truncate(time.Minute)
		if n := len(unique); n > 0 && unique[n-1].Timestamp.Equal(r.Timestamp) {
			continue
		}
		unique = append(unique, r)
	}
	out = unique

	fillGaps(out, func(r *models.Reading) *float64 { return &r.Volume })
	fillGaps(out, func(r *models.Reading) *float64 { return &r.Pressure })
	fillGaps(out, func(r *models.Reading) *float64 { return &r.Temperature })
	return out
}

// fillGaps treats zero as missing, then forward fills and back fills the field.
// A field missing everywhere stays NaN.
func fillGaps(readings []models.Reading, field func(*models.Reading) *float64) {
	last := math.NaN()
	for i := range readings {
		v := field(&readings[i])
		if *v == 0 {
			*v = math.NaN()
		}
		if math.IsNaN(*v) {
			*v = last
		} else {
			last = *v
		}
	}

	next := math.NaN()
	for i := len(readings) - 1; i >= 0; i-- {
		v := field(&readings[i])
		if math.IsNaN(*v) {
			*v = next
		} else {
			next = *v
		}
	}
}
