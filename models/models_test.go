package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadingMarshalsMissingAsNull(t *testing.T) {
	r := Reading{
		Timestamp:   time.Date(2025, 3, 4, 6, 30, 0, 0, time.UTC),
		Volume:      1200.5,
		Flow:        math.NaN(),
		Pressure:    math.NaN(),
		Temperature: 21.5,
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "2025-03-04 06:30:00", decoded["timestamp"])
	assert.Equal(t, 1200.5, decoded["cumulative_volume"])
	assert.Nil(t, decoded["pressure"])
	assert.Nil(t, decoded["flow"])
	assert.Equal(t, 21.5, decoded["temperature"])
}

func TestSectionLabel(t *testing.T) {
	assert.Equal(t, "Baños y Cocina", SectionByC.Label())
	assert.Equal(t, "Horno 5", SectionHorno.Label())
	assert.True(t, SectionPisos.Valid())
	assert.False(t, Section("boiler").Valid())
}

func TestPolicyDayKey(t *testing.T) {
	cases := []struct {
		policy OperatingDayPolicy
		at     time.Time
		want   time.Time
	}{
		{StandardPolicy, time.Date(2025, 3, 4, 6, 0, 0, 0, time.UTC), time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)},
		{StandardPolicy, time.Date(2025, 3, 4, 5, 59, 0, 0, time.UTC), time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)},
		{StandardPolicy, time.Date(2025, 3, 1, 0, 10, 0, 0, time.UTC), time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)},
		{Shift0630Policy, time.Date(2025, 3, 4, 6, 15, 0, 0, time.UTC), time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)},
		{Shift0630Policy, time.Date(2025, 3, 4, 6, 30, 0, 0, time.UTC), time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)},
	}

	for _, c := range cases {
		got := c.policy.DayKey(c.at)
		if !got.Equal(c.want) {
			t.Errorf("%s DayKey(%v) = %v, want %v", c.policy.Name, c.at, got, c.want)
		}
	}
}

func TestPolicyExpectedPerDay(t *testing.T) {
	assert.Equal(t, 48, StandardPolicy.ExpectedPerDay())
	assert.Equal(t, 96, Shift0630Policy.ExpectedPerDay())
	assert.Equal(t, 0, OperatingDayPolicy{}.ExpectedPerDay())
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("")
	require.NoError(t, err)
	assert.Equal(t, StandardPolicy, p)

	p, err = PolicyByName("shift0630")
	require.NoError(t, err)
	assert.Equal(t, 30, p.BoundaryMinute)

	_, err = PolicyByName("midnight")
	assert.Error(t, err)
}

func TestPolicyValidate(t *testing.T) {
	assert.NoError(t, StandardPolicy.Validate())
	assert.Error(t, OperatingDayPolicy{BoundaryHour: 24, SamplingIntervalMinutes: 30}.Validate())
	assert.Error(t, OperatingDayPolicy{BoundaryHour: 6, SamplingIntervalMinutes: 7}.Validate())
}

func TestDaysInclusive(t *testing.T) {
	start := time.Date(2025, 2, 27, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)

	days := DaysInclusive(start, end)
	require.Len(t, days, 4)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), days[2])
	assert.Empty(t, DaysInclusive(end, start))
}
