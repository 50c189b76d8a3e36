package models

import (
	"fmt"
	"time"
)

const minutesPerDay = 24 * 60

// OperatingDayPolicy defines where an operating day starts and how often sensors report.
type OperatingDayPolicy struct {
	Name                    string `yaml:"name" toml:"name" json:"name"`
	BoundaryHour            int    `yaml:"boundary_hour" toml:"boundary_hour" json:"boundary_hour"`
	BoundaryMinute          int    `yaml:"boundary_minute" toml:"boundary_minute" json:"boundary_minute"`
	SamplingIntervalMinutes int    `yaml:"sampling_interval_minutes" toml:"sampling_interval_minutes" json:"sampling_interval_minutes"`
}

var (
	// StandardPolicy is the production convention: 06:00 boundary, one record every 30 minutes.
	StandardPolicy = OperatingDayPolicy{Name: "standard", BoundaryHour: 6, BoundaryMinute: 0, SamplingIntervalMinutes: 30}
	// Shift0630Policy keeps the 06:30 boundary and 15 minute sampling some reports were built with.
	Shift0630Policy = OperatingDayPolicy{Name: "shift0630", BoundaryHour: 6, BoundaryMinute: 30, SamplingIntervalMinutes: 15}
)

var namedPolicies = map[string]OperatingDayPolicy{
	StandardPolicy.Name:  StandardPolicy,
	Shift0630Policy.Name: Shift0630Policy,
}

// PolicyByName resolves a named policy. An empty name resolves to StandardPolicy.
func PolicyByName(name string) (OperatingDayPolicy, error) {
	if name == "" {
		return StandardPolicy, nil
	}
	p, ok := namedPolicies[name]
	if !ok {
		return OperatingDayPolicy{}, fmt.Errorf("unknown operating day policy %q", name)
	}
	return p, nil
}

func (p OperatingDayPolicy) Validate() error {
	if p.BoundaryHour < 0 || p.BoundaryHour > 23 {
		return fmt.Errorf("boundary_hour must be within 0-23, got %d", p.BoundaryHour)
	}
	if p.BoundaryMinute < 0 || p.BoundaryMinute > 59 {
		return fmt.Errorf("boundary_minute must be within 0-59, got %d", p.BoundaryMinute)
	}
	if p.SamplingIntervalMinutes <= 0 || minutesPerDay%p.SamplingIntervalMinutes != 0 {
		return fmt.Errorf("sampling_interval_minutes must divide a day evenly, got %d", p.SamplingIntervalMinutes)
	}
	return nil
}

// Boundary is the offset of the operating day start from midnight.
func (p OperatingDayPolicy) Boundary() time.Duration {
	return time.Duration(p.BoundaryHour)*time.Hour + time.Duration(p.BoundaryMinute)*time.Minute
}

// ExpectedPerDay is the nominal record count for one full operating day.
func (p OperatingDayPolicy) ExpectedPerDay() int {
	if p.SamplingIntervalMinutes <= 0 {
		return 0
	}
	return minutesPerDay / p.SamplingIntervalMinutes
}

// DayKey returns the operating day a timestamp belongs to, as a midnight date.
func (p OperatingDayPolicy) DayKey(t time.Time) time.Time {
	day := Midnight(t)
	if t.Sub(day) < p.Boundary() {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

// WindowStart is the instant the given operating day begins.
func (p OperatingDayPolicy) WindowStart(day time.Time) time.Time {
	return Midnight(day).Add(p.Boundary())
}

// Midnight truncates a wall clock time to its calendar date.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysInclusive lists every calendar day in [start, end].
func DaysInclusive(start, end time.Time) []time.Time {
	start, end = Midnight(start), Midnight(end)
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
