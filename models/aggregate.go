package models

import "time"

// DailyAggregate holds one operating day of one section
type DailyAggregate struct {
	Section         Section   `json:"section"`
	Day             time.Time `json:"day"`
	DayLabel        string    `json:"day_label"`
	Consumption     float64   `json:"consumption"`
	ExpectedRecords int       `json:"expected_record_count"`
	ActualRecords   int       `json:"actual_record_count"`
	HealthPct       float64   `json:"health_pct"`
}

// HealthPoint is one entry of a dense per-day health series
type HealthPoint struct {
	Day       time.Time `json:"day"`
	HealthPct float64   `json:"health_pct"`
}

// DenseDay is one calendar day of the plant consumption chart, zero filled
type DenseDay struct {
	Day       time.Time `json:"day"`
	ByC       float64   `json:"byc"`
	Pisos     float64   `json:"pisos"`
	Total     float64   `json:"total"`
	HealthPct float64   `json:"health_pct"`
}

// SectionTotal is the summed consumption of a section over the whole request
type SectionTotal struct {
	Name        string  `json:"name"`
	Consumption float64 `json:"consumption"`
}

// SectionAverage is the mean daily consumption of a section
type SectionAverage struct {
	Section Section `json:"section"`
	Group   string  `json:"group"`
	Average float64 `json:"average"`
}

// WeekdayAverage is the mean operating-day consumption for one weekday
type WeekdayAverage struct {
	Weekday time.Weekday `json:"weekday"`
	Name    string       `json:"name"`
	Average float64      `json:"average"`
	Days    int          `json:"days"`
}

// WeekBucket describes one ISO week observed in the data
type WeekBucket struct {
	Key   string    `json:"key"`
	Label string    `json:"label"`
	First time.Time `json:"first_day"`
	Last  time.Time `json:"last_day"`
}

// WeekComparisonRow holds the mean daily consumption of one weekday in both compared weeks.
// A weekday absent from a week has a nil value.
type WeekComparisonRow struct {
	Weekday time.Weekday `json:"weekday"`
	Name    string       `json:"name"`
	First   *float64     `json:"first"`
	Second  *float64     `json:"second"`
}

type WeekComparison struct {
	Section Section             `json:"section"`
	First   WeekBucket          `json:"first"`
	Second  WeekBucket          `json:"second"`
	Rows    []WeekComparisonRow `json:"rows"`
}

// SlotAverage is the mean per-reading volume delta inside one half-hour slot
type SlotAverage struct {
	Slot    string  `json:"slot"`
	Average float64 `json:"average"`
	Samples int     `json:"samples"`
}

// Delta is the volume that entered between two consecutive readings
type Delta struct {
	Timestamp time.Time `json:"timestamp"`
	Volume    float64   `json:"volume"`
}

// GaugePoint carries the instantaneous gauges of one reading
type GaugePoint struct {
	Timestamp   time.Time `json:"timestamp"`
	Pressure    *float64  `json:"pressure"`
	Temperature *float64  `json:"temperature"`
}
