package models

import (
	"encoding/json"
	"math"
	"time"
)

// Section identifies one measurement point, physical or derived
type Section string

const (
	SectionERM     Section = "erm"
	SectionInterno Section = "interno"
	SectionHorno   Section = "horno"
	SectionByC     Section = "byc"
	SectionPisos   Section = "pisos"
)

// PhysicalSections are backed by a sensor table; the rest are derived from them.
var PhysicalSections = []Section{SectionERM, SectionInterno, SectionHorno}

// AllSections is the canonical presentation order.
var AllSections = []Section{SectionByC, SectionPisos, SectionERM, SectionInterno, SectionHorno}

var sectionLabels = map[Section]string{
	SectionByC:     "Baños y Cocina",
	SectionPisos:   "PyP",
	SectionERM:     "ERM",
	SectionInterno: "Interno",
	SectionHorno:   "Horno 5",
}

// Label returns the display name used in charts and export file names.
func (s Section) Label() string {
	if l, ok := sectionLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s Section) Valid() bool {
	_, ok := sectionLabels[s]
	return ok
}

// RawRow is one row as stored in a sensor table or in a cached day file.
// Every column is kept as text so locale formatted decimals reach the cleaner untouched.
type RawRow struct {
	Fecha          string `gorm:"column:fecha" json:"fecha"`
	VolCorregido   string `gorm:"column:vol_corregido" json:"vol_corregido"`
	FlujoCorregido string `gorm:"column:flujo_corregido" json:"flujo_corregido"`
	Presion        string `gorm:"column:presion" json:"presion"`
	Temperatura    string `gorm:"column:temperatura" json:"temperatura"`
}

// Reading is one cleaned sample. Missing physical values are NaN.
type Reading struct {
	Timestamp   time.Time
	Volume      float64
	Flow        float64
	Pressure    float64
	Temperature float64
}

type readingJSON struct {
	Timestamp   string   `json:"timestamp"`
	Volume      *float64 `json:"cumulative_volume"`
	Flow        *float64 `json:"flow"`
	Pressure    *float64 `json:"pressure"`
	Temperature *float64 `json:"temperature"`
}

func (r Reading) MarshalJSON() ([]byte, error) {
	return json.Marshal(readingJSON{
		Timestamp:   r.Timestamp.Format(TimestampLayout),
		Volume:      nullable(r.Volume),
		Flow:        nullable(r.Flow),
		Pressure:    nullable(r.Pressure),
		Temperature: nullable(r.Temperature),
	})
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// TimestampLayout is the minute-resolution wall clock format used across the app.
const TimestampLayout = "2006-01-02 15:04:05"

// DateLayout is the calendar day format used for requests, cache keys and labels.
const DateLayout = "2006-01-02"

// Stream is an ordered reading sequence for exactly one section.
type Stream struct {
	Section  Section   `json:"section"`
	Readings []Reading `json:"readings"`
}

func (s Stream) Len() int {
	return len(s.Readings)
}

func (s Stream) Empty() bool {
	return len(s.Readings) == 0
}

// Gauges projects the instantaneous pressure and temperature of a reading.
func (r Reading) Gauges() GaugePoint {
	return GaugePoint{
		Timestamp:   r.Timestamp,
		Pressure:    nullable(r.Pressure),
		Temperature: nullable(r.Temperature),
	}
}
