package export

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/tealeg/xlsx"

	"github.com/viktsys/gasinsight/models"
)

type CellType int

const (
	CellString CellType = iota
	CellFloat
	CellInt
	CellDate
)

type CellStyle int

const (
	CellPlain CellStyle = iota
	CellBold
)

type SheetCell struct {
	Value string
	Type  CellType
	Style CellStyle
}

// FileName builds "<label> <section> <date range>.xlsx". A single day range is
// written as one date.
func FileName(label string, section models.Section, start, end time.Time) string {
	text := start.Format(models.DateLayout)
	if !models.Midnight(end).Equal(models.Midnight(start)) {
		text += " - " + end.Format(models.DateLayout)
	}
	return fmt.Sprintf("%s %s %s.xlsx", label, section.Label(), text)
}

// GenerateExcelFile writes the cells as a single sheet workbook.
func GenerateExcelFile(w io.Writer, sheetName string, sheetCells [][]SheetCell) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to add sheet %q: %w", sheetName, err)
	}
	sheet.SheetFormat.DefaultColWidth = 14

	bold := xlsx.NewStyle()
	bold.Font.Bold = true

	for _, sheetRow := range sheetCells {
		row := sheet.AddRow()
		for _, sheetCell := range sheetRow {
			cell := row.AddCell()
			switch sheetCell.Type {
			case CellFloat:
				n, err := strconv.ParseFloat(sheetCell.Value, 64)
				if err != nil {
					cell.Value = sheetCell.Value
					break
				}
				cell.SetFloat(n)
			case CellInt:
				n, err := strconv.Atoi(sheetCell.Value)
				if err != nil {
					cell.Value = sheetCell.Value
					break
				}
				cell.SetInt(n)
			case CellDate:
				date, err := time.Parse(models.DateLayout, sheetCell.Value)
				if err != nil {
					cell.Value = sheetCell.Value
					break
				}
				cell.SetDate(date)
			default:
				cell.SetString(sheetCell.Value)
			}
			if sheetCell.Style == CellBold {
				cell.SetStyle(bold)
			}
		}
	}

	return file.Write(w)
}

var dailyHeader = []string{"day", "day_label", "consumption", "expected_record_count", "actual_record_count", "health_pct"}

// DailySheet lays out daily aggregates, one row per operating day.
func DailySheet(daily []models.DailyAggregate) [][]SheetCell {
	rows := [][]SheetCell{header(dailyHeader)}
	for _, d := range daily {
		rows = append(rows, []SheetCell{
			{Value: d.Day.Format(models.DateLayout), Type: CellDate},
			{Value: d.DayLabel},
			{Value: formatFloat(d.Consumption), Type: CellFloat},
			{Value: strconv.Itoa(d.ExpectedRecords), Type: CellInt},
			{Value: strconv.Itoa(d.ActualRecords), Type: CellInt},
			{Value: formatFloat(d.HealthPct), Type: CellFloat},
		})
	}
	return rows
}

var rawHeader = []string{"fecha", "vol_corregido", "flujo_corregido", "presion", "temperatura"}

// RawSheet lays out a cleaned stream. Missing values are left blank.
func RawSheet(stream models.Stream) [][]SheetCell {
	rows := [][]SheetCell{header(rawHeader)}
	for _, r := range stream.Readings {
		rows = append(rows, []SheetCell{
			{Value: r.Timestamp.Format(models.TimestampLayout)},
			{Value: formatFloat(r.Volume), Type: CellFloat},
			{Value: formatFloat(r.Flow), Type: CellFloat},
			{Value: formatFloat(r.Pressure), Type: CellFloat},
			{Value: formatFloat(r.Temperature), Type: CellFloat},
		})
	}
	return rows
}

func header(names []string) []SheetCell {
	out := make([]SheetCell, len(names))
	for i, n := range names {
		out[i] = SheetCell{Value: n, Style: CellBold}
	}
	return out
}

func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ReadDaily parses a workbook written from DailySheet back into aggregates.
func ReadDaily(data []byte) ([]models.DailyAggregate, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	if len(file.Sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	var out []models.DailyAggregate
	for i, row := range file.Sheets[0].Rows {
		if i == 0 || row == nil || len(row.Cells) < len(dailyHeader) {
			continue
		}
		c := row.Cells
		day, err := readDay(c[0], file.Date1904)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid day %q: %w", i+1, c[0].Value, err)
		}
		consumption, err := c[2].Float()
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid consumption: %w", i+1, err)
		}
		expected, _ := c[3].Int()
		actual, _ := c[4].Int()
		health, _ := c[5].Float()
		out = append(out, models.DailyAggregate{
			Day:             day,
			DayLabel:        c[1].Value,
			Consumption:     consumption,
			ExpectedRecords: expected,
			ActualRecords:   actual,
			HealthPct:       health,
		})
	}
	return out, nil
}

// readDay accepts date serials and plain "2006-01-02" text.
func readDay(cell *xlsx.Cell, date1904 bool) (time.Time, error) {
	if day, err := time.Parse(models.DateLayout, cell.Value); err == nil {
		return day, nil
	}
	t, err := cell.GetTime(date1904)
	if err != nil {
		return time.Time{}, err
	}
	return t.Round(24 * time.Hour), nil
}

// Bytes renders a sheet into memory, for HTTP responses.
func Bytes(sheetName string, cells [][]SheetCell) ([]byte, error) {
	var buf bytes.Buffer
	if err := GenerateExcelFile(&buf, sheetName, cells); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
