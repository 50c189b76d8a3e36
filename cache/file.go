package cache

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/viktsys/gasinsight/models"
)

var header = []string{"fecha", "vol_corregido", "flujo_corregido", "presion", "temperatura"}

// FileCache keeps one CSV file per (sensor table, calendar day).
// Concurrent writers of the same day resolve as last write wins.
type FileCache struct {
	dir string
}

func NewFileCache(dir string) *FileCache {
	return &FileCache{dir: dir}
}

// Path returns <dir>/<YYYY-MM>/tabla_<table>_<YYYY-MM-DD>.csv
func (c *FileCache) Path(table string, day time.Time) string {
	return filepath.Join(c.dir, day.Format("2006-01"),
		fmt.Sprintf("tabla_%s_%s.csv", table, day.Format(models.DateLayout)))
}

func (c *FileCache) Has(table string, day time.Time) bool {
	info, err := os.Stat(c.Path(table, day))
	return err == nil && !info.IsDir()
}

// Load reads a cached day. A missing file yields an error wrapping os.ErrNotExist.
func (c *FileCache) Load(table string, day time.Time) ([]models.RawRow, error) {
	f, err := os.Open(c.Path(table, day))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var rows []models.RawRow
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", c.Path(table, day), err)
		}
		if first {
			first = false
			if len(record) > 0 && record[0] == header[0] {
				continue
			}
		}
		rows = append(rows, rowFromRecord(record))
	}
	return rows, nil
}

// Store writes the rows of a day, replacing any previous file.
func (c *FileCache) Store(table string, day time.Time, rows []models.RawRow) error {
	path := c.Path(table, day)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tabla_*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	writer := csv.NewWriter(tmp)
	if err := writer.Write(header); err != nil {
		tmp.Close()
		return err
	}
	for _, row := range rows {
		if err := writer.Write([]string{row.Fecha, row.VolCorregido, row.FlujoCorregido, row.Presion, row.Temperatura}); err != nil {
			tmp.Close()
			return err
		}
	}
	writer.Flush()
	if err := errors.Join(writer.Error(), tmp.Close()); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

func rowFromRecord(record []string) models.RawRow {
	field := func(i int) string {
		if i < len(record) {
			return record[i]
		}
		return ""
	}
	return models.RawRow{
		Fecha:          field(0),
		VolCorregido:   field(1),
		FlujoCorregido: field(2),
		Presion:        field(3),
		Temperatura:    field(4),
	}
}
