package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/viktsys/gasinsight/config"
	"github.com/viktsys/gasinsight/models"
)

// ErrDataSourceTimeout is returned when a fetch does not finish within the query timeout.
var ErrDataSourceTimeout = errors.New("data source timeout")

// Source fetches the raw rows recorded by one sensor table during one day.
type Source interface {
	Fetch(ctx context.Context, table string, day time.Time) ([]models.RawRow, error)
}

var rawColumns = []string{"fecha", "vol_corregido", "flujo_corregido", "presion", "temperatura"}

// fetchSlack is how far past the next boundary a day query reaches.
const fetchSlack = 10 * time.Minute

// FetchWindow is the query window for a day: [day 06:00, day+1 06:10) under the
// standard policy. A policy whose boundary falls after 06:00 widens the window so
// it still reaches fetchSlack past the next operating day start.
func FetchWindow(policy models.OperatingDayPolicy, day time.Time) (time.Time, time.Time) {
	d := models.Midnight(day)
	from := d.Add(6 * time.Hour)
	if start := policy.WindowStart(d); start.Before(from) {
		from = start
	}
	to := d.AddDate(0, 0, 1).Add(6*time.Hour + fetchSlack)
	if end := policy.WindowStart(d.AddDate(0, 0, 1)).Add(fetchSlack); end.After(to) {
		to = end
	}
	return from, to
}

type GormSource struct {
	db      *gorm.DB
	timeout time.Duration
	policy  models.OperatingDayPolicy
}

func NewGormSource(db *gorm.DB, timeout time.Duration) *GormSource {
	return &GormSource{db: db, timeout: timeout, policy: models.StandardPolicy}
}

// WithPolicy sets the operating day policy the fetch window must cover.
func (s *GormSource) WithPolicy(policy models.OperatingDayPolicy) *GormSource {
	s.policy = policy
	return s
}

func (s *GormSource) Fetch(ctx context.Context, table string, day time.Time) ([]models.RawRow, error) {
	if !config.ValidTableName(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	from, to := FetchWindow(s.policy, day)
	rows, err := s.db.WithContext(ctx).
		Table(table).
		Select(rawColumns).
		Where("fecha >= ? AND fecha < ?", from, to).
		Order("fecha").
		Rows()
	if err != nil {
		return nil, classify(ctx, table, err)
	}
	defer rows.Close()

	var result []models.RawRow
	for rows.Next() {
		var fecha, vol, flujo, presion, temp sql.NullString
		if err := rows.Scan(&fecha, &vol, &flujo, &presion, &temp); err != nil {
			return nil, classify(ctx, table, err)
		}
		result = append(result, models.RawRow{
			Fecha:          fecha.String,
			VolCorregido:   vol.String,
			FlujoCorregido: flujo.String,
			Presion:        presion.String,
			Temperatura:    temp.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, table, err)
	}
	return result, nil
}

func classify(ctx context.Context, table string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrDataSourceTimeout, table)
	}
	return fmt.Errorf("failed to query %s: %w", table, err)
}
