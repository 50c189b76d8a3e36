package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/viktsys/gasinsight/cache"
	"github.com/viktsys/gasinsight/database"
	"github.com/viktsys/gasinsight/logger"
	"github.com/viktsys/gasinsight/metrics"
	"github.com/viktsys/gasinsight/models"
)

// LoadResult is the raw material of one sensor table over a day range.
type LoadResult struct {
	Table      string
	Rows       []models.RawRow
	Days       int
	CachedDays int
	// TimedOutDays counts days replaced by an empty day after a fetch timeout.
	TimedOutDays int
	Warnings     []string
}

// Incomplete reports whether some requested day is missing because its fetch timed out.
func (r LoadResult) Incomplete() bool {
	return r.TimedOutDays > 0
}

// Loader reads sensor days from the file cache, falling back to the data source.
type Loader struct {
	source  database.Source
	files   *cache.FileCache
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewLoader(source database.Source, files *cache.FileCache, m *metrics.Metrics) *Loader {
	return &Loader{
		source:  source,
		files:   files,
		metrics: m,
		now:     time.Now,
	}
}

// WithClock replaces the clock used to decide which day is still in progress.
func (l *Loader) WithClock(now func() time.Time) *Loader {
	l.now = now
	return l
}

// Load concatenates the rows of every calendar day in [start, end].
// A forced load skips cache reads but still writes the fetched days.
// The current day is never written to the cache.
func (l *Loader) Load(ctx context.Context, table string, start, end time.Time, force bool) (LoadResult, error) {
	result := LoadResult{Table: table}
	log := logger.GetLogger().WithComponent("loader").WithFields(logger.Fields{"table": table})
	today := models.Midnight(l.now())

	for _, day := range models.DaysInclusive(start, end) {
		if err := ctx.Err(); err != nil {
			return LoadResult{}, err
		}
		result.Days++

		if !force && l.files != nil {
			rows, err := l.files.Load(table, day)
			if err == nil {
				l.metrics.CacheHit("file")
				result.CachedDays++
				l.metrics.RowsLoaded(table, len(rows))
				result.Rows = append(result.Rows, rows...)
				continue
			}
			if !errors.Is(err, os.ErrNotExist) {
				log.WithError(err).Warn("unreadable cache file, fetching again")
			}
			l.metrics.CacheMiss("file")
		}

		fetchStart := time.Now()
		rows, err := l.source.Fetch(ctx, table, day)
		if errors.Is(err, database.ErrDataSourceTimeout) {
			l.metrics.FetchTimeout(table)
			result.TimedOutDays++
			warning := fmt.Sprintf("timeout fetching %s for %s, try again", table, day.Format(models.DateLayout))
			result.Warnings = append(result.Warnings, warning)
			log.WithFields(logger.Fields{"day": day.Format(models.DateLayout)}).Warn(warning)
			continue
		}
		if err != nil {
			return LoadResult{}, fmt.Errorf("failed to fetch %s for %s: %w", table, day.Format(models.DateLayout), err)
		}
		l.metrics.ObserveFetch(table, time.Since(fetchStart), len(rows))
		result.Rows = append(result.Rows, rows...)

		if l.files != nil && day.Before(today) {
			if err := l.files.Store(table, day, rows); err != nil {
				log.WithError(err).Warn("failed to store cache file")
			}
		}
	}

	log.WithFields(logger.Fields{
		"days":           result.Days,
		"cached_days":    result.CachedDays,
		"timed_out_days": result.TimedOutDays,
	}).Debug("sensor loaded")
	logger.LogDataFlowEntry(log, table, "pipeline", len(result.Rows))
	return result, nil
}

// LoadAll loads every sensor concurrently.
func (l *Loader) LoadAll(ctx context.Context, sensors map[models.Section]string, start, end time.Time, force bool) (map[models.Section]LoadResult, error) {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[models.Section]LoadResult, len(sensors))
	)
	errorChan := make(chan error, len(sensors))

	for section, table := range sensors {
		wg.Add(1)
		go func(section models.Section, table string) {
			defer wg.Done()
			res, err := l.Load(ctx, table, start, end, force)
			if err != nil {
				errorChan <- fmt.Errorf("%s: %w", section, err)
				return
			}
			mu.Lock()
			results[section] = res
			mu.Unlock()
		}(section, table)
	}

	wg.Wait()
	close(errorChan)

	var errs []error
	for err := range errorChan {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return results, nil
}
