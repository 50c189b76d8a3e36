package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/viktsys/gasinsight/cache"
	"github.com/viktsys/gasinsight/ingest"
	"github.com/viktsys/gasinsight/logger"
	"github.com/viktsys/gasinsight/metrics"
	"github.com/viktsys/gasinsight/models"
)

type Mode string

const (
	ModeDay   Mode = "day"
	ModeRange Mode = "range"
)

// Request selects the days to analyze. In day mode End is forced to Start.
type Request struct {
	Mode  Mode      `json:"mode"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	// Force skips cached day files and downloads again.
	Force bool `json:"redownload"`
}

// Normalize validates the request and truncates both ends to calendar days.
func (r Request) Normalize(earliest time.Time) (Request, error) {
	switch r.Mode {
	case "":
		r.Mode = ModeRange
	case ModeDay, ModeRange:
	default:
		return r, fmt.Errorf("%w: unknown mode %q", ErrInvalidRequest, r.Mode)
	}
	if r.Start.IsZero() {
		return r, fmt.Errorf("%w: start date is required", ErrInvalidRequest)
	}
	r.Start = models.Midnight(r.Start)
	if r.Mode == ModeDay || r.End.IsZero() {
		r.End = r.Start
	}
	r.End = models.Midnight(r.End)
	if r.End.Before(r.Start) {
		return r, fmt.Errorf("%w: end %s is before start %s", ErrInvalidRequest,
			r.End.Format(models.DateLayout), r.Start.Format(models.DateLayout))
	}
	if !earliest.IsZero() && r.Start.Before(models.Midnight(earliest)) {
		return r, fmt.Errorf("%w: no data before %s", ErrInvalidRequest, earliest.Format(models.DateLayout))
	}
	return r, nil
}

// Result is the immutable outcome of one analysis run.
type Result struct {
	ID            string                                     `json:"id"`
	Request       Request                                    `json:"request"`
	Policy        models.OperatingDayPolicy                  `json:"policy"`
	Streams       map[models.Section]models.Stream           `json:"streams,omitempty"`
	Daily         map[models.Section][]models.DailyAggregate `json:"daily"`
	Health        float64                                    `json:"health_pct"`
	SectionHealth map[models.Section]float64                 `json:"section_health_pct"`
	HealthSeries  []models.HealthPoint                       `json:"health_series"`
	Dense         []models.DenseDay                          `json:"dense_daily"`
	Totals        []models.SectionTotal                      `json:"totals"`
	Averages      []models.SectionAverage                    `json:"averages"`
	Weekday       map[models.Section][]models.WeekdayAverage `json:"weekday_averages"`
	Weeks         []models.WeekBucket                        `json:"weeks"`
	Profile       map[models.Section][]models.SlotAverage    `json:"half_hour_profile"`
	Fluctuation   map[models.Section][]models.Delta          `json:"fluctuation"`
	Gauges        map[models.Section][]models.GaugePoint     `json:"gauges"`
	Warnings      []string                                   `json:"warnings"`
}

// WithoutStreams returns a copy that leaves the raw tables out.
func (r Result) WithoutStreams() Result {
	r.Streams = nil
	return r
}

// Loader loads the raw rows of one sensor table over a day range.
type Loader interface {
	Load(ctx context.Context, table string, start, end time.Time, force bool) (ingest.LoadResult, error)
}

type loadKey struct {
	Table string
	Start string
	End   string
	Force bool
}

// Pipeline runs fetch, clean, derive and aggregate for a request.
type Pipeline struct {
	loader   Loader
	sensors  map[models.Section]string
	policy   models.OperatingDayPolicy
	earliest time.Time
	memo     *cache.Memo[loadKey, ingest.LoadResult]
	metrics  *metrics.Metrics
}

// NewPipeline memoizes sensor loads for ttl, keyed by (table, start, end, force).
func NewPipeline(loader Loader, sensors map[models.Section]string, policy models.OperatingDayPolicy, ttl time.Duration, m *metrics.Metrics) *Pipeline {
	p := &Pipeline{
		loader:  loader,
		sensors: sensors,
		policy:  policy,
		metrics: m,
	}
	p.memo = cache.NewMemo[loadKey, ingest.LoadResult](ttl, func(ctx context.Context, key loadKey) (ingest.LoadResult, error) {
		start, _ := time.Parse(models.DateLayout, key.Start)
		end, _ := time.Parse(models.DateLayout, key.End)
		return p.loader.Load(ctx, key.Table, start, end, key.Force)
	})
	p.memo.OnHit = func() { m.CacheHit("memo") }
	p.memo.OnMiss = func() { m.CacheMiss("memo") }
	return p
}

// WithEarliest rejects requests starting before day.
func (p *Pipeline) WithEarliest(day time.Time) *Pipeline {
	p.earliest = day
	return p
}

func (p *Pipeline) Policy() models.OperatingDayPolicy {
	return p.policy
}

// Run analyzes the request. ErrEmptySelection is returned when no sensor has data.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()
	res, err := p.run(ctx, req)
	outcome := "ok"
	switch {
	case errors.Is(err, ErrEmptySelection):
		outcome = "empty"
	case err != nil:
		outcome = "error"
	}
	p.metrics.ObserveAnalysis(outcome, time.Since(started))
	return res, err
}

func (p *Pipeline) run(ctx context.Context, req Request) (*Result, error) {
	req, err := req.Normalize(p.earliest)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	log := logger.GetLogger().WithComponent("pipeline").WithFields(logger.Fields{
		"request_id": id,
		"start":      req.Start.Format(models.DateLayout),
		"end":        req.End.Format(models.DateLayout),
		"mode":       req.Mode,
	})

	streams, warnings, incomplete, err := p.loadStreams(ctx, req)
	if err != nil {
		return nil, err
	}

	empty := true
	for _, s := range streams {
		if !s.Empty() {
			empty = false
		}
	}
	if empty {
		log.WithFields(logger.Fields{"warnings": warnings}).Warn("empty selection")
		return nil, ErrEmptySelection
	}

	byc, pisos, joinWarnings, err := BuildDerived(streams[models.SectionERM], streams[models.SectionInterno], streams[models.SectionHorno], incomplete)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, joinWarnings...)
	streams[models.SectionByC] = byc
	streams[models.SectionPisos] = pisos

	res := &Result{
		ID:            id,
		Request:       req,
		Policy:        p.policy,
		Streams:       streams,
		Daily:         make(map[models.Section][]models.DailyAggregate, len(models.AllSections)),
		SectionHealth: make(map[models.Section]float64, len(models.AllSections)),
		Weekday:       make(map[models.Section][]models.WeekdayAverage, len(models.AllSections)),
		Profile:       make(map[models.Section][]models.SlotAverage, len(models.AllSections)),
		Fluctuation:   make(map[models.Section][]models.Delta, len(models.AllSections)),
		Gauges:        make(map[models.Section][]models.GaugePoint, 2),
		Warnings:      warnings,
	}

	for _, section := range models.AllSections {
		s := streams[section]
		daily := clipDays(DailyAggregates(p.policy, s), req.Start, req.End)
		res.Daily[section] = daily
		res.SectionHealth[section] = Health(p.policy, req.Start, req.End, s)
		res.Weekday[section] = WeekdayAverages(daily)
		res.Profile[section] = HalfHourProfile(p.policy, s)
		res.Fluctuation[section] = Fluctuation(s)
	}
	res.Gauges[models.SectionInterno] = Gauges(streams[models.SectionInterno])
	res.Gauges[models.SectionERM] = Gauges(streams[models.SectionERM])

	res.Health = res.SectionHealth[models.SectionByC]
	res.HealthSeries = HealthSeries(p.policy, req.Start, req.End, byc, pisos)
	res.Dense = DenseDaily(p.policy, req.Start, req.End, byc, pisos, res.Daily[models.SectionByC], res.Daily[models.SectionPisos])
	res.Totals = Totals(res.Daily)
	res.Averages = Averages(req.Mode, req.Start, req.End, res.Daily)
	res.Weeks = Weeks(res.Daily[models.SectionByC])

	log.WithFields(logger.Fields{
		"health_pct": res.Health,
		"warnings":   len(res.Warnings),
	}).Info("analysis completed")
	return res, nil
}

// loadStreams loads and cleans every physical sensor concurrently. incomplete
// reports whether any sensor lost days to fetch timeouts.
func (p *Pipeline) loadStreams(ctx context.Context, req Request) (streams map[models.Section]models.Stream, warnings []string, incomplete bool, err error) {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	streams = make(map[models.Section]models.Stream, len(models.AllSections))
	for _, section := range models.PhysicalSections {
		if _, ok := p.sensors[section]; !ok {
			return nil, nil, false, fmt.Errorf("no sensor table configured for %s", section)
		}
	}
	errorChan := make(chan error, len(models.PhysicalSections))

	for _, section := range models.PhysicalSections {
		table := p.sensors[section]
		wg.Add(1)
		go func(section models.Section, table string) {
			defer wg.Done()
			loaded, err := p.memo.Retrieve(ctx, loadKey{
				Table: table,
				Start: req.Start.Format(models.DateLayout),
				End:   req.End.Format(models.DateLayout),
				Force: req.Force,
			})
			if err != nil {
				errorChan <- fmt.Errorf("%s: %w", section, err)
				return
			}
			stream := ingest.Clean(section, loaded.Rows)
			mu.Lock()
			streams[section] = stream
			warnings = append(warnings, loaded.Warnings...)
			incomplete = incomplete || loaded.Incomplete()
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
		return nil, nil, false, errors.Join(errs...)
	}
	sort.Strings(warnings)
	return streams, warnings, incomplete, nil
}

// CompareWeeks runs the request and compares two weeks of one section.
func (p *Pipeline) CompareWeeks(ctx context.Context, req Request, section models.Section, first, second string) (models.WeekComparison, error) {
	if !section.Valid() {
		return models.WeekComparison{}, fmt.Errorf("%w: unknown section %q", ErrInvalidRequest, section)
	}
	res, err := p.Run(ctx, req)
	if err != nil {
		return models.WeekComparison{}, err
	}
	return CompareWeeks(section, res.Daily[section], first, second)
}
