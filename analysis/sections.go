package analysis

import (
	"errors"
	"fmt"
	"time"

	"github.com/viktsys/gasinsight/models"
)

// BuildDerived computes the virtual sections from the physical ones:
//
//	byc   = interno + horno, on the interno timestamps
//	pisos = erm - interno,   on the erm timestamps
//
// Streams are joined on timestamp. Rows without a partner are dropped and reported
// as warnings; two non-empty streams without a single shared timestamp fail with
// ErrAlignmentMismatch unless incomplete is set, in which case some input lost days
// to fetch timeouts and the derived section is left empty with a warning.
func BuildDerived(erm, interno, horno models.Stream, incomplete bool) (byc, pisos models.Stream, warnings []string, err error) {
	byc, warning, err := derive(models.SectionByC, interno, horno, incomplete, func(a, b float64) float64 { return a + b })
	if err != nil {
		return byc, pisos, nil, err
	}
	if warning != "" {
		warnings = append(warnings, warning)
	}

	pisos, warning, err = derive(models.SectionPisos, erm, interno, incomplete, func(a, b float64) float64 { return a - b })
	if err != nil {
		return byc, pisos, nil, err
	}
	if warning != "" {
		warnings = append(warnings, warning)
	}
	return byc, pisos, warnings, nil
}

func derive(section models.Section, axis, other models.Stream, incomplete bool, combine func(a, b float64) float64) (models.Stream, string, error) {
	out, unmatched, err := join(section, axis, other, combine)
	switch {
	case errors.Is(err, ErrAlignmentMismatch) && incomplete:
		return models.Stream{Section: section}, fmt.Sprintf("%s: %s and %s share no timestamps after fetch timeouts, section left empty", section.Label(), axis.Section, other.Section), nil
	case err != nil:
		return out, "", err
	case unmatched > 0:
		return out, fmt.Sprintf("%s: %d readings of %s/%s without a matching timestamp", section.Label(), unmatched, axis.Section, other.Section), nil
	}
	return out, "", nil
}

// join combines axis and other reading by reading on shared timestamps. The
// result keeps the axis gauges and its first reading per timestamp.
func join(section models.Section, axis, other models.Stream, combine func(a, b float64) float64) (models.Stream, int, error) {
	out := models.Stream{Section: section}
	if axis.Empty() || other.Empty() {
		return out, 0, nil
	}

	partners := make(map[time.Time]models.Reading, other.Len())
	for _, r := range other.Readings {
		if _, ok := partners[r.Timestamp]; !ok {
			partners[r.Timestamp] = r
		}
	}

	used := make(map[time.Time]struct{}, axis.Len())
	for _, r := range axis.Readings {
		if _, dup := used[r.Timestamp]; dup {
			continue
		}
		p, ok := partners[r.Timestamp]
		if !ok {
			continue
		}
		used[r.Timestamp] = struct{}{}
		out.Readings = append(out.Readings, models.Reading{
			Timestamp:   r.Timestamp,
			Volume:      combine(r.Volume, p.Volume),
			Flow:        combine(r.Flow, p.Flow),
			Pressure:    r.Pressure,
			Temperature: r.Temperature,
		})
	}

	if len(out.Readings) == 0 {
		return out, 0, fmt.Errorf("%w: %s from %s and %s", ErrAlignmentMismatch, section, axis.Section, other.Section)
	}
	unmatched := axis.Len() - len(out.Readings) + len(partners) - len(out.Readings)
	return out, unmatched, nil
}
