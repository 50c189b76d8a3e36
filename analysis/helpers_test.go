package analysis

import (
	"math"
	"time"

	"github.com/viktsys/gasinsight/models"
)

func at(day string, clock string) time.Time {
	t, err := time.Parse(models.TimestampLayout, day+" "+clock+":00")
	if err != nil {
		panic(err)
	}
	return t
}

func date(day string) time.Time {
	t, err := time.Parse(models.DateLayout, day)
	if err != nil {
		panic(err)
	}
	return t
}

// regular builds n readings every step starting at from, volume growing by slope.
func regular(section models.Section, from time.Time, step time.Duration, n int, base, slope float64) models.Stream {
	s := models.Stream{Section: section}
	for i := 0; i < n; i++ {
		s.Readings = append(s.Readings, models.Reading{
			Timestamp:   from.Add(time.Duration(i) * step),
			Volume:      base + slope*float64(i),
			Flow:        math.NaN(),
			Pressure:    1.5,
			Temperature: 20,
		})
	}
	return s
}

func volumes(section models.Section, ts []time.Time, vols ...float64) models.Stream {
	s := models.Stream{Section: section}
	for i, v := range vols {
		s.Readings = append(s.Readings, models.Reading{Timestamp: ts[i], Volume: v})
	}
	return s
}
