package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Box is a rectangular space/time domain: longitude, latitude and pressure
// bounds, plus an optional date range. A zero DateMin/DateMax means the
// whole time series.
type Box struct {
	LonMin, LonMax   float64
	LatMin, LatMax   float64
	PresMin, PresMax float64
	DateMin, DateMax time.Time
}

// Date layouts accepted in box definitions, most specific first.
var boxDateLayouts = []string{time.RFC3339, "2006-01-02", "2006-01"}

// ParseBox builds a box from its textual form: six comma-separated numbers
// (lon min/max, lat min/max, pressure min/max in dbar), optionally followed
// by two bounding dates ("2012-01", "2012-01-15" or RFC3339).
func ParseBox(s string) (Box, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 6 && len(parts) != 8 {
		return Box{}, fmt.Errorf("box needs 6 numeric bounds plus an optional date pair, got %d values", len(parts))
	}
	var bounds [6]float64
	for i := 0; i < 6; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return Box{}, fmt.Errorf("invalid box bound %q: %w", parts[i], err)
		}
		bounds[i] = v
	}
	box := Box{
		LonMin: bounds[0], LonMax: bounds[1],
		LatMin: bounds[2], LatMax: bounds[3],
		PresMin: bounds[4], PresMax: bounds[5],
	}
	if len(parts) == 8 {
		var err error
		if box.DateMin, err = parseBoxDate(parts[6]); err != nil {
			return Box{}, err
		}
		if box.DateMax, err = parseBoxDate(parts[7]); err != nil {
			return Box{}, err
		}
	}
	if err := box.Validate(); err != nil {
		return Box{}, err
	}
	return box, nil
}

func parseBoxDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range boxDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid box date %q (expected YYYY-MM, YYYY-MM-DD or RFC3339)", s)
}

// Validate checks bound ordering and coordinate ranges.
func (b Box) Validate() error {
	if b.LonMin >= b.LonMax {
		return fmt.Errorf("longitude bounds out of order: %g >= %g", b.LonMin, b.LonMax)
	}
	if b.LatMin >= b.LatMax {
		return fmt.Errorf("latitude bounds out of order: %g >= %g", b.LatMin, b.LatMax)
	}
	if b.LatMin < -90 || b.LatMax > 90 {
		return fmt.Errorf("latitude bounds must be within [-90, 90]")
	}
	if b.PresMin < 0 {
		return fmt.Errorf("pressure lower bound must be non-negative, got %g", b.PresMin)
	}
	if b.PresMin >= b.PresMax {
		return fmt.Errorf("pressure bounds out of order: %g >= %g", b.PresMin, b.PresMax)
	}
	if b.HasDates() && !b.DateMin.Before(b.DateMax) {
		return fmt.Errorf("date bounds out of order: %v is not before %v", b.DateMin, b.DateMax)
	}
	return nil
}

// HasDates reports whether the box carries a date range.
func (b Box) HasDates() bool {
	return !b.DateMin.IsZero() || !b.DateMax.IsZero()
}

// Contains reports whether a position falls inside the horizontal bounds.
func (b Box) Contains(lat, lon float64) bool {
	return lat >= b.LatMin && lat <= b.LatMax && lon >= b.LonMin && lon <= b.LonMax
}

// ContainsPres reports whether a pressure level falls inside the vertical bounds.
func (b Box) ContainsPres(pres float64) bool {
	return pres >= b.PresMin && pres <= b.PresMax
}

// ContainsTime reports whether a sample time falls inside the date range.
// A box without dates contains every time.
func (b Box) ContainsTime(t time.Time) bool {
	if !b.HasDates() {
		return true
	}
	return !t.Before(b.DateMin) && !t.After(b.DateMax)
}

// String renders the box the way it is written in queries.
func (b Box) String() string {
	s := fmt.Sprintf("[%g, %g, %g, %g, %g, %g", b.LonMin, b.LonMax, b.LatMin, b.LatMax, b.PresMin, b.PresMax)
	if b.HasDates() {
		s += fmt.Sprintf(", %s, %s", b.DateMin.Format("2006-01-02"), b.DateMax.Format("2006-01-02"))
	}
	return s + "]"
}
