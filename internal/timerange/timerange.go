// Package timerange turns partial start/end/duration input into a concrete query window.
package timerange

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sosodev/duration"

	mdserr "github.com/user/mds-pull/internal/errors"
)

// Range is an inclusive query window. The resolver does not enforce Start <= End; see Validate.
type Range struct {
	Start time.Time
	End   time.Time
}

// Input holds the raw command-line values. Empty strings mean "not given".
type Input struct {
	Start    string
	End      string
	Duration string
}

// Resolve builds a Range from in.
//
// With both Start and End, both are parsed and returned unchanged. With only one of them, Duration
// is required and the other bound is derived from it.
func Resolve(in Input) (Range, error) {
	hasStart := strings.TrimSpace(in.Start) != ""
	hasEnd := strings.TrimSpace(in.End) != ""

	if !hasStart && !hasEnd {
		return Range{}, mdserr.Usage("at least one of start_time or end_time is required")
	}

	if hasStart && hasEnd {
		start, err := ParseTime(in.Start)
		if err != nil {
			return Range{}, err
		}
		end, err := ParseTime(in.End)
		if err != nil {
			return Range{}, err
		}
		return Range{Start: start, End: end}, nil
	}

	if strings.TrimSpace(in.Duration) == "" {
		return Range{}, mdserr.Config("duration is required when only one of start_time or end_time is given", nil)
	}
	d, err := ParseDuration(in.Duration)
	if err != nil {
		return Range{}, err
	}

	if hasStart {
		start, err := ParseTime(in.Start)
		if err != nil {
			return Range{}, err
		}
		return Range{Start: start, End: start.Add(d)}, nil
	}

	end, err := ParseTime(in.End)
	if err != nil {
		return Range{}, err
	}
	return Range{Start: end.Add(-d), End: end}, nil
}

// Validate rejects windows whose end precedes their start.
func (r Range) Validate() error {
	if r.End.Before(r.Start) {
		return mdserr.Usage("end_time " + ISO(r.End) + " is before start_time " + ISO(r.Start))
	}
	return nil
}

func (r Range) String() string {
	return ISO(r.Start) + " to " + ISO(r.End)
}

var epochPattern = regexp.MustCompile(`^-?\d+$`)

// Naive holds times given without a zone. It is offset-0 like UTC, but ISO renders it
// without an offset suffix; explicit UTC input keeps "+00:00".
var Naive = time.FixedZone("", 0)

// zonedLayouts carry their own offset and are parsed as given.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04Z07:00",
}

// naiveLayouts have no zone and parse into Naive.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// maxSeconds is the largest whole-second count a time.Duration holds.
const maxSeconds = math.MaxInt64 / int64(time.Second)

// ParseTime accepts integer Unix seconds (read as naive UTC wall time) or ISO-8601 text.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if epochPattern.MatchString(s) {
		secs, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, mdserr.Parsing("invalid epoch seconds "+strconv.Quote(s), err)
		}
		return time.Unix(secs, 0).In(Naive), nil
	}

	var lastErr error
	for _, layout := range zonedLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	for _, layout := range naiveLayouts {
		t, err := time.ParseInLocation(layout, s, Naive)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, mdserr.Parsing("invalid timestamp "+strconv.Quote(s), lastErr)
}

// ParseDuration accepts non-negative integer seconds or an ISO-8601 duration such as PT1H.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if epochPattern.MatchString(s) {
		secs, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, mdserr.Parsing("invalid duration "+strconv.Quote(s), err)
		}
		if secs < 0 || secs > maxSeconds {
			return 0, mdserr.Parsing("duration out of range "+strconv.Quote(s), nil)
		}
		return time.Duration(secs) * time.Second, nil
	}

	d, err := duration.Parse(s)
	if err != nil {
		return 0, mdserr.Parsing("invalid duration "+strconv.Quote(s), err)
	}
	if d.Negative || isoSeconds(d) > float64(maxSeconds) {
		return 0, mdserr.Parsing("duration out of range "+strconv.Quote(s), nil)
	}
	return d.ToTimeDuration(), nil
}

// isoSeconds approximates d in seconds using 365-day years and 1/12-year months.
func isoSeconds(d *duration.Duration) float64 {
	const hour = 3600.0
	return d.Years*365*24*hour +
		d.Months*365*24*hour/12 +
		d.Weeks*7*24*hour +
		d.Days*24*hour +
		d.Hours*hour +
		d.Minutes*60 +
		d.Seconds
}

// ISO renders t as ISO-8601 with microseconds only when non-zero. Times in Naive get no
// offset suffix; every other time, UTC included, ends in "+hh:mm".
func ISO(t time.Time) string {
	layout := "2006-01-02T15:04:05"
	if t.Nanosecond()/1000 != 0 {
		layout += ".000000"
	}
	if t.Location() != Naive {
		layout += "-07:00"
	}
	return t.Format(layout)
}
