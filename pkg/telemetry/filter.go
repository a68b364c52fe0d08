package telemetry

import (
	"fmt"
	"strings"
	"time"

	"github.com/lintang-b-s/Segmentx/pkg/datastructure"
	"github.com/lintang-b-s/Segmentx/pkg/geo"
	"github.com/lintang-b-s/Segmentx/pkg/util"
)

type Scenario string

const (
	// Di1 and Di3 both on.
	BOTH_GATES Scenario = "both-gates"
	// drop rows with Di1 off and Di3 on.
	EXCLUDE_OFF_ON Scenario = "exclude-off-on"
	// drop rows with Di1 off and Di3 off.
	EXCLUDE_OFF_OFF Scenario = "exclude-off-off"
	ALL             Scenario = "all"
)

func ParseScenario(s string) (Scenario, error) {
	switch Scenario(s) {
	case BOTH_GATES, EXCLUDE_OFF_ON, EXCLUDE_OFF_OFF, ALL:
		return Scenario(s), nil
	}
	return "", util.WrapErrorf(nil, util.ErrBadParamInput, "unknown filter scenario %q", s)
}

func (sc Scenario) Keep(s datastructure.Sample) bool {
	switch sc {
	case BOTH_GATES:
		return s.Gate1() && s.Gate3()
	case EXCLUDE_OFF_ON:
		return !(!s.Gate1() && s.Gate3())
	case EXCLUDE_OFF_OFF:
		return !(!s.Gate1() && !s.Gate3())
	default:
		return true
	}
}

// Window. time-of-day range [start,end], both inclusive.
type Window struct {
	start, end time.Duration
}

func ParseWindow(start, end string) (*Window, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	s, err := parseClock(start)
	if err != nil {
		return nil, err
	}
	e, err := parseClock(end)
	if err != nil {
		return nil, err
	}
	if e < s {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "window end %s is before start %s", end, start)
	}
	return &Window{start: s, end: e}, nil
}

func parseClock(s string) (time.Duration, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, util.WrapErrorf(nil, util.ErrBadParamInput, "invalid clock time %q, want HH:MM[:SS]", s)
}

func (w *Window) Contains(t time.Time) bool {
	tod := time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second + time.Duration(t.Nanosecond())
	return tod >= w.start && tod <= w.end
}

func (w *Window) String() string {
	return fmt.Sprintf("%s-%s", w.start, w.end)
}

type FilterStats struct {
	Gated         int
	OutsideWindow int
	Duplicates    int
	Kept          int
}

func (s *FilterStats) Add(o FilterStats) {
	s.Gated += o.Gated
	s.OutsideWindow += o.OutsideWindow
	s.Duplicates += o.Duplicates
	s.Kept += o.Kept
}

type Filter struct {
	scenario Scenario
	dedupe   bool
	window   *Window
}

func NewFilter(scenario Scenario, dedupe bool, window *Window) *Filter {
	return &Filter{scenario: scenario, dedupe: dedupe, window: window}
}

// Apply. scenario predicate, then service-hours window, then exact coordinate dedupe keeping the
// first occurrence. Input order is preserved. Dedupe is scoped to one call, so callers run it per
// unit.
func (f *Filter) Apply(samples []datastructure.Sample) ([]datastructure.Sample, FilterStats) {
	var stats FilterStats
	seen := make(map[geo.Coordinate]struct{}, len(samples))
	kept := make([]datastructure.Sample, 0, len(samples))

	for _, s := range samples {
		if !f.scenario.Keep(s) {
			stats.Gated++
			continue
		}
		if f.window != nil && s.HasTime() && !f.window.Contains(s.Time()) {
			stats.OutsideWindow++
			continue
		}
		if f.dedupe {
			if _, ok := seen[s.Coordinate()]; ok {
				stats.Duplicates++
				continue
			}
			seen[s.Coordinate()] = struct{}{}
		}
		kept = append(kept, s)
	}
	stats.Kept = len(kept)
	return kept, stats
}
