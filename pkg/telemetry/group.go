package telemetry

import (
	"sort"

	"github.com/lintang-b-s/Segmentx/pkg/datastructure"
)

const dayLayout = "2006-01-02"

// SplitByDay. one trace per calendar day (in the samples' own location), days in chronological
// order, samples in input order. Untimed samples stay with the day of the sample before them.
func SplitByDay(samples []datastructure.Sample) []*datastructure.Trace {
	byDay := make(map[string][]datastructure.Sample)
	var (
		current string
		pending []datastructure.Sample
	)
	for _, s := range samples {
		if !s.HasTime() {
			if current == "" {
				pending = append(pending, s)
				continue
			}
			byDay[current] = append(byDay[current], s)
			continue
		}
		day := s.Time().Format(dayLayout)
		if current == "" && len(pending) > 0 {
			byDay[day] = append(byDay[day], pending...)
			pending = nil
		}
		current = day
		byDay[day] = append(byDay[day], s)
	}

	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)

	traces := make([]*datastructure.Trace, 0, len(days))
	for _, d := range days {
		traces = append(traces, datastructure.NewTrace(d, byDay[d]))
	}
	if len(traces) == 0 && len(pending) > 0 {
		traces = append(traces, datastructure.NewTrace("undated", pending))
	}
	return traces
}

// Whole. the entire file as one trace.
func Whole(unit string, samples []datastructure.Sample) []*datastructure.Trace {
	if len(samples) == 0 {
		return nil
	}
	return []*datastructure.Trace{datastructure.NewTrace(unit, samples)}
}
