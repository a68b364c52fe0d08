package segment

import (
	"github.com/lintang-b-s/Segmentx/pkg/datastructure"
	"github.com/lintang-b-s/Segmentx/pkg/geo"
	"github.com/lintang-b-s/Segmentx/pkg/geocoder"
	"go.uber.org/zap"
)

type Stats struct {
	Traversals         int // pairs starting on a passenger sample
	Retained           int
	Unresolved         int
	MalformedTimestamp int
	NonPositive        int // retained traversals with duration <= 0
	Boundaries         int
}

func (s Stats) Dropped() int {
	return s.Unresolved + s.MalformedTimestamp
}

type Result struct {
	Table *datastructure.SegmentTable
	Steps []datastructure.Step
	Stats Stats
}

// Endpoints. coordinates that Build will need labels for, in sample order with repeats.
// Pairs that are dropped for their timestamps are skipped so they never cost a lookup.
func Endpoints(samples []datastructure.Sample) []geo.Coordinate {
	coords := make([]geo.Coordinate, 0, len(samples))
	for i := 0; i+1 < len(samples); i++ {
		from, to := samples[i], samples[i+1]
		if !from.Passenger() || !from.HasTime() || !to.HasTime() {
			continue
		}
		coords = append(coords, from.Coordinate(), to.Coordinate())
	}
	return coords
}

// Builder. single-threaded segmentation over one trace. labels must already hold a resolution for
// every coordinate returned by Endpoints; a missing entry counts as unresolved.
type Builder struct {
	policy Policy
	log    *zap.Logger
}

func NewBuilder(policy Policy, log *zap.Logger) *Builder {
	return &Builder{policy: policy, log: log}
}

func (b *Builder) Build(trace *datastructure.Trace, labels map[geo.Coordinate]geocoder.Resolution) *Result {
	samples := trace.Samples()
	res := &Result{
		Table: datastructure.NewSegmentTable(),
		Steps: make([]datastructure.Step, 0, len(samples)),
	}

	for i, s := range samples {
		if !s.Passenger() {
			res.Steps = append(res.Steps, datastructure.NewBoundaryStep())
			res.Stats.Boundaries++
			continue
		}
		if i+1 == len(samples) {
			break
		}
		next := samples[i+1]
		res.Stats.Traversals++

		if !s.HasTime() || !next.HasTime() {
			res.Stats.MalformedTimestamp++
			b.log.Debug("traversal dropped: malformed timestamp",
				zap.String("unit", trace.Unit()), zap.Int("row", s.Row()), zap.Int("next_row", next.Row()))
			continue
		}

		start, okStart := labels[s.Coordinate()]
		end, okEnd := labels[next.Coordinate()]
		if !okStart || !okEnd || !start.Resolved() || !end.Resolved() {
			res.Stats.Unresolved++
			b.log.Debug("traversal dropped: unresolved endpoint",
				zap.String("unit", trace.Unit()), zap.Int("row", s.Row()),
				zap.Stringer("from", s.Coordinate()), zap.Stringer("to", next.Coordinate()))
			continue
		}

		d := b.policy.Unit.Truncate(next.Time().Sub(s.Time()))
		if d <= 0 {
			res.Stats.NonPositive++
			b.log.Debug("non-positive traversal duration",
				zap.String("unit", trace.Unit()), zap.Int("row", s.Row()), zap.Int64("duration", d))
		}

		key := b.key(s.Coordinate(), next.Coordinate(), start.Label, end.Label)
		res.Table.Add(key, s.Coordinate(), next.Coordinate(), d)
		res.Steps = append(res.Steps, datastructure.NewTraversalStep(key))
		res.Stats.Retained++
	}
	return res
}

func (b *Builder) key(from, to geo.Coordinate, start, end geocoder.RoadLabel) datastructure.SegmentKey {
	if b.policy.Identity == IDENTITY_COORDINATE {
		return datastructure.NewSegmentKey(from.String(), to.String(), start.Name)
	}
	return datastructure.NewSegmentKey(start.ID, end.ID, start.Name)
}
