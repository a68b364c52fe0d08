package datastructure

import (
	"math"
	"strings"

	"github.com/lintang-b-s/Segmentx/pkg/geo"
)

// SegmentKey. identity of a directed road traversal. Comparable so it is the map key itself;
// joining the fields into a string is only done when rendering output.
type SegmentKey struct {
	Start string
	End   string
	Road  string
}

func NewSegmentKey(start, end, road string) SegmentKey {
	return SegmentKey{Start: start, End: end, Road: road}
}

// Token. road_start_end, used for route lines.
func (k SegmentKey) Token() string {
	var sb strings.Builder
	sb.Grow(len(k.Road) + len(k.Start) + len(k.End) + 2)
	sb.WriteString(k.Road)
	sb.WriteByte('_')
	sb.WriteString(k.Start)
	sb.WriteByte('_')
	sb.WriteString(k.End)
	return sb.String()
}

// Segment. every traversal sharing a key. Statistics are always derived from durations.
type Segment struct {
	key       SegmentKey
	durations []int64
	from, to  geo.Coordinate // first traversal's endpoints, for geometry only
}

func NewSegment(key SegmentKey, from, to geo.Coordinate) *Segment {
	return &Segment{key: key, from: from, to: to, durations: make([]int64, 0, 1)}
}

func (s *Segment) Key() SegmentKey {
	return s.key
}

func (s *Segment) Road() string {
	return s.key.Road
}

func (s *Segment) From() geo.Coordinate {
	return s.from
}

func (s *Segment) To() geo.Coordinate {
	return s.to
}

func (s *Segment) AddDuration(d int64) {
	s.durations = append(s.durations, d)
}

func (s *Segment) Durations() []int64 {
	out := make([]int64, len(s.durations))
	copy(out, s.durations)
	return out
}

func (s *Segment) Count() int {
	return len(s.durations)
}

func (s *Segment) Total() int64 {
	var total int64
	for _, d := range s.durations {
		total += d
	}
	return total
}

func (s *Segment) Average() float64 {
	if len(s.durations) == 0 {
		return 0
	}
	return float64(s.Total()) / float64(len(s.durations))
}

func (s *Segment) Min() int64 {
	if len(s.durations) == 0 {
		return 0
	}
	m := int64(math.MaxInt64)
	for _, d := range s.durations {
		m = min(m, d)
	}
	return m
}

func (s *Segment) Max() int64 {
	if len(s.durations) == 0 {
		return 0
	}
	m := int64(math.MinInt64)
	for _, d := range s.durations {
		m = max(m, d)
	}
	return m
}

// SegmentTable. unique segments, iterated in first-occurrence order.
type SegmentTable struct {
	index map[SegmentKey]int
	segs  []*Segment
}

func NewSegmentTable() *SegmentTable {
	return &SegmentTable{index: make(map[SegmentKey]int)}
}

// Add. append d to key's segment, creating it on first traversal. Returns true when created.
func (t *SegmentTable) Add(key SegmentKey, from, to geo.Coordinate, d int64) bool {
	if i, ok := t.index[key]; ok {
		t.segs[i].AddDuration(d)
		return false
	}
	seg := NewSegment(key, from, to)
	seg.AddDuration(d)
	t.index[key] = len(t.segs)
	t.segs = append(t.segs, seg)
	return true
}

func (t *SegmentTable) Get(key SegmentKey) (*Segment, bool) {
	i, ok := t.index[key]
	if !ok {
		return nil, false
	}
	return t.segs[i], true
}

func (t *SegmentTable) Segments() []*Segment {
	return t.segs
}

func (t *SegmentTable) Len() int {
	return len(t.segs)
}

// TotalDuration. sum of every segment total.
func (t *SegmentTable) TotalDuration() int64 {
	var total int64
	for _, s := range t.segs {
		total += s.Total()
	}
	return total
}
