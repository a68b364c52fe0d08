package datastructure

type StepKind uint8

const (
	TRAVERSAL StepKind = iota
	BOUNDARY
)

// Step. one event of the ordered sequence handed from segment building to route grouping:
// either a retained traversal (with its key) or a passenger-flag-0 boundary.
type Step struct {
	kind StepKind
	key  SegmentKey
}

func NewTraversalStep(key SegmentKey) Step {
	return Step{kind: TRAVERSAL, key: key}
}

func NewBoundaryStep() Step {
	return Step{kind: BOUNDARY}
}

func (s Step) Kind() StepKind {
	return s.kind
}

func (s Step) Key() SegmentKey {
	return s.key
}

func (s Step) IsBoundary() bool {
	return s.kind == BOUNDARY
}

// Route. maximal run of passenger-flagged traversals, in traversal order, duplicates kept.
type Route struct {
	keys []SegmentKey
}

func NewRoute(keys []SegmentKey) *Route {
	return &Route{keys: keys}
}

func (r *Route) Keys() []SegmentKey {
	return r.keys
}

func (r *Route) Len() int {
	return len(r.keys)
}
