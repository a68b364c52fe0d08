package route

import (
	"github.com/lintang-b-s/Segmentx/pkg/datastructure"
)

type state uint8

const (
	IDLE state = iota
	ACCUMULATING
)

// Grouper. seals a route on each boundary step and at the end of input; an empty accumulator is
// never sealed.
type Grouper struct {
	state  state
	acc    []datastructure.SegmentKey
	routes []*datastructure.Route
}

func NewGrouper() *Grouper {
	return &Grouper{state: IDLE}
}

func (g *Grouper) Push(step datastructure.Step) {
	if step.IsBoundary() {
		g.seal()
		g.state = IDLE
		return
	}
	g.acc = append(g.acc, step.Key())
	g.state = ACCUMULATING
}

func (g *Grouper) seal() {
	if len(g.acc) == 0 {
		return
	}
	g.routes = append(g.routes, datastructure.NewRoute(g.acc))
	g.acc = nil
}

// Finish. seal what is left and return every route in sealing order.
func (g *Grouper) Finish() []*datastructure.Route {
	g.seal()
	g.state = IDLE
	return g.routes
}

func Group(steps []datastructure.Step) []*datastructure.Route {
	g := NewGrouper()
	for _, s := range steps {
		g.Push(s)
	}
	return g.Finish()
}
