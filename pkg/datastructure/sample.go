package datastructure

import (
	"time"

	"github.com/lintang-b-s/Segmentx/pkg/geo"
)

// Sample. one telemetry row after parsing. hasTime is false when the timestamp column did not parse;
// such a sample still carries its passenger flag but can't bound a traversal.
type Sample struct {
	time      time.Time
	hasTime   bool
	coord     geo.Coordinate
	passenger bool
	gate1     bool
	gate3     bool
	row       int // 1-based data row in the source file, for diagnostics
}

func NewSample(t time.Time, lat, lon float64, passenger, gate1, gate3 bool, row int) Sample {
	return Sample{
		time:      t,
		hasTime:   true,
		coord:     geo.NewCoordinate(lat, lon),
		passenger: passenger,
		gate1:     gate1,
		gate3:     gate3,
		row:       row,
	}
}

// NewUntimedSample. sample whose timestamp was malformed.
func NewUntimedSample(lat, lon float64, passenger, gate1, gate3 bool, row int) Sample {
	s := NewSample(time.Time{}, lat, lon, passenger, gate1, gate3, row)
	s.hasTime = false
	return s
}

func (s Sample) Time() time.Time {
	return s.time
}

func (s Sample) HasTime() bool {
	return s.hasTime
}

func (s Sample) Coordinate() geo.Coordinate {
	return s.coord
}

func (s Sample) Lat() float64 {
	return s.coord.Lat
}

func (s Sample) Lon() float64 {
	return s.coord.Lon
}

func (s Sample) Passenger() bool {
	return s.passenger
}

func (s Sample) Gate1() bool {
	return s.gate1
}

func (s Sample) Gate3() bool {
	return s.gate3
}

func (s Sample) Row() int {
	return s.row
}

// Trace. ordered samples of one grouping unit (a vehicle-day, or a whole file).
type Trace struct {
	unit    string
	samples []Sample
}

func NewTrace(unit string, samples []Sample) *Trace {
	return &Trace{unit: unit, samples: samples}
}

func (t *Trace) Unit() string {
	return t.unit
}

func (t *Trace) Samples() []Sample {
	return t.samples
}

func (t *Trace) Len() int {
	return len(t.samples)
}

func (t *Trace) BoundingBox() *BoundingBox {
	if len(t.samples) == 0 {
		return nil
	}
	bb := NewBoundingBox(t.samples[0].Lat(), t.samples[0].Lon(), t.samples[0].Lat(), t.samples[0].Lon())
	for _, s := range t.samples[1:] {
		bb.Extend(s.Lat(), s.Lon())
	}
	return bb
}
