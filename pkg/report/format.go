package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/lintang-b-s/Segmentx/pkg/datastructure"
)

const DefaultBonus = 100

type Summary struct {
	TotalDuration  int64 `json:"total_duration"`
	UniqueSegments int   `json:"unique_segments"`
	Rows           int   `json:"rows"`
	Routes         int   `json:"routes"`
	Bonus          int   `json:"bonus"`
}

// Report. the output block of one processing unit:
//
//	<total> <unique> <rows> <routes> <bonus>
//	<start> <end> <road> <avg> <min> <max> <count>   (one per unique segment)
//	<n> <road>_<start>_<end> ...                      (one per route)
type Report struct {
	unit   string
	table  *datastructure.SegmentTable
	routes []*datastructure.Route
	bonus  int
}

func New(unit string, table *datastructure.SegmentTable, routes []*datastructure.Route, bonus int) *Report {
	return &Report{unit: unit, table: table, routes: routes, bonus: bonus}
}

func (r *Report) Unit() string {
	return r.unit
}

func (r *Report) Table() *datastructure.SegmentTable {
	return r.table
}

func (r *Report) Routes() []*datastructure.Route {
	return r.routes
}

func (r *Report) Summary() Summary {
	return Summary{
		TotalDuration:  r.table.TotalDuration(),
		UniqueSegments: r.table.Len(),
		Rows:           r.table.Len(),
		Routes:         len(r.routes),
		Bonus:          r.bonus,
	}
}

func (r *Report) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)

	s := r.Summary()
	fmt.Fprintf(bw, "%d %d %d %d %d\n", s.TotalDuration, s.UniqueSegments, s.Rows, s.Routes, s.Bonus)

	for _, seg := range r.table.Segments() {
		k := seg.Key()
		fmt.Fprintf(bw, "%s %s %s %.2f %d %d %d\n", k.Start, k.End, k.Road,
			seg.Average(), seg.Min(), seg.Max(), seg.Count())
	}

	for _, route := range r.routes {
		fmt.Fprintf(bw, "%d", route.Len())
		for _, k := range route.Keys() {
			bw.WriteByte(' ')
			bw.WriteString(k.Token())
		}
		bw.WriteByte('\n')
	}

	err := bw.Flush()
	return cw.n, err
}

func (r *Report) String() string {
	var sb strings.Builder
	r.WriteTo(&sb)
	return sb.String()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteAll. reports as consecutive blocks; each header carries its own row and route counts.
func WriteAll(w io.Writer, reports []*Report) error {
	for _, r := range reports {
		if _, err := r.WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}
