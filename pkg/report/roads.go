package report

import (
	"bufio"
	"fmt"
	"io"
	"sort"
)

// RoadList. traveled-roads block: "Date: <unit>", "Traveled Roads:", then unique road names sorted.
type RoadList struct {
	unit  string
	roads []string
}

// NewRoadList. names may repeat and come in any order.
func NewRoadList(unit string, names []string) *RoadList {
	seen := make(map[string]struct{}, len(names))
	roads := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		roads = append(roads, n)
	}
	sort.Strings(roads)
	return &RoadList{unit: unit, roads: roads}
}

func (l *RoadList) Unit() string {
	return l.unit
}

func (l *RoadList) Roads() []string {
	return l.roads
}

func (l *RoadList) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)
	fmt.Fprintf(bw, "Date: %s\n", l.unit)
	fmt.Fprintf(bw, "Traveled Roads:\n")
	for _, road := range l.roads {
		fmt.Fprintf(bw, "%s\n", road)
	}
	err := bw.Flush()
	return cw.n, err
}

func WriteRoadLists(w io.Writer, lists []*RoadList) error {
	for _, l := range lists {
		if _, err := l.WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}
