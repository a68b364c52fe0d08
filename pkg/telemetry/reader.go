package telemetry

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dsnet/compress/bzip2"
	"github.com/lintang-b-s/Segmentx/pkg/datastructure"
	"github.com/lintang-b-s/Segmentx/pkg/util"
	"go.uber.org/zap"
)

type Columns struct {
	Timestamp string
	Latitude  string
	Longitude []string // first header match wins, the source data misspells it as Longitute
	Passenger string
	Gate1     string
	Gate3     string
}

func DefaultColumns() Columns {
	return Columns{
		Timestamp: "DeviceDateTime",
		Latitude:  "Latitude",
		Longitude: []string{"Longitute", "Longitude"},
		Passenger: "Di2",
		Gate1:     "Di1",
		Gate3:     "Di3",
	}
}

// ReadStats. rows seen and rows dropped or degraded while parsing.
type ReadStats struct {
	Rows               int
	MalformedRows      int
	InvalidCoordinate  int
	MalformedTimestamp int
}

type Reader struct {
	cols    Columns
	layouts []string
	loc     *time.Location
	log     *zap.Logger
}

func NewReader(cols Columns, layouts []string, loc *time.Location, log *zap.Logger) *Reader {
	if loc == nil {
		loc = time.UTC
	}
	return &Reader{cols: cols, layouts: layouts, loc: loc, log: log}
}

// ReadFile. open path (bzip2-compressed when it ends in .bz2) and parse every row.
func (r *Reader) ReadFile(path string) ([]datastructure.Sample, ReadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ReadStats{}, util.WrapErrorf(err, util.ErrIOFailure, "open telemetry file %s", path)
	}
	defer f.Close()

	var in io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".bz2") {
		bz, err := bzip2.NewReader(f, nil)
		if err != nil {
			return nil, ReadStats{}, util.WrapErrorf(err, util.ErrIOFailure, "open bzip2 stream %s", path)
		}
		defer bz.Close()
		in = bz
	}
	return r.Read(in)
}

type columnIndex struct {
	ts, lat, lon, passenger, gate1, gate3 int
}

func (r *Reader) Read(in io.Reader) ([]datastructure.Sample, ReadStats, error) {
	var stats ReadStats

	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, util.WrapErrorf(err, util.ErrBadParamInput, "telemetry file has no header")
		}
		return nil, stats, util.WrapErrorf(err, util.ErrIOFailure, "read telemetry header")
	}
	idx, err := r.makeIndex(header)
	if err != nil {
		return nil, stats, err
	}

	samples := make([]datastructure.Sample, 0, 1024)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		stats.Rows++
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				stats.MalformedRows++
				r.log.Debug("skipping malformed csv row", zap.Int("row", stats.Rows), zap.Error(err))
				continue
			}
			return nil, stats, util.WrapErrorf(err, util.ErrIOFailure, "read telemetry row %d", stats.Rows)
		}

		lat, errLat := util.StringToFloat64(field(record, idx.lat))
		lon, errLon := util.StringToFloat64(field(record, idx.lon))
		if errLat != nil || errLon != nil {
			stats.InvalidCoordinate++
			continue
		}

		passenger := parseFlag(field(record, idx.passenger))
		gate1 := parseFlag(field(record, idx.gate1))
		gate3 := parseFlag(field(record, idx.gate3))

		s := datastructure.NewUntimedSample(lat, lon, passenger, gate1, gate3, stats.Rows)
		if !s.Coordinate().Valid() {
			stats.InvalidCoordinate++
			continue
		}

		ts, err := r.parseTime(field(record, idx.ts))
		if err != nil {
			stats.MalformedTimestamp++
			r.log.Debug("malformed timestamp", zap.Int("row", stats.Rows), zap.Error(err))
		} else {
			s = datastructure.NewSample(ts, lat, lon, passenger, gate1, gate3, stats.Rows)
		}
		samples = append(samples, s)
	}

	return samples, stats, nil
}

func (r *Reader) makeIndex(header []string) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, ok := pos[h]; !ok {
			pos[h] = i
		}
	}

	lookup := func(names ...string) (int, error) {
		for _, n := range names {
			if i, ok := pos[n]; ok {
				return i, nil
			}
		}
		return -1, util.WrapErrorf(nil, util.ErrBadParamInput, "telemetry file is missing column %s", strings.Join(names, "|"))
	}

	var (
		idx columnIndex
		err error
	)
	if idx.ts, err = lookup(r.cols.Timestamp); err != nil {
		return idx, err
	}
	if idx.lat, err = lookup(r.cols.Latitude); err != nil {
		return idx, err
	}
	if idx.lon, err = lookup(r.cols.Longitude...); err != nil {
		return idx, err
	}
	if idx.passenger, err = lookup(r.cols.Passenger); err != nil {
		return idx, err
	}
	if idx.gate1, err = lookup(r.cols.Gate1); err != nil {
		return idx, err
	}
	if idx.gate3, err = lookup(r.cols.Gate3); err != nil {
		return idx, err
	}
	return idx, nil
}

func (r *Reader) parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, util.WrapErrorf(nil, util.ErrMalformedTimestamp, "empty timestamp")
	}
	for _, layout := range r.layouts {
		if t, err := time.ParseInLocation(layout, s, r.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, util.WrapErrorf(nil, util.ErrMalformedTimestamp, "unparseable timestamp %q", s)
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

// parseFlag. digital inputs arrive as 0/1, sometimes as 1.0 or true.
func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "1.0", "true", "t", "yes":
		return true
	default:
		return false
	}
}
