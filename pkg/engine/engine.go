package engine

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/lintang-b-s/Segmentx/pkg/config"
	"github.com/lintang-b-s/Segmentx/pkg/datastructure"
	"github.com/lintang-b-s/Segmentx/pkg/geo"
	"github.com/lintang-b-s/Segmentx/pkg/geocoder"
	"github.com/lintang-b-s/Segmentx/pkg/metrics"
	"github.com/lintang-b-s/Segmentx/pkg/report"
	"github.com/lintang-b-s/Segmentx/pkg/route"
	"github.com/lintang-b-s/Segmentx/pkg/segment"
	"github.com/lintang-b-s/Segmentx/pkg/spatialindex"
	"github.com/lintang-b-s/Segmentx/pkg/telemetry"
	"github.com/lintang-b-s/Segmentx/pkg/util"
	"go.uber.org/zap"
)

const (
	GROUP_BY_DAY  = "day"
	GROUP_BY_FILE = "file"
)

// Options. everything that shapes one report. The http layer overrides a copy per request.
type Options struct {
	Policy   segment.Policy
	Scenario telemetry.Scenario
	Dedupe   bool
	Window   *telemetry.Window
	GroupBy  string
	Workers  int
	Bonus    int

	OutputFile string
	Append     bool
	Roads      bool
	RoadsFile  string
}

// UnitResult. one processed day (or file) with its rendered report and route geometry.
type UnitResult struct {
	Report    *report.Report
	Roads     *report.RoadList // nil unless Options.Roads
	Stats     segment.Stats
	Polylines []string
}

type Engine struct {
	resolver geocoder.Resolver
	reader   *telemetry.Reader
	opts     Options
	metrics  *metrics.Collector
	log      *zap.Logger
}

func NewEngine(resolver geocoder.Resolver, reader *telemetry.Reader, opts Options, collector *metrics.Collector,
	logger *zap.Logger) *Engine {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &Engine{resolver: resolver, reader: reader, opts: opts, metrics: collector, log: logger}
}

// NewEngineFromConfig. wire the resolver chain (provider, retry, cache), the reader and the
// options from cfg.
func NewEngineFromConfig(cfg *config.Config, collector *metrics.Collector, logger *zap.Logger) (*Engine, error) {
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	resolver, err := NewResolver(cfg.Geocode, collector, logger)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	cols := telemetry.Columns{
		Timestamp: cfg.Input.TimestampColumn,
		Latitude:  cfg.Input.LatitudeColumn,
		Longitude: cfg.Input.LongitudeColumn,
		Passenger: cfg.Input.PassengerColumn,
		Gate1:     cfg.Input.Gate1Column,
		Gate3:     cfg.Input.Gate3Column,
	}
	reader := telemetry.NewReader(cols, cfg.Input.TimeLayouts, loc, logger)
	return NewEngine(resolver, reader, opts, collector, logger), nil
}

func OptionsFromConfig(cfg *config.Config) (Options, error) {
	unit, err := segment.ParseUnit(cfg.Segment.Unit)
	if err != nil {
		return Options{}, err
	}
	identity, err := segment.ParseIdentity(cfg.Segment.Identity)
	if err != nil {
		return Options{}, err
	}
	scenario, err := telemetry.ParseScenario(cfg.Filter.Scenario)
	if err != nil {
		return Options{}, err
	}
	window, err := telemetry.ParseWindow(cfg.Filter.WindowStart, cfg.Filter.WindowEnd)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Policy:     segment.Policy{Unit: unit, Identity: identity},
		Scenario:   scenario,
		Dedupe:     cfg.Filter.DedupeCoordinates,
		Window:     window,
		GroupBy:    cfg.Input.GroupBy,
		Workers:    cfg.Geocode.Workers,
		Bonus:      cfg.Output.Bonus,
		OutputFile: cfg.Output.FileName,
		Append:     cfg.Output.Append,
		Roads:      cfg.Output.Roads,
		RoadsFile:  cfg.Output.RoadsFile,
	}, nil
}

// NewResolver. nominatim or the offline road index, retried on transient failures and cached.
func NewResolver(cfg config.GeocodeConfig, obs geocoder.Observer, logger *zap.Logger) (geocoder.Resolver, error) {
	var base geocoder.Resolver
	switch cfg.Provider {
	case "osm":
		logger.Info("Reading road index from ", zap.String("osmIndex", cfg.OSMIndex))
		roads, err := spatialindex.ReadRoads(cfg.OSMIndex)
		if err != nil {
			return nil, util.WrapErrorf(err, util.ErrIOFailure, "read road index %s", cfg.OSMIndex)
		}
		base = spatialindex.NewRoadIndex(roads, cfg.OSMRadius, logger)
	default:
		n, err := geocoder.NewNominatim(geocoder.NominatimConfig{
			BaseURL:   cfg.URL,
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout,
			Rate:      cfg.Rate,
			Burst:     cfg.Burst,
			Fields:    cfg.Fields,
		}, &http.Client{})
		if err != nil {
			return nil, err
		}
		base = n
	}

	policy := geocoder.RetryPolicy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
	}
	var resolver geocoder.Resolver = geocoder.NewRetrying(base, policy, logger, obs)
	if cfg.CacheSize > 0 {
		cached, err := geocoder.NewCached(resolver, cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		resolver = cached
	}
	return resolver, nil
}

func (e *Engine) Options() Options {
	return e.opts
}

func (e *Engine) Metrics() *metrics.Collector {
	return e.metrics
}

// ProcessTrace. resolve every endpoint the trace needs, then build, group and report on the
// trace's own sample order. Lookup concurrency never reaches the segment table.
func (e *Engine) ProcessTrace(ctx context.Context, trace *datastructure.Trace, opts Options) (*UnitResult, error) {
	workers := opts.Workers
	if workers < 1 {
		workers = e.opts.Workers
	}

	coords := segment.Endpoints(trace.Samples())
	if opts.Roads {
		for _, s := range trace.Samples() {
			coords = append(coords, s.Coordinate())
		}
	}
	labels := geocoder.ResolveAll(ctx, e.resolver, coords, workers, e.metrics)
	if err := ctx.Err(); err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "processing %s cancelled", trace.Unit())
	}

	built := segment.NewBuilder(opts.Policy, e.log).Build(trace, labels)
	routes := route.Group(built.Steps)
	rep := report.New(trace.Unit(), built.Table, routes, opts.Bonus)

	e.metrics.ObserveBuild(built.Stats, built.Table.Len(), len(routes))
	if built.Stats.NonPositive > 0 {
		e.log.Warn("non-positive traversal durations retained",
			zap.String("unit", trace.Unit()), zap.Int("count", built.Stats.NonPositive))
	}
	e.log.Info("unit processed",
		zap.String("unit", trace.Unit()),
		zap.Int("samples", trace.Len()),
		zap.Int("traversals", built.Stats.Traversals),
		zap.Int("retained", built.Stats.Retained),
		zap.Int("dropped_unresolved", built.Stats.Unresolved),
		zap.Int("dropped_malformed_timestamp", built.Stats.MalformedTimestamp),
		zap.Int("segments", built.Table.Len()),
		zap.Int("routes", len(routes)))

	res := &UnitResult{Report: rep, Stats: built.Stats, Polylines: RoutePolylines(rep)}
	if opts.Roads {
		res.Roads = report.NewRoadList(trace.Unit(), traveledRoads(trace, labels))
	}
	return res, nil
}

// traveledRoads. resolved road name of every sample in the trace, passenger or not.
func traveledRoads(trace *datastructure.Trace, labels map[geo.Coordinate]geocoder.Resolution) []string {
	names := make([]string, 0, trace.Len())
	for _, s := range trace.Samples() {
		if l, ok := labels[s.Coordinate()]; ok && l.Resolved() {
			names = append(names, l.Label.Name)
		}
	}
	return names
}

// ProcessSamples. split into units, then filter and process each unit in order. Filtering runs
// per unit so a coordinate revisited on a later day is kept there.
func (e *Engine) ProcessSamples(ctx context.Context, samples []datastructure.Sample, name string,
	opts Options) ([]*UnitResult, error) {
	var traces []*datastructure.Trace
	if opts.GroupBy == GROUP_BY_FILE {
		traces = telemetry.Whole(name, samples)
	} else {
		traces = telemetry.SplitByDay(samples)
	}

	filter := telemetry.NewFilter(opts.Scenario, opts.Dedupe, opts.Window)
	var fstats telemetry.FilterStats
	results := make([]*UnitResult, 0, len(traces))
	for _, trace := range traces {
		kept, stats := filter.Apply(trace.Samples())
		fstats.Add(stats)
		res, err := e.ProcessTrace(ctx, datastructure.NewTrace(trace.Unit(), kept), opts)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	e.metrics.ObserveFilter(fstats)
	e.log.Info("samples filtered",
		zap.String("scenario", string(opts.Scenario)),
		zap.Int("units", len(traces)),
		zap.Int("gated", fstats.Gated),
		zap.Int("outside_window", fstats.OutsideWindow),
		zap.Int("duplicates", fstats.Duplicates),
		zap.Int("kept", fstats.Kept))
	return results, nil
}

// ProcessReader. parse csv from r and process it with opts.
func (e *Engine) ProcessReader(ctx context.Context, r io.Reader, name string, opts Options) ([]*UnitResult, error) {
	samples, rstats, err := e.reader.Read(r)
	if err != nil {
		return nil, err
	}
	e.observeRead(name, rstats)
	return e.ProcessSamples(ctx, samples, name, opts)
}

func (e *Engine) observeRead(name string, s telemetry.ReadStats) {
	e.metrics.ObserveRead(s)
	e.log.Info("telemetry read",
		zap.String("input", name),
		zap.Int("rows", s.Rows),
		zap.Int("malformed_rows", s.MalformedRows),
		zap.Int("invalid_coordinate", s.InvalidCoordinate),
		zap.Int("malformed_timestamp", s.MalformedTimestamp))
}

// ProcessFile. process inputPath with the engine's options and write the report file (and the
// traveled-roads file when enabled) into outputDir. Returns the per-unit results and the report path.
func (e *Engine) ProcessFile(ctx context.Context, inputPath, outputDir string) ([]*UnitResult, string, error) {
	samples, rstats, err := e.reader.ReadFile(inputPath)
	if err != nil {
		return nil, "", util.WrapErrorf(err, util.ErrIOFailure, "read %s", inputPath)
	}
	e.observeRead(inputPath, rstats)

	results, err := e.ProcessSamples(ctx, samples, unitName(inputPath), e.opts)
	if err != nil {
		return nil, "", err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, "", util.WrapErrorf(err, util.ErrIOFailure, "create %s", outputDir)
	}
	reports := Reports(results)
	outputPath := filepath.Join(outputDir, e.opts.OutputFile)
	if err := report.Save(outputPath, reports, e.opts.Append); err != nil {
		return nil, "", err
	}
	if e.opts.Roads {
		if err := report.SaveRoads(filepath.Join(outputDir, e.opts.RoadsFile), RoadLists(results), e.opts.Append); err != nil {
			return nil, "", err
		}
	}
	return results, outputPath, nil
}

func Reports(results []*UnitResult) []*report.Report {
	reports := make([]*report.Report, 0, len(results))
	for _, r := range results {
		reports = append(reports, r.Report)
	}
	return reports
}

func RoadLists(results []*UnitResult) []*report.RoadList {
	lists := make([]*report.RoadList, 0, len(results))
	for _, r := range results {
		if r.Roads != nil {
			lists = append(lists, r.Roads)
		}
	}
	return lists
}

// RoutePolylines. one encoded polyline per route, through the start of every segment and the end
// of the last one.
func RoutePolylines(rep *report.Report) []string {
	polylines := make([]string, 0, len(rep.Routes()))
	for _, r := range rep.Routes() {
		coords := make([]geo.Coordinate, 0, r.Len()+1)
		for i, k := range r.Keys() {
			seg, ok := rep.Table().Get(k)
			if !ok {
				continue
			}
			coords = append(coords, seg.From())
			if i == r.Len()-1 {
				coords = append(coords, seg.To())
			}
		}
		polylines = append(polylines, geo.PolylineFromCoords(coords))
	}
	return polylines
}

// unitName. input file name without directories and extensions, the unit for group_by file.
func unitName(path string) string {
	base := filepath.Base(path)
	for ext := filepath.Ext(base); ext != ""; ext = filepath.Ext(base) {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
