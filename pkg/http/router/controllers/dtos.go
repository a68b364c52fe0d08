package controllers

import (
	"github.com/lintang-b-s/Segmentx/pkg/engine"
	"github.com/lintang-b-s/Segmentx/pkg/report"
)

// ReportParams. per-request overrides, empty means the server default.
type ReportParams struct {
	Name     string `validate:"omitempty,max=128"`
	Unit     string `validate:"omitempty,oneof=seconds minutes"`
	Identity string `validate:"omitempty,oneof=osm coordinate"`
	Scenario string `validate:"omitempty,oneof=both-gates exclude-off-on exclude-off-off all"`
	GroupBy  string `validate:"omitempty,oneof=day file"`
}

type segmentResponse struct {
	Start   string  `json:"start"`
	End     string  `json:"end"`
	Road    string  `json:"road"`
	Average float64 `json:"avg"`
	Min     int64   `json:"min"`
	Max     int64   `json:"max"`
	Count   int     `json:"count"`
}

type routeResponse struct {
	Segments []string `json:"segments"`
	Polyline string   `json:"polyline"`
}

type unitResponse struct {
	Unit     string            `json:"unit"`
	Summary  report.Summary    `json:"summary"`
	Segments []segmentResponse `json:"segments"`
	Routes   []routeResponse   `json:"routes"`
	Dropped  droppedResponse   `json:"dropped"`
}

type droppedResponse struct {
	Unresolved         int `json:"unresolved"`
	MalformedTimestamp int `json:"malformed_timestamp"`
	NonPositive        int `json:"non_positive_durations"`
}

func NewUnitResponses(results []*engine.UnitResult) []unitResponse {
	units := make([]unitResponse, 0, len(results))
	for _, res := range results {
		rep := res.Report
		segs := make([]segmentResponse, 0, rep.Table().Len())
		for _, s := range rep.Table().Segments() {
			k := s.Key()
			segs = append(segs, segmentResponse{
				Start:   k.Start,
				End:     k.End,
				Road:    k.Road,
				Average: s.Average(),
				Min:     s.Min(),
				Max:     s.Max(),
				Count:   s.Count(),
			})
		}

		routes := make([]routeResponse, 0, len(rep.Routes()))
		for i, r := range rep.Routes() {
			tokens := make([]string, 0, r.Len())
			for _, k := range r.Keys() {
				tokens = append(tokens, k.Token())
			}
			rr := routeResponse{Segments: tokens}
			if i < len(res.Polylines) {
				rr.Polyline = res.Polylines[i]
			}
			routes = append(routes, rr)
		}

		units = append(units, unitResponse{
			Unit:     rep.Unit(),
			Summary:  rep.Summary(),
			Segments: segs,
			Routes:   routes,
			Dropped: droppedResponse{
				Unresolved:         res.Stats.Unresolved,
				MalformedTimestamp: res.Stats.MalformedTimestamp,
				NonPositive:        res.Stats.NonPositive,
			},
		})
	}
	return units
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
