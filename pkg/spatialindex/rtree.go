package spatialindex

import (
	"context"
	"math"
	"strconv"

	"github.com/lintang-b-s/Segmentx/pkg/geo"
	"github.com/lintang-b-s/Segmentx/pkg/geocoder"
	"github.com/lintang-b-s/Segmentx/pkg/osmparser"
	"github.com/lintang-b-s/Segmentx/pkg/util"
	"github.com/tidwall/rtree"
	"go.uber.org/zap"
)

// RoadIndex. offline resolver: every consecutive node pair of every road is an r-tree leaf and a
// coordinate resolves to the road whose piece is nearest, if it lies within radius.
type RoadIndex struct {
	tr     *rtree.RTreeG[roadPiece]
	roads  []osmparser.Road
	radius float64 // km
}

type roadPiece struct {
	road     int
	from, to geo.Coordinate
}

// NewRoadIndex. radius in km.
func NewRoadIndex(roads []osmparser.Road, radius float64, log *zap.Logger) *RoadIndex {
	log.Info("Building R-tree spatial index...", zap.Int("roads", len(roads)))
	var tr rtree.RTreeG[roadPiece]
	pieces := 0
	for i, r := range roads {
		for j := 0; j+1 < len(r.Coords); j++ {
			from, to := r.Coords[j], r.Coords[j+1]
			tr.Insert([2]float64{math.Min(from.Lon, to.Lon), math.Min(from.Lat, to.Lat)},
				[2]float64{math.Max(from.Lon, to.Lon), math.Max(from.Lat, to.Lat)},
				roadPiece{road: i, from: from, to: to})
			pieces++
		}
	}
	log.Info("R-tree spatial index built.", zap.Int("pieces", pieces))
	return &RoadIndex{tr: &tr, roads: roads, radius: radius}
}

func (ri *RoadIndex) Len() int {
	return len(ri.roads)
}

// Nearest. closest road within the index radius and its distance in meters. Equal distances go to
// the road listed first.
func (ri *RoadIndex) Nearest(qLat, qLon float64) (osmparser.Road, float64, bool) {
	lowerLat, lowerLon := geo.GetDestinationPoint(qLat, qLon, 225, ri.radius*math.Sqrt2)
	upperLat, upperLon := geo.GetDestinationPoint(qLat, qLon, 45, ri.radius*math.Sqrt2)
	q := geo.NewCoordinate(qLat, qLon)

	best := -1
	bestDist := math.Inf(1)
	ri.tr.Search([2]float64{lowerLon, lowerLat}, [2]float64{upperLon, upperLat},
		func(min, max [2]float64, p roadPiece) bool {
			d := geo.PointLinePerpendicularDistance(p.from, p.to, q)
			if d < bestDist || (d == bestDist && p.road < best) {
				best, bestDist = p.road, d
			}
			return true
		})
	if best < 0 || bestDist > ri.radius*1000 {
		return osmparser.Road{}, 0, false
	}
	return ri.roads[best], bestDist, true
}

func (ri *RoadIndex) ResolveRoad(ctx context.Context, c geo.Coordinate) (geocoder.RoadLabel, error) {
	if !c.Valid() {
		return geocoder.RoadLabel{}, util.WrapErrorf(nil, util.ErrInvalidCoordinate, "coordinate %v out of range", c)
	}
	if err := ctx.Err(); err != nil {
		return geocoder.RoadLabel{}, util.WrapErrorf(err, util.ErrGeocodeTransient, "lookup %v", c)
	}
	road, _, ok := ri.Nearest(c.Lat, c.Lon)
	if !ok {
		return geocoder.RoadLabel{}, util.WrapErrorf(nil, util.ErrGeocodeUnresolvable,
			"no road within %v km of %v", ri.radius, c)
	}
	return geocoder.NewRoadLabel("w"+strconv.FormatInt(road.ID, 10), road.Name), nil
}
