package osmparser

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/lintang-b-s/Segmentx/pkg/datastructure"
	"github.com/lintang-b-s/Segmentx/pkg/geo"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"go.uber.org/zap"
)

var (
	acceptedHighway = map[string]struct{}{
		"motorway":         struct{}{},
		"motorway_link":    struct{}{},
		"trunk":            struct{}{},
		"trunk_link":       struct{}{},
		"primary":          struct{}{},
		"primary_link":     struct{}{},
		"secondary":        struct{}{},
		"secondary_link":   struct{}{},
		"residential":      struct{}{},
		"residential_link": struct{}{},
		"service":          struct{}{},
		"tertiary":         struct{}{},
		"tertiary_link":    struct{}{},
		"road":             struct{}{},
		"track":            struct{}{},
		"unclassified":     struct{}{},
		"undefined":        struct{}{},
		"unknown":          struct{}{},
		"living_street":    struct{}{},
		"private":          struct{}{},
		"motorroad":        struct{}{},
	}
)

// Road. named drivable osm way with its node geometry in way order.
type Road struct {
	ID      int64
	Name    string
	Highway string
	Coords  []geo.Coordinate
}

type pendingWay struct {
	id      int64
	name    string
	highway string
	nodes   []int64
}

func acceptOsmWay(way *osm.Way) bool {
	highway := way.Tags.Find("highway")
	junction := way.Tags.Find("junction")
	if highway != "" {
		if _, ok := acceptedHighway[highway]; ok {
			return true
		}
	} else if junction != "" {
		return true
	}
	return false
}

// roadName. name, falling back to ref for unnamed numbered roads.
func roadName(way *osm.Way) string {
	if name := strings.TrimSpace(way.Tags.Find("name")); name != "" {
		return name
	}
	return strings.TrimSpace(way.Tags.Find("ref"))
}

// ParseRoads. scan mapFile twice: ways first to learn which nodes matter, then nodes for their
// coordinates. When bbox is non-nil only ways with at least one node inside it are kept.
func ParseRoads(mapFile string, bbox *datastructure.BoundingBox, logger *zap.Logger) ([]Road, error) {
	f, err := os.Open(mapFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ways, wayNodes, err := scanWays(f, logger)
	if err != nil {
		return nil, err
	}

	if _, err = f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	nodeCoords, err := scanNodes(f, wayNodes)
	if err != nil {
		return nil, err
	}

	roads := make([]Road, 0, len(ways))
	for _, w := range ways {
		coords := make([]geo.Coordinate, 0, len(w.nodes))
		inside := bbox == nil
		for _, n := range w.nodes {
			c, ok := nodeCoords[n]
			if !ok {
				continue
			}
			if !inside && bbox.Contains(c.Lat, c.Lon) {
				inside = true
			}
			coords = append(coords, c)
		}
		if len(coords) < 2 || !inside {
			continue
		}
		roads = append(roads, Road{ID: w.id, Name: w.name, Highway: w.highway, Coords: coords})
	}

	logger.Info("openstreetmap roads parsed", zap.Int("ways", len(ways)), zap.Int("roads", len(roads)),
		zap.Int("nodes", len(nodeCoords)))
	return roads, nil
}

func scanWays(r io.Reader, logger *zap.Logger) ([]pendingWay, map[int64]struct{}, error) {
	scanner := osmpbf.New(context.Background(), r, 0)
	// must not be parallel
	defer scanner.Close()
	scanner.SkipNodes = true
	scanner.SkipRelations = true

	ways := make([]pendingWay, 0)
	wayNodes := make(map[int64]struct{})
	countWays := 0
	for scanner.Scan() {
		way, ok := scanner.Object().(*osm.Way)
		if !ok || len(way.Nodes) < 2 || !acceptOsmWay(way) {
			continue
		}
		name := roadName(way)
		if name == "" {
			continue
		}
		if (countWays+1)%50000 == 0 {
			logger.Sugar().Infof("scanning openstreetmap ways: %d...", countWays+1)
		}
		countWays++

		nodes := make([]int64, 0, len(way.Nodes))
		for _, n := range way.Nodes {
			nodes = append(nodes, int64(n.ID))
			wayNodes[int64(n.ID)] = struct{}{}
		}
		ways = append(ways, pendingWay{
			id:      int64(way.ID),
			name:    name,
			highway: way.Tags.Find("highway"),
			nodes:   nodes,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return ways, wayNodes, nil
}

func scanNodes(r io.Reader, wayNodes map[int64]struct{}) (map[int64]geo.Coordinate, error) {
	scanner := osmpbf.New(context.Background(), r, 0)
	defer scanner.Close()
	scanner.SkipWays = true
	scanner.SkipRelations = true

	coords := make(map[int64]geo.Coordinate, len(wayNodes))
	for scanner.Scan() {
		node, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, ok := wayNodes[int64(node.ID)]; !ok {
			continue
		}
		coords[int64(node.ID)] = geo.NewCoordinate(node.Lat, node.Lon)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return coords, nil
}
