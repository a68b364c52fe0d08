package main

import (
	"flag"
	"fmt"

	"github.com/lintang-b-s/Segmentx/pkg/datastructure"
	"github.com/lintang-b-s/Segmentx/pkg/logger"
	"github.com/lintang-b-s/Segmentx/pkg/osmparser"
	"github.com/lintang-b-s/Segmentx/pkg/spatialindex"
	"go.uber.org/zap"
)

var (
	mapFile = flag.String("map", "./data/map.osm.pbf", "openstreetmap pbf file")
	outFile = flag.String("out", "./data/roads.idx.bz2", "road index output file")
	bbox    = flag.String("bbox", "", "optional minLat,minLon,maxLat,maxLon; only roads touching it are kept")
)

func main() {
	flag.Parse()
	logger, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	box, err := parseBBox(*bbox)
	if err != nil {
		logger.Fatal("invalid bbox", zap.Error(err))
	}

	roads, err := osmparser.ParseRoads(*mapFile, box, logger)
	if err != nil {
		logger.Fatal("parse openstreetmap file", zap.String("map", *mapFile), zap.Error(err))
	}
	if err := spatialindex.WriteRoads(*outFile, roads); err != nil {
		logger.Fatal("write road index", zap.String("out", *outFile), zap.Error(err))
	}
	logger.Sugar().Infof("road index with %d roads written to %s", len(roads), *outFile)
}

func parseBBox(s string) (*datastructure.BoundingBox, error) {
	if s == "" {
		return nil, nil
	}
	var minLat, minLon, maxLat, maxLon float64
	if _, err := fmt.Sscanf(s, "%f,%f,%f,%f", &minLat, &minLon, &maxLat, &maxLon); err != nil {
		return nil, err
	}
	if minLat > maxLat || minLon > maxLon {
		return nil, fmt.Errorf("bbox min corner must not exceed max corner")
	}
	return datastructure.NewBoundingBox(minLat, minLon, maxLat, maxLon), nil
}
