package spatialindex

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/dsnet/compress/bzip2"
	"github.com/lintang-b-s/Segmentx/pkg/geo"
	"github.com/lintang-b-s/Segmentx/pkg/geocoder"
	"github.com/lintang-b-s/Segmentx/pkg/osmparser"
	"github.com/lintang-b-s/Segmentx/pkg/util"
)

// WriteRoads. bzip2 text file: a count line, then one "id highway name n lat lon ..." line per road.
// Names are stored normalized so every field is a single token.
func WriteRoads(filename string, roads []osmparser.Road) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	bz, err := bzip2.NewWriter(f, &bzip2.WriterConfig{})
	if err != nil {
		return err
	}

	w := bufio.NewWriter(bz)
	fmt.Fprintf(w, "%d\n", len(roads))
	for _, r := range roads {
		highway := r.Highway
		if highway == "" {
			highway = "-"
		}
		fmt.Fprintf(w, "%d %s %s %d", r.ID, highway, geocoder.NormalizeName(r.Name), len(r.Coords))
		for _, c := range r.Coords {
			fmt.Fprintf(w, " %s %s", strconv.FormatFloat(c.Lat, 'f', -1, 64),
				strconv.FormatFloat(c.Lon, 'f', -1, 64))
		}
		fmt.Fprintf(w, "\n")
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if err := bz.Close(); err != nil {
		return err
	}
	return f.Sync()
}

func ReadRoads(filename string) ([]osmparser.Road, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bz, err := bzip2.NewReader(f, nil)
	if err != nil {
		return nil, err
	}
	defer bz.Close()

	br := bufio.NewReader(bz)
	line, err := util.ReadLine(br)
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "road index header %q", line)
	}

	roads := make([]osmparser.Road, 0, n)
	for i := 0; i < n; i++ {
		line, err := util.ReadLine(br)
		if err != nil {
			return nil, err
		}
		road, err := parseRoad(line)
		if err != nil {
			return nil, util.WrapErrorf(err, util.ErrBadParamInput, "road index line %d", i+2)
		}
		roads = append(roads, road)
	}
	return roads, nil
}

func parseRoad(line string) (osmparser.Road, error) {
	tokens := util.Fields(line)
	if len(tokens) < 4 {
		return osmparser.Road{}, fmt.Errorf("expected at least 4 fields, got %d", len(tokens))
	}
	id, err := strconv.ParseInt(tokens[0], 10, 64)
	if err != nil {
		return osmparser.Road{}, err
	}
	numCoords, err := strconv.Atoi(tokens[3])
	if err != nil {
		return osmparser.Road{}, err
	}
	if len(tokens) != 4+2*numCoords {
		return osmparser.Road{}, fmt.Errorf("expected %d coordinates", numCoords)
	}
	highway := tokens[1]
	if highway == "-" {
		highway = ""
	}

	coords := make([]geo.Coordinate, 0, numCoords)
	for j := 0; j < numCoords; j++ {
		lat, err := util.StringToFloat64(tokens[4+2*j])
		if err != nil {
			return osmparser.Road{}, err
		}
		lon, err := util.StringToFloat64(tokens[5+2*j])
		if err != nil {
			return osmparser.Road{}, err
		}
		coords = append(coords, geo.NewCoordinate(lat, lon))
	}
	return osmparser.Road{ID: id, Name: tokens[2], Highway: highway, Coords: coords}, nil
}
