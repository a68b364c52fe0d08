package geocoder

import (
	"context"
	"strings"
	"time"

	"github.com/lintang-b-s/Segmentx/pkg/geo"
	"github.com/lintang-b-s/Segmentx/pkg/util"
)

// RoadLabel. resolved road for a coordinate. ID is the provider's place identity (an OSM id),
// Name has whitespace runs replaced by underscores so it is a single output token.
type RoadLabel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func NewRoadLabel(id, name string) RoadLabel {
	return RoadLabel{ID: strings.TrimSpace(id), Name: NormalizeName(name)}
}

func (l RoadLabel) Empty() bool {
	return l.ID == "" || l.Name == ""
}

func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), "_")
}

// Resolver. resolve_road(lat, lon). Any non-nil error means Unresolved; the util code tells why
// (ErrInvalidCoordinate, ErrGeocodeTransient, ErrGeocodeUnresolvable).
// Implementations must be safe for concurrent calls with different coordinates.
type Resolver interface {
	ResolveRoad(ctx context.Context, c geo.Coordinate) (RoadLabel, error)
}

type ResolverFunc func(ctx context.Context, c geo.Coordinate) (RoadLabel, error)

func (f ResolverFunc) ResolveRoad(ctx context.Context, c geo.Coordinate) (RoadLabel, error) {
	return f(ctx, c)
}

func IsTransient(err error) bool {
	return util.Is(err, util.ErrGeocodeTransient)
}

func Outcome(err error) string {
	switch {
	case err == nil:
		return "resolved"
	case util.Is(err, util.ErrInvalidCoordinate):
		return "invalid_coordinate"
	case util.Is(err, util.ErrGeocodeTransient):
		return "transient"
	default:
		return "unresolvable"
	}
}

func checkCoordinate(c geo.Coordinate) error {
	if !c.Valid() {
		return util.WrapErrorf(nil, util.ErrInvalidCoordinate, "coordinate %v out of range", c)
	}
	return nil
}

// Observer. receives lookup and retry events, implemented by the metrics collector.
type Observer interface {
	ObserveLookup(outcome string, latency time.Duration)
	ObserveRetry()
}

type nopObserver struct{}

func (nopObserver) ObserveLookup(string, time.Duration) {}
func (nopObserver) ObserveRetry()                       {}

func NopObserver() Observer {
	return nopObserver{}
}

func errEmptyLabel(c geo.Coordinate) error {
	return util.WrapErrorf(nil, util.ErrGeocodeUnresolvable, "empty road label for %v", c)
}

func IsUnresolved(err error) bool {
	return err != nil
}
