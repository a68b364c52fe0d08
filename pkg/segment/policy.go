package segment

import (
	"time"

	"github.com/lintang-b-s/Segmentx/pkg/util"
)

type Unit int

const (
	SECONDS Unit = iota
	MINUTES
)

func ParseUnit(s string) (Unit, error) {
	switch s {
	case "", "seconds":
		return SECONDS, nil
	case "minutes":
		return MINUTES, nil
	default:
		return 0, util.WrapErrorf(nil, util.ErrBadParamInput, "unknown duration unit %q", s)
	}
}

func (u Unit) String() string {
	if u == MINUTES {
		return "minutes"
	}
	return "seconds"
}

// Truncate. d as a whole number of units, truncated toward zero.
func (u Unit) Truncate(d time.Duration) int64 {
	if u == MINUTES {
		return int64(d / time.Minute)
	}
	return int64(d / time.Second)
}

// Identity. how the endpoints of a SegmentKey are named.
type Identity int

const (
	// IDENTITY_OSM. resolver place id, so nearby fixes on the same way collapse into one endpoint.
	IDENTITY_OSM Identity = iota
	// IDENTITY_COORDINATE. the raw lat_lon of the sample.
	IDENTITY_COORDINATE
)

func ParseIdentity(s string) (Identity, error) {
	switch s {
	case "", "osm":
		return IDENTITY_OSM, nil
	case "coordinate":
		return IDENTITY_COORDINATE, nil
	default:
		return 0, util.WrapErrorf(nil, util.ErrBadParamInput, "unknown segment identity %q", s)
	}
}

func (i Identity) String() string {
	if i == IDENTITY_COORDINATE {
		return "coordinate"
	}
	return "osm"
}

type Policy struct {
	Unit     Unit
	Identity Identity
}

func DefaultPolicy() Policy {
	return Policy{Unit: SECONDS, Identity: IDENTITY_OSM}
}
