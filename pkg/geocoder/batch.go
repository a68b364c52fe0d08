package geocoder

import (
	"context"
	"time"

	"github.com/lintang-b-s/Segmentx/pkg/concurrent"
	"github.com/lintang-b-s/Segmentx/pkg/geo"
)

type Resolution struct {
	Label RoadLabel
	Err   error
}

func (r Resolution) Resolved() bool {
	return r.Err == nil && !r.Label.Empty()
}

// ResolveAll. look up every distinct coordinate on at most workers goroutines. The result only
// depends on the answers, never on completion order.
func ResolveAll(ctx context.Context, r Resolver, coords []geo.Coordinate, workers int,
	obs Observer) map[geo.Coordinate]Resolution {
	if obs == nil {
		obs = NopObserver()
	}

	distinct := make([]geo.Coordinate, 0, len(coords))
	seen := make(map[geo.Coordinate]struct{}, len(coords))
	for _, c := range coords {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		distinct = append(distinct, c)
	}

	results := concurrent.Map(workers, distinct, func(c geo.Coordinate) Resolution {
		start := time.Now()
		label, err := r.ResolveRoad(ctx, c)
		if err == nil && label.Empty() {
			err = errEmptyLabel(c)
		}
		obs.ObserveLookup(Outcome(err), time.Since(start))
		return Resolution{Label: label, Err: err}
	})

	out := make(map[geo.Coordinate]Resolution, len(distinct))
	for i, c := range distinct {
		out[c] = results[i]
	}
	return out
}
