package geocoder

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lintang-b-s/Segmentx/pkg/geo"
	"github.com/lintang-b-s/Segmentx/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNormalizeName(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{name: "single word", in: "Main", want: "Main"},
		{name: "spaces", in: "Jalan  Sudirman", want: "Jalan_Sudirman"},
		{name: "tabs and padding", in: " Av.\tPaulista ", want: "Av._Paulista"},
		{name: "empty", in: "   ", want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeName(tc.in))
		})
	}
}

func TestRetryPolicyBackoff(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, 2*time.Second, p.Backoff(1))
	assert.Equal(t, 4*time.Second, p.Backoff(2))
	assert.Equal(t, 16*time.Second, p.Backoff(4))
	assert.Equal(t, 32*time.Second, p.Backoff(5))
	assert.Equal(t, 32*time.Second, p.Backoff(9))
}

type scriptedResolver struct {
	mu    sync.Mutex
	errs  []error
	label RoadLabel
	calls int
}

func (s *scriptedResolver) ResolveRoad(ctx context.Context, c geo.Coordinate) (RoadLabel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return RoadLabel{}, err
		}
	}
	return s.label, nil
}

func transient() error {
	return util.WrapErrorf(nil, util.ErrGeocodeTransient, "503")
}

func unresolvable() error {
	return util.WrapErrorf(nil, util.ErrGeocodeUnresolvable, "no road")
}

func TestRetrying(t *testing.T) {
	label := NewRoadLabel("w1", "Main St")
	testCases := []struct {
		name      string
		errs      []error
		wantErr   error
		wantCalls int
		wantWaits []time.Duration
	}{
		{
			name:      "first attempt succeeds",
			wantCalls: 1,
		},
		{
			name:      "transient then success",
			errs:      []error{transient(), transient()},
			wantCalls: 3,
			wantWaits: []time.Duration{2 * time.Second, 4 * time.Second},
		},
		{
			name:      "unresolvable is not retried",
			errs:      []error{unresolvable()},
			wantErr:   util.ErrGeocodeUnresolvable,
			wantCalls: 1,
		},
		{
			name:      "transient exhausts attempts",
			errs:      []error{transient(), transient(), transient(), transient(), transient()},
			wantErr:   util.ErrGeocodeTransient,
			wantCalls: 5,
			wantWaits: []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			next := &scriptedResolver{errs: tc.errs, label: label}
			r := NewRetrying(next, DefaultRetryPolicy(), zap.NewNop(), nil)
			var waits []time.Duration
			r.sleep = func(ctx context.Context, d time.Duration) error {
				waits = append(waits, d)
				return nil
			}

			got, err := r.ResolveRoad(context.Background(), geo.NewCoordinate(-6.2, 106.8))
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.True(t, util.Is(err, tc.wantErr))
				assert.True(t, IsUnresolved(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, label, got)
			}
			assert.Equal(t, tc.wantCalls, next.calls)
			assert.Equal(t, tc.wantWaits, waits)
		})
	}
}

func TestRetryingInvalidCoordinateNeverCallsNext(t *testing.T) {
	next := &scriptedResolver{}
	r := NewRetrying(next, DefaultRetryPolicy(), zap.NewNop(), nil)

	_, err := r.ResolveRoad(context.Background(), geo.NewCoordinate(91, 0))
	require.Error(t, err)
	assert.True(t, util.Is(err, util.ErrInvalidCoordinate))
	assert.Equal(t, 0, next.calls)
}

func TestRetryingHonorsCancellation(t *testing.T) {
	next := &scriptedResolver{errs: []error{transient(), transient()}}
	r := NewRetrying(next, DefaultRetryPolicy(), zap.NewNop(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.ResolveRoad(ctx, geo.NewCoordinate(1, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, next.calls)
}

func TestCachedSkipsTransient(t *testing.T) {
	next := &scriptedResolver{errs: []error{transient(), nil}, label: NewRoadLabel("w2", "Elm")}
	c, err := NewCached(next, 16)
	require.NoError(t, err)
	coord := geo.NewCoordinate(10, 20)

	_, err = c.ResolveRoad(context.Background(), coord)
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())

	got, err := c.ResolveRoad(context.Background(), coord)
	require.NoError(t, err)
	assert.Equal(t, "Elm", got.Name)

	got, err = c.ResolveRoad(context.Background(), coord)
	require.NoError(t, err)
	assert.Equal(t, "Elm", got.Name)
	assert.Equal(t, 2, next.calls)
}

func TestCachedKeepsUnresolvable(t *testing.T) {
	next := &scriptedResolver{errs: []error{unresolvable()}}
	c, err := NewCached(next, 16)
	require.NoError(t, err)
	coord := geo.NewCoordinate(10, 20)

	for i := 0; i < 3; i++ {
		_, err = c.ResolveRoad(context.Background(), coord)
		assert.True(t, util.Is(err, util.ErrGeocodeUnresolvable))
	}
	assert.Equal(t, 1, next.calls)
}

type countingObserver struct {
	lookups atomic.Int64
	retries atomic.Int64
}

func (o *countingObserver) ObserveLookup(string, time.Duration) { o.lookups.Add(1) }
func (o *countingObserver) ObserveRetry()                       { o.retries.Add(1) }

func TestResolveAllDistinct(t *testing.T) {
	var calls atomic.Int64
	r := ResolverFunc(func(ctx context.Context, c geo.Coordinate) (RoadLabel, error) {
		calls.Add(1)
		if c.Lat < 0 {
			return RoadLabel{}, unresolvable()
		}
		return NewRoadLabel(c.String(), "road "+c.String()), nil
	})
	coords := []geo.Coordinate{
		geo.NewCoordinate(1, 1), geo.NewCoordinate(2, 2), geo.NewCoordinate(1, 1),
		geo.NewCoordinate(-1, 3), geo.NewCoordinate(2, 2),
	}
	obs := &countingObserver{}

	got := ResolveAll(context.Background(), r, coords, 4, obs)

	require.Len(t, got, 3)
	assert.Equal(t, int64(3), calls.Load())
	assert.Equal(t, int64(3), obs.lookups.Load())
	assert.True(t, got[geo.NewCoordinate(1, 1)].Resolved())
	assert.Equal(t, "road_1_1", got[geo.NewCoordinate(1, 1)].Label.Name)
	assert.False(t, got[geo.NewCoordinate(-1, 3)].Resolved())
}

func TestResolveAllEmptyLabelIsUnresolved(t *testing.T) {
	r := ResolverFunc(func(ctx context.Context, c geo.Coordinate) (RoadLabel, error) {
		return RoadLabel{ID: "1"}, nil
	})
	got := ResolveAll(context.Background(), r, []geo.Coordinate{geo.NewCoordinate(0, 0)}, 1, nil)
	res := got[geo.NewCoordinate(0, 0)]
	assert.False(t, res.Resolved())
	assert.True(t, util.Is(res.Err, util.ErrGeocodeUnresolvable))
}
