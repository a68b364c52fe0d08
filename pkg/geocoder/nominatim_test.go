package geocoder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lintang-b-s/Segmentx/pkg/geo"
	"github.com/lintang-b-s/Segmentx/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNominatim(t *testing.T, h http.HandlerFunc) *Nominatim {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	n, err := NewNominatim(NominatimConfig{
		BaseURL:   srv.URL,
		UserAgent: "segmentx-test",
		Timeout:   2 * time.Second,
		Fields:    []string{"road", "street"},
	}, srv.Client())
	require.NoError(t, err)
	return n
}

func TestNominatimResolveRoad(t *testing.T) {
	testCases := []struct {
		name     string
		status   int
		body     string
		wantErr  error
		wantName string
		wantID   string
	}{
		{
			name:     "road field",
			status:   http.StatusOK,
			body:     `{"osm_type":"way","osm_id":123,"address":{"road":"Jalan Thamrin","city":"Jakarta"}}`,
			wantName: "Jalan_Thamrin",
			wantID:   "w123",
		},
		{
			name:     "street fallback",
			status:   http.StatusOK,
			body:     `{"osm_type":"node","osm_id":7,"address":{"street":"Elm Street"}}`,
			wantName: "Elm_Street",
			wantID:   "n7",
		},
		{
			name:    "no usable field",
			status:  http.StatusOK,
			body:    `{"osm_type":"way","osm_id":9,"address":{"city":"Nowhere"}}`,
			wantErr: util.ErrGeocodeUnresolvable,
		},
		{
			name:    "provider error",
			status:  http.StatusOK,
			body:    `{"error":"Unable to geocode"}`,
			wantErr: util.ErrGeocodeUnresolvable,
		},
		{
			name:    "too many requests",
			status:  http.StatusTooManyRequests,
			wantErr: util.ErrGeocodeTransient,
		},
		{
			name:    "server error",
			status:  http.StatusBadGateway,
			wantErr: util.ErrGeocodeTransient,
		},
		{
			name:    "bad request",
			status:  http.StatusBadRequest,
			wantErr: util.ErrGeocodeUnresolvable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/reverse", r.URL.Path)
				assert.Equal(t, "segmentx-test", r.Header.Get("User-Agent"))
				q := r.URL.Query()
				assert.Equal(t, "json", q.Get("format"))
				assert.Equal(t, "-6.2", q.Get("lat"))
				assert.Equal(t, "106.8", q.Get("lon"))
				assert.Equal(t, "18", q.Get("zoom"))
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})

			got, err := n.ResolveRoad(context.Background(), geo.NewCoordinate(-6.2, 106.8))
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.True(t, util.Is(err, tc.wantErr), err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantName, got.Name)
			assert.Equal(t, tc.wantID, got.ID)
		})
	}
}

func TestNominatimInvalidCoordinateSkipsRequest(t *testing.T) {
	called := false
	n := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := n.ResolveRoad(context.Background(), geo.NewCoordinate(0, 200))
	require.Error(t, err)
	assert.True(t, util.Is(err, util.ErrInvalidCoordinate))
	assert.False(t, called)
}

func TestNewNominatimRejectsBadURL(t *testing.T) {
	_, err := NewNominatim(NominatimConfig{BaseURL: "not a url"}, nil)
	require.Error(t, err)
	assert.True(t, util.Is(err, util.ErrBadParamInput))
}
