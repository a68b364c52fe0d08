package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lintang-b-s/Segmentx/pkg/datastructure"
	"github.com/lintang-b-s/Segmentx/pkg/engine"
	"github.com/lintang-b-s/Segmentx/pkg/geo"
	"github.com/lintang-b-s/Segmentx/pkg/http/router/controllers"
	"github.com/lintang-b-s/Segmentx/pkg/report"
	"github.com/lintang-b-s/Segmentx/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubReportService struct {
	params controllers.ReportParams
	body   string
	err    error
}

func (s *stubReportService) Generate(ctx context.Context, body io.Reader, params controllers.ReportParams) (
	[]*engine.UnitResult, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrIOFailure, "read body")
	}
	s.body = string(b)
	s.params = params
	if s.err != nil {
		return nil, s.err
	}
	table := datastructure.NewSegmentTable()
	k := datastructure.NewSegmentKey("w1", "w1", "Main_St")
	table.Add(k, geo.NewCoordinate(1, 1), geo.NewCoordinate(1.001, 1.001), 60)
	table.Add(k, geo.NewCoordinate(1.001, 1.001), geo.NewCoordinate(1.002, 1.002), 30)
	rep := report.New("2024-03-01", table, []*datastructure.Route{datastructure.NewRoute([]datastructure.SegmentKey{k, k})},
		report.DefaultBonus)
	return []*engine.UnitResult{{Report: rep, Polylines: engine.RoutePolylines(rep)}}, nil
}

func newTestHandler(svc controllers.ReportService, opts Options) http.Handler {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("segmentx_units_processed_total 1\n"))
	})
	return NewAPI(zap.NewNop(), opts).Handler(svc, metrics)
}

func TestTextReport(t *testing.T) {
	svc := &stubReportService{}
	h := newTestHandler(svc, Options{MaxBodyBytes: 1 << 20})

	req := httptest.NewRequest(http.MethodPost, "/api/reports?unit=minutes&scenario=all", strings.NewReader("csv-body"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "90 1 1 1 100\nw1 w1 Main_St 45.00 30 60 2\n2 Main_St_w1_w1 Main_St_w1_w1\n", rec.Body.String())
	assert.Equal(t, "csv-body", svc.body)
	assert.Equal(t, "minutes", svc.params.Unit)
	assert.Equal(t, "all", svc.params.Scenario)
}

func TestJSONReport(t *testing.T) {
	h := newTestHandler(&stubReportService{}, Options{})

	req := httptest.NewRequest(http.MethodPost, "/api/reports/json", strings.NewReader("x"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []struct {
			Unit    string         `json:"unit"`
			Summary report.Summary `json:"summary"`
			Routes  []struct {
				Segments []string `json:"segments"`
				Polyline string   `json:"polyline"`
			} `json:"routes"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, int64(90), body.Data[0].Summary.TotalDuration)
	require.Len(t, body.Data[0].Routes, 1)
	assert.Equal(t, []string{"Main_St_w1_w1", "Main_St_w1_w1"}, body.Data[0].Routes[0].Segments)
	assert.NotEmpty(t, body.Data[0].Routes[0].Polyline)
}

func TestReportErrors(t *testing.T) {
	testCases := []struct {
		name       string
		target     string
		body       string
		svcErr     error
		maxBody    int64
		wantStatus int
	}{
		{name: "invalid unit", target: "/api/reports?unit=hours", wantStatus: http.StatusBadRequest},
		{name: "invalid scenario", target: "/api/reports?scenario=some", wantStatus: http.StatusBadRequest},
		{
			name: "bad csv", target: "/api/reports",
			svcErr:     util.WrapErrorf(nil, util.ErrBadParamInput, "missing column"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "internal", target: "/api/reports",
			svcErr:     util.WrapErrorf(nil, util.ErrInternalServerError, "boom"),
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "body too large", target: "/api/reports", body: strings.Repeat("a", 64),
			maxBody: 16, wantStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(&stubReportService{err: tc.svcErr}, Options{MaxBodyBytes: tc.maxBody})
			req := httptest.NewRequest(http.MethodPost, tc.target, strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestHeartbeatAndMetrics(t *testing.T) {
	h := newTestHandler(&stubReportService{}, Options{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ".", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "segmentx_units_processed_total")
}

func TestLimit(t *testing.T) {
	h := newTestHandler(&stubReportService{}, Options{RateLimit: 0.001, RateBurst: 2})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader("x"))
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRealIP(t *testing.T) {
	testCases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "x-real-ip", headers: map[string]string{"X-Real-IP": "1.2.3.4"}, want: "1.2.3.4"},
		{name: "forwarded chain", headers: map[string]string{"X-Forwarded-For": "5.6.7.8, 10.0.0.1"}, want: "5.6.7.8"},
		{name: "none", want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, realIP(req))
		})
	}
}
