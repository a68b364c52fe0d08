package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lintang-b-s/Segmentx/pkg/geo"
	"github.com/lintang-b-s/Segmentx/pkg/util"
	"golang.org/x/time/rate"
)

type NominatimConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Rate      float64
	Burst     int
	Fields    []string
}

// Nominatim. reverse geocoder against a nominatim server. Outbound requests share one limiter,
// the public server allows 1 req/s per client.
type Nominatim struct {
	client    *http.Client
	base      *url.URL
	userAgent string
	timeout   time.Duration
	limiter   *rate.Limiter
	fields    []string
}

type nominatimResponse struct {
	OsmID   json.Number       `json:"osm_id"`
	OsmType string            `json:"osm_type"`
	Address map[string]string `json:"address"`
	Error   string            `json:"error"`
}

func NewNominatim(cfg NominatimConfig, client *http.Client) (*Nominatim, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "invalid nominatim url %q", cfg.BaseURL)
	}
	if client == nil {
		client = &http.Client{}
	}
	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	fields := cfg.Fields
	if len(fields) == 0 {
		fields = []string{"road", "street"}
	}
	return &Nominatim{
		client:    client,
		base:      base,
		userAgent: cfg.UserAgent,
		timeout:   cfg.Timeout,
		limiter:   rate.NewLimiter(limit, burst),
		fields:    fields,
	}, nil
}

func (n *Nominatim) reverseURL(c geo.Coordinate) string {
	u := *n.base
	u.Path = strings.TrimRight(u.Path, "/") + "/reverse"
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(c.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(c.Lon, 'f', -1, 64))
	q.Set("zoom", "18")
	q.Set("addressdetails", "1")
	u.RawQuery = q.Encode()
	return u.String()
}

func (n *Nominatim) ResolveRoad(ctx context.Context, c geo.Coordinate) (RoadLabel, error) {
	if err := checkCoordinate(c); err != nil {
		return RoadLabel{}, err
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return RoadLabel{}, util.WrapErrorf(err, util.ErrGeocodeTransient, "rate limiter")
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.reverseURL(c), nil)
	if err != nil {
		return RoadLabel{}, util.WrapErrorf(err, util.ErrGeocodeUnresolvable, "build request for %v", c)
	}
	req.Header.Set("Accept", "application/json")
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return RoadLabel{}, util.WrapErrorf(err, util.ErrGeocodeTransient, "reverse geocode %v", c)
	}
	defer resp.Body.Close()

	if code := statusCode(resp.StatusCode); code != nil {
		io.Copy(io.Discard, resp.Body)
		return RoadLabel{}, util.WrapErrorf(nil, code, "reverse geocode %v: status %d", c, resp.StatusCode)
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		// a truncated body is a network problem, not an answer
		return RoadLabel{}, util.WrapErrorf(err, util.ErrGeocodeTransient, "decode reverse geocode %v", c)
	}
	if body.Error != "" {
		return RoadLabel{}, util.WrapErrorf(nil, util.ErrGeocodeUnresolvable, "reverse geocode %v: %s", c, body.Error)
	}

	name := ""
	for _, f := range n.fields {
		if v := strings.TrimSpace(body.Address[f]); v != "" {
			name = v
			break
		}
	}
	id := body.OsmID.String()
	if name == "" || id == "" {
		return RoadLabel{}, util.WrapErrorf(nil, util.ErrGeocodeUnresolvable, "no road field for %v", c)
	}
	return NewRoadLabel(fmt.Sprintf("%s%s", osmTypePrefix(body.OsmType), id), name), nil
}

func statusCode(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests, status >= 500:
		return util.ErrGeocodeTransient
	default:
		return util.ErrGeocodeUnresolvable
	}
}

// osmTypePrefix. node, way and relation ids overlap, so the id carries the element type.
func osmTypePrefix(osmType string) string {
	switch osmType {
	case "node":
		return "n"
	case "way":
		return "w"
	case "relation":
		return "r"
	default:
		return ""
	}
}
