// Package mapillary provides a client for the Mapillary Graph API image search.
package mapillary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the Mapillary Graph API endpoint.
const DefaultBaseURL = "https://graph.mapillary.com"

// Client defines the Mapillary image lookups.
type Client interface {
	// ImagesCloseTo returns the images within radiusM metres of (lat, lon) as
	// a GeoJSON feature collection of points.
	ImagesCloseTo(ctx context.Context, lat, lon, radiusM float64) (*geojson.FeatureCollection, error)
}

// Option configures the Mapillary client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLimit sets the maximum number of images requested per lookup.
func WithLimit(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.limit = n
		}
	}
}

type httpClient struct {
	token   string
	baseURL string
	limit   int
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Mapillary client authenticated with an access token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: DefaultBaseURL,
		limit:   100,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(10, 10),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// imagesResponse is the Graph API /images payload.
type imagesResponse struct {
	Data []image `json:"data"`
}

type image struct {
	ID               string         `json:"id"`
	CapturedAt       int64          `json:"captured_at"`
	Geometry         *pointGeometry `json:"geometry"`
	ComputedGeometry *pointGeometry `json:"computed_geometry"`
}

type pointGeometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func (g *pointGeometry) point() (orb.Point, bool) {
	if g == nil || len(g.Coordinates) < 2 {
		return orb.Point{}, false
	}
	return orb.Point{g.Coordinates[0], g.Coordinates[1]}, true
}

// ImagesCloseTo searches the bounding box around the circle and keeps the
// images inside it. The API caps a search at c.limit images, so a full page
// with no hit inside the circle may hide closer images; in that case the
// search is repeated on the square inscribed in the circle.
func (c *httpClient) ImagesCloseTo(ctx context.Context, lat, lon, radiusM float64) (*geojson.FeatureCollection, error) {
	if radiusM <= 0 {
		return nil, eris.Errorf("mapillary: radius must be positive, got %v", radiusM)
	}

	center := orb.Point{lon, lat}
	images, err := c.search(ctx, geo.NewBoundAroundPoint(center, radiusM))
	if err != nil {
		return nil, err
	}

	fc := toFeatureCollection(center, radiusM, images)
	if len(fc.Features) > 0 || len(images) < c.limit {
		return fc, nil
	}

	images, err = c.search(ctx, geo.NewBoundAroundPoint(center, radiusM/math.Sqrt2))
	if err != nil {
		return nil, err
	}
	return toFeatureCollection(center, radiusM, images), nil
}

// search runs one /images query for bound.
func (c *httpClient) search(ctx context.Context, bound orb.Bound) ([]image, error) {
	q := url.Values{}
	q.Set("fields", "id,captured_at,geometry,computed_geometry")
	q.Set("bbox", formatBBox(bound))
	q.Set("limit", strconv.Itoa(c.limit))
	reqURL := fmt.Sprintf("%s/images?%s", c.baseURL, q.Encode())

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "mapillary: rate limiter wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "mapillary: create request")
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "mapillary: request failed")
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, eris.Wrap(err, "mapillary: read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("mapillary: unexpected status %d: %s", resp.StatusCode, truncate(body, 512))
	}

	var result imagesResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "mapillary: unmarshal response")
	}
	return result.Data, nil
}

// toFeatureCollection keeps images whose position lies within radiusM of
// center. The computed geometry is preferred over the raw GPS position.
func toFeatureCollection(center orb.Point, radiusM float64, images []image) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, img := range images {
		pt, ok := img.ComputedGeometry.point()
		if !ok {
			pt, ok = img.Geometry.point()
		}
		if !ok {
			continue
		}
		if geo.DistanceHaversine(center, pt) > radiusM {
			continue
		}

		f := geojson.NewFeature(pt)
		f.ID = img.ID
		f.Properties["id"] = img.ID
		if img.CapturedAt > 0 {
			f.Properties["captured_at"] = img.CapturedAt
		}
		fc.Append(f)
	}
	return fc
}

// formatBBox renders a bound as minLon,minLat,maxLon,maxLat.
func formatBBox(b orb.Bound) string {
	return fmt.Sprintf("%s,%s,%s,%s",
		strconv.FormatFloat(b.Min.Lon(), 'f', 6, 64),
		strconv.FormatFloat(b.Min.Lat(), 'f', 6, 64),
		strconv.FormatFloat(b.Max.Lon(), 'f', 6, 64),
		strconv.FormatFloat(b.Max.Lat(), 'f', 6, 64),
	)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
