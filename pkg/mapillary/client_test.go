package mapillary

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImagesCloseTo_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/images", r.URL.Path)
		assert.Equal(t, "OAuth test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "id,captured_at,geometry,computed_geometry", r.URL.Query().Get("fields"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))

		parts := strings.Split(r.URL.Query().Get("bbox"), ",")
		require.Len(t, parts, 4)
		minLon, _ := strconv.ParseFloat(parts[0], 64)
		minLat, _ := strconv.ParseFloat(parts[1], 64)
		maxLon, _ := strconv.ParseFloat(parts[2], 64)
		maxLat, _ := strconv.ParseFloat(parts[3], 64)
		assert.Less(t, minLon, 2.3488)
		assert.Greater(t, maxLon, 2.3488)
		assert.Less(t, minLat, 48.85341)
		assert.Greater(t, maxLat, 48.85341)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[
			{"id":"1","captured_at":1600000000000,"geometry":{"type":"Point","coordinates":[2.3490,48.8535]}},
			{"id":"2","computed_geometry":{"type":"Point","coordinates":[2.3489,48.8534]},"geometry":{"type":"Point","coordinates":[9.0,9.0]}}
		]}`))
	}))
	defer srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL), WithRateLimit(0))
	fc, err := client.ImagesCloseTo(context.Background(), 48.85341, 2.3488, 500)

	require.NoError(t, err)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "1", fc.Features[0].ID)
	assert.Equal(t, int64(1600000000000), fc.Features[0].Properties["captured_at"])
	assert.Equal(t, orb.Point{2.3489, 48.8534}, fc.Features[1].Geometry, "computed geometry preferred")
}

func TestImagesCloseTo_FiltersOutsideRadius(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Corner of the bbox is ~700 m from the centre, outside a 500 m circle.
		w.Write([]byte(`{"data":[
			{"id":"corner","geometry":{"type":"Point","coordinates":[2.3549,48.8579]}},
			{"id":"nogeom"}
		]}`))
	}))
	defer srv.Close()

	client := NewClient("tok", WithBaseURL(srv.URL), WithRateLimit(0))
	fc, err := client.ImagesCloseTo(context.Background(), 48.85341, 2.3488, 500)

	require.NoError(t, err)
	assert.Empty(t, fc.Features)
}

func TestImagesCloseTo_FullPageOutsideRadiusNarrowsSearch(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		bboxes []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		bboxes = append(bboxes, r.URL.Query().Get("bbox"))
		n := len(bboxes)
		mu.Unlock()

		if n == 1 {
			var items []string
			for i := 0; i < 3; i++ {
				items = append(items, fmt.Sprintf(`{"id":"corner-%d","geometry":{"type":"Point","coordinates":[2.3549,48.8579]}}`, i))
			}
			w.Write([]byte(`{"data":[` + strings.Join(items, ",") + `]}`))
			return
		}
		w.Write([]byte(`{"data":[{"id":"near","geometry":{"type":"Point","coordinates":[2.3489,48.8535]}}]}`))
	}))
	defer srv.Close()

	client := NewClient("tok", WithBaseURL(srv.URL), WithRateLimit(0), WithLimit(3))
	fc, err := client.ImagesCloseTo(context.Background(), 48.85341, 2.3488, 500)

	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "near", fc.Features[0].ID)

	require.Len(t, bboxes, 2)
	outer := strings.Split(bboxes[0], ",")
	inner := strings.Split(bboxes[1], ",")
	outerMin, _ := strconv.ParseFloat(outer[0], 64)
	innerMin, _ := strconv.ParseFloat(inner[0], 64)
	assert.Greater(t, innerMin, outerMin, "second search covers the inscribed square")
}

func TestImagesCloseTo_PartialPageSearchesOnce(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"data":[{"id":"corner","geometry":{"type":"Point","coordinates":[2.3549,48.8579]}}]}`))
	}))
	defer srv.Close()

	client := NewClient("tok", WithBaseURL(srv.URL), WithRateLimit(0), WithLimit(3))
	fc, err := client.ImagesCloseTo(context.Background(), 48.85341, 2.3488, 500)

	require.NoError(t, err)
	assert.Empty(t, fc.Features)
	assert.Equal(t, int32(1), calls.Load())
}

func TestImagesCloseTo_EmptyData(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	client := NewClient("tok", WithBaseURL(srv.URL))
	fc, err := client.ImagesCloseTo(context.Background(), 0, 0, 500)

	require.NoError(t, err)
	require.NotNil(t, fc)
	assert.Empty(t, fc.Features)
}

func TestImagesCloseTo_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid OAuth access token"}}`))
	}))
	defer srv.Close()

	client := NewClient("bad", WithBaseURL(srv.URL))
	_, err := client.ImagesCloseTo(context.Background(), 48.85, 2.35, 500)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "Invalid OAuth access token")
}

func TestImagesCloseTo_MalformedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := NewClient("tok", WithBaseURL(srv.URL))
	_, err := client.ImagesCloseTo(context.Background(), 48.85, 2.35, 500)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestImagesCloseTo_InvalidRadius(t *testing.T) {
	t.Parallel()

	client := NewClient("tok")
	_, err := client.ImagesCloseTo(context.Background(), 48.85, 2.35, 0)
	require.Error(t, err)
}

func TestImagesCloseTo_ContextCanceled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("tok", WithBaseURL(srv.URL), WithRateLimit(0))
	_, err := client.ImagesCloseTo(ctx, 48.85, 2.35, 500)
	require.Error(t, err)
}

func TestWithLimit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	client := NewClient("tok", WithBaseURL(srv.URL), WithLimit(5), WithHTTPClient(srv.Client()))
	_, err := client.ImagesCloseTo(context.Background(), 1, 1, 500)
	require.NoError(t, err)
}

func TestFormatBBox(t *testing.T) {
	t.Parallel()

	b := orb.Bound{Min: orb.Point{-1.5, 2.25}, Max: orb.Point{3, 4.125}}
	assert.Equal(t, "-1.500000,2.250000,3.000000,4.125000", formatBBox(b))
}
