package sentinel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/airbusgeo/godal"
	"github.com/forest-guardian/water-guardian-cli/internal/eopatch"
	"github.com/forest-guardian/water-guardian-cli/internal/properties"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	godal.RegisterAll()
	os.Exit(m.Run())
}

func at(day, hour, minute int) time.Time {
	return time.Date(2020, 5, day, hour, minute, 0, 0, time.UTC)
}

func TestFilterTimes(t *testing.T) {
	timestamps := []time.Time{at(1, 10, 0), at(1, 10, 5), at(2, 10, 0), at(2, 10, 1), at(6, 9, 0)}

	kept := FilterTimes(timestamps, 24*time.Hour)

	// exactly 24h later is not more than the difference
	assert.Equal(t, []time.Time{at(1, 10, 0), at(2, 10, 1), at(6, 9, 0)}, kept)
	assert.Empty(t, FilterTimes(nil, time.Hour))
}

func TestImageDimensions(t *testing.T) {
	w, h := imageDimensions(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{0.01, 0.01}}, 10)
	assert.Equal(t, 111, w)
	assert.Equal(t, 111, h)

	w, h = imageDimensions(orb.Bound{Min: orb.Point{10, 59.995}, Max: orb.Point{10.01, 60.005}}, 10)
	assert.Equal(t, 55, w)
	assert.Equal(t, 111, h)

	w, h = imageDimensions(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}, 10)
	assert.Equal(t, maxImageSize, w)
	assert.Equal(t, maxImageSize, h)

	w, h = imageDimensions(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{0.00001, 0.00001}}, 10)
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}

func TestEvalscript(t *testing.T) {
	script := evalscript([]string{"B03", "B8A"})

	assert.Contains(t, script, `bands: ["B03", "B8A", "dataMask", "CLM", "CLP"]`)
	assert.Contains(t, script, "bands: 5, sampleType: SampleType.FLOAT32")
	assert.Contains(t, script, "return [sample.B03, sample.B8A, sample.dataMask, sample.CLM, sample.CLP];")
}

func TestCloudCoverFilter(t *testing.T) {
	assert.Equal(t, "eo:cloud_cover <= 10", cloudCoverFilter(0.1))
	assert.Equal(t, "eo:cloud_cover <= 35", cloudCoverFilter(0.35))
}

func TestTimeInterval(t *testing.T) {
	ti, err := ParseTimeInterval("2020-05-01", "2020-05-31")
	require.NoError(t, err)

	assert.Equal(t, "2020-05-01T00:00:00Z/2020-05-31T23:59:59Z", ti.Datetime())
	assert.True(t, ti.Contains(at(31, 23, 0)))
	assert.False(t, ti.Contains(time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2020-05-01..2020-05-31", ti.String())

	_, err = ParseTimeInterval("2020-05-31", "2020-05-01")
	assert.Error(t, err)
	_, err = ParseTimeInterval("yesterday", "2020-05-01")
	assert.Error(t, err)
}

func TestNewClientNeedsCredentials(t *testing.T) {
	_, err := NewClient(context.Background(), properties.New())
	assert.Error(t, err)
}

// fakeHub serves the token, catalog and process endpoints.
type fakeHub struct {
	*httptest.Server
	catalogCalls atomic.Int32
	processCalls atomic.Int32
	pages        [][]time.Time
	scene        []byte
	lastCatalog  catalogRequest
}

func newFakeHub(t *testing.T, pages [][]time.Time, scene []byte) *fakeHub {
	hub := &fakeHub{pages: pages, scene: scene}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"secret-token","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc(catalogPath, func(w http.ResponseWriter, r *http.Request) {
		hub.catalogCalls.Add(1)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))

		var req catalogRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		hub.lastCatalog = req

		page := req.Next
		var features []map[string]any
		for _, ts := range hub.pages[page] {
			features = append(features, map[string]any{"properties": map[string]any{"datetime": ts.Format(time.RFC3339)}})
		}
		response := map[string]any{"type": "FeatureCollection", "features": features, "context": map[string]any{}}
		if page+1 < len(hub.pages) {
			response["context"] = map[string]any{"next": page + 1}
		}
		json.NewEncoder(w).Encode(response)
	})
	mux.HandleFunc(processPath, func(w http.ResponseWriter, r *http.Request) {
		hub.processCalls.Add(1)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "image/tiff")
		w.Write(hub.scene)
	})
	hub.Server = httptest.NewServer(mux)
	t.Cleanup(hub.Close)
	return hub
}

func newTestClient(t *testing.T, hub *fakeHub, bands []string) *Client {
	t.Helper()
	cfg := properties.New(
		properties.WithCredentials("id", "secret"),
		properties.WithEndpoints(hub.URL, hub.URL+"/token"),
		properties.WithCacheFolder(t.TempDir()),
		properties.WithBandNames(bands),
		properties.WithMaxThreads(2),
	)
	client, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)
	return client
}

var lakeBBox = orb.Bound{Min: orb.Point{14.10, 45.90}, Max: orb.Point{14.12, 45.92}}

func TestSearchTimestampsFollowsPagesAndCaches(t *testing.T) {
	hub := newFakeHub(t, [][]time.Time{{at(6, 10, 0), at(1, 10, 0)}, {at(11, 10, 0)}}, nil)
	client := newTestClient(t, hub, []string{"B03", "B8A"})
	interval, err := ParseTimeInterval("2020-05-01", "2020-05-31")
	require.NoError(t, err)

	timestamps, err := client.SearchTimestamps(context.Background(), lakeBBox, interval)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{at(1, 10, 0), at(6, 10, 0), at(11, 10, 0)}, timestamps)
	assert.Equal(t, int32(2), hub.catalogCalls.Load())
	assert.Equal(t, []string{properties.CollectionL2A}, hub.lastCatalog.Collections)
	assert.Equal(t, "eo:cloud_cover <= 10", hub.lastCatalog.Filter)
	assert.Equal(t, [4]float64{14.10, 45.90, 14.12, 45.92}, hub.lastCatalog.BBox)

	again, err := client.SearchTimestamps(context.Background(), lakeBBox, interval)
	require.NoError(t, err)
	assert.Len(t, again, 3)
	assert.Equal(t, int32(2), hub.catalogCalls.Load())
}

func TestSearchTimestampsReportsUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"t","token_type":"bearer","expires_in":3600}`))
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	cfg := properties.New(
		properties.WithCredentials("id", "secret"),
		properties.WithEndpoints(server.URL, server.URL+"/token"),
		properties.WithCacheFolder(t.TempDir()),
	)
	client, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)

	interval, _ := ParseTimeInterval("2020-05-01", "2020-05-02")
	_, err = client.SearchTimestamps(context.Background(), lakeBBox, interval)
	assert.ErrorContains(t, err, "unauthorized")
}

// writeScene builds a 3x2 GeoTIFF with two reflectance bands and the auxiliary bands.
func writeScene(t *testing.T) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.tif")
	const width, height = 3, 2

	ds, err := godal.Create(godal.GTiff, path, 5, godal.Float32, width, height)
	require.NoError(t, err)
	values := [][]float32{
		{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}, // B03
		{0.6, 0.5, 0.4, 0.3, 0.2, 0.1}, // B8A
		{1, 1, 1, 1, 1, 0},             // dataMask
		{0, 0, 1, 0, 0, 0},             // CLM
		{10, 20, 200, 30, 40, 0},       // CLP
	}
	for i, band := range ds.Bands() {
		require.NoError(t, band.Write(0, 0, values[i], width, height))
	}
	require.NoError(t, ds.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestFetchAssemblesPatch(t *testing.T) {
	hub := newFakeHub(t, [][]time.Time{{at(1, 10, 0), at(1, 10, 5), at(6, 10, 0)}}, writeScene(t))
	client := newTestClient(t, hub, []string{"B03", "B8A"})
	interval, err := ParseTimeInterval("2020-05-01", "2020-05-31")
	require.NoError(t, err)

	p, err := client.Fetch(context.Background(), lakeBBox, interval)
	require.NoError(t, err)
	require.NoError(t, p.Validate())

	assert.Equal(t, []time.Time{at(1, 10, 0), at(6, 10, 0)}, p.Timestamps)
	assert.Equal(t, int32(2), hub.processCalls.Load())

	bands := p.Data[eopatch.Bands]
	assert.Equal(t, eopatch.Shape{Time: 2, Height: 2, Width: 3, Channels: 2}, bands.Shape)
	assert.InDelta(t, 0.4, bands.At(1, 1, 0, 0), 1e-6)
	assert.InDelta(t, 0.3, bands.At(1, 1, 0, 1), 1e-6)
	assert.Equal(t, []uint8{1, 1, 1, 1, 1, 0}, p.Mask[eopatch.IsData].Frame(0))
	assert.Equal(t, []uint8{0, 0, 1, 0, 0, 0}, p.Mask[eopatch.CLM].Frame(1))
	assert.Equal(t, []uint8{10, 20, 200, 30, 40, 0}, p.Mask[eopatch.CLP].Frame(0))

	// scenes come from the download cache the second time
	_, err = client.Fetch(context.Background(), lakeBBox, interval)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hub.processCalls.Load())
}

func TestFetchRejectsSceneWithWrongBandCount(t *testing.T) {
	hub := newFakeHub(t, [][]time.Time{{at(1, 10, 0)}}, writeScene(t))
	client := newTestClient(t, hub, []string{"B02", "B03", "B8A"})
	interval, _ := ParseTimeInterval("2020-05-01", "2020-05-31")

	_, err := client.Fetch(context.Background(), lakeBBox, interval)
	assert.ErrorContains(t, err, "bands")
}

func TestFetchWithoutAcquisitions(t *testing.T) {
	hub := newFakeHub(t, [][]time.Time{{}}, nil)
	client := newTestClient(t, hub, []string{"B03", "B8A"})
	interval, _ := ParseTimeInterval("2020-05-01", "2020-05-31")

	p, err := client.Fetch(context.Background(), lakeBBox, interval)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Len())
	assert.False(t, p.IsEmpty())
	assert.Equal(t, int32(0), hub.processCalls.Load())
}

func TestToUint8(t *testing.T) {
	assert.Equal(t, []uint8{0, 0, 1, 255, 128}, toUint8([]float32{float32(-1), 0, 0.6, 300, 127.5}))
}
