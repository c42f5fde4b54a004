package cdc

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climatehub/dwd-cdc-etl/internal/domain"
)

const listingPage = `<html><head><title>Index of /climate/10_minutes/air_temperature</title></head>
<body><h1>Index of /climate/10_minutes/air_temperature</h1><hr><pre><a href="../">../</a>
<a href="historical/">historical/</a>
<a href="meta_data/">meta_data/</a>
<a href="now/">now/</a>
<a href="recent/">recent/</a>
<a href="zehn_min_tu_Beschreibung_Stationen.txt">zehn_min_tu_Beschreibung_Stationen.txt</a>
</pre><hr></body></html>`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL+"/climate/", srv.URL+"/forecasts/", 5*time.Second, testLogger())
	return client, srv
}

func TestResolveIndex(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listingPage))
	}))

	t.Run("absolute links in document order", func(t *testing.T) {
		resources, err := client.ResolveIndex(context.Background(), srv.URL+"/climate/10_minutes/air_temperature/", IndexOptions{Absolute: true})
		require.NoError(t, err)
		require.Len(t, resources, 5)

		assert.Equal(t, srv.URL+"/climate/10_minutes/air_temperature/historical/", resources[0].URI)
		assert.Equal(t, domain.BucketHistorical, resources[0].Bucket)
		assert.Equal(t, domain.BucketNone, resources[1].Bucket)
		assert.Equal(t, domain.BucketNow, resources[2].Bucket)
		assert.Equal(t, domain.BucketRecent, resources[3].Bucket)
		assert.Contains(t, resources[4].URI, "Beschreibung_Stationen.txt")
	})

	t.Run("relative links strip trailing slash", func(t *testing.T) {
		resources, err := client.ResolveIndex(context.Background(), srv.URL+"/climate/10_minutes/air_temperature/", IndexOptions{})
		require.NoError(t, err)
		assert.Equal(t, "historical", resources[0].URI)
	})

	t.Run("extension substring filter matches directories too", func(t *testing.T) {
		resources, err := client.ResolveIndex(context.Background(), srv.URL+"/climate/10_minutes/air_temperature/", IndexOptions{Extension: "/"})
		require.NoError(t, err)
		require.Len(t, resources, 4)
		for _, r := range resources {
			assert.NotContains(t, r.URI, ".txt")
		}
	})

	t.Run("txt filter", func(t *testing.T) {
		resources, err := client.ResolveIndex(context.Background(), srv.URL+"/climate/10_minutes/air_temperature/", IndexOptions{Extension: ".txt"})
		require.NoError(t, err)
		require.Len(t, resources, 1)
	})
}

func TestResolveIndexFetchError(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := client.ResolveIndex(context.Background(), srv.URL+"/climate/missing/", IndexOptions{})

	var ferr *domain.ResourceFetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, http.StatusNotFound, ferr.StatusCode)
	assert.Equal(t, srv.URL+"/climate/missing/", ferr.URI)
}

func TestGatherResources(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/climate/10_minutes/air_temperature/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listingPage))
	})
	bucketPage := `<html><body><pre><a href="../">../</a>
<a href="zehn_min_tu_Beschreibung_Stationen.txt">desc</a>
<a href="10minutenwerte_TU_00003_akt.zip">data</a>
</pre></body></html>`
	for _, bucket := range []string{"historical", "recent", "now"} {
		mux.HandleFunc("/climate/10_minutes/air_temperature/"+bucket+"/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(bucketPage))
		})
	}

	client, _ := newTestClient(t, mux)
	resources, err := client.GatherResources(context.Background(), "10_minutes", "air_temperature")
	require.NoError(t, err)

	// 5 top-level entries plus 2 per time-bucket subdirectory.
	assert.Len(t, resources, 11)
	assert.Len(t, domain.SelectArchives(resources), 3)
	assert.Len(t, domain.SelectStationDescriptions(resources), 4)
}

func TestForecastIndexSkipsLatest(t *testing.T) {
	page := `<html><body><pre><a href="../">../</a>
<a href="MOSMIX_S_LATEST_240.kmz">latest</a>
<a href="MOSMIX_S_2020031309_240.kmz">run</a>
</pre></body></html>`
	mux := http.NewServeMux()
	mux.HandleFunc("/forecasts/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	})

	client, srv := newTestClient(t, mux)
	resources, err := client.ForecastIndex(context.Background())
	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, srv.URL+"/forecasts/MOSMIX_S_2020031309_240.kmz", resources[0].URI)
}

func zipBytes(t *testing.T, members map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range members {
		f, err := zw.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestFetchArchive(t *testing.T) {
	payload := zipBytes(t, map[string]string{
		"produkt_zehn_min_tu_00003.txt": "STATIONS_ID;MESS_DATUM;QN;eor\n3;202003131040;3;eor\n",
	})
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))

	dir := t.TempDir()
	paths, err := client.FetchArchive(context.Background(), srv.URL+"/climate/x_akt.zip", dir)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, filepath.Join(dir, "produkt_zehn_min_tu_00003.txt"), paths[0])

	content, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "202003131040")
}

func TestFetchArchiveNotZip(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not a zip</html>"))
	}))

	_, err := client.FetchArchive(context.Background(), srv.URL+"/climate/x.zip", t.TempDir())

	var perr *domain.StructuralParseError
	require.ErrorAs(t, err, &perr)
}

func TestFetchForecast(t *testing.T) {
	payload := zipBytes(t, map[string]string{"MOSMIX_S_2020031309_240.kml": "<kml/>"})
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))

	b, err := client.FetchForecast(context.Background(), srv.URL+"/forecasts/MOSMIX_S_2020031309_240.kmz")
	require.NoError(t, err)
	assert.Equal(t, "<kml/>", string(b))
}

func TestFetchStations(t *testing.T) {
	table := "Stations_id von_datum bis_datum Stationshoehe geoBreite geoLaenge Stationsname Bundesland\n" +
		"----\n----\n" +
		"3 19500401 20110331 202 50.7827 6.0941 Aachen Nordrhein-Westfalen\n"
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(table))
	}))

	stations, err := client.FetchStations(context.Background(), srv.URL+"/climate/desc.txt")
	require.NoError(t, err)
	require.Len(t, stations, 1)
	assert.Equal(t, "00003", stations[0].StationID)
	assert.Equal(t, "Aachen", stations[0].Name)
}

func TestFetchDownloadError(t *testing.T) {
	client, _ := newTestClient(t, nil)
	// Point at a closed server to exercise the transport-failure path.
	closed := httptest.NewServer(http.NewServeMux())
	closed.Close()

	_, err := client.FetchArchive(context.Background(), closed.URL+"/x.zip", t.TempDir())

	var ferr *domain.ResourceFetchError
	require.ErrorAs(t, err, &ferr)
	require.Error(t, ferr.Unwrap())
}
