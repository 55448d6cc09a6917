package noaa

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcticlab/coldwatch/internal/observability"
)

const listingHTML = `<html><body>
<a href="smra10.ruhb..txt">smra10.ruhb..txt</a>
<a href="smca01.cwao..txt">smca01.cwao..txt</a>
<a href="smgl05.bgsf..txt">smgl05.bgsf..txt</a>
<a href="smaa20.ruml..txt">smaa20.ruml..txt</a>
<a href="sator99.xxxx..txt">sator99.xxxx..txt</a>
<a href="readme.html">readme.html</a>
</body></html>`

var testBulletins = map[string]string{
	"smra10.ruhb..txt": "SMRA10 RUHB 090000\nAAXX 09001\n30372 12699 61501 11338 21377 39283=\n",
	"smca01.cwao..txt": "SMCA01 CWAO 090600\nAAXX 09061\n71082 12575 71204 11452 21489=\n",
	"smgl05.bgsf..txt": "SMGL05 BGSF 090600\nAAXX 09061\n04270 32566 70310 11290 21310=\n",
	"smaa20.ruml..txt": "SMAA20 RUML 090000\nAAXX 09001\n89606 46/// ///// 11682 21710=\n",
}

func newBulletinServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			fmt.Fprint(w, listingHTML)
			return
		}
		body, ok := testBulletins[r.URL.Path[1:]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, body)
	}))
}

func newSynopFetcher(url string, clk clockwork.Clock) *SynopFetcher {
	return NewSynopFetcher(SynopConfig{
		BaseURL:    url + "/",
		Timeout:    5 * time.Second,
		CacheTTL:   3 * time.Hour,
		BatchSize:  10,
		BatchPause: 0,
	}, slog.Default(), observability.NewMetricsForTesting(), clk)
}

func TestSynopFetchReports(t *testing.T) {
	srv := newBulletinServer(t)
	defer srv.Close()

	f := newSynopFetcher(srv.URL, clockwork.NewRealClock())

	reports, err := f.FetchReports(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 4)

	byStation := make(map[string]float64)
	for _, r := range reports {
		byStation[r.StationID] = r.TempC()
	}
	assert.InDelta(t, -13.8, byStation["30372"], 1e-9)
	assert.InDelta(t, -45.2, byStation["71082"], 1e-9)
	assert.InDelta(t, -29.0, byStation["04270"], 1e-9)
	assert.InDelta(t, -68.2, byStation["89606"], 1e-9, "antarctic bulletin decodes")
}

func TestSynopFetchUsesRegionCache(t *testing.T) {
	srv := newBulletinServer(t)
	defer srv.Close()

	clk := clockwork.NewFakeClockAt(time.Now())
	f := newSynopFetcher(srv.URL, clk)

	first, err := f.FetchReports(context.Background())
	require.NoError(t, err)

	// Break the bulletin bodies; within the TTL the cache still serves.
	for k := range testBulletins {
		testBulletins[k] = "garbage"
	}
	t.Cleanup(restoreBulletins)

	second, err := f.FetchReports(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, first, second)
}

func restoreBulletins() {
	testBulletins = map[string]string{
		"smra10.ruhb..txt": "SMRA10 RUHB 090000\nAAXX 09001\n30372 12699 61501 11338 21377 39283=\n",
		"smca01.cwao..txt": "SMCA01 CWAO 090600\nAAXX 09061\n71082 12575 71204 11452 21489=\n",
		"smgl05.bgsf..txt": "SMGL05 BGSF 090600\nAAXX 09061\n04270 32566 70310 11290 21310=\n",
		"smaa20.ruml..txt": "SMAA20 RUML 090000\nAAXX 09001\n89606 46/// ///// 11682 21710=\n",
	}
}

func TestSynopFetchListingFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := newSynopFetcher(srv.URL, clockwork.NewRealClock())

	_, err := f.FetchReports(context.Background())
	assert.Error(t, err, "no cache and no listing is a source failure")
}

func TestSynopFetchSkipsFailingBulletins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			fmt.Fprint(w, `<a href="smra10.ruhb..txt">x</a><a href="smra11.ruhb..txt">x</a>`)
			return
		}
		if r.URL.Path == "/smra10.ruhb..txt" {
			fmt.Fprint(w, "SMRA10 RUHB 090000\n30372 12699 61501 11338 21377 39283=\n")
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := newSynopFetcher(srv.URL, clockwork.NewRealClock())

	reports, err := f.FetchReports(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1, "the failing bulletin is skipped, not fatal")
	assert.Equal(t, "30372", reports[0].StationID)
}
