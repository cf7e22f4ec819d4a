package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNominatimSearch(t *testing.T) {
	var gotPath, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"lat": "12.9716", "lon": "77.5946", "display_name": "MG Road, Bengaluru"},
			{"lat": "not-a-number", "lon": "77.0", "display_name": "broken row"},
			{"lat": "12.9352", "lon": "77.6245", "display_name": "Koramangala, Bengaluru"}
		]`))
	}))
	defer server.Close()

	geocoder := NewNominatim(server.URL)
	results, err := geocoder.Search(context.Background(), "MG Road", 3)
	require.NoError(t, err)

	// The unparseable row is dropped, the rest come through in order.
	require.Len(t, results, 2)
	assert.InDelta(t, 12.9716, results[0].Coords.Lat, 1e-9)
	assert.InDelta(t, 77.5946, results[0].Coords.Lng, 1e-9)
	assert.Equal(t, "MG Road, Bengaluru", results[0].DisplayName)
	assert.Equal(t, "Koramangala, Bengaluru", results[1].DisplayName)

	assert.Contains(t, gotPath, "q=MG+Road")
	assert.Contains(t, gotPath, "limit=3")
	assert.Equal(t, "CabRouteEstimator/1.0", gotAgent)
}

func TestNominatimSearchDefaultLimit(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	geocoder := NewNominatim(server.URL)
	results, err := geocoder.Search(context.Background(), "nowhere", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Contains(t, gotPath, "limit=5")
}

func TestNominatimSearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer server.Close()

	geocoder := NewNominatim(server.URL)
	_, err := geocoder.Search(context.Background(), "MG Road", 1)
	require.Error(t, err)

	var gerr *ErrGeocodingFailed
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "MG Road", gerr.Query)
	assert.Contains(t, gerr.Reason, "429")
}

func TestNominatimSearchCancelledContext(t *testing.T) {
	geocoder := NewNominatim("http://127.0.0.1:1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := geocoder.Search(ctx, "MG Road", 1)
	assert.ErrorIs(t, err, context.Canceled)
}
