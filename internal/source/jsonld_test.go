package source_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcal/internal/config"
	"eventcal/internal/fetch"
	"eventcal/internal/source"
)

func testWindow() source.Window {
	return source.Window{
		Start: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func testClient() *fetch.Client {
	return fetch.New(5*time.Second, "eventcal-test/1.0")
}

func serve(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const jsonldGraphPage = `<!doctype html><html><head>
<script type="application/ld+json">
{"@context":"https://schema.org","@graph":[
 {"@type":"Event","name":"Food Fair","startDate":"2025-09-12","endDate":"2025-09-14",
  "url":"https://town.example/food-fair",
  "location":{"@type":"Place","name":"Market Hall",
    "address":{"streetAddress":"The Square","addressLocality":"Shrewsbury","postalCode":"SY1 1AA"}},
  "description":"Annual fair"},
 {"@type":"WebPage","name":"Not an event"}
]}
</script>
<script type="application/ld+json">not even json</script>
<script type="application/ld+json">
[{"@type":["Festival","Event"],"name":"River Festival","start":"2025-09-20"}]
</script>
</head><body></body></html>`

func TestJSONLDExtract(t *testing.T) {
	srv := serve(t, map[string]string{"/events": jsonldGraphPage})

	ex, err := source.New(config.Source{
		Name: "town", Type: config.TypeJSONLD, URL: srv.URL + "/events",
	}, testClient(), testWindow())
	require.NoError(t, err)

	events, err := ex.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)

	fair := events[0]
	assert.Equal(t, "Food Fair", fair.Summary)
	assert.Equal(t, "2025-09-12", fair.Start)
	assert.Equal(t, "2025-09-14", fair.End)
	assert.Equal(t, "https://town.example/food-fair", fair.URL)
	assert.Equal(t, "Market Hall, The Square, Shrewsbury, SY1 1AA", fair.Location)
	assert.Equal(t, "Annual fair", fair.Description)

	// @type as a list, start via synonym key, url defaulting to the page.
	river := events[1]
	assert.Equal(t, "River Festival", river.Summary)
	assert.Equal(t, "2025-09-20", river.Start)
	assert.Equal(t, "2025-09-20", river.End)
	assert.Equal(t, srv.URL+"/events", river.URL)
}

const plainHTMLPage = `<!doctype html><html><body>
<div class="event"><h3>Gig One</h3><a href="/gig-1">more</a><span class="date">12 Sep 2025</span></div>
<div class="event"><h3>Gig Two</h3><a href="/gig-2">more</a><span class="date">13 Sep 2025</span></div>
<div class="event"><h3>Gig Three</h3><a href="/gig-3">more</a><span class="date">14 Sep 2025</span></div>
</body></html>`

func TestJSONLDFallsBackToHTML(t *testing.T) {
	srv := serve(t, map[string]string{"/events": plainHTMLPage})

	ex, err := source.New(config.Source{
		Name: "town", Type: config.TypeJSONLD, URL: srv.URL + "/events",
		FallbackHTML: true,
	}, testClient(), testWindow())
	require.NoError(t, err)

	events, err := ex.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "Gig One", events[0].Summary)
	assert.Equal(t, "2025-09-12T00:00:00Z", events[0].Start)
}

func TestJSONLDNoFallbackYieldsNothing(t *testing.T) {
	srv := serve(t, map[string]string{"/events": plainHTMLPage})

	ex, err := source.New(config.Source{
		Name: "town", Type: config.TypeJSONLD, URL: srv.URL + "/events",
	}, testClient(), testWindow())
	require.NoError(t, err)

	events, err := ex.Extract(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestJSONLDFetchErrorSurfaces(t *testing.T) {
	srv := serve(t, map[string]string{})

	ex, err := source.New(config.Source{
		Name: "town", Type: config.TypeJSONLD, URL: srv.URL + "/missing",
	}, testClient(), testWindow())
	require.NoError(t, err)

	_, err = ex.Extract(context.Background())
	assert.Error(t, err)
}
