package source_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcal/internal/config"
	"eventcal/internal/source"
)

const rssBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Town Noticeboard</title>
<link>https://town.example/news</link>
<item>
  <title>Duck Race</title>
  <link>https://town.example/duck-race</link>
  <description>Annual charity duck race</description>
  <pubDate>Fri, 12 Sep 2025 09:00:00 GMT</pubDate>
</item>
<item>
  <title>Undated Notice</title>
</item>
</channel>
</rss>`

func TestFeedExtract(t *testing.T) {
	srv := serve(t, map[string]string{"/feed": rssBody})

	ex, err := source.New(config.Source{
		Name: "noticeboard", Type: config.TypeFeed, URL: srv.URL + "/feed",
	}, testClient(), testWindow())
	require.NoError(t, err)

	events, err := ex.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)

	duck := events[0]
	assert.Equal(t, "Duck Race", duck.Summary)
	// Published timestamp as best-effort start.
	assert.Equal(t, "2025-09-12T09:00:00Z", duck.Start)
	assert.Equal(t, duck.Start, duck.End)
	assert.Equal(t, "https://town.example/duck-race", duck.URL)
	assert.Equal(t, "Annual charity duck race", duck.Description)

	// No date at all: passed through empty, the window filter drops it.
	assert.Empty(t, events[1].Start)
	assert.Equal(t, srv.URL+"/feed", events[1].URL)
}

func TestFeedMalformed(t *testing.T) {
	srv := serve(t, map[string]string{"/feed": "<html>this is not a feed</html>"})

	ex, err := source.New(config.Source{
		Name: "noticeboard", Type: config.TypeFeed, URL: srv.URL + "/feed",
	}, testClient(), testWindow())
	require.NoError(t, err)

	_, err = ex.Extract(context.Background())
	assert.Error(t, err)
}
