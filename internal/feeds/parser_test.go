package feeds_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"philcali.me/pubsubhubbub/internal/exceptions"
	"philcali.me/pubsubhubbub/internal/feeds"
)

const ATOM_FEED = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Example Feed</title>
  <link href="http://example.org/"/>
  <link rel="self" href="http://feed.example/atom"/>
  <link rel="hub" href="http://hub.example/"/>
  <link rel="hub" href="http://backup-hub.example/"/>
  <updated>2003-12-13T18:30:02Z</updated>
  <id>urn:uuid:60a76c80-d399-11d9-b93C-0003939e0af6</id>
  <entry>
    <title>Atom-Powered Robots Run Amok</title>
    <link href="http://example.org/2003/12/13/atom03"/>
    <id>urn:uuid:1225c695-cfb8-4ebb-aaaa-80da344efa6a</id>
    <updated>2003-12-13T18:30:02Z</updated>
  </entry>
</feed>`

const RSS_FEED = `<?xml version="1.0"?>
<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">
  <channel>
    <title>Example RSS</title>
    <link>http://example.org/</link>
    <atom:link rel="hub" href="http://hub.example/"/>
    <atom:link rel="self" href="http://feed.example/rss"/>
    <item>
      <title>First</title>
      <link>http://example.org/first</link>
      <guid>first</guid>
    </item>
  </channel>
</rss>`

const JSON_FEED = `{
  "version": "https://jsonfeed.org/version/1.1",
  "title": "Example JSON",
  "home_page_url": "http://example.org/",
  "feed_url": "http://feed.example/json",
  "hubs": [{"type": "WebSub", "url": "http://hub.example/"}],
  "items": [{"id": "1", "url": "http://example.org/1", "title": "One"}]
}`

const BARE_ATOM_FEED = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>No links</title>
  <id>urn:example</id>
  <updated>2003-12-13T18:30:02Z</updated>
</feed>`

func TestParser(t *testing.T) {
	parser := feeds.NewParser()

	t.Run("Atom", func(t *testing.T) {
		doc, err := parser.Parse([]byte(ATOM_FEED))
		require.NoError(t, err)
		assert.Equal(t, "atom", doc.Format)
		assert.Equal(t, "Example Feed", doc.Title)
		hub, ok := doc.Href(feeds.REL_HUB)
		assert.True(t, ok)
		assert.Equal(t, "http://hub.example/", hub)
		self, _ := doc.Href(feeds.REL_SELF)
		assert.Equal(t, "http://feed.example/atom", self)
		alternate, _ := doc.Href(feeds.REL_ALTERNATE)
		assert.Equal(t, "http://example.org/", alternate)
		require.Len(t, doc.Entries, 1)
		assert.Equal(t, "http://example.org/2003/12/13/atom03", doc.Entries[0].Link)
	})

	t.Run("RSS", func(t *testing.T) {
		doc, err := parser.Parse([]byte(RSS_FEED))
		require.NoError(t, err)
		assert.Equal(t, "rss", doc.Format)
		hub, _ := doc.Href(feeds.REL_HUB)
		assert.Equal(t, "http://hub.example/", hub)
		self, _ := doc.Href(feeds.REL_SELF)
		assert.Equal(t, "http://feed.example/rss", self)
		require.Len(t, doc.Entries, 1)
		assert.Equal(t, "first", doc.Entries[0].Id)
	})

	t.Run("JSON", func(t *testing.T) {
		doc, err := parser.Parse([]byte(JSON_FEED))
		require.NoError(t, err)
		assert.Equal(t, "json", doc.Format)
		hub, _ := doc.Href(feeds.REL_HUB)
		assert.Equal(t, "http://hub.example/", hub)
		self, _ := doc.Href(feeds.REL_SELF)
		assert.Equal(t, "http://feed.example/json", self)
	})

	t.Run("JSONHubs", func(t *testing.T) {
		doc, err := parser.Parse([]byte(`{
  "version": "https://jsonfeed.org/version/1.1",
  "title": "Two hubs",
  "hubs": [{"type": "WebSub", "url": "http://hub.example/"}, {"type": "WebSub", "url": "http://backup-hub.example/"}, {"type": "WebSub"}],
  "items": []
}`))
		require.NoError(t, err)
		var hubs []string
		for _, link := range doc.Links {
			if link.Rel == feeds.REL_HUB {
				hubs = append(hubs, link.Href)
			}
		}
		assert.Equal(t, []string{"http://hub.example/", "http://backup-hub.example/"}, hubs)
		_, ok := doc.Href(feeds.REL_SELF)
		assert.False(t, ok)
	})

	t.Run("NoLinks", func(t *testing.T) {
		doc, err := parser.Parse([]byte(BARE_ATOM_FEED))
		require.NoError(t, err)
		assert.Empty(t, doc.Links)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := parser.Parse([]byte("this is not a feed"))
		var ie *exceptions.InvalidInputError
		assert.ErrorAs(t, err, &ie)
	})
}
