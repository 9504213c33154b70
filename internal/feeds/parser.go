package feeds

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/atom"
	jsonfeed "github.com/mmcdole/gofeed/json"
	"github.com/mmcdole/gofeed/rss"
	"philcali.me/pubsubhubbub/internal/exceptions"
)

const (
	REL_HUB       = "hub"
	REL_SELF      = "self"
	REL_ALTERNATE = "alternate"
)

var ATOM_PREFIXES = []string{"atom", "atom10", "atom03"}

type Link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

type Entry struct {
	Id      string `json:"id,omitempty"`
	Title   string `json:"title,omitempty"`
	Link    string `json:"link,omitempty"`
	Updated string `json:"updated,omitempty"`
}

// Document is the part of a feed the subscriber cares about: the feed level
// links and a summary of its entries.
type Document struct {
	Format  string  `json:"format"`
	Title   string  `json:"title,omitempty"`
	Links   []Link  `json:"links"`
	Entries []Entry `json:"entries"`
}

// Href returns the first link with the given rel.
func (d *Document) Href(rel string) (string, bool) {
	for _, link := range d.Links {
		if link.Rel == rel {
			return link.Href, true
		}
	}
	return "", false
}

type Parser interface {
	Parse(body []byte) (*Document, error)
}

// GofeedParser detects the feed flavour and runs the matching gofeed parser.
// The gofeed parsers hold per-document state, so one is built per call.
type GofeedParser struct{}

func NewParser() Parser {
	return &GofeedParser{}
}

func (gp *GofeedParser) Parse(body []byte) (*Document, error) {
	switch gofeed.DetectFeedType(bytes.NewReader(body)) {
	case gofeed.FeedTypeAtom:
		feed, err := (&atom.Parser{}).Parse(bytes.NewReader(body))
		if err != nil {
			return nil, exceptions.InvalidInput(fmt.Sprintf("invalid atom feed: %v", err))
		}
		return _fromAtom(feed), nil
	case gofeed.FeedTypeRSS:
		feed, err := (&rss.Parser{}).Parse(bytes.NewReader(body))
		if err != nil {
			return nil, exceptions.InvalidInput(fmt.Sprintf("invalid rss feed: %v", err))
		}
		return _fromRSS(feed), nil
	case gofeed.FeedTypeJSON:
		feed, err := (&jsonfeed.Parser{}).Parse(bytes.NewReader(body))
		if err != nil {
			return nil, exceptions.InvalidInput(fmt.Sprintf("invalid json feed: %v", err))
		}
		return _fromJSON(feed, _jsonHubs(body)), nil
	}
	return nil, exceptions.InvalidInput("unrecognized feed document")
}

func _atomLinks(links []*atom.Link) []Link {
	converted := make([]Link, 0, len(links))
	for _, link := range links {
		rel := link.Rel
		if rel == "" {
			rel = REL_ALTERNATE
		}
		converted = append(converted, Link{Rel: rel, Href: link.Href})
	}
	return converted
}

func _fromAtom(feed *atom.Feed) *Document {
	doc := &Document{
		Format:  "atom",
		Title:   feed.Title,
		Links:   _atomLinks(feed.Links),
		Entries: make([]Entry, 0, len(feed.Entries)),
	}
	for _, entry := range feed.Entries {
		converted := Entry{Id: entry.ID, Title: entry.Title, Updated: entry.Updated}
		for _, link := range _atomLinks(entry.Links) {
			if link.Rel == REL_ALTERNATE {
				converted.Link = link.Href
				break
			}
		}
		doc.Entries = append(doc.Entries, converted)
	}
	return doc
}

// RSS carries hub and self links as atom:link elements, which the rss parser
// keeps under the atom extension namespace.
func _fromRSS(feed *rss.Feed) *Document {
	doc := &Document{
		Format:  "rss",
		Title:   feed.Title,
		Links:   []Link{},
		Entries: make([]Entry, 0, len(feed.Items)),
	}
	for _, prefix := range ATOM_PREFIXES {
		for _, link := range feed.Extensions[prefix]["link"] {
			if href := link.Attrs["href"]; href != "" {
				rel := link.Attrs["rel"]
				if rel == "" {
					rel = REL_ALTERNATE
				}
				doc.Links = append(doc.Links, Link{Rel: rel, Href: href})
			}
		}
	}
	if feed.Link != "" {
		doc.Links = append(doc.Links, Link{Rel: REL_ALTERNATE, Href: feed.Link})
	}
	for _, item := range feed.Items {
		converted := Entry{Title: item.Title, Link: item.Link, Updated: item.PubDate}
		if item.GUID != nil {
			converted.Id = item.GUID.Value
		}
		doc.Entries = append(doc.Entries, converted)
	}
	return doc
}

type jsonHub struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// _jsonHubs reads the top level "hubs" array, which the gofeed json parser
// does not carry.
func _jsonHubs(body []byte) []jsonHub {
	var hubs struct {
		Hubs []jsonHub `json:"hubs"`
	}
	if err := json.Unmarshal(body, &hubs); err != nil {
		return nil
	}
	return hubs.Hubs
}

func _fromJSON(feed *jsonfeed.Feed, hubs []jsonHub) *Document {
	doc := &Document{
		Format:  "json",
		Title:   feed.Title,
		Links:   []Link{},
		Entries: make([]Entry, 0, len(feed.Items)),
	}
	if feed.FeedURL != "" {
		doc.Links = append(doc.Links, Link{Rel: REL_SELF, Href: feed.FeedURL})
	}
	if feed.HomePageURL != "" {
		doc.Links = append(doc.Links, Link{Rel: REL_ALTERNATE, Href: feed.HomePageURL})
	}
	for _, hub := range hubs {
		if hub.URL != "" {
			doc.Links = append(doc.Links, Link{Rel: REL_HUB, Href: hub.URL})
		}
	}
	for _, item := range feed.Items {
		updated := item.DateModified
		if updated == "" {
			updated = item.DatePublished
		}
		doc.Entries = append(doc.Entries, Entry{Id: item.ID, Title: item.Title, Link: item.URL, Updated: updated})
	}
	return doc
}
