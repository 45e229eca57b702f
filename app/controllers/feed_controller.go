package controllers

import (
	"encoding/xml"
	"net/http"
	"strings"
	"time"

	"folio/app/content"
	"folio/app/logging"

	"github.com/gorilla/feeds"
)

// staticPages are listed in the sitemap next to posts and tags.
var staticPages = []string{"/", "/blog", "/contact"}

// FeedController serves the RSS feed and the sitemap
type FeedController struct {
	entries  *content.Collection
	siteName string
	siteURL  string
}

func NewFeedController(entries *content.Collection, siteName, siteURL string) *FeedController {
	return &FeedController{entries: entries, siteName: siteName, siteURL: strings.TrimRight(siteURL, "/")}
}

// RSS writes an RSS 2.0 feed of the published posts
func (fc *FeedController) RSS(w http.ResponseWriter, r *http.Request) {
	published := fc.entries.Published()
	feed := &feeds.Feed{
		Title:       fc.siteName,
		Link:        &feeds.Link{Href: fc.siteURL},
		Description: fc.siteName,
	}
	if len(published) > 0 {
		feed.Updated = published[0].Date
	}
	for _, e := range published {
		link := fc.siteURL + e.URL()
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          link,
			Title:       e.Title,
			Link:        &feeds.Link{Href: link},
			Description: e.Title,
			Content:     e.HTML,
			Created:     e.Date,
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to build rss feed")
		http.Error(w, "Failed to build feed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	_, _ = w.Write([]byte(rss))
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Paths returns every indexable site path: static pages, posts and tags.
func (fc *FeedController) Paths() []string {
	paths := append([]string(nil), staticPages...)
	for _, e := range fc.entries.Published() {
		paths = append(paths, e.URL())
	}
	for _, tag := range fc.entries.Tags() {
		paths = append(paths, "/blog/tags/"+tag)
	}
	return paths
}

// Sitemap writes sitemap.xml
func (fc *FeedController) Sitemap(w http.ResponseWriter, r *http.Request) {
	set := urlSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	lastMod := make(map[string]string)
	for _, e := range fc.entries.Published() {
		lastMod[e.URL()] = e.Date.UTC().Format(time.DateOnly)
	}
	for _, p := range fc.Paths() {
		set.URLs = append(set.URLs, sitemapURL{Loc: fc.siteURL + p, LastMod: lastMod[p]})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to build sitemap")
		http.Error(w, "Failed to build sitemap", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(out)
}
