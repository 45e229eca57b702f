// Package content loads the markdown blog collection from disk.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"folio/app/models"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

var ErrNoEntry = errors.New("blog entry not found")

type frontMatterEnvelope struct {
	Title        string    `yaml:"title"`
	Tags         *[]string `yaml:"tags"`
	Date         time.Time `yaml:"date"`
	Image        string    `yaml:"image"`
	ImageAlt     string    `yaml:"imageAlt"`
	Draft        bool      `yaml:"draft"`
	ContainImage bool      `yaml:"containImage"`
}

// Collection is the read-only set of blog entries. It is safe for concurrent
// use once loaded.
type Collection struct {
	entries []*models.BlogEntry
	bySlug  map[string]*models.BlogEntry
}

// NewCollection builds a collection from already parsed entries.
func NewCollection(entries []*models.BlogEntry) *Collection {
	c := &Collection{bySlug: make(map[string]*models.BlogEntry, len(entries))}
	for _, e := range entries {
		c.entries = append(c.entries, e)
		c.bySlug[e.Slug] = e
	}
	sort.SliceStable(c.entries, func(i, j int) bool {
		return c.entries[i].Date.After(c.entries[j].Date)
	})
	return c
}

// Load reads every .md and .mdx file under dir/blog. A missing blog
// directory yields an empty collection.
func Load(dir string) (*Collection, error) {
	blogDir := filepath.Join(dir, "blog")
	files, err := os.ReadDir(blogDir)
	if errors.Is(err, os.ErrNotExist) {
		return NewCollection(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read content dir: %w", err)
	}

	md := newMarkdown()
	var entries []*models.BlogEntry
	for _, f := range files {
		ext := filepath.Ext(f.Name())
		if f.IsDir() || (ext != ".md" && ext != ".mdx") {
			continue
		}
		source, err := os.ReadFile(filepath.Join(blogDir, f.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name(), err)
		}
		entry, err := Parse(md, strings.TrimSuffix(f.Name(), ext), source)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name(), err)
		}
		entries = append(entries, entry)
	}
	return NewCollection(entries), nil
}

// Parse builds an entry from a markdown source with YAML frontmatter.
func Parse(md goldmark.Markdown, slug string, source []byte) (*models.BlogEntry, error) {
	var meta frontMatterEnvelope
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	if meta.Tags == nil {
		return nil, errors.New("frontmatter: tags is required")
	}

	var buf bytes.Buffer
	if err := md.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("markdown parse: %w", err)
	}

	entry := &models.BlogEntry{
		Slug:         slug,
		Title:        meta.Title,
		Tags:         append([]string{}, (*meta.Tags)...),
		Date:         meta.Date,
		Image:        meta.Image,
		ImageAlt:     meta.ImageAlt,
		Draft:        meta.Draft,
		ContainImage: meta.ContainImage,
		Body:         body,
		HTML:         buf.String(),
	}
	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("frontmatter: %w", err)
	}
	return entry, nil
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.TaskList),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
}

// Published returns non-draft entries, newest first.
func (c *Collection) Published() []*models.BlogEntry {
	out := make([]*models.BlogEntry, 0, len(c.entries))
	for _, e := range c.entries {
		if !e.Draft {
			out = append(out, e)
		}
	}
	return out
}

// Latest returns up to n published entries.
func (c *Collection) Latest(n int) []*models.BlogEntry {
	published := c.Published()
	if len(published) > n {
		published = published[:n]
	}
	return published
}

// BySlug returns the published entry for slug.
func (c *Collection) BySlug(slug string) (*models.BlogEntry, error) {
	e, ok := c.bySlug[slug]
	if !ok || e.Draft {
		return nil, ErrNoEntry
	}
	return e, nil
}

// ByTag returns published entries carrying tag, newest first.
func (c *Collection) ByTag(tag string) []*models.BlogEntry {
	var out []*models.BlogEntry
	for _, e := range c.Published() {
		if e.HasTag(tag) {
			out = append(out, e)
		}
	}
	return out
}

// Tags returns the sorted set of tags used by published entries.
func (c *Collection) Tags() []string {
	seen := make(map[string]struct{})
	for _, e := range c.Published() {
		for _, t := range e.Tags {
			seen[t] = struct{}{}
		}
	}
	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}
