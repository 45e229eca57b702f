package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"folio/app/logging"
	"folio/app/metrics"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// SearchIndex receives page text
type SearchIndex interface {
	PartialUpdate(ctx context.Context, objectID string, attrs map[string]any) error
}

// IndexResult summarises an indexing run
type IndexResult struct {
	Indexed int
	Skipped int
	Failed  int
}

// SearchIndexer renders site pages through the HTTP handler and pushes
// their visible text to the search index.
type SearchIndexer struct {
	handler http.Handler
	index   SearchIndex
}

func NewSearchIndexer(handler http.Handler, index SearchIndex) *SearchIndexer {
	return &SearchIndexer{handler: handler, index: index}
}

// IndexPaths indexes every path. Failures are logged and counted; the run
// continues.
func (s *SearchIndexer) IndexPaths(ctx context.Context, paths []string) IndexResult {
	var res IndexResult
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			break
		}
		if skipIndexing(p) {
			res.Skipped++
			continue
		}
		if err := s.indexPath(ctx, p); err != nil {
			res.Failed++
			metrics.SearchPagesIndexed.WithLabelValues("failure").Inc()
			logging.Ctx(ctx).Error().Err(err).Str("path", p).Msg("error updating search index")
			continue
		}
		res.Indexed++
		metrics.SearchPagesIndexed.WithLabelValues("success").Inc()
	}
	return res
}

func (s *SearchIndexer) indexPath(ctx context.Context, path string) error {
	req := httptest.NewRequest(http.MethodGet, path, nil).WithContext(ctx)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		return fmt.Errorf("render %s: status %d", path, rec.Code)
	}

	text, err := ExtractText(rec.Body)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return s.index.PartialUpdate(ctx, ObjectID(path), map[string]any{
		"content": RemoveStopwords(text),
	})
}

// ObjectID maps a site path to its search record ID.
func ObjectID(path string) string {
	id := strings.Trim(path, "/")
	if id == "" {
		return "home"
	}
	return id
}

func skipIndexing(path string) bool {
	p := strings.Trim(path, "/")
	for _, prefix := range []string{"page-views", "search"} {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

// ExtractText returns the whitespace-collapsed text of the document body,
// leaving out script, style and footer elements.
func ExtractText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}
	body := findBody(doc)
	if body == nil {
		body = doc
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Footer, atom.Noscript, atom.Template:
				return
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(body)
	return strings.Join(strings.Fields(sb.String()), " "), nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

// RemoveStopwords drops common English words, compared case-insensitively.
func RemoveStopwords(text string) string {
	words := strings.Fields(text)
	kept := words[:0]
	for _, w := range words {
		if _, stop := stopwords[strings.ToLower(w)]; !stop {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

var stopwords = func() map[string]struct{} {
	list := strings.Fields(`a about after all also am an and any are as at be because been
		before being between both but by can could did do does doing down during each few
		for from further had has have having he her here hers herself him himself his how
		i if in into is it its itself just me more most my myself no nor not now of off on
		once only or other our ours ourselves out over own same she should so some such
		than that the their theirs them themselves then there these they this those through
		to too under until up very was we were what when where which while who whom why
		will with would you your yours yourself yourselves`)
	m := make(map[string]struct{}, len(list))
	for _, w := range list {
		m[w] = struct{}{}
	}
	return m
}()
