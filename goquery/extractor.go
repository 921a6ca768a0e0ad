// Package goquery implements crestwatch.Extractor for Crestron's support
// search results page using CSS selectors.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/crestwatch"
)

// DefaultBaseURL is the origin relative record links are resolved against.
const DefaultBaseURL = "https://crestron.com"

// Selectors locates the parts of a result listing.
// Name, Date and Kind are looked up within each Container match.
type Selectors struct {
	Container string
	Name      string
	Date      string
	Kind      string
}

// DefaultSelectors returns the selectors for Crestron's search results markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Container: ".search-result",
		Name:      ".resource-search-name a",
		Date:      ".resource-search-date",
		Kind:      ".resource-search-type",
	}
}

var _ crestwatch.Extractor = (*Extractor)(nil)

// Extractor extracts update records from the search results page.
type Extractor struct {
	base      *url.URL
	selectors Selectors
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithSelectors overrides the default selectors. Empty fields keep their defaults.
func WithSelectors(s Selectors) Option {
	return func(e *Extractor) {
		if s.Container != "" {
			e.selectors.Container = s.Container
		}
		if s.Name != "" {
			e.selectors.Name = s.Name
		}
		if s.Date != "" {
			e.selectors.Date = s.Date
		}
		if s.Kind != "" {
			e.selectors.Kind = s.Kind
		}
	}
}

// NewExtractor creates an Extractor resolving links against baseURL.
// An empty baseURL uses DefaultBaseURL. Returns EINVALID if baseURL is not
// an absolute http(s) URL.
func NewExtractor(baseURL string, opts ...Option) (*Extractor, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, crestwatch.Errorf(crestwatch.EINVALID, "invalid base URL: %v", err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, crestwatch.Errorf(crestwatch.EINVALID, "base URL must be absolute: %q", baseURL)
	}

	e := &Extractor{
		base:      base,
		selectors: DefaultSelectors(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Extract returns one record per result container in document order.
// Containers missing a sub-node still produce a record with that field empty.
func (e *Extractor) Extract(html string) crestwatch.UpdateSet {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return crestwatch.UpdateSet{}
	}

	containers := doc.Find(e.selectors.Container)
	set := make(crestwatch.UpdateSet, 0, containers.Length())
	containers.Each(func(_ int, sel *goquery.Selection) {
		item := sel.Find(e.selectors.Name).First()
		href, _ := item.Attr("href")

		set = append(set, crestwatch.Record{
			Date: text(sel.Find(e.selectors.Date).First()),
			Name: text(item),
			Link: e.resolve(href),
			Kind: crestwatch.Kind(text(sel.Find(e.selectors.Kind).First())),
		})
	})

	return set
}

// resolve returns href as an absolute http(s) URL. A missing, unparseable or
// non-HTTP href (javascript:, mailto:) resolves to the base origin itself.
func (e *Extractor) resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return e.base.String()
	}
	ref, err := url.Parse(href)
	if err != nil {
		return e.base.String()
	}
	resolved := e.base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return e.base.String()
	}
	return resolved.String()
}

// text returns the trimmed text of a selection. Empty selections yield "".
func text(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Text())
}
