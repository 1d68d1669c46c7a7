package cian

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Element is one DOM node returned by a Page lookup.
type Element interface {
	Text() string
	Attr(name string) string
	Find(selector string) []Element
}

// Page is the navigation and content accessor the extractors work against.
// Selector lookups must report absence as an empty list, never an error.
type Page interface {
	Navigate(url string) error
	Find(selector string) []Element
	Click(selector string) error
	ScrollTo(fraction float64) error
	Screenshot(path string) error
}

// StaticPage is a Page over a fixed HTML document. The browser session uses
// it for its per-navigation snapshots; tests construct it directly from
// fixture HTML.
type StaticPage struct {
	doc *goquery.Document
}

// NewStaticPage parses the given HTML into a StaticPage.
func NewStaticPage(html string) (*StaticPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return &StaticPage{doc: doc}, nil
}

func (p *StaticPage) Navigate(string) error   { return nil }
func (p *StaticPage) Click(string) error      { return nil }
func (p *StaticPage) ScrollTo(float64) error  { return nil }
func (p *StaticPage) Screenshot(string) error { return nil }

func (p *StaticPage) Find(selector string) []Element {
	return wrapSelection(p.doc.Find(selector))
}

type gqElement struct {
	sel *goquery.Selection
}

func (e *gqElement) Text() string {
	return strings.TrimSpace(e.sel.Text())
}

func (e *gqElement) Attr(name string) string {
	return e.sel.AttrOr(name, "")
}

func (e *gqElement) Find(selector string) []Element {
	return wrapSelection(e.sel.Find(selector))
}

func wrapSelection(sel *goquery.Selection) []Element {
	elements := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, &gqElement{sel: s})
	})
	return elements
}
