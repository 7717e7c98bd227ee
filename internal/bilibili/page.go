package bilibili

import (
	"context"
	"net/http"
	"sync"

	"bilidl/internal/extract"
)

// Fetcher retrieves page HTML.
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers http.Header) (string, error)
}

type pageState int

const (
	notLoaded pageState = iota
	loaded
)

// Page is a lazily fetched, memoized video page.
type Page struct {
	url       string
	headers   http.Header
	fetcher   Fetcher
	extractor *extract.Extractor

	mu    sync.Mutex
	state pageState
	doc   extract.Document
}

// NewPage prepares a page for url. Nothing is fetched until Load.
func NewPage(url string, fetcher Fetcher, extractor *extract.Extractor, headers http.Header) *Page {
	if extractor == nil {
		extractor = extract.Default()
	}
	return &Page{url: url, headers: headers, fetcher: fetcher, extractor: extractor}
}

// URL returns the page address.
func (p *Page) URL() string { return p.url }

// Load fetches and parses the page on first use and returns the cached
// document afterwards. A failed load leaves the page unloaded.
func (p *Page) Load(ctx context.Context) (extract.Document, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == loaded {
		return p.doc, nil
	}
	html, err := p.fetcher.Fetch(ctx, p.url, p.headers)
	if err != nil {
		return extract.Document{}, err
	}
	doc, err := p.extractor.Extract(html)
	if err != nil {
		return extract.Document{}, err
	}
	p.doc = doc
	p.state = loaded
	return doc, nil
}

// Pages returns the page list.
func (p *Page) Pages(ctx context.Context) ([]extract.PageEntry, error) {
	doc, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := doc.PagesErr(); err != nil {
		return nil, err
	}
	return doc.Pages, nil
}

// PlayInfo returns the stream URLs.
func (p *Page) PlayInfo(ctx context.Context) (extract.PlayInfo, error) {
	doc, err := p.Load(ctx)
	if err != nil {
		return extract.PlayInfo{}, err
	}
	if err := doc.PlayErr(); err != nil {
		return extract.PlayInfo{}, err
	}
	return doc.Play, nil
}
