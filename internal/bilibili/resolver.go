package bilibili

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"bilidl/internal/extract"
	"bilidl/internal/logging"
)

// SubPage is one part of a multi-part video.
type SubPage struct {
	VideoID   VideoID
	Index     int
	Title     string
	SourceURL string
}

// Label identifies the sub-page in logs and tables.
func (s SubPage) Label() string {
	return fmt.Sprintf("%s p%d", s.VideoID, s.Index)
}

// Resolver expands canonical URLs into sub-pages and sub-pages into media URLs.
type Resolver struct {
	fetcher   Fetcher
	extractor *extract.Extractor
	headers   http.Header
	logger    *slog.Logger
}

// ResolverOption customizes a Resolver.
type ResolverOption func(*Resolver)

// WithExtractor overrides the schema registry.
func WithExtractor(extractor *extract.Extractor) ResolverOption {
	return func(r *Resolver) {
		if extractor != nil {
			r.extractor = extractor
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logging.NewComponentLogger(logger, "resolver")
	}
}

// NewResolver builds a Resolver that sends headers with every page request.
func NewResolver(fetcher Fetcher, headers http.Header, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		fetcher:   fetcher,
		extractor: extract.Default(),
		headers:   headers,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve fetches the canonical page once and returns its sub-pages in the
// order the page lists them. Sub-page URLs share the canonical URL's origin.
func (r *Resolver) Resolve(ctx context.Context, canonicalURL string) ([]SubPage, error) {
	id, err := ParseVideoID(canonicalURL)
	if err != nil {
		return nil, err
	}
	base, err := origin(canonicalURL)
	if err != nil {
		return nil, err
	}

	page := NewPage(canonicalURL, r.fetcher, r.extractor, r.headers)
	entries, err := page.Pages(ctx)
	if err != nil {
		return nil, err
	}

	subPages := make([]SubPage, 0, len(entries))
	for _, entry := range entries {
		subPages = append(subPages, SubPage{
			VideoID:   id,
			Index:     entry.Index,
			Title:     entry.Title,
			SourceURL: base + "/video/" + string(id) + "?p=" + strconv.Itoa(entry.Index),
		})
	}
	logging.WithContext(ctx, r.logger).Info("video resolved",
		logging.String("video_id", string(id)),
		logging.Int("sub_pages", len(subPages)),
	)
	return subPages, nil
}

// MediaURL fetches the sub-page and returns the stream to download. Stream
// URLs are specific to each sub-page, so every call fetches a fresh page.
func (r *Resolver) MediaURL(ctx context.Context, sub SubPage) (string, error) {
	page := NewPage(sub.SourceURL, r.fetcher, r.extractor, r.headers)
	info, err := page.PlayInfo(ctx)
	if err != nil {
		return "", err
	}
	logging.WithContext(ctx, r.logger).Debug("media url resolved",
		logging.String("schema", info.Schema),
		logging.String("source_url", sub.SourceURL),
	)
	return info.MediaURL(), nil
}
