package bilibili

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"bilidl/internal/services"
)

type fakeFetcher struct {
	pages   map[string]string
	calls   map[string]int
	headers []http.Header
	err     error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{pages: map[string]string{}, calls: map[string]int{}}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string, headers http.Header) (string, error) {
	f.calls[url]++
	f.headers = append(f.headers, headers)
	if f.err != nil {
		return "", f.err
	}
	html, ok := f.pages[url]
	if !ok {
		return "", services.Wrap(services.ErrTransport, "fetch", "get", "HTTP 404 for "+url, nil)
	}
	return html, nil
}

func combinedHTML(streamURL string, parts ...string) string {
	entries := make([]string, 0, len(parts))
	for i, part := range parts {
		entries = append(entries, fmt.Sprintf(`{"page":%d,"part":%q}`, i+1, part))
	}
	return `<html><body><script>window.__INITIAL_STATE__={"video":{"viewInfo":{"pages":[` +
		strings.Join(entries, ",") +
		`]},"playUrlInfo":[{"url":"` + streamURL + `"}]}};(function(){}());</script></body></html>`
}

func TestParseVideoID(t *testing.T) {
	tests := []struct {
		in      string
		want    VideoID
		wantErr bool
	}{
		{in: "https://www.bilibili.com/video/BV1GJ411x7h7", want: "BV1GJ411x7h7"},
		{in: "https://www.bilibili.com/video/BV1GJ411x7h7/", want: "BV1GJ411x7h7"},
		{in: "http://www.bilibili.com/video/av170001?p=2&t=10", want: "av170001"},
		{in: "https://m.bilibili.com/video/BV1xx/?spm=1", want: "BV1xx"},
		{in: "https://www.bilibili.com/bangumi/play/ep1", wantErr: true},
		{in: "https://www.bilibili.com/video/", wantErr: true},
		{in: "https://www.bilibili.com/video/BV1/extra", wantErr: true},
		{in: "ftp://www.bilibili.com/video/BV1", wantErr: true},
		{in: "not a url", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVideoID(tt.in)
			if tt.wantErr {
				if !errors.Is(err, services.ErrURLFormat) {
					t.Fatalf("expected url format error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseVideoID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPageLoadFetchesOnce(t *testing.T) {
	fetcher := newFakeFetcher()
	url := "https://www.bilibili.com/video/BV1"
	fetcher.pages[url] = combinedHTML("https://cdn.example.com/1.mp4", "only")

	page := NewPage(url, fetcher, nil, nil)
	for i := 0; i < 3; i++ {
		if _, err := page.Pages(context.Background()); err != nil {
			t.Fatalf("Pages returned error: %v", err)
		}
		if _, err := page.PlayInfo(context.Background()); err != nil {
			t.Fatalf("PlayInfo returned error: %v", err)
		}
	}
	if fetcher.calls[url] != 1 {
		t.Fatalf("expected one fetch, got %d", fetcher.calls[url])
	}
}

func TestPageLoadFailureIsNotCached(t *testing.T) {
	fetcher := newFakeFetcher()
	url := "https://www.bilibili.com/video/BV1"
	page := NewPage(url, fetcher, nil, nil)
	if _, err := page.Load(context.Background()); !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	fetcher.pages[url] = combinedHTML("https://cdn.example.com/1.mp4", "only")
	if _, err := page.Load(context.Background()); err != nil {
		t.Fatalf("second load should fetch again and succeed: %v", err)
	}
	if fetcher.calls[url] != 2 {
		t.Fatalf("expected two fetches, got %d", fetcher.calls[url])
	}
}

func TestResolveKeepsOrderAndBuildsSubPageURLs(t *testing.T) {
	fetcher := newFakeFetcher()
	canonical := "https://www.bilibili.com/video/BV1abc/?spm_id_from=home"
	fetcher.pages[canonical] = combinedHTML("https://cdn.example.com/x.mp4", "Intro", "Body", "Outro")

	headers := http.Header{"Referer": []string{"https://www.bilibili.com"}}
	resolver := NewResolver(fetcher, headers)
	subs, err := resolver.Resolve(context.Background(), canonical)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(subs) != 3 {
		t.Fatalf("expected 3 sub-pages, got %d", len(subs))
	}
	for i, sub := range subs {
		wantURL := fmt.Sprintf("https://www.bilibili.com/video/BV1abc?p=%d", i+1)
		if sub.Index != i+1 || sub.SourceURL != wantURL {
			t.Fatalf("sub-page %d = %+v, want index %d url %s", i, sub, i+1, wantURL)
		}
	}
	if subs[1].Title != "Body" {
		t.Fatalf("unexpected title %q", subs[1].Title)
	}
	if fetcher.headers[0].Get("Referer") != "https://www.bilibili.com" {
		t.Fatalf("page headers not forwarded: %v", fetcher.headers[0])
	}
}

func TestResolveRejectsMalformedURLWithoutFetching(t *testing.T) {
	fetcher := newFakeFetcher()
	resolver := NewResolver(fetcher, nil)
	_, err := resolver.Resolve(context.Background(), "https://www.bilibili.com/list/123")
	if !errors.Is(err, services.ErrURLFormat) {
		t.Fatalf("expected url format error, got %v", err)
	}
	if len(fetcher.calls) != 0 {
		t.Fatalf("expected no fetches, got %v", fetcher.calls)
	}
}

func TestResolveSchemaMismatch(t *testing.T) {
	fetcher := newFakeFetcher()
	canonical := "https://www.bilibili.com/video/BV1"
	fetcher.pages[canonical] = "<html><body>layout changed</body></html>"
	_, err := NewResolver(fetcher, nil).Resolve(context.Background(), canonical)
	if !errors.Is(err, services.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestMediaURLFetchesEachSubPage(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.pages["https://www.bilibili.com/video/BV1?p=1"] = combinedHTML("https://cdn.example.com/p1.mp4", "a", "b")
	fetcher.pages["https://www.bilibili.com/video/BV1?p=2"] = combinedHTML("https://cdn.example.com/p2.mp4", "a", "b")

	resolver := NewResolver(fetcher, nil)
	for i, want := range []string{"https://cdn.example.com/p1.mp4", "https://cdn.example.com/p2.mp4"} {
		sub := SubPage{VideoID: "BV1", Index: i + 1, SourceURL: fmt.Sprintf("https://www.bilibili.com/video/BV1?p=%d", i+1)}
		got, err := resolver.MediaURL(context.Background(), sub)
		if err != nil {
			t.Fatalf("MediaURL returned error: %v", err)
		}
		if got != want {
			t.Fatalf("MediaURL(p%d) = %q, want %q", i+1, got, want)
		}
	}
}
