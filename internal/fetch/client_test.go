package fetch_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bilidl/internal/fetch"
	"bilidl/internal/services"
)

const testUA = "bilidl-test/1.0"

func newTestClient(t *testing.T, opts fetch.Options, options ...fetch.Option) *fetch.Client {
	t.Helper()
	client, err := fetch.New(opts, options...)
	if err != nil {
		t.Fatalf("fetch.New: %v", err)
	}
	return client
}

func TestFetchSendsSiteHeaders(t *testing.T) {
	var gotReferer, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("Referer")
		gotUA = r.Header.Get("User-Agent")
		_, _ = io.WriteString(w, "<html>ok</html>")
	}))
	defer srv.Close()

	client := newTestClient(t, fetch.Options{BrowserTLS: true, PageTimeout: 5 * time.Second})
	body, err := client.Fetch(context.Background(), srv.URL+"/video/BV1", fetch.SiteHeaders("https://www.bilibili.com", testUA))
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if body != "<html>ok</html>" {
		t.Fatalf("unexpected body %q", body)
	}
	if gotReferer != "https://www.bilibili.com" {
		t.Fatalf("unexpected referer %q", gotReferer)
	}
	if gotUA != testUA {
		t.Fatalf("unexpected user agent %q", gotUA)
	}
}

func TestFetchClassifiesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	client := newTestClient(t, fetch.Options{})
	_, err := client.Fetch(context.Background(), srv.URL, nil)
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !strings.Contains(err.Error(), "HTTP 403") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestFetchClassifiesNetworkErrors(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	client := newTestClient(t, fetch.Options{})
	if _, err := client.Fetch(context.Background(), addr, nil); !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestFetchRejectsOversizedPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, strings.Repeat("x", 64))
	}))
	defer srv.Close()

	client := newTestClient(t, fetch.Options{MaxPageBytes: 16})
	_, err := client.Fetch(context.Background(), srv.URL, nil)
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !strings.Contains(err.Error(), "exceeds maximum") {
		t.Fatalf("expected size error, got %v", err)
	}
}

func TestFetchHonoursCancelledContextWhilePacing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	client := newTestClient(t, fetch.Options{RequestsPerSecond: 0.001})
	if _, err := client.Fetch(context.Background(), srv.URL, nil); err != nil {
		t.Fatalf("first fetch should use the initial token: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Fetch(ctx, srv.URL, nil); !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected pacing failure to be a transport error, got %v", err)
	}
}

func TestStreamReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Referer") != "https://www.bilibili.com/" {
			http.Error(w, "missing referer", http.StatusForbidden)
			return
		}
		_, _ = io.WriteString(w, "media-bytes")
	}))
	defer srv.Close()

	client := newTestClient(t, fetch.Options{}, fetch.WithHTTPClient(srv.Client()))
	resp, err := client.Stream(context.Background(), srv.URL, fetch.SiteHeaders("https://www.bilibili.com/", testUA))
	if err != nil {
		t.Fatalf("Stream returned error: %v", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(data) != "media-bytes" {
		t.Fatalf("unexpected body %q", data)
	}
}

func TestSiteHeadersOmitsEmptyValues(t *testing.T) {
	h := fetch.SiteHeaders("", "")
	if len(h) != 0 {
		t.Fatalf("expected no headers, got %v", h)
	}
}

func TestNewRejectsMalformedProxy(t *testing.T) {
	_, err := fetch.New(fetch.Options{Proxy: "://bad"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
