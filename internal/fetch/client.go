package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"bilidl/internal/logging"
	"bilidl/internal/services"
)

const defaultDialTimeout = 30 * time.Second

// Options configures a Client.
type Options struct {
	Proxy             string
	BrowserTLS        bool
	PageTimeout       time.Duration
	RequestsPerSecond float64
	MaxPageBytes      int64
}

// Client performs page and media requests.
type Client struct {
	pages        *http.Client
	media        *http.Client
	limiter      *rate.Limiter
	maxPageBytes int64
	logger       *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides both the page and media HTTP clients.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.pages = client
			c.media = client
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "fetch")
	}
}

// New constructs a Client. Media requests carry no client timeout; page
// requests use opts.PageTimeout when positive. An unusable proxy address is
// an ErrConfiguration.
func New(opts Options, options ...Option) (*Client, error) {
	transport, err := newTransport(opts.Proxy, opts.BrowserTLS, defaultDialTimeout)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "fetch", "proxy", "", err)
	}
	c := &Client{
		pages:        &http.Client{Timeout: opts.PageTimeout, Transport: transport},
		media:        &http.Client{Transport: transport},
		maxPageBytes: opts.MaxPageBytes,
		logger:       logging.NewNop(),
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// SiteHeaders builds the header set the origin requires on every request.
func SiteHeaders(referer, userAgent string) http.Header {
	h := http.Header{}
	if referer != "" {
		h.Set("Referer", referer)
	}
	if userAgent != "" {
		h.Set("User-Agent", userAgent)
	}
	return h
}

// Fetch downloads a page and returns its body as text.
func (c *Client) Fetch(ctx context.Context, rawURL string, headers http.Header) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", services.Wrap(services.ErrTransport, "fetch", "pace", rawURL, err)
		}
	}

	resp, err := c.do(ctx, c.pages, rawURL, headers)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := readLimited(resp.Body, c.maxPageBytes)
	if err != nil {
		return "", services.Wrap(services.ErrTransport, "fetch", "read body", rawURL, err)
	}

	c.logger.Debug("page fetched",
		logging.String("url", rawURL),
		logging.String("size", humanize.IBytes(uint64(len(body)))),
	)
	return string(body), nil
}

// Stream opens a GET whose body the caller reads incrementally. The caller
// owns resp.Body.
func (c *Client) Stream(ctx context.Context, rawURL string, headers http.Header) (*http.Response, error) {
	return c.do(ctx, c.media, rawURL, headers)
}

func (c *Client) do(ctx context.Context, client *http.Client, rawURL string, headers http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, "fetch", "build request", rawURL, err)
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, "fetch", "get", rawURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, services.Wrap(services.ErrTransport, "fetch", "get", fmt.Sprintf("HTTP %d for %s", resp.StatusCode, rawURL), nil)
	}
	return resp, nil
}

// readLimited reads up to limit bytes from r. If the response exceeds the
// limit, it returns an error. A limit <= 0 reads without bound.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	// Read limit+1 bytes so we can detect overflow without a custom reader.
	lr := io.LimitReader(r, limit+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("response body exceeds maximum allowed size (%s)", humanize.IBytes(uint64(limit)))
	}
	return data, nil
}
