package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http/httpproxy"
	"golang.org/x/net/http2"
)

// utlsConn wraps a utls.UConn and satisfies net.Conn + the
// ConnectionState interface that net/http2 needs.
type utlsConn struct {
	*utls.UConn
}

func (c *utlsConn) ConnectionState() tls.ConnectionState {
	cs := c.UConn.ConnectionState()
	return tls.ConnectionState{
		Version:                    cs.Version,
		HandshakeComplete:          cs.HandshakeComplete,
		CipherSuite:                cs.CipherSuite,
		NegotiatedProtocol:         cs.NegotiatedProtocol,
		NegotiatedProtocolIsMutual: cs.NegotiatedProtocolIsMutual,
		ServerName:                 cs.ServerName,
		PeerCertificates:           cs.PeerCertificates,
		VerifiedChains:             cs.VerifiedChains,
		OCSPResponse:               cs.OCSPResponse,
		TLSUnique:                  cs.TLSUnique,
	}
}

// browserTransport dials HTTPS origins with a browser ClientHello and routes
// the connection to HTTP/1.1 or HTTP/2 based on ALPN. Requests the proxy
// func sends through a proxy, and plain HTTP, use the standard h1 transport.
type browserTransport struct {
	dialer *net.Dialer
	h1     *http.Transport
	h2     *http2.Transport
	proxy  func(*url.URL) (*url.URL, error)
}

func newBrowserTransport(dialTimeout time.Duration, proxy func(*url.URL) (*url.URL, error)) *browserTransport {
	dialer := &net.Dialer{Timeout: dialTimeout}
	return &browserTransport{
		dialer: dialer,
		h1:     &http.Transport{DialContext: dialer.DialContext, Proxy: requestProxy(proxy)},
		h2:     &http2.Transport{},
		proxy:  proxy,
	}
}

func (bt *browserTransport) dialUTLS(ctx context.Context, network, addr string) (net.Conn, string, error) {
	conn, err := bt.dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, "", err
	}

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	tlsConn := utls.UClient(conn, &utls.Config{
		ServerName: host,
	}, utls.HelloFirefox_120)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, "", err
	}

	alpn := tlsConn.ConnectionState().NegotiatedProtocol
	return &utlsConn{tlsConn}, alpn, nil
}

func (bt *browserTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return bt.h1.RoundTrip(req)
	}
	if bt.proxy != nil {
		proxyURL, err := bt.proxy(req.URL)
		if err != nil {
			return nil, err
		}
		if proxyURL != nil {
			return bt.h1.RoundTrip(req)
		}
	}

	addr := req.URL.Host
	if !hasPort(addr) {
		addr = addr + ":443"
	}

	conn, alpn, err := bt.dialUTLS(req.Context(), "tcp", addr)
	if err != nil {
		return nil, err
	}

	if alpn == "h2" {
		h2conn, err := bt.h2.NewClientConn(conn)
		if err != nil {
			conn.Close()
			return nil, err
		}
		resp, err := h2conn.RoundTrip(req)
		if err != nil {
			h2conn.Close()
			return nil, err
		}
		resp.Body = &connClosingBody{ReadCloser: resp.Body, closeConn: h2conn.Close}
		return resp, nil
	}

	// One-shot transport around the already-negotiated TLS conn; keep-alives
	// are off so the conn closes with the response body.
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return conn, nil
		},
		DisableKeepAlives: true,
	}
	return transport.RoundTrip(req)
}

// connClosingBody closes the connection that carried a response once the
// body is closed. Each h2 connection serves exactly one request.
type connClosingBody struct {
	io.ReadCloser
	once      sync.Once
	closeConn func() error
}

func (b *connClosingBody) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(func() {
		if cerr := b.closeConn(); err == nil {
			err = cerr
		}
	})
	return err
}

func hasPort(host string) bool {
	_, _, err := net.SplitHostPort(host)
	return err == nil
}

// requestProxy adapts a URL-based proxy func to http.Transport.Proxy.
func requestProxy(proxy func(*url.URL) (*url.URL, error)) func(*http.Request) (*url.URL, error) {
	if proxy == nil {
		return nil
	}
	return func(req *http.Request) (*url.URL, error) {
		return proxy(req.URL)
	}
}

// proxyFunc picks the proxy for each request. An explicit address wins and
// must parse; otherwise HTTPS_PROXY, HTTP_PROXY and NO_PROXY (either case)
// decide per request.
func proxyFunc(proxyAddr string) (func(*url.URL) (*url.URL, error), bool, error) {
	if proxyAddr = strings.TrimSpace(proxyAddr); proxyAddr != "" {
		proxyURL, err := url.Parse(proxyAddr)
		if err != nil {
			return nil, false, fmt.Errorf("parse proxy %q: %w", proxyAddr, err)
		}
		if proxyURL.Scheme == "" || proxyURL.Host == "" {
			return nil, false, fmt.Errorf("proxy %q must be an absolute URL", proxyAddr)
		}
		return func(*url.URL) (*url.URL, error) { return proxyURL, nil }, true, nil
	}
	return httpproxy.FromEnvironment().ProxyFunc(), false, nil
}

// newTransport selects the round tripper for the configured mode. An explicit
// proxy forces standard TLS because uTLS cannot negotiate CONNECT tunnels;
// environment proxies fall back to standard TLS only for the hosts they cover.
func newTransport(proxyAddr string, browserTLS bool, dialTimeout time.Duration) (http.RoundTripper, error) {
	proxy, explicit, err := proxyFunc(proxyAddr)
	if err != nil {
		return nil, err
	}
	if browserTLS && !explicit {
		return newBrowserTransport(dialTimeout, proxy), nil
	}
	return &http.Transport{
		DialContext: (&net.Dialer{Timeout: dialTimeout}).DialContext,
		Proxy:       requestProxy(proxy),
	}, nil
}
