// Package fetch issues the HTTP requests bilidl needs: buffered GETs for video
// pages and streamed GETs for media payloads.
//
// HTTPS requests present a browser TLS fingerprint through uTLS unless a proxy
// is configured, page requests are paced by a token-bucket limiter, and every
// failure is tagged with services.ErrTransport so callers can classify it
// without inspecting the transport.
package fetch
