package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSite(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateTranscode(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSite() error {
	if err := requireHTTPURL("site.base_url", c.Site.BaseURL); err != nil {
		return err
	}
	if strings.TrimSpace(c.Site.UserAgent) == "" {
		return errors.New("site.user_agent must be set; the origin rejects requests without a client identification string")
	}
	if c.Site.PageTimeout < 0 {
		return errors.New("site.page_timeout must be >= 0 (seconds)")
	}
	if c.Site.RequestsPerSecond < 0 {
		return errors.New("site.requests_per_second must be >= 0")
	}
	if c.Site.Proxy != "" {
		if err := requireHTTPURL("site.proxy", c.Site.Proxy); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateDownload() error {
	if c.Download.ChunkSize <= 0 {
		return errors.New("download.chunk_size must be positive")
	}
	return nil
}

func (c *Config) validateTranscode() error {
	bitrate := c.Transcode.AudioBitrate
	if !strings.HasSuffix(bitrate, "k") || len(bitrate) < 2 {
		return fmt.Errorf("transcode.audio_bitrate %q must look like 192k", bitrate)
	}
	for _, r := range bitrate[:len(bitrate)-1] {
		if r < '0' || r > '9' {
			return fmt.Errorf("transcode.audio_bitrate %q must look like 192k", bitrate)
		}
	}
	return nil
}

func requireHTTPURL(key, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", key, value)
	}
	return nil
}
