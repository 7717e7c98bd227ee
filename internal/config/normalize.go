package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSite()
	c.normalizeTranscode()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.VideoDir) == "" {
		c.Paths.VideoDir = defaultVideoDir
	}
	if c.Paths.VideoDir, err = expandPath(strings.TrimSpace(c.Paths.VideoDir)); err != nil {
		return fmt.Errorf("paths.video_dir: %w", err)
	}
	if c.Paths.AudioDir, err = expandPath(strings.TrimSpace(c.Paths.AudioDir)); err != nil {
		return fmt.Errorf("paths.audio_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSite() {
	c.Site.BaseURL = strings.TrimRight(strings.TrimSpace(c.Site.BaseURL), "/")
	if c.Site.BaseURL == "" {
		c.Site.BaseURL = defaultBaseURL
	}
	c.Site.Referer = strings.TrimSpace(c.Site.Referer)
	if c.Site.Referer == "" {
		c.Site.Referer = c.Site.BaseURL
	}
	c.Site.MediaReferer = strings.TrimSpace(c.Site.MediaReferer)
	if c.Site.MediaReferer == "" {
		c.Site.MediaReferer = c.Site.BaseURL + "/"
	}
	c.Site.UserAgent = strings.TrimSpace(c.Site.UserAgent)
	c.Site.Proxy = strings.TrimSpace(c.Site.Proxy)
	if c.Site.Proxy == "" {
		// Only the bilidl-specific variable fills the explicit setting; the
		// standard proxy variables are honoured by the transport itself.
		c.Site.Proxy = strings.TrimSpace(os.Getenv("BILIDL_PROXY"))
	}
	if c.Site.MaxPageBytes < 0 {
		c.Site.MaxPageBytes = 0
	}
}

func (c *Config) normalizeTranscode() {
	c.Transcode.FFmpegBinary = strings.TrimSpace(c.Transcode.FFmpegBinary)
	if c.Transcode.FFmpegBinary == "" {
		if value, ok := os.LookupEnv("BILIDL_FFMPEG"); ok {
			c.Transcode.FFmpegBinary = strings.TrimSpace(value)
		}
	}
	c.Transcode.FFprobeBinary = strings.TrimSpace(c.Transcode.FFprobeBinary)
	c.Transcode.AudioBitrate = strings.ToLower(strings.TrimSpace(c.Transcode.AudioBitrate))
	if c.Transcode.AudioBitrate == "" {
		c.Transcode.AudioBitrate = defaultAudioBitrate
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
