package config

const (
	defaultVideoDir          = "."
	defaultLogDir            = "~/.local/share/bilidl/logs"
	defaultBaseURL           = "https://www.bilibili.com"
	defaultReferer           = "https://www.bilibili.com"
	defaultMediaReferer      = "https://www.bilibili.com/"
	defaultUserAgent         = "Mozilla/5.0 (Linux; Android 10; K) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Mobile Safari/537.36"
	defaultPageTimeout       = 30
	defaultRequestsPerSecond = 2
	defaultMaxPageBytes      = 16 * 1024 * 1024
	defaultChunkSize         = 8 * 1024
	defaultAudioBitrate      = "192k"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			VideoDir: defaultVideoDir,
			LogDir:   defaultLogDir,
		},
		Site: Site{
			BaseURL:           defaultBaseURL,
			Referer:           defaultReferer,
			MediaReferer:      defaultMediaReferer,
			UserAgent:         defaultUserAgent,
			BrowserTLS:        true,
			PageTimeout:       defaultPageTimeout,
			RequestsPerSecond: defaultRequestsPerSecond,
			MaxPageBytes:      defaultMaxPageBytes,
		},
		Download: Download{
			ChunkSize: defaultChunkSize,
		},
		Transcode: Transcode{
			AudioBitrate: defaultAudioBitrate,
			VerifyAudio:  true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
