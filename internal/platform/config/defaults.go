package config

import "time"

// DefaultConfig returns the built-in configuration. File and environment
// values are layered on top of it by the Loader.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:   "0.0.0.0",
			Port: 8080,
			Session: SessionConfig{
				Store: StoreConfig{
					Type:    "memory",
					Expiry:  24 * time.Hour,
					Cleanup: 5 * time.Minute,
				},
			},
		},
		Log: LogConfig{
			Level: "INFO",
			Dir:   "data/logs",
			File:  "server.log",
		},
		Web: WebConfig{
			StaticDir:    "web/dist",
			AllowOrigins: []string{"*"},
		},
		Model: ModelConfig{
			Provider:  "openai",
			ModelName: "gpt-4o-mini",
			BaseURL:   "https://api.openai.com/v1",
			Timeout:   60 * time.Second,
			Plain: SamplingConfig{
				MaxTokens:   512,
				Temperature: 0.5,
				TopP:        0.9,
			},
			Recipe: SamplingConfig{
				MaxTokens:   2048,
				Temperature: 0.3,
				TopP:        0.9,
			},
		},
		Image: ImageConfig{
			MaxUploadBytes: 8 << 20,
			MaxOutputBytes: 4 << 20,
			MaxDimension:   2048,
			MaxPixels:      16777216,
			AllowedFormats: []string{"jpeg", "jpg", "png", "webp", "gif", "bmp"},
		},
		Database: DatabaseConfig{
			Path: "data/chopchop.db",
		},
		Mail: MailConfig{
			Enabled: false,
			Port:    587,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "127.0.0.1:6379",
		},
	}
}
