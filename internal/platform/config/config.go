package config

import (
	"time"
)

type Config struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Web      WebConfig      `yaml:"web" mapstructure:"web"`
	Model    ModelConfig    `yaml:"model" mapstructure:"model"`
	Image    ImageConfig    `yaml:"image" mapstructure:"image"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Mail     MailConfig     `yaml:"mail" mapstructure:"mail"`
	Redis    RedisConfig    `yaml:"redis" mapstructure:"redis"`
}

type ServerConfig struct {
	IP      string        `yaml:"ip" mapstructure:"ip"`
	Port    int           `yaml:"port" mapstructure:"port"`
	Session SessionConfig `yaml:"session" mapstructure:"session"`
}

type SessionConfig struct {
	Store StoreConfig `yaml:"store" mapstructure:"store"`
}

type StoreConfig struct {
	Type    string        `yaml:"type" mapstructure:"type"`
	Expiry  time.Duration `yaml:"expiry" mapstructure:"expiry"`
	Cleanup time.Duration `yaml:"cleanup" mapstructure:"cleanup"`
	Redis   RedisStore    `yaml:"redis,omitempty" mapstructure:"redis"`
	SQLite  SQLiteStore   `yaml:"sqlite,omitempty" mapstructure:"sqlite"`
}

type RedisStore struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Username string `yaml:"username,omitempty" mapstructure:"username"`
	Password string `yaml:"password,omitempty" mapstructure:"password"`
	DB       int    `yaml:"db,omitempty" mapstructure:"db"`
	Prefix   string `yaml:"prefix,omitempty" mapstructure:"prefix"`
}

type SQLiteStore struct {
	DSN string `yaml:"dsn,omitempty" mapstructure:"dsn"`
}

type LogConfig struct {
	Level string `yaml:"log_level" mapstructure:"log_level"`
	Dir   string `yaml:"log_dir" mapstructure:"log_dir"`
	File  string `yaml:"log_file" mapstructure:"log_file"`
}

type WebConfig struct {
	StaticDir    string   `yaml:"static_dir" mapstructure:"static_dir"`
	AllowOrigins []string `yaml:"allow_origins" mapstructure:"allow_origins"`
}

// ModelConfig holds the hosted multimodal model connection and the per-path
// sampling parameters.
type ModelConfig struct {
	Provider  string         `yaml:"provider" mapstructure:"provider"`
	ModelName string         `yaml:"model_name" mapstructure:"model_name"`
	BaseURL   string         `yaml:"url" mapstructure:"url"`
	APIKey    string         `yaml:"api_key" mapstructure:"api_key"`
	Timeout   time.Duration  `yaml:"timeout" mapstructure:"timeout"`
	Plain     SamplingConfig `yaml:"plain" mapstructure:"plain"`
	Recipe    SamplingConfig `yaml:"recipe" mapstructure:"recipe"`
}

type SamplingConfig struct {
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	TopP        float64 `yaml:"top_p" mapstructure:"top_p"`
}

// ImageConfig bounds what the normalizer accepts and emits.
type ImageConfig struct {
	MaxUploadBytes int64    `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
	MaxOutputBytes int64    `yaml:"max_output_bytes" mapstructure:"max_output_bytes"`
	MaxDimension   int      `yaml:"max_dimension" mapstructure:"max_dimension"`
	MaxPixels      int64    `yaml:"max_pixels" mapstructure:"max_pixels"`
	AllowedFormats []string `yaml:"allowed_formats" mapstructure:"allowed_formats"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

type MailConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	From     string `yaml:"from" mapstructure:"from"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Username string `yaml:"username,omitempty" mapstructure:"username"`
	Password string `yaml:"password,omitempty" mapstructure:"password"`
	DB       int    `yaml:"db,omitempty" mapstructure:"db"`
}
