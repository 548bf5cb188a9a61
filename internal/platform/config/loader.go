package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	platformerrors "chopchop-server-go/internal/platform/errors"
)

// Candidate config files, checked in order.
var configPaths = []string{".config.yaml", "config.yaml"}

// Loader layers a yaml file and environment variables over the defaults.
type Loader struct {
	useDotEnv bool
	path      string
}

func NewLoader() *Loader {
	return &Loader{useDotEnv: true}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithPath pins the config file instead of probing the default candidates.
func (l *Loader) WithPath(path string) *Loader {
	l.path = path
	return l
}

// Result captures the loaded configuration and its origin path. Path is empty
// when no config file was found and defaults were used.
type Result struct {
	Config *Config
	Path   string
}

func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		// missing .env just means plain environment variables
		_ = godotenv.Load()
	}

	cfg := DefaultConfig()

	path, data, err := l.readFile()
	if err != nil {
		return nil, err
	}
	if data != nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, platformerrors.Wrap(platformerrors.KindConfig, "config.Load",
				"parse "+path, err)
		}
	}

	applyEnv(cfg)

	if err := l.validate(cfg); err != nil {
		return nil, err
	}

	return &Result{Config: cfg, Path: path}, nil
}

func (l *Loader) readFile() (string, []byte, error) {
	candidates := configPaths
	if l.path != "" {
		candidates = []string{l.path}
	}
	for _, p := range candidates {
		data, err := os.ReadFile(p)
		if err == nil {
			return p, data, nil
		}
		if !os.IsNotExist(err) {
			return "", nil, platformerrors.Wrap(platformerrors.KindConfig, "config.Load",
				"read "+p, err)
		}
	}
	if l.path != "" {
		return "", nil, platformerrors.New(platformerrors.KindConfig, "config.Load",
			"config file not found: "+l.path)
	}
	return "", nil, nil
}

// applyEnv overlays secrets and deploy-specific values from the environment.
func applyEnv(cfg *Config) {
	if v := os.Getenv("MODEL_API_KEY"); v != "" {
		cfg.Model.APIKey = v
	}
	if v := os.Getenv("MODEL_BASE_URL"); v != "" {
		cfg.Model.BaseURL = v
	}
	if v := os.Getenv("MODEL_NAME"); v != "" {
		cfg.Model.ModelName = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.Mail.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Mail.Port = port
		}
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		cfg.Mail.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.Mail.Password = v
	}
	if v := os.Getenv("SMTP_FROM"); v != "" {
		cfg.Mail.From = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Enabled = true
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}

func (l *Loader) validate(cfg *Config) error {
	const op = "config.validate"
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return platformerrors.New(platformerrors.KindConfig, op,
			"server port out of range: "+strconv.Itoa(cfg.Server.Port))
	}
	if cfg.Image.MaxDimension <= 0 {
		return platformerrors.New(platformerrors.KindConfig, op,
			"image max_dimension must be positive")
	}
	if cfg.Image.MaxOutputBytes <= 0 {
		return platformerrors.New(platformerrors.KindConfig, op,
			"image max_output_bytes must be positive")
	}
	if cfg.Image.MaxUploadBytes < cfg.Image.MaxOutputBytes {
		return platformerrors.New(platformerrors.KindConfig, op,
			"image max_upload_bytes smaller than max_output_bytes")
	}
	switch cfg.Server.Session.Store.Type {
	case "memory", "redis", "sqlite", "database":
	default:
		return platformerrors.New(platformerrors.KindConfig, op,
			"unknown session store type: "+cfg.Server.Session.Store.Type)
	}
	if cfg.Mail.Enabled {
		if cfg.Mail.Host == "" || cfg.Mail.From == "" {
			return platformerrors.New(platformerrors.KindConfig, op,
				"mail enabled but host or from address missing")
		}
	}
	return nil
}
