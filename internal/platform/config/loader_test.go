package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoader_Load(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "config.yaml")

	configContent := `
server:
  ip: "127.0.0.1"
  port: 9090
  session:
    store:
      type: "memory"
      expiry: 1h
log:
  log_level: "DEBUG"
  log_dir: "/tmp/logs"
  log_file: "test.log"
image:
  max_dimension: 1024
`

	if err := os.WriteFile(configFile, []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	res, err := NewLoader().WithDotEnv(false).WithPath(configFile).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	cfg := res.Config

	if cfg.Server.IP != "127.0.0.1" {
		t.Errorf("expected server IP 127.0.0.1, got %s", cfg.Server.IP)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected server port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "DEBUG" {
		t.Errorf("expected log level DEBUG, got %s", cfg.Log.Level)
	}
	if cfg.Image.MaxDimension != 1024 {
		t.Errorf("expected max_dimension 1024, got %d", cfg.Image.MaxDimension)
	}
	if cfg.Server.Session.Store.Expiry != time.Hour {
		t.Errorf("expected session expiry 1h, got %v", cfg.Server.Session.Store.Expiry)
	}
	// untouched sections keep defaults
	if cfg.Model.Recipe.MaxTokens != 2048 {
		t.Errorf("expected default recipe max_tokens 2048, got %d", cfg.Model.Recipe.MaxTokens)
	}
	if res.Path != configFile {
		t.Errorf("expected path %s, got %s", configFile, res.Path)
	}
}

func TestLoader_LoadMissingFileUsesDefaults(t *testing.T) {
	oldWd, _ := os.Getwd()
	os.Chdir(t.TempDir())
	defer os.Chdir(oldWd)

	res, err := NewLoader().WithDotEnv(false).Load()
	if err != nil {
		t.Fatalf("failed to load defaults: %v", err)
	}
	if res.Path != "" {
		t.Errorf("expected empty path, got %s", res.Path)
	}
	if res.Config.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", res.Config.Server.Port)
	}
}

func TestLoader_EnvOverrides(t *testing.T) {
	oldWd, _ := os.Getwd()
	os.Chdir(t.TempDir())
	defer os.Chdir(oldWd)

	t.Setenv("MODEL_API_KEY", "sk-test")
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("SMTP_PORT", "2525")

	res, err := NewLoader().WithDotEnv(false).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if res.Config.Model.APIKey != "sk-test" {
		t.Errorf("expected api key from env, got %q", res.Config.Model.APIKey)
	}
	if res.Config.Server.Port != 9999 {
		t.Errorf("expected port 9999, got %d", res.Config.Server.Port)
	}
	if res.Config.Mail.Port != 2525 {
		t.Errorf("expected smtp port 2525, got %d", res.Config.Mail.Port)
	}
}

func TestLoader_Validate(t *testing.T) {
	loader := NewLoader()

	valid := func() *Config { return DefaultConfig() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(*Config) {}, false},
		{"invalid server port", func(c *Config) { c.Server.Port = 70000 }, true},
		{"zero max dimension", func(c *Config) { c.Image.MaxDimension = 0 }, true},
		{"unknown store type", func(c *Config) { c.Server.Session.Store.Type = "etcd" }, true},
		{"mail enabled without host", func(c *Config) { c.Mail.Enabled = true }, true},
		{"upload cap below output cap", func(c *Config) { c.Image.MaxUploadBytes = 1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := loader.validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
