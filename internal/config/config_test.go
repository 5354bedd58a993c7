package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFromMergesOverlayAndSecrets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
server:
  port: ":9000"
jwt:
  secret: ${JWT_SECRET}
storage:
  driver: postgres
cache:
  driver: redis
redis:
  addr: localhost:6379
`)
	writeFile(t, dir, "test.yaml", `
storage:
  driver: memory
cache:
  driver: local
`)
	writeFile(t, dir, "secrets.env", "JWT_SECRET=from-secrets\n")

	cfg, err := LoadFrom("test", dir)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.JWT.Secret != "from-secrets" {
		t.Errorf("secret not substituted: %q", cfg.JWT.Secret)
	}
	if cfg.Storage.Driver != StorageMemory || cfg.Cache.Driver != CacheLocal {
		t.Errorf("overlay not applied: %+v %+v", cfg.Storage, cfg.Cache)
	}
	if cfg.Server.Port != ":9000" {
		t.Errorf("base value lost: %q", cfg.Server.Port)
	}
	if cfg.JWT.TTLHours != 24 || cfg.Outbox.MaxRetries != 5 || cfg.Cache.TTLSeconds != 300 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		c := Config{}
		c.JWT.Secret = "s"
		c.applyDefaults()
		return c
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"missing secret", func(c *Config) { c.JWT.Secret = "" }, false},
		{"unknown storage", func(c *Config) { c.Storage.Driver = "sqlite" }, false},
		{"redis cache without addr", func(c *Config) { c.Cache.Driver = CacheRedis }, false},
		{"redis cache with addr", func(c *Config) { c.Cache.Driver = CacheRedis; c.Redis.Addr = "x:6379" }, true},
		{"mq with memory storage", func(c *Config) { c.Storage.Driver = StorageMemory; c.MQ.URL = "amqp://x" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}
