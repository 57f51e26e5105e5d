package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func mapLookup(env map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte(`
site:
  sitePassword: open-sesame
  adminPassword: hunter2
  sessionSecret: file-secret
  contentFile: data/content.json
server:
  listenAddr: ":9000"
  sqlitePath: portfolio.db
rateLimit:
  maxAttempts: 3
  window: 10m
`), 0o600)
	if err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SESSION_SECRET", "env-secret")

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := Default()
	want.Site.SitePassword = "open-sesame"
	want.Site.AdminPassword = "hunter2"
	want.Site.SessionSecret = "env-secret"
	want.Site.ContentFile = "data/content.json"
	want.Server.ListenAddr = ":9000"
	want.Server.SqlitePath = "portfolio.db"
	want.RateLimit.MaxAttempts = 3
	want.RateLimit.Window = "10m"

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}

	window, err := got.RateLimitWindow()
	if err != nil || window != 10*time.Minute {
		t.Fatalf("window = %v, %v", window, err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name: "passwords and secret",
			env: map[string]string{
				"SITE_PASSWORD":  "site",
				"ADMIN_PASSWORD": "admin",
				"SESSION_SECRET": "secret",
			},
			mutate: func(c *Config) {
				c.Site.SitePassword = "site"
				c.Site.AdminPassword = "admin"
				c.Site.SessionSecret = "secret"
			},
		},
		{
			name: "node env production",
			env:  map[string]string{"NODE_ENV": "production"},
			mutate: func(c *Config) {
				c.Site.Production = true
			},
		},
		{
			name: "typed values",
			env: map[string]string{
				"ALLOW_EPHEMERAL_SECRET":  "true",
				"PAGE_SIZE":               "12",
				"REDIS_DB":                "2",
				"RATE_LIMIT_MAX_ATTEMPTS": "9",
				"RATE_LIMIT_STORE":        "redis",
				"REDIS_ADDR":              "localhost:6379",
			},
			mutate: func(c *Config) {
				c.Site.AllowEphemeralSecret = true
				c.Site.PageSize = 12
				c.Server.RedisDB = 2
				c.RateLimit.MaxAttempts = 9
				c.RateLimit.Store = StoreRedis
				c.Server.RedisAddr = "localhost:6379"
			},
		},
		{
			name: "trusted proxies",
			env:  map[string]string{"TRUSTED_PROXIES": "10.0.0.0/8, 192.0.2.7,"},
			mutate: func(c *Config) {
				c.Server.TrustedProxies = []string{"10.0.0.0/8", "192.0.2.7"}
			},
		},
		{
			name:    "bad bool",
			env:     map[string]string{"PRODUCTION": "maybe"},
			wantErr: true,
		},
		{
			name:    "bad int",
			env:     map[string]string{"PAGE_SIZE": "thirty"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Default()
			err := applyEnv(&got, mapLookup(tt.env))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("applyEnv: %v", err)
			}

			want := Default()
			tt.mutate(&want)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "redis without addr", mutate: func(c *Config) { c.RateLimit.Store = StoreRedis }, wantErr: true},
		{name: "memcached with addr", mutate: func(c *Config) {
			c.RateLimit.Store = StoreMemcached
			c.Server.MemcachedAddr = "localhost:11211"
		}},
		{name: "unknown store", mutate: func(c *Config) { c.RateLimit.Store = "disk" }, wantErr: true},
		{name: "bad window", mutate: func(c *Config) { c.RateLimit.Window = "soon" }, wantErr: true},
		{name: "negative window", mutate: func(c *Config) { c.RateLimit.Window = "-1m" }, wantErr: true},
		{name: "negative page size", mutate: func(c *Config) { c.Site.PageSize = -1 }, wantErr: true},
		{name: "trusted proxies", mutate: func(c *Config) { c.Server.TrustedProxies = []string{"10.0.0.0/8", "::1", "192.0.2.7"} }},
		{name: "bad trusted proxy", mutate: func(c *Config) { c.Server.TrustedProxies = []string{"proxy.local"} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDomain(t *testing.T) {
	c := Default()
	c.Site.SitePassword = "s"
	c.Site.AdminPassword = "a"
	c.Site.Production = true

	d := c.Domain()
	if d.SitePassword != "s" || d.AdminPassword != "a" || !d.Production || d.PageSize != 30 {
		t.Fatalf("unexpected domain config: %+v", d)
	}
}

func TestTrustedProxyRanges(t *testing.T) {
	c := Default()
	c.Server.TrustedProxies = []string{"10.0.0.0/8", "192.0.2.7", "::1"}

	ranges, err := c.TrustedProxyRanges()
	if err != nil {
		t.Fatalf("TrustedProxyRanges: %v", err)
	}

	got := make([]string, len(ranges))
	for i, r := range ranges {
		got[i] = r.String()
	}
	want := []string{"10.0.0.0/8", "192.0.2.7/32", "::1/128"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ranges mismatch (-want +got):\n%s", diff)
	}
}
