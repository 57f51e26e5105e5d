package config

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/folioworks/portfolio/internal/domain"
	"github.com/folioworks/portfolio/internal/ratelimit"
)

type Config struct {
	Site      Site      `yaml:"site"`
	Server    Server    `yaml:"server"`
	RateLimit RateLimit `yaml:"rateLimit"`
}

type Site struct {
	SitePassword         string `yaml:"sitePassword"`
	AdminPassword        string `yaml:"adminPassword"`
	SessionSecret        string `yaml:"sessionSecret"`
	AllowEphemeralSecret bool   `yaml:"allowEphemeralSecret"`
	Production           bool   `yaml:"production"`
	ContentFile          string `yaml:"contentFile"`
	PageSize             int    `yaml:"pageSize"`
}

type Server struct {
	ListenAddr     string   `yaml:"listenAddr"`
	LogLevel       string   `yaml:"logLevel"`
	PostgresDsn    string   `yaml:"postgresDsn"`
	SqlitePath     string   `yaml:"sqlitePath"`
	RedisAddr      string   `yaml:"redisAddr"`
	RedisDB        int      `yaml:"redisDB"`
	MemcachedAddr  string   `yaml:"memcachedAddr"`
	EnableTrace    bool     `yaml:"enableTrace"`
	TraceEndpoint  string   `yaml:"traceEndpoint"`
	// TrustedProxies lists the addresses or CIDR ranges allowed to set
	// X-Forwarded-For. Empty means the socket address is the client.
	TrustedProxies []string `yaml:"trustedProxies"`
}

type RateLimit struct {
	Store       string `yaml:"store"` // memory, redis, memcached
	MaxAttempts int    `yaml:"maxAttempts"`
	Window      string `yaml:"window"`
}

const (
	StoreMemory    = "memory"
	StoreRedis     = "redis"
	StoreMemcached = "memcached"
)

// Default returns the settings used when neither a file nor the environment
// say otherwise.
func Default() Config {
	return Config{
		Site: Site{
			PageSize: 30,
		},
		Server: Server{
			ListenAddr: ":8000",
			LogLevel:   "info",
		},
		RateLimit: RateLimit{
			Store:       StoreMemory,
			MaxAttempts: ratelimit.DefaultMaxAttempts,
			Window:      ratelimit.DefaultWindow.String(),
		},
	}
}

// Load reads the YAML file at path, when given, and applies environment
// overrides. Variables from a .env file in the working directory are loaded
// first without replacing ones already set.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	config := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "open config")
		}
		defer file.Close()

		err = yaml.NewDecoder(file).Decode(&config)
		if err != nil {
			return Config{}, errors.Wrap(err, "decode config")
		}
	}

	err := applyEnv(&config, os.LookupEnv)
	if err != nil {
		return Config{}, err
	}

	err = config.Validate()
	if err != nil {
		return Config{}, err
	}

	return config, nil
}

type lookupFunc func(key string) (string, bool)

func applyEnv(config *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "parse %s", key)
		}
		*dst = b
		return nil
	}
	integer := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "parse %s", key)
		}
		*dst = n
		return nil
	}

	str("SITE_PASSWORD", &config.Site.SitePassword)
	str("ADMIN_PASSWORD", &config.Site.AdminPassword)
	str("SESSION_SECRET", &config.Site.SessionSecret)
	str("CONTENT_FILE", &config.Site.ContentFile)
	str("LISTEN_ADDR", &config.Server.ListenAddr)
	str("LOG_LEVEL", &config.Server.LogLevel)
	str("POSTGRES_DSN", &config.Server.PostgresDsn)
	str("SQLITE_PATH", &config.Server.SqlitePath)
	str("REDIS_ADDR", &config.Server.RedisAddr)
	str("MEMCACHED_ADDR", &config.Server.MemcachedAddr)
	str("TRACE_ENDPOINT", &config.Server.TraceEndpoint)
	str("RATE_LIMIT_STORE", &config.RateLimit.Store)
	str("RATE_LIMIT_WINDOW", &config.RateLimit.Window)

	if v, ok := lookup("TRUSTED_PROXIES"); ok {
		config.Server.TrustedProxies = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				config.Server.TrustedProxies = append(config.Server.TrustedProxies, p)
			}
		}
	}

	if v, ok := lookup("NODE_ENV"); ok && v == "production" {
		config.Site.Production = true
	}

	for _, b := range []struct {
		key string
		dst *bool
	}{
		{"PRODUCTION", &config.Site.Production},
		{"ALLOW_EPHEMERAL_SECRET", &config.Site.AllowEphemeralSecret},
		{"ENABLE_TRACE", &config.Server.EnableTrace},
	} {
		if err := boolean(b.key, b.dst); err != nil {
			return err
		}
	}

	for _, n := range []struct {
		key string
		dst *int
	}{
		{"PAGE_SIZE", &config.Site.PageSize},
		{"REDIS_DB", &config.Server.RedisDB},
		{"RATE_LIMIT_MAX_ATTEMPTS", &config.RateLimit.MaxAttempts},
	} {
		if err := integer(n.key, n.dst); err != nil {
			return err
		}
	}

	return nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch c.RateLimit.Store {
	case StoreMemory, "":
	case StoreRedis:
		if c.Server.RedisAddr == "" {
			return errors.New("rateLimit.store is redis but redisAddr is empty")
		}
	case StoreMemcached:
		if c.Server.MemcachedAddr == "" {
			return errors.New("rateLimit.store is memcached but memcachedAddr is empty")
		}
	default:
		return errors.Errorf("unknown rateLimit.store %q", c.RateLimit.Store)
	}

	if _, err := c.RateLimitWindow(); err != nil {
		return err
	}
	if c.Site.PageSize < 0 {
		return errors.New("pageSize must not be negative")
	}
	if _, err := c.TrustedProxyRanges(); err != nil {
		return err
	}
	return nil
}

// TrustedProxyRanges parses trustedProxies. A bare address is a single-host
// range.
func (c Config) TrustedProxyRanges() ([]*net.IPNet, error) {
	ranges := make([]*net.IPNet, 0, len(c.Server.TrustedProxies))
	for _, p := range c.Server.TrustedProxies {
		if !strings.Contains(p, "/") {
			ip := net.ParseIP(p)
			if ip == nil {
				return nil, errors.Errorf("invalid trusted proxy %q", p)
			}
			bits := 128
			if ip.To4() != nil {
				ip = ip.To4()
				bits = 32
			}
			ranges = append(ranges, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, ipnet, err := net.ParseCIDR(p)
		if err != nil {
			return nil, errors.Wrapf(err, "parse trusted proxy %q", p)
		}
		ranges = append(ranges, ipnet)
	}
	return ranges, nil
}

// RateLimitWindow parses the configured window, falling back to the
// limiter default when unset.
func (c Config) RateLimitWindow() (time.Duration, error) {
	if c.RateLimit.Window == "" {
		return ratelimit.DefaultWindow, nil
	}
	d, err := time.ParseDuration(c.RateLimit.Window)
	if err != nil {
		return 0, errors.Wrap(err, "parse rateLimit.window")
	}
	if d <= 0 {
		return 0, errors.New("rateLimit.window must be positive")
	}
	return d, nil
}

// Domain extracts the settings consumed by the gate and handlers.
func (c Config) Domain() domain.Config {
	return domain.Config{
		SitePassword:  c.Site.SitePassword,
		AdminPassword: c.Site.AdminPassword,
		Production:    c.Site.Production,
		PageSize:      c.Site.PageSize,
		ContentFile:   c.Site.ContentFile,
	}
}
