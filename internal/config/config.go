package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreDriverFile  = "file"
	StoreDriverRedis = "redis"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request budget, must cover PanelTimeout

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Upstream panel
	PanelURL        string        // ex: https://justanotherpanel.com/api/v2
	PanelKey        string        // shared secret sent as "key"
	PanelTimeout    time.Duration // hard timeout on every upstream call
	PanelFailStatus int           // HTTP status from which a panel response is a failure (400 or 500)

	// Catalog
	ServicesTTL     time.Duration // lifetime of the cached upstream service list
	PriceMultiplier float64       // default markup when a curated entry has none
	CatalogFile     string        // curated catalog (json or yaml)
	CuratedOnly     bool          // never expose the raw upstream list

	// Orders
	OrderKey string // optional secret expected in x-order-key

	// Admin
	AdminUser string
	AdminPass string // empty => admin surface disabled

	// Persistence
	StoreDriver string // "file" | "redis"
	DBFile      string // path of the JSON store when StoreDriver=file

	// Redis (StoreDriver=redis)
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	// Edge
	AllowedOrigins  []string // CORS origins, "*" allows any
	RateLimitBurst  int      // bucket capacity per client IP
	RateLimitPerMin int      // refill rate per client IP
	AllowedHosts    []string // optional, restrict admin routes to specific Host headers
	AllowedCIDRS    []string // optional, restrict ops endpoints to specific IPs/CIDRs
	TrustProxy      bool     // true => trust X-Forwarded-For headers
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("PANELSHOP_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("PANELSHOP_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("PANELSHOP_REQUEST_TIMEOUT", 25*time.Second),

		// Logging
		LogLevel:  getenv("PANELSHOP_LOG_LEVEL", "info"),
		PrettyLog: mustBool("PANELSHOP_PRETTY_LOG", false),

		// Upstream panel
		PanelURL:        getenv("PANELSHOP_PANEL_URL", "https://justanotherpanel.com/api/v2"),
		PanelKey:        requireEnv("PANELSHOP_PANEL_KEY"),
		PanelTimeout:    mustDuration("PANELSHOP_PANEL_TIMEOUT", 20*time.Second),
		PanelFailStatus: getenvInt("PANELSHOP_PANEL_FAIL_STATUS", 400),

		// Catalog
		ServicesTTL:     mustDuration("PANELSHOP_SERVICES_TTL", 10*time.Minute),
		PriceMultiplier: mustFloat("PANELSHOP_PRICE_MULTIPLIER", 1.0),
		CatalogFile:     getenv("PANELSHOP_CATALOG_FILE", "./catalog.json"),
		CuratedOnly:     mustBool("PANELSHOP_CURATED_ONLY", true),

		OrderKey: getenv("PANELSHOP_ORDER_KEY", ""),

		AdminUser: getenv("PANELSHOP_ADMIN_USER", "admin"),
		AdminPass: getenv("PANELSHOP_ADMIN_PASS", ""),

		// Persistence
		StoreDriver: strings.ToLower(getenv("PANELSHOP_STORE_DRIVER", StoreDriverFile)),
		DBFile:      getenv("PANELSHOP_DB_FILE", "./data/db.json"),

		// Redis settings
		RedisAddr:           getenv("PANELSHOP_REDIS_ADDR", "localhost:6379"),
		RedisUser:           getenv("PANELSHOP_REDIS_USERNAME", ""),
		RedisPassword:       getenv("PANELSHOP_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("PANELSHOP_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Edge
		AllowedOrigins:  splitAndTrim(getenv("PANELSHOP_ALLOWED_ORIGINS", "*")),
		RateLimitBurst:  getenvInt("PANELSHOP_RATE_LIMIT_BURST", 120),
		RateLimitPerMin: getenvInt("PANELSHOP_RATE_LIMIT_PER_MIN", 120),
		AllowedHosts:    splitAndTrim(getenv("PANELSHOP_ALLOWED_HOSTS", "")),
		AllowedCIDRS:    parseAllowedIPs(getenv("PANELSHOP_ALLOWED_CIDRS", "")),
		TrustProxy:      mustBool("PANELSHOP_TRUST_PROXY", false),
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Validate checks cross-field constraints that a single getter cannot.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverFile, StoreDriverRedis:
	default:
		return fmt.Errorf("PANELSHOP_STORE_DRIVER must be %q or %q, got %q", StoreDriverFile, StoreDriverRedis, c.StoreDriver)
	}
	if c.PanelFailStatus != 400 && c.PanelFailStatus != 500 {
		return fmt.Errorf("PANELSHOP_PANEL_FAIL_STATUS must be 400 or 500, got %d", c.PanelFailStatus)
	}
	if c.PriceMultiplier < 0 {
		return fmt.Errorf("PANELSHOP_PRICE_MULTIPLIER must be >= 0, got %v", c.PriceMultiplier)
	}
	if c.ServicesTTL <= 0 {
		return fmt.Errorf("PANELSHOP_SERVICES_TTL must be > 0, got %v", c.ServicesTTL)
	}
	if c.RequestTimeout <= c.PanelTimeout {
		return fmt.Errorf("PANELSHOP_REQUEST_TIMEOUT (%v) must exceed PANELSHOP_PANEL_TIMEOUT (%v)", c.RequestTimeout, c.PanelTimeout)
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	cp.PanelKey = "***REDACTED***"
	if cp.OrderKey != "" {
		cp.OrderKey = "***REDACTED***"
	}
	if cp.AdminPass != "" {
		cp.AdminPass = "***REDACTED***"
	}
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	return cp
}

// AdminEnabled reports whether the basic-auth admin surface should be mounted.
func (c *Config) AdminEnabled() bool {
	return c.AdminPass != ""
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func mustFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
