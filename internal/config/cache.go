package config

import (
    "strings"
    "time"

    "github.com/kelseyhightower/envconfig"
)

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is configured, caching will be disabled.
// Methods lists the HTTP methods to cache (e.g. GET, HEAD).  TTL defines the
// lifetime of cache entries.  KeyStrategy determines which parts of the request
// contribute to the cache key.
type CacheConfig struct {
    Enabled      bool            `envconfig:"CACHE_ENABLED" default:"true"`
    Methods      map[string]bool `ignored:"true"`
    RawMethods   string          `envconfig:"CACHE_METHODS" default:"GET"`
    TTL          time.Duration   `envconfig:"CACHE_TTL" default:"30s"`
    KeyStrategy  string          `envconfig:"CACHE_KEY_STRATEGY" default:"route_query"`
    Prefix       string          `envconfig:"CACHE_PREFIX" default:"cache"`
    MaxBodyBytes int             `envconfig:"CACHE_MAX_BODY_BYTES" default:"1048576"`
}

// LoadCacheConfig reads environment variables to build a CacheConfig.  All
// methods are upper-cased.
func LoadCacheConfig() CacheConfig {
    var cfg CacheConfig
    if err := envconfig.Process("", &cfg); err != nil {
        cfg = CacheConfig{Enabled: true, RawMethods: "GET", TTL: 30 * time.Second, KeyStrategy: "route_query", Prefix: "cache", MaxBodyBytes: 1 << 20}
    }
    cfg.Methods = parseMethods(cfg.RawMethods)
    return cfg
}

func parseMethods(s string) map[string]bool {
    m := map[string]bool{}
    for _, p := range strings.Split(s, ",") {
        p = strings.TrimSpace(strings.ToUpper(p))
        if p != "" {
            m[p] = true
        }
    }
    return m
}
