package config

// This file defines the Redis client constructor.  Redis backs the rate
// limiter and the catalog response cache.  If the server cannot be reached
// at startup the constructor returns nil and both middlewares degrade to
// pass-through.

import (
    "context"
    "crypto/tls"
    "time"

    "github.com/kelseyhightower/envconfig"
    "github.com/redis/go-redis/v9"
)

// RedisConfig lists the connection settings.  Addr takes effect only when
// Host/Port are not both set.
type RedisConfig struct {
    Host     string `envconfig:"REDIS_HOST"`
    Port     string `envconfig:"REDIS_PORT"`
    Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
    Password string `envconfig:"REDIS_PASSWORD"`
    DB       int    `envconfig:"REDIS_DB" default:"0"`
    TLS      bool   `envconfig:"REDIS_TLS" default:"false"`
}

// Address resolves the host:port pair to dial.
func (r RedisConfig) Address() string {
    if r.Host != "" && r.Port != "" {
        return r.Host + ":" + r.Port
    }
    if r.Addr == "" {
        return "localhost:6379"
    }
    return r.Addr
}

// NewRedisClient instantiates a Redis client from REDIS_* variables.
// The returned client may be nil if a connection cannot be established.
func NewRedisClient() *redis.Client {
    var rc RedisConfig
    if err := envconfig.Process("", &rc); err != nil {
        return nil
    }
    var tlsConf *tls.Config
    if rc.TLS {
        tlsConf = &tls.Config{InsecureSkipVerify: true}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      rc.Address(),
        Password:  rc.Password,
        DB:        rc.DB,
        TLSConfig: tlsConf,
    })
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
