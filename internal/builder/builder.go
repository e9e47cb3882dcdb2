package builder

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/park285/steam-common-games-bot/internal/commongames"
	"github.com/park285/steam-common-games-bot/internal/config"
	"github.com/park285/steam-common-games-bot/internal/metrics"
	"github.com/park285/steam-common-games-bot/internal/msgcat"
	"github.com/park285/steam-common-games-bot/internal/registry"
	"github.com/park285/steam-common-games-bot/internal/steam"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Deps struct {
	Service  *commongames.Service
	Registry registry.Registry
	Steam    *steam.Client
	Store    commongames.Store
	Catalog  *msgcat.Catalog
	Metrics  metrics.Metrics

	closers []func() error
}

func New(cfg *config.AppConfig, m metrics.Metrics, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Deps{Metrics: m}

	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	d.Catalog = cat

	burst := int(cfg.SteamRatePerSec)
	if burst < 1 {
		burst = 1
	}
	d.Steam = steam.NewClient(cfg.SteamAPIKey,
		steam.WithBaseURL(cfg.SteamBaseURL),
		steam.WithTimeout(time.Duration(cfg.SteamTimeoutSec)*time.Second),
		steam.WithRetry(cfg.SteamRetryMax),
		steam.WithRateLimit(cfg.SteamRatePerSec, burst),
	)

	// Registry (Postgres optional)
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		pg, err := registry.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init registry: %w", err)
		}
		d.Registry = pg
		d.closers = append(d.closers, pg.Close)
	} else {
		logger.Warn("registry_in_memory", zap.String("reason", "DATABASE_URL not set; registrations are lost on restart"))
		d.Registry = registry.NewMemory()
	}

	// Result store (Redis optional)
	if strings.TrimSpace(cfg.RedisURL) != "" {
		opts, err := parseRedisURL(cfg.RedisURL)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			d.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		store := commongames.NewRedisStore(rdb, time.Duration(cfg.ResultTTLSec)*time.Second)
		d.Store = store
		d.closers = append(d.closers, store.Close)
	} else {
		logger.Warn("result_store_in_memory", zap.String("reason", "REDIS_URL not set; page buttons stop working after restart"))
		d.Store = commongames.NewMemoryStore()
	}

	resolver := commongames.NewResolver(d.Registry, d.Steam, logger, m)
	d.Service = commongames.NewService(resolver, d.Store, logger, m)
	return d, nil
}

// Close releases backing connections in reverse order of creation.
func (d *Deps) Close() {
	if d == nil {
		return
	}
	for i := len(d.closers) - 1; i >= 0; i-- {
		_ = d.closers[i]()
	}
	d.closers = nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("missing host")
	}
	port := u.Port()
	if port == "" {
		port = "6379"
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid db %q", p)
		}
		db = n
	}
	pass, _ := u.User.Password()
	opts := &redis.Options{Addr: net.JoinHostPort(host, port), Username: u.User.Username(), Password: pass, DB: db}
	if u.Scheme == "rediss" {
		opts.TLSConfig = &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}
