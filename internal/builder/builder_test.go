package builder

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/park285/steam-common-games-bot/internal/commongames"
	"github.com/park285/steam-common-games-bot/internal/config"
	"github.com/park285/steam-common-games-bot/internal/metrics"
)

func TestParseRedisURL(t *testing.T) {
	cases := []struct {
		raw     string
		addr    string
		db      int
		pass    string
		tls     bool
		wantErr bool
	}{
		{raw: "redis://localhost", addr: "localhost:6379"},
		{raw: "redis://:secret@cache:6380/2", addr: "cache:6380", db: 2, pass: "secret"},
		{raw: "rediss://user:pw@cache.example.com:6390/0", addr: "cache.example.com:6390", pass: "pw", tls: true},
		{raw: "http://localhost", wantErr: true},
		{raw: "redis://localhost/abc", wantErr: true},
	}
	for _, tc := range cases {
		opts, err := parseRedisURL(tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: %v", tc.raw, err)
		}
		if opts.Addr != tc.addr || opts.DB != tc.db || opts.Password != tc.pass || (opts.TLSConfig != nil) != tc.tls {
			t.Fatalf("%s: unexpected options %+v", tc.raw, opts)
		}
	}
}

func TestNewWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.AppConfig{
		SteamAPIKey:     "key",
		SteamBaseURL:    "http://127.0.0.1:1",
		SteamRatePerSec: 2,
		SteamTimeoutSec: 1,
		SteamRetryMax:   1,
		RedisURL:        "redis://" + mr.Addr(),
		ResultTTLSec:    60,
	}
	d, err := New(cfg, metrics.Nop(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()
	if _, ok := d.Store.(*commongames.RedisStore); !ok {
		t.Fatalf("expected redis store, got %T", d.Store)
	}
	if d.Service == nil || d.Registry == nil || d.Catalog == nil {
		t.Fatalf("incomplete deps: %+v", d)
	}
}

func TestNewFallsBackToMemory(t *testing.T) {
	d, err := New(&config.AppConfig{SteamAPIKey: "key", SteamTimeoutSec: 1, SteamRetryMax: 1}, metrics.Nop(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()
	if _, ok := d.Store.(*commongames.MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", d.Store)
	}
}

func TestNewRejectsUnreachableRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	if _, err := New(&config.AppConfig{SteamAPIKey: "key", RedisURL: "redis://" + addr}, metrics.Nop(), nil); err == nil {
		t.Fatalf("expected ping error")
	}
}
