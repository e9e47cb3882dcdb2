package commongames

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/park285/steam-common-games-bot/internal/domain"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, ttl), mr
}

func resultOf(n int) *Result {
	games := make([]domain.Game, 0, n)
	// insert in descending order so sorting is observable
	for i := n; i >= 1; i-- {
		games = append(games, game(uint64(i*10)))
	}
	return NewResult(games)
}

func TestPageBounds(t *testing.T) {
	r := resultOf(15)
	if got := len(Page(r, 0)); got != 10 {
		t.Fatalf("page 0 has %d entries", got)
	}
	if got := len(Page(r, 1)); got != 5 {
		t.Fatalf("page 1 has %d entries", got)
	}
	if got := Page(r, 2); got == nil || len(got) != 0 {
		t.Fatalf("page 2 = %v, want empty non-nil slice", got)
	}
	if got := len(Page(r, -1)); got != 0 {
		t.Fatalf("negative page has %d entries", got)
	}
	// idx*PageSize wraps to a small positive offset
	if got := Page(r, 1844674407370955162); got == nil || len(got) != 0 {
		t.Fatalf("overflowing page = %v, want empty", got)
	}
	if got := len(Page(r, math.MaxInt)); got != 0 {
		t.Fatalf("MaxInt page has %d entries", got)
	}
	if r.PageCount() != 2 {
		t.Fatalf("PageCount = %d", r.PageCount())
	}
}

func TestPagesReproduceOrder(t *testing.T) {
	for _, n := range []int{0, 1, 9, 10, 11, 20, 37} {
		r := resultOf(n)
		var ids []uint64
		for p := 0; ; p++ {
			page := Page(r, p)
			if len(page) == 0 {
				break
			}
			if len(page) > PageSize {
				t.Fatalf("n=%d page %d has %d entries", n, p, len(page))
			}
			for _, g := range page {
				ids = append(ids, g.AppID)
			}
		}
		if diff := cmp.Diff(r.IDs(), append([]uint64{}, ids...)); diff != "" {
			t.Fatalf("n=%d pages (-ids +pages):\n%s", n, diff)
		}
	}
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Load(ctx, "never"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load of unsaved key: expected ErrNotFound, got %v", err)
	}

	first := resultOf(15)
	if err := s.Save(ctx, "u1", first); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(first.Games(), got.Games()); diff != "" {
		t.Fatalf("loaded result (-saved +loaded):\n%s", diff)
	}
	if diff := cmp.Diff(Page(first, 1), s.Page(got, 1)); diff != "" {
		t.Fatalf("page 1 after reload:\n%s", diff)
	}

	// last write wins
	second := resultOf(3)
	if err := s.Save(ctx, "u1", second); err != nil {
		t.Fatalf("Save#2: %v", err)
	}
	got, err = s.Load(ctx, "u1")
	if err != nil || got.Len() != 3 {
		t.Fatalf("Load after overwrite: len=%d err=%v", got.Len(), err)
	}

	// keys are isolated
	if _, err := s.Load(ctx, "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load of other key: expected ErrNotFound, got %v", err)
	}

	// empty results survive a round trip
	if err := s.Save(ctx, "empty", NewResult(nil)); err != nil {
		t.Fatalf("Save empty: %v", err)
	}
	got, err = s.Load(ctx, "empty")
	if err != nil || got.Len() != 0 {
		t.Fatalf("Load empty: len=%d err=%v", got.Len(), err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exerciseStore(t, s)
	s.Clear()
	if _, err := s.Load(context.Background(), "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load after Clear: expected ErrNotFound, got %v", err)
	}
}

func TestRedisStore(t *testing.T) {
	s, _ := newTestRedisStore(t, time.Hour)
	exerciseStore(t, s)
}

func TestRedisStoreExpiry(t *testing.T) {
	s, mr := newTestRedisStore(t, time.Minute)
	ctx := context.Background()
	if err := s.Save(ctx, "u1", resultOf(2)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := s.Load(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after ttl, got %v", err)
	}
}

func TestRedisStoreForeignRecords(t *testing.T) {
	s, mr := newTestRedisStore(t, 0)
	ctx := context.Background()
	records := map[string]string{
		"old":      `{"games":{"10":{"appid":10,"name":"x"}},"game_ids":[10]}`,
		"future":   `{"version":2,"games":{},"ids":[]}`,
		"garbage":  `not json`,
		"unsorted": `{"version":1,"games":{"10":{"appid":10,"name":"a"},"20":{"appid":20,"name":"b"}},"ids":[20,10]}`,
		"mismatch": `{"version":1,"games":{"10":{"appid":10,"name":"a"}},"ids":[10,20]}`,
	}
	for key, raw := range records {
		if err := mr.Set(s.keyResult(key), raw); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
		if _, err := s.Load(ctx, key); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", key, err)
		}
	}
}

func TestRedisStoreFlushedStorage(t *testing.T) {
	s, mr := newTestRedisStore(t, 0)
	ctx := context.Background()
	if err := s.Save(ctx, "u1", resultOf(2)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	mr.FlushAll()
	if _, err := s.Load(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after flush, got %v", err)
	}
}

func TestSaveNilResult(t *testing.T) {
	ctx := context.Background()
	redisStore, _ := newTestRedisStore(t, time.Hour)
	for _, s := range []Store{NewMemoryStore(), redisStore} {
		if err := s.Save(ctx, "nil", nil); err != nil {
			t.Fatalf("%T Save(nil): %v", s, err)
		}
		got, err := s.Load(ctx, "nil")
		if err != nil {
			t.Fatalf("%T Load: %v", s, err)
		}
		if got.Len() != 0 || got.PageCount() != 0 {
			t.Fatalf("%T: expected empty result, got %d games", s, got.Len())
		}
	}
}
