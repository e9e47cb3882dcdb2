package steam

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/park285/steam-common-games-bot/internal/domain"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func newTestClient(t *testing.T, handler fasthttp.RequestHandler, opts ...Option) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })

	hc := &fasthttp.Client{Dial: func(addr string) (net.Conn, error) { return ln.Dial() }}
	all := append([]Option{WithBaseURL("http://steam.test"), WithHTTPClient(hc)}, opts...)
	return NewClient("test-key", all...)
}

func TestFetchOwnedGames(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) != "/IPlayerService/GetOwnedGames/v0001/" {
			ctx.SetStatusCode(404)
			return
		}
		args := ctx.QueryArgs()
		if string(args.Peek("key")) != "test-key" || string(args.Peek("steamid")) != "76561197960287930" {
			ctx.SetStatusCode(403)
			return
		}
		ctx.SetBodyString(`{"response":{"game_count":2,"games":[
			{"appid":570,"name":"Dota 2","playtime_forever":1000},
			{"appid":440,"name":"Team Fortress 2","playtime_forever":5}
		]}}`)
	})

	lib, err := c.FetchOwnedGames(context.Background(), "76561197960287930")
	if err != nil {
		t.Fatalf("FetchOwnedGames: %v", err)
	}
	want := domain.NewLibrary("76561197960287930", []domain.Game{
		{AppID: 570, Name: "Dota 2"},
		{AppID: 440, Name: "Team Fortress 2"},
	})
	if diff := cmp.Diff(want, lib); diff != "" {
		t.Fatalf("library mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchOwnedGamesPrivateProfile(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(`{"response":{}}`)
	})
	_, err := c.FetchOwnedGames(context.Background(), "76561197960287930")
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Kind != KindPrivateProfile {
		t.Fatalf("expected private profile error, got %v", err)
	}
	if fe.Retryable() {
		t.Fatalf("private profile must not be retryable")
	}
}

func TestFetchOwnedGamesEmptyLibrary(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(`{"response":{"game_count":0}}`)
	})
	lib, err := c.FetchOwnedGames(context.Background(), "76561197960287930")
	if err != nil {
		t.Fatalf("FetchOwnedGames: %v", err)
	}
	if lib.Len() != 0 {
		t.Fatalf("expected empty library, got %d", lib.Len())
	}
}

func TestFetchOwnedGamesMalformed(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(`<html>oops</html>`)
	})
	_, err := c.FetchOwnedGames(context.Background(), "76561197960287930")
	if KindOf(err) != KindMalformed {
		t.Fatalf("expected malformed, got %v", err)
	}
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		if calls.Add(1) < 3 {
			ctx.SetStatusCode(503)
			return
		}
		ctx.SetBodyString(`{"response":{"game_count":1,"games":[{"appid":10,"name":"Counter-Strike"}]}}`)
	}, WithRetry(3))

	lib, err := c.FetchOwnedGames(context.Background(), "76561197960287930")
	if err != nil {
		t.Fatalf("FetchOwnedGames: %v", err)
	}
	if calls.Load() != 3 || lib.Len() != 1 {
		t.Fatalf("calls=%d len=%d", calls.Load(), lib.Len())
	}
}

func TestRejectedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		ctx.SetStatusCode(403)
	}, WithRetry(3))

	_, err := c.FetchOwnedGames(context.Background(), "76561197960287930")
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Kind != KindRejected || fe.Status != 403 {
		t.Fatalf("expected rejected 403, got %v", err)
	}
	if fe.SteamID != "76561197960287930" {
		t.Fatalf("steam id not attached: %q", fe.SteamID)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestResolveVanityURL(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.QueryArgs().Peek("vanityurl")) {
		case "gabelogannewell":
			ctx.SetBodyString(`{"response":{"steamid":"76561197960287930","success":1}}`)
		default:
			ctx.SetBodyString(`{"response":{"success":42,"message":"No match"}}`)
		}
	})

	id, err := c.ResolveVanityURL(context.Background(), "gabelogannewell")
	if err != nil || id != "76561197960287930" {
		t.Fatalf("ResolveVanityURL: id=%q err=%v", id, err)
	}
	if _, err := c.ResolveVanityURL(context.Background(), "nobody"); !errors.Is(err, ErrVanityNotFound) {
		t.Fatalf("expected ErrVanityNotFound, got %v", err)
	}
}

func TestParseProfileInput(t *testing.T) {
	cases := []struct {
		in    string
		value string
		isID  bool
		err   bool
	}{
		{in: "76561197960287930", value: "76561197960287930", isID: true},
		{in: " https://steamcommunity.com/profiles/76561197960287930/ ", value: "76561197960287930", isID: true},
		{in: "https://steamcommunity.com/id/gabelogannewell", value: "gabelogannewell"},
		{in: "gabelogannewell", value: "gabelogannewell"},
		{in: "https://steamcommunity.com/profiles/123", err: true},
		{in: "", err: true},
		{in: "two words", err: true},
	}
	for _, c := range cases {
		value, isID, err := ParseProfileInput(c.in)
		if c.err {
			if err == nil {
				t.Errorf("%q: expected error", c.in)
			}
			continue
		}
		if err != nil || value != c.value || isID != c.isID {
			t.Errorf("%q: got (%q, %v, %v), want (%q, %v)", c.in, value, isID, err, c.value, c.isID)
		}
	}
}
