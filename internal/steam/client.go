package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/park285/steam-common-games-bot/internal/domain"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://api.steampowered.com"

// Client is a Steam Web API client.
//
// https://steamcommunity.com/dev
type Client struct {
	baseURL string
	apiKey  string
	http    *fasthttp.Client
	limiter *rate.Limiter

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u = strings.TrimRight(strings.TrimSpace(u), "/"); u != "" {
			c.baseURL = u
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithRateLimit caps outgoing requests per second. Zero disables the limiter.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithHTTPClient replaces the transport, mostly for tests with an in-memory listener.
func WithHTTPClient(hc *fasthttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:        DefaultBaseURL,
		apiKey:         apiKey,
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOwnedGames returns the games a player owns along with playtime information,
// if the profile is publicly visible.
func (c *Client) GetOwnedGames(ctx context.Context, steamID string) ([]OwnedGame, error) {
	steamID = strings.TrimSpace(steamID)
	var resp ownedGamesResponse
	err := c.getJSON(ctx, "/IPlayerService/GetOwnedGames/v0001/", [][2]string{
		{"steamid", steamID},
		{"include_appinfo", "true"},
		{"include_played_free_games", "true"},
	}, &resp)
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			fe.SteamID = steamID
		}
		return nil, err
	}
	if resp.Response.GameCount == nil {
		return nil, &FetchError{Kind: KindPrivateProfile, SteamID: steamID}
	}
	return resp.Response.Games, nil
}

// FetchOwnedGames returns the owned library reduced to comparable games.
func (c *Client) FetchOwnedGames(ctx context.Context, steamID string) (domain.Library, error) {
	owned, err := c.GetOwnedGames(ctx, steamID)
	if err != nil {
		return domain.Library{}, err
	}
	games := make([]domain.Game, 0, len(owned))
	for _, g := range owned {
		games = append(games, g.Game())
	}
	return domain.NewLibrary(strings.TrimSpace(steamID), games), nil
}

// ResolveVanityURL maps a custom profile name to its SteamID64.
func (c *Client) ResolveVanityURL(ctx context.Context, vanity string) (string, error) {
	var resp vanityResponse
	if err := c.getJSON(ctx, "/ISteamUser/ResolveVanityURL/v0001/", [][2]string{{"vanityurl", strings.TrimSpace(vanity)}}, &resp); err != nil {
		return "", err
	}
	if resp.Response.Success != 1 || resp.Response.SteamID == "" {
		return "", ErrVanityNotFound
	}
	return resp.Response.SteamID, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query [][2]string, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(c.baseURL + path)
	args := req.URI().QueryArgs()
	for _, kv := range query {
		args.Add(kv[0], kv[1])
	}
	args.Add("key", c.apiKey)
	args.Add("format", "json")

	attempts := c.retryMax
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return &FetchError{Kind: KindTransport, Err: err}
			}
		}
		deadline := c.computeDeadline(ctx)
		err := c.http.DoDeadline(req, resp, deadline)
		if err != nil {
			lastErr = &FetchError{Kind: KindTransport, Err: fmt.Errorf("request failed: %w", err)}
			if attempt == attempts {
				return lastErr
			}
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			body := truncate(string(resp.Body()), 512)
			if !shouldRetryStatus(status) {
				return &FetchError{Kind: KindRejected, Status: status, Err: fmt.Errorf("steam api error: body=%s", body)}
			}
			lastErr = &FetchError{Kind: KindTransport, Status: status, Err: fmt.Errorf("steam api error: body=%s", body)}
			if attempt == attempts {
				return lastErr
			}
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return &FetchError{Kind: KindMalformed, Status: status, Err: fmt.Errorf("decode response: %w", err)}
		}
		return nil
	}

	if lastErr == nil {
		lastErr = &FetchError{Kind: KindTransport, Err: errors.New("unknown error")}
	}
	return lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
