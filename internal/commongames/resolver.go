package commongames

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/park285/steam-common-games-bot/internal/domain"
	"github.com/park285/steam-common-games-bot/internal/metrics"
	"github.com/park285/steam-common-games-bot/internal/registry"
	"github.com/park285/steam-common-games-bot/internal/steam"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Catalog fetches the owned library of one Steam user.
type Catalog interface {
	FetchOwnedGames(ctx context.Context, steamID string) (domain.Library, error)
}

// Failure records why one participant is missing from a batch.
type Failure struct {
	DiscordID string
	SteamID   string
	Err       error
}

// Report describes how a batch shrank between request and intersection.
type Report struct {
	Requested    int
	Unregistered int
	Resolved     int
	Fetched      int
	Failures     []Failure
}

// Partial reports whether some resolved user could not be fetched.
func (r Report) Partial() bool { return r.Fetched < r.Resolved }

// Resolver maps Discord users to Steam libraries, fetching all of them concurrently.
type Resolver struct {
	registry registry.Registry
	catalog  Catalog
	logger   *zap.Logger
	metrics  metrics.Metrics
}

func NewResolver(reg registry.Registry, catalog Catalog, logger *zap.Logger, m metrics.Metrics) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{registry: reg, catalog: catalog, logger: logger, metrics: m}
}

type slot struct {
	discordID string
	steamID   string
	lib       domain.Library
	err       error
	ok        bool
}

// Resolve returns the libraries of every registered, fetchable participant.
// Unregistered users are skipped; fetch failures shrink the batch but never
// abort it. The call returns after every lookup and fetch has settled.
func (r *Resolver) Resolve(ctx context.Context, discordIDs []string) ([]domain.Library, Report) {
	ids := dedupe(discordIDs)
	report := Report{Requested: len(ids)}
	started := time.Now()

	// lookups
	steamIDs := make([]string, len(ids))
	lookupErrs := make([]error, len(ids))
	var g errgroup.Group
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			steamIDs[i], lookupErrs[i] = r.registry.Lookup(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	var slots []*slot
	seen := make(map[string]bool)
	for i, id := range ids {
		switch err := lookupErrs[i]; {
		case errors.Is(err, registry.ErrNotRegistered):
			report.Unregistered++
			continue
		case err != nil:
			r.logger.Warn("registry_lookup_error", zap.String("discord_id", id), zap.Error(err))
			report.Failures = append(report.Failures, Failure{DiscordID: id, Err: err})
			continue
		}
		sid := strings.TrimSpace(steamIDs[i])
		if sid == "" || seen[sid] {
			continue
		}
		seen[sid] = true
		slots = append(slots, &slot{discordID: id, steamID: sid})
	}
	report.Resolved = len(slots)

	// fetches
	var fg errgroup.Group
	for _, s := range slots {
		s := s
		fg.Go(func() error {
			s.lib, s.err = r.catalog.FetchOwnedGames(ctx, s.steamID)
			s.ok = s.err == nil
			return nil
		})
	}
	_ = fg.Wait()

	libs := make([]domain.Library, 0, len(slots))
	for _, s := range slots {
		if !s.ok {
			outcome := string(steam.KindOf(s.err))
			if outcome == "" {
				outcome = "error"
			}
			r.metrics.Fetches.Observe(1, outcome)
			r.logger.Warn("steam_fetch_failed",
				zap.String("discord_id", s.discordID),
				zap.String("steam_id", s.steamID),
				zap.String("kind", outcome),
				zap.Error(s.err),
			)
			report.Failures = append(report.Failures, Failure{DiscordID: s.discordID, SteamID: s.steamID, Err: s.err})
			continue
		}
		r.metrics.Fetches.Observe(1, "ok")
		libs = append(libs, s.lib)
	}
	report.Fetched = len(libs)

	r.metrics.BatchSize.Observe(float64(report.Fetched))
	r.metrics.FanoutLatency.Observe(time.Since(started).Seconds())
	if report.Partial() {
		r.metrics.PartialBatches.Observe(1)
		r.logger.Warn("fanout_partial",
			zap.Int("requested", report.Requested),
			zap.Int("resolved", report.Resolved),
			zap.Int("fetched", report.Fetched),
		)
	}
	return libs, report
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
