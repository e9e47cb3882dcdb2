package commongames

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/park285/steam-common-games-bot/internal/domain"
	"github.com/park285/steam-common-games-bot/internal/metrics"
	"go.uber.org/zap"
)

// View is one rendered page of a stored result.
type View struct {
	Cursor    Cursor
	Games     []domain.Game
	Total     int
	Pages     int
	PrevToken string // empty when there is no previous page
	NextToken string // empty when forward navigation must be disabled

	// Set by Compute only.
	Report    *Report
	MinOwners int
}

func (v *View) HasPrev() bool { return v.PrevToken != "" }
func (v *View) HasNext() bool { return v.NextToken != "" }

// Service runs the compute and page-flip flows over an injected resolver and store.
type Service struct {
	resolver *Resolver
	store    Store
	logger   *zap.Logger
	metrics  metrics.Metrics
}

func NewService(resolver *Resolver, store Store, logger *zap.Logger, m metrics.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{resolver: resolver, store: store, logger: logger, metrics: m}
}

// Compute resolves participants, intersects their libraries and stores the
// result under requester. minOwners may be AllOwners. The returned view is
// page 0; it is only produced after the result has been saved.
func (s *Service) Compute(ctx context.Context, requester string, participants []string, minOwners int) (*View, error) {
	if requester == "" {
		return nil, fmt.Errorf("compute: %w", ErrInvalidCursor)
	}
	first := NewCursor(0, requester)
	if _, err := Encode(first); err != nil {
		return nil, fmt.Errorf("compute: %w", err)
	}

	batchID := uuid.NewString()
	libs, report := s.resolver.Resolve(ctx, participants)
	if len(libs) == 0 {
		s.logger.Info("common_games_no_data",
			zap.String("batch_id", batchID),
			zap.String("requester", requester),
			zap.Int("requested", report.Requested),
			zap.Int("unregistered", report.Unregistered),
		)
		return nil, ErrNoLibraries
	}

	threshold := resolveThreshold(minOwners, len(libs))
	result := Compute(libs, threshold)
	if err := s.store.Save(ctx, requester, result); err != nil {
		s.metrics.StoreErrors.Observe(1, "save")
		s.logger.Error("result_save_failed", zap.String("batch_id", batchID), zap.String("requester", requester), zap.Error(err))
		return nil, fmt.Errorf("save result: %w", err)
	}
	s.logger.Info("result_saved",
		zap.String("batch_id", batchID),
		zap.String("requester", requester),
		zap.Int("libraries", len(libs)),
		zap.Int("min_owners", threshold),
		zap.Int("games", result.Len()),
	)

	v := s.view(result, first)
	v.Report = &report
	v.MinOwners = threshold
	return v, nil
}

// Flip serves the page addressed by a control token. Unrecognised tokens
// return ErrInvalidCursor; a missing result returns ErrNotFound.
func (s *Service) Flip(ctx context.Context, token string) (*View, error) {
	c, err := Decode(token)
	if err != nil {
		s.metrics.PageFlips.Observe(1, "ignored")
		return nil, err
	}
	result, err := s.store.Load(ctx, c.Key)
	if err != nil {
		s.metrics.PageFlips.Observe(1, "ignored")
		if !errors.Is(err, ErrNotFound) {
			s.metrics.StoreErrors.Observe(1, "load")
		}
		return nil, err
	}
	s.metrics.PageFlips.Observe(1, "ok")
	return s.view(result, c), nil
}

func (s *Service) view(r *Result, c Cursor) *View {
	games := s.store.Page(r, c.Page)
	v := &View{Cursor: c, Games: games, Total: r.Len(), Pages: r.PageCount()}
	if prev, ok := c.Previous(); ok {
		v.PrevToken = prev.String()
	}
	if len(games) == PageSize && c.Page+1 < r.PageCount() {
		v.NextToken = c.Next().String()
	}
	return v
}
