package commongames

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/park285/steam-common-games-bot/internal/domain"
)

// PageSize is the number of games shown per page.
const PageSize = 10

// recordVersion is bumped whenever the persisted layout changes. Records with
// another version load as ErrNotFound.
const recordVersion = 1

var (
	ErrNotFound      = errors.New("common games result not found")
	ErrNoLibraries   = errors.New("no libraries could be fetched")
	ErrInvalidCursor = errors.New("invalid page cursor")
	ErrTokenTooLong  = errors.New("page cursor token too long")
	errCorruptRecord = errors.New("corrupt common games record")
)

// Result is an immutable common-games computation. ids is strictly ascending
// and equals the key set of games.
type Result struct {
	games map[uint64]domain.Game
	ids   []uint64
}

func newResult(games map[uint64]domain.Game) *Result {
	ids := make([]uint64, 0, len(games))
	for id := range games {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return &Result{games: games, ids: ids}
}

// NewResult builds a result from a list of games, deduplicated by AppID.
// The first game seen for an AppID wins.
func NewResult(games []domain.Game) *Result {
	m := make(map[uint64]domain.Game, len(games))
	for _, g := range games {
		if _, ok := m[g.AppID]; !ok {
			m[g.AppID] = g
		}
	}
	return newResult(m)
}

func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.ids)
}

// IDs returns a copy of the ordered AppID sequence.
func (r *Result) IDs() []uint64 {
	if r == nil {
		return nil
	}
	out := make([]uint64, len(r.ids))
	copy(out, r.ids)
	return out
}

// Games returns all games in page order.
func (r *Result) Games() []domain.Game {
	if r == nil {
		return nil
	}
	out := make([]domain.Game, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.games[id])
	}
	return out
}

func (r *Result) Game(appID uint64) (domain.Game, bool) {
	if r == nil {
		return domain.Game{}, false
	}
	g, ok := r.games[appID]
	return g, ok
}

// PageCount is the number of non-empty pages.
func (r *Result) PageCount() int {
	return (r.Len() + PageSize - 1) / PageSize
}

// Page returns up to PageSize games starting at idx*PageSize in AppID order.
// An index outside the result yields an empty slice.
func Page(r *Result, idx int) []domain.Game {
	if r == nil || idx < 0 || idx >= r.PageCount() {
		return []domain.Game{}
	}
	start := idx * PageSize
	end := start + PageSize
	if end > len(r.ids) {
		end = len(r.ids)
	}
	out := make([]domain.Game, 0, end-start)
	for _, id := range r.ids[start:end] {
		out = append(out, r.games[id])
	}
	return out
}

// record is the persisted layout of a Result.
type record struct {
	Version int                    `json:"version"`
	Games   map[uint64]domain.Game `json:"games"`
	IDs     []uint64               `json:"ids"`
}

// MarshalJSON encodes a nil Result as an empty one.
func (r *Result) MarshalJSON() ([]byte, error) {
	rec := record{Version: recordVersion}
	if r != nil {
		rec.Games, rec.IDs = r.games, r.ids
	}
	if rec.Games == nil {
		rec.Games = map[uint64]domain.Game{}
	}
	if rec.IDs == nil {
		rec.IDs = []uint64{}
	}
	return json.Marshal(rec)
}

// decodeResult parses a stored record. Foreign versions and records breaking
// the ordering invariant are reported as ErrNotFound.
func decodeResult(raw []byte) (*Result, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if rec.Version != recordVersion {
		return nil, fmt.Errorf("%w: record version %d", ErrNotFound, rec.Version)
	}
	if err := validate(rec.Games, rec.IDs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	games := rec.Games
	if games == nil {
		games = map[uint64]domain.Game{}
	}
	return &Result{games: games, ids: rec.IDs}, nil
}

func validate(games map[uint64]domain.Game, ids []uint64) error {
	if len(games) != len(ids) {
		return errCorruptRecord
	}
	for i, id := range ids {
		if i > 0 && ids[i-1] >= id {
			return errCorruptRecord
		}
		g, ok := games[id]
		if !ok || g.AppID != id {
			return errCorruptRecord
		}
	}
	return nil
}
