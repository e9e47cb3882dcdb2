package commongames

import "github.com/park285/steam-common-games-bot/internal/domain"

// AllOwners asks Service.Compute for games owned by every fetched library.
const AllOwners = -1

// Compute keeps the games owned by at least minOwners of the libraries.
// A zero threshold is the union; no libraries is an empty result.
func Compute(libs []domain.Library, minOwners int) *Result {
	if minOwners < 0 {
		minOwners = 0
	}
	if len(libs) == 0 {
		return newResult(map[uint64]domain.Game{})
	}

	owners := make(map[domain.Game]int)
	for _, lib := range libs {
		for g := range lib.Games {
			owners[g]++
		}
	}

	best := make(map[uint64]domain.Game)
	bestCount := make(map[uint64]int)
	for g, n := range owners {
		if n < minOwners {
			continue
		}
		prev, seen := best[g.AppID]
		if !seen || n > bestCount[g.AppID] || (n == bestCount[g.AppID] && g.Name < prev.Name) {
			best[g.AppID] = g
			bestCount[g.AppID] = n
		}
	}
	return newResult(best)
}

// resolveThreshold maps AllOwners to the library count.
func resolveThreshold(minOwners, libraries int) int {
	if minOwners == AllOwners {
		return libraries
	}
	if minOwners < 0 {
		return 0
	}
	return minOwners
}
