package domain

import "fmt"

// Game is a Steam application as seen by the common-games engine.
// Only AppID and Name take part in equality so the same app fetched for
// different users compares equal.
type Game struct {
	AppID uint64 `json:"appid"`
	Name  string `json:"name"`
}

// StoreURL returns the Steam store page of the game.
func (g Game) StoreURL() string {
	return fmt.Sprintf("https://store.steampowered.com/app/%d", g.AppID)
}

// Library is the owned-game set of one Steam user.
type Library struct {
	SteamID string
	Games   map[Game]struct{}
}

func NewLibrary(steamID string, games []Game) Library {
	set := make(map[Game]struct{}, len(games))
	for _, g := range games {
		set[g] = struct{}{}
	}
	return Library{SteamID: steamID, Games: set}
}

func (l Library) Contains(g Game) bool {
	_, ok := l.Games[g]
	return ok
}

func (l Library) Len() int { return len(l.Games) }

// PlatformUserLink associates a Discord user with a SteamID64.
type PlatformUserLink struct {
	DiscordID string
	SteamID   string
}

// ProfileURL returns the Steam community profile of the linked account.
func (l PlatformUserLink) ProfileURL() string {
	return "https://steamcommunity.com/profiles/" + l.SteamID
}
