package steam

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/park285/steam-common-games-bot/internal/domain"
)

// OwnedGame is one entry of IPlayerService/GetOwnedGames with include_appinfo=true.
type OwnedGame struct {
	AppID                  uint64 `json:"appid"`
	Name                   string `json:"name"`
	PlaytimeForever        uint64 `json:"playtime_forever"`
	PlaytimeWindowsForever uint64 `json:"playtime_windows_forever"`
	PlaytimeMacForever     uint64 `json:"playtime_mac_forever"`
	PlaytimeLinuxForever   uint64 `json:"playtime_linux_forever"`
	RTimeLastPlayed        uint64 `json:"rtime_last_played"`
	PlaytimeDisconnected   uint64 `json:"playtime_disconnected"`
}

// Game drops the per-user fields.
func (g OwnedGame) Game() domain.Game {
	return domain.Game{AppID: g.AppID, Name: g.Name}
}

// ownedGamesResponse keeps game_count as a pointer: Steam omits it for
// private profiles and returns an empty "response" object.
type ownedGamesResponse struct {
	Response struct {
		GameCount *int        `json:"game_count"`
		Games     []OwnedGame `json:"games"`
	} `json:"response"`
}

type vanityResponse struct {
	Response struct {
		SteamID string          `json:"steamid"`
		Success int             `json:"success"`
		Message json.RawMessage `json:"message,omitempty"`
	} `json:"response"`
}

var steamID64Pattern = regexp.MustCompile(`^7656119\d{10}$`)

// IsSteamID64 reports whether s looks like a 64-bit individual account id.
func IsSteamID64(s string) bool {
	return steamID64Pattern.MatchString(strings.TrimSpace(s))
}

// ParseProfileInput accepts a SteamID64, a vanity name or a community profile URL
// and returns either the id (isID=true) or the vanity name to resolve.
func ParseProfileInput(raw string) (value string, isID bool, err error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "/")
	for _, prefix := range []string{
		"https://steamcommunity.com/profiles/",
		"http://steamcommunity.com/profiles/",
		"steamcommunity.com/profiles/",
	} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimPrefix(s, prefix)
			if IsSteamID64(s) {
				return s, true, nil
			}
			return "", false, ErrInvalidSteamID
		}
	}
	for _, prefix := range []string{
		"https://steamcommunity.com/id/",
		"http://steamcommunity.com/id/",
		"steamcommunity.com/id/",
	} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimPrefix(s, prefix)
			break
		}
	}
	if s == "" || strings.ContainsAny(s, " /?#") {
		return "", false, ErrInvalidSteamID
	}
	if IsSteamID64(s) {
		return s, true, nil
	}
	return s, false, nil
}
