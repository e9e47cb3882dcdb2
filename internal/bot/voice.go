package bot

import (
	"errors"
	"sort"

	"github.com/bwmarrin/discordgo"
)

var ErrNotInVoice = errors.New("caller is not in a voice channel")

// Roster lists the users sharing the caller's voice channel.
type Roster interface {
	Participants(guildID, userID string) ([]string, error)
}

// StateRoster reads voice states from the session's gateway cache.
type StateRoster struct {
	State *discordgo.State
}

func (r StateRoster) Participants(guildID, userID string) ([]string, error) {
	if r.State == nil {
		return nil, ErrNotInVoice
	}
	g, err := r.State.Guild(guildID)
	if err != nil {
		return nil, err
	}
	return channelMembers(g.VoiceStates, userID)
}

// channelMembers returns every user in the same channel as userID, userID included.
func channelMembers(states []*discordgo.VoiceState, userID string) ([]string, error) {
	channel := ""
	for _, vs := range states {
		if vs != nil && vs.UserID == userID {
			channel = vs.ChannelID
			break
		}
	}
	if channel == "" {
		return nil, ErrNotInVoice
	}
	seen := make(map[string]struct{})
	out := make([]string, 0, len(states))
	for _, vs := range states {
		if vs == nil || vs.ChannelID != channel {
			continue
		}
		if vs.Member != nil && vs.Member.User != nil && vs.Member.User.Bot {
			continue
		}
		if _, ok := seen[vs.UserID]; ok {
			continue
		}
		seen[vs.UserID] = struct{}{}
		out = append(out, vs.UserID)
	}
	sort.Strings(out)
	return out, nil
}
