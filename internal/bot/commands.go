package bot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/park285/steam-common-games-bot/internal/msgcat"
)

const (
	cmdRegister       = "register"
	cmdShow           = "show"
	cmdHelp           = "help"
	cmdGetCommonGames = "get-common-games"

	optSteamID   = "steam-id"
	optMinOwners = "min-owners"
)

// Commands returns the slash command definitions with descriptions taken from cat.
func Commands(cat *msgcat.Catalog) []*discordgo.ApplicationCommand {
	minOne := 1.0
	return []*discordgo.ApplicationCommand{
		{
			Name:        cmdRegister,
			Description: cat.Text("register.description", nil),
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        optSteamID,
				Description: limitRunes(cat.Text("register.option", nil), 100),
				Required:    true,
			}},
		},
		{
			Name:        cmdShow,
			Description: cat.Text("show.description", nil),
		},
		{
			Name:        cmdHelp,
			Description: cat.Text("help.description", nil),
		},
		{
			Name:        cmdGetCommonGames,
			Description: cat.Text("common.description", nil),
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        optMinOwners,
				Description: limitRunes(cat.Text("common.option_min_owners", nil), 100),
				MinValue:    &minOne,
			}},
		},
	}
}
