package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/park285/steam-common-games-bot/internal/commongames"
	"github.com/park285/steam-common-games-bot/internal/domain"
	"github.com/park285/steam-common-games-bot/internal/steam"
)

// steamcheck fetches the libraries of the given profiles and prints what they
// have in common, without going through Discord.
//
//	steamcheck <steamid|vanity|profile-url> [...]
func main() {
	_ = godotenv.Load()
	apiKey := os.Getenv("STEAM_API_KEY")
	if apiKey == "" {
		log.Fatal("STEAM_API_KEY is required")
	}
	if len(os.Args) < 2 {
		log.Fatal("usage: steamcheck <steamid|vanity|profile-url> [...]")
	}

	client := steam.NewClient(apiKey,
		steam.WithBaseURL(os.Getenv("STEAM_API_BASE_URL")),
		steam.WithTimeout(8*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	libs := make([]domain.Library, 0, len(os.Args)-1)
	for _, arg := range os.Args[1:] {
		value, isID, err := steam.ParseProfileInput(arg)
		if err != nil {
			log.Printf("%s: %v", arg, err)
			continue
		}
		steamID := value
		if !isID {
			if steamID, err = client.ResolveVanityURL(ctx, value); err != nil {
				log.Printf("%s: resolve vanity: %v", arg, err)
				continue
			}
		}
		lib, err := client.FetchOwnedGames(ctx, steamID)
		if err != nil {
			log.Printf("%s: fetch (%s): %v", arg, steam.KindOf(err), err)
			continue
		}
		log.Printf("%s: %d games", steamID, lib.Len())
		libs = append(libs, lib)
	}
	if len(libs) == 0 {
		log.Println("no libraries fetched")
		return
	}

	result := commongames.Compute(libs, len(libs))
	games := result.Games()
	sort.Slice(games, func(i, j int) bool { return games[i].Name < games[j].Name })
	fmt.Printf("%d games owned by all %d libraries (%d pages)\n", result.Len(), len(libs), result.PageCount())
	for _, g := range games {
		fmt.Printf("%8d  %s\n", g.AppID, g.Name)
	}
}
