package bot

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/park285/steam-common-games-bot/internal/commongames"
	"github.com/park285/steam-common-games-bot/internal/domain"
	"github.com/park285/steam-common-games-bot/internal/msgcat"
)

const (
	// Disabled buttons still need a custom_id; these never decode as a cursor.
	disabledPrevID = "cg-prev-disabled"
	disabledNextID = "cg-next-disabled"

	nameRuneLimit   = 80
	minNameRunes    = 8
	fieldValueLimit = 1024
	embedColor      = 0x1b2838
)

// Presenter turns a commongames.View into Discord embeds and buttons.
type Presenter struct {
	cat *msgcat.Catalog
}

func NewPresenter(cat *msgcat.Catalog) *Presenter {
	return &Presenter{cat: cat}
}

func (p *Presenter) Embed(v *commongames.View) *discordgo.MessageEmbed {
	body := gameLines(v.Games)
	if body == "" {
		body = p.cat.Text("common.empty", nil)
	}

	pages := v.Pages
	if pages == 0 {
		pages = 1
	}
	return &discordgo.MessageEmbed{
		Title: p.cat.Text("common.title", nil),
		Color: embedColor,
		Fields: []*discordgo.MessageEmbedField{{
			Name:  p.cat.Text("common.field", map[string]int{"Page": v.Cursor.Page}),
			Value: body,
		}},
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%d/%d · %d", v.Cursor.Page+1, pages, v.Total)},
	}
}

// Components renders PREV/NEXT. A missing token disables the button.
func (p *Presenter) Components(v *commongames.View) []discordgo.MessageComponent {
	prev := discordgo.Button{Label: p.cat.Text("common.prev", nil), Style: discordgo.SecondaryButton, CustomID: v.PrevToken}
	if !v.HasPrev() {
		prev.CustomID = disabledPrevID
		prev.Disabled = true
	}
	next := discordgo.Button{Label: p.cat.Text("common.next", nil), Style: discordgo.PrimaryButton, CustomID: v.NextToken}
	if !v.HasNext() {
		next.CustomID = disabledNextID
		next.Disabled = true
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{prev, next}},
	}
}

// Summary is the message text shown above the first page.
func (p *Presenter) Summary(v *commongames.View) string {
	if v.Report == nil {
		return ""
	}
	lines := []string{p.cat.Text("common.summary", map[string]int{
		"Total":     v.Total,
		"MinOwners": v.MinOwners,
		"Fetched":   v.Report.Fetched,
	})}
	if missing := v.Report.Resolved - v.Report.Fetched; missing > 0 {
		lines = append(lines, p.cat.Text("common.partial", map[string]int{"Missing": missing}))
	}
	return strings.Join(lines, "\n")
}

// gameLines renders one link per game, shortening names until the block fits
// in a single embed field.
func gameLines(games []domain.Game) string {
	var body string
	for limit := nameRuneLimit; ; limit -= 4 {
		if limit < minNameRunes {
			limit = minNameRunes
		}
		var sb strings.Builder
		for _, g := range games {
			sb.WriteString(fmt.Sprintf("- [%s](%s)\n", escapeLinkText(limitRunes(g.Name, limit)), g.StoreURL()))
		}
		body = sb.String()
		if utf8.RuneCountInString(body) <= fieldValueLimit || limit == minNameRunes {
			break
		}
	}
	return body
}

func limitRunes(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}

var linkTextEscaper = strings.NewReplacer("[", "(", "]", ")")

func escapeLinkText(s string) string { return linkTextEscaper.Replace(s) }
