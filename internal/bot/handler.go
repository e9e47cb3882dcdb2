package bot

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/park285/steam-common-games-bot/internal/commongames"
	"github.com/park285/steam-common-games-bot/internal/domain"
	"github.com/park285/steam-common-games-bot/internal/msgcat"
	"github.com/park285/steam-common-games-bot/internal/registry"
	"github.com/park285/steam-common-games-bot/internal/steam"
	"go.uber.org/zap"
)

const defaultCommandTimeout = 45 * time.Second

// Responder is the subset of *discordgo.Session the handler replies through.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Finder computes and pages common-game results.
type Finder interface {
	Compute(ctx context.Context, requester string, participants []string, minOwners int) (*commongames.View, error)
	Flip(ctx context.Context, token string) (*commongames.View, error)
}

// VanityResolver turns a custom profile name into a SteamID64.
type VanityResolver interface {
	ResolveVanityURL(ctx context.Context, vanity string) (string, error)
}

type Handler struct {
	finder    Finder
	registry  registry.Registry
	vanity    VanityResolver
	roster    Roster
	cat       *msgcat.Catalog
	presenter *Presenter
	logger    *zap.Logger
	timeout   time.Duration
}

func NewHandler(finder Finder, reg registry.Registry, vanity VanityResolver, roster Roster, cat *msgcat.Catalog, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		finder:    finder,
		registry:  reg,
		vanity:    vanity,
		roster:    roster,
		cat:       cat,
		presenter: NewPresenter(cat),
		logger:    logger,
		timeout:   defaultCommandTimeout,
	}
}

// OnInteraction is registered with discordgo's AddHandler.
func (h *Handler) OnInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.Handle(s, i)
}

func (h *Handler) Handle(s Responder, i *discordgo.InteractionCreate) {
	if i == nil || i.Interaction == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		switch data.Name {
		case cmdRegister:
			h.handleRegister(ctx, s, i, data)
		case cmdShow:
			h.handleShow(ctx, s, i)
		case cmdHelp:
			h.handleHelp(s, i)
		case cmdGetCommonGames:
			h.handleCommonGames(ctx, s, i, data)
		default:
			h.logger.Warn("unknown_command", zap.String("name", data.Name))
		}
	case discordgo.InteractionMessageComponent:
		h.handleFlip(ctx, s, i)
	}
}

func (h *Handler) handleRegister(ctx context.Context, s Responder, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	userID := interactionUserID(i)
	raw := ""
	for _, opt := range data.Options {
		if opt.Name == optSteamID {
			raw = opt.StringValue()
		}
	}

	value, isID, err := steam.ParseProfileInput(raw)
	if err != nil {
		h.replyEphemeral(s, i, h.cat.Text("register.invalid", nil))
		return
	}
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}); err != nil {
		h.logger.Warn("interaction_defer_failed", zap.String("command", cmdRegister), zap.Error(err))
		return
	}

	steamID := value
	if !isID {
		steamID, err = h.vanity.ResolveVanityURL(ctx, value)
		if errors.Is(err, steam.ErrVanityNotFound) {
			h.editContent(s, i, h.cat.Text("register.vanity_not_found", map[string]string{"Value": value}))
			return
		}
		if err != nil {
			h.logger.Warn("vanity_resolve_failed", zap.String("user_id", userID), zap.String("vanity", value), zap.Error(err))
			h.editContent(s, i, h.cat.Text("register.failed", nil))
			return
		}
	}

	if err := h.registry.Store(ctx, userID, steamID); err != nil {
		h.logger.Error("register_failed", zap.String("user_id", userID), zap.Error(err))
		h.editContent(s, i, h.cat.Text("register.failed", nil))
		return
	}
	h.logger.Info("registered", zap.String("user_id", userID), zap.String("steam_id", steamID))
	link := domain.PlatformUserLink{DiscordID: userID, SteamID: steamID}
	h.editContent(s, i, h.cat.Text("register.ok", map[string]string{"SteamID": steamID, "ProfileURL": link.ProfileURL()}))
}

func (h *Handler) handleShow(ctx context.Context, s Responder, i *discordgo.InteractionCreate) {
	userID := interactionUserID(i)
	steamID, err := h.registry.Lookup(ctx, userID)
	switch {
	case errors.Is(err, registry.ErrNotRegistered):
		h.replyEphemeral(s, i, h.cat.Text("show.unregistered", nil))
	case err != nil:
		h.logger.Error("show_lookup_failed", zap.String("user_id", userID), zap.Error(err))
		h.replyEphemeral(s, i, h.cat.Text("common.failed", nil))
	default:
		link := domain.PlatformUserLink{DiscordID: userID, SteamID: steamID}
		h.replyEphemeral(s, i, h.cat.Text("show.registered", map[string]string{"SteamID": steamID, "ProfileURL": link.ProfileURL()}))
	}
}

func (h *Handler) handleHelp(s Responder, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{{
				Title:       h.cat.Text("help.title", nil),
				Description: h.cat.Text("help.body", nil),
				Color:       embedColor,
			}},
		},
	})
	if err != nil {
		h.logger.Warn("interaction_respond_failed", zap.String("command", cmdHelp), zap.Error(err))
	}
}

func (h *Handler) handleCommonGames(ctx context.Context, s Responder, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	userID := interactionUserID(i)
	if i.GuildID == "" {
		h.replyEphemeral(s, i, h.cat.Text("common.guild_only", nil))
		return
	}
	participants, err := h.roster.Participants(i.GuildID, userID)
	if err != nil {
		if !errors.Is(err, ErrNotInVoice) {
			h.logger.Warn("voice_state_lookup_failed", zap.String("guild_id", i.GuildID), zap.Error(err))
		}
		h.replyEphemeral(s, i, h.cat.Text("common.not_in_voice", nil))
		return
	}

	minOwners := commongames.AllOwners
	for _, opt := range data.Options {
		if opt.Name == optMinOwners {
			minOwners = int(opt.IntValue())
		}
	}

	// fan-out can outlast the initial response window
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		h.logger.Warn("interaction_defer_failed", zap.String("command", cmdGetCommonGames), zap.Error(err))
		return
	}

	v, err := h.finder.Compute(ctx, userID, participants, minOwners)
	if errors.Is(err, commongames.ErrNoLibraries) {
		h.editContent(s, i, h.cat.Text("common.no_data", nil))
		return
	}
	if err != nil {
		h.logger.Error("common_games_failed", zap.String("user_id", userID), zap.Error(err))
		h.editContent(s, i, h.cat.Text("common.failed", nil))
		return
	}

	content := h.presenter.Summary(v)
	embeds := []*discordgo.MessageEmbed{h.presenter.Embed(v)}
	components := h.presenter.Components(v)
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content:    &content,
		Embeds:     &embeds,
		Components: &components,
	}); err != nil {
		h.logger.Warn("interaction_edit_failed", zap.String("command", cmdGetCommonGames), zap.Error(err))
	}
}

func (h *Handler) handleFlip(ctx context.Context, s Responder, i *discordgo.InteractionCreate) {
	token := i.MessageComponentData().CustomID
	v, err := h.finder.Flip(ctx, token)
	if err != nil {
		if !errors.Is(err, commongames.ErrInvalidCursor) && !errors.Is(err, commongames.ErrNotFound) {
			h.logger.Warn("page_flip_failed", zap.Error(err))
		}
		// acknowledge without touching the message
		if rerr := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredMessageUpdate,
		}); rerr != nil {
			h.logger.Debug("interaction_ack_failed", zap.Error(rerr))
		}
		return
	}

	content := ""
	if i.Message != nil {
		content = i.Message.Content
	}
	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Embeds:     []*discordgo.MessageEmbed{h.presenter.Embed(v)},
			Components: h.presenter.Components(v),
		},
	})
	if err != nil {
		h.logger.Warn("interaction_update_failed", zap.Int("page", v.Cursor.Page), zap.Error(err))
	}
}

func (h *Handler) replyEphemeral(s Responder, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content, Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		h.logger.Warn("interaction_respond_failed", zap.Error(err))
	}
}

func (h *Handler) editContent(s Responder, i *discordgo.InteractionCreate, content string) {
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content}); err != nil {
		h.logger.Warn("interaction_edit_failed", zap.Error(err))
	}
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
