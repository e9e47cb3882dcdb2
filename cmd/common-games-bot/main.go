package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/park285/steam-common-games-bot/internal/bot"
	"github.com/park285/steam-common-games-bot/internal/builder"
	appcfg "github.com/park285/steam-common-games-bot/internal/config"
	"github.com/park285/steam-common-games-bot/internal/metrics"
	"github.com/park285/steam-common-games-bot/internal/obslog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	cfg, err := appcfg.Load()
	if err != nil {
		logger.Fatal("config_error", zap.Error(err))
	}

	m := metrics.New("common_games_bot")
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg, m); err != nil {
		logger.Fatal("metrics_register_error", zap.Error(err))
	}

	deps, err := builder.New(cfg, m, logger)
	if err != nil {
		logger.Fatal("deps_init_error", zap.Error(err))
	}
	defer deps.Close()

	var metricsSrv *fasthttp.Server
	if cfg.MetricsAddr != "" {
		metricsSrv = &fasthttp.Server{
			Handler: fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
			Name:    "common-games-bot",
		}
		go func() {
			if err := metricsSrv.ListenAndServe(cfg.MetricsAddr); err != nil {
				logger.Error("metrics_server_stopped", zap.Error(err))
			}
		}()
		logger.Info("metrics_listening", zap.String("addr", cfg.MetricsAddr))
	}

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		logger.Fatal("discord_session_error", zap.Error(err))
	}
	session.Identify.Intents = discordgo.IntentGuilds | discordgo.IntentGuildVoiceStates

	handler := bot.NewHandler(deps.Service, deps.Registry, deps.Steam, bot.StateRoster{State: session.State}, deps.Catalog, logger)
	commands := bot.Commands(deps.Catalog)
	var appID atomic.Value

	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		appID.Store(r.Application.ID)
		if _, err := s.ApplicationCommandBulkOverwrite(r.Application.ID, cfg.GuildID, commands); err != nil {
			logger.Error("command_register_failed", zap.String("guild_id", cfg.GuildID), zap.Error(err))
			return
		}
		logger.Info("ready", zap.String("user", r.User.Username), zap.Int("guilds", len(r.Guilds)), zap.Int("commands", len(commands)))
	})
	session.AddHandler(handler.OnInteraction)

	if err := session.Open(); err != nil {
		logger.Fatal("discord_open_error", zap.Error(err))
	}

	// Wait for termination signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting_down")

	if id, _ := appID.Load().(string); cfg.UnregisterOnExit && id != "" {
		if _, err := session.ApplicationCommandBulkOverwrite(id, cfg.GuildID, []*discordgo.ApplicationCommand{}); err != nil {
			logger.Warn("command_unregister_failed", zap.Error(err))
		}
	}
	_ = session.Close()

	if metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.ShutdownWithContext(ctx)
	}
}
