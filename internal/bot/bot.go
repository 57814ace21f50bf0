package bot

import (
	"context"
	"time"

	"github.com/rrRunerra/Lynx-sub000/internal/archive"
	"github.com/rrRunerra/Lynx-sub000/internal/audit"
	"github.com/rrRunerra/Lynx-sub000/internal/command"
	"github.com/rrRunerra/Lynx-sub000/internal/config"
	"github.com/rrRunerra/Lynx-sub000/internal/cooldown"
	"github.com/rrRunerra/Lynx-sub000/internal/dispatch"
	"github.com/rrRunerra/Lynx-sub000/internal/moderation"
	"github.com/rrRunerra/Lynx-sub000/internal/storage"

	"github.com/bwmarrin/discordgo"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Bot struct {
	cfg        config.Config
	logger     *zap.Logger
	store      *storage.Store
	session    *discordgo.Session
	registry   *command.Registry
	dispatcher *dispatch.Dispatcher
	clear      *archive.ClearEngine
	restore    *archive.RestoreEngine
	actions    *moderation.Actions
	recorder   *audit.Recorder
	sweeper    *cron.Cron
}

func New(cfg config.Config, logger *zap.Logger, store *storage.Store, recorder *audit.Recorder) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildWebhooks

	api := &discordAPI{session: session}
	files := archive.NewHTTPDownloader()

	b := &Bot{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		session:  session,
		registry: command.NewRegistry(),
		recorder: recorder,
		clear:    archive.NewClearEngine(store, api, files, cfg.Archive.StorageRoot, logger),
		restore: archive.NewRestoreEngine(store, api, files,
			cfg.Archive.StorageRoot,
			cfg.Archive.WebhookName,
			time.Duration(cfg.Archive.RestoreDelayMs)*time.Millisecond,
			logger),
		actions: moderation.NewActions(api, recorder, logger),
	}
	b.dispatcher = dispatch.New(b.registry, api, cooldown.NewLedger(), cfg.OwnerID, logger)
	b.registerHandlers()

	return b, nil
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return err
	}
	if err := b.registerCommands(); err != nil {
		return err
	}
	b.startRetentionSweep()
	return nil
}

func (b *Bot) Close(ctx context.Context) {
	if b.sweeper != nil {
		stopped := b.sweeper.Stop()
		select {
		case <-stopped.Done():
		case <-ctx.Done():
		}
	}
	if b.session != nil {
		_ = b.session.Close()
	}
}

func (b *Bot) onReady(session *discordgo.Session, _ *discordgo.Ready) {
	b.logger.Info("discord ready", zap.String("user", session.State.User.Username))
}
