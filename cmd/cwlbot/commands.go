package main

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cwl-bot/internal/bot"
	"cwl-bot/internal/config"
)

func newCommandsCommand() *cobra.Command {
	var global bool

	scope := func(cfg config.Config) string {
		if global {
			return ""
		}
		return cfg.GuildID
	}

	cmd := &cobra.Command{
		Use:   "commands",
		Short: "Manage slash commands without starting the bot",
	}
	cmd.PersistentFlags().BoolVar(&global, "global", false, "target global commands instead of GUILD_ID (global changes take up to an hour)")

	cmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Create, update and prune slash commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCommandAPI(func(session *discordgo.Session, appID string, cfg config.Config, logger *zap.Logger) error {
				return bot.SyncCommands(session, appID, scope(cfg), bot.Commands(), logger)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every registered slash command",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCommandAPI(func(session *discordgo.Session, appID string, cfg config.Config, logger *zap.Logger) error {
				return bot.ClearCommands(session, appID, scope(cfg), logger)
			})
		},
	})
	return cmd
}

func withCommandAPI(fn func(session *discordgo.Session, appID string, cfg config.Config, logger *zap.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	self, err := session.User("@me")
	if err != nil {
		return fmt.Errorf("resolve application: %w", err)
	}
	if err := fn(session, self.ID, cfg, logger); err != nil {
		return err
	}
	logger.Info("slash commands updated", zap.String("guild_id", cfg.GuildID))
	return nil
}
