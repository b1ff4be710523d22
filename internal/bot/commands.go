package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"cwl-bot/internal/league"
)

var (
	adminPermissions   int64 = discordgo.PermissionAdministrator | discordgo.PermissionManageServer
	webhookPermissions int64 = discordgo.PermissionManageWebhooks
)

func tagOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: description,
		Required:    required,
		MinLength:   intPtr(3),
		MaxLength:   15,
	}
}

func subcommand(name, description string, options ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        name,
		Description: description,
		Options:     options,
	}
}

func intPtr(v int) *int { return &v }

// Commands is the full slash command set.
func Commands() []*discordgo.ApplicationCommand {
	minGroup := float64(league.MinGroup)
	minTownHall := float64(1)
	return []*discordgo.ApplicationCommand{
		{
			Name:        "cwl",
			Description: "Clan War League signups, rosters and stats",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("menu", "Open your league menu"),
				subcommand("roster", "Browse league rosters",
					tagOption("clan", "Clan tag to start with", false)),
				subcommand("group", "Show a clan's league group and standings",
					tagOption("clan", "Clan tag", true)),
				subcommand("stats", "League stats for a clan or one of its players",
					tagOption("clan", "Clan tag", true),
					tagOption("player", "Player tag", false)),
				subcommand("signups", "List every signup for the season (admin)"),
				subcommand("clan", "Set a clan's league participation (admin)",
					tagOption("clan", "Clan tag", true),
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Name:        "participate",
						Description: "Whether the clan takes part next season",
					},
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Name:        "roster_open",
						Description: "Whether members may still withdraw",
					}),
				subcommand("assign", "Put a signed up account on a clan roster (admin)",
					tagOption("player", "Player tag", true),
					tagOption("clan", "Clan tag, empty to clear", false)),
				subcommand("register", "Sign up an account for the next league",
					tagOption("player", "Player tag", true),
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "group",
						Description: "League group preference",
						Required:    true,
						MinValue:    &minGroup,
						MaxValue:    float64(league.MaxGroup),
					}),
				subcommand("unregister", "Withdraw an account from the next league",
					tagOption("player", "Player tag", true)),
			},
		},
		{
			Name:        "clan",
			Description: "Show a clan",
			Options:     []*discordgo.ApplicationCommandOption{tagOption("tag", "Clan tag", true)},
		},
		{
			Name:        "player",
			Description: "Show a player and their hero progress",
			Options:     []*discordgo.ApplicationCommandOption{tagOption("tag", "Player tag", true)},
		},
		{
			Name:        "war",
			Description: "Show a clan's current war",
			Options:     []*discordgo.ApplicationCommandOption{tagOption("clan", "Clan tag", true)},
		},
		{
			Name:        "warlog",
			Description: "Browse a clan's war log",
			Options:     []*discordgo.ApplicationCommandOption{tagOption("clan", "Clan tag", true)},
		},
		{
			Name:        "warbase",
			Description: "Shared war base layouts",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("add", "Share a base layout link",
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "link",
						Description: "In-game layout link",
						Required:    true,
					},
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "notes",
						Description: "Short notes",
						MaxLength:   200,
					}),
				subcommand("show", "Show a base", baseIDOption()),
				subcommand("claim", "Mark a base as used by you", baseIDOption()),
				subcommand("unclaim", "Stop using a base", baseIDOption()),
				subcommand("list", "List shared bases",
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "town_hall",
						Description: "Only bases for this town hall",
						MinValue:    &minTownHall,
						MaxValue:    20,
					}),
				subcommand("delete", "Remove a base you shared", baseIDOption()),
			},
		},
		{
			Name:                     "feed",
			Description:              "Post clan member movements to this channel",
			DefaultMemberPermissions: &webhookPermissions,
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("add", "Start posting joins and leaves for a clan",
					tagOption("clan", "Clan tag", true)),
				subcommand("remove", "Stop posting for a clan",
					tagOption("clan", "Clan tag", true)),
			},
		},
	}
}

func baseIDOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "id",
		Description: "Base id",
		Required:    true,
		MinLength:   intPtr(8),
		MaxLength:   8,
	}
}

// CommandAPI is the part of *discordgo.Session used to manage commands.
type CommandAPI interface {
	ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommandEdit(appID, guildID, cmdID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error
}

// SyncCommands creates, edits and deletes commands until the registered set matches commands.
// An empty guildID targets global commands.
func SyncCommands(api CommandAPI, appID, guildID string, commands []*discordgo.ApplicationCommand, logger *zap.Logger) error {
	existing, err := api.ApplicationCommands(appID, guildID)
	if err != nil {
		return fmt.Errorf("list commands: %w", err)
	}

	existingByName := make(map[string]*discordgo.ApplicationCommand, len(existing))
	for _, cmd := range existing {
		existingByName[cmd.Name] = cmd
	}

	desired := make(map[string]struct{}, len(commands))
	for _, cmd := range commands {
		desired[cmd.Name] = struct{}{}
		if current, ok := existingByName[cmd.Name]; ok {
			if _, err := api.ApplicationCommandEdit(appID, guildID, current.ID, cmd); err != nil {
				return fmt.Errorf("edit /%s: %w", cmd.Name, err)
			}
			logger.Debug("command updated", zap.String("command", cmd.Name))
			continue
		}
		if _, err := api.ApplicationCommandCreate(appID, guildID, cmd); err != nil {
			return fmt.Errorf("create /%s: %w", cmd.Name, err)
		}
		logger.Info("command created", zap.String("command", cmd.Name))
	}

	for _, cmd := range existing {
		if _, ok := desired[cmd.Name]; ok {
			continue
		}
		if err := api.ApplicationCommandDelete(appID, guildID, cmd.ID); err != nil {
			logger.Warn("stale command delete failed", zap.String("command", cmd.Name), zap.Error(err))
			continue
		}
		logger.Info("command deleted", zap.String("command", cmd.Name))
	}
	return nil
}

// ClearCommands removes every command registered for the scope.
func ClearCommands(api CommandAPI, appID, guildID string, logger *zap.Logger) error {
	return SyncCommands(api, appID, guildID, nil, logger)
}
