package bot

import (
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"cwl-bot/internal/embeds"
	"cwl-bot/internal/views"
)

func flags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}

func (b *Bot) respondEmbed(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	err := session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags(ephemeral),
		},
	})
	if err != nil {
		b.logger.Warn("interaction respond failed", zap.Error(err))
	}
}

// deferReply acknowledges a command that will be answered through edits.
func (b *Bot) deferReply(session *discordgo.Session, interaction *discordgo.InteractionCreate, ephemeral bool) bool {
	err := session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags(ephemeral)},
	})
	if err != nil {
		b.logger.Warn("interaction defer failed", zap.Error(err))
		return false
	}
	return true
}

func (b *Bot) editEmbeds(session *discordgo.Session, interaction *discordgo.InteractionCreate, list ...*discordgo.MessageEmbed) {
	b.editMessage(session, interaction, views.Message{Embeds: list})
}

func (b *Bot) editMessage(session *discordgo.Session, interaction *discordgo.InteractionCreate, msg views.Message) {
	edit := &discordgo.WebhookEdit{Embeds: &msg.Embeds}
	if msg.Content != "" {
		edit.Content = &msg.Content
	}
	if len(msg.Components) > 0 {
		edit.Components = &msg.Components
	}
	if _, err := session.InteractionResponseEdit(interaction.Interaction, edit); err != nil {
		b.logger.Warn("interaction edit failed", zap.Error(err))
	}
}

// fail answers a deferred interaction with an error embed; unexpected errors are logged.
func (b *Bot) fail(session *discordgo.Session, interaction *discordgo.InteractionCreate, err error) {
	if !embeds.Known(err) {
		b.logger.Error("interaction failed",
			zap.String("user_id", userID(interaction)),
			zap.String("guild_id", interaction.GuildID),
			zap.Error(err))
	}
	b.editEmbeds(session, interaction, b.builder.Error(err))
}

func (b *Bot) respondView(session *discordgo.Session, interaction *discordgo.InteractionCreate, resp views.Response) {
	var response *discordgo.InteractionResponse
	switch resp.Kind {
	case views.ReplyModal:
		response = &discordgo.InteractionResponse{Type: discordgo.InteractionResponseModal, Data: resp.Modal}
	case views.ReplyNotice:
		b.respondEmbed(session, interaction, resp.Notice, true)
		return
	default:
		components := resp.Message.Components
		if components == nil {
			components = []discordgo.MessageComponent{}
		}
		response = &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{
				Content:    resp.Message.Content,
				Embeds:     resp.Message.Embeds,
				Components: components,
			},
		}
	}
	if err := session.InteractionRespond(interaction.Interaction, response); err != nil {
		b.logger.Warn("view respond failed", zap.Error(err))
	}
}

func userID(interaction *discordgo.InteractionCreate) string {
	if interaction.Member != nil && interaction.Member.User != nil {
		return interaction.Member.User.ID
	}
	if interaction.User != nil {
		return interaction.User.ID
	}
	return ""
}

func isAdmin(interaction *discordgo.InteractionCreate) bool {
	return interaction.Member != nil && interaction.Member.Permissions&adminPermissions != 0
}
