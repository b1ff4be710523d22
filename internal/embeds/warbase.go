package embeds

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"cwl-bot/internal/emoji"
	"cwl-bot/internal/warbase"
)

func (b *Builder) WarBase(base warbase.Base) *discordgo.MessageEmbed {
	embed := b.Info(fmt.Sprintf("%s war base `%s`", emoji.TownHall(base.TownHall), base.ID), base.Notes)
	embed.URL = base.Link

	claims := "Nobody is using this base."
	if base.ClaimCount() > 0 {
		users := make([]string, 0, len(base.Claims))
		for _, userID := range base.Claims {
			users = append(users, mention(userID))
		}
		claims = strings.Join(users, " ")
	}
	embed.Fields = []*discordgo.MessageEmbedField{
		field("Link", fmt.Sprintf("[Copy layout](%s)", base.Link), true),
		field("Added by", mention(base.AddedBy), true),
		field(fmt.Sprintf("Claimed (%d)", base.ClaimCount()), claims, false),
	}
	return embed
}

func (b *Builder) WarBaseList(townHall int, bases []warbase.Base) *discordgo.MessageEmbed {
	title := "War bases"
	if townHall > 0 {
		title = fmt.Sprintf("%s war bases", emoji.TownHall(townHall))
	}
	embed := b.Info(title, "")
	if len(bases) == 0 {
		embed.Description = "No bases saved."
		return embed
	}
	lines := make([]string, 0, len(bases))
	for _, base := range bases {
		lines = append(lines, fmt.Sprintf("`%s` %s [layout](%s) • %d claimed", base.ID, emoji.TownHall(base.TownHall), base.Link, base.ClaimCount()))
	}
	embed.Description = joinLines(lines)
	return embed
}
