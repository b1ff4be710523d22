package embeds

import (
	"fmt"
	"net/url"

	"github.com/bwmarrin/discordgo"

	"cwl-bot/internal/coc"
	"cwl-bot/internal/emoji"
	"cwl-bot/internal/storage"
)

func clanURL(tag string) string {
	return "https://link.clashofclans.com/en?action=OpenClanProfile&tag=" + url.QueryEscape(tag)
}

func playerURL(tag string) string {
	return "https://link.clashofclans.com/en?action=OpenPlayerProfile&tag=" + url.QueryEscape(tag)
}

func (b *Builder) Clan(clan coc.Clan) *discordgo.MessageEmbed {
	embed := b.Info(fmt.Sprintf("%s (%s)", clan.Name, clan.Tag), clan.Description)
	embed.URL = clanURL(clan.Tag)
	embed.Thumbnail = thumbnail(clan.BadgeURLs.Medium)

	location := "-"
	if clan.Location != nil {
		location = clan.Location.Name
	}
	warLog := "Private"
	if clan.IsWarLogPublic {
		warLog = fmt.Sprintf("%s %d  %s %d  %s %d", emoji.Win, clan.WarWins, emoji.Loss, clan.WarLosses, emoji.Tie, clan.WarTies)
	}
	embed.Fields = []*discordgo.MessageEmbedField{
		field("Level", fmt.Sprint(clan.ClanLevel), true),
		field("Members", fmt.Sprintf("%s %d/50", emoji.Members, clan.Members), true),
		field("Points", fmt.Sprintf("%s %s", emoji.Trophy, b.Number(clan.ClanPoints)), true),
		field("War League", fmt.Sprintf("%s %s", emoji.League(clan.WarLeague.Name), clan.WarLeague.Name), true),
		field("Win Streak", fmt.Sprint(clan.WarWinStreak), true),
		field("Location", location, true),
		field("War Record", warLog, false),
		field("Requirements", fmt.Sprintf("%s %s trophies, %s", emoji.Trophy, b.Number(clan.RequiredTrophies), emoji.TownHall(clan.RequiredTownhallLevel)), false),
	}
	return embed
}

// MemberJoin announces a member who joined; player adds hero detail when known.
func (b *Builder) MemberJoin(clanName string, member coc.ClanMember, player *coc.Player) *discordgo.MessageEmbed {
	embed := b.Success(
		fmt.Sprintf("%s %s joined %s", emoji.Joined, member.Name, clanName),
		fmt.Sprintf("[%s](%s)", member.Tag, playerURL(member.Tag)),
	)
	embed.Fields = []*discordgo.MessageEmbedField{
		field("Town Hall", emoji.TownHall(member.TownHallLevel), true),
		field("Trophies", fmt.Sprintf("%s %s", emoji.Trophy, b.Number(member.Trophies)), true),
		field("League", fmt.Sprintf("%s %s", emoji.League(member.League.Name), member.League.Name), true),
	}
	if player != nil {
		embed.Fields = append(embed.Fields,
			field("War Stars", fmt.Sprintf("%s %s", emoji.Star, b.Number(player.WarStars)), true),
			field("Heroes", b.heroLine(*player), false),
		)
		if player.Clan != nil && player.Clan.Name != clanName {
			embed.Fields = append(embed.Fields, field("Clan", player.Clan.Name, true))
		}
	}
	return embed
}

func (b *Builder) MemberLeave(clanName string, member coc.ClanMember) *discordgo.MessageEmbed {
	embed := b.base(
		fmt.Sprintf("%s %s left %s", emoji.Left, member.Name, clanName),
		fmt.Sprintf("[%s](%s)", member.Tag, playerURL(member.Tag)),
		b.colors.Error,
	)
	embed.Fields = []*discordgo.MessageEmbedField{
		field("Town Hall", emoji.TownHall(member.TownHallLevel), true),
		field("Role", fmt.Sprintf("%s %s", emoji.Role(member.Role), member.Role), true),
		field("Donated", fmt.Sprintf("%s %s", emoji.Donated, b.Number(member.Donations)), true),
	}
	return embed
}

// Roster renders one page of a clan's league roster.
func (b *Builder) Roster(clan storage.LeagueClan, players []storage.LeaguePlayer, offset, page, pages int) *discordgo.MessageEmbed {
	state := emoji.Yes + " open"
	if !clan.RosterOpen {
		state = emoji.No + " locked"
	}
	embed := b.Info(fmt.Sprintf("%s roster", clan.Name), fmt.Sprintf("%s • %s", clan.Tag, state))
	if len(players) == 0 {
		embed.Description += "\nNo players assigned yet."
	}
	lines := make([]string, 0, len(players))
	for idx, player := range players {
		lines = append(lines, fmt.Sprintf("`%2d` %s %s %s <@%s>", offset+idx+1, emoji.TownHall(player.TownHall), player.Name, player.Tag, player.DiscordUserID))
	}
	if len(lines) > 0 {
		embed.Fields = []*discordgo.MessageEmbedField{field("Players", joinLines(lines), false)}
	}
	embed.Footer = pageFooter(page, pages)
	return embed
}

// Signups lists registered accounts for the season.
func (b *Builder) Signups(seasonName string, players []storage.LeaguePlayer, deadline string, open bool) *discordgo.MessageEmbed {
	status := fmt.Sprintf("%s Signups open until %s", emoji.Yes, deadline)
	if !open {
		status = emoji.No + " Signups closed"
	}
	embed := b.Info(fmt.Sprintf("%s signups", seasonName), status)
	if len(players) == 0 {
		embed.Fields = []*discordgo.MessageEmbedField{field("Accounts", "No accounts registered.", false)}
		return embed
	}
	lines := make([]string, 0, len(players))
	for _, player := range players {
		line := fmt.Sprintf("%s %s `%s` group %d", emoji.TownHall(player.TownHall), player.Name, player.Tag, player.LeagueGroup)
		if player.RosterClan != "" {
			line += " • " + player.RosterClan
		}
		lines = append(lines, line)
	}
	embed.Fields = []*discordgo.MessageEmbedField{field(fmt.Sprintf("Accounts (%d)", len(players)), joinLines(lines), false)}
	return embed
}
