package embeds

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"cwl-bot/internal/coc"
	"cwl-bot/internal/emoji"
	"cwl-bot/internal/stats"
)

var warStateLabels = map[string]string{
	coc.WarStateNotInWar:    "Not in war",
	coc.WarStatePreparation: "Preparation day",
	coc.WarStateInWar:       "Battle day",
	coc.WarStateEnded:       "War ended",
}

// War renders the war from clanTag's side.
func (b *Builder) War(war coc.ClanWar, clanTag string) *discordgo.MessageEmbed {
	if war.State == coc.WarStateNotInWar {
		return b.Info("Not in war", "The clan is not in a war right now.")
	}
	clan, opponent, ok := war.Side(clanTag)
	if !ok {
		clan, opponent = war.Clan, war.Opponent
	}

	title := fmt.Sprintf("%s vs %s", clan.Name, opponent.Name)
	if war.Round >= 0 && war.IsLeagueWar() {
		title = fmt.Sprintf("Round %d: %s", war.Round+1, title)
	}
	description := warStateLabels[war.State]
	switch war.State {
	case coc.WarStatePreparation:
		description += fmt.Sprintf(" • battle starts <t:%d:R>", war.StartTime.Unix())
	case coc.WarStateInWar:
		description += fmt.Sprintf(" • ends <t:%d:R>", war.EndTime.Unix())
	case coc.WarStateEnded:
		description += " • " + emoji.WarResult(war.Result(clan.Tag))
	}

	color := b.colors.Default
	switch war.Result(clan.Tag) {
	case coc.WarResultWin:
		color = b.colors.Success
	case coc.WarResultLose:
		color = b.colors.Error
	}
	embed := b.base(title, description, color)
	embed.Thumbnail = thumbnail(opponent.BadgeURLs.Medium)

	available := war.TeamSize * war.AttacksAllowed()
	embed.Fields = []*discordgo.MessageEmbedField{
		field(clan.Name, b.warSide(clan, available), true),
		field(opponent.Name, b.warSide(opponent, available), true),
	}
	if remaining := remainingAttacks(clan, war.AttacksAllowed()); war.State == coc.WarStateInWar && len(remaining) > 0 {
		embed.Fields = append(embed.Fields, field("Remaining Attacks", joinLines(remaining), false))
	}
	return embed
}

func (b *Builder) warSide(clan coc.WarClan, available int) string {
	return fmt.Sprintf("%s %d\n%s %s\n%s %d/%d", emoji.Star, clan.Stars, emoji.Destruction, b.Percent(clan.DestructionPercentage), emoji.Sword, clan.Attacks, available)
}

func remainingAttacks(clan coc.WarClan, allowed int) []string {
	var lines []string
	for _, member := range clan.Members {
		if left := allowed - len(member.Attacks); left > 0 {
			lines = append(lines, fmt.Sprintf("`%2d` %s %s (%d)", member.MapPosition, emoji.TownHall(member.TownHallLevel), member.Name, left))
		}
	}
	return lines
}

// WarLog renders one page of war log entries.
func (b *Builder) WarLog(clanName string, entries []coc.WarLogEntry, page, pages int) *discordgo.MessageEmbed {
	embed := b.Info(clanName+" war log", "")
	if len(entries) == 0 {
		embed.Description = "No wars logged."
		return embed
	}
	for _, entry := range entries {
		if len(embed.Fields) == maxFields {
			break
		}
		name := fmt.Sprintf("%s vs %s", emoji.WarResult(entry.Result), entry.Opponent.Name)
		if entry.IsLeagueEntry() {
			name = "League season"
		}
		value := fmt.Sprintf("%s %d - %d • %s - %s • %dv%d",
			emoji.Star, entry.Clan.Stars, entry.Opponent.Stars,
			b.Percent(entry.Clan.DestructionPercentage), b.Percent(entry.Opponent.DestructionPercentage),
			entry.TeamSize, entry.TeamSize)
		if !entry.EndTime.IsZero() {
			value += fmt.Sprintf(" • <t:%d:d>", entry.EndTime.Unix())
		}
		embed.Fields = append(embed.Fields, field(name, value, false))
	}
	embed.Footer = pageFooter(page, pages)
	return embed
}

// LeagueGroup lists the group's clans and the rounds drawn so far.
func (b *Builder) LeagueGroup(group coc.LeagueGroup, clanTag string) *discordgo.MessageEmbed {
	embed := b.Info(fmt.Sprintf("League group %s", group.Season), leagueStateLabel(group.State))
	lines := make([]string, 0, len(group.Clans))
	for _, clan := range group.Clans {
		name := clan.Name
		if clan.Tag == clanTag {
			name = "**" + name + "**"
		}
		lines = append(lines, fmt.Sprintf("%s %s (%d members)", name, clan.Tag, len(clan.Members)))
	}
	embed.Fields = []*discordgo.MessageEmbedField{field("Clans", joinLines(lines), false)}

	drawn := 0
	for _, round := range group.Rounds {
		if len(round.Scheduled()) > 0 {
			drawn++
		}
	}
	embed.Fields = append(embed.Fields, field("Rounds", fmt.Sprintf("%d/%d drawn", drawn, len(group.Rounds)), true))
	return embed
}

func leagueStateLabel(state string) string {
	switch state {
	case coc.LeagueStatePreparation:
		return "Preparation"
	case coc.LeagueStateInWar:
		return "In war"
	case coc.LeagueStateEnded:
		return "Ended"
	default:
		return state
	}
}

// Standings renders the group table; the highlighted clan is bold.
func (b *Builder) Standings(title string, rows []stats.Standing, highlight string) *discordgo.MessageEmbed {
	embed := b.Info(title, "")
	if len(rows) == 0 {
		embed.Description = "No standings yet."
		return embed
	}
	var sb strings.Builder
	for _, row := range rows {
		name := row.Name
		if row.Tag == highlight {
			name = "**" + name + "**"
		}
		fmt.Fprintf(&sb, "`%d.` %s %s %d • %s • %d-%d-%d\n",
			row.Rank, name, emoji.Star, row.Score(), b.Percent(row.Destruction), row.Wins, row.Losses, row.Ties)
	}
	embed.Description = strings.TrimSuffix(sb.String(), "\n")
	return embed
}
