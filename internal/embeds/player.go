package embeds

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"cwl-bot/internal/coc"
	"cwl-bot/internal/emoji"
	"cwl-bot/internal/gamedata"
	"cwl-bot/internal/stats"
)

func (b *Builder) Player(p gamedata.Player) *discordgo.MessageEmbed {
	embed := b.Info(
		fmt.Sprintf("%s %s (%s)", emoji.TownHall(p.TownHallLevel), p.Name, p.Tag),
		fmt.Sprintf("[Open in game](%s)", playerURL(p.Tag)),
	)
	if p.League != nil {
		embed.Thumbnail = thumbnail(p.League.IconURLs.Medium)
	}

	clan := "No clan"
	if p.Clan != nil {
		clan = fmt.Sprintf("%s %s (%s)", emoji.Role(p.Role), p.Clan.Name, p.Clan.Tag)
	}
	warPref := emoji.No + " out"
	if p.OptedIn() {
		warPref = emoji.Yes + " in"
	}

	embed.Fields = []*discordgo.MessageEmbedField{
		field("Clan", clan, false),
		field("Level", fmt.Sprintf("%s %d", emoji.Exp, p.ExpLevel), true),
		field("Trophies", fmt.Sprintf("%s %s (best %s)", emoji.Trophy, b.Number(p.Trophies), b.Number(p.BestTrophies)), true),
		field("War Stars", fmt.Sprintf("%s %s", emoji.Star, b.Number(p.WarStars)), true),
		field("War Preference", warPref, true),
		field("Donations", fmt.Sprintf("%s %s  %s %s", emoji.Donated, b.Number(p.Donations), emoji.Received, b.Number(p.DonationsReceived)), true),
		field("Heroes", b.heroLine(p.Player), false),
	}
	if len(p.PetList) > 0 {
		pets := make([]string, 0, len(p.PetList))
		for _, pet := range p.PetList {
			pets = append(pets, fmt.Sprintf("%s %d", emoji.Pet(pet.Name), pet.Level))
		}
		embed.Fields = append(embed.Fields, field("Pets", strings.Join(pets, "  "), false))
	}
	if len(p.SpellList) > 0 {
		maxed := 0
		for _, spell := range p.SpellList {
			if spell.IsMaxed(p.TownHallLevel) {
				maxed++
			}
		}
		embed.Fields = append(embed.Fields, field("Spells", fmt.Sprintf("%d/%d maxed for %s", maxed, len(p.SpellList), emoji.TownHall(p.TownHallLevel)), false))
	}

	current, limit := p.HeroLevels()
	rush := fmt.Sprintf("%d/%d hero levels", current, limit)
	if p.IsRushed() {
		names := make([]string, 0)
		for _, hero := range p.RushedHeroes() {
			names = append(names, hero.Name)
		}
		rush = fmt.Sprintf("%s rushed (%s), %s", emoji.Rushed, strings.Join(names, ", "), rush)
	}
	embed.Fields = append(embed.Fields, field("Progress", rush, false))
	return embed
}

func (b *Builder) heroLine(player coc.Player) string {
	wrapped := gamedata.NewPlayer(player)
	if len(wrapped.HeroList) == 0 {
		return "No heroes unlocked."
	}
	parts := make([]string, 0, len(wrapped.HeroList))
	for _, hero := range wrapped.HeroList {
		part := fmt.Sprintf("%s %d", emoji.Hero(hero.Name), hero.Level)
		if hero.IsRushed(player.TownHallLevel) {
			part += "*"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "  ")
}

// PlayerStats renders one player's league performance.
func (b *Builder) PlayerStats(seasonName string, p stats.PlayerStats) *discordgo.MessageEmbed {
	embed := b.Info(
		fmt.Sprintf("%s %s (%s)", emoji.TownHall(p.TownHall), p.Name, p.Tag),
		fmt.Sprintf("%s league performance", seasonName),
	)
	embed.Fields = []*discordgo.MessageEmbedField{
		field("Attacks", fmt.Sprintf("%s %d used, %d missed", emoji.Sword, p.Attacks, p.Missed), true),
		field("Stars", fmt.Sprintf("%s %d (%d new)", emoji.Star, p.Stars, p.NewStars), true),
		field("Hit Rate", fmt.Sprintf("%d/%d (%s)", p.Triples, p.Attacks, b.Percent(100*p.HitRate())), true),
		field("Average", fmt.Sprintf("%.2f stars, %s", p.AverageStars(), b.Percent(p.AverageDestruction())), true),
		field("Defense", fmt.Sprintf("%s %d defenses, %d stars conceded", emoji.Shield, p.Defenses, p.StarsConceded), true),
	}
	if matchups := p.MatchupList(); len(matchups) > 0 {
		lines := make([]string, 0, len(matchups))
		for _, m := range matchups {
			lines = append(lines, fmt.Sprintf("%s: %d/%d triples, %d stars", m.Matchup, m.Triples, m.Attacks, m.Stars))
		}
		embed.Fields = append(embed.Fields, field("Matchups", joinLines(lines), false))
	}
	return embed
}

// StatsTable renders a ranking of every player in the clan.
func (b *Builder) StatsTable(title string, rows []stats.PlayerStats, offset, page, pages int) *discordgo.MessageEmbed {
	embed := b.Info(title, "Stars • triples/attacks • average destruction")
	if len(rows) == 0 {
		embed.Description = "No attacks yet."
		return embed
	}
	lines := make([]string, 0, len(rows))
	for idx, row := range rows {
		lines = append(lines, fmt.Sprintf("`%2d` %s %s: %s %d • %d/%d • %s",
			offset+idx+1, emoji.TownHall(row.TownHall), row.Name, emoji.Star, row.Stars, row.Triples, row.Attacks+row.Missed, b.Percent(row.AverageDestruction())))
	}
	embed.Fields = []*discordgo.MessageEmbedField{field("Players", joinLines(lines), false)}
	embed.Footer = pageFooter(page, pages)
	return embed
}
