package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"

	"cwl-bot/internal/coc"
	"cwl-bot/internal/embeds"
	"cwl-bot/internal/stats"
	"cwl-bot/internal/storage"
	"cwl-bot/internal/views"
)

func signupPages(builder *embeds.Builder, seasonName, deadline string, open bool, players []storage.LeaguePlayer, size int) []*discordgo.MessageEmbed {
	chunks := lo.Chunk(players, max(size, 1))
	if len(chunks) == 0 {
		return []*discordgo.MessageEmbed{builder.Signups(seasonName, nil, deadline, open)}
	}
	pages := make([]*discordgo.MessageEmbed, 0, len(chunks))
	for idx, chunk := range chunks {
		embed := builder.Signups(seasonName, chunk, deadline, open)
		if len(chunks) > 1 {
			embed.Footer = &discordgo.MessageEmbedFooter{Text: pageText(idx, len(chunks), len(players))}
		}
		pages = append(pages, embed)
	}
	return pages
}

func statsPages(builder *embeds.Builder, title string, rows []stats.PlayerStats, size int) []*discordgo.MessageEmbed {
	size = max(size, 1)
	total := views.PageCount(len(rows), size)
	pages := make([]*discordgo.MessageEmbed, 0, total)
	for page := range total {
		start, end := views.PageBounds(page, size, len(rows))
		pages = append(pages, builder.StatsTable(title, rows[start:end], start, page, total))
	}
	return pages
}

func pageText(page, pages, items int) string {
	return fmt.Sprintf("Page %d/%d • %d accounts", page+1, pages, items)
}

// pickLeagueWar prefers the war being fought, then the one in preparation, then the latest round.
func pickLeagueWar(wars []coc.ClanWar) (coc.ClanWar, bool) {
	if len(wars) == 0 {
		return coc.ClanWar{}, false
	}
	for _, state := range []string{coc.WarStateInWar, coc.WarStatePreparation} {
		if war, ok := lo.Find(wars, func(w coc.ClanWar) bool { return w.State == state }); ok {
			return war, true
		}
	}
	return lo.MaxBy(wars, func(a, b coc.ClanWar) bool { return a.Round > b.Round }), true
}
