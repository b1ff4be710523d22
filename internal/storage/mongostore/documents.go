package mongostore

import (
	"sort"
	"time"

	"cwl-bot/internal/storage"
)

type leagueClanDoc struct {
	ID            string    `bson:"_id"`
	Season        string    `bson:"season"`
	Tag           string    `bson:"tag"`
	Name          string    `bson:"name"`
	Participating bool      `bson:"participating"`
	RosterOpen    bool      `bson:"rosterOpen"`
	League        string    `bson:"league,omitempty"`
	UpdatedAt     time.Time `bson:"updatedAt"`
}

type leaguePlayerDoc struct {
	ID            string    `bson:"_id"`
	Season        string    `bson:"season"`
	Tag           string    `bson:"tag"`
	Name          string    `bson:"name"`
	TownHall      int       `bson:"townHall"`
	DiscordUserID string    `bson:"discordUserId"`
	Registered    bool      `bson:"registered"`
	LeagueGroup   int       `bson:"leagueGroup"`
	RosterClan    string    `bson:"rosterClan"`
	UpdatedAt     time.Time `bson:"updatedAt"`
}

type warBaseDoc struct {
	ID       string    `bson:"_id"`
	TownHall int       `bson:"townHall"`
	Link     string    `bson:"link"`
	Notes    string    `bson:"notes,omitempty"`
	AddedBy  string    `bson:"addedBy"`
	AddedAt  time.Time `bson:"addedAt"`
	Claims   []string  `bson:"claims"`
}

type feedDoc struct {
	ID           string    `bson:"_id"`
	ChannelID    string    `bson:"channelId"`
	GuildID      string    `bson:"guildId"`
	ClanTag      string    `bson:"clanTag"`
	WebhookID    string    `bson:"webhookId"`
	WebhookToken string    `bson:"webhookToken"`
	CreatedAt    time.Time `bson:"createdAt"`
}

func seasonKey(season, tag string) string {
	return season + "/" + tag
}

func feedKey(channelID, clanTag string) string {
	return channelID + "/" + clanTag
}

func leagueClanToDoc(clan storage.LeagueClan) leagueClanDoc {
	return leagueClanDoc{
		ID:            seasonKey(clan.Season, clan.Tag),
		Season:        clan.Season,
		Tag:           clan.Tag,
		Name:          clan.Name,
		Participating: clan.Participating,
		RosterOpen:    clan.RosterOpen,
		League:        clan.League,
		UpdatedAt:     clan.UpdatedAt.UTC(),
	}
}

func (d leagueClanDoc) model() storage.LeagueClan {
	return storage.LeagueClan{
		Season:        d.Season,
		Tag:           d.Tag,
		Name:          d.Name,
		Participating: d.Participating,
		RosterOpen:    d.RosterOpen,
		League:        d.League,
		UpdatedAt:     d.UpdatedAt,
	}
}

func leaguePlayerToDoc(player storage.LeaguePlayer) leaguePlayerDoc {
	return leaguePlayerDoc{
		ID:            seasonKey(player.Season, player.Tag),
		Season:        player.Season,
		Tag:           player.Tag,
		Name:          player.Name,
		TownHall:      player.TownHall,
		DiscordUserID: player.DiscordUserID,
		Registered:    player.Registered,
		LeagueGroup:   player.LeagueGroup,
		RosterClan:    player.RosterClan,
		UpdatedAt:     player.UpdatedAt.UTC(),
	}
}

func (d leaguePlayerDoc) model() storage.LeaguePlayer {
	return storage.LeaguePlayer{
		Season:        d.Season,
		Tag:           d.Tag,
		Name:          d.Name,
		TownHall:      d.TownHall,
		DiscordUserID: d.DiscordUserID,
		Registered:    d.Registered,
		LeagueGroup:   d.LeagueGroup,
		RosterClan:    d.RosterClan,
		UpdatedAt:     d.UpdatedAt,
	}
}

func warBaseToDoc(base storage.WarBase) warBaseDoc {
	claims := base.Claims
	if claims == nil {
		claims = []string{}
	}
	return warBaseDoc{
		ID:       base.ID,
		TownHall: base.TownHall,
		Link:     base.Link,
		Notes:    base.Notes,
		AddedBy:  base.AddedBy,
		AddedAt:  base.AddedAt.UTC(),
		Claims:   claims,
	}
}

func (d warBaseDoc) model() storage.WarBase {
	claims := d.Claims
	if claims == nil {
		claims = []string{}
	}
	return storage.WarBase{
		ID:       d.ID,
		TownHall: d.TownHall,
		Link:     d.Link,
		Notes:    d.Notes,
		AddedBy:  d.AddedBy,
		AddedAt:  d.AddedAt,
		Claims:   claims,
	}
}

func feedToDoc(feed storage.Feed) feedDoc {
	return feedDoc{
		ID:           feedKey(feed.ChannelID, feed.ClanTag),
		ChannelID:    feed.ChannelID,
		GuildID:      feed.GuildID,
		ClanTag:      feed.ClanTag,
		WebhookID:    feed.WebhookID,
		WebhookToken: feed.WebhookToken,
		CreatedAt:    feed.CreatedAt.UTC(),
	}
}

func (d feedDoc) model() storage.Feed {
	return storage.Feed{
		ChannelID:    d.ChannelID,
		GuildID:      d.GuildID,
		ClanTag:      d.ClanTag,
		WebhookID:    d.WebhookID,
		WebhookToken: d.WebhookToken,
		CreatedAt:    d.CreatedAt,
	}
}

// accountsFromDocs keeps the first occurrence of each tag; docs arrive newest first.
func accountsFromDocs(docs []leaguePlayerDoc) []storage.Account {
	seen := make(map[string]struct{}, len(docs))
	var accounts []storage.Account
	for _, doc := range docs {
		if _, ok := seen[doc.Tag]; ok {
			continue
		}
		seen[doc.Tag] = struct{}{}
		accounts = append(accounts, storage.Account{Tag: doc.Tag, Name: doc.Name, TownHall: doc.TownHall})
	}
	return accounts
}

func distinctStrings(values []any) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if s, ok := value.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
