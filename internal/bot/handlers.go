package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"cwl-bot/internal/coc"
	"cwl-bot/internal/embeds"
	"cwl-bot/internal/emoji"
	"cwl-bot/internal/gamedata"
	"cwl-bot/internal/storage"
	"cwl-bot/internal/views"
	"cwl-bot/internal/warbase"
)

// Deferred interaction tokens stay valid for 15 minutes; API work should finish well before.
const interactionTimeout = 2 * time.Minute

const adminOnly = "You need Manage Server or Administrator for this command."

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("interaction handler panic", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	switch interaction.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(ctx, session, interaction)
	case discordgo.InteractionMessageComponent:
		data := interaction.MessageComponentData()
		b.handleView(ctx, session, interaction, data.CustomID, views.Event{Values: data.Values})
	case discordgo.InteractionModalSubmit:
		data := interaction.ModalSubmitData()
		b.handleView(ctx, session, interaction, data.CustomID, views.Event{Fields: modalFields(data.Components)})
	}
}

func (b *Bot) handleCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	data := interaction.ApplicationCommandData()
	b.logger.Debug("command",
		zap.String("command", data.Name),
		zap.String("user_id", userID(interaction)),
		zap.String("guild_id", interaction.GuildID))

	switch data.Name {
	case "cwl":
		b.handleCWL(ctx, session, interaction, data.Options[0])
	case "clan":
		b.handleClan(ctx, session, interaction, optionMap(data.Options))
	case "player":
		b.handlePlayer(ctx, session, interaction, optionMap(data.Options))
	case "war":
		b.handleWar(ctx, session, interaction, optionMap(data.Options))
	case "warlog":
		b.handleWarLog(ctx, session, interaction, optionMap(data.Options))
	case "warbase":
		b.handleWarBase(ctx, session, interaction, data.Options[0])
	case "feed":
		b.handleFeed(ctx, session, interaction, data.Options[0])
	}
}

func (b *Bot) handleView(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, customID string, event views.Event) {
	if !views.IsViewID(customID) {
		return
	}
	event.UserID = userID(interaction)
	resp, err := b.views.Handle(ctx, customID, event)
	switch {
	case err == nil:
		b.respondView(session, interaction, resp)
	case errors.Is(err, views.ErrUnknownSession):
		b.respondEmbed(session, interaction, b.builder.Warning("Menu expired", "Run the command again to open a new one."), true)
	case errors.Is(err, views.ErrNotOwner):
		b.respondEmbed(session, interaction, b.builder.Warning("Not your menu", "Only the user who opened this menu can use it."), true)
	default:
		if !embeds.Known(err) {
			b.logger.Error("view interaction failed", zap.String("custom_id", customID), zap.Error(err))
		}
		b.respondEmbed(session, interaction, b.builder.Error(err), true)
	}
}

func (b *Bot) startView(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, ephemeral bool, view views.View) {
	if !b.deferReply(session, interaction, ephemeral) {
		return
	}
	b.showView(ctx, session, interaction, view)
}

// showView opens a view on an already deferred interaction.
func (b *Bot) showView(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, view views.View) {
	_, msg, err := b.views.Start(ctx, userID(interaction), interaction.AppID, interaction.Token, view)
	if err != nil {
		b.fail(session, interaction, err)
		return
	}
	b.editMessage(session, interaction, msg)
}

func (b *Bot) handleCWL(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	opts := optionMap(sub.Options)
	pageSize := b.cfg.Views.PageSize

	switch sub.Name {
	case "menu":
		b.startView(ctx, session, interaction, true, views.NewLeagueMenu(b.league, b.builder, userID(interaction), pageSize))
		return
	case "roster":
		clanTag := ""
		if opts.stringValue("clan") != "" {
			tag, err := opts.tag("clan")
			if err != nil {
				b.respondEmbed(session, interaction, b.builder.Error(err), true)
				return
			}
			clanTag = tag
		}
		b.startView(ctx, session, interaction, false, views.NewRosterMenu(b.league, b.builder, clanTag, pageSize))
		return
	case "signups":
		if !isAdmin(interaction) {
			b.respondEmbed(session, interaction, b.builder.Warning("Admins only", adminOnly), true)
			return
		}
		if !b.deferReply(session, interaction, true) {
			return
		}
		players, err := b.league.Signups(ctx)
		if err != nil {
			b.fail(session, interaction, err)
			return
		}
		current := b.league.SignupSeason()
		deadline := fmt.Sprintf("<t:%d:f>", b.league.SignupDeadline().Unix())
		pages := signupPages(b.builder, current.String(), deadline, b.league.SignupOpen(), players, pageSize)
		b.showView(ctx, session, interaction, views.NewPages(pages))
		return
	case "stats":
		clanTag, err := opts.tag("clan")
		if err != nil {
			b.respondEmbed(session, interaction, b.builder.Error(err), true)
			return
		}
		if opts.stringValue("player") == "" {
			if !b.deferReply(session, interaction, false) {
				return
			}
			rows, err := b.league.PlayerSeasonStats(ctx, clanTag, nil)
			if err != nil {
				b.fail(session, interaction, err)
				return
			}
			title := fmt.Sprintf("%s league stats • %s", clanTag, b.league.RosterSeason())
			b.showView(ctx, session, interaction, views.NewPages(statsPages(b.builder, title, rows, pageSize)))
			return
		}
	}

	admin := sub.Name == "clan" || sub.Name == "assign"
	ephemeral := admin || sub.Name == "register" || sub.Name == "unregister"
	if admin && !isAdmin(interaction) {
		b.respondEmbed(session, interaction, b.builder.Warning("Admins only", adminOnly), true)
		return
	}
	if !b.deferReply(session, interaction, ephemeral) {
		return
	}

	var (
		list []*discordgo.MessageEmbed
		err  error
	)
	switch sub.Name {
	case "group":
		list, err = b.cwlGroup(ctx, opts)
	case "stats":
		list, err = b.cwlPlayerStats(ctx, opts)
	case "clan":
		list, err = b.cwlClan(ctx, opts)
	case "assign":
		list, err = b.cwlAssign(ctx, opts)
	case "register":
		list, err = b.cwlRegister(ctx, userID(interaction), opts)
	case "unregister":
		list, err = b.cwlUnregister(ctx, userID(interaction), opts)
	default:
		err = fmt.Errorf("unknown subcommand %q", sub.Name)
	}
	if err != nil {
		b.fail(session, interaction, err)
		return
	}
	b.editEmbeds(session, interaction, list...)
}

func (b *Bot) cwlGroup(ctx context.Context, opts options) ([]*discordgo.MessageEmbed, error) {
	clanTag, err := opts.tag("clan")
	if err != nil {
		return nil, err
	}
	group, err := b.league.Group(ctx, clanTag)
	if err != nil {
		return nil, err
	}
	standings, err := b.league.Standings(ctx, clanTag)
	if err != nil {
		return nil, err
	}
	return []*discordgo.MessageEmbed{
		b.builder.LeagueGroup(group, clanTag),
		b.builder.Standings("Standings", standings, clanTag),
	}, nil
}

func (b *Bot) cwlPlayerStats(ctx context.Context, opts options) ([]*discordgo.MessageEmbed, error) {
	clanTag, err := opts.tag("clan")
	if err != nil {
		return nil, err
	}
	playerTag, err := opts.tag("player")
	if err != nil {
		return nil, err
	}
	rows, err := b.league.PlayerSeasonStats(ctx, clanTag, []string{playerTag})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].Wars == 0 {
		return []*discordgo.MessageEmbed{b.builder.Info("No league wars", fmt.Sprintf("%s has not been in a league war for %s.", playerTag, clanTag))}, nil
	}
	return []*discordgo.MessageEmbed{b.builder.PlayerStats(b.league.RosterSeason().String(), rows[0])}, nil
}

func (b *Bot) cwlClan(ctx context.Context, opts options) ([]*discordgo.MessageEmbed, error) {
	clanTag, err := opts.tag("clan")
	if err != nil {
		return nil, err
	}
	participate, setParticipation := opts.boolValue("participate")
	rosterOpen, setRoster := opts.boolValue("roster_open")
	if !setParticipation && !setRoster {
		return []*discordgo.MessageEmbed{b.builder.Warning("Nothing changed", "Set participate or roster_open.")}, nil
	}

	var lines []string
	if setParticipation {
		clan, err := b.league.SetClanParticipation(ctx, clanTag, participate)
		if err != nil {
			return nil, err
		}
		lines = append(lines, fmt.Sprintf("%s %s (%s) %s in %s", yesNo(participate), clan.Name, clan.Tag, participationVerb(participate), b.league.SignupSeason()))
	}
	if setRoster {
		clan, err := b.league.SetRosterOpen(ctx, clanTag, rosterOpen)
		if err != nil {
			return nil, err
		}
		state := "locked"
		if rosterOpen {
			state = "open"
		}
		lines = append(lines, fmt.Sprintf("%s %s roster is %s for %s", yesNo(rosterOpen), clan.Name, state, b.league.RosterSeason()))
	}
	return []*discordgo.MessageEmbed{b.builder.Success("League clan updated", strings.Join(lines, "\n"))}, nil
}

func (b *Bot) cwlAssign(ctx context.Context, opts options) ([]*discordgo.MessageEmbed, error) {
	playerTag, err := opts.tag("player")
	if err != nil {
		return nil, err
	}
	clanTag := ""
	if opts.stringValue("clan") != "" {
		if clanTag, err = opts.tag("clan"); err != nil {
			return nil, err
		}
	}
	player, err := b.league.AssignRoster(ctx, playerTag, clanTag)
	if err != nil {
		return nil, err
	}
	if clanTag == "" {
		return []*discordgo.MessageEmbed{b.builder.Success("Roster updated", fmt.Sprintf("%s was removed from its roster.", player.Name))}, nil
	}
	return []*discordgo.MessageEmbed{b.builder.Success("Roster updated", fmt.Sprintf("%s %s is on the %s roster.", emoji.TownHall(player.TownHall), player.Name, clanTag))}, nil
}

func (b *Bot) cwlRegister(ctx context.Context, user string, opts options) ([]*discordgo.MessageEmbed, error) {
	player, err := b.league.Register(ctx, user, opts.stringValue("player"), opts.intValue("group"))
	if err != nil {
		return nil, err
	}
	return []*discordgo.MessageEmbed{b.builder.Success("Signed up",
		fmt.Sprintf("%s %s is registered for %s in group %d.", emoji.TownHall(player.TownHall), player.Name, b.league.SignupSeason(), player.LeagueGroup))}, nil
}

func (b *Bot) cwlUnregister(ctx context.Context, user string, opts options) ([]*discordgo.MessageEmbed, error) {
	tag, err := opts.tag("player")
	if err != nil {
		return nil, err
	}
	if err := b.league.Unregister(ctx, user, tag); err != nil {
		return nil, err
	}
	return []*discordgo.MessageEmbed{b.builder.Success("Signup withdrawn", fmt.Sprintf("%s is no longer registered for %s.", tag, b.league.SignupSeason()))}, nil
}

func (b *Bot) handleClan(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, opts options) {
	if !b.deferReply(session, interaction, false) {
		return
	}
	tag, err := opts.tag("tag")
	if err != nil {
		b.fail(session, interaction, err)
		return
	}
	clan, err := b.api.Clan(ctx, tag)
	if err != nil {
		b.fail(session, interaction, err)
		return
	}
	b.editEmbeds(session, interaction, b.builder.Clan(clan))
}

func (b *Bot) handlePlayer(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, opts options) {
	if !b.deferReply(session, interaction, false) {
		return
	}
	tag, err := opts.tag("tag")
	if err != nil {
		b.fail(session, interaction, err)
		return
	}
	player, err := b.api.Player(ctx, tag)
	if err != nil {
		b.fail(session, interaction, err)
		return
	}
	b.editEmbeds(session, interaction, b.builder.Player(gamedata.NewPlayer(player)))
}

func (b *Bot) handleWar(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, opts options) {
	if !b.deferReply(session, interaction, false) {
		return
	}
	tag, err := opts.tag("clan")
	if err != nil {
		b.fail(session, interaction, err)
		return
	}
	war, err := b.currentWar(ctx, tag)
	if err != nil {
		b.fail(session, interaction, err)
		return
	}
	b.editEmbeds(session, interaction, b.builder.War(war, tag))
}

// currentWar falls back to the league group while the regular war endpoint reports no war.
func (b *Bot) currentWar(ctx context.Context, clanTag string) (coc.ClanWar, error) {
	war, err := b.api.CurrentWar(ctx, clanTag)
	if err != nil && !errors.Is(err, coc.ErrAccessDenied) {
		return coc.ClanWar{}, err
	}
	if err == nil && war.State != coc.WarStateNotInWar {
		return war, nil
	}

	wars, leagueErr := b.league.ClanWars(ctx, clanTag)
	if leagueErr != nil && !errors.Is(leagueErr, coc.ErrNotFound) {
		b.logger.Debug("league war lookup failed", zap.String("clan", clanTag), zap.Error(leagueErr))
	}
	if leagueWar, ok := pickLeagueWar(wars); ok {
		return leagueWar, nil
	}
	return war, err
}

func (b *Bot) handleWarLog(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, opts options) {
	tag, err := opts.tag("clan")
	if err != nil {
		b.respondEmbed(session, interaction, b.builder.Error(err), true)
		return
	}
	if !b.deferReply(session, interaction, false) {
		return
	}
	clan, err := b.api.Clan(ctx, tag)
	if err != nil {
		b.fail(session, interaction, err)
		return
	}
	if !clan.IsWarLogPublic {
		b.fail(session, interaction, coc.ErrAccessDenied)
		return
	}
	b.showView(ctx, session, interaction, views.NewWarLogMenu(b.api, b.builder, tag, clan.Name, 5))
}

func (b *Bot) handleWarBase(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	opts := optionMap(sub.Options)
	ephemeral := sub.Name == "claim" || sub.Name == "unclaim" || sub.Name == "delete"
	if !b.deferReply(session, interaction, ephemeral) {
		return
	}

	user := userID(interaction)
	id := strings.ToLower(strings.TrimSpace(opts.stringValue("id")))
	var embed *discordgo.MessageEmbed
	switch sub.Name {
	case "add":
		base, err := b.warbases.Add(ctx, opts.stringValue("link"), opts.stringValue("notes"), user)
		if err != nil {
			b.fail(session, interaction, err)
			return
		}
		embed = b.builder.WarBase(base)
	case "show", "claim", "unclaim":
		base, err := b.warBaseAction(ctx, sub.Name, id, user)
		if err != nil {
			b.fail(session, interaction, err)
			return
		}
		embed = b.builder.WarBase(base)
	case "list":
		townHall := opts.intValue("town_hall")
		bases, err := b.warbases.List(ctx, townHall)
		if err != nil {
			b.fail(session, interaction, err)
			return
		}
		embed = b.builder.WarBaseList(townHall, bases)
	case "delete":
		if err := b.warbases.Delete(ctx, id, user, isAdmin(interaction)); err != nil {
			b.fail(session, interaction, err)
			return
		}
		embed = b.builder.Success("Base removed", fmt.Sprintf("Base `%s` was deleted.", id))
	}
	b.editEmbeds(session, interaction, embed)
}

func (b *Bot) warBaseAction(ctx context.Context, action, id, user string) (warbase.Base, error) {
	switch action {
	case "claim":
		return b.warbases.Claim(ctx, id, user)
	case "unclaim":
		return b.warbases.Unclaim(ctx, id, user)
	default:
		return b.warbases.Get(ctx, id)
	}
}

func (b *Bot) handleFeed(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	if interaction.GuildID == "" {
		b.respondEmbed(session, interaction, b.builder.Warning("Servers only", "Feeds can only be added to server channels."), true)
		return
	}
	if !b.deferReply(session, interaction, true) {
		return
	}
	opts := optionMap(sub.Options)
	clanTag, err := opts.tag("clan")
	if err != nil {
		b.fail(session, interaction, err)
		return
	}

	existing, err := b.feeds.ListFeedsByClan(ctx, clanTag)
	if err != nil {
		b.fail(session, interaction, err)
		return
	}
	var current *storage.Feed
	for idx := range existing {
		if existing[idx].ChannelID == interaction.ChannelID {
			current = &existing[idx]
		}
	}

	switch sub.Name {
	case "add":
		clan, err := b.api.Clan(ctx, clanTag)
		if err != nil {
			b.fail(session, interaction, err)
			return
		}
		if current != nil {
			b.editEmbeds(session, interaction, b.builder.Info("Feed exists", fmt.Sprintf("This channel already follows %s.", clan.Name)))
			return
		}
		hook, err := session.WebhookCreate(interaction.ChannelID, b.cfg.Feed.WebhookName, "", discordgo.WithContext(ctx))
		if err != nil {
			b.fail(session, interaction, fmt.Errorf("create webhook: %w", err))
			return
		}
		feed := storage.Feed{
			ChannelID:    interaction.ChannelID,
			GuildID:      interaction.GuildID,
			ClanTag:      clanTag,
			WebhookID:    hook.ID,
			WebhookToken: hook.Token,
		}
		if err := b.feeds.UpsertFeed(ctx, feed); err != nil {
			_ = session.WebhookDelete(hook.ID)
			b.fail(session, interaction, err)
			return
		}
		b.logger.Info("feed added", zap.String("clan", clanTag), zap.String("channel_id", interaction.ChannelID))
		b.editEmbeds(session, interaction, b.builder.Success("Feed added", fmt.Sprintf("Joins and leaves of %s will be posted here.", clan.Name)))
	case "remove":
		if current == nil {
			b.fail(session, interaction, storage.ErrNotFound)
			return
		}
		if err := b.feeds.DeleteFeed(ctx, current.ChannelID, current.ClanTag); err != nil {
			b.fail(session, interaction, err)
			return
		}
		if err := session.WebhookDelete(current.WebhookID); err != nil {
			b.logger.Debug("feed webhook delete failed", zap.String("webhook_id", current.WebhookID), zap.Error(err))
		}
		b.logger.Info("feed removed", zap.String("clan", clanTag), zap.String("channel_id", interaction.ChannelID))
		b.editEmbeds(session, interaction, b.builder.Success("Feed removed", fmt.Sprintf("%s will no longer be posted here.", clanTag)))
	}
}

func yesNo(value bool) string {
	if value {
		return emoji.Yes
	}
	return emoji.No
}

func participationVerb(on bool) string {
	if on {
		return "takes part"
	}
	return "sits out"
}
