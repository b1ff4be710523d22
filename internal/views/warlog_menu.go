package views

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"cwl-bot/internal/coc"
	"cwl-bot/internal/embeds"
)

// warLogFetchLimit bounds how many entries one menu loads.
const warLogFetchLimit = 50

type WarLogger interface {
	WarLog(ctx context.Context, clanTag string, limit int) ([]coc.WarLogEntry, error)
}

// WarLogMenu pages through a clan's war log, fetched on first render.
type WarLogMenu struct {
	api       WarLogger
	builder   *embeds.Builder
	clanTag   string
	clanName  string
	pageSize  int
	entries   []coc.WarLogEntry
	loaded    bool
	loadErr   error
	paginator *Paginator
}

func NewWarLogMenu(api WarLogger, builder *embeds.Builder, clanTag, clanName string, pageSize int) *WarLogMenu {
	if pageSize <= 0 {
		pageSize = 5
	}
	return &WarLogMenu{
		api:       api,
		builder:   builder,
		clanTag:   clanTag,
		clanName:  clanName,
		pageSize:  pageSize,
		paginator: NewPaginator(1),
	}
}

func (w *WarLogMenu) load(ctx context.Context) {
	if w.loaded {
		return
	}
	entries, err := w.api.WarLog(ctx, w.clanTag, warLogFetchLimit)
	w.loadErr = err
	if err != nil {
		if !errors.Is(err, coc.ErrAccessDenied) && !errors.Is(err, coc.ErrNotFound) {
			// Transient failures are retried on the next render.
			return
		}
	}
	w.loaded = true
	w.entries = entries
	w.paginator.SetTotal(PageCount(len(entries), w.pageSize))
}

func (w *WarLogMenu) Render(ctx context.Context) (Message, error) {
	w.load(ctx)
	closeRow := row(button(actionClose, "Close", discordgo.DangerButton, false))
	if w.loadErr != nil && len(w.entries) == 0 {
		return Message{
			Embeds:     []*discordgo.MessageEmbed{w.builder.Error(w.loadErr)},
			Components: []discordgo.MessageComponent{closeRow},
		}, nil
	}

	start, end := PageBounds(w.paginator.Page(), w.pageSize, len(w.entries))
	embed := w.builder.WarLog(w.clanName, w.entries[start:end], w.paginator.Page(), w.paginator.Total())
	components := []discordgo.MessageComponent{}
	if w.paginator.Total() > 1 {
		components = append(components, w.paginator.Row())
	}
	components = append(components, closeRow)
	return Message{Embeds: []*discordgo.MessageEmbed{embed}, Components: components}, nil
}

func (w *WarLogMenu) Handle(_ context.Context, event Event) (Reply, error) {
	if event.Action == actionClose {
		return Close(), nil
	}
	if w.paginator.Handle(event.Action) {
		return Update(), nil
	}
	return Reply{}, fmt.Errorf("unknown action %q", event.Action)
}
