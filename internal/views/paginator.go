package views

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

const (
	actionFirst = "page:first"
	actionPrev  = "page:prev"
	actionNext  = "page:next"
	actionLast  = "page:last"
	actionPage  = "page:indicator"
	actionClose = "close"
)

// Paginator tracks a page cursor and renders the navigation row.
type Paginator struct {
	page  int
	total int
}

func NewPaginator(total int) *Paginator {
	p := &Paginator{}
	p.SetTotal(total)
	return p
}

func (p *Paginator) Page() int  { return p.page }
func (p *Paginator) Total() int { return p.total }

// SetTotal changes the page count and clamps the cursor.
func (p *Paginator) SetTotal(total int) {
	if total < 1 {
		total = 1
	}
	p.total = total
	p.page = min(max(p.page, 0), total-1)
}

func (p *Paginator) Reset() {
	p.page = 0
}

// Handle moves the cursor; it reports false for actions it does not own.
func (p *Paginator) Handle(action string) bool {
	switch action {
	case actionFirst:
		p.page = 0
	case actionPrev:
		p.page = max(p.page-1, 0)
	case actionNext:
		p.page = min(p.page+1, p.total-1)
	case actionLast:
		p.page = p.total - 1
	case actionPage:
	default:
		return false
	}
	return true
}

func (p *Paginator) Row() discordgo.ActionsRow {
	first := p.page == 0
	last := p.page >= p.total-1
	return row(
		button(actionFirst, "«", discordgo.SecondaryButton, first),
		button(actionPrev, "‹", discordgo.SecondaryButton, first),
		button(actionPage, fmt.Sprintf("%d/%d", p.page+1, p.total), discordgo.SecondaryButton, true),
		button(actionNext, "›", discordgo.SecondaryButton, last),
		button(actionLast, "»", discordgo.SecondaryButton, last),
	)
}

// PageCount returns how many pages of size hold n items.
func PageCount(n, size int) int {
	if size <= 0 || n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// PageBounds returns the slice bounds of page.
func PageBounds(page, size, n int) (start, end int) {
	if size <= 0 {
		return 0, n
	}
	start = min(page*size, n)
	end = min(start+size, n)
	return start, end
}

// Pages is a view over a fixed list of embeds.
type Pages struct {
	embeds    []*discordgo.MessageEmbed
	paginator *Paginator
}

func NewPages(embeds []*discordgo.MessageEmbed) *Pages {
	return &Pages{embeds: embeds, paginator: NewPaginator(len(embeds))}
}

func (p *Pages) Render(context.Context) (Message, error) {
	msg := Message{}
	if len(p.embeds) > 0 {
		msg.Embeds = []*discordgo.MessageEmbed{p.embeds[p.paginator.Page()]}
	}
	components := []discordgo.MessageComponent{}
	if p.paginator.Total() > 1 {
		components = append(components, p.paginator.Row())
	}
	components = append(components, row(button(actionClose, "Close", discordgo.DangerButton, false)))
	msg.Components = components
	return msg, nil
}

func (p *Pages) Handle(_ context.Context, event Event) (Reply, error) {
	if event.Action == actionClose {
		return Close(), nil
	}
	if p.paginator.Handle(event.Action) {
		return Update(), nil
	}
	return Reply{}, fmt.Errorf("unknown action %q", event.Action)
}
