// Package embeds renders game data as Discord embeds. Builders never do I/O.
package embeds

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"cwl-bot/internal/coc"
	"cwl-bot/internal/league"
	"cwl-bot/internal/storage"
	"cwl-bot/internal/warbase"
)

const (
	footerText = "CWL Bot"
	// Discord rejects field values longer than this.
	maxFieldValue = 1024
	maxFields     = 25
)

type Colors struct {
	Default int
	Success int
	Warning int
	Error   int
}

type Builder struct {
	colors  Colors
	printer *message.Printer
	now     func() time.Time
}

func NewBuilder(colors Colors) *Builder {
	return &Builder{
		colors:  colors,
		printer: message.NewPrinter(language.English),
		now:     time.Now,
	}
}

func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Number formats n with thousands separators.
func (b *Builder) Number(n int) string {
	return b.printer.Sprintf("%d", n)
}

func (b *Builder) Percent(value float64) string {
	return b.printer.Sprintf("%.1f%%", value)
}

func (b *Builder) base(title, description string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Footer:      &discordgo.MessageEmbedFooter{Text: footerText},
		Timestamp:   b.now().UTC().Format(time.RFC3339),
	}
}

func (b *Builder) Info(title, description string) *discordgo.MessageEmbed {
	return b.base(title, description, b.colors.Default)
}

func (b *Builder) Success(title, description string) *discordgo.MessageEmbed {
	return b.base(title, description, b.colors.Success)
}

func (b *Builder) Warning(title, description string) *discordgo.MessageEmbed {
	return b.base(title, description, b.colors.Warning)
}

// Error renders err with a message users can act on.
func (b *Builder) Error(err error) *discordgo.MessageEmbed {
	return b.base("Something went wrong", ErrorMessage(err), b.colors.Error)
}

// ErrorMessage maps known errors to user-facing text.
func ErrorMessage(err error) string {
	switch {
	case err == nil:
		return "Unknown error."
	case errors.Is(err, coc.ErrInvalidTag):
		return "That does not look like a valid tag."
	case errors.Is(err, coc.ErrNotFound):
		return "Nothing was found for that tag. Clans outside the league have no league group."
	case errors.Is(err, coc.ErrAccessDenied):
		return "The clan's war log is private."
	case errors.Is(err, coc.ErrMaintenance):
		return "The game is under maintenance. Try again later."
	case errors.Is(err, coc.ErrThrottled):
		return "Too many requests right now. Try again in a moment."
	case errors.Is(err, league.ErrSignupClosed):
		return "Signups for this season are closed."
	case errors.Is(err, league.ErrAlreadyRegistered):
		return "That account is already registered."
	case errors.Is(err, league.ErrNotRegistered):
		return "That account is not registered."
	case errors.Is(err, league.ErrTownHallTooLow):
		return "That account's town hall is too low for the league."
	case errors.Is(err, league.ErrTooManyAccounts):
		return "You have registered the maximum number of accounts."
	case errors.Is(err, league.ErrRosterLocked):
		return "The roster for that account is locked. Ask an admin."
	case errors.Is(err, league.ErrNotOwner), errors.Is(err, warbase.ErrNotOwner):
		return "That belongs to another user."
	case errors.Is(err, league.ErrInvalidGroup):
		return fmt.Sprintf("League group must be between %d and %d.", league.MinGroup, league.MaxGroup)
	case errors.Is(err, league.ErrClanNotParticipating):
		return "That clan is not taking part in the league."
	case errors.Is(err, warbase.ErrInvalidLink):
		return "That is not a base layout link."
	case errors.Is(err, storage.ErrNotFound):
		return "Not found."
	default:
		return unexpectedMessage
	}
}

const unexpectedMessage = "Unexpected error. It has been logged."

// Known reports whether err has a user-facing message.
func Known(err error) bool {
	return err != nil && ErrorMessage(err) != unexpectedMessage
}

func field(name, value string, inline bool) *discordgo.MessageEmbedField {
	if value == "" {
		value = "-"
	}
	return &discordgo.MessageEmbedField{Name: name, Value: truncate(value, maxFieldValue), Inline: inline}
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}

// joinLines joins lines until the field limit is reached, keeping room for the overflow note.
func joinLines(lines []string) string {
	var sb strings.Builder
	for idx, line := range lines {
		need := sb.Len() + len(line)
		if idx > 0 {
			need++
		}
		if rest := len(lines) - idx - 1; rest > 0 {
			need += 1 + len(moreLines(rest))
		}
		if need > maxFieldValue {
			if idx > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(moreLines(len(lines) - idx))
			break
		}
		if idx > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(line)
	}
	return sb.String()
}

func moreLines(n int) string {
	return fmt.Sprintf("… and %d more", n)
}

func pageFooter(page, pages int) *discordgo.MessageEmbedFooter {
	if pages <= 1 {
		return &discordgo.MessageEmbedFooter{Text: footerText}
	}
	return &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%s • Page %d/%d", footerText, page+1, pages)}
}

func thumbnail(url string) *discordgo.MessageEmbedThumbnail {
	if url == "" {
		return nil
	}
	return &discordgo.MessageEmbedThumbnail{URL: url}
}

func mention(userID string) string {
	return "<@" + userID + ">"
}
