package views

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Prefix marks component custom ids owned by the view manager.
const Prefix = "v:"

// Discord caps select menus at this many options.
const maxSelectOptions = 25

// Message is what a view renders into the interaction's message.
type Message struct {
	Content    string
	Embeds     []*discordgo.MessageEmbed
	Components []discordgo.MessageComponent
}

// Event is one interaction routed to a view.
type Event struct {
	UserID string
	// Action is the custom id with the session prefix removed.
	Action string
	Values []string
	// Fields holds modal text inputs keyed by input id.
	Fields map[string]string
}

func (e Event) Value() string {
	if len(e.Values) == 0 {
		return ""
	}
	return e.Values[0]
}

type ReplyKind int

const (
	// ReplyUpdate re-renders the view into the same message.
	ReplyUpdate ReplyKind = iota
	// ReplyModal opens a modal; its submission comes back as an event.
	ReplyModal
	// ReplyNotice answers with an ephemeral message and leaves the view alone.
	ReplyNotice
	// ReplyClose ends the session and disables the message components.
	ReplyClose
)

type Reply struct {
	Kind   ReplyKind
	Modal  *Modal
	Notice *discordgo.MessageEmbed
}

func Update() Reply { return Reply{Kind: ReplyUpdate} }

func Close() Reply { return Reply{Kind: ReplyClose} }

func Notice(embed *discordgo.MessageEmbed) Reply {
	return Reply{Kind: ReplyNotice, Notice: embed}
}

func OpenModal(modal Modal) Reply {
	return Reply{Kind: ReplyModal, Modal: &modal}
}

type TextInput struct {
	ID          string
	Label       string
	Placeholder string
	MinLength   int
	MaxLength   int
}

type Modal struct {
	Action string
	Title  string
	Inputs []TextInput
}

// Data builds the modal response payload under the session's id prefix.
func (m Modal) Data(prefix string) *discordgo.InteractionResponseData {
	rows := make([]discordgo.MessageComponent, 0, len(m.Inputs))
	for _, input := range m.Inputs {
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:    input.ID,
				Label:       input.Label,
				Style:       discordgo.TextInputShort,
				Placeholder: input.Placeholder,
				Required:    true,
				MinLength:   input.MinLength,
				MaxLength:   input.MaxLength,
			},
		}})
	}
	return &discordgo.InteractionResponseData{
		CustomID:   prefix + m.Action,
		Title:      m.Title,
		Components: rows,
	}
}

// Response is what the bot sends back for a handled interaction.
type Response struct {
	Kind    ReplyKind
	Message Message
	Modal   *discordgo.InteractionResponseData
	Notice  *discordgo.MessageEmbed
}

// IsViewID reports whether the custom id belongs to a view session.
func IsViewID(customID string) bool {
	return strings.HasPrefix(customID, Prefix)
}

func sessionPrefix(sessionID string) string {
	return Prefix + sessionID + ":"
}

// parseCustomID splits "v:<session>:<action>".
func parseCustomID(customID string) (sessionID, action string, ok bool) {
	rest, found := strings.CutPrefix(customID, Prefix)
	if !found {
		return "", "", false
	}
	sessionID, action, found = strings.Cut(rest, ":")
	if !found || sessionID == "" || action == "" {
		return "", "", false
	}
	return sessionID, action, true
}

func button(action, label string, style discordgo.ButtonStyle, disabled bool) discordgo.Button {
	return discordgo.Button{CustomID: action, Label: label, Style: style, Disabled: disabled}
}

func row(components ...discordgo.MessageComponent) discordgo.ActionsRow {
	return discordgo.ActionsRow{Components: components}
}

func selectMenu(action, placeholder string, options []discordgo.SelectMenuOption) discordgo.SelectMenu {
	if len(options) > maxSelectOptions {
		options = options[:maxSelectOptions]
	}
	return discordgo.SelectMenu{
		MenuType:    discordgo.StringSelectMenu,
		CustomID:    action,
		Placeholder: placeholder,
		Options:     options,
		Disabled:    len(options) == 0,
	}
}

// rewriteComponents prefixes every custom id and optionally disables everything.
func rewriteComponents(components []discordgo.MessageComponent, prefix string, disable bool) []discordgo.MessageComponent {
	out := make([]discordgo.MessageComponent, 0, len(components))
	for _, component := range components {
		out = append(out, rewriteComponent(component, prefix, disable))
	}
	return out
}

func rewriteComponent(component discordgo.MessageComponent, prefix string, disable bool) discordgo.MessageComponent {
	switch c := component.(type) {
	case discordgo.ActionsRow:
		c.Components = rewriteComponents(c.Components, prefix, disable)
		return c
	case *discordgo.ActionsRow:
		return rewriteComponent(*c, prefix, disable)
	case discordgo.Button:
		if c.URL == "" && c.CustomID != "" && !strings.HasPrefix(c.CustomID, Prefix) {
			c.CustomID = prefix + c.CustomID
		}
		if disable && c.URL == "" {
			c.Disabled = true
		}
		return c
	case *discordgo.Button:
		return rewriteComponent(*c, prefix, disable)
	case discordgo.SelectMenu:
		if c.CustomID != "" && !strings.HasPrefix(c.CustomID, Prefix) {
			c.CustomID = prefix + c.CustomID
		}
		if disable {
			c.Disabled = true
		}
		return c
	case *discordgo.SelectMenu:
		return rewriteComponent(*c, prefix, disable)
	default:
		return component
	}
}
