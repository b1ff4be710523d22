package bot

import (
	"github.com/bwmarrin/discordgo"

	"cwl-bot/internal/coc"
)

type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionMap(list []*discordgo.ApplicationCommandInteractionDataOption) options {
	out := make(options, len(list))
	for _, opt := range list {
		out[opt.Name] = opt
	}
	return out
}

func (o options) stringValue(name string) string {
	if opt, ok := o[name]; ok {
		return opt.StringValue()
	}
	return ""
}

func (o options) intValue(name string) int {
	if opt, ok := o[name]; ok {
		return int(opt.IntValue())
	}
	return 0
}

func (o options) boolValue(name string) (value, ok bool) {
	opt, ok := o[name]
	if !ok {
		return false, false
	}
	return opt.BoolValue(), true
}

// tag normalizes a tag option, rejecting characters the game never uses.
func (o options) tag(name string) (string, error) {
	tag := coc.NormalizeTag(o.stringValue(name))
	if !coc.ValidTag(tag) {
		return "", coc.ErrInvalidTag
	}
	return tag, nil
}

// modalFields flattens submitted text inputs by custom id.
func modalFields(components []discordgo.MessageComponent) map[string]string {
	fields := make(map[string]string)
	for _, component := range components {
		var inner []discordgo.MessageComponent
		switch row := component.(type) {
		case *discordgo.ActionsRow:
			inner = row.Components
		case discordgo.ActionsRow:
			inner = row.Components
		}
		for _, c := range inner {
			switch input := c.(type) {
			case *discordgo.TextInput:
				fields[input.CustomID] = input.Value
			case discordgo.TextInput:
				fields[input.CustomID] = input.Value
			}
		}
	}
	return fields
}
