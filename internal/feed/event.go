// Package feed watches clans for member movement and posts it to channel webhooks.
package feed

import (
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"cwl-bot/internal/coc"
)

// Topic carries MemberEvent payloads.
const Topic = "clan.members"

type EventKind string

const (
	KindJoin  EventKind = "join"
	KindLeave EventKind = "leave"
)

type MemberEvent struct {
	ID       string         `json:"id"`
	Kind     EventKind      `json:"kind"`
	ClanTag  string         `json:"clan_tag"`
	ClanName string         `json:"clan_name"`
	Member   coc.ClanMember `json:"member"`
	At       time.Time      `json:"at"`
}

// Diff returns join events for members only in after, then leave events for members only in before.
func Diff(clan coc.Clan, before []coc.ClanMember, at time.Time) []MemberEvent {
	previous := lo.KeyBy(before, func(m coc.ClanMember) string { return m.Tag })
	current := lo.KeyBy(clan.MemberList, func(m coc.ClanMember) string { return m.Tag })

	joined := lo.Reject(clan.MemberList, func(m coc.ClanMember, _ int) bool {
		_, ok := previous[m.Tag]
		return ok
	})
	left := lo.Reject(before, func(m coc.ClanMember, _ int) bool {
		_, ok := current[m.Tag]
		return ok
	})

	event := func(kind EventKind) func(coc.ClanMember, int) MemberEvent {
		return func(m coc.ClanMember, _ int) MemberEvent {
			return MemberEvent{ID: uuid.NewString(), Kind: kind, ClanTag: clan.Tag, ClanName: clan.Name, Member: m, At: at}
		}
	}
	return append(lo.Map(joined, event(KindJoin)), lo.Map(left, event(KindLeave))...)
}

func encode(event MemberEvent) (*message.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("clan_tag", event.ClanTag)
	msg.Metadata.Set("kind", string(event.Kind))
	return msg, nil
}

func decode(msg *message.Message) (MemberEvent, error) {
	var event MemberEvent
	err := json.Unmarshal(msg.Payload, &event)
	return event, err
}
