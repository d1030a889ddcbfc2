package parser

import (
	"strings"

	"relaybot/internal/domain"
)

// Normalize converts a raw inbound event into the canonical notification
// record under a category's rules. It is a pure function: no I/O, no shared
// state. FormattedTimestamp stays empty here; the dispatcher derives it at
// send time.
func Normalize(ev domain.InboundEvent, rules Rules) domain.Notification {
	n := domain.Notification{
		ID:          ev.ID,
		Type:        baseType(ev, rules),
		ServerName:  ev.Tenant,
		Channel:     ev.ChannelName,
		ChannelID:   ev.ChannelID,
		Author:      ev.Author,
		AuthorID:    ev.AuthorID,
		GlobalName:  displayName(ev),
		Content:     ev.Content,
		Attachments: strings.Join(ev.Attachments, ", "),
		Embeds:      strings.Join(ev.Embeds, ", "),
		Mentions:    strings.Join(ev.Mentions, ", "),
		Timestamp:   ev.Timestamp.UTC(),
	}

	if rules.Rewrite != nil {
		if typ, content, ok := rules.Rewrite(ev.Content); ok {
			n.Type = typ
			n.Content = content
		} else if rules.FallbackType != "" {
			n.Type = rules.FallbackType
		}
	}

	return n
}

func baseType(ev domain.InboundEvent, rules Rules) string {
	if ev.Kind != "" {
		return ev.Kind
	}
	return rules.Category
}

func displayName(ev domain.InboundEvent) string {
	if ev.GlobalName != "" {
		return ev.GlobalName
	}
	return ev.Author
}
