package domain

import "time"

// DirectMessageTenant is the tenant name assigned to events that arrive
// outside any server/guild context. It is never expected to appear in a
// configured tenant policy, so direct messages are filtered out by default.
const DirectMessageTenant = "Direct Message"

// InboundEvent is one chat event as delivered by a gateway adapter.
// The core treats it as read-only.
type InboundEvent struct {
	ID          string
	Gateway     string // adapter name: discord, telegram, slack
	Tenant      string // server/community display name, or DirectMessageTenant
	ChannelID   string
	ChannelName string
	AuthorID    string
	Author      string // username
	GlobalName  string // display name; falls back to username
	Bot         bool
	Content     string
	Attachments []string // attachment URLs
	Embeds      []string // embed type tags
	Mentions    []string // mentioned usernames
	Kind        string   // gateway-level event subtype (message, command, ...)
	Timestamp   time.Time
}

// Notification is the canonical outbound webhook record. Field names on the
// wire are camelCase; the body is pretty-printed JSON.
//
// FormattedTimestamp is derived by the dispatcher at send time and must
// never be set by the producer.
type Notification struct {
	ID                 string    `json:"id"`
	Type               string    `json:"type"`
	ServerName         string    `json:"serverName"`
	Channel            string    `json:"channel"`
	ChannelID          string    `json:"channelId"`
	Author             string    `json:"author"`
	AuthorID           string    `json:"authorId"`
	GlobalName         string    `json:"globalName"`
	Content            string    `json:"content"`
	Attachments        string    `json:"attachments"`
	Embeds             string    `json:"embeds"`
	Mentions           string    `json:"mentions"`
	Timestamp          time.Time `json:"timestamp"`
	FormattedTimestamp string    `json:"formattedTimestamp"`
}
