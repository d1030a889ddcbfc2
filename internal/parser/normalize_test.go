package parser

import (
	"testing"
	"time"

	"relaybot/internal/domain"
)

func sampleEvent() domain.InboundEvent {
	return domain.InboundEvent{
		ID:          "111222333",
		Gateway:     "discord",
		Tenant:      "Acme",
		ChannelID:   "5",
		ChannelName: "general",
		AuthorID:    "42",
		Author:      "jdoe",
		GlobalName:  "John Doe",
		Content:     "hello",
		Attachments: []string{"https://cdn.example.com/a.png", "https://cdn.example.com/b.png"},
		Embeds:      []string{"link"},
		Mentions:    []string{"alice", "bob"},
		Kind:        "Default",
		Timestamp:   time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
	}
}

func TestNormalizeDefault(t *testing.T) {
	n := Normalize(sampleEvent(), RulesFor("Default"))

	if n.Type != "Default" {
		t.Errorf("expected type Default, got %s", n.Type)
	}
	if n.Content != "hello" {
		t.Errorf("content must pass through, got %q", n.Content)
	}
	if n.ServerName != "Acme" || n.Channel != "general" || n.ChannelID != "5" {
		t.Errorf("tenant/channel fields wrong: %+v", n)
	}
	if n.Attachments != "https://cdn.example.com/a.png, https://cdn.example.com/b.png" {
		t.Errorf("attachments join wrong: %q", n.Attachments)
	}
	if n.Mentions != "alice, bob" {
		t.Errorf("mentions join wrong: %q", n.Mentions)
	}
	if n.FormattedTimestamp != "" {
		t.Error("formattedTimestamp must not be set by the normalizer")
	}
}

func TestNormalizeSpotifyTrack(t *testing.T) {
	ev := sampleEvent()
	ev.Content = "check this out https://open.spotify.com/track/abc123"

	n := Normalize(ev, RulesFor("Spotify"))

	if n.Type != TypeSpotifyTrack {
		t.Errorf("expected SpotifyTrack, got %s", n.Type)
	}
	if n.Content != "spotify:track:abc123" {
		t.Errorf("expected spotify:track:abc123, got %q", n.Content)
	}
}

func TestNormalizeSpotifyTrackWithQuery(t *testing.T) {
	ev := sampleEvent()
	ev.Content = "https://open.spotify.com/track/abc123?si=xyz listen!"

	n := Normalize(ev, RulesFor("Spotify"))

	if n.Content != "spotify:track:abc123" {
		t.Errorf("query string must be stripped, got %q", n.Content)
	}
}

func TestNormalizeSpotifyAlbum(t *testing.T) {
	ev := sampleEvent()
	ev.Content = "https://open.spotify.com/album/xyz789"

	n := Normalize(ev, RulesFor("Spotify"))

	if n.Type != TypeSpotifyAlbum {
		t.Errorf("expected SpotifyAlbum, got %s", n.Type)
	}
	if n.Content != "spotify:album:xyz789" {
		t.Errorf("expected spotify:album:xyz789, got %q", n.Content)
	}
}

func TestNormalizeSpotifyFallback(t *testing.T) {
	ev := sampleEvent()
	ev.Content = "play something good"

	n := Normalize(ev, RulesFor("Spotify"))

	if n.Type != TypeSpotifyRequest {
		t.Errorf("expected request fallback tag, got %s", n.Type)
	}
	if n.Content != "play something good" {
		t.Errorf("content must pass through unchanged, got %q", n.Content)
	}
}

func TestNormalizeSpotifyPlaylistFallsThrough(t *testing.T) {
	ev := sampleEvent()
	ev.Content = "https://open.spotify.com/playlist/pl123"

	n := Normalize(ev, RulesFor("Spotify"))

	if n.Type != TypeSpotifyRequest {
		t.Errorf("playlist links are not rewritten, got %s", n.Type)
	}
	if n.Content != ev.Content {
		t.Errorf("content must pass through unchanged, got %q", n.Content)
	}
}

func TestNormalizeGlobalNameFallback(t *testing.T) {
	ev := sampleEvent()
	ev.GlobalName = ""

	n := Normalize(ev, RulesFor("Default"))

	if n.GlobalName != "jdoe" {
		t.Errorf("display name must fall back to username, got %q", n.GlobalName)
	}
}

func TestNormalizeKindOverridesCategory(t *testing.T) {
	ev := sampleEvent()
	ev.Kind = "VerboseCommand"

	n := Normalize(ev, RulesFor("Default"))

	if n.Type != "VerboseCommand" {
		t.Errorf("event kind must win for the default category, got %s", n.Type)
	}
}

func TestSliceID(t *testing.T) {
	tests := []struct {
		body string
		want string
		ok   bool
	}{
		{"https://open.spotify.com/track/abc123", "abc123", true},
		{"before https://open.spotify.com/track/abc123 after", "abc123", true},
		{"https://open.spotify.com/track/abc123?si=z", "abc123", true},
		{"https://open.spotify.com/track/", "", false},
		{"no link here", "", false},
	}
	for _, tc := range tests {
		got, ok := sliceID(tc.body, SpotifyTrackPrefix)
		if got != tc.want || ok != tc.ok {
			t.Errorf("sliceID(%q) = %q, %v; want %q, %v", tc.body, got, ok, tc.want, tc.ok)
		}
	}
}
