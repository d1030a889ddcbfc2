package parser

import "strings"

// Spotify share-link prefixes recognized by the Spotify category. Only
// track and album links are rewritten to URI form; playlist and artist
// links fall through to the request tag.
const (
	SpotifyTrackPrefix    = "https://open.spotify.com/track/"
	SpotifyAlbumPrefix    = "https://open.spotify.com/album/"
	SpotifyPlaylistPrefix = "https://open.spotify.com/playlist/"
	SpotifyArtistPrefix   = "https://open.spotify.com/artist/"
)

// Notification type tags.
const (
	TypeDefault        = "Default"
	TypeSpotifyTrack   = "SpotifyTrack"
	TypeSpotifyAlbum   = "SpotifyAlbum"
	TypeSpotifyRequest = "SpotifyRequest"
	TypeCoinAthUpdate  = "CoinAthUpdate"
)

// RewriteFunc inspects a message body and optionally replaces the
// notification type and content. ok=false leaves the body untouched.
type RewriteFunc func(body string) (typ, content string, ok bool)

// Rules is one category's normalization rule set. A category with a nil
// Rewrite copies content through and types the notification by the event's
// gateway-level kind (falling back to the category name).
type Rules struct {
	Category string
	// FallbackType replaces the default type when Rewrite matched nothing.
	// Only meaningful for categories that have a Rewrite.
	FallbackType string
	Rewrite      RewriteFunc
}

// RulesFor returns the rule set for a configured category name. Unknown
// categories behave like the default category under their own name.
func RulesFor(category string) Rules {
	if category == "Spotify" {
		return Rules{
			Category:     "Spotify",
			FallbackType: TypeSpotifyRequest,
			Rewrite:      rewriteSpotify,
		}
	}
	return Rules{Category: category}
}

// rewriteSpotify turns a share URL into the canonical spotify URI form:
// track links become "spotify:track:<id>", album links "spotify:album:<id>".
func rewriteSpotify(body string) (string, string, bool) {
	if id, ok := sliceID(body, SpotifyTrackPrefix); ok {
		return TypeSpotifyTrack, "spotify:track:" + id, true
	}
	if id, ok := sliceID(body, SpotifyAlbumPrefix); ok {
		return TypeSpotifyAlbum, "spotify:album:" + id, true
	}
	return "", "", false
}

// sliceID extracts the resource id that follows prefix in body, stopping at
// the first query string, fragment, path separator, or whitespace.
func sliceID(body, prefix string) (string, bool) {
	idx := strings.Index(body, prefix)
	if idx < 0 {
		return "", false
	}
	rest := body[idx+len(prefix):]
	end := strings.IndexFunc(rest, func(r rune) bool {
		switch r {
		case '?', '#', '&', '/', ' ', '\t', '\n', '\r':
			return true
		}
		return false
	})
	if end >= 0 {
		rest = rest[:end]
	}
	if rest == "" {
		return "", false
	}
	return rest, true
}
