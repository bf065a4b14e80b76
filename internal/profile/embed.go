package profile

import (
	"errors"
	"fmt"
	"strings"
)

// Markers delimiting the profile snapshot written at the top of each session file.
const (
	SessionOpenMarker       = "=== NEW CHAT SESSION ==="
	ProfileLabel            = "Extracted User Profile:"
	ConversationStartMarker = "=== BEGIN CONVERSATION ==="

	// ConversationSeparator follows each session file when several are
	// concatenated for extraction.
	ConversationSeparator = "\n=== NEXT CONVERSATION ===\n"
)

// ErrNoEmbeddedProfile is returned when text carries no session-open marker.
var ErrNoEmbeddedProfile = errors.New("no embedded profile")

// Embed renders p as the block that opens a session file.
func Embed(p Profile) string {
	return SessionOpenMarker + "\n" + ProfileLabel + "\n" + p.Indented() + "\n" + ConversationStartMarker
}

// ParseEmbedded extracts the profile written by Embed from session text.
func ParseEmbedded(text string) (Profile, error) {
	_, after, found := strings.Cut(text, SessionOpenMarker)
	if !found {
		return Profile{}, ErrNoEmbeddedProfile
	}
	section, _, _ := strings.Cut(after, ConversationStartMarker)
	section = strings.TrimSpace(section)
	section = strings.TrimSpace(strings.TrimPrefix(section, ProfileLabel))

	p, err := Parse(section)
	if err != nil {
		return Profile{}, fmt.Errorf("parsing embedded profile: %w", err)
	}
	return p, nil
}
