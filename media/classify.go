package media

import "regexp"

// Provider tags the origin platform of a source URL.
type Provider string

const (
	ProviderYouTube     Provider = "youtube"
	ProviderInstagram   Provider = "instagram"
	ProviderUnsupported Provider = "unsupported"
)

var (
	instagramPattern = regexp.MustCompile(`^https?://(www\.)?instagram\.com/(reel|p)/([^/?#&]+)`)
	youtubePattern   = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com/(watch\?v=|shorts/)|youtu\.be/)[\w-]+`)
)

// Classify maps a URL to its provider. Total: every input maps to exactly
// one tag, and classifying twice yields the same tag.
func Classify(rawURL string) Provider {
	switch {
	case instagramPattern.MatchString(rawURL):
		return ProviderInstagram
	case youtubePattern.MatchString(rawURL):
		return ProviderYouTube
	default:
		return ProviderUnsupported
	}
}

// Shortcode extracts the Instagram short-code from a reel or post URL.
// Returns the empty string for anything that is not an Instagram URL.
func Shortcode(rawURL string) string {
	m := instagramPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[3]
}
