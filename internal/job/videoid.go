package job

import "regexp"

// The provider's stable identifiers are fixed-length 11-character tokens.
// Patterns cover the common URL shapes (watch page, short link, embed,
// shorts, live, playlist-item watch links). Unrecognized shapes return
// empty, which simply skips the archive pre-check.
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]{11})(?:[&#]|$)`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})(?:[?&#]|$)`),
	regexp.MustCompile(`/embed/([A-Za-z0-9_-]{11})(?:[?&#]|$)`),
	regexp.MustCompile(`/shorts/([A-Za-z0-9_-]{11})(?:[?&#]|$)`),
	regexp.MustCompile(`/live/([A-Za-z0-9_-]{11})(?:[?&#]|$)`),
}

// ExtractVideoID pulls the stable identifier out of a source URL, or returns
// empty when the shape is not recognized.
func ExtractVideoID(rawURL string) string {
	for _, p := range idPatterns {
		if m := p.FindStringSubmatch(rawURL); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}
