package normalize

import (
	"strings"

	"github.com/badjoke-lab/cryptopaymap/internal/model"
)

// handleHosts expands "@handle" shorthand for known platforms.
var handleHosts = map[string]string{
	"twitter":   "https://x.com/",
	"x":         "https://x.com/",
	"instagram": "https://instagram.com/",
	"facebook":  "https://facebook.com/",
	"telegram":  "https://t.me/",
	"tiktok":    "https://tiktok.com/@",
	"nostr":     "https://njump.me/",
}

// ParseSocials parses "<platform> <url|@handle>" lines into socials,
// deduplicated by platform keeping the first occurrence. Lines that carry
// neither a URL nor an expandable handle are dropped; socials are optional.
func ParseSocials(block string) []model.Social {
	var socials []model.Social
	seen := make(map[string]bool)

	for _, line := range strings.Split(block, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 2 {
			continue
		}
		platform := strings.ToLower(fields[0])
		if seen[platform] {
			continue
		}

		target := fields[1]
		var link string
		switch {
		case strings.HasPrefix(target, "@"):
			host, known := handleHosts[platform]
			if !known {
				continue
			}
			link = host + strings.TrimPrefix(target, "@")
		default:
			link = normalizeURL(target)
			if link == "" {
				continue
			}
		}

		seen[platform] = true
		socials = append(socials, model.Social{Platform: platform, URL: link})
	}

	return socials
}
