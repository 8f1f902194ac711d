package normalize

import (
	"net/url"
	"strings"

	"github.com/badjoke-lab/cryptopaymap/internal/model"
)

// directoryHosts are hostnames of known crypto-acceptance directories.
var directoryHosts = []string{"btcmap.org", "coinmap.org", "acceptlightning.com"}

// imageExtensions mark evidence URLs that are screenshots or photos.
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".webp", ".gif"}

// EvidenceCollector turns raw URL blocks into typed, deduplicated sources.
type EvidenceCollector struct{}

// NewEvidenceCollector creates a collector.
func NewEvidenceCollector() *EvidenceCollector {
	return &EvidenceCollector{}
}

// Collect parses a newline-separated evidence block. Only absolute http(s)
// URLs survive; everything else is dropped without a reject, because
// evidence is optional while payment facts are not. A declared website is
// always inserted first and tagged official_site.
func (c *EvidenceCollector) Collect(block, website string) []model.Source {
	var sources []model.Source
	seen := make(map[string]bool)

	if site := normalizeURL(website); site != "" {
		seen[site] = true
		sources = append(sources, model.Source{
			Type: model.SourceOfficialSite,
			Name: hostOf(site),
			URL:  site,
		})
	}

	for _, line := range strings.Split(block, "\n") {
		raw := normalizeURL(line)
		if raw == "" || seen[raw] {
			continue
		}
		seen[raw] = true
		sources = append(sources, model.Source{
			Type: classifySource(raw, website),
			Name: hostOf(raw),
			URL:  raw,
		})
	}

	return sources
}

// CollectImages parses a newline-separated gallery block into image URLs.
func (c *EvidenceCollector) CollectImages(block string) []string {
	var images []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(block, "\n") {
		raw := normalizeURL(line)
		if raw == "" || seen[raw] {
			continue
		}
		seen[raw] = true
		images = append(images, raw)
	}
	return images
}

// classifySource infers a source type from hostname and path heuristics,
// defaulting to other.
func classifySource(raw, website string) model.SourceType {
	parsed, err := url.Parse(raw)
	if err != nil {
		return model.SourceOther
	}
	host := strings.ToLower(parsed.Host)
	path := strings.ToLower(parsed.Path)

	if website != "" && host == hostOf(normalizeURL(website)) {
		return model.SourceOfficialSite
	}
	for _, dir := range directoryHosts {
		if host == dir || strings.HasSuffix(host, "."+dir) {
			return model.SourceProviderDirectory
		}
	}
	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) {
			return model.SourceScreenshot
		}
	}
	if strings.Contains(path, "receipt") || strings.Contains(path, "invoice") {
		return model.SourceReceipt
	}
	if strings.Contains(path, "widget") || strings.Contains(host, "widget") {
		return model.SourceWidget
	}
	return model.SourceOther
}

// normalizeURL trims a line and keeps it only if it is an absolute
// http(s) URL.
func normalizeURL(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}
	parsed, err := url.Parse(line)
	if err != nil {
		return ""
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	if parsed.Host == "" {
		return ""
	}
	return parsed.String()
}

func hostOf(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Host)
}
