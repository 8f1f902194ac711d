package liveness

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	"github.com/badjoke-lab/cryptopaymap/internal/model"
)

// maxTitleBytes bounds how much of a page is read for the title sniff.
const maxTitleBytes = 64 * 1024

// Title fetches a page and returns its <title> text, used to label sources
// submitted as bare URLs.
func (c *Checker) Title(ctx context.Context, rawURL string) (string, error) {
	if err := c.limiter.Wait(ctx, rawURL); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch page: status %d", resp.StatusCode)
	}

	return extractTitle(io.LimitReader(resp.Body, maxTitleBytes))
}

func extractTitle(r io.Reader) (string, error) {
	tokenizer := html.NewTokenizer(r)
	inTitle := false
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return "", nil
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == "title" {
				inTitle = true
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == "title" {
				return "", nil
			}
		case html.TextToken:
			if inTitle {
				title := strings.TrimSpace(string(tokenizer.Text()))
				if title != "" {
					return title, nil
				}
			}
		}
	}
}

// NameSources fills in missing names on sourced URLs using page titles.
// Failures are skipped; a source keeps working without a name.
func (c *Checker) NameSources(ctx context.Context, sources []model.Source) {
	for i := range sources {
		if sources[i].Name != "" || sources[i].URL == "" {
			continue
		}
		title, err := c.Title(ctx, sources[i].URL)
		if err != nil || title == "" {
			continue
		}
		sources[i].Name = title
	}
}
