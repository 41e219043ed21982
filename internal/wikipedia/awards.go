// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package wikipedia collects award and accolade mentions for a song from
// its Wikipedia article. It fetches the article wikitext through the
// MediaWiki Action API and keeps the bullets, table rows, and prose
// sentences that read like award statements.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/chart-engine/internal/httputil"
	"github.com/pdiddy/chart-engine/pkg/types"
)

// apiBaseURL is a package variable so tests can point the scraper at a
// local server.
var apiBaseURL = "https://en.wikipedia.org/w/api.php"

// awardKeywords marks a line or sentence as award-relevant.
var awardKeywords = []string{
	"award",
	"grammy",
	"accolade",
	"honor",
	"honour",
	"nomination",
	"nominated",
	"won",
	"winning",
	"ranked",
	"ranking",
	"listed",
}

// Scraper fetches article wikitext and extracts award mentions.
type Scraper struct {
	http    *http.Client
	cfg     types.HTTPConfig
	limiter *rate.Limiter
}

// NewScraper returns a scraper using the shared HTTP configuration.
func NewScraper(cfg types.AwardConfig) *Scraper {
	return &Scraper{
		http:    httputil.NewClient(cfg.HTTPConfig),
		cfg:     cfg.HTTPConfig,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Awards returns the award mentions found in the article behind link.
// An article without award-relevant text yields an empty slice, not an
// error.
func (s *Scraper) Awards(ctx context.Context, link string) ([]string, error) {
	title, err := articleTitle(link)
	if err != nil {
		return nil, err
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("action", "parse")
	query.Set("page", title)
	query.Set("prop", "wikitext")
	query.Set("format", "json")
	query.Set("formatversion", "2")

	resp, err := httputil.Get(ctx, s.http, apiBaseURL+"?"+query.Encode(), s.cfg)
	if err != nil {
		return nil, fmt.Errorf("fetching article %q: %w", title, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading action api response for %q: %w", title, err)
	}

	var parsed struct {
		Parse struct {
			Title    string `json:"title"`
			Wikitext string `json:"wikitext"`
		} `json:"parse"`
		Error *struct {
			Code string `json:"code"`
			Info string `json:"info"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing action api response for %q: %w", title, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("action api error for %q: %s", title, parsed.Error.Info)
	}

	return ExtractAwards(parsed.Parse.Wikitext), nil
}

// articleTitle derives the article title from a Wikipedia URL.
func articleTitle(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("parsing article link %q: %w", link, err)
	}
	title := path.Base(u.Path)
	if title == "" || title == "." || title == "/" {
		return "", fmt.Errorf("article link %q has no title", link)
	}
	return title, nil
}

// ExtractAwards scans wikitext for award-relevant bullets, table rows,
// and prose sentences, in that order, deduplicated.
func ExtractAwards(wikitext string) []string {
	seen := make(map[string]bool)
	var awards []string
	add := func(text string) {
		text = strings.TrimSpace(text)
		if text == "" || !relevant(text) || seen[text] {
			return
		}
		seen[text] = true
		awards = append(awards, text)
	}

	var prose []string
	for _, line := range strings.Split(wikitext, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "*"), strings.HasPrefix(trimmed, "#"):
			add(stripMarkup(strings.TrimLeft(trimmed, "*# ")))
		case strings.HasPrefix(trimmed, "|"), strings.HasPrefix(trimmed, "!"):
			row := strings.TrimLeft(trimmed, "|! -")
			row = strings.ReplaceAll(row, "||", " ")
			row = strings.ReplaceAll(row, "!!", " ")
			add(stripMarkup(row))
		case trimmed == "" || strings.HasPrefix(trimmed, "="):
			// Section headings and blank lines separate prose.
		default:
			prose = append(prose, trimmed)
		}
	}

	for _, paragraph := range prose {
		for _, sentence := range splitSentences(stripMarkup(paragraph)) {
			add(sentence)
		}
	}
	return awards
}

func relevant(text string) bool {
	lower := strings.ToLower(text)
	for _, k := range awardKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

var (
	refTagRe   = regexp.MustCompile(`(?s)<ref[^>]*?/>|<ref[^>]*?>.*?</ref>`)
	htmlTagRe  = regexp.MustCompile(`<[^>]+>`)
	templateRe = regexp.MustCompile(`\{\{[^{}]*\}\}`)
	linkRe     = regexp.MustCompile(`\[\[([^\[\]|]*\|)?([^\[\]]*)\]\]`)
	extLinkRe  = regexp.MustCompile(`\[https?://\S+ ([^\]]+)\]`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// stripMarkup reduces wikitext to readable prose. Templates nest, so they
// are removed innermost-first until none remain.
func stripMarkup(text string) string {
	text = refTagRe.ReplaceAllString(text, "")
	for strings.Contains(text, "{{") {
		next := templateRe.ReplaceAllString(text, "")
		if next == text {
			break
		}
		text = next
	}
	text = linkRe.ReplaceAllString(text, "$2")
	text = extLinkRe.ReplaceAllString(text, "$1")
	text = htmlTagRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "'''", "")
	text = strings.ReplaceAll(text, "''", "")
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

// splitSentences breaks prose on sentence-final periods. Good enough for
// keyword filtering; abbreviations may split early, which only shortens a
// candidate sentence.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '.' && text[i] != '!' && text[i] != '?' {
			continue
		}
		if i+1 < len(text) && text[i+1] != ' ' {
			continue
		}
		if s := strings.TrimSpace(text[start : i+1]); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}
