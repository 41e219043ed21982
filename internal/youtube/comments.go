// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package youtube

import (
	"context"
	"strconv"
	"strings"

	"github.com/pdiddy/chart-engine/pkg/types"
)

// Comments fetches up to max top-level comments for a video, in the order
// YouTube returns them. The watch page's /next response carries a
// continuation token for the comment section; each continuation page
// delivers comment entities plus the token for the following page.
func (c *Client) Comments(ctx context.Context, videoID string, max int) ([]types.Comment, error) {
	if max <= 0 {
		return nil, nil
	}

	data, err := c.post(ctx, "next", map[string]any{"videoId": videoID})
	if err != nil {
		return nil, err
	}
	token := commentSectionToken(data)

	var out []types.Comment
	position := 1
	for token != "" && len(out) < max {
		page, err := c.post(ctx, "next", map[string]any{"continuation": token})
		if err != nil {
			// Keep whatever already arrived rather than losing the page.
			if len(out) > 0 {
				return out, nil
			}
			return nil, err
		}

		comments := parseComments(page, &position)
		if len(comments) == 0 {
			break
		}
		out = append(out, comments...)

		next := continuationToken(page)
		if next == token {
			break
		}
		token = next
	}

	if len(out) > max {
		out = out[:max]
	}
	return out, nil
}

// commentSectionToken finds the continuation token that loads the comment
// section of a watch page. The section is tagged comment-item-section; if
// the tag is absent (layout change) the first continuation anywhere is
// used instead.
func commentSectionToken(data map[string]any) string {
	for _, section := range findObjects(data, "itemSectionRenderer") {
		if id, _ := section["sectionIdentifier"].(string); id != "comment-item-section" {
			continue
		}
		if token := continuationToken(section); token != "" {
			return token
		}
	}
	return continuationToken(data)
}

// continuationToken returns the first continuation token in the tree.
func continuationToken(node any) string {
	var token string
	walk(node, func(m map[string]any) {
		if token != "" {
			return
		}
		if cmd, ok := m["continuationCommand"].(map[string]any); ok {
			if t, ok := cmd["token"].(string); ok {
				token = t
			}
		}
	})
	return token
}

// parseComments extracts comment entities from a continuation page.
// Comments arrive as commentEntityPayload mutations in the framework
// update batch.
func parseComments(page map[string]any, position *int) []types.Comment {
	var out []types.Comment
	for _, payload := range findObjects(page, "commentEntityPayload") {
		id := stringAt(payload, "properties", "commentId")
		if id == "" {
			continue
		}
		out = append(out, types.Comment{
			CommentID:   id,
			Text:        stringAt(payload, "properties", "content", "content"),
			PublishedAt: stringAt(payload, "properties", "publishedTime"),
			Author:      stringAt(payload, "author", "displayName"),
			LikeCount:   parseCount(stringAt(payload, "toolbar", "likeCountNotliked")),
			Position:    *position,
		})
		*position++
	}
	return out
}

// parseCount turns YouTube's abbreviated counters ("1.2K", "3M") into
// integers. Unparseable values count as zero.
func parseCount(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "K"), strings.HasSuffix(s, "k"):
		multiplier = 1e3
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "M"), strings.HasSuffix(s, "m"):
		multiplier = 1e6
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "B"), strings.HasSuffix(s, "b"):
		multiplier = 1e9
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return int(n * multiplier)
}
