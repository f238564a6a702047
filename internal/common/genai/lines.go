package genai

import (
	"errors"
	"regexp"
	"strings"
)

// minLineLen is the shortest reply line worth keeping; headings and
// fragments fall below it.
const minLineLen = 20

var bulletPrefix = regexp.MustCompile(`^(?:[-*•#]+|\d+[.)])\s*`)

// CleanLine trims whitespace and a leading bullet or list number.
func CleanLine(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimSpace(bulletPrefix.ReplaceAllString(s, ""))
}

// MatchingLines returns up to limit cleaned reply lines that contain one of
// words (case-insensitive) and are longer than 20 but shorter than maxLen bytes.
func MatchingLines(reply string, words []string, maxLen, limit int) []string {
	var out []string
	if limit <= 0 {
		return out
	}
	for _, line := range strings.Split(reply, "\n") {
		s := CleanLine(line)
		if len(s) <= minLineLen || len(s) >= maxLen {
			continue
		}
		lower := strings.ToLower(s)
		for _, w := range words {
			if strings.Contains(lower, w) {
				out = append(out, s)
				break
			}
		}
		if len(out) == limit {
			break
		}
	}
	return out
}

// FirstLine is the first line MatchingLines would return, or "".
func FirstLine(reply string, words []string, maxLen int) string {
	if lines := MatchingLines(reply, words, maxLen, 1); len(lines) > 0 {
		return lines[0]
	}
	return ""
}

// Reason maps a Chat error to the label used on fallback metrics.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrMalformedReply), errors.Is(err, ErrEmptyReply):
		return "malformed_reply"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	}
	return "request_failed"
}
