package session

import (
	"strings"
	"time"
)

// roomKeywords are scanned in order; the first one found in the analysis
// text names the session.
var roomKeywords = []string{
	"living room",
	"bedroom",
	"kitchen",
	"bathroom",
	"office",
	"garage",
	"closet",
	"dining room",
	"basement",
	"attic",
}

// autoName derives a display name from the analysis text, falling back to
// a generic dated name when no room type is mentioned.
func autoName(plan string, at time.Time) string {
	date := at.Format("Jan 2, 2006")
	lower := strings.ToLower(plan)
	for _, kw := range roomKeywords {
		if strings.Contains(lower, kw) {
			return titleCase(kw) + " - " + date
		}
	}
	return "Room Analysis - " + date
}

// titleCase uppercases the first letter of each space-separated word.
// Keywords are plain ASCII so a byte-level pass is enough.
func titleCase(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
