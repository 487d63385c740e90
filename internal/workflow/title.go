package workflow

import (
	"strings"
	"unicode/utf8"

	"github.com/ghosthub/ghosthub/internal/models"
)

// maxTitleRunes bounds generated draft titles.
const maxTitleRunes = 80

var typeEmoji = map[models.Category]string{
	models.CategoryBug:       "🐛",
	models.CategoryFeature:   "✨",
	models.CategoryPRMention: "🔀",
}

// BuildTitle produces the draft title: an emoji prefix for the type
// followed by the summary's first sentence, truncated to 80 runes.
func BuildTitle(category models.Category, summary string) string {
	sentence := firstSentence(summary)
	if sentence == "" {
		sentence = "Untitled " + string(category) + " report"
	}
	title := typeEmoji[category]
	if title != "" {
		title += " "
	}
	title += sentence
	return truncateRunes(title, maxTitleRunes)
}

// firstSentence returns the text up to the first sentence terminator or
// line break, with any leading Markdown heading markers stripped.
func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "#* ")
	if i := strings.IndexAny(s, "\n"); i >= 0 {
		s = s[:i]
	}
	for i, r := range s {
		if r == '.' || r == '!' || r == '?' {
			// Terminator must end the sentence, not a version number.
			if i+1 >= len(s) || s[i+1] == ' ' {
				return strings.TrimSpace(s[:i+1])
			}
		}
	}
	return strings.TrimSpace(s)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n-3])) + "..."
}

// BuildLabels maps the draft type to its deterministic label set: the type
// label, the ghosthub marker, and the lower-cased platform name.
func BuildLabels(category models.Category, platform string) []string {
	labels := make([]string, 0, 3)
	switch category {
	case models.CategoryBug:
		labels = append(labels, "bug")
	case models.CategoryFeature:
		labels = append(labels, "enhancement")
	case models.CategoryPRMention:
		labels = append(labels, "pr-related")
	}
	labels = append(labels, "ghosthub")
	if platform != "" {
		labels = append(labels, strings.ToLower(platform))
	}
	return labels
}
