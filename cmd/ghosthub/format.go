package main

// truncate shortens s to maxLen runes, with an ellipsis when cut. Draft
// titles open with an emoji, so cutting on bytes could split a rune.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
