package vision

import "strings"

// ParseResponse splits the model's three-section reply. A section absent
// from the response yields an empty value, never an error.
func ParseResponse(raw string) Result {
	res := Result{RawResponse: raw}

	var section string
	var text, context []string
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		upper := strings.ToUpper(trimmed)
		switch {
		case strings.HasPrefix(upper, "ERROR:"):
			section = "error"
			trimmed = strings.TrimSpace(trimmed[len("ERROR:"):])
		case strings.HasPrefix(upper, "TEXT:"):
			section = "text"
			trimmed = strings.TrimSpace(trimmed[len("TEXT:"):])
		case strings.HasPrefix(upper, "CONTEXT:"):
			section = "context"
			trimmed = strings.TrimSpace(trimmed[len("CONTEXT:"):])
		}
		if trimmed == "" {
			continue
		}
		switch section {
		case "error":
			if !isNone(trimmed) {
				res.Errors = append(res.Errors, trimmed)
			}
		case "text":
			text = append(text, trimmed)
		case "context":
			context = append(context, trimmed)
		}
	}
	res.Text = strings.Join(text, "\n")
	res.Context = strings.Join(context, "\n")
	return res
}

func isNone(s string) bool {
	switch strings.ToLower(strings.TrimRight(s, ".")) {
	case "none", "n/a", "no errors", "no errors visible":
		return true
	}
	return false
}
