package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

var countSuffix = regexp.MustCompile(`^(.*?)\s*\(([^()]*)\)$`)

// ParseOptionText splits "Label (42)" into its label and count. The count is
// nil when there is no parenthesized suffix or it is not a non-negative
// integer.
func ParseOptionText(text string) (string, *int) {
	text = strings.Join(strings.Fields(text), " ")

	m := countSuffix.FindStringSubmatch(text)
	if m == nil {
		return text, nil
	}
	return strings.TrimSpace(m[1]), ParseCount(m[2])
}

// ParseCount reads a bare or parenthesized non-negative integer.
func ParseCount(s string) *int {
	s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "()"))
	if s == "" {
		return nil
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil
		}
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
