package transfer

import (
	"regexp"
	"strings"
)

// ListEntry is one line recovered from pasted list text.
type ListEntry struct {
	Title string
	Done  bool
}

var (
	numberedRe = regexp.MustCompile(`^\d+[.)]\s+(.+)`)
	bulletRe   = regexp.MustCompile(`^[-*+]\s+(.+)`)
	checkboxRe = regexp.MustCompile(`^\[([ xX])\]\s*`)
)

// ParseList extracts entries from list text such as a copied column:
//
//	Garden
//	- Dig
//	- Plant
//
// Numbered lines ("1. Dig", "2) Plant") and "* " or "+ " bullets work too, as
// do markdown checkboxes ("- [x] Dig"). Lines that are not list entries are
// skipped. The first line is a header, not an entry, when the lines after it
// are bullets and it is not one. A title wrapped whole in ** or ` loses the pair.
func ParseList(text string) []ListEntry {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if hasHeader(lines) {
		lines = lines[1:]
	}

	var entries []ListEntry
	for _, line := range lines {
		content, ok := listContent(line)
		if !ok {
			continue
		}

		done := false
		if box := checkboxRe.FindStringSubmatch(content); box != nil {
			done = box[1] != " "
			content = content[len(box[0]):]
		}

		title := stripEmphasis(strings.TrimSpace(content))
		if title == "" {
			continue
		}
		entries = append(entries, ListEntry{Title: title, Done: done})
	}
	return entries
}

func hasHeader(lines []string) bool {
	if len(lines) < 2 || bulletRe.MatchString(lines[0]) {
		return false
	}
	for _, line := range lines[1:] {
		if bulletRe.MatchString(line) {
			return true
		}
	}
	return false
}

// listContent returns the text after a bullet or number marker.
func listContent(line string) (string, bool) {
	if m := bulletRe.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	if m := numberedRe.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	return "", false
}

// stripEmphasis removes one matching pair of ** or ` around the whole title.
func stripEmphasis(title string) string {
	for _, mark := range []string{"**", "`"} {
		if len(title) > 2*len(mark) && strings.HasPrefix(title, mark) && strings.HasSuffix(title, mark) {
			return strings.TrimSpace(title[len(mark) : len(title)-len(mark)])
		}
	}
	return title
}
