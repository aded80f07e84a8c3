package core

import "strings"

const commentMarker = "//"

// ParseMatches reads the match patterns declared in a script's leading
// comment block. When the first line does not mention "matches" the
// universal pattern is returned and declared is false.
func ParseMatches(content string) (patterns []string, declared bool) {
	lines := strings.Split(content, "\n")
	if !strings.Contains(lines[0], "matches") {
		return []string{UniversalPattern}, false
	}

	patterns = []string{}
	for _, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if !strings.HasPrefix(line, commentMarker) {
			break
		}
		patterns = append(patterns, strings.TrimSpace(strings.Replace(line, commentMarker, "", 1)))
	}
	return patterns, true
}
