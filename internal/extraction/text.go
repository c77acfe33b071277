package extraction

import (
	"regexp"
	"strings"
)

var (
	spaceRun     = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
	blankLineRun = regexp.MustCompile(`\n{3,}`)
)

// bulletPrefixes are the list markers PDF and Word exports use for bullets
var bulletPrefixes = []string{"• ", "· ", "▪ ", "◦ ", "– ", "* "}

// CleanText normalizes extracted text while keeping its line structure: line endings become
// LF, bullets become "- ", runs of spaces collapse and at most one blank line separates blocks.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := blankLineRun.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

func cleanLine(line string) string {
	line = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
	if line == "" {
		return ""
	}
	for _, prefix := range bulletPrefixes {
		if strings.HasPrefix(line, prefix) {
			return "- " + strings.TrimSpace(strings.TrimPrefix(line, prefix))
		}
	}
	return line
}
