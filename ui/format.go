package ui

import "strings"

// wrapWidth is the widest line the display fits at normal scale.
const wrapWidth = 45

// wrap breaks text into lines of at most width runes, preferring to break
// at the last space before the limit. Indexing is by rune so multibyte
// message bodies never split mid-character.
func wrap(text string, width int) []string {
	var lines []string
	runes := []rune(text)
	for len(runes) > 0 {
		if len(runes) <= width {
			lines = append(lines, string(runes))
			break
		}
		breakAt := -1
		for i := width - 1; i >= 0; i-- {
			if runes[i] == ' ' {
				breakAt = i
				break
			}
		}
		if breakAt <= 0 {
			breakAt = width
		}
		lines = append(lines, string(runes[:breakAt]))
		runes = runes[breakAt:]
		for len(runes) > 0 && runes[0] == ' ' {
			runes = runes[1:]
		}
	}
	return lines
}

// pad truncates or right-pads s to exactly width runes.
func pad(s string, width int) string {
	runes := []rune(s)
	if len(runes) > width {
		return string(runes[:width])
	}
	return s + strings.Repeat(" ", width-len(runes))
}

// preview shortens a message body for the inbox row.
func preview(content string, max int) string {
	content = strings.ReplaceAll(content, "\n", " ")
	runes := []rune(content)
	if len(runes) > max {
		return string(runes[:max]) + "..."
	}
	return content
}

// shortName trims long contact names for the inbox sender column.
func shortName(name string) string {
	runes := []rune(name)
	if len(runes) > 10 {
		return string(runes[:8]) + ".."
	}
	return name
}
