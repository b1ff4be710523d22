package coc

import "strings"

const tagAlphabet = "0289PYLQGRJCUV"

// NormalizeTag upper-cases a tag, maps the letter O to zero and adds the leading #.
func NormalizeTag(raw string) string {
	tag := strings.ToUpper(strings.TrimSpace(raw))
	tag = strings.TrimLeft(tag, "#")
	tag = strings.ReplaceAll(tag, "O", "0")
	if tag == "" {
		return ""
	}
	return "#" + tag
}

// ValidTag reports whether a normalized tag only uses the game's alphabet.
func ValidTag(tag string) bool {
	if len(tag) < 4 || tag[0] != '#' {
		return false
	}
	for _, r := range tag[1:] {
		if !strings.ContainsRune(tagAlphabet, r) {
			return false
		}
	}
	return true
}
