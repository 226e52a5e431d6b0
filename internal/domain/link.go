package domain

import "regexp"

// linkPattern matches canonical YouTube watch URLs up to the end of the video id
var linkPattern = regexp.MustCompile(`https?://(?:www\.)?youtube\.com/watch\?v=[\w-]+`)

// ExtractLinks returns every video reference in text, in order of appearance.
// Duplicates are kept.
func ExtractLinks(text string) []string {
	matches := linkPattern.FindAllString(text, -1)
	if matches == nil {
		return []string{}
	}
	return matches
}

// IsVideoLink reports whether s is exactly one video reference
func IsVideoLink(s string) bool {
	loc := linkPattern.FindStringIndex(s)
	return loc != nil && loc[0] == 0 && loc[1] == len(s)
}
