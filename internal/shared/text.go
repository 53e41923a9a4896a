package shared

import "strings"

// bracketPairs are checked in a fixed order; titles are scrubbed one bracket
// kind at a time so nested mixed brackets resolve predictably.
var bracketPairs = [3][2]string{
	{"[", "]"},
	{"(", ")"},
	{"{", "}"},
}

// RemoveBracketed deletes bracketed annotations ("[Official Video]",
// "(Remix)", "{Live}") from a title.
//
// For each bracket kind, the first opening bracket and the next closing
// bracket of that kind are located and the span between them removed,
// repeating until none remain. An opening bracket with no matching closer is
// left untouched; the scan for that bracket kind simply stops.
func RemoveBracketed(text string) string {
	for _, pair := range bracketPairs {
		for {
			open := strings.Index(text, pair[0])
			if open == -1 {
				break
			}
			closing := strings.Index(text[open:], pair[1])
			if closing == -1 {
				break
			}
			text = text[:open] + text[open+closing+1:]
		}
	}
	return text
}

// RemoveFeaturing truncates a title at the first "ft" or "feat" fragment,
// keeping only the prefix. Matching is case-sensitive; callers lowercase
// first when they want case-insensitive behavior. When both fragments occur,
// "ft" wins.
func RemoveFeaturing(text string) string {
	index := strings.Index(text, "ft")
	if index == -1 {
		index = strings.Index(text, "feat")
	}

	if index != -1 {
		text = text[:index]
	}
	return text
}

// NormalizeTitle strips bracketed annotations and featuring fragments from a
// track title and trims the leftover whitespace.
func NormalizeTitle(title string) string {
	return strings.TrimSpace(RemoveFeaturing(RemoveBracketed(title)))
}
