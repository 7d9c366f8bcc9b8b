package species

import "strings"

// GuessFromKeyword extracts the observation species guess from a catalog
// keyword. Keywords of the form "Common Name (Latin name)" yield the Latin
// name; bare keywords are returned as-is.
func GuessFromKeyword(keyword string) string {
	keyword = strings.TrimSpace(keyword)
	open := strings.LastIndex(keyword, "(")
	if open < 0 || !strings.HasSuffix(keyword, ")") {
		return keyword
	}
	latin := strings.TrimSpace(keyword[open+1 : len(keyword)-1])
	if latin == "" {
		return keyword
	}
	return latin
}

// FirstGuess returns the species guess for the first selected keyword, or
// false when nothing was selected.
func FirstGuess(keywords []string) (string, bool) {
	for _, keyword := range keywords {
		if guess := GuessFromKeyword(keyword); guess != "" {
			return guess, true
		}
	}
	return "", false
}
