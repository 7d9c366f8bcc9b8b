package species

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldMode selects how accented characters in common names are reduced to
// ASCII before keyword matching.
type FoldMode string

const (
	// FoldFrench replaces the fixed set of French diacritics and ligatures.
	// This mirrors the folding the downstream keyword matching was built
	// around; anything outside the map passes through untouched.
	FoldFrench FoldMode = "french"
	// FoldUnicode strips all combining marks via NFD decomposition, then
	// applies the ligature replacements. Broader than FoldFrench; opt-in.
	FoldUnicode FoldMode = "unicode"
)

var frenchFolder = strings.NewReplacer(
	"à", "a", "â", "a", "ä", "a",
	"ç", "c",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"î", "i", "ï", "i",
	"ô", "o", "ö", "o",
	"ù", "u", "û", "u", "ü", "u",
	"ÿ", "y",
	"À", "A", "Â", "A", "Ä", "A",
	"Ç", "C",
	"É", "E", "È", "E", "Ê", "E", "Ë", "E",
	"Î", "I", "Ï", "I",
	"Ô", "O", "Ö", "O",
	"Ù", "U", "Û", "U", "Ü", "U",
)

var ligatureFolder = strings.NewReplacer(
	"œ", "oe", "Œ", "Oe",
	"æ", "ae", "Æ", "Ae",
)

var markStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldAccents reduces accented characters in name according to mode.
// Unrecognized modes fall back to FoldFrench.
func FoldAccents(name string, mode FoldMode) string {
	switch mode {
	case FoldUnicode:
		stripped, _, err := transform.String(markStripper, name)
		if err != nil {
			return ligatureFolder.Replace(frenchFolder.Replace(name))
		}
		return ligatureFolder.Replace(stripped)
	default:
		return ligatureFolder.Replace(frenchFolder.Replace(name))
	}
}

// ValidFoldMode reports whether mode names a supported folding behavior.
func ValidFoldMode(mode string) bool {
	switch FoldMode(mode) {
	case FoldFrench, FoldUnicode:
		return true
	default:
		return false
	}
}
