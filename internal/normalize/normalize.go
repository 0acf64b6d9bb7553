// Package normalize cleans raw transaction descriptions and derives merchant signatures.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// UnknownSignature is the signature of a description with no usable tokens.
const UnknownSignature = "UNKNOWN"

// maxSignatureTokens bounds how many leading tokens form a signature.
const maxSignatureTokens = 3

// minReferenceDigits is the digit count at which a token is treated as a reference code.
const minReferenceDigits = 3

var (
	datePattern        = regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}\b|\b\d{1,2}[/-]\d{1,2}(?:[/-]\d{2,4})?\b`)
	timePattern        = regexp.MustCompile(`\b\d{1,2}:\d{2}(?::\d{2})?\b`)
	punctuationPattern = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
)

// Normalize uppercases raw, strips dates, times, numeric reference codes and
// punctuation, and collapses whitespace. Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	text := fold(raw)
	text = cases.Upper(language.Und).String(text)

	text = datePattern.ReplaceAllString(text, " ")
	text = timePattern.ReplaceAllString(text, " ")
	text = punctuationPattern.ReplaceAllString(text, " ")

	fields := strings.Fields(text)
	kept := fields[:0]
	for _, field := range fields {
		if isReferenceCode(field) {
			continue
		}
		kept = append(kept, field)
	}

	return strings.Join(kept, " ")
}

// fold strips diacritics and compatibility forms so "CAFÉ" and "CAFE" normalize alike.
func fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// isReferenceCode reports whether a token carries enough digits to be a store
// number, card suffix, or transaction reference rather than a merchant word.
func isReferenceCode(token string) bool {
	digits := 0
	for _, r := range token {
		if unicode.IsDigit(r) {
			digits++
			if digits >= minReferenceDigits {
				return true
			}
		}
	}
	return false
}

// Tokens splits text on anything that is not a letter or digit.
func Tokens(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
