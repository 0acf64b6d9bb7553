package normalize

import (
	"strings"
	"unicode"
)

// leadingNoise are card-network and channel prefixes that precede the merchant.
var leadingNoise = toSet(
	"POS", "PURCHASE", "DEBIT", "CREDIT", "CARD", "CHECKCARD", "ACH", "VISA", "MC",
	"RECURRING", "AUTHORIZED", "PREAUTHORIZED", "ON", "SQ", "TST", "ONLINE", "ELECTRONIC",
)

// suffixMarkers start the trailing reference block of ACH and card descriptions.
var suffixMarkers = toSet(
	"PPD", "WEB", "ID", "REF", "TRANS", "TRN", "ACCT", "CCD", "AUTH", "CONF",
	"ORIG", "DES", "INDN", "SEC", "TRACE",
)

// domainTokens are URL fragments left behind by "NETFLIX.COM" style descriptions.
var domainTokens = toSet("COM", "NET", "ORG", "WWW", "HTTP", "HTTPS", "IO")

var usStates = toSet(
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "DC", "FL", "GA", "HI", "ID", "IL", "IN",
	"IA", "KS", "KY", "LA", "ME", "MD", "MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH",
	"NJ", "NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC", "SD", "TN", "TX", "UT",
	"VT", "VA", "WA", "WV", "WI", "WY",
)

// cityPrefixes are first words of two-word city names ("SAN JOSE", "NEW YORK").
var cityPrefixes = toSet("SAN", "SANTA", "LOS", "LAS", "NEW", "SAINT", "ST", "FORT", "FT", "PORT", "EL", "SALT")

// ExtractMerchant derives the merchant signature from a normalized description.
// It keeps the leading semantic tokens and drops channel prefixes, reference
// suffixes, domain fragments, and a trailing "CITY ST" location.
func ExtractMerchant(normalized string) string {
	tokens := strings.Fields(normalized)
	if len(tokens) == 0 {
		return UnknownSignature
	}

	start := 0
	for start < len(tokens)-1 && leadingNoise[tokens[start]] {
		start++
	}

	kept := make([]string, 0, len(tokens)-start)
	for _, token := range tokens[start:] {
		if suffixMarkers[token] {
			break
		}
		if domainTokens[token] {
			continue
		}
		kept = append(kept, token)
	}

	for len(kept) > 1 && isNumber(kept[len(kept)-1]) {
		kept = kept[:len(kept)-1]
	}

	kept = trimLocation(kept)

	if len(kept) > maxSignatureTokens {
		kept = kept[:maxSignatureTokens]
	}
	if len(kept) == 0 {
		return UnknownSignature
	}

	return strings.Join(kept, " ")
}

// Signature is shorthand for ExtractMerchant(Normalize(raw)).
func Signature(raw string) string {
	return ExtractMerchant(Normalize(raw))
}

func trimLocation(tokens []string) []string {
	n := len(tokens)
	if n < 3 || !usStates[tokens[n-1]] {
		return tokens
	}

	tokens = tokens[:n-2]
	if len(tokens) >= 2 && cityPrefixes[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

func isNumber(token string) bool {
	for _, r := range token {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return token != ""
}

func toSet(values ...string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// IsDomainToken reports whether token is a URL fragment such as COM or WWW.
func IsDomainToken(token string) bool {
	return domainTokens[token]
}
