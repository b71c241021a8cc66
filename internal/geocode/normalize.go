package geocode

import "strings"

// boroughCounty maps New York City borough names to their county names.
// Bronx and Queens map to themselves; the table is also used to derive a
// county from a locality when the provider left the county blank.
var boroughCounty = map[string]string{
	"Manhattan":     "New York",
	"New York":      "New York",
	"New York City": "New York",
	"Brooklyn":      "Kings",
	"Bronx":         "Bronx",
	"Queens":        "Queens",
	"Staten Island": "Richmond",
}

// NormalizeCounty canonicalizes a raw county name: whitespace trimmed, a
// trailing " County" suffix stripped case-insensitively, borough names mapped
// to their county. When the county is empty the locality is consulted via the
// borough table; an unknown locality yields an empty string.
func NormalizeCounty(county, locality string) string {
	c := stripCountySuffix(strings.TrimSpace(county))

	if c == "" {
		l := strings.TrimSpace(locality)
		if mapped, ok := boroughCounty[l]; ok {
			return mapped
		}
		return ""
	}

	if mapped, ok := boroughCounty[c]; ok {
		return mapped
	}
	return c
}

// stripCountySuffix removes a trailing " County" case-insensitively.
func stripCountySuffix(s string) string {
	const suffix = " county"
	if len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix) {
		return strings.TrimSpace(s[:len(s)-len(suffix)])
	}
	return s
}
