package rowgen

import (
	"strings"
	"unicode"
)

// knownAbbreviations maps lowercase abbreviations to their Go-conventional
// uppercase forms. When a word segment matches one of these entries during
// identifier construction the uppercase form is used instead.
var knownAbbreviations = map[string]string{
	"id":    "ID",
	"ids":   "IDs",
	"url":   "URL",
	"urls":  "URLs",
	"uri":   "URI",
	"uuid":  "UUID",
	"cpu":   "CPU",
	"ip":    "IP",
	"api":   "API",
	"http":  "HTTP",
	"https": "HTTPS",
	"json":  "JSON",
	"yaml":  "YAML",
	"xml":   "XML",
	"csv":   "CSV",
	"html":  "HTML",
	"sql":   "SQL",
	"tcp":   "TCP",
	"udp":   "UDP",
	"dns":   "DNS",
	"os":    "OS",
	"ttl":   "TTL",
	"utc":   "UTC",
}

// ToGoName converts a table or column name (e.g. "created_at") into an
// exported Go identifier (e.g. "CreatedAt"). It handles snake_case,
// kebab-case, dot-separated, space-separated and camelCase input. Known
// abbreviations are uppercased per Go convention. Names that do not start
// with a letter are prefixed with "X".
func ToGoName(name string) string {
	words := splitWords(name)
	var b strings.Builder
	for _, w := range words {
		if upper, ok := knownAbbreviations[strings.ToLower(w)]; ok {
			b.WriteString(upper)
		} else {
			b.WriteString(capitalize(w))
		}
	}

	s := b.String()
	if s == "" || !unicode.IsLetter([]rune(s)[0]) {
		s = "X" + s
	}
	return s
}

// splitWords breaks an identifier string into its component words. Every
// rune that is not a letter or digit separates words, as do camelCase
// boundaries.
func splitWords(s string) []string {
	var words []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r):
			// "URLParser" splits into "URL" and "Parser".
			if current.Len() > 0 && i > 0 && unicode.IsLower(runes[i-1]) {
				flush()
			} else if current.Len() > 1 && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
				flush()
			}
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return words
}

// capitalize returns s with its first rune uppercased and the rest lowercased.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	for i := 1; i < len(runes); i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
