package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// ParseAcceptLanguage turns an Accept-Language header into a fallback chain ordered by
// quality. Invalid headers yield nil.
//
// Example:
//
//	tags := i18n.ParseAcceptLanguage("fr-CH, fr;q=0.9, en;q=0.8, *;q=0.5")
//	// [fr-CH fr en]
func ParseAcceptLanguage(header string) []language.Tag {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return nil
	}
	out := tags[:0]
	for _, tag := range tags {
		// "*" parses as mul.
		if base, _ := tag.Base(); tag == language.Und || base.String() == "mul" {
			continue
		}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ParseTags parses language codes such as "en-US" or "fr". Empty codes are skipped.
func ParseTags(codes []string) ([]language.Tag, error) {
	tags := make([]language.Tag, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		tag, err := language.Parse(code)
		if err != nil {
			return nil, fmt.Errorf("invalid language %q: %w", code, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}
