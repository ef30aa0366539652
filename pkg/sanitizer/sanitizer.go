package sanitizer

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

// DefaultRegion is used for numbers written without a leading +country code.
const DefaultRegion = "US"

func collapseSpaces(s string) string {
	var result strings.Builder
	lastWasSpace := false

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
			continue
		}
		result.WriteRune(r)
		lastWasSpace = false
	}

	return result.String()
}

func NormalizeText(input string) string {
	return Pipeline{strings.TrimSpace, collapseSpaces}.Apply(input)
}

func NormalizeEmail(input string) string {
	return Pipeline{strings.TrimSpace, strings.ToLower}.Apply(input)
}

// NormalizePhone formats a valid number as E.164. Anything phonenumbers
// cannot parse or does not consider valid is returned trimmed.
func NormalizePhone(phone string) string {
	phone = NormalizeText(phone)
	if phone == "" {
		return ""
	}

	parsed, err := phonenumbers.Parse(phone, DefaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return phone
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}
