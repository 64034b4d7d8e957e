// Package normalizer cleans raw phone fields and applies the confidence gates.
package normalizer

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/lwilliamskeiter/leads-reformat/internal/config"
	"github.com/lwilliamskeiter/leads-reformat/pkg/utils"
)

// Phone is a normalized North-American number.
type Phone struct {
	Digits    string
	Extension string
}

// String renders the number as (AAA) EEE-SSSS, with " ext. N" when an extension was kept.
func (p Phone) String() string {
	if len(p.Digits) != 10 {
		return ""
	}

	var b strings.Builder

	b.WriteString("(")
	b.WriteString(p.Digits[:3])
	b.WriteString(") ")
	b.WriteString(p.Digits[3:6])
	b.WriteString("-")
	b.WriteString(p.Digits[6:])

	if p.Extension != "" {
		b.WriteString(" ext. ")
		b.WriteString(p.Extension)
	}

	return b.String()
}

// AreaCode returns the first three digits.
func (p Phone) AreaCode() string {
	if len(p.Digits) < 3 {
		return ""
	}

	return p.Digits[:3]
}

// Parser turns a single raw phone string into at most one Phone.
type Parser struct {
	annotation *regexp.Regexp
	extension  *regexp.Regexp
	extWord    *regexp.Regexp
	extMarker  *regexp.Regexp
	extDigits  *regexp.Regexp
	spam       map[string]struct{}
	mode       config.ExtensionMode
}

// NewParser creates a parser for the profile's spam prefixes and extension mode.
func NewParser(profile config.Profile) *Parser {
	spam := make(map[string]struct{}, len(profile.SpamPrefixes))
	for _, prefix := range profile.SpamPrefixes {
		spam[prefix] = struct{}{}
	}

	mode := profile.Extensions
	if mode == "" {
		mode = config.ExtensionsReject
	}

	return &Parser{
		annotation: regexp.MustCompile(` [a-z]+.+`),
		extension:  regexp.MustCompile(`(?i)x\s?\d+`),
		extWord:    regexp.MustCompile(`(?i)\bext`),
		extMarker:  regexp.MustCompile(`(?i)\s*(?:\bext\.?\s*\d*|x\s*\d+).*$`),
		extDigits:  regexp.MustCompile(`(?i)(?:\bext\.?|x)\s*(\d+)`),
		spam:       spam,
		mode:       mode,
	}
}

// Parse extracts, validates and normalizes raw. It returns false for empty,
// international, malformed, toll-free and (in reject mode) extension-bearing input.
func (p *Parser) Parse(raw string) (Phone, bool) {
	raw = strings.TrimSpace(raw)
	if utils.IsMissing(raw) {
		return Phone{}, false
	}

	candidate := raw
	if loc := p.annotation.FindStringIndex(candidate); loc != nil {
		candidate = candidate[:loc[0]]
	}

	hasExt := p.HasExtension(raw)
	if hasExt {
		if p.mode == config.ExtensionsReject {
			return Phone{}, false
		}

		if loc := p.extMarker.FindStringIndex(candidate); loc != nil {
			candidate = candidate[:loc[0]]
		}
	}

	digits := utils.DigitsOnly(candidate)

	switch {
	case digits == "", len(digits) > 11:
		return Phone{}, false
	case len(digits) == 10:
	case len(digits) == 11 && digits[0] == '1':
		digits = digits[1:]
	default:
		return Phone{}, false
	}

	if _, ok := p.spam[digits[:3]]; ok {
		return Phone{}, false
	}

	phone := Phone{Digits: digits}
	if hasExt {
		phone.Extension = p.extensionDigits(raw)
	}

	return phone, true
}

// HasExtension reports whether raw carries an extension marker.
func (p *Parser) HasExtension(raw string) bool {
	return p.extension.MatchString(raw) || p.extWord.MatchString(raw)
}

// Format is Parse rendered for display; "" when rejected.
func (p *Parser) Format(raw string) string {
	phone, ok := p.Parse(raw)
	if !ok {
		return ""
	}

	return phone.String()
}

func (p *Parser) extensionDigits(raw string) string {
	if num, err := phonenumbers.Parse(raw, "US"); err == nil && num.GetExtension() != "" {
		return num.GetExtension()
	}

	if m := p.extDigits.FindStringSubmatch(raw); len(m) == 2 {
		return m[1]
	}

	return ""
}
