// Package schema maps the loosely structured columns of a lead export to logical roles.
package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/lwilliamskeiter/leads-reformat/internal/config"
	"github.com/lwilliamskeiter/leads-reformat/pkg/utils"
)

// Schema resolution errors.
var (
	ErrMissingRole     = errors.New("no input column for required role")
	ErrMissingIdentity = errors.New("prior-file diff needs a full name column or first and last name columns")
)

var trailingNumber = regexp.MustCompile(`(\d+)$`)

// Slot is one phone position and its optional confidence column.
type Slot struct {
	Phone      string
	Confidence string
	Ordinal    int
}

// Mapping holds the resolved column name for every role.
type Mapping struct {
	FirstName    string
	LastName     string
	FullName     string
	CompanyName  string
	ProfileURL   string
	PrimaryEmail string
	ExtraEmails  []string
	Slots        []Slot
	States       []string
	Cities       []string
	Countries    []string
}

// Resolve matches header against patterns. Required roles without a match fail eagerly.
func Resolve(header []string, p config.SchemaPatterns, maxSlots int) (*Mapping, error) {
	m := &Mapping{}

	required := []struct {
		role    string
		pattern string
		dst     *string
	}{
		{"first name", p.FirstName, &m.FirstName},
		{"company name", p.CompanyName, &m.CompanyName},
		{"profile url", p.ProfileURL, &m.ProfileURL},
		{"primary email", p.PrimaryEmail, &m.PrimaryEmail},
	}

	for _, r := range required {
		col, err := first(header, r.pattern)
		if err != nil {
			return nil, err
		}

		if col == "" {
			return nil, fmt.Errorf("%w: %s (pattern %q)", ErrMissingRole, r.role, r.pattern)
		}

		*r.dst = col
	}

	var err error

	if m.LastName, err = first(header, p.LastName); err != nil {
		return nil, err
	}

	if m.FullName, err = first(header, p.FullName); err != nil {
		return nil, err
	}

	if m.ExtraEmails, err = all(header, p.ExtraEmail); err != nil {
		return nil, err
	}

	if m.States, err = all(header, p.State); err != nil {
		return nil, err
	}

	if len(m.States) == 0 {
		return nil, fmt.Errorf("%w: state (pattern %q)", ErrMissingRole, p.State)
	}

	if m.Countries, err = all(header, p.Country); err != nil {
		return nil, err
	}

	if len(m.Countries) == 0 {
		return nil, fmt.Errorf("%w: country (pattern %q)", ErrMissingRole, p.Country)
	}

	if m.Cities, err = all(header, p.City); err != nil {
		return nil, err
	}

	if m.Slots, err = phoneSlots(header, p, maxSlots); err != nil {
		return nil, err
	}

	if len(m.Slots) == 0 {
		return nil, fmt.Errorf("%w: phone (pattern %q excluding %q)", ErrMissingRole, p.Phone, p.PhoneExclude)
	}

	return m, nil
}

// RequireIdentity checks the columns needed to key contacts across files.
func (m *Mapping) RequireIdentity() error {
	if m.FullName != "" || m.LastName != "" {
		return nil
	}

	return ErrMissingIdentity
}

// PhoneColumns returns the slot phone columns in slot order.
func (m *Mapping) PhoneColumns() []string {
	cols := make([]string, len(m.Slots))
	for i, s := range m.Slots {
		cols[i] = s.Phone
	}

	return cols
}

// EmailColumns returns the identity and address columns of the email projection.
func (m *Mapping) EmailColumns() []string {
	cols := []string{m.FirstName, m.CompanyName, m.ProfileURL, m.PrimaryEmail}

	for _, c := range m.ExtraEmails {
		if c != m.PrimaryEmail {
			cols = append(cols, c)
		}
	}

	return cols
}

// AddressColumns returns only the email address columns.
func (m *Mapping) AddressColumns() []string {
	return m.EmailColumns()[3:]
}

func phoneSlots(header []string, p config.SchemaPatterns, maxSlots int) ([]Slot, error) {
	exclude, err := all(header, p.PhoneExclude)
	if err != nil {
		return nil, err
	}

	excluded := make(map[string]bool, len(exclude))
	for _, c := range exclude {
		excluded[c] = true
	}

	matched, err := all(header, p.Phone)
	if err != nil {
		return nil, err
	}

	var candidates []string

	numbered := true

	for _, c := range matched {
		if p.PhoneExclude != "" && excluded[c] {
			continue
		}

		candidates = append(candidates, c)

		if !trailingNumber.MatchString(c) {
			numbered = false
		}
	}

	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}

	var slots []Slot

	for _, c := range candidates {
		if maxSlots > 0 && len(slots) == maxSlots {
			break
		}

		if numbered {
			n, _ := strconv.Atoi(trailingNumber.FindString(c))
			if n < 1 || (maxSlots > 0 && n > maxSlots) {
				continue
			}
		}

		slot := Slot{Phone: c}

		if p.ConfidenceSuffix != "" && present[c+p.ConfidenceSuffix] {
			slot.Confidence = c + p.ConfidenceSuffix
		}

		slots = append(slots, slot)
	}

	assignOrdinals(slots)

	return slots, nil
}

// assignOrdinals gives every slot a distinct ordinal. A slot keeps the first
// digit of its label unless an earlier slot claimed it; the rest take the
// smallest free ordinal.
func assignOrdinals(slots []Slot) {
	taken := make(map[int]bool, len(slots))

	for i, s := range slots {
		r, ok := utils.FirstDigit(s.Phone)
		if !ok {
			continue
		}

		if n := int(r - '0'); n > 0 && !taken[n] {
			slots[i].Ordinal = n
			taken[n] = true
		}
	}

	next := 1

	for i := range slots {
		if slots[i].Ordinal != 0 {
			continue
		}

		for taken[next] {
			next++
		}

		slots[i].Ordinal = next
		taken[next] = true
	}
}

func first(header []string, pattern string) (string, error) {
	cols, err := all(header, pattern)
	if err != nil || len(cols) == 0 {
		return "", err
	}

	return cols[0], nil
}

func all(header []string, pattern string) ([]string, error) {
	if pattern == "" {
		return nil, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", pattern, err)
	}

	var out []string

	for _, h := range header {
		if re.MatchString(h) {
			out = append(out, h)
		}
	}

	return out, nil
}
