package schema

import (
	"fmt"
	"strings"

	"github.com/lwilliamskeiter/leads-reformat/internal/config"
	"github.com/lwilliamskeiter/leads-reformat/internal/models"
)

// Identity names the columns that key a contact across exports.
type Identity struct {
	FullName    string
	FirstName   string
	LastName    string
	CompanyName string
}

// Identity returns the identity columns of m.
func (m *Mapping) Identity() Identity {
	return Identity{
		FullName:    m.FullName,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		CompanyName: m.CompanyName,
	}
}

// ResolveIdentity resolves only the identity roles, for prior exports that may
// lack the phone and address columns.
func ResolveIdentity(header []string, p config.SchemaPatterns) (Identity, error) {
	var (
		id  Identity
		err error
	)

	if id.FullName, err = first(header, p.FullName); err != nil {
		return id, err
	}

	if id.FirstName, err = first(header, p.FirstName); err != nil {
		return id, err
	}

	if id.LastName, err = first(header, p.LastName); err != nil {
		return id, err
	}

	if id.CompanyName, err = first(header, p.CompanyName); err != nil {
		return id, err
	}

	if id.CompanyName == "" {
		return id, fmt.Errorf("%w: company name (pattern %q)", ErrMissingRole, p.CompanyName)
	}

	if id.FullName == "" && (id.FirstName == "" || id.LastName == "") {
		return id, ErrMissingIdentity
	}

	return id, nil
}

// Key returns the case-folded full name and company of row r. The full name
// falls back to first and last name joined by a space.
func (id Identity) Key(tbl *models.Table, r int) string {
	name := ""
	if id.FullName != "" {
		name = tbl.Value(r, id.FullName)
	}

	if name == "" {
		name = strings.TrimSpace(tbl.Value(r, id.FirstName) + " " + tbl.Value(r, id.LastName))
	}

	name = strings.Join(strings.Fields(name), " ")
	company := strings.Join(strings.Fields(tbl.Value(r, id.CompanyName)), " ")

	return strings.ToLower(name) + "\x00" + strings.ToLower(company)
}
