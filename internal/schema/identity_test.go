package schema

import (
	"errors"
	"testing"

	"github.com/lwilliamskeiter/leads-reformat/internal/models"
)

func TestResolveIdentity(t *testing.T) {
	tests := []struct {
		name    string
		header  []string
		want    Identity
		wantErr error
	}{
		{
			name:   "full name",
			header: []string{"Contact Full Name", "Company Name"},
			want:   Identity{FullName: "Contact Full Name", CompanyName: "Company Name"},
		},
		{
			name:   "first and last",
			header: []string{"First Name", "Last Name", "Company Name"},
			want:   Identity{FirstName: "First Name", LastName: "Last Name", CompanyName: "Company Name"},
		},
		{
			name:    "first only",
			header:  []string{"First Name", "Company Name"},
			wantErr: ErrMissingIdentity,
		},
		{
			name:    "no company",
			header:  []string{"Contact Full Name"},
			wantErr: ErrMissingRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveIdentity(tt.header, patterns())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("ResolveIdentity failed: %v", err)
			}

			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestIdentity_Key(t *testing.T) {
	full := models.NewTable([]string{"Contact Full Name", "Company Name"})
	full.Rows = []models.Row{{"Ada  Lovelace", "Analytical Engines"}}

	split := models.NewTable([]string{"First Name", "Last Name", "Company Name"})
	split.Rows = []models.Row{{"ada", "lovelace", "ANALYTICAL ENGINES"}}

	a := Identity{FullName: "Contact Full Name", CompanyName: "Company Name"}.Key(full, 0)
	b := Identity{FirstName: "First Name", LastName: "Last Name", CompanyName: "Company Name"}.Key(split, 0)

	if a != b {
		t.Errorf("keys differ: %q vs %q", a, b)
	}
}
