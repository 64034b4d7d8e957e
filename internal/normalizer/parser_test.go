package normalizer

import (
	"fmt"
	"testing"

	"github.com/lwilliamskeiter/leads-reformat/internal/config"
)

func newTestParser(mode config.ExtensionMode) *Parser {
	p := config.Default().Profiles[config.DefaultProfile]
	p.Extensions = mode

	return NewParser(p)
}

func TestParser_Parse(t *testing.T) {
	p := newTestParser(config.ExtensionsReject)

	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"plain ten digits", "1234567890", "(123) 456-7890", true},
		{"formatted", "(804) 555-0100", "(804) 555-0100", true},
		{"dotted", "804.555.0100", "(804) 555-0100", true},
		{"leading one", "1-213-555-0100", "(213) 555-0100", true},
		{"plus one", "+1 213 555 0100", "(213) 555-0100", true},
		{"trailing label", "213-555-0100 mobile", "(213) 555-0100", true},
		{"too short", "123", "", false},
		{"nine digits", "213555010", "", false},
		{"eleven not leading one", "22135550100", "", false},
		{"international", "+44 20 7946 0958", "", false},
		{"toll free 800", "8005551234", "", false},
		{"toll free 844", "(844) 555-1234", "", false},
		{"toll free 888 behind country code", "1-888-555-1234", "", false},
		{"extension x", "213-555-0100 x204", "", false},
		{"extension x no space", "213-555-0100x204", "", false},
		{"extension ext", "213-555-0100 ext. 9", "", false},
		{"extension EXT", "213-555-0100 EXT 9", "", false},
		{"ext inside a word", "Text 213-555-0100", "(213) 555-0100", true},
		{"empty", "", "", false},
		{"nan sentinel", "nan", "", false},
		{"None sentinel", "None", "", false},
		{"letters only", "call me", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.Parse(tt.raw)
			if ok != tt.ok {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			}

			if got.String() != tt.want {
				t.Errorf("Parse(%q) = %q, want %q", tt.raw, got.String(), tt.want)
			}
		})
	}
}

func TestParser_PreserveExtensions(t *testing.T) {
	p := newTestParser(config.ExtensionsPreserve)

	tests := map[string]string{
		"213-555-0100 x204":       "(213) 555-0100 ext. 204",
		"213-555-0100x204":        "(213) 555-0100 ext. 204",
		"(213) 555-0100 ext. 12":  "(213) 555-0100 ext. 12",
		"213-555-0100":            "(213) 555-0100",
		"Text 213-555-0100":       "(213) 555-0100",
		"Next 213-555-0100 ext 4": "(213) 555-0100 ext. 4",
	}

	for raw, want := range tests {
		if got := p.Format(raw); got != want {
			t.Errorf("Format(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestParser_TenDigitsPreserveOrder(t *testing.T) {
	p := newTestParser(config.ExtensionsReject)

	for area := 200; area < 1000; area += 37 {
		if area == 800 || area == 844 || area == 888 {
			continue
		}

		digits := fmt.Sprintf("%03d5550%03d", area, area%1000)
		want := fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:])

		if got := p.Format(digits); got != want {
			t.Errorf("Format(%s) = %q, want %q", digits, got, want)
		}

		if got := p.Format("1" + digits); got != want {
			t.Errorf("Format(1%s) = %q, want %q", digits, got, want)
		}
	}
}

func TestParser_Idempotent(t *testing.T) {
	for _, mode := range []config.ExtensionMode{config.ExtensionsReject, config.ExtensionsPreserve} {
		p := newTestParser(mode)

		once := p.Format("213.555.0100")
		if twice := p.Format(once); twice != once {
			t.Errorf("%s: Format(Format(x)) = %q, want %q", mode, twice, once)
		}
	}

	p := newTestParser(config.ExtensionsPreserve)
	once := p.Format("213-555-0100 x7")

	if twice := p.Format(once); twice != once {
		t.Errorf("preserve: Format(%q) = %q", once, twice)
	}
}

func TestPhone_AreaCode(t *testing.T) {
	if got := (Phone{Digits: "8045550100"}).AreaCode(); got != "804" {
		t.Errorf("AreaCode = %q", got)
	}

	if got := (Phone{}).String(); got != "" {
		t.Errorf("zero Phone renders %q", got)
	}
}
