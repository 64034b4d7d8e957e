package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lwilliamskeiter/leads-reformat/internal/config"
	"github.com/lwilliamskeiter/leads-reformat/pkg/metadata"
)

const leadsCSV = `First Name,Last Name,Company Name,Contact LI Profile URL,Primary Email,Contact Phone 1,Contact Phone 1 Total AI,Contact State,Company State,Contact City,Contact Country
Ada,Lovelace,Analytical Engines,https://linkedin.com/in/ada,ada@example.com,(202) 555-0100,90%,Virginia,California,Arlington,US
Bob,Brown,Maple Co,https://linkedin.com/in/bob,bob@example.com,(416) 555-0100,95%,Ontario,Ontario,Toronto,Canada
`

func TestRun_WritesAndVerifiesWorkbook(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "leads.csv")

	if err := os.WriteFile(input, []byte(leadsCSV), 0644); err != nil {
		t.Fatal(err)
	}

	outDir := filepath.Join(dir, "out")

	err := run(options{
		inputPath: input,
		outputDir: outDir,
		profile:   config.DefaultProfile,
		logLevel:  "error",
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(outDir, "cleaned_leads_*.xlsx"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one workbook, got %v (%v)", matches, err)
	}

	if err := run(options{inputPath: input, verify: matches[0], logLevel: "error"}); err != nil {
		t.Errorf("verify against source failed: %v", err)
	}

	other := filepath.Join(dir, "other.csv")
	if err := os.WriteFile(other, []byte(leadsCSV+"Cy,Young,River,u,c@example.com,,,Ohio,Ohio,Akron,US\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := run(options{inputPath: other, verify: matches[0], logLevel: "error"}); !errors.Is(err, metadata.ErrHashMismatch) {
		t.Errorf("verify against other file err = %v, want ErrHashMismatch", err)
	}
}

func TestRun_Errors(t *testing.T) {
	if err := run(options{}); !errors.Is(err, errUsage) {
		t.Errorf("err = %v, want errUsage", err)
	}

	dir := t.TempDir()
	input := filepath.Join(dir, "leads.csv")

	if err := os.WriteFile(input, []byte(leadsCSV), 0644); err != nil {
		t.Fatal(err)
	}

	if err := run(options{inputPath: input, profile: "nope", logLevel: "error"}); !errors.Is(err, config.ErrUnknownProfile) {
		t.Errorf("err = %v, want ErrUnknownProfile", err)
	}

	t.Setenv("APIKEY", "")

	err := run(options{inputPath: input, profile: config.DefaultProfile, validate: true, outputDir: dir, logLevel: "error"})
	if !errors.Is(err, config.ErrMissingAPIKey) {
		t.Errorf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestRun_SemicolonDelimited(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "leads.csv")

	if err := os.WriteFile(input, []byte(strings.ReplaceAll(leadsCSV, ",", ";")), 0644); err != nil {
		t.Fatal(err)
	}

	outDir := filepath.Join(dir, "out")

	err := run(options{inputPath: input, delimiter: ";", outputDir: outDir, profile: config.DefaultProfile, logLevel: "error"})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if matches, _ := filepath.Glob(filepath.Join(outDir, "*.xlsx")); len(matches) != 1 {
		t.Errorf("expected one workbook, got %v", matches)
	}

	if err := run(options{inputPath: input, delimiter: ";;", logLevel: "error"}); !errors.Is(err, errInvalidDelimiter) {
		t.Errorf("err = %v, want errInvalidDelimiter", err)
	}
}

func TestParseDelimiter(t *testing.T) {
	tests := map[string]rune{
		"":    ',',
		",":   ',',
		";":   ';',
		"|":   '|',
		"tab": '\t',
		`\t`:  '\t',
	}

	for in, want := range tests {
		got, err := parseDelimiter(in)
		if err != nil || got != want {
			t.Errorf("parseDelimiter(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
}
