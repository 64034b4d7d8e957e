// Package metadata describes where a workbook came from and verifies it against its input.
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	// TagStart is the start of the metadata block.
	TagStart = "METADATA_START"
	// TagEnd is the end of the metadata block.
	TagEnd = "METADATA_END"
)

// Metadata verification errors.
var (
	ErrNoMetadataBlock = errors.New("no metadata block found")
	ErrNoHashFound     = errors.New("no hash found in metadata")
	ErrHashMismatch    = errors.New("hash mismatch")
)

// Metadata records the provenance of one run.
type Metadata struct {
	Source     string
	LastModify time.Time
	Version    string
	Hash       string
	Validation bool
}

var metadataRegex = regexp.MustCompile(`(?s)METADATA_START\s*\n(.*?)\n\s*METADATA_END`)

// New describes a run over input read from source.
func New(input []byte, source, version string, validated bool, now time.Time) *Metadata {
	return &Metadata{
		Source:     filepath.Base(source),
		LastModify: now.UTC().Truncate(time.Second),
		Version:    version,
		Hash:       CalculateHash(input),
		Validation: validated,
	}
}

// CalculateHash computes the SHA-256 hash of the input file.
func CalculateHash(input []byte) string {
	hash := sha256.Sum256(input)

	return hex.EncodeToString(hash[:])
}

// OutputName returns the date-stamped workbook name, e.g. cleaned_leads_24_03_01.xlsx.
func OutputName(prefix, source string, now time.Time) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))

	return fmt.Sprintf("%s%s_%s.xlsx", prefix, base, now.Format("06_01_02"))
}

// String renders the metadata block stored in the workbook description.
func (m *Metadata) String() string {
	valStr := "FALSE"
	if m.Validation {
		valStr = "TRUE"
	}

	return fmt.Sprintf("%s\nSOURCE: %s\nVERSION: %s\nVALIDATION: %s\nLAST_MODIFY: %s\nHASH: %s\n%s",
		TagStart, m.Source, m.Version, valStr, m.LastModify.Format(time.RFC3339), m.Hash, TagEnd)
}

// Extract parses a metadata block out of text.
func Extract(text string) (*Metadata, error) {
	match := metadataRegex.FindStringSubmatch(text)
	if len(match) < 2 {
		return nil, ErrNoMetadataBlock
	}

	meta := &Metadata{}

	for _, line := range strings.Split(match[1], "\n") {
		parts := strings.SplitN(strings.TrimSpace(line), ":", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])

		switch key {
		case "SOURCE":
			meta.Source = val
		case "VERSION":
			meta.Version = val
		case "VALIDATION":
			meta.Validation = strings.EqualFold(val, "TRUE")
		case "LAST_MODIFY":
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				meta.LastModify = t
			}
		case "HASH":
			meta.Hash = val
		}
	}

	return meta, nil
}

// Verify checks that input is the file the metadata was produced from.
func (m *Metadata) Verify(input []byte) error {
	if m.Hash == "" {
		return ErrNoHashFound
	}

	calculated := CalculateHash(input)
	if calculated != m.Hash {
		return fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, m.Hash, calculated)
	}

	return nil
}
