// Package ingest reads delimited contact exports into tables.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lwilliamskeiter/leads-reformat/internal/models"
	"github.com/lwilliamskeiter/leads-reformat/pkg/utils"
)

// ErrEmptyInput indicates a file without a header row.
var ErrEmptyInput = errors.New("input has no header row")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Reader loads CSV exports, trimming every cell and blanking missing-value sentinels.
type Reader struct {
	strings *utils.StringHelper
	comma   rune
}

// NewReader creates a comma-delimited reader.
func NewReader() *Reader {
	return &Reader{
		strings: utils.NewStringHelper(),
		comma:   ',',
	}
}

// NewReaderWithDelimiter creates a reader for another single-rune delimiter.
func NewReaderWithDelimiter(comma rune) *Reader {
	r := NewReader()
	r.comma = comma

	return r
}

// Read parses a whole export from r.
func (r *Reader) Read(src io.Reader) (*models.Table, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	return r.parse(bytes.TrimPrefix(data, utf8BOM))
}

// ReadFile parses the export at filePath.
func (r *Reader) ReadFile(filePath string) (*models.Table, error) {
	tbl, _, _, err := r.ReadFileWithMetrics(filePath)

	return tbl, err
}

// ReadFileWithMetrics returns (table, fileSize, duration, error).
func (r *Reader) ReadFileWithMetrics(filePath string) (*models.Table, int64, time.Duration, error) {
	startTime := time.Now()

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, 0, time.Since(startTime), fmt.Errorf("failed to stat file %s: %w", filePath, err)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, 0, time.Since(startTime), fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer f.Close()

	tbl, err := r.Read(f)
	duration := time.Since(startTime)

	if err != nil {
		return nil, 0, duration, fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	return tbl, fileInfo.Size(), duration, nil
}

func (r *Reader) parse(data []byte) (*models.Table, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = r.comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}

	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	for i, h := range header {
		header[i] = r.strings.NormalizeWhitespace(h)
	}

	tbl := models.NewTable(header)

	for line := 2; ; line++ {
		record, readErr := cr.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}

		if readErr != nil {
			return nil, fmt.Errorf("failed to parse line %d: %w", line, readErr)
		}

		row := make(models.Row, len(header))
		for i := 0; i < len(header) && i < len(record); i++ {
			row[i] = r.strings.CleanCell(record[i])
		}

		tbl.Rows = append(tbl.Rows, row)
	}

	return tbl, nil
}
