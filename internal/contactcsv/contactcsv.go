// Package contactcsv maps contact records onto CSV files for import and
// export. The HTTP import/export endpoints and the contact CLI share it.
package contactcsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kontaktio/kontakt/internal/models"
)

// Header is the canonical column order for exports and unmapped imports.
var Header = []string{
	"first_name", "last_name", "email", "phone", "company", "title",
	"source", "industry", "region", "segment", "score", "notes",
}

// RowError describes a rejected import row. Line is 1-based and counts the
// header row, matching what a user sees in a spreadsheet.
type RowError struct {
	Line int
	Err  string
}

func (e RowError) String() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Err)
}

// Read parses CSV contact rows. The first row must be a header; columns are
// matched to contact fields by name after applying the optional mapping
// (CSV header -> contact field). Rows failing validation are reported in the
// second return value rather than aborting the whole file.
func Read(r io.Reader, mapping Mapping) ([]models.ContactInput, []RowError, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	headerRow, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	fieldIndex := make(map[string]int, len(headerRow))
	for i, name := range headerRow {
		field := normalizeHeader(name)
		if mapped, ok := mapping[field]; ok {
			field = mapped
		}
		if isKnownField(field) {
			fieldIndex[field] = i
		}
	}
	if _, ok := fieldIndex["email"]; !ok {
		return nil, nil, fmt.Errorf("CSV header has no email column")
	}

	var (
		inputs  []models.ContactInput
		rowErrs []RowError
		line    = 1 // header
	)

	for {
		record, err := reader.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err.Error()})
			continue
		}

		input, err := recordToInput(record, fieldIndex)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err.Error()})
			continue
		}
		if err := input.Validate(); err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err.Error()})
			continue
		}

		inputs = append(inputs, input)
	}

	return inputs, rowErrs, nil
}

func recordToInput(record []string, fieldIndex map[string]int) (models.ContactInput, error) {
	get := func(field string) string {
		idx, ok := fieldIndex[field]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	input := models.ContactInput{
		FirstName: get("first_name"),
		LastName:  get("last_name"),
		Email:     get("email"),
		Phone:     get("phone"),
		Company:   get("company"),
		Title:     get("title"),
		Source:    get("source"),
		Industry:  get("industry"),
		Region:    get("region"),
		Segment:   get("segment"),
		Notes:     get("notes"),
	}

	if raw := get("score"); raw != "" {
		score, err := strconv.Atoi(raw)
		if err != nil {
			return input, fmt.Errorf("invalid score: %q", raw)
		}
		input.Score = score
	}

	return input, nil
}

// Writer emits contacts as CSV rows one at a time, so callers can stream
// large exports without holding the whole table in memory.
type Writer struct {
	csv *csv.Writer
}

// NewWriter wraps w and writes the canonical header immediately.
func NewWriter(w io.Writer) (*Writer, error) {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	return &Writer{csv: writer}, nil
}

// WriteContact appends one contact row.
func (w *Writer) WriteContact(c *models.Contact) error {
	record := []string{
		c.FirstName, c.LastName, c.Email, c.Phone, c.Company, c.Title,
		c.Source, c.Industry, c.Region, c.Segment, strconv.Itoa(c.Score), c.Notes,
	}
	if err := w.csv.Write(record); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}
	return nil
}

// Flush drains buffered rows to the underlying writer.
func (w *Writer) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}

// Write emits contacts as CSV with the canonical header.
func Write(w io.Writer, contacts []models.Contact) error {
	writer, err := NewWriter(w)
	if err != nil {
		return err
	}

	for i := range contacts {
		if err := writer.WriteContact(&contacts[i]); err != nil {
			return err
		}
	}

	return writer.Flush()
}

func normalizeHeader(name string) string {
	cleaned := strings.TrimPrefix(name, "\ufeff") // BOM on the first column
	cleaned = strings.ToLower(strings.TrimSpace(cleaned))
	return strings.ReplaceAll(cleaned, " ", "_")
}

func isKnownField(field string) bool {
	for _, known := range Header {
		if field == known {
			return true
		}
	}
	return false
}
