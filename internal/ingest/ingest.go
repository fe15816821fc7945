// Package ingest parses two-section plate documents: a "metadata" section
// holding one record of plate-level fields and a "plate_data" section holding
// one row per well.
package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"platemap/pkg/domain"
)

// Section markers recognised in the first column.
const (
	MarkerMetadata  = "metadata"
	MarkerPlateData = "plate_data"
)

// Result is the outcome of parsing one document. Wells are in document order
// and are not yet assigned to plates.
type Result struct {
	Metadata map[string]string
	Headers  []string
	Wells    []*domain.Well
}

// Options tune how the document is read.
type Options struct {
	// Comma is the field delimiter; zero means ','.
	Comma rune
}

type section int

const (
	sectionNone section = iota
	sectionMetadata
	sectionPlateData
)

// Parse reads r to completion and builds one well of category per plate_data
// row. Any error aborts the whole parse; no partial result is returned.
func Parse(r io.Reader, reg *domain.Registry, category domain.Category) (Result, error) {
	return ParseWithOptions(r, reg, category, Options{})
}

// ParseWithOptions is Parse with explicit reader options.
func ParseWithOptions(r io.Reader, reg *domain.Registry, category domain.Category, opts Options) (Result, error) {
	metaRows, dataRows, err := splitSections(r, opts)
	if err != nil {
		return Result{}, err
	}
	metadata, err := parseMetadata(metaRows)
	if err != nil {
		return Result{}, err
	}
	headers, wells, err := parseWells(dataRows, reg, category)
	if err != nil {
		return Result{}, err
	}
	return Result{Metadata: metadata, Headers: headers, Wells: wells}, nil
}

// utf8BOM is written at the start of "CSV UTF-8" spreadsheet exports.
const utf8BOM = "\ufeff"

// skipBOM drops a leading UTF-8 byte order mark.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && string(b) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

func splitSections(r io.Reader, opts Options) (meta, data [][]string, err error) {
	reader := csv.NewReader(skipBOM(r))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}
	current := sectionNone
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read document: %w", err)
		}
		if blankRow(row) {
			continue
		}
		switch markerOf(row) {
		case MarkerMetadata:
			current = sectionMetadata
			continue
		case MarkerPlateData:
			current = sectionPlateData
			continue
		}
		switch current {
		case sectionMetadata:
			meta = append(meta, row)
		case sectionPlateData:
			data = append(data, row)
		}
	}
	return meta, data, nil
}

// markerOf returns the section marker a row holds, or "". A marker must be
// the only non-empty cell of its row, so a well named "metadata" in a
// multi-column plate_data row stays data.
func markerOf(row []string) string {
	if !blankRow(row[1:]) {
		return ""
	}
	switch marker := strings.TrimSpace(row[0]); {
	case strings.EqualFold(marker, MarkerMetadata):
		return MarkerMetadata
	case strings.EqualFold(marker, MarkerPlateData):
		return MarkerPlateData
	}
	return ""
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseMetadata pairs the header row with the first value row. Only one
// metadata record is supported; further rows are ignored.
func parseMetadata(rows [][]string) (map[string]string, error) {
	if len(rows) < 2 {
		return nil, domain.ErrMalformedInput{Reason: fmt.Sprintf("metadata section needs a header and a value row, found %d rows", len(rows))}
	}
	header, values := trimRow(rows[0]), rows[1]
	out := make(map[string]string, len(header))
	for i, name := range header {
		var value string
		if i < len(values) {
			value = strings.TrimSpace(values[i])
		}
		if name == "" {
			if value != "" {
				return nil, domain.ErrMalformedInput{Reason: fmt.Sprintf("metadata value %q in column %d has no field name", value, i+1)}
			}
			continue
		}
		if _, dup := out[name]; dup {
			return nil, domain.ErrMalformedInput{Reason: fmt.Sprintf("metadata field %q repeated", name)}
		}
		out[name] = value
	}
	return out, nil
}

func parseWells(rows [][]string, reg *domain.Registry, category domain.Category) ([]string, []*domain.Well, error) {
	if len(rows) < 1 {
		return nil, nil, domain.ErrMalformedInput{Reason: "plate_data section has no header row"}
	}
	header := trimTrailingEmpty(trimRow(rows[0]))
	seen := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(name)
		if prev, dup := seen[key]; dup {
			return nil, nil, domain.ErrMalformedInput{Reason: fmt.Sprintf("plate_data columns %d and %d share header %q", prev+1, i+1, name)}
		}
		seen[key] = i
	}

	wells := make([]*domain.Well, 0, len(rows)-1)
	for n, row := range rows[1:] {
		rec, err := rowRecord(header, row, n+1)
		if err != nil {
			return nil, nil, err
		}
		w, err := domain.NewWell(reg, category)
		if err != nil {
			return nil, nil, err
		}
		if err := w.ImportRecord(rec); err != nil {
			return nil, nil, fmt.Errorf("plate_data row %d: %w", n+1, err)
		}
		wells = append(wells, w)
	}
	return header, wells, nil
}

// rowRecord maps a data row onto the header. Empty cells stay unset.
func rowRecord(header, row []string, line int) (domain.Record, error) {
	rec := make(domain.Record, len(header))
	for i, name := range header {
		rec[name] = nil
		if i < len(row) {
			if v := strings.TrimSpace(row[i]); v != "" {
				rec[name] = v
			}
		}
	}
	for i := len(header); i < len(row); i++ {
		if strings.TrimSpace(row[i]) != "" {
			return nil, domain.ErrMalformedInput{Reason: fmt.Sprintf("plate_data row %d has a value in column %d beyond the header", line, i+1)}
		}
	}
	return rec, nil
}

func trimRow(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = strings.TrimSpace(cell)
	}
	return out
}

func trimTrailingEmpty(row []string) []string {
	end := len(row)
	for end > 0 && row[end-1] == "" {
		end--
	}
	return row[:end]
}
