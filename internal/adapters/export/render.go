// Package export renders plate views as CSV, JSON or YAML artifacts and
// stores them in a blob store.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"platemap/internal/ingest"
	"platemap/pkg/domain"
)

// Format names an artifact encoding.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatCSV, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	default:
		return "application/octet-stream"
	}
}

// attributeRow is the serialised form of one attribute-table entry.
type attributeRow struct {
	Index string `json:"index" yaml:"index"`
	Value any    `json:"value" yaml:"value"`
}

// RenderGrid encodes a grid view. The CSV form has a blank corner cell,
// column numbers across the top and row letters down the side.
func RenderGrid(g domain.Grid, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		rows := make([][]string, 0, len(g.Rows)+1)
		header := make([]string, 0, len(g.Columns)+1)
		header = append(header, "")
		for _, c := range g.Columns {
			header = append(header, strconv.Itoa(c))
		}
		rows = append(rows, header)
		for r, label := range g.Rows {
			row := make([]string, 0, len(g.Columns)+1)
			row = append(row, label)
			for _, v := range g.Cells[r] {
				row = append(row, domain.FormatValue(v))
			}
			rows = append(rows, row)
		}
		return writeCSV(rows)
	default:
		return marshal(g, f)
	}
}

// RenderAttributeTable encodes (index, value) pairs under the attribute name.
func RenderAttributeTable(attr string, table []domain.IndexedValue, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		rows := make([][]string, 0, len(table)+1)
		rows = append(rows, []string{domain.FieldIndex, attr})
		for _, e := range table {
			rows = append(rows, []string{e.Index, domain.FormatValue(e.Value)})
		}
		return writeCSV(rows)
	default:
		out := make([]attributeRow, len(table))
		for i, e := range table {
			out[i] = attributeRow(e)
		}
		return marshal(map[string]any{"attribute": attr, "values": out}, f)
	}
}

// RenderRecordTable encodes every field of every well. The CSV form has one
// column per schema field and one row per well in plate order.
func RenderRecordTable(t domain.RecordTable, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return writeCSV(recordRows(t))
	default:
		return marshal(t, f)
	}
}

// RenderDocument writes a plate back out in the two-section input format so
// it can be imported again. Every well row carries all schema columns, so a
// sample named like a section marker is still read back as data.
func RenderDocument(p *domain.Plate) ([]byte, error) {
	t, err := p.FullRecordTable()
	if err != nil {
		return nil, err
	}
	meta := p.ExportRecord()
	fields := p.Schema().Fields()
	values := make([]string, len(fields))
	for i, name := range fields {
		values[i] = domain.FormatValue(meta[name])
	}
	rows := [][]string{{ingest.MarkerMetadata}, fields, values, {ingest.MarkerPlateData}}
	rows = append(rows, recordRows(t)...)
	return writeCSV(rows)
}

func recordRows(t domain.RecordTable) [][]string {
	rows := make([][]string, 0, len(t.Indexes)+1)
	rows = append(rows, t.Fields)
	for _, idx := range t.Indexes {
		rec := t.Records[idx]
		row := make([]string, len(t.Fields))
		for i, name := range t.Fields {
			row[i] = domain.FormatValue(rec[name])
		}
		rows = append(rows, row)
	}
	return rows
}

func writeCSV(rows [][]string) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func marshal(v any, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal json: %w", err)
		}
		return b, nil
	case FormatYAML:
		b, err := yaml.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal yaml: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", f)
	}
}
