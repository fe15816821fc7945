package domain

import (
	"fmt"
)

// Grid is a row/column matrix of one well attribute. Cells[r][c] holds the
// attribute of the well at position r*len(Columns)+c.
type Grid struct {
	Attribute string   `json:"attribute" yaml:"attribute"`
	Rows      []string `json:"rows" yaml:"rows"`
	Columns   []int    `json:"columns" yaml:"columns"`
	Cells     [][]any  `json:"cells" yaml:"cells"`
}

// Flatten returns the cells in row-major order.
func (g Grid) Flatten() []any {
	out := make([]any, 0, len(g.Rows)*len(g.Columns))
	for _, row := range g.Cells {
		out = append(out, row...)
	}
	return out
}

// IndexedValue pairs a well index with one attribute value.
type IndexedValue struct {
	Index string `json:"index" yaml:"index"`
	Value any    `json:"value" yaml:"value"`
}

// RecordTable holds every field of every well keyed by well index. Indexes
// preserves plate order and Fields the schema order.
type RecordTable struct {
	Fields  []string          `json:"fields" yaml:"fields"`
	Indexes []string          `json:"indexes" yaml:"indexes"`
	Records map[string]Record `json:"records" yaml:"records"`
}

// Row returns the record for a well index.
func (t RecordTable) Row(index string) (Record, bool) {
	rec, ok := t.Records[index]
	return rec, ok
}

func (p *Plate) attributeValues(attr string) ([]any, error) {
	s, err := p.wellSchema()
	if err != nil {
		return nil, err
	}
	if !s.Has(attr) {
		return nil, s.violation(attr)
	}
	out := make([]any, len(p.wells))
	for i, w := range p.wells {
		v, err := w.GetField(attr)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (p *Plate) wellSchema() (Schema, error) {
	if len(p.wells) > 0 {
		return p.wells[0].Schema(), nil
	}
	return Schema{}, fmt.Errorf("plate has no wells")
}

// GridView arranges one attribute of every well into the plate's row/column
// shape.
func (p *Plate) GridView(attr string) (Grid, error) {
	values, err := p.attributeValues(attr)
	if err != nil {
		return Grid{}, err
	}
	g := Grid{
		Attribute: attr,
		Rows:      make([]string, p.dims.Rows),
		Columns:   make([]int, p.dims.Cols),
		Cells:     make([][]any, p.dims.Rows),
	}
	for c := range g.Columns {
		g.Columns[c] = c + 1
	}
	for r := range g.Rows {
		g.Rows[r] = RowLabel(r)
		lo, hi := r*p.dims.Cols, (r+1)*p.dims.Cols
		g.Cells[r] = values[lo:hi:hi]
	}
	return g, nil
}

// AttributeTable lists (index, attribute) pairs in plate order.
func (p *Plate) AttributeTable(attr string) ([]IndexedValue, error) {
	values, err := p.attributeValues(attr)
	if err != nil {
		return nil, err
	}
	out := make([]IndexedValue, len(p.wells))
	for i, w := range p.wells {
		out[i] = IndexedValue{Index: indexOf(w), Value: values[i]}
	}
	return out, nil
}

// FullRecordTable exports every well keyed by its index. Two wells resolving
// to the same index fail with ErrDuplicateIndex.
func (p *Plate) FullRecordTable() (RecordTable, error) {
	s, err := p.wellSchema()
	if err != nil {
		return RecordTable{}, err
	}
	t := RecordTable{
		Fields:  s.Fields(),
		Indexes: make([]string, 0, len(p.wells)),
		Records: make(map[string]Record, len(p.wells)),
	}
	for _, w := range p.wells {
		idx := indexOf(w)
		if _, dup := t.Records[idx]; dup {
			return RecordTable{}, ErrDuplicateIndex{Index: idx}
		}
		t.Indexes = append(t.Indexes, idx)
		t.Records[idx] = w.ExportRecord()
	}
	return t, nil
}

func indexOf(w *Well) string {
	return FormatValue(w.values[FieldIndex])
}

// FormatValue renders a field value as text; unset values render empty.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
