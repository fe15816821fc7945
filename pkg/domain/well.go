package domain

// Well is a single sample record. Its field set is fixed by the schema of its
// category at construction and never grows or shrinks.
type Well struct {
	fieldSet
}

// NewWell constructs a well with every schema field unset. A nil registry
// resolves against DefaultRegistry.
func NewWell(reg *Registry, category Category) (*Well, error) {
	s, err := reg.SchemaFor(EntityWell, category)
	if err != nil {
		return nil, err
	}
	return &Well{fieldSet: newFieldSet(s)}, nil
}

// Category returns the category the well was constructed with.
func (w *Well) Category() Category { return w.schema.category }

// Schema returns the well's schema.
func (w *Well) Schema() Schema { return w.schema }

// SetField overwrites a field value. Values are not type checked.
func (w *Well) SetField(name string, value any) error { return w.set(name, value) }

// GetField returns the current value of a field, nil when unset.
func (w *Well) GetField(name string) (any, error) { return w.get(name) }

// ExportRecord returns a snapshot of every field.
func (w *Well) ExportRecord() Record { return w.export() }

// ImportRecord assigns every key of rec to the field it names, matching key
// names case-insensitively. An unknown key rejects the whole record.
func (w *Well) ImportRecord(rec Record) error { return w.importRecord(rec) }

func (w *Well) setPosition(p Position) {
	w.values[FieldRow] = p.Row
	w.values[FieldColumn] = p.Column
	w.values[FieldIndex] = p.Index
}
