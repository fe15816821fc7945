package domain

import (
	"fmt"
	"maps"
	"sort"
)

// Record is a flat field-name to value mapping. A nil value means unset.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// fieldSet holds the values of one schema-bound entity. Its key set always
// equals the schema's field set.
type fieldSet struct {
	schema Schema
	values map[string]any
}

func newFieldSet(s Schema) fieldSet {
	values := make(map[string]any, s.Len())
	for _, name := range s.fields {
		values[name] = nil
	}
	return fieldSet{schema: s, values: values}
}

func (f *fieldSet) set(name string, value any) error {
	if !f.schema.Has(name) {
		return f.schema.violation(name)
	}
	f.values[name] = value
	return nil
}

func (f *fieldSet) get(name string) (any, error) {
	if !f.schema.Has(name) {
		return nil, f.schema.violation(name)
	}
	return f.values[name], nil
}

func (f *fieldSet) export() Record {
	return Record(maps.Clone(f.values))
}

// importRecord resolves every key before assigning any value so that a
// rejected record leaves the entity untouched.
func (f *fieldSet) importRecord(rec Record) error {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	resolved := make(map[string]string, len(keys))
	seen := make(map[string]string, len(keys))
	for _, k := range keys {
		field, ok := f.schema.Resolve(k)
		if !ok {
			return f.schema.violation(k)
		}
		if prev, dup := seen[field]; dup {
			return fmt.Errorf("%s record keys %q and %q both resolve to field %q", f.schema.kind, prev, k, field)
		}
		seen[field] = k
		resolved[k] = field
	}
	for _, k := range keys {
		f.values[resolved[k]] = rec[k]
	}
	return nil
}
