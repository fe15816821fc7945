// Package domain defines the plate-map data model: the schema registry that
// decides which fields a well or plate may carry, the canonical plate layout,
// and the Well and Plate records together with their tabular views.
package domain

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
)

// EntityKind identifies which record type a schema applies to.
type EntityKind string

const (
	// EntityWell identifies a single sample slot.
	EntityWell EntityKind = "well"
	// EntityPlate identifies plate-level metadata.
	EntityPlate EntityKind = "plate"
)

// Category selects the optional fields that apply to a well or plate. The
// zero value is the generic category and carries only the default fields.
type Category string

// Built-in categories.
const (
	CategoryNone       Category = ""
	CategoryPCR        Category = "pcr"
	CategoryGDNA       Category = "gdna"
	CategoryKingfisher Category = "kingfisher"
	CategoryQuantIT    Category = "quantit"
	CategoryP7Index    Category = "p7 index"
	CategoryP5Index    Category = "p5 index"
)

// Default well fields.
const (
	FieldSampleName = "sample_name"
	FieldRow        = "row"
	FieldColumn     = "column"
	FieldIndex      = "index"
)

// Default plate fields.
const (
	FieldScreen = "screen"
	FieldDate   = "date"
	FieldTitle  = "Title"
)

var builtinDefaults = map[EntityKind][]string{
	EntityWell:  {FieldSampleName, FieldRow, FieldColumn, FieldIndex},
	EntityPlate: {FieldScreen, FieldDate, FieldTitle},
}

var builtinCategories = map[EntityKind]map[Category][]string{
	EntityWell: {
		CategoryPCR:        {"primer", "lysate_concentration", "reaction_volume", "cycles", "ct_value"},
		CategoryGDNA:       {"concentration", "concentration_unit", "volume", "a260_280", "a260_230"},
		CategoryKingfisher: {"mouse_id", "tattoo_number", "cage", "sex", "genotype", "organ", "organ_weight", "treatment", "collection_date"},
		CategoryQuantIT:    {"fluorescence", "standard", "dilution_factor", "concentration", "concentration_unit"},
		CategoryP7Index:    {"p7_name", "p7_sequence", "p7_barcode"},
		CategoryP5Index:    {"p5_name", "p5_sequence", "p5_barcode"},
	},
	EntityPlate: {
		CategoryPCR:        {"primer_set", "thermocycler_program", "operator"},
		CategoryGDNA:       {"extraction_kit", "operator"},
		CategoryKingfisher: {"protocol", "operator", "instrument"},
		CategoryQuantIT:    {"standard_curve", "reader", "operator"},
		CategoryP7Index:    {"index_kit", "lot"},
		CategoryP5Index:    {"index_kit", "lot"},
	},
}

// CategoryDefinition extends the registry with extra fields for a category.
// Definitions for an existing category add fields to it; definitions for a
// new category register it.
type CategoryDefinition struct {
	Kind   EntityKind `mapstructure:"kind" yaml:"kind" json:"kind"`
	Name   Category   `mapstructure:"name" yaml:"name" json:"name"`
	Fields []string   `mapstructure:"fields" yaml:"fields" json:"fields"`
}

// Schema is the immutable set of legal field names for one (kind, category)
// pair. Field order follows declaration order, defaults first.
type Schema struct {
	kind     EntityKind
	category Category
	fields   []string
	lookup   map[string]string // lower-cased name -> declared name
}

func newSchema(kind EntityKind, category Category, defaults, extra []string) (Schema, error) {
	s := Schema{
		kind:     kind,
		category: category,
		fields:   make([]string, 0, len(defaults)+len(extra)),
		lookup:   make(map[string]string, len(defaults)+len(extra)),
	}
	for _, name := range slices.Concat(defaults, extra) {
		if strings.TrimSpace(name) == "" {
			return Schema{}, fmt.Errorf("%s category %q: empty field name", kind, category)
		}
		key := strings.ToLower(name)
		if existing, ok := s.lookup[key]; ok {
			if existing == name {
				continue
			}
			return Schema{}, fmt.Errorf("%s category %q: fields %q and %q differ only by case", kind, category, existing, name)
		}
		s.lookup[key] = name
		s.fields = append(s.fields, name)
	}
	return s, nil
}

// Kind returns the entity kind the schema applies to.
func (s Schema) Kind() EntityKind { return s.kind }

// Category returns the category the schema was resolved for.
func (s Schema) Category() Category { return s.category }

// Fields returns the field names in declaration order.
func (s Schema) Fields() []string { return slices.Clone(s.fields) }

// Len returns the number of fields in the schema.
func (s Schema) Len() int { return len(s.fields) }

// Has reports whether name is a field of the schema (exact match).
func (s Schema) Has(name string) bool {
	declared, ok := s.lookup[strings.ToLower(name)]
	return ok && declared == name
}

// Resolve maps name case-insensitively onto its declared field name.
func (s Schema) Resolve(name string) (string, bool) {
	declared, ok := s.lookup[strings.ToLower(strings.TrimSpace(name))]
	return declared, ok
}

func (s Schema) violation(field string) ErrSchemaViolation {
	return ErrSchemaViolation{Kind: s.kind, Category: s.category, Field: field}
}

// Registry maps (entity kind, category) onto a Schema. A Registry is built
// once and never mutated afterwards, so it is safe to share.
type Registry struct {
	generic map[EntityKind]Schema
	schemas map[EntityKind]map[Category]Schema
}

// NewRegistry builds a registry from the built-in categories merged with the
// supplied definitions.
func NewRegistry(extra ...CategoryDefinition) (*Registry, error) {
	merged := make(map[EntityKind]map[Category][]string, len(builtinCategories))
	for kind, categories := range builtinCategories {
		merged[kind] = make(map[Category][]string, len(categories))
		for category, fields := range categories {
			merged[kind][category] = slices.Clone(fields)
		}
	}
	for _, def := range extra {
		if _, ok := builtinDefaults[def.Kind]; !ok {
			return nil, fmt.Errorf("category definition %q: unknown entity kind %q", def.Name, def.Kind)
		}
		if strings.TrimSpace(string(def.Name)) == "" {
			return nil, fmt.Errorf("%s category definition: name required", def.Kind)
		}
		merged[def.Kind][def.Name] = append(merged[def.Kind][def.Name], def.Fields...)
	}

	r := &Registry{
		generic: make(map[EntityKind]Schema, len(builtinDefaults)),
		schemas: make(map[EntityKind]map[Category]Schema, len(merged)),
	}
	for kind, defaults := range builtinDefaults {
		s, err := newSchema(kind, CategoryNone, defaults, nil)
		if err != nil {
			return nil, err
		}
		r.generic[kind] = s
		r.schemas[kind] = make(map[Category]Schema, len(merged[kind]))
		for category, fields := range merged[kind] {
			s, err := newSchema(kind, category, defaults, fields)
			if err != nil {
				return nil, err
			}
			r.schemas[kind][category] = s
		}
	}
	return r, nil
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := NewRegistry()
	if err != nil {
		panic(fmt.Sprintf("domain: built-in schema invalid: %v", err))
	}
	return r
})

// DefaultRegistry returns the shared registry holding only built-in categories.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

// SchemaFor returns the schema for kind and category. The generic category
// resolves to the default fields only.
func (r *Registry) SchemaFor(kind EntityKind, category Category) (Schema, error) {
	if r == nil {
		r = DefaultRegistry()
	}
	if category == CategoryNone {
		s, ok := r.generic[kind]
		if !ok {
			return Schema{}, ErrUnknownCategory{Kind: kind, Category: category}
		}
		return s, nil
	}
	s, ok := r.schemas[kind][category]
	if !ok {
		return Schema{}, ErrUnknownCategory{Kind: kind, Category: category}
	}
	return s, nil
}

// Categories lists the registered categories for kind in lexical order.
func (r *Registry) Categories(kind EntityKind) []Category {
	if r == nil {
		r = DefaultRegistry()
	}
	out := make([]Category, 0, len(r.schemas[kind]))
	for category := range r.schemas[kind] {
		out = append(out, category)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
