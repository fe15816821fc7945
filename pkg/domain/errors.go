package domain

import "fmt"

// ErrUnknownCategory is returned when a category has no schema registered for
// the requested entity kind.
type ErrUnknownCategory struct {
	Kind     EntityKind
	Category Category
}

func (e ErrUnknownCategory) Error() string {
	return fmt.Sprintf("%s category %q not registered", e.Kind, e.Category)
}

// ErrSchemaViolation is returned when a field name is not part of the schema
// of the entity it is read from, written to, or imported into.
type ErrSchemaViolation struct {
	Kind     EntityKind
	Category Category
	Field    string
}

func (e ErrSchemaViolation) Error() string {
	if e.Category == "" {
		return fmt.Sprintf("%s field %q not in schema", e.Kind, e.Field)
	}
	return fmt.Sprintf("%s field %q not in schema for category %q", e.Kind, e.Field, e.Category)
}

// ErrInvalidSize is returned for plate sizes outside the supported set.
type ErrInvalidSize struct {
	Size int
}

func (e ErrInvalidSize) Error() string {
	return fmt.Sprintf("unsupported plate size %d (supported: %v)", e.Size, SupportedSizes())
}

// ErrMalformedInput is returned when an input document lacks a required
// section or header row.
type ErrMalformedInput struct {
	Reason string
}

func (e ErrMalformedInput) Error() string {
	return "malformed input: " + e.Reason
}

// ErrDuplicateIndex is returned when two wells of one plate resolve to the
// same index while building a record table.
type ErrDuplicateIndex struct {
	Index string
}

func (e ErrDuplicateIndex) Error() string {
	return fmt.Sprintf("duplicate well index %q", e.Index)
}
