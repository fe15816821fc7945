package domain

import "fmt"

// Plate is an ordered, fixed-size collection of wells plus plate-level
// metadata. The plate owns its wells.
type Plate struct {
	fieldSet
	size  int
	dims  Dimensions
	wells []*Well
}

// NewPlate constructs a plate of the given size whose wells all belong to
// category. Every well gets its row, column and index from the canonical
// layout.
func NewPlate(reg *Registry, category Category, size int) (*Plate, error) {
	dims, err := DimensionsFor(size)
	if err != nil {
		return nil, err
	}
	s, err := reg.SchemaFor(EntityPlate, category)
	if err != nil {
		return nil, err
	}
	p := &Plate{
		fieldSet: newFieldSet(s),
		size:     size,
		dims:     dims,
		wells:    make([]*Well, size),
	}
	for i := range p.wells {
		w, err := NewWell(reg, category)
		if err != nil {
			return nil, err
		}
		w.setPosition(dims.position(i))
		p.wells[i] = w
	}
	return p, nil
}

// Category returns the plate's category.
func (p *Plate) Category() Category { return p.schema.category }

// Size returns the number of wells.
func (p *Plate) Size() int { return p.size }

// Dimensions returns the plate's row/column shape.
func (p *Plate) Dimensions() Dimensions { return p.dims }

// Schema returns the plate-level schema.
func (p *Plate) Schema() Schema { return p.schema }

// SetField sets a plate-level metadata field.
func (p *Plate) SetField(name string, value any) error { return p.set(name, value) }

// GetField reads a plate-level metadata field.
func (p *Plate) GetField(name string) (any, error) { return p.get(name) }

// ExportRecord returns a snapshot of the plate-level metadata.
func (p *Plate) ExportRecord() Record { return p.export() }

// ImportRecord assigns plate-level metadata, matching keys case-insensitively.
func (p *Plate) ImportRecord(rec Record) error { return p.importRecord(rec) }

// Wells returns the wells in position order. The slice is a copy; the wells
// are not.
func (p *Plate) Wells() []*Well {
	out := make([]*Well, len(p.wells))
	copy(out, p.wells)
	return out
}

// Well returns the well at position i.
func (p *Plate) Well(i int) (*Well, error) {
	if i < 0 || i >= len(p.wells) {
		return nil, fmt.Errorf("well position %d out of range for plate size %d", i, p.size)
	}
	return p.wells[i], nil
}

// ReplaceWells swaps the plate's wells for the supplied list. The list must
// hold exactly Size wells of the plate's category, each a distinct value.
// Position fields are left untouched; call FinalizeLayout to recompute them.
func (p *Plate) ReplaceWells(wells []*Well) error {
	if len(wells) != p.size {
		return fmt.Errorf("plate of size %d cannot hold %d wells", p.size, len(wells))
	}
	seen := make(map[*Well]int, len(wells))
	for i, w := range wells {
		if w == nil {
			return fmt.Errorf("well at position %d is nil", i)
		}
		if w.Category() != p.Category() {
			return fmt.Errorf("well at position %d has category %q, plate has %q", i, w.Category(), p.Category())
		}
		if prev, ok := seen[w]; ok {
			return fmt.Errorf("well at position %d is the same well as position %d", i, prev)
		}
		seen[w] = i
	}
	p.wells = make([]*Well, len(wells))
	copy(p.wells, wells)
	return nil
}

// FinalizeLayout recomputes row, column and index of every well from its
// current position.
func (p *Plate) FinalizeLayout() {
	for i, w := range p.wells {
		w.setPosition(p.dims.position(i))
	}
}

// FillMissingPositions gives every well without an index the next canonical
// position, in layout order, that no other well of the plate already claims.
// Wells that carry an index keep it.
func (p *Plate) FillMissingPositions() {
	used := make(map[string]bool, len(p.wells))
	for _, w := range p.wells {
		if idx := indexOf(w); idx != "" {
			used[idx] = true
		}
	}
	next := 0
	for i, w := range p.wells {
		if indexOf(w) != "" {
			continue
		}
		for next < p.size && used[p.dims.position(next).Index] {
			next++
		}
		pos := p.dims.position(i)
		if next < p.size {
			pos = p.dims.position(next)
			next++
		}
		used[pos.Index] = true
		w.setPosition(pos)
	}
}
