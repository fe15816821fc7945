package core

import (
	"fmt"

	"platemap/pkg/domain"
)

// DefaultChunkCapacity is the number of wells per chunked plate. It is
// independent of the size of any plate the wells were read for.
const DefaultChunkCapacity = 24

// Chunker splits a flat well list into fixed-capacity plates, padding the
// last plate with fresh empty wells.
type Chunker struct {
	registry *domain.Registry
	capacity int
	finalize bool
}

// NewChunker returns a chunker producing plates of capacity wells. Capacity
// must be a supported plate size; zero selects DefaultChunkCapacity. When
// finalize is set every plate's row/column/index fields are recomputed from
// the final chunked position. Otherwise only wells without an index, padding
// included, are given their chunked position.
func NewChunker(reg *domain.Registry, capacity int, finalize bool) (*Chunker, error) {
	if capacity == 0 {
		capacity = DefaultChunkCapacity
	}
	if _, err := domain.DimensionsFor(capacity); err != nil {
		return nil, fmt.Errorf("chunk capacity: %w", err)
	}
	return &Chunker{registry: reg, capacity: capacity, finalize: finalize}, nil
}

// Capacity returns the number of wells per plate.
func (c *Chunker) Capacity() int { return c.capacity }

// PlateCount returns how many plates n wells are split into. It is always
// n/capacity + 1, so a list that fills its plates exactly still gets a
// trailing plate of padding.
func (c *Chunker) PlateCount(n int) int {
	return n/c.capacity + 1
}

// Chunk distributes wells over plates in order. metadata, when non-nil, is
// imported into every plate before its Title is set to "Plate <n>".
func (c *Chunker) Chunk(category domain.Category, wells []*domain.Well, metadata domain.Record) ([]*domain.Plate, error) {
	n, k := len(wells), c.capacity
	count := c.PlateCount(n)
	plates := make([]*domain.Plate, 0, count)
	for p := 0; p < count; p++ {
		plate, err := domain.NewPlate(c.registry, category, k)
		if err != nil {
			return nil, err
		}
		start := p * k
		end := min(start+k, n)
		slice := make([]*domain.Well, 0, k)
		slice = append(slice, wells[start:end]...)
		for len(slice) < k {
			pad, err := domain.NewWell(c.registry, category)
			if err != nil {
				return nil, err
			}
			slice = append(slice, pad)
		}
		if err := plate.ReplaceWells(slice); err != nil {
			return nil, fmt.Errorf("plate %d: %w", p+1, err)
		}
		if c.finalize {
			plate.FinalizeLayout()
		} else {
			plate.FillMissingPositions()
		}
		if metadata != nil {
			if err := plate.ImportRecord(metadata); err != nil {
				return nil, err
			}
		}
		if err := plate.SetField(domain.FieldTitle, fmt.Sprintf("Plate %d", p+1)); err != nil {
			return nil, err
		}
		plates = append(plates, plate)
	}
	return plates, nil
}
