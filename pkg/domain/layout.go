package domain

import (
	"fmt"
	"sort"
	"strconv"
)

// Dimensions is the row/column shape of a plate.
type Dimensions struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

var plateDimensions = map[int]Dimensions{
	6:   {Rows: 2, Cols: 3},
	12:  {Rows: 3, Cols: 4},
	24:  {Rows: 4, Cols: 6},
	48:  {Rows: 6, Cols: 8},
	96:  {Rows: 8, Cols: 12},
	384: {Rows: 16, Cols: 24},
}

// SupportedSizes returns the supported plate sizes in ascending order.
func SupportedSizes() []int {
	out := make([]int, 0, len(plateDimensions))
	for size := range plateDimensions {
		out = append(out, size)
	}
	sort.Ints(out)
	return out
}

// DimensionsFor returns the shape of a plate of the given size.
func DimensionsFor(size int) (Dimensions, error) {
	d, ok := plateDimensions[size]
	if !ok {
		return Dimensions{}, ErrInvalidSize{Size: size}
	}
	return d, nil
}

// Position is the location of a well within the canonical layout.
type Position struct {
	Row    string `json:"row"`
	Column int    `json:"column"`
	Index  string `json:"index"`
}

// RowLabel returns the letter for a zero-based row number: 0 -> "A".
func RowLabel(row int) string {
	return string(rune('A' + row))
}

// PositionAt maps the zero-based position i of a plate of the given size onto
// its row letter, column number and index. Positions fill row A first, then
// row B, and so on.
func PositionAt(size, i int) (Position, error) {
	d, err := DimensionsFor(size)
	if err != nil {
		return Position{}, err
	}
	if i < 0 || i >= size {
		return Position{}, fmt.Errorf("position %d out of range for plate size %d", i, size)
	}
	return d.position(i), nil
}

func (d Dimensions) position(i int) Position {
	row := RowLabel(i / d.Cols)
	col := i%d.Cols + 1
	return Position{Row: row, Column: col, Index: row + strconv.Itoa(col)}
}

// Layout returns every position of a plate of the given size in order.
func Layout(size int) ([]Position, error) {
	d, err := DimensionsFor(size)
	if err != nil {
		return nil, err
	}
	out := make([]Position, size)
	for i := range out {
		out[i] = d.position(i)
	}
	return out, nil
}
