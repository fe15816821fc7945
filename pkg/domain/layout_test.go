package domain

import (
	"errors"
	"slices"
	"testing"
)

func TestDimensionsTable(t *testing.T) {
	want := map[int]Dimensions{6: {2, 3}, 12: {3, 4}, 24: {4, 6}, 48: {6, 8}, 96: {8, 12}, 384: {16, 24}}
	for size, dims := range want {
		got, err := DimensionsFor(size)
		if err != nil {
			t.Fatalf("size %d: %v", size, err)
		}
		if got != dims {
			t.Fatalf("size %d: expected %v got %v", size, dims, got)
		}
		if got.Rows*got.Cols != size {
			t.Fatalf("size %d: dims do not multiply out", size)
		}
	}
	if !slices.Equal(SupportedSizes(), []int{6, 12, 24, 48, 96, 384}) {
		t.Fatalf("unexpected supported sizes %v", SupportedSizes())
	}
}

func TestDimensionsForInvalidSize(t *testing.T) {
	for _, size := range []int{0, 1, 25, 95, -96} {
		_, err := DimensionsFor(size)
		var invalid ErrInvalidSize
		if !errors.As(err, &invalid) || invalid.Size != size {
			t.Fatalf("size %d: expected ErrInvalidSize, got %v", size, err)
		}
	}
}

func TestLayoutSize12(t *testing.T) {
	positions, err := Layout(12)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	want := []string{"A1", "A2", "A3", "A4", "B1", "B2", "B3", "B4", "C1", "C2", "C3", "C4"}
	for i, p := range positions {
		if p.Index != want[i] {
			t.Fatalf("position %d: expected %s got %s", i, want[i], p.Index)
		}
	}
}

func TestPositionAt(t *testing.T) {
	cases := []struct {
		size, i int
		want    Position
	}{
		{96, 0, Position{"A", 1, "A1"}},
		{96, 11, Position{"A", 12, "A12"}},
		{96, 12, Position{"B", 1, "B1"}},
		{96, 95, Position{"H", 12, "H12"}},
		{384, 383, Position{"P", 24, "P24"}},
		{6, 4, Position{"B", 2, "B2"}},
	}
	for _, tc := range cases {
		got, err := PositionAt(tc.size, tc.i)
		if err != nil {
			t.Fatalf("PositionAt(%d,%d): %v", tc.size, tc.i, err)
		}
		if got != tc.want {
			t.Fatalf("PositionAt(%d,%d): expected %+v got %+v", tc.size, tc.i, tc.want, got)
		}
	}
	if _, err := PositionAt(24, 24); err == nil {
		t.Fatalf("expected out of range error")
	}
	if _, err := PositionAt(24, -1); err == nil {
		t.Fatalf("expected out of range error")
	}
	if _, err := PositionAt(10, 0); err == nil {
		t.Fatalf("expected invalid size error")
	}
}

func TestLayoutIndexesDistinct(t *testing.T) {
	for _, size := range SupportedSizes() {
		positions, err := Layout(size)
		if err != nil {
			t.Fatalf("layout %d: %v", size, err)
		}
		seen := make(map[string]struct{}, size)
		for _, p := range positions {
			if _, dup := seen[p.Index]; dup {
				t.Fatalf("size %d: duplicate index %s", size, p.Index)
			}
			seen[p.Index] = struct{}{}
		}
	}
}
