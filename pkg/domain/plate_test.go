package domain

import (
	"errors"
	"fmt"
	"slices"
	"testing"
)

func TestNewPlateAllSizes(t *testing.T) {
	for _, size := range SupportedSizes() {
		p, err := NewPlate(nil, CategoryGDNA, size)
		if err != nil {
			t.Fatalf("size %d: %v", size, err)
		}
		wells := p.Wells()
		if len(wells) != size || p.Size() != size {
			t.Fatalf("size %d: got %d wells", size, len(wells))
		}
		seenIdx := make(map[any]struct{}, size)
		seenWell := make(map[*Well]struct{}, size)
		for i, w := range wells {
			idx, _ := w.GetField(FieldIndex)
			if _, dup := seenIdx[idx]; dup {
				t.Fatalf("size %d: duplicate index %v", size, idx)
			}
			seenIdx[idx] = struct{}{}
			if _, dup := seenWell[w]; dup {
				t.Fatalf("size %d: well %d shares identity", size, i)
			}
			seenWell[w] = struct{}{}
			if w.Category() != CategoryGDNA {
				t.Fatalf("well category %q", w.Category())
			}
			want, _ := PositionAt(size, i)
			row, _ := w.GetField(FieldRow)
			col, _ := w.GetField(FieldColumn)
			if row != want.Row || col != want.Column || idx != want.Index {
				t.Fatalf("size %d pos %d: got %v/%v/%v want %+v", size, i, row, col, idx, want)
			}
		}
	}
}

func TestNewPlateErrors(t *testing.T) {
	var invalid ErrInvalidSize
	if _, err := NewPlate(nil, CategoryPCR, 100); !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalidSize, got %v", err)
	}
	var unknown ErrUnknownCategory
	if _, err := NewPlate(nil, "nope", 96); !errors.As(err, &unknown) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestPlateWellsIndependent(t *testing.T) {
	p, _ := NewPlate(nil, CategoryPCR, 6)
	w0, _ := p.Well(0)
	_ = w0.SetField("primer", "GAPDH")
	w1, _ := p.Well(1)
	if v, _ := w1.GetField("primer"); v != nil {
		t.Fatalf("wells share state: %v", v)
	}
	if _, err := p.Well(6); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestPlateMetadataFields(t *testing.T) {
	p, _ := NewPlate(nil, CategoryKingfisher, 24)
	if err := p.SetField(FieldTitle, "Plate 1"); err != nil {
		t.Fatalf("set title: %v", err)
	}
	if err := p.ImportRecord(Record{"screen": "S1", "Operator": "jc"}); err != nil {
		t.Fatalf("import: %v", err)
	}
	rec := p.ExportRecord()
	if rec[FieldTitle] != "Plate 1" || rec[FieldScreen] != "S1" || rec["operator"] != "jc" {
		t.Fatalf("unexpected plate record %v", rec)
	}
	var violation ErrSchemaViolation
	if _, err := p.GetField("organ_weight"); !errors.As(err, &violation) || violation.Kind != EntityPlate {
		t.Fatalf("expected plate violation, got %v", err)
	}
}

func newFilledWells(t *testing.T, cat Category, n int) []*Well {
	t.Helper()
	out := make([]*Well, n)
	for i := range out {
		w, err := NewWell(nil, cat)
		if err != nil {
			t.Fatalf("new well: %v", err)
		}
		_ = w.SetField(FieldSampleName, fmt.Sprintf("s%d", i))
		out[i] = w
	}
	return out
}

func TestPlateReplaceWellsAndFinalize(t *testing.T) {
	p, _ := NewPlate(nil, CategoryPCR, 6)
	wells := newFilledWells(t, CategoryPCR, 6)
	_ = wells[0].SetField(FieldIndex, "H12")
	if err := p.ReplaceWells(wells); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if idx, _ := p.wells[0].GetField(FieldIndex); idx != "H12" {
		t.Fatalf("replace must not touch positions, got %v", idx)
	}
	p.FinalizeLayout()
	for i, w := range p.Wells() {
		want, _ := PositionAt(6, i)
		if idx, _ := w.GetField(FieldIndex); idx != want.Index {
			t.Fatalf("pos %d: expected %s got %v", i, want.Index, idx)
		}
		if name, _ := w.GetField(FieldSampleName); name != fmt.Sprintf("s%d", i) {
			t.Fatalf("finalize must not reorder wells")
		}
	}
}

func TestPlateFillMissingPositions(t *testing.T) {
	p, _ := NewPlate(nil, CategoryNone, 6)
	wells := newFilledWells(t, CategoryNone, 6)
	_ = wells[2].SetField(FieldIndex, "H12")
	_ = wells[3].SetField(FieldIndex, "")
	if err := p.ReplaceWells(wells); err != nil {
		t.Fatalf("replace: %v", err)
	}
	p.FillMissingPositions()
	want := []string{"A1", "A2", "H12", "A3", "B1", "B2"}
	for i, w := range p.Wells() {
		if idx, _ := w.GetField(FieldIndex); idx != want[i] {
			t.Fatalf("pos %d: expected %s got %v", i, want[i], idx)
		}
	}
	if row, _ := wells[4].GetField(FieldRow); row != "B" {
		t.Fatalf("empty index should be filled with its row, got %v", row)
	}
	if _, err := p.FullRecordTable(); err != nil {
		t.Fatalf("record table: %v", err)
	}
}

func TestPlateFillMissingPositionsSkipsClaimedIndexes(t *testing.T) {
	p, _ := NewPlate(nil, CategoryNone, 6)
	wells := newFilledWells(t, CategoryNone, 6)
	_ = wells[0].SetField(FieldIndex, "A2")
	_ = wells[1].SetField(FieldIndex, "A1")
	if err := p.ReplaceWells(wells); err != nil {
		t.Fatalf("replace: %v", err)
	}
	p.FillMissingPositions()
	table, err := p.FullRecordTable()
	if err != nil {
		t.Fatalf("claimed indexes must not be reused: %v", err)
	}
	want := []string{"A2", "A1", "A3", "B1", "B2", "B3"}
	if !slices.Equal(table.Indexes, want) {
		t.Fatalf("indexes = %v, want %v", table.Indexes, want)
	}
}

func TestPlateReplaceWellsValidation(t *testing.T) {
	p, _ := NewPlate(nil, CategoryPCR, 6)
	if err := p.ReplaceWells(newFilledWells(t, CategoryPCR, 5)); err == nil {
		t.Fatalf("expected length error")
	}
	if err := p.ReplaceWells(newFilledWells(t, CategoryGDNA, 6)); err == nil {
		t.Fatalf("expected category error")
	}
	aliased := newFilledWells(t, CategoryPCR, 6)
	aliased[5] = aliased[0]
	if err := p.ReplaceWells(aliased); err == nil {
		t.Fatalf("expected aliasing error")
	}
	withNil := newFilledWells(t, CategoryPCR, 6)
	withNil[2] = nil
	if err := p.ReplaceWells(withNil); err == nil {
		t.Fatalf("expected nil well error")
	}
}
