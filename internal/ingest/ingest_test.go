package ingest

import (
	"errors"
	"strings"
	"testing"

	"platemap/pkg/domain"
)

const kingfisherDoc = `notes,exported from lims
metadata
screen
S1
plate_data
Sample_Name,Tattoo_Number,CAGE,organ,organ_weight
m1,T01,C1,liver,0.21
m2,T02,C1,liver,0.19
m3,T03,C2,spleen,0.05
m4,T04,C2,,0.07
m5,T05,C3,kidney,0.11
`

func TestParseKingfisherDocument(t *testing.T) {
	res, err := Parse(strings.NewReader(kingfisherDoc), nil, domain.CategoryKingfisher)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Metadata) != 1 || res.Metadata["screen"] != "S1" {
		t.Fatalf("unexpected metadata %v", res.Metadata)
	}
	if len(res.Wells) != 5 {
		t.Fatalf("expected 5 wells, got %d", len(res.Wells))
	}
	want := [][]string{
		{"m1", "T01", "C1", "liver", "0.21"},
		{"m2", "T02", "C1", "liver", "0.19"},
		{"m3", "T03", "C2", "spleen", "0.05"},
		{"m4", "T04", "C2", "", "0.07"},
		{"m5", "T05", "C3", "kidney", "0.11"},
	}
	fields := []string{"sample_name", "tattoo_number", "cage", "organ", "organ_weight"}
	for i, w := range res.Wells {
		rec := w.ExportRecord()
		for j, f := range fields {
			if got := domain.FormatValue(rec[f]); got != want[i][j] {
				t.Fatalf("well %d field %s: got %q want %q", i, f, got, want[i][j])
			}
		}
		if rec[domain.FieldIndex] != nil {
			t.Fatalf("ingested wells carry no position, got %v", rec[domain.FieldIndex])
		}
	}
	if got, _ := res.Wells[3].GetField("organ"); got != nil {
		t.Fatalf("empty cell should stay unset, got %v", got)
	}
}

func TestParseUnknownHeaderFailsWholeDocument(t *testing.T) {
	doc := "metadata\nscreen\nS1\nplate_data\nsample_name,primer\nm1,ACTB\n"
	res, err := Parse(strings.NewReader(doc), nil, domain.CategoryKingfisher)
	var violation domain.ErrSchemaViolation
	if !errors.As(err, &violation) || violation.Field != "primer" {
		t.Fatalf("expected violation on primer, got %v", err)
	}
	if res.Wells != nil || res.Metadata != nil {
		t.Fatalf("failed parse must not return partial results")
	}
}

func TestParseMalformed(t *testing.T) {
	cases := map[string]string{
		"no metadata section":   "plate_data\nsample_name\nm1\n",
		"metadata header only":  "metadata\nscreen\nplate_data\nsample_name\n",
		"no plate_data section": "metadata\nscreen\nS1\n",
		"empty plate_data":      "metadata\nscreen\nS1\nplate_data\n",
		"duplicate header":      "metadata\nscreen\nS1\nplate_data\nsample_name,Sample_Name\nm1,m2\n",
		"value beyond header":   "metadata\nscreen\nS1\nplate_data\nsample_name\nm1,extra\n",
		"unnamed metadata":      "metadata\nscreen,\nS1,x\nplate_data\nsample_name\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(doc), nil, domain.CategoryNone)
			var malformed domain.ErrMalformedInput
			if !errors.As(err, &malformed) {
				t.Fatalf("expected ErrMalformedInput, got %v", err)
			}
		})
	}
}

func TestParseHeaderOnlyPlateData(t *testing.T) {
	doc := "metadata\nscreen,date\nS2,2024-03-01\nplate_data\nsample_name,index\n"
	res, err := Parse(strings.NewReader(doc), nil, domain.CategoryNone)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Wells) != 0 || res.Metadata["date"] != "2024-03-01" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestParseToleratesSpreadsheetPadding(t *testing.T) {
	doc := "metadata,,\nscreen,date,\nS3,2024-05-02,\n,,\nplate_data,,\nsample_name,concentration,\ng1,12.5,\ng2,,\n"
	res, err := Parse(strings.NewReader(doc), nil, domain.CategoryGDNA)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Wells) != 2 {
		t.Fatalf("expected 2 wells, got %d", len(res.Wells))
	}
	if v, _ := res.Wells[0].GetField("concentration"); v != "12.5" {
		t.Fatalf("unexpected concentration %v", v)
	}
	if len(res.Headers) != 2 {
		t.Fatalf("trailing empty header cells should be dropped: %v", res.Headers)
	}
}

func TestParseUnknownCategory(t *testing.T) {
	doc := "metadata\nscreen\nS1\nplate_data\nsample_name\nm1\n"
	_, err := Parse(strings.NewReader(doc), nil, "nope")
	var unknown domain.ErrUnknownCategory
	if !errors.As(err, &unknown) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestParseWithSemicolon(t *testing.T) {
	doc := "metadata\nscreen;date\nS1;d\nplate_data\nsample_name;primer\np1;ACTB\n"
	res, err := ParseWithOptions(strings.NewReader(doc), nil, domain.CategoryPCR, Options{Comma: ';'})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v, _ := res.Wells[0].GetField("primer"); v != "ACTB" {
		t.Fatalf("unexpected primer %v", v)
	}
}

func TestParseSkipsByteOrderMark(t *testing.T) {
	doc := "\ufeffmetadata\nscreen\nS1\nplate_data\nsample_name\ns1\n"
	res, err := Parse(strings.NewReader(doc), nil, domain.CategoryNone)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Metadata["screen"] != "S1" || len(res.Wells) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}

	quoted := "\ufeff\"metadata\"\nscreen\nS1\nplate_data\nsample_name\ns1\n"
	if _, err := Parse(strings.NewReader(quoted), nil, domain.CategoryNone); err != nil {
		t.Fatalf("quoted first cell after BOM: %v", err)
	}
}

func TestParseMarkerNamedWellStaysData(t *testing.T) {
	doc := "metadata\nscreen\nS1\nplate_data\nsample_name,cage\nmetadata,C1\nplate_data,C2\nm3,C3\n"
	res, err := Parse(strings.NewReader(doc), nil, domain.CategoryKingfisher)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Wells) != 3 {
		t.Fatalf("expected 3 wells, got %d", len(res.Wells))
	}
	if v, _ := res.Wells[0].GetField(domain.FieldSampleName); v != "metadata" {
		t.Fatalf("first well name = %v", v)
	}
	if v, _ := res.Wells[1].GetField("cage"); v != "C2" {
		t.Fatalf("second well cage = %v", v)
	}
}

func TestParseMarkerWithTrailingEmptyCells(t *testing.T) {
	doc := "metadata,,\nscreen,,\nS1,,\nplate_data,,\nsample_name,cage,\nm1,C1,\n"
	res, err := Parse(strings.NewReader(doc), nil, domain.CategoryKingfisher)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Metadata["screen"] != "S1" || len(res.Wells) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
}
