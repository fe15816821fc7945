package export

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"platemap/internal/blob"
	"platemap/internal/logging"
	"platemap/pkg/domain"
)

// Request selects which views ExportPlates writes for every plate.
type Request struct {
	GridAttributes  []string
	TableAttributes []string
	Records         bool
	Document        bool
	// Formats defaults to CSV when empty. Documents are always CSV.
	Formats []Format
	// Overwrite replaces existing artifacts instead of failing.
	Overwrite bool
}

// Artifact describes one stored export.
type Artifact struct {
	Plate  int
	View   string
	Format Format
	Info   blob.Info
}

// Exporter writes rendered plate views into a blob store.
type Exporter struct {
	store blob.Store
	log   *logging.Logger
}

// NewExporter builds an exporter. A nil logger discards output.
func NewExporter(store blob.Store, log *logging.Logger) (*Exporter, error) {
	if store == nil {
		return nil, fmt.Errorf("exporter requires a blob store")
	}
	if log == nil {
		log = logging.NopLogger()
	}
	return &Exporter{store: store, log: log}, nil
}

// PlateKey returns the key prefix for the n-th plate (1-based).
func PlateKey(prefix string, n int) string {
	return path.Join(prefix, fmt.Sprintf("plate-%02d", n))
}

type rendered struct {
	view   string
	name   string
	format Format
	data   []byte
}

// ExportPlates renders the requested views of every plate and stores them
// under prefix. All views are rendered before anything is written, so a
// render error stores nothing. When a write fails the artifacts already
// stored by this call are removed again. Overwrite deletes an existing key
// before writing it; that pair is not atomic, and a replaced artifact is
// not restored if a later write fails.
func (e *Exporter) ExportPlates(ctx context.Context, prefix string, plates []*domain.Plate, req Request) ([]Artifact, error) {
	formats := req.Formats
	if len(formats) == 0 {
		formats = []Format{FormatCSV}
	}
	perPlate := make([][]rendered, len(plates))
	for i, p := range plates {
		out, err := renderPlate(p, req, formats)
		if err != nil {
			return nil, fmt.Errorf("plate %d: %w", i+1, err)
		}
		perPlate[i] = out
	}

	var artifacts []Artifact
	for i, items := range perPlate {
		dir := PlateKey(prefix, i+1)
		for _, item := range items {
			key := path.Join(dir, item.name)
			if err := ctx.Err(); err != nil {
				e.rollback(ctx, artifacts)
				return nil, err
			}
			info, err := e.put(ctx, key, item, req.Overwrite)
			if err != nil {
				e.rollback(ctx, artifacts)
				return nil, fmt.Errorf("store %s: %w", key, err)
			}
			artifacts = append(artifacts, Artifact{Plate: i + 1, View: item.view, Format: item.format, Info: info})
		}
	}
	e.log.Info("plates exported", "prefix", prefix, "plates", len(plates), "artifacts", len(artifacts))
	return artifacts, nil
}

// rollback removes artifacts written by a failed export. Cleanup runs even
// when ctx is already cancelled.
func (e *Exporter) rollback(ctx context.Context, written []Artifact) {
	ctx = context.WithoutCancel(ctx)
	for _, art := range written {
		if _, err := e.store.Delete(ctx, art.Info.Key); err != nil {
			e.log.Warn("export cleanup failed", "key", art.Info.Key, "error", err)
		}
	}
	if len(written) > 0 {
		e.log.Warn("export rolled back", "artifacts", len(written))
	}
}

func (e *Exporter) put(ctx context.Context, key string, item rendered, overwrite bool) (blob.Info, error) {
	if overwrite {
		if _, err := e.store.Delete(ctx, key); err != nil {
			return blob.Info{}, err
		}
	}
	return e.store.Put(ctx, key, bytes.NewReader(item.data), blob.PutOptions{
		ContentType: item.format.ContentType(),
		Metadata:    map[string]string{"view": item.view},
	})
}

func renderPlate(p *domain.Plate, req Request, formats []Format) ([]rendered, error) {
	var out []rendered
	for _, attr := range req.GridAttributes {
		g, err := p.GridView(attr)
		if err != nil {
			return nil, err
		}
		for _, f := range formats {
			data, err := RenderGrid(g, f)
			if err != nil {
				return nil, err
			}
			out = append(out, rendered{view: "grid", name: artifactName("grid", attr, f), format: f, data: data})
		}
	}
	for _, attr := range req.TableAttributes {
		t, err := p.AttributeTable(attr)
		if err != nil {
			return nil, err
		}
		for _, f := range formats {
			data, err := RenderAttributeTable(attr, t, f)
			if err != nil {
				return nil, err
			}
			out = append(out, rendered{view: "table", name: artifactName("table", attr, f), format: f, data: data})
		}
	}
	if req.Records {
		t, err := p.FullRecordTable()
		if err != nil {
			return nil, err
		}
		for _, f := range formats {
			data, err := RenderRecordTable(t, f)
			if err != nil {
				return nil, err
			}
			out = append(out, rendered{view: "records", name: "records." + string(f), format: f, data: data})
		}
	}
	if req.Document {
		data, err := RenderDocument(p)
		if err != nil {
			return nil, err
		}
		out = append(out, rendered{view: "document", name: "document.csv", format: FormatCSV, data: data})
	}
	return out, nil
}

func artifactName(view, attr string, f Format) string {
	return fmt.Sprintf("%s-%s.%s", view, slug(attr), f)
}

// slug lower-cases an attribute name and replaces anything outside
// [a-z0-9_-] so it is safe inside a key.
func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
