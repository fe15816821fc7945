package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"platemap/internal/blob"
	"platemap/internal/ingest"
	"platemap/internal/logging"
	"platemap/pkg/domain"
)

// Service imports plate documents and chunks them into plates.
type Service struct {
	registry *domain.Registry
	chunker  *Chunker
	store    blob.Store
	metrics  MetricsRecorder
	log      *logging.Logger
	comma    rune
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithStore sets the blob store ImportDocument reads from.
func WithStore(store blob.Store) ServiceOption {
	return func(s *Service) { s.store = store }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithDelimiter sets the field delimiter of input documents.
func WithDelimiter(comma rune) ServiceOption {
	return func(s *Service) { s.comma = comma }
}

// NewService constructs a service. A nil chunker selects the default
// capacity with layout finalization.
func NewService(reg *domain.Registry, chunker *Chunker, opts ...ServiceOption) (*Service, error) {
	if reg == nil {
		reg = domain.DefaultRegistry()
	}
	if chunker == nil {
		var err error
		if chunker, err = NewChunker(reg, DefaultChunkCapacity, true); err != nil {
			return nil, err
		}
	}
	s := &Service{
		registry: reg,
		chunker:  chunker,
		metrics:  noopMetrics{},
		log:      logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Registry returns the schema registry the service builds records against.
func (s *Service) Registry() *domain.Registry { return s.registry }

// Capacity returns the number of wells per chunked plate.
func (s *Service) Capacity() int { return s.chunker.Capacity() }

// ImportResult is the outcome of importing one document.
type ImportResult struct {
	Source   string
	Category domain.Category
	Metadata map[string]string
	Wells    []*domain.Well
	Plates   []*domain.Plate
}

// Import parses a document from r and chunks its wells into plates. The
// document's metadata is applied to every plate. Nothing is returned on error.
func (s *Service) Import(ctx context.Context, r io.Reader, category domain.Category) (ImportResult, error) {
	return s.run(ctx, "import", "", category, func() (io.ReadCloser, error) {
		return io.NopCloser(r), nil
	})
}

// ImportDocument reads the document stored under key and imports it.
func (s *Service) ImportDocument(ctx context.Context, key string, category domain.Category) (ImportResult, error) {
	if s.store == nil {
		return ImportResult{}, fmt.Errorf("import %s: no blob store configured", key)
	}
	return s.run(ctx, "import_document", key, category, func() (io.ReadCloser, error) {
		_, rc, err := s.store.Get(ctx, key)
		return rc, err
	})
}

func (s *Service) run(ctx context.Context, op, source string, category domain.Category, open func() (io.ReadCloser, error)) (res ImportResult, err error) {
	log := s.log.WithCategory(string(category))
	if source != "" {
		log = log.WithDocument(source)
	}
	started := time.Now()
	defer func() {
		s.metrics.Observe(ctx, op, err == nil, time.Since(started))
		if err != nil {
			log.Error("import failed", "error", err)
		}
	}()

	if err = ctx.Err(); err != nil {
		return ImportResult{}, err
	}
	rc, err := open()
	if err != nil {
		return ImportResult{}, fmt.Errorf("open %s: %w", source, err)
	}
	defer func() { _ = rc.Close() }()

	parsed, err := ingest.ParseWithOptions(rc, s.registry, category, ingest.Options{Comma: s.comma})
	if err != nil {
		return ImportResult{}, err
	}
	log.Debug("document parsed", "wells", len(parsed.Wells), "metadata_fields", len(parsed.Metadata))

	plates, err := s.chunker.Chunk(category, parsed.Wells, metadataRecord(parsed.Metadata))
	if err != nil {
		return ImportResult{}, err
	}
	s.metrics.ObserveImport(ctx, string(category), len(parsed.Wells), len(plates))
	log.Info("document imported", "wells", len(parsed.Wells), "plates", len(plates), "capacity", s.chunker.Capacity())

	return ImportResult{
		Source:   source,
		Category: category,
		Metadata: parsed.Metadata,
		Wells:    parsed.Wells,
		Plates:   plates,
	}, nil
}

func metadataRecord(in map[string]string) domain.Record {
	rec := make(domain.Record, len(in))
	for k, v := range in {
		if v == "" {
			rec[k] = nil
			continue
		}
		rec[k] = v
	}
	return rec
}
