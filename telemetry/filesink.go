package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

// FileSink appends every Record as a newline-delimited JSON line to a single
// object reachable through viant/afs, so an embedder can point it at a local
// path, S3, GCS, etc. without the runtime core depending on a concrete
// storage backend. Writes are serialized: afs has no append primitive, so
// each Emit downloads, extends and re-uploads the object.
type FileSink struct {
	fs   afs.Service
	path string
	mu   sync.Mutex
}

// NewFileSink creates a sink that appends to path, which need not exist yet.
func NewFileSink(path string) *FileSink {
	return &FileSink{fs: afs.New(), path: path}
}

// Emit appends r to the sink's backing object. An append error is logged
// here and the record is dropped, so the caller never sees it; FileSink does
// not retry.
func (s *FileSink) Emit(ctx context.Context, r Record) {
	if err := s.append(ctx, r); err != nil {
		log.Printf("telemetry: filesink append failed: %v", err)
	}
}

func (s *FileSink) append(ctx context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal telemetry record: %w", err)
	}
	line = append(line, '\n')

	var existing []byte
	if exists, _ := s.fs.Exists(ctx, s.path); exists {
		existing, err = s.fs.DownloadWithURL(ctx, s.path)
		if err != nil {
			return fmt.Errorf("failed to read telemetry sink %s: %w", s.path, err)
		}
	}

	buf := bytes.NewBuffer(existing)
	buf.Write(line)
	if err := s.fs.Upload(ctx, s.path, file.DefaultFileOsMode, buf); err != nil {
		return fmt.Errorf("failed to append telemetry record to %s: %w", s.path, err)
	}
	return nil
}
