// Package content stores immutable, hash-verified payloads. Rows are never
// updated: a changed payload is a new row under a new id.
package content

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/xid"

	"github.com/heartmarshall/writing/internal/config"
	"github.com/heartmarshall/writing/internal/domain"
)

type contentRepo interface {
	Insert(ctx context.Context, c *domain.Content) error
	Get(ctx context.Context, id xid.ID) (*domain.Content, error)
	GetMeta(ctx context.Context, id xid.ID) (*domain.Content, error)
}

// Service provides the content store operations.
type Service struct {
	contents contentRepo
	enc      *zstd.Encoder
	dec      *zstd.Decoder
	maxBytes int
	log      *slog.Logger
}

// NewService creates a content store. The zstd coders are shared by all
// calls; EncodeAll and DecodeAll are safe for concurrent use.
func NewService(log *slog.Logger, contents contentRepo, cfg config.ContentConfig) (*Service, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(cfg.ZstdLevel)))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(cfg.MaxBytes)*2))
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &Service{
		contents: contents,
		enc:      enc,
		dec:      dec,
		maxBytes: cfg.MaxBytes,
		log:      log.With("service", "content"),
	}, nil
}

// Close releases the decoder goroutines.
func (s *Service) Close() {
	s.dec.Close()
}
