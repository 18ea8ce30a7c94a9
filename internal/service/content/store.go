package content

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rs/xid"

	"github.com/heartmarshall/writing/internal/domain"
	"github.com/heartmarshall/writing/pkg/colmap"
)

// Put hashes, compresses and stores data under a fresh id.
func (s *Service) Put(ctx context.Context, input PutInput) (*domain.Content, error) {
	if err := input.Validate(s.maxBytes); err != nil {
		return nil, err
	}

	c := &domain.Content{
		ID:        domain.NewID(),
		GID:       input.GID,
		CID:       input.CID,
		Version:   input.Version,
		Language:  input.Language,
		UpdatedAt: domain.UnixMillis(time.Now()),
		Length:    int32(len(input.Data)),
		Hash:      colmap.ContentHash(input.Data),
		Data:      s.enc.EncodeAll(input.Data, nil),
	}
	if err := s.contents.Insert(ctx, c); err != nil {
		return nil, fmt.Errorf("insert content: %w", err)
	}

	s.log.InfoContext(ctx, "content stored",
		slog.String("content_id", c.ID.String()),
		slog.String("cid", c.CID.String()),
		slog.Int("length", len(input.Data)),
		slog.Int("stored", len(c.Data)),
	)

	c.Data = nil
	return c, nil
}

// Get returns the raw bytes of a content row after checking them against
// the stored length and hash. Any mismatch is domain.ErrContentCorrupted.
func (s *Service) Get(ctx context.Context, id xid.ID) ([]byte, *domain.Content, error) {
	c, err := s.contents.Get(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get content: %w", err)
	}

	raw, err := s.dec.DecodeAll(c.Data, make([]byte, 0, max(min(int(c.Length), s.maxBytes), 0)))
	if err != nil {
		return nil, nil, s.corrupted(ctx, id, fmt.Sprintf("decompress: %v", err))
	}
	if len(raw) != int(c.Length) {
		return nil, nil, s.corrupted(ctx, id, fmt.Sprintf("length %d, stored %d", len(raw), c.Length))
	}
	if !colmap.VerifyHash(raw, c.Hash) {
		return nil, nil, s.corrupted(ctx, id, "hash mismatch")
	}

	c.Data = nil
	return raw, c, nil
}

// Stat returns the content metadata without reading the payload.
func (s *Service) Stat(ctx context.Context, id xid.ID) (*domain.Content, error) {
	c, err := s.contents.GetMeta(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("stat content: %w", err)
	}
	return c, nil
}

func (s *Service) corrupted(ctx context.Context, id xid.ID, reason string) error {
	s.log.ErrorContext(ctx, "content corrupted",
		slog.String("content_id", id.String()),
		slog.String("reason", reason),
	)
	return fmt.Errorf("content %s: %s: %w", id, reason, domain.ErrContentCorrupted)
}
