package creation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/writing/internal/domain"
	"github.com/heartmarshall/writing/internal/service/content"
	"github.com/heartmarshall/writing/pkg/ctxutil"
)

// Create stores the content and a new draft at version 1, authored by the
// caller.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Creation, error) {
	creator, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	id := domain.NewID()
	stored, err := s.contents.Put(ctx, content.PutInput{
		GID:      input.GID,
		CID:      id,
		Version:  1,
		Language: input.Language,
		Data:     input.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("store content: %w", err)
	}

	now := domain.UnixMillis(s.now())
	c := &domain.Creation{
		GID:         input.GID,
		ID:          id,
		Status:      domain.CreationDraft,
		Rating:      input.Rating,
		Version:     1,
		Language:    input.Language,
		Creator:     creator,
		CreatedAt:   now,
		UpdatedAt:   now,
		OriginalURL: input.OriginalURL,
		Genre:       input.Genre,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Cover:       input.Cover,
		Keywords:    input.Keywords,
		Labels:      input.Labels,
		Authors:     input.Authors,
		Summary:     input.Summary,
		Content:     stored.ID,
		License:     input.License,
	}
	if err := s.creations.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create creation: %w", err)
	}

	s.log.InfoContext(ctx, "creation created",
		slog.String("gid", c.GID.String()),
		slog.String("id", c.ID.String()),
		slog.String("creator", creator.String()),
		slog.String("language", string(c.Language)),
	)

	return c, nil
}
