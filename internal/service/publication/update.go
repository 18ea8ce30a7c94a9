package publication

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/writing/internal/domain"
	"github.com/heartmarshall/writing/internal/service/content"
	"github.com/heartmarshall/writing/pkg/colmap"
)

// inReview reads the publication a metadata or content edit applies to.
func (s *Service) inReview(ctx context.Context, k domain.PublicationKey, updatedAt int64) (*domain.Publication, error) {
	p, err := s.publications.Get(ctx, k)
	if err != nil {
		return nil, fmt.Errorf("get publication: %w", err)
	}
	if p.UpdatedAt != updatedAt {
		return nil, fmt.Errorf("publication %s changed since read: %w", k, domain.ErrVersionConflict)
	}
	if p.Status != domain.PublicationReview {
		return nil, &domain.TransitionError{
			Entity: "publication", From: int8(p.Status), To: int8(p.Status),
			Reason: "only publications in review can be edited",
		}
	}
	return p, nil
}

// Update changes metadata of a publication in review.
func (s *Service) Update(ctx context.Context, input UpdateInput) (*domain.Publication, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	p, err := s.inReview(ctx, input.Key, input.UpdatedAt)
	if err != nil {
		return nil, err
	}

	set := colmap.Columns{"updated_at": domain.NextUpdatedAt(p.UpdatedAt, s.now())}
	if input.Model != nil {
		set["model"] = *input.Model
	}
	if input.Title != nil {
		set["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		set["description"] = *input.Description
	}
	if input.Cover != nil {
		set["cover"] = *input.Cover
	}
	if input.Summary != nil {
		set["summary"] = *input.Summary
	}
	if input.Keywords != nil {
		set["keywords"] = input.Keywords
	}

	if err := s.publications.Update(ctx, p.Key(), set, p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update publication: %w", err)
	}
	if err := colmap.Fill(p, set); err != nil {
		return nil, fmt.Errorf("apply update: %w", err)
	}

	s.log.InfoContext(ctx, "publication updated", slog.String("key", p.Key().String()))
	return p, nil
}

// ReplaceContent stores a new payload for a publication in review and
// repoints it. The previous content row is left in place.
func (s *Service) ReplaceContent(ctx context.Context, input ReplaceContentInput) (*domain.Publication, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	p, err := s.inReview(ctx, input.Key, input.UpdatedAt)
	if err != nil {
		return nil, err
	}

	stored, err := s.contents.Put(ctx, content.PutInput{
		GID:      p.GID,
		CID:      p.CID,
		Version:  p.Version,
		Language: p.Language,
		Data:     input.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("store content: %w", err)
	}

	set := colmap.Columns{
		"content":    stored.ID,
		"updated_at": domain.NextUpdatedAt(p.UpdatedAt, s.now()),
	}
	if err := s.publications.Update(ctx, p.Key(), set, p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("repoint publication content: %w", err)
	}
	if err := colmap.Fill(p, set); err != nil {
		return nil, fmt.Errorf("apply update: %w", err)
	}

	s.log.InfoContext(ctx, "publication content replaced",
		slog.String("key", p.Key().String()),
		slog.String("content_id", stored.ID.String()),
	)
	return p, nil
}
