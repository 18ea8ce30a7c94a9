package creation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/writing/internal/domain"
	"github.com/heartmarshall/writing/internal/service/content"
	"github.com/heartmarshall/writing/pkg/colmap"
)

// UpdateStatus moves the creation along its lifecycle. Requesting the
// current status is a no-op that returns the row unchanged. Approving
// freezes the current version and content for publication.
func (s *Service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*domain.Creation, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	c, err := s.current(ctx, input.GID, input.ID, input.Version)
	if err != nil {
		return nil, fmt.Errorf("get creation: %w", err)
	}
	if c.Status == input.Status {
		return c, nil
	}
	if !c.Status.CanTransitionTo(input.Status) {
		return nil, domain.NewTransitionError("creation", int8(c.Status), int8(input.Status))
	}

	set := colmap.Columns{
		"status":     input.Status,
		"updated_at": domain.NextUpdatedAt(c.UpdatedAt, s.now()),
	}
	if input.Status == domain.CreationApproved {
		set["approved_version"] = c.Version
		set["approved_content"] = c.Content
	}
	if err := s.creations.Update(ctx, c.GID, c.ID, set, c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update creation status: %w", err)
	}
	if err := colmap.Fill(c, set); err != nil {
		return nil, fmt.Errorf("apply update: %w", err)
	}

	s.log.InfoContext(ctx, "creation status changed",
		slog.String("gid", c.GID.String()),
		slog.String("id", c.ID.String()),
		slog.String("status", c.Status.String()),
		slog.Int("version", int(c.Version)),
	)
	return c, nil
}

// Update changes metadata of a draft or review creation.
func (s *Service) Update(ctx context.Context, input UpdateInput) (*domain.Creation, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	c, err := s.current(ctx, input.GID, input.ID, input.Version)
	if err != nil {
		return nil, fmt.Errorf("get creation: %w", err)
	}
	if !c.Status.Editable() {
		return nil, &domain.TransitionError{
			Entity: "creation", From: int8(c.Status), To: int8(c.Status),
			Reason: "metadata is frozen outside draft and review",
		}
	}

	set := colmap.Columns{"updated_at": domain.NextUpdatedAt(c.UpdatedAt, s.now())}
	if input.Rating != nil {
		set["rating"] = *input.Rating
	}
	if input.Title != nil {
		set["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		set["description"] = *input.Description
	}
	if input.Summary != nil {
		set["summary"] = *input.Summary
	}
	if input.Cover != nil {
		set["cover"] = *input.Cover
	}
	if input.License != nil {
		set["license"] = *input.License
	}
	if input.Genre != nil {
		set["genre"] = input.Genre
	}
	if input.Keywords != nil {
		set["keywords"] = input.Keywords
	}
	if input.Labels != nil {
		set["labels"] = input.Labels
	}
	if input.Authors != nil {
		set["authors"] = input.Authors
	}

	if err := s.creations.Update(ctx, c.GID, c.ID, set, c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update creation: %w", err)
	}
	if err := colmap.Fill(c, set); err != nil {
		return nil, fmt.Errorf("apply update: %w", err)
	}

	s.log.InfoContext(ctx, "creation updated",
		slog.String("gid", c.GID.String()),
		slog.String("id", c.ID.String()),
	)
	return c, nil
}

// ReplaceContent stores a new payload and repoints the creation at it.
// Content of an approved creation is frozen; it has to go back to review
// first. Once a version has been approved, the next replacement opens a
// new version, so the version never decreases and approved versions keep
// their content.
func (s *Service) ReplaceContent(ctx context.Context, input ReplaceContentInput) (*domain.Creation, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	c, err := s.current(ctx, input.GID, input.ID, input.Version)
	if err != nil {
		return nil, fmt.Errorf("get creation: %w", err)
	}
	if !c.Status.Editable() {
		return nil, &domain.TransitionError{
			Entity: "creation", From: int8(c.Status), To: int8(domain.CreationReview),
			Reason: "content can only be replaced in draft or review",
		}
	}

	lang := input.Language
	if lang == "" {
		lang = c.Language
	}
	version := c.NextContentVersion()

	stored, err := s.contents.Put(ctx, content.PutInput{
		GID:      c.GID,
		CID:      c.ID,
		Version:  version,
		Language: lang,
		Data:     input.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("store content: %w", err)
	}

	set := colmap.Columns{
		"content":    stored.ID,
		"version":    version,
		"language":   lang,
		"updated_at": domain.NextUpdatedAt(c.UpdatedAt, s.now()),
	}
	if err := s.creations.Update(ctx, c.GID, c.ID, set, c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("repoint creation content: %w", err)
	}
	if err := colmap.Fill(c, set); err != nil {
		return nil, fmt.Errorf("apply update: %w", err)
	}

	s.log.InfoContext(ctx, "creation content replaced",
		slog.String("gid", c.GID.String()),
		slog.String("id", c.ID.String()),
		slog.String("content_id", stored.ID.String()),
		slog.Int("version", int(c.Version)),
	)
	return c, nil
}
