package publication

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rs/xid"

	"github.com/heartmarshall/writing/internal/domain"
	"github.com/heartmarshall/writing/internal/service/content"
	"github.com/heartmarshall/writing/pkg/ctxutil"
)

// CreateFromCreation opens a publication of an approved creation version in
// the language that version was written in. The publication shares the
// version's immutable content.
func (s *Service) CreateFromCreation(ctx context.Context, gid, cid xid.ID, version int16) (*domain.Publication, error) {
	creator, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if version < 1 {
		return nil, domain.NewValidationError("version", "must be at least 1")
	}

	c, err := s.creations.Get(ctx, gid, cid)
	if err != nil {
		return nil, fmt.Errorf("get creation: %w", err)
	}
	if !c.VersionApproved(version) {
		return nil, &domain.TransitionError{
			Entity: "publication", From: int8(c.Status), To: int8(domain.PublicationReview),
			Reason: fmt.Sprintf("creation version %d is not approved", version),
		}
	}

	contentID, err := s.approvedContent(ctx, c, version)
	if err != nil {
		return nil, err
	}
	meta, err := s.contents.Stat(ctx, contentID)
	if err != nil {
		return nil, fmt.Errorf("stat content: %w", err)
	}

	now := s.now().UnixMilli()
	p := &domain.Publication{
		GID:          gid,
		CID:          cid,
		Language:     meta.Language,
		Version:      version,
		Status:       domain.PublicationReview,
		Creator:      creator,
		CreatedAt:    now,
		UpdatedAt:    now,
		FromLanguage: meta.Language,
		OriginalURL:  c.OriginalURL,
		Genre:        c.Genre,
		Title:        c.Title,
		Description:  c.Description,
		Cover:        c.Cover,
		Keywords:     c.Keywords,
		Authors:      c.Authors,
		Summary:      c.Summary,
		Content:      contentID,
		License:      c.License,
	}
	if err := s.publications.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create publication: %w", err)
	}

	s.log.InfoContext(ctx, "publication created",
		slog.String("key", p.Key().String()),
		slog.String("content_id", contentID.String()),
	)
	return p, nil
}

// approvedContent finds the content id of an approved version. The latest
// approval is on the creation row; earlier ones survive only through the
// original-language publications made from them.
func (s *Service) approvedContent(ctx context.Context, c *domain.Creation, version int16) (xid.ID, error) {
	if version == c.ApprovedVersion && !c.ApprovedContent.IsNil() {
		return c.ApprovedContent, nil
	}
	pubs, err := s.publications.ListByCreation(ctx, c.GID, c.ID, "model", "from_language", "content")
	if err != nil {
		return xid.NilID(), fmt.Errorf("list publications: %w", err)
	}
	for i := range pubs {
		if pubs[i].Version == version && pubs[i].IsOriginal() {
			return pubs[i].Content, nil
		}
	}
	return xid.NilID(), fmt.Errorf("content of creation %s version %d: %w", c.ID, version, domain.ErrNotFound)
}

// CreateTranslation stores translated content and opens a publication of it.
// The source must not be rejected and its creation version must still be
// approved.
func (s *Service) CreateTranslation(ctx context.Context, input TranslationInput) (*domain.Publication, error) {
	creator, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	src, err := s.publications.Get(ctx, input.Source)
	if err != nil {
		return nil, fmt.Errorf("get source publication: %w", err)
	}
	if src.Status == domain.PublicationRejected {
		return nil, &domain.TransitionError{
			Entity: "publication", From: int8(src.Status), To: int8(domain.PublicationReview),
			Reason: "source publication is rejected",
		}
	}
	c, err := s.creations.Get(ctx, src.GID, src.CID, "status", "approved_version")
	if err != nil {
		return nil, fmt.Errorf("get creation: %w", err)
	}
	if !c.VersionApproved(src.Version) {
		return nil, &domain.TransitionError{
			Entity: "publication", From: int8(c.Status), To: int8(domain.PublicationReview),
			Reason: fmt.Sprintf("creation version %d is not approved", src.Version),
		}
	}

	stored, err := s.contents.Put(ctx, content.PutInput{
		GID:      src.GID,
		CID:      src.CID,
		Version:  src.Version,
		Language: input.Language,
		Data:     input.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("store content: %w", err)
	}

	keywords := input.Keywords
	if keywords == nil {
		keywords = src.Keywords
	}
	now := s.now().UnixMilli()
	p := &domain.Publication{
		GID:          src.GID,
		CID:          src.CID,
		Language:     input.Language,
		Version:      src.Version,
		Status:       domain.PublicationReview,
		Creator:      creator,
		CreatedAt:    now,
		UpdatedAt:    now,
		Model:        input.Model,
		FromLanguage: src.Language,
		OriginalURL:  src.OriginalURL,
		Genre:        src.Genre,
		Title:        strings.TrimSpace(input.Title),
		Description:  input.Description,
		Cover:        src.Cover,
		Keywords:     keywords,
		Authors:      src.Authors,
		Summary:      input.Summary,
		Content:      stored.ID,
		License:      src.License,
	}
	if err := s.publications.Create(ctx, p); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			s.log.WarnContext(ctx, "translation content orphaned", slog.String("content_id", stored.ID.String()))
		}
		return nil, fmt.Errorf("create publication: %w", err)
	}

	s.log.InfoContext(ctx, "translation created",
		slog.String("key", p.Key().String()),
		slog.String("from_language", string(p.FromLanguage)),
		slog.String("model", p.Model),
	)
	return p, nil
}
