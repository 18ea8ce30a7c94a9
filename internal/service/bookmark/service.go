// Package bookmark implements per-user bookmarks. Every operation acts on
// the caller's own bookmarks only.
package bookmark

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/heartmarshall/writing/internal/domain"
	"github.com/heartmarshall/writing/pkg/colmap"
	"github.com/heartmarshall/writing/pkg/ctxutil"
)

const (
	maxTitle    = 256
	maxLabels   = 32
	maxPayload  = 64 << 10
	defaultPage = 50
	maxPage     = 500
)

type bookmarkRepo interface {
	Create(ctx context.Context, b *domain.Bookmark) error
	Get(ctx context.Context, uid, id xid.ID, fields ...string) (*domain.Bookmark, error)
	GetByTarget(ctx context.Context, uid, cid xid.ID) ([]domain.Bookmark, error)
	List(ctx context.Context, uid xid.ID, limit int, pageToken []byte, fields ...string) ([]domain.Bookmark, []byte, error)
	Update(ctx context.Context, uid, id xid.ID, set colmap.Columns, expectedUpdatedAt int64) error
	Delete(ctx context.Context, uid, id xid.ID) error
}

// Service provides bookmark operations.
type Service struct {
	bookmarks bookmarkRepo
	now       func() time.Time
	log       *slog.Logger
}

// NewService creates a new bookmark service.
func NewService(log *slog.Logger, bookmarks bookmarkRepo) *Service {
	return &Service{
		bookmarks: bookmarks,
		now:       time.Now,
		log:       log.With("service", "bookmark"),
	}
}

// AddInput describes a new bookmark.
type AddInput struct {
	Kind     domain.ChildKind
	CID      xid.ID
	GID      xid.ID
	Language domain.Language
	Version  int16
	Title    string
	Labels   []string
	Payload  []byte // CBOR, optional
}

// Validate checks all fields and collects all errors.
func (i AddInput) Validate() error {
	var errs []domain.FieldError

	if !i.Kind.IsValid() {
		errs = append(errs, domain.FieldError{Field: "kind", Message: "invalid"})
	}
	if i.CID.IsNil() {
		errs = append(errs, domain.FieldError{Field: "cid", Message: "required"})
	}
	if i.Language != "" && !i.Language.IsValid() {
		errs = append(errs, domain.FieldError{Field: "language", Message: "must be an ISO 639-3 code"})
	}
	if i.Version < 0 {
		errs = append(errs, domain.FieldError{Field: "version", Message: "must not be negative"})
	}
	errs = append(errs, validateCommon(i.Title, i.Labels, i.Payload)...)

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// UpdateInput changes a bookmark. Nil fields are left unchanged.
type UpdateInput struct {
	ID        xid.ID
	UpdatedAt int64
	Version   *int16
	Title     *string
	Labels    []string
	Payload   []byte
}

// Validate checks all fields and collects all errors.
func (i UpdateInput) Validate() error {
	var errs []domain.FieldError

	if i.ID.IsNil() {
		errs = append(errs, domain.FieldError{Field: "id", Message: "required"})
	}
	if i.Version == nil && i.Title == nil && i.Labels == nil && i.Payload == nil {
		errs = append(errs, domain.FieldError{Field: "input", Message: "at least one field must be provided"})
	}
	if i.Version != nil && *i.Version < 0 {
		errs = append(errs, domain.FieldError{Field: "version", Message: "must not be negative"})
	}
	title := ""
	if i.Title != nil {
		title = *i.Title
	}
	errs = append(errs, validateCommon(title, i.Labels, i.Payload)...)

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

func validateCommon(title string, labels []string, payload []byte) []domain.FieldError {
	var errs []domain.FieldError
	if len(title) > maxTitle {
		errs = append(errs, domain.FieldError{Field: "title", Message: "too long"})
	}
	if len(labels) > maxLabels {
		errs = append(errs, domain.FieldError{Field: "labels", Message: "too many items"})
	}
	if len(payload) > maxPayload {
		errs = append(errs, domain.FieldError{Field: "payload", Message: fmt.Sprintf("max %d bytes", maxPayload)})
	} else if len(payload) > 0 {
		if err := colmap.WellFormedCBOR(payload); err != nil {
			errs = append(errs, domain.FieldError{Field: "payload", Message: "must be well-formed CBOR"})
		}
	}
	return errs
}

// Add creates a bookmark owned by the caller.
func (s *Service) Add(ctx context.Context, input AddInput) (*domain.Bookmark, error) {
	uid, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	b := &domain.Bookmark{
		UID:       uid,
		ID:        domain.NewID(),
		Kind:      input.Kind,
		CID:       input.CID,
		GID:       input.GID,
		Language:  input.Language,
		Version:   input.Version,
		UpdatedAt: s.now().UnixMilli(),
		Title:     strings.TrimSpace(input.Title),
		Labels:    input.Labels,
		Payload:   input.Payload,
	}
	if err := s.bookmarks.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create bookmark: %w", err)
	}

	s.log.InfoContext(ctx, "bookmark added",
		slog.String("uid", uid.String()),
		slog.String("id", b.ID.String()),
		slog.String("cid", b.CID.String()),
	)
	return b, nil
}

// Get returns one of the caller's bookmarks.
func (s *Service) Get(ctx context.Context, id xid.ID, fields ...string) (*domain.Bookmark, error) {
	uid, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return s.bookmarks.Get(ctx, uid, id, fields...)
}

// GetByTarget returns the caller's bookmarks on cid.
func (s *Service) GetByTarget(ctx context.Context, cid xid.ID) ([]domain.Bookmark, error) {
	uid, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return s.bookmarks.GetByTarget(ctx, uid, cid)
}

// List returns one page of the caller's bookmarks.
func (s *Service) List(ctx context.Context, limit int, pageToken []byte, fields ...string) ([]domain.Bookmark, []byte, error) {
	uid, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, nil, domain.ErrUnauthorized
	}
	switch {
	case limit <= 0:
		limit = defaultPage
	case limit > maxPage:
		limit = maxPage
	}
	return s.bookmarks.List(ctx, uid, limit, pageToken, fields...)
}

// Update changes one of the caller's bookmarks if it was not modified since
// UpdatedAt was read.
func (s *Service) Update(ctx context.Context, input UpdateInput) (*domain.Bookmark, error) {
	uid, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	b, err := s.bookmarks.Get(ctx, uid, input.ID)
	if err != nil {
		return nil, fmt.Errorf("get bookmark: %w", err)
	}
	if b.UpdatedAt != input.UpdatedAt {
		return nil, fmt.Errorf("bookmark %s changed since read: %w", input.ID, domain.ErrVersionConflict)
	}

	set := colmap.Columns{"updated_at": domain.NextUpdatedAt(b.UpdatedAt, s.now())}
	if input.Version != nil {
		set["version"] = *input.Version
	}
	if input.Title != nil {
		set["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Labels != nil {
		set["labels"] = input.Labels
	}
	if input.Payload != nil {
		set["payload"] = input.Payload
	}
	if err := s.bookmarks.Update(ctx, uid, input.ID, set, b.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update bookmark: %w", err)
	}
	if err := colmap.Fill(b, set); err != nil {
		return nil, fmt.Errorf("apply update: %w", err)
	}
	return b, nil
}

// Remove deletes one of the caller's bookmarks. Removing an absent bookmark
// is a no-op.
func (s *Service) Remove(ctx context.Context, id xid.ID) error {
	uid, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}
	if err := s.bookmarks.Delete(ctx, uid, id); err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	s.log.InfoContext(ctx, "bookmark removed",
		slog.String("uid", uid.String()),
		slog.String("id", id.String()),
	)
	return nil
}
