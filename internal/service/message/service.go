// Package message implements short texts attached to other entities and
// stored as one payload per language.
package message

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rs/xid"

	"github.com/heartmarshall/writing/internal/domain"
)

const (
	maxPayload = 64 << 10
	maxKind    = 32
	maxContext = 256
)

type messageRepo interface {
	Create(ctx context.Context, m *domain.Message) error
	Get(ctx context.Context, id xid.ID, fields ...string) (*domain.Message, error)
	SetText(ctx context.Context, id xid.ID, lang domain.Language, payload []byte, expectedVersion int16, updatedAt int64) error
	Delete(ctx context.Context, id xid.ID) error
}

// Service provides message operations.
type Service struct {
	messages messageRepo
	now      func() time.Time
	log      *slog.Logger
}

// NewService creates a new message service.
func NewService(log *slog.Logger, messages messageRepo) *Service {
	return &Service{
		messages: messages,
		now:      time.Now,
		log:      log.With("service", "message"),
	}
}

// CreateInput describes a message in its canonical language.
type CreateInput struct {
	AttachTo xid.ID
	Kind     string
	Context  string
	Language domain.Language
	Payload  []byte
}

// Validate checks all fields and collects all errors.
func (i CreateInput) Validate() error {
	var errs []domain.FieldError

	if i.AttachTo.IsNil() {
		errs = append(errs, domain.FieldError{Field: "attach_to", Message: "required"})
	}
	if len(i.Kind) > maxKind {
		errs = append(errs, domain.FieldError{Field: "kind", Message: "too long"})
	}
	if len(i.Context) > maxContext {
		errs = append(errs, domain.FieldError{Field: "context", Message: "too long"})
	}
	if !i.Language.IsValid() {
		errs = append(errs, domain.FieldError{Field: "language", Message: "must be an ISO 639-3 code"})
	}
	if len(i.Payload) == 0 {
		errs = append(errs, domain.FieldError{Field: "payload", Message: "required"})
	}
	if len(i.Payload) > maxPayload {
		errs = append(errs, domain.FieldError{Field: "payload", Message: "too large"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// SetTranslationInput puts the text of Language on the message at Version.
// An empty Payload removes that language.
type SetTranslationInput struct {
	ID       xid.ID
	Version  int16
	Language domain.Language
	Payload  []byte
}

// Validate checks all fields and collects all errors.
func (i SetTranslationInput) Validate() error {
	var errs []domain.FieldError

	if i.ID.IsNil() {
		errs = append(errs, domain.FieldError{Field: "id", Message: "required"})
	}
	if i.Version < 1 {
		errs = append(errs, domain.FieldError{Field: "version", Message: "must be at least 1"})
	}
	if !i.Language.IsValid() {
		errs = append(errs, domain.FieldError{Field: "language", Message: "must be an ISO 639-3 code"})
	}
	if len(i.Payload) > maxPayload {
		errs = append(errs, domain.FieldError{Field: "payload", Message: "too large"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// Create stores a message with its canonical text.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Message, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	id := domain.NewID()
	now := s.now().UnixMilli()
	m := &domain.Message{
		Day:       domain.IDDay(id),
		ID:        id,
		AttachTo:  input.AttachTo,
		Kind:      input.Kind,
		Context:   input.Context,
		Language:  input.Language,
		Languages: []domain.Language{input.Language},
		Texts:     map[string][]byte{string(input.Language): input.Payload},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	s.log.InfoContext(ctx, "message created",
		slog.String("id", m.ID.String()),
		slog.String("attach_to", m.AttachTo.String()),
		slog.String("language", string(m.Language)),
	)
	return m, nil
}

// Get returns a message with the texts of the requested languages only.
// Without languages, only the canonical text is returned.
func (s *Service) Get(ctx context.Context, id xid.ID, languages ...domain.Language) (*domain.Message, error) {
	m, err := s.messages.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(languages) == 0 {
		languages = []domain.Language{m.Language}
	}
	texts := make(map[string][]byte, len(languages))
	for _, l := range languages {
		if b, ok := m.Text(l); ok {
			texts[string(l)] = b
		}
	}
	m.Texts = texts
	return m, nil
}

// SetTranslation puts or removes the text of one language. The canonical
// language can be replaced but not removed. Removing a language the message
// does not have is a no-op.
func (s *Service) SetTranslation(ctx context.Context, input SetTranslationInput) (*domain.Message, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	m, err := s.messages.Get(ctx, input.ID)
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	if m.Version != input.Version {
		return nil, fmt.Errorf("message %s is at version %d, expected %d: %w", m.ID, m.Version, input.Version, domain.ErrVersionConflict)
	}

	remove := len(input.Payload) == 0
	if remove {
		if input.Language == m.Language {
			return nil, domain.NewValidationError("payload", "the canonical language cannot be removed")
		}
		if _, ok := m.Text(input.Language); !ok {
			return m, nil
		}
	}

	updatedAt := domain.NextUpdatedAt(m.UpdatedAt, s.now())
	if err := s.messages.SetText(ctx, m.ID, input.Language, input.Payload, m.Version, updatedAt); err != nil {
		return nil, fmt.Errorf("set message text: %w", err)
	}

	if m.Texts == nil {
		m.Texts = map[string][]byte{}
	}
	if remove {
		delete(m.Texts, string(input.Language))
	} else {
		m.Texts[string(input.Language)] = input.Payload
	}
	m.Languages = m.PopulatedLanguages()
	m.Version++
	m.UpdatedAt = updatedAt

	s.log.InfoContext(ctx, "message text set",
		slog.String("id", m.ID.String()),
		slog.String("language", string(input.Language)),
		slog.Bool("removed", remove),
	)
	return m, nil
}

// Delete removes a message.
func (s *Service) Delete(ctx context.Context, id xid.ID) error {
	if err := s.messages.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	s.log.InfoContext(ctx, "message deleted", slog.String("id", id.String()))
	return nil
}
