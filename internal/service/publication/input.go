package publication

import (
	"strings"

	"github.com/heartmarshall/writing/internal/domain"
)

const (
	maxTitle       = 256
	maxDescription = 2048
	maxModel       = 64
	maxKeywords    = 32
)

// TranslationInput describes a translated rendering of Source.
type TranslationInput struct {
	Source      domain.PublicationKey
	Language    domain.Language
	Model       string // empty for a human translation
	Title       string
	Description string
	Summary     string
	Keywords    []string
	Data        []byte
}

// Validate checks all fields and collects all errors.
func (i TranslationInput) Validate() error {
	var errs []domain.FieldError

	errs = append(errs, validateKey(i.Source)...)
	if !i.Language.IsValid() {
		errs = append(errs, domain.FieldError{Field: "language", Message: "must be an ISO 639-3 code"})
	} else if i.Language == i.Source.Language {
		errs = append(errs, domain.FieldError{Field: "language", Message: "must differ from the source language"})
	}
	if len(i.Model) > maxModel {
		errs = append(errs, domain.FieldError{Field: "model", Message: "too long"})
	}
	if strings.TrimSpace(i.Title) == "" {
		errs = append(errs, domain.FieldError{Field: "title", Message: "required"})
	}
	if len(i.Title) > maxTitle {
		errs = append(errs, domain.FieldError{Field: "title", Message: "too long"})
	}
	if len(i.Description) > maxDescription {
		errs = append(errs, domain.FieldError{Field: "description", Message: "too long"})
	}
	if len(i.Keywords) > maxKeywords {
		errs = append(errs, domain.FieldError{Field: "keywords", Message: "too many items"})
	}
	if len(i.Data) == 0 {
		errs = append(errs, domain.FieldError{Field: "data", Message: "required"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// UpdateStatusInput requests a status change. UpdatedAt is the compare
// token read with the publication.
type UpdateStatusInput struct {
	Key       domain.PublicationKey
	UpdatedAt int64
	Status    domain.PublicationStatus
}

// Validate checks all fields and collects all errors.
func (i UpdateStatusInput) Validate() error {
	var errs []domain.FieldError

	errs = append(errs, validateKey(i.Key)...)
	if !i.Status.IsValid() {
		errs = append(errs, domain.FieldError{Field: "status", Message: "invalid"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// UpdateInput changes metadata of a publication in review. Nil fields are
// left unchanged.
type UpdateInput struct {
	Key         domain.PublicationKey
	UpdatedAt   int64
	Model       *string
	Title       *string
	Description *string
	Cover       *string
	Summary     *string
	Keywords    []string
}

// Validate checks all fields and collects all errors.
func (i UpdateInput) Validate() error {
	var errs []domain.FieldError

	errs = append(errs, validateKey(i.Key)...)
	if i.Model == nil && i.Title == nil && i.Description == nil && i.Cover == nil &&
		i.Summary == nil && i.Keywords == nil {
		errs = append(errs, domain.FieldError{Field: "input", Message: "at least one field must be provided"})
	}
	if i.Model != nil && len(*i.Model) > maxModel {
		errs = append(errs, domain.FieldError{Field: "model", Message: "too long"})
	}
	if i.Title != nil {
		if strings.TrimSpace(*i.Title) == "" {
			errs = append(errs, domain.FieldError{Field: "title", Message: "required"})
		}
		if len(*i.Title) > maxTitle {
			errs = append(errs, domain.FieldError{Field: "title", Message: "too long"})
		}
	}
	if i.Description != nil && len(*i.Description) > maxDescription {
		errs = append(errs, domain.FieldError{Field: "description", Message: "too long"})
	}
	if len(i.Keywords) > maxKeywords {
		errs = append(errs, domain.FieldError{Field: "keywords", Message: "too many items"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// ReplaceContentInput stores new content for a publication in review.
type ReplaceContentInput struct {
	Key       domain.PublicationKey
	UpdatedAt int64
	Data      []byte
}

// Validate checks all fields and collects all errors.
func (i ReplaceContentInput) Validate() error {
	var errs []domain.FieldError

	errs = append(errs, validateKey(i.Key)...)
	if len(i.Data) == 0 {
		errs = append(errs, domain.FieldError{Field: "data", Message: "required"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

func validateKey(k domain.PublicationKey) []domain.FieldError {
	var errs []domain.FieldError
	if k.GID.IsNil() {
		errs = append(errs, domain.FieldError{Field: "gid", Message: "required"})
	}
	if k.CID.IsNil() {
		errs = append(errs, domain.FieldError{Field: "cid", Message: "required"})
	}
	if !k.Language.IsValid() {
		errs = append(errs, domain.FieldError{Field: "language", Message: "must be an ISO 639-3 code"})
	}
	if k.Version < 1 {
		errs = append(errs, domain.FieldError{Field: "version", Message: "must be at least 1"})
	}
	return errs
}
