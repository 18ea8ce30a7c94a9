package creation

import (
	"strings"

	"github.com/rs/xid"

	"github.com/heartmarshall/writing/internal/domain"
)

const (
	maxTitle       = 256
	maxDescription = 2048
	maxListItems   = 32
)

// CreateInput holds the parameters for creating a draft.
type CreateInput struct {
	GID         xid.ID
	Language    domain.Language
	Rating      domain.Rating
	Title       string
	Description string
	Summary     string
	Cover       string
	OriginalURL string
	License     string
	Genre       []string
	Keywords    []string
	Labels      []string
	Authors     []string
	Data        []byte
}

// Validate checks all fields and collects all errors.
func (i CreateInput) Validate() error {
	var errs []domain.FieldError

	if i.GID.IsNil() {
		errs = append(errs, domain.FieldError{Field: "gid", Message: "required"})
	}
	if !i.Language.IsValid() {
		errs = append(errs, domain.FieldError{Field: "language", Message: "must be an ISO 639-3 code"})
	}
	if !i.Rating.IsValid() {
		errs = append(errs, domain.FieldError{Field: "rating", Message: "invalid"})
	}
	title := strings.TrimSpace(i.Title)
	if title == "" {
		errs = append(errs, domain.FieldError{Field: "title", Message: "required"})
	}
	if len(title) > maxTitle {
		errs = append(errs, domain.FieldError{Field: "title", Message: "too long"})
	}
	if len(i.Description) > maxDescription {
		errs = append(errs, domain.FieldError{Field: "description", Message: "too long"})
	}
	errs = append(errs, validateLists(i.Genre, i.Keywords, i.Labels, i.Authors)...)
	if len(i.Data) == 0 {
		errs = append(errs, domain.FieldError{Field: "data", Message: "required"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// UpdateStatusInput requests a status change of the creation at Version.
type UpdateStatusInput struct {
	GID     xid.ID
	ID      xid.ID
	Version int16
	Status  domain.CreationStatus
}

// Validate checks all fields and collects all errors.
func (i UpdateStatusInput) Validate() error {
	var errs []domain.FieldError

	errs = append(errs, validateKey(i.GID, i.ID, i.Version)...)
	if !i.Status.IsValid() {
		errs = append(errs, domain.FieldError{Field: "status", Message: "invalid"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// UpdateInput changes metadata. Nil fields are left unchanged.
type UpdateInput struct {
	GID         xid.ID
	ID          xid.ID
	Version     int16
	Rating      *domain.Rating
	Title       *string
	Description *string
	Summary     *string
	Cover       *string
	License     *string
	Genre       []string
	Keywords    []string
	Labels      []string
	Authors     []string
}

func (i UpdateInput) empty() bool {
	return i.Rating == nil && i.Title == nil && i.Description == nil && i.Summary == nil &&
		i.Cover == nil && i.License == nil &&
		i.Genre == nil && i.Keywords == nil && i.Labels == nil && i.Authors == nil
}

// Validate checks all fields and collects all errors.
func (i UpdateInput) Validate() error {
	var errs []domain.FieldError

	errs = append(errs, validateKey(i.GID, i.ID, i.Version)...)
	if i.empty() {
		errs = append(errs, domain.FieldError{Field: "input", Message: "at least one field must be provided"})
	}
	if i.Rating != nil && !i.Rating.IsValid() {
		errs = append(errs, domain.FieldError{Field: "rating", Message: "invalid"})
	}
	if i.Title != nil {
		title := strings.TrimSpace(*i.Title)
		if title == "" {
			errs = append(errs, domain.FieldError{Field: "title", Message: "required"})
		}
		if len(title) > maxTitle {
			errs = append(errs, domain.FieldError{Field: "title", Message: "too long"})
		}
	}
	if i.Description != nil && len(*i.Description) > maxDescription {
		errs = append(errs, domain.FieldError{Field: "description", Message: "too long"})
	}
	errs = append(errs, validateLists(i.Genre, i.Keywords, i.Labels, i.Authors)...)

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// ReplaceContentInput stores new content for the creation at Version.
type ReplaceContentInput struct {
	GID      xid.ID
	ID       xid.ID
	Version  int16
	Language domain.Language // empty keeps the current language
	Data     []byte
}

// Validate checks all fields and collects all errors.
func (i ReplaceContentInput) Validate() error {
	var errs []domain.FieldError

	errs = append(errs, validateKey(i.GID, i.ID, i.Version)...)
	if i.Language != "" && !i.Language.IsValid() {
		errs = append(errs, domain.FieldError{Field: "language", Message: "must be an ISO 639-3 code"})
	}
	if len(i.Data) == 0 {
		errs = append(errs, domain.FieldError{Field: "data", Message: "required"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

func validateKey(gid, id xid.ID, version int16) []domain.FieldError {
	var errs []domain.FieldError
	if gid.IsNil() {
		errs = append(errs, domain.FieldError{Field: "gid", Message: "required"})
	}
	if id.IsNil() {
		errs = append(errs, domain.FieldError{Field: "id", Message: "required"})
	}
	if version < 1 {
		errs = append(errs, domain.FieldError{Field: "version", Message: "must be at least 1"})
	}
	return errs
}

func validateLists(genre, keywords, labels, authors []string) []domain.FieldError {
	var errs []domain.FieldError
	lists := []struct {
		name  string
		items []string
	}{{"genre", genre}, {"keywords", keywords}, {"labels", labels}, {"authors", authors}}
	for _, l := range lists {
		if len(l.items) > maxListItems {
			errs = append(errs, domain.FieldError{Field: l.name, Message: "too many items"})
		}
	}
	return errs
}
