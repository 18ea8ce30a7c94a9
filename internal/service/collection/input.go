package collection

import (
	"strings"

	"github.com/rs/xid"

	"github.com/heartmarshall/writing/internal/domain"
)

const (
	maxTitle     = 256
	maxSummary   = 2048
	maxListItems = 32
	maxBatch     = 1000
)

// CreateInput holds the parameters for creating a collection.
type CreateInput struct {
	GID           xid.ID
	Status        domain.CollectionStatus
	Rating        domain.Rating
	Price         domain.Price
	CreationPrice domain.Price
	Language      domain.Language
	Title         string
	Summary       string
	Cover         string
	Keywords      []string
	Labels        []string
	MID           xid.ID // optional info message
}

// Validate checks all fields and collects all errors.
func (i CreateInput) Validate() error {
	var errs []domain.FieldError

	if i.GID.IsNil() {
		errs = append(errs, domain.FieldError{Field: "gid", Message: "required"})
	}
	if !i.Status.IsValid() || i.Status == domain.CollectionArchived {
		errs = append(errs, domain.FieldError{Field: "status", Message: "invalid"})
	}
	if !i.Rating.IsValid() {
		errs = append(errs, domain.FieldError{Field: "rating", Message: "invalid"})
	}
	if !i.Price.IsValid() {
		errs = append(errs, domain.FieldError{Field: "price", Message: "invalid"})
	}
	if !i.CreationPrice.IsValid() {
		errs = append(errs, domain.FieldError{Field: "creation_price", Message: "invalid"})
	}
	if !i.Language.IsValid() {
		errs = append(errs, domain.FieldError{Field: "language", Message: "must be an ISO 639-3 code"})
	}
	errs = append(errs, validateText(&i.Title, i.Summary, i.Keywords, i.Labels)...)

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// UpdateInput changes collection metadata. Nil fields are left unchanged.
type UpdateInput struct {
	ID            xid.ID
	Version       int16
	Rating        *domain.Rating
	Price         *domain.Price
	CreationPrice *domain.Price
	Title         *string
	Summary       *string
	Cover         *string
	Keywords      []string
	Labels        []string
	MID           *xid.ID
}

// Validate checks all fields and collects all errors.
func (i UpdateInput) Validate() error {
	var errs []domain.FieldError

	errs = append(errs, validateRef(i.ID, i.Version)...)
	if i.Rating == nil && i.Price == nil && i.CreationPrice == nil && i.Title == nil &&
		i.Summary == nil && i.Cover == nil && i.Keywords == nil && i.Labels == nil && i.MID == nil {
		errs = append(errs, domain.FieldError{Field: "input", Message: "at least one field must be provided"})
	}
	if i.Rating != nil && !i.Rating.IsValid() {
		errs = append(errs, domain.FieldError{Field: "rating", Message: "invalid"})
	}
	if i.Price != nil && !i.Price.IsValid() {
		errs = append(errs, domain.FieldError{Field: "price", Message: "invalid"})
	}
	if i.CreationPrice != nil && !i.CreationPrice.IsValid() {
		errs = append(errs, domain.FieldError{Field: "creation_price", Message: "invalid"})
	}
	summary := ""
	if i.Summary != nil {
		summary = *i.Summary
	}
	errs = append(errs, validateText(i.Title, summary, i.Keywords, i.Labels)...)

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// UpdateStatusInput changes the visibility of the collection at Version.
type UpdateStatusInput struct {
	ID      xid.ID
	Version int16
	Status  domain.CollectionStatus
}

// Validate checks all fields and collects all errors.
func (i UpdateStatusInput) Validate() error {
	var errs []domain.FieldError

	errs = append(errs, validateRef(i.ID, i.Version)...)
	if !i.Status.IsValid() {
		errs = append(errs, domain.FieldError{Field: "status", Message: "invalid"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// AddChildrenInput appends children of one kind to Parent. GID is the group
// the children belong to.
type AddChildrenInput struct {
	Parent   xid.ID
	Kind     domain.ChildKind
	GID      xid.ID
	Children []xid.ID
}

// Validate checks all fields and collects all errors.
func (i AddChildrenInput) Validate() error {
	var errs []domain.FieldError

	if i.Parent.IsNil() {
		errs = append(errs, domain.FieldError{Field: "parent", Message: "required"})
	}
	if !i.Kind.IsValid() {
		errs = append(errs, domain.FieldError{Field: "kind", Message: "invalid"})
	}
	if i.Kind != domain.ChildCollection && i.GID.IsNil() {
		errs = append(errs, domain.FieldError{Field: "gid", Message: "required"})
	}
	if len(i.Children) == 0 {
		errs = append(errs, domain.FieldError{Field: "children", Message: "required"})
	}
	if len(i.Children) > maxBatch {
		errs = append(errs, domain.FieldError{Field: "children", Message: "too many items"})
	}
	for _, c := range i.Children {
		if c.IsNil() {
			errs = append(errs, domain.FieldError{Field: "children", Message: "contains an empty id"})
			break
		}
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// MoveChildInput places Child right after After, or right before Before when
// After is nil. When both are set they must be adjacent.
type MoveChildInput struct {
	Parent xid.ID
	Child  xid.ID
	After  xid.ID
	Before xid.ID
}

// Validate checks all fields and collects all errors.
func (i MoveChildInput) Validate() error {
	var errs []domain.FieldError

	if i.Parent.IsNil() {
		errs = append(errs, domain.FieldError{Field: "parent", Message: "required"})
	}
	if i.Child.IsNil() {
		errs = append(errs, domain.FieldError{Field: "child", Message: "required"})
	}
	if i.After.IsNil() && i.Before.IsNil() {
		errs = append(errs, domain.FieldError{Field: "after", Message: "after or before is required"})
	}
	if i.After == i.Child || i.Before == i.Child {
		errs = append(errs, domain.FieldError{Field: "child", Message: "cannot be its own neighbour"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

func validateRef(id xid.ID, version int16) []domain.FieldError {
	var errs []domain.FieldError
	if id.IsNil() {
		errs = append(errs, domain.FieldError{Field: "id", Message: "required"})
	}
	if version < 1 {
		errs = append(errs, domain.FieldError{Field: "version", Message: "must be at least 1"})
	}
	return errs
}

func validateText(title *string, summary string, keywords, labels []string) []domain.FieldError {
	var errs []domain.FieldError
	if title != nil {
		t := strings.TrimSpace(*title)
		if t == "" {
			errs = append(errs, domain.FieldError{Field: "title", Message: "required"})
		}
		if len(t) > maxTitle {
			errs = append(errs, domain.FieldError{Field: "title", Message: "too long"})
		}
	}
	if len(summary) > maxSummary {
		errs = append(errs, domain.FieldError{Field: "summary", Message: "too long"})
	}
	if len(keywords) > maxListItems {
		errs = append(errs, domain.FieldError{Field: "keywords", Message: "too many items"})
	}
	if len(labels) > maxListItems {
		errs = append(errs, domain.FieldError{Field: "labels", Message: "too many items"})
	}
	return errs
}
