package content

import (
	"fmt"

	"github.com/rs/xid"

	"github.com/heartmarshall/writing/internal/domain"
)

// PutInput describes a payload and the creation version it belongs to.
type PutInput struct {
	GID      xid.ID
	CID      xid.ID
	Version  int16
	Language domain.Language
	Data     []byte
}

// Validate checks all fields and collects all errors.
func (i PutInput) Validate(maxBytes int) error {
	var errs []domain.FieldError

	if i.GID.IsNil() {
		errs = append(errs, domain.FieldError{Field: "gid", Message: "required"})
	}
	if i.CID.IsNil() {
		errs = append(errs, domain.FieldError{Field: "cid", Message: "required"})
	}
	if i.Version < 1 {
		errs = append(errs, domain.FieldError{Field: "version", Message: "must be at least 1"})
	}
	if !i.Language.IsValid() {
		errs = append(errs, domain.FieldError{Field: "language", Message: "invalid"})
	}
	if len(i.Data) == 0 {
		errs = append(errs, domain.FieldError{Field: "data", Message: "required"})
	}
	if len(i.Data) > maxBytes {
		errs = append(errs, domain.FieldError{Field: "data", Message: fmt.Sprintf("max %d bytes", maxBytes)})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}
