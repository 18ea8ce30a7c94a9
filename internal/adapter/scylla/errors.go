package scylla

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/gocql/gocql"

	"github.com/heartmarshall/writing/internal/domain"
	"github.com/heartmarshall/writing/pkg/colmap"
)

// MapError converts driver errors to domain errors.
// context.DeadlineExceeded and context.Canceled are NOT mapped; they pass through.
func MapError(err error, entity, key string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", entity, key, err)
	}

	if errors.Is(err, gocql.ErrNotFound) {
		return fmt.Errorf("%s %s: %w", entity, key, domain.ErrNotFound)
	}

	if errors.Is(err, colmap.ErrUnknownColumn) {
		return fmt.Errorf("%s %s: %w", entity, key,
			domain.NewValidationError("fields", err.Error()))
	}

	if isUnavailable(err) {
		return fmt.Errorf("%s %s: %w: %w", entity, key, domain.ErrDependencyUnavailable, err)
	}

	return fmt.Errorf("%s %s: %w", entity, key, err)
}

// isUnavailable reports errors after which the same request may succeed
// once the cluster recovers.
func isUnavailable(err error) bool {
	switch {
	case errors.Is(err, gocql.ErrNoConnections),
		errors.Is(err, gocql.ErrTimeoutNoResponse),
		errors.Is(err, gocql.ErrConnectionClosed),
		errors.Is(err, gocql.ErrSessionClosed):
		return true
	}

	var (
		unavailable  *gocql.RequestErrUnavailable
		writeTimeout *gocql.RequestErrWriteTimeout
		readTimeout  *gocql.RequestErrReadTimeout
		netErr       net.Error
	)
	return errors.As(err, &unavailable) ||
		errors.As(err, &writeTimeout) ||
		errors.As(err, &readTimeout) ||
		errors.As(err, &netErr)
}
