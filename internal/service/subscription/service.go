// Package subscription implements the subscription ledger. Rows are never
// swept; expiry is checked by every reader.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rs/xid"

	"github.com/heartmarshall/writing/internal/domain"
)

//go:generate moq -out subscription_repo_mock_test.go -pkg subscription . subscriptionRepo

type subscriptionRepo interface {
	Upsert(ctx context.Context, target domain.SubscriptionTarget, s *domain.Subscription) error
	Get(ctx context.Context, target domain.SubscriptionTarget, uid, cid xid.ID) (*domain.Subscription, error)
	List(ctx context.Context, target domain.SubscriptionTarget, uid xid.ID) ([]domain.Subscription, error)
}

// Service provides subscription ledger operations.
type Service struct {
	subscriptions subscriptionRepo
	now           func() time.Time
	log           *slog.Logger
}

// NewService creates a new subscription service.
func NewService(log *slog.Logger, subscriptions subscriptionRepo) *Service {
	return &Service{
		subscriptions: subscriptions,
		now:           time.Now,
		log:           log.With("service", "subscription"),
	}
}

// SubscribeInput grants UserID access to TargetID until ExpireAt.
type SubscribeInput struct {
	Target   domain.SubscriptionTarget
	UserID   xid.ID
	TargetID xid.ID
	Txn      xid.ID // payment transaction, nil for free access
	ExpireAt time.Time
}

// Validate checks all fields and collects all errors.
func (i SubscribeInput) Validate() error {
	var errs []domain.FieldError

	if !i.Target.IsValid() {
		errs = append(errs, domain.FieldError{Field: "target", Message: "must be creation or collection"})
	}
	if i.UserID.IsNil() {
		errs = append(errs, domain.FieldError{Field: "uid", Message: "required"})
	}
	if i.TargetID.IsNil() {
		errs = append(errs, domain.FieldError{Field: "cid", Message: "required"})
	}
	if i.ExpireAt.IsZero() {
		errs = append(errs, domain.FieldError{Field: "expire_at", Message: "required"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// Subscribe records or replaces the subscription of a user to a target.
func (s *Service) Subscribe(ctx context.Context, input SubscribeInput) (*domain.Subscription, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	sub := &domain.Subscription{
		UID:       input.UserID,
		CID:       input.TargetID,
		Txn:       input.Txn,
		UpdatedAt: s.now().UnixMilli(),
		ExpireAt:  input.ExpireAt.Unix(),
	}
	if err := s.subscriptions.Upsert(ctx, input.Target, sub); err != nil {
		return nil, fmt.Errorf("upsert subscription: %w", err)
	}

	s.log.InfoContext(ctx, "subscription recorded",
		slog.String("target", input.Target.String()),
		slog.String("uid", sub.UID.String()),
		slog.String("cid", sub.CID.String()),
		slog.Time("expire_at", input.ExpireAt),
	)
	return sub, nil
}

// Get returns the subscription row, expired or not, and whether it is
// active now.
func (s *Service) Get(ctx context.Context, target domain.SubscriptionTarget, uid, cid xid.ID) (*domain.Subscription, bool, error) {
	sub, err := s.subscriptions.Get(ctx, target, uid, cid)
	if err != nil {
		return nil, false, err
	}
	return sub, sub.Active(s.now()), nil
}

// HasAccess reports whether uid holds an active subscription to cid.
func (s *Service) HasAccess(ctx context.Context, target domain.SubscriptionTarget, uid, cid xid.ID) (bool, error) {
	_, active, err := s.Get(ctx, target, uid, cid)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get subscription: %w", err)
	}
	return active, nil
}

// List returns the subscriptions of a user, optionally only the active ones.
func (s *Service) List(ctx context.Context, target domain.SubscriptionTarget, uid xid.ID, activeOnly bool) ([]domain.Subscription, error) {
	subs, err := s.subscriptions.List(ctx, target, uid)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	if !activeOnly {
		return subs, nil
	}
	now := s.now()
	out := subs[:0]
	for i := range subs {
		if subs[i].Active(now) {
			out = append(out, subs[i])
		}
	}
	return out, nil
}
