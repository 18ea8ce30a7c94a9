// Package subscription implements the creation and collection subscription
// ledgers using ScyllaDB. Both tables share one shape.
package subscription

import (
	"context"
	"fmt"

	"github.com/rs/xid"

	"github.com/heartmarshall/writing/internal/adapter/scylla"
	"github.com/heartmarshall/writing/internal/domain"
	"github.com/heartmarshall/writing/pkg/colmap"
)

var base = colmap.NewTable("creation_subscription", domain.Subscription{}, []string{"uid"}, "cid")

var tables = map[domain.SubscriptionTarget]*colmap.Table{
	domain.SubscribeCreation:   base,
	domain.SubscribeCollection: base.WithName("collection_subscription"),
}

// Repo provides subscription persistence backed by ScyllaDB.
type Repo struct {
	db *scylla.DB
}

// New creates a new subscription repository.
func New(db *scylla.DB) *Repo {
	return &Repo{db: db}
}

func tableFor(target domain.SubscriptionTarget) (*colmap.Table, error) {
	t, ok := tables[target]
	if !ok {
		return nil, domain.NewValidationError("target", fmt.Sprintf("unknown subscription target %q", target))
	}
	return t, nil
}

// Upsert writes the current state of a subscription, replacing any prior
// transaction and expiry.
func (r *Repo) Upsert(ctx context.Context, target domain.SubscriptionTarget, s *domain.Subscription) error {
	t, err := tableFor(target)
	if err != nil {
		return err
	}
	cols, err := colmap.FromStruct(s)
	if err != nil {
		return fmt.Errorf("map subscription: %w", err)
	}
	ins, err := t.Insert(cols)
	if err != nil {
		return fmt.Errorf("build subscription insert: %w", err)
	}
	if err := r.db.Exec(ctx, ins); err != nil {
		return scylla.MapError(err, t.Name(), s.UID.String()+"/"+s.CID.String())
	}
	return nil
}

// Get returns the subscription row, expired or not.
func (r *Repo) Get(ctx context.Context, target domain.SubscriptionTarget, uid, cid xid.ID) (*domain.Subscription, error) {
	t, err := tableFor(target)
	if err != nil {
		return nil, err
	}
	row, err := r.db.Get(ctx, t.Select(t.Columns(), colmap.Columns{"uid": uid, "cid": cid}).Limit(1))
	if err != nil {
		return nil, scylla.MapError(err, t.Name(), uid.String()+"/"+cid.String())
	}
	var s domain.Subscription
	if err := colmap.Fill(&s, row); err != nil {
		return nil, fmt.Errorf("map subscription row: %w", err)
	}
	return &s, nil
}

// List returns every subscription row of a user.
func (r *Repo) List(ctx context.Context, target domain.SubscriptionTarget, uid xid.ID) ([]domain.Subscription, error) {
	t, err := tableFor(target)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.All(ctx, t.Select(t.Columns(), colmap.Columns{"uid": uid}))
	if err != nil {
		return nil, scylla.MapError(err, t.Name(), uid.String())
	}
	out := make([]domain.Subscription, 0, len(rows))
	for _, row := range rows {
		var s domain.Subscription
		if err := colmap.Fill(&s, row); err != nil {
			return nil, fmt.Errorf("map subscription row: %w", err)
		}
		out = append(out, s)
	}
	return out, nil
}
