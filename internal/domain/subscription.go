package domain

import (
	"time"

	"github.com/rs/xid"
)

// Subscription records a user's paid or free access to a creation or
// collection. ExpireAt is in Unix seconds while UpdatedAt is in milliseconds.
type Subscription struct {
	UID       xid.ID `cql:"uid"`
	CID       xid.ID `cql:"cid"`
	Txn       xid.ID `cql:"txn"`
	UpdatedAt int64  `cql:"updated_at"`
	ExpireAt  int64  `cql:"expire_at"`
}

// Active reports whether the subscription is still valid at now.
// Expiry is advisory: nothing deletes expired rows, so every reader asks.
func (s *Subscription) Active(now time.Time) bool {
	return s.ExpireAt > now.Unix()
}
