package domain

import "github.com/rs/xid"

// Bookmark is a user's saved pointer into a creation or publication with an
// opaque CBOR payload (reading position, highlights).
type Bookmark struct {
	UID       xid.ID    `cql:"uid"`
	ID        xid.ID    `cql:"id"`
	Kind      ChildKind `cql:"kind"`
	CID       xid.ID    `cql:"cid"`
	GID       xid.ID    `cql:"gid"`
	Language  Language  `cql:"language"`
	Version   int16     `cql:"version"`
	UpdatedAt int64     `cql:"updated_at"`
	Title     string    `cql:"title"`
	Labels    []string  `cql:"labels"`
	Payload   []byte    `cql:"payload"`
}
