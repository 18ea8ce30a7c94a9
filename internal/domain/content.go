package domain

import "github.com/rs/xid"

// Content is an immutable stored payload. Data holds the compressed bytes;
// Length and Hash describe the raw bytes.
type Content struct {
	ID        xid.ID   `cql:"id"`
	GID       xid.ID   `cql:"gid"`
	CID       xid.ID   `cql:"cid"`
	Status    int8     `cql:"status"`
	Version   int16    `cql:"version"`
	Language  Language `cql:"language"`
	UpdatedAt int64    `cql:"updated_at"`
	Length    int32    `cql:"length"`
	Hash      []byte   `cql:"hash"`
	Data      []byte   `cql:"content"`
}
