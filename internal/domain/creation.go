package domain

import "github.com/rs/xid"

// Creation is an authored, versioned work owned by a group.
// Version and UpdatedAt are surfaced on every read as compare tokens.
type Creation struct {
	GID             xid.ID         `cql:"gid"`
	ID              xid.ID         `cql:"id"`
	Status          CreationStatus `cql:"status"`
	Rating          Rating         `cql:"rating"`
	Version         int16          `cql:"version"`
	ApprovedVersion int16          `cql:"approved_version"`
	Language        Language       `cql:"language"`
	Creator         xid.ID         `cql:"creator"`
	CreatedAt       int64          `cql:"created_at"`
	UpdatedAt       int64          `cql:"updated_at"`
	OriginalURL     string         `cql:"original_url"`
	Genre           []string       `cql:"genre"`
	Title           string         `cql:"title"`
	Description     string         `cql:"description"`
	Cover           string         `cql:"cover"`
	Keywords        []string       `cql:"keywords"`
	Labels          []string       `cql:"labels"`
	Authors         []string       `cql:"authors"`
	Summary         string         `cql:"summary"`
	Content         xid.ID         `cql:"content"`
	ApprovedContent xid.ID         `cql:"approved_content"`
	License         string         `cql:"license"`
}

// VersionApproved reports whether version v of the creation reached approved
// and is still eligible to be published.
func (c *Creation) VersionApproved(v int16) bool {
	if c.Status == CreationArchived {
		return false
	}
	return v >= 1 && v <= c.ApprovedVersion
}

// NextContentVersion returns the version a content replacement lands on.
// A version that has been approved is frozen; edits open the next one.
func (c *Creation) NextContentVersion() int16 {
	if c.ApprovedVersion >= c.Version {
		return c.Version + 1
	}
	return c.Version
}
