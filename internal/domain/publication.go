package domain

import (
	"fmt"

	"github.com/rs/xid"
)

// PublicationKey is the natural key of a Publication.
type PublicationKey struct {
	GID      xid.ID
	CID      xid.ID
	Language Language
	Version  int16
}

func (k PublicationKey) String() string {
	return fmt.Sprintf("%s/%s/%s/v%d", k.GID, k.CID, k.Language, k.Version)
}

// Publication is a per-language rendering of one Creation version.
type Publication struct {
	GID          xid.ID            `cql:"gid"`
	CID          xid.ID            `cql:"cid"`
	Language     Language          `cql:"language"`
	Version      int16             `cql:"version"`
	Status       PublicationStatus `cql:"status"`
	Creator      xid.ID            `cql:"creator"`
	CreatedAt    int64             `cql:"created_at"`
	UpdatedAt    int64             `cql:"updated_at"`
	Model        string            `cql:"model"`
	FromLanguage Language          `cql:"from_language"`
	OriginalURL  string            `cql:"original_url"`
	Genre        []string          `cql:"genre"`
	Title        string            `cql:"title"`
	Description  string            `cql:"description"`
	Cover        string            `cql:"cover"`
	Keywords     []string          `cql:"keywords"`
	Authors      []string          `cql:"authors"`
	Summary      string            `cql:"summary"`
	Content      xid.ID            `cql:"content"`
	License      string            `cql:"license"`
}

func (p *Publication) Key() PublicationKey {
	return PublicationKey{GID: p.GID, CID: p.CID, Language: p.Language, Version: p.Version}
}

// IsOriginal reports whether the publication is in the creation's own
// language rather than a translation.
func (p *Publication) IsOriginal() bool {
	return p.Model == "" && p.FromLanguage == p.Language
}

// PubIndexEntry is one row of the day-bucketed index of published
// (creation, language) pairs. A row may be stale; readers compare it with the
// live publication.
type PubIndexEntry struct {
	Day       Day      `cql:"day"`
	CID       xid.ID   `cql:"cid"`
	Language  Language `cql:"language"`
	GID       xid.ID   `cql:"gid"`
	Version   int16    `cql:"version"`
	Original  bool     `cql:"original"`
	UpdatedAt int64    `cql:"updated_at"`
}

// LatestPublished returns the highest-version published publication among
// pubs, or nil.
func LatestPublished(pubs []Publication) *Publication {
	var best *Publication
	for i := range pubs {
		p := &pubs[i]
		if p.Status != PublicationPublished {
			continue
		}
		if best == nil || p.Version > best.Version {
			best = p
		}
	}
	return best
}
