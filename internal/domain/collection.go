package domain

import (
	"sort"

	"github.com/rs/xid"
)

// Collection groups creations, publications and other collections.
// Day is derived from the id timestamp and never changes.
type Collection struct {
	Day           Day              `cql:"day"`
	ID            xid.ID           `cql:"id"`
	GID           xid.ID           `cql:"gid"`
	Status        CollectionStatus `cql:"status"`
	Rating        Rating           `cql:"rating"`
	Price         Price            `cql:"price"`
	CreationPrice Price            `cql:"creation_price"`
	Language      Language         `cql:"language"`
	Version       int16            `cql:"version"`
	UpdatedAt     int64            `cql:"updated_at"`
	Title         string           `cql:"title"`
	Summary       string           `cql:"summary"`
	Cover         string           `cql:"cover"`
	Keywords      []string         `cql:"keywords"`
	Labels        []string         `cql:"labels"`
	MID           xid.ID           `cql:"mid"`
}

// CollectionChild is one ordered membership row. The child is a weak
// reference: it may point to something that no longer exists.
type CollectionChild struct {
	ID        xid.ID    `cql:"id"`
	CID       xid.ID    `cql:"cid"`
	Kind      ChildKind `cql:"kind"`
	GID       xid.ID    `cql:"gid"`
	Ord       float64   `cql:"ord"`
	UpdatedAt int64     `cql:"updated_at"`
}

// SortChildren orders children by their fractional key, ties broken by id.
func SortChildren(children []CollectionChild) {
	sort.SliceStable(children, func(i, j int) bool {
		if children[i].Ord != children[j].Ord {
			return children[i].Ord < children[j].Ord
		}
		return children[i].CID.Compare(children[j].CID) < 0
	})
}
