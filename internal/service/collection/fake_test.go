package collection

import (
	"context"
	"sync"

	"github.com/rs/xid"

	"github.com/heartmarshall/writing/internal/domain"
	"github.com/heartmarshall/writing/pkg/colmap"
)

type fakeCollections struct {
	mu       sync.Mutex
	live     map[xid.ID]domain.Collection
	shadow   map[xid.ID]domain.Collection
	children map[xid.ID]map[xid.ID]domain.CollectionChild

	setOrders []map[xid.ID]float64
	lists     int
}

func newFakeCollections() *fakeCollections {
	return &fakeCollections{
		live:     map[xid.ID]domain.Collection{},
		shadow:   map[xid.ID]domain.Collection{},
		children: map[xid.ID]map[xid.ID]domain.CollectionChild{},
	}
}

func (f *fakeCollections) Get(_ context.Context, id xid.ID, _ ...string) (*domain.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.live[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (f *fakeCollections) GetDeleted(_ context.Context, id xid.ID) (*domain.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.shadow[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (f *fakeCollections) Create(_ context.Context, c *domain.Collection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.live[c.ID]; ok {
		return domain.ErrAlreadyExists
	}
	f.live[c.ID] = *c
	return nil
}

func (f *fakeCollections) Update(_ context.Context, id xid.ID, set colmap.Columns, expected int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.live[id]
	if !ok {
		return domain.ErrNotFound
	}
	if c.UpdatedAt != expected {
		return domain.ErrVersionConflict
	}
	if err := colmap.Fill(&c, set); err != nil {
		return err
	}
	f.live[id] = c
	return nil
}

func (f *fakeCollections) Archive(_ context.Context, id xid.ID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.live[id]
	if !ok {
		return false, nil
	}
	f.shadow[id] = c
	delete(f.live, id)
	return true, nil
}

func (f *fakeCollections) Restore(_ context.Context, id xid.ID) (*domain.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.shadow[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	f.live[id] = c
	delete(f.shadow, id)
	return &c, nil
}

func (f *fakeCollections) ListChildren(_ context.Context, id xid.ID) ([]domain.CollectionChild, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	out := make([]domain.CollectionChild, 0, len(f.children[id]))
	for _, c := range f.children[id] {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCollections) PutChildren(_ context.Context, id xid.ID, items []domain.CollectionChild) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.children[id] == nil {
		f.children[id] = map[xid.ID]domain.CollectionChild{}
	}
	for _, c := range items {
		c.ID = id
		f.children[id][c.CID] = c
	}
	return nil
}

func (f *fakeCollections) SetOrders(_ context.Context, id xid.ID, ords map[xid.ID]float64, updatedAt int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setOrders = append(f.setOrders, ords)
	for cid, ord := range ords {
		c := f.children[id][cid]
		c.Ord = ord
		c.UpdatedAt = updatedAt
		f.children[id][cid] = c
	}
	return nil
}

func (f *fakeCollections) RemoveChild(_ context.Context, id, cid xid.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.children[id], cid)
	return nil
}

type fakeCreations struct {
	live map[xid.ID]bool
}

func (f fakeCreations) Get(_ context.Context, _, id xid.ID, _ ...string) (*domain.Creation, error) {
	if !f.live[id] {
		return nil, domain.ErrNotFound
	}
	return &domain.Creation{ID: id}, nil
}

type fakeLanguages map[xid.ID][]domain.Language

func (f fakeLanguages) ListLanguages(_ context.Context, cid xid.ID) ([]domain.Language, error) {
	return f[cid], nil
}

type versionKey struct {
	cid  xid.ID
	lang domain.Language
}

type fakePublications map[versionKey][]domain.PublicationStatus

func (f fakePublications) ListVersions(_ context.Context, gid, cid xid.ID, lang domain.Language, _ ...string) ([]domain.Publication, error) {
	statuses := f[versionKey{cid, lang}]
	out := make([]domain.Publication, len(statuses))
	for i, st := range statuses {
		out[i] = domain.Publication{GID: gid, CID: cid, Language: lang, Version: int16(i + 1), Status: st}
	}
	return out, nil
}
