package creation

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/xid"

	"github.com/heartmarshall/writing/internal/domain"
	"github.com/heartmarshall/writing/internal/service/content"
	"github.com/heartmarshall/writing/pkg/colmap"
)

type ckey struct{ gid, id xid.ID }

// fakeCreations keeps live and shadow rows in memory and applies the same
// compare-token rule as the store.
type fakeCreations struct {
	mu      sync.Mutex
	live    map[ckey]domain.Creation
	shadow  map[ckey]domain.Creation
	updates int
}

func newFakeCreations() *fakeCreations {
	return &fakeCreations{live: map[ckey]domain.Creation{}, shadow: map[ckey]domain.Creation{}}
}

func (f *fakeCreations) Create(_ context.Context, c *domain.Creation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := ckey{c.GID, c.ID}
	if _, ok := f.live[k]; ok {
		return domain.ErrAlreadyExists
	}
	f.live[k] = *c
	return nil
}

func (f *fakeCreations) Get(_ context.Context, gid, id xid.ID, _ ...string) (*domain.Creation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.live[ckey{gid, id}]
	if !ok {
		return nil, fmt.Errorf("creation: %w", domain.ErrNotFound)
	}
	return &c, nil
}

func (f *fakeCreations) List(_ context.Context, gid xid.ID, _ int, _ []byte, _ ...string) ([]domain.Creation, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Creation
	for k, c := range f.live {
		if k.gid == gid {
			out = append(out, c)
		}
	}
	return out, nil, nil
}

func (f *fakeCreations) Update(_ context.Context, gid, id xid.ID, set colmap.Columns, expected int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := ckey{gid, id}
	c, ok := f.live[k]
	if !ok {
		return domain.ErrNotFound
	}
	if c.UpdatedAt != expected {
		return domain.ErrVersionConflict
	}
	if err := colmap.Fill(&c, set); err != nil {
		return err
	}
	f.live[k] = c
	f.updates++
	return nil
}

func (f *fakeCreations) Archive(_ context.Context, gid, id xid.ID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := ckey{gid, id}
	c, ok := f.live[k]
	if !ok {
		return false, nil
	}
	f.shadow[k] = c
	delete(f.live, k)
	return true, nil
}

func (f *fakeCreations) GetDeleted(_ context.Context, gid, id xid.ID) (*domain.Creation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.shadow[ckey{gid, id}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (f *fakeCreations) Restore(_ context.Context, gid, id xid.ID) (*domain.Creation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := ckey{gid, id}
	c, ok := f.shadow[k]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if _, live := f.live[k]; live {
		return nil, domain.ErrAlreadyExists
	}
	f.live[k] = c
	delete(f.shadow, k)
	return &c, nil
}

type fakePublications struct {
	mu       sync.Mutex
	rows     []domain.Publication
	archived []domain.PublicationKey
}

func (f *fakePublications) ListByCreation(_ context.Context, gid, cid xid.ID, _ ...string) ([]domain.Publication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Publication
	for _, p := range f.rows {
		if p.GID == gid && p.CID == cid {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePublications) Archive(_ context.Context, k domain.PublicationKey) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.rows {
		if p.Key() == k {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			f.archived = append(f.archived, k)
			return true, nil
		}
	}
	return false, nil
}

type fakeContents struct {
	mu   sync.Mutex
	puts []content.PutInput
	err  error
}

func (f *fakeContents) Put(_ context.Context, input content.PutInput) (*domain.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.puts = append(f.puts, input)
	return &domain.Content{ID: xid.New(), CID: input.CID, Version: input.Version}, nil
}
