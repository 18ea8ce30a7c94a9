package publication

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/xid"

	"github.com/heartmarshall/writing/internal/domain"
	"github.com/heartmarshall/writing/internal/service/content"
	"github.com/heartmarshall/writing/pkg/colmap"
)

type fakePublications struct {
	mu     sync.Mutex
	live   map[domain.PublicationKey]domain.Publication
	shadow map[domain.PublicationKey]domain.Publication
}

func newFakePublications() *fakePublications {
	return &fakePublications{
		live:   map[domain.PublicationKey]domain.Publication{},
		shadow: map[domain.PublicationKey]domain.Publication{},
	}
}

func (f *fakePublications) put(p domain.Publication) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.live[p.Key()] = p
}

func (f *fakePublications) Create(_ context.Context, p *domain.Publication) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.live[p.Key()]; ok {
		return domain.ErrAlreadyExists
	}
	f.live[p.Key()] = *p
	return nil
}

func (f *fakePublications) Get(_ context.Context, k domain.PublicationKey, _ ...string) (*domain.Publication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.live[k]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (f *fakePublications) filter(keep func(domain.PublicationKey) bool) []domain.Publication {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Publication
	for k, p := range f.live {
		if keep(k) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Language != out[j].Language {
			return out[i].Language < out[j].Language
		}
		return out[i].Version < out[j].Version
	})
	return out
}

func (f *fakePublications) ListVersions(_ context.Context, gid, cid xid.ID, lang domain.Language, _ ...string) ([]domain.Publication, error) {
	return f.filter(func(k domain.PublicationKey) bool {
		return k.GID == gid && k.CID == cid && k.Language == lang
	}), nil
}

func (f *fakePublications) ListByCreation(_ context.Context, gid, cid xid.ID, _ ...string) ([]domain.Publication, error) {
	return f.filter(func(k domain.PublicationKey) bool { return k.GID == gid && k.CID == cid }), nil
}

func (f *fakePublications) Update(_ context.Context, k domain.PublicationKey, set colmap.Columns, expected int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.live[k]
	if !ok {
		return domain.ErrNotFound
	}
	if p.UpdatedAt != expected {
		return domain.ErrVersionConflict
	}
	if err := colmap.Fill(&p, set); err != nil {
		return err
	}
	f.live[k] = p
	return nil
}

func (f *fakePublications) Archive(_ context.Context, k domain.PublicationKey) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.live[k]
	if !ok {
		return false, nil
	}
	f.shadow[k] = p
	delete(f.live, k)
	return true, nil
}

func (f *fakePublications) GetDeleted(_ context.Context, k domain.PublicationKey) (*domain.Publication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.shadow[k]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (f *fakePublications) Restore(_ context.Context, k domain.PublicationKey) (*domain.Publication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.shadow[k]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if _, live := f.live[k]; live {
		return nil, domain.ErrAlreadyExists
	}
	f.live[k] = p
	delete(f.shadow, k)
	return &p, nil
}

type fakeContents struct {
	mu   sync.Mutex
	rows map[xid.ID]domain.Content
	puts int
}

func newFakeContents() *fakeContents {
	return &fakeContents{rows: map[xid.ID]domain.Content{}}
}

func (f *fakeContents) seed(cid xid.ID, version int16, lang domain.Language) xid.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := xid.New()
	f.rows[id] = domain.Content{ID: id, CID: cid, Version: version, Language: lang}
	return id
}

func (f *fakeContents) Put(_ context.Context, input content.PutInput) (*domain.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := domain.Content{ID: xid.New(), GID: input.GID, CID: input.CID, Version: input.Version, Language: input.Language}
	f.rows[c.ID] = c
	f.puts++
	return &c, nil
}

func (f *fakeContents) Stat(_ context.Context, id xid.ID) (*domain.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

type pair struct {
	cid  xid.ID
	lang domain.Language
}

// fakeIndex keeps one row per (cid, language) like the locator-backed repo.
// failUpserts makes the next n upserts fail as unavailable.
type fakeIndex struct {
	mu          sync.Mutex
	rows        map[pair]domain.PubIndexEntry
	failUpserts int
	upserts     int
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{rows: map[pair]domain.PubIndexEntry{}}
}

func (f *fakeIndex) Upsert(_ context.Context, e domain.PubIndexEntry) (*domain.PubIndexEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.failUpserts > 0 {
		f.failUpserts--
		return nil, domain.ErrDependencyUnavailable
	}
	k := pair{e.CID, e.Language}
	if cur, ok := f.rows[k]; ok {
		e.Day = cur.Day
		if cur.Version > e.Version {
			e.Version = cur.Version
		}
	}
	f.rows[k] = e
	return &e, nil
}

func (f *fakeIndex) Get(_ context.Context, cid xid.ID, lang domain.Language) (*domain.PubIndexEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.rows[pair{cid, lang}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

func (f *fakeIndex) ListByDay(_ context.Context, day domain.Day) ([]domain.PubIndexEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.PubIndexEntry
	for _, e := range f.rows {
		if e.Day == day {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CID.Compare(out[j].CID) < 0 })
	return out, nil
}

func (f *fakeIndex) SetVersion(_ context.Context, day domain.Day, cid xid.ID, lang domain.Language, version int16, updatedAt int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := pair{cid, lang}
	e, ok := f.rows[k]
	if !ok || e.Day != day {
		return nil
	}
	e.Version = version
	e.UpdatedAt = updatedAt
	f.rows[k] = e
	return nil
}
