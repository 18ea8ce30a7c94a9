package pubsync

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/xid"

	"github.com/heartmarshall/writing/internal/domain"
	"github.com/heartmarshall/writing/pkg/colmap"
)

type pair struct {
	cid  xid.ID
	lang domain.Language
}

// fakeIndex keeps one row per (cid, language) like the locator table does.
type fakeIndex struct {
	mu       sync.Mutex
	rows     map[pair]domain.PubIndexEntry
	failList map[domain.Day]error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{rows: map[pair]domain.PubIndexEntry{}, failList: map[domain.Day]error{}}
}

func (f *fakeIndex) put(e domain.PubIndexEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[pair{e.CID, e.Language}] = e
}

func (f *fakeIndex) row(cid xid.ID, lang domain.Language) (domain.PubIndexEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.rows[pair{cid, lang}]
	return e, ok
}

func (f *fakeIndex) Upsert(_ context.Context, e domain.PubIndexEntry) (*domain.PubIndexEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := pair{e.CID, e.Language}
	if old, ok := f.rows[k]; ok {
		e.Day = old.Day
		e.Version = max(e.Version, old.Version)
	}
	f.rows[k] = e
	return &e, nil
}

func (f *fakeIndex) Get(_ context.Context, cid xid.ID, lang domain.Language) (*domain.PubIndexEntry, error) {
	e, ok := f.row(cid, lang)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

func (f *fakeIndex) ListByDay(_ context.Context, day domain.Day) ([]domain.PubIndexEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failList[day]; err != nil {
		return nil, err
	}
	var out []domain.PubIndexEntry
	for _, e := range f.rows {
		if e.Day == day {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b domain.PubIndexEntry) int { return a.CID.Compare(b.CID) })
	return out, nil
}

func (f *fakeIndex) SetVersion(_ context.Context, day domain.Day, cid xid.ID, lang domain.Language, version int16, updatedAt int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := pair{cid, lang}
	if e, ok := f.rows[k]; ok && e.Day == day {
		e.Version = version
		e.UpdatedAt = updatedAt
		f.rows[k] = e
	}
	return nil
}

func (f *fakeIndex) Delete(_ context.Context, e domain.PubIndexEntry) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := pair{e.CID, e.Language}
	cur, ok := f.rows[k]
	if !ok || cur.Day != e.Day || cur.UpdatedAt != e.UpdatedAt {
		return false, nil
	}
	delete(f.rows, k)
	return true, nil
}

// fakeSearch fails every call that touches a document of a day in failDays.
type fakeSearch struct {
	mu       sync.Mutex
	docs     map[string]domain.SearchDocument
	upserts  int
	deletes  int
	retracts []string
	failDays map[string]bool
	err      error
	// deleteErr is returned by Delete after the documents were accepted,
	// like an engine task that fails once queued.
	deleteErr error
}

func newFakeSearch() *fakeSearch {
	return &fakeSearch{docs: map[string]domain.SearchDocument{}, failDays: map[string]bool{}}
}

func (f *fakeSearch) Upsert(_ context.Context, docs []domain.SearchDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, d := range docs {
		if f.failDays[d.PublishedDay] {
			return fmt.Errorf("search busy: %w", domain.ErrDependencyUnavailable)
		}
	}
	f.upserts++
	for _, d := range docs {
		f.docs[d.ID] = d
	}
	return nil
}

func (f *fakeSearch) Delete(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletes++
	for _, id := range ids {
		delete(f.docs, id)
		f.retracts = append(f.retracts, id)
	}
	return nil
}

func (f *fakeSearch) doc(id string) (domain.SearchDocument, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	return d, ok
}

// memPublications is an in-memory publication table.
type memPublications struct {
	mu       sync.Mutex
	rows     map[domain.PublicationKey]domain.Publication
	archived map[domain.PublicationKey]domain.Publication
}

func newMemPublications() *memPublications {
	return &memPublications{
		rows:     map[domain.PublicationKey]domain.Publication{},
		archived: map[domain.PublicationKey]domain.Publication{},
	}
}

func (m *memPublications) put(p domain.Publication) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[p.Key()] = p
}

func (m *memPublications) filter(keep func(domain.Publication) bool) []domain.Publication {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Publication
	for _, p := range m.rows {
		if keep(p) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b domain.Publication) int { return int(a.Version) - int(b.Version) })
	return out
}

func (m *memPublications) Create(_ context.Context, p *domain.Publication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[p.Key()]; ok {
		return domain.ErrAlreadyExists
	}
	m.rows[p.Key()] = *p
	return nil
}

func (m *memPublications) Get(_ context.Context, k domain.PublicationKey, _ ...string) (*domain.Publication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[k]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *memPublications) ListVersions(_ context.Context, gid, cid xid.ID, lang domain.Language, _ ...string) ([]domain.Publication, error) {
	return m.filter(func(p domain.Publication) bool { return p.GID == gid && p.CID == cid && p.Language == lang }), nil
}

func (m *memPublications) ListByCreation(_ context.Context, gid, cid xid.ID, _ ...string) ([]domain.Publication, error) {
	return m.filter(func(p domain.Publication) bool { return p.GID == gid && p.CID == cid }), nil
}

func (m *memPublications) Update(_ context.Context, k domain.PublicationKey, set colmap.Columns, expected int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[k]
	if !ok {
		return domain.ErrNotFound
	}
	if p.UpdatedAt != expected {
		return domain.ErrVersionConflict
	}
	if err := colmap.Fill(&p, set); err != nil {
		return err
	}
	m.rows[k] = p
	return nil
}

func (m *memPublications) Archive(_ context.Context, k domain.PublicationKey) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[k]
	if !ok {
		return false, nil
	}
	delete(m.rows, k)
	m.archived[k] = p
	return true, nil
}

func (m *memPublications) GetDeleted(_ context.Context, k domain.PublicationKey) (*domain.Publication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.archived[k]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *memPublications) Restore(_ context.Context, k domain.PublicationKey) (*domain.Publication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.archived[k]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(m.archived, k)
	m.rows[k] = p
	return &p, nil
}
