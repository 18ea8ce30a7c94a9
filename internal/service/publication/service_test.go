package publication

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/writing/internal/config"
	"github.com/heartmarshall/writing/internal/domain"
	"github.com/heartmarshall/writing/pkg/ctxutil"
)

var testNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc          *Service
	publications *fakePublications
	contents     *fakeContents
	index        *fakeIndex
	creations    *creationReaderMock

	mu       sync.Mutex
	creation domain.Creation
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		publications: newFakePublications(),
		contents:     newFakeContents(),
		index:        newFakeIndex(),
	}
	gid, cid := xid.New(), xid.New()
	f.creation = domain.Creation{
		GID: gid, ID: cid, Status: domain.CreationApproved, Version: 1, ApprovedVersion: 1,
		Language: "eng", Title: "Night Train", Keywords: []string{"rail"}, License: "cc-by",
	}
	f.creation.Content = f.contents.seed(cid, 1, "eng")
	f.creation.ApprovedContent = f.creation.Content

	f.creations = &creationReaderMock{
		GetFunc: func(_ context.Context, g, id xid.ID, _ ...string) (*domain.Creation, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if g != f.creation.GID || id != f.creation.ID {
				return nil, domain.ErrNotFound
			}
			c := f.creation
			return &c, nil
		},
	}
	f.svc = NewService(slog.Default(), f.publications, f.creations, f.contents, f.index,
		config.SyncConfig{IndexRetries: 3, RetryBackoff: time.Millisecond})
	f.svc.now = func() time.Time { return testNow }
	return f
}

func (f *fixture) setCreation(mut func(c *domain.Creation)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	mut(&f.creation)
}

func authCtx() context.Context {
	return ctxutil.WithUserID(context.Background(), xid.New())
}

func (f *fixture) original(t *testing.T, version int16) *domain.Publication {
	t.Helper()
	p, err := f.svc.CreateFromCreation(authCtx(), f.creation.GID, f.creation.ID, version)
	require.NoError(t, err)
	return p
}

func (f *fixture) move(t *testing.T, p *domain.Publication, to ...domain.PublicationStatus) *domain.Publication {
	t.Helper()
	for _, s := range to {
		var err error
		p, err = f.svc.UpdateStatus(context.Background(), UpdateStatusInput{Key: p.Key(), UpdatedAt: p.UpdatedAt, Status: s})
		require.NoError(t, err)
	}
	return p
}

// ---------------------------------------------------------------------------
// CreateFromCreation
// ---------------------------------------------------------------------------

func TestCreateFromCreation_Success(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	p := f.original(t, 1)

	assert.Equal(t, domain.PublicationReview, p.Status)
	assert.Equal(t, domain.Language("eng"), p.Language)
	assert.Equal(t, domain.Language("eng"), p.FromLanguage)
	assert.True(t, p.IsOriginal())
	assert.Equal(t, f.creation.ApprovedContent, p.Content)
	assert.Equal(t, "Night Train", p.Title)
	assert.Equal(t, []string{"rail"}, p.Keywords)
	assert.Zero(t, f.contents.puts, "approved content is shared, not copied")
}

func TestCreateFromCreation_Gate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mut     func(c *domain.Creation)
		version int16
	}{
		{"version not yet approved", func(*domain.Creation) {}, 2},
		{"never approved", func(c *domain.Creation) { c.Status = domain.CreationDraft; c.ApprovedVersion = 0 }, 1},
		{"archived creation", func(c *domain.Creation) { c.Status = domain.CreationArchived }, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			f.setCreation(tt.mut)

			_, err := f.svc.CreateFromCreation(authCtx(), f.creation.GID, f.creation.ID, tt.version)
			assert.ErrorIs(t, err, domain.ErrInvalidTransition)
			assert.Empty(t, f.publications.live)
		})
	}
}

func TestCreateFromCreation_OlderApprovedVersion(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	v1 := f.original(t, 1)

	v2content := f.contents.seed(f.creation.ID, 2, "fra")
	f.setCreation(func(c *domain.Creation) {
		c.Version, c.ApprovedVersion, c.Language = 2, 2, "fra"
		c.Content, c.ApprovedContent = v2content, v2content
	})

	v2 := f.original(t, 2)
	assert.Equal(t, domain.Language("fra"), v2.Language)
	assert.Equal(t, v2content, v2.Content)

	// Version 1 content is recovered from its original publication.
	c := f.creation
	id, err := f.svc.approvedContent(context.Background(), &c, 1)
	require.NoError(t, err)
	assert.Equal(t, v1.Content, id)
}

func TestCreateFromCreation_OlderVersionWithoutOriginal(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	v2content := f.contents.seed(f.creation.ID, 2, "eng")
	f.setCreation(func(c *domain.Creation) {
		c.Version, c.ApprovedVersion = 2, 2
		c.Content, c.ApprovedContent = v2content, v2content
	})

	_, err := f.svc.CreateFromCreation(authCtx(), f.creation.GID, f.creation.ID, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateFromCreation_Duplicate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.original(t, 1)

	_, err := f.svc.CreateFromCreation(authCtx(), f.creation.GID, f.creation.ID, 1)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestCreateFromCreation_Unauthorized(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.CreateFromCreation(context.Background(), f.creation.GID, f.creation.ID, 1)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Empty(t, f.creations.GetCalls())
}

// ---------------------------------------------------------------------------
// CreateTranslation
// ---------------------------------------------------------------------------

func TestCreateTranslation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	src := f.original(t, 1)

	p, err := f.svc.CreateTranslation(authCtx(), TranslationInput{
		Source: src.Key(), Language: "fra", Model: "mt-1", Title: "Train de nuit", Data: []byte("bonjour"),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.Language("fra"), p.Language)
	assert.Equal(t, domain.Language("eng"), p.FromLanguage)
	assert.Equal(t, src.Version, p.Version)
	assert.False(t, p.IsOriginal())
	assert.Equal(t, []string{"rail"}, p.Keywords, "keywords default to the source")
	assert.Equal(t, 1, f.contents.puts)
}

func TestCreateTranslation_Refused(t *testing.T) {
	t.Parallel()

	t.Run("rejected source", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		src := f.move(t, f.original(t, 1), domain.PublicationRejected)

		_, err := f.svc.CreateTranslation(authCtx(), TranslationInput{Source: src.Key(), Language: "fra", Title: "t", Data: []byte("x")})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
	t.Run("creation archived", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		src := f.original(t, 1)
		f.setCreation(func(c *domain.Creation) { c.Status = domain.CreationArchived })

		_, err := f.svc.CreateTranslation(authCtx(), TranslationInput{Source: src.Key(), Language: "fra", Title: "t", Data: []byte("x")})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.Zero(t, f.contents.puts)
	})
	t.Run("same language", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		src := f.original(t, 1)

		_, err := f.svc.CreateTranslation(authCtx(), TranslationInput{Source: src.Key(), Language: "eng", Title: "t", Data: []byte("x")})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

// ---------------------------------------------------------------------------
// UpdateStatus
// ---------------------------------------------------------------------------

func TestUpdateStatus_PublishIndexes(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	p := f.move(t, f.original(t, 1), domain.PublicationApproved, domain.PublicationPublished)

	assert.Equal(t, domain.PublicationPublished, p.Status)
	e, err := f.index.Get(context.Background(), p.CID, p.Language)
	require.NoError(t, err)
	assert.Equal(t, domain.DayOf(testNow), e.Day)
	assert.Equal(t, int16(1), e.Version)
	assert.True(t, e.Original)
}

func TestUpdateStatus_PublishGate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	p := f.move(t, f.original(t, 1), domain.PublicationApproved)

	// The creation was archived after the publication was approved.
	f.setCreation(func(c *domain.Creation) { c.Status = domain.CreationArchived })

	_, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{Key: p.Key(), UpdatedAt: p.UpdatedAt, Status: domain.PublicationPublished})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	got, _ := f.svc.Get(context.Background(), p.Key())
	assert.Equal(t, domain.PublicationApproved, got.Status)
	assert.Zero(t, f.index.upserts)
}

func TestUpdateStatus_Transitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    []domain.PublicationStatus
		to      domain.PublicationStatus
		allowed bool
	}{
		{"review to approved", nil, domain.PublicationApproved, true},
		{"review to published", nil, domain.PublicationPublished, false},
		{"rejected to approved", []domain.PublicationStatus{domain.PublicationRejected}, domain.PublicationApproved, false},
		{"rejected to review", []domain.PublicationStatus{domain.PublicationRejected}, domain.PublicationReview, true},
		{"published to approved", []domain.PublicationStatus{domain.PublicationApproved, domain.PublicationPublished}, domain.PublicationApproved, false},
		{"published to rejected", []domain.PublicationStatus{domain.PublicationApproved, domain.PublicationPublished}, domain.PublicationRejected, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			p := f.move(t, f.original(t, 1), tt.path...)

			_, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{Key: p.Key(), UpdatedAt: p.UpdatedAt, Status: tt.to})
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrInvalidTransition)
			}
		})
	}
}

func TestUpdateStatus_StaleToken(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	p := f.original(t, 1)

	_, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{Key: p.Key(), UpdatedAt: p.UpdatedAt - 1, Status: domain.PublicationApproved})
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
}

func TestUpdateStatus_IndexWriteRetried(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	p := f.move(t, f.original(t, 1), domain.PublicationApproved)
	f.index.failUpserts = 2

	p = f.move(t, p, domain.PublicationPublished)

	assert.Equal(t, 3, f.index.upserts)
	_, err := f.index.Get(context.Background(), p.CID, p.Language)
	assert.NoError(t, err)
}

func TestUpdateStatus_IndexFailureRepairedByRepeat(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	p := f.move(t, f.original(t, 1), domain.PublicationApproved)
	f.index.failUpserts = 100

	_, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{Key: p.Key(), UpdatedAt: p.UpdatedAt, Status: domain.PublicationPublished})
	assert.ErrorIs(t, err, domain.ErrDependencyUnavailable)
	assert.Equal(t, 4, f.index.upserts, "one attempt plus three retries")

	got, _ := f.svc.Get(context.Background(), p.Key())
	assert.Equal(t, domain.PublicationPublished, got.Status, "status write is independent of the index write")

	f.index.failUpserts = 0
	_, err = f.svc.UpdateStatus(context.Background(), UpdateStatusInput{Key: p.Key(), UpdatedAt: p.UpdatedAt, Status: domain.PublicationPublished})
	require.NoError(t, err)
	_, err = f.index.Get(context.Background(), p.CID, p.Language)
	assert.NoError(t, err)
}

func TestUpdateStatus_UnpublishRepointsIndex(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	v1 := f.move(t, f.original(t, 1), domain.PublicationApproved, domain.PublicationPublished)

	v2content := f.contents.seed(f.creation.ID, 2, "eng")
	f.setCreation(func(c *domain.Creation) {
		c.Version, c.ApprovedVersion = 2, 2
		c.Content, c.ApprovedContent = v2content, v2content
	})
	v2 := f.move(t, f.original(t, 2), domain.PublicationApproved, domain.PublicationPublished)

	e, _ := f.index.Get(ctx, v2.CID, v2.Language)
	assert.Equal(t, int16(2), e.Version)

	f.move(t, v2, domain.PublicationReview)
	e, _ = f.index.Get(ctx, v2.CID, v2.Language)
	assert.Equal(t, int16(1), e.Version, "repointed to the remaining published version")

	f.move(t, v1, domain.PublicationRejected)
	e, err := f.index.Get(ctx, v1.CID, v1.Language)
	require.NoError(t, err, "row stays until the sync pipeline retracts it")
	assert.Equal(t, int16(1), e.Version)
}

// ---------------------------------------------------------------------------
// Update / ReplaceContent
// ---------------------------------------------------------------------------

func TestUpdate_ReviewOnly(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	p := f.original(t, 1)

	title := "Sleeper"
	got, err := f.svc.Update(context.Background(), UpdateInput{Key: p.Key(), UpdatedAt: p.UpdatedAt, Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, got.Title)

	got = f.move(t, got, domain.PublicationApproved)
	_, err = f.svc.Update(context.Background(), UpdateInput{Key: p.Key(), UpdatedAt: got.UpdatedAt, Title: &title})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestReplaceContent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	p := f.original(t, 1)

	got, err := f.svc.ReplaceContent(context.Background(), ReplaceContentInput{Key: p.Key(), UpdatedAt: p.UpdatedAt, Data: []byte("edited")})
	require.NoError(t, err)
	assert.NotEqual(t, p.Content, got.Content)
	assert.Equal(t, f.creation.ApprovedContent, p.Content, "creation content untouched")

	_, err = f.svc.ReplaceContent(context.Background(), ReplaceContentInput{Key: p.Key(), UpdatedAt: p.UpdatedAt, Data: []byte("again")})
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
}

// ---------------------------------------------------------------------------
// Delete / Restore
// ---------------------------------------------------------------------------

func TestDelete(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	p := f.original(t, 1)

	_, err := f.svc.Delete(ctx, p.Key())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	p = f.move(t, p, domain.PublicationRejected)
	moved, err := f.svc.Delete(ctx, p.Key())
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = f.svc.Delete(ctx, p.Key())
	require.NoError(t, err)
	assert.False(t, moved)

	_, err = f.svc.GetDeleted(ctx, p.Key())
	require.NoError(t, err)

	restored, err := f.svc.Restore(ctx, p.Key())
	require.NoError(t, err)
	assert.Equal(t, domain.PublicationRejected, restored.Status)

	_, err = f.svc.Restore(ctx, p.Key())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// archivePublished publishes an original, soft-deletes it the way the
// creation cascade does and drops its index row the way sync does.
func (f *fixture) archivePublished(t *testing.T) *domain.Publication {
	t.Helper()
	p := f.move(t, f.original(t, 1), domain.PublicationApproved, domain.PublicationPublished)
	moved, err := f.publications.Archive(context.Background(), p.Key())
	require.NoError(t, err)
	require.True(t, moved)

	f.index.mu.Lock()
	delete(f.index.rows, pair{p.CID, p.Language})
	f.index.mu.Unlock()
	return p
}

func TestRestore_PublishedIsIndexedAgain(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	p := f.archivePublished(t)

	restored, err := f.svc.Restore(ctx, p.Key())
	require.NoError(t, err)
	assert.Equal(t, domain.PublicationPublished, restored.Status)

	e, err := f.index.Get(ctx, p.CID, p.Language)
	require.NoError(t, err)
	assert.Equal(t, p.Version, e.Version)
	assert.Equal(t, domain.DayOf(testNow), e.Day)
}

func TestRestore_Refused(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *domain.Creation)
		wantErr error
	}{
		{"creation removed", func(c *domain.Creation) { c.ID = xid.New() }, domain.ErrNotFound},
		{"creation archived", func(c *domain.Creation) { c.Status = domain.CreationArchived }, domain.ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			ctx := context.Background()
			p := f.archivePublished(t)
			f.setCreation(tt.mutate)

			_, err := f.svc.Restore(ctx, p.Key())
			assert.ErrorIs(t, err, tt.wantErr)

			_, err = f.svc.GetDeleted(ctx, p.Key())
			assert.NoError(t, err, "the shadow row is kept")
			_, err = f.publications.Get(ctx, p.Key())
			assert.ErrorIs(t, err, domain.ErrNotFound)
			_, err = f.index.Get(ctx, p.CID, p.Language)
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestRestore_RejectedOfArchivedCreation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	p := f.move(t, f.original(t, 1), domain.PublicationRejected)
	_, err := f.svc.Delete(ctx, p.Key())
	require.NoError(t, err)
	f.setCreation(func(c *domain.Creation) { c.Status = domain.CreationArchived })

	restored, err := f.svc.Restore(ctx, p.Key())
	require.NoError(t, err)
	assert.Equal(t, domain.PublicationRejected, restored.Status)
	_, err = f.index.Get(ctx, p.CID, p.Language)
	assert.ErrorIs(t, err, domain.ErrNotFound, "only published rows are indexed")
}

// ---------------------------------------------------------------------------
// ListPublished
// ---------------------------------------------------------------------------

func TestListPublished_FiltersStale(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	p := f.move(t, f.original(t, 1), domain.PublicationApproved, domain.PublicationPublished)
	fra, err := f.svc.CreateTranslation(authCtx(), TranslationInput{Source: p.Key(), Language: "fra", Title: "t", Data: []byte("x")})
	require.NoError(t, err)
	fra = f.move(t, fra, domain.PublicationApproved, domain.PublicationPublished)

	// A day-old entry for another creation that was unpublished since.
	ghost := domain.Publication{GID: xid.New(), CID: xid.New(), Language: "deu", Version: 1, Status: domain.PublicationReview}
	f.publications.put(ghost)
	f.index.rows[pair{ghost.CID, ghost.Language}] = domain.PubIndexEntry{
		Day: domain.DayOf(testNow) - 1, CID: ghost.CID, Language: ghost.Language, GID: ghost.GID, Version: 1,
	}

	got, err := f.svc.ListPublished(ctx, domain.DayOf(testNow), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, g := range got {
		assert.Equal(t, domain.PublicationPublished, g.Status)
		assert.NotEqual(t, ghost.CID, g.CID)
	}

	got, err = f.svc.ListPublished(ctx, domain.DayOf(testNow), 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = f.svc.ListPublished(ctx, domain.DayOf(testNow), 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
