package content

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/writing/internal/config"
	"github.com/heartmarshall/writing/internal/domain"
)

//go:generate moq -out content_repo_mock_test.go -pkg content . contentRepo

// memRepo returns a mock backed by a map, so Put and Get round-trip.
func memRepo() (*contentRepoMock, map[xid.ID]*domain.Content) {
	rows := make(map[xid.ID]*domain.Content)
	return &contentRepoMock{
		InsertFunc: func(_ context.Context, c *domain.Content) error {
			if _, ok := rows[c.ID]; ok {
				return domain.ErrAlreadyExists
			}
			cp := *c
			cp.Data = bytes.Clone(c.Data)
			rows[c.ID] = &cp
			return nil
		},
		GetFunc: func(_ context.Context, id xid.ID) (*domain.Content, error) {
			c, ok := rows[id]
			if !ok {
				return nil, domain.ErrNotFound
			}
			cp := *c
			return &cp, nil
		},
		GetMetaFunc: func(_ context.Context, id xid.ID) (*domain.Content, error) {
			c, ok := rows[id]
			if !ok {
				return nil, domain.ErrNotFound
			}
			cp := *c
			cp.Data = nil
			return &cp, nil
		},
	}, rows
}

func newTestService(t *testing.T, repo contentRepo) *Service {
	t.Helper()
	svc, err := NewService(slog.Default(), repo, config.ContentConfig{MaxBytes: 1 << 16, ZstdLevel: 3})
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func validInput(data []byte) PutInput {
	return PutInput{GID: xid.New(), CID: xid.New(), Version: 1, Language: "eng", Data: data}
}

func TestPutGet_RoundTrip(t *testing.T) {
	t.Parallel()
	repo, rows := memRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	data := bytes.Repeat([]byte("once upon a time "), 200)
	c, err := svc.Put(ctx, validInput(data))
	require.NoError(t, err)
	assert.Equal(t, int32(len(data)), c.Length)
	assert.Len(t, c.Hash, 32)
	assert.Nil(t, c.Data)
	assert.Less(t, len(rows[c.ID].Data), len(data), "payload should be stored compressed")

	got, meta, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, c.ID, meta.ID)

	stat, err := svc.Stat(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Length, stat.Length)
	assert.Len(t, repo.GetMetaCalls(), 1)
}

func TestPut_FreshIDEveryTime(t *testing.T) {
	t.Parallel()
	repo, _ := memRepo()
	svc := newTestService(t, repo)

	a, err := svc.Put(context.Background(), validInput([]byte("same")))
	require.NoError(t, err)
	b, err := svc.Put(context.Background(), validInput([]byte("same")))
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Hash, b.Hash)
}

func TestPut_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input PutInput
		field string
	}{
		{"empty data", validInput(nil), "data"},
		{"oversized", validInput(make([]byte, 1<<16+1)), "data"},
		{"bad language", PutInput{GID: xid.New(), CID: xid.New(), Version: 1, Language: "english", Data: []byte("x")}, "language"},
		{"zero version", PutInput{GID: xid.New(), CID: xid.New(), Language: "eng", Data: []byte("x")}, "version"},
		{"missing ids", PutInput{Version: 1, Language: "eng", Data: []byte("x")}, "gid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo, _ := memRepo()
			svc := newTestService(t, repo)

			_, err := svc.Put(context.Background(), tt.input)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Errors[0].Field)
			assert.Empty(t, repo.InsertCalls())
		})
	}
}

func TestGet_CorruptionDetected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		corrupt func(c *domain.Content)
	}{
		{"flipped payload byte", func(c *domain.Content) { c.Data[len(c.Data)/2] ^= 0xff }},
		{"flipped hash byte", func(c *domain.Content) { c.Hash[0] ^= 0x01 }},
		{"wrong length", func(c *domain.Content) { c.Length++ }},
		{"truncated payload", func(c *domain.Content) { c.Data = c.Data[:len(c.Data)-3] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo, rows := memRepo()
			svc := newTestService(t, repo)

			c, err := svc.Put(context.Background(), validInput(bytes.Repeat([]byte("abcdefgh"), 64)))
			require.NoError(t, err)
			tt.corrupt(rows[c.ID])

			_, _, err = svc.Get(context.Background(), c.ID)
			assert.ErrorIs(t, err, domain.ErrContentCorrupted)
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	t.Parallel()
	repo, _ := memRepo()
	svc := newTestService(t, repo)

	_, _, err := svc.Get(context.Background(), xid.New())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
