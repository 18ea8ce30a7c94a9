package content

import (
	"context"
	"sync"

	"github.com/rs/xid"

	"github.com/heartmarshall/writing/internal/domain"
)

var _ contentRepo = &contentRepoMock{}

type contentRepoMock struct {
	InsertFunc  func(ctx context.Context, c *domain.Content) error
	GetFunc     func(ctx context.Context, id xid.ID) (*domain.Content, error)
	GetMetaFunc func(ctx context.Context, id xid.ID) (*domain.Content, error)

	calls struct {
		Insert []struct {
			Ctx context.Context
			C   *domain.Content
		}
		Get []struct {
			Ctx context.Context
			ID  xid.ID
		}
		GetMeta []struct {
			Ctx context.Context
			ID  xid.ID
		}
	}
	lockInsert  sync.RWMutex
	lockGet     sync.RWMutex
	lockGetMeta sync.RWMutex
}

func (mock *contentRepoMock) Insert(ctx context.Context, c *domain.Content) error {
	if mock.InsertFunc == nil {
		panic("contentRepoMock.InsertFunc: method is nil but contentRepo.Insert was just called")
	}
	callInfo := struct {
		Ctx context.Context
		C   *domain.Content
	}{Ctx: ctx, C: c}
	mock.lockInsert.Lock()
	mock.calls.Insert = append(mock.calls.Insert, callInfo)
	mock.lockInsert.Unlock()
	return mock.InsertFunc(ctx, c)
}

func (mock *contentRepoMock) InsertCalls() []struct {
	Ctx context.Context
	C   *domain.Content
} {
	mock.lockInsert.RLock()
	calls := mock.calls.Insert
	mock.lockInsert.RUnlock()
	return calls
}

func (mock *contentRepoMock) Get(ctx context.Context, id xid.ID) (*domain.Content, error) {
	if mock.GetFunc == nil {
		panic("contentRepoMock.GetFunc: method is nil but contentRepo.Get was just called")
	}
	callInfo := struct {
		Ctx context.Context
		ID  xid.ID
	}{Ctx: ctx, ID: id}
	mock.lockGet.Lock()
	mock.calls.Get = append(mock.calls.Get, callInfo)
	mock.lockGet.Unlock()
	return mock.GetFunc(ctx, id)
}

func (mock *contentRepoMock) GetCalls() []struct {
	Ctx context.Context
	ID  xid.ID
} {
	mock.lockGet.RLock()
	calls := mock.calls.Get
	mock.lockGet.RUnlock()
	return calls
}

func (mock *contentRepoMock) GetMeta(ctx context.Context, id xid.ID) (*domain.Content, error) {
	if mock.GetMetaFunc == nil {
		panic("contentRepoMock.GetMetaFunc: method is nil but contentRepo.GetMeta was just called")
	}
	callInfo := struct {
		Ctx context.Context
		ID  xid.ID
	}{Ctx: ctx, ID: id}
	mock.lockGetMeta.Lock()
	mock.calls.GetMeta = append(mock.calls.GetMeta, callInfo)
	mock.lockGetMeta.Unlock()
	return mock.GetMetaFunc(ctx, id)
}

func (mock *contentRepoMock) GetMetaCalls() []struct {
	Ctx context.Context
	ID  xid.ID
} {
	mock.lockGetMeta.RLock()
	calls := mock.calls.GetMeta
	mock.lockGetMeta.RUnlock()
	return calls
}
