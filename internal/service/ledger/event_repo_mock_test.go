package ledger

import (
	"context"
	"sync"

	"github.com/heartmarshall/gearledger/internal/domain"
)

var _ eventRepo = &eventRepoMock{}

type eventRepoMock struct {
	AppendFunc   func(ctx context.Context, e domain.NewEvent) (*domain.Event, error)
	LatestFunc   func(ctx context.Context, itemID int64) (*domain.Event, error)
	AllFunc      func(ctx context.Context, itemID int64) ([]domain.Event, error)
	FindFunc     func(ctx context.Context, eventID int64) (*domain.Event, error)
	LockItemFunc func(ctx context.Context, itemID int64) error

	calls struct {
		Append []struct {
			Ctx context.Context
			E   domain.NewEvent
		}
		Latest []struct {
			Ctx    context.Context
			ItemID int64
		}
		All []struct {
			Ctx    context.Context
			ItemID int64
		}
		Find []struct {
			Ctx     context.Context
			EventID int64
		}
		LockItem []struct {
			Ctx    context.Context
			ItemID int64
		}
	}
	lockAppend   sync.RWMutex
	lockLatest   sync.RWMutex
	lockAll      sync.RWMutex
	lockFind     sync.RWMutex
	lockLockItem sync.RWMutex
}

func (mock *eventRepoMock) Append(ctx context.Context, e domain.NewEvent) (*domain.Event, error) {
	if mock.AppendFunc == nil {
		panic("eventRepoMock.AppendFunc: method is nil but eventRepo.Append was just called")
	}
	callInfo := struct {
		Ctx context.Context
		E   domain.NewEvent
	}{Ctx: ctx, E: e}
	mock.lockAppend.Lock()
	mock.calls.Append = append(mock.calls.Append, callInfo)
	mock.lockAppend.Unlock()
	return mock.AppendFunc(ctx, e)
}

func (mock *eventRepoMock) AppendCalls() []struct {
	Ctx context.Context
	E   domain.NewEvent
} {
	mock.lockAppend.RLock()
	calls := mock.calls.Append
	mock.lockAppend.RUnlock()
	return calls
}

func (mock *eventRepoMock) Latest(ctx context.Context, itemID int64) (*domain.Event, error) {
	if mock.LatestFunc == nil {
		panic("eventRepoMock.LatestFunc: method is nil but eventRepo.Latest was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		ItemID int64
	}{Ctx: ctx, ItemID: itemID}
	mock.lockLatest.Lock()
	mock.calls.Latest = append(mock.calls.Latest, callInfo)
	mock.lockLatest.Unlock()
	return mock.LatestFunc(ctx, itemID)
}

func (mock *eventRepoMock) LatestCalls() []struct {
	Ctx    context.Context
	ItemID int64
} {
	mock.lockLatest.RLock()
	calls := mock.calls.Latest
	mock.lockLatest.RUnlock()
	return calls
}

func (mock *eventRepoMock) All(ctx context.Context, itemID int64) ([]domain.Event, error) {
	if mock.AllFunc == nil {
		panic("eventRepoMock.AllFunc: method is nil but eventRepo.All was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		ItemID int64
	}{Ctx: ctx, ItemID: itemID}
	mock.lockAll.Lock()
	mock.calls.All = append(mock.calls.All, callInfo)
	mock.lockAll.Unlock()
	return mock.AllFunc(ctx, itemID)
}

func (mock *eventRepoMock) AllCalls() []struct {
	Ctx    context.Context
	ItemID int64
} {
	mock.lockAll.RLock()
	calls := mock.calls.All
	mock.lockAll.RUnlock()
	return calls
}

func (mock *eventRepoMock) Find(ctx context.Context, eventID int64) (*domain.Event, error) {
	if mock.FindFunc == nil {
		panic("eventRepoMock.FindFunc: method is nil but eventRepo.Find was just called")
	}
	callInfo := struct {
		Ctx     context.Context
		EventID int64
	}{Ctx: ctx, EventID: eventID}
	mock.lockFind.Lock()
	mock.calls.Find = append(mock.calls.Find, callInfo)
	mock.lockFind.Unlock()
	return mock.FindFunc(ctx, eventID)
}

func (mock *eventRepoMock) FindCalls() []struct {
	Ctx     context.Context
	EventID int64
} {
	mock.lockFind.RLock()
	calls := mock.calls.Find
	mock.lockFind.RUnlock()
	return calls
}

func (mock *eventRepoMock) LockItem(ctx context.Context, itemID int64) error {
	if mock.LockItemFunc == nil {
		panic("eventRepoMock.LockItemFunc: method is nil but eventRepo.LockItem was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		ItemID int64
	}{Ctx: ctx, ItemID: itemID}
	mock.lockLockItem.Lock()
	mock.calls.LockItem = append(mock.calls.LockItem, callInfo)
	mock.lockLockItem.Unlock()
	return mock.LockItemFunc(ctx, itemID)
}

func (mock *eventRepoMock) LockItemCalls() []struct {
	Ctx    context.Context
	ItemID int64
} {
	mock.lockLockItem.RLock()
	calls := mock.calls.LockItem
	mock.lockLockItem.RUnlock()
	return calls
}
