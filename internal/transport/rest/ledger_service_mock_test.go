package rest

import (
	"context"
	"sync"

	"github.com/heartmarshall/gearledger/internal/domain"
	"github.com/heartmarshall/gearledger/internal/service/ledger"
)

var _ ledgerService = &ledgerServiceMock{}

type ledgerServiceMock struct {
	RecordFunc  func(ctx context.Context, input ledger.RecordInput) (*domain.Event, error)
	LatestFunc  func(ctx context.Context, itemID int64) (*domain.Event, error)
	HistoryFunc func(ctx context.Context, itemID int64) ([]domain.Event, error)
	GetFunc     func(ctx context.Context, eventID int64) (*domain.Event, error)

	calls struct {
		Record []struct {
			Ctx   context.Context
			Input ledger.RecordInput
		}
		Latest []struct {
			Ctx    context.Context
			ItemID int64
		}
		History []struct {
			Ctx    context.Context
			ItemID int64
		}
		Get []struct {
			Ctx     context.Context
			EventID int64
		}
	}
	lockRecord  sync.RWMutex
	lockLatest  sync.RWMutex
	lockHistory sync.RWMutex
	lockGet     sync.RWMutex
}

func (mock *ledgerServiceMock) Record(ctx context.Context, input ledger.RecordInput) (*domain.Event, error) {
	if mock.RecordFunc == nil {
		panic("ledgerServiceMock.RecordFunc: method is nil but ledgerService.Record was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		Input ledger.RecordInput
	}{Ctx: ctx, Input: input}
	mock.lockRecord.Lock()
	mock.calls.Record = append(mock.calls.Record, callInfo)
	mock.lockRecord.Unlock()
	return mock.RecordFunc(ctx, input)
}

func (mock *ledgerServiceMock) RecordCalls() []struct {
	Ctx   context.Context
	Input ledger.RecordInput
} {
	mock.lockRecord.RLock()
	calls := mock.calls.Record
	mock.lockRecord.RUnlock()
	return calls
}

func (mock *ledgerServiceMock) Latest(ctx context.Context, itemID int64) (*domain.Event, error) {
	if mock.LatestFunc == nil {
		panic("ledgerServiceMock.LatestFunc: method is nil but ledgerService.Latest was just called")
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

func (mock *ledgerServiceMock) LatestCalls() []struct {
	Ctx    context.Context
	ItemID int64
} {
	mock.lockLatest.RLock()
	calls := mock.calls.Latest
	mock.lockLatest.RUnlock()
	return calls
}

func (mock *ledgerServiceMock) History(ctx context.Context, itemID int64) ([]domain.Event, error) {
	if mock.HistoryFunc == nil {
		panic("ledgerServiceMock.HistoryFunc: method is nil but ledgerService.History was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		ItemID int64
	}{Ctx: ctx, ItemID: itemID}
	mock.lockHistory.Lock()
	mock.calls.History = append(mock.calls.History, callInfo)
	mock.lockHistory.Unlock()
	return mock.HistoryFunc(ctx, itemID)
}

func (mock *ledgerServiceMock) HistoryCalls() []struct {
	Ctx    context.Context
	ItemID int64
} {
	mock.lockHistory.RLock()
	calls := mock.calls.History
	mock.lockHistory.RUnlock()
	return calls
}

func (mock *ledgerServiceMock) Get(ctx context.Context, eventID int64) (*domain.Event, error) {
	if mock.GetFunc == nil {
		panic("ledgerServiceMock.GetFunc: method is nil but ledgerService.Get was just called")
	}
	callInfo := struct {
		Ctx     context.Context
		EventID int64
	}{Ctx: ctx, EventID: eventID}
	mock.lockGet.Lock()
	mock.calls.Get = append(mock.calls.Get, callInfo)
	mock.lockGet.Unlock()
	return mock.GetFunc(ctx, eventID)
}

func (mock *ledgerServiceMock) GetCalls() []struct {
	Ctx     context.Context
	EventID int64
} {
	mock.lockGet.RLock()
	calls := mock.calls.Get
	mock.lockGet.RUnlock()
	return calls
}
