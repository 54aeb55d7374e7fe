package ledger

import (
	"sync"
	"time"

	"github.com/heartmarshall/gearledger/internal/domain"
)

var _ recordObserver = &recordObserverMock{}

type recordObserverMock struct {
	RecordedFunc      func(kind domain.EventKind, elapsed time.Duration)
	RejectedFunc      func(kind domain.EventKind, reason domain.RejectionKind)
	StorageFailedFunc func(op string)

	calls struct {
		Recorded []struct {
			Kind    domain.EventKind
			Elapsed time.Duration
		}
		Rejected []struct {
			Kind   domain.EventKind
			Reason domain.RejectionKind
		}
		StorageFailed []struct {
			Op string
		}
	}
	lockRecorded      sync.RWMutex
	lockRejected      sync.RWMutex
	lockStorageFailed sync.RWMutex
}

func (mock *recordObserverMock) Recorded(kind domain.EventKind, elapsed time.Duration) {
	callInfo := struct {
		Kind    domain.EventKind
		Elapsed time.Duration
	}{Kind: kind, Elapsed: elapsed}
	mock.lockRecorded.Lock()
	mock.calls.Recorded = append(mock.calls.Recorded, callInfo)
	mock.lockRecorded.Unlock()
	if mock.RecordedFunc == nil {
		return
	}
	mock.RecordedFunc(kind, elapsed)
}

func (mock *recordObserverMock) RecordedCalls() []struct {
	Kind    domain.EventKind
	Elapsed time.Duration
} {
	mock.lockRecorded.RLock()
	calls := mock.calls.Recorded
	mock.lockRecorded.RUnlock()
	return calls
}

func (mock *recordObserverMock) Rejected(kind domain.EventKind, reason domain.RejectionKind) {
	callInfo := struct {
		Kind   domain.EventKind
		Reason domain.RejectionKind
	}{Kind: kind, Reason: reason}
	mock.lockRejected.Lock()
	mock.calls.Rejected = append(mock.calls.Rejected, callInfo)
	mock.lockRejected.Unlock()
	if mock.RejectedFunc == nil {
		return
	}
	mock.RejectedFunc(kind, reason)
}

func (mock *recordObserverMock) RejectedCalls() []struct {
	Kind   domain.EventKind
	Reason domain.RejectionKind
} {
	mock.lockRejected.RLock()
	calls := mock.calls.Rejected
	mock.lockRejected.RUnlock()
	return calls
}

func (mock *recordObserverMock) StorageFailed(op string) {
	callInfo := struct {
		Op string
	}{Op: op}
	mock.lockStorageFailed.Lock()
	mock.calls.StorageFailed = append(mock.calls.StorageFailed, callInfo)
	mock.lockStorageFailed.Unlock()
	if mock.StorageFailedFunc == nil {
		return
	}
	mock.StorageFailedFunc(op)
}

func (mock *recordObserverMock) StorageFailedCalls() []struct {
	Op string
} {
	mock.lockStorageFailed.RLock()
	calls := mock.calls.StorageFailed
	mock.lockStorageFailed.RUnlock()
	return calls
}
