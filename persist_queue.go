package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/wailsapp/wails/v2/pkg/logger"
)

// CompactionDelay is how long the size writes must settle before the datafile is compacted.
const CompactionDelay = 2 * time.Second

// persistQueue applies window size writes in submission order on a single
// worker. Callers never wait for a write; a write submitted while an older
// one is still pending replaces it.
type persistQueue struct {
	store    sizeStore
	log      logger.Logger
	compact  func(f func())
	onResult func(size WindowSize, err error)

	mutex     sync.Mutex
	pending   *WindowSize
	submitted int
	applied   int
	progress  chan struct{}
	closed    bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

func newPersistQueue(store sizeStore, log logger.Logger, compactionDelay time.Duration) *persistQueue {
	q := &persistQueue{
		store:    store,
		log:      log,
		compact:  debounce.New(compactionDelay),
		progress: make(chan struct{}),
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go q.run()
	return q
}

// Submit schedules a write and returns immediately.
func (q *persistQueue) Submit(size WindowSize) {
	q.mutex.Lock()
	if q.closed {
		q.mutex.Unlock()
		q.log.Warning(fmt.Sprintf("Dropping window size %dx%d: persist queue closed", size.Width, size.Height))
		return
	}
	if q.pending != nil {
		// The superseded write counts as applied; its value would be overwritten anyway.
		q.applied++
	}
	q.pending = &size
	q.submitted++
	q.mutex.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Flush blocks until every write submitted so far has been applied.
func (q *persistQueue) Flush(ctx context.Context) error {
	for {
		q.mutex.Lock()
		if q.applied >= q.submitted {
			q.mutex.Unlock()
			return nil
		}
		progress := q.progress
		q.mutex.Unlock()

		select {
		case <-progress:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close drains pending writes and stops the worker.
func (q *persistQueue) Close() {
	q.mutex.Lock()
	if q.closed {
		q.mutex.Unlock()
		return
	}
	q.closed = true
	q.mutex.Unlock()

	close(q.stop)
	<-q.done

	// Replace any scheduled compaction; the store may be closed next.
	q.compact(func() {})
}

func (q *persistQueue) run() {
	defer close(q.done)

	for {
		select {
		case <-q.wake:
			q.applyPending()
		case <-q.stop:
			q.applyPending()
			return
		}
	}
}

func (q *persistQueue) applyPending() {
	q.mutex.Lock()
	size := q.pending
	q.pending = nil
	q.mutex.Unlock()

	if size == nil {
		return
	}

	err := q.store.SetSize(size.Width, size.Height)
	if err != nil {
		q.log.Error(fmt.Sprintf("Failed to persist window size %dx%d: %v", size.Width, size.Height, err))
	} else {
		q.log.Debug(fmt.Sprintf("Window size persisted: %dx%d", size.Width, size.Height))
		q.compact(q.compactStore)
	}

	if q.onResult != nil {
		q.onResult(*size, err)
	}

	q.mutex.Lock()
	q.applied++
	close(q.progress)
	q.progress = make(chan struct{})
	q.mutex.Unlock()
}

func (q *persistQueue) compactStore() {
	q.mutex.Lock()
	closed := q.closed
	q.mutex.Unlock()
	if closed {
		return
	}

	if err := q.store.Compact(); err != nil {
		q.log.Warning(fmt.Sprintf("Failed to compact size store: %v", err))
	}
}
