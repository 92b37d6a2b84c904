package indexer

import "sync/atomic"

// IndexLock serializes batch index runs. A run rewrites paper rows in bulk,
// and two overlapping runs would interleave their deletes and upserts, so a
// second caller is turned away rather than queued.
type IndexLock struct {
	held atomic.Int32
}

// TryAcquire takes the lock if it is free and reports whether it did.
func (l *IndexLock) TryAcquire() bool {
	return l.held.CompareAndSwap(0, 1)
}

// Release frees the lock. Only the caller that acquired it may release it.
func (l *IndexLock) Release() {
	l.held.Store(0)
}
