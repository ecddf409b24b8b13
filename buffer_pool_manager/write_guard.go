package buffer_pool_manager

import (
	"log/slog"
)

// WriteGuard is used to provide exclusive write access to a page stored in a frame in the buffer pool manager.
type WriteGuard struct {

	// active is used to prevent users from using a write guard once its Done/DeletePage function has been called.
	active     bool
	page       *Frame
	bufferPool BufferPoolManager
}

// NewWriteGuard returns an active write guard.
// All guards corresponding to a page share a RW lock.
func (pool *SimpleBufferPoolManager) NewWriteGuard(pageId PageID) (*WriteGuard, error) {

	page, err := pool.fetchPage(pageId)

	if err != nil {
		slog.Error("Failed to fetch page for write guard", "pageId", pageId, "error", err.Error())
		return nil, err
	}

	page.mutex.Lock()

	guard := &WriteGuard{
		active:     true,
		page:       page,
		bufferPool: pool,
	}

	return guard, nil
}

// Data returns the page bytes held by the guarded frame.
func (guard *WriteGuard) Data() []byte {

	if !guard.active {
		return nil
	}

	return guard.page.data
}

// MarkDirty flags the page for write-back on eviction or close.
func (guard *WriteGuard) MarkDirty() {

	if !guard.active {
		return
	}

	guard.page.dirty = DIRTY
}

// Done is used to decrease the pin count of the page, and ensure the exclusive lock is released.
// A guard becomes inactive and cannot be reused once this function returns true.
func (guard *WriteGuard) Done() bool {

	if !guard.active {
		return false
	}

	_ = guard.bufferPool.unpinPage(guard.page.pageId)

	guard.page.mutex.Unlock()

	guard.active = false
	guard.page = nil
	guard.bufferPool = nil

	return true
}

// DeletePage is used to call the delete function of the buffer pool manager in a thread-safe manner.
// A guard becomes inactive and cannot be reused if this function returns true.
func (guard *WriteGuard) DeletePage() bool {

	if !guard.active {
		return false
	}

	pageId := guard.page.pageId

	_ = guard.bufferPool.unpinPage(pageId)

	deleted, err := guard.bufferPool.deletePage(pageId)

	if err != nil || !deleted {

		// the page stays resident, the guard keeps its pin.
		_, _ = guard.bufferPool.fetchPage(pageId)
		return false
	}

	guard.active = false
	guard.page.mutex.Unlock()

	guard.page = nil
	guard.bufferPool = nil

	return true
}
