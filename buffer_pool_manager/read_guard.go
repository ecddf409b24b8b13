package buffer_pool_manager

// ReadGuard is used to provide shared read access to a page stored in a frame in the buffer pool manager.
type ReadGuard struct {

	// active is used to prevent users from using a guard once its Done function has been called.
	active     bool
	page       *Frame
	bufferPool BufferPoolManager
}

// NewReadGuard returns an active read guard.
// All guards corresponding to a page share a RW lock.
func (pool *SimpleBufferPoolManager) NewReadGuard(pageId PageID) (*ReadGuard, error) {

	page, err := pool.fetchPage(pageId)

	if err != nil {
		return nil, err
	}

	page.mutex.RLock()

	guard := &ReadGuard{
		active:     true,
		page:       page,
		bufferPool: pool,
	}

	return guard, nil
}

// Data returns the page bytes held by the guarded frame.
func (guard *ReadGuard) Data() []byte {

	if !guard.active {
		return nil
	}

	return guard.page.data
}

// Done is used to decrease the pin count of the page, and ensure the shared lock is released.
// A guard becomes inactive and cannot be reused once this function returns true.
func (guard *ReadGuard) Done() bool {

	if !guard.active {
		return false
	}

	_ = guard.bufferPool.unpinPage(guard.page.pageId)

	guard.page.mutex.RUnlock()

	guard.active = false
	guard.page = nil
	guard.bufferPool = nil

	return true
}
