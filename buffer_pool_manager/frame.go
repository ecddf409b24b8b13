package buffer_pool_manager

import "sync"

// Frame is a fixed-size slot in the buffer pool holding the contents of one page.
type Frame struct {
	pageId PageID
	data   []byte

	// number of active users of the page. A frame becomes an eviction
	// candidate only when its pin count drops to zero.
	pinCount int

	// set when the in-memory page data diverges from the copy on disk.
	dirty bool

	// guards page data, shared by all read/write guards of the page.
	mutex *sync.RWMutex
}

func newFrame() *Frame {
	return &Frame{
		mutex: &sync.RWMutex{},
	}
}

// reset clears the frame before it returns to the free list.
func (frame *Frame) reset() {
	frame.pageId = 0
	frame.data = nil
	frame.pinCount = 0
	frame.dirty = CLEAN
}
