package buffer_pool_manager

import (
	"errors"
	"log/slog"
	"sync"
)

var (
	// returned by fetchPage when every frame is pinned and the replacer has no victim to offer.
	ErrNoFreeFrame = errors.New("no free frame available")

	// returned by deletePage when the page is still pinned by an active user.
	ErrPagePinned = errors.New("page is pinned")
)

type BufferPoolManager interface {

	// fetchPage returns the frame holding the given page, reading it from disk if necessary.
	// The returned frame is pinned.
	fetchPage(pageId PageID) (*Frame, error)

	// unpinPage decrements the pin count of the page, making its frame an
	// eviction candidate once the count reaches zero.
	unpinPage(pageId PageID) bool

	// deletePage removes an unpinned page from the pool and deallocates it on disk.
	deletePage(pageId PageID) (bool, error)

	// flushPage writes the page to disk if it is dirty.
	flushPage(pageId PageID) error

	// NewPage allocates a page ID for use.
	NewPage() PageID

	// Close flushes all dirty pages and closes the database file.
	Close() error
}

// SimpleBufferPoolManager manages a fixed set of frames, mapping pages to
// frames and delegating victim selection to an LRU-K replacer.
type SimpleBufferPoolManager struct {

	// guards the page table, free list and frame metadata.
	mutex *sync.Mutex

	frames     []*Frame
	pageTable  map[PageID]FrameID
	freeFrames []FrameID

	replacer Replacer
	disk     DiskManager
}

func NewSimpleBufferPoolManager(numFrames int, replacer Replacer, disk DiskManager) *SimpleBufferPoolManager {

	frames := make([]*Frame, numFrames)
	freeFrames := make([]FrameID, 0, numFrames)

	for i := 0; i < numFrames; i++ {
		frames[i] = newFrame()
		freeFrames = append(freeFrames, FrameID(i))
	}

	return &SimpleBufferPoolManager{
		mutex:      &sync.Mutex{},
		frames:     frames,
		pageTable:  make(map[PageID]FrameID),
		freeFrames: freeFrames,
		replacer:   replacer,
		disk:       disk,
	}
}

// fetchPage returns the frame holding the given page, pinned.
// On a miss the page is read from disk into a free frame, evicting a victim
// frame if the free list is empty.
func (pool *SimpleBufferPoolManager) fetchPage(pageId PageID) (*Frame, error) {

	pool.mutex.Lock()
	defer pool.mutex.Unlock()

	if frameId, exists := pool.pageTable[pageId]; exists {

		frame := pool.frames[frameId]
		frame.pinCount++

		if err := pool.replacer.RecordAccess(frameId, AccessUnknown); err != nil {
			return nil, err
		}
		pool.replacer.SetEvictable(frameId, false)

		return frame, nil
	}

	frameId, err := pool.reserveFrame()

	if err != nil {
		return nil, err
	}

	data, err := pool.disk.readPage(pageId)

	if err != nil {
		slog.Error("Failed to read page from disk", "pageId", pageId, "error", err.Error(), "function", "fetchPage", "at", "SimpleBufferPoolManager")
		pool.freeFrames = append(pool.freeFrames, frameId)
		return nil, err
	}

	frame := pool.frames[frameId]
	frame.pageId = pageId
	frame.data = data
	frame.pinCount = 1
	frame.dirty = CLEAN

	pool.pageTable[pageId] = frameId

	if err := pool.replacer.RecordAccess(frameId, AccessUnknown); err != nil {
		return nil, err
	}
	pool.replacer.SetEvictable(frameId, false)

	return frame, nil
}

// reserveFrame hands out a frame from the free list, falling back to evicting
// the replacer's victim. Dirty victims are written back before reuse.
// Caller must hold the pool mutex.
func (pool *SimpleBufferPoolManager) reserveFrame() (FrameID, error) {

	if len(pool.freeFrames) > 0 {

		frameId := pool.freeFrames[0]
		pool.freeFrames = pool.freeFrames[1:]
		return frameId, nil
	}

	frameId, found := pool.replacer.Evict()

	if !found {
		return 0, ErrNoFreeFrame
	}

	victim := pool.frames[frameId]
	delete(pool.pageTable, victim.pageId)

	if victim.dirty {

		if err := pool.disk.writePage(victim.pageId, victim.data); err != nil {

			slog.Error("Failed to write back dirty victim page", "pageId", victim.pageId, "error", err.Error(), "function", "reserveFrame", "at", "SimpleBufferPoolManager")

			victim.reset()
			pool.freeFrames = append(pool.freeFrames, frameId)
			return 0, err
		}
	}

	victim.reset()

	return frameId, nil
}

// unpinPage decrements the pin count of the page. Once the count reaches zero
// the frame is handed to the replacer as an eviction candidate.
func (pool *SimpleBufferPoolManager) unpinPage(pageId PageID) bool {

	pool.mutex.Lock()
	defer pool.mutex.Unlock()

	frameId, exists := pool.pageTable[pageId]

	if !exists {
		return false
	}

	frame := pool.frames[frameId]

	if frame.pinCount == 0 {
		return false
	}

	frame.pinCount--

	if frame.pinCount == 0 {
		pool.replacer.SetEvictable(frameId, true)
	}

	return true
}

// deletePage removes an unpinned page from the pool, returns its frame to the
// free list and deallocates the page ID on disk. Returns false without error
// when the page is not resident.
func (pool *SimpleBufferPoolManager) deletePage(pageId PageID) (bool, error) {

	pool.mutex.Lock()
	defer pool.mutex.Unlock()

	frameId, exists := pool.pageTable[pageId]

	if !exists {
		return false, nil
	}

	frame := pool.frames[frameId]

	if frame.pinCount > 0 {
		return false, ErrPagePinned
	}

	if err := pool.replacer.Remove(frameId); err != nil {
		return false, err
	}

	delete(pool.pageTable, pageId)
	frame.reset()
	pool.freeFrames = append(pool.freeFrames, frameId)

	pool.disk.deallocatePage(pageId)

	return true, nil
}

// flushPage writes the page to disk if it is resident and dirty.
func (pool *SimpleBufferPoolManager) flushPage(pageId PageID) error {

	pool.mutex.Lock()
	defer pool.mutex.Unlock()

	frameId, exists := pool.pageTable[pageId]

	if !exists {
		return nil
	}

	frame := pool.frames[frameId]

	if !frame.dirty {
		return nil
	}

	if err := pool.disk.writePage(pageId, frame.data); err != nil {
		return err
	}

	frame.dirty = CLEAN

	return nil
}

// NewPage allocates a page ID and materializes a zeroed page on disk, so the
// page can be fetched immediately.
func (pool *SimpleBufferPoolManager) NewPage() PageID {

	pageId := pool.disk.allocatePage()

	if err := pool.disk.writePage(pageId, make([]byte, PAGE_SIZE)); err != nil {
		slog.Error("Failed to initialize new page", "pageId", pageId, "error", err.Error(), "function", "NewPage", "at", "SimpleBufferPoolManager")
	}

	return pageId
}

// Close writes all dirty resident pages to disk, then closes the database file.
func (pool *SimpleBufferPoolManager) Close() error {

	pool.mutex.Lock()
	defer pool.mutex.Unlock()

	for pageId, frameId := range pool.pageTable {

		frame := pool.frames[frameId]

		if !frame.dirty {
			continue
		}

		if err := pool.disk.writePage(pageId, frame.data); err != nil {
			return err
		}

		frame.dirty = CLEAN
	}

	return pool.disk.close()
}
