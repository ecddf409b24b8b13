package buffer_pool_manager

import (
	"container/list"
	"errors"
	"slices"
	"sync"
)

// FrameID identifies a slot in the buffer pool, independent of the page currently stored in it.
type FrameID uint64

// AccessType classifies the operation that touched a frame.
// It is reserved for future prioritization policies and is currently not interpreted.
type AccessType int

const (
	AccessUnknown AccessType = iota
	AccessLookup
	AccessScan
	AccessIndex
)

var (
	// returned by RecordAccess when the frame ID lies outside [0, capacity).
	ErrInvalidFrame = errors.New("frame id outside replacer capacity")

	// returned by Remove when the named frame is tracked but still pinned.
	ErrNotEvictable = errors.New("frame is not evictable")
)

// Replacer tracks frame accesses and selects eviction victims.
type Replacer interface {

	// RecordAccess notes that a frame was touched at the current logical timestamp.
	RecordAccess(frameId FrameID, accessType AccessType) error

	// SetEvictable marks a frame as a candidate for eviction, or withdraws it.
	SetEvictable(frameId FrameID, evictable bool)

	// Evict removes and returns the frame with the largest backward k-distance.
	Evict() (FrameID, bool)

	// Remove discards a specific frame and its access history.
	Remove(frameId FrameID) error

	// Size returns the number of frames currently marked evictable.
	Size() int
}

// frameNode holds the bounded access history of a single tracked frame.
type frameNode struct {
	frameId FrameID

	// access timestamps, most recent first, never more than k entries.
	history []uint64

	evictable bool
}

// kthAccess returns the timestamp of the oldest retained access, which is the
// k-th most recent one once the history is full.
func (node *frameNode) kthAccess() uint64 {
	return node.history[len(node.history)-1]
}

// LRUKReplacer implements the LRU-K replacement policy.
//
// The backward k-distance of a frame is the time elapsed since its k-th most
// recent access. Eviction picks the evictable frame with the largest backward
// k-distance. A frame with fewer than k recorded accesses has an infinite
// backward k-distance; among such frames the victim is the one seen first
// (FIFO by first observation, not classical LRU).
type LRUKReplacer struct {

	// guards all replacer state.
	mutex *sync.Mutex

	// owns one node per tracked frame.
	nodeStore map[FrameID]*frameNode

	// frames with fewer than k recorded accesses.
	// Newest arrival at the front, so the eviction scan starts at the back.
	historyList *list.List
	historyMap  map[FrameID]*list.Element

	// frames with exactly k recorded accesses, ordered descending by the
	// timestamp of the k-th most recent access. The tail holds the frame
	// with the largest backward k-distance.
	cacheList *list.List
	cacheMap  map[FrameID]*list.Element

	// logical clock, incremented once per recorded access, never reused.
	currentTimestamp uint64

	// number of tracked frames currently marked evictable.
	currSize int

	numFrames int
	k         int
}

func NewLRUKReplacer(numFrames int, k int) *LRUKReplacer {

	return &LRUKReplacer{
		mutex:       &sync.Mutex{},
		nodeStore:   make(map[FrameID]*frameNode),
		historyList: list.New(),
		historyMap:  make(map[FrameID]*list.Element),
		cacheList:   list.New(),
		cacheMap:    make(map[FrameID]*list.Element),
		numFrames:   numFrames,
		k:           k,
	}
}

// RecordAccess records an access to the given frame at the current logical
// timestamp, creating a history entry if the frame has not been seen before.
// A frame whose history reaches k entries migrates from the history list to
// the cache list; a frame already in the cache list is re-ranked in place.
func (replacer *LRUKReplacer) RecordAccess(frameId FrameID, accessType AccessType) error {

	replacer.mutex.Lock()
	defer replacer.mutex.Unlock()

	if frameId >= FrameID(replacer.numFrames) {
		return ErrInvalidFrame
	}

	node, exists := replacer.nodeStore[frameId]

	if !exists {
		node = &frameNode{frameId: frameId}
		replacer.nodeStore[frameId] = node
		replacer.historyMap[frameId] = replacer.historyList.PushFront(node)
	}

	replacer.currentTimestamp++
	node.history = slices.Insert(node.history, 0, replacer.currentTimestamp)

	if len(node.history) > replacer.k {

		// drop the oldest access and restore the cache list ordering.
		node.history = node.history[:replacer.k]

		replacer.cacheList.Remove(replacer.cacheMap[frameId])
		replacer.cacheMap[frameId] = replacer.rankedInsert(node)

	} else if len(node.history) == replacer.k {

		// the frame matures exactly once: it leaves the history list and
		// starts at the front of the cache list. Its position is corrected
		// on the next access if needed.
		replacer.historyList.Remove(replacer.historyMap[frameId])
		delete(replacer.historyMap, frameId)

		replacer.cacheMap[frameId] = replacer.cacheList.PushFront(node)
	}

	return nil
}

// rankedInsert places a node in the cache list so that k-th access timestamps
// stay in descending order from front to back.
func (replacer *LRUKReplacer) rankedInsert(node *frameNode) *list.Element {

	for element := replacer.cacheList.Front(); element != nil; element = element.Next() {

		if element.Value.(*frameNode).kthAccess() < node.kthAccess() {
			return replacer.cacheList.InsertBefore(node, element)
		}
	}

	return replacer.cacheList.PushBack(node)
}

// SetEvictable toggles whether a frame may be chosen as an eviction victim,
// keeping the evictable count in step. Unknown frames are ignored: the caller
// may race with an eviction that already discarded the frame.
func (replacer *LRUKReplacer) SetEvictable(frameId FrameID, evictable bool) {

	replacer.mutex.Lock()
	defer replacer.mutex.Unlock()

	node, exists := replacer.nodeStore[frameId]

	if !exists {
		return
	}

	if node.evictable && !evictable {
		replacer.currSize--
	} else if !node.evictable && evictable {
		replacer.currSize++
	}

	node.evictable = evictable
}

// Evict removes and returns the evictable frame with the largest backward
// k-distance, along with its access history. Frames with fewer than k accesses
// have infinite backward k-distance, so the history list is drained of
// evictable entries before the cache list is ever consulted. If the history
// list holds no evictable frame, the scan falls through to the cache list.
// The false return means no frame can be evicted right now, which is a normal
// outcome under a fully pinned pool.
func (replacer *LRUKReplacer) Evict() (FrameID, bool) {

	replacer.mutex.Lock()
	defer replacer.mutex.Unlock()

	if frameId, found := replacer.evictFrom(replacer.historyList, replacer.historyMap); found {
		return frameId, true
	}

	return replacer.evictFrom(replacer.cacheList, replacer.cacheMap)
}

// evictFrom scans a list from the back for the first evictable node and
// discards it. The back of the history list holds the oldest arrival, the back
// of the cache list the largest backward k-distance.
func (replacer *LRUKReplacer) evictFrom(frameList *list.List, frameMap map[FrameID]*list.Element) (FrameID, bool) {

	for element := frameList.Back(); element != nil; element = element.Prev() {

		node := element.Value.(*frameNode)

		if !node.evictable {
			continue
		}

		frameList.Remove(element)
		delete(frameMap, node.frameId)
		delete(replacer.nodeStore, node.frameId)
		replacer.currSize--

		return node.frameId, true
	}

	return 0, false
}

// Remove discards the named frame and its access history regardless of its
// backward k-distance. Unknown frames are ignored; removing a pinned frame is
// a contract violation and fails with ErrNotEvictable.
func (replacer *LRUKReplacer) Remove(frameId FrameID) error {

	replacer.mutex.Lock()
	defer replacer.mutex.Unlock()

	node, exists := replacer.nodeStore[frameId]

	if !exists {
		return nil
	}

	if !node.evictable {
		return ErrNotEvictable
	}

	if element, tracked := replacer.historyMap[frameId]; tracked {
		replacer.historyList.Remove(element)
		delete(replacer.historyMap, frameId)
	}

	if element, tracked := replacer.cacheMap[frameId]; tracked {
		replacer.cacheList.Remove(element)
		delete(replacer.cacheMap, frameId)
	}

	delete(replacer.nodeStore, frameId)
	replacer.currSize--

	return nil
}

// Size returns the number of frames currently marked evictable, not the total
// number of tracked frames.
func (replacer *LRUKReplacer) Size() int {

	replacer.mutex.Lock()
	defer replacer.mutex.Unlock()

	return replacer.currSize
}
