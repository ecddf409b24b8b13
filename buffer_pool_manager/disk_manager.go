package buffer_pool_manager

import "encoding/binary"

// PageID identifies a page stored in the database file.
type PageID uint64

const (
	PAGE_SIZE        = 4096
	FREELIST_PAGE_ID = 0

	DIRTY = true
	CLEAN = false
)

// DiskManager is responsible for reading, writing, allocating and deallocating pages on disk.
type DiskManager interface {

	// readPage reads the page worth of data stored in the slot of the given page ID.
	readPage(pageId PageID) ([]byte, error)

	// writePage writes one page worth of data to the slot of the given page ID.
	writePage(pageId PageID, data []byte) error

	// allocatePage returns a page ID for use.
	// It reuses a deallocated page ID if available, otherwise increments maxAllocatedPageId and returns a new page ID.
	allocatePage() PageID

	// deallocatePage marks a page ID as free and adds it to the free list, making it available for future allocation.
	deallocatePage(pageId PageID)

	// close writes the serialized freelist page to file, then closes the file.
	close() error
}

// serializeFreelistPage encodes the max allocated page ID and the list of deallocated page IDs
// into a page-sized buffer so it can be written to disk. This ensures persistence of the free
// list across restarts.
func serializeFreelistPage(maxAllocatedPageId PageID, deallocatedPageIdList []PageID) []byte {

	data := make([]byte, PAGE_SIZE)

	pointer := 0
	binary.LittleEndian.PutUint64(data[pointer:pointer+8], uint64(maxAllocatedPageId))
	pointer += 8

	binary.LittleEndian.PutUint64(data[pointer:pointer+8], uint64(len(deallocatedPageIdList)))
	pointer += 8

	for _, pageId := range deallocatedPageIdList {
		binary.LittleEndian.PutUint64(data[pointer:pointer+8], uint64(pageId))
		pointer += 8
	}

	return data
}

// deserializeFreelistPage decodes the byte slice read from disk into the in-memory
// list of deallocated page IDs. This restores the free list after a database restart.
func deserializeFreelistPage(data []byte) (maxAllocatedPageId PageID, deallocatedPageIdList []PageID) {

	pointer := 0
	maxAllocatedPageId = PageID(binary.LittleEndian.Uint64(data[pointer : pointer+8]))
	pointer += 8

	deallocatedPageIdListSize := binary.LittleEndian.Uint64(data[pointer : pointer+8])
	pointer += 8

	deallocatedPageIdList = make([]PageID, 0)

	for i := 0; i < int(deallocatedPageIdListSize); i++ {
		deallocatedPageIdList = append(deallocatedPageIdList, PageID(binary.LittleEndian.Uint64(data[pointer:pointer+8])))
		pointer += 8
	}

	return maxAllocatedPageId, deallocatedPageIdList
}
