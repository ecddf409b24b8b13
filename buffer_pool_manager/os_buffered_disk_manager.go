package buffer_pool_manager

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// OSBufferedDiskManager reads and writes pages through the kernel page cache.
type OSBufferedDiskManager struct {
	file *os.File

	mutex                 *sync.Mutex
	deallocatedPageIdList []PageID
	maxAllocatedPageId    PageID
}

func NewOSBufferedDiskManager(filePath string) (*OSBufferedDiskManager, error) {

	newFileCreated := false

	if _, err := os.Stat(filePath); errors.Is(err, os.ErrNotExist) {
		newFileCreated = true
	}

	f, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE, 0644)

	if err != nil {
		return nil, err
	}

	disk := &OSBufferedDiskManager{
		file:  f,
		mutex: &sync.Mutex{},
	}

	// a new file gets an empty freelist page, an existing file already has one on disk.
	if newFileCreated {

		disk.maxAllocatedPageId = FREELIST_PAGE_ID
		disk.deallocatedPageIdList = make([]PageID, 0)

		if err = disk.write(FREELIST_PAGE_ID*PAGE_SIZE, serializeFreelistPage(disk.maxAllocatedPageId, disk.deallocatedPageIdList)); err != nil {
			return nil, err
		}

	} else {

		freelistPageData, err := disk.read(FREELIST_PAGE_ID*PAGE_SIZE, PAGE_SIZE)

		if err != nil {
			return nil, err
		}

		disk.maxAllocatedPageId, disk.deallocatedPageIdList = deserializeFreelistPage(freelistPageData)
	}

	return disk, nil
}

// writes data to a particular offset in the file.
func (disk *OSBufferedDiskManager) write(offset int64, data []byte) error {

	n, err := disk.file.WriteAt(data, offset)

	if err != nil {
		return err
	}

	if n != len(data) {
		return fmt.Errorf("incomplete write")
	}
	return nil
}

// reads a specified amount of data starting from a particular offset in the file.
func (disk *OSBufferedDiskManager) read(offset int64, size int) ([]byte, error) {

	data := make([]byte, size)

	n, err := disk.file.ReadAt(data, offset)

	if err != nil {
		return nil, err
	}

	if n != size {
		return nil, fmt.Errorf("incomplete read")
	}
	return data, nil
}

func (disk *OSBufferedDiskManager) readPage(pageId PageID) ([]byte, error) {
	return disk.read(int64(pageId)*PAGE_SIZE, PAGE_SIZE)
}

func (disk *OSBufferedDiskManager) writePage(pageId PageID, data []byte) error {
	return disk.write(int64(pageId)*PAGE_SIZE, data)
}

// allocatePage returns a page ID for use.
// It reuses a deallocated page ID if available, otherwise increments maxAllocatedPageId and returns a new page ID.
func (disk *OSBufferedDiskManager) allocatePage() PageID {

	disk.mutex.Lock()
	defer disk.mutex.Unlock()

	if len(disk.deallocatedPageIdList) > 0 {

		pageId := disk.deallocatedPageIdList[0]
		disk.deallocatedPageIdList = disk.deallocatedPageIdList[1:]
		return pageId
	} else {
		pageId := disk.maxAllocatedPageId + 1
		disk.maxAllocatedPageId++
		return pageId
	}
}

// deallocatePage marks a page ID as free and adds it to the free list,
// making it available for future allocation.
func (disk *OSBufferedDiskManager) deallocatePage(pageId PageID) {

	disk.mutex.Lock()
	disk.deallocatedPageIdList = append(disk.deallocatedPageIdList, pageId)
	disk.mutex.Unlock()
}

// close writes the serialized freelist page to file, then closes the file.
func (disk *OSBufferedDiskManager) close() error {

	disk.mutex.Lock()
	defer disk.mutex.Unlock()

	freelistPageData := serializeFreelistPage(disk.maxAllocatedPageId, disk.deallocatedPageIdList)

	if err := disk.write(FREELIST_PAGE_ID*PAGE_SIZE, freelistPageData); err != nil {
		return err
	}

	if err := disk.file.Close(); err != nil {
		return err
	}

	return nil
}
