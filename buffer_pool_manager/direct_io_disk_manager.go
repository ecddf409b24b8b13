package buffer_pool_manager

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/ncw/directio"
)

// DirectIODiskManager uses Direct I/O to read/write pages of data directly between user process memory and disk controller.

// Direct I/O bypasses the kernel page cache, this is useful because:
// 1. It prevents the file data from being cached twice, once in kernel page cache, and once in database process memory.
// 2. It gives the database complete control over when data is flushed to disk.

type DirectIODiskManager struct {
	file *os.File

	mutex                 *sync.Mutex
	deallocatedPageIdList []PageID
	maxAllocatedPageId    PageID
}

func NewDirectIODiskManager(filePath string) (*DirectIODiskManager, error) {

	newFileCreated := false

	if _, err := os.Stat(filePath); errors.Is(err, os.ErrNotExist) {
		slog.Info("database file does not exist, creating new file...", "filePath", filePath, "function", "NewDirectIODiskManager", "at", "DirectIODiskManager")
		newFileCreated = true
	}

	slog.Info("Opening file in DIRECT I/O mode", "filePath", filePath, "function", "NewDirectIODiskManager", "at", "DirectIODiskManager")

	file, err := openDirectIOFile(filePath, os.O_RDWR|os.O_CREATE, 0644)

	if err != nil {
		return nil, err
	}

	disk := &DirectIODiskManager{
		file:  file,
		mutex: &sync.Mutex{},
	}

	// if a new file had to be created, write an empty freelist page to disk.
	if newFileCreated {

		disk.maxAllocatedPageId = FREELIST_PAGE_ID
		disk.deallocatedPageIdList = make([]PageID, 0)

		if err = disk.write(FREELIST_PAGE_ID*PAGE_SIZE, serializeFreelistPage(disk.maxAllocatedPageId, disk.deallocatedPageIdList)); err != nil {

			slog.Error("Failed to write freelist page", "error", err.Error(), "function", "NewDirectIODiskManager", "at", "DirectIODiskManager")
			return nil, err
		}

	} else {

		freelistPageData, err := disk.read(FREELIST_PAGE_ID*PAGE_SIZE, PAGE_SIZE)

		if err != nil {

			slog.Error("Failed to read freelist page", "error", err.Error(), "function", "NewDirectIODiskManager", "at", "DirectIODiskManager")
			return nil, err
		}

		disk.maxAllocatedPageId, disk.deallocatedPageIdList = deserializeFreelistPage(freelistPageData)
	}

	return disk, nil
}

// write function writes data to a particular offset in the file through an aligned buffer.
func (disk *DirectIODiskManager) write(offset int64, data []byte) error {

	block := data

	// Direct I/O requires the user space buffer to be aligned to the block size.
	if !directio.IsAligned(data) {
		block = directio.AlignedBlock(PAGE_SIZE)
		copy(block, data)
	}

	// WriteAt internally calls the pwrite system call, which seeks and writes atomically.
	n, err := disk.file.WriteAt(block, offset)

	if err != nil {
		slog.Error("Failed to write data", "offset", offset, "error", err.Error(), "function", "write", "at", "DirectIODiskManager")
		return err
	}

	if n != len(block) {
		return fmt.Errorf("incomplete write")
	}
	return nil
}

// reads a specified amount of data starting from a particular offset in the file.
func (disk *DirectIODiskManager) read(offset int64, size int) ([]byte, error) {

	block := directio.AlignedBlock(size)

	n, err := disk.file.ReadAt(block, offset)

	if err != nil {
		slog.Error("Failed to read data", "offset", offset, "error", err.Error(), "function", "read", "at", "DirectIODiskManager")
		return nil, err
	}

	if n != size {
		return nil, fmt.Errorf("incomplete read")
	}
	return block, nil
}

func (disk *DirectIODiskManager) readPage(pageId PageID) ([]byte, error) {
	return disk.read(int64(pageId)*PAGE_SIZE, PAGE_SIZE)
}

func (disk *DirectIODiskManager) writePage(pageId PageID, data []byte) error {
	return disk.write(int64(pageId)*PAGE_SIZE, data)
}

// allocatePage returns a page ID for use.
// It reuses a deallocated page ID if available, otherwise increments maxAllocatedPageId and returns a new page ID.
func (disk *DirectIODiskManager) allocatePage() PageID {

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
func (disk *DirectIODiskManager) deallocatePage(pageId PageID) {

	disk.mutex.Lock()
	disk.deallocatedPageIdList = append(disk.deallocatedPageIdList, pageId)
	disk.mutex.Unlock()
}

// close writes the serialized freelist page to file, then closes the file.
func (disk *DirectIODiskManager) close() error {

	disk.mutex.Lock()
	defer disk.mutex.Unlock()

	freelistPageData := serializeFreelistPage(disk.maxAllocatedPageId, disk.deallocatedPageIdList)

	if err := disk.write(FREELIST_PAGE_ID*PAGE_SIZE, freelistPageData); err != nil {

		slog.Error("Failed to write freelist page", "error", err.Error(), "function", "close", "at", "DirectIODiskManager")
		return err
	}

	if err := disk.file.Close(); err != nil {

		slog.Error("Failed to close file", "error", err.Error(), "function", "close", "at", "DirectIODiskManager")
		return err
	}

	return nil
}
