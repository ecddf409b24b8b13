package buffer_pool_manager

import (
	"encoding/binary"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"
)

type BufferPoolManagerTestSuite struct {
	suite.Suite
	disk       *OSBufferedDiskManager
	bufferPool *SimpleBufferPoolManager
}

// seeds pages 1-8, each carrying its own page number in the first two bytes.
func diskManagerSetup(disk *OSBufferedDiskManager) error {

	for pageId := PageID(1); pageId <= 8; pageId++ {

		data := make([]byte, PAGE_SIZE)
		binary.LittleEndian.PutUint16(data[:2], uint16(pageId))

		if err := disk.writePage(pageId, data); err != nil {
			return err
		}
	}

	disk.maxAllocatedPageId = 8

	return nil
}

func (bs *BufferPoolManagerTestSuite) SetupTest() {

	disk, err := NewOSBufferedDiskManager("test_file.dat")

	bs.Suite.Require().NoError(err)

	bs.Suite.Require().NoError(diskManagerSetup(disk))

	bs.disk = disk
	bs.bufferPool = NewSimpleBufferPoolManager(3, NewLRUKReplacer(3, 2), disk)
}

func (bs *BufferPoolManagerTestSuite) TearDownTest() {

	err := bs.disk.file.Close()

	// Close may already have been called by the test.
	if err != nil {
		log.Printf("teardown close => %v", err)
	}

	bs.Suite.Require().NoError(os.Remove("test_file.dat"))
}

func (bs *BufferPoolManagerTestSuite) TestMultiplePageFetch() {

	log.Println("fetching page 1...")

	frame, err := bs.bufferPool.fetchPage(1)

	bs.Suite.Require().NoError(err)
	bs.Suite.Assert().Equal(uint16(1), binary.LittleEndian.Uint16(frame.data[:2]))
	bs.Suite.Assert().Equal(1, frame.pinCount)

	log.Println("fetching pages 2 and 3...")

	_, err = bs.bufferPool.fetchPage(2)
	bs.Suite.Require().NoError(err)

	_, err = bs.bufferPool.fetchPage(3)
	bs.Suite.Require().NoError(err)

	bs.Suite.Assert().Equal(0, len(bs.bufferPool.freeFrames))

	// unpin page 1, making it the only eviction candidate.
	bs.bufferPool.unpinPage(1)

	log.Println("fetching page 4, evicting page 1...")

	frame, err = bs.bufferPool.fetchPage(4)

	bs.Suite.Require().NoError(err)
	bs.Suite.Assert().Equal(uint16(4), binary.LittleEndian.Uint16(frame.data[:2]))

	log.Printf("page table => %v", bs.bufferPool.pageTable)

	_, resident := bs.bufferPool.pageTable[1]

	bs.Suite.Assert().Equal(false, resident)
}

func (bs *BufferPoolManagerTestSuite) TestFetchWhenAllPinned() {

	for pageId := PageID(1); pageId <= 3; pageId++ {
		_, err := bs.bufferPool.fetchPage(pageId)
		bs.Suite.Require().NoError(err)
	}

	_, err := bs.bufferPool.fetchPage(4)

	bs.Suite.Assert().ErrorIs(err, ErrNoFreeFrame)
}

func (bs *BufferPoolManagerTestSuite) TestUnpinPage() {

	// test unpin without fetch
	result := bs.bufferPool.unpinPage(1)

	bs.Suite.Assert().Equal(false, result)

	// test unpin after fetching
	frame, err := bs.bufferPool.fetchPage(1)

	bs.Suite.Require().NoError(err)

	result = bs.bufferPool.unpinPage(1)

	bs.Suite.Assert().Equal(true, result)
	bs.Suite.Assert().Equal(0, frame.pinCount)

	// pin count does not go below zero
	result = bs.bufferPool.unpinPage(1)

	bs.Suite.Assert().Equal(false, result)
}

func (bs *BufferPoolManagerTestSuite) TestDeletePage() {

	// test delete without fetch
	result, err := bs.bufferPool.deletePage(1)

	bs.Suite.Assert().NoError(err)
	bs.Suite.Assert().Equal(false, result)

	_, err = bs.bufferPool.fetchPage(1)

	bs.Suite.Require().NoError(err)

	// a pinned page refuses deletion
	result, err = bs.bufferPool.deletePage(1)

	bs.Suite.Assert().ErrorIs(err, ErrPagePinned)
	bs.Suite.Assert().Equal(false, result)

	bs.bufferPool.unpinPage(1)

	result, err = bs.bufferPool.deletePage(1)

	bs.Suite.Assert().NoError(err)
	bs.Suite.Assert().Equal(true, result)

	log.Printf("deallocated page id list => %v", bs.disk.deallocatedPageIdList)

	bs.Suite.Assert().Equal(PageID(1), bs.disk.deallocatedPageIdList[0])
	bs.Suite.Assert().Equal(3, len(bs.bufferPool.freeFrames))
}

func (bs *BufferPoolManagerTestSuite) TestNewPage() {

	// should return max allocated page ID + 1
	pageId := bs.bufferPool.NewPage()

	bs.Suite.Assert().Equal(PageID(9), pageId)

	// delete page 1, check if new page returns 1
	_, err := bs.bufferPool.fetchPage(1)

	bs.Suite.Require().NoError(err)

	bs.bufferPool.unpinPage(1)

	result, err := bs.bufferPool.deletePage(1)

	bs.Suite.Require().NoError(err)
	bs.Suite.Assert().Equal(true, result)

	pageId = bs.bufferPool.NewPage()

	bs.Suite.Assert().Equal(PageID(1), pageId)
}

func (bs *BufferPoolManagerTestSuite) TestDirtyPageEviction() {

	// fetch page 1 from disk.
	frame, err := bs.bufferPool.fetchPage(1)

	bs.Suite.Require().NoError(err)

	// update page 1
	binary.LittleEndian.PutUint16(frame.data[:2], uint16(10))

	frame.dirty = DIRTY

	bs.bufferPool.unpinPage(1)

	// fill the pool, then evict page 1 by fetching one more page.
	bs.bufferPool.fetchPage(2)
	bs.bufferPool.fetchPage(3)

	_, err = bs.bufferPool.fetchPage(4)

	bs.Suite.Require().NoError(err)

	bs.bufferPool.unpinPage(4)

	// fetch page 1 from disk again, check if updated.
	frame, err = bs.bufferPool.fetchPage(1)

	bs.Suite.Require().NoError(err)
	bs.Suite.Assert().Equal(uint16(10), binary.LittleEndian.Uint16(frame.data[:2]))
}

func (bs *BufferPoolManagerTestSuite) TestFlushPage() {

	frame, err := bs.bufferPool.fetchPage(1)

	bs.Suite.Require().NoError(err)

	binary.LittleEndian.PutUint16(frame.data[:2], uint16(42))

	frame.dirty = DIRTY

	bs.Suite.Require().NoError(bs.bufferPool.flushPage(1))

	bs.Suite.Assert().Equal(CLEAN, frame.dirty)

	// read the page directly from disk, bypassing the pool.
	data, err := bs.disk.readPage(1)

	bs.Suite.Require().NoError(err)
	bs.Suite.Assert().Equal(uint16(42), binary.LittleEndian.Uint16(data[:2]))
}

func (bs *BufferPoolManagerTestSuite) TestCloseFlushesDirtyPages() {

	frame, err := bs.bufferPool.fetchPage(1)

	bs.Suite.Require().NoError(err)

	binary.LittleEndian.PutUint16(frame.data[:2], uint16(77))

	frame.dirty = DIRTY

	bs.bufferPool.unpinPage(1)

	bs.Suite.Require().NoError(bs.bufferPool.Close())

	// reopen and verify the update survived.
	disk, err := NewOSBufferedDiskManager("test_file.dat")

	bs.Suite.Require().NoError(err)

	bs.disk = disk

	data, err := disk.readPage(1)

	bs.Suite.Require().NoError(err)
	bs.Suite.Assert().Equal(uint16(77), binary.LittleEndian.Uint16(data[:2]))
}

func TestBufferPoolManager(t *testing.T) {

	suite.Run(t, new(BufferPoolManagerTestSuite))
}
