package main

import (
	"fmt"

	"github.com/YiD11/bustub/buffer_pool_manager"
)

func main() {

	replacer := buffer_pool_manager.NewLRUKReplacer(64, 2)

	disk, err := buffer_pool_manager.NewDirectIODiskManager("bustub.db")

	if err != nil {
		panic(err)
	}

	pool := buffer_pool_manager.NewSimpleBufferPoolManager(64, replacer, disk)

	pageId := pool.NewPage()

	guard, err := pool.NewWriteGuard(pageId)

	if err != nil {
		panic(err)
	}

	copy(guard.Data(), []byte("hello"))
	guard.MarkDirty()
	guard.Done()

	readGuard, err := pool.NewReadGuard(pageId)

	if err != nil {
		panic(err)
	}

	fmt.Printf("page %d => %s\n", pageId, readGuard.Data()[:5])
	readGuard.Done()

	if err := pool.Close(); err != nil {
		panic(err)
	}
}
