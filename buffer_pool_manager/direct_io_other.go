//go:build !linux
// +build !linux

package buffer_pool_manager

import (
	"os"

	"github.com/ncw/directio"
)

func openDirectIOFile(filePath string, flags int, permissions os.FileMode) (*os.File, error) {
	return directio.OpenFile(filePath, flags, permissions)
}
