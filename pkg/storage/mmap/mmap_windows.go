//go:build windows

package mmap

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// mmapFile on Windows is a two-step process: CreateFileMapping followed by MapViewOfFile.
func mmapFile(fd uintptr, size int, writable bool) ([]byte, error) {
	protect, access := uint32(windows.PAGE_READONLY), uint32(windows.FILE_MAP_READ)
	if writable {
		protect, access = windows.PAGE_READWRITE, windows.FILE_MAP_WRITE
	}

	hMap, err := windows.CreateFileMapping(
		windows.Handle(fd),
		nil,
		protect,
		uint32(int64(size)>>32),
		uint32(int64(size)&0xFFFFFFFF),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("CreateFileMapping failed: %w", err)
	}
	// the view keeps the mapping alive
	defer windows.CloseHandle(hMap)

	addr, err := windows.MapViewOfFile(hMap, access, 0, 0, uintptr(size))
	if err != nil {
		return nil, fmt.Errorf("MapViewOfFile failed: %w", err)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

// munmapFile releases the mapped view.
func munmapFile(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return windows.UnmapViewOfFile(uintptr(unsafe.Pointer(&data[0])))
}
