// Package mmap stores point sets in memory-mapped binary files.
//
// A point file is a 64-byte header followed by the coordinates as row-major
// float64 values in little-endian order. Opening a file maps it read-only and
// exposes the coordinates in place, so a grid can be built over a large
// cloud without reading it into the heap.
package mmap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"unsafe"

	"github.com/sanonone/kektorgrid/pkg/core/points"
)

const (
	PointsMagic      = 0x4B475054 // "KGPT"
	PointsVersion    = 1
	PointsHeaderSize = 64
)

var (
	// ErrNotPointFile is returned for files without a valid point file header.
	ErrNotPointFile = errors.New("mmap: not a point file")
	// ErrBigEndian is returned on hosts that cannot view the coordinates in place.
	ErrBigEndian = errors.New("mmap: point files require a little-endian host")
)

// PointFile is a read-only mapping of a point file.
type PointFile struct {
	file *os.File
	data []byte
	set  *points.Dense
}

func littleEndianHost() bool {
	return binary.NativeEndian.Uint16([]byte{1, 0}) == 1
}

// WritePoints writes set to path as a point file, replacing any existing file.
func WritePoints(path string, set points.Set) error {
	if !littleEndianHost() {
		return ErrBigEndian
	}
	n, dims := set.Len(), set.Dims()
	size := PointsHeaderSize + n*dims*8

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := file.Truncate(int64(size)); err != nil {
		return err
	}
	data, err := mmapFile(file.Fd(), size, true)
	if err != nil {
		return err
	}

	binary.LittleEndian.PutUint32(data[0:4], PointsMagic)
	binary.LittleEndian.PutUint32(data[4:8], PointsVersion)
	binary.LittleEndian.PutUint32(data[8:12], uint32(dims))
	binary.LittleEndian.PutUint64(data[12:20], uint64(n))

	coords := bytesToFloat64Slice(data[PointsHeaderSize:], n*dims)
	buf := make([]float64, dims)
	for i := 0; i < n; i++ {
		copy(coords[i*dims:(i+1)*dims], set.Point(i, buf))
	}

	if err := munmapFile(data); err != nil {
		return err
	}
	return file.Sync()
}

// OpenPoints maps the point file at path. The returned set stays valid until
// Close; grids built over it must not outlive the mapping.
func OpenPoints(path string) (*PointFile, error) {
	if !littleEndianHost() {
		return nil, ErrBigEndian
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.Size() < PointsHeaderSize {
		file.Close()
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrNotPointFile, path, info.Size())
	}

	data, err := mmapFile(file.Fd(), int(info.Size()), false)
	if err != nil {
		file.Close()
		return nil, err
	}
	pf := &PointFile{file: file, data: data}

	magic := binary.LittleEndian.Uint32(data[0:4])
	version := binary.LittleEndian.Uint32(data[4:8])
	dims := int(binary.LittleEndian.Uint32(data[8:12]))
	n := binary.LittleEndian.Uint64(data[12:20])

	switch {
	case magic != PointsMagic:
		err = fmt.Errorf("%w: %s (magic mismatch)", ErrNotPointFile, path)
	case version != PointsVersion:
		err = fmt.Errorf("%w: %s has unsupported version %d", ErrNotPointFile, path, version)
	case dims == 0 || n*uint64(dims)*8 != uint64(len(data)-PointsHeaderSize):
		err = fmt.Errorf("%w: %s size does not match %d points of dimension %d", ErrNotPointFile, path, n, dims)
	}
	if err == nil {
		pf.set, err = points.NewDense(bytesToFloat64Slice(data[PointsHeaderSize:], int(n)*dims), dims)
	}
	if err != nil {
		pf.Close()
		return nil, err
	}
	return pf, nil
}

// Points returns the mapped point set. Read-only.
func (pf *PointFile) Points() *points.Dense { return pf.set }

// Close unmaps the file.
func (pf *PointFile) Close() error {
	var firstErr error
	if err := munmapFile(pf.data); err != nil {
		firstErr = err
	}
	if err := pf.file.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	pf.data, pf.set = nil, nil
	return firstErr
}

// bytesToFloat64Slice casts a byte slice directly to a float64 slice without copying.
func bytesToFloat64Slice(b []byte, count int) []float64 {
	if len(b) == 0 || count == 0 {
		return nil
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(&b[0])), count)
}
