package persistence

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
)

// Constants for the snapshot frame.
const (
	// MagicByte marks the start of a snapshot frame.
	MagicByte = 0xA7

	// Version is the payload layout written by this package.
	Version = 1

	// HeaderSize is the fixed size of the frame metadata:
	// 1 byte (Magic) + 1 byte (Version) + 4 bytes (Length) + 4 bytes (CRC32) = 10 bytes.
	HeaderSize = 10

	// maxPayload bounds the allocation made for a frame read from an
	// untrusted stream.
	maxPayload = 1 << 31
)

var (
	// ErrInvalidMagic indicates the stream is not a grid snapshot.
	ErrInvalidMagic = errors.New("invalid magic byte")
	// ErrUnsupportedVersion indicates a snapshot written by an incompatible version.
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
	// ErrChecksumMismatch indicates data corruption within the frame payload.
	ErrChecksumMismatch = errors.New("crc32 checksum mismatch")
	// ErrIncompleteFrame indicates the stream ended abruptly (e.g., crash during write).
	ErrIncompleteFrame = errors.New("incomplete frame")
)

// FrameWriter writes checksummed frames to an io.Writer.
type FrameWriter struct {
	w io.Writer
}

// NewFrameWriter creates a writer that wraps an underlying io.Writer.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// WriteFrame encodes the payload into a binary frame and writes it.
// Frame Format: [Magic(1)][Version(1)][Length(4)][CRC(4)][Payload(N)]
func (fw *FrameWriter) WriteFrame(payload []byte) error {
	header := make([]byte, HeaderSize)
	header[0] = MagicByte
	header[1] = Version
	binary.LittleEndian.PutUint32(header[2:6], uint32(len(payload)))
	binary.LittleEndian.PutUint32(header[6:10], crc32.ChecksumIEEE(payload))

	// wrap fw.w in a bufio.Writer to turn these into a single syscall
	if _, err := fw.w.Write(header); err != nil {
		return err
	}
	if _, err := fw.w.Write(payload); err != nil {
		return err
	}
	return nil
}

// ReadFrame reads the next frame from the reader, validating the magic byte,
// the version and the CRC32 checksum. It returns the payload and the total
// bytes read (header + payload). io.EOF is returned only when the stream ends
// exactly at a frame boundary.
func ReadFrame(r io.Reader) ([]byte, int, error) {
	header := make([]byte, HeaderSize)

	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			return nil, 0, io.EOF
		}
		return nil, 0, ErrIncompleteFrame
	}

	if header[0] != MagicByte {
		return nil, HeaderSize, ErrInvalidMagic
	}
	if header[1] != Version {
		return nil, HeaderSize, ErrUnsupportedVersion
	}

	length := binary.LittleEndian.Uint32(header[2:6])
	expectedCRC := binary.LittleEndian.Uint32(header[6:10])
	if uint64(length) > maxPayload {
		return nil, HeaderSize, ErrIncompleteFrame
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		// EOF here is still an error: 'length' bytes were promised
		return nil, HeaderSize, ErrIncompleteFrame
	}

	if crc32.ChecksumIEEE(payload) != expectedCRC {
		return nil, HeaderSize + int(length), ErrChecksumMismatch
	}

	return payload, HeaderSize + int(length), nil
}
