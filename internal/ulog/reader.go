package ulog

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how a log file is wrapped on disk.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return "none"
	}
}

var (
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	lz4Magic  = []byte{0x04, 0x22, 0x4D, 0x18}
)

// Sniff reports the compression of the stream behind br without consuming it.
func Sniff(br *bufio.Reader) Compression {
	head, _ := br.Peek(4)
	switch {
	case bytes.Equal(head, zstdMagic):
		return CompressionZstd
	case bytes.Equal(head, lz4Magic):
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

type readCloser struct {
	io.Reader
	close func() error
}

func (rc readCloser) Close() error { return rc.close() }

// NewReader returns a buffered reader over the decompressed log in r. zstd
// and LZ4 frame streams are detected by magic; anything else is passed
// through. Closing the result does not close r.
func NewReader(r io.Reader) (io.ReadCloser, Compression, error) {
	br := bufio.NewReaderSize(r, 64<<10)
	c := Sniff(br)
	switch c {
	case CompressionZstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, c, fmt.Errorf("ulog: zstd reader: %w", err)
		}
		return readCloser{Reader: bufio.NewReaderSize(zr, 64<<10), close: func() error { zr.Close(); return nil }}, c, nil
	case CompressionLZ4:
		return readCloser{Reader: bufio.NewReaderSize(lz4.NewReader(br), 64<<10), close: func() error { return nil }}, c, nil
	default:
		return readCloser{Reader: br, close: func() error { return nil }}, c, nil
	}
}

// OpenFile opens path and wraps it with NewReader. Closing the result closes
// the file.
func OpenFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	rc, _, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return readCloser{Reader: rc, close: func() error {
		rc.Close()
		return f.Close()
	}}, nil
}
