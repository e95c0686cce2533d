package download

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"ghgrab/internal/logger"
)

// Buffer holds downloaded asset bytes, either in memory or in a temporary
// file on disk. It is owned by exactly one component at a time: the
// downloader produces it, the extractor consumes and releases it.
type Buffer struct {
	data []byte
	file *os.File
	size int64
}

// NewMemoryBuffer wraps an in-memory byte slice in a Buffer. Useful for
// callers (and tests) that already hold the asset bytes.
func NewMemoryBuffer(data []byte) *Buffer {
	return &Buffer{data: data, size: int64(len(data))}
}

// newFileBuffer wraps an open temporary file holding size bytes.
func newFileBuffer(file *os.File, size int64) *Buffer {
	return &Buffer{file: file, size: size}
}

// Size returns the number of downloaded bytes.
func (b *Buffer) Size() int64 {
	return b.size
}

// InMemory reports whether the buffer is memory-backed.
func (b *Buffer) InMemory() bool {
	return b.file == nil
}

// Reader returns a sequential reader positioned at the start of the data.
// The reader stays valid until Close or MoveTo.
func (b *Buffer) Reader() (io.Reader, error) {
	if b.file == nil {
		return bytes.NewReader(b.data), nil
	}
	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind temp file: %w", err)
	}
	return b.file, nil
}

// ReaderAt returns a random-access view of the data, needed by archive
// formats with trailing directories (zip, 7z).
func (b *Buffer) ReaderAt() (io.ReaderAt, error) {
	if b.file == nil {
		return bytes.NewReader(b.data), nil
	}
	return b.file, nil
}

// MoveTo places the buffer contents at path. A disk-backed buffer is renamed
// into place rather than copied where the filesystem allows it; afterwards
// the buffer no longer owns a temp file and Close becomes a no-op.
func (b *Buffer) MoveTo(path string) error {
	if b.file == nil {
		if err := os.WriteFile(path, b.data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return nil
	}

	tmpPath := b.file.Name()
	if err := b.file.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		// Rename fails across filesystems (the temp dir is often a
		// different mount than the destination); fall back to a copy.
		logger.Debug("[DEBUG] Rename %s -> %s failed (%v), copying instead\n", tmpPath, path, err)
		if cerr := copyFile(tmpPath, path); cerr != nil {
			os.Remove(tmpPath)
			b.file = nil
			return cerr
		}
		os.Remove(tmpPath)
	}

	b.file = nil
	return nil
}

// Close releases the backing storage: the temp file is deleted, memory is
// dropped. Safe to call more than once and after MoveTo.
func (b *Buffer) Close() error {
	b.data = nil
	if b.file == nil {
		return nil
	}

	tmpPath := b.file.Name()
	err := b.file.Close()
	if rerr := os.Remove(tmpPath); rerr != nil && err == nil && !os.IsNotExist(rerr) {
		err = rerr
	}
	b.file = nil
	return err
}

// copyFile copies src to dst. Used as the cross-device fallback for MoveTo.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy to %s: %w", dst, err)
	}
	return out.Close()
}
