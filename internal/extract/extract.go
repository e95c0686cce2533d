package extract

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/klauspost/compress/zstd"
	"github.com/xi2/xz"

	"ghgrab/internal/download"
	"ghgrab/internal/logger"
)

var (
	// ErrAmbiguousArchive indicates the archive holds several entries and
	// none of them matches the expected binary name unambiguously.
	ErrAmbiguousArchive = errors.New("ambiguous archive contents")
	// ErrUnsupportedFormat indicates content that claims a known format
	// but cannot be parsed as one.
	ErrUnsupportedFormat = errors.New("unsupported archive format")
)

// Options configures one extraction.
type Options struct {
	// AssetName is the original asset file name, used for format
	// detection and as the verbatim output name in no-decompress mode.
	AssetName string
	// DestDir receives the final file. Created if missing.
	DestDir string
	// BinName is the explicit --bin-name override; empty means none.
	BinName string
	// RepoName names the executable when no override is given.
	RepoName string
	// NoDecompress saves the buffer verbatim without format inspection.
	NoDecompress bool
}

// Extract consumes the download buffer and produces the final file under the
// destination directory, returning its path. The buffer's backing storage is
// not released here (the caller closes it on every path), but a disk-backed
// buffer may be renamed into place, after which closing is a no-op.
func Extract(buf *download.Buffer, opts Options) (string, error) {
	if err := os.MkdirAll(opts.DestDir, 0755); err != nil {
		return "", fmt.Errorf("create destination %s: %w", opts.DestDir, err)
	}

	if opts.NoDecompress {
		name := opts.BinName
		if name == "" {
			name = opts.AssetName
		}
		return saveVerbatim(buf, filepath.Join(opts.DestDir, name))
	}

	target := opts.BinName
	if target == "" {
		target = opts.RepoName
	}
	target = exeName(target)
	destPath := filepath.Join(opts.DestDir, target)

	header, err := peekHeader(buf)
	if err != nil {
		return "", err
	}
	format := DetectFormat(opts.AssetName, header)
	logger.Debug("[DEBUG] Detected format %s for asset %s\n", format, opts.AssetName)

	switch format {
	case FormatRaw:
		// Not an archive we know; treat it as the executable itself.
		return saveVerbatim(buf, destPath)
	case FormatZip:
		return destPath, extractZip(buf, target, destPath)
	case FormatSevenZip:
		return destPath, extract7z(buf, target, destPath)
	case FormatTar, FormatGzip, FormatBzip2, FormatXz, FormatZstd:
		return destPath, extractCompressed(buf, format, target, destPath)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// exeName appends .exe on Windows hosts, matching what release archives ship
// there.
func exeName(name string) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		return name + ".exe"
	}
	return name
}

// peekHeader reads the leading bytes used for magic-byte detection.
func peekHeader(buf *download.Buffer) ([]byte, error) {
	n := int64(512)
	if buf.Size() < n {
		n = buf.Size()
	}
	header := make([]byte, n)

	ra, err := buf.ReaderAt()
	if err != nil {
		return nil, err
	}
	if _, err := ra.ReadAt(header, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read asset header: %w", err)
	}
	return header, nil
}

// saveVerbatim writes the buffer to path unmodified and marks it executable.
// Disk-backed buffers are moved, not copied.
func saveVerbatim(buf *download.Buffer, path string) (string, error) {
	if err := buf.MoveTo(path); err != nil {
		return "", err
	}
	if err := setExecutable(path); err != nil {
		return "", err
	}
	return path, nil
}

// setExecutable sets 0755 on the produced file. Permission bits carry no
// meaning on Windows; chmod is harmless there.
func setExecutable(path string) error {
	if err := os.Chmod(path, 0755); err != nil {
		return fmt.Errorf("mark %s executable: %w", path, err)
	}
	return nil
}

// openStream builds a fresh decompressed reader over the buffer. The close
// function releases decoder state; the underlying buffer stays open.
func openStream(buf *download.Buffer, format Format) (io.Reader, func(), error) {
	r, err := buf.Reader()
	if err != nil {
		return nil, nil, err
	}

	switch format {
	case FormatTar:
		return r, func() {}, nil
	case FormatGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: gzip: %v", ErrUnsupportedFormat, err)
		}
		return gz, func() { gz.Close() }, nil
	case FormatBzip2:
		return bzip2.NewReader(r), func() {}, nil
	case FormatXz:
		xr, err := xz.NewReader(r, 0)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: xz: %v", ErrUnsupportedFormat, err)
		}
		return xr, func() {}, nil
	case FormatZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: zstd: %v", ErrUnsupportedFormat, err)
		}
		return zr, func() { zr.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// extractCompressed handles tar archives and bare compressed executables.
// The decompressed stream is probed: a tar header means archive extraction,
// anything else is a single compressed binary.
func extractCompressed(buf *download.Buffer, format Format, target, destPath string) error {
	stream, closeStream, err := openStream(buf, format)
	if err != nil {
		return err
	}

	br := bufio.NewReaderSize(stream, 1024)
	probe, _ := br.Peek(tarMagicOffset + 5)
	if !isTarHeader(probe) && format != FormatTar {
		// A bare compressed executable, e.g. tool-linux-amd64.gz.
		err := writeStream(br, destPath)
		closeStream()
		return err
	}
	closeStream()

	// First pass: list the regular entries so the binary can be chosen
	// before anything is written.
	var entries []string
	if err := walkTar(buf, format, func(hdr *tar.Header, _ *tar.Reader) (bool, error) {
		entries = append(entries, hdr.Name)
		return false, nil
	}); err != nil {
		return err
	}

	chosen, err := chooseEntry(entries, target)
	if err != nil {
		return err
	}
	logger.Debug("[DEBUG] Extracting entry %s\n", entries[chosen])

	// Second pass: extract exactly the chosen entry.
	index := 0
	found := false
	err = walkTar(buf, format, func(hdr *tar.Header, tr *tar.Reader) (bool, error) {
		if index != chosen {
			index++
			return false, nil
		}
		found = true
		return true, writeStream(tr, destPath)
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("archive entry %s disappeared between passes", entries[chosen])
	}
	return nil
}

// walkTar runs fn over each regular file entry of the (possibly compressed)
// tar archive in buf. fn returns true to stop the walk.
func walkTar(buf *download.Buffer, format Format, fn func(*tar.Header, *tar.Reader) (bool, error)) error {
	stream, closeStream, err := openStream(buf, format)
	if err != nil {
		return err
	}
	defer closeStream()

	tr := tar.NewReader(stream)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: tar: %v", ErrUnsupportedFormat, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		stop, err := fn(hdr, tr)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// extractZip extracts the matching entry from a zip archive.
func extractZip(buf *download.Buffer, target, destPath string) error {
	ra, err := buf.ReaderAt()
	if err != nil {
		return err
	}
	zr, err := zip.NewReader(ra, buf.Size())
	if err != nil {
		return fmt.Errorf("%w: zip: %v", ErrUnsupportedFormat, err)
	}

	var files []*zip.File
	var names []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		files = append(files, f)
		names = append(names, f.Name)
	}

	chosen, err := chooseEntry(names, target)
	if err != nil {
		return err
	}
	logger.Debug("[DEBUG] Extracting entry %s\n", names[chosen])

	rc, err := files[chosen].Open()
	if err != nil {
		return fmt.Errorf("open zip entry %s: %w", names[chosen], err)
	}
	defer rc.Close()
	return writeStream(rc, destPath)
}

// extract7z extracts the matching entry from a 7z archive.
func extract7z(buf *download.Buffer, target, destPath string) error {
	ra, err := buf.ReaderAt()
	if err != nil {
		return err
	}
	sz, err := sevenzip.NewReader(ra, buf.Size())
	if err != nil {
		return fmt.Errorf("%w: 7z: %v", ErrUnsupportedFormat, err)
	}

	var files []*sevenzip.File
	var names []string
	for _, f := range sz.File {
		if f.FileInfo().IsDir() {
			continue
		}
		files = append(files, f)
		names = append(names, f.Name)
	}

	chosen, err := chooseEntry(names, target)
	if err != nil {
		return err
	}
	logger.Debug("[DEBUG] Extracting entry %s\n", names[chosen])

	rc, err := files[chosen].Open()
	if err != nil {
		return fmt.Errorf("open 7z entry %s: %w", names[chosen], err)
	}
	defer rc.Close()
	return writeStream(rc, destPath)
}

// chooseEntry picks the archive entry to extract, by full entry names:
//
//  1. Exactly one entry whose base name equals the target (case-insensitive,
//     ".exe" tolerated) wins.
//  2. A single-file archive selects its only entry whatever its name.
//  3. Exactly one entry whose base name starts with the target wins.
//
// Anything else is ambiguous.
func chooseEntry(names []string, target string) (int, error) {
	if len(names) == 0 {
		return 0, fmt.Errorf("%w: archive contains no files", ErrAmbiguousArchive)
	}

	lowerTarget := strings.ToLower(target)

	var exact []int
	for i, name := range names {
		base := strings.ToLower(path.Base(filepath.ToSlash(name)))
		if base == lowerTarget || base == lowerTarget+".exe" {
			exact = append(exact, i)
		}
	}
	switch {
	case len(exact) == 1:
		return exact[0], nil
	case len(exact) > 1:
		return 0, fmt.Errorf("%w: %d entries named %s", ErrAmbiguousArchive, len(exact), target)
	}

	if len(names) == 1 {
		return 0, nil
	}

	var prefixed []int
	for i, name := range names {
		base := strings.ToLower(path.Base(filepath.ToSlash(name)))
		if strings.HasPrefix(base, lowerTarget) {
			prefixed = append(prefixed, i)
		}
	}
	if len(prefixed) == 1 {
		return prefixed[0], nil
	}

	return 0, fmt.Errorf("%w: no entry matches %s among %s",
		ErrAmbiguousArchive, target, strings.Join(names, ", "))
}

// writeStream copies r into a fresh executable file at destPath.
func writeStream(r io.Reader, destPath string) error {
	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0755)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(destPath)
		return fmt.Errorf("write %s: %w", destPath, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", destPath, err)
	}
	return setExecutable(destPath)
}
