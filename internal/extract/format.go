package extract

import (
	"bytes"
	"strings"
)

// Format identifies the container/compression of a downloaded asset. The set
// is closed: adding a format means one more constant here plus one handler
// in extract.go.
type Format int

const (
	// FormatRaw is anything unrecognized, treated as a bare executable.
	FormatRaw Format = iota
	// FormatZip is a zip archive.
	FormatZip
	// FormatGzip is gzip-compressed data (a tar archive or a bare file).
	FormatGzip
	// FormatBzip2 is bzip2-compressed data.
	FormatBzip2
	// FormatXz is xz-compressed data.
	FormatXz
	// FormatZstd is zstandard-compressed data.
	FormatZstd
	// FormatTar is an uncompressed tar archive.
	FormatTar
	// FormatSevenZip is a 7z archive.
	FormatSevenZip
)

// String returns the conventional short name of the format.
func (f Format) String() string {
	switch f {
	case FormatZip:
		return "zip"
	case FormatGzip:
		return "gzip"
	case FormatBzip2:
		return "bzip2"
	case FormatXz:
		return "xz"
	case FormatZstd:
		return "zstd"
	case FormatTar:
		return "tar"
	case FormatSevenZip:
		return "7z"
	default:
		return "raw"
	}
}

// Magic byte prefixes for the supported formats.
var (
	magicGzip  = []byte{0x1f, 0x8b}
	magicZip   = []byte{0x50, 0x4b, 0x03, 0x04}
	magicXz    = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	magicZstd  = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicBzip2 = []byte{'B', 'Z', 'h'}
	magic7z    = []byte{'7', 'z', 0xbc, 0xaf, 0x27, 0x1c}
)

// tarMagicOffset is where the "ustar" marker sits in a tar header.
const tarMagicOffset = 257

// DetectFormat classifies an asset from its file name and the leading bytes
// of its content. The extension is authoritative when it names a known
// format; otherwise magic bytes decide. Anything else is FormatRaw.
func DetectFormat(name string, header []byte) Format {
	if f, ok := formatFromName(strings.ToLower(name)); ok {
		return f
	}
	return formatFromMagic(header)
}

func formatFromName(lower string) (Format, bool) {
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return FormatZip, true
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"), strings.HasSuffix(lower, ".gz"):
		return FormatGzip, true
	case strings.HasSuffix(lower, ".tar.bz2"), strings.HasSuffix(lower, ".tbz2"), strings.HasSuffix(lower, ".bz2"):
		return FormatBzip2, true
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"), strings.HasSuffix(lower, ".xz"):
		return FormatXz, true
	case strings.HasSuffix(lower, ".tar.zst"), strings.HasSuffix(lower, ".zst"):
		return FormatZstd, true
	case strings.HasSuffix(lower, ".tar"):
		return FormatTar, true
	case strings.HasSuffix(lower, ".7z"):
		return FormatSevenZip, true
	default:
		return FormatRaw, false
	}
}

func formatFromMagic(header []byte) Format {
	switch {
	case bytes.HasPrefix(header, magicGzip):
		return FormatGzip
	case bytes.HasPrefix(header, magicZip):
		return FormatZip
	case bytes.HasPrefix(header, magicXz):
		return FormatXz
	case bytes.HasPrefix(header, magicZstd):
		return FormatZstd
	case bytes.HasPrefix(header, magicBzip2):
		return FormatBzip2
	case bytes.HasPrefix(header, magic7z):
		return FormatSevenZip
	case isTarHeader(header):
		return FormatTar
	default:
		return FormatRaw
	}
}

// isTarHeader checks the "ustar" marker of a POSIX tar header.
func isTarHeader(header []byte) bool {
	if len(header) < tarMagicOffset+5 {
		return false
	}
	return bytes.Equal(header[tarMagicOffset:tarMagicOffset+5], []byte("ustar"))
}
