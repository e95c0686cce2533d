package download

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// serve returns a test server handing out body, optionally without a
// Content-Length header.
func serve(t *testing.T, body []byte, declareLength bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if declareLength {
			w.Header().Set("Content-Length", fmt.Sprint(len(body)))
			w.Write(body)
			return
		}
		// Chunked transfer: no declared length. Serve from a local slice
		// so each request gets the full body.
		flusher := w.(http.Flusher)
		rest := body
		for len(rest) > 0 {
			n := 1024
			if n > len(rest) {
				n = len(rest)
			}
			w.Write(rest[:n])
			rest = rest[n:]
			flusher.Flush()
		}
	}))
}

func readAll(t *testing.T, b *Buffer) []byte {
	t.Helper()
	r, err := b.Reader()
	if err != nil {
		t.Fatalf("Reader: %v", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	return data
}

func TestFetchSmallBodyStaysInMemory(t *testing.T) {
	body := bytes.Repeat([]byte("a"), 512)
	srv := serve(t, body, true)
	defer srv.Close()

	buf, err := NewDownloader().Fetch(context.Background(), srv.URL, 1024)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	defer buf.Close()

	if !buf.InMemory() {
		t.Error("expected memory-backed buffer for body under the limit")
	}
	if buf.Size() != 512 {
		t.Errorf("Size = %d, want 512", buf.Size())
	}
	if !bytes.Equal(readAll(t, buf), body) {
		t.Error("buffer content mismatch")
	}
}

func TestFetchDeclaredOversizeGoesToDisk(t *testing.T) {
	body := bytes.Repeat([]byte("b"), 2048)
	srv := serve(t, body, true)
	defer srv.Close()

	buf, err := NewDownloader().Fetch(context.Background(), srv.URL, 1024)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	defer buf.Close()

	if buf.InMemory() {
		t.Error("expected file-backed buffer for declared size over the limit")
	}
	if !bytes.Equal(readAll(t, buf), body) {
		t.Error("buffer content mismatch")
	}
}

func TestFetchUndeclaredLengthMatchesObservedSize(t *testing.T) {
	small := bytes.Repeat([]byte("c"), 512)
	large := bytes.Repeat([]byte("d"), 4096)

	srvSmall := serve(t, small, false)
	defer srvSmall.Close()
	srvLarge := serve(t, large, false)
	defer srvLarge.Close()

	d := NewDownloader()

	bufSmall, err := d.Fetch(context.Background(), srvSmall.URL, 1024)
	if err != nil {
		t.Fatalf("Fetch small: %v", err)
	}
	defer bufSmall.Close()
	if !bufSmall.InMemory() {
		t.Error("small undeclared body should stay in memory")
	}

	bufLarge, err := d.Fetch(context.Background(), srvLarge.URL, 1024)
	if err != nil {
		t.Fatalf("Fetch large: %v", err)
	}
	defer bufLarge.Close()
	if bufLarge.InMemory() {
		t.Error("oversize undeclared body should have spilled to disk")
	}
	if !bytes.Equal(readAll(t, bufLarge), large) {
		t.Error("restarted download content mismatch")
	}
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewDownloader().Fetch(context.Background(), srv.URL, 1024)
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("expected HTTP status error, got %v", err)
	}
}

func TestFetchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srv := serve(t, []byte("x"), true)
	defer srv.Close()

	if _, err := NewDownloader().Fetch(ctx, srv.URL, 1024); err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestBufferCloseRemovesTempFile(t *testing.T) {
	body := bytes.Repeat([]byte("e"), 2048)
	srv := serve(t, body, true)
	defer srv.Close()

	buf, err := NewDownloader().Fetch(context.Background(), srv.URL, 1024)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if buf.InMemory() {
		t.Fatal("test needs a file-backed buffer")
	}
	tmpPath := buf.file.Name()

	if err := buf.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(tmpPath); !os.IsNotExist(err) {
		t.Errorf("temp file %s still exists after Close", tmpPath)
	}

	// Close is idempotent.
	if err := buf.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestBufferMoveToDisownsTempFile(t *testing.T) {
	body := bytes.Repeat([]byte("f"), 2048)
	srv := serve(t, body, true)
	defer srv.Close()

	buf, err := NewDownloader().Fetch(context.Background(), srv.URL, 1024)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	tmpPath := buf.file.Name()

	dest := filepath.Join(t.TempDir(), "artifact")
	if err := buf.MoveTo(dest); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}
	if err := buf.Close(); err != nil {
		t.Fatalf("Close after MoveTo: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read moved file: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Error("moved file content mismatch")
	}
	if _, err := os.Stat(tmpPath); !os.IsNotExist(err) {
		t.Errorf("temp file %s left behind after MoveTo", tmpPath)
	}
}

func TestBufferMoveToMemory(t *testing.T) {
	buf := NewMemoryBuffer([]byte("hello"))
	dest := filepath.Join(t.TempDir(), "artifact")

	if err := buf.MoveTo(dest); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("content = %q", got)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 * 1024 * 1024, "3.0 MB"},
	}
	for _, tt := range tests {
		if got := formatSize(tt.in); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
