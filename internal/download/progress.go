package download

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
)

// progressPrinter renders a single self-overwriting progress line on stderr
// while a download runs. It implements io.Writer so it can sit in a
// MultiWriter next to the real sink.
type progressPrinter struct {
	out     io.Writer
	total   int64 // declared size, <= 0 when unknown
	written int64
	last    time.Time
	render  func(format string, a ...any) string
	enabled bool
}

// newProgress builds the printer for one transfer. Disabled printers swallow
// writes without any formatting work.
func (d *Downloader) newProgress(total int64) *progressPrinter {
	return &progressPrinter{
		out:     os.Stderr,
		total:   total,
		render:  color.New(color.FgCyan).Sprintf,
		enabled: d.ShowProgress,
	}
}

// Write counts transferred bytes and refreshes the line at most every 100ms.
func (p *progressPrinter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if !p.enabled {
		return len(b), nil
	}
	if now := time.Now(); now.Sub(p.last) >= 100*time.Millisecond {
		p.last = now
		p.print()
	}
	return len(b), nil
}

// finish paints the final state and terminates the line.
func (p *progressPrinter) finish() {
	if !p.enabled {
		return
	}
	p.print()
	fmt.Fprintln(p.out)
}

func (p *progressPrinter) print() {
	if p.total > 0 {
		fmt.Fprintf(p.out, "\r%s", p.render("Downloading... %s / %s (%3.0f%%)",
			formatSize(p.written), formatSize(p.total),
			float64(p.written)/float64(p.total)*100))
		return
	}
	fmt.Fprintf(p.out, "\r%s", p.render("Downloading... %s", formatSize(p.written)))
}

// formatSize renders a byte count in a short human-readable form.
func formatSize(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(bytes)/1024/1024)
	}
}
