package match

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
)

// ConsolePrompter asks the user to pick a candidate through a numbered list
// on the terminal. In and Out default to stdin/stdout when zero, and can be
// replaced in tests.
type ConsolePrompter struct {
	In  io.Reader
	Out io.Writer
}

// Select prints the ranked candidates and reads choices until a valid index
// is entered. A closed input stream or read failure aborts the selection with
// ErrSelectionCancelled.
func (p *ConsolePrompter) Select(candidates []Candidate) (int, error) {
	header := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(p.Out, "%s\n", header("Multiple assets match. Select one:"))
	for i, c := range candidates {
		fmt.Fprintf(p.Out, "%d. %s (%s)\n", i+1, c.Asset.Name, formatSize(c.Asset.Size))
	}

	scanner := bufio.NewScanner(p.In)
	for {
		fmt.Fprintf(p.Out, "Enter choice (1-%d): ", len(candidates))
		if !scanner.Scan() {
			// EOF or read error means the user bailed out.
			return 0, ErrSelectionCancelled
		}
		n, err := strconv.Atoi(scanner.Text())
		if err == nil && n >= 1 && n <= len(candidates) {
			return n - 1, nil
		}
		fmt.Fprintf(p.Out, "Invalid choice. Enter a number between 1 and %d.\n", len(candidates))
	}
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
