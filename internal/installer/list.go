package installer

import (
	"context"
	"fmt"
	"io"

	"ghgrab/internal/github"
	"ghgrab/internal/platform"
)

// ListReleases prints the repository's published releases, newest first.
func ListReleases(ctx context.Context, client *github.Client, out io.Writer, owner, repo string) error {
	releases, err := client.ListReleases(ctx, owner, repo)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Available releases for %s/%s:\n", owner, repo)
	for _, rel := range releases {
		line := fmt.Sprintf("  - %s", rel.TagName)
		if !rel.PublishedAt.IsZero() {
			line += fmt.Sprintf(" (%s, %d assets)", rel.PublishedAt.Format("2006-01-02"), len(rel.Assets))
		}
		if rel.Prerelease {
			line += " [prerelease]"
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

// ListPlatforms prints the OS/architecture combinations asset matching
// understands.
func ListPlatforms(out io.Writer) {
	fmt.Fprintln(out, "Supported platforms:")
	for _, d := range platform.Supported() {
		fmt.Fprintf(out, "  - %s\n", d)
	}
}
