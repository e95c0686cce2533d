package main

import (
	"ghgrab/cmd" // Import the cmd package which contains the CLI definition and execution logic
)

// main is the program entry point.
// It delegates to cmd.Execute() which handles command line argument parsing and execution.
//
// ghgrab is a GitHub release downloader that:
//   - Resolves release metadata for a repository (a specific tag or the latest release)
//   - Picks the release asset matching the target platform, with interactive
//     disambiguation when several assets fit
//   - Downloads the asset with bounded memory usage, spilling to a temporary
//     file when the configured memory limit would be exceeded
//   - Detects the archive format and extracts the executable into the
//     destination directory with the executable bit set
//
// Error handling strategy:
//   - Every failure is terminal for the invocation; there are no cross-request
//     retries. Errors carry the repository, tag, and asset name so the user can
//     act on them, and the process exits with a non-zero status.
//
// Integration points:
//   - Talks to the GitHub REST API (releases and assets endpoints), forwarding
//     an optional bearer token when one is configured
//   - Writes the final executable under the destination directory and cleans up
//     any temporary download file on every exit path
func main() {
	cmd.Execute()
}
