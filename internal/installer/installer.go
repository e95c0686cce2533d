package installer

import (
	"context"
	"os"

	"ghgrab/internal/download"
	"ghgrab/internal/extract"
	"ghgrab/internal/github"
	"ghgrab/internal/logger"
	"ghgrab/internal/match"
	"ghgrab/internal/platform"
)

// Options configures one install run.
type Options struct {
	Owner string
	Repo  string
	// Tag selects a release; empty means the latest published one.
	Tag string
	// Destination directory for the final file. Empty means the current
	// directory.
	Destination string
	// BinName overrides the executable name (default: repository name).
	BinName string
	// First takes the top-ranked asset without prompting.
	First bool
	// Exclude lists terms that disqualify assets outright.
	Exclude []string
	// NoDecompress saves the downloaded asset verbatim.
	NoDecompress bool
	// MemoryLimit caps in-memory downloading, in bytes.
	MemoryLimit int64
	// Platform is the target platform the asset must match.
	Platform platform.Descriptor
	// Token is the optional GitHub API credential.
	Token string

	// Client, Downloader, and Prompter default to the real
	// implementations when nil. Tests inject their own.
	Client     *github.Client
	Downloader *download.Downloader
	Prompter   match.Prompter
}

func (o *Options) defaults() {
	if o.Client == nil {
		o.Client = github.NewClient(o.Token)
	}
	if o.Downloader == nil {
		o.Downloader = download.NewDownloader()
		o.Downloader.ShowProgress = true
	}
	if o.Prompter == nil {
		o.Prompter = &match.ConsolePrompter{In: os.Stdin, Out: os.Stdout}
	}
	if o.Destination == "" {
		o.Destination = "."
	}
}

// Install runs the full pipeline: resolve the release, pick the asset,
// download it within the memory budget, and place the extracted executable at
// the destination. Returns the final path. The download buffer, including any
// temporary file backing it, is released on every path.
func Install(ctx context.Context, opts Options) (string, error) {
	opts.defaults()

	release, err := opts.Client.GetRelease(ctx, opts.Owner, opts.Repo, opts.Tag)
	if err != nil {
		return "", err
	}
	logger.Info("[INFO] Selected version: %s\n", release.TagName)

	candidates, err := match.Match(release.Assets, opts.Platform, opts.Exclude)
	if err != nil {
		return "", err
	}

	asset, err := match.Select(candidates, opts.First, opts.Prompter)
	if err != nil {
		return "", err
	}
	logger.Info("[INFO] Selected asset: %s\n", asset.Name)

	buffer, err := opts.Downloader.Fetch(ctx, asset.BrowserDownloadURL, opts.MemoryLimit)
	if err != nil {
		return "", err
	}
	// Close releases whatever backing the buffer still owns, on success
	// and failure alike. Extraction disowns a temp file it moved into
	// place, making this a no-op for that file.
	defer func() {
		if cerr := buffer.Close(); cerr != nil {
			logger.Warn("[WARN] Failed to release download buffer: %v\n", cerr)
		}
	}()

	finalPath, err := extract.Extract(buffer, extract.Options{
		AssetName:    asset.Name,
		DestDir:      opts.Destination,
		BinName:      opts.BinName,
		RepoName:     opts.Repo,
		NoDecompress: opts.NoDecompress,
	})
	if err != nil {
		return "", err
	}

	logger.Info("[INFO] Installed %s\n", finalPath)
	return finalPath, nil
}
