package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ghgrab/internal/config"
	"ghgrab/internal/download"
	"ghgrab/internal/github"
	"ghgrab/internal/installer"
	"ghgrab/internal/logger"
	"ghgrab/internal/platform"
)

// Command-line flag storage. Flags the user leaves untouched can be filled in
// from the config file; cmd.Flags().Changed tells the two cases apart.
var (
	flagTag           string
	flagList          bool
	flagListPlatforms bool
	flagDestination   string
	flagBinName       string
	flagFirst         bool
	flagExclude       []string
	flagNoDecompress  bool
	flagMemoryLimit   int64
	flagOS            string
	flagArch          string
	flagConfig        string
	flagToken         string
	debug             bool
)

// rootCmd is the one and only command: download a release asset from a GitHub
// repository and install its executable.
var rootCmd = &cobra.Command{
	Use:   "ghgrab [owner/repo]",
	Short: "Download and install executables from GitHub releases",
	Long: `ghgrab resolves a GitHub repository's release, picks the asset that fits
your platform, downloads it within a memory budget, and extracts the
executable into the destination directory.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(debug)
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		if flagListPlatforms {
			installer.ListPlatforms(os.Stdout)
			return nil
		}
		if len(args) == 0 {
			return cmd.Help()
		}

		owner, repo, err := github.ParseRepo(args[0])
		if err != nil {
			return err
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		applyConfig(cmd, cfg)

		// SIGINT/SIGTERM cancel the context, which aborts in-flight API
		// calls and downloads and lets their cleanup run.
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client := github.NewClient(flagToken)
		if flagList {
			return installer.ListReleases(ctx, client, os.Stdout, owner, repo)
		}

		target := platform.Resolve(flagOS, flagArch, platform.CurrentHost())
		logger.Debug("[DEBUG] Target platform: %s\n", target)

		_, err = installer.Install(ctx, installer.Options{
			Owner:        owner,
			Repo:         repo,
			Tag:          flagTag,
			Destination:  flagDestination,
			BinName:      flagBinName,
			First:        flagFirst,
			Exclude:      flagExclude,
			NoDecompress: flagNoDecompress,
			MemoryLimit:  flagMemoryLimit,
			Platform:     target,
			Token:        flagToken,
			Client:       client,
		})
		return err
	},
}

// loadConfig reads the config file named by --config, or the default location
// when the flag is unset.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path := flagConfig
	if !cmd.Flags().Changed("config") {
		path = config.DefaultPath()
	}
	return config.Load(path)
}

// applyConfig fills flag values the user did not set from the config file.
// Explicit flags always win; the GITHUB_TOKEN environment variable sits
// between the --token flag and the config file.
func applyConfig(cmd *cobra.Command, cfg config.Config) {
	changed := cmd.Flags().Changed

	if !changed("token") && flagToken == "" {
		if env := os.Getenv("GITHUB_TOKEN"); env != "" {
			flagToken = env
		} else {
			flagToken = cfg.Token
		}
	}
	if !changed("destination") && cfg.Destination != "" {
		flagDestination = cfg.Destination
	}
	if !changed("memory-limit") && cfg.MemoryLimit > 0 {
		flagMemoryLimit = cfg.MemoryLimit
	}
	if !changed("exclude") && len(cfg.Exclude) > 0 {
		flagExclude = cfg.Exclude
	}
	if !changed("os") && cfg.OS != "" {
		flagOS = cfg.OS
	}
	if !changed("arch") && cfg.Arch != "" {
		flagArch = cfg.Arch
	}
	if !changed("first") && cfg.First {
		flagFirst = true
	}
}

// Execute registers the flags and runs the command. Any error has already
// been logged by the time the process exits nonzero.
func Execute() {
	flags := rootCmd.Flags()
	flags.StringVarP(&flagTag, "tag", "t", "", "Release tag to install (default: latest)")
	flags.BoolVarP(&flagList, "list", "l", false, "List available releases instead of installing")
	flags.BoolVar(&flagListPlatforms, "list-platforms", false, "List supported platform combinations")
	flags.StringVarP(&flagDestination, "destination", "d", ".", "Directory to place the executable in")
	flags.StringVarP(&flagBinName, "bin-name", "b", "", "Name for the installed executable (default: repository name)")
	flags.BoolVarP(&flagFirst, "first", "f", false, "Take the best-matching asset without prompting")
	flags.StringSliceVarP(&flagExclude, "exclude", "e", nil, "Terms that disqualify assets (comma-separated)")
	flags.BoolVar(&flagNoDecompress, "no-decompress", false, "Save the asset verbatim without extracting")
	flags.Int64VarP(&flagMemoryLimit, "memory-limit", "m", download.DefaultMemoryLimit, "Download memory ceiling in bytes before spilling to disk")
	flags.StringVar(&flagOS, "os", "", "Target operating system (default: current host)")
	flags.StringVar(&flagArch, "arch", "", "Target architecture (default: current host)")
	flags.StringVarP(&flagConfig, "config", "c", "", "Config file path (default: ~/.config/ghgrab/config.yaml)")
	flags.StringVar(&flagToken, "token", "", "GitHub API token (default: GITHUB_TOKEN environment variable)")

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		logger.Error("[ERROR] %v\n", err)
		os.Exit(1)
	}
}
