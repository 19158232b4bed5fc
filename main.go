package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type cliOptions struct {
	configPath string
	loggerType string
	name       string
	repoURL    string
	cacheDir   string
	progress   bool

	config     Configuration
	sugar      *zap.SugaredLogger
	downloader *Downloader
}

func NewRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:   "binspiegel",
		Short: "Resolve and download prebuilt binaries from a binary repository",
		Long: `binspiegel looks up artifacts in the index.json of a binary repository by name,
version range, OS, architecture and build variant, and downloads the best match
with checksum verification. The repository index is cached locally.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.sugar != nil {
				opts.sugar.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flags.StringVar(&opts.loggerType, "logger-type", "development", "Logger type (development or production)")
	flags.StringVar(&opts.name, "name", DEFAULT_ARTIFACT_NAME, "Name of the artifact family to resolve")
	flags.StringVar(&opts.repoURL, "repo-url", DEFAULT_REPO_URL, "URL of the binary repository")
	flags.StringVar(&opts.cacheDir, "cache-dir", "", "Directory for the cached index and downloaded binaries")
	flags.Duration("cache-max-age", DEFAULT_CACHE_MAX_AGE, "How long the cached index is considered fresh, 0 disables the cache")
	flags.Duration("timeout", DEFAULT_TIMEOUT, "Network timeout")
	flags.BoolVar(&opts.progress, "progress", false, "Show a progress bar while downloading")

	rootCmd.AddCommand(
		newSearchCmd(opts),
		newDownloadCmd(opts),
		newVariantsCmd(opts),
		newVersionsCmd(opts),
		newMirrorCmd(opts),
		newCacheCmd(opts),
	)
	return rootCmd
}

func (opts *cliOptions) setup(cmd *cobra.Command) error {
	if !StringInSlice(opts.loggerType, []string{"development", "production"}) {
		return fmt.Errorf("%s is not a valid logger type", opts.loggerType)
	}

	var logger *zap.Logger
	var err error
	if opts.loggerType == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	opts.sugar = logger.Sugar()

	opts.config = DefaultConfiguration()
	if opts.configPath != "" {
		opts.config, err = LoadConfig(opts.configPath)
		if err != nil {
			return fmt.Errorf("error loading config %s: %w", opts.configPath, err)
		}
	}

	// flags given on the command line win over the config file
	flags := cmd.Flags()
	if flags.Changed("name") {
		opts.config.Name = opts.name
	}
	if flags.Changed("repo-url") {
		opts.config.RepoURL = opts.repoURL
	}
	if flags.Changed("cache-dir") {
		opts.config.CacheDir = opts.cacheDir
	}
	if flags.Changed("cache-max-age") {
		opts.config.CacheMaxAge, _ = flags.GetDuration("cache-max-age")
	}
	if flags.Changed("timeout") {
		opts.config.Timeout, _ = flags.GetDuration("timeout")
	}

	opts.downloader = NewDownloader(opts.config.Name,
		WithRepoURL(opts.config.RepoURL),
		WithCacheDir(opts.config.CacheDir),
		WithCacheMaxAge(opts.config.CacheMaxAge),
		WithTimeout(opts.config.Timeout),
		WithProgress(opts.progress),
		WithLogger(opts.sugar),
	)
	opts.sugar.Debugf("using repository %s, cache directory %s", opts.downloader.RepoURL, opts.downloader.CacheDir)
	return nil
}

func addQueryFlags(flags *pflag.FlagSet, query *Query) {
	flags.StringVar(&query.Version, "version", "", "Exact version or semver range, e.g. 1.18.0, >=1.18.0 <1.20.0, 1.19.x, ^1.18.0")
	flags.StringVar(&query.Variant, "variant", "", "Build variant, empty for the default build")
	flags.StringVar(&query.OS, "os", "", "Target OS (defaults to the host OS)")
	flags.StringVar(&query.Arch, "arch", "", "Target CPU architecture (defaults to the host architecture)")
}

func newSearchCmd(opts *cliOptions) *cobra.Command {
	var query Query
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Print metadata of the binaries matching the query, highest version first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := opts.downloader.Search(cmd.Context(), query)
			if err != nil {
				return err
			}
			marshalled, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return fmt.Errorf("error marshalling search results: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(marshalled))
			return nil
		},
	}
	addQueryFlags(cmd.Flags(), &query)
	return cmd
}

func newDownloadCmd(opts *cliOptions) *cobra.Command {
	var query Query
	var output string
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the highest version matching the query and print its path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := opts.downloader.Download(cmd.Context(), query, output)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	addQueryFlags(cmd.Flags(), &query)
	cmd.Flags().StringVarP(&output, "output", "o", "", "File path to write the binary to (defaults to the cache directory)")
	return cmd
}

func newListCmd(use string, short string, list func(ctx context.Context, query Query) ([]string, error)) *cobra.Command {
	var query Query
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := list(cmd.Context(), query)
			if err != nil {
				return err
			}
			for _, v := range values {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}
	addQueryFlags(cmd.Flags(), &query)
	return cmd
}

func newVariantsCmd(opts *cliOptions) *cobra.Command {
	return newListCmd("variants", "List the build variants matching the query", func(ctx context.Context, query Query) ([]string, error) {
		return opts.downloader.Variants(ctx, query)
	})
}

func newVersionsCmd(opts *cliOptions) *cobra.Command {
	return newListCmd("versions", "List the versions matching the query, highest first", func(ctx context.Context, query Query) ([]string, error) {
		return opts.downloader.Versions(ctx, query)
	})
}

func newMirrorCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mirror",
		Short: "Mirror the artifacts listed in the config file into a filesystem or S3 repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.config.Mirror == nil {
				return fmt.Errorf("no mirror section in config, pass one with --config")
			}
			ctx := cmd.Context()
			storer, err := NewArtifactStorer(ctx, opts.config.Mirror.Destination, opts.downloader.CacheDir, opts.sugar)
			if err != nil {
				return err
			}
			wanted, err := CollectWantedEntries(ctx, opts.downloader, opts.config.Mirror.Artifacts, opts.sugar)
			if err != nil {
				return err
			}
			return MirrorArtifacts(ctx, opts.downloader, wanted, storer, opts.sugar)
		},
	}
}

func newCacheCmd(opts *cliOptions) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local cache",
	}
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clean",
		Short: "Remove the cached repository index, e.g. after switching repositories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.downloader.ClearCatalogCache(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), opts.downloader.CatalogCachePath())
			return nil
		},
	})
	return cacheCmd
}
