package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/rohmanhakim/seo-crawler/internal/config"
	"github.com/rohmanhakim/seo-crawler/internal/crawl"
	"github.com/rohmanhakim/seo-crawler/internal/metadata"
	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	seedURL    string
	maxDepth   int
	threads    int
	userAgent  string
	timeout    time.Duration
	baseDelay  time.Duration
	jitter     time.Duration
	randomSeed int64
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "seo-crawler",
	Short: "A single-host SEO crawler.",
	Long: `seo-crawler crawls a single site starting from one seed URL,
following same-host links up to a configured depth, honoring robots.txt,
and reporting pages, hyperlink edges, duplicate-content groups, and
broken links.`,
	Run: func(cmd *cobra.Command, args []string) {
		if seedURL == "" {
			fmt.Fprintf(os.Stderr, "Error: --url is required.\n")
			cmd.Usage()
			os.Exit(1)
		}

		parsed, err := url.Parse(seedURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid --url %q: %s\n", seedURL, err)
			os.Exit(1)
		}

		cfg, err := InitConfigWithError(*parsed)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}

		baseURL := cfg.BaseURL()
		fmt.Printf("Crawling %s (max depth %d, %d threads)\n", baseURL.String(), cfg.MaxDepth(), cfg.Threads())

		recorder := metadata.NewRecorder(os.Stderr)
		manager := crawl.NewManager(cfg, recorder, func(page crawl.PageData) {
			status := "?"
			if page.Status != nil {
				status = fmt.Sprintf("%d", *page.Status)
			}
			fmt.Printf("  [%s] %s\n", status, page.URL)
		})

		result := manager.Crawl(context.Background())

		fmt.Printf("\nDone: %d pages, %d edges, %d duplicate groups, %d broken links\n",
			len(result.Pages), len(result.Edges), len(result.DuplicateMap), len(result.BrokenLinks))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (e.g., /home/myuser/config.json)")
	rootCmd.PersistentFlags().StringVar(&seedURL, "url", "", "seed URL to start crawling from")
	rootCmd.PersistentFlags().IntVar(&maxDepth, "max-depth", 0, "maximum link depth from seed URL")
	rootCmd.PersistentFlags().IntVar(&threads, "threads", 0, "number of concurrent fetch workers")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "timeout for each fetch attempt (every retry gets its own timeout)")
	rootCmd.PersistentFlags().DurationVar(&baseDelay, "base-delay", 0, "base delay between requests to the same host")
	rootCmd.PersistentFlags().DurationVar(&jitter, "jitter", 0, "random jitter added to base delay")
	rootCmd.PersistentFlags().Int64Var(&randomSeed, "random-seed", 0, "seed for random number generation (0 keeps the default)")
}

// InitConfigWithError builds a Config from --config (if set) or from CLI
// flags layered over defaults. seedUrl is mandatory.
func InitConfigWithError(seedUrl url.URL) (config.Config, error) {
	if cfgFile != "" {
		cfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from file: %w", err)
		}
		return cfg, nil
	}

	configBuilder := config.WithDefault(seedUrl)

	if maxDepth > 0 {
		configBuilder = configBuilder.WithMaxDepth(maxDepth)
	}
	if threads > 0 {
		configBuilder = configBuilder.WithThreads(threads)
	}
	if userAgent != "" {
		configBuilder = configBuilder.WithUserAgent(userAgent)
	}
	if timeout > 0 {
		configBuilder = configBuilder.WithTimeout(timeout)
	}
	if baseDelay > 0 {
		configBuilder = configBuilder.WithBaseDelay(baseDelay)
	}
	if jitter > 0 {
		configBuilder = configBuilder.WithJitter(jitter)
	}
	if randomSeed != 0 {
		configBuilder = configBuilder.WithRandomSeed(randomSeed)
	}

	cfg, err := configBuilder.Build()
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// ResetFlags restores every package-level flag variable to its zero value.
// Exported for use by tests that invoke InitConfigWithError repeatedly.
func ResetFlags() {
	cfgFile = ""
	seedURL = ""
	maxDepth = 0
	threads = 0
	userAgent = ""
	timeout = 0
	baseDelay = 0
	jitter = 0
	randomSeed = 0
}

// Test helper functions to set flag values from tests.
func SetConfigFileForTest(path string)    { cfgFile = path }
func SetMaxDepthForTest(depth int)        { maxDepth = depth }
func SetThreadsForTest(t int)             { threads = t }
func SetUserAgentForTest(agent string)    { userAgent = agent }
func SetTimeoutForTest(d time.Duration)   { timeout = d }
func SetBaseDelayForTest(d time.Duration) { baseDelay = d }
func SetJitterForTest(d time.Duration)    { jitter = d }
func SetRandomSeedForTest(seed int64)     { randomSeed = seed }
