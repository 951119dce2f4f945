package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ofscraper/pkg/auth"
	"ofscraper/pkg/config"
	"ofscraper/pkg/dedup"
	"ofscraper/pkg/logger"
	"ofscraper/pkg/onlyfans"
	"ofscraper/pkg/scraper"
)

var (
	// Scrape command flags
	outputDir     string
	workers       int
	maxAttempts   int
	interval      time.Duration
	accountName   string
	skipTemporary bool
	allCreators   bool
	reportPath    string
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape [creator...]",
	Short: "Download media from subscribed creators",
	Long: `Download all media from the given creators' posts, archived posts,
messages and stories.

This command requires valid session credentials configured through:
  - Stored credentials (use 'ofscraper auth login' to store)
  - Environment variables (OFSCRAPER_COOKIE, OFSCRAPER_USER_AGENT, OFSCRAPER_X_BC)
  - Configuration file

Each creator gets a directory under the download root. Items already
recorded in the download ledger are skipped, so re-running after an
interruption resumes where the last run left off.`,
	Example: `  # Download everything from one creator
  ofscraper scrape somecreator

  # Download from every active subscription
  ofscraper scrape --all

  # Skip stories and other expiring content
  ofscraper scrape somecreator --skip-temporary

  # Use a specific stored account
  ofscraper scrape somecreator --account myaccount`,
	Args: cobra.ArbitraryArgs,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVarP(&outputDir, "output", "o", "", "download root directory")
	scrapeCmd.Flags().IntVar(&workers, "workers", 0, "number of concurrent downloads")
	scrapeCmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "maximum attempts per item")
	scrapeCmd.Flags().DurationVar(&interval, "interval", 0, "minimum spacing between API requests")
	scrapeCmd.Flags().StringVarP(&accountName, "account", "a", "", "use specific stored account")
	scrapeCmd.Flags().BoolVar(&skipTemporary, "skip-temporary", false, "skip expiring content such as stories")
	scrapeCmd.Flags().BoolVar(&allCreators, "all", false, "scrape every active subscription")
	scrapeCmd.Flags().StringVar(&reportPath, "report", "", "write the run report as JSON to this file")
}

func runScrape(cmd *cobra.Command, args []string) error {
	if !allCreators && len(args) == 0 {
		return fmt.Errorf("provide at least one creator or use --all")
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyScrapeFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := logger.Initialize(logger.Options{Level: cfg.Logging.Level, File: cfg.Logging.File}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("ofscraper starting")

	if err := resolveCredentials(cfg, log); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rules, err := onlyfans.FetchHeaderRules(&http.Client{Timeout: cfg.Download.Timeout}, onlyfans.HeaderRulesURL)
	if err != nil {
		return fmt.Errorf("failed to fetch signing rules: %w", err)
	}

	client, err := onlyfans.NewClient(onlyfans.ClientConfig{
		Cookie:    cfg.Account.Cookie,
		UserAgent: cfg.Account.UserAgent,
		XBC:       cfg.Account.XBC,
		Proxy:     cfg.Account.Proxy,
		Timeout:   cfg.Download.Timeout,
		Rules:     rules,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	creators, err := resolveCreators(ctx, client, args)
	if err != nil {
		return err
	}
	if len(creators) == 0 {
		log.Warn("no creators to scrape")
		return nil
	}

	store, err := dedup.OpenBitcask(filepath.Join(cfg.Download.Root, ".state", "seen"))
	if err != nil {
		return fmt.Errorf("failed to open download ledger: %w", err)
	}
	defer store.Close()

	s, err := scraper.New(cfg, client, store, log)
	if err != nil {
		return fmt.Errorf("failed to initialize scraper: %w", err)
	}

	report, runErr := s.Run(ctx, creators)

	printReport(report)
	if reportPath != "" {
		if err := report.Write(reportPath); err != nil {
			log.WithError(err).Error("failed to write report")
		}
	}

	if runErr != nil {
		return fmt.Errorf("run aborted: %w", runErr)
	}
	return nil
}

func applyScrapeFlags(cfg *config.Config) {
	if outputDir != "" {
		cfg.Download.Root = outputDir
	}
	if workers > 0 {
		cfg.Download.Workers = workers
	}
	if maxAttempts > 0 {
		cfg.Download.MaxAttempts = maxAttempts
	}
	if interval > 0 {
		cfg.Download.MinRequestInterval = interval
	}
	if skipTemporary {
		cfg.Download.SkipTemporary = true
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
}

// resolveCredentials fills in cfg.Account from the credential manager when
// the config and environment did not provide a session.
func resolveCredentials(cfg *config.Config, log logger.Logger) error {
	if accountName == "" && cfg.Account.Cookie != "" && cfg.Account.UserAgent != "" {
		log.Info("using credentials from configuration")
		return nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var account *auth.Account
	if accountName != "" {
		account, err = manager.Retrieve(accountName)
		if err != nil {
			return fmt.Errorf("account %q not found, use 'ofscraper auth list' to see stored accounts", accountName)
		}
	} else {
		account, err = manager.RetrieveDefault()
		if err != nil {
			return fmt.Errorf("no credentials found, run 'ofscraper auth login' or set OFSCRAPER_COOKIE and OFSCRAPER_USER_AGENT")
		}
	}

	cfg.Account.Cookie = account.Cookie
	cfg.Account.UserAgent = account.UserAgent
	cfg.Account.XBC = account.XBC
	log.WithField("account", account.Name).Info("using stored credentials")
	return nil
}

// resolveCreators turns handles into creator records, or lists every active
// subscription when --all is set.
func resolveCreators(ctx context.Context, client *onlyfans.Client, args []string) ([]onlyfans.Creator, error) {
	if allCreators {
		creators, err := client.FetchSubscriptions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list subscriptions: %w", err)
		}
		return creators, nil
	}

	var creators []onlyfans.Creator
	for _, arg := range args {
		handle := strings.TrimSpace(arg)
		if handle == "" {
			continue
		}
		creator, err := client.FetchUser(ctx, handle)
		if err != nil {
			return nil, fmt.Errorf("failed to look up creator %q: %w", handle, err)
		}
		creators = append(creators, *creator)
	}
	return creators, nil
}

func printReport(report *scraper.Report) {
	attempted, succeeded, skipped, failed := report.Totals()
	fmt.Printf("\nRun finished in %s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Second))
	fmt.Printf("  attempted: %d  succeeded: %d  skipped: %d  failed: %d\n", attempted, succeeded, skipped, failed)

	for _, c := range report.Creators {
		fmt.Printf("\n%s: %d succeeded, %d skipped, %d failed\n", c.Handle, c.Succeeded, c.Skipped, c.Failed)
		if c.Error != "" {
			fmt.Printf("  error: %s\n", c.Error)
		}
		for _, f := range c.Failures {
			fmt.Printf("  media %d failed after %d attempts: %s\n", f.MediaID, f.Attempts, f.Error)
		}
	}
}
