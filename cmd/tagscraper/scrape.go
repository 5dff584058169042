package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"tagscraper/internal/warmup"
	"tagscraper/pkg/auth"
	"tagscraper/pkg/config"
	errs "tagscraper/pkg/errors"
	"tagscraper/pkg/instagram"
	"tagscraper/pkg/logger"
	"tagscraper/pkg/metadata"
	"tagscraper/pkg/scraper"
	"tagscraper/pkg/session"
	"tagscraper/pkg/ui"
)

var (
	// Scrape command flags
	outputDir   string
	maxRecent   int
	maxTop      int
	noTop       bool
	prettyJSON  bool
	noWarmup    bool
	maxRetries  int
	rateLimit   int
	accountName string
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <hashtag> [hashtag...]",
	Short: "Collect post metadata from hashtag feeds",
	Long: `Collect post metadata from one or more Instagram hashtag feeds.

The scraper reuses the session stored by 'tagscraper auth login'. If no
session exists it tries to log in with stored credentials. Requests are
paced with randomized delays and retried with capped exponential backoff
when the service throttles. Collected metadata is written as JSON files
into the output directory.`,
	Example: `  # Collect the default number of recent posts for a hashtag
  tagscraper scrape streetphotography

  # Collect 200 recent posts, skip the top section
  tagscraper scrape streetphotography --recent 200 --no-top

  # Scrape several hashtags into a custom directory
  tagscraper scrape cats dogs --output ./data --pretty

  # Skip account warm-up and lower the request rate
  tagscraper scrape cats --no-warmup --rate-limit 15`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runScrape(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for metadata files (default: ./output)")
	scrapeCmd.Flags().IntVarP(&maxRecent, "recent", "r", 50, "maximum recent posts to collect per hashtag")
	scrapeCmd.Flags().IntVarP(&maxTop, "top", "t", 9, "maximum top posts to collect per hashtag")
	scrapeCmd.Flags().BoolVar(&noTop, "no-top", false, "skip the top posts section")
	scrapeCmd.Flags().BoolVar(&prettyJSON, "pretty", false, "indent the exported JSON")
	scrapeCmd.Flags().BoolVar(&noWarmup, "no-warmup", false, "skip the account warm-up phase")
	scrapeCmd.Flags().IntVar(&maxRetries, "max-retries", 0, "maximum retry attempts per request (0 = use config)")
	scrapeCmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "requests per minute (0 = use config)")
	scrapeCmd.Flags().StringVarP(&accountName, "account", "a", "", "log in with a specific stored account if no session exists")
}

func runScrape(cmd *cobra.Command, args []string) {
	// Build flags map from command line
	flags := make(map[string]interface{})
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if cmd.Flags().Changed("recent") {
		flags["max-posts"] = maxRecent
	}
	if rateLimit > 0 {
		flags["rate-limit"] = rateLimit
	}
	if maxRetries > 0 {
		flags["max-retries"] = maxRetries
	}
	if noWarmup {
		flags["no-warmup"] = true
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	if prettyJSON {
		cfg.Output.PrettyPrint = true
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("tagscraper starting")

	manager, client, err := buildSessionManager(cfg)
	if err != nil {
		ui.PrintError("Failed to initialize client", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess := obtainSession(ctx, cfg, manager)

	if cfg.Warmup.Enabled {
		ui.PrintInfo("Warm-up", cfg.Warmup.Duration.String())
		warmup.New(client, log).Run(ctx, sess, cfg.Warmup.Duration)
	}

	s := scraper.New(cfg, client, log)
	exporter := metadata.NewExporter(cfg.Output.Directory, cfg.Output.PrettyPrint, log)

	recentCount := cfg.Budget.MaxPostsPerHashtag
	if cmd.Flags().Changed("recent") {
		recentCount = maxRecent
	}
	opts := scraper.Options{
		MaxRecent:  recentCount,
		MaxTop:     maxTop,
		IncludeTop: !noTop,
	}

	exitCode := 0
	for _, arg := range args {
		tag := instagram.NormalizeHashtag(arg)
		if !instagram.IsValidHashtag(tag) {
			ui.PrintError("Invalid hashtag", arg)
			exitCode = 1
			continue
		}

		ui.PrintInfo("Hashtag", "#"+tag)

		doc, err := s.ScrapeHashtag(ctx, sess, tag, opts)
		if err != nil {
			reportScrapeError(ctx, manager, sess, tag, err)
			exitCode = 1
		}

		if doc != nil && (len(doc.RecentPosts) > 0 || len(doc.TopPosts) > 0) {
			path, werr := exporter.Write(doc)
			if werr != nil {
				ui.PrintError("Failed to write metadata", werr.Error())
				exitCode = 1
				continue
			}
			ui.PrintSuccess(fmt.Sprintf("Wrote %d posts to %s", len(doc.RecentPosts)+len(doc.TopPosts), path))
		}

		if !sess.IsValid() {
			break
		}
	}

	os.Exit(exitCode)
}

// obtainSession loads the stored session or, failing that, logs in with
// stored credentials.
func obtainSession(ctx context.Context, cfg *config.Config, manager *session.Manager) *session.Session {
	sess, err := manager.Current()
	if err == nil && sess.IsValid() {
		ui.PrintInfo("Session", "reusing stored session for @"+sess.Username)
		return sess
	}
	if err != nil && !errors.Is(err, session.ErrNoSession) {
		ui.PrintError("Failed to load session", err.Error())
		os.Exit(1)
	}

	// No usable session, fall back to stored credentials
	credManager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	var account *auth.Account
	if accountName != "" {
		account, err = credManager.Retrieve(accountName)
	} else {
		account, err = credManager.RetrieveDefault()
	}
	if err != nil {
		ui.PrintError("No session and no stored credentials")
		ui.PrintWarning("Run 'tagscraper auth login' first")
		os.Exit(1)
	}

	ui.PrintInfo("Session", "logging in as @"+account.Username)
	sess, err = manager.Login(ctx, account.Username, account.Password)
	if err != nil {
		ui.PrintError("Login failed", err.Error())
		os.Exit(1)
	}

	return sess
}

// reportScrapeError prints a friendly message for a failed hashtag and
// persists the session's invalid state when it was rejected mid-run.
func reportScrapeError(ctx context.Context, manager *session.Manager, sess *session.Session, tag string, err error) {
	var typed *errs.Error
	if errors.As(err, &typed) {
		switch typed.Type {
		case errs.ErrorTypeSessionExpired, errs.ErrorTypeSessionInvalid:
			if perr := manager.PersistInvalid(sess); perr != nil {
				ui.PrintWarning("Could not persist session state", perr.Error())
			}
			ui.PrintError("Session rejected while scraping #" + tag)
			ui.PrintWarning("Run 'tagscraper auth login' and try again")
			return
		case errs.ErrorTypeRateLimit:
			ui.PrintError("Rate limited while scraping #"+tag, typed.Message)
			return
		}
	}
	if ctx.Err() != nil {
		ui.PrintWarning("Interrupted while scraping #" + tag)
		return
	}
	ui.PrintError("Failed to scrape #"+tag, err.Error())
}
