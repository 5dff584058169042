package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"tagscraper/pkg/auth"
	"tagscraper/pkg/config"
	errs "tagscraper/pkg/errors"
	"tagscraper/pkg/instagram"
	"tagscraper/pkg/logger"
	"tagscraper/pkg/session"
	"tagscraper/pkg/ui"
)

var (
	saveCredentials bool
	forgetAccount   bool
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Instagram login sessions",
	Long: `Manage Instagram login sessions and stored credentials.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (TAGSCRAPER_USERNAME / TAGSCRAPER_PASSWORD)

The login session itself is persisted to a session file so that
subsequent runs reuse it without logging in again.`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Log in and persist a reusable session",
	Long: `Log in to Instagram with username and password and persist the
resulting session to disk. Later scrape runs reuse the stored session
and only log in again when it has expired.`,
	Example: `  # Interactive login
  tagscraper auth login

  # Login with username, prompt for password
  tagscraper auth login myusername

  # Login and remember the credentials in the keychain
  tagscraper auth login myusername --save`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke and discard the stored session",
	Long: `Revoke the current session with Instagram and remove the session
file. Stored credentials are kept unless --forget is given.`,
	Example: `  # Discard the session, keep stored credentials
  tagscraper auth logout

  # Discard the session and remove stored credentials
  tagscraper auth logout --forget`,
	Run: runLogout,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether the stored session is still valid",
	Long: `Check the stored session against Instagram with a cheap
authenticated request and report whether it is still accepted.`,
	Run: runStatus,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	Long:  `List all stored Instagram accounts with passwords masked.`,
	Run:   runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
	authCmd.AddCommand(listCmd)

	loginCmd.Flags().BoolVar(&saveCredentials, "save", false, "store the credentials in the system keychain")
	logoutCmd.Flags().BoolVar(&forgetAccount, "forget", false, "also remove stored credentials for the session's account")
}

// buildSessionManager wires the HTTP client, session store and lifecycle
// manager from the loaded configuration.
func buildSessionManager(cfg *config.Config) (*session.Manager, *instagram.Client, error) {
	client, err := instagram.NewClient(&cfg.Instagram, logger.GetLogger())
	if err != nil {
		return nil, nil, err
	}

	store := session.NewStore(cfg.Session.File, logger.GetLogger())
	return session.NewManager(store, client, logger.GetLogger()), client, nil
}

func loadConfigOrExit() *config.Config {
	flags := make(map[string]interface{})
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}

	return cfg
}

func runLogin(cmd *cobra.Command, args []string) {
	cfg := loadConfigOrExit()

	var username string
	if len(args) > 0 {
		username = strings.TrimSpace(args[0])
	}

	reader := bufio.NewReader(os.Stdin)
	if username == "" {
		fmt.Print("Instagram username: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			ui.PrintError("Failed to read username", err.Error())
			os.Exit(1)
		}
		username = strings.TrimSpace(input)
	}
	if username == "" {
		ui.PrintError("Username is required")
		os.Exit(1)
	}

	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		ui.PrintError("Failed to read password", err.Error())
		os.Exit(1)
	}
	password := string(passwordBytes)
	if password == "" {
		ui.PrintError("Password is required")
		os.Exit(1)
	}

	manager, _, err := buildSessionManager(cfg)
	if err != nil {
		ui.PrintError("Failed to initialize client", err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	sess, err := manager.Login(ctx, username, password)
	if err != nil {
		var typed *errs.Error
		if errors.As(err, &typed) && typed.Type == errs.ErrorTypeAuthFailed {
			switch typed.Reason {
			case errs.ReasonChallengeRequired:
				ui.PrintError("Login blocked by a checkpoint challenge")
				ui.PrintWarning("Complete the challenge in a browser, then try again")
			default:
				ui.PrintError("Login failed", "wrong username or password")
			}
		} else {
			ui.PrintError("Login failed", err.Error())
		}
		os.Exit(1)
	}

	ui.PrintSuccess("Logged in as @" + sess.Username)
	ui.PrintInfo("Session file", cfg.Session.File)

	if saveCredentials {
		credManager, err := auth.NewManager()
		if err != nil {
			ui.PrintWarning("Could not open credential store", err.Error())
			return
		}
		if err := credManager.Store(&auth.Account{Username: username, Password: password}); err != nil {
			ui.PrintWarning("Could not store credentials", err.Error())
			return
		}
		ui.PrintSuccess("Credentials stored")
	}
}

func runLogout(cmd *cobra.Command, args []string) {
	cfg := loadConfigOrExit()

	manager, _, err := buildSessionManager(cfg)
	if err != nil {
		ui.PrintError("Failed to initialize client", err.Error())
		os.Exit(1)
	}

	var username string
	if sess, err := manager.Current(); err == nil {
		username = sess.Username
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := manager.Logout(ctx); err != nil {
		ui.PrintError("Logout failed", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Session discarded")

	if forgetAccount && username != "" {
		credManager, err := auth.NewManager()
		if err == nil {
			if err := credManager.Delete(username); err == nil {
				ui.PrintSuccess("Removed stored credentials for @" + username)
			}
		}
	}
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfigOrExit()

	manager, _, err := buildSessionManager(cfg)
	if err != nil {
		ui.PrintError("Failed to initialize client", err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	status, err := manager.Status(ctx)
	switch status {
	case session.StatusValid:
		if err != nil {
			ui.PrintWarning("Session check inconclusive", err.Error())
		} else {
			ui.PrintSuccess("Session is valid")
		}
		if sess, serr := manager.Current(); serr == nil {
			ui.PrintInfo("Account", "@"+sess.Username)
			ui.PrintInfo("Created", sess.CreatedAt.Format(time.RFC3339))
		}
	case session.StatusInvalid:
		ui.PrintWarning("Session has expired, run 'tagscraper auth login'")
	case session.StatusNoSession:
		ui.PrintWarning("No session stored, run 'tagscraper auth login'")
	default:
		ui.PrintError("Session check failed", err.Error())
		os.Exit(1)
	}
}

func runList(cmd *cobra.Command, args []string) {
	credManager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	accounts, err := credManager.List()
	if err != nil {
		ui.PrintError("Failed to list accounts", err.Error())
		os.Exit(1)
	}

	if len(accounts) == 0 {
		ui.PrintWarning("No stored accounts")
		return
	}

	for _, account := range accounts {
		masked := auth.SanitizeAccount(account)
		fmt.Printf("  %s  %s  (modified %s)\n",
			ui.Cyan(masked.Username),
			ui.Dim(masked.Password),
			masked.LastModified.Format("2006-01-02 15:04"))
	}
}
