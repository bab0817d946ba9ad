// ABOUTME: Mirror sync CLI commands
// ABOUTME: Handles token setup, sync runs, freshness status, and integrity checks
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/pulsemap/pulsemap/archive"
	"github.com/pulsemap/pulsemap/db"
	"github.com/pulsemap/pulsemap/models"
	"github.com/pulsemap/pulsemap/monday"
	"github.com/pulsemap/pulsemap/sync"
	"golang.org/x/oauth2"
	"golang.org/x/term"
)

// buildOrchestrator wires a sync orchestrator from config. The returned
// cleanup closes the payload archive when one was attached.
func buildOrchestrator(cfg *sync.Config, database *sql.DB) (*sync.Orchestrator, func()) {
	client := monday.NewClient(cfg.APIToken)
	if cfg.APIEndpoint != "" {
		client = monday.NewClientWithEndpoint(cfg.APIToken, cfg.APIEndpoint)
	}

	orchestrator := sync.NewOrchestrator(cfg, client, database)

	cleanup := func() {}
	if cfg.ArchivePayloads {
		store, err := archive.Open(archive.DefaultPath())
		if err != nil {
			fmt.Printf("⚠️  Payload archive unavailable: %v\n", err)
		} else {
			orchestrator.AttachArchive(store)
			cleanup = func() { _ = store.Close() }
		}
	}

	return orchestrator, cleanup
}

// SyncInitCommand stores and verifies a monday.com API token. By default it
// prompts for a personal token; --oauth runs the app OAuth flow instead.
func SyncInitCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("sync init", flag.ExitOnError)
	endpoint := fs.String("endpoint", "", "API endpoint override (for proxies and testing)")
	useOAuth := fs.Bool("oauth", false, "Authenticate through the monday.com OAuth app flow")
	_ = fs.Parse(args)

	cfg, err := sync.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *endpoint != "" {
		cfg.APIEndpoint = *endpoint
	}

	var token string
	if *useOAuth {
		token, err = oauthToken()
	} else {
		token, err = promptToken()
	}
	if err != nil {
		return err
	}

	cfg.APIToken = token

	// Verify the token before persisting it
	client := monday.NewClient(cfg.APIToken)
	if cfg.APIEndpoint != "" {
		client = monday.NewClientWithEndpoint(cfg.APIToken, cfg.APIEndpoint)
	}
	if err := client.TestConnection(context.Background()); err != nil {
		return fmt.Errorf("token verification failed: %w", err)
	}

	if err := sync.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println("\n✓ Token verified")
	fmt.Printf("✓ Configuration saved to %s\n\n", sync.ConfigPath())
	fmt.Println("Ready to sync! Run 'pulsemap sync full' to build the mirror.")

	return nil
}

// promptToken reads a personal API token from stdin with echo disabled.
func promptToken() (string, error) {
	fmt.Println("PulseMap needs a monday.com API token.")
	fmt.Println("Find yours under Profile > Developers > My access tokens.")
	fmt.Println()

	fmt.Print("API token: ")
	tokenBytes, err := term.ReadPassword(syscall.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	fmt.Println() // New line after hidden input

	token := strings.TrimSpace(string(tokenBytes))
	if token == "" {
		return "", fmt.Errorf("no token entered")
	}

	return token, nil
}

// oauthToken runs the loopback-redirect OAuth flow against monday.com and
// returns the access token. The full token is persisted for later refresh.
func oauthToken() (string, error) {
	ctx := context.Background()

	config := monday.NewOAuthConfig()
	if config.ClientID == "" || config.ClientSecret == "" {
		return "", fmt.Errorf("MONDAY_CLIENT_ID and MONDAY_CLIENT_SECRET must be set for --oauth")
	}

	// Start local server for OAuth callback
	callbackChan := make(chan *oauth2.Token)
	errChan := make(chan error)

	http.HandleFunc("/oauth/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errChan <- fmt.Errorf("no authorization code received")
			return
		}

		token, err := config.Exchange(ctx, code)
		if err != nil {
			errChan <- fmt.Errorf("failed to exchange code: %w", err)
			return
		}

		callbackChan <- token
		_, _ = fmt.Fprintf(w, "Authorization successful! You can close this window.")
	})

	server := &http.Server{Addr: ":8377"}
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	authURL := config.AuthCodeURL("state", oauth2.AccessTypeOffline)

	fmt.Println("Opening browser for monday.com OAuth...")
	fmt.Printf("\nIf browser doesn't open, visit this URL:\n%s\n\n", authURL)

	_ = openBrowser(authURL)

	// Wait for callback or error
	select {
	case token := <-callbackChan:
		_ = server.Shutdown(ctx)

		if err := monday.SaveToken(token); err != nil {
			return "", fmt.Errorf("failed to save token: %w", err)
		}
		fmt.Printf("✓ OAuth tokens saved to %s\n", monday.TokenPath())

		return token.AccessToken, nil

	case err := <-errChan:
		_ = server.Shutdown(ctx)
		return "", fmt.Errorf("OAuth flow failed: %w", err)
	}
}

// openBrowser attempts to open URL in default browser
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	command := exec.Command(cmd, args...)
	return command.Start()
}

// SyncFullCommand rebuilds the mirror from the whole remote graph
func SyncFullCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("sync full", flag.ExitOnError)
	_ = fs.Parse(args)

	cfg, err := sync.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	orchestrator, cleanup := buildOrchestrator(cfg, database)
	defer cleanup()

	fmt.Println("Starting full sync...")

	run, err := orchestrator.FullSync(context.Background())
	if err != nil {
		return fmt.Errorf("full sync failed: %w", err)
	}

	printRunSummary(run)
	return nil
}

// SyncIncrementalCommand folds recently active boards into the mirror
func SyncIncrementalCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("sync incremental", flag.ExitOnError)
	_ = fs.Parse(args)

	cfg, err := sync.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	orchestrator, cleanup := buildOrchestrator(cfg, database)
	defer cleanup()

	fmt.Println("Starting incremental sync...")

	run, err := orchestrator.IncrementalSync(context.Background())
	if err != nil {
		return fmt.Errorf("incremental sync failed: %w", err)
	}

	printRunSummary(run)
	return nil
}

// SyncSmartCommand refreshes the mirror only as much as its age requires
func SyncSmartCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("sync smart", flag.ExitOnError)
	_ = fs.Parse(args)

	cfg, err := sync.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	orchestrator, cleanup := buildOrchestrator(cfg, database)
	defer cleanup()

	result, err := orchestrator.SmartSync(context.Background())
	if err != nil {
		return fmt.Errorf("smart sync failed: %w", err)
	}

	if result.Run == nil {
		fmt.Println("✓ Mirror is fresh, no sync needed")
	} else {
		printRunSummary(result.Run)
	}

	fmt.Printf("\nMirror contents: %d workspaces, %d boards, %d relationships, %d users\n",
		len(result.Structure.Workspaces), len(result.Structure.Boards),
		len(result.Structure.Relationships), len(result.Structure.Users))

	return nil
}

// SyncWorkspaceCommand syncs a single workspace by ID or name
func SyncWorkspaceCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("sync workspace", flag.ExitOnError)
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: pulsemap sync workspace <id-or-name>")
	}
	target := fs.Arg(0)

	cfg, err := sync.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	orchestrator, cleanup := buildOrchestrator(cfg, database)
	defer cleanup()

	fmt.Printf("Syncing workspace %q...\n", target)

	run, err := orchestrator.SyncWorkspace(context.Background(), target)
	if err != nil {
		return fmt.Errorf("workspace sync failed: %w", err)
	}

	printRunSummary(run)
	return nil
}

// SyncStatusCommand shows mirror freshness and contents.
func SyncStatusCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("sync status", flag.ExitOnError)
	_ = fs.Parse(args)

	cfg, err := sync.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println("Mirror Status:")
	fmt.Printf("  Config path:   %s\n", sync.ConfigPath())
	fmt.Printf("  Database:      %s\n", cfg.DatabasePath)

	if cfg.IsConfigured() {
		fmt.Printf("  Configured:    ✓ Yes\n")
	} else {
		fmt.Printf("  Configured:    ✗ No (run 'pulsemap sync init')\n")
	}

	orchestrator, cleanup := buildOrchestrator(cfg, database)
	defer cleanup()

	status, err := orchestrator.CacheStatus()
	if err != nil {
		return fmt.Errorf("failed to read cache status: %w", err)
	}

	fmt.Printf("  Workspaces:    %d\n", status.TotalWorkspaces)
	fmt.Printf("  Boards:        %d\n", status.TotalBoards)

	if status.LastSync != nil {
		fmt.Printf("  Last sync:     %s (%s)\n", status.LastSync.Format(time.RFC3339), formatTimeSince(*status.LastSync))
	} else {
		fmt.Printf("  Last sync:     never\n")
	}

	fmt.Printf("  Fresh for:     %s after each sync\n", cfg.FreshFor())

	if status.NeedsRefresh {
		fmt.Printf("  Fresh:         ✗ No (run 'pulsemap sync smart')\n")
	} else {
		fmt.Printf("  Fresh:         ✓ Yes\n")
	}

	if orchestrator.IsSyncing() {
		fmt.Printf("  Active run:    → %s\n", orchestrator.CurrentRunID())
	}

	return nil
}

// SyncValidateCommand runs read-only consistency checks over the mirror.
func SyncValidateCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("sync validate", flag.ExitOnError)
	_ = fs.Parse(args)

	cfg, err := sync.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	orchestrator, cleanup := buildOrchestrator(cfg, database)
	defer cleanup()

	findings, err := orchestrator.ValidateIntegrity()
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if len(findings) == 0 {
		fmt.Println("✓ Mirror is structurally consistent")
		return nil
	}

	fmt.Printf("✗ %d integrity findings:\n\n", len(findings))
	for _, finding := range findings {
		fmt.Printf("  ⚠️  %s\n", finding)
	}
	fmt.Println("\nNext step: Run 'pulsemap sync full' to rebuild the mirror")

	return nil
}

// SyncRunsCommand lists recent sync runs with their provenance.
func SyncRunsCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("sync runs", flag.ExitOnError)
	limit := fs.Int("limit", 10, "Number of runs to show")
	_ = fs.Parse(args)

	runs, err := db.RecentSyncRuns(database, *limit)
	if err != nil {
		return fmt.Errorf("failed to load sync runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No sync runs recorded yet. Run 'pulsemap sync full' to build the mirror.")
		return nil
	}

	fmt.Printf("Recent sync runs (newest first):\n\n")
	for i := range runs {
		printRunLine(&runs[i])
	}

	return nil
}

// SyncDaemonCommand keeps the mirror fresh on a fixed interval until
// interrupted. Each tick runs a smart sync, so quiet periods cost nothing.
func SyncDaemonCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("sync daemon", flag.ExitOnError)
	intervalFlag := fs.String("interval", "1h", "Sync interval (minimum 5m)")
	_ = fs.Parse(args)

	interval, err := daemonInterval(*intervalFlag)
	if err != nil {
		return err
	}

	cfg, err := sync.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.IsConfigured() {
		return fmt.Errorf("no API token configured. Run 'pulsemap sync init' first")
	}

	orchestrator, cleanup := buildOrchestrator(cfg, database)
	defer cleanup()
	orchestrator.SetLogger(log.New(os.Stderr, "[daemon] ", log.LstdFlags))

	fmt.Printf("Starting sync daemon (interval: %s)\n", interval)
	fmt.Println("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runSmartSync := func() {
		result, err := orchestrator.SmartSync(context.Background())
		if err != nil {
			fmt.Printf("✗ Sync failed at %s: %v\n", time.Now().Format("15:04:05"), err)
			return
		}
		if result.Run == nil {
			fmt.Printf("✓ Mirror fresh at %s, nothing to do\n", time.Now().Format("15:04:05"))
			return
		}
		fmt.Printf("✓ %s sync at %s: %d boards in %.1fs\n",
			result.Run.Kind, time.Now().Format("15:04:05"),
			result.Run.BoardsProcessed, result.Run.Duration().Seconds())
	}

	// Sync once immediately rather than waiting a full interval
	runSmartSync()

	for {
		select {
		case <-ticker.C:
			runSmartSync()
		case sig := <-sigChan:
			fmt.Printf("\nReceived %s, shutting down\n", sig)
			return nil
		}
	}
}

// daemonInterval parses a sync interval flag and enforces the 5 minute floor
// that keeps the daemon from hammering the remote API.
func daemonInterval(raw string) (time.Duration, error) {
	interval, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: %w", raw, err)
	}
	if interval < 5*time.Minute {
		return 0, fmt.Errorf("interval %s is below the 5m minimum", interval)
	}
	return interval, nil
}

// printRunSummary prints the outcome of a completed sync run.
func printRunSummary(run *models.SyncRun) {
	fmt.Printf("\n✓ %s sync completed in %.1fs\n", run.Kind, run.Duration().Seconds())
	fmt.Printf("  Boards processed: %d\n", run.BoardsProcessed)
	fmt.Printf("  Created:          %d\n", run.ItemsCreated)
	fmt.Printf("  Updated:          %d\n", run.ItemsUpdated)
	fmt.Printf("  Marked deleted:   %d\n", run.ItemsDeleted)
}

// printRunLine prints one sync run as a single history line.
func printRunLine(run *models.SyncRun) {
	label := run.Kind
	if run.Scope != "" {
		label = fmt.Sprintf("%s(%s)", run.Kind, run.Scope)
	}
	started := run.StartedAt.Format("2006-01-02 15:04")

	switch run.Status {
	case models.SyncStatusCompleted:
		fmt.Printf("  ✓ %s  %-20s %d boards in %.1fs\n", started, label, run.BoardsProcessed, run.Duration().Seconds())
	case models.SyncStatusFailed:
		fmt.Printf("  ✗ %s  %-20s %s\n", started, label, run.Error)
	case models.SyncStatusCancelled:
		fmt.Printf("  ⚠️ %s  %-20s interrupted\n", started, label)
	default:
		fmt.Printf("  → %s  %-20s running\n", started, label)
	}
}

// formatTimeSince formats a time duration in a human-readable way.
func formatTimeSince(t time.Time) string {
	duration := time.Since(t)

	if duration < time.Minute {
		return "just now"
	} else if duration < time.Hour {
		minutes := int(duration.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	} else if duration < 24*time.Hour {
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	} else {
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}
