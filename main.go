// ABOUTME: Entry point for PulseMap MCP server and CLI
// ABOUTME: Routes to MCP server, sync, or viz commands based on arguments
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/pulsemap/pulsemap/cli"
	"github.com/pulsemap/pulsemap/db"
	"github.com/pulsemap/pulsemap/sync"
)

const version = "0.1.0"

func main() {
	// Pick up PULSEMAP_* overrides from a local .env if one exists
	_ = godotenv.Load()

	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/pulsemap/pulsemap.db)")
	initOnly := flag.Bool("init", false, "Initialize database and exit")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	// Handle version flag
	if *showVersion {
		fmt.Printf("pulsemap version %s\n", version)
		os.Exit(0)
	}

	// Get remaining args after flags
	args := flag.Args()

	// If no command specified, show usage
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	// Route to top-level command
	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "mcp":
		// MCP server doesn't need database init message
		finalDBPath := getDatabasePath(*dbPath)
		database, err := db.OpenDatabase(finalDBPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer database.Close()

		if err := cli.MCPCommand(database); err != nil {
			log.Fatalf("MCP server failed: %v", err)
		}

	case "sync":
		// Sync subcommands - initialize database with message
		finalDBPath := getDatabasePath(*dbPath)
		database, err := db.OpenDatabase(finalDBPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer database.Close()

		log.Printf("Mirror database: %s", finalDBPath)

		// Handle init-only flag
		if *initOnly {
			log.Println("Database initialized successfully")
			os.Exit(0)
		}

		if len(commandArgs) == 0 {
			fmt.Println("Error: sync requires a subcommand")
			printUsage()
			os.Exit(1)
		}

		syncCommand := commandArgs[0]
		syncArgs := commandArgs[1:]

		switch syncCommand {
		case "init":
			if err := cli.SyncInitCommand(database, syncArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "full":
			if err := cli.SyncFullCommand(database, syncArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "incremental":
			if err := cli.SyncIncrementalCommand(database, syncArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "smart":
			if err := cli.SyncSmartCommand(database, syncArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "workspace":
			if err := cli.SyncWorkspaceCommand(database, syncArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "status":
			if err := cli.SyncStatusCommand(database, syncArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "validate":
			if err := cli.SyncValidateCommand(database, syncArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "runs":
			if err := cli.SyncRunsCommand(database, syncArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "daemon":
			if err := cli.SyncDaemonCommand(database, syncArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}

		default:
			fmt.Printf("Unknown sync command: %s\n\n", syncCommand)
			printUsage()
			os.Exit(1)
		}

	case "viz":
		// Visualization subcommands
		finalDBPath := getDatabasePath(*dbPath)
		database, err := db.OpenDatabase(finalDBPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer database.Close()

		if len(commandArgs) == 0 {
			fmt.Println("Error: viz requires a subcommand")
			printUsage()
			os.Exit(1)
		}

		vizCommand := commandArgs[0]
		vizArgs := commandArgs[1:]

		switch vizCommand {
		case "graph":
			if err := cli.VizGraphCommand(database, vizArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "dashboard":
			if err := cli.VizDashboardCommand(database, vizArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}

		default:
			fmt.Printf("Unknown viz command: %s\n\n", vizCommand)
			printUsage()
			os.Exit(1)
		}

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func getDatabasePath(dbPath string) string {
	if dbPath != "" {
		return dbPath
	}
	if cfg, err := sync.LoadConfig(); err == nil && cfg.DatabasePath != "" {
		return cfg.DatabasePath
	}
	return sync.DefaultDatabasePath()
}

func printUsage() {
	fmt.Printf(`pulsemap v%s - monday.com organizational mirror

USAGE:
  pulsemap [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --db-path <path>       Database path (default: ~/.local/share/pulsemap/pulsemap.db)
  --init                 Initialize database and exit (use with 'sync')

COMMANDS:
  mcp                    Start MCP server for Claude Desktop
  sync                   Mirror synchronization commands
  viz                    Visualization commands

MCP SERVER:
  pulsemap mcp           Start MCP server (for Claude Desktop integration)

SYNC COMMANDS:
  pulsemap sync init        Store and verify a monday.com API token
    --endpoint <url>          API endpoint override (for proxies and testing)
    --oauth                   Authenticate through the monday.com OAuth app flow

  pulsemap sync full        Rebuild the mirror from the whole remote graph

  pulsemap sync incremental Fetch recently active boards only

  pulsemap sync smart       Sync only as much as mirror age requires

  pulsemap sync workspace <id-or-name>  Sync a single workspace

  pulsemap sync status      Show mirror freshness and contents

  pulsemap sync validate    Check the mirror for structural problems

  pulsemap sync runs        List recent sync runs
    --limit <n>               Number of runs to show (default: 10)

  pulsemap sync daemon      Keep the mirror fresh until interrupted
    --interval <dur>          Sync interval, minimum 5m (default: 1h)

VIZ COMMANDS:
  pulsemap viz graph [workspace-id]  Generate board relationship graph
    --output <file>                    Output file (default: stdout)
    [workspace-id]                     Optional workspace to scope the graph to

  pulsemap viz dashboard             Render mirror statistics dashboard

EXAMPLES:
  # Start MCP server for Claude Desktop
  pulsemap mcp

  # Store an API token, then build the mirror
  pulsemap sync init
  pulsemap sync full

  # Keep the mirror fresh in the background
  pulsemap sync daemon --interval 30m

  # Check what the mirror holds
  pulsemap sync status
  pulsemap viz dashboard

`, version)
}
