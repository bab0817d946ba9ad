// ABOUTME: Visualization CLI commands
// ABOUTME: Handles viz dashboard and board graph generation commands
package cli

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/pulsemap/pulsemap/viz"
)

// VizGraphCommand generates a board relationship graph, optionally scoped
// to a single workspace.
func VizGraphCommand(db *sql.DB, args []string) error {
	fs := flag.NewFlagSet("viz graph", flag.ExitOnError)
	output := fs.String("output", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	var workspaceID *string
	if fs.NArg() > 0 {
		id := fs.Arg(0)
		workspaceID = &id
	}

	generator := viz.NewGraphGenerator(db)
	dot, err := generator.GenerateBoardGraph(workspaceID)
	if err != nil {
		return err
	}

	if *output != "" {
		return os.WriteFile(*output, []byte(dot), 0644)
	}

	fmt.Println(dot)
	return nil
}

func VizDashboardCommand(database *sql.DB, args []string) error {
	stats, err := viz.GenerateDashboardStats(database)
	if err != nil {
		return fmt.Errorf("failed to generate dashboard stats: %w", err)
	}

	output := viz.RenderDashboard(stats)
	fmt.Print(output)

	return nil
}
