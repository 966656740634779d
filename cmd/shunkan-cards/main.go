package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kingrea/shunkan/internal/study"
	"github.com/kingrea/shunkan/internal/workspace"
)

func main() {
	projectDir := flag.String("project", "", "path to the project directory (defaults to cwd)")
	importPath := flag.String("import", "", "replace the deck from a CSV, XLSX or YAML file")
	exportPath := flag.String("export", "", "write the deck to a CSV or YAML file")
	showStats := flag.Bool("stats", false, "print deck and review counts")
	reset := flag.Bool("reset", false, "delete all progress and restore the sample deck")
	flag.Parse()

	if strings.TrimSpace(*importPath) == "" && strings.TrimSpace(*exportPath) == "" && !*showStats && !*reset {
		die("nothing to do: pass -import, -export, -stats or -reset")
	}

	project := *projectDir
	if project == "" {
		var err error
		project, err = os.Getwd()
		if err != nil {
			die("determine working directory: %v", err)
		}
	}
	absoluteProject, err := filepath.Abs(project)
	if err != nil {
		die("resolve project dir: %v", err)
	}

	ctx := context.Background()
	ws, err := workspace.Open(ctx, absoluteProject, "cards")
	if err != nil {
		die("open workspace: %v", err)
	}
	if err := run(ctx, ws.Service, os.Stdout, options{
		importPath: strings.TrimSpace(*importPath),
		exportPath: strings.TrimSpace(*exportPath),
		stats:      *showStats,
		reset:      *reset,
	}); err != nil {
		ws.Close()
		die("%v", err)
	}
	if err := ws.Close(); err != nil {
		die("close workspace: %v", err)
	}
}

type options struct {
	importPath string
	exportPath string
	stats      bool
	reset      bool
}

// run applies the requested operations in a fixed order: reset, import,
// export, stats.
func run(ctx context.Context, svc *study.Service, out io.Writer, opts options) error {
	if opts.reset {
		if _, err := svc.Reset(ctx); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		fmt.Fprintln(out, "Progress cleared. Sample deck restored.")
	}
	if opts.importPath != "" {
		res, err := svc.ImportFile(ctx, opts.importPath)
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}
		fmt.Fprintf(out, "Imported %d cards from %s (%d kept, %d new, %d dropped, %d favorites dropped).\n",
			res.Records, opts.importPath, res.Kept, res.Added, res.Pruned, res.FavoritesPruned)
	}
	if opts.exportPath != "" {
		n, err := svc.Export(opts.exportPath)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		fmt.Fprintf(out, "Exported %d cards to %s.\n", n, opts.exportPath)
	}
	if opts.stats {
		printStats(out, svc.Stats())
	}
	return nil
}

func printStats(out io.Writer, s study.Stats) {
	fmt.Fprintf(out, "Cards:      %d\n", s.Records)
	fmt.Fprintf(out, "Due:        %d\n", s.Due)
	fmt.Fprintf(out, "Favorites:  %d\n", s.Favorites)
	fmt.Fprintf(out, "Visible:    %d\n", s.Visible)
	fmt.Fprintf(out, "Level:      %d\n", s.Level)
	fmt.Fprintf(out, "Direction:  %s\n", s.Direction)
	fmt.Fprintf(out, "Filters:    favorites_only=%t due_only=%t\n", s.Filters.FavoritesOnly, s.Filters.DueOnly)
	fmt.Fprintf(out, "Timer:      %t\n", s.TimerOn)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
