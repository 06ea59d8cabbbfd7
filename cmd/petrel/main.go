package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/petrel-ls/petrel/internal/config"
	"github.com/petrel-ls/petrel/internal/debug"
	"github.com/petrel-ls/petrel/internal/search"
	"github.com/petrel-ls/petrel/internal/symbols"
	"github.com/petrel-ls/petrel/internal/version"
	"github.com/petrel-ls/petrel/internal/workspace"
)

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")

	// If root is specified and config path is default, look for config in root directory
	if rootFlag := c.String("root"); rootFlag != "" && configPath == config.DefaultConfigName {
		configPath = filepath.Join(rootFlag, config.DefaultConfigName)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	if includeFlags := c.StringSlice("include"); len(includeFlags) > 0 {
		cfg.Index.Include = includeFlags
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Index.Exclude = append(cfg.Index.Exclude, excludeFlags...)
	}
	if rootFlag := c.String("root"); rootFlag != "" {
		absRoot, err := filepath.Abs(rootFlag)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", rootFlag, err)
		}
		cfg.Project.Root = absRoot
	}
	if cfg.Project.Root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		cfg.Project.Root = cwd
	}

	return cfg, nil
}

// loadWorkspace builds the index for the configured root.
func loadWorkspace(ctx context.Context, cfg *config.Config) (*workspace.Workspace, error) {
	ws := workspace.New(cfg)
	if err := ws.AddRoot(ctx, cfg.Project.Root); err != nil {
		// per-file parse failures are reported but don't void the load
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	return ws, nil
}

func main() {
	app := &cli.App{
		Name:                   "petrel",
		Usage:                  "Record, model and component indexing for framework workspaces",
		Version:                version.Full(),
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
				Value:   config.DefaultConfigName,
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Workspace root directory to index (overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Include files matching glob patterns (e.g., --include '**/*.xml')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files matching glob patterns (e.g., --exclude '**/tests/**')",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging to stderr",
			},
			&cli.BoolFlag{
				Name:  "debug-file",
				Usage: "Enable debug logging to a timestamped file under the temp directory",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Suppress debug logging even when DEBUG is set",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("quiet") {
				debug.SetQuietMode(true)
				return nil
			}
			if c.Bool("debug-file") {
				debug.EnableDebug = "true"
				logPath, err := debug.InitDebugLogFile()
				if err != nil {
					return fmt.Errorf("failed to initialize debug log: %w", err)
				}
				fmt.Fprintf(os.Stderr, "debug log: %s\n", logPath)
			} else if c.Bool("debug") {
				debug.EnableDebug = "true"
				debug.SetDebugOutput(os.Stderr)
			}
			debug.Printf("petrel %s starting\n", version.Full())
			return nil
		},
		After: func(c *cli.Context) error {
			return debug.CloseDebugLog()
		},
		Commands: []*cli.Command{
			{
				Name:    "index",
				Aliases: []string{"i"},
				Usage:   "Index the workspace and report entity counts",
				Action:  indexCommand,
			},
			{
				Name:      "search",
				Aliases:   []string{"s"},
				Usage:     "Search indexed records, models and components",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "kind",
						Aliases: []string{"k"},
						Usage:   "Restrict to one kind: record, model, component",
					},
					&cli.IntFlag{
						Name:    "max-results",
						Aliases: []string{"n"},
						Usage:   "Max number of results (overrides config)",
					},
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: searchCommand,
			},
			{
				Name:      "complete",
				Usage:     "Complete a record id prefix, optionally within one model",
				ArgsUsage: "<prefix>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "model",
						Aliases: []string{"m"},
						Usage:   "Only records of this model",
					},
					&cli.StringFlag{
						Name:  "module",
						Usage: "Only records declared in this module",
					},
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: completeCommand,
			},
			{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "Index the workspace and keep the index current until interrupted",
				Action:  watchCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func indexCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	ws, err := loadWorkspace(c.Context, cfg)
	if err != nil {
		return err
	}
	fmt.Println(ws.Index().Stats())
	return nil
}

func searchCommand(c *cli.Context) error {
	query := c.Args().First()
	if query == "" {
		return fmt.Errorf("search requires a query argument")
	}

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	if n := c.Int("max-results"); n > 0 {
		cfg.Search.MaxResults = n
	}

	var kinds []search.Kind
	switch c.String("kind") {
	case "":
	case "record":
		kinds = append(kinds, search.KindRecord)
	case "model":
		kinds = append(kinds, search.KindModel)
	case "component":
		kinds = append(kinds, search.KindComponent)
	default:
		return fmt.Errorf("unknown kind %q", c.String("kind"))
	}

	ws, err := loadWorkspace(c.Context, cfg)
	if err != nil {
		return err
	}

	engine := search.NewEngine(ws.Index(), cfg)
	return printResults(c, engine.WorkspaceSymbols(query, kinds...))
}

func completeCommand(c *cli.Context) error {
	prefix := c.Args().First()

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	ws, err := loadWorkspace(c.Context, cfg)
	if err != nil {
		return err
	}

	var model symbols.ModelName
	if name := c.String("model"); name != "" {
		m, ok := symbols.Lookup[symbols.ModelTag](name)
		if !ok {
			return fmt.Errorf("unknown model %q", name)
		}
		model = m
	}

	engine := search.NewEngine(ws.Index(), cfg)
	return printResults(c, engine.CompleteRecords(model, prefix, c.String("module")))
}

func printResults(c *cli.Context, results []search.Result) error {
	if c.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	for _, r := range results {
		fmt.Printf("%-9s %-50s %s:%d:%d\n",
			r.Kind, r.Name, r.Location.Path, r.Location.Line, r.Location.Column)
	}
	return nil
}

func watchCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	ws, err := loadWorkspace(c.Context, cfg)
	if err != nil {
		return err
	}
	fmt.Println(ws.Index().Stats())

	watcher, err := workspace.NewWatcher(ws)
	if err != nil {
		return err
	}
	if err := watcher.Start(c.Context); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	return watcher.Stop()
}
