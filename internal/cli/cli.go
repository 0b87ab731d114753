// Package cli implements the netplot command-line interface.
//
// Commands:
//   - synth: synthesize a declaration into a diagram document
//   - render: synthesize and render to SVG, PNG, PDF, or DOT
//   - serve: run the HTTP API
//   - inspect: browse a declaration interactively
//   - cache: manage the local result cache
//   - completion: generate shell completion scripts
//
// Flags always win over the optional config file
// (~/.config/netplot/config.toml); the config file wins over built-in
// defaults. All commands honor --verbose for debug-level logging.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/kleypas/netplot/pkg/buildinfo"
	"github.com/kleypas/netplot/pkg/cache"
	"github.com/kleypas/netplot/pkg/pipeline"
)

const (
	// appName is the application name used for directories and display.
	appName = "netplot"

	// defaultListenAddr is where serve binds when neither flag nor config
	// file say otherwise.
	defaultListenAddr = ":8080"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config Config
}

// New creates a CLI with a logger writing to w at the given level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          appName,
		Short:        "netplot synthesizes network-topology diagrams from declarations",
		Long:         `netplot turns a declarative YAML description of a network (public backbone groups, private networks, gateways, devices, diversions) into a positioned topology diagram, rendered as JSON, DOT, SVG, PNG, or PDF.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				c.SetLogLevel(log.DebugLevel)
			}
			cfg, err := loadConfig()
			if err != nil {
				c.Logger.Warn("config file ignored", "error", err)
			}
			c.Config = cfg
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.synthCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newRunner creates a pipeline runner for CLI use. With noCache the runner
// still works, it just recomputes everything.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	backend, err := c.newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(backend, nil, c.Logger), nil
}

func (c *CLI) newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory: the config file's cache_dir if set,
// otherwise the XDG standard location (~/.cache/netplot/).
func (c *CLI) cacheDir() (string, error) {
	if c.Config.CacheDir != "" {
		return c.Config.CacheDir, nil
	}
	return defaultCacheDir()
}

func defaultCacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}
