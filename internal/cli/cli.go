// Package cli holds the start up shared by every command: flags, configuration, logging and shutdown.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/somerandev/rpgmaker-site/internal"
	"github.com/somerandev/rpgmaker-site/internal/cache"
	"github.com/somerandev/rpgmaker-site/internal/common"
	"github.com/somerandev/rpgmaker-site/internal/config"
	flag "github.com/spf13/pflag"
)

// Command describes one binary.
type Command struct {
	// Name is the binary name shown in the usage line.
	Name string
	// Args describes the positional arguments, e.g. "<corpus.json> <output_folder>".
	Args string
	// MinArgs and MaxArgs bound the positional argument count. A negative MaxArgs means no limit.
	MinArgs int
	MaxArgs int
	// Flags registers command specific flags.
	Flags func(fs *flag.FlagSet)
	// Run does the work once everything is set up.
	Run func(ctx context.Context, env *Env, args []string) error
}

// Env is what a command runs with.
type Env struct {
	Config  *config.Config
	Service internal.SiteService
	Stdout  io.Writer
}

// Main runs cmd with the process arguments and exits with its status.
func Main(cmd Command) {
	os.Exit(Run(cmd, os.Args[1:], os.Stdout, os.Stderr))
}

// Run runs cmd with args and returns the exit status. Usage and argument errors go to stderr.
func Run(cmd Command, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "TOML configuration file")
	concurrency := fs.Int("concurrency", 0, "maximum concurrent network requests")
	delay := fs.Duration("delay", 0, "pause between two legacy page requests")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")
	noCache := fs.Bool("no-cache", false, "do not read or write the scrape cache")
	if cmd.Flags != nil {
		cmd.Flags(fs)
	}

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags] %s\n", cmd.Name, cmd.Args)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}

	positional := fs.Args()
	if len(positional) < cmd.MinArgs || (cmd.MaxArgs >= 0 && len(positional) > cmd.MaxArgs) {
		fs.Usage()
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, "Failed to load configuration:", err)
		return 1
	}
	if fs.Changed("concurrency") {
		cfg.Concurrency = *concurrency
	}
	if fs.Changed("delay") {
		cfg.RequestDelay.Duration = *delay
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}
	if *noCache {
		cfg.CacheDir = ""
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, "Invalid configuration:", err)
		return 1
	}

	level, _ := common.ParseLevel(cfg.LogLevel)
	shutdownLogger, err := common.InitLogger(common.ServiceName, common.ServiceVersion, cfg.Environment, cfg.OTLPEndpoint, level)
	if err != nil {
		fmt.Fprintln(stderr, "Failed to common.InitLogger:", err)
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownLogger(ctx)
	}()

	shutdownInstrumentation, err := common.InitInstrumentation(common.ServiceName, common.ServiceVersion, cfg.Environment, cfg.OTLPEndpoint)
	if err != nil {
		common.Log.Error("Failed to common.InitInstrumentation", "err", err)
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownInstrumentation(ctx)
	}()

	var c *cache.Cache
	if cfg.CacheDir != "" {
		c, err = cache.Open(cfg.CacheDir, common.Log)
		if err != nil {
			common.Log.Error("Failed to cache.Open", "err", err)
			return 1
		}
		defer func() {
			if err := c.Close(); err != nil {
				common.Log.Error("Failed to cache.Close", "err", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env := &Env{
		Config:  cfg,
		Service: internal.NewSiteService(cfg, c),
		Stdout:  stdout,
	}

	if err := cmd.Run(ctx, env, positional); err != nil {
		common.Log.Error("Failed to "+cmd.Name, "err", err)
		return 1
	}

	return 0
}

// PrintJSON writes v to Stdout as indented JSON. URLs keep their ampersands unescaped.
func (e *Env) PrintJSON(v any) error {
	enc := json.NewEncoder(e.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to json.Encoder.Encode: %w", err)
	}
	return nil
}
