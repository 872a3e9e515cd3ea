package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/powerwordtree/dynwatch/internal/api"
	"github.com/powerwordtree/dynwatch/internal/config"
	"github.com/powerwordtree/dynwatch/internal/engine"
	"github.com/powerwordtree/dynwatch/internal/logging"
	"github.com/powerwordtree/dynwatch/internal/plugin"
	"github.com/powerwordtree/dynwatch/internal/plugin/plugins"
)

const version = "1.0.0"

var (
	logLevel  string
	logOutput string
	logFormat string
	verbose   bool
	addr      string
	drain     time.Duration
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dynwatch CONFIG",
		Short:         "watcher automation daemon",
		Long:          "dynwatch polls data sources on a schedule, evaluates a set expression over the results and conditionally runs remediation actions.",
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(args[0])
		},
	}
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "override log level for all outputs (DEBUG, INFO, WARNING, ERROR, CRITICAL)")
	rootCmd.Flags().StringVar(&logOutput, "log-output", "", "override log output (std, stdout, stderr or a file path)")
	rootCmd.Flags().StringVar(&logFormat, "log-format", "", "override log output format (text, json)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "shorthand for --log-level DEBUG")
	rootCmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address for status and metrics (disabled when empty)")
	rootCmd.Flags().DurationVar(&drain, "drain", 15*time.Second, "grace period for in-flight work on shutdown")
	return rootCmd
}

func run(cfgPath string) error {
	loader, err := config.NewLoader(cfgPath)
	if err != nil {
		return err
	}
	cfg := loader.Config()
	applyLogOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return err
	}

	sink, err := logging.New(cfg.Logs)
	if err != nil {
		return fmt.Errorf("log sink: %w", err)
	}
	defer sink.Close()
	log := sink.Logger()
	log.Infof("dynwatch %s starting", version)

	// ── Plugin registry ──────────────────────────────────────────────────────
	registry := plugin.NewRegistry()
	registry.Register(plugins.NewEcho())

	// ── Scheduler ────────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := engine.New(registry, sink, drain)
	if n := sched.Start(ctx, cfg); n == 0 {
		log.Warnf("no watchers scheduled; check the configuration")
	}

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.Config) {
		applyLogOverrides(newCfg)
		if err := config.Validate(newCfg); err != nil {
			log.ErrorErr(err, "hot-reload skipped: config invalid")
			return
		}
		n := sched.Swap(newCfg)
		log.Infof("config hot-reloaded: %d watcher(s) scheduled (log settings require a restart)", n)
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		log.Warnf("config watcher unavailable (hot-reload disabled): %s", err)
	} else {
		defer stopWatch()
	}

	// ── Status / metrics server ──────────────────────────────────────────────
	var srv *http.Server
	if addr != "" {
		srv = &http.Server{
			Addr:         addr,
			Handler:      api.New(sched, loader),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Infof("status server listening on %s", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Criticalf("status server error: %s", err)
			}
		}()
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infof("shutting down")

	if srv != nil {
		shutCtx, shutCancel := context.WithTimeout(context.Background(), drain)
		_ = srv.Shutdown(shutCtx)
		shutCancel()
	}
	sched.Shutdown()
	cancel()
	log.Infof("goodbye")
	return nil
}

// applyLogOverrides replaces the configured log outputs with a single
// entry built from the CLI flags, mirroring how a console run usually
// wants one predictable stream.
func applyLogOverrides(cfg *config.Config) {
	level := logLevel
	if verbose {
		level = "DEBUG"
	}
	if level == "" && logOutput == "" && logFormat == "" {
		return
	}
	entry := config.LogConfig{
		Output:       logOutput,
		OutputFormat: logFormat,
		Level:        level,
	}
	if entry.Output == "" {
		entry.Output = config.DefaultLogOutput
	}
	if entry.OutputFormat == "" {
		entry.OutputFormat = config.DefaultLogOutputFormat
	}
	if entry.Level == "" {
		entry.Level = config.DefaultLogLevel
	}
	if entry.DateFormat == "" {
		entry.DateFormat = config.DefaultLogDateFormat
	}
	cfg.Logs = []config.LogConfig{entry}
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
