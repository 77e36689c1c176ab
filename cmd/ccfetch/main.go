// Command ccfetch listens for problems pushed by the Competitive Companion
// browser extension and scaffolds them on disk.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ccfetch/ccfetch/config"
	"github.com/ccfetch/ccfetch/console"
	"github.com/ccfetch/ccfetch/listener"
	"github.com/ccfetch/ccfetch/problem"
	"github.com/ccfetch/ccfetch/scaffold"
)

var (
	verbose  bool
	echoMode bool
	dryRun   bool
	number   int
	batches  int
	timeout  time.Duration
	port     int
	template string
	output   string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ccfetch [name]...",
	Short: "Fetch problems pushed by Competitive Companion",
	Long: `ccfetch listens on a loopback port for problems pushed by the
Competitive Companion browser extension and scaffolds each one on disk:
a directory per contest, a templated solution file and the sample tests.

With no limit flags, ccfetch fetches a single batch: it keeps listening
until every batch it has seen is complete. Positional names switch to
manual mode: one problem is fetched per name and the source file is
always called sol.cc.`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: run,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().IntVarP(&number, "number", "n", 0, "number of problems to fetch")
	rootCmd.Flags().IntVarP(&batches, "batches", "b", 0, "number of batches to fetch")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "stop after this long with no push")
	rootCmd.Flags().BoolVar(&echoMode, "echo", false, "print received payloads as JSON and keep listening")
	rootCmd.Flags().BoolVar(&dryRun, "dryrun", false, "report what would be created without touching disk")
	rootCmd.Flags().IntVar(&port, "port", 0, "listening port (default CCFETCH_PORT or 10046)")
	rootCmd.Flags().StringVar(&template, "template", "", "solution template path (default CCFETCH_TEMPLATE)")
	rootCmd.Flags().StringVar(&output, "output", "", "base directory for contests (default CCFETCH_OUTPUT or .)")
	rootCmd.MarkFlagsMutuallyExclusive("number", "batches", "timeout", "echo")
}

// choosePolicy maps CLI inputs to a completion policy. The second return
// reports whether the setup banner should be shown first.
func choosePolicy(names, number, batches int, timeout time.Duration) (listener.Policy, bool) {
	switch {
	case names > 0:
		return listener.FixedCount(names), false
	case number > 0:
		return listener.FixedCount(number), false
	case batches > 0:
		return listener.FixedBatches(batches), false
	case timeout > 0:
		return listener.UntilIdle(timeout), false
	default:
		return listener.Default(), true
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cmd.Flags().Changed("port") {
		cfg.Port = port
	}
	if cmd.Flags().Changed("template") {
		cfg.Template = template
	}
	if cmd.Flags().Changed("output") {
		cfg.Output = output
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := console.New(os.Stdout)
	l := listener.New(cfg.Port).WithLogger(logger)

	if echoMode {
		return runEcho(ctx, l, out)
	}

	manual := len(args) > 0
	policy, banner := choosePolicy(len(args), number, batches, timeout)
	if banner {
		out.Banner(cfg.Port)
	}

	records, err := l.Listen(ctx, policy)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	s := scaffold.New(scaffold.Config{
		BaseDir:      cfg.Output,
		TemplatePath: cfg.Template,
		Author:       cfg.Author,
		Editor:       cfg.Editor,
	}, logger)

	var total scaffold.Result
	contestDirs := make(map[string]struct{})
	for _, rec := range records {
		p, err := problem.FromRecord(rec)
		if err != nil {
			out.Error("Skipping undecodable payload: %v", err)
			continue
		}

		if dryRun {
			out.Plain("Would create problem: %s", p.Name)
			continue
		}

		var res scaffold.Result
		if manual {
			res = s.MaterializeManual(p)
		} else {
			res = s.Materialize(p)
		}
		for _, path := range res.Created {
			out.Success("create mode 100644 %s", path)
		}
		for _, name := range res.Failed {
			out.Error("Failed to make problem %s", name)
		}
		if len(res.Failed) == 0 {
			contestDirs[filepath.Join(cfg.Output, p.Dir())] = struct{}{}
		}
		total.Merge(res)
	}

	if dryRun {
		return nil
	}

	for dir := range contestDirs {
		if err := s.OpenEditor(dir); err != nil {
			out.Warn("%v", err)
		}
	}
	out.Summary(len(total.Created), total.Failed)
	return nil
}

// runEcho prints every received payload as indented JSON until interrupted.
func runEcho(ctx context.Context, l *listener.Listener, out *console.Printer) error {
	for {
		records, err := l.ListenFixedCount(ctx, 1)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		for _, rec := range records {
			var buf bytes.Buffer
			if err := json.Indent(&buf, rec.Body, "", "  "); err != nil {
				out.Warn("unprintable payload: %v", err)
				continue
			}
			out.Plain("%s", buf.String())
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
