package cmd

import (
	"context"
	"errors"
	"fmt"
	"freqgrabber/internal/config"
	"freqgrabber/internal/engine"
	"freqgrabber/internal/grabber"
	"freqgrabber/internal/sink"
	"freqgrabber/internal/telemetry"
	"freqgrabber/internal/wordlist"
	"freqgrabber/lib/restyutil"
	"freqgrabber/lib/serviceutil"
	libtelemetry "freqgrabber/lib/telemetry"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	configPath      string
	continueOnError bool
	dumpHttpDir     string
)

func init() {
	runCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the configuration file")
	runCmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "skip failed queries instead of stopping the run")
	runCmd.Flags().StringVar(&dumpHttpDir, "dump-http", "", "write every HTTP exchange to files in this directory")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Queries every word in the word list against every configured engine.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg.Debug = cfg.Debug || verbose
		cfg.ContinueOnError = cfg.ContinueOnError || continueOnError
		if cfg.Debug {
			libtelemetry.InitSlog(true)
		}

		ctx := serviceutil.SignalContext(cmd.Context())

		otel, err := libtelemetry.SetupFromEnv(ctx, "freqgrabber")
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to setup telemetry, continuing without it", "err", err)
		}
		if err == nil {
			libtelemetry.InstrumentProcessStats(ctx, 30*time.Second)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err := otel.Shutdown(ctx)
			if err != nil {
				slog.Warn("failed to shutdown telemetry", "err", err)
			}
		}()

		return run(ctx, cmd.OutOrStdout(), cfg)
	},
}

func run(ctx context.Context, out io.Writer, cfg config.Config) error {
	registry := engine.DefaultRegistry()
	err := cfg.Validate(registry)
	if err != nil {
		return err
	}

	words, err := wordlist.ReadFile(cfg.Resolve(cfg.WordListFile))
	if err != nil {
		return fmt.Errorf("couldn't open word_file: %s. err: %w", cfg.WordListFile, err)
	}

	var httpDump restyutil.InstrumentOutput
	if dumpHttpDir != "" {
		fsOutput, err := restyutil.NewFilesystemOutput(dumpHttpDir)
		if err != nil {
			return err
		}
		slog.Info("dumping http exchanges", "dir", fsOutput.Dir())
		httpDump = fsOutput
	}

	tel := telemetry.SlogAPI{}

	// every output is initialized before the first word is queried
	var targets []grabber.Target
	for _, engineCfg := range cfg.Engines {
		opts := cfg.EngineOptions(engineCfg, tel)
		opts.HttpDump = httpDump
		opts.Out = out
		e, err := registry.New(engineCfg.Name, opts)
		if err != nil {
			return err
		}

		output, err := sink.Open(cfg.Resolve(engineCfg.OutputFile))
		if err != nil {
			return fmt.Errorf("couldn't write to output file: %w", err)
		}
		defer output.Close()

		targets = append(targets, grabber.Target{Engine: e, Sink: output})
	}

	g := grabber.New(targets, grabber.Options{
		Debug:           cfg.Debug,
		ContinueOnError: cfg.ContinueOnError,
		Out:             out,
	}, tel)
	summary, err := g.Run(ctx, words)
	if err != nil && ctx.Err() == nil {
		// the grabber already printed it
		return errReported
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Done. saved to:")
	for _, output := range summary.Outputs {
		fmt.Fprintln(out, output.Destination)
	}
	printSummary(out, summary)
	if summary.Failed > 0 {
		return fmt.Errorf("%d queries failed, their words are missing from the output", summary.Failed)
	}
	return nil
}

func printSummary(out io.Writer, summary grabber.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Engine", "Output", "Records"})
	for _, output := range summary.Outputs {
		t.AppendRow(table.Row{output.Engine, output.Destination, output.Records})
	}
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d words", summary.Words),
		fmt.Sprintf("%d failed", summary.Failed),
		summary.Queried,
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
