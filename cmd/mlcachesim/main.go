package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mlcachesim/mlcachesim/pkg/checkpoint"
	"github.com/mlcachesim/mlcachesim/pkg/config"
	"github.com/mlcachesim/mlcachesim/pkg/report"
	"github.com/mlcachesim/mlcachesim/pkg/runner"
	"github.com/mlcachesim/mlcachesim/pkg/simerr"
	"github.com/mlcachesim/mlcachesim/pkg/trace"
)

func main() {
	var (
		continueOnError bool
		progressFlag    bool
		jsonPath        string
		checkpointPath  string
		logLevel        string
		seed            uint64
	)

	rootCmd := &cobra.Command{
		Use:   "mlcachesim <config-file>",
		Short: "Trace-driven multi-level cache hierarchy simulator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], runOpts{
				continueOnError: continueOnError,
				progress:        progressFlag,
				jsonPath:        jsonPath,
				checkpointPath:  checkpointPath,
				logLevel:        logLevel,
				seed:            seed,
			})
		},
	}
	rootCmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "log soft errors and keep going instead of exiting")
	rootCmd.Flags().BoolVar(&progressFlag, "progress", false, "enable the background progress reporter")
	rootCmd.Flags().StringVar(&jsonPath, "json", "", "write the run-wide summary table as JSON to this path")
	rootCmd.Flags().StringVar(&checkpointPath, "checkpoint", "", "write a resumable gob checkpoint to this path after each process")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.Flags().Uint64Var(&seed, "seed", 1, "victim-selection RNG seed (default matches the reference seed of 1)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if simErr, ok := err.(*simerr.Error); ok {
			os.Exit(simErr.Kind.Code())
		}
		os.Exit(1)
	}
}

type runOpts struct {
	continueOnError bool
	progress        bool
	jsonPath        string
	checkpointPath  string
	logLevel        string
	seed            uint64
}

func run(configPath string, opts runOpts) error {
	level, err := zerolog.ParseLevel(opts.logLevel)
	if err != nil {
		return fmt.Errorf("bad --log-level %q: %w", opts.logLevel, err)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	f, err := os.Open(configPath)
	if err != nil {
		return fmt.Errorf("opening configuration file: %w", err)
	}
	defer f.Close()

	specs, err := config.Load(f)
	if err != nil {
		return err
	}
	if err := config.Validate(specs); err != nil {
		return err
	}

	wl, err := trace.LoadWorkload(os.Stdin)
	if err != nil {
		return err
	}
	defer wl.Close()

	resumeFrom := 0
	if opts.checkpointPath != "" {
		if ckpt, err := checkpoint.LoadCheckpoint(opts.checkpointPath); err == nil {
			resumeFrom = ckpt.CompletedPID + 1
			log.Info().Int("resume_from_pid", resumeFrom).Msg("resuming from checkpoint")
		}
	}

	table, err := runner.Run(specs, wl, runner.Options{
		Seed:            opts.seed,
		ContinueOnError: opts.continueOnError,
		Progress:        opts.progress,
		CheckpointPath:  opts.checkpointPath,
		ResumeFrom:      resumeFrom,
		Log:             &log,
		Stdout:          os.Stdout,
	})
	if err != nil {
		return err
	}

	if opts.jsonPath != "" {
		jf, err := os.Create(opts.jsonPath)
		if err != nil {
			return fmt.Errorf("creating --json output: %w", err)
		}
		defer jf.Close()
		if err := report.WriteJSON(jf, table.Summaries()); err != nil {
			return err
		}
	}

	return nil
}
