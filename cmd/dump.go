package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"subdump/internal/config"
	"subdump/pkg/copier"
	"subdump/pkg/logging"
	"subdump/pkg/notify"
	"subdump/pkg/progress"
	"subdump/pkg/recorder"
	"subdump/pkg/usecase"
)

func runDump(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	recursive := config.ParseRecursive(args[0])

	logger := logging.New(os.Stderr, verbosity)

	// Stop between files on Ctrl-C so no copy is left half written.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var counter progress.Counter
	reporter := startProgress("Copying", &counter)

	execution, runErr := newUseCaseService(cfg, logger).RunDump(ctx, usecase.DumpRequest{
		SourceDir: cfg.Source,
		DestDir:   cfg.Dest,
		Recursive: recursive,
		Progress:  &counter,
		OnCopied:  printCopyResult,
	})
	reporter.Stop()

	if execution.RootDir != "" {
		printCommandHeader("DUMP", execution.RootDir, execution.DestDir, recursive)
		printSummary(
			fmt.Sprintf("Copied:       %d", execution.Copied),
			fmt.Sprintf("Renamed:      %d", execution.Renamed),
			fmt.Sprintf("Total size:   %s", formatBytes(execution.Bytes)),
			fmt.Sprintf("Duration:     %v", execution.Duration.Round(time.Millisecond)),
		)
		fmt.Println()
	}

	rec := recorder.New(afero.NewOsFs(), recordDir(cfg, execution))
	report, err := usecase.ReportOutcome(execution, runErr, rec, notify.NewConsole(os.Stdout))

	if report.DuplicatesPath != "" {
		fmt.Printf("Duplicates log: %s\n", report.DuplicatesPath)
	}
	if report.ErrorPath != "" {
		fmt.Printf("Error log: %s\n", report.ErrorPath)
	}

	if err != nil {
		return &reportedError{err: err}
	}

	return nil
}

func printCopyResult(res copier.Result) {
	if verbosity == 0 {
		return
	}

	switch res.Outcome {
	case copier.Renamed:
		fmt.Printf("RENAME: %s\n", res.Source)
		fmt.Printf("    TO: %s\n", res.Name)
	default:
		fmt.Printf("COPY: %s\n", res.Source)
	}
}

// recordDir picks where the error and duplicate logs go: the configured log
// directory, else the destination, else the working directory.
func recordDir(cfg config.Config, execution usecase.DumpExecution) string {
	switch {
	case cfg.LogDir != "":
		return cfg.LogDir
	case execution.DestDir != "":
		return execution.DestDir
	case cfg.Dest != "":
		return cfg.Dest
	default:
		return "."
	}
}
