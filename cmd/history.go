package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"subdump/pkg/logging"
	"subdump/pkg/usecase"
)

func buildHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show what the last run copied into the destination",
		Long: `Reads the journal of the most recent run into the destination directory
and lists every file it copied, with the name it was given.

A run that was interrupted in the middle of a copy is reported as incomplete.

Examples:
  subdump history                      # Destination is the current directory
  subdump history --dest ./all-photos`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	execution, err := newUseCaseService(cfg, logging.New(os.Stderr, verbosity)).RunHistory(usecase.HistoryRequest{
		DestDir: cfg.Dest,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Run: %s\n", execution.RunID)
	fmt.Printf("Destination: %s\n", execution.DestDir)
	fmt.Printf("Journal: %s\n", execution.JournalPath)
	fmt.Println()

	renamed := 0
	for _, entry := range execution.Entries {
		if entry.Renamed {
			renamed++
			fmt.Printf("RENAME: %s\n", entry.Source)
			fmt.Printf("    TO: %s\n", entry.Dest)
			continue
		}
		fmt.Printf("COPY: %s\n", entry.Source)
	}
	if len(execution.Entries) > 0 {
		fmt.Println()
	}

	status := "complete"
	if !execution.Complete {
		status = "incomplete (interrupted during a copy)"
	}

	printSummary(
		fmt.Sprintf("Files:    %d", len(execution.Entries)),
		fmt.Sprintf("Renamed:  %d", renamed),
		fmt.Sprintf("Status:   %s", status),
	)

	return nil
}
