package main

import (
	"github.com/spf13/cobra"
)

var (
	sourceDir     string
	destDir       string
	configPath    string
	logDir        string
	legacyCounter bool
	verbosity     int
)

func buildRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subdump [flags] <recursive>",
		Short: "Copy the files of every subfolder into one directory",
		Long: `subdump copies every file found in the subfolders of a directory into a
single destination directory. Files directly inside the source directory are
left alone.

A file whose name is already taken in the destination is copied under a new
name with a counter before the extension: report.txt becomes report(1).txt,
report(1).txt becomes report(2).txt. Nothing is ever overwritten. The renamed
files are listed in a timestamped duplicates log.

The single argument decides whether deeper subfolders are scanned too: "true"
(in any letter case) enables recursion, anything else disables it.

Examples:
  # Copy the files of the direct subfolders of the current directory into it
	  subdump false

  # Copy every file of a whole tree into one directory
	  subdump --source /path/to/photos --dest /path/to/all-photos true

  # Show what the last run copied
	  subdump history --dest /path/to/all-photos

Safety:
  Copies never overwrite and never land outside the destination directory.
  Two runs cannot write into the same destination at the same time.`,
		Args:          cobra.ExactArgs(1),
		RunE:          runDump,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&destDir, "dest", "", "Destination directory (default: current directory)")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	cmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Verbose output (repeat for more detail)")

	cmd.Flags().StringVar(&sourceDir, "source", "", "Directory whose subfolders are copied (default: current directory)")
	cmd.Flags().StringVar(&logDir, "log-dir", "", "Directory for error and duplicate logs (default: destination)")
	cmd.Flags().BoolVar(&legacyCounter, "legacy-counter", false, "Increment name counters one character at a time (a(9) -> a(:))")

	return cmd
}
