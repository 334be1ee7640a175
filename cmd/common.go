package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"subdump/internal/config"
	"subdump/pkg/progress"
	"subdump/pkg/usecase"
)

const progressInterval = 5 * time.Second

// loadConfig reads the config file, if any, and lays the flags that were set
// on the command line over it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}

	if sourceDir != "" {
		cfg.Source = sourceDir
	}
	if destDir != "" {
		cfg.Dest = destDir
	}
	if logDir != "" {
		cfg.LogDir = logDir
	}
	if legacyCounter || flagChanged(cmd, "legacy-counter") {
		cfg.LegacyCounter = legacyCounter
	}

	if cfg.Source == "" {
		cfg.Source = "."
	}
	if cfg.Dest == "" {
		cfg.Dest = "."
	}

	return cfg, nil
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

func newUseCaseService(cfg config.Config, logger zerolog.Logger) *usecase.Service {
	return usecase.New(usecase.Options{
		SkipFiles:     cfg.SkipFiles,
		SkipDirs:      cfg.SkipDirs,
		LegacyCounter: cfg.LegacyCounter,
		Logger:        logger,
	})
}

func printCommandHeader(command, rootDir, destDir string, recursive bool) {
	fmt.Printf("Command: %s\n", command)
	fmt.Printf("Root directory: %s\n", rootDir)
	fmt.Printf("Destination: %s\n", destDir)
	fmt.Printf("Recursive: %t\n", recursive)
}

func printSummary(lines ...string) {
	fmt.Println("=== Summary ===")
	for _, line := range lines {
		fmt.Println(line)
	}
}

func formatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}

type progressReporter struct {
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// startProgress prints the running totals of counter to stderr every few
// seconds until Stop is called.
func startProgress(label string, counter *progress.Counter) *progressReporter {
	p := &progressReporter{
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	startTime := time.Now()
	ticker := time.NewTicker(progressInterval)

	go func() {
		defer close(p.doneCh)
		for {
			select {
			case <-ticker.C:
				snap := counter.Snapshot()
				elapsed := time.Since(startTime).Round(time.Second)
				fmt.Fprintf(os.Stderr, "%s... %d files (%s), %s elapsed\n",
					label, snap.Files(), formatBytes(snap.Bytes), elapsed)
			case <-p.stopCh:
				ticker.Stop()
				return
			}
		}
	}()

	return p
}

func (p *progressReporter) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
		<-p.doneCh
	})
}
