// Package usecase provides application-level orchestration for the CLI.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"subdump/pkg/collector"
	"subdump/pkg/copier"
	"subdump/pkg/dumperr"
	"subdump/pkg/duplicates"
	"subdump/pkg/filelock"
	"subdump/pkg/journal"
	"subdump/pkg/logging"
	"subdump/pkg/metadata"
	"subdump/pkg/namer"
	"subdump/pkg/notify"
	"subdump/pkg/progress"
	"subdump/pkg/safepath"
	"subdump/pkg/walker"
)

// Options configures a Service.
type Options struct {
	SkipFiles     []string
	SkipDirs      []string
	LegacyCounter bool
	// Logger receives run events. The zero value discards them.
	Logger zerolog.Logger
}

// Service orchestrates dumps without Cobra dependencies.
type Service struct {
	skipFiles []string
	skipDirs  []string
	resolver  namer.Resolver
	log       zerolog.Logger
}

// New creates a use-case service.
func New(opts Options) *Service {
	return &Service{
		skipFiles: append([]string(nil), opts.SkipFiles...),
		skipDirs:  append([]string(nil), opts.SkipDirs...),
		resolver:  namer.Resolver{LegacyCounter: opts.LegacyCounter},
		log:       opts.Logger,
	}
}

// DumpRequest contains inputs for one dump.
type DumpRequest struct {
	SourceDir string
	DestDir   string
	Recursive bool
	// Progress, if set, is updated after every copy and may be read
	// concurrently while the dump runs.
	Progress *progress.Counter
	// OnCopied, if set, is called after every copy on the dumping goroutine.
	OnCopied func(copier.Result)
}

// DumpExecution contains dump outputs. It is filled in as far as the run got,
// also when RunDump returns an error.
type DumpExecution struct {
	RootDir     string
	DestDir     string
	RunID       string
	JournalPath string
	Copied      int
	Renamed     int
	Bytes       int64
	// Duplicates are the absolute source paths of renamed files in copy order.
	Duplicates []string
	Duration   time.Duration
}

// RunDump copies the files of every subfolder of req.SourceDir into
// req.DestDir. The destination is created when missing and locked for the
// duration of the run. Every copy is journaled.
func (s *Service) RunDump(ctx context.Context, req DumpRequest) (DumpExecution, error) {
	startTime := time.Now()

	target, err := resolveDumpTarget(req.SourceDir, req.DestDir)
	if err != nil {
		return DumpExecution{}, err
	}

	exec := DumpExecution{
		RootDir: target.rootDir,
		DestDir: target.destDir,
	}

	metaDir, err := metadata.Init(target.destDir, target.validator)
	if err != nil {
		return exec, dumperr.IOFailure("initialize metadata", target.destDir, err)
	}

	// Keep concurrent subdump processes out of the same destination.
	lock, err := filelock.Acquire(metaDir.LockPath())
	if err != nil {
		return exec, dumperr.IOFailure("lock destination", target.destDir,
			fmt.Errorf("another subdump process is writing to this directory: %w", err))
	}
	defer lock.Close()

	exec.RunID = metaDir.RunID()
	exec.JournalPath = metaDir.JournalPath(exec.RunID)

	jw, err := journal.NewWriter(exec.JournalPath)
	if err != nil {
		return exec, dumperr.IOFailure("create journal", exec.JournalPath, err)
	}
	defer jw.Close()

	log := logging.Component(s.log, "dump").With().Str("run", exec.RunID).Logger()
	log.Info().
		Str("source", target.rootDir).
		Str("dest", target.destDir).
		Bool("recursive", req.Recursive).
		Msg("dump started")

	fs := afero.NewOsFs()
	tracker := duplicates.New()

	cp, err := copier.New(copier.Options{
		Fs:        fs,
		Validator: target.validator,
		Resolver:  s.resolver,
		Tracker:   tracker,
		Logger:    logging.Component(s.log, "copier"),
	})
	if err != nil {
		return exec, err
	}

	counter := req.Progress
	if counter == nil {
		counter = &progress.Counter{}
	}

	w, err := walker.New(walker.Options{
		Collector: collector.New(collector.Options{
			Fs:           fs,
			SkipFiles:    s.skipFiles,
			SkipDirs:     s.skipDirs,
			ExcludePaths: target.excludePaths(),
		}),
		Copier: &journaledCopier{next: cp, journal: jw, runID: exec.RunID},
		OnCopied: func(res copier.Result) {
			counter.Observe(res.Outcome == copier.Renamed, res.Bytes)
			if req.OnCopied != nil {
				req.OnCopied(res)
			}
		},
		Logger: logging.Component(s.log, "walker"),
	})
	if err != nil {
		return exec, err
	}

	walkErr := w.Walk(ctx, target.rootDir, req.Recursive)

	snap := counter.Snapshot()
	exec.Copied = snap.Copied
	exec.Renamed = snap.Renamed
	exec.Bytes = snap.Bytes
	exec.Duplicates = tracker.Paths()
	exec.Duration = time.Since(startTime)

	logging.LogDuration(log, startTime, "dump")

	if walkErr != nil {
		log.Error().Err(walkErr).Int("copied", snap.Files()).Msg("dump aborted")
		return exec, walkErr
	}

	log.Info().Int("copied", exec.Copied).Int("renamed", exec.Renamed).Msg("dump finished")

	return exec, nil
}

// Recorder persists the diagnostics of a run.
type Recorder interface {
	RecordError(err error) (string, error)
	RecordDuplicates(paths []string) (string, error)
}

// Report describes what ReportOutcome wrote.
type Report struct {
	Level          notify.Level
	DuplicatesPath string
	ErrorPath      string
}

// ReportOutcome records and announces how a run ended. A failure to record
// the duplicate list turns a successful run into a failed one. The returned
// error is runErr, or that recording failure, and nil when the run succeeded.
func ReportOutcome(exec DumpExecution, runErr error, rec Recorder, n notify.Notifier) (Report, error) {
	var report Report

	if runErr == nil && len(exec.Duplicates) > 0 {
		path, err := rec.RecordDuplicates(exec.Duplicates)
		if err != nil {
			runErr = asIOFailure("record duplicates", err)
		} else {
			report.DuplicatesPath = path
		}
	}

	if runErr != nil {
		report.Level = notify.Error
		n.Notify(notify.MsgFailed+": "+runErr.Error(), notify.Error)

		path, err := rec.RecordError(runErr)
		if err != nil {
			n.Notify(notify.MsgRecordFailed, notify.Error)
		} else {
			report.ErrorPath = path
		}

		return report, runErr
	}

	if len(exec.Duplicates) > 0 {
		report.Level = notify.Warning
		n.Notify(notify.MsgFinishedWithDupes, notify.Warning)
		return report, nil
	}

	report.Level = notify.Info
	n.Notify(notify.MsgFinished, notify.Info)

	return report, nil
}

// HistoryRequest contains inputs for reading a past run.
type HistoryRequest struct {
	DestDir string
}

// HistoryExecution describes the latest journaled run of a destination.
type HistoryExecution struct {
	DestDir     string
	RunID       string
	JournalPath string
	Entries     []journal.Entry // confirmed copies in order
	// Complete is false when the run stopped between starting and
	// finishing a copy.
	Complete bool
}

// RunHistory reads the journal of the most recent dump into req.DestDir.
func (s *Service) RunHistory(req HistoryRequest) (HistoryExecution, error) {
	destDir, err := resolveDir("read history", req.DestDir)
	if err != nil {
		return HistoryExecution{}, err
	}

	journalPath, err := metadata.Open(destDir).LatestJournal()
	if err != nil {
		return HistoryExecution{}, fmt.Errorf("no dump recorded in %s: %w", destDir, err)
	}

	reader := journal.NewReader(journalPath)

	entries, err := reader.Confirmed()
	if err != nil {
		return HistoryExecution{}, dumperr.IOFailure("read journal", journalPath, err)
	}

	validateErr := reader.Validate()
	if validateErr != nil && !errors.Is(validateErr, journal.ErrPartialWrite) {
		return HistoryExecution{}, dumperr.IOFailure("read journal", journalPath, validateErr)
	}

	return HistoryExecution{
		DestDir:     destDir,
		RunID:       extractRunID(journalPath),
		JournalPath: journalPath,
		Entries:     entries,
		Complete:    validateErr == nil,
	}, nil
}

// journaledCopier writes an intent entry before each copy and a confirmation
// entry after it.
type journaledCopier struct {
	next    walker.FileCopier
	journal *journal.Writer
	runID   string
}

func (j *journaledCopier) Copy(src collector.FileEntry) (copier.Result, error) {
	intent := journal.Entry{Run: j.runID, Type: journal.TypeCopy, Source: src.Path}
	if err := j.journal.Log(intent); err != nil {
		return copier.Result{}, dumperr.IOFailure("write journal intent", j.journal.Path(), err)
	}

	res, err := j.next.Copy(src)
	if err != nil {
		return res, err
	}

	confirm := intent
	confirm.Timestamp = time.Time{}
	confirm.Dest = res.Name
	confirm.Renamed = res.Outcome == copier.Renamed
	confirm.Bytes = res.Bytes
	confirm.Success = true
	if err := j.journal.Log(confirm); err != nil {
		return res, dumperr.IOFailure("write journal confirmation", j.journal.Path(), err)
	}

	return res, nil
}

// Dump invariant: no destination path is written before validator approval.
type dumpTarget struct {
	rootDir   string
	destDir   string // symlink-resolved
	destAbs   string // as given, made absolute
	validator *safepath.Validator
}

// excludePaths lists the directories never scanned as sources: the
// destination and its metadata directory, both as given and resolved.
func (t dumpTarget) excludePaths() []string {
	paths := []string{t.destDir, metadata.Open(t.destDir).Root()}
	if t.destAbs != t.destDir {
		paths = append(paths, t.destAbs, metadata.Open(t.destAbs).Root())
	}
	return paths
}

func resolveDumpTarget(sourceDir, destDir string) (dumpTarget, error) {
	rootDir, err := resolveDir("resolve source", sourceDir)
	if err != nil {
		return dumpTarget{}, err
	}

	if destDir == "" {
		return dumpTarget{}, dumperr.NullInput("resolve destination", "destination directory")
	}

	destAbs, err := filepath.Abs(destDir)
	if err != nil {
		return dumpTarget{}, dumperr.Path("resolve destination", destDir, err)
	}

	if err := os.MkdirAll(destAbs, 0o755); err != nil {
		return dumpTarget{}, dumperr.Path("create destination", destAbs, err)
	}

	validator, err := safepath.New(destAbs)
	if err != nil {
		return dumpTarget{}, dumperr.Path("resolve destination", destAbs, err)
	}

	return dumpTarget{
		rootDir:   rootDir,
		destDir:   validator.Root(),
		destAbs:   destAbs,
		validator: validator,
	}, nil
}

// resolveDir returns the absolute, symlink-resolved form of an existing
// directory.
func resolveDir(op, dir string) (string, error) {
	if dir == "" {
		return "", dumperr.NullInput(op, "directory")
	}

	info, err := os.Stat(dir)
	if err != nil {
		return "", dumperr.Path(op, dir, err)
	}
	if !info.IsDir() {
		return "", dumperr.Path(op, dir, nil)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", dumperr.Path(op, dir, err)
	}

	resolved, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		return "", dumperr.Path(op, dir, err)
	}

	return resolved, nil
}

func asIOFailure(op string, err error) error {
	if dumperr.KindOf(err) != "" {
		return err
	}
	return dumperr.IOFailure(op, "", err)
}

// extractRunID extracts the run ID from a journal file path.
// For example, ".subdump/journal/dump-20260208T143022-1a2b3c4d.jsonl" returns
// "dump-20260208T143022-1a2b3c4d".
func extractRunID(journalPath string) string {
	return strings.TrimSuffix(filepath.Base(journalPath), ".jsonl")
}
