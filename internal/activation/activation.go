// Package activation holds the lifecycle entry points: Init once, Enable for
// every run of the rule sequence, Disable on teardown.
package activation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/1broseidon/deskplace/internal/config"
	"github.com/1broseidon/deskplace/internal/logging"
	"github.com/1broseidon/deskplace/internal/platform"
	"github.com/1broseidon/deskplace/internal/runtimepath"
	"github.com/1broseidon/deskplace/internal/sequencer"
	"github.com/1broseidon/deskplace/internal/settle"
	"github.com/1broseidon/deskplace/internal/systemd"
)

// Options tunes an Extension.
type Options struct {
	// DryRun logs mutations instead of performing them.
	DryRun bool
	// LockPath overrides the run lock location. Empty uses the runtime dir.
	LockPath string
	// NoLock skips the cross-process run lock.
	NoLock bool
	// Level, when set, follows the rules file's log_level unless
	// LevelPinned is true (for example after --debug).
	Level       *zap.AtomicLevel
	LevelPinned bool
	// Waiter overrides the rules file's settle timing.
	Waiter *settle.Waiter
	// NoInitialPause skips the pause before the first rule.
	NoInitialPause bool
}

// Result is the outcome of one Enable call.
type Result struct {
	RunID  string
	Load   *config.LoadResult
	Report *sequencer.Report
}

// Extension applies a rule source to a backend. Enable calls are serialized.
type Extension struct {
	backend platform.Backend
	source  RuleSource
	log     *zap.SugaredLogger
	opts    Options

	mu      sync.Mutex
	enabled bool
}

// New creates an Extension. log may be nil.
func New(backend platform.Backend, source RuleSource, log *zap.SugaredLogger, opts Options) *Extension {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Extension{backend: backend, source: source, log: log, opts: opts}
}

// Init is the one-time setup hook. There is nothing to prepare.
func (e *Extension) Init() error {
	return nil
}

// Disable is the teardown hook. Nothing is held between runs.
func (e *Extension) Disable() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = false
	return nil
}

// Enabled reports whether Enable has completed at least once since the
// last Disable.
func (e *Extension) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

// Enable loads the rules and runs the full sequence once. Errors are
// returned only when nothing could be applied: the lock is held elsewhere,
// the rules could not be read, the platform could not be queried, or ctx
// ended the run.
func (e *Extension) Enable(ctx context.Context) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	log, runID := logging.WithRun(e.log)
	res := &Result{RunID: runID}

	if !e.opts.NoLock {
		lock, err := e.lock()
		if err != nil {
			return res, err
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				log.Warnw("failed to release run lock", "error", err)
			}
		}()
	}

	loaded, err := e.source.Load()
	if err != nil {
		log.Errorw("failed to load rules", "source", e.source.String(), "error", err)
		return res, fmt.Errorf("load rules: %w", err)
	}
	res.Load = loaded
	cfg := loaded.Config
	e.applyLevel(log, cfg.LogLevel)

	for _, skipped := range loaded.Skipped {
		log.Warnw("skipping invalid rule", "error", skipped)
	}
	for _, w := range loaded.Warnings {
		log.Warnw(w)
	}
	log.Infow("loaded rules", "source", loaded.File, "rules", len(cfg.Rules), "skipped", len(loaded.Skipped))

	backend := e.backend
	if e.opts.DryRun {
		backend = platform.NewDryRunBackend(backend, log)
	}

	snap, err := TakeSnapshot(backend)
	if err != nil {
		log.Errorw("failed to query platform", "error", err)
		return res, err
	}
	snap.Log(log)

	waiter := sequencer.WaiterFor(cfg.Settle)
	if e.opts.Waiter != nil {
		waiter = *e.opts.Waiter
	}
	seq := sequencer.New(backend,
		sequencer.WithLogger(log),
		sequencer.WithWaiter(waiter),
		sequencer.WithInitialPause(!e.opts.NoInitialPause),
	)

	systemd.Status("applying %d rules", len(cfg.Rules))
	report, err := seq.Run(ctx, cfg.Rules)
	res.Report = report
	if err != nil {
		systemd.Status("run canceled")
		return res, err
	}

	failed := len(report.Failed())
	systemd.Status("applied %d of %d rules", len(report.Rules)-failed, len(report.Rules))
	e.enabled = true
	return res, nil
}

func (e *Extension) lock() (*runtimepath.Lock, error) {
	path := e.opts.LockPath
	if path == "" {
		p, err := runtimepath.LockPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	lock, err := runtimepath.TryLock(path)
	if err != nil {
		if errors.Is(err, runtimepath.ErrLocked) {
			e.log.Warnw("another run holds the lock", "path", path)
		}
		return nil, err
	}
	return lock, nil
}

func (e *Extension) applyLevel(log *zap.SugaredLogger, name string) {
	if e.opts.Level == nil || e.opts.LevelPinned {
		return
	}
	lvl, err := logging.ParseLevel(name)
	if err != nil {
		log.Warnw("ignoring log level", "error", err)
		return
	}
	if lvl != e.opts.Level.Level() {
		e.opts.Level.SetLevel(lvl)
	}
}
