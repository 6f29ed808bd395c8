package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/1broseidon/deskplace/internal/activation"
	"github.com/1broseidon/deskplace/internal/config"
	"github.com/1broseidon/deskplace/internal/systemd"
)

func runApply(args []string) int {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var rf runFlags
	rf.register(fs)
	strict := fs.Bool("strict", false, "Exit 1 when any rule recorded a failure")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskplace apply [options]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Apply every rule once, in order. Failed rules are logged and skipped.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "apply takes no arguments")
		return 2
	}

	log, opts, err := rf.logger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	defer func() { _ = log.Sync() }()

	backend, err := openBackend()
	if err != nil {
		log.Errorw("cannot reach the window manager", "error", err)
		return 1
	}
	defer backend.Disconnect()

	ctx, cancel := signalContext()
	defer cancel()

	ext := activation.New(backend, rf.source(), log, opts)
	if err := ext.Init(); err != nil {
		log.Errorw("init failed", "error", err)
		return 1
	}
	defer func() { _ = ext.Disable() }()

	res, err := ext.Enable(ctx)
	if err != nil {
		log.Errorw("apply failed", "error", err)
		return 1
	}
	if *strict && len(res.Report.Failed()) > 0 {
		return 1
	}
	return 0
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var rf runFlags
	rf.register(fs)
	debounce := fs.Duration("debounce", 500*time.Millisecond, "Quiet period after a change before re-applying")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskplace watch [options]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Apply the rules now, then again whenever the rules file changes or")
		fmt.Fprintln(os.Stderr, "SIGHUP is received. Runs never overlap. Suited to a systemd user unit")
		fmt.Fprintln(os.Stderr, "with Type=notify.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if rf.builtin {
		fmt.Fprintln(os.Stderr, "watch needs a rules file; --builtin has nothing to watch")
		return 2
	}

	log, opts, err := rf.logger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	defer func() { _ = log.Sync() }()

	path := rf.config
	if path == "" {
		path, err = config.DefaultRulesPath()
		if err != nil {
			log.Errorw("no rules file to watch", "error", err)
			return 1
		}
	}
	path, err = filepath.Abs(path)
	if err != nil {
		log.Errorw("bad rules path", "error", err)
		return 1
	}

	backend, err := openBackend()
	if err != nil {
		log.Errorw("cannot reach the window manager", "error", err)
		return 1
	}
	defer backend.Disconnect()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Errorw("failed to create file watcher", "error", err)
		return 1
	}
	defer watcher.Close()
	// Editors often replace the file, so watch directories, not files.
	targets := rulesTargets(path)
	for _, dir := range watchDirs(targets) {
		if err := watcher.Add(dir); err != nil {
			log.Errorw("failed to watch rules directory", "path", dir, "error", err)
			return 1
		}
	}
	log.Debugw("watching rules", "files", targets)

	ctx, cancel := signalContext()
	defer cancel()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	ext := activation.New(backend, activation.FileSource{Path: path}, log, opts)
	if err := ext.Init(); err != nil {
		log.Errorw("init failed", "error", err)
		return 1
	}

	apply := func(reason string) {
		log.Infow("applying rules", "reason", reason)
		if _, err := ext.Enable(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorw("apply failed", "error", err)
		}
	}
	apply("start")

	if _, err := systemd.Ready("watching " + path); err != nil {
		log.Warnw("systemd notify failed", "error", err)
	}
	go func() {
		if err := systemd.WatchdogLoop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warnw("systemd watchdog stopped", "error", err)
		}
	}()

	triggers := make(chan string, 1)
	go forwardRuleEvents(ctx, watcher, targets, triggers, log)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				select {
				case triggers <- "SIGHUP":
				default:
				}
			}
		}
	}()

	debounceLoop(ctx, triggers, *debounce, apply)

	systemd.Stopping()
	_ = ext.Disable()
	log.Info("shutting down")
	return 0
}

// forwardRuleEvents turns file events for targets into triggers. A trigger
// that cannot be queued is dropped; one pending run covers it.
func forwardRuleEvents(ctx context.Context, watcher *fsnotify.Watcher, targets []string, out chan<- string, log *zap.SugaredLogger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !isRulesEvent(ev, targets) {
				continue
			}
			log.Debugw("rules file changed", "op", ev.Op.String())
			select {
			case out <- "rules file changed":
			default:
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warnw("file watcher error", "error", err)
		}
	}
}

func isRulesEvent(ev fsnotify.Event, targets []string) bool {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(ev.Name)
	for _, t := range targets {
		if name == t {
			return true
		}
	}
	return false
}

// rulesTargets returns the rules path and, when it is a symlink, the file it
// resolves to. Edits land on the target; relinking lands on the link.
func rulesTargets(path string) []string {
	targets := []string{filepath.Clean(path)}
	if resolved, err := filepath.EvalSymlinks(path); err == nil && resolved != targets[0] {
		targets = append(targets, resolved)
	}
	return targets
}

func watchDirs(targets []string) []string {
	seen := make(map[string]bool, len(targets))
	var dirs []string
	for _, t := range targets {
		dir := filepath.Dir(t)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// debounceLoop calls fn with the latest reason once triggers have been
// quiet for wait. fn runs on the calling goroutine, so calls never overlap.
func debounceLoop(ctx context.Context, triggers <-chan string, wait time.Duration, fn func(reason string)) {
	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending string
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case reason := <-triggers:
			pending = reason
			if timer == nil {
				timer = time.NewTimer(wait)
			} else {
				timer.Reset(wait)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			fn(pending)
		}
	}
}
