package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/ttcn3tools/ttcnsem/internal/core/analysis"
	"github.com/ttcn3tools/ttcnsem/internal/modfile"
)

const DEFAULT_WATCH_DEBOUNCE = 200 * time.Millisecond

func WatchModules(args []string, outW, errW io.Writer) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	CancelOnSigintSigterm(cancel, done, ROOT_CTX_TEARDOWN_TIMEOUT)

	return watchModules(ctx, args, outW, errW)
}

// watchModules checks the module descriptions and checks them again every time they change, it returns when ctx is done.
func watchModules(ctx context.Context, args []string, outW, errW io.Writer) int {
	flags := flag.NewFlagSet(WATCH_SUBCMD, flag.ContinueOnError)
	flags.SetOutput(errW)

	var opts options
	opts.register(flags)
	debounceDuration := flags.Duration("debounce", DEFAULT_WATCH_DEBOUNCE, "how long to wait after the last change before checking again")

	if showHelp(flags, args, outW) {
		return 0
	}
	if err := flags.Parse(args); err != nil {
		return ERROR_STATUS_CODE
	}

	env, err := opts.environment(outW, errW)
	if err != nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}

	paths, err := expandPatterns(flags.Args())
	if err != nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}

	w, err := newModuleWatcher(env, paths)
	if err != nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}
	defer w.watcher.Close()

	w.run(ctx, *debounceDuration)
	return 0
}

type moduleWatcher struct {
	env     *environment
	watcher *fsnotify.Watcher

	//absolute path -> path as given on the command line
	files map[string]string

	//only accessed by the goroutine calling run
	sessions map[string]*analysis.Session

	pending cmap.ConcurrentMap[string, struct{}]
	recheck chan struct{}
}

func newModuleWatcher(env *environment, paths []string) (*moduleWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &moduleWatcher{
		env:      env,
		watcher:  watcher,
		files:    map[string]string{},
		sessions: map[string]*analysis.Session{},
		pending:  cmap.New[struct{}](),
		recheck:  make(chan struct{}, 1),
	}

	//editors often replace files instead of writing them, so the parent directories are watched.
	dirs := map[string]struct{}{}
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			watcher.Close()
			return nil, err
		}
		w.files[abs] = path
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	return w, nil
}

func (w *moduleWatcher) run(ctx context.Context, debounceDuration time.Duration) {
	logger := w.env.logger
	debounced := debounce.New(debounceDuration)

	for abs := range w.files {
		w.pending.Set(abs, struct{}{})
	}
	w.checkPending()

	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("stop watching")
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			abs := filepath.Clean(event.Name)
			if _, ok := w.files[abs]; !ok {
				continue
			}

			logger.Trace().Str("file", abs).Str("op", event.Op.String()).Send()
			w.pending.Set(abs, struct{}{})

			debounced(func() {
				select {
				case w.recheck <- struct{}{}:
				default:
				}
			})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Err(err).Msg("watcher error")
		case <-w.recheck:
			w.checkPending()
		}
	}
}

func (w *moduleWatcher) checkPending() {
	for _, abs := range w.pending.Keys() {
		w.pending.Remove(abs)

		report := w.check(abs)
		if err := w.env.printer.print(report); err != nil {
			w.env.logger.Err(err).Msg("failed to print report")
		}
	}
}

// check loads the module description at abs again, the session of the file is kept between changes.
func (w *moduleWatcher) check(abs string) *fileReport {
	path := w.files[abs]

	desc, err := modfile.Load(abs, w.env.logger)
	if err != nil {
		return newLoadErrorReport(path, err)
	}

	session, ok := w.sessions[abs]
	if ok {
		session.Reload(desc.Module)
	} else {
		session = analysis.NewSession(desc.Module, analysis.Configuration{Config: w.env.config, Logger: w.env.logger})
		w.sessions[abs] = session
	}

	result := session.Check()
	return newFileReport(path, desc.File, result, session.DependencyCycles())
}
