package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/oklog/ulid/v2"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"
	"github.com/ttcn3tools/ttcnsem/internal/config"
	"github.com/ttcn3tools/ttcnsem/internal/core/analysis"
	"github.com/ttcn3tools/ttcnsem/internal/core/slog"
	"github.com/ttcn3tools/ttcnsem/internal/modfile"
	"golang.org/x/term"
)

var ErrNoModuleFiles = errors.New("no module description matches the patterns")

// options shared by the check and watch subcommands.
type options struct {
	json       bool
	configPath string
	logLevel   string
	noColor    bool
	values     bool
}

func (o *options) register(flags *flag.FlagSet) {
	flags.BoolVar(&o.json, "json", false, "print the reports as JSON")
	flags.StringVar(&o.configPath, "config", "", "path of the configuration file, defaults to "+config.CONFIG_RELPATH+" in the XDG config directories")
	flags.StringVar(&o.logLevel, "log-level", "warn", "log level (trace, debug, info, warn, error)")
	flags.BoolVar(&o.noColor, "no-color", false, "disable colors")
	flags.BoolVar(&o.values, "values", false, "print the folded value of every constant")
}

// environment is what a run of a subcommand needs once the options are interpreted.
type environment struct {
	runID   string
	config  *config.Config
	logger  zerolog.Logger
	printer *printer
}

func (o *options) environment(outW, errW io.Writer) (*environment, error) {
	level, err := slog.ParseLevel(o.logLevel)
	if err != nil {
		return nil, err
	}

	var cfg *config.Config
	if o.configPath != "" {
		cfg, err = config.Load(o.configPath)
	} else {
		cfg, err = config.LoadDefaultFile()
	}
	if err != nil {
		return nil, err
	}

	runID := ulid.Make().String()
	logger := slog.NewConsoleLogger(errW, level, runID, o.noColor || !isTerminal(errW))

	return &environment{
		runID:   runID,
		config:  cfg,
		logger:  logger,
		printer: newPrinter(outW, runID, printerOptions{json: o.json, noColor: o.noColor || !isTerminal(outW), values: o.values}),
	}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func CheckModules(args []string, outW, errW io.Writer) int {
	flags := flag.NewFlagSet(CHECK_SUBCMD, flag.ContinueOnError)
	flags.SetOutput(errW)

	var opts options
	opts.register(flags)
	epochs := flags.Int("epochs", 1, "number of passes, every pass after the first one starts a new epoch")

	if showHelp(flags, args, outW) {
		return 0
	}
	if err := flags.Parse(args); err != nil {
		return ERROR_STATUS_CODE
	}
	if *epochs < 1 {
		fmt.Fprintln(errW, "-epochs should be at least 1")
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

	env.logger.Debug().Int("files", len(paths)).Msg("checking module descriptions")

	reports := cmap.New[*fileReport]()
	var wg sync.WaitGroup
	for _, path := range paths {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reports.Set(path, checkFile(path, env, *epochs))
		}()
	}
	wg.Wait()

	ordered := make([]*fileReport, 0, len(paths))
	for _, path := range paths {
		report, _ := reports.Get(path)
		ordered = append(ordered, report)
	}

	if err := env.printer.print(ordered...); err != nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}

	if slices.ContainsFunc(ordered, (*fileReport).failed) {
		return ERROR_STATUS_CODE
	}
	return 0
}

// checkFile loads and checks a module description, the module is checked once per epoch.
func checkFile(path string, env *environment, epochs int) *fileReport {
	desc, err := modfile.Load(path, env.logger)
	if err != nil {
		return newLoadErrorReport(path, err)
	}

	session := analysis.NewSession(desc.Module, analysis.Configuration{Config: env.config, Logger: env.logger})
	result := session.Check()
	for i := 1; i < epochs; i++ {
		session.NextEpoch()
		result = session.Check()
	}
	return newFileReport(path, desc.File, result, session.DependencyCycles())
}

// expandPatterns returns the files matching the doublestar patterns, ordered naturally and without duplicates.
func expandPatterns(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("%w: no pattern", ErrNoModuleFiles)
	}

	seen := map[string]struct{}{}
	var paths []string

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		for _, match := range matches {
			match = filepath.Clean(match)
			if _, ok := seen[match]; ok {
				continue
			}
			seen[match] = struct{}{}
			paths = append(paths, match)
		}
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoModuleFiles, patterns)
	}
	slices.SortFunc(paths, naturalCompare)
	return paths, nil
}
