package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/maruel/natural"
	"github.com/muesli/termenv"
	"github.com/ttcn3tools/ttcnsem/internal/core/analysis"
	"github.com/ttcn3tools/ttcnsem/internal/core/semantic"
	"github.com/ttcn3tools/ttcnsem/internal/diag"
	"github.com/ttcn3tools/ttcnsem/internal/sourcecode"
)

type diagnosticReport struct {
	Severity diag.Severity            `json:"severity"`
	Message  string                   `json:"message"`
	Position sourcecode.PositionRange `json:"position"`
}

// A fileReport is the outcome of checking a single module description.
type fileReport struct {
	Path           string             `json:"path"`
	Module         string             `json:"module,omitempty"`
	Epoch          uint64             `json:"epoch"`
	Rechecked      int                `json:"rechecked"`
	LoadError      string             `json:"loadError,omitempty"`
	Diagnostics    []diagnosticReport `json:"diagnostics"`
	InternalErrors []string           `json:"internalErrors,omitempty"`
	Cycles         [][]string         `json:"cycles,omitempty"`
	Constants      map[string]string  `json:"constants,omitempty"`

	errors, warnings int
}

func newLoadErrorReport(path string, err error) *fileReport {
	return &fileReport{Path: path, LoadError: err.Error(), Diagnostics: []diagnosticReport{}}
}

func newFileReport(path string, file *sourcecode.File, result *analysis.Result, cycles [][]string) *fileReport {
	report := &fileReport{
		Path:        path,
		Module:      result.Module,
		Epoch:       uint64(result.Epoch),
		Rechecked:   result.Rechecked,
		Diagnostics: make([]diagnosticReport, 0, len(result.Diagnostics)),
		Cycles:      cycles,
		Constants:   map[string]string{},
	}

	for _, d := range result.Diagnostics {
		report.Diagnostics = append(report.Diagnostics, diagnosticReport{
			Severity: d.Severity,
			Message:  d.Message,
			Position: file.Position(d.Span),
		})
		switch d.Severity {
		case diag.Error:
			report.errors++
		case diag.Warning:
			report.warnings++
		}
	}
	for _, err := range result.InternalErrors {
		report.InternalErrors = append(report.InternalErrors, err.Error())
	}
	for name, v := range result.Constants {
		if v != nil {
			report.Constants[name] = semantic.ValueString(v)
		}
	}
	return report
}

func (r *fileReport) failed() bool {
	return r.LoadError != "" || r.errors > 0 || len(r.InternalErrors) > 0
}

type printerOptions struct {
	json    bool
	noColor bool
	values  bool
}

// A printer writes reports as text or as JSON, it is safe for concurrent use.
type printer struct {
	lock   sync.Mutex
	w      io.Writer
	output *termenv.Output
	runID  string
	opts   printerOptions
}

func newPrinter(w io.Writer, runID string, opts printerOptions) *printer {
	profile := termenv.Ascii
	if !opts.noColor {
		profile = termenv.ANSI
	}
	return &printer{
		w:      w,
		output: termenv.NewOutput(w, termenv.WithProfile(profile)),
		runID:  runID,
		opts:   opts,
	}
}

func (p *printer) print(reports ...*fileReport) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.opts.json {
		encoder := json.NewEncoder(p.w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]any{
			"run":   p.runID,
			"files": reports,
		})
	}

	for _, report := range reports {
		p.printText(report)
	}
	return nil
}

func (p *printer) printText(r *fileReport) {
	out := p.output

	if r.LoadError != "" {
		fmt.Fprintln(p.w, out.String(r.LoadError).Foreground(out.Color("1")).String())
		return
	}

	for _, d := range r.Diagnostics {
		severity := out.String(d.Severity.String())
		switch d.Severity {
		case diag.Error:
			severity = severity.Foreground(out.Color("1")).Bold()
		case diag.Warning:
			severity = severity.Foreground(out.Color("3"))
		}
		fmt.Fprintf(p.w, "%s %s: %s\n", d.Position, severity, d.Message)
	}
	for _, err := range r.InternalErrors {
		fmt.Fprintf(p.w, "%s: %s %s\n", r.Path, out.String("internal error:").Foreground(out.Color("5")), err)
	}
	for _, cycle := range r.Cycles {
		fmt.Fprintf(p.w, "%s: dependency cycle: %s\n", r.Path, strings.Join(cycle, " -> "))
	}

	if p.opts.values && len(r.Constants) > 0 {
		names := make([]string, 0, len(r.Constants))
		for name := range r.Constants {
			names = append(names, name)
		}
		slices.SortFunc(names, naturalCompare)
		for _, name := range names {
			fmt.Fprintf(p.w, "  %s = %s\n", out.String(name).Bold(), r.Constants[name])
		}
	}

	summary := fmt.Sprintf("%s: %d error(s), %d warning(s), epoch %d, %d node(s) checked", r.Path, r.errors, r.warnings, r.Epoch, r.Rechecked)
	if r.failed() {
		fmt.Fprintln(p.w, out.String(summary).Foreground(out.Color("1")))
	} else {
		fmt.Fprintln(p.w, out.String(summary).Foreground(out.Color("2")))
	}
}

func naturalCompare(a, b string) int {
	switch {
	case natural.Less(a, b):
		return -1
	case natural.Less(b, a):
		return 1
	}
	return 0
}
