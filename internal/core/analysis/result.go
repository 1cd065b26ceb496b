package analysis

import (
	"slices"
	"strings"

	"github.com/ttcn3tools/ttcnsem/internal/core/attrib"
	"github.com/ttcn3tools/ttcnsem/internal/core/epoch"
	"github.com/ttcn3tools/ttcnsem/internal/core/semantic"
	"github.com/ttcn3tools/ttcnsem/internal/diag"
)

type Result struct {
	Module string
	Epoch  epoch.Epoch

	// diagnostics of every node, ordered by position.
	Diagnostics    []diag.Diagnostic
	InternalErrors []error

	// number of nodes checked during the pass, the other nodes were served from their cache.
	Rechecked int

	Constants   map[string]semantic.Value //folded values, nil if not known at analysis time
	Expressions map[string]semantic.Value
	Attributes  map[string]attrib.Resolved
	Descriptors map[string]*attrib.ErroneousDescriptor
}

func newResult(module string, e epoch.Epoch) *Result {
	return &Result{
		Module:      module,
		Epoch:       e,
		Constants:   map[string]semantic.Value{},
		Expressions: map[string]semantic.Value{},
		Attributes:  map[string]attrib.Resolved{},
		Descriptors: map[string]*attrib.ErroneousDescriptor{},
	}
}

func (r *Result) addDiagnostics(diagnostics []diag.Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, diagnostics...)
}

func (r *Result) sortDiagnostics() {
	slices.SortStableFunc(r.Diagnostics, func(a, b diag.Diagnostic) int {
		if a.Span.Start != b.Span.Start {
			return int(a.Span.Start - b.Span.Start)
		}
		return strings.Compare(a.Message, b.Message)
	})
	r.Diagnostics = slices.Compact(r.Diagnostics)
}

func (r *Result) Errors() []diag.Diagnostic {
	return r.withSeverity(diag.Error)
}

func (r *Result) Warnings() []diag.Diagnostic {
	return r.withSeverity(diag.Warning)
}

func (r *Result) HasErrors() bool {
	return len(r.Errors()) > 0 || len(r.InternalErrors) > 0
}

func (r *Result) withSeverity(severity diag.Severity) []diag.Diagnostic {
	var result []diag.Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == severity {
			result = append(result, d)
		}
	}
	return result
}
