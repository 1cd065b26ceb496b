package diag

import (
	"github.com/rs/zerolog"
	"github.com/ttcn3tools/ttcnsem/internal/sourcecode"
)

// A Collector is a Sink that keeps every diagnostic in reporting order.
type Collector struct {
	diagnostics []Diagnostic
	internal    []error
	logger      zerolog.Logger
}

func NewCollector(logger zerolog.Logger) *Collector {
	return &Collector{logger: logger}
}

func (c *Collector) Report(span sourcecode.Span, severity Severity, message string) {
	if severity == Ignore {
		return
	}
	c.diagnostics = append(c.diagnostics, Diagnostic{Span: span, Severity: severity, Message: message})
}

func (c *Collector) Internal(err error) {
	c.logger.Error().Err(err).Msg("invariant violation")
	c.internal = append(c.internal, err)
}

// Diagnostics returns all diagnostics, the result should not be modified.
func (c *Collector) Diagnostics() []Diagnostic {
	return c.diagnostics
}

func (c *Collector) Errors() []Diagnostic {
	return c.withSeverity(Error)
}

func (c *Collector) Warnings() []Diagnostic {
	return c.withSeverity(Warning)
}

func (c *Collector) InternalErrors() []error {
	return c.internal
}

func (c *Collector) HasErrors() bool {
	for _, d := range c.diagnostics {
		if d.Severity == Error {
			return true
		}
	}
	return len(c.internal) > 0
}

func (c *Collector) Messages() []string {
	messages := make([]string, len(c.diagnostics))
	for i, d := range c.diagnostics {
		messages[i] = d.Message
	}
	return messages
}

func (c *Collector) Reset() {
	c.diagnostics = nil
	c.internal = nil
}

func (c *Collector) withSeverity(severity Severity) []Diagnostic {
	var result []Diagnostic
	for _, d := range c.diagnostics {
		if d.Severity == severity {
			result = append(result, d)
		}
	}
	return result
}

// Forward reports diagnostics to sink in order.
func Forward(sink Sink, diagnostics []Diagnostic) {
	for _, d := range diagnostics {
		sink.Report(d.Span, d.Severity, d.Message)
	}
}

type nopSink struct{}

func (nopSink) Report(sourcecode.Span, Severity, string) {}
func (nopSink) Internal(error)                          {}

// Discard is a Sink that drops everything.
var Discard Sink = nopSink{}
