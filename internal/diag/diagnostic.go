package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ttcn3tools/ttcnsem/internal/sourcecode"
)

type Severity int

const (
	Ignore Severity = iota
	Warning
	Error
)

var ErrUnknownSeverity = errors.New("unknown severity")

func (s Severity) String() string {
	switch s {
	case Ignore:
		return "ignore"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ignore", "none", "off":
		return Ignore, nil
	case "warning", "warn":
		return Warning, nil
	case "error":
		return Error, nil
	}
	return Ignore, fmt.Errorf("%w: %q", ErrUnknownSeverity, s)
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	severity, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = severity
	return nil
}

type Diagnostic struct {
	Span     sourcecode.Span `json:"span"`
	Severity Severity        `json:"severity"`
	Message  string          `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s: %s", d.Span, d.Severity, d.Message)
}

// A Sink receives the diagnostics produced by a check pass. Internal invariant violations are
// not language diagnostics and go through Internal.
type Sink interface {
	Report(span sourcecode.Span, severity Severity, message string)
	Internal(err error)
}

// An InvariantViolation is an internal error: it reveals a bug in the analyzer, not in the analyzed code.
type InvariantViolation struct {
	Span    sourcecode.Span
	Message string
}

func (v InvariantViolation) Error() string {
	return "internal error at " + v.Span.String() + ": " + v.Message
}

func Invariant(span sourcecode.Span, format string, args ...any) error {
	return InvariantViolation{Span: span, Message: fmt.Sprintf(format, args...)}
}
