package semantic

import (
	"github.com/rs/zerolog"
	"github.com/ttcn3tools/ttcnsem/internal/config"
	"github.com/ttcn3tools/ttcnsem/internal/core/epoch"
	"github.com/ttcn3tools/ttcnsem/internal/core/slog"
	"github.com/ttcn3tools/ttcnsem/internal/diag"
	"github.com/ttcn3tools/ttcnsem/internal/sourcecode"
)

const LOG_SRC = "semantic"

// ExpectedKind is the kind of value expected by the context of a value or template, the kinds are
// ordered from the most to the least restrictive.
type ExpectedKind int

const (
	ExpectedConstant ExpectedKind = iota
	ExpectedStaticValue
	ExpectedDynamicValue
	ExpectedTemplate
)

func (k ExpectedKind) String() string {
	switch k {
	case ExpectedConstant:
		return "constant"
	case ExpectedStaticValue:
		return "static value"
	case ExpectedDynamicValue:
		return "dynamic value"
	case ExpectedTemplate:
		return "template"
	}
	return "?"
}

func ParseExpectedKind(s string) (ExpectedKind, bool) {
	for k := ExpectedConstant; k <= ExpectedTemplate; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// valueKind returns the kind used for the value operands of expressions, operands are never templates.
func (k ExpectedKind) valueKind() ExpectedKind {
	if k == ExpectedTemplate {
		return ExpectedDynamicValue
	}
	return k
}

// A Resolver resolves references to declarations, it is provided by the scope layer.
type Resolver interface {
	Resolve(ref *Reference) (*Declaration, bool)
}

// MapResolver is a Resolver for a single flat scope.
type MapResolver map[string]*Declaration

func (r MapResolver) Resolve(ref *Reference) (*Declaration, bool) {
	d, ok := r[ref.Name]
	return d, ok
}

func (r MapResolver) Add(decls ...*Declaration) {
	for _, d := range decls {
		r[d.Name] = d
	}
}

// A DependencyRecorder is informed every time a node being checked uses a declaration.
type DependencyRecorder interface {
	DependsOn(dependent, dependency any)
}

type ContextConfig struct {
	Epoch        epoch.Epoch //defaults to epoch.First
	Sink         diag.Sink
	Resolver     Resolver
	Config       *config.Config //defaults to config.Default()
	Logger       *zerolog.Logger    //defaults to a disabled logger
	Dependencies DependencyRecorder //optional
}

// A Context is passed to every check and evaluation: it carries the epoch of the pass, the recursion
// chain and the collaborators.
type Context struct {
	Epoch        epoch.Epoch
	Sink         diag.Sink
	Resolver     Resolver
	Config       *config.Config
	Logger       zerolog.Logger
	Dependencies DependencyRecorder

	chain  *epoch.Chain
	owners []any

	//diagnostics of the node being checked, nil at the top level
	active *[]diag.Diagnostic

	//diagnostics already sent to Sink during sentEpoch
	sent      map[diag.Diagnostic]struct{}
	sentEpoch epoch.Epoch
}

func NewContext(cfg ContextConfig) *Context {
	ctx := &Context{
		Epoch:        cfg.Epoch,
		Sink:         cfg.Sink,
		Resolver:     cfg.Resolver,
		Config:       cfg.Config,
		Dependencies: cfg.Dependencies,
	}
	if cfg.Logger != nil {
		ctx.Logger = slog.ChildLoggerForSource(*cfg.Logger, LOG_SRC)
	} else {
		ctx.Logger = zerolog.Nop()
	}
	if ctx.Epoch == 0 {
		ctx.Epoch = epoch.First
	}
	if ctx.Sink == nil {
		ctx.Sink = diag.Discard
	}
	if ctx.Resolver == nil {
		ctx.Resolver = MapResolver{}
	}
	if ctx.Config == nil {
		ctx.Config = config.Default()
	}
	ctx.chain = epoch.NewChain(ctx)
	return ctx
}

// NextEpoch starts a new pass: every node checked before becomes stale.
func (ctx *Context) NextEpoch() epoch.Epoch {
	ctx.Epoch = ctx.Epoch.Next()
	ctx.chain = epoch.NewChain(ctx)
	ctx.owners = nil
	ctx.active = nil
	ctx.Logger.Debug().Uint64("epoch", uint64(ctx.Epoch)).Msg("new epoch")
	return ctx.Epoch
}

// WithSink returns a copy of the context that reports to sink, the copy has its own recursion chain.
func (ctx *Context) WithSink(sink diag.Sink) *Context {
	c := *ctx
	c.Sink = sink
	c.owners = nil
	c.active = nil
	c.sent = nil
	c.chain = epoch.NewChain(&c)
	return &c
}

// Chain returns the recursion guard of the current pass.
func (ctx *Context) Chain() *epoch.Chain {
	return ctx.chain
}

// Report implements diag.Sink: diagnostics go to the node being checked, or to Sink at the top level.
func (ctx *Context) Report(span sourcecode.Span, severity diag.Severity, message string) {
	if severity == diag.Ignore {
		return
	}
	d := diag.Diagnostic{Span: span, Severity: severity, Message: message}
	if ctx.active != nil {
		*ctx.active = append(*ctx.active, d)
		return
	}
	ctx.send(d)
}

// send reports d to Sink once per epoch.
func (ctx *Context) send(d diag.Diagnostic) {
	if ctx.sent == nil || ctx.sentEpoch != ctx.Epoch {
		ctx.sent = map[diag.Diagnostic]struct{}{}
		ctx.sentEpoch = ctx.Epoch
	}
	if _, ok := ctx.sent[d]; ok {
		return
	}
	ctx.sent[d] = struct{}{}
	ctx.Sink.Report(d.Span, d.Severity, d.Message)
}

func (ctx *Context) Internal(err error) {
	ctx.Sink.Internal(err)
}

// beginNode makes the diagnostics reported until endNode go to a new list owned by node.
func (ctx *Context) beginNode(node any) (prev *[]diag.Diagnostic, list *[]diag.Diagnostic) {
	prev = ctx.active
	list = new([]diag.Diagnostic)
	ctx.active = list
	ctx.owners = append(ctx.owners, node)
	return prev, list
}

func (ctx *Context) endNode(prev *[]diag.Diagnostic) {
	ctx.active = prev
	ctx.owners[len(ctx.owners)-1] = nil
	ctx.owners = ctx.owners[:len(ctx.owners)-1]
}

// Within calls f with node as the node being checked: node depends on the declarations f resolves and the
// diagnostics reported by f are returned instead of being reported.
func (ctx *Context) Within(node any, f func()) []diag.Diagnostic {
	prev, list := ctx.beginNode(node)
	defer ctx.endNode(prev)
	f()
	return dedup(*list)
}

// forward sends the diagnostics of a node part (e.g. a sub expression) to the node being checked, or
// to Sink at the top level.
func (ctx *Context) forward(diagnostics []diag.Diagnostic) {
	if ctx.active != nil {
		*ctx.active = append(*ctx.active, diagnostics...)
		return
	}
	ctx.sendAll(diagnostics)
}

func (ctx *Context) sendAll(diagnostics []diag.Diagnostic) {
	for _, d := range diagnostics {
		if d.Severity != diag.Ignore {
			ctx.send(d)
		}
	}
}

func (ctx *Context) recordDependency(dependency any) {
	if ctx.Dependencies == nil {
		return
	}
	for _, owner := range ctx.owners {
		if owner != dependency {
			ctx.Dependencies.DependsOn(owner, dependency)
		}
	}
}

// dedup removes the repeated diagnostics of a list, the first occurrence is kept.
func dedup(diagnostics []diag.Diagnostic) []diag.Diagnostic {
	if len(diagnostics) < 2 {
		return diagnostics
	}
	seen := make(map[diag.Diagnostic]struct{}, len(diagnostics))
	result := diagnostics[:0:0]
	for _, d := range diagnostics {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		result = append(result, d)
	}
	return result
}

func (ctx *Context) errorf(span sourcecode.Span, message string) {
	ctx.Report(span, diag.Error, message)
}

func (ctx *Context) typeCompatibilitySeverity() diag.Severity {
	return ctx.Config.TypeCompatibility
}

func (ctx *Context) noEffectSeverity() diag.Severity {
	return ctx.Config.NoEffect
}
