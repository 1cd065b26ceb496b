package analysis

import (
	"github.com/rs/zerolog"
	"github.com/ttcn3tools/ttcnsem/internal/config"
	"github.com/ttcn3tools/ttcnsem/internal/core/attrib"
	"github.com/ttcn3tools/ttcnsem/internal/core/epoch"
	"github.com/ttcn3tools/ttcnsem/internal/core/semantic"
	"github.com/ttcn3tools/ttcnsem/internal/core/slog"
	"github.com/ttcn3tools/ttcnsem/internal/diag"
	"github.com/ttcn3tools/ttcnsem/internal/edits"
	"github.com/ttcn3tools/ttcnsem/internal/sourcecode"
)

const LOG_SRC = "analysis"

type Configuration struct {
	Config *config.Config //defaults to config.Default()
	Logger zerolog.Logger
}

// A Session checks a module across edits: the nodes touched by an edit, and their dependents,
// are the only nodes checked again by the next pass.
type Session struct {
	module  *Module
	ctx     *semantic.Context
	tracker *edits.Tracker
	logger  zerolog.Logger
}

func NewSession(m *Module, cfg Configuration) *Session {
	s := &Session{
		logger: slog.ChildLoggerForSource(cfg.Logger, LOG_SRC),
	}

	s.ctx = semantic.NewContext(semantic.ContextConfig{
		Config: cfg.Config,
		Logger: &cfg.Logger,
	})
	s.setModule(m)
	return s
}

func (s *Session) setModule(m *Module) {
	s.module = m
	s.tracker = edits.NewTracker(s.logger)
	s.ctx.Resolver = m.Resolver()
	s.ctx.Dependencies = s.tracker

	for _, node := range s.nodes() {
		s.tracker.Track(node)
	}

	//nested expressions have their own cache, they are invalidated with their owner
	nested := func(owner edits.Node) func(*semantic.Expression) {
		return func(e *semantic.Expression) {
			s.tracker.DependsOn(e, owner)
		}
	}
	for _, d := range m.Declarations {
		walkValue(d.Value, nested(d))
		walkExpressions(d.Template, nested(d))
	}
	for _, check := range m.Expressions {
		walkExpressions(check.Expr, nested(check.Expr))
	}
}

type checkedNode interface {
	edits.Node
	CheckedAt() (epoch.Epoch, bool)
}

func (s *Session) nodes() []checkedNode {
	var nodes []checkedNode
	for _, d := range s.module.Declarations {
		nodes = append(nodes, d)
	}
	for _, e := range s.module.Expressions {
		nodes = append(nodes, e.Expr)
	}
	for _, p := range s.module.Attributes.Paths() {
		nodes = append(nodes, p)
	}
	return nodes
}

func (s *Session) Module() *Module {
	return s.module
}

func (s *Session) Epoch() epoch.Epoch {
	return s.ctx.Epoch
}

func (s *Session) Tracker() *edits.Tracker {
	return s.tracker
}

// Check checks every node of the module at the current epoch, a node that is still fresh is not checked again.
// Siblings of an erroneous node are checked as well.
func (s *Session) Check() *Result {
	m := s.module
	collector := diag.NewCollector(s.logger)
	ctx := s.ctx.WithSink(collector)

	result := newResult(m.Name, ctx.Epoch)

	for _, node := range s.nodes() {
		if e, ok := node.CheckedAt(); !ok || e.IsOlderThan(ctx.Epoch) {
			result.Rechecked++
		}
	}

	for _, d := range m.Declarations {
		d.Check(ctx)
		result.addDiagnostics(d.Diagnostics())

		switch d.Kind {
		case semantic.DeclConstant, semantic.DeclExternalConstant:
			result.Constants[d.Name] = d.LastValue()
		}
	}

	for _, check := range m.Expressions {
		value := check.Expr.Evaluate(ctx, check.Expected)
		result.addDiagnostics(check.Expr.Diagnostics())
		if value != semantic.Value(check.Expr) {
			result.Expressions[check.Name] = value
		} else {
			result.Expressions[check.Name] = nil
		}
	}

	for _, p := range m.Attributes.Paths() {
		result.Attributes[p.Name] = m.Attributes.Resolve(ctx, p.Id())
		result.addDiagnostics(p.Diagnostics())
	}

	for _, check := range m.Erroneous {
		descriptor := m.Attributes.ErroneousDescriptor(ctx, check.Path, check.Type)
		result.Descriptors[m.Attributes.Path(check.Path).Name] = descriptor
		result.addDiagnostics(descriptor.Diagnostics())
	}

	result.InternalErrors = collector.InternalErrors()
	result.sortDiagnostics()

	s.logger.Debug().
		Str("module", m.Name).
		Uint64("epoch", uint64(ctx.Epoch)).
		Int("rechecked", result.Rechecked).
		Int("diagnostics", len(result.Diagnostics)).
		Msg("module checked")

	return result
}

// Edit informs the session that the source was edited in span. If the result is NeedsFullReparse the
// caller should rebuild the module and call Reload.
func (s *Session) Edit(span sourcecode.Span) (edits.Result, []edits.Node) {
	return s.tracker.NotifyEdit(span)
}

// Reload replaces the module and starts a new epoch, every node of the new module is checked by the next pass.
func (s *Session) Reload(m *Module) {
	s.ctx.NextEpoch()
	s.setModule(m)
}

// NextEpoch makes every node stale.
func (s *Session) NextEpoch() epoch.Epoch {
	return s.ctx.NextEpoch()
}

// DependencyCycles returns the names of the nodes forming dependency cycles.
func (s *Session) DependencyCycles() [][]string {
	var cycles [][]string
	for _, cycle := range s.tracker.DependencyCycles() {
		var names []string
		for _, node := range cycle {
			names = append(names, nodeName(node))
		}
		cycles = append(cycles, names)
	}
	return cycles
}

func nodeName(node edits.Node) string {
	switch n := node.(type) {
	case *semantic.Declaration:
		return n.Name
	case *semantic.Expression:
		return n.String()
	case *attrib.Path:
		return n.Name
	}
	return node.NodeSpan().String()
}
