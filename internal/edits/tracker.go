package edits

import (
	"github.com/rs/zerolog"
	"github.com/tidwall/btree"
	"github.com/ttcn3tools/ttcnsem/internal/core/slog"
	"github.com/ttcn3tools/ttcnsem/internal/memds"
	"github.com/ttcn3tools/ttcnsem/internal/sourcecode"
)

const LOG_SRC = "edits"

// A Node is a checked node whose cached result depends on a region of the source.
type Node interface {
	NodeSpan() sourcecode.Span
	Invalidate()
}

type Result int

const (
	Accepted Result = iota + 1
	//the edit crosses the boundary of a tracked node, the caller should rebuild the tree
	NeedsFullReparse
)

func (r Result) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case NeedsFullReparse:
		return "needs-full-reparse"
	}
	return "?"
}

type entry struct {
	span sourcecode.Span
	seq  uint64
	node Node
}

func entryLess(a, b entry) bool {
	if a.span.Start != b.span.Start {
		return a.span.Start < b.span.Start
	}
	if a.span.End != b.span.End {
		return a.span.End < b.span.End
	}
	return a.seq < b.seq
}

// A Tracker invalidates the nodes touched by an edit and the nodes that depend on them.
// It implements semantic.DependencyRecorder.
type Tracker struct {
	spans   *btree.BTreeG[entry]
	entries map[Node]entry
	seq     uint64

	//dependent -> dependency
	dependencies *memds.DirectedGraph[Node, struct{}]

	logger zerolog.Logger
}

func NewTracker(logger zerolog.Logger) *Tracker {
	return &Tracker{
		spans:        btree.NewBTreeG(entryLess),
		entries:      map[Node]entry{},
		dependencies: memds.NewDirectedGraph[Node, struct{}](),
		logger:       slog.ChildLoggerForSource(logger, LOG_SRC),
	}
}

// Track starts tracking node at its current span, tracking a node twice updates its span.
func (t *Tracker) Track(nodes ...Node) {
	for _, node := range nodes {
		if prev, ok := t.entries[node]; ok {
			t.spans.Delete(prev)
		}
		t.seq++
		e := entry{span: node.NodeSpan(), seq: t.seq, node: node}
		t.entries[node] = e
		t.spans.Set(e)
	}
}

func (t *Tracker) Untrack(node Node) {
	e, ok := t.entries[node]
	if !ok {
		return
	}
	t.spans.Delete(e)
	delete(t.entries, node)
	if id, ok := t.dependencies.NodeWithData(node); ok {
		t.dependencies.RemoveNode(id)
	}
}

func (t *Tracker) Len() int {
	return t.spans.Len()
}

// DependsOn records that the result of dependent is computed from dependency, values that are not
// nodes are ignored.
func (t *Tracker) DependsOn(dependent, dependency any) {
	from, ok1 := dependent.(Node)
	to, ok2 := dependency.(Node)
	if !ok1 || !ok2 || from == to {
		return
	}
	t.dependencies.SetEdge(t.dependencies.EnsureNode(from), t.dependencies.EnsureNode(to), struct{}{})
}

// Dependents returns the nodes that directly or indirectly depend on node.
func (t *Tracker) Dependents(node Node) []Node {
	id, ok := t.dependencies.NodeWithData(node)
	if !ok {
		return nil
	}
	var dependents []Node
	for _, ancestor := range t.dependencies.AncestorIds(id) {
		data, _ := t.dependencies.NodeData(ancestor)
		dependents = append(dependents, data)
	}
	return dependents
}

// DependencyCycles returns the cycles of the dependency graph.
func (t *Tracker) DependencyCycles() [][]Node {
	return t.dependencies.Cycles()
}

// Touched returns the tracked nodes whose span intersects span, ordered by start offset.
func (t *Tracker) Touched(span sourcecode.Span) []Node {
	var touched []Node
	t.spans.Scan(func(e entry) bool {
		if e.span.Start > span.End || (e.span.Start == span.End && span.Len() > 0) {
			return false
		}
		if e.span.Intersects(span) {
			touched = append(touched, e.node)
		}
		return true
	})
	return touched
}

// NotifyEdit makes the nodes whose span intersects the edited span stale, as well as every node that
// depends on them. NeedsFullReparse is returned without invalidating anything if the edit partially
// overlaps a tracked node.
func (t *Tracker) NotifyEdit(span sourcecode.Span) (Result, []Node) {
	touched := t.Touched(span)

	for _, node := range touched {
		nodeSpan := node.NodeSpan()
		if !nodeSpan.Contains(span) && !span.Contains(nodeSpan) {
			t.logger.Debug().Stringer("edit", span).Stringer("node", nodeSpan).Msg("edit crosses a node boundary")
			return NeedsFullReparse, nil
		}
	}

	seen := map[Node]bool{}
	var invalidated []Node

	invalidate := func(node Node) {
		if seen[node] {
			return
		}
		seen[node] = true
		node.Invalidate()
		invalidated = append(invalidated, node)
	}

	for _, node := range touched {
		invalidate(node)
		for _, dependent := range t.Dependents(node) {
			invalidate(dependent)
		}
	}

	t.logger.Debug().Stringer("edit", span).Int("invalidated", len(invalidated)).Msg("edit accepted")
	return Accepted, invalidated
}
