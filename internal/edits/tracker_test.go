package edits

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/ttcn3tools/ttcnsem/internal/sourcecode"
)

type testNode struct {
	name        string
	span        sourcecode.Span
	invalidated int
}

func (n *testNode) NodeSpan() sourcecode.Span {
	return n.span
}

func (n *testNode) Invalidate() {
	n.invalidated++
}

func node(name string, start, end int32) *testNode {
	return &testNode{name: name, span: sourcecode.MakeSpan(start, end)}
}

func TestTrackerNotifyEdit(t *testing.T) {

	t.Run("edit inside a node", func(t *testing.T) {
		a := node("a", 0, 10)
		b := node("b", 10, 20)
		tracker := NewTracker(zerolog.Nop())
		tracker.Track(a, b)

		result, invalidated := tracker.NotifyEdit(sourcecode.MakeSpan(2, 5))
		assert.Equal(t, Accepted, result)
		assert.Equal(t, []Node{a}, invalidated)
		assert.Equal(t, 1, a.invalidated)
		assert.Zero(t, b.invalidated)
	})

	t.Run("insertion", func(t *testing.T) {
		a := node("a", 0, 10)
		b := node("b", 10, 20)
		tracker := NewTracker(zerolog.Nop())
		tracker.Track(a, b)

		result, invalidated := tracker.NotifyEdit(sourcecode.MakeSpan(12, 12))
		assert.Equal(t, Accepted, result)
		assert.Equal(t, []Node{b}, invalidated)
	})

	t.Run("edit outside of any node", func(t *testing.T) {
		a := node("a", 0, 10)
		tracker := NewTracker(zerolog.Nop())
		tracker.Track(a)

		result, invalidated := tracker.NotifyEdit(sourcecode.MakeSpan(30, 40))
		assert.Equal(t, Accepted, result)
		assert.Empty(t, invalidated)
		assert.Zero(t, a.invalidated)
	})

	t.Run("nested nodes are all invalidated", func(t *testing.T) {
		outer := node("outer", 0, 30)
		inner := node("inner", 5, 15)
		tracker := NewTracker(zerolog.Nop())
		tracker.Track(inner, outer)

		result, invalidated := tracker.NotifyEdit(sourcecode.MakeSpan(6, 7))
		assert.Equal(t, Accepted, result)
		assert.Equal(t, []Node{outer, inner}, invalidated)
	})

	t.Run("edit covering a whole node", func(t *testing.T) {
		a := node("a", 5, 10)
		tracker := NewTracker(zerolog.Nop())
		tracker.Track(a)

		result, invalidated := tracker.NotifyEdit(sourcecode.MakeSpan(0, 20))
		assert.Equal(t, Accepted, result)
		assert.Equal(t, []Node{a}, invalidated)
	})

	t.Run("partial overlap needs a full reparse", func(t *testing.T) {
		a := node("a", 0, 10)
		b := node("b", 10, 20)
		tracker := NewTracker(zerolog.Nop())
		tracker.Track(a, b)

		result, invalidated := tracker.NotifyEdit(sourcecode.MakeSpan(8, 12))
		assert.Equal(t, NeedsFullReparse, result)
		assert.Empty(t, invalidated)
		assert.Zero(t, a.invalidated)
		assert.Zero(t, b.invalidated)
	})

	t.Run("dependents are invalidated transitively", func(t *testing.T) {
		c := node("c", 0, 10)
		b := node("b", 20, 30)
		a := node("a", 40, 50)
		unrelated := node("unrelated", 60, 70)

		tracker := NewTracker(zerolog.Nop())
		tracker.Track(a, b, c, unrelated)
		tracker.DependsOn(a, b)
		tracker.DependsOn(b, c)

		result, invalidated := tracker.NotifyEdit(sourcecode.MakeSpan(3, 4))
		assert.Equal(t, Accepted, result)
		assert.ElementsMatch(t, []Node{a, b, c}, invalidated)
		assert.Equal(t, 1, a.invalidated)
		assert.Zero(t, unrelated.invalidated)
	})

	t.Run("a node is invalidated once", func(t *testing.T) {
		a := node("a", 0, 10)
		b := node("b", 20, 30)
		tracker := NewTracker(zerolog.Nop())
		tracker.Track(a, b)
		tracker.DependsOn(a, b)
		tracker.DependsOn(b, a)

		_, invalidated := tracker.NotifyEdit(sourcecode.MakeSpan(0, 30))
		assert.Len(t, invalidated, 2)
		assert.Equal(t, 1, a.invalidated)
		assert.Equal(t, 1, b.invalidated)
	})
}

func TestTrackerTrack(t *testing.T) {
	a := node("a", 0, 10)
	tracker := NewTracker(zerolog.Nop())
	tracker.Track(a)
	tracker.Track(a)
	assert.Equal(t, 1, tracker.Len())

	a.span = sourcecode.MakeSpan(100, 110)
	tracker.Track(a)
	assert.Empty(t, tracker.Touched(sourcecode.MakeSpan(0, 10)))
	assert.Equal(t, []Node{a}, tracker.Touched(sourcecode.MakeSpan(105, 106)))

	tracker.Untrack(a)
	assert.Zero(t, tracker.Len())
}

func TestTrackerDependencies(t *testing.T) {
	a := node("a", 0, 10)
	b := node("b", 10, 20)
	tracker := NewTracker(zerolog.Nop())

	tracker.DependsOn(a, b)
	tracker.DependsOn(a, a)
	tracker.DependsOn(a, "not a node")

	assert.Equal(t, []Node{a}, tracker.Dependents(b))
	assert.Empty(t, tracker.Dependents(a))
	assert.Empty(t, tracker.DependencyCycles())

	tracker.DependsOn(b, a)
	assert.Len(t, tracker.DependencyCycles(), 1)

	tracker.Track(a, b)
	tracker.Untrack(b)
	assert.Empty(t, tracker.Dependents(a))
	assert.Empty(t, tracker.DependencyCycles())
}
