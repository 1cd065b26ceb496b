package epoch

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/ttcn3tools/ttcnsem/internal/diag"
	"github.com/ttcn3tools/ttcnsem/internal/sourcecode"
)

func TestMemo(t *testing.T) {
	var m Memo
	assert.False(t, m.Fresh(First))

	m.Commit(3)
	assert.True(t, m.Fresh(1))
	assert.True(t, m.Fresh(3))
	assert.False(t, m.Fresh(4))

	t.Run("the epoch never decreases", func(t *testing.T) {
		m.Commit(2)
		e, ok := m.Epoch()
		assert.True(t, ok)
		assert.Equal(t, Epoch(3), e)
	})

	t.Run("invalidation", func(t *testing.T) {
		m := m
		m.Invalidate()
		assert.False(t, m.Fresh(1))
		m.Commit(1)
		assert.True(t, m.Fresh(1))
	})
}

func TestCached(t *testing.T) {
	var c Cached[string]

	_, ok := c.Get(1)
	assert.False(t, ok)

	c.Set(2, "a")
	v, ok := c.Get(2)
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	_, ok = c.Get(3)
	assert.False(t, ok)
}

func TestChain(t *testing.T) {
	collector := diag.NewCollector(zerolog.Nop())
	chain := NewChain(collector)

	a, b := new(int), new(int)

	assert.True(t, chain.Add(a, "a", sourcecode.Span{}))
	mark := chain.Mark()
	assert.True(t, chain.Add(b, "b", sourcecode.Span{}))
	assert.False(t, chain.Add(a, "a", sourcecode.MakeSpan(1, 2)))

	if assert.Len(t, collector.Diagnostics(), 1) {
		assert.Equal(t, "circular reference chain: `a' -> `b' -> `a'", collector.Diagnostics()[0].Message)
	}

	t.Run("a cycle is reported once", func(t *testing.T) {
		assert.False(t, chain.Add(a, "a", sourcecode.MakeSpan(1, 2)))
		assert.Len(t, collector.Diagnostics(), 1)
	})

	chain.Release(mark)
	assert.Equal(t, 1, chain.Len())
	assert.False(t, chain.Contains(b))
	assert.True(t, chain.Add(b, "b", sourcecode.Span{}))
}
