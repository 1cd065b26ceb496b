package epoch

import (
	"strings"

	"github.com/ttcn3tools/ttcnsem/internal/diag"
	"github.com/ttcn3tools/ttcnsem/internal/sourcecode"
)

const CIRCULAR_REFERENCE_PREFIX = "circular reference chain: "

type chainLink struct {
	key  any
	name string
}

// A Chain is the explicit recursion guard used while following references: every definition
// being explored is added to the chain, adding a definition twice is a circular definition.
// Mark and Release bracket the exploration of alternatives so that siblings do not see each other.
type Chain struct {
	links    []chainLink
	sink     diag.Sink
	reported map[any]bool
}

func NewChain(sink diag.Sink) *Chain {
	if sink == nil {
		sink = diag.Discard
	}
	return &Chain{sink: sink, reported: map[any]bool{}}
}

// Add pushes key on the chain, if key is already present a circular reference error is reported at span
// (once per key) and false is returned.
func (c *Chain) Add(key any, name string, span sourcecode.Span) bool {
	for i, link := range c.links {
		if link.key != key {
			continue
		}

		if !c.reported[key] {
			c.reported[key] = true
			c.sink.Report(span, diag.Error, FmtCircularReference(c.names(i), name))
		}
		return false
	}

	c.links = append(c.links, chainLink{key: key, name: name})
	return true
}

func (c *Chain) Contains(key any) bool {
	for _, link := range c.links {
		if link.key == key {
			return true
		}
	}
	return false
}

// Mark returns a state that can be restored with Release.
func (c *Chain) Mark() int {
	return len(c.links)
}

func (c *Chain) Release(mark int) {
	if mark < len(c.links) {
		clear(c.links[mark:])
		c.links = c.links[:mark]
	}
}

func (c *Chain) Len() int {
	return len(c.links)
}

func (c *Chain) names(start int) []string {
	names := make([]string, 0, len(c.links)-start)
	for _, link := range c.links[start:] {
		names = append(names, link.name)
	}
	return names
}

func FmtCircularReference(chain []string, last string) string {
	return CIRCULAR_REFERENCE_PREFIX + "`" + strings.Join(append(chain, last), "' -> `") + "'"
}
