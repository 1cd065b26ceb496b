package analysis

import (
	"github.com/rs/zerolog"
	"github.com/ttcn3tools/ttcnsem/internal/core/attrib"
	"github.com/ttcn3tools/ttcnsem/internal/core/semantic"
)

// An ExpressionCheck is a free-standing expression checked in a given context (e.g. the condition of an
// if statement, an argument).
type ExpressionCheck struct {
	Name     string
	Expr     *semantic.Expression
	Expected semantic.ExpectedKind
}

// An ErroneousCheck asks for the erroneous descriptor of a path for a type.
type ErroneousCheck struct {
	Path attrib.PathId
	Type *semantic.Type
}

// A Module is the set of nodes checked by a session: the scope layer builds it and keeps
// ownership of the nodes.
type Module struct {
	Name string

	Types        map[string]*semantic.Type
	Declarations []*semantic.Declaration
	Expressions  []ExpressionCheck
	Attributes   *attrib.Arena
	Erroneous    []ErroneousCheck

	resolver semantic.MapResolver
}

func NewModule(name string, logger zerolog.Logger) *Module {
	return &Module{
		Name:       name,
		Types:      map[string]*semantic.Type{},
		Attributes: attrib.NewArena(logger),
		resolver:   semantic.MapResolver{},
	}
}

// AddDeclarations adds declarations to the module scope.
func (m *Module) AddDeclarations(decls ...*semantic.Declaration) {
	m.Declarations = append(m.Declarations, decls...)
	m.resolver.Add(decls...)
}

func (m *Module) AddExpression(name string, expr *semantic.Expression, expected semantic.ExpectedKind) {
	m.Expressions = append(m.Expressions, ExpressionCheck{Name: name, Expr: expr, Expected: expected})
}

func (m *Module) Resolver() semantic.Resolver {
	return m.resolver
}

func (m *Module) Declaration(name string) (*semantic.Declaration, bool) {
	d, ok := m.resolver[name]
	return d, ok
}
