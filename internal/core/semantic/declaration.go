package semantic

import (
	"github.com/ttcn3tools/ttcnsem/internal/core/epoch"
	"github.com/ttcn3tools/ttcnsem/internal/diag"
	"github.com/ttcn3tools/ttcnsem/internal/sourcecode"
)

type DeclKind int

const (
	DeclConstant DeclKind = iota + 1
	DeclExternalConstant
	DeclModulePar
	DeclModuleParTemplate
	DeclVariable
	DeclVariableTemplate
	DeclValueParameter
	DeclTemplateParameter
	DeclTemplate
	DeclFunction
	DeclExtFunction
	DeclAltstep
	DeclTestcase
	DeclTimer
	DeclPort
	DeclType
)

var declKindDescriptions = [...]string{
	DeclConstant:          "constant",
	DeclExternalConstant:  "external constant",
	DeclModulePar:         "module parameter",
	DeclModuleParTemplate: "template module parameter",
	DeclVariable:          "variable",
	DeclVariableTemplate:  "template variable",
	DeclValueParameter:    "value parameter",
	DeclTemplateParameter: "template parameter",
	DeclTemplate:          "template",
	DeclFunction:          "function",
	DeclExtFunction:       "external function",
	DeclAltstep:           "altstep",
	DeclTestcase:          "testcase",
	DeclTimer:             "timer",
	DeclPort:              "port",
	DeclType:              "type",
}

func (k DeclKind) String() string {
	if k > 0 && int(k) < len(declKindDescriptions) {
		return declKindDescriptions[k]
	}
	return "<unknown declaration>"
}

var declKindsByName = map[string]DeclKind{}

func init() {
	for i, desc := range declKindDescriptions {
		if desc != "" {
			declKindsByName[desc] = DeclKind(i)
		}
	}
}

// ParseDeclKind parses the description of a declaration kind (e.g. "template variable").
func ParseDeclKind(s string) (DeclKind, bool) {
	kind, ok := declKindsByName[s]
	return kind, ok
}

// IsTemplate returns true for the declarations whose references denote templates.
func (k DeclKind) IsTemplate() bool {
	switch k {
	case DeclModuleParTemplate, DeclVariableTemplate, DeclTemplateParameter, DeclTemplate:
		return true
	}
	return false
}

type Direction int

const (
	In Direction = iota
	Out
	InOut
)

func (d Direction) String() string {
	switch d {
	case Out:
		return "out"
	case InOut:
		return "inout"
	}
	return "in"
}

// A Declaration is a definition provided by the scope layer. The semantic layer checks the
// initial value or body of constants, module parameters, variables and templates.
type Declaration struct {
	Kind DeclKind
	Name string
	Span sourcecode.Span

	//declared type, return type for functions and the defined type for type declarations
	Type *Type

	Value           Value     //constants, module parameters and variables
	Template        *Template //templates
	Direction       Direction //parameters
	ReturnsTemplate bool      //functions

	memo         epoch.Memo
	erroneous    bool
	last         Value
	lastTemplate *Template
	diagnostics  []diag.Diagnostic
}

func NewConstant(name string, t *Type, v Value) *Declaration {
	return &Declaration{Kind: DeclConstant, Name: name, Type: t, Value: v}
}

func NewVariable(name string, t *Type, v Value) *Declaration {
	return &Declaration{Kind: DeclVariable, Name: name, Type: t, Value: v}
}

func NewTemplateDecl(name string, t *Type, body *Template) *Declaration {
	return &Declaration{Kind: DeclTemplate, Name: name, Type: t, Template: body}
}

func NewDeclaration(kind DeclKind, name string, t *Type) *Declaration {
	return &Declaration{Kind: kind, Name: name, Type: t}
}

// Check checks the initial value or body of the declaration, it returns false if the declaration
// is erroneous or if it is already being checked (circular definition).
func (d *Declaration) Check(ctx *Context) bool {
	if d.memo.Fresh(ctx.Epoch) {
		return !d.erroneous
	}

	mark := ctx.chain.Mark()
	if !ctx.chain.Add(d, d.Name, d.Span) {
		return false
	}
	defer ctx.chain.Release(mark)

	prev, list := ctx.beginNode(d)
	erroneous, last, lastTemplate := d.check(ctx)
	ctx.endNode(prev)

	//the state is updated at once
	d.erroneous = erroneous
	d.last = last
	d.lastTemplate = lastTemplate
	d.diagnostics = dedup(*list)
	d.memo.Commit(ctx.Epoch)

	ctx.sendAll(d.diagnostics)

	ctx.Logger.Debug().
		Str("decl", d.Name).
		Uint64("epoch", uint64(ctx.Epoch)).
		Bool("erroneous", erroneous).
		Msg("declaration checked")

	return !erroneous
}

func (d *Declaration) check(ctx *Context) (erroneous bool, last Value, lastTemplate *Template) {
	switch d.Kind {
	case DeclConstant:
		if d.Value == nil {
			ctx.Internal(diag.Invariant(d.Span, "constant %s has no value", d.Name))
			return true, nil, nil
		}
		result := ctx.checkAssignment(d.Type, d.Value, ExpectedConstant)
		if !result.Erroneous && result.Value == nil {
			ctx.errorf(d.Value.Span(), fmtConstantNotEvaluable(d.Name))
			return true, nil, nil
		}
		return result.Erroneous, result.Value, nil
	case DeclModulePar, DeclVariable, DeclValueParameter:
		if d.Value == nil {
			return false, nil, nil
		}
		expected := ExpectedDynamicValue
		if d.Kind == DeclModulePar {
			expected = ExpectedStaticValue
		}
		result := ctx.checkAssignment(d.Type, d.Value, expected)
		return result.Erroneous, result.Value, nil
	case DeclTemplate, DeclModuleParTemplate, DeclVariableTemplate, DeclTemplateParameter:
		if d.Template == nil {
			if d.Kind == DeclTemplate {
				ctx.Internal(diag.Invariant(d.Span, "template %s has no body", d.Name))
				return true, nil, nil
			}
			return false, nil, nil
		}
		result := ctx.checkTemplateAssignment(d.Type, d.Template)
		return result.Erroneous, nil, result.Template
	}
	return false, nil, nil
}

// Erroneous returns true if the last check found an error.
func (d *Declaration) Erroneous() bool {
	return d.erroneous
}

// LastValue returns the folded value of a constant, nil if the value is unknown.
func (d *Declaration) LastValue() Value {
	return d.last
}

func (d *Declaration) LastTemplate() *Template {
	return d.lastTemplate
}

// Diagnostics returns the diagnostics of the last check.
func (d *Declaration) Diagnostics() []diag.Diagnostic {
	return d.diagnostics
}

func (d *Declaration) CheckedAt() (epoch.Epoch, bool) {
	return d.memo.Epoch()
}

func (d *Declaration) Invalidate() {
	d.memo.Invalidate()
}

func (d *Declaration) NodeSpan() sourcecode.Span {
	return d.Span
}
