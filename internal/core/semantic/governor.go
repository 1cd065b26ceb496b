package semantic

import (
	"github.com/ttcn3tools/ttcnsem/internal/diag"
	"github.com/ttcn3tools/ttcnsem/internal/sourcecode"
)

// ResolveGovernor returns the type governing a Value, a *Template or a *TemplateInstance in the expected
// context. The boolean result is false if the node is not legal in the context (e.g. a reference to a
// variable where a constant is expected, a run-time operation in a static context).
// Only expressions are checked, other nodes are not reported about.
func ResolveGovernor(ctx *Context, node any, expected ExpectedKind) (*Type, bool) {
	switch n := node.(type) {
	case nil:
		return nil, false
	case *TemplateInstance:
		if n.Type != nil {
			return n.Type, true
		}
		if n.DerivedRef != nil {
			decl, ok := ctx.Resolver.Resolve(n.DerivedRef)
			if !ok || !decl.Kind.IsTemplate() {
				return nil, false
			}
			return decl.Type, true
		}
		if n.Body == nil {
			return nil, true
		}
		return ResolveGovernor(ctx, n.Body, ExpectedTemplate)
	case *Template:
		switch n.Kind {
		case SpecificValueTemplate:
			return ResolveGovernor(ctx, n.Value, ExpectedTemplate)
		case ValueListTemplate, ComplementListTemplate:
			for _, elem := range n.Elements {
				t, ok := ResolveGovernor(ctx, elem, ExpectedTemplate)
				if !ok {
					return nil, false
				}
				if t != nil {
					return t, true
				}
			}
			return nil, true
		case ReferencedTemplate:
			return ctx.referenceGovernor(n.Ref, ExpectedTemplate)
		}
		return nil, true
	case *Expression:
		n.Evaluate(ctx, expected)
		if n.erroneous {
			return n.governor, false
		}
		return n.governor, true
	case *Referenced:
		return ctx.referenceGovernor(n.Ref, expected)
	case *Identifier:
		if n.resolved != nil {
			return ResolveGovernor(ctx, n.resolved, expected)
		}
		ref := &Reference{Name: n.Name, Span: n.span}
		if _, ok := ctx.Resolver.Resolve(ref); ok {
			return ctx.referenceGovernor(ref, expected)
		}
		//possibly an enumeration item, the governor comes from the context
		return nil, true
	case Value:
		return valueGovernor(n), true
	}
	return nil, false
}

func (ctx *Context) referenceGovernor(ref *Reference, expected ExpectedKind) (*Type, bool) {
	decl, ok := ctx.Resolver.Resolve(ref)
	if !ok || !isValueDeclaration(decl) || !referenceAllowed(decl, expected) {
		return nil, false
	}
	return ctx.subrefGovernor(decl.Type, ref, nil)
}

// CommonGovernor returns the type governing the two operands of a binary operation. When the types
// are different, assignment compatibility is tried in both directions; a match that requires a
// conversion is reported with the configured severity. Unknown types (nil) take the other type.
func CommonGovernor(ctx *Context, a, b *Type, span sourcecode.Span) (*Type, bool) {
	switch {
	case a == nil:
		return b, true
	case b == nil:
		return a, true
	}

	if ok, conversion := IsCompatible(a, b); ok {
		return a, reportConversion(ctx, a, b, conversion, span)
	}
	if ok, conversion := IsCompatible(b, a); ok {
		return b, reportConversion(ctx, b, a, conversion, span)
	}

	ctx.errorf(span, fmtIncompatibleTypes(a, b))
	return nil, false
}

func reportConversion(ctx *Context, target, source *Type, conversion bool, span sourcecode.Span) bool {
	if !conversion {
		return true
	}
	severity := ctx.typeCompatibilitySeverity()
	ctx.Report(span, severity, fmtConversionRequired(target, source))
	return severity != diag.Error
}
