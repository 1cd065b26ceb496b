package analysis

import "github.com/ttcn3tools/ttcnsem/internal/core/semantic"

// walkExpressions calls visit for every expression nested in node (a Value, a *Template or a
// *TemplateInstance), node itself excluded.
func walkExpressions(node any, visit func(*semantic.Expression)) {
	switch n := node.(type) {
	case *semantic.Expression:
		for _, operand := range n.Operands {
			walkOperand(operand, visit)
		}
	case *semantic.Record:
		for _, f := range n.Fields {
			walkValue(f.Value, visit)
		}
	case *semantic.Union:
		walkValue(n.Value, visit)
	case *semantic.Sequence:
		for _, e := range n.Elements {
			walkValue(e, visit)
		}
	case *semantic.Template:
		if n == nil {
			return
		}
		walkValue(n.Value, visit)
		for _, elem := range n.Elements {
			walkExpressions(elem, visit)
		}
		for _, named := range n.Named {
			walkExpressions(named.Template, visit)
		}
	case *semantic.TemplateInstance:
		if n != nil {
			walkExpressions(n.Body, visit)
		}
	}
}

func walkOperand(o semantic.Operand, visit func(*semantic.Expression)) {
	switch {
	case o.Value != nil:
		walkValue(o.Value, visit)
	case o.Template != nil:
		walkExpressions(o.Template, visit)
	}
}

func walkValue(v semantic.Value, visit func(*semantic.Expression)) {
	if v == nil {
		return
	}
	if e, ok := v.(*semantic.Expression); ok {
		visit(e)
	}
	walkExpressions(v, visit)
}
