package semantic

import (
	"math/big"
)

// numericOperands checks the operands of the arithmetic operators and returns their common type.
func numericOperands(ev *evaluation, kinds ...TypeKind) *Type {
	what := NUMERIC_VALUE
	if len(kinds) == 1 {
		what = INTEGER_VALUE
	}
	ev.resolvePeers(0, 1)
	ok := ev.expect(0, what, kinds...)
	ok = ev.expect(1, what, kinds...) && ok
	if !ok {
		return nil
	}
	t, ok := ev.common(0, 1)
	if !ok || t == nil {
		return nil
	}
	return builtinForKind(t.Kind)
}

func isZero(v Value) bool {
	switch val := v.(type) {
	case *Integer:
		return val.V.Sign() == 0
	case *Float:
		return val.V == 0
	}
	return false
}

func registerArithmetic(op Operator, name string, kinds []TypeKind, zeroDivisor bool,
	onInt func(a, b *big.Int) *big.Int, onFloat func(a, b float64) float64) {
	register(op, operatorRule{
		name:    name,
		minArgs: 2,
		maxArgs: 2,
		check: func(ev *evaluation) *Type {
			t := numericOperands(ev, kinds...)
			if zeroDivisor && !ev.erroneous && isZero(ev.operands[1].value) {
				ev.error(ev.operandSpan(1), fmtDivisionByZero(name))
			}
			return t
		},
		fold: func(ev *evaluation) Value {
			switch a := ev.operands[0].value.(type) {
			case *Integer:
				b, ok := ev.operands[1].value.(*Integer)
				if !ok {
					return nil
				}
				return &Integer{V: onInt(a.V, b.V)}
			case *Float:
				b, ok := ev.operands[1].value.(*Float)
				if !ok || onFloat == nil {
					return nil
				}
				return NewFloat(onFloat(a.V, b.V))
			}
			return nil
		},
	})
}

func booleanOperands(ev *evaluation) *Type {
	for i := range ev.operands {
		ev.expect(i, BOOLEAN_VALUE, TypeBoolean)
	}
	return BOOLEAN
}

func registerLogical(op Operator, name string, apply func(a, b bool) bool) {
	register(op, operatorRule{
		name:    name,
		minArgs: 2,
		maxArgs: 2,
		check:   booleanOperands,
		fold: func(ev *evaluation) Value {
			a, ok1 := ev.operands[0].value.(*Boolean)
			b, ok2 := ev.operands[1].value.(*Boolean)
			if !ok1 || !ok2 {
				return nil
			}
			return NewBool(apply(a.V, b.V))
		},
	})
}

var (
	integerKinds = []TypeKind{TypeInteger}
	numericKinds = []TypeKind{TypeInteger, TypeFloat}
)

func init() {
	registerArithmetic(OpAdd, "+", numericKinds, false,
		func(a, b *big.Int) *big.Int { return new(big.Int).Add(a, b) },
		func(a, b float64) float64 { return a + b })
	registerArithmetic(OpSubtract, "-", numericKinds, false,
		func(a, b *big.Int) *big.Int { return new(big.Int).Sub(a, b) },
		func(a, b float64) float64 { return a - b })
	registerArithmetic(OpMultiply, "*", numericKinds, false,
		func(a, b *big.Int) *big.Int { return new(big.Int).Mul(a, b) },
		func(a, b float64) float64 { return a * b })
	registerArithmetic(OpDivide, "/", numericKinds, true,
		//truncated division
		func(a, b *big.Int) *big.Int { return new(big.Int).Quo(a, b) },
		func(a, b float64) float64 { return a / b })

	//mod has the sign of the divisor, rem has the sign of the dividend
	registerArithmetic(OpMod, "mod", integerKinds, true,
		func(a, b *big.Int) *big.Int {
			r := new(big.Int).Rem(a, b)
			if r.Sign() != 0 && r.Sign() != b.Sign() {
				r.Add(r, b)
			}
			return r
		},
		nil)
	registerArithmetic(OpRem, "rem", integerKinds, true,
		func(a, b *big.Int) *big.Int { return new(big.Int).Rem(a, b) },
		nil)

	register(OpUnaryMinus, operatorRule{
		name:    "unary -",
		minArgs: 1,
		maxArgs: 1,
		check: func(ev *evaluation) *Type {
			if !ev.expect(0, NUMERIC_VALUE, TypeInteger, TypeFloat) {
				return nil
			}
			return builtinForKind(ev.operands[0].kind())
		},
		fold: func(ev *evaluation) Value {
			switch v := ev.operands[0].value.(type) {
			case *Integer:
				return &Integer{V: new(big.Int).Neg(v.V)}
			case *Float:
				return NewFloat(-v.V)
			}
			return nil
		},
	})

	register(OpNot, operatorRule{
		name:    "not",
		minArgs: 1,
		maxArgs: 1,
		check:   booleanOperands,
		fold: func(ev *evaluation) Value {
			v, ok := ev.operands[0].value.(*Boolean)
			if !ok {
				return nil
			}
			return NewBool(!v.V)
		},
	})

	registerLogical(OpAnd, "and", func(a, b bool) bool { return a && b })
	registerLogical(OpOr, "or", func(a, b bool) bool { return a || b })
	registerLogical(OpXor, "xor", func(a, b bool) bool { return a != b })

	register(OpConcat, operatorRule{
		name:    "&",
		minArgs: 2,
		maxArgs: 2,
		check:   concatOperands,
		fold: func(ev *evaluation) Value {
			a, b := ev.operands[0].value, ev.operands[1].value
			if seqA, ok := a.(*Sequence); ok {
				seqB, ok := b.(*Sequence)
				if !ok {
					return nil
				}
				elements := make([]Value, 0, len(seqA.Elements)+len(seqB.Elements))
				elements = append(elements, seqA.Elements...)
				elements = append(elements, seqB.Elements...)
				return &Sequence{Form: seqA.Form, Type: seqA.Type, Elements: elements}
			}

			unitsA, ok1 := stringUnits(a)
			unitsB, ok2 := stringUnits(b)
			if !ok1 || !ok2 {
				return nil
			}
			model := a
			if _, ok := b.(*UniversalCharstring); ok {
				model = b
			}
			return stringFromUnits(model, append(append([]string{}, unitsA...), unitsB...))
		},
	})
}

func concatOperands(ev *evaluation) *Type {
	what := "a string or list value"
	kinds := []TypeKind{TypeBitstring, TypeHexstring, TypeOctetstring, TypeCharstring, TypeUniversalCharstring,
		TypeRecordOf, TypeSetOf}
	ok := ev.expect(0, what, kinds...)
	ok = ev.expect(1, what, kinds...) && ok
	if !ok {
		return nil
	}

	left, right := ev.operands[0].kind(), ev.operands[1].kind()
	if left == TypeUndefined || right == TypeUndefined {
		if left == TypeUndefined {
			left = right
		}
		return builtinForKind(left)
	}

	isChar := func(k TypeKind) bool { return k == TypeCharstring || k == TypeUniversalCharstring }
	switch {
	case isChar(left) && isChar(right):
		if left == TypeUniversalCharstring || right == TypeUniversalCharstring {
			return UNIVERSAL_CHARSTRING
		}
		return CHARSTRING
	case left.IsString() || right.IsString():
		if left != right {
			ev.error(ev.span(), fmtOperandKindsDiffer(ev.rule.name, left, right))
			return nil
		}
		return builtinForKind(left)
	}

	t, ok := ev.common(0, 1)
	if !ok {
		return nil
	}
	//the length restriction of the operands does not apply to the result
	if t != nil && (t.Length != nil || t.Kind == TypeArray) {
		return &Type{Kind: TypeRecordOf, Element: t.Element}
	}
	return t
}
