package semantic

// valuesEqual compares two folded values, ok is false if the values cannot be compared
// (unbound fields, values of different forms).
func valuesEqual(a, b Value) (equal bool, ok bool) {
	switch x := a.(type) {
	case *Integer:
		y, ok := b.(*Integer)
		return ok && x.V.Cmp(y.V) == 0, ok
	case *Float:
		y, ok := b.(*Float)
		return ok && x.V == y.V, ok
	case *Boolean:
		y, ok := b.(*Boolean)
		return ok && x.V == y.V, ok
	case *Verdict:
		y, ok := b.(*Verdict)
		return ok && x.V == y.V, ok
	case *Bitstring:
		y, ok := b.(*Bitstring)
		return ok && x.Equal(y), ok
	case *Hexstring:
		y, ok := b.(*Hexstring)
		return ok && x.Digits == y.Digits, ok
	case *Octetstring:
		y, ok := b.(*Octetstring)
		return ok && x.Digits == y.Digits, ok
	case *Charstring, *UniversalCharstring:
		xr, ok1 := charRunes(a)
		yr, ok2 := charRunes(b)
		if !ok1 || !ok2 {
			return false, false
		}
		return string(xr) == string(yr), true
	case *Enumerated:
		y, ok := b.(*Enumerated)
		return ok && x.Name == y.Name, ok
	case *Omit:
		_, isOmit := b.(*Omit)
		return isOmit, true
	case *Objid:
		y, ok := b.(*Objid)
		if !ok {
			return false, false
		}
		if len(x.Components) != len(y.Components) {
			return false, true
		}
		for i, c := range x.Components {
			if c != y.Components[i] {
				return false, true
			}
		}
		return true, true
	case *Record:
		y, ok := b.(*Record)
		if !ok {
			return false, false
		}
		return recordsEqual(x, y)
	case *Union:
		y, ok := b.(*Union)
		if !ok {
			return false, false
		}
		if x.Field != y.Field {
			return false, true
		}
		return valuesEqual(x.Value, y.Value)
	case *Sequence:
		y, ok := b.(*Sequence)
		if !ok {
			return false, false
		}
		if len(x.Elements) != len(y.Elements) {
			return false, true
		}
		if x.Form == SetOfForm || y.Form == SetOfForm {
			return unorderedEqual(x.Elements, y.Elements)
		}
		for i := range x.Elements {
			eq, ok := valuesEqual(x.Elements[i], y.Elements[i])
			if !ok || !eq {
				return eq, ok
			}
		}
		return true, true
	}
	return false, false
}

func charRunes(v Value) ([]rune, bool) {
	switch val := v.(type) {
	case *Charstring:
		return []rune(val.V), true
	case *UniversalCharstring:
		return val.V, true
	}
	return nil, false
}

func recordsEqual(x, y *Record) (bool, bool) {
	if len(x.Fields) != len(y.Fields) {
		return false, false
	}
	for _, f := range x.Fields {
		other, found := y.FieldValue(f.Name)
		if !found || f.Value == nil || other == nil {
			return false, false
		}
		eq, ok := valuesEqual(f.Value, other)
		if !ok || !eq {
			return eq, ok
		}
	}
	return true, true
}

// unorderedEqual compares the elements of two set of values regardless of their order.
func unorderedEqual(x, y []Value) (bool, bool) {
	used := make([]bool, len(y))

outer:
	for _, a := range x {
		for j, b := range y {
			if used[j] {
				continue
			}
			eq, ok := valuesEqual(a, b)
			if !ok {
				return false, false
			}
			if eq {
				used[j] = true
				continue outer
			}
		}
		return false, true
	}
	return true, true
}

// compareOrdered returns -1, 0 or 1, ok is false for values that are not ordered.
func compareOrdered(a, b Value) (int, bool) {
	switch x := a.(type) {
	case *Integer:
		if y, ok := b.(*Integer); ok {
			return x.V.Cmp(y.V), true
		}
	case *Float:
		if y, ok := b.(*Float); ok {
			switch {
			case x.V < y.V:
				return -1, true
			case x.V > y.V:
				return 1, true
			case x.V == y.V:
				return 0, true
			}
		}
	case *Enumerated:
		if y, ok := b.(*Enumerated); ok {
			nx, ok1 := x.Number()
			ny, ok2 := y.Number()
			if ok1 && ok2 {
				switch {
				case nx < ny:
					return -1, true
				case nx > ny:
					return 1, true
				}
				return 0, true
			}
		}
	}
	return 0, false
}

func registerEquality(op Operator, name string, negate bool) {
	register(op, operatorRule{
		name:    name,
		minArgs: 2,
		maxArgs: 2,
		check: func(ev *evaluation) *Type {
			ev.resolvePeers(0, 1)
			for i := range ev.operands {
				o := ev.operands[i]
				if !o.erroneous && o.Operand.Value == nil {
					ev.error(ev.operandSpan(i), fmtOperandShouldBe(i, name, "a value"))
				}
			}
			if !ev.erroneous {
				ev.common(0, 1)
			}
			return BOOLEAN
		},
		fold: func(ev *evaluation) Value {
			eq, ok := valuesEqual(ev.operands[0].value, ev.operands[1].value)
			if !ok {
				return nil
			}
			return NewBool(eq != negate)
		},
	})
}

func registerOrdering(op Operator, name string, accept func(cmp int) bool) {
	register(op, operatorRule{
		name:    name,
		minArgs: 2,
		maxArgs: 2,
		check: func(ev *evaluation) *Type {
			const what = "an integer, float or enumerated value"
			ev.resolvePeers(0, 1)
			ok := ev.expect(0, what, TypeInteger, TypeFloat, TypeEnumerated)
			ok = ev.expect(1, what, TypeInteger, TypeFloat, TypeEnumerated) && ok
			if ok {
				ev.common(0, 1)
			}
			return BOOLEAN
		},
		fold: func(ev *evaluation) Value {
			cmp, ok := compareOrdered(ev.operands[0].value, ev.operands[1].value)
			if !ok {
				return nil
			}
			return NewBool(accept(cmp))
		},
	})
}

func init() {
	registerEquality(OpEqual, "==", false)
	registerEquality(OpNotEqual, "!=", true)
	registerOrdering(OpLess, "<", func(cmp int) bool { return cmp < 0 })
	registerOrdering(OpGreater, ">", func(cmp int) bool { return cmp > 0 })
	registerOrdering(OpLessEqual, "<=", func(cmp int) bool { return cmp <= 0 })
	registerOrdering(OpGreaterEqual, ">=", func(cmp int) bool { return cmp >= 0 })
}
