package semantic

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/ttcn3tools/ttcnsem/internal/diag"
)

// toBitset returns the bits of a binary string value, hex and octet digits are expanded to nibbles.
func toBitset(v Value) (*bitset.BitSet, int) {
	switch val := v.(type) {
	case *Bitstring:
		return val.bits.Clone(), val.n
	case *Hexstring:
		b := NewBitstring(hexToBits(val.Digits))
		return b.bits, b.n
	case *Octetstring:
		b := NewBitstring(hexToBits(val.Digits))
		return b.bits, b.n
	}
	return nil, 0
}

// fromBitset creates a value of the same kind as model from bits.
func fromBitset(model Value, bits *bitset.BitSet, n int) Value {
	b := newBitstringFromSet(bits, n)
	switch model.(type) {
	case *Hexstring:
		return NewHexstring(bitsToHex(b.String()))
	case *Octetstring:
		return NewOctetstring(bitsToHex(b.String()))
	}
	return b
}

// binaryStringOperands checks the operands of and4b, or4b and xor4b: strings of the same kind and length.
func binaryStringOperands(ev *evaluation) *Type {
	ok := ev.expect(0, BINARY_STRING, TypeBitstring, TypeHexstring, TypeOctetstring)
	ok = ev.expect(1, BINARY_STRING, TypeBitstring, TypeHexstring, TypeOctetstring) && ok
	if !ok {
		return nil
	}

	left, right := ev.operands[0].kind(), ev.operands[1].kind()
	if left != TypeUndefined && right != TypeUndefined && left != right {
		ev.error(ev.span(), fmtOperandKindsDiffer(ev.rule.name, left, right))
		return nil
	}

	leftLength, leftKnown := ev.knownLength(0)
	rightLength, rightKnown := ev.knownLength(1)
	if leftKnown && rightKnown && leftLength != rightLength {
		ev.error(ev.span(), fmtLengthsDiffer(ev.rule.name, leftLength, rightLength))
	}

	if left == TypeUndefined {
		left = right
	}
	return builtinForKind(left)
}

func registerBitwise(op Operator, name string, combine func(a, b *bitset.BitSet) *bitset.BitSet) {
	register(op, operatorRule{
		name:    name,
		minArgs: 2,
		maxArgs: 2,
		check:   binaryStringOperands,
		fold: func(ev *evaluation) Value {
			a, n := toBitset(ev.operands[0].value)
			b, _ := toBitset(ev.operands[1].value)
			return fromBitset(ev.operands[0].value, combine(a, b), n)
		},
	})
}

// shiftOperands checks the operands of the shift and rotate operators and returns the known amount.
func shiftOperands(ev *evaluation, what string, kinds ...TypeKind) (t *Type, amount int, amountKnown bool) {
	ok := ev.expect(0, what, kinds...)
	ok = ev.expect(1, INTEGER_VALUE, TypeInteger) && ok
	if !ok {
		return nil, 0, false
	}
	t = ev.operands[0].governor
	if t == nil {
		t = builtinForKind(ev.operands[0].kind())
	}

	count, known := ev.integer(1)
	if !known {
		return t, 0, false
	}
	if !count.IsInt64() || int64(int(count.Int64())) != count.Int64() {
		ev.error(ev.operandSpan(1), fmtOperandTooLarge(1, ev.rule.name, count.String()))
		return t, 0, false
	}
	return t, int(count.Int64()), true
}

func registerShift(op Operator, name string, left bool) {
	register(op, operatorRule{
		name:    name,
		minArgs: 2,
		maxArgs: 2,
		check: func(ev *evaluation) *Type {
			t, count, known := shiftOperands(ev, BINARY_STRING, TypeBitstring, TypeHexstring, TypeOctetstring)
			if !known || ev.erroneous {
				return t
			}
			switch {
			case count < 0:
				ev.error(ev.operandSpan(1), fmtNegativeShift(name, count))
			case count == 0:
				ev.report(ev.span(), ev.ctx.noEffectSeverity(), fmtShiftByZero(name))
			default:
				if n, ok := ev.knownLength(0); ok && count >= n {
					ev.report(ev.span(), diag.Warning, fmtShiftBeyondLength(name, count, n))
				}
			}
			return t
		},
		fold: func(ev *evaluation) Value {
			v := ev.operands[0].value
			count, _ := ev.smallInt(1)
			units, ok := stringUnits(v)
			if !ok {
				return nil
			}
			n := len(units)
			if count > n {
				count = n
			}
			zeros := make([]string, count)
			for i := range zeros {
				zeros[i] = zeroUnit(v)
			}
			if left {
				return stringFromUnits(v, append(append([]string{}, units[count:]...), zeros...))
			}
			return stringFromUnits(v, append(zeros, units[:n-count]...))
		},
	})
}

func registerRotate(op Operator, name string, left bool) {
	register(op, operatorRule{
		name:    name,
		minArgs: 2,
		maxArgs: 2,
		check: func(ev *evaluation) *Type {
			t, count, known := shiftOperands(ev, "a string or list value",
				TypeBitstring, TypeHexstring, TypeOctetstring, TypeCharstring, TypeUniversalCharstring,
				TypeRecordOf, TypeSetOf)
			if ev.erroneous {
				return t
			}
			n, lengthKnown := ev.knownLength(0)
			switch {
			case lengthKnown && n <= 1:
				ev.report(ev.span(), ev.ctx.noEffectSeverity(), fmtRotationOfShortValue(name, n))
			case lengthKnown && known && count%n == 0:
				ev.report(ev.span(), ev.ctx.noEffectSeverity(), fmtRotationByMultiple(name, count, n))
			}
			return t
		},
		fold: func(ev *evaluation) Value {
			v := ev.operands[0].value
			count, _ := ev.smallInt(1)
			if !left {
				count = -count
			}
			if seq, ok := v.(*Sequence); ok {
				return &Sequence{Form: seq.Form, Type: seq.Type, Elements: rotateSlice(seq.Elements, count)}
			}
			units, ok := stringUnits(v)
			if !ok {
				return nil
			}
			return stringFromUnits(v, rotateSlice(units, count))
		},
	})
}

func init() {
	registerBitwise(OpAnd4b, "and4b", func(a, b *bitset.BitSet) *bitset.BitSet {
		return a.Intersection(b)
	})
	registerBitwise(OpOr4b, "or4b", func(a, b *bitset.BitSet) *bitset.BitSet {
		return a.Union(b)
	})
	registerBitwise(OpXor4b, "xor4b", func(a, b *bitset.BitSet) *bitset.BitSet {
		return a.SymmetricDifference(b)
	})

	register(OpNot4b, operatorRule{
		name:    "not4b",
		minArgs: 1,
		maxArgs: 1,
		check: func(ev *evaluation) *Type {
			if !ev.expect(0, BINARY_STRING, TypeBitstring, TypeHexstring, TypeOctetstring) {
				return nil
			}
			return builtinForKind(ev.operands[0].kind())
		},
		fold: func(ev *evaluation) Value {
			v := ev.operands[0].value
			bits, n := toBitset(v)
			//the complement only covers the length of the set
			return fromBitset(v, bits.Complement(), n)
		},
	})

	registerShift(OpShiftLeft, "<<", true)
	registerShift(OpShiftRight, ">>", false)
	registerRotate(OpRotateLeft, "<@", true)
	registerRotate(OpRotateRight, "@>", false)
}
