package semantic

import (
	"encoding/hex"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

const (
	MAX_CHAR_CODE    = 127
	MAX_UNICHAR_CODE = math.MaxInt32

	// length in units (bits, hex digits, octets) above which int2bit, int2hex and int2oct are
	// reported instead of folded.
	MAX_FOLDED_STRING_LENGTH = 1 << 20
)

var (
	decimalIntegerRegex = regexp.MustCompile(`^[+-]?[0-9]+$`)
	floatRegex          = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE][+-]?[0-9]+)?$`)
	bitDigitsRegex      = regexp.MustCompile(`^[01]*$`)
)

const (
	INTEGER_VALUE     = "an integer value"
	FLOAT_VALUE       = "a float value"
	BOOLEAN_VALUE     = "a boolean value"
	BITSTRING_VALUE   = "a bitstring value"
	HEXSTRING_VALUE   = "a hexstring value"
	OCTETSTRING_VALUE = "an octetstring value"
	CHARSTRING_VALUE  = "a charstring value"
	UNICHAR_VALUE     = "a charstring or universal charstring value"
	ENUMERATED_VALUE  = "an enumerated value"
	BINARY_STRING     = "a bitstring, hexstring or octetstring value"
	STRING_VALUE      = "a string value"
	NUMERIC_VALUE     = "an integer or float value"
)

// conversion describes a unary conversion operator.
type conversion struct {
	from   TypeKind
	what   string
	result *Type
	//validate checks a known operand, it reports and returns false if the operand is out of domain.
	validate func(ev *evaluation, v Value) bool
	convert  func(v Value) Value
}

func registerConversion(op Operator, name string, c conversion) {
	register(op, operatorRule{
		name:    name,
		minArgs: 1,
		maxArgs: 1,
		check: func(ev *evaluation) *Type {
			ok := ev.expect(0, c.what, c.from)
			if ok && c.validate != nil && ev.operands[0].value != nil {
				c.validate(ev, ev.operands[0].value)
			}
			return c.result
		},
		fold: func(ev *evaluation) Value {
			return c.convert(ev.operands[0].value)
		},
	})
}

func intOperand(v Value) *big.Int {
	return v.(*Integer).V
}

func checkIntRange(ev *evaluation, i int, v *big.Int, min, max int64) bool {
	if v.Cmp(big.NewInt(min)) < 0 || v.Cmp(big.NewInt(max)) > 0 {
		ev.error(ev.operandSpan(i), fmtOperandOutOfRange(i, ev.rule.name, v.String(), min, max))
		return false
	}
	return true
}

func checkSingleCharacter(ev *evaluation, v Value) bool {
	n, _ := unitLength(v)
	if n != 1 {
		ev.error(ev.operandSpan(0), fmtLengthOneExpected(ev.rule.name, n))
		return false
	}
	return true
}

func checkMatches(regex *regexp.Regexp, literalKind string) func(ev *evaluation, v Value) bool {
	return func(ev *evaluation, v Value) bool {
		s := v.(*Charstring).V
		if !regex.MatchString(s) {
			ev.error(ev.operandSpan(0), fmtMalformedLiteral(ev.rule.name, literalKind, s))
			return false
		}
		return true
	}
}

func parseInteger(digits string, base int) *big.Int {
	if digits == "" {
		return new(big.Int)
	}
	i, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return new(big.Int)
	}
	return i
}

// formatUnsigned formats v in base 2 or 16, left-padded with zeros to width digits.
func formatUnsigned(v *big.Int, base int, width int) string {
	digits := ""
	if v.Sign() != 0 {
		digits = strings.ToUpper(v.Text(base))
	}
	if len(digits) < width {
		digits = strings.Repeat("0", width-len(digits)) + digits
	}
	return digits
}

// registerIntToString registers int2bit, int2hex and int2oct: the first operand is converted
// to a string of exactly the length given by the second operand.
func registerIntToString(op Operator, name string, bitsPerUnit int, result *Type, build func(v *big.Int, length int) Value) {
	register(op, operatorRule{
		name:    name,
		minArgs: 2,
		maxArgs: 2,
		check: func(ev *evaluation) *Type {
			ok := ev.expect(0, INTEGER_VALUE, TypeInteger)
			ok = ev.expect(1, INTEGER_VALUE, TypeInteger) && ok
			if !ok {
				return result
			}

			v, valueKnown := ev.integer(0)
			if valueKnown && v.Sign() < 0 {
				ev.error(ev.operandSpan(0), fmtNegativeOperand(0, name, v.String()))
				return result
			}
			length, lengthKnown := ev.integer(1)
			if lengthKnown && length.Sign() < 0 {
				ev.error(ev.operandSpan(1), fmtNegativeOperand(1, name, length.String()))
				return result
			}
			if lengthKnown && (!length.IsInt64() || length.Int64() > MAX_FOLDED_STRING_LENGTH) {
				ev.error(ev.operandSpan(1), fmtOperandTooLarge(1, name, length.String()))
				return result
			}
			if valueKnown && lengthKnown && int64(v.BitLen()) > int64(bitsPerUnit)*length.Int64() {
				ev.error(ev.span(), fmtValueDoesNotFit(name, v.String(), length.Int64()))
			}
			return result
		},
		fold: func(ev *evaluation) Value {
			length, ok := ev.smallInt(1)
			if !ok {
				return nil
			}
			v, _ := ev.integer(0)
			return build(v, length)
		},
	})
}

func init() {
	registerConversion(OpInt2Char, "int2char", conversion{
		from: TypeInteger, what: INTEGER_VALUE, result: CHARSTRING,
		validate: func(ev *evaluation, v Value) bool {
			return checkIntRange(ev, 0, intOperand(v), 0, MAX_CHAR_CODE)
		},
		convert: func(v Value) Value {
			return NewCharstring(string(rune(intOperand(v).Int64())))
		},
	})
	registerConversion(OpInt2Unichar, "int2unichar", conversion{
		from: TypeInteger, what: INTEGER_VALUE, result: UNIVERSAL_CHARSTRING,
		validate: func(ev *evaluation, v Value) bool {
			return checkIntRange(ev, 0, intOperand(v), 0, MAX_UNICHAR_CODE)
		},
		convert: func(v Value) Value {
			return &UniversalCharstring{V: []rune{rune(intOperand(v).Int64())}}
		},
	})

	registerIntToString(OpInt2Bit, "int2bit", 1, BITSTRING, func(v *big.Int, length int) Value {
		return NewBitstring(formatUnsigned(v, 2, length))
	})
	registerIntToString(OpInt2Hex, "int2hex", 4, HEXSTRING, func(v *big.Int, length int) Value {
		return NewHexstring(formatUnsigned(v, 16, length))
	})
	registerIntToString(OpInt2Oct, "int2oct", 8, OCTETSTRING, func(v *big.Int, length int) Value {
		return NewOctetstring(formatUnsigned(v, 16, 2*length))
	})

	registerConversion(OpInt2Str, "int2str", conversion{
		from: TypeInteger, what: INTEGER_VALUE, result: CHARSTRING,
		convert: func(v Value) Value {
			return NewCharstring(intOperand(v).String())
		},
	})
	registerConversion(OpInt2Float, "int2float", conversion{
		from: TypeInteger, what: INTEGER_VALUE, result: FLOAT,
		convert: func(v Value) Value {
			f, _ := new(big.Float).SetInt(intOperand(v)).Float64()
			return NewFloat(f)
		},
	})
	registerConversion(OpFloat2Int, "float2int", conversion{
		from: TypeFloat, what: FLOAT_VALUE, result: INTEGER,
		validate: func(ev *evaluation, v Value) bool {
			f := v.(*Float).V
			if math.IsInf(f, 0) || math.IsNaN(f) {
				ev.error(ev.operandSpan(0), fmtNonFiniteFloat(ev.rule.name, ValueString(v)))
				return false
			}
			return true
		},
		convert: func(v Value) Value {
			//truncation towards zero
			i, _ := big.NewFloat(v.(*Float).V).Int(nil)
			return &Integer{V: i}
		},
	})

	registerConversion(OpChar2Int, "char2int", conversion{
		from: TypeCharstring, what: CHARSTRING_VALUE, result: INTEGER,
		validate: checkSingleCharacter,
		convert: func(v Value) Value {
			return NewInt(int64(v.(*Charstring).V[0]))
		},
	})
	registerConversion(OpChar2Oct, "char2oct", conversion{
		from: TypeCharstring, what: CHARSTRING_VALUE, result: OCTETSTRING,
		convert: func(v Value) Value {
			return NewOctetstring(hex.EncodeToString([]byte(v.(*Charstring).V)))
		},
	})
	register(OpUnichar2Int, operatorRule{
		name:    "unichar2int",
		minArgs: 1,
		maxArgs: 1,
		check: func(ev *evaluation) *Type {
			if ev.expect(0, UNICHAR_VALUE, TypeUniversalCharstring, TypeCharstring) && ev.operands[0].value != nil {
				checkSingleCharacter(ev, ev.operands[0].value)
			}
			return INTEGER
		},
		fold: func(ev *evaluation) Value {
			switch v := ev.operands[0].value.(type) {
			case *UniversalCharstring:
				return NewInt(int64(v.V[0]))
			case *Charstring:
				return NewInt(int64(v.V[0]))
			}
			return nil
		},
	})

	registerConversion(OpBit2Int, "bit2int", conversion{
		from: TypeBitstring, what: BITSTRING_VALUE, result: INTEGER,
		convert: func(v Value) Value {
			return &Integer{V: parseInteger(v.(*Bitstring).String(), 2)}
		},
	})
	registerConversion(OpBit2Hex, "bit2hex", conversion{
		from: TypeBitstring, what: BITSTRING_VALUE, result: HEXSTRING,
		convert: func(v Value) Value {
			return NewHexstring(bitsToHex(v.(*Bitstring).String()))
		},
	})
	registerConversion(OpBit2Oct, "bit2oct", conversion{
		from: TypeBitstring, what: BITSTRING_VALUE, result: OCTETSTRING,
		convert: func(v Value) Value {
			return NewOctetstring(bitsToHex(leftPad(v.(*Bitstring).String(), '0', 8)))
		},
	})
	registerConversion(OpBit2Str, "bit2str", conversion{
		from: TypeBitstring, what: BITSTRING_VALUE, result: CHARSTRING,
		convert: func(v Value) Value {
			return NewCharstring(v.(*Bitstring).String())
		},
	})

	registerConversion(OpHex2Int, "hex2int", conversion{
		from: TypeHexstring, what: HEXSTRING_VALUE, result: INTEGER,
		convert: func(v Value) Value {
			return &Integer{V: parseInteger(v.(*Hexstring).Digits, 16)}
		},
	})
	registerConversion(OpHex2Bit, "hex2bit", conversion{
		from: TypeHexstring, what: HEXSTRING_VALUE, result: BITSTRING,
		convert: func(v Value) Value {
			return NewBitstring(hexToBits(v.(*Hexstring).Digits))
		},
	})
	registerConversion(OpHex2Oct, "hex2oct", conversion{
		from: TypeHexstring, what: HEXSTRING_VALUE, result: OCTETSTRING,
		convert: func(v Value) Value {
			return NewOctetstring(leftPad(v.(*Hexstring).Digits, '0', 2))
		},
	})
	registerConversion(OpHex2Str, "hex2str", conversion{
		from: TypeHexstring, what: HEXSTRING_VALUE, result: CHARSTRING,
		convert: func(v Value) Value {
			return NewCharstring(v.(*Hexstring).Digits)
		},
	})

	registerConversion(OpOct2Int, "oct2int", conversion{
		from: TypeOctetstring, what: OCTETSTRING_VALUE, result: INTEGER,
		convert: func(v Value) Value {
			return &Integer{V: parseInteger(v.(*Octetstring).Digits, 16)}
		},
	})
	registerConversion(OpOct2Bit, "oct2bit", conversion{
		from: TypeOctetstring, what: OCTETSTRING_VALUE, result: BITSTRING,
		convert: func(v Value) Value {
			return NewBitstring(hexToBits(v.(*Octetstring).Digits))
		},
	})
	registerConversion(OpOct2Hex, "oct2hex", conversion{
		from: TypeOctetstring, what: OCTETSTRING_VALUE, result: HEXSTRING,
		convert: func(v Value) Value {
			return NewHexstring(v.(*Octetstring).Digits)
		},
	})
	registerConversion(OpOct2Str, "oct2str", conversion{
		from: TypeOctetstring, what: OCTETSTRING_VALUE, result: CHARSTRING,
		convert: func(v Value) Value {
			return NewCharstring(v.(*Octetstring).Digits)
		},
	})
	registerConversion(OpOct2Char, "oct2char", conversion{
		from: TypeOctetstring, what: OCTETSTRING_VALUE, result: CHARSTRING,
		validate: func(ev *evaluation, v Value) bool {
			bytes, _ := hex.DecodeString(v.(*Octetstring).Digits)
			for i, b := range bytes {
				if b > MAX_CHAR_CODE {
					ev.error(ev.operandSpan(0), fmtOctetNotCharacter(ev.rule.name, i, b))
					return false
				}
			}
			return true
		},
		convert: func(v Value) Value {
			bytes, _ := hex.DecodeString(v.(*Octetstring).Digits)
			return NewCharstring(string(bytes))
		},
	})

	registerConversion(OpStr2Int, "str2int", conversion{
		from: TypeCharstring, what: CHARSTRING_VALUE, result: INTEGER,
		validate: checkMatches(decimalIntegerRegex, "integer"),
		convert: func(v Value) Value {
			return &Integer{V: parseInteger(v.(*Charstring).V, 10)}
		},
	})
	registerConversion(OpStr2Float, "str2float", conversion{
		from: TypeCharstring, what: CHARSTRING_VALUE, result: FLOAT,
		validate: func(ev *evaluation, v Value) bool {
			s := v.(*Charstring).V
			if _, special := specialFloat(s); special {
				return true
			}
			return checkMatches(floatRegex, "float")(ev, v)
		},
		convert: func(v Value) Value {
			s := v.(*Charstring).V
			if f, special := specialFloat(s); special {
				return NewFloat(f)
			}
			//out of range literals are folded to ±Inf by ParseFloat
			f, _ := strconv.ParseFloat(s, 64)
			return NewFloat(f)
		},
	})
	registerConversion(OpStr2Bit, "str2bit", conversion{
		from: TypeCharstring, what: CHARSTRING_VALUE, result: BITSTRING,
		validate: checkMatches(bitDigitsRegex, "bitstring"),
		convert: func(v Value) Value {
			return NewBitstring(v.(*Charstring).V)
		},
	})
	registerConversion(OpStr2Hex, "str2hex", conversion{
		from: TypeCharstring, what: CHARSTRING_VALUE, result: HEXSTRING,
		validate: func(ev *evaluation, v Value) bool {
			s := v.(*Charstring).V
			if !isHexDigits(s) {
				ev.error(ev.operandSpan(0), fmtMalformedLiteral(ev.rule.name, "hexstring", s))
				return false
			}
			return true
		},
		convert: func(v Value) Value {
			return NewHexstring(v.(*Charstring).V)
		},
	})
	registerConversion(OpStr2Oct, "str2oct", conversion{
		from: TypeCharstring, what: CHARSTRING_VALUE, result: OCTETSTRING,
		validate: func(ev *evaluation, v Value) bool {
			s := v.(*Charstring).V
			if !isHexDigits(s) || len(s)%2 != 0 {
				ev.error(ev.operandSpan(0), fmtMalformedLiteral(ev.rule.name, "octetstring", s))
				return false
			}
			return true
		},
		convert: func(v Value) Value {
			return NewOctetstring(v.(*Charstring).V)
		},
	})

	register(OpEnum2Int, operatorRule{
		name:    "enum2int",
		minArgs: 1,
		maxArgs: 1,
		check: func(ev *evaluation) *Type {
			ev.expect(0, ENUMERATED_VALUE, TypeEnumerated)
			return INTEGER
		},
		fold: func(ev *evaluation) Value {
			e, ok := ev.operands[0].value.(*Enumerated)
			if !ok {
				return nil
			}
			n, ok := e.Number()
			if !ok {
				return nil
			}
			return NewInt(n)
		},
	})
}

func specialFloat(s string) (float64, bool) {
	switch s {
	case "infinity":
		return math.Inf(1), true
	case "-infinity":
		return math.Inf(-1), true
	case "not_a_number":
		return math.NaN(), true
	}
	return 0, false
}
