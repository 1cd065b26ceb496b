package semantic

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ttcn3tools/ttcnsem/internal/config"
	"github.com/ttcn3tools/ttcnsem/internal/diag"
)

func newTestContext(decls ...*Declaration) (*Context, *diag.Collector) {
	collector := diag.NewCollector(zerolog.Nop())
	resolver := MapResolver{}
	resolver.Add(decls...)
	ctx := NewContext(ContextConfig{Sink: collector, Resolver: resolver})
	return ctx, collector
}

func newTestContextWithConfig(cfg *config.Config, decls ...*Declaration) (*Context, *diag.Collector) {
	collector := diag.NewCollector(zerolog.Nop())
	resolver := MapResolver{}
	resolver.Add(decls...)
	ctx := NewContext(ContextConfig{Sink: collector, Resolver: resolver, Config: cfg})
	return ctx, collector
}

func expr(op Operator, operands ...Value) *Expression {
	e := NewExpression(op)
	for _, v := range operands {
		e.Operands = append(e.Operands, V(v))
	}
	return e
}

func str(s string) *Charstring {
	return NewCharstring(s)
}

func TestOperatorRules(t *testing.T) {
	for op := OpInvalid + 1; op < operatorCount; op++ {
		rule := operatorRules[op]
		if !assert.NotNil(t, rule.check, "operator %d", int(op)) {
			continue
		}
		assert.NotEmpty(t, rule.name)

		parsed, ok := ParseOperator(rule.name)
		assert.True(t, ok)
		assert.Equal(t, op, parsed, rule.name)
	}

	_, ok := ParseOperator("frobnicate")
	assert.False(t, ok)
}

func TestFolding(t *testing.T) {
	color := NewEnumeratedType("Color", "red", "green", "blue")

	testCases := []struct {
		name     string
		expr     *Expression
		expected string
	}{
		{"int2char", expr(OpInt2Char, NewInt(65)), `"A"`},
		{"int2unichar", expr(OpInt2Unichar, NewInt(0x263A)), `"☺"`},
		{"int2bit", expr(OpInt2Bit, NewInt(5), NewInt(4)), "'0101'B"},
		{"int2hex", expr(OpInt2Hex, NewInt(255), NewInt(4)), "'00FF'H"},
		{"int2hex of 0 with length 0", expr(OpInt2Hex, NewInt(0), NewInt(0)), "''H"},
		{"int2oct", expr(OpInt2Oct, NewInt(1), NewInt(2)), "'0001'O"},
		{"int2str", expr(OpInt2Str, NewInt(-42)), `"-42"`},
		{"int2float", expr(OpInt2Float, NewInt(3)), "3"},
		{"float2int truncates", expr(OpFloat2Int, NewFloat(-2.7)), "-2"},
		{"char2int", expr(OpChar2Int, str("a")), "97"},
		{"char2oct", expr(OpChar2Oct, str("AB")), "'4142'O"},
		{"unichar2int", expr(OpUnichar2Int, NewUniversalCharstring("é")), "233"},
		{"bit2int", expr(OpBit2Int, NewBitstring("1010")), "10"},
		{"bit2int of empty string", expr(OpBit2Int, NewBitstring("")), "0"},
		{"bit2hex pads", expr(OpBit2Hex, NewBitstring("11111")), "'1F'H"},
		{"bit2oct pads", expr(OpBit2Oct, NewBitstring("1")), "'01'O"},
		{"bit2str", expr(OpBit2Str, NewBitstring("0110")), `"0110"`},
		{"hex2int", expr(OpHex2Int, NewHexstring("1F")), "31"},
		{"hex2bit", expr(OpHex2Bit, NewHexstring("A3")), "'10100011'B"},
		{"hex2oct pads", expr(OpHex2Oct, NewHexstring("ABC")), "'0ABC'O"},
		{"hex2str", expr(OpHex2Str, NewHexstring("ab")), `"AB"`},
		{"oct2int", expr(OpOct2Int, NewOctetstring("FF")), "255"},
		{"oct2bit", expr(OpOct2Bit, NewOctetstring("0F")), "'00001111'B"},
		{"oct2hex", expr(OpOct2Hex, NewOctetstring("0F")), "'0F'H"},
		{"oct2str", expr(OpOct2Str, NewOctetstring("4142")), `"4142"`},
		{"oct2char", expr(OpOct2Char, NewOctetstring("4142")), `"AB"`},
		{"str2int", expr(OpStr2Int, str("-12")), "-12"},
		{"str2float", expr(OpStr2Float, str("1.5")), "1.5"},
		{"str2float infinity", expr(OpStr2Float, str("-infinity")), "-Inf"},
		{"str2bit", expr(OpStr2Bit, str("101")), "'101'B"},
		{"str2hex", expr(OpStr2Hex, str("1a")), "'1A'H"},
		{"str2oct", expr(OpStr2Oct, str("1a2B")), "'1A2B'O"},
		{"enum2int", expr(OpEnum2Int, NewEnumerated(color, "blue")), "2"},

		{"and4b", expr(OpAnd4b, NewHexstring("F0"), NewHexstring("3C")), "'30'H"},
		{"or4b", expr(OpOr4b, NewOctetstring("0F"), NewOctetstring("F0")), "'FF'O"},
		{"xor4b", expr(OpXor4b, NewBitstring("1100"), NewBitstring("1010")), "'0110'B"},
		{"not4b", expr(OpNot4b, NewHexstring("A")), "'5'H"},
		{"not4b of bitstring", expr(OpNot4b, NewBitstring("0010")), "'1101'B"},
		{"shift left", expr(OpShiftLeft, NewBitstring("1011"), NewInt(1)), "'0110'B"},
		{"shift right", expr(OpShiftRight, NewBitstring("1011"), NewInt(2)), "'0010'B"},
		{"shift hexstring", expr(OpShiftLeft, NewHexstring("ABCD"), NewInt(1)), "'BCD0'H"},
		{"shift octetstring", expr(OpShiftRight, NewOctetstring("1234"), NewInt(1)), "'0012'O"},
		{"rotate left", expr(OpRotateLeft, NewBitstring("1000"), NewInt(1)), "'0001'B"},
		{"rotate right", expr(OpRotateRight, str("abc"), NewInt(1)), `"cab"`},
		{"rotate with negative amount", expr(OpRotateLeft, str("abc"), NewInt(-1)), `"cab"`},
		{"rotate record of", expr(OpRotateLeft, NewRecordOfValue(NewInt(1), NewInt(2), NewInt(3)), NewInt(1)), "{ 2, 3, 1 }"},

		{"add", expr(OpAdd, NewInt(2), NewInt(3)), "5"},
		{"add floats", expr(OpAdd, NewFloat(0.5), NewFloat(0.25)), "0.75"},
		{"subtract", expr(OpSubtract, NewInt(2), NewInt(3)), "-1"},
		{"multiply", expr(OpMultiply, NewInt(-4), NewInt(3)), "-12"},
		{"divide truncates", expr(OpDivide, NewInt(-7), NewInt(2)), "-3"},
		{"mod has the sign of the divisor", expr(OpMod, NewInt(-7), NewInt(3)), "2"},
		{"rem has the sign of the dividend", expr(OpRem, NewInt(-7), NewInt(3)), "-1"},
		{"unary minus", expr(OpUnaryMinus, NewInt(5)), "-5"},
		{"not", expr(OpNot, NewBool(true)), "false"},
		{"and", expr(OpAnd, NewBool(true), NewBool(false)), "false"},
		{"or", expr(OpOr, NewBool(true), NewBool(false)), "true"},
		{"xor", expr(OpXor, NewBool(true), NewBool(true)), "false"},
		{"concat", expr(OpConcat, NewBitstring("10"), NewBitstring("01")), "'1001'B"},
		{"concat charstring and universal charstring", expr(OpConcat, str("a"), NewUniversalCharstring("é")), `"aé"`},
		{"concat lists", expr(OpConcat, NewRecordOfValue(NewInt(1)), NewRecordOfValue(NewInt(2))), "{ 1, 2 }"},

		{"equal", expr(OpEqual, NewInt(2), NewInt(2)), "true"},
		{"not equal", expr(OpNotEqual, str("a"), str("b")), "true"},
		{"set of equality ignores order", expr(OpEqual, NewSetOfValue(NewInt(1), NewInt(2)), NewSetOfValue(NewInt(2), NewInt(1))), "true"},
		{"record of equality is ordered", expr(OpEqual, NewRecordOfValue(NewInt(1), NewInt(2)), NewRecordOfValue(NewInt(2), NewInt(1))), "false"},
		{"less", expr(OpLess, NewInt(1), NewInt(2)), "true"},
		{"greater or equal", expr(OpGreaterEqual, NewFloat(1), NewFloat(2)), "false"},
		{"enumerated ordering", expr(OpLess, NewEnumerated(color, "red"), NewEnumerated(color, "blue")), "true"},

		{"sizeof record of", expr(OpSizeof, NewRecordOfValue(NewInt(1), NewInt(2), NewInt(3))), "3"},
		{"lengthof octetstring", expr(OpLengthof, NewOctetstring("AABBCC")), "3"},
		{"lengthof objid", expr(OpLengthof, NewObjid(0, 4, 0)), "3"},
		{"substr", expr(OpSubstr, str("hello"), NewInt(1), NewInt(3)), `"ell"`},
		{"substr of record of", expr(OpSubstr, NewRecordOfValue(NewInt(1), NewInt(2), NewInt(3)), NewInt(2), NewInt(1)), "{ 3 }"},
		{"replace", expr(OpReplace, NewBitstring("0000"), NewInt(1), NewInt(2), NewBitstring("111")), "'01110'B"},
		{"isvalue", expr(OpIsValue, NewInt(1)), "true"},
		{"isbound", expr(OpIsBound, str("")), "true"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			ctx, collector := newTestContext()

			result := testCase.expr.Evaluate(ctx, ExpectedConstant)
			assert.Empty(t, collector.Errors())
			if !assert.NotSame(t, testCase.expr, result, "not folded") {
				return
			}
			assert.Equal(t, testCase.expected, ValueString(result))
		})
	}
}

func TestDomainErrors(t *testing.T) {
	testCases := []struct {
		name    string
		expr    *Expression
		message string
	}{
		{"int2char out of range", expr(OpInt2Char, NewInt(128)), "range 0..127"},
		{"int2unichar negative", expr(OpInt2Unichar, NewInt(-1)), "range 0.."},
		{"int2hex value does not fit", expr(OpInt2Hex, NewInt(256), NewInt(1)), "does not fit"},
		{"int2bit negative value", expr(OpInt2Bit, NewInt(-1), NewInt(2)), "should not be negative"},
		{"int2oct negative length", expr(OpInt2Oct, NewInt(1), NewInt(-2)), "should not be negative"},
		{"int2hex length too large", expr(OpInt2Hex, NewInt(0), NewInt(1<<40)), "is too large: 1099511627776"},
		{"int2bit length above the folding limit", expr(OpInt2Bit, NewInt(0), NewInt(MAX_FOLDED_STRING_LENGTH+1)), "is too large"},
		{"int2oct length too large", expr(OpInt2Oct, NewInt(0), NewInt(1<<40)), "is too large"},
		{"char2int of two characters", expr(OpChar2Int, str("ab")), "length 1"},
		{"unichar2int of empty string", expr(OpUnichar2Int, NewUniversalCharstring("")), "length 1"},
		{"float2int of infinity", expr(OpFloat2Int, NewFloat(math.Inf(1))), "finite"},
		{"str2int malformed", expr(OpStr2Int, str("12a")), "not a valid integer"},
		{"str2float malformed", expr(OpStr2Float, str("1.2.3")), "not a valid float"},
		{"str2bit malformed", expr(OpStr2Bit, str("102")), "not a valid bitstring"},
		{"str2oct odd length", expr(OpStr2Oct, str("ABC")), "not a valid octetstring"},
		{"oct2char not a character", expr(OpOct2Char, NewOctetstring("41FF")), "not a valid character"},
		{"int2char wrong operand type", expr(OpInt2Char, str("a")), "should be an integer value"},
		{"wrong operand count", expr(OpInt2Hex, NewInt(1)), "takes 2 operand(s)"},
		{"and4b kinds differ", expr(OpAnd4b, NewBitstring("1"), NewHexstring("1")), "same type"},
		{"and4b lengths differ", expr(OpAnd4b, NewBitstring("10"), NewBitstring("101")), "same length"},
		{"negative shift", expr(OpShiftLeft, NewBitstring("10"), NewInt(-1)), "should not be negative"},
		{"division by zero", expr(OpDivide, NewInt(1), NewInt(0)), "should not be zero"},
		{"mod by zero", expr(OpMod, NewInt(1), NewInt(0)), "should not be zero"},
		{"mod of a float", expr(OpMod, NewFloat(1), NewInt(2)), "should be an integer value"},
		{"mixed integer and float", expr(OpAdd, NewInt(1), NewFloat(2)), "incompatible types"},
		{"concat of different string kinds", expr(OpConcat, NewBitstring("1"), NewHexstring("1")), "same type"},
		{"ordering of booleans", expr(OpLess, NewBool(true), NewInt(1)), "should be an integer, float or enumerated value"},
		{"substr out of bounds", expr(OpSubstr, str("abc"), NewInt(2), NewInt(2)), "exceeds the length 3"},
		{"substr negative index", expr(OpSubstr, str("abc"), NewInt(-1), NewInt(2)), "should not be negative"},
		{"replace kinds differ", expr(OpReplace, str("abc"), NewInt(0), NewInt(1), NewBitstring("1")), "same type"},
		{"port.checkstate in a constant", NewExpression(OpPortCheckState, R(NewRef("p")), V(str("Started"))), "not allowed where a constant is expected"},
		{"getverdict in a constant", NewExpression(OpGetVerdict), "not allowed where a constant is expected"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			ctx, collector := newTestContext()

			result := testCase.expr.Evaluate(ctx, ExpectedConstant)
			assert.Same(t, testCase.expr, result, "an erroneous expression evaluates to itself")
			assert.True(t, testCase.expr.Erroneous())

			errors := collector.Errors()
			if assert.Len(t, errors, 1) {
				assert.Contains(t, errors[0].Message, testCase.message)
			}
		})
	}
}

func TestAnd4bPerIndex(t *testing.T) {
	operands := []string{"", "0", "1", "0110", "1111", "1010", "0000", "11001010"}

	for _, a := range operands {
		for _, b := range operands {
			if len(a) != len(b) {
				continue
			}
			ctx, collector := newTestContext()
			result := expr(OpAnd4b, NewBitstring(a), NewBitstring(b)).Evaluate(ctx, ExpectedConstant)
			require.Empty(t, collector.Diagnostics())

			bits, ok := result.(*Bitstring)
			require.True(t, ok)
			require.Equal(t, len(a), bits.Len())
			for i := range a {
				assert.Equal(t, a[i] == '1' && b[i] == '1', bits.Bit(i), "%s and4b %s at %d", a, b, i)
			}
		}
	}

	t.Run("the length mismatch is reported even if the operands are not known", func(t *testing.T) {
		fixed := &Type{Kind: TypeBitstring, Name: "B4", Length: ExactLength(4)}
		v := NewDeclaration(DeclVariable, "v", fixed)
		ctx, collector := newTestContext(v)

		e := expr(OpAnd4b, NewReferenced(NewRef("v")), NewBitstring("101"))
		e.Evaluate(ctx, ExpectedDynamicValue)
		assert.True(t, e.Erroneous())
		assert.Len(t, collector.Errors(), 1)
	})
}

func TestShiftDiagnostics(t *testing.T) {
	t.Run("shift by zero has no effect", func(t *testing.T) {
		ctx, collector := newTestContext()
		e := expr(OpShiftLeft, NewBitstring("10"), NewInt(0))
		result := e.Evaluate(ctx, ExpectedConstant)

		assert.Equal(t, "'10'B", ValueString(result))
		assert.Len(t, collector.Warnings(), 1)
	})

	t.Run("shift beyond the length yields zeros", func(t *testing.T) {
		ctx, collector := newTestContext()
		e := expr(OpShiftRight, NewOctetstring("ABCD"), NewInt(5))
		result := e.Evaluate(ctx, ExpectedConstant)

		assert.Equal(t, "'0000'O", ValueString(result))
		assert.Len(t, collector.Warnings(), 1)
	})
}

func TestRotate(t *testing.T) {
	values := []Value{
		NewBitstring("1011001"),
		NewHexstring("ABC"),
		NewOctetstring("01020304"),
		str("hello"),
		NewUniversalCharstring("añb"),
	}

	cfg := config.New()
	cfg.NoEffect = diag.Ignore

	for _, v := range values {
		n, _ := unitLength(v)
		for amount := -2 * n; amount <= 2*n; amount++ {
			ctx, collector := newTestContextWithConfig(cfg)

			left := expr(OpRotateLeft, v, NewInt(int64(amount))).Evaluate(ctx, ExpectedConstant)
			reduced := expr(OpRotateLeft, v, NewInt(int64(((amount%n)+n)%n))).Evaluate(ctx, ExpectedConstant)
			assert.Equal(t, ValueString(reduced), ValueString(left), "%s <@ %d", ValueString(v), amount)

			back := expr(OpRotateRight, left, NewInt(int64(amount))).Evaluate(ctx, ExpectedConstant)
			assert.Equal(t, ValueString(v), ValueString(back), "%s <@ %d @> %d", ValueString(v), amount, amount)

			assert.Empty(t, collector.Diagnostics())
		}
	}

	t.Run("no-op rotations are reported with the configured severity", func(t *testing.T) {
		for _, severity := range []diag.Severity{diag.Ignore, diag.Warning, diag.Error} {
			cfg := config.New()
			cfg.NoEffect = severity
			ctx, collector := newTestContextWithConfig(cfg)

			short := expr(OpRotateLeft, str("a"), NewInt(3))
			short.Evaluate(ctx, ExpectedConstant)
			multiple := expr(OpRotateRight, str("abc"), NewInt(6))
			multiple.Evaluate(ctx, ExpectedConstant)

			switch severity {
			case diag.Ignore:
				assert.Empty(t, collector.Diagnostics())
			case diag.Warning:
				assert.Len(t, collector.Warnings(), 2)
				assert.False(t, short.Erroneous())
			case diag.Error:
				assert.Len(t, collector.Errors(), 2)
				assert.True(t, short.Erroneous())
				assert.True(t, multiple.Erroneous())
			}
		}
	})
}

func TestHex2BitOfInt2Hex(t *testing.T) {
	for _, v := range []int64{0, 1, 15, 16, 255, 4096, 65535} {
		for length := int64(4); length <= 6; length++ {
			ctx, collector := newTestContext()

			composed := NewExpression(OpHex2Bit, V(expr(OpInt2Hex, NewInt(v), NewInt(length))))
			direct := expr(OpInt2Bit, NewInt(v), NewInt(4*length))

			a := composed.Evaluate(ctx, ExpectedConstant)
			b := direct.Evaluate(ctx, ExpectedConstant)
			require.Empty(t, collector.Diagnostics())
			assert.Equal(t, ValueString(b), ValueString(a))
		}
	}

	t.Run("big integers", func(t *testing.T) {
		ctx, _ := newTestContext()
		n, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
		e := expr(OpInt2Hex, NewBigInt(n), NewInt(27))
		assert.Equal(t, "'0018EE90FF6C373E0EE4E3F0AD2'H", ValueString(e.Evaluate(ctx, ExpectedConstant)))
	})
}

func TestReplaceSubstrRoundTrip(t *testing.T) {
	values := []Value{
		NewBitstring("110010"),
		NewHexstring("ABCDEF"),
		NewOctetstring("0102030405"),
		str("abcdef"),
		NewRecordOfValue(NewInt(1), NewInt(2), NewInt(3), NewInt(4)),
	}

	for _, v := range values {
		n, _ := unitLength(v)
		for index := 0; index <= n; index++ {
			for count := 0; index+count <= n; count++ {
				ctx, collector := newTestContext()
				sub := expr(OpSubstr, v, NewInt(int64(index)), NewInt(int64(count)))
				replaced := NewExpression(OpReplace, V(v), V(NewInt(int64(index))), V(NewInt(int64(count))), V(sub))

				result := replaced.Evaluate(ctx, ExpectedConstant)
				require.Empty(t, collector.Diagnostics())
				assert.Equal(t, ValueString(v), ValueString(result))
			}
		}
	}
}

func TestSizeofTemplates(t *testing.T) {
	list := func(elements ...*Template) *TemplateInstance {
		return NewTemplateInstance(TemplateList(elements...))
	}

	testCases := []struct {
		name     string
		template *TemplateInstance
		size     int64
		message  string
	}{
		{"template list", list(SpecificValue(NewInt(1)), AnyValue()), 2, ""},
		{"any value with exact length", NewTemplateInstance(AnyValue().WithLength(ExactLength(3))), 3, ""},
		{"list with any or none and an exact length", NewTemplateInstance(TemplateList(SpecificValue(NewInt(1)), AnyOrOmit()).WithLength(ExactLength(4))), 4, ""},
		{"list with any or none", list(SpecificValue(NewInt(1)), AnyOrOmit()), 0, "cannot be determined"},
		{"any value without length", NewTemplateInstance(AnyValue()), 0, "cannot be determined"},
		{"omit", NewTemplateInstance(OmitT()), 0, "`omit'"},
		{"complement", NewTemplateInstance(ComplementList(SpecificValue(NewRecordOfValue(NewInt(1))))), 0, "complemented"},
		{"value list of equal sizes", NewTemplateInstance(ValueList(
			SpecificValue(NewRecordOfValue(NewInt(1))), SpecificValue(NewRecordOfValue(NewInt(2))))), 1, ""},
		{"value list of different sizes", NewTemplateInstance(ValueList(
			SpecificValue(NewRecordOfValue(NewInt(1))), SpecificValue(NewRecordOfValue(NewInt(1), NewInt(2))))), 0, "1 and 2"},
		{"named list", NewTemplateInstance(NamedTemplateList(
			NamedTemplate{"a", AnyValue()}, NamedTemplate{"b", OmitT()})), 1, ""},
		{"named list with a field that may be omitted", NewTemplateInstance(NamedTemplateList(
			NamedTemplate{"a", AnyValue()}, NamedTemplate{"b", AnyOrOmit()})), 0, "`b' may be omitted"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			ctx, collector := newTestContext()
			e := NewExpression(OpSizeof, T(testCase.template))
			result := e.Evaluate(ctx, ExpectedDynamicValue)

			if testCase.message != "" {
				assert.True(t, e.Erroneous())
				if assert.Len(t, collector.Errors(), 1) {
					assert.Contains(t, collector.Errors()[0].Message, testCase.message)
				}
				return
			}
			assert.Empty(t, collector.Diagnostics())
			assert.Equal(t, strconv.FormatInt(testCase.size, 10), ValueString(result))
		})
	}

	t.Run("sizeof a record counts the present fields", func(t *testing.T) {
		ctx, _ := newTestContext()
		r := NewRecordValue(nil, FieldValue{"a", NewInt(1)}, FieldValue{"b", NewOmit()}, FieldValue{"c", str("x")})
		assert.Equal(t, "2", ValueString(expr(OpSizeof, r).Evaluate(ctx, ExpectedConstant)))
	})
}

func TestPresenceOperators(t *testing.T) {
	inner := NewUnion("U", &Field{Name: "i", Type: INTEGER}, &Field{Name: "s", Type: CHARSTRING})
	rec := NewRecord("R",
		&Field{Name: "a", Type: INTEGER, Optional: true},
		&Field{Name: "b", Type: INTEGER, Optional: true},
		&Field{Name: "u", Type: inner},
	)
	c := NewConstant("c", rec, NewRecordValue(nil,
		FieldValue{"a", NewInt(1)},
		FieldValue{"b", NewOmit()},
		FieldValue{"u", NewUnionValue(nil, "s", str("x"))},
	))
	v := NewVariable("v", rec, nil)

	testCases := []struct {
		name     string
		expr     *Expression
		expected string
	}{
		{"present field", NewExpression(OpIsPresent, V(NewReferenced(NewRef("c", FieldSubref("a"))))), "true"},
		{"omitted field", NewExpression(OpIsPresent, V(NewReferenced(NewRef("c", FieldSubref("b"))))), "false"},
		{"chosen field", NewExpression(OpIsChosen, V(NewReferenced(NewRef("c", FieldSubref("u"), FieldSubref("s"))))), "true"},
		{"other field", NewExpression(OpIsChosen, V(NewReferenced(NewRef("c", FieldSubref("u"), FieldSubref("i"))))), "false"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			ctx, collector := newTestContext(c, v)
			result := testCase.expr.Evaluate(ctx, ExpectedConstant)
			assert.Empty(t, collector.Diagnostics())
			assert.Equal(t, testCase.expected, ValueString(result))
		})
	}

	t.Run("variables are not folded", func(t *testing.T) {
		ctx, collector := newTestContext(c, v)
		e := NewExpression(OpIsPresent, V(NewReferenced(NewRef("v", FieldSubref("a")))))
		assert.True(t, e.IsUnfoldable(ctx, ExpectedDynamicValue))
		assert.Empty(t, collector.Diagnostics())
	})

	t.Run("ischosen of a record field", func(t *testing.T) {
		ctx, collector := newTestContext(c, v)
		e := NewExpression(OpIsChosen, V(NewReferenced(NewRef("c", FieldSubref("a")))))
		e.Evaluate(ctx, ExpectedConstant)
		assert.True(t, e.Erroneous())
		assert.Len(t, collector.Errors(), 1)
	})
}

func TestRuntimeOperations(t *testing.T) {
	timer := NewDeclaration(DeclTimer, "t", nil)
	port := NewDeclaration(DeclPort, "p", nil)
	tc := NewDeclaration(DeclTestcase, "tc", nil)
	comp := &Type{Kind: TypeComponent, Name: "MyComp"}

	testCases := []struct {
		name     string
		expr     *Expression
		governor *Type
		message  string
	}{
		{"timer.read", NewExpression(OpTimerRead, R(NewRef("t"))), FLOAT, ""},
		{"timer.read of a port", NewExpression(OpTimerRead, R(NewRef("p"))), FLOAT, "reference to a timer"},
		{"any timer running", NewExpression(OpTimerRunning), BOOLEAN, ""},
		{"port.checkstate", NewExpression(OpPortCheckState, R(NewRef("p")), V(str("Mapped"))), BOOLEAN, ""},
		{"port.checkstate with unknown state", NewExpression(OpPortCheckState, R(NewRef("p")), V(str("Sleeping"))), BOOLEAN, "unknown port state"},
		{"create", NewExpression(OpCreate, TypeOperand(comp)), comp, ""},
		{"create of a non component type", NewExpression(OpCreate, TypeOperand(INTEGER)), ANY_COMPONENT, "component type"},
		{"execute", NewExpression(OpExecute, R(NewRef("tc")), V(NewFloat(5))), VERDICT, ""},
		{"execute with a negative timeout", NewExpression(OpExecute, R(NewRef("tc")), V(NewFloat(-1))), VERDICT, "should not be negative"},
		{"self", NewExpression(OpSelf), ANY_COMPONENT, ""},
		{"rnd", NewExpression(OpRnd), FLOAT, ""},
		{"log2str", NewExpression(OpLog2Str, V(NewInt(1)), V(str("a"))), CHARSTRING, ""},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			ctx, collector := newTestContext(timer, port, tc)
			e := testCase.expr

			assert.True(t, e.IsUnfoldable(ctx, ExpectedDynamicValue))
			if testCase.message != "" {
				if assert.Len(t, collector.Errors(), 1) {
					assert.Contains(t, collector.Errors()[0].Message, testCase.message)
				}
				return
			}
			assert.Empty(t, collector.Diagnostics())
			assert.Same(t, testCase.governor, e.Governor())
		})
	}

	t.Run("testcasename is allowed in static contexts", func(t *testing.T) {
		ctx, collector := newTestContext()
		e := NewExpression(OpTestcaseName)
		assert.True(t, e.IsUnfoldable(ctx, ExpectedStaticValue))
		assert.Empty(t, collector.Diagnostics())
	})

	t.Run("apply", func(t *testing.T) {
		fn := &Type{Kind: TypeFunction, Name: "F", Return: INTEGER}
		tmplFn := &Type{Kind: TypeFunction, Name: "TF", Return: INTEGER, ReturnsTemplate: true}
		noReturn := &Type{Kind: TypeFunction, Name: "P"}
		f := NewVariable("f", fn, nil)
		tf := NewVariable("tf", tmplFn, nil)
		p := NewVariable("p", noReturn, nil)

		ctx, collector := newTestContext(f, tf, p)
		e := NewExpression(OpApply, V(NewReferenced(NewRef("f"))))
		e.Evaluate(ctx, ExpectedDynamicValue)
		assert.Same(t, INTEGER, e.Governor())
		assert.Empty(t, collector.Diagnostics())

		e = NewExpression(OpApply, V(NewReferenced(NewRef("p"))))
		e.Evaluate(ctx, ExpectedDynamicValue)
		assert.True(t, e.Erroneous())

		e = NewExpression(OpApply, V(NewReferenced(NewRef("tf"))))
		e.Evaluate(ctx, ExpectedDynamicValue)
		assert.True(t, e.Erroneous())

		e = NewExpression(OpApply, V(NewReferenced(NewRef("tf"))))
		e.Evaluate(ctx, ExpectedTemplate)
		assert.False(t, e.Erroneous())
	})
}

func TestExpressionIdempotence(t *testing.T) {
	ctx, collector := newTestContext()
	e := expr(OpAdd, NewInt(1), expr(OpDivide, NewInt(1), NewInt(0)))

	first := e.Evaluate(ctx, ExpectedConstant)
	diagnostics := append([]diag.Diagnostic{}, collector.Diagnostics()...)
	require.Len(t, diagnostics, 1)

	second := e.Evaluate(ctx, ExpectedConstant)
	assert.Same(t, first, second)
	assert.Equal(t, diagnostics, collector.Diagnostics(), "no new diagnostic in the same epoch")

	t.Run("a new epoch re-evaluates the expression", func(t *testing.T) {
		before, _ := e.CheckedAt()
		ctx.NextEpoch()
		e.Evaluate(ctx, ExpectedConstant)
		after, _ := e.CheckedAt()
		assert.True(t, before.IsOlderThan(after))
		assert.Len(t, collector.Diagnostics(), 2)
		assert.True(t, e.Erroneous())
	})
}

func TestSharedSubexpressionDiagnostics(t *testing.T) {
	shared := expr(OpDivide, NewInt(1), NewInt(0))
	a := NewConstant("a", INTEGER, expr(OpAdd, shared, NewInt(1)))
	b := NewConstant("b", INTEGER, expr(OpSubtract, shared, NewInt(1)))
	ctx, collector := newTestContext(a, b)

	assert.False(t, a.Check(ctx))
	assert.False(t, b.Check(ctx))

	require.Len(t, collector.Diagnostics(), 1)
	assert.Contains(t, collector.Diagnostics()[0].Message, "should not be zero")
	assert.Equal(t, collector.Diagnostics(), a.Diagnostics())
	assert.Equal(t, collector.Diagnostics(), b.Diagnostics(), "each user of the sub expression keeps its diagnostics")

	t.Run("a new epoch reports the diagnostic again", func(t *testing.T) {
		ctx.NextEpoch()
		assert.False(t, a.Check(ctx))
		assert.False(t, b.Check(ctx))
		assert.Len(t, collector.Diagnostics(), 2)
	})
}

func TestAmbiguousIdentifiers(t *testing.T) {
	color := NewEnumeratedType("Color", "red", "green", "blue")
	c := NewConstant("c", color, NewIdentifier("green"))
	red := NewConstant("red", INTEGER, NewInt(7))

	t.Run("enumeration item of the peer operand", func(t *testing.T) {
		ctx, collector := newTestContext(c)
		e := expr(OpLess, NewReferenced(NewRef("c")), NewIdentifier("blue"))
		assert.Equal(t, "true", ValueString(e.Evaluate(ctx, ExpectedConstant)))
		assert.Empty(t, collector.Diagnostics())
	})

	t.Run("references take precedence", func(t *testing.T) {
		ctx, collector := newTestContext(c, red)
		e := expr(OpAdd, NewIdentifier("red"), NewInt(1))
		assert.Equal(t, "8", ValueString(e.Evaluate(ctx, ExpectedConstant)))
		assert.Empty(t, collector.Diagnostics())
	})

	t.Run("unresolved identifier", func(t *testing.T) {
		ctx, collector := newTestContext(c)
		e := expr(OpEqual, NewReferenced(NewRef("c")), NewIdentifier("purple"))
		e.Evaluate(ctx, ExpectedConstant)
		assert.True(t, e.Erroneous())
		if assert.Len(t, collector.Errors(), 1) {
			assert.True(t, strings.Contains(collector.Errors()[0].Message, "purple"))
		}
	})
}
