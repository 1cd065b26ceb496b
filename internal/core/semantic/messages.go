package semantic

import (
	"fmt"
	"strings"
)

const (
	INDEX_SHOULD_BE_INTEGER = "the index of a list or string element should be an integer value"
	SIZE_OF_OMIT            = "the size of `omit' cannot be determined"
	SIZE_OF_COMPLEMENT      = "the size of a complemented template cannot be determined without an exact length restriction"
)

var ordinals = [...]string{"first", "second", "third", "fourth", "fifth"}

func ordinal(i int) string {
	if i >= 0 && i < len(ordinals) {
		return ordinals[i]
	}
	return fmt.Sprintf("%dth", i+1)
}

func fmtUnresolvedReference(name string) string {
	return fmt.Sprintf("there is no definition named `%s'", name)
}

func fmtReferenceNotAllowed(decl *Declaration, expected ExpectedKind) string {
	if expected == ExpectedTemplate {
		return fmt.Sprintf("reference to a value or template was expected instead of %s `%s'", decl.Kind, decl.Name)
	}
	return fmt.Sprintf("reference to a %s was expected instead of %s `%s'", expected, decl.Kind, decl.Name)
}

func fmtConstantNotEvaluable(name string) string {
	return fmt.Sprintf("the value of constant `%s' cannot be computed at analysis time", name)
}

func fmtOperationNotAllowed(name string, expected ExpectedKind) string {
	return fmt.Sprintf("operation `%s' is not allowed where a %s is expected", name, expected)
}

func fmtWrongOperandCount(name string, min, max, actual int) string {
	switch {
	case min == max:
		return fmt.Sprintf("operation `%s' takes %d operand(s) but %d were given", name, min, actual)
	case max == NO_MAX_OPERANDS:
		return fmt.Sprintf("operation `%s' takes at least %d operand(s) but %d were given", name, min, actual)
	}
	return fmt.Sprintf("operation `%s' takes %d to %d operands but %d were given", name, min, max, actual)
}

func fmtOperandShouldBe(i int, name string, what string) string {
	return fmt.Sprintf("%s operand of operation `%s' should be %s", ordinal(i), name, what)
}

func fmtEntityExpected(i int, name string, kinds []DeclKind) string {
	descriptions := make([]string, len(kinds))
	for j, k := range kinds {
		descriptions[j] = k.String()
	}
	return fmt.Sprintf("%s operand of operation `%s' should be a reference to a %s", ordinal(i), name, strings.Join(descriptions, " or "))
}

func fmtIncompatibleTypes(a, b *Type) string {
	return fmt.Sprintf("the operands have incompatible types `%s' and `%s'", a, b)
}

func fmtConversionRequired(target, source *Type) string {
	return fmt.Sprintf("type `%s' is only compatible with `%s' by conversion", source, target)
}

func fmtTypeMismatch(target, source *Type) string {
	return fmt.Sprintf("type mismatch: a value of type `%s' was expected instead of `%s'", target, source)
}

func fmtTypeMismatchLiteral(target *Type, literal string) string {
	return fmt.Sprintf("type mismatch: a value of type `%s' was expected instead of a %s", target, literal)
}

func fmtUnknownField(t *Type, field string) string {
	return fmt.Sprintf("type `%s' has no field named `%s'", t, field)
}

func fmtFieldOfNonStructured(t *Type, field string) string {
	return fmt.Sprintf("invalid field reference `%s': type `%s' has no fields", field, t)
}

func fmtNegativeIndex(index string) string {
	return fmt.Sprintf("a non-negative index was expected instead of %s", index)
}

func fmtIndexOfNonList(t *Type) string {
	return fmt.Sprintf("type `%s' cannot be indexed", t)
}

func fmtAccessToOmittedField(ref string) string {
	return fmt.Sprintf("access to a field of an omitted value in `%s'", ref)
}

func fmtInactiveUnionField(field, active string) string {
	return fmt.Sprintf("access to inactive field `%s' of a union value, the active field is `%s'", field, active)
}

func fmtIndexOverflow(index string, n int) string {
	return fmt.Sprintf("index %s is out of range, the value has %d element(s)", index, n)
}

func fmtOmitNotAllowed(t *Type) string {
	return fmt.Sprintf("`omit' is not a value of type `%s'", t)
}

func fmtOmitForMandatoryField(field string) string {
	return fmt.Sprintf("`omit' is not allowed for mandatory field `%s'", field)
}

func fmtArrayLengthMismatch(expected, actual int) string {
	return fmt.Sprintf("an array of %d element(s) was expected instead of %d", expected, actual)
}

func fmtLengthRestrictionViolated(restriction *LengthRestriction, n int) string {
	return fmt.Sprintf("the length %d violates the restriction %s", n, restriction)
}

func fmtTemplateExpected(decl *Declaration) string {
	return fmt.Sprintf("a template was expected instead of %s `%s'", decl.Kind, decl.Name)
}

//operators

func fmtOperandOutOfRange(i int, name string, value string, min, max int64) string {
	return fmt.Sprintf("%s operand of operation `%s' should be in the range %d..%d, got %s", ordinal(i), name, min, max, value)
}

func fmtLengthOneExpected(name string, n int) string {
	return fmt.Sprintf("the operand of operation `%s' should be a string of length 1 instead of %d", name, n)
}

func fmtMalformedLiteral(name string, literalKind string, s string) string {
	return fmt.Sprintf("the operand of operation `%s' is not a valid %s literal: %q", name, literalKind, s)
}

func fmtNegativeOperand(i int, name string, value string) string {
	return fmt.Sprintf("%s operand of operation `%s' should not be negative, got %s", ordinal(i), name, value)
}

func fmtOperandTooLarge(i int, name string, value string) string {
	return fmt.Sprintf("%s operand of operation `%s' is too large: %s", ordinal(i), name, value)
}

func fmtValueDoesNotFit(name string, value string, length int64) string {
	return fmt.Sprintf("value %s does not fit in %d digit(s) in operation `%s'", value, length, name)
}

func fmtNonFiniteFloat(name string, value string) string {
	return fmt.Sprintf("the operand of operation `%s' should be a finite float value, got %s", name, value)
}

func fmtOctetNotCharacter(name string, index int, b byte) string {
	return fmt.Sprintf("octet %d ('%02X'O) of the operand of operation `%s' is not a valid character", index, b, name)
}

func fmtOperandKindsDiffer(name string, left, right TypeKind) string {
	return fmt.Sprintf("the operands of operation `%s' should have the same type, got %s and %s", name, left, right)
}

func fmtLengthsDiffer(name string, left, right int) string {
	return fmt.Sprintf("the operands of operation `%s' should have the same length, got %d and %d", name, left, right)
}

func fmtNegativeShift(name string, count int) string {
	return fmt.Sprintf("the shift count of operation `%s' should not be negative, got %d", name, count)
}

func fmtShiftByZero(name string) string {
	return fmt.Sprintf("operation `%s' by 0 has no effect", name)
}

func fmtShiftBeyondLength(name string, count, n int) string {
	return fmt.Sprintf("operation `%s' by %d on a value of length %d produces a value of zeros", name, count, n)
}

func fmtRotationOfShortValue(name string, n int) string {
	return fmt.Sprintf("operation `%s' on a value of length %d has no effect", name, n)
}

func fmtRotationByMultiple(name string, count, n int) string {
	return fmt.Sprintf("operation `%s' by %d on a value of length %d has no effect", name, count, n)
}

func fmtDivisionByZero(name string) string {
	return fmt.Sprintf("the second operand of operation `%s' should not be zero", name)
}

func fmtSizeOfAnyOrNone(template string) string {
	return fmt.Sprintf("the size of template %s cannot be determined without an exact length restriction", template)
}

func fmtSizeOfValueListDiffers(a, b int) string {
	return fmt.Sprintf("the size of the value list cannot be determined: its members have %d and %d elements", a, b)
}

func fmtSizeOfOptionalField(field string) string {
	return fmt.Sprintf("the size cannot be determined because field `%s' may be omitted", field)
}

func fmtRangeOutOfBounds(name string, index, count string, n int) string {
	return fmt.Sprintf("index %s plus count %s of operation `%s' exceeds the length %d of the first operand", index, count, name, n)
}

func fmtIndexOutOfBounds(name string, index string, n int) string {
	return fmt.Sprintf("index %s of operation `%s' exceeds the length %d of the first operand", index, name, n)
}

func fmtCountOutOfBounds(name string, count string, n int) string {
	return fmt.Sprintf("count %s of operation `%s' exceeds the length %d of the first operand", count, name, n)
}

func fmtFieldReferenceExpected(name string) string {
	return fmt.Sprintf("the operand of operation `%s' should be a reference to a field", name)
}

func fmtUnionExpected(name string, t *Type) string {
	return fmt.Sprintf("the operand of operation `%s' should be a field of a union, not of `%s'", name, t)
}

func fmtUnknownPortState(state string, states []string) string {
	return fmt.Sprintf("unknown port state %q, expected one of %s", state, strings.Join(states, ", "))
}

func fmtFunctionWithoutReturn(t *Type) string {
	return fmt.Sprintf("the function of type `%s' does not return a value", t)
}

func fmtTemplateReturnOutsideTemplate(t *Type) string {
	return fmt.Sprintf("the function of type `%s' returns a template, it can only be applied where a template is expected", t)
}
