package attrib

import (
	"fmt"
	"strconv"

	"github.com/ttcn3tools/ttcnsem/internal/core/semantic"
)

const (
	OMIT_ALL_NOT_ALLOWED_FOR_VALUE = "`omit all' can only be used with `before' or `after'"
	ERRONEOUS_WITHOUT_QUALIFIER    = "an erroneous attribute should designate at least one field"
	ERRONEOUS_INVALID_SYNTAX       = "invalid erroneous attribute, expected `before', `value' or `after' followed by `:=' and a value"
	RAW_WITH_OMIT                  = "`(raw)' cannot be used with `omit'"
)

func fmtInvalidOptional(text string) string {
	return fmt.Sprintf("invalid optional attribute `%s', expected `implicit omit' or `explicit omit'", text)
}

func fmtDuplicateAttribute(spec *Spec) string {
	return fmt.Sprintf("duplicate attribute `%s'", spec)
}

func fmtConflictingOptional(first, second string) string {
	return fmt.Sprintf("conflicting optional attributes: `%s' and `%s'", first, second)
}

func fmtIneffectiveOverride(spec *Spec, effective *Spec) string {
	return fmt.Sprintf("override attribute `%s' has no effect, `%s' is already in effect", spec, effective)
}

func fmtInvalidField(t *semantic.Type, name string) string {
	return fmt.Sprintf("type `%s' has no field named `%s'", t, name)
}

func fmtNotStructured(t *semantic.Type, q Qualifier) string {
	return fmt.Sprintf("cannot designate field `%s': type `%s' is not a record or set type", q, t)
}

func fmtDuplicateErroneous(indicator Indicator, q Qualifier) string {
	return fmt.Sprintf("duplicate erroneous `%s' attribute for field `%s'", indicator, q)
}

func fmtOutOfOmitBoundary(q Qualifier, indicator Indicator, boundaryField string) string {
	return fmt.Sprintf("erroneous `%s' attribute for field `%s' is inside a region omitted by `omit all' at field `%s'",
		indicator, q, boundaryField)
}

func fmtMultipleOmitAll(indicator Indicator) string {
	return fmt.Sprintf("there should be at most one `%s := omit all' per type", indicator)
}

func fmtConflictingOmitAll(first, second string) string {
	return fmt.Sprintf("`omit all' at fields `%s' and `%s' omit every field", first, second)
}

func fmtErroneousTypeMismatch(field string, t *semantic.Type, text string) string {
	return fmt.Sprintf("erroneous value `%s' is not compatible with field `%s' of type `%s'", text, field, t)
}

func fmtUnresolvedErroneousValue(text string) string {
	return "cannot resolve erroneous value " + strconv.Quote(text)
}
