package semantic

import (
	"math/big"
	"strings"

	"github.com/ttcn3tools/ttcnsem/internal/core/epoch"
	"github.com/ttcn3tools/ttcnsem/internal/diag"
	"github.com/ttcn3tools/ttcnsem/internal/sourcecode"
)

type Operator int

const (
	OpInvalid Operator = iota

	//conversions
	OpInt2Char
	OpInt2Unichar
	OpInt2Bit
	OpInt2Hex
	OpInt2Oct
	OpInt2Str
	OpInt2Float
	OpFloat2Int
	OpChar2Int
	OpChar2Oct
	OpUnichar2Int
	OpBit2Int
	OpBit2Hex
	OpBit2Oct
	OpBit2Str
	OpHex2Int
	OpHex2Bit
	OpHex2Oct
	OpHex2Str
	OpOct2Int
	OpOct2Bit
	OpOct2Hex
	OpOct2Str
	OpOct2Char
	OpStr2Int
	OpStr2Float
	OpStr2Bit
	OpStr2Hex
	OpStr2Oct
	OpEnum2Int

	//bitwise
	OpAnd4b
	OpOr4b
	OpXor4b
	OpNot4b
	OpShiftLeft
	OpShiftRight
	OpRotateLeft
	OpRotateRight

	//arithmetic and logic
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpMod
	OpRem
	OpUnaryMinus
	OpNot
	OpAnd
	OpOr
	OpXor
	OpConcat

	//comparisons
	OpEqual
	OpNotEqual
	OpLess
	OpGreater
	OpLessEqual
	OpGreaterEqual

	//containers and strings
	OpSizeof
	OpLengthof
	OpSubstr
	OpReplace
	OpIsPresent
	OpIsChosen
	OpIsValue
	OpIsBound

	//run-time operations
	OpTimerRead
	OpTimerRunning
	OpPortCheckState
	OpComponentRunning
	OpComponentAlive
	OpGetVerdict
	OpTestcaseName
	OpSelf
	OpMTC
	OpSystem
	OpCreate
	OpActivate
	OpExecute
	OpApply
	OpLog2Str
	OpRnd

	operatorCount
)

const NO_MAX_OPERANDS = -1

type operatorRule struct {
	name    string
	minArgs int
	maxArgs int

	//not allowed in constant and static contexts
	dynamicOnly bool
	//never folded even if every operand is known
	neverFoldable bool
	//operands are evaluated by the check function itself
	rawOperands bool

	//check validates the operands and returns the result type
	check func(ev *evaluation) *Type
	//fold computes the result, it is only called if the check found no error and every operand is known.
	//A nil result means the expression cannot be folded.
	fold func(ev *evaluation) Value
}

var operatorRules [operatorCount]operatorRule

func register(op Operator, rule operatorRule) {
	if operatorRules[op].check != nil {
		panic("operator " + rule.name + " registered twice")
	}
	operatorRules[op] = rule
}

func (op Operator) String() string {
	if op > OpInvalid && op < operatorCount && operatorRules[op].name != "" {
		return operatorRules[op].name
	}
	return "<invalid operator>"
}

// ParseOperator returns the operator with the given name (e.g. "int2hex", "==", "timer.read").
func ParseOperator(name string) (Operator, bool) {
	for op := OpInvalid + 1; op < operatorCount; op++ {
		if operatorRules[op].name == name {
			return op, true
		}
	}
	return OpInvalid, false
}

// An Operand is one of: a value, a template instance, a reference to a non-value entity
// (timer, port, altstep, testcase ...) or a type.
type Operand struct {
	Value    Value
	Template *TemplateInstance
	Ref      *Reference
	Type     *Type
}

func V(v Value) Operand {
	return Operand{Value: v}
}

func T(ti *TemplateInstance) Operand {
	return Operand{Template: ti}
}

func R(ref *Reference) Operand {
	return Operand{Ref: ref}
}

func TypeOperand(t *Type) Operand {
	return Operand{Type: t}
}

func (o Operand) Span() sourcecode.Span {
	switch {
	case o.Value != nil:
		return o.Value.Span()
	case o.Template != nil:
		return o.Template.Span
	case o.Ref != nil:
		return o.Ref.Span
	case o.Type != nil:
		return o.Type.Span
	}
	return sourcecode.Span{}
}

func (o Operand) String() string {
	switch {
	case o.Value != nil:
		return ValueString(o.Value)
	case o.Template != nil && o.Template.Body != nil:
		return o.Template.Body.String()
	case o.Ref != nil:
		return o.Ref.String()
	case o.Type != nil:
		return o.Type.String()
	}
	return "<?>"
}

// An Expression is the application of a builtin operator, it is itself a Value: an expression
// that cannot be folded evaluates to itself.
type Expression struct {
	valueBase
	Op       Operator
	Operands []Operand

	memo        epoch.Memo
	erroneous   bool
	governor    *Type
	last        Value
	diagnostics []diag.Diagnostic
}

func NewExpression(op Operator, operands ...Operand) *Expression {
	return &Expression{Op: op, Operands: operands}
}

func (*Expression) Kind() ValueKind { return ExpressionKind }

// Evaluate checks the expression in the expected context and folds it if possible. The result is
// the folded value or the expression itself if it cannot be folded or is erroneous.
// Evaluate is idempotent within an epoch.
func (e *Expression) Evaluate(ctx *Context, expected ExpectedKind) Value {
	if e.memo.Fresh(ctx.Epoch) {
		if ctx.active != nil {
			//the node being checked collects the diagnostics of its parts
			ctx.forward(e.diagnostics)
		}
		return e.last
	}

	mark := ctx.chain.Mark()
	if !ctx.chain.Add(e, e.String(), e.span) {
		return e
	}
	defer ctx.chain.Release(mark)

	prev, list := ctx.beginNode(e)
	ev := &evaluation{ctx: ctx, expr: e, expected: expected}
	ev.run()
	ctx.endNode(prev)

	//the state is updated at once
	e.erroneous = ev.erroneous
	e.governor = ev.resultType
	e.last = Value(e)
	if ev.result != nil && !ev.erroneous {
		e.last = ev.result
		if e.last.Span().IsZero() {
			At(e.last, e.span)
		}
	}
	e.diagnostics = dedup(*list)
	e.memo.Commit(ctx.Epoch)

	ctx.forward(e.diagnostics)

	if ctx.Logger.Debug().Enabled() {
		ctx.Logger.Debug().
			Str("expr", e.String()).
			Uint64("epoch", uint64(ctx.Epoch)).
			Bool("folded", e.last != Value(e)).
			Bool("erroneous", e.erroneous).
			Msg("expression evaluated")
	}
	return e.last
}

// Check evaluates the expression and returns false if it is erroneous.
func (e *Expression) Check(ctx *Context, expected ExpectedKind) bool {
	e.Evaluate(ctx, expected)
	return !e.erroneous
}

// IsUnfoldable returns true if the expression cannot be computed at analysis time.
func (e *Expression) IsUnfoldable(ctx *Context, expected ExpectedKind) bool {
	return e.Evaluate(ctx, expected) == Value(e)
}

func (e *Expression) Erroneous() bool {
	return e.erroneous
}

// Governor returns the result type computed by the last evaluation.
func (e *Expression) Governor() *Type {
	return e.governor
}

func (e *Expression) LastValue() Value {
	return e.last
}

func (e *Expression) Diagnostics() []diag.Diagnostic {
	return e.diagnostics
}

func (e *Expression) CheckedAt() (epoch.Epoch, bool) {
	return e.memo.Epoch()
}

func (e *Expression) Invalidate() {
	e.memo.Invalidate()
}

func (e *Expression) NodeSpan() sourcecode.Span {
	return e.span
}

func (e *Expression) String() string {
	parts := make([]string, len(e.Operands))
	for i, o := range e.Operands {
		parts[i] = o.String()
	}
	name := e.Op.String()
	switch e.Op {
	case OpAdd, OpSubtract, OpMultiply, OpDivide, OpMod, OpRem, OpAnd, OpOr, OpXor, OpConcat,
		OpEqual, OpNotEqual, OpLess, OpGreater, OpLessEqual, OpGreaterEqual,
		OpAnd4b, OpOr4b, OpXor4b, OpShiftLeft, OpShiftRight, OpRotateLeft, OpRotateRight:
		if len(parts) == 2 {
			return parts[0] + " " + name + " " + parts[1]
		}
	case OpUnaryMinus:
		if len(parts) == 1 {
			return "-" + parts[0]
		}
	case OpNot, OpNot4b:
		if len(parts) == 1 {
			return name + " " + parts[0]
		}
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

// An operand is an evaluated Operand.
type operand struct {
	Operand
	index int

	value      Value     //folded value, nil if unknown
	template   *Template //folded template, nil if unknown
	governor   *Type
	decl       *Declaration
	erroneous  bool
	unresolved *Identifier
}

func (o *operand) known() bool {
	switch {
	case o.Operand.Value != nil:
		return o.value != nil
	case o.Operand.Template != nil:
		return o.template != nil
	case o.Operand.Type != nil:
		return true
	}
	return false
}

func (o *operand) kind() TypeKind {
	if o.governor != nil {
		return o.governor.Kind
	}
	if o.value != nil {
		if t := valueGovernor(o.value); t != nil {
			return t.Kind
		}
		switch o.value.(type) {
		case *Record:
			return TypeRecord
		case *Union:
			return TypeUnion
		case *Sequence:
			return TypeRecordOf
		}
	}
	return TypeUndefined
}

// An evaluation holds the transient state of the evaluation of an expression, nothing is written
// to the expression before the end.
type evaluation struct {
	ctx      *Context
	expr     *Expression
	rule     *operatorRule
	expected ExpectedKind
	operands []*operand

	erroneous  bool
	resultType *Type
	result     Value

	//operator specific state computed by check and used by fold
	scratch any
}

func (ev *evaluation) run() {
	e := ev.expr
	if e.Op <= OpInvalid || e.Op >= operatorCount || operatorRules[e.Op].check == nil {
		ev.ctx.Internal(diag.Invariant(e.span, "no rule for operator %d", int(e.Op)))
		ev.erroneous = true
		return
	}
	ev.rule = &operatorRules[e.Op]
	rule := ev.rule

	count := len(e.Operands)
	if count < rule.minArgs || (rule.maxArgs != NO_MAX_OPERANDS && count > rule.maxArgs) {
		ev.error(e.span, fmtWrongOperandCount(rule.name, rule.minArgs, rule.maxArgs, count))
		return
	}

	if rule.dynamicOnly && ev.expected < ExpectedDynamicValue {
		ev.error(e.span, fmtOperationNotAllowed(rule.name, ev.expected))
		return
	}

	ev.operands = make([]*operand, count)
	for i, o := range e.Operands {
		ev.operands[i] = &operand{Operand: o, index: i}
		if !rule.rawOperands {
			ev.evaluateOperand(ev.operands[i])
		}
	}

	ev.resultType = rule.check(ev)

	for _, o := range ev.operands {
		if o.erroneous {
			//already reported
			ev.erroneous = true
		}
	}

	if ev.erroneous || rule.neverFoldable || rule.fold == nil {
		return
	}
	if !rule.rawOperands {
		for _, o := range ev.operands {
			if !o.known() {
				return
			}
		}
	}
	ev.result = rule.fold(ev)
}

func (ev *evaluation) evaluateOperand(o *operand) {
	ctx := ev.ctx
	switch {
	case o.Operand.Value != nil:
		result := ctx.evaluateValue(o.Operand.Value, ev.expected.valueKind())
		o.value, o.governor, o.erroneous, o.unresolved = result.Value, result.Governor, result.Erroneous, result.unresolved
		if o.governor == nil && o.value != nil {
			o.governor = valueGovernor(o.value)
		}
	case o.Operand.Template != nil:
		result := ctx.evaluateTemplateInstance(o.Operand.Template)
		o.template, o.governor, o.erroneous = result.Template, result.Governor, result.Erroneous
		if o.template != nil && o.template.Kind == SpecificValueTemplate && o.template.Length == nil {
			o.value = o.template.Value
		}
	case o.Operand.Ref != nil:
		decl, ok := ctx.Resolver.Resolve(o.Operand.Ref)
		if !ok {
			ctx.errorf(o.Operand.Ref.Span, fmtUnresolvedReference(o.Operand.Ref.Name))
			o.erroneous = true
			return
		}
		ctx.recordDependency(decl)
		o.decl = decl
		o.governor = decl.Type
	case o.Operand.Type != nil:
		o.governor = o.Operand.Type
	default:
		ctx.Internal(diag.Invariant(ev.expr.span, "empty operand %d of %s", o.index, ev.rule.name))
		o.erroneous = true
	}
}

func (ev *evaluation) error(span sourcecode.Span, message string) {
	ev.ctx.errorf(span, message)
	ev.erroneous = true
}

func (ev *evaluation) report(span sourcecode.Span, severity diag.Severity, message string) {
	ev.ctx.Report(span, severity, message)
	if severity == diag.Error {
		ev.erroneous = true
	}
}

func (ev *evaluation) span() sourcecode.Span {
	return ev.expr.span
}

func (ev *evaluation) operandSpan(i int) sourcecode.Span {
	if span := ev.operands[i].Span(); !span.IsZero() {
		return span
	}
	return ev.expr.span
}

func (ev *evaluation) has(i int) bool {
	return i < len(ev.operands)
}

// expect checks that the operand i is a value (or a template instance) of one of the given kinds.
// Nothing is reported for erroneous operands.
func (ev *evaluation) expect(i int, what string, kinds ...TypeKind) bool {
	o := ev.operands[i]
	if o.erroneous {
		return false
	}
	if o.unresolved != nil {
		ev.error(ev.operandSpan(i), fmtUnresolvedReference(o.unresolved.Name))
		o.unresolved = nil
		o.erroneous = true
		return false
	}
	if o.Operand.Value == nil && o.Operand.Template == nil {
		ev.error(ev.operandSpan(i), fmtOperandShouldBe(i, ev.rule.name, what))
		return false
	}
	kind := o.kind()
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	if kind == TypeUndefined && o.value == nil {
		//type unknown, e.g. template parameter or matching mechanism without type
		return true
	}
	ev.error(ev.operandSpan(i), fmtOperandShouldBe(i, ev.rule.name, what))
	return false
}

// integer returns the folded value of an integer operand.
func (ev *evaluation) integer(i int) (*big.Int, bool) {
	if !ev.has(i) {
		return nil, false
	}
	if v, ok := ev.operands[i].value.(*Integer); ok {
		return v.V, true
	}
	return nil, false
}

// smallInt returns the folded value of an integer operand if it fits in an int.
func (ev *evaluation) smallInt(i int) (int, bool) {
	v, ok := ev.integer(i)
	if !ok || !v.IsInt64() {
		return 0, false
	}
	n := v.Int64()
	if int64(int(n)) != n {
		return 0, false
	}
	return int(n), true
}

// knownLength returns the length of a string or list operand if it is known from its value or type.
func (ev *evaluation) knownLength(i int) (int, bool) {
	o := ev.operands[i]
	if o.value != nil {
		if n, ok := unitLength(o.value); ok {
			return n, true
		}
	}
	return o.governor.ExactLength()
}

// resolveAs resolves an ambiguous identifier operand as an item of an enumerated type.
func (ev *evaluation) resolveAs(o *operand, t *Type) bool {
	if o.unresolved == nil || t == nil || t.Kind != TypeEnumerated {
		return false
	}
	if !ev.ctx.resolveIdentifierAs(o.unresolved, t) {
		return false
	}
	o.value = o.unresolved.resolved
	o.governor = t
	o.unresolved = nil
	return true
}

const MAX_AMBIGUOUS_IDENTIFIER_RETRIES = 2

// resolvePeers resolves the ambiguous identifiers among two operands as items of the enumerated
// type of the other operand.
func (ev *evaluation) resolvePeers(i, j int) {
	a, b := ev.operands[i], ev.operands[j]
	for retry := 0; retry < MAX_AMBIGUOUS_IDENTIFIER_RETRIES && (a.unresolved != nil || b.unresolved != nil); retry++ {
		progress := ev.resolveAs(a, b.governor) || ev.resolveAs(b, a.governor)
		if !progress {
			break
		}
	}
}

// common returns the common governor of two operands, ambiguous identifiers are resolved using the
// governor of the other operand.
func (ev *evaluation) common(i, j int) (*Type, bool) {
	a, b := ev.operands[i], ev.operands[j]
	ev.resolvePeers(i, j)

	ok := true
	for _, o := range []*operand{a, b} {
		if o.unresolved != nil {
			ev.error(ev.operandSpan(o.index), fmtUnresolvedReference(o.unresolved.Name))
			o.unresolved = nil
			o.erroneous = true
			ok = false
		}
	}
	if !ok || a.erroneous || b.erroneous {
		return nil, false
	}

	t, ok := CommonGovernor(ev.ctx, a.governor, b.governor, ev.span())
	if !ok {
		ev.erroneous = true
	}
	return t, ok
}

// entity checks that the operand i references a declaration of one of the given kinds.
func (ev *evaluation) entity(i int, kinds ...DeclKind) *Declaration {
	o := ev.operands[i]
	if o.erroneous {
		return nil
	}
	if o.decl == nil {
		ev.error(ev.operandSpan(i), fmtEntityExpected(i, ev.rule.name, kinds))
		return nil
	}
	for _, k := range kinds {
		if o.decl.Kind == k {
			return o.decl
		}
	}
	ev.error(ev.operandSpan(i), fmtEntityExpected(i, ev.rule.name, kinds))
	return nil
}
