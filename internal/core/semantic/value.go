package semantic

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/ttcn3tools/ttcnsem/internal/sourcecode"
)

type ValueKind int

const (
	IntegerKind ValueKind = iota + 1
	FloatKind
	BooleanKind
	VerdictKind
	BitstringKind
	HexstringKind
	OctetstringKind
	CharstringKind
	UniversalCharstringKind
	EnumeratedKind
	RecordKind
	UnionKind
	SequenceKind
	ObjidKind
	OmitKind
	ReferencedKind
	IdentifierKind
	ExpressionKind
)

// A Value is a node of the closed set of value forms, it is either bound (concrete) or
// requires an indirection (references, expressions, ambiguous identifiers).
type Value interface {
	Kind() ValueKind
	Span() sourcecode.Span
	base() *valueBase
}

type valueBase struct {
	span sourcecode.Span
}

func (b *valueBase) Span() sourcecode.Span {
	return b.span
}

func (b *valueBase) base() *valueBase {
	return b
}

// At sets the span of a value and returns it.
func At[V Value](v V, span sourcecode.Span) V {
	v.base().span = span
	return v
}

type Integer struct {
	valueBase
	V *big.Int
}

func NewInt(i int64) *Integer {
	return &Integer{V: big.NewInt(i)}
}

func NewBigInt(i *big.Int) *Integer {
	return &Integer{V: new(big.Int).Set(i)}
}

func (*Integer) Kind() ValueKind { return IntegerKind }

type Float struct {
	valueBase
	V float64
}

func NewFloat(f float64) *Float {
	return &Float{V: f}
}

func (*Float) Kind() ValueKind { return FloatKind }

type Boolean struct {
	valueBase
	V bool
}

func NewBool(b bool) *Boolean {
	return &Boolean{V: b}
}

func (*Boolean) Kind() ValueKind { return BooleanKind }

type VerdictValue int

const (
	VerdictNone VerdictValue = iota
	VerdictPass
	VerdictInconc
	VerdictFail
	VerdictError
)

var verdictNames = [...]string{"none", "pass", "inconc", "fail", "error"}

func (v VerdictValue) String() string {
	return verdictNames[v]
}

func ParseVerdict(s string) (VerdictValue, bool) {
	for i, name := range verdictNames {
		if name == s {
			return VerdictValue(i), true
		}
	}
	return 0, false
}

type Verdict struct {
	valueBase
	V VerdictValue
}

func NewVerdict(v VerdictValue) *Verdict {
	return &Verdict{V: v}
}

func (*Verdict) Kind() ValueKind { return VerdictKind }

// Hexstring digits are stored in upper case.
type Hexstring struct {
	valueBase
	Digits string
}

func NewHexstring(digits string) *Hexstring {
	return &Hexstring{Digits: strings.ToUpper(digits)}
}

func (*Hexstring) Kind() ValueKind { return HexstringKind }

// Octetstring digits are stored in upper case, two digits per octet.
type Octetstring struct {
	valueBase
	Digits string
}

func NewOctetstring(digits string) *Octetstring {
	return &Octetstring{Digits: strings.ToUpper(digits)}
}

func (*Octetstring) Kind() ValueKind { return OctetstringKind }

func (o *Octetstring) Len() int {
	return len(o.Digits) / 2
}

type Charstring struct {
	valueBase
	V string
}

func NewCharstring(s string) *Charstring {
	return &Charstring{V: s}
}

func (*Charstring) Kind() ValueKind { return CharstringKind }

type UniversalCharstring struct {
	valueBase
	V []rune
}

func NewUniversalCharstring(s string) *UniversalCharstring {
	return &UniversalCharstring{V: []rune(s)}
}

func (*UniversalCharstring) Kind() ValueKind { return UniversalCharstringKind }

// An Enumerated is an item of an enumerated type, Type is nil until the value is checked against a type.
type Enumerated struct {
	valueBase
	Name string
	Type *Type
}

func NewEnumerated(t *Type, name string) *Enumerated {
	return &Enumerated{Name: name, Type: t}
}

func (*Enumerated) Kind() ValueKind { return EnumeratedKind }

func (e *Enumerated) Number() (int64, bool) {
	if e.Type == nil {
		return 0, false
	}
	item, ok := e.Type.EnumItem(e.Name)
	return item.Number, ok
}

type FieldValue struct {
	Name  string
	Value Value //nil if the field is unbound, *Omit if omitted
}

// A Record is a record or set value.
type Record struct {
	valueBase
	Type   *Type //optional
	Fields []FieldValue
}

func NewRecordValue(t *Type, fields ...FieldValue) *Record {
	return &Record{Type: t, Fields: fields}
}

func (*Record) Kind() ValueKind { return RecordKind }

func (r *Record) FieldValue(name string) (Value, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

type Union struct {
	valueBase
	Type  *Type //optional
	Field string
	Value Value
}

func NewUnionValue(t *Type, field string, v Value) *Union {
	return &Union{Type: t, Field: field, Value: v}
}

func (*Union) Kind() ValueKind { return UnionKind }

type SequenceForm int

const (
	RecordOfForm SequenceForm = iota
	SetOfForm
	ArrayForm
)

// A Sequence is a record of, set of or array value.
type Sequence struct {
	valueBase
	Form     SequenceForm
	Type     *Type //optional
	Elements []Value
}

func NewRecordOfValue(elements ...Value) *Sequence {
	return &Sequence{Form: RecordOfForm, Elements: elements}
}

func NewSetOfValue(elements ...Value) *Sequence {
	return &Sequence{Form: SetOfForm, Elements: elements}
}

func (*Sequence) Kind() ValueKind { return SequenceKind }

type Objid struct {
	valueBase
	Components []int64
}

func NewObjid(components ...int64) *Objid {
	return &Objid{Components: components}
}

func (*Objid) Kind() ValueKind { return ObjidKind }

type Omit struct {
	valueBase
}

func NewOmit() *Omit {
	return &Omit{}
}

func (*Omit) Kind() ValueKind { return OmitKind }

// A Referenced is a value obtained through a reference to a declaration.
type Referenced struct {
	valueBase
	Ref *Reference
}

func NewReferenced(ref *Reference) *Referenced {
	r := &Referenced{Ref: ref}
	r.span = ref.Span
	return r
}

func (*Referenced) Kind() ValueKind { return ReferencedKind }

// An Identifier is a lower case identifier that is either a reference or an enumeration item,
// it is disambiguated using the context of its use.
type Identifier struct {
	valueBase
	Name     string
	resolved Value
}

func NewIdentifier(name string) *Identifier {
	return &Identifier{Name: name}
}

func (*Identifier) Kind() ValueKind { return IdentifierKind }

// Resolved returns the value the identifier has been resolved to, or nil.
func (i *Identifier) Resolved() Value {
	return i.resolved
}

// IsConcrete returns true if the value is fully known (no references, expressions or unresolved identifiers).
func IsConcrete(v Value) bool {
	switch val := v.(type) {
	case nil:
		return false
	case *Referenced, *Expression:
		return false
	case *Identifier:
		return val.resolved != nil && IsConcrete(val.resolved)
	case *Record:
		for _, f := range val.Fields {
			if f.Value != nil && !IsConcrete(f.Value) {
				return false
			}
		}
	case *Union:
		return IsConcrete(val.Value)
	case *Sequence:
		for _, e := range val.Elements {
			if !IsConcrete(e) {
				return false
			}
		}
	}
	return true
}

// ValueString returns the TTCN-3 notation of a value.
func ValueString(v Value) string {
	switch val := v.(type) {
	case nil:
		return "<unbound>"
	case *Integer:
		return val.V.String()
	case *Float:
		return strconv.FormatFloat(val.V, 'g', -1, 64)
	case *Boolean:
		return strconv.FormatBool(val.V)
	case *Verdict:
		return val.V.String()
	case *Bitstring:
		return "'" + val.String() + "'B"
	case *Hexstring:
		return "'" + val.Digits + "'H"
	case *Octetstring:
		return "'" + val.Digits + "'O"
	case *Charstring:
		return strconv.Quote(val.V)
	case *UniversalCharstring:
		return strconv.Quote(string(val.V))
	case *Enumerated:
		return val.Name
	case *Record:
		parts := make([]string, 0, len(val.Fields))
		for _, f := range val.Fields {
			parts = append(parts, f.Name+" := "+ValueString(f.Value))
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case *Union:
		return "{ " + val.Field + " := " + ValueString(val.Value) + " }"
	case *Sequence:
		parts := make([]string, 0, len(val.Elements))
		for _, e := range val.Elements {
			parts = append(parts, ValueString(e))
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case *Objid:
		parts := make([]string, 0, len(val.Components))
		for _, c := range val.Components {
			parts = append(parts, strconv.FormatInt(c, 10))
		}
		return "objid { " + strings.Join(parts, " ") + " }"
	case *Omit:
		return "omit"
	case *Referenced:
		return val.Ref.String()
	case *Identifier:
		return val.Name
	case *Expression:
		return val.String()
	}
	return "<?>"
}
