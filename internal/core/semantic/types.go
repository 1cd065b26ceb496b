package semantic

import (
	"strconv"
	"strings"

	"github.com/ttcn3tools/ttcnsem/internal/sourcecode"
)

type TypeKind int

const (
	TypeUndefined TypeKind = iota
	TypeInteger
	TypeFloat
	TypeBoolean
	TypeVerdict
	TypeBitstring
	TypeHexstring
	TypeOctetstring
	TypeCharstring
	TypeUniversalCharstring
	TypeEnumerated
	TypeRecord
	TypeSet
	TypeUnion
	TypeRecordOf
	TypeSetOf
	TypeArray
	TypeObjid
	TypeComponent
	TypeDefault
	TypeFunction
	TypeAltstep
	TypeTestcase
	TypePort
)

var typeKindNames = [...]string{
	TypeUndefined:           "<undefined>",
	TypeInteger:             "integer",
	TypeFloat:               "float",
	TypeBoolean:             "boolean",
	TypeVerdict:             "verdicttype",
	TypeBitstring:           "bitstring",
	TypeHexstring:           "hexstring",
	TypeOctetstring:         "octetstring",
	TypeCharstring:          "charstring",
	TypeUniversalCharstring: "universal charstring",
	TypeEnumerated:          "enumerated",
	TypeRecord:              "record",
	TypeSet:                 "set",
	TypeUnion:               "union",
	TypeRecordOf:            "record of",
	TypeSetOf:               "set of",
	TypeArray:               "array",
	TypeObjid:               "objid",
	TypeComponent:           "component",
	TypeDefault:             "default",
	TypeFunction:            "function",
	TypeAltstep:             "altstep",
	TypeTestcase:            "testcase",
	TypePort:                "port",
}

func (k TypeKind) String() string {
	if k >= 0 && int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return "TypeKind(" + strconv.Itoa(int(k)) + ")"
}

func (k TypeKind) IsString() bool {
	switch k {
	case TypeBitstring, TypeHexstring, TypeOctetstring, TypeCharstring, TypeUniversalCharstring:
		return true
	}
	return false
}

// IsBinaryString returns true for the string kinds supported by the bitwise operators.
func (k TypeKind) IsBinaryString() bool {
	return k == TypeBitstring || k == TypeHexstring || k == TypeOctetstring
}

func (k TypeKind) IsSequenceOf() bool {
	return k == TypeRecordOf || k == TypeSetOf || k == TypeArray
}

func (k TypeKind) IsStructured() bool {
	return k == TypeRecord || k == TypeSet
}

// A LengthRestriction is a length subtype constraint, Max is negative if there is no upper bound.
type LengthRestriction struct {
	Min int
	Max int
}

func ExactLength(n int) *LengthRestriction {
	return &LengthRestriction{Min: n, Max: n}
}

func (r *LengthRestriction) IsExact() bool {
	return r != nil && r.Min == r.Max
}

func (r *LengthRestriction) Allows(n int) bool {
	if r == nil {
		return true
	}
	return n >= r.Min && (r.Max < 0 || n <= r.Max)
}

func (r *LengthRestriction) String() string {
	if r.IsExact() {
		return "length(" + strconv.Itoa(r.Min) + ")"
	}
	max := "infinity"
	if r.Max >= 0 {
		max = strconv.Itoa(r.Max)
	}
	return "length(" + strconv.Itoa(r.Min) + " .. " + max + ")"
}

type Field struct {
	Name     string
	Type     *Type
	Optional bool
}

type EnumItem struct {
	Name   string
	Number int64
}

// A Type is a resolved type definition. Types are created by the declaration layer and only read here.
type Type struct {
	Kind TypeKind
	Name string
	Span sourcecode.Span

	Fields      []*Field   //record, set, union
	Items       []EnumItem //enumerated
	Element     *Type      //record of, set of, array
	ArrayLength int        //array

	Length *LengthRestriction

	//function, altstep and testcase reference types
	Return          *Type
	ReturnsTemplate bool
}

var (
	INTEGER              = &Type{Kind: TypeInteger, Name: "integer"}
	FLOAT                = &Type{Kind: TypeFloat, Name: "float"}
	BOOLEAN              = &Type{Kind: TypeBoolean, Name: "boolean"}
	VERDICT              = &Type{Kind: TypeVerdict, Name: "verdicttype"}
	BITSTRING            = &Type{Kind: TypeBitstring, Name: "bitstring"}
	HEXSTRING            = &Type{Kind: TypeHexstring, Name: "hexstring"}
	OCTETSTRING          = &Type{Kind: TypeOctetstring, Name: "octetstring"}
	CHARSTRING           = &Type{Kind: TypeCharstring, Name: "charstring"}
	UNIVERSAL_CHARSTRING = &Type{Kind: TypeUniversalCharstring, Name: "universal charstring"}
	OBJID                = &Type{Kind: TypeObjid, Name: "objid"}
	DEFAULT              = &Type{Kind: TypeDefault, Name: "default"}
	ANY_COMPONENT        = &Type{Kind: TypeComponent, Name: "component"}

	builtinTypes = map[string]*Type{}
)

func init() {
	for _, t := range []*Type{INTEGER, FLOAT, BOOLEAN, VERDICT, BITSTRING, HEXSTRING, OCTETSTRING,
		CHARSTRING, UNIVERSAL_CHARSTRING, OBJID, DEFAULT} {
		builtinTypes[t.Name] = t
	}
}

// BuiltinType returns the predefined type with the given name (e.g. "integer").
func BuiltinType(name string) (*Type, bool) {
	t, ok := builtinTypes[name]
	return t, ok
}

func NewRecordOf(elem *Type) *Type {
	return &Type{Kind: TypeRecordOf, Element: elem}
}

func NewSetOf(elem *Type) *Type {
	return &Type{Kind: TypeSetOf, Element: elem}
}

func NewArray(elem *Type, length int) *Type {
	return &Type{Kind: TypeArray, Element: elem, ArrayLength: length}
}

func NewRecord(name string, fields ...*Field) *Type {
	return &Type{Kind: TypeRecord, Name: name, Fields: fields}
}

func NewUnion(name string, fields ...*Field) *Type {
	return &Type{Kind: TypeUnion, Name: name, Fields: fields}
}

// NewEnumeratedType creates an enumerated type, items are numbered in declaration order.
func NewEnumeratedType(name string, items ...string) *Type {
	t := &Type{Kind: TypeEnumerated, Name: name}
	for i, item := range items {
		t.Items = append(t.Items, EnumItem{Name: item, Number: int64(i)})
	}
	return t
}

func (t *Type) String() string {
	if t == nil {
		return "<unknown type>"
	}
	if t.Name != "" {
		return t.Name
	}
	switch t.Kind {
	case TypeRecordOf, TypeSetOf:
		return t.Kind.String() + " " + t.Element.String()
	case TypeArray:
		return t.Element.String() + "[" + strconv.Itoa(t.ArrayLength) + "]"
	case TypeRecord, TypeSet, TypeUnion:
		var names []string
		for _, f := range t.Fields {
			names = append(names, f.Type.String()+" "+f.Name)
		}
		return t.Kind.String() + " { " + strings.Join(names, ", ") + " }"
	}
	return t.Kind.String()
}

func (t *Type) FieldIndex(name string) int {
	for i, f := range t.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func (t *Type) Field(name string) (*Field, bool) {
	i := t.FieldIndex(name)
	if i < 0 {
		return nil, false
	}
	return t.Fields[i], true
}

func (t *Type) EnumItem(name string) (EnumItem, bool) {
	for _, item := range t.Items {
		if item.Name == name {
			return item, true
		}
	}
	return EnumItem{}, false
}

// ExactLength returns the statically known number of elements of the type's values if any.
func (t *Type) ExactLength() (int, bool) {
	if t == nil {
		return 0, false
	}
	if t.Kind == TypeArray {
		return t.ArrayLength, true
	}
	if t.Length.IsExact() {
		return t.Length.Min, true
	}
	return 0, false
}

// IsCompatible returns whether a value of type source can be assigned to a target of type target,
// needsConversion is true if the two types are only structurally equivalent.
func IsCompatible(target, source *Type) (compatible bool, needsConversion bool) {
	return isCompatible(target, source, 0)
}

const MAX_TYPE_COMPATIBILITY_DEPTH = 32

func isCompatible(target, source *Type, depth int) (compatible bool, needsConversion bool) {
	if target == source {
		return true, false
	}
	if target == nil || source == nil || depth > MAX_TYPE_COMPATIBILITY_DEPTH {
		return false, false
	}

	if target.Kind != source.Kind {
		if target.Kind == TypeUniversalCharstring && source.Kind == TypeCharstring {
			return true, false
		}
		if target.Kind.IsSequenceOf() && source.Kind.IsSequenceOf() && target.Kind != TypeSetOf && source.Kind != TypeSetOf {
			ok, _ := isCompatible(target.Element, source.Element, depth+1)
			return ok && arrayLengthsMatch(target, source), ok
		}
		return false, false
	}

	switch target.Kind {
	case TypeEnumerated:
		return false, false
	case TypeRecord, TypeSet, TypeUnion:
		if len(target.Fields) != len(source.Fields) {
			return false, false
		}
		for i, targetField := range target.Fields {
			sourceField := source.Fields[i]
			if target.Kind == TypeUnion && targetField.Name != sourceField.Name {
				return false, false
			}
			if targetField.Optional != sourceField.Optional {
				return false, false
			}
			if ok, _ := isCompatible(targetField.Type, sourceField.Type, depth+1); !ok {
				return false, false
			}
		}
		return true, true
	case TypeRecordOf, TypeSetOf, TypeArray:
		ok, conv := isCompatible(target.Element, source.Element, depth+1)
		if !ok || !arrayLengthsMatch(target, source) {
			return false, false
		}
		return true, conv || target.Name != source.Name
	case TypeFunction, TypeAltstep, TypeTestcase:
		if target.ReturnsTemplate != source.ReturnsTemplate {
			return false, false
		}
		if target.Return == nil || source.Return == nil {
			return target.Return == source.Return, false
		}
		return isCompatible(target.Return, source.Return, depth+1)
	}

	//builtin kinds and their subtypes
	return true, false
}

func arrayLengthsMatch(target, source *Type) bool {
	if target.Kind == TypeArray && source.Kind == TypeArray {
		return target.ArrayLength == source.ArrayLength
	}
	return true
}
