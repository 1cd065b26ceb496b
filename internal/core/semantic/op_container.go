package semantic

import (
	"math/big"
)

const STRING_OR_LIST = "a string or record of value"

var (
	stringKinds     = []TypeKind{TypeBitstring, TypeHexstring, TypeOctetstring, TypeCharstring, TypeUniversalCharstring}
	stringListKinds = append(append([]TypeKind{}, stringKinds...), TypeRecordOf, TypeSetOf, TypeArray)
)

// valueSize returns the number of elements of a folded value as computed by sizeof.
func valueSize(v Value) (int, bool) {
	switch val := v.(type) {
	case *Record:
		n := 0
		for _, f := range val.Fields {
			if _, omitted := f.Value.(*Omit); f.Value != nil && !omitted {
				n++
			}
		}
		return n, true
	case *Objid:
		return len(val.Components), true
	}
	return unitLength(v)
}

// templateSize returns the number of elements matched by a folded template. An empty message
// with ok false means the size is not known at analysis time.
func templateSize(t *Template) (n int, ok bool, message string) {
	if t.Length.IsExact() && t.Kind != TemplateListTemplate && t.Kind != NamedTemplateListTemplate {
		return t.Length.Min, true, ""
	}

	switch t.Kind {
	case SpecificValueTemplate:
		n, ok := valueSize(t.Value)
		return n, ok, ""
	case AnyValueTemplate, AnyOrOmitTemplate:
		return 0, false, fmtSizeOfAnyOrNone(t.String())
	case OmitTemplate:
		return 0, false, SIZE_OF_OMIT
	case ComplementListTemplate:
		return 0, false, SIZE_OF_COMPLEMENT
	case ValueListTemplate:
		size := -1
		for _, elem := range t.Elements {
			n, ok, message := templateSize(elem)
			if !ok {
				return 0, false, message
			}
			if size >= 0 && n != size {
				return 0, false, fmtSizeOfValueListDiffers(size, n)
			}
			size = n
		}
		if size < 0 {
			return 0, false, ""
		}
		return size, true, ""
	case TemplateListTemplate:
		hasAnyOrNone := false
		for _, elem := range t.Elements {
			if elem.Kind == AnyOrOmitTemplate && elem.Length == nil {
				hasAnyOrNone = true
			}
		}
		if t.Length.IsExact() {
			return t.Length.Min, true, ""
		}
		if hasAnyOrNone {
			return 0, false, fmtSizeOfAnyOrNone(t.String())
		}
		return len(t.Elements), true, ""
	case NamedTemplateListTemplate:
		n := 0
		for _, named := range t.Named {
			switch named.Template.Kind {
			case OmitTemplate:
			case AnyOrOmitTemplate:
				return 0, false, fmtSizeOfOptionalField(named.Name)
			default:
				n++
			}
		}
		return n, true, ""
	}
	return 0, false, ""
}

// registerSize registers sizeof and lengthof, they only differ by the types they accept.
func registerSize(op Operator, name string, what string, kinds ...TypeKind) {
	size := func(o *operand) (int, bool, string) {
		if o.value != nil {
			n, ok := valueSize(o.value)
			return n, ok, ""
		}
		if o.template != nil {
			return templateSize(o.template)
		}
		return 0, false, ""
	}

	register(op, operatorRule{
		name:    name,
		minArgs: 1,
		maxArgs: 1,
		check: func(ev *evaluation) *Type {
			if !ev.expect(0, what, kinds...) {
				return INTEGER
			}
			if _, _, message := size(ev.operands[0]); message != "" {
				ev.error(ev.operandSpan(0), message)
			}
			return INTEGER
		},
		fold: func(ev *evaluation) Value {
			n, ok, _ := size(ev.operands[0])
			if !ok {
				return nil
			}
			return NewInt(int64(n))
		},
	})
}

// substringType returns the type of a part of a string or list, the length restriction of the
// whole does not apply to its parts.
func substringType(ev *evaluation, i int) *Type {
	o := ev.operands[i]
	kind := o.kind()
	if kind.IsString() {
		return builtinForKind(kind)
	}
	if o.governor != nil && (o.governor.Length != nil || o.governor.Kind == TypeArray) {
		return &Type{Kind: TypeRecordOf, Element: o.governor.Element}
	}
	return o.governor
}

func checkNonNegative(ev *evaluation, i int) (*big.Int, bool) {
	v, ok := ev.integer(i)
	if !ok {
		return nil, false
	}
	if v.Sign() < 0 {
		ev.error(ev.operandSpan(i), fmtNegativeOperand(i, ev.rule.name, v.String()))
		return nil, false
	}
	return v, true
}

// checkBounds checks that index+count does not exceed the length of the operand 0.
func checkBounds(ev *evaluation, indexOperand, countOperand int) {
	index, indexKnown := checkNonNegative(ev, indexOperand)
	count, countKnown := checkNonNegative(ev, countOperand)
	n, lengthKnown := ev.knownLength(0)
	if !lengthKnown {
		return
	}
	length := big.NewInt(int64(n))
	switch {
	case indexKnown && countKnown:
		if new(big.Int).Add(index, count).Cmp(length) > 0 {
			ev.error(ev.span(), fmtRangeOutOfBounds(ev.rule.name, index.String(), count.String(), n))
		}
	case indexKnown:
		if index.Cmp(length) > 0 {
			ev.error(ev.operandSpan(indexOperand), fmtIndexOutOfBounds(ev.rule.name, index.String(), n))
		}
	case countKnown:
		if count.Cmp(length) > 0 {
			ev.error(ev.operandSpan(countOperand), fmtCountOutOfBounds(ev.rule.name, count.String(), n))
		}
	}
}

func sliceValue(v Value, start, count int, repl Value) Value {
	if seq, ok := v.(*Sequence); ok {
		if repl != nil {
			r, ok := repl.(*Sequence)
			if !ok {
				return nil
			}
			return &Sequence{Form: seq.Form, Type: seq.Type, Elements: replaceSlice(seq.Elements, start, count, r.Elements)}
		}
		elements := append([]Value{}, seq.Elements[start:start+count]...)
		return &Sequence{Form: seq.Form, Type: seq.Type, Elements: elements}
	}

	units, ok := stringUnits(v)
	if !ok {
		return nil
	}
	if repl == nil {
		return stringFromUnits(v, units[start:start+count])
	}
	replUnits, ok := stringUnits(repl)
	if !ok {
		return nil
	}
	return stringFromUnits(v, replaceSlice(units, start, count, replUnits))
}

// referenceOperand returns the reference denoted by an operand of ispresent or ischosen.
func referenceOperand(o Operand) *Reference {
	switch {
	case o.Ref != nil:
		return o.Ref
	case o.Value != nil:
		switch v := o.Value.(type) {
		case *Referenced:
			return v.Ref
		case *Identifier:
			return &Reference{Name: v.Name, Span: v.span}
		}
	case o.Template != nil && o.Template.Body != nil && o.Template.DerivedRef == nil:
		switch body := o.Template.Body; body.Kind {
		case ReferencedTemplate:
			return body.Ref
		case SpecificValueTemplate:
			return referenceOperand(Operand{Value: body.Value})
		}
	}
	return nil
}

// fieldPredicate holds the checked operand of ispresent and ischosen.
type fieldPredicate struct {
	decl       *Declaration
	ref        *Reference
	field      string
	parentType *Type
}

func checkFieldPredicate(ev *evaluation) (fieldPredicate, bool) {
	ctx := ev.ctx
	name := ev.rule.name
	ref := referenceOperand(ev.expr.Operands[0])
	if ref == nil {
		ev.error(ev.operandSpan(0), fmtOperandShouldBe(0, name, "a reference to a field"))
		return fieldPredicate{}, false
	}

	decl, ok := ctx.resolve(ref)
	if !ok {
		ev.erroneous = true
		return fieldPredicate{}, false
	}
	legal := referenceAllowed(decl, ev.expected) || (decl.Kind.IsTemplate() && ev.expected >= ExpectedDynamicValue)
	if !isValueDeclaration(decl) || !legal {
		ev.error(ref.Span, fmtReferenceNotAllowed(decl, ev.expected))
		return fieldPredicate{}, false
	}

	last, ok := ref.LastSubref()
	if !ok || !last.IsField() {
		ev.error(ref.Span, fmtFieldReferenceExpected(name))
		return fieldPredicate{}, false
	}

	if _, ok := ctx.subrefGovernor(decl.Type, ref, ctx.errorf); !ok {
		ev.erroneous = true
		return fieldPredicate{}, false
	}
	parentType, _ := ctx.subrefGovernor(decl.Type, ref.Parent(), nil)

	p := fieldPredicate{decl: decl, ref: ref, field: last.Field, parentType: parentType}
	ev.scratch = p
	return p, true
}

// parent returns the folded value or template containing the field of a predicate.
func (p fieldPredicate) parent(ctx *Context) (Value, *Template, bool) {
	switch p.decl.Kind {
	case DeclConstant:
		if !p.decl.Check(ctx) {
			return nil, nil, false
		}
		v, erroneous := ctx.applySubrefs(p.decl.last, p.ref.Parent())
		return v, nil, !erroneous && v != nil
	case DeclTemplate:
		if !p.decl.Check(ctx) {
			return nil, nil, false
		}
		t := selectTemplateField(p.decl.lastTemplate, p.ref.Parent())
		return nil, t, t != nil
	}
	return nil, nil, false
}

func init() {
	registerSize(OpSizeof, "sizeof", "a record, set, record of, set of, array, string or objid value",
		append(append([]TypeKind{}, stringListKinds...), TypeRecord, TypeSet, TypeObjid)...)
	registerSize(OpLengthof, "lengthof", "a string, record of, set of, array or objid value",
		append(append([]TypeKind{}, stringListKinds...), TypeObjid)...)

	register(OpSubstr, operatorRule{
		name:    "substr",
		minArgs: 3,
		maxArgs: 3,
		check: func(ev *evaluation) *Type {
			ok := ev.expect(0, STRING_OR_LIST, stringListKinds...)
			ok = ev.expect(1, INTEGER_VALUE, TypeInteger) && ok
			ok = ev.expect(2, INTEGER_VALUE, TypeInteger) && ok
			if !ok {
				return nil
			}
			checkBounds(ev, 1, 2)
			return substringType(ev, 0)
		},
		fold: func(ev *evaluation) Value {
			index, ok1 := ev.smallInt(1)
			count, ok2 := ev.smallInt(2)
			if !ok1 || !ok2 {
				return nil
			}
			return sliceValue(ev.operands[0].value, index, count, nil)
		},
	})

	register(OpReplace, operatorRule{
		name:    "replace",
		minArgs: 4,
		maxArgs: 4,
		check: func(ev *evaluation) *Type {
			ok := ev.expect(0, STRING_OR_LIST, stringListKinds...)
			ok = ev.expect(1, INTEGER_VALUE, TypeInteger) && ok
			ok = ev.expect(2, INTEGER_VALUE, TypeInteger) && ok
			ok = ev.expect(3, STRING_OR_LIST, stringListKinds...) && ok
			if !ok {
				return nil
			}
			first, last := ev.operands[0].kind(), ev.operands[3].kind()
			if first != TypeUndefined && last != TypeUndefined {
				if first.IsString() || last.IsString() {
					if first != last {
						ev.error(ev.span(), fmtOperandKindsDiffer(ev.rule.name, first, last))
						return nil
					}
				} else if _, ok := ev.common(0, 3); !ok {
					return nil
				}
			}
			checkBounds(ev, 1, 2)
			return substringType(ev, 0)
		},
		fold: func(ev *evaluation) Value {
			index, ok1 := ev.smallInt(1)
			count, ok2 := ev.smallInt(2)
			if !ok1 || !ok2 {
				return nil
			}
			return sliceValue(ev.operands[0].value, index, count, ev.operands[3].value)
		},
	})

	register(OpIsPresent, operatorRule{
		name:        "ispresent",
		minArgs:     1,
		maxArgs:     1,
		rawOperands: true,
		check: func(ev *evaluation) *Type {
			p, ok := checkFieldPredicate(ev)
			if ok && p.parentType != nil && !p.parentType.Kind.IsStructured() && p.parentType.Kind != TypeUnion {
				ev.error(p.ref.Span, fmtFieldOfNonStructured(p.parentType, p.field))
			}
			return BOOLEAN
		},
		fold: func(ev *evaluation) Value {
			p, _ := ev.scratch.(fieldPredicate)
			if p.decl == nil {
				return nil
			}
			v, t, ok := p.parent(ev.ctx)
			if !ok {
				return nil
			}
			switch {
			case v != nil:
				switch parent := v.(type) {
				case *Record:
					field, found := parent.FieldValue(p.field)
					if !found || field == nil {
						return nil
					}
					_, omitted := field.(*Omit)
					return NewBool(!omitted)
				case *Union:
					return NewBool(parent.Field == p.field)
				}
			case t != nil && t.Kind == NamedTemplateListTemplate:
				for _, named := range t.Named {
					if named.Name != p.field {
						continue
					}
					switch named.Template.Kind {
					case OmitTemplate:
						return NewBool(false)
					case AnyOrOmitTemplate:
						return nil
					}
					return NewBool(true)
				}
			}
			return nil
		},
	})

	register(OpIsChosen, operatorRule{
		name:        "ischosen",
		minArgs:     1,
		maxArgs:     1,
		rawOperands: true,
		check: func(ev *evaluation) *Type {
			p, ok := checkFieldPredicate(ev)
			if ok && p.parentType != nil && p.parentType.Kind != TypeUnion {
				ev.error(p.ref.Span, fmtUnionExpected(ev.rule.name, p.parentType))
			}
			return BOOLEAN
		},
		fold: func(ev *evaluation) Value {
			p, _ := ev.scratch.(fieldPredicate)
			if p.decl == nil {
				return nil
			}
			v, t, ok := p.parent(ev.ctx)
			if !ok {
				return nil
			}
			if u, isUnion := v.(*Union); isUnion {
				return NewBool(u.Field == p.field)
			}
			if t != nil && t.Kind == NamedTemplateListTemplate && len(t.Named) == 1 {
				return NewBool(t.Named[0].Name == p.field)
			}
			return nil
		},
	})

	register(OpIsValue, operatorRule{
		name:    "isvalue",
		minArgs: 1,
		maxArgs: 1,
		check:   checkValueOrTemplate,
		fold: func(ev *evaluation) Value {
			o := ev.operands[0]
			if o.template != nil && o.value == nil {
				return NewBool(templateIsValue(o.template))
			}
			return NewBool(valueIsComplete(o.value))
		},
	})

	register(OpIsBound, operatorRule{
		name:    "isbound",
		minArgs: 1,
		maxArgs: 1,
		check:   checkValueOrTemplate,
		fold: func(ev *evaluation) Value {
			//operands are only known when bound
			return NewBool(true)
		},
	})
}

func checkValueOrTemplate(ev *evaluation) *Type {
	o := ev.operands[0]
	if !o.erroneous && o.Operand.Value == nil && o.Operand.Template == nil {
		ev.error(ev.operandSpan(0), fmtOperandShouldBe(0, ev.rule.name, "a value or a template"))
	}
	return BOOLEAN
}

// valueIsComplete returns true if every field and element of a folded value is bound.
func valueIsComplete(v Value) bool {
	switch val := v.(type) {
	case nil, *Omit:
		return false
	case *Record:
		for _, f := range val.Fields {
			if f.Value == nil {
				return false
			}
			if _, omitted := f.Value.(*Omit); !omitted && !valueIsComplete(f.Value) {
				return false
			}
		}
	case *Union:
		return valueIsComplete(val.Value)
	case *Sequence:
		for _, e := range val.Elements {
			if !valueIsComplete(e) {
				return false
			}
		}
	}
	return true
}

// templateIsValue returns true if a folded template matches exactly one value.
func templateIsValue(t *Template) bool {
	switch t.Kind {
	case SpecificValueTemplate:
		return t.Length == nil && valueIsComplete(t.Value)
	case TemplateListTemplate:
		for _, elem := range t.Elements {
			if !templateIsValue(elem) {
				return false
			}
		}
		return t.Length == nil
	case NamedTemplateListTemplate:
		for _, named := range t.Named {
			if named.Template.Kind != OmitTemplate && !templateIsValue(named.Template) {
				return false
			}
		}
		return t.Length == nil
	}
	return false
}
