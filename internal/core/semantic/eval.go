package semantic

import (
	"github.com/ttcn3tools/ttcnsem/internal/diag"
	"github.com/ttcn3tools/ttcnsem/internal/sourcecode"
)

// A valueResult is the outcome of the evaluation of a value.
type valueResult struct {
	Value     Value //concrete value, nil if unknown at analysis time
	Governor  *Type
	Erroneous bool

	//lower case identifier that is neither a reference nor a known enumeration item
	unresolved *Identifier
}

// A templateResult is the outcome of the evaluation of a template.
type templateResult struct {
	Template  *Template //template with every value folded, nil if unknown at analysis time
	Governor  *Type
	Erroneous bool
}

// Fold evaluates a value in the expected context: the result is the concrete value or v itself if
// v cannot be computed at analysis time.
func (ctx *Context) Fold(v Value, expected ExpectedKind) Value {
	result := ctx.evaluateValue(v, expected)
	if result.Value == nil {
		return v
	}
	return result.Value
}

func (ctx *Context) evaluateValue(v Value, expected ExpectedKind) valueResult {
	return ctx.evaluateWithType(v, nil, expected)
}

// evaluateWithType evaluates a value whose expected type may be known, the expected type is used
// to resolve enumeration items.
func (ctx *Context) evaluateWithType(v Value, t *Type, expected ExpectedKind) valueResult {
	switch val := v.(type) {
	case nil:
		return valueResult{}
	case *Expression:
		last := val.Evaluate(ctx, expected)
		result := valueResult{Governor: val.governor, Erroneous: val.erroneous}
		if last != Value(val) {
			result.Value = last
		}
		return result
	case *Referenced:
		return ctx.evaluateReference(val.Ref, expected)
	case *Identifier:
		if val.resolved == nil {
			ref := &Reference{Name: val.Name, Span: val.span}
			if _, ok := ctx.Resolver.Resolve(ref); ok {
				val.resolved = NewReferenced(ref)
			} else if !ctx.resolveIdentifierAs(val, t) {
				if t != nil {
					ctx.errorf(val.span, fmtUnresolvedReference(val.Name))
					return valueResult{Erroneous: true}
				}
				return valueResult{unresolved: val}
			}
		}
		return ctx.evaluateWithType(val.resolved, t, expected)
	case *Enumerated:
		if val.Type == nil && t != nil && t.Kind == TypeEnumerated {
			if _, ok := t.EnumItem(val.Name); ok {
				val.Type = t
			}
		}
		return valueResult{Value: val, Governor: val.Type}
	case *Record:
		return ctx.evaluateRecord(val, t, expected)
	case *Union:
		return ctx.evaluateUnion(val, t, expected)
	case *Sequence:
		return ctx.evaluateSequence(val, t, expected)
	}
	return valueResult{Value: v, Governor: valueGovernor(v)}
}

// resolveIdentifierAs resolves an ambiguous identifier as an item of the enumerated type t.
func (ctx *Context) resolveIdentifierAs(id *Identifier, t *Type) bool {
	if t == nil || t.Kind != TypeEnumerated {
		return false
	}
	if _, ok := t.EnumItem(id.Name); !ok {
		return false
	}
	id.resolved = At(NewEnumerated(t, id.Name), id.span)
	return true
}

func (ctx *Context) evaluateRecord(r *Record, t *Type, expected ExpectedKind) valueResult {
	typ := r.Type
	if typ == nil {
		typ = t
	}
	if typ != nil && !typ.Kind.IsStructured() {
		typ = nil
	}

	result := valueResult{Governor: r.Type}
	fields := make([]FieldValue, len(r.Fields))
	known, changed := true, false

	for i, f := range r.Fields {
		fields[i] = f
		if f.Value == nil {
			continue
		}
		var fieldType *Type
		if typ != nil {
			if field, ok := typ.Field(f.Name); ok {
				fieldType = field.Type
			}
		}
		fieldResult := ctx.evaluateWithType(f.Value, fieldType, expected)
		if fieldResult.Erroneous {
			result.Erroneous = true
		}
		if fieldResult.unresolved != nil {
			ctx.errorf(fieldResult.unresolved.span, fmtUnresolvedReference(fieldResult.unresolved.Name))
			result.Erroneous = true
		}
		if fieldResult.Value == nil {
			known = false
			continue
		}
		if fieldResult.Value != f.Value {
			changed = true
			fields[i].Value = fieldResult.Value
		}
	}

	if known && !result.Erroneous {
		if changed {
			result.Value = At(&Record{Type: r.Type, Fields: fields}, r.span)
		} else {
			result.Value = r
		}
	}
	return result
}

func (ctx *Context) evaluateUnion(u *Union, t *Type, expected ExpectedKind) valueResult {
	typ := u.Type
	if typ == nil {
		typ = t
	}
	var fieldType *Type
	if typ != nil && typ.Kind == TypeUnion {
		if field, ok := typ.Field(u.Field); ok {
			fieldType = field.Type
		}
	}

	result := valueResult{Governor: u.Type}
	fieldResult := ctx.evaluateWithType(u.Value, fieldType, expected)
	result.Erroneous = fieldResult.Erroneous
	if fieldResult.unresolved != nil {
		ctx.errorf(fieldResult.unresolved.span, fmtUnresolvedReference(fieldResult.unresolved.Name))
		result.Erroneous = true
	}
	if fieldResult.Value != nil && !result.Erroneous {
		if fieldResult.Value != u.Value {
			result.Value = At(&Union{Type: u.Type, Field: u.Field, Value: fieldResult.Value}, u.span)
		} else {
			result.Value = u
		}
	}
	return result
}

func (ctx *Context) evaluateSequence(s *Sequence, t *Type, expected ExpectedKind) valueResult {
	typ := s.Type
	if typ == nil {
		typ = t
	}
	var elemType *Type
	if typ != nil && typ.Kind.IsSequenceOf() {
		elemType = typ.Element
	}

	result := valueResult{Governor: s.Type}
	elements := make([]Value, len(s.Elements))
	known, changed := true, false

	for i, elem := range s.Elements {
		elements[i] = elem
		elemResult := ctx.evaluateWithType(elem, elemType, expected)
		if elemResult.Erroneous {
			result.Erroneous = true
		}
		if elemResult.unresolved != nil {
			ctx.errorf(elemResult.unresolved.span, fmtUnresolvedReference(elemResult.unresolved.Name))
			result.Erroneous = true
		}
		if elemResult.Value == nil {
			known = false
			continue
		}
		if elemResult.Value != elem {
			changed = true
			elements[i] = elemResult.Value
		}
	}

	if known && !result.Erroneous {
		if changed {
			result.Value = At(&Sequence{Form: s.Form, Type: s.Type, Elements: elements}, s.span)
		} else {
			result.Value = s
		}
	}
	return result
}

// referenceAllowed tells whether a reference to decl can be used where a value of the expected kind is expected.
func referenceAllowed(decl *Declaration, expected ExpectedKind) bool {
	switch decl.Kind {
	case DeclConstant:
		return true
	case DeclExternalConstant, DeclModulePar:
		return expected >= ExpectedStaticValue
	case DeclVariable, DeclValueParameter:
		return expected >= ExpectedDynamicValue
	case DeclFunction, DeclExtFunction:
		if decl.Type == nil {
			return false
		}
		if decl.ReturnsTemplate {
			return expected == ExpectedTemplate
		}
		return expected >= ExpectedDynamicValue
	case DeclModuleParTemplate, DeclVariableTemplate, DeclTemplateParameter, DeclTemplate:
		return expected == ExpectedTemplate
	}
	return false
}

// isValueDeclaration returns false for the declarations that never denote a value.
func isValueDeclaration(decl *Declaration) bool {
	switch decl.Kind {
	case DeclAltstep, DeclTestcase, DeclTimer, DeclPort, DeclType:
		return false
	case DeclFunction, DeclExtFunction:
		return decl.Type != nil
	}
	return true
}

func (ctx *Context) resolve(ref *Reference) (*Declaration, bool) {
	decl, ok := ctx.Resolver.Resolve(ref)
	if !ok {
		ctx.errorf(ref.Span, fmtUnresolvedReference(ref.Name))
		return nil, false
	}
	ctx.recordDependency(decl)
	return decl, true
}

func (ctx *Context) evaluateReference(ref *Reference, expected ExpectedKind) valueResult {
	decl, ok := ctx.resolve(ref)
	if !ok {
		return valueResult{Erroneous: true}
	}

	if !referenceAllowed(decl, expected) {
		ctx.errorf(ref.Span, fmtReferenceNotAllowed(decl, expected))
		return valueResult{Erroneous: true}
	}

	governor, ok := ctx.subrefGovernor(decl.Type, ref, ctx.errorf)
	if !ok {
		return valueResult{Erroneous: true}
	}

	if decl.Kind != DeclConstant {
		return valueResult{Governor: governor}
	}

	if !decl.Check(ctx) {
		//reported by the declaration or circular
		return valueResult{Governor: governor, Erroneous: true}
	}

	v, erroneous := ctx.applySubrefs(decl.last, ref)
	return valueResult{Value: v, Governor: governor, Erroneous: erroneous}
}

// subrefGovernor returns the type of the value denoted by ref whose first part has the type t.
// A nil report makes the function silent.
func (ctx *Context) subrefGovernor(t *Type, ref *Reference, report func(sourcecode.Span, string)) (*Type, bool) {
	for _, subref := range ref.Subrefs {
		if t == nil {
			return nil, true
		}
		if subref.IsField() {
			switch t.Kind {
			case TypeRecord, TypeSet, TypeUnion:
				field, ok := t.Field(subref.Field)
				if !ok {
					if report != nil {
						report(ref.Span, fmtUnknownField(t, subref.Field))
					}
					return nil, false
				}
				t = field.Type
			default:
				if report != nil {
					report(ref.Span, fmtFieldOfNonStructured(t, subref.Field))
				}
				return nil, false
			}
			continue
		}

		if report != nil {
			index := ctx.evaluateValue(subref.Index, ExpectedDynamicValue)
			if index.Erroneous {
				return nil, false
			}
			if index.Governor != nil && index.Governor.Kind != TypeInteger {
				report(subref.Index.Span(), INDEX_SHOULD_BE_INTEGER)
				return nil, false
			}
			if i, ok := index.Value.(*Integer); ok && i.V.Sign() < 0 {
				report(subref.Index.Span(), fmtNegativeIndex(i.V.String()))
				return nil, false
			}
		}

		switch {
		case t.Kind.IsSequenceOf():
			t = t.Element
		case t.Kind.IsString():
			t = builtinForKind(t.Kind)
		default:
			if report != nil {
				report(ref.Span, fmtIndexOfNonList(t))
			}
			return nil, false
		}
	}
	return t, true
}

// applySubrefs selects the part of a folded value denoted by the subreferences of ref, the
// result is nil if the part is unbound or unknown.
func (ctx *Context) applySubrefs(v Value, ref *Reference) (_ Value, erroneous bool) {
	for _, subref := range ref.Subrefs {
		switch val := v.(type) {
		case nil:
			return nil, false
		case *Omit:
			ctx.errorf(ref.Span, fmtAccessToOmittedField(ref.String()))
			return nil, true
		case *Record:
			if !subref.IsField() {
				return nil, false
			}
			v, _ = val.FieldValue(subref.Field)
		case *Union:
			if !subref.IsField() {
				return nil, false
			}
			if val.Field != subref.Field {
				ctx.errorf(ref.Span, fmtInactiveUnionField(subref.Field, val.Field))
				return nil, true
			}
			v = val.Value
		default:
			if subref.IsField() {
				return nil, false
			}
			index, ok := ctx.evaluateValue(subref.Index, ExpectedDynamicValue).Value.(*Integer)
			if !ok {
				return nil, false
			}
			if index.V.Sign() < 0 {
				ctx.errorf(subref.Index.Span(), fmtNegativeIndex(index.V.String()))
				return nil, true
			}
			n, ok := unitLength(val)
			if !ok {
				return nil, false
			}
			if !index.V.IsInt64() || index.V.Int64() >= int64(n) {
				ctx.errorf(subref.Index.Span(), fmtIndexOverflow(index.V.String(), n))
				return nil, true
			}
			i := int(index.V.Int64())
			if seq, ok := val.(*Sequence); ok {
				v = seq.Elements[i]
			} else {
				units, _ := stringUnits(val)
				v = stringFromUnits(val, units[i:i+1])
			}
		}
	}
	return v, false
}

func builtinForKind(kind TypeKind) *Type {
	switch kind {
	case TypeInteger:
		return INTEGER
	case TypeFloat:
		return FLOAT
	case TypeBoolean:
		return BOOLEAN
	case TypeVerdict:
		return VERDICT
	case TypeBitstring:
		return BITSTRING
	case TypeHexstring:
		return HEXSTRING
	case TypeOctetstring:
		return OCTETSTRING
	case TypeCharstring:
		return CHARSTRING
	case TypeUniversalCharstring:
		return UNIVERSAL_CHARSTRING
	case TypeObjid:
		return OBJID
	case TypeDefault:
		return DEFAULT
	}
	return nil
}

// valueGovernor returns the type of a folded value, nil for untyped composite values and omit.
func valueGovernor(v Value) *Type {
	switch val := v.(type) {
	case *Integer:
		return INTEGER
	case *Float:
		return FLOAT
	case *Boolean:
		return BOOLEAN
	case *Verdict:
		return VERDICT
	case *Bitstring:
		return BITSTRING
	case *Hexstring:
		return HEXSTRING
	case *Octetstring:
		return OCTETSTRING
	case *Charstring:
		return CHARSTRING
	case *UniversalCharstring:
		return UNIVERSAL_CHARSTRING
	case *Objid:
		return OBJID
	case *Enumerated:
		return val.Type
	case *Record:
		return val.Type
	case *Union:
		return val.Type
	case *Sequence:
		return val.Type
	}
	return nil
}

// checkAssignment checks a value against the type of the entity it is assigned to.
func (ctx *Context) checkAssignment(target *Type, v Value, expected ExpectedKind) valueResult {
	result := ctx.evaluateWithType(v, target, expected)
	if result.unresolved != nil {
		ctx.errorf(v.Span(), fmtUnresolvedReference(result.unresolved.Name))
		result.Erroneous = true
	}
	if result.Erroneous || target == nil {
		return result
	}

	switch {
	case result.Governor != nil:
		if !ctx.checkCompatibility(target, result.Governor, v.Span()) {
			result.Erroneous = true
			return result
		}
	case result.Value != nil:
		if !ctx.checkStructure(target, result.Value, v.Span()) {
			result.Erroneous = true
			return result
		}
	}

	if result.Value != nil && !ctx.checkLength(target, result.Value, v.Span()) {
		result.Erroneous = true
	}
	result.Governor = target
	return result
}

func (ctx *Context) checkCompatibility(target, source *Type, span sourcecode.Span) bool {
	ok, conversion := IsCompatible(target, source)
	if !ok {
		ctx.errorf(span, fmtTypeMismatch(target, source))
		return false
	}
	return reportConversion(ctx, target, source, conversion, span)
}

// checkStructure checks a folded value that has no type of its own (e.g. a record literal) against a type.
func (ctx *Context) checkStructure(target *Type, v Value, span sourcecode.Span) bool {
	if t := valueGovernor(v); t != nil {
		return ctx.checkCompatibility(target, t, span)
	}

	switch val := v.(type) {
	case *Omit:
		ctx.errorf(span, fmtOmitNotAllowed(target))
		return false
	case *Record:
		if !target.Kind.IsStructured() {
			ctx.errorf(span, fmtTypeMismatchLiteral(target, "record value"))
			return false
		}
		ok := true
		for _, f := range val.Fields {
			field, found := target.Field(f.Name)
			if !found {
				ctx.errorf(span, fmtUnknownField(target, f.Name))
				ok = false
				continue
			}
			switch f.Value.(type) {
			case nil:
			case *Omit:
				if !field.Optional {
					ctx.errorf(span, fmtOmitForMandatoryField(f.Name))
					ok = false
				}
			default:
				if !ctx.checkStructure(field.Type, f.Value, span) {
					ok = false
				}
			}
		}
		return ok
	case *Union:
		if target.Kind != TypeUnion {
			ctx.errorf(span, fmtTypeMismatchLiteral(target, "union value"))
			return false
		}
		field, found := target.Field(val.Field)
		if !found {
			ctx.errorf(span, fmtUnknownField(target, val.Field))
			return false
		}
		return ctx.checkStructure(field.Type, val.Value, span)
	case *Sequence:
		if !target.Kind.IsSequenceOf() {
			ctx.errorf(span, fmtTypeMismatchLiteral(target, "list value"))
			return false
		}
		ok := true
		for _, elem := range val.Elements {
			if !ctx.checkStructure(target.Element, elem, span) {
				ok = false
			}
		}
		return ok
	}
	return true
}

// checkLength checks the length of a folded string or list value against the length restriction of a type.
func (ctx *Context) checkLength(target *Type, v Value, span sourcecode.Span) bool {
	n, ok := unitLength(v)
	if !ok {
		return true
	}
	if target.Kind == TypeArray && n != target.ArrayLength {
		ctx.errorf(span, fmtArrayLengthMismatch(target.ArrayLength, n))
		return false
	}
	if !target.Length.Allows(n) {
		ctx.errorf(span, fmtLengthRestrictionViolated(target.Length, n))
		return false
	}
	return true
}

func (ctx *Context) evaluateTemplateInstance(ti *TemplateInstance) templateResult {
	t := ti.Type
	if t == nil && ti.DerivedRef != nil {
		if decl, ok := ctx.resolve(ti.DerivedRef); ok {
			if !decl.Kind.IsTemplate() {
				ctx.errorf(ti.DerivedRef.Span, fmtTemplateExpected(decl))
				return templateResult{Erroneous: true}
			}
			t = decl.Type
		} else {
			return templateResult{Erroneous: true}
		}
	}
	if ti.Body == nil {
		return templateResult{Governor: t}
	}

	result := ctx.evaluateTemplate(ti.Body, t)
	if result.Erroneous {
		return result
	}
	if t != nil {
		if result.Governor != nil && !ctx.checkCompatibility(t, result.Governor, ti.Span) {
			result.Erroneous = true
		}
		result.Governor = t
	}
	return result
}

// checkTemplateAssignment checks the body of a template declaration.
func (ctx *Context) checkTemplateAssignment(target *Type, body *Template) templateResult {
	result := ctx.evaluateTemplate(body, target)
	if result.Erroneous || target == nil {
		return result
	}
	if result.Governor != nil && !ctx.checkCompatibility(target, result.Governor, body.Span) {
		result.Erroneous = true
	}
	result.Governor = target
	return result
}

// evaluateTemplate folds the values of a template, t is the expected type if known.
func (ctx *Context) evaluateTemplate(tmpl *Template, t *Type) templateResult {
	switch tmpl.Kind {
	case SpecificValueTemplate:
		if ref, ok := templateReference(ctx, tmpl.Value); ok {
			return ctx.evaluateTemplateRef(ref, tmpl.Length)
		}
		result := ctx.evaluateWithType(tmpl.Value, t, ExpectedTemplate)
		if result.unresolved != nil {
			ctx.errorf(tmpl.Value.Span(), fmtUnresolvedReference(result.unresolved.Name))
			result.Erroneous = true
		}
		res := templateResult{Governor: result.Governor, Erroneous: result.Erroneous}
		if result.Value != nil && !result.Erroneous {
			if result.Value == tmpl.Value {
				res.Template = tmpl
			} else {
				res.Template = &Template{Kind: SpecificValueTemplate, Value: result.Value, Length: tmpl.Length, Span: tmpl.Span}
			}
			if tmpl.Length != nil {
				if n, ok := unitLength(result.Value); ok && !tmpl.Length.Allows(n) {
					ctx.errorf(tmpl.Span, fmtLengthRestrictionViolated(tmpl.Length, n))
					res.Erroneous = true
				}
			}
		}
		return res
	case AnyValueTemplate, AnyOrOmitTemplate, OmitTemplate:
		return templateResult{Template: tmpl}
	case ValueListTemplate, ComplementListTemplate, TemplateListTemplate:
		elemType := t
		if tmpl.Kind == TemplateListTemplate {
			elemType = nil
			if t != nil && t.Kind.IsSequenceOf() {
				elemType = t.Element
			}
		}
		res := templateResult{}
		elements := make([]*Template, len(tmpl.Elements))
		known, changed := true, false
		for i, elem := range tmpl.Elements {
			elemResult := ctx.evaluateTemplate(elem, elemType)
			if elemResult.Erroneous {
				res.Erroneous = true
			}
			if res.Governor == nil && tmpl.Kind != TemplateListTemplate {
				res.Governor = elemResult.Governor
			}
			if elemResult.Template == nil {
				known = false
				continue
			}
			elements[i] = elemResult.Template
			if elemResult.Template != elem {
				changed = true
			}
		}
		if known && !res.Erroneous {
			res.Template = tmpl
			if changed {
				res.Template = &Template{Kind: tmpl.Kind, Elements: elements, Length: tmpl.Length, Span: tmpl.Span}
			}
		}
		return res
	case NamedTemplateListTemplate:
		res := templateResult{}
		named := make([]NamedTemplate, len(tmpl.Named))
		known, changed := true, false
		for i, n := range tmpl.Named {
			named[i] = n
			var fieldType *Type
			if t != nil && (t.Kind.IsStructured() || t.Kind == TypeUnion) {
				field, ok := t.Field(n.Name)
				if !ok {
					ctx.errorf(n.Template.Span, fmtUnknownField(t, n.Name))
					res.Erroneous = true
					continue
				}
				fieldType = field.Type
				if (n.Template.Kind == OmitTemplate || n.Template.Kind == AnyOrOmitTemplate) && !field.Optional {
					ctx.errorf(n.Template.Span, fmtOmitForMandatoryField(n.Name))
					res.Erroneous = true
				}
			}
			fieldResult := ctx.evaluateTemplate(n.Template, fieldType)
			if fieldResult.Erroneous {
				res.Erroneous = true
			}
			if fieldResult.Template == nil {
				known = false
				continue
			}
			if fieldResult.Template != n.Template {
				changed = true
				named[i].Template = fieldResult.Template
			}
		}
		if known && !res.Erroneous {
			res.Template = tmpl
			if changed {
				res.Template = &Template{Kind: tmpl.Kind, Named: named, Length: tmpl.Length, Span: tmpl.Span}
			}
		}
		return res
	case ReferencedTemplate:
		return ctx.evaluateTemplateRef(tmpl.Ref, tmpl.Length)
	}
	ctx.Internal(diag.Invariant(tmpl.Span, "unknown template kind %d", tmpl.Kind))
	return templateResult{Erroneous: true}
}

// templateReference returns the reference of a specific value template if it denotes a template declaration.
func templateReference(ctx *Context, v Value) (*Reference, bool) {
	var ref *Reference
	switch val := v.(type) {
	case *Referenced:
		ref = val.Ref
	case *Identifier:
		if val.resolved != nil {
			return templateReference(ctx, val.resolved)
		}
		ref = &Reference{Name: val.Name, Span: val.span}
	default:
		return nil, false
	}
	decl, ok := ctx.Resolver.Resolve(ref)
	if !ok || !decl.Kind.IsTemplate() {
		return nil, false
	}
	return ref, true
}

func (ctx *Context) evaluateTemplateRef(ref *Reference, length *LengthRestriction) templateResult {
	decl, ok := ctx.resolve(ref)
	if !ok {
		return templateResult{Erroneous: true}
	}
	if !isValueDeclaration(decl) {
		ctx.errorf(ref.Span, fmtReferenceNotAllowed(decl, ExpectedTemplate))
		return templateResult{Erroneous: true}
	}

	if !decl.Kind.IsTemplate() {
		result := ctx.evaluateReference(ref, ExpectedTemplate)
		res := templateResult{Governor: result.Governor, Erroneous: result.Erroneous}
		if result.Value != nil {
			res.Template = &Template{Kind: SpecificValueTemplate, Value: result.Value, Length: length, Span: ref.Span}
		}
		return res
	}

	governor, ok := ctx.subrefGovernor(decl.Type, ref, ctx.errorf)
	if !ok {
		return templateResult{Erroneous: true}
	}
	if decl.Kind != DeclTemplate {
		return templateResult{Governor: governor}
	}
	if !decl.Check(ctx) {
		return templateResult{Governor: governor, Erroneous: true}
	}

	body := selectTemplateField(decl.lastTemplate, ref)
	if body != nil && length != nil {
		restricted := *body
		restricted.Length = length
		body = &restricted
	}
	return templateResult{Template: body, Governor: governor}
}

// selectTemplateField selects the part of a folded template denoted by the field subreferences of ref.
func selectTemplateField(t *Template, ref *Reference) *Template {
	for _, subref := range ref.Subrefs {
		if t == nil || !subref.IsField() || t.Kind != NamedTemplateListTemplate {
			return nil
		}
		var next *Template
		for _, n := range t.Named {
			if n.Name == subref.Field {
				next = n.Template
			}
		}
		t = next
	}
	return t
}
