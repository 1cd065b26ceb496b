package modfile

import (
	"math"
	"math/big"

	"github.com/goccy/go-yaml/ast"
	"github.com/ttcn3tools/ttcnsem/internal/core/semantic"
)

func (d *decoder) decodeDeclaration(n ast.Node) *semantic.Declaration {
	name := d.textField(n, "name")

	kind := semantic.DeclConstant
	if kindNode := field(n, "kind"); kindNode != nil {
		text, _ := d.text(kindNode)
		k, ok := semantic.ParseDeclKind(text)
		if !ok {
			d.errorf(kindNode, "unknown declaration kind `%s'", text)
			return nil
		}
		kind = k
	}

	if _, ok := d.module.Declaration(name); ok {
		d.errorf(field(n, "name"), "`%s' is declared more than once", name)
		return nil
	}

	var t *semantic.Type
	if typeNode := field(n, "type"); typeNode != nil {
		t = d.typeRef(typeNode)
	}

	decl := semantic.NewDeclaration(kind, name, t)
	decl.Span = d.span(n)

	switch text := d.textField(n, "direction"); text {
	case "out":
		decl.Direction = semantic.Out
	case "inout":
		decl.Direction = semantic.InOut
	}
	if b, ok := unwrap(field(n, "returns-template")).(*ast.BoolNode); ok {
		decl.ReturnsTemplate = b.Value
	}

	value, template := field(n, "value"), field(n, "template")
	switch {
	case value != nil && template != nil:
		d.errorf(n, "`%s' has both a value and a template", name)
	case kind.IsTemplate() && value != nil:
		d.errorf(value, "the body of %s `%s' should be a template", kind, name)
	case template != nil && !kind.IsTemplate():
		d.errorf(template, "%s `%s' cannot have a template body", kind, name)
	case value != nil:
		decl.Value = d.value(value, t)
	case template != nil:
		decl.Template = d.template(template, t)
	}
	return decl
}

func (d *decoder) decodeExpressionCheck(n ast.Node) {
	name := d.textField(n, "name")

	expected := semantic.ExpectedDynamicValue
	if text, ok := d.text(field(n, "expected")); ok {
		expected, _ = semantic.ParseExpectedKind(text)
	}

	valueNode := field(n, "value")
	expr, ok := d.value(valueNode, nil).(*semantic.Expression)
	if !ok {
		d.errorf(valueNode, "an operation is expected for expression `%s'", name)
		return
	}
	d.module.AddExpression(name, expr, expected)
}

// value decodes a value, t is the type expected by the context if known.
func (d *decoder) value(n ast.Node, t *semantic.Type) semantic.Value {
	n = unwrap(n)
	errCount := len(d.errs)

	var v semantic.Value
	switch node := n.(type) {
	case *ast.IntegerNode:
		switch i := node.Value.(type) {
		case int64:
			v = semantic.NewInt(i)
		case uint64:
			v = semantic.NewBigInt(new(big.Int).SetUint64(i))
		}
	case *ast.FloatNode:
		v = semantic.NewFloat(node.Value)
	case *ast.InfinityNode:
		v = semantic.NewFloat(node.Value)
	case *ast.NanNode:
		v = semantic.NewFloat(math.NaN())
	case *ast.BoolNode:
		v = semantic.NewBool(node.Value)
	case *ast.StringNode, *ast.LiteralNode:
		text, _ := d.text(node)
		v = d.textValue(n, text, t)
	case *ast.SequenceNode:
		v = d.sequenceValue(node, t)
	case *ast.MappingNode, *ast.MappingValueNode:
		v = d.compositeValue(node, t)
	}

	if v == nil {
		if n != nil && len(d.errs) == errCount {
			d.errorf(n, "invalid value")
		}
		return nil
	}
	return semantic.At(v, d.span(n))
}

// textValue decodes a literal, an enumeration item of t, an identifier or a reference.
func (d *decoder) textValue(n ast.Node, text string, t *semantic.Type) semantic.Value {
	if v, ok := semantic.ParseLiteral(text); ok {
		return v
	}
	if semantic.IsIdentifier(text) {
		if t != nil && t.Kind == semantic.TypeEnumerated {
			if _, ok := t.EnumItem(text); ok {
				return semantic.NewEnumerated(t, text)
			}
		}
		return semantic.NewIdentifier(text)
	}
	if ref := d.reference(n, text); ref != nil {
		return semantic.NewReferenced(ref)
	}
	return nil
}

func (d *decoder) reference(n ast.Node, text string) *semantic.Reference {
	ref, err := semantic.ParseReference(text)
	if err != nil {
		d.errorf(n, "invalid reference %q", text)
		return nil
	}
	ref.Span = d.span(n)
	return ref
}

func (d *decoder) sequenceValue(n *ast.SequenceNode, t *semantic.Type) semantic.Value {
	var elementType *semantic.Type
	if t != nil {
		elementType = t.Element
	}

	elements := make([]semantic.Value, 0, len(n.Values))
	for _, e := range n.Values {
		elements = append(elements, d.value(e, elementType))
	}

	seq := semantic.NewRecordOfValue(elements...)
	if t != nil {
		seq.Type = t
		switch t.Kind {
		case semantic.TypeSetOf:
			seq.Form = semantic.SetOfForm
		case semantic.TypeArray:
			seq.Form = semantic.ArrayForm
		}
	}
	return seq
}

// compositeValue decodes the mapping forms of values:
//
//	{op: name, args: [...]}        operation
//	{ref: a.b[0]}                   reference
//	{charstring: text}              charstring, text is not a literal
//	{universal: text}               universal charstring
//	{record: {field: value, ...}}   record or set value
//	{union: {field: value}}         union value
//	{list: [...]}, {setof: [...]}   record of, set of and array values
//	{objid: [0, 4, 0]}              object identifier
func (d *decoder) compositeValue(n ast.Node, t *semantic.Type) semantic.Value {
	items, _ := entries(n)
	if len(items) == 0 {
		return nil
	}
	if field(n, "op") != nil {
		return d.operation(n)
	}
	item := items[0]
	body := item.Value

	if len(items) != 1 {
		d.errorf(n, "a value mapping should have a single key")
		return nil
	}

	switch key(item) {
	case "ref":
		text, _ := d.text(body)
		if ref := d.reference(body, text); ref != nil {
			return semantic.NewReferenced(ref)
		}
	case "charstring":
		text, _ := d.text(body)
		return semantic.NewCharstring(text)
	case "universal":
		text, _ := d.text(body)
		return semantic.NewUniversalCharstring(text)
	case "record":
		record := semantic.NewRecordValue(t)
		fields, _ := entries(body)
		for _, f := range fields {
			var fieldType *semantic.Type
			if t != nil && t.Kind.IsStructured() {
				if def, ok := t.Field(key(f)); ok {
					fieldType = def.Type
				}
			}
			record.Fields = append(record.Fields, semantic.FieldValue{Name: key(f), Value: d.value(f.Value, fieldType)})
		}
		return record
	case "union":
		fields, _ := entries(body)
		if len(fields) != 1 {
			d.errorf(body, "a union value should have a single field")
			return nil
		}
		var fieldType *semantic.Type
		if t != nil && t.Kind == semantic.TypeUnion {
			if def, ok := t.Field(key(fields[0])); ok {
				fieldType = def.Type
			}
		}
		return semantic.NewUnionValue(t, key(fields[0]), d.value(fields[0].Value, fieldType))
	case "list":
		seq, ok := unwrap(body).(*ast.SequenceNode)
		if ok {
			return d.sequenceValue(seq, t)
		}
	case "setof":
		seq, ok := unwrap(body).(*ast.SequenceNode)
		if ok {
			v := d.sequenceValue(seq, t).(*semantic.Sequence)
			v.Form = semantic.SetOfForm
			return v
		}
	case "objid":
		var components []int64
		for _, c := range elements(body) {
			i, ok := d.integer(c)
			if !ok || i < 0 {
				d.errorf(c, "invalid object identifier component")
				return nil
			}
			components = append(components, int64(i))
		}
		return semantic.NewObjid(components...)
	default:
		d.errorf(item, "unknown value form `%s'", key(item))
	}
	return nil
}

func (d *decoder) operation(n ast.Node) semantic.Value {
	name, _ := d.text(field(n, "op"))
	op, ok := semantic.ParseOperator(name)
	if !ok {
		d.errorf(field(n, "op"), "unknown operation `%s'", name)
		return nil
	}

	var operands []semantic.Operand
	for _, arg := range elements(field(n, "args")) {
		operands = append(operands, d.operand(arg))
	}
	return semantic.NewExpression(op, operands...)
}

// operand decodes an operation argument: {template: ...} is a template instance, {type: T} a type,
// {entity: ref} a reference to a timer, port, function and the like, anything else is a value.
func (d *decoder) operand(n ast.Node) semantic.Operand {
	if items, ok := entries(n); ok && len(items) > 0 {
		if field(n, "template") != nil {
			return semantic.T(d.templateInstance(n))
		}
		switch key(items[0]) {
		case "type":
			return semantic.TypeOperand(d.typeRef(items[0].Value))
		case "entity":
			text, _ := d.text(items[0].Value)
			return semantic.R(d.reference(items[0].Value, text))
		}
	}
	return semantic.V(d.value(n, nil))
}

// templateInstance decodes {template: body, type: T, derived: ref}.
func (d *decoder) templateInstance(n ast.Node) *semantic.TemplateInstance {
	var t *semantic.Type
	if typeNode := field(n, "type"); typeNode != nil {
		t = d.typeRef(typeNode)
	}

	ti := semantic.NewTemplateInstance(d.template(field(n, "template"), t))
	ti.Type = t
	ti.Span = d.span(n)
	if derived := field(n, "derived"); derived != nil {
		text, _ := d.text(derived)
		ti.DerivedRef = d.reference(derived, text)
	}
	return ti
}

// template decodes a template:
//
//	"?", "*", omit                  matching symbols
//	{list: [...]}                   value list
//	{complement: [...]}             complemented list
//	{elements: [...]}               record of, set of and array templates
//	{fields: {field: template}}     record and set templates
//	{ref: name}                     referenced template
//	{value: v}                      specific value, also any other value form
//
// Every mapping form accepts a `length` restriction.
func (d *decoder) template(n ast.Node, t *semantic.Type) *semantic.Template {
	n = unwrap(n)
	if n == nil {
		d.errorf(nil, "missing template")
		return semantic.AnyValue()
	}

	if text, ok := d.text(n); ok {
		var tmpl *semantic.Template
		switch text {
		case "?":
			tmpl = semantic.AnyValue()
		case "*":
			tmpl = semantic.AnyOrOmit()
		case "omit":
			tmpl = semantic.OmitT()
		default:
			return d.specificValue(n, t)
		}
		tmpl.Span = d.span(n)
		return tmpl
	}

	if _, ok := entries(n); !ok {
		return d.specificValue(n, t)
	}

	var tmpl *semantic.Template
	switch {
	case field(n, "list") != nil:
		tmpl = semantic.ValueList(d.templates(field(n, "list"), t)...)
	case field(n, "complement") != nil:
		tmpl = semantic.ComplementList(d.templates(field(n, "complement"), t)...)
	case field(n, "elements") != nil:
		var elementType *semantic.Type
		if t != nil {
			elementType = t.Element
		}
		tmpl = semantic.TemplateList(d.templates(field(n, "elements"), elementType)...)
	case field(n, "fields") != nil:
		tmpl = semantic.NamedTemplateList()
		fields, _ := entries(field(n, "fields"))
		for _, f := range fields {
			var fieldType *semantic.Type
			if t != nil && t.Kind.IsStructured() {
				if def, ok := t.Field(key(f)); ok {
					fieldType = def.Type
				}
			}
			tmpl.Named = append(tmpl.Named, semantic.NamedTemplate{Name: key(f), Template: d.template(f.Value, fieldType)})
		}
	case field(n, "ref") != nil:
		refNode := field(n, "ref")
		text, _ := d.text(refNode)
		ref := d.reference(refNode, text)
		if ref == nil {
			return semantic.AnyValue()
		}
		tmpl = semantic.RefTemplate(ref)
	case field(n, "value") != nil:
		tmpl = d.specificValue(field(n, "value"), t)
	default:
		if field(n, "length") != nil {
			d.errorf(n, "a length restriction requires a template")
		}
		return d.specificValue(n, t)
	}

	if length := field(n, "length"); length != nil {
		tmpl.WithLength(d.lengthRestriction(length))
	}
	tmpl.Span = d.span(n)
	return tmpl
}

func (d *decoder) templates(n ast.Node, t *semantic.Type) []*semantic.Template {
	var templates []*semantic.Template
	for _, e := range elements(n) {
		templates = append(templates, d.template(e, t))
	}
	return templates
}

func (d *decoder) specificValue(n ast.Node, t *semantic.Type) *semantic.Template {
	v := d.value(n, t)
	if v == nil {
		return semantic.AnyValue()
	}
	return semantic.SpecificValue(v)
}
