package attrib

import (
	"strings"

	"github.com/tidwall/btree"
	"github.com/ttcn3tools/ttcnsem/internal/core/epoch"
	"github.com/ttcn3tools/ttcnsem/internal/core/semantic"
	"github.com/ttcn3tools/ttcnsem/internal/diag"
	"github.com/ttcn3tools/ttcnsem/internal/sourcecode"
)

// An Indicator tells where an erroneous value is injected relatively to the designated field.
type Indicator int

const (
	Before Indicator = iota + 1
	ValueIndicator
	After
)

func (i Indicator) String() string {
	switch i {
	case Before:
		return "before"
	case ValueIndicator:
		return "value"
	case After:
		return "after"
	}
	return "?"
}

func parseIndicator(s string) (Indicator, bool) {
	switch s {
	case "before":
		return Before, true
	case "value":
		return ValueIndicator, true
	case "after":
		return After, true
	}
	return 0, false
}

// An ErroneousValue is the value injected by an erroneous attribute, Value is nil if the field is omitted.
type ErroneousValue struct {
	Omit    bool
	OmitAll bool
	Raw     bool
	Value   semantic.Value
	Text    string
	Span    sourcecode.Span
}

type FieldDescriptor struct {
	Index int
	Name  string
	Span  sourcecode.Span //span of the first attribute designating the field

	Before *ErroneousValue
	Value  *ErroneousValue
	After  *ErroneousValue

	//erroneous attributes designating subfields
	Child *ErroneousDescriptor
}

func (f *FieldDescriptor) get(indicator Indicator) **ErroneousValue {
	switch indicator {
	case Before:
		return &f.Before
	case ValueIndicator:
		return &f.Value
	default:
		return &f.After
	}
}

// An ErroneousDescriptor describes the erroneous values of a record, set or union type, fields are
// indexed by their position in the type.
type ErroneousDescriptor struct {
	Type *semantic.Type

	// fields with a lower index are omitted, -1 if there is no `before := omit all`.
	OmitBefore int
	// fields with a greater index are omitted, -1 if there is no `after := omit all`.
	OmitAfter int

	fields      btree.Map[int, *FieldDescriptor]
	diagnostics []diag.Diagnostic
}

func newErroneousDescriptor(t *semantic.Type) *ErroneousDescriptor {
	return &ErroneousDescriptor{Type: t, OmitBefore: -1, OmitAfter: -1}
}

func (d *ErroneousDescriptor) Field(index int) (*FieldDescriptor, bool) {
	return d.fields.Get(index)
}

// Fields returns the descriptors of the designated fields, ordered by index.
func (d *ErroneousDescriptor) Fields() []*FieldDescriptor {
	fields := make([]*FieldDescriptor, 0, d.fields.Len())
	d.fields.Scan(func(_ int, f *FieldDescriptor) bool {
		fields = append(fields, f)
		return true
	})
	return fields
}

// Diagnostics returns the diagnostics found while building the descriptor.
func (d *ErroneousDescriptor) Diagnostics() []diag.Diagnostic {
	return d.diagnostics
}

func (d *ErroneousDescriptor) Len() int {
	return d.fields.Len()
}

// IsOmitted returns true if the field at index is removed by an `omit all` boundary.
func (d *ErroneousDescriptor) IsOmitted(index int) bool {
	return (d.OmitBefore >= 0 && index < d.OmitBefore) || (d.OmitAfter >= 0 && index > d.OmitAfter)
}

func (d *ErroneousDescriptor) field(index int, name string, span sourcecode.Span) *FieldDescriptor {
	if f, ok := d.fields.Get(index); ok {
		return f
	}
	f := &FieldDescriptor{Index: index, Name: name, Span: span}
	d.fields.Set(index, f)
	return f
}

// ErroneousDescriptor returns the descriptor built from the erroneous attributes of a path for the type t,
// the descriptor is cached per type until the path becomes stale or the epoch changes.
func (a *Arena) ErroneousDescriptor(ctx *semantic.Context, id PathId, t *semantic.Type) *ErroneousDescriptor {
	p := a.Path(id)
	cached, ok := p.descriptors[t]
	if ok {
		if d, ok := cached.Get(ctx.Epoch); ok {
			return d
		}
	} else {
		if p.descriptors == nil {
			p.descriptors = map[*semantic.Type]*epoch.Cached[*ErroneousDescriptor]{}
		}
		cached = &epoch.Cached[*ErroneousDescriptor]{}
		p.descriptors[t] = cached
	}

	var specs []*Spec
	for _, s := range p.Specs {
		if s != nil && s.Kind == Erroneous {
			specs = append(specs, s)
		}
	}

	//the path is rebuilt when a constant used by an erroneous value changes
	var d *ErroneousDescriptor
	valueDiagnostics := ctx.Within(p, func() {
		d, _ = BuildErroneousDescriptor(ctx, t, specs)
	})
	d.diagnostics = append(valueDiagnostics, d.diagnostics...)

	cached.Set(ctx.Epoch, d)
	diag.Forward(ctx, d.diagnostics)

	a.logger.Debug().
		Str("path", p.Name).
		Stringer("type", t).
		Int("fields", d.Len()).
		Msg("erroneous descriptor built")
	return d
}

// BuildErroneousDescriptor builds the descriptor of the type t from a flat list of erroneous attributes,
// the returned diagnostics are not reported.
func BuildErroneousDescriptor(ctx *semantic.Context, t *semantic.Type, specs []*Spec) (*ErroneousDescriptor, []diag.Diagnostic) {
	b := &descriptorBuilder{ctx: ctx, root: newErroneousDescriptor(t)}

	for _, spec := range specs {
		b.add(spec)
	}
	b.checkBoundaries(b.root)
	b.root.diagnostics = b.diagnostics
	return b.root, b.diagnostics
}

type descriptorBuilder struct {
	reporter
	ctx  *semantic.Context
	root *ErroneousDescriptor
}

func (b *descriptorBuilder) add(spec *Spec) {
	indicator, raw, valueText, ok := parseErroneousText(spec.Text)
	if !ok {
		b.report(spec.Span, diag.Error, ERRONEOUS_INVALID_SYNTAX)
		return
	}
	if len(spec.Qualifiers) == 0 {
		b.report(spec.Span, diag.Error, ERRONEOUS_WITHOUT_QUALIFIER)
		return
	}

	for _, q := range spec.Qualifiers {
		b.addQualified(spec, q, indicator, raw, valueText)
	}
}

func (b *descriptorBuilder) addQualified(spec *Spec, q Qualifier, indicator Indicator, raw bool, valueText string) {
	desc := b.root
	t := b.root.Type

	for i, name := range q {
		if t == nil || (!t.Kind.IsStructured() && t.Kind != semantic.TypeUnion) {
			b.report(spec.Span, diag.Error, fmtNotStructured(t, q[:i+1]))
			return
		}
		index := t.FieldIndex(name)
		if index < 0 {
			b.report(spec.Span, diag.Error, fmtInvalidField(t, name))
			return
		}
		fieldType := t.Fields[index].Type
		field := desc.field(index, name, spec.Span)

		if i < len(q)-1 {
			if field.Child == nil {
				field.Child = newErroneousDescriptor(fieldType)
			}
			desc = field.Child
			t = fieldType
			continue
		}

		value, ok := b.parseValue(spec, indicator, raw, valueText, fieldType, q)
		if !ok {
			return
		}

		slot := field.get(indicator)
		if *slot != nil {
			b.report(spec.Span, diag.Error, fmtDuplicateErroneous(indicator, q))
			return
		}

		if value.OmitAll {
			boundary := &desc.OmitBefore
			if indicator == After {
				boundary = &desc.OmitAfter
			}
			if *boundary >= 0 {
				b.report(spec.Span, diag.Error, fmtMultipleOmitAll(indicator))
				return
			}
			*boundary = index
		}
		*slot = value
	}
}

func (b *descriptorBuilder) parseValue(spec *Spec, indicator Indicator, raw bool, text string, fieldType *semantic.Type, q Qualifier) (*ErroneousValue, bool) {
	value := &ErroneousValue{Raw: raw, Text: text, Span: spec.Span}

	switch text {
	case "omit":
		value.Omit = true
	case "omit all":
		if indicator == ValueIndicator {
			b.report(spec.Span, diag.Error, OMIT_ALL_NOT_ALLOWED_FOR_VALUE)
			return nil, false
		}
		value.Omit = true
		value.OmitAll = true
	}

	if value.Omit {
		if raw {
			b.report(spec.Span, diag.Error, RAW_WITH_OMIT)
			return nil, false
		}
		return value, true
	}

	v, ok := parseErroneousValue(text, fieldType)
	if !ok {
		b.report(spec.Span, diag.Error, fmtUnresolvedErroneousValue(text))
		return nil, false
	}
	semantic.At(v, spec.Span)

	valueType, ok := semantic.ResolveGovernor(b.ctx, v, semantic.ExpectedConstant)
	if !ok {
		b.report(spec.Span, diag.Error, fmtUnresolvedErroneousValue(text))
		return nil, false
	}

	//before and after values are inserted, they can have any type
	if indicator == ValueIndicator && valueType != nil {
		if compatible, _ := semantic.IsCompatible(fieldType, valueType); !compatible {
			b.report(spec.Span, diag.Error, fmtErroneousTypeMismatch(q.String(), fieldType, text))
			return nil, false
		}
	}

	if folded := b.ctx.Fold(v, semantic.ExpectedConstant); folded != nil {
		v = folded
	}
	value.Value = v
	return value, true
}

// checkBoundaries reports the fields made unreachable by an `omit all` boundary.
func (b *descriptorBuilder) checkBoundaries(d *ErroneousDescriptor) {
	if d.OmitBefore >= 0 && d.OmitAfter >= 0 && d.OmitAfter < d.OmitBefore {
		before, _ := d.fields.Get(d.OmitBefore)
		after, _ := d.fields.Get(d.OmitAfter)
		b.report(after.After.Span, diag.Error, fmtConflictingOmitAll(before.Name, after.Name))
		return
	}

	d.fields.Scan(func(index int, f *FieldDescriptor) bool {
		if d.IsOmitted(index) {
			boundary := d.OmitBefore
			if index > d.OmitAfter && d.OmitAfter >= 0 {
				boundary = d.OmitAfter
			}
			boundaryField, _ := d.fields.Get(boundary)

			for _, indicator := range []Indicator{Before, ValueIndicator, After} {
				if v := *f.get(indicator); v != nil {
					b.report(v.Span, diag.Error, fmtOutOfOmitBoundary(Qualifier{f.Name}, indicator, boundaryField.Name))
				}
			}
			if f.Child != nil {
				b.report(f.Span, diag.Error, fmtOutOfOmitBoundary(Qualifier{f.Name}, ValueIndicator, boundaryField.Name))
			}
			return true
		}

		if f.Child != nil {
			b.checkBoundaries(f.Child)
		}
		return true
	})
}

// parseErroneousText parses `before|value|after [(raw)] := <value>`.
func parseErroneousText(text string) (indicator Indicator, raw bool, value string, ok bool) {
	left, right, found := strings.Cut(text, ":=")
	if !found {
		return 0, false, "", false
	}
	left = strings.TrimSpace(left)
	value = strings.Join(strings.Fields(right), " ")
	if value == "" {
		return 0, false, "", false
	}

	name, rest, _ := strings.Cut(left, "(")
	indicator, ok = parseIndicator(strings.TrimSpace(name))
	if !ok {
		return 0, false, "", false
	}

	if rest != "" {
		if strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), ")")) != "raw" || !strings.HasSuffix(rest, ")") {
			return 0, false, "", false
		}
		raw = true
	}
	return indicator, raw, value, true
}

// parseErroneousValue parses a literal or a reference, an identifier designates an item of fieldType
// when fieldType is enumerated and has such an item.
func parseErroneousValue(text string, fieldType *semantic.Type) (semantic.Value, bool) {
	if v, ok := semantic.ParseLiteral(text); ok {
		return v, true
	}
	if !semantic.IsIdentifier(text) {
		return nil, false
	}
	if fieldType != nil && fieldType.Kind == semantic.TypeEnumerated {
		if _, ok := fieldType.EnumItem(text); ok {
			return semantic.NewEnumerated(fieldType, text), true
		}
	}
	return semantic.NewReferenced(semantic.NewRef(text)), true
}
