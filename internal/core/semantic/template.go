package semantic

import (
	"strings"

	"github.com/ttcn3tools/ttcnsem/internal/sourcecode"
)

type TemplateKind int

const (
	SpecificValueTemplate TemplateKind = iota + 1
	AnyValueTemplate                   // ?
	AnyOrOmitTemplate                  // *, any-or-none inside lists
	OmitTemplate
	ValueListTemplate
	ComplementListTemplate
	TemplateListTemplate      // record of, set of, array
	NamedTemplateListTemplate // record, set
	ReferencedTemplate
)

type NamedTemplate struct {
	Name     string
	Template *Template
}

type Template struct {
	Kind     TemplateKind
	Span     sourcecode.Span
	Value    Value       //specific value
	Elements []*Template //lists
	Named    []NamedTemplate
	Ref      *Reference //referenced template
	Length   *LengthRestriction
}

func SpecificValue(v Value) *Template {
	return &Template{Kind: SpecificValueTemplate, Value: v, Span: v.Span()}
}

func AnyValue() *Template {
	return &Template{Kind: AnyValueTemplate}
}

func AnyOrOmit() *Template {
	return &Template{Kind: AnyOrOmitTemplate}
}

func OmitT() *Template {
	return &Template{Kind: OmitTemplate}
}

func ValueList(elements ...*Template) *Template {
	return &Template{Kind: ValueListTemplate, Elements: elements}
}

func ComplementList(elements ...*Template) *Template {
	return &Template{Kind: ComplementListTemplate, Elements: elements}
}

func TemplateList(elements ...*Template) *Template {
	return &Template{Kind: TemplateListTemplate, Elements: elements}
}

func NamedTemplateList(named ...NamedTemplate) *Template {
	return &Template{Kind: NamedTemplateListTemplate, Named: named}
}

func RefTemplate(ref *Reference) *Template {
	return &Template{Kind: ReferencedTemplate, Ref: ref, Span: ref.Span}
}

// WithLength sets the length restriction of the template and returns it.
func (t *Template) WithLength(r *LengthRestriction) *Template {
	t.Length = r
	return t
}

func (t *Template) IsAnyOrNone() bool {
	return t.Kind == AnyOrOmitTemplate
}

func (t *Template) String() string {
	var s string
	switch t.Kind {
	case SpecificValueTemplate:
		s = ValueString(t.Value)
	case AnyValueTemplate:
		s = "?"
	case AnyOrOmitTemplate:
		s = "*"
	case OmitTemplate:
		s = "omit"
	case ValueListTemplate, ComplementListTemplate, TemplateListTemplate:
		parts := make([]string, 0, len(t.Elements))
		for _, e := range t.Elements {
			parts = append(parts, e.String())
		}
		switch t.Kind {
		case ValueListTemplate:
			s = "(" + strings.Join(parts, ", ") + ")"
		case ComplementListTemplate:
			s = "complement(" + strings.Join(parts, ", ") + ")"
		default:
			s = "{ " + strings.Join(parts, ", ") + " }"
		}
	case NamedTemplateListTemplate:
		parts := make([]string, 0, len(t.Named))
		for _, n := range t.Named {
			parts = append(parts, n.Name+" := "+n.Template.String())
		}
		s = "{ " + strings.Join(parts, ", ") + " }"
	case ReferencedTemplate:
		s = t.Ref.String()
	}
	if t.Length != nil {
		s += " " + t.Length.String()
	}
	return s
}

// A TemplateInstance is a template body with an optional explicit type and an optional derived
// (modified) template reference.
type TemplateInstance struct {
	Type       *Type
	DerivedRef *Reference
	Body       *Template
	Span       sourcecode.Span
}

func NewTemplateInstance(body *Template) *TemplateInstance {
	return &TemplateInstance{Body: body, Span: body.Span}
}
