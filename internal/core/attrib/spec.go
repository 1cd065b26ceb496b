package attrib

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ttcn3tools/ttcnsem/internal/sourcecode"
)

var ErrInvalidSpec = errors.New("invalid attribute")

type Kind int

const (
	Encode Kind = iota + 1
	Variant
	Display
	Extension
	Optional
	Erroneous
)

var kindNames = [...]string{
	Encode:    "encode",
	Variant:   "variant",
	Display:   "display",
	Extension: "extension",
	Optional:  "optional",
	Erroneous: "erroneous",
}

func (k Kind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "?"
}

func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name != "" && name == s {
			return Kind(k), true
		}
	}
	return 0, false
}

// singleValued returns true for the kinds having at most one effective attribute per field.
func (k Kind) singleValued() bool {
	return k == Display || k == Extension || k == Optional
}

type Modifier int

const (
	NoModifier Modifier = iota
	Override
)

func (m Modifier) String() string {
	if m == Override {
		return "override"
	}
	return ""
}

// A Qualifier is a field path such as `a.b`, an empty qualifier designates the definition itself.
type Qualifier []string

func ParseQualifier(s string) Qualifier {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ".")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func (q Qualifier) String() string {
	return strings.Join(q, ".")
}

// A Spec is a single attribute of a `with` statement. A spec with several qualifiers applies
// to each of the designated fields.
type Spec struct {
	Kind       Kind
	Modifier   Modifier
	Qualifiers []Qualifier
	Text       string
	Span       sourcecode.Span
}

func NewSpec(kind Kind, text string) *Spec {
	return &Spec{Kind: kind, Text: text}
}

func (s *Spec) IsOverride() bool {
	return s.Modifier == Override
}

// normalizedText returns the text with whitespace runs collapsed, it is used to compare attributes.
func (s *Spec) normalizedText() string {
	return strings.Join(strings.Fields(s.Text), " ")
}

func (s *Spec) sameAs(other *Spec) bool {
	if s.Kind != other.Kind || s.Modifier != other.Modifier || len(s.Qualifiers) != len(other.Qualifiers) {
		return false
	}
	for i, q := range s.Qualifiers {
		if q.String() != other.Qualifiers[i].String() {
			return false
		}
	}
	return s.normalizedText() == other.normalizedText()
}

// targets returns the string form of every field the spec applies to, "" for the definition itself.
func (s *Spec) targets() []string {
	if len(s.Qualifiers) == 0 {
		return []string{""}
	}
	targets := make([]string, 0, len(s.Qualifiers))
	for _, q := range s.Qualifiers {
		targets = append(targets, q.String())
	}
	return targets
}

// String returns the source form of the spec, e.g. `display override (a.b) "text"`.
func (s *Spec) String() string {
	var b strings.Builder
	b.WriteString(s.Kind.String())
	if s.Modifier == Override {
		b.WriteString(" override")
	}
	if len(s.Qualifiers) > 0 {
		b.WriteString(" (")
		for i, q := range s.Qualifiers {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(q.String())
		}
		b.WriteString(")")
	}
	b.WriteString(` "`)
	b.WriteString(strings.ReplaceAll(s.Text, `"`, `""`))
	b.WriteString(`"`)
	return b.String()
}

// ParseSpec parses the source form of a spec: kind [override] [(qualifier, ...)] "text".
// Quotes inside the text are doubled.
func ParseSpec(s string) (*Spec, error) {
	s = strings.TrimSpace(s)

	word, rest, _ := strings.Cut(s, " ")
	kind, ok := ParseKind(word)
	if !ok {
		return nil, fmt.Errorf("%w: unknown attribute kind %q", ErrInvalidSpec, word)
	}
	spec := &Spec{Kind: kind}

	rest = strings.TrimSpace(rest)
	if after, found := strings.CutPrefix(rest, "override"); found {
		spec.Modifier = Override
		rest = strings.TrimSpace(after)
	}

	if strings.HasPrefix(rest, "(") {
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			return nil, fmt.Errorf("%w: unterminated qualifier list", ErrInvalidSpec)
		}
		for _, q := range strings.Split(rest[1:end], ",") {
			qualifier := ParseQualifier(q)
			if len(qualifier) == 0 || slices.Contains(qualifier, "") {
				return nil, fmt.Errorf("%w: empty qualifier", ErrInvalidSpec)
			}
			spec.Qualifiers = append(spec.Qualifiers, qualifier)
		}
		rest = strings.TrimSpace(rest[end+1:])
	}

	if len(rest) < 2 || rest[0] != '"' || rest[len(rest)-1] != '"' {
		return nil, fmt.Errorf("%w: the attribute text should be a quoted string", ErrInvalidSpec)
	}
	text := rest[1 : len(rest)-1]
	if strings.Contains(strings.ReplaceAll(text, `""`, ""), `"`) {
		return nil, fmt.Errorf("%w: unescaped quote in attribute text", ErrInvalidSpec)
	}
	spec.Text = strings.ReplaceAll(text, `""`, `"`)
	return spec, nil
}
