package semantic

import (
	"strings"

	"github.com/ttcn3tools/ttcnsem/internal/sourcecode"
)

// A Subref is a field access (.name) or an index access ([value]).
type Subref struct {
	Field string
	Index Value
}

func (s Subref) IsField() bool {
	return s.Index == nil
}

type Reference struct {
	Name    string
	Subrefs []Subref
	Span    sourcecode.Span
}

func NewRef(name string, subrefs ...Subref) *Reference {
	return &Reference{Name: name, Subrefs: subrefs}
}

func FieldSubref(name string) Subref {
	return Subref{Field: name}
}

func IndexSubref(index Value) Subref {
	return Subref{Index: index}
}

// Parent returns the reference without its last subreference.
func (r *Reference) Parent() *Reference {
	if len(r.Subrefs) == 0 {
		return r
	}
	return &Reference{Name: r.Name, Subrefs: r.Subrefs[:len(r.Subrefs)-1], Span: r.Span}
}

func (r *Reference) LastSubref() (Subref, bool) {
	if len(r.Subrefs) == 0 {
		return Subref{}, false
	}
	return r.Subrefs[len(r.Subrefs)-1], true
}

func (r *Reference) String() string {
	var sb strings.Builder
	sb.WriteString(r.Name)
	for _, subref := range r.Subrefs {
		if subref.IsField() {
			sb.WriteByte('.')
			sb.WriteString(subref.Field)
		} else {
			sb.WriteByte('[')
			sb.WriteString(ValueString(subref.Index))
			sb.WriteByte(']')
		}
	}
	return sb.String()
}
