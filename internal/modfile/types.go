package modfile

import (
	"strings"

	"github.com/goccy/go-yaml/ast"
	"github.com/ttcn3tools/ttcnsem/internal/core/semantic"
)

var definitionKinds = map[string]semantic.TypeKind{
	"record":     semantic.TypeRecord,
	"set":        semantic.TypeSet,
	"union":      semantic.TypeUnion,
	"enumerated": semantic.TypeEnumerated,
	"record of":  semantic.TypeRecordOf,
	"set of":     semantic.TypeSetOf,
	"array":      semantic.TypeArray,
}

// decodeTypes decodes type definitions in two passes so that definitions can reference each other
// regardless of their order.
func (d *decoder) decodeTypes(nodes []ast.Node) {
	defined := make([]*semantic.Type, len(nodes))

	for i, n := range nodes {
		name := d.textField(n, "name")
		kindText := d.textField(n, "kind")

		kind, ok := definitionKinds[kindText]
		if !ok {
			//subtype of a builtin type
			builtin, isBuiltin := semantic.BuiltinType(kindText)
			if !isBuiltin {
				d.errorf(field(n, "kind"), "unknown type kind `%s'", kindText)
				continue
			}
			kind = builtin.Kind
		}

		if _, ok := d.types[name]; ok {
			d.errorf(field(n, "name"), "type `%s' is defined more than once", name)
			continue
		}
		if _, ok := semantic.BuiltinType(name); ok {
			d.errorf(field(n, "name"), "type `%s' shadows a builtin type", name)
			continue
		}

		t := &semantic.Type{Kind: kind, Name: name, Span: d.span(n)}
		d.types[name] = t
		defined[i] = t
	}

	for i, n := range nodes {
		t := defined[i]
		if t == nil {
			continue
		}

		switch t.Kind {
		case semantic.TypeRecord, semantic.TypeSet, semantic.TypeUnion:
			for _, f := range elements(field(n, "fields")) {
				name := d.textField(f, "name")
				if t.FieldIndex(name) >= 0 {
					d.errorf(f, "duplicate field `%s' in type `%s'", name, t.Name)
					continue
				}
				fieldType := d.typeRef(field(f, "type"))
				optional := false
				if b, ok := unwrap(field(f, "optional")).(*ast.BoolNode); ok {
					optional = b.Value
				}
				if optional && t.Kind == semantic.TypeUnion {
					d.errorf(f, "union field `%s' cannot be optional", name)
				}
				t.Fields = append(t.Fields, &semantic.Field{Name: name, Type: fieldType, Optional: optional})
			}
		case semantic.TypeEnumerated:
			for number, item := range elements(field(n, "items")) {
				name, _ := d.text(item)
				if _, ok := t.EnumItem(name); ok {
					d.errorf(item, "duplicate enumeration item `%s'", name)
					continue
				}
				t.Items = append(t.Items, semantic.EnumItem{Name: name, Number: int64(number)})
			}
		case semantic.TypeRecordOf, semantic.TypeSetOf, semantic.TypeArray:
			if element := field(n, "element"); element != nil {
				t.Element = d.typeRef(element)
			} else {
				d.errorf(n, "type `%s' has no element type", t.Name)
			}
			if t.Kind == semantic.TypeArray {
				size, ok := d.integer(field(n, "size"))
				if !ok {
					d.errorf(n, "array type `%s' has no size", t.Name)
				}
				t.ArrayLength = size
			}
		}

		if length := field(n, "length"); length != nil {
			t.Length = d.lengthRestriction(length)
		}
	}
}

// typeRef resolves a type name, `record of T` and `set of T` denote anonymous types.
func (d *decoder) typeRef(n ast.Node) *semantic.Type {
	name, ok := d.text(n)
	if !ok {
		d.errorf(n, "type name expected")
		return nil
	}
	return d.resolveType(n, name)
}

func (d *decoder) resolveType(n ast.Node, name string) *semantic.Type {
	name = strings.TrimSpace(name)
	if elem, ok := strings.CutPrefix(name, "record of "); ok {
		return semantic.NewRecordOf(d.resolveType(n, elem))
	}
	if elem, ok := strings.CutPrefix(name, "set of "); ok {
		return semantic.NewSetOf(d.resolveType(n, elem))
	}
	if t, ok := semantic.BuiltinType(name); ok {
		return t
	}
	if t, ok := d.types[name]; ok {
		return t
	}
	d.errorf(n, "unknown type `%s'", name)
	return nil
}

// lengthRestriction decodes `n` or `[min, max]`, max may be `infinity`.
func (d *decoder) lengthRestriction(n ast.Node) *semantic.LengthRestriction {
	if i, ok := d.integer(n); ok {
		return semantic.ExactLength(i)
	}

	bounds := elements(n)
	if len(bounds) != 2 {
		d.errorf(n, "invalid length restriction")
		return nil
	}
	lower, ok := d.integer(bounds[0])
	if !ok {
		d.errorf(bounds[0], "invalid lower bound")
		return nil
	}
	upper := -1
	if text, isText := d.text(bounds[1]); !isText || text != "infinity" {
		upper, ok = d.integer(bounds[1])
		if !ok || upper < lower {
			d.errorf(bounds[1], "invalid upper bound")
			return nil
		}
	}
	return &semantic.LengthRestriction{Min: lower, Max: upper}
}

func (d *decoder) integer(n ast.Node) (int, bool) {
	i, ok := unwrap(n).(*ast.IntegerNode)
	if !ok {
		return 0, false
	}
	switch v := i.Value.(type) {
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	}
	return 0, false
}
