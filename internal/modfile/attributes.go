package modfile

import (
	"github.com/goccy/go-yaml/ast"
	"github.com/ttcn3tools/ttcnsem/internal/core/analysis"
	"github.com/ttcn3tools/ttcnsem/internal/core/attrib"
)

// decodePath adds the attribute path described by n and its children to the module arena.
func (d *decoder) decodePath(parent attrib.PathId, n ast.Node) {
	name := d.textField(n, "path")
	if _, ok := d.paths[name]; ok {
		d.errorf(field(n, "path"), "duplicate attribute path `%s'", name)
		return
	}

	var specs []*attrib.Spec
	for _, specNode := range elements(field(n, "specs")) {
		text, _ := d.text(specNode)
		spec, err := attrib.ParseSpec(text)
		if err != nil {
			d.errorf(specNode, "%s", err)
			continue
		}
		spec.Span = d.span(specNode)
		specs = append(specs, spec)
	}

	id := d.module.Attributes.Add(parent, name, d.span(n), specs...)
	d.paths[name] = id

	for _, child := range elements(field(n, "children")) {
		d.decodePath(id, child)
	}
}

func (d *decoder) decodeErroneousCheck(n ast.Node) {
	pathNode := field(n, "path")
	name, _ := d.text(pathNode)

	id, ok := d.paths[name]
	if !ok {
		d.errorf(pathNode, "unknown attribute path `%s'", name)
		return
	}
	t := d.typeRef(field(n, "type"))
	if t == nil {
		return
	}
	d.module.Erroneous = append(d.module.Erroneous, analysis.ErroneousCheck{Path: id, Type: t})
}
