// Package modfile loads module descriptions: YAML documents listing the types, declarations, free
// expressions and attributes of a TTCN-3 module, as produced by a front end.
package modfile

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	yamlLex "github.com/goccy/go-yaml/lexer"
	yamlParse "github.com/goccy/go-yaml/parser"
	"github.com/goccy/go-yaml/token"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/ttcn3tools/ttcnsem/internal/core/analysis"
	"github.com/ttcn3tools/ttcnsem/internal/core/attrib"
	"github.com/ttcn3tools/ttcnsem/internal/core/semantic"
	"github.com/ttcn3tools/ttcnsem/internal/core/slog"
	"github.com/ttcn3tools/ttcnsem/internal/sourcecode"
)

const (
	LOG_SRC = "modfile"

	// version of the tool, the `requires` constraint of a description is checked against it.
	TOOL_VERSION = "0.4.0"

	SCHEMA_URL = "ttcnsem://modfile.schema.json"
)

//go:embed schema.json
var schemaJSON string

var (
	moduleSchema = jsonschema.MustCompileString(SCHEMA_URL, schemaJSON)
	toolVersion  = semver.MustParse(TOOL_VERSION)

	ErrInvalidDescription = errors.New("invalid module description")
	ErrUnsupportedVersion = errors.New("unsupported module description")
)

// An Error is located in the YAML source of the description.
type Error struct {
	Position sourcecode.PositionRange
	Message  string
}

func (e *Error) Error() string {
	return e.Position.String() + " " + e.Message
}

func (e *Error) Unwrap() error {
	return ErrInvalidDescription
}

// A Description is a loaded module description.
type Description struct {
	Module   *analysis.Module
	File     *sourcecode.File
	Requires *semver.Constraints //nil if the description has no constraint
}

// Load reads and parses the description at path.
func Load(path string, logger zerolog.Logger) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(filepath.Base(path), data, logger)
}

// Parse validates data against the description schema and builds the module, all the errors found while
// building the module are returned joined.
func Parse(name string, data []byte, logger zerolog.Logger) (*Description, error) {
	logger = slog.ChildLoggerForSource(logger, LOG_SRC)

	if err := validate(data); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", name, ErrInvalidDescription, err)
	}

	tokens := yamlLex.Tokenize(string(data))
	parsed, err := yamlParse.Parse(tokens, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", name, ErrInvalidDescription, err)
	}
	if len(parsed.Docs) != 1 {
		return nil, fmt.Errorf("%s: %w: exactly one document expected", name, ErrInvalidDescription)
	}

	d := &decoder{
		file:   sourcecode.NewFile(name, data),
		types:  map[string]*semantic.Type{},
		paths:  map[string]attrib.PathId{},
		logger: logger,
	}
	desc := &Description{File: d.file}

	root := unwrap(parsed.Docs[0].Body)

	if requires := field(root, "requires"); requires != nil {
		text, _ := d.text(requires)
		constraint, err := semver.NewConstraint(text)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: invalid version constraint %q: %w", name, ErrInvalidDescription, text, err)
		}
		if !constraint.Check(toolVersion) {
			return nil, fmt.Errorf("%s: %w: requires %s, the tool version is %s", name, ErrUnsupportedVersion, text, TOOL_VERSION)
		}
		desc.Requires = constraint
	}

	moduleName, _ := d.text(field(root, "module"))
	d.module = analysis.NewModule(moduleName, logger)
	d.decodeModule(root)

	if err := errors.Join(d.errs...); err != nil {
		return nil, err
	}
	desc.Module = d.module

	logger.Debug().
		Str("module", moduleName).
		Int("types", len(d.types)).
		Int("declarations", len(d.module.Declarations)).
		Int("paths", d.module.Attributes.Len()).
		Msg("module description loaded")

	return desc, nil
}

func validate(data []byte) error {
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return err
	}
	return moduleSchema.Validate(doc)
}

type decoder struct {
	file   *sourcecode.File
	module *analysis.Module
	types  map[string]*semantic.Type
	paths  map[string]attrib.PathId
	errs   []error
	logger zerolog.Logger
}

func (d *decoder) decodeModule(root ast.Node) {
	if types := field(root, "types"); types != nil {
		d.decodeTypes(elements(types))
	}
	for name, t := range d.types {
		d.module.Types[name] = t
	}

	if decls := field(root, "declarations"); decls != nil {
		for _, n := range elements(decls) {
			if decl := d.decodeDeclaration(n); decl != nil {
				d.module.AddDeclarations(decl)
			}
		}
	}

	if exprs := field(root, "expressions"); exprs != nil {
		for _, n := range elements(exprs) {
			d.decodeExpressionCheck(n)
		}
	}

	if paths := field(root, "attributes"); paths != nil {
		for _, n := range elements(paths) {
			d.decodePath(attrib.NoParent, n)
		}
	}

	if checks := field(root, "erroneous"); checks != nil {
		for _, n := range elements(checks) {
			d.decodeErroneousCheck(n)
		}
	}
}

func (d *decoder) errorf(n ast.Node, format string, args ...any) {
	var pos sourcecode.PositionRange
	if n != nil {
		pos = d.file.Position(d.span(n))
	} else {
		pos.SourceName = d.file.Name
	}
	d.errs = append(d.errs, &Error{Position: pos, Message: fmt.Sprintf(format, args...)})
}

// span returns the source range of n, quoted scalars include their quotes.
func (d *decoder) span(n ast.Node) sourcecode.Span {
	start := d.start(n)
	return sourcecode.MakeSpan(start, max(start, d.end(n)))
}

func (d *decoder) start(n ast.Node) int32 {
	switch n := n.(type) {
	case *ast.DocumentNode:
		return d.start(n.Body)
	case *ast.MappingNode:
		if !n.IsFlowStyle && len(n.Values) > 0 {
			return d.start(n.Values[0])
		}
	case *ast.MappingValueNode:
		return d.start(n.Key)
	}
	return d.offset(n.GetToken())
}

func (d *decoder) end(n ast.Node) int32 {
	switch n := n.(type) {
	case *ast.DocumentNode:
		return d.end(n.Body)
	case *ast.MappingNode:
		if n.IsFlowStyle && n.End != nil {
			return d.offset(n.End) + 1
		}
		if len(n.Values) > 0 {
			return d.end(n.Values[len(n.Values)-1])
		}
	case *ast.MappingValueNode:
		return d.end(n.Value)
	case *ast.SequenceNode:
		if n.IsFlowStyle && n.End != nil {
			return d.offset(n.End) + 1
		}
		if len(n.Values) > 0 {
			return d.end(n.Values[len(n.Values)-1])
		}
	case *ast.TagNode:
		return d.end(n.Value)
	case *ast.AnchorNode:
		return d.end(n.Value)
	case *ast.LiteralNode:
		return d.end(n.Value)
	}

	tok := n.GetToken()
	if tok == nil {
		return 0
	}
	length := int32(len(tok.Value))
	if tok.Type == token.DoubleQuoteType || tok.Type == token.SingleQuoteType {
		length += 2
	}
	return d.offset(tok) + length
}

func (d *decoder) offset(tok *token.Token) int32 {
	if tok == nil || tok.Position == nil {
		return 0
	}
	return d.file.Offset(int32(tok.Position.Line), int32(tok.Position.Column))
}

// text returns the value of a string scalar.
func (d *decoder) text(n ast.Node) (string, bool) {
	switch n := unwrap(n).(type) {
	case *ast.StringNode:
		return n.Value, true
	case *ast.LiteralNode:
		return n.Value.Value, true
	}
	return "", false
}

func (d *decoder) textField(n ast.Node, key string) string {
	s, _ := d.text(field(n, key))
	return s
}

// unwrap returns the node a tag or an anchor applies to.
func unwrap(n ast.Node) ast.Node {
	for {
		switch w := n.(type) {
		case *ast.TagNode:
			n = w.Value
		case *ast.AnchorNode:
			n = w.Value
		default:
			return n
		}
	}
}

// entries returns the entries of a mapping, a single-entry mapping is parsed as a lone MappingValueNode.
func entries(n ast.Node) ([]*ast.MappingValueNode, bool) {
	switch m := unwrap(n).(type) {
	case *ast.MappingNode:
		return m.Values, true
	case *ast.MappingValueNode:
		return []*ast.MappingValueNode{m}, true
	}
	return nil, false
}

func key(entry *ast.MappingValueNode) string {
	return entry.Key.GetToken().Value
}

// field returns the value of key in the mapping n, nil if n is not a mapping or has no such key.
func field(n ast.Node, k string) ast.Node {
	if n == nil {
		return nil
	}
	items, _ := entries(n)
	for _, item := range items {
		if key(item) == k {
			return item.Value
		}
	}
	return nil
}

func elements(n ast.Node) []ast.Node {
	if seq, ok := unwrap(n).(*ast.SequenceNode); ok {
		return seq.Values
	}
	return nil
}
