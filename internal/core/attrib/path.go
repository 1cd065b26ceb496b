package attrib

import (
	"errors"
	"slices"

	"github.com/rs/zerolog"
	"github.com/ttcn3tools/ttcnsem/internal/config"
	"github.com/ttcn3tools/ttcnsem/internal/core/epoch"
	"github.com/ttcn3tools/ttcnsem/internal/core/semantic"
	"github.com/ttcn3tools/ttcnsem/internal/core/slog"
	"github.com/ttcn3tools/ttcnsem/internal/diag"
	"github.com/ttcn3tools/ttcnsem/internal/sourcecode"
)

const LOG_SRC = "attrib"

type PathId int32

var ErrInvalidPathId = errors.New("invalid attribute path id")

// NoParent is the parent of the root paths (module level `with` statements).
const NoParent PathId = -1

// Resolved is the effective attribute list of a path.
type Resolved struct {
	Attributes []*Spec

	// true if the path declares an encode context different from the inherited one,
	// inherited encode and variant attributes are then dropped unless they are overrides.
	EncodeBoundary bool
}

// Of returns the effective attributes of the given kind, in root-to-leaf order.
func (r Resolved) Of(kind Kind) []*Spec {
	var specs []*Spec
	for _, s := range r.Attributes {
		if s.Kind == kind {
			specs = append(specs, s)
		}
	}
	return specs
}

// Encode returns the encode attribute in effect for the definition itself.
func (r Resolved) Encode() (*Spec, bool) {
	return lastUnqualified(r.Attributes, Encode)
}

func lastUnqualified(specs []*Spec, kind Kind) (*Spec, bool) {
	for i := len(specs) - 1; i >= 0; i-- {
		if specs[i].Kind == kind && len(specs[i].Qualifiers) == 0 {
			return specs[i], true
		}
	}
	return nil, false
}

// A Path is the attribute list of a definition, it only knows the index of the enclosing definition's path.
type Path struct {
	Name  string
	Span  sourcecode.Span
	Specs []*Spec

	id     PathId
	parent PathId

	memo        epoch.Memo
	resolved    Resolved
	erroneous   bool
	diagnostics []diag.Diagnostic

	descriptors map[*semantic.Type]*epoch.Cached[*ErroneousDescriptor]
}

func (p *Path) Id() PathId {
	return p.id
}

func (p *Path) Parent() PathId {
	return p.parent
}

func (p *Path) NodeSpan() sourcecode.Span {
	return p.Span
}

// Invalidate makes the cached resolution of the path stale, descendants are not affected.
func (p *Path) Invalidate() {
	p.memo.Invalidate()
	for _, cached := range p.descriptors {
		cached.Invalidate()
	}
}

func (p *Path) CheckedAt() (epoch.Epoch, bool) {
	return p.memo.Epoch()
}

// Erroneous returns true if the last resolution found an invalid local attribute.
func (p *Path) Erroneous() bool {
	return p.erroneous
}

func (p *Path) Diagnostics() []diag.Diagnostic {
	return p.diagnostics
}

// An Arena owns the attribute paths of a module.
type Arena struct {
	paths  []*Path
	logger zerolog.Logger
}

func NewArena(logger zerolog.Logger) *Arena {
	return &Arena{logger: slog.ChildLoggerForSource(logger, LOG_SRC)}
}

// Add adds a path, parent should be NoParent or the id of an existing path.
func (a *Arena) Add(parent PathId, name string, span sourcecode.Span, specs ...*Spec) PathId {
	if parent != NoParent && !a.has(parent) {
		panic(ErrInvalidPathId)
	}
	id := PathId(len(a.paths))
	a.paths = append(a.paths, &Path{
		Name:   name,
		Span:   span,
		Specs:  specs,
		id:     id,
		parent: parent,
	})
	return id
}

func (a *Arena) has(id PathId) bool {
	return id >= 0 && int(id) < len(a.paths)
}

func (a *Arena) Path(id PathId) *Path {
	if !a.has(id) {
		panic(ErrInvalidPathId)
	}
	return a.paths[id]
}

func (a *Arena) Len() int {
	return len(a.paths)
}

// Paths returns the paths in creation order, parents come before their children.
func (a *Arena) Paths() []*Path {
	return slices.Clone(a.paths)
}

func (a *Arena) Children(id PathId) []PathId {
	var children []PathId
	for _, p := range a.paths[id+1:] {
		if p.parent == id {
			children = append(children, p.id)
		}
	}
	return children
}

// SetSpecs replaces the local attributes of a path, the path and its descendants become stale.
func (a *Arena) SetSpecs(id PathId, specs ...*Spec) {
	a.Path(id).Specs = specs
	a.Invalidate(id)
}

// Invalidate makes the path and all its descendants stale.
func (a *Arena) Invalidate(id PathId) {
	stale := map[PathId]bool{id: true}
	a.paths[id].Invalidate()

	//children always have a greater id than their parent
	for _, p := range a.paths[id+1:] {
		if stale[p.parent] {
			stale[p.id] = true
			p.Invalidate()
		}
	}
}

// Resolve returns the effective attributes of a path, the ancestors are resolved first.
// A path resolved at the context epoch is not resolved again.
func (a *Arena) Resolve(ctx *semantic.Context, id PathId) Resolved {
	var stale []*Path
	for cur := id; cur != NoParent; {
		p := a.Path(cur)
		if p.memo.Fresh(ctx.Epoch) {
			break
		}
		stale = append(stale, p)
		cur = p.parent
	}

	for i := len(stale) - 1; i >= 0; i-- {
		a.resolvePath(ctx, stale[i])
	}
	return a.paths[id].resolved
}

func (a *Arena) resolvePath(ctx *semantic.Context, p *Path) {
	var inherited Resolved
	if p.parent != NoParent {
		parent := a.paths[p.parent]
		inherited = parent.resolved
		if ctx.Dependencies != nil {
			ctx.Dependencies.DependsOn(p, parent)
		}
	}

	r := &resolution{
		config: ctx.Config,
		path:   p,
	}
	local := r.validateLocal()
	resolved := r.merge(inherited, local)

	//the state is updated at once
	p.resolved = resolved
	p.erroneous = r.erroneous
	p.diagnostics = r.diagnostics
	p.memo.Commit(ctx.Epoch)

	diag.Forward(ctx, p.diagnostics)

	a.logger.Debug().
		Str("path", p.Name).
		Uint64("epoch", uint64(ctx.Epoch)).
		Int("attributes", len(resolved.Attributes)).
		Bool("encodeBoundary", resolved.EncodeBoundary).
		Msg("attribute path resolved")
}

// A reporter gathers the diagnostics of a path, they are forwarded once the path state is updated.
type reporter struct {
	erroneous   bool
	diagnostics []diag.Diagnostic
}

type resolution struct {
	reporter
	config *config.Config
	path   *Path
}

func (r *reporter) report(span sourcecode.Span, severity diag.Severity, message string) {
	if severity == diag.Ignore {
		return
	}
	if severity == diag.Error {
		r.erroneous = true
	}
	r.diagnostics = append(r.diagnostics, diag.Diagnostic{Span: span, Severity: severity, Message: message})
}

// validateLocal returns the local attributes that are kept: invalid optional attributes, duplicates
// and conflicting optional attributes are reported and removed.
func (r *resolution) validateLocal() []*Spec {
	var kept []*Spec
	optionals := map[string]*Spec{}

	for _, spec := range r.path.Specs {
		if spec == nil {
			continue
		}

		if slices.ContainsFunc(kept, spec.sameAs) {
			r.report(spec.Span, diag.Warning, fmtDuplicateAttribute(spec))
			continue
		}

		if spec.Kind == Optional {
			text := spec.normalizedText()
			if text != "implicit omit" && text != "explicit omit" {
				r.report(spec.Span, diag.Error, fmtInvalidOptional(spec.Text))
				continue
			}

			conflict := false
			for _, target := range spec.targets() {
				if prev, ok := optionals[target]; ok && prev.normalizedText() != text {
					r.report(spec.Span, diag.Error, fmtConflictingOptional(prev.Text, spec.Text))
					conflict = true
					break
				}
			}
			if conflict {
				continue
			}
			for _, target := range spec.targets() {
				optionals[target] = spec
			}
		}

		kept = append(kept, spec)
	}
	return kept
}

func singleValuedKey(spec *Spec, target string) string {
	return spec.Kind.String() + "|" + target
}

func (r *resolution) merge(inherited Resolved, local []*Spec) Resolved {
	inheritedEncode, hasInheritedEncode := lastUnqualified(inherited.Attributes, Encode)
	localEncode, hasLocalEncode := lastUnqualified(local, Encode)

	boundary := hasLocalEncode &&
		(!hasInheritedEncode || inheritedEncode.normalizedText() != localEncode.normalizedText())

	var effective []*Spec
	for _, spec := range inherited.Attributes {
		switch {
		case spec.Kind == Erroneous:
			//erroneous attributes only apply to the definition that declares them
		case boundary && (spec.Kind == Encode || spec.Kind == Variant) && !spec.IsOverride():
		default:
			effective = append(effective, spec)
		}
	}

	//the first override of a single-valued kind on a path stays in effect
	overrides := map[string]*Spec{}
	for _, spec := range effective {
		if spec.Kind.singleValued() && spec.IsOverride() {
			for _, target := range spec.targets() {
				key := singleValuedKey(spec, target)
				if _, ok := overrides[key]; !ok {
					overrides[key] = spec
				}
			}
		}
	}

	for _, spec := range local {
		switch {
		case spec.Kind == Encode:
			if !boundary && hasInheritedEncode && len(spec.Qualifiers) == 0 &&
				spec.normalizedText() == inheritedEncode.normalizedText() {
				//same encode context as the enclosing definition
				continue
			}
			effective = append(effective, spec)
		case spec.Kind.singleValued():
			var shadowing *Spec
			for _, target := range spec.targets() {
				if ov, ok := overrides[singleValuedKey(spec, target)]; ok {
					shadowing = ov
					break
				}
			}
			if shadowing != nil {
				if spec.IsOverride() {
					r.report(spec.Span, r.config.IneffectiveOverride, fmtIneffectiveOverride(spec, shadowing))
				}
				continue
			}

			//the nearest attribute replaces the enclosing ones
			targets := spec.targets()
			effective = slices.DeleteFunc(effective, func(other *Spec) bool {
				return other.Kind == spec.Kind && slices.Equal(other.targets(), targets)
			})
			effective = append(effective, spec)

			if spec.IsOverride() {
				for _, target := range targets {
					overrides[singleValuedKey(spec, target)] = spec
				}
			}
		default:
			effective = append(effective, spec)
		}
	}

	return Resolved{Attributes: effective, EncodeBoundary: boundary}
}
