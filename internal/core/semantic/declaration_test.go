package semantic

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ttcn3tools/ttcnsem/internal/config"
	"github.com/ttcn3tools/ttcnsem/internal/core/epoch"
	"github.com/ttcn3tools/ttcnsem/internal/diag"
)

func TestReferenceLegality(t *testing.T) {
	fn := &Declaration{Kind: DeclFunction, Name: "f", Type: INTEGER}
	templateFn := &Declaration{Kind: DeclFunction, Name: "tf", Type: INTEGER, ReturnsTemplate: true}
	procedure := &Declaration{Kind: DeclFunction, Name: "p"}

	decls := []*Declaration{
		NewConstant("c", INTEGER, NewInt(1)),
		NewDeclaration(DeclExternalConstant, "ec", INTEGER),
		NewDeclaration(DeclModulePar, "mp", INTEGER),
		NewVariable("v", INTEGER, nil),
		NewDeclaration(DeclValueParameter, "vp", INTEGER),
		fn,
		templateFn,
		procedure,
		NewTemplateDecl("tpl", INTEGER, AnyValue()),
		NewDeclaration(DeclVariableTemplate, "vt", INTEGER),
		NewDeclaration(DeclTemplateParameter, "tp", INTEGER),
		NewDeclaration(DeclModuleParTemplate, "mpt", INTEGER),
		NewDeclaration(DeclAltstep, "as", nil),
		NewDeclaration(DeclTestcase, "tc", nil),
		NewDeclaration(DeclTimer, "t", nil),
		NewDeclaration(DeclPort, "pt", nil),
		NewDeclaration(DeclType, "T", INTEGER),
	}

	//allowed contexts: constant, static, dynamic, template
	legality := map[string][4]bool{
		"c":   {true, true, true, true},
		"ec":  {false, true, true, true},
		"mp":  {false, true, true, true},
		"v":   {false, false, true, true},
		"vp":  {false, false, true, true},
		"f":   {false, false, true, true},
		"tf":  {false, false, false, true},
		"p":   {false, false, false, false},
		"tpl": {false, false, false, true},
		"vt":  {false, false, false, true},
		"tp":  {false, false, false, true},
		"mpt": {false, false, false, true},
		"as":  {false, false, false, false},
		"tc":  {false, false, false, false},
		"t":   {false, false, false, false},
		"pt":  {false, false, false, false},
		"T":   {false, false, false, false},
	}

	for _, decl := range decls {
		for _, expected := range []ExpectedKind{ExpectedConstant, ExpectedStaticValue, ExpectedDynamicValue, ExpectedTemplate} {
			allowed := legality[decl.Name][expected]

			t.Run(decl.Name+" in "+expected.String(), func(t *testing.T) {
				ctx, collector := newTestContext(decls...)
				result := ctx.evaluateReference(NewRef(decl.Name), expected)

				assert.Equal(t, !allowed, result.Erroneous)
				if allowed {
					assert.Empty(t, collector.Diagnostics())
					return
				}
				if assert.Len(t, collector.Errors(), 1) {
					assert.Contains(t, collector.Errors()[0].Message, "`"+decl.Name+"'")
				}
			})
		}
	}

	t.Run("the message names the expected kind", func(t *testing.T) {
		ctx, collector := newTestContext(decls...)
		ctx.evaluateReference(NewRef("v"), ExpectedConstant)
		assert.Equal(t, []string{"reference to a constant was expected instead of variable `v'"}, collector.Messages())
	})

	t.Run("unknown reference", func(t *testing.T) {
		ctx, collector := newTestContext(decls...)
		result := ctx.evaluateReference(NewRef("unknown"), ExpectedDynamicValue)
		assert.True(t, result.Erroneous)
		assert.Equal(t, []string{"there is no definition named `unknown'"}, collector.Messages())
	})
}

func TestConstantFolding(t *testing.T) {
	a := NewConstant("a", INTEGER, NewInt(40))
	b := NewConstant("b", INTEGER, expr(OpAdd, NewReferenced(NewRef("a")), NewInt(2)))
	c := NewConstant("c", CHARSTRING, expr(OpInt2Str, NewReferenced(NewRef("b"))))

	ctx, collector := newTestContext(a, b, c)
	require.True(t, c.Check(ctx))
	assert.Empty(t, collector.Diagnostics())
	assert.Equal(t, `"42"`, ValueString(c.LastValue()))
	assert.Equal(t, "42", ValueString(b.LastValue()))

	t.Run("a constant whose value depends on a variable is not evaluable", func(t *testing.T) {
		v := NewVariable("v", INTEGER, NewInt(1))
		d := NewConstant("d", INTEGER, expr(OpAdd, NewReferenced(NewRef("v")), NewInt(1)))
		ctx, collector := newTestContext(v, d)

		assert.False(t, d.Check(ctx))
		assert.Equal(t, []string{"reference to a constant was expected instead of variable `v'"}, collector.Messages())
	})

	t.Run("a variable initialized with a run-time operation", func(t *testing.T) {
		v := NewVariable("v", VERDICT, NewExpression(OpGetVerdict))
		ctx, collector := newTestContext(v)

		assert.True(t, v.Check(ctx))
		assert.Nil(t, v.LastValue())
		assert.Empty(t, collector.Diagnostics())
	})

	t.Run("index into an untyped constant", func(t *testing.T) {
		list := NewConstant("list", nil, NewRecordOfValue(NewInt(1), NewInt(2)))

		for _, tc := range []struct {
			index   int64
			message string
		}{
			{-1, "a non-negative index was expected instead of -1"},
			{2, fmtIndexOverflow("2", 2)},
		} {
			ctx, collector := newTestContext(list)
			e := expr(OpAdd, NewReferenced(NewRef("list", IndexSubref(NewInt(tc.index)))), NewInt(1))

			e.Evaluate(ctx, ExpectedConstant)
			assert.True(t, e.Erroneous())
			assert.Contains(t, collector.Messages(), tc.message)
		}

		ctx, collector := newTestContext(list)
		e := expr(OpAdd, NewReferenced(NewRef("list", IndexSubref(NewInt(1)))), NewInt(1))
		assert.Equal(t, "3", ValueString(e.Evaluate(ctx, ExpectedConstant)))
		assert.Empty(t, collector.Diagnostics())
	})

	t.Run("the declared type is checked", func(t *testing.T) {
		d := NewConstant("d", CHARSTRING, NewInt(1))
		ctx, collector := newTestContext(d)

		assert.False(t, d.Check(ctx))
		assert.Equal(t, []string{"type mismatch: a value of type `charstring' was expected instead of `integer'"}, collector.Messages())
	})
}

func TestCircularDefinitions(t *testing.T) {
	a := NewConstant("a", INTEGER, expr(OpAdd, NewReferenced(NewRef("b")), NewInt(1)))
	b := NewConstant("b", INTEGER, expr(OpAdd, NewReferenced(NewRef("a")), NewInt(1)))

	ctx, collector := newTestContext(a, b)
	assert.False(t, a.Check(ctx))
	assert.True(t, a.Erroneous())
	assert.True(t, b.Erroneous())

	errors := collector.Errors()
	require.Len(t, errors, 1)
	assert.Contains(t, errors[0].Message, epoch.CIRCULAR_REFERENCE_PREFIX)
	assert.Contains(t, errors[0].Message, "a")
	assert.Contains(t, errors[0].Message, "b")

	t.Run("checking again in the same epoch reports nothing", func(t *testing.T) {
		assert.False(t, b.Check(ctx))
		assert.False(t, a.Check(ctx))
		assert.Len(t, collector.Errors(), 1)
	})

	t.Run("self reference", func(t *testing.T) {
		s := NewConstant("s", INTEGER, expr(OpMultiply, NewReferenced(NewRef("s")), NewInt(2)))
		ctx, collector := newTestContext(s)

		assert.False(t, s.Check(ctx))
		if assert.Len(t, collector.Errors(), 1) {
			assert.Contains(t, collector.Errors()[0].Message, epoch.CIRCULAR_REFERENCE_PREFIX)
		}
	})
}

func TestCheckIdempotence(t *testing.T) {
	d := NewConstant("d", INTEGER, expr(OpDivide, NewInt(1), NewInt(0)))
	ctx, collector := newTestContext(d)

	assert.False(t, d.Check(ctx))
	first := append([]diag.Diagnostic{}, collector.Diagnostics()...)
	require.Len(t, first, 1)
	firstEpoch, ok := d.CheckedAt()
	require.True(t, ok)

	assert.False(t, d.Check(ctx))
	assert.Equal(t, first, collector.Diagnostics())
	assert.Equal(t, first, d.Diagnostics())

	t.Run("a new epoch checks the declaration again", func(t *testing.T) {
		ctx.NextEpoch()
		assert.False(t, d.Check(ctx))

		secondEpoch, _ := d.CheckedAt()
		assert.True(t, firstEpoch.IsOlderThan(secondEpoch))
		assert.Equal(t, first, d.Diagnostics())
		assert.Len(t, collector.Diagnostics(), 2)
	})

	t.Run("an invalidated declaration is checked again in the same epoch", func(t *testing.T) {
		sink := diag.NewCollector(zerolog.Nop())
		d.Invalidate()
		assert.False(t, d.Check(ctx.WithSink(sink)))
		assert.Len(t, sink.Diagnostics(), 1)
	})

	t.Run("a sink receives a diagnostic once per epoch", func(t *testing.T) {
		collector.Reset()
		d.Invalidate()
		assert.False(t, d.Check(ctx))
		assert.Empty(t, collector.Diagnostics())
		assert.Equal(t, first, d.Diagnostics())
	})

	t.Run("fixing the value in a new epoch clears the error", func(t *testing.T) {
		collector.Reset()
		d.Value = expr(OpDivide, NewInt(1), NewInt(1))
		ctx.NextEpoch()

		assert.True(t, d.Check(ctx))
		assert.False(t, d.Erroneous())
		assert.Empty(t, d.Diagnostics())
		assert.Empty(t, collector.Diagnostics())
		assert.Equal(t, "1", ValueString(d.LastValue()))
	})
}

func TestConversionSeverity(t *testing.T) {
	newRecord := func(name string) *Type {
		return NewRecord(name,
			&Field{Name: "id", Type: INTEGER},
			&Field{Name: "label", Type: CHARSTRING, Optional: true},
		)
	}
	r1, r2 := newRecord("R1"), newRecord("R2")

	for _, severity := range []diag.Severity{diag.Ignore, diag.Warning, diag.Error} {
		t.Run(severity.String(), func(t *testing.T) {
			x := NewConstant("x", r1, NewRecordValue(nil, FieldValue{"id", NewInt(1)}, FieldValue{"label", NewOmit()}))
			y := NewConstant("y", r2, NewReferenced(NewRef("x")))

			cfg := config.New()
			cfg.TypeCompatibility = severity
			ctx, collector := newTestContextWithConfig(cfg, x, y)

			ok := y.Check(ctx)
			switch severity {
			case diag.Ignore:
				assert.True(t, ok)
				assert.Empty(t, collector.Diagnostics())
			case diag.Warning:
				assert.True(t, ok)
				assert.Len(t, collector.Warnings(), 1)
				assert.Empty(t, collector.Errors())
			case diag.Error:
				assert.False(t, ok)
				if assert.Len(t, collector.Errors(), 1) {
					assert.Equal(t, "type `R1' is only compatible with `R2' by conversion", collector.Errors()[0].Message)
				}
			}
		})
	}

	t.Run("operands of a comparison", func(t *testing.T) {
		x := NewConstant("x", r1, NewRecordValue(nil, FieldValue{"id", NewInt(1)}, FieldValue{"label", NewOmit()}))
		y := NewConstant("y", r2, NewRecordValue(nil, FieldValue{"id", NewInt(1)}, FieldValue{"label", NewOmit()}))

		cfg := config.New()
		cfg.TypeCompatibility = diag.Warning
		ctx, collector := newTestContextWithConfig(cfg, x, y)

		e := expr(OpEqual, NewReferenced(NewRef("x")), NewReferenced(NewRef("y")))
		assert.Equal(t, "true", ValueString(e.Evaluate(ctx, ExpectedConstant)))
		assert.Len(t, collector.Warnings(), 1)
	})
}

func TestResolveGovernor(t *testing.T) {
	color := NewEnumeratedType("Color", "red", "green")
	decls := []*Declaration{
		NewConstant("c", color, NewIdentifier("red")),
		NewVariable("v", NewRecordOf(INTEGER), nil),
		NewTemplateDecl("tpl", CHARSTRING, AnyValue()),
	}

	testCases := []struct {
		name     string
		node     any
		expected ExpectedKind
		governor *Type
		ok       bool
	}{
		{"literal", NewInt(1), ExpectedConstant, INTEGER, true},
		{"constant", NewReferenced(NewRef("c")), ExpectedConstant, color, true},
		{"variable in a constant", NewReferenced(NewRef("v")), ExpectedConstant, nil, false},
		{"element of a variable", NewReferenced(NewRef("v", IndexSubref(NewInt(0)))), ExpectedDynamicValue, INTEGER, true},
		{"identifier that is a reference", NewIdentifier("c"), ExpectedConstant, color, true},
		{"identifier that may be an enumeration item", NewIdentifier("green"), ExpectedConstant, nil, true},
		{"expression", expr(OpLengthof, str("abc")), ExpectedConstant, INTEGER, true},
		{"run-time expression in a static context", NewExpression(OpRnd), ExpectedStaticValue, nil, false},
		{"template reference", NewTemplateInstance(RefTemplate(NewRef("tpl"))), ExpectedTemplate, CHARSTRING, true},
		{"template with explicit type", &TemplateInstance{Type: FLOAT, Body: AnyValue()}, ExpectedTemplate, FLOAT, true},
		{"value list", NewTemplateInstance(ValueList(AnyValue(), SpecificValue(NewBool(true)))), ExpectedTemplate, BOOLEAN, true},
		{"nil", nil, ExpectedConstant, nil, false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			ctx, _ := newTestContext(decls...)
			governor, ok := ResolveGovernor(ctx, testCase.node, testCase.expected)
			assert.Equal(t, testCase.ok, ok)
			assert.Same(t, testCase.governor, governor)
		})
	}
}
