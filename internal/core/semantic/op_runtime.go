package semantic

// port states accepted by port.checkstate
var PORT_STATES = []string{"Started", "Halted", "Stopped", "Connected", "Mapped", "Linked"}

func isPortState(s string) bool {
	for _, state := range PORT_STATES {
		if state == s {
			return true
		}
	}
	return false
}

// registerRuntime registers an operation that is only evaluated during the execution of a test,
// such operations are never folded.
func registerRuntime(op Operator, rule operatorRule) {
	rule.neverFoldable = true
	register(op, rule)
}

// optionalComponent checks the optional component reference of component.running and component.alive.
func optionalComponent(ev *evaluation) *Type {
	if ev.has(0) {
		o := ev.operands[0]
		if o.Operand.Ref != nil && o.decl != nil && isValueDeclaration(o.decl) {
			//a component variable
			if o.governor != nil && o.governor.Kind != TypeComponent {
				ev.error(ev.operandSpan(0), fmtOperandShouldBe(0, ev.rule.name, "a component reference"))
			}
		} else {
			ev.expect(0, "a component reference", TypeComponent)
		}
	}
	return BOOLEAN
}

func init() {
	registerRuntime(OpTimerRead, operatorRule{
		name:        "timer.read",
		minArgs:     1,
		maxArgs:     1,
		dynamicOnly: true,
		check: func(ev *evaluation) *Type {
			ev.entity(0, DeclTimer)
			return FLOAT
		},
	})
	registerRuntime(OpTimerRunning, operatorRule{
		name:        "timer.running",
		minArgs:     0,
		maxArgs:     1,
		dynamicOnly: true,
		check: func(ev *evaluation) *Type {
			//without operand: any timer
			if ev.has(0) {
				ev.entity(0, DeclTimer)
			}
			return BOOLEAN
		},
	})
	registerRuntime(OpPortCheckState, operatorRule{
		name:        "port.checkstate",
		minArgs:     2,
		maxArgs:     2,
		dynamicOnly: true,
		check: func(ev *evaluation) *Type {
			ev.entity(0, DeclPort)
			if !ev.expect(1, CHARSTRING_VALUE, TypeCharstring) {
				return BOOLEAN
			}
			if s, ok := ev.operands[1].value.(*Charstring); ok && !isPortState(s.V) {
				ev.error(ev.operandSpan(1), fmtUnknownPortState(s.V, PORT_STATES))
			}
			return BOOLEAN
		},
	})
	registerRuntime(OpComponentRunning, operatorRule{
		name:        "component.running",
		minArgs:     0,
		maxArgs:     1,
		dynamicOnly: true,
		check:       optionalComponent,
	})
	registerRuntime(OpComponentAlive, operatorRule{
		name:        "component.alive",
		minArgs:     0,
		maxArgs:     1,
		dynamicOnly: true,
		check:       optionalComponent,
	})
	registerRuntime(OpGetVerdict, operatorRule{
		name:        "getverdict",
		dynamicOnly: true,
		check: func(ev *evaluation) *Type {
			return VERDICT
		},
	})
	registerRuntime(OpTestcaseName, operatorRule{
		name: "testcasename",
		check: func(ev *evaluation) *Type {
			return CHARSTRING
		},
	})
	for op, name := range map[Operator]string{OpSelf: "self", OpMTC: "mtc", OpSystem: "system"} {
		registerRuntime(op, operatorRule{
			name:        name,
			dynamicOnly: true,
			check: func(ev *evaluation) *Type {
				return ANY_COMPONENT
			},
		})
	}
	registerRuntime(OpCreate, operatorRule{
		name:        "create",
		minArgs:     1,
		maxArgs:     3,
		dynamicOnly: true,
		check: func(ev *evaluation) *Type {
			o := ev.operands[0]
			if o.Operand.Type == nil || o.governor.Kind != TypeComponent {
				ev.error(ev.operandSpan(0), fmtOperandShouldBe(0, ev.rule.name, "a component type"))
				return ANY_COMPONENT
			}
			//optional name and location
			for i := 1; i < len(ev.operands); i++ {
				ev.expect(i, CHARSTRING_VALUE, TypeCharstring)
			}
			return o.governor
		},
	})
	registerRuntime(OpActivate, operatorRule{
		name:        "activate",
		minArgs:     1,
		maxArgs:     1,
		dynamicOnly: true,
		check: func(ev *evaluation) *Type {
			ev.entity(0, DeclAltstep)
			return DEFAULT
		},
	})
	registerRuntime(OpExecute, operatorRule{
		name:        "execute",
		minArgs:     1,
		maxArgs:     2,
		dynamicOnly: true,
		check: func(ev *evaluation) *Type {
			ev.entity(0, DeclTestcase)
			if ev.has(1) && ev.expect(1, FLOAT_VALUE, TypeFloat) {
				if f, ok := ev.operands[1].value.(*Float); ok && f.V < 0 {
					ev.error(ev.operandSpan(1), fmtNegativeOperand(1, ev.rule.name, ValueString(f)))
				}
			}
			return VERDICT
		},
	})
	registerRuntime(OpApply, operatorRule{
		name:        "apply",
		minArgs:     1,
		maxArgs:     NO_MAX_OPERANDS,
		dynamicOnly: true,
		check: func(ev *evaluation) *Type {
			if !ev.expect(0, "a function reference value", TypeFunction) {
				return nil
			}
			t := ev.operands[0].governor
			if t == nil {
				return nil
			}
			if t.Return == nil {
				ev.error(ev.span(), fmtFunctionWithoutReturn(t))
				return nil
			}
			if t.ReturnsTemplate && ev.expected != ExpectedTemplate {
				ev.error(ev.span(), fmtTemplateReturnOutsideTemplate(t))
				return nil
			}
			return t.Return
		},
	})
	registerRuntime(OpLog2Str, operatorRule{
		name:    "log2str",
		maxArgs: NO_MAX_OPERANDS,
		check: func(ev *evaluation) *Type {
			return CHARSTRING
		},
	})
	registerRuntime(OpRnd, operatorRule{
		name:        "rnd",
		minArgs:     0,
		maxArgs:     1,
		dynamicOnly: true,
		check: func(ev *evaluation) *Type {
			if ev.has(0) {
				//seed
				ev.expect(0, FLOAT_VALUE, TypeFloat)
			}
			return FLOAT
		},
	})
}
