package cexpr

import (
	"strings"
	"testing"

	"github.com/raymyers/ll2c/pkg/ctypes"
)

func render(e Expr) string {
	var sb strings.Builder
	e.WriteC(&sb)
	return sb.String()
}

func TestValueDeclarationThenName(t *testing.T) {
	v := &Value{Name: "var0", Typ: ctypes.Int{}}
	if got := render(v); got != "int var0" {
		t.Errorf("first write = %q, want %q", got, "int var0")
	}
	if got := render(v); got != "var0" {
		t.Errorf("second write = %q, want %q", got, "var0")
	}
	v.Init = false
	if got := render(v); got != "int var0" {
		t.Errorf("after reset = %q, want %q", got, "int var0")
	}
}

func TestLiteralNeverDeclares(t *testing.T) {
	v := NewLiteral("42", ctypes.Int{})
	if got := render(v); got != "42" {
		t.Errorf("literal = %q, want %q", got, "42")
	}
}

func TestDerefCancelsRef(t *testing.T) {
	v := &Value{Name: "var0", Typ: ctypes.Int{}, Init: true}
	d := &DerefExpr{Target: &RefExpr{Target: v}}
	if got := render(d); got != "var0" {
		t.Errorf("deref of ref = %q, want %q", got, "var0")
	}
}

func TestExprPrinting(t *testing.T) {
	intv := func(name string) *Value {
		return &Value{Name: name, Typ: ctypes.Int{}, Init: true}
	}
	a, b, c := intv("a"), intv("b"), intv("c")

	tests := []struct {
		name string
		e    Expr
		want string
	}{
		{"ref", &RefExpr{Target: a}, "&a"},
		{"deref of value", &DerefExpr{Target: a}, "*a"},
		{"assignment", &EqualsExpr{Lhs: a, Rhs: b}, "a = b"},
		{"add", &BinExpr{Op: OpAdd, Lhs: a, Rhs: b, Typ: ctypes.Int{}}, "a + b"},
		{
			"nested binop parenthesized",
			&BinExpr{Op: OpSub, Lhs: a, Rhs: &BinExpr{Op: OpSub, Lhs: b, Rhs: c, Typ: ctypes.Int{}}, Typ: ctypes.Int{}},
			"a - (b - c)",
		},
		{"cmp", &CmpExpr{Op: "<=", Lhs: a, Rhs: b}, "a <= b"},
		{"cast", &CastExpr{To: ctypes.Long{Unsigned: true}, V: a}, "(unsigned long)a"},
		{"call", &CallExpr{Name: "memcpy", Args: []Expr{a, b, c}, Typ: ctypes.Void{}}, "memcpy(a, b, c)"},
		{"select", &SelectExpr{Cond: a, Then: b, Else: c, Typ: ctypes.Int{}}, "a ? b : c"},
		{"ret void", &RetExpr{}, "return"},
		{"ret value", &RetExpr{Val: a}, "return a"},
		{"goto", &IfExpr{Then: "block1"}, "goto block1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(tt.e); got != tt.want {
				t.Errorf("WriteC = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGepPrinting(t *testing.T) {
	arr := &Value{Name: "var0", Typ: ctypes.Array{Elem: ctypes.Int{}, Len: 10}, Init: true}
	three := NewLiteral("3", ctypes.Int{})

	gep := &GepExpr{
		Base:       &RefExpr{Target: arr},
		BaseElided: true,
		Levels:     []GepLevel{{Elem: ctypes.Int{}, Index: three}},
		Typ:        ctypes.Pointer{Elem: ctypes.Int{}},
	}
	if got := render(gep); got != "&var0[3]" {
		t.Errorf("gep = %q, want %q", got, "&var0[3]")
	}

	// A load through the gep collapses to the element lvalue.
	if got := render(&DerefExpr{Target: gep}); got != "var0[3]" {
		t.Errorf("deref of gep = %q, want %q", got, "var0[3]")
	}
}

func TestGepStructField(t *testing.T) {
	p := &Value{Name: "var0", Typ: ctypes.StructRef{Name: "s_point"}, Init: true}
	gep := &GepExpr{
		Base:       &RefExpr{Target: p},
		BaseElided: true,
		Levels:     []GepLevel{{Elem: ctypes.Int{}, Field: "structVar0"}},
		Typ:        ctypes.Pointer{Elem: ctypes.Int{}},
	}
	if got := render(&DerefExpr{Target: gep}); got != "var0.structVar0" {
		t.Errorf("field gep = %q, want %q", got, "var0.structVar0")
	}
}

func TestIfAndSwitchPrinting(t *testing.T) {
	cond := &CmpExpr{
		Op:  "<",
		Lhs: &Value{Name: "a", Typ: ctypes.Int{}, Init: true},
		Rhs: NewLiteral("10", ctypes.Int{}),
	}
	ife := &IfExpr{Cond: cond, Then: "block1", Else: "block2"}
	got := render(ife)
	for _, want := range []string{"if (a < 10) {", "goto block1;", "goto block2;"} {
		if !strings.Contains(got, want) {
			t.Errorf("if output %q missing %q", got, want)
		}
	}

	sw := &SwitchExpr{
		Cond:    &Value{Name: "a", Typ: ctypes.Int{}, Init: true},
		Cases:   []SwitchCase{{Value: "1", Label: "block1"}, {Value: "2", Label: "block2"}},
		Default: "block3",
	}
	got = render(sw)
	for _, want := range []string{"switch (a) {", "case 1:", "goto block1;", "case 2:", "default:", "goto block3;"} {
		if !strings.Contains(got, want) {
			t.Errorf("switch output %q missing %q", got, want)
		}
	}
}

func TestAsmPrinting(t *testing.T) {
	out := &Value{Name: "var1", Typ: ctypes.Int{}, Init: true}
	in := &Value{Name: "var0", Typ: ctypes.Int{}, Init: true}
	asm := &AsmExpr{
		Template: "mov %0, %1",
		Outputs:  []AsmOperand{{Constraint: "=r", Target: out}},
		Inputs:   []AsmOperand{{Constraint: "r", Target: in}},
		Volatile: true,
	}
	want := `asm volatile ("mov %0, %1" : "=r"(var1) : "r"(var0))`
	if got := render(asm); got != want {
		t.Errorf("asm = %q, want %q", got, want)
	}
}

func TestGlobalValuePrinting(t *testing.T) {
	g := &GlobalValue{Name: "g", Typ: ctypes.Int{}, Value: "42", Static: true}

	var decl strings.Builder
	g.WriteDecl(&decl)
	if decl.String() != "static int g;" {
		t.Errorf("decl = %q, want %q", decl.String(), "static int g;")
	}

	if got := render(g); got != "static int g = 42" {
		t.Errorf("definition = %q, want %q", got, "static int g = 42")
	}
	// Operand positions after the definition see only the name.
	if got := render(g); got != "g" {
		t.Errorf("operand = %q, want %q", got, "g")
	}
}

func TestStructPrinting(t *testing.T) {
	s := &Struct{Name: "s_point"}
	s.AddItem(ctypes.Int{}, "structVar0")
	s.AddItem(ctypes.Int{}, "structVar1")

	var sb strings.Builder
	s.WriteC(&sb)
	want := "struct s_point {\n\tint structVar0;\n\tint structVar1;\n};\n"
	if sb.String() != want {
		t.Errorf("struct = %q, want %q", sb.String(), want)
	}

	body := s.Body()
	if !strings.HasPrefix(body, "struct {") || !strings.HasSuffix(body, "}") {
		t.Errorf("anonymous body = %q", body)
	}
}
