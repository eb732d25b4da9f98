package cexpr

import (
	"fmt"
	"io"
	"strings"

	"github.com/raymyers/ll2c/pkg/ctypes"
)

// writeOperand writes e, wrapping compound expressions in parentheses so
// that nesting keeps the lowered evaluation order.
func writeOperand(w io.Writer, e Expr) {
	switch e.(type) {
	case *BinExpr, *CmpExpr, *SelectExpr, *EqualsExpr:
		io.WriteString(w, "(")
		e.WriteC(w)
		io.WriteString(w, ")")
	default:
		e.WriteC(w)
	}
}

func (v *Value) WriteC(w io.Writer) {
	if !v.Init {
		io.WriteString(w, ctypes.Declare(v.Typ, v.Name))
		v.Init = true
		return
	}
	io.WriteString(w, v.Name)
}

func (e *RefExpr) WriteC(w io.Writer) {
	io.WriteString(w, "&")
	writeOperand(w, e.Target)
}

func (e *DerefExpr) WriteC(w io.Writer) {
	// *&x cancels, and a gep already denotes the address of its element
	// chain, so dereferencing it yields the chain itself.
	switch t := e.Target.(type) {
	case *RefExpr:
		t.Target.WriteC(w)
	case *GepExpr:
		t.WriteLValue(w)
	case *Value:
		io.WriteString(w, "*")
		t.WriteC(w)
	default:
		io.WriteString(w, "*(")
		e.Target.WriteC(w)
		io.WriteString(w, ")")
	}
}

func (e *EqualsExpr) WriteC(w io.Writer) {
	e.Lhs.WriteC(w)
	io.WriteString(w, " = ")
	e.Rhs.WriteC(w)
}

func (e *BinExpr) WriteC(w io.Writer) {
	writeOperand(w, e.Lhs)
	fmt.Fprintf(w, " %s ", e.Op)
	writeOperand(w, e.Rhs)
}

func (e *CmpExpr) WriteC(w io.Writer) {
	writeOperand(w, e.Lhs)
	fmt.Fprintf(w, " %s ", e.Op)
	writeOperand(w, e.Rhs)
}

func (e *CastExpr) WriteC(w io.Writer) {
	fmt.Fprintf(w, "(%s)", e.To)
	writeOperand(w, e.V)
}

func (e *CallExpr) WriteC(w io.Writer) {
	if e.Name != "" {
		io.WriteString(w, e.Name)
	} else if v, ok := e.Callee.(*Value); ok {
		v.WriteC(w)
	} else {
		io.WriteString(w, "(")
		e.Callee.WriteC(w)
		io.WriteString(w, ")")
	}
	io.WriteString(w, "(")
	for i, a := range e.Args {
		if i > 0 {
			io.WriteString(w, ", ")
		}
		a.WriteC(w)
	}
	io.WriteString(w, ")")
}

func (e *GepExpr) WriteC(w io.Writer) {
	io.WriteString(w, "&")
	e.WriteLValue(w)
}

// WriteLValue writes the element chain the gep addresses, without the
// leading address-of.
func (e *GepExpr) WriteLValue(w io.Writer) {
	if e.BaseElided {
		switch t := e.Base.(type) {
		case *RefExpr:
			writeOperand(w, t.Target)
		case *GepExpr:
			t.WriteLValue(w)
		case *Value:
			io.WriteString(w, "(*")
			t.WriteC(w)
			io.WriteString(w, ")")
		default:
			io.WriteString(w, "(*")
			e.Base.WriteC(w)
			io.WriteString(w, ")")
		}
	} else {
		writeOperand(w, e.Base)
	}
	for _, lvl := range e.Levels {
		if lvl.Field != "" {
			io.WriteString(w, "."+lvl.Field)
			continue
		}
		io.WriteString(w, "[")
		lvl.Index.WriteC(w)
		io.WriteString(w, "]")
	}
}

func (e *SelectExpr) WriteC(w io.Writer) {
	writeOperand(w, e.Cond)
	io.WriteString(w, " ? ")
	writeOperand(w, e.Then)
	io.WriteString(w, " : ")
	writeOperand(w, e.Else)
}

func (e *SwitchExpr) WriteC(w io.Writer) {
	io.WriteString(w, "switch (")
	e.Cond.WriteC(w)
	io.WriteString(w, ") {\n")
	for _, c := range e.Cases {
		fmt.Fprintf(w, "\tcase %s:\n\t\tgoto %s;\n", c.Value, c.Label)
	}
	if e.Default != "" {
		fmt.Fprintf(w, "\tdefault:\n\t\tgoto %s;\n", e.Default)
	}
	io.WriteString(w, "\t}")
}

func (e *IfExpr) WriteC(w io.Writer) {
	if e.Cond == nil {
		io.WriteString(w, "goto "+e.Then)
		return
	}
	io.WriteString(w, "if (")
	e.Cond.WriteC(w)
	fmt.Fprintf(w, ") {\n\t\tgoto %s;\n\t} else {\n\t\tgoto %s;\n\t}", e.Then, e.Else)
}

func (e *RetExpr) WriteC(w io.Writer) {
	if e.Val == nil {
		io.WriteString(w, "return")
		return
	}
	io.WriteString(w, "return ")
	e.Val.WriteC(w)
}

func (e *ExtractValueExpr) WriteC(w io.Writer) {
	writeOperand(w, e.Base)
	for _, lvl := range e.Levels {
		if lvl.Field != "" {
			io.WriteString(w, "."+lvl.Field)
			continue
		}
		io.WriteString(w, "[")
		lvl.Index.WriteC(w)
		io.WriteString(w, "]")
	}
}

func (e *AsmExpr) WriteC(w io.Writer) {
	io.WriteString(w, "asm ")
	if e.Volatile {
		io.WriteString(w, "volatile ")
	}
	fmt.Fprintf(w, "(%q", e.Template)
	io.WriteString(w, " : ")
	writeAsmOperands(w, e.Outputs)
	io.WriteString(w, " : ")
	writeAsmOperands(w, e.Inputs)
	if len(e.Clobbers) > 0 {
		quoted := make([]string, len(e.Clobbers))
		for i, c := range e.Clobbers {
			quoted[i] = fmt.Sprintf("%q", c)
		}
		io.WriteString(w, " : "+strings.Join(quoted, ", "))
	}
	io.WriteString(w, ")")
}

func writeAsmOperands(w io.Writer, ops []AsmOperand) {
	for i, op := range ops {
		if i > 0 {
			io.WriteString(w, ", ")
		}
		fmt.Fprintf(w, "%q(", op.Constraint)
		op.Target.WriteC(w)
		io.WriteString(w, ")")
	}
}

// WriteC writes the definition of the global on its first call of a pass
// and just the name afterwards.
func (g *GlobalValue) WriteC(w io.Writer) {
	if g.Init {
		io.WriteString(w, g.Name)
		return
	}
	if g.Static {
		io.WriteString(w, "static ")
	}
	io.WriteString(w, ctypes.Declare(g.Typ, g.Name))
	if g.Value != "" {
		io.WriteString(w, " = "+g.Value)
	}
	g.Init = true
}

// WriteDecl writes the forward declaration of the global.
func (g *GlobalValue) WriteDecl(w io.Writer) {
	if g.Static {
		io.WriteString(w, "static ")
	}
	io.WriteString(w, ctypes.Declare(g.Typ, g.Name)+";")
}

// IsBlockStmt reports whether e renders as a braced statement, which takes
// no trailing semicolon when emitted in a block.
func IsBlockStmt(e Expr) bool {
	switch e := e.(type) {
	case *SwitchExpr:
		return true
	case *IfExpr:
		return e.Cond != nil
	}
	return false
}
