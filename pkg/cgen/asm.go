package cgen

import (
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"

	"github.com/raymyers/ll2c/pkg/cexpr"
	"github.com/raymyers/ll2c/pkg/ctypes"
)

// asmConstraint is one entry of a parsed LLVM constraint string.
type asmConstraint struct {
	raw     string
	output  bool
	clobber bool
}

func parseAsmConstraints(s string) []asmConstraint {
	if s == "" {
		return nil
	}
	var cons []asmConstraint
	for _, part := range strings.Split(s, ",") {
		c := asmConstraint{raw: part}
		switch {
		case strings.HasPrefix(part, "~"):
			c.clobber = true
			c.raw = strings.TrimPrefix(part, "~")
		case strings.HasPrefix(part, "="):
			c.output = true
			c.raw = strings.TrimPrefix(part, "=")
		}
		cons = append(cons, c)
	}
	return cons
}

// registerName maps an LLVM register label to its C spelling. The stack
// pointer depends on the target pointer width.
func (p *Program) registerName(s string) string {
	s = strings.TrimPrefix(strings.TrimSuffix(s, "}"), "{")
	switch s {
	case "ax", "eax", "rax":
		return "a"
	case "bx", "ebx", "rbx":
		return "b"
	case "cx", "ecx", "rcx":
		return "c"
	case "dx", "edx", "rdx":
		return "d"
	case "si", "esi", "rsi":
		return "S"
	case "di", "edi", "rdi":
		return "D"
	case "sp", "esp", "rsp":
		if p.ptrSize == 32 {
			return "esp"
		}
		return "rsp"
	}
	return s
}

// operandConstraint renders the C constraint for an operand entry,
// translating register labels like {ax} to their letter.
func (p *Program) operandConstraint(c asmConstraint, output bool) string {
	raw := c.raw
	if strings.HasPrefix(raw, "{") {
		raw = p.registerName(raw)
	}
	if output {
		return "=" + raw
	}
	return raw
}

// rewriteAsmTemplate converts LLVM $N operand placeholders to the C %N
// form, unescapes $$ and doubles literal per cent signs.
func rewriteAsmTemplate(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '%':
			sb.WriteString("%%")
		case s[i] == '$' && i+1 < len(s) && s[i+1] == '$':
			sb.WriteByte('$')
			i++
		case s[i] == '$' && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9':
			sb.WriteByte('%')
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// lowerInlineAsm lowers a call whose callee is inline assembly. Each output
// constraint binds a freshly introduced temporary lvalue; inputs pair with
// the call arguments in order.
func (b *block) lowerInlineAsm(ins *ir.InstCall, ia *ir.InlineAsm) error {
	prog := b.fn.prog
	cons := parseAsmConstraints(ia.Constraint)

	asm := &cexpr.AsmExpr{
		Template: rewriteAsmTemplate(ia.Asm),
		Volatile: ia.SideEffect,
	}

	retType, err := prog.getType(ins.Type())
	if err != nil {
		return err
	}
	// A void call can still carry an output constraint; its temporary must
	// not be declared void.
	outType := retType
	if _, ok := retType.(ctypes.Void); ok {
		outType = ctypes.Int{}
	}

	var firstOut *cexpr.Value
	argIdx := 0
	for _, c := range cons {
		switch {
		case c.clobber:
			switch c.raw {
			case "{dirflag}", "{fpsr}", "{flags}":
				// Condition-code scratch; covered by cc.
				continue
			case "memory", "cc":
				asm.Clobbers = append(asm.Clobbers, c.raw)
			default:
				asm.Clobbers = append(asm.Clobbers, prog.registerName(c.raw))
			}
		case c.output:
			t := outType
			if firstOut != nil {
				t = ctypes.Int{}
			}
			v := b.newLocal(t)
			b.addExpr(v)
			if firstOut == nil {
				firstOut = v
			}
			asm.Outputs = append(asm.Outputs, cexpr.AsmOperand{
				Constraint: prog.operandConstraint(c, true),
				Target:     v,
			})
		default:
			if argIdx >= len(ins.Args) {
				continue
			}
			e, err := b.getExpr(ins.Args[argIdx])
			if err != nil {
				return err
			}
			argIdx++
			asm.Inputs = append(asm.Inputs, cexpr.AsmOperand{
				Constraint: prog.operandConstraint(c, false),
				Target:     e,
			})
		}
	}

	b.addExpr(asm)
	if firstOut != nil {
		if _, ok := ins.Type().(*types.VoidType); !ok {
			b.fn.createExpr(ins, firstOut)
		}
	}
	return nil
}
