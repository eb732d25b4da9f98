package cgen

import (
	"fmt"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/raymyers/ll2c/pkg/cexpr"
	"github.com/raymyers/ll2c/pkg/ctypes"
)

func (b *block) lowerCall(ins *ir.InstCall) error {
	if ia, ok := ins.Callee.(*ir.InlineAsm); ok {
		return b.lowerInlineAsm(ins, ia)
	}

	if f, ok := ins.Callee.(*ir.Func); ok {
		name := f.Name()
		if strings.HasPrefix(name, "llvm.") {
			return b.lowerIntrinsic(ins, name)
		}
		if !b.fn.prog.declared[name] && !isCFunc(name) {
			if err := b.fn.prog.addDeclaration(f); err != nil {
				return err
			}
		}
		return b.emitCall(ins, name, nil, ins.Args, f.Sig)
	}

	// Indirect call through a function pointer.
	callee, err := b.getExpr(ins.Callee)
	if err != nil {
		return err
	}
	sig := calleeSig(ins.Callee)
	if sig == nil {
		return fmt.Errorf("%w: call through non-function value", ErrMalformedIR)
	}
	return b.emitCall(ins, "", callee, ins.Args, sig)
}

// calleeSig digs the function signature out of a callee's pointer type.
func calleeSig(callee value.Value) *types.FuncType {
	t := callee.Type()
	if pt, ok := t.(*types.PointerType); ok {
		t = pt.ElemType
	}
	sig, _ := t.(*types.FuncType)
	return sig
}

// emitCall lowers the arguments, wrapping casts where the declared
// parameter type differs, and places the call: void calls become
// statements, others bind a fresh variable that uses refer to.
func (b *block) emitCall(ins *ir.InstCall, name string, callee cexpr.Expr, args []value.Value, sig *types.FuncType) error {
	ret, err := b.fn.prog.getType(sig.RetType)
	if err != nil {
		return err
	}

	var argExprs []cexpr.Expr
	for i, a := range args {
		e, err := b.getExpr(a)
		if err != nil {
			return err
		}
		if i < len(sig.Params) {
			pt, err := b.fn.prog.getType(sig.Params[i])
			if err != nil {
				return err
			}
			if e.Type() != nil && !ctypes.Equal(e.Type(), pt) {
				e = &cexpr.CastExpr{To: pt, V: e}
			}
		}
		argExprs = append(argExprs, e)
	}

	call := &cexpr.CallExpr{
		Name:   name,
		Callee: callee,
		Args:   argExprs,
		Typ:    ret,
		VarArg: sig.Variadic,
	}
	b.placeCall(ins, call)
	return nil
}

// placeCall appends a call result binding, or the bare call for void.
func (b *block) placeCall(ins *ir.InstCall, call *cexpr.CallExpr) {
	if _, ok := call.Typ.(ctypes.Void); ok {
		b.addExpr(call)
		return
	}
	v := b.newLocal(call.Typ)
	b.addExpr(&cexpr.EqualsExpr{Lhs: v, Rhs: call})
	b.fn.createExpr(ins, v)
}

// lowerIntrinsic rewrites llvm.* calls to their C equivalents. Debug
// intrinsics route to the metadata handler; stack save and restore are
// dropped with a warning flag.
func (b *block) lowerIntrinsic(ins *ir.InstCall, name string) error {
	switch {
	case strings.HasPrefix(name, "llvm.dbg.declare"):
		return b.setMetadataInfo(ins)
	case strings.HasPrefix(name, "llvm.dbg."):
		return nil
	case strings.HasPrefix(name, "llvm.stacksave"),
		strings.HasPrefix(name, "llvm.stackrestore"):
		b.fn.prog.stackIgnored = true
		if _, ok := ins.Type().(*types.VoidType); !ok {
			t, err := b.fn.prog.getType(ins.Type())
			if err != nil {
				return err
			}
			b.fn.createExpr(ins, cexpr.NewLiteral("0", t))
		}
		return nil
	}

	cName, argN, ok := intrinsicCFunc(name)
	if !ok {
		return fmt.Errorf("%w: intrinsic %s", ErrUnsupported, name)
	}

	args := ins.Args
	if argN >= 0 && len(args) > argN {
		args = args[:argN]
	}
	var argExprs []cexpr.Expr
	for _, a := range args {
		e, err := b.getExpr(a)
		if err != nil {
			return err
		}
		if strings.HasPrefix(cName, "va_") {
			e = unwrapVaListArg(e)
		}
		argExprs = append(argExprs, e)
	}

	ret, err := b.fn.prog.getType(ins.Type())
	if err != nil {
		return err
	}
	b.placeCall(ins, &cexpr.CallExpr{Name: cName, Args: argExprs, Typ: ret})
	return nil
}

// unwrapVaListArg strips the i8* bitcast the front end wraps around a
// va_list address, so the macro sees the list variable itself.
func unwrapVaListArg(e cexpr.Expr) cexpr.Expr {
	if c, ok := e.(*cexpr.CastExpr); ok {
		e = c.V
	}
	if r, ok := e.(*cexpr.RefExpr); ok {
		return r.Target
	}
	return e
}
