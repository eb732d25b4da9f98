package cgen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/value"

	"github.com/raymyers/ll2c/pkg/cexpr"
)

// getExpr resolves an operand to its AET node. Hits come from the
// per-function memoization map; misses are constants, globals and constant
// expressions, which are lowered on demand and memoized. A miss on an
// instruction value is a translator bug: defs dominate uses, so the
// defining block has already been lowered.
func (b *block) getExpr(val value.Value) (cexpr.Expr, error) {
	if e := b.fn.getExpr(val); e != nil {
		return e, nil
	}
	if e := b.fn.prog.getGlobalRef(val); e != nil {
		b.fn.createExpr(val, e)
		return e, nil
	}

	switch c := val.(type) {
	case *constant.Int:
		t, err := b.fn.prog.getType(c.Typ)
		if err != nil {
			return nil, err
		}
		e := cexpr.NewLiteral(c.X.String(), t)
		b.fn.createExpr(val, e)
		return e, nil
	case *constant.Float:
		t, err := b.fn.prog.getType(c.Typ)
		if err != nil {
			return nil, err
		}
		e := cexpr.NewLiteral(floatLiteral(c), t)
		b.fn.createExpr(val, e)
		return e, nil
	case *constant.Null:
		t, err := b.fn.prog.getType(c.Typ)
		if err != nil {
			return nil, err
		}
		e := cexpr.NewLiteral("0", t)
		b.fn.createExpr(val, e)
		return e, nil
	case *constant.Undef:
		t, err := b.fn.prog.getType(c.Typ)
		if err != nil {
			return nil, err
		}
		e := cexpr.NewLiteral("0", t)
		b.fn.createExpr(val, e)
		return e, nil
	case *ir.Func:
		t, err := b.fn.prog.getType(c.Sig)
		if err != nil {
			return nil, err
		}
		e := cexpr.NewLiteral(c.Name(), t)
		b.fn.createExpr(val, e)
		return e, nil
	case constant.Expression:
		return b.lowerConstExpr(c)
	case constant.Constant:
		// Aggregate constant in operand position.
		lit, err := b.fn.prog.constantLiteral(c)
		if err != nil {
			return nil, err
		}
		t, err := b.fn.prog.getType(c.Type())
		if err != nil {
			return nil, err
		}
		e := cexpr.NewLiteral(lit, t)
		b.fn.createExpr(val, e)
		return e, nil
	}
	return nil, fmt.Errorf("%w: no expression for operand %v", ErrInternal, val.Ident())
}

// lowerConstExpr re-enters the instruction dispatch for a constant
// expression embedded in an operand. The result is memoized against the
// constant value itself, so every use shares one node. Nesting recurses
// through getExpr and is bounded only by the input.
func (b *block) lowerConstExpr(c constant.Expression) (cexpr.Expr, error) {
	var err error
	switch c := c.(type) {
	case *constant.ExprGetElementPtr:
		indices := make([]value.Value, len(c.Indices))
		for i, ix := range c.Indices {
			// Unwrap the index so lowerGep sees the plain constant.
			indices[i] = ix.Constant
		}
		err = b.lowerGep(c, c.Src, indices)
	case *constant.ExprBitCast:
		err = b.lowerCast(c, c.To, c.From, castPlain)
	case *constant.ExprPtrToInt:
		err = b.lowerCast(c, c.To, c.From, castPlain)
	case *constant.ExprIntToPtr:
		err = b.lowerCast(c, c.To, c.From, castPlain)
	case *constant.ExprTrunc:
		err = b.lowerCast(c, c.To, c.From, castPlain)
	case *constant.ExprZExt:
		err = b.lowerCast(c, c.To, c.From, castUnsignedOperand)
	case *constant.ExprSExt:
		err = b.lowerCast(c, c.To, c.From, castPlain)
	case *constant.ExprAdd:
		err = b.lowerBinary(c, cexpr.OpAdd, c.X, c.Y, false)
	case *constant.ExprSub:
		err = b.lowerBinary(c, cexpr.OpSub, c.X, c.Y, false)
	case *constant.ExprMul:
		err = b.lowerBinary(c, cexpr.OpMul, c.X, c.Y, false)
	case *constant.ExprICmp:
		var op string
		var unsigned bool
		op, unsigned, err = icmpOp(c.Pred)
		if err == nil {
			err = b.lowerCmp(c, op, c.X, c.Y, unsigned)
		}
	default:
		return nil, fmt.Errorf("%w: constant expression %T", ErrUnsupported, c)
	}
	if err != nil {
		return nil, err
	}

	e := b.fn.getExpr(c)
	if e == nil {
		return nil, fmt.Errorf("%w: constant expression produced no node", ErrInternal)
	}
	return e, nil
}
