package cgen

import (
	"fmt"
	"io"
	"slices"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/raymyers/ll2c/pkg/cexpr"
	"github.com/raymyers/ll2c/pkg/ctypes"
)

// block lowers one basic block. Most instructions only memoize a node
// against their IR value; the statement list holds declarations,
// assignments, calls and the terminator.
type block struct {
	name    string
	irBlock *ir.Block
	fn      *Func

	exprs   []cexpr.Expr
	termIdx int
	locals  []*cexpr.Value
}

func (b *block) addExpr(e cexpr.Expr) {
	b.exprs = append(b.exprs, e)
}

func (b *block) addTerm(e cexpr.Expr) {
	b.termIdx = len(b.exprs)
	b.exprs = append(b.exprs, e)
}

// insertBeforeTerm places a phi assignment so the terminator still sees the
// updated binding.
func (b *block) insertBeforeTerm(e cexpr.Expr) {
	if b.termIdx < 0 {
		b.addExpr(e)
		return
	}
	b.exprs = slices.Insert(b.exprs, b.termIdx, e)
	b.termIdx++
}

func (b *block) newLocal(t ctypes.Type) *cexpr.Value {
	v := &cexpr.Value{Name: b.fn.varName(), Typ: t}
	b.locals = append(b.locals, v)
	return v
}

func (b *block) unsetAllInit() {
	for _, v := range b.locals {
		v.Init = false
	}
}

func (b *block) lower() error {
	for _, ins := range b.irBlock.Insts {
		if err := b.lowerInst(ins); err != nil {
			return err
		}
	}
	return b.lowerTerm(b.irBlock.Term)
}

// lowerInst dispatches on the opcode; every instruction has exactly one
// handler.
func (b *block) lowerInst(ins ir.Instruction) error {
	switch ins := ins.(type) {
	case *ir.InstAlloca:
		return b.lowerAlloca(ins)
	case *ir.InstLoad:
		return b.lowerLoad(ins)
	case *ir.InstStore:
		return b.lowerStore(ins)

	case *ir.InstAdd:
		return b.lowerBinary(ins, cexpr.OpAdd, ins.X, ins.Y, false)
	case *ir.InstSub:
		return b.lowerBinary(ins, cexpr.OpSub, ins.X, ins.Y, false)
	case *ir.InstMul:
		return b.lowerBinary(ins, cexpr.OpMul, ins.X, ins.Y, false)
	case *ir.InstUDiv:
		return b.lowerBinary(ins, cexpr.OpDiv, ins.X, ins.Y, true)
	case *ir.InstSDiv:
		return b.lowerBinary(ins, cexpr.OpDiv, ins.X, ins.Y, false)
	case *ir.InstURem:
		return b.lowerBinary(ins, cexpr.OpRem, ins.X, ins.Y, true)
	case *ir.InstSRem:
		return b.lowerBinary(ins, cexpr.OpRem, ins.X, ins.Y, false)
	case *ir.InstAnd:
		return b.lowerBinary(ins, cexpr.OpAnd, ins.X, ins.Y, false)
	case *ir.InstOr:
		return b.lowerBinary(ins, cexpr.OpOr, ins.X, ins.Y, false)
	case *ir.InstXor:
		return b.lowerBinary(ins, cexpr.OpXor, ins.X, ins.Y, false)
	case *ir.InstFAdd:
		return b.lowerBinary(ins, cexpr.OpAdd, ins.X, ins.Y, false)
	case *ir.InstFSub:
		return b.lowerBinary(ins, cexpr.OpSub, ins.X, ins.Y, false)
	case *ir.InstFMul:
		return b.lowerBinary(ins, cexpr.OpMul, ins.X, ins.Y, false)
	case *ir.InstFDiv:
		return b.lowerBinary(ins, cexpr.OpDiv, ins.X, ins.Y, false)

	case *ir.InstShl:
		return b.lowerShift(ins, ins.X, ins.Y, cexpr.OpShl, false)
	case *ir.InstLShr:
		return b.lowerShift(ins, ins.X, ins.Y, cexpr.OpShr, true)
	case *ir.InstAShr:
		return b.lowerShift(ins, ins.X, ins.Y, cexpr.OpShr, false)

	case *ir.InstICmp:
		op, unsigned, err := icmpOp(ins.Pred)
		if err != nil {
			return err
		}
		return b.lowerCmp(ins, op, ins.X, ins.Y, unsigned)
	case *ir.InstFCmp:
		op, err := fcmpOp(ins.Pred)
		if err != nil {
			return err
		}
		return b.lowerCmp(ins, op, ins.X, ins.Y, false)

	case *ir.InstCall:
		return b.lowerCall(ins)

	case *ir.InstTrunc:
		return b.lowerCast(ins, ins.To, ins.From, castPlain)
	case *ir.InstZExt:
		return b.lowerCast(ins, ins.To, ins.From, castUnsignedOperand)
	case *ir.InstSExt:
		return b.lowerCast(ins, ins.To, ins.From, castPlain)
	case *ir.InstFPTrunc:
		return b.lowerCast(ins, ins.To, ins.From, castPlain)
	case *ir.InstFPExt:
		return b.lowerCast(ins, ins.To, ins.From, castPlain)
	case *ir.InstFPToUI:
		return b.lowerCast(ins, ins.To, ins.From, castUnsignedTarget)
	case *ir.InstFPToSI:
		return b.lowerCast(ins, ins.To, ins.From, castPlain)
	case *ir.InstUIToFP:
		return b.lowerCast(ins, ins.To, ins.From, castUnsignedOperand)
	case *ir.InstSIToFP:
		return b.lowerCast(ins, ins.To, ins.From, castPlain)
	case *ir.InstPtrToInt:
		return b.lowerCast(ins, ins.To, ins.From, castPlain)
	case *ir.InstIntToPtr:
		return b.lowerCast(ins, ins.To, ins.From, castPlain)
	case *ir.InstBitCast:
		return b.lowerCast(ins, ins.To, ins.From, castPlain)

	case *ir.InstSelect:
		return b.lowerSelect(ins)
	case *ir.InstGetElementPtr:
		return b.lowerGep(ins, ins.Src, ins.Indices)
	case *ir.InstExtractValue:
		return b.lowerExtractValue(ins)
	case *ir.InstPhi:
		return b.lowerPhi(ins)
	}
	return fmt.Errorf("%w: instruction %T", ErrUnsupported, ins)
}

// lowerAlloca declares a fresh local and memoizes its address. The
// declaration statement lands in the current block, which for the usual
// prologue allocas is the entry block.
func (b *block) lowerAlloca(ins *ir.InstAlloca) error {
	t, err := b.fn.prog.getType(ins.ElemType)
	if err != nil {
		return err
	}
	v := b.newLocal(t)
	b.fn.createExpr(ins, &cexpr.RefExpr{Target: v})
	b.addExpr(v)
	return nil
}

func (b *block) lowerLoad(ins *ir.InstLoad) error {
	src, err := b.getExpr(ins.Src)
	if err != nil {
		return err
	}
	b.fn.createExpr(ins, &cexpr.DerefExpr{Target: src})
	return nil
}

// lowerStore appends the assignment, cancelling *& when the destination is
// a known address.
func (b *block) lowerStore(ins *ir.InstStore) error {
	val, err := b.getExpr(ins.Src)
	if err != nil {
		return err
	}
	dst, err := b.getExpr(ins.Dst)
	if err != nil {
		return err
	}
	var lhs cexpr.Expr
	if ref, ok := dst.(*cexpr.RefExpr); ok {
		lhs = ref.Target
	} else {
		lhs = &cexpr.DerefExpr{Target: dst}
	}
	b.addExpr(&cexpr.EqualsExpr{Lhs: lhs, Rhs: val})
	return nil
}

func (b *block) lowerBinary(key value.Value, op cexpr.BinaryOp, x, y value.Value, unsigned bool) error {
	l, err := b.getExpr(x)
	if err != nil {
		return err
	}
	r, err := b.getExpr(y)
	if err != nil {
		return err
	}
	joined, ok := ctypes.BinaryJoin(l.Type(), r.Type())
	if !ok {
		return fmt.Errorf("%w: binary join of %v and %v", ErrInternal, l.Type(), r.Type())
	}
	if unsigned {
		l = castUnsigned(l)
		r = castUnsigned(r)
		joined = ctypes.Unsign(joined)
	}
	b.fn.createExpr(key, &cexpr.BinExpr{Op: op, Lhs: l, Rhs: r, Typ: joined})
	return nil
}

func (b *block) lowerShift(key value.Value, x, y value.Value, op cexpr.BinaryOp, unsignedLeft bool) error {
	l, err := b.getExpr(x)
	if err != nil {
		return err
	}
	r, err := b.getExpr(y)
	if err != nil {
		return err
	}
	t := l.Type()
	if unsignedLeft {
		l = castUnsigned(l)
		t = ctypes.Unsign(t)
	}
	b.fn.createExpr(key, &cexpr.BinExpr{Op: op, Lhs: l, Rhs: r, Typ: t})
	return nil
}

func (b *block) lowerCmp(key value.Value, op string, x, y value.Value, unsigned bool) error {
	l, err := b.getExpr(x)
	if err != nil {
		return err
	}
	r, err := b.getExpr(y)
	if err != nil {
		return err
	}
	if unsigned {
		l = castUnsigned(l)
		r = castUnsigned(r)
	}
	b.fn.createExpr(key, &cexpr.CmpExpr{Op: op, Lhs: l, Rhs: r})
	return nil
}

type castMode int

const (
	castPlain castMode = iota
	// castUnsignedOperand first casts the operand to the unsigned type of
	// its source width (zext, uitofp).
	castUnsignedOperand
	// castUnsignedTarget casts to the unsigned form of the target type
	// (fptoui).
	castUnsignedTarget
)

func (b *block) lowerCast(key value.Value, to types.Type, from value.Value, mode castMode) error {
	v, err := b.getExpr(from)
	if err != nil {
		return err
	}
	t, err := b.fn.prog.getType(to)
	if err != nil {
		return err
	}
	switch mode {
	case castUnsignedOperand:
		v = castUnsigned(v)
	case castUnsignedTarget:
		t = ctypes.Unsign(t)
	}
	b.fn.createExpr(key, &cexpr.CastExpr{To: t, V: v})
	return nil
}

func (b *block) lowerSelect(ins *ir.InstSelect) error {
	cond, err := b.getExpr(ins.Cond)
	if err != nil {
		return err
	}
	x, err := b.getExpr(ins.ValueTrue)
	if err != nil {
		return err
	}
	y, err := b.getExpr(ins.ValueFalse)
	if err != nil {
		return err
	}
	b.fn.createExpr(ins, &cexpr.SelectExpr{Cond: cond, Then: x, Else: y, Typ: x.Type()})
	return nil
}

// lowerGep builds the index chain of a getelementptr, resolving struct
// field names as it walks the indexed type.
func (b *block) lowerGep(key value.Value, src value.Value, indices []value.Value) error {
	base, err := b.getExpr(src)
	if err != nil {
		return err
	}
	pt, ok := src.Type().(*types.PointerType)
	if !ok {
		return fmt.Errorf("%w: getelementptr base is not a pointer", ErrMalformedIR)
	}
	if len(indices) == 0 {
		b.fn.createExpr(key, base)
		return nil
	}

	gep := &cexpr.GepExpr{Base: base}
	cur := pt.ElemType

	if isConstZero(indices[0]) {
		// A lone zero index is the base pointer itself.
		if len(indices) == 1 {
			b.fn.createExpr(key, base)
			return nil
		}
		gep.BaseElided = true
	} else {
		idx, err := b.getExpr(indices[0])
		if err != nil {
			return err
		}
		et, err := b.fn.prog.getType(cur)
		if err != nil {
			return err
		}
		gep.Levels = append(gep.Levels, cexpr.GepLevel{Elem: et, Index: idx})
	}

	for _, ix := range indices[1:] {
		switch t := cur.(type) {
		case *types.ArrayType:
			idx, err := b.getExpr(ix)
			if err != nil {
				return err
			}
			cur = t.ElemType
			et, err := b.fn.prog.getType(cur)
			if err != nil {
				return err
			}
			gep.Levels = append(gep.Levels, cexpr.GepLevel{Elem: et, Index: idx})
		case *types.StructType:
			ci, ok := ix.(*constant.Int)
			if !ok {
				return fmt.Errorf("%w: non-constant getelementptr index on a struct", ErrMalformedIR)
			}
			i := int(ci.X.Int64())
			if i < 0 || i >= len(t.Fields) {
				return fmt.Errorf("%w: getelementptr struct index %d out of range", ErrMalformedIR, i)
			}
			s, err := b.fn.prog.structByIRType(t)
			if err != nil {
				return err
			}
			cur = t.Fields[i]
			et, err := b.fn.prog.getType(cur)
			if err != nil {
				return err
			}
			gep.Levels = append(gep.Levels, cexpr.GepLevel{Elem: et, Field: s.FieldName(i)})
		default:
			return fmt.Errorf("%w: getelementptr index into non-aggregate type", ErrMalformedIR)
		}
	}

	et, err := b.fn.prog.getType(cur)
	if err != nil {
		return err
	}
	gep.Typ = ctypes.Pointer{Elem: et}
	b.fn.createExpr(key, gep)
	return nil
}

func (b *block) lowerExtractValue(ins *ir.InstExtractValue) error {
	base, err := b.getExpr(ins.X)
	if err != nil {
		return err
	}
	e := &cexpr.ExtractValueExpr{Base: base}
	cur := ins.X.Type()
	for _, ix := range ins.Indices {
		switch t := cur.(type) {
		case *types.StructType:
			if int(ix) >= len(t.Fields) {
				return fmt.Errorf("%w: extractvalue index %d out of range", ErrMalformedIR, ix)
			}
			s, err := b.fn.prog.structByIRType(t)
			if err != nil {
				return err
			}
			cur = t.Fields[ix]
			et, err := b.fn.prog.getType(cur)
			if err != nil {
				return err
			}
			e.Levels = append(e.Levels, cexpr.GepLevel{Elem: et, Field: s.FieldName(int(ix))})
		case *types.ArrayType:
			cur = t.ElemType
			et, err := b.fn.prog.getType(cur)
			if err != nil {
				return err
			}
			idx := cexpr.NewLiteral(fmt.Sprintf("%d", ix), ctypes.Int{})
			e.Levels = append(e.Levels, cexpr.GepLevel{Elem: et, Index: idx})
		default:
			return fmt.Errorf("%w: extractvalue index into non-aggregate type", ErrMalformedIR)
		}
	}
	b.fn.createExpr(ins, e)
	return nil
}

// lowerPhi introduces a mutable variable for the merge point and defers the
// predecessor assignments until every block has been lowered.
func (b *block) lowerPhi(ins *ir.InstPhi) error {
	t, err := b.fn.prog.getType(ins.Typ)
	if err != nil {
		return err
	}
	v := b.newLocal(t)
	b.fn.createExpr(ins, v)
	for _, inc := range ins.Incs {
		pred := termBlock(inc.Pred)
		if pred == nil {
			return fmt.Errorf("%w: phi predecessor is not a basic block", ErrMalformedIR)
		}
		b.fn.phis = append(b.fn.phis, phiFix{val: v, inc: inc.X, pred: pred})
	}
	return nil
}

func (b *block) lowerTerm(term ir.Terminator) error {
	switch term := term.(type) {
	case *ir.TermRet:
		if term.X == nil {
			b.addTerm(&cexpr.RetExpr{})
			return nil
		}
		v, err := b.getExpr(term.X)
		if err != nil {
			return err
		}
		b.addTerm(&cexpr.RetExpr{Val: v})
		return nil
	case *ir.TermBr:
		target := termBlock(term.Target)
		if target == nil {
			return fmt.Errorf("%w: branch target is not a basic block", ErrMalformedIR)
		}
		b.addTerm(&cexpr.IfExpr{Then: b.fn.blockName(target)})
		return nil
	case *ir.TermCondBr:
		cond, err := b.getExpr(term.Cond)
		if err != nil {
			return err
		}
		tt, tf := termBlock(term.TargetTrue), termBlock(term.TargetFalse)
		if tt == nil || tf == nil {
			return fmt.Errorf("%w: branch target is not a basic block", ErrMalformedIR)
		}
		b.addTerm(&cexpr.IfExpr{
			Cond: cond,
			Then: b.fn.blockName(tt),
			Else: b.fn.blockName(tf),
		})
		return nil
	case *ir.TermSwitch:
		scrut, err := b.getExpr(term.X)
		if err != nil {
			return err
		}
		td := termBlock(term.TargetDefault)
		if td == nil {
			return fmt.Errorf("%w: switch default target is not a basic block", ErrMalformedIR)
		}
		sw := &cexpr.SwitchExpr{Cond: scrut, Default: b.fn.blockName(td)}
		for _, c := range term.Cases {
			ci, ok := c.X.(*constant.Int)
			if !ok {
				return fmt.Errorf("%w: non-integer switch case", ErrMalformedIR)
			}
			ct := termBlock(c.Target)
			if ct == nil {
				return fmt.Errorf("%w: switch case target is not a basic block", ErrMalformedIR)
			}
			sw.Cases = append(sw.Cases, cexpr.SwitchCase{
				Value: ci.X.String(),
				Label: b.fn.blockName(ct),
			})
		}
		b.addTerm(sw)
		return nil
	case *ir.TermUnreachable:
		// Nothing to emit; control cannot reach here.
		return nil
	}
	return fmt.Errorf("%w: terminator %T", ErrUnsupported, term)
}

// castUnsigned wraps e in a cast to the unsigned form of its own type. A
// type that is already unsigned, or not an integer, passes through.
func castUnsigned(e cexpr.Expr) cexpr.Expr {
	t := e.Type()
	u := ctypes.Unsign(t)
	if ctypes.Equal(u, t) {
		return e
	}
	return &cexpr.CastExpr{To: u, V: e}
}

func icmpOp(pred enum.IPred) (op string, unsigned bool, err error) {
	switch pred {
	case enum.IPredEQ:
		return "==", false, nil
	case enum.IPredNE:
		return "!=", false, nil
	case enum.IPredSGT:
		return ">", false, nil
	case enum.IPredSGE:
		return ">=", false, nil
	case enum.IPredSLT:
		return "<", false, nil
	case enum.IPredSLE:
		return "<=", false, nil
	case enum.IPredUGT:
		return ">", true, nil
	case enum.IPredUGE:
		return ">=", true, nil
	case enum.IPredULT:
		return "<", true, nil
	case enum.IPredULE:
		return "<=", true, nil
	}
	return "", false, fmt.Errorf("%w: icmp predicate %v", ErrUnsupported, pred)
}

func fcmpOp(pred enum.FPred) (string, error) {
	switch pred {
	case enum.FPredOEQ, enum.FPredUEQ:
		return "==", nil
	case enum.FPredONE, enum.FPredUNE:
		return "!=", nil
	case enum.FPredOGT, enum.FPredUGT:
		return ">", nil
	case enum.FPredOGE, enum.FPredUGE:
		return ">=", nil
	case enum.FPredOLT, enum.FPredULT:
		return "<", nil
	case enum.FPredOLE, enum.FPredULE:
		return "<=", nil
	}
	return "", fmt.Errorf("%w: fcmp predicate %v", ErrUnsupported, pred)
}

func isConstZero(v value.Value) bool {
	c, ok := v.(*constant.Int)
	return ok && c.X.Sign() == 0
}

// termBlock unwraps a branch target or phi predecessor to its basic block.
func termBlock(v interface{}) *ir.Block {
	b, _ := v.(*ir.Block)
	return b
}

// write emits the block's statements, one per line.
func (b *block) write(w io.Writer) {
	for _, e := range b.exprs {
		io.WriteString(w, "\t")
		e.WriteC(w)
		if cexpr.IsBlockStmt(e) {
			io.WriteString(w, "\n")
		} else {
			io.WriteString(w, ";\n")
		}
	}
}

