package cgen

import (
	"fmt"
	"io"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"

	"github.com/raymyers/ll2c/pkg/cexpr"
	"github.com/raymyers/ll2c/pkg/ctypes"
)

// phiFix records one pending phi assignment: pred must assign the lowered
// form of inc to val immediately before its terminator.
type phiFix struct {
	val  *cexpr.Value
	inc  value.Value
	pred *ir.Block
}

// Func holds the per-function lowering state: the synthetic name counters,
// the IR-value to AET-node memoization map and the lowered blocks.
type Func struct {
	prog   *Program
	irFunc *ir.Func
	isDecl bool

	retType ctypes.Type
	params  []*cexpr.Value

	varCount   int
	blockCount int

	exprMap    map[value.Value]cexpr.Expr
	blocks     map[*ir.Block]*block
	blockOrder []*block

	phis []phiFix
}

func newFunc(prog *Program, irFunc *ir.Func, isDecl bool) (*Func, error) {
	fn := &Func{
		prog:    prog,
		irFunc:  irFunc,
		isDecl:  isDecl,
		exprMap: make(map[value.Value]cexpr.Expr),
		blocks:  make(map[*ir.Block]*block),
	}

	ret, err := prog.getType(irFunc.Sig.RetType)
	if err != nil {
		return nil, err
	}
	fn.retType = ret

	for _, param := range irFunc.Params {
		t, err := prog.getType(param.Typ)
		if err != nil {
			return nil, err
		}
		v := &cexpr.Value{Name: fn.varName(), Typ: t}
		fn.exprMap[param] = v
		fn.params = append(fn.params, v)
	}

	if isDecl {
		return fn, nil
	}

	for _, b := range irFunc.Blocks {
		fn.blockName(b)
	}
	for _, b := range fn.blockOrder {
		if err := b.lower(); err != nil {
			return nil, err
		}
	}
	if err := fn.resolvePhis(); err != nil {
		return nil, err
	}
	return fn, nil
}

// varName returns the next synthetic variable name.
func (fn *Func) varName() string {
	name := fmt.Sprintf("var%d", fn.varCount)
	fn.varCount++
	return name
}

// blockName returns the label of an IR block, creating the lowered block on
// first sight.
func (fn *Func) blockName(irBlock *ir.Block) string {
	if b, ok := fn.blocks[irBlock]; ok {
		return b.name
	}
	b := &block{
		name:    fmt.Sprintf("block%d", fn.blockCount),
		irBlock: irBlock,
		fn:      fn,
		termIdx: -1,
	}
	fn.blockCount++
	fn.blocks[irBlock] = b
	fn.blockOrder = append(fn.blockOrder, b)
	return b.name
}

// getExpr returns the memoized node for an IR value, or nil on a miss.
func (fn *Func) getExpr(val value.Value) cexpr.Expr {
	return fn.exprMap[val]
}

// createExpr memoizes a node against the IR value that produced it.
func (fn *Func) createExpr(val value.Value, e cexpr.Expr) {
	fn.exprMap[val] = e
}

// resolvePhis lowers the deferred phi incomings. Deferral is what allows an
// incoming value to be defined in a block that is lowered after the phi
// itself; by now every value has a node.
func (fn *Func) resolvePhis() error {
	for _, fix := range fn.phis {
		pred, ok := fn.blocks[fix.pred]
		if !ok {
			return fmt.Errorf("%w: phi predecessor is not a block of the function", ErrMalformedIR)
		}
		e, err := pred.getExpr(fix.inc)
		if err != nil {
			return err
		}
		pred.insertBeforeTerm(&cexpr.EqualsExpr{Lhs: fix.val, Rhs: e})
	}
	return nil
}

func (fn *Func) unsetAllInit() {
	for _, v := range fn.params {
		v.Init = false
	}
	for _, b := range fn.blockOrder {
		b.unsetAllInit()
	}
}

// write emits the function declaration or definition.
func (fn *Func) write(w io.Writer) {
	io.WriteString(w, fn.retType.String()+" "+fn.irFunc.Name()+"(")
	if len(fn.params) == 0 {
		io.WriteString(w, "void")
	}
	for i, v := range fn.params {
		if i > 0 {
			io.WriteString(w, ", ")
		}
		v.WriteC(w)
	}
	if fn.irFunc.Sig.Variadic {
		io.WriteString(w, ", ...")
	}
	if fn.isDecl {
		io.WriteString(w, ");\n")
		return
	}

	io.WriteString(w, ") {\n")
	for i, b := range fn.blockOrder {
		// The entry block needs no label.
		if i > 0 {
			io.WriteString(w, b.name+":\n")
		}
		b.write(w)
	}
	io.WriteString(w, "}\n\n")
}
