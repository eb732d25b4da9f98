// Package cexpr defines the C-level abstract expression tree that LLVM
// instructions are lowered into. The tree is a DAG: a node is owned by the
// function that produced it and may be referenced from every use site.
// Each node knows how to print itself as C.
package cexpr

import (
	"io"

	"github.com/raymyers/ll2c/pkg/ctypes"
)

// Expr is the interface for all AET nodes.
type Expr interface {
	implExpr()
	// Type returns the C type of the expression, or nil for statement forms.
	Type() ctypes.Type
	// WriteC writes the C rendition of the node, without a trailing
	// semicolon or newline.
	WriteC(w io.Writer)
}

// Value is a named C variable. Init records whether its declaration has been
// emitted in the current output pass: the first statement-position write
// produces a declaration, every later write produces just the name.
type Value struct {
	Name string
	Typ  ctypes.Type
	Init bool
}

// NewLiteral returns a Value standing for a constant literal. Literals never
// need a declaration, so Init starts set.
func NewLiteral(text string, t ctypes.Type) *Value {
	return &Value{Name: text, Typ: t, Init: true}
}

// RefExpr is the address-of operator.
type RefExpr struct {
	Target Expr
}

// DerefExpr is a load or pointer dereference.
type DerefExpr struct {
	Target Expr
}

// EqualsExpr is a C assignment.
type EqualsExpr struct {
	Lhs Expr
	Rhs Expr
}

// BinaryOp enumerates the binary operators produced by lowering.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
)

func (op BinaryOp) String() string {
	names := []string{"+", "-", "*", "/", "%", "&", "|", "^", "<<", ">>"}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// BinExpr is a binary arithmetic or bitwise expression. Typ carries the
// usual-arithmetic-conversions join of the operand types.
type BinExpr struct {
	Op  BinaryOp
	Lhs Expr
	Rhs Expr
	Typ ctypes.Type
}

// CmpExpr is a comparison; Op is the C comparison operator.
type CmpExpr struct {
	Op  string
	Lhs Expr
	Rhs Expr
}

// CastExpr is an explicit C cast.
type CastExpr struct {
	To ctypes.Type
	V  Expr
}

// CallExpr is a function call, direct by name or indirect through Callee.
type CallExpr struct {
	Name   string
	Callee Expr
	Args   []Expr
	Typ    ctypes.Type
	VarArg bool
}

// GepLevel is one step of a getelementptr chain. Index is the subscript
// expression for pointer and array levels; Field names the member for
// struct levels. Elem records the element type selected at this level.
type GepLevel struct {
	Elem  ctypes.Type
	Index Expr
	Field string
}

// GepExpr is the address computed by a getelementptr chain. BaseElided
// records that the leading zero index was folded away, so the chain starts
// at the pointee of Base.
type GepExpr struct {
	Base       Expr
	BaseElided bool
	Levels     []GepLevel
	Typ        ctypes.Type
}

// SelectExpr is the C conditional operator.
type SelectExpr struct {
	Cond Expr
	Then Expr
	Else Expr
	Typ  ctypes.Type
}

// SwitchCase pairs a case value with its target label.
type SwitchCase struct {
	Value string
	Label string
}

// SwitchExpr is a C switch over block labels.
type SwitchExpr struct {
	Cond    Expr
	Cases   []SwitchCase
	Default string
}

// IfExpr is a branch between block labels. A nil Cond is an unconditional
// goto to Then.
type IfExpr struct {
	Cond Expr
	Then string
	Else string
}

// RetExpr is a C return statement.
type RetExpr struct {
	Val Expr
}

// ExtractValueExpr selects a member chain out of an aggregate value.
type ExtractValueExpr struct {
	Base   Expr
	Levels []GepLevel
}

// AsmOperand pairs an inline-asm constraint with its C operand.
type AsmOperand struct {
	Constraint string
	Target     Expr
}

// AsmExpr is a GCC extended inline assembly statement.
type AsmExpr struct {
	Template string
	Outputs  []AsmOperand
	Inputs   []AsmOperand
	Clobbers []string
	Volatile bool
}

// GlobalValue is a module-level variable. Init records whether its
// definition has been emitted in the current pass; Static mirrors private
// IR linkage.
type GlobalValue struct {
	Name   string
	Typ    ctypes.Type
	Value  string
	Init   bool
	Static bool
}

func (*Value) implExpr()            {}
func (*RefExpr) implExpr()          {}
func (*DerefExpr) implExpr()        {}
func (*EqualsExpr) implExpr()       {}
func (*BinExpr) implExpr()          {}
func (*CmpExpr) implExpr()          {}
func (*CastExpr) implExpr()         {}
func (*CallExpr) implExpr()         {}
func (*GepExpr) implExpr()          {}
func (*SelectExpr) implExpr()       {}
func (*SwitchExpr) implExpr()       {}
func (*IfExpr) implExpr()           {}
func (*RetExpr) implExpr()          {}
func (*ExtractValueExpr) implExpr() {}
func (*AsmExpr) implExpr()          {}
func (*GlobalValue) implExpr()      {}

func (v *Value) Type() ctypes.Type      { return v.Typ }
func (e *RefExpr) Type() ctypes.Type    { return ctypes.Pointer{Elem: e.Target.Type()} }
func (e *EqualsExpr) Type() ctypes.Type { return e.Lhs.Type() }
func (e *BinExpr) Type() ctypes.Type    { return e.Typ }
func (e *CmpExpr) Type() ctypes.Type    { return ctypes.Int{} }
func (e *CastExpr) Type() ctypes.Type   { return e.To }
func (e *CallExpr) Type() ctypes.Type   { return e.Typ }
func (e *GepExpr) Type() ctypes.Type    { return e.Typ }
func (e *SelectExpr) Type() ctypes.Type { return e.Typ }
func (*SwitchExpr) Type() ctypes.Type   { return nil }
func (*IfExpr) Type() ctypes.Type       { return nil }
func (*RetExpr) Type() ctypes.Type      { return nil }
func (*AsmExpr) Type() ctypes.Type      { return nil }
func (g *GlobalValue) Type() ctypes.Type {
	return g.Typ
}

func (e *DerefExpr) Type() ctypes.Type {
	switch t := e.Target.Type().(type) {
	case ctypes.Pointer:
		return t.Elem
	case ctypes.Array:
		return t.Elem
	}
	return nil
}

func (e *ExtractValueExpr) Type() ctypes.Type {
	if len(e.Levels) == 0 {
		return e.Base.Type()
	}
	return e.Levels[len(e.Levels)-1].Elem
}
