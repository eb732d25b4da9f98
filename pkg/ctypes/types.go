// Package ctypes defines the C type system that LLVM types are lowered into.
package ctypes

import (
	"fmt"
	"strings"
)

// Type is the interface for all C types
type Type interface {
	implType()
	String() string
}

// Void represents the void type
type Void struct{}

// Char represents the char type
type Char struct {
	Unsigned bool
}

// Short represents the short type
type Short struct {
	Unsigned bool
}

// Int represents the int type
type Int struct {
	Unsigned bool
}

// Long represents the long type
type Long struct {
	Unsigned bool
}

// UInt128 represents the 128-bit extended integer type
type UInt128 struct{}

// Float represents the float type
type Float struct{}

// Double represents the double type
type Double struct{}

// LongDouble represents the long double type (x86_fp80)
type LongDouble struct{}

// Pointer represents pointer types. The struct and array markers let the
// emitter hoist struct definitions that a field reaches only through a
// pointer-to-array.
type Pointer struct {
	Elem            Type
	IsStructPointer bool
	IsArrayPointer  bool
	StructName      string
}

// Array represents array types. IsStructArray marks an array whose element
// is a named struct, so the emitter can order that struct's definition first.
type Array struct {
	Elem          Type
	Len           uint64
	IsStructArray bool
	StructName    string
}

// StructRef is a reference to a named struct or union by its C name
// (including the s_/u_ prefix).
type StructRef struct {
	Name string
}

// AnonStruct is a structurally-typed LLVM struct with no symbolic name,
// carried as its printed body and emitted inline.
type AnonStruct struct {
	Body string
}

// Func represents function types
type Func struct {
	Ret    Type
	Params []Type
}

// Marker methods for Type interface
func (Void) implType()       {}
func (Char) implType()       {}
func (Short) implType()      {}
func (Int) implType()        {}
func (Long) implType()       {}
func (UInt128) implType()    {}
func (Float) implType()      {}
func (Double) implType()     {}
func (LongDouble) implType() {}
func (Pointer) implType()    {}
func (Array) implType()      {}
func (StructRef) implType()  {}
func (AnonStruct) implType() {}
func (Func) implType()       {}

func signName(unsigned bool, name string) string {
	if unsigned {
		return "unsigned " + name
	}
	return name
}

// String methods for types
func (Void) String() string       { return "void" }
func (t Char) String() string     { return signName(t.Unsigned, "char") }
func (t Short) String() string    { return signName(t.Unsigned, "short") }
func (t Int) String() string      { return signName(t.Unsigned, "int") }
func (t Long) String() string     { return signName(t.Unsigned, "long") }
func (UInt128) String() string    { return "unsigned __int128" }
func (Float) String() string      { return "float" }
func (Double) String() string     { return "double" }
func (LongDouble) String() string { return "long double" }

func (t Pointer) String() string { return t.Elem.String() + "*" }

func (t Array) String() string { return fmt.Sprintf("%s[%d]", t.Elem, t.Len) }

func (t StructRef) String() string { return "struct " + t.Name }

func (t AnonStruct) String() string { return t.Body }

func (t Func) String() string {
	params := make([]string, len(t.Params))
	for i, p := range t.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("%s (*)(%s)", t.Ret, strings.Join(params, ", "))
}

// Declare renders a C declarator for a variable of type t named name,
// handling the inside-out syntax of arrays, pointers to arrays and
// function pointers.
func Declare(t Type, name string) string {
	switch t := t.(type) {
	case Array:
		return Declare(t.Elem, fmt.Sprintf("%s[%d]", name, t.Len))
	case Pointer:
		switch t.Elem.(type) {
		case Array, Func:
			return Declare(t.Elem, "(*"+name+")")
		}
		return Declare(t.Elem, "*"+name)
	case Func:
		params := make([]string, len(t.Params))
		for i, p := range t.Params {
			params[i] = p.String()
		}
		return Declare(t.Ret, fmt.Sprintf("%s(%s)", name, strings.Join(params, ", ")))
	default:
		return t.String() + " " + name
	}
}

// Equal reports whether two types are structurally equal.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch a := a.(type) {
	case Pointer:
		bp, ok := b.(Pointer)
		return ok && Equal(a.Elem, bp.Elem)
	case Array:
		ba, ok := b.(Array)
		return ok && a.Len == ba.Len && Equal(a.Elem, ba.Elem)
	case Func:
		bf, ok := b.(Func)
		if !ok || !Equal(a.Ret, bf.Ret) || len(a.Params) != len(bf.Params) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], bf.Params[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// IsInteger reports whether t is one of the integer types.
func IsInteger(t Type) bool {
	switch t.(type) {
	case Char, Short, Int, Long, UInt128:
		return true
	}
	return false
}

// Unsign returns the unsigned counterpart of an integer type. Non-integer
// types are returned unchanged.
func Unsign(t Type) Type {
	switch t := t.(type) {
	case Char:
		t.Unsigned = true
		return t
	case Short:
		t.Unsigned = true
		return t
	case Int:
		t.Unsigned = true
		return t
	case Long:
		t.Unsigned = true
		return t
	}
	return t
}
