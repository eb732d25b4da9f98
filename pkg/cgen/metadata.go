package cgen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/metadata"
	"github.com/llir/llvm/ir/value"

	"github.com/raymyers/ll2c/pkg/cexpr"
	"github.com/raymyers/ll2c/pkg/ctypes"
)

// diDepthLimit bounds the typedef chain walk in malformed metadata.
const diDepthLimit = 64

// setMetadataInfo consumes an llvm.dbg.declare call. The described variable
// gets its source-level name back, unsignedness from the debug type is
// propagated to its C type, and a void typedef chain turns a lowered char
// pointer back into void*. The call itself emits nothing.
func (b *block) setMetadataInfo(ins *ir.InstCall) error {
	if len(ins.Args) < 2 {
		return nil
	}
	addr := unwrapMetadataValue(ins.Args[0])
	local := unwrapLocalVar(ins.Args[1])
	if addr == nil || local == nil {
		return nil
	}

	ref, ok := b.fn.getExpr(addr).(*cexpr.RefExpr)
	if !ok {
		return nil
	}
	v, ok := ref.Target.(*cexpr.Value)
	if !ok {
		return nil
	}

	if local.Name != "" {
		v.Name = local.Name
	}
	if isUnsignedDI(local.Type, 0) {
		v.Typ = ctypes.Unsign(v.Typ)
	}
	if isVoidDI(local.Type, 0) {
		v.Typ = voidifyPointer(v.Typ)
	}
	return nil
}

func unwrapMetadataValue(arg value.Value) value.Value {
	mv, ok := arg.(*metadata.Value)
	if !ok {
		return nil
	}
	v, _ := mv.Value.(value.Value)
	return v
}

func unwrapLocalVar(arg value.Value) *metadata.DILocalVariable {
	mv, ok := arg.(*metadata.Value)
	if !ok {
		return nil
	}
	local, _ := mv.Value.(*metadata.DILocalVariable)
	return local
}

// isUnsignedDI walks derived types down to the base type and reports an
// unsigned encoding.
func isUnsignedDI(f metadata.Field, depth int) bool {
	if depth > diDepthLimit {
		return false
	}
	switch t := f.(type) {
	case *metadata.DIBasicType:
		return t.Encoding == enum.DwarfAttEncodingUnsigned ||
			t.Encoding == enum.DwarfAttEncodingUnsignedChar
	case *metadata.DIDerivedType:
		return isUnsignedDI(t.BaseType, depth+1)
	}
	return false
}

// isVoidDI reports a typedef or pointer chain that bottoms out in no base
// type at all, which is how debug info spells void.
func isVoidDI(f metadata.Field, depth int) bool {
	if depth > diDepthLimit {
		return false
	}
	t, ok := f.(*metadata.DIDerivedType)
	if !ok {
		return false
	}
	if t.BaseType == nil {
		return true
	}
	return isVoidDI(t.BaseType, depth+1)
}

// voidifyPointer rewrites a char pointer to void*; debug info said the
// eight-bit pointee really is void.
func voidifyPointer(t ctypes.Type) ctypes.Type {
	p, ok := t.(ctypes.Pointer)
	if !ok {
		return t
	}
	if _, ok := p.Elem.(ctypes.Char); ok {
		p.Elem = ctypes.Void{}
	}
	return p
}
