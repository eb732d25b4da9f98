// Package cgen translates a parsed LLVM module into a C translation unit.
// The entry points are Translate and TranslateModule; the result is a
// Program that prints itself to a sink.
package cgen

import (
	"fmt"
	"strings"

	"github.com/llir/llvm/ir/types"

	"github.com/raymyers/ll2c/pkg/ctypes"
)

// typeHandler lowers LLVM types to C types. Unnamed struct types are routed
// through the owning Program so their identity is shared across uses.
type typeHandler struct {
	prog *Program
}

// getType lowers an LLVM type. When voidType is set, integers of two to
// eight bits lower to void instead of char (i1 still lowers to int).
// Program.getType always passes false; a void debug type is applied after
// lowering, by voidifyPointer.
func (h *typeHandler) getType(t types.Type, voidType bool) (ctypes.Type, error) {
	switch t := t.(type) {
	case *types.VoidType:
		return ctypes.Void{}, nil
	case *types.IntType:
		switch {
		case t.BitSize == 1:
			return ctypes.Int{}, nil
		case t.BitSize <= 8:
			if voidType {
				return ctypes.Void{}, nil
			}
			return ctypes.Char{}, nil
		case t.BitSize <= 16:
			return ctypes.Short{}, nil
		case t.BitSize <= 32:
			return ctypes.Int{}, nil
		case t.BitSize <= 64:
			return ctypes.Long{}, nil
		}
		return ctypes.UInt128{}, nil
	case *types.FloatType:
		switch t.Kind {
		case types.FloatKindFloat:
			return ctypes.Float{}, nil
		case types.FloatKindDouble:
			return ctypes.Double{}, nil
		case types.FloatKindX86_FP80:
			return ctypes.LongDouble{}, nil
		}
		return nil, fmt.Errorf("%w: float kind %v", ErrUnsupported, t.Kind)
	case *types.ArrayType:
		elem, err := h.getType(t.ElemType, voidType)
		if err != nil {
			return nil, err
		}
		arr := ctypes.Array{Elem: elem, Len: t.Len}
		if sr, ok := elem.(ctypes.StructRef); ok {
			arr.IsStructArray = true
			arr.StructName = sr.Name
		}
		return arr, nil
	case *types.PointerType:
		elem, err := h.getType(t.ElemType, voidType)
		if err != nil {
			return nil, err
		}
		ptr := ctypes.Pointer{Elem: elem}
		switch elem := elem.(type) {
		case ctypes.StructRef:
			ptr.IsStructPointer = true
			ptr.StructName = elem.Name
		case ctypes.Array:
			ptr.IsArrayPointer = true
			if elem.IsStructArray {
				ptr.IsStructPointer = true
				ptr.StructName = elem.StructName
			}
		}
		return ptr, nil
	case *types.StructType:
		return h.getStructType(t)
	case *types.FuncType:
		ret, err := h.getType(t.RetType, voidType)
		if err != nil {
			return nil, err
		}
		fn := ctypes.Func{Ret: ret}
		if len(t.Params) == 0 {
			fn.Params = []ctypes.Type{ctypes.Void{}}
			return fn, nil
		}
		for _, p := range t.Params {
			pt, err := h.getType(p, voidType)
			if err != nil {
				return nil, err
			}
			fn.Params = append(fn.Params, pt)
		}
		return fn, nil
	}
	return nil, fmt.Errorf("%w: type %v", ErrUnsupported, t)
}

func (h *typeHandler) getStructType(t *types.StructType) (ctypes.Type, error) {
	name := t.Name()
	if name == "" {
		s, err := h.prog.createUnnamedStruct(t)
		if err != nil {
			return nil, err
		}
		return ctypes.AnonStruct{Body: s.Body()}, nil
	}

	if name == "struct.__va_list_tag" {
		h.prog.hasVarArg = true
		return ctypes.StructRef{Name: "__va_list_tag"}, nil
	}

	return ctypes.StructRef{Name: structName(name)}, nil
}

// structName rewrites an identified IR struct name into its C name:
// struct.point becomes s_point, union.u becomes u_u.
func structName(irName string) string {
	if rest, ok := strings.CutPrefix(irName, "struct."); ok {
		return "s_" + rest
	}
	if rest, ok := strings.CutPrefix(irName, "union."); ok {
		return "u_" + rest
	}
	return "s_" + irName
}
