package cgen

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/raymyers/ll2c/pkg/cexpr"
	"github.com/raymyers/ll2c/pkg/ctypes"
)

// Program owns the lowered form of one LLVM module: structs, globals,
// function declarations and function definitions, in IR iteration order.
type Program struct {
	mod   *ir.Module
	types typeHandler

	structs        []*cexpr.Struct
	unnamedStructs map[*types.StructType]*cexpr.Struct

	globals    []*cexpr.GlobalValue
	globalRefs map[*ir.Global]*cexpr.RefExpr

	funcs    []*Func
	decls    []*Func
	declared map[string]bool

	structVarCount int
	hasVarArg      bool
	stackIgnored   bool
	ptrSize        int
}

// Translate parses the LLVM IR file at path and lowers it. A file that
// cannot be read surfaces as the plain I/O error; ErrInput is reserved for
// IR that does not parse.
func Translate(path string) (*Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	mod, err := asm.ParseString(path, string(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInput, path, err)
	}
	return TranslateModule(mod)
}

// TranslateModule lowers an already-parsed module.
func TranslateModule(mod *ir.Module) (*Program, error) {
	p := &Program{
		mod:            mod,
		unnamedStructs: make(map[*types.StructType]*cexpr.Struct),
		globalRefs:     make(map[*ir.Global]*cexpr.RefExpr),
		declared:       make(map[string]bool),
		ptrSize:        64,
	}
	p.types = typeHandler{prog: p}
	if strings.Contains(mod.DataLayout, "p:32") {
		p.ptrSize = 32
	}

	if err := p.parseGlobalVars(); err != nil {
		return nil, err
	}
	if err := p.parseStructs(); err != nil {
		return nil, err
	}
	if err := p.parseFunctions(); err != nil {
		return nil, err
	}
	return p, nil
}

// StackIgnored reports whether a stacksave/stackrestore intrinsic was
// dropped during translation. It is a warning condition, not an error.
func (p *Program) StackIgnored() bool { return p.stackIgnored }

// FuncCount returns the number of translated function definitions.
func (p *Program) FuncCount() int { return len(p.funcs) }

func (p *Program) getType(t types.Type) (ctypes.Type, error) {
	return p.types.getType(t, false)
}

func (p *Program) parseGlobalVars() error {
	for _, gvar := range p.mod.Globals {
		t, err := p.getType(gvar.ContentType)
		if err != nil {
			return err
		}

		val := ""
		if gvar.Init != nil {
			val, err = p.constantLiteral(gvar.Init)
			if err != nil {
				return err
			}
		}

		g := &cexpr.GlobalValue{
			Name:   globalName(gvar.Name()),
			Typ:    t,
			Value:  val,
			Static: gvar.Linkage == enum.LinkagePrivate,
		}
		p.globals = append(p.globals, g)
		p.globalRefs[gvar] = &cexpr.RefExpr{Target: g}
	}
	return nil
}

func (p *Program) parseStructs() error {
	for _, def := range p.mod.TypeDefs {
		st, ok := def.(*types.StructType)
		if !ok || st.Name() == "" {
			continue
		}
		name := structName(st.Name())

		if name == "s___va_list_tag" {
			p.hasVarArg = true
			s := &cexpr.Struct{Name: "__va_list_tag"}
			s.AddItem(ctypes.Int{Unsigned: true}, "gp_offset")
			s.AddItem(ctypes.Int{Unsigned: true}, "fp_offset")
			s.AddItem(ctypes.Pointer{Elem: ctypes.Void{}}, "overflow_arg_area")
			s.AddItem(ctypes.Pointer{Elem: ctypes.Void{}}, "reg_save_area")
			p.structs = append(p.structs, s)
			continue
		}

		s := &cexpr.Struct{Name: name, IsUnion: strings.HasPrefix(st.Name(), "union.")}
		for _, ft := range st.Fields {
			t, err := p.getType(ft)
			if err != nil {
				return err
			}
			s.AddItem(t, p.structVarName())
		}
		p.structs = append(p.structs, s)
	}
	return nil
}

func (p *Program) parseFunctions() error {
	// Declarations first, so calls between definitions resolve; a call to
	// a function that is still undeclared at lowering time appends its
	// declaration through addDeclaration.
	for _, f := range p.mod.Funcs {
		if f.Name() == "" {
			continue
		}
		if len(f.Blocks) > 0 && f.Linkage != enum.LinkageInternal {
			continue
		}
		// Intrinsic declarations have no C rendition; calls to them are
		// rewritten by name instead.
		if strings.HasPrefix(f.Name(), "llvm.") {
			continue
		}
		p.declared[f.Name()] = true
		fn, err := newFunc(p, f, true)
		if err != nil {
			return err
		}
		p.decls = append(p.decls, fn)
	}

	for _, f := range p.mod.Funcs {
		if f.Name() == "" || len(f.Blocks) == 0 {
			continue
		}
		p.declared[f.Name()] = true
		fn, err := newFunc(p, f, false)
		if err != nil {
			return err
		}
		p.funcs = append(p.funcs, fn)
	}
	return nil
}

// addDeclaration appends an external declaration for a function that is
// called but not yet declared in the output.
func (p *Program) addDeclaration(f *ir.Func) error {
	if p.declared[f.Name()] {
		return nil
	}
	p.declared[f.Name()] = true
	fn, err := newFunc(p, f, true)
	if err != nil {
		return err
	}
	p.decls = append(p.decls, fn)
	return nil
}

func (p *Program) structVarName() string {
	name := fmt.Sprintf("structVar%d", p.structVarCount)
	p.structVarCount++
	return name
}

// globalName rewrites an IR global name into a C identifier.
func globalName(irName string) string {
	return strings.ReplaceAll(irName, ".", "_")
}

// getStruct finds a named struct. A miss is malformed input: the module
// referenced a struct it never defined.
func (p *Program) getStruct(name string) (*cexpr.Struct, error) {
	for _, s := range p.structs {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown struct %q", ErrMalformedIR, name)
}

// structByIRType resolves the lowered struct for an IR struct type, named
// or unnamed.
func (p *Program) structByIRType(st *types.StructType) (*cexpr.Struct, error) {
	if st.Name() == "" {
		if s, ok := p.unnamedStructs[st]; ok {
			return s, nil
		}
		return p.createUnnamedStruct(st)
	}
	if st.Name() == "struct.__va_list_tag" {
		return p.getStruct("__va_list_tag")
	}
	return p.getStruct(structName(st.Name()))
}

// createUnnamedStruct lowers an anonymous struct type once per identity.
func (p *Program) createUnnamedStruct(st *types.StructType) (*cexpr.Struct, error) {
	if s, ok := p.unnamedStructs[st]; ok {
		return s, nil
	}
	s := &cexpr.Struct{}
	// Register before lowering fields so self-references terminate.
	p.unnamedStructs[st] = s
	for _, ft := range st.Fields {
		t, err := p.getType(ft)
		if err != nil {
			return nil, err
		}
		s.AddItem(t, p.structVarName())
	}
	return s, nil
}

// getGlobalRef returns the address expression registered for an IR global,
// or nil when val is not a global.
func (p *Program) getGlobalRef(val value.Value) cexpr.Expr {
	if gv, ok := val.(*ir.Global); ok {
		if ref, ok := p.globalRefs[gv]; ok {
			return ref
		}
	}
	return nil
}

// unsetAllInit clears every per-pass flag so the same Program can be
// emitted more than once with identical output.
func (p *Program) unsetAllInit() {
	for _, g := range p.globals {
		g.Init = false
	}
	for _, s := range p.structs {
		s.IsPrinted = false
	}
	for _, s := range p.unnamedStructs {
		s.IsPrinted = false
	}
	for _, f := range p.decls {
		f.unsetAllInit()
	}
	for _, f := range p.funcs {
		f.unsetAllInit()
	}
}

// Print writes the translated module as C.
func (p *Program) Print(w io.Writer) error {
	p.unsetAllInit()

	if p.hasVarArg {
		fmt.Fprintf(w, "#include <stdarg.h>\n\n")
	}

	if len(p.structs) > 0 {
		fmt.Fprintf(w, "//Struct declarations\n")
		for _, s := range p.structs {
			fmt.Fprintf(w, "struct %s;\n", s.Name)
		}
		fmt.Fprintf(w, "\n//Struct definitions\n")
		for _, s := range p.structs {
			if err := p.printStruct(w, s); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "\n")
	}

	if len(p.globals) > 0 {
		fmt.Fprintf(w, "//Global variable declarations\n")
		for _, g := range p.globals {
			g.WriteDecl(w)
			fmt.Fprintf(w, "\n")
		}
		fmt.Fprintf(w, "\n//Global variable definitions\n")
		for _, g := range p.globals {
			g.WriteC(w)
			fmt.Fprintf(w, ";\n")
		}
		fmt.Fprintf(w, "\n")
	}

	if len(p.decls) > 0 {
		fmt.Fprintf(w, "//Function declarations\n")
		for _, f := range p.decls {
			f.write(w)
		}
		fmt.Fprintf(w, "\n")
	}

	if len(p.funcs) > 0 {
		fmt.Fprintf(w, "//Function definitions\n")
		for _, f := range p.funcs {
			f.write(w)
		}
	}
	return nil
}

// printStruct emits a struct definition after the definitions of every
// struct it holds by value, depth first.
func (p *Program) printStruct(w io.Writer, s *cexpr.Struct) error {
	if s.IsPrinted {
		return nil
	}
	s.IsPrinted = true

	for _, item := range s.Items {
		var dep string
		switch t := item.Typ.(type) {
		case ctypes.Array:
			if t.IsStructArray {
				dep = t.StructName
			}
		case ctypes.Pointer:
			if t.IsStructPointer && t.IsArrayPointer {
				dep = t.StructName
			}
		case ctypes.StructRef:
			dep = t.Name
		}
		if dep == "" {
			continue
		}
		ds, err := p.getStruct(dep)
		if err != nil {
			return err
		}
		if err := p.printStruct(w, ds); err != nil {
			return err
		}
	}

	s.WriteC(w)
	fmt.Fprintf(w, "\n")
	return nil
}

// Save writes the translated module to path, truncating any previous file.
func (p *Program) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(file)
	if err := p.Print(w); err != nil {
		file.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
