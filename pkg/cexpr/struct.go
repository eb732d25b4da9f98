package cexpr

import (
	"io"
	"strings"

	"github.com/raymyers/ll2c/pkg/ctypes"
)

// StructItem is one field of a lowered struct. Field order matches the IR
// layout.
type StructItem struct {
	Typ  ctypes.Type
	Name string
}

// Struct is a lowered named or anonymous struct. IsUnion marks types that
// carried a union. prefix in the IR; the definition still uses the struct
// keyword because LLVM has already flattened the union to its storage
// layout. IsPrinted gates the definition to once per output pass.
type Struct struct {
	Name      string
	IsUnion   bool
	Items     []StructItem
	IsPrinted bool
}

// AddItem appends a field.
func (s *Struct) AddItem(t ctypes.Type, name string) {
	s.Items = append(s.Items, StructItem{Typ: t, Name: name})
}

// WriteC writes the struct definition.
func (s *Struct) WriteC(w io.Writer) {
	io.WriteString(w, "struct")
	if s.Name != "" {
		io.WriteString(w, " "+s.Name)
	}
	io.WriteString(w, " {\n")
	for _, it := range s.Items {
		io.WriteString(w, "\t"+ctypes.Declare(it.Typ, it.Name)+";\n")
	}
	io.WriteString(w, "};\n")
}

// Body returns the inline form used when the struct has no name and is
// spelled out at each use site.
func (s *Struct) Body() string {
	var sb strings.Builder
	sb.WriteString("struct {\n")
	for _, it := range s.Items {
		sb.WriteString("\t" + ctypes.Declare(it.Typ, it.Name) + ";\n")
	}
	sb.WriteString("}")
	return sb.String()
}

// FieldName returns the name of field i, or "" when out of range.
func (s *Struct) FieldName(i int) string {
	if i < 0 || i >= len(s.Items) {
		return ""
	}
	return s.Items[i].Name
}
