package ctypes

import "testing"

func TestTypeString(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		wantStr string
	}{
		{"void", Void{}, "void"},
		{"char", Char{}, "char"},
		{"unsigned char", Char{Unsigned: true}, "unsigned char"},
		{"short", Short{}, "short"},
		{"int", Int{}, "int"},
		{"unsigned int", Int{Unsigned: true}, "unsigned int"},
		{"long", Long{}, "long"},
		{"uint128", UInt128{}, "unsigned __int128"},
		{"float", Float{}, "float"},
		{"double", Double{}, "double"},
		{"long double", LongDouble{}, "long double"},
		{"pointer to int", Pointer{Elem: Int{}}, "int*"},
		{"pointer to pointer", Pointer{Elem: Pointer{Elem: Char{}}}, "char**"},
		{"array of int", Array{Elem: Int{}, Len: 10}, "int[10]"},
		{"struct ref", StructRef{Name: "s_point"}, "struct s_point"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.typ.String(); got != tt.wantStr {
				t.Errorf("String() = %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func TestDeclare(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		want string
	}{
		{"int", Int{}, "int x"},
		{"pointer", Pointer{Elem: Int{}}, "int *x"},
		{"array", Array{Elem: Int{}, Len: 10}, "int x[10]"},
		{"nested array", Array{Elem: Array{Elem: Int{}, Len: 3}, Len: 2}, "int x[2][3]"},
		{"array of pointers", Array{Elem: Pointer{Elem: Char{}}, Len: 4}, "char *x[4]"},
		{"pointer to array", Pointer{Elem: Array{Elem: Int{}, Len: 10}}, "int (*x)[10]"},
		{"struct array", Array{Elem: StructRef{Name: "s_point"}, Len: 2}, "struct s_point x[2]"},
		{
			"function pointer",
			Pointer{Elem: Func{Ret: Int{}, Params: []Type{Int{}, Char{}}}},
			"int (*x)(int, char)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Declare(tt.typ, "x"); got != tt.want {
				t.Errorf("Declare() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTypeEquality(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Type
		equal bool
	}{
		{"int == int", Int{}, Int{}, true},
		{"int != unsigned int", Int{}, Int{Unsigned: true}, false},
		{"int != long", Int{}, Long{}, false},
		{"void == void", Void{}, Void{}, true},
		{"pointer to int == pointer to int", Pointer{Elem: Int{}}, Pointer{Elem: Int{}}, true},
		{"pointer to int != pointer to char", Pointer{Elem: Int{}}, Pointer{Elem: Char{}}, false},
		{"array sizes differ", Array{Elem: Int{}, Len: 10}, Array{Elem: Int{}, Len: 20}, false},
		{"struct A == struct A", StructRef{Name: "s_a"}, StructRef{Name: "s_a"}, true},
		{"struct A != struct B", StructRef{Name: "s_a"}, StructRef{Name: "s_b"}, false},
		{"nil == nil", nil, nil, true},
		{"nil != int", nil, Int{}, false},
		{
			"pointer flags do not affect equality",
			Pointer{Elem: Int{}, IsArrayPointer: true},
			Pointer{Elem: Int{}},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.equal {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.equal)
			}
		})
	}
}

func TestUnsign(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		want Type
	}{
		{"char", Char{}, Char{Unsigned: true}},
		{"short", Short{}, Short{Unsigned: true}},
		{"int", Int{}, Int{Unsigned: true}},
		{"long", Long{}, Long{Unsigned: true}},
		{"already unsigned", Int{Unsigned: true}, Int{Unsigned: true}},
		{"double unchanged", Double{}, Double{}},
		{"pointer unchanged", Pointer{Elem: Int{}}, Pointer{Elem: Int{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Unsign(tt.typ); !Equal(got, tt.want) {
				t.Errorf("Unsign(%v) = %v, want %v", tt.typ, got, tt.want)
			}
		})
	}
}
