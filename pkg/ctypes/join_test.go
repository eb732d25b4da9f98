package ctypes

import "testing"

func TestBinaryJoin(t *testing.T) {
	tests := []struct {
		name string
		l, r Type
		want Type
	}{
		{"int + int", Int{}, Int{}, Int{}},
		{"int + long", Int{}, Long{}, Long{}},
		{"char + short", Char{}, Short{}, Short{}},
		{"int + double", Int{}, Double{}, Double{}},
		{"float + double", Float{}, Double{}, Double{}},
		{"float + long", Float{}, Long{}, Float{}},
		{"long double wins", LongDouble{}, Double{}, LongDouble{}},
		{"uint128 over long", UInt128{}, Long{}, UInt128{}},
		{"signedness from winner", Int{}, Long{Unsigned: true}, Long{Unsigned: true}},
		{"unsigned int + long", Int{Unsigned: true}, Long{}, Long{}},
		{"char + char", Char{}, Char{Unsigned: true}, Char{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BinaryJoin(tt.l, tt.r)
			if !ok {
				t.Fatalf("BinaryJoin(%v, %v) failed", tt.l, tt.r)
			}
			if !Equal(got, tt.want) {
				t.Errorf("BinaryJoin(%v, %v) = %v, want %v", tt.l, tt.r, got, tt.want)
			}
		})
	}
}

// The result rank never depends on operand order; only signedness may
// differ when both operands share the winning rank.
func TestBinaryJoinCommutative(t *testing.T) {
	ladder := []Type{
		Char{}, Char{Unsigned: true},
		Short{}, Short{Unsigned: true},
		Int{}, Int{Unsigned: true},
		Long{}, Long{Unsigned: true},
		UInt128{}, Float{}, Double{}, LongDouble{},
	}
	for _, l := range ladder {
		for _, r := range ladder {
			lr, ok1 := BinaryJoin(l, r)
			rl, ok2 := BinaryJoin(r, l)
			if !ok1 || !ok2 {
				t.Fatalf("BinaryJoin(%v, %v) failed", l, r)
			}
			if !Equal(Unsign(lr), Unsign(rl)) {
				t.Errorf("rank differs: BinaryJoin(%v, %v) = %v but BinaryJoin(%v, %v) = %v",
					l, r, lr, r, l, rl)
			}
		}
	}
}

func TestBinaryJoinNonArithmetic(t *testing.T) {
	tests := []struct {
		name string
		l, r Type
	}{
		{"two pointers", Pointer{Elem: Int{}}, Pointer{Elem: Int{}}},
		{"void and void", Void{}, Void{}},
		{"struct and struct", StructRef{Name: "s_a"}, StructRef{Name: "s_b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, ok := BinaryJoin(tt.l, tt.r); ok {
				t.Errorf("BinaryJoin(%v, %v) = %v, want failure", tt.l, tt.r, got)
			}
		})
	}
}
