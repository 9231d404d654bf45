package types

import "testing"

func TestEqualStructuralForPrimitives(t *testing.T) {
	if !I32.Equal(I32) {
		t.Fatal("expected I32 to equal itself")
	}
	if I32.Equal(I64) {
		t.Fatal("expected I32 and I64 to differ")
	}
}

func TestEqualStructsByNameAndFields(t *testing.T) {
	a := NewStruct("P", []StructField{{Name: "x", Type: I32}, {Name: "y", Type: I32}})
	b := NewStruct("P", []StructField{{Name: "x", Type: I32}, {Name: "y", Type: I32}})
	c := NewStruct("Q", []StructField{{Name: "x", Type: I32}, {Name: "y", Type: I32}})
	if !a.Equal(b) {
		t.Fatal("expected structurally identical named structs to be equal")
	}
	if a.Equal(c) {
		t.Fatal("expected structs with different names to differ")
	}
}

func TestEqualArraysByElemAndLength(t *testing.T) {
	a := NewArray(I32, 3)
	b := NewArray(I32, 3)
	c := NewArray(I32, 4)
	if !a.Equal(b) {
		t.Fatal("expected same-element same-length arrays to be equal")
	}
	if a.Equal(c) {
		t.Fatal("expected different-length arrays to differ")
	}
}

func TestFieldIndexAndFieldType(t *testing.T) {
	p := NewStruct("P", []StructField{{Name: "x", Type: I32}, {Name: "y", Type: F64}})
	if idx := p.FieldIndex("y"); idx != 1 {
		t.Fatalf("expected field \"y\" at index 1, got %d", idx)
	}
	if idx := p.FieldIndex("z"); idx != -1 {
		t.Fatalf("expected -1 for an absent field, got %d", idx)
	}
	ty, ok := p.FieldType("x")
	if !ok || !ty.Equal(I32) {
		t.Fatalf("expected field \"x\" to be i32, got %v ok=%v", ty, ok)
	}
}

func TestIsCompositeAndIsNumeric(t *testing.T) {
	if !NewArray(I32, 2).IsComposite() || !NewStruct("P", nil).IsComposite() {
		t.Fatal("expected array and struct types to be composite")
	}
	if I32.IsComposite() || Bool.IsComposite() {
		t.Fatal("expected primitive types not to be composite")
	}
	if !I32.IsNumeric() || !F64.IsNumeric() {
		t.Fatal("expected integer and float kinds to be numeric")
	}
	if Bool.IsNumeric() || String.IsNumeric() {
		t.Fatal("expected bool and string not to be numeric")
	}
}

func TestBitWidth(t *testing.T) {
	cases := []struct {
		ty   Type
		want int
	}{{I64, 64}, {U32, 32}, {I16, 16}, {U8, 8}, {Bool, 1}, {String, 0}}
	for _, c := range cases {
		if got := c.ty.BitWidth(); got != c.want {
			t.Errorf("%v: got %d want %d", c.ty, got, c.want)
		}
	}
}

func TestVariantValue(t *testing.T) {
	en := NewEnum("Color", U32, []EnumVariant{{Name: "Red", Value: 0}, {Name: "Blue", Value: 9}})
	v, ok := en.VariantValue("Blue")
	if !ok || v != 9 {
		t.Fatalf("expected variant Blue=9, got %d ok=%v", v, ok)
	}
	if _, ok := en.VariantValue("Green"); ok {
		t.Fatal("expected unknown variant lookup to fail")
	}
}

func TestStringRepresentation(t *testing.T) {
	if NewPointer(&I32).String() != "$i32" {
		t.Fatalf("got %q", NewPointer(&I32).String())
	}
	if NewPointer(nil).String() != "$void" {
		t.Fatalf("got %q", NewPointer(nil).String())
	}
	if NewArray(I32, 3).String() != "array<i32, 3>" {
		t.Fatalf("got %q", NewArray(I32, 3).String())
	}
}
