package codegen

import (
	"strings"
	"testing"

	irtypes "github.com/llir/llvm/ir/types"

	"github.com/dshills/alas/internal/config"
	"github.com/dshills/alas/internal/types"
)

func TestConvertTypePrimitives(t *testing.T) {
	g := New(config.NewBuildConfig(nil, false, "", ""))
	cases := []struct {
		in   types.Type
		want irtypes.Type
	}{
		{types.I64, irtypes.I64},
		{types.I32, irtypes.I32},
		{types.U8, irtypes.I8},
		{types.F64, irtypes.Double},
		{types.F32, irtypes.Float},
		{types.Bool, irtypes.I1},
		{types.Void, irtypes.Void},
		{types.String, irtypes.I8Ptr},
	}
	for _, c := range cases {
		got, err := g.convertType(c.in)
		if err != nil {
			t.Fatalf("%v: unexpected error: %v", c.in, err)
		}
		if got.String() != c.want.String() {
			t.Errorf("%v: got %v want %v", c.in, got, c.want)
		}
	}
}

func TestConvertTypeArrayAndPointer(t *testing.T) {
	g := New(config.NewBuildConfig(nil, false, "", ""))
	arr, err := g.convertType(types.NewArray(types.I32, 3))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(arr.String(), "3 x") {
		t.Fatalf("expected a 3-element array type, got %v", arr)
	}

	ptr, err := g.convertType(types.NewPointer(&types.I32))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ptr.(*irtypes.PointerType); !ok {
		t.Fatalf("expected a pointer type, got %v", ptr)
	}
}

func TestConvertTypeUnknownStructFails(t *testing.T) {
	g := New(config.NewBuildConfig(nil, false, "", ""))
	unknown := types.Type{Kind: types.KindStruct, StructName: "Missing"}
	if _, err := g.convertType(unknown); err == nil {
		t.Fatal("expected an error for an undeclared struct type")
	}
}

func TestZeroConstantIntAndFloat(t *testing.T) {
	if _, err := zeroConstant(irtypes.I32); err != nil {
		t.Fatalf("unexpected error zeroing an int type: %v", err)
	}
	if _, err := zeroConstant(irtypes.Double); err != nil {
		t.Fatalf("unexpected error zeroing a float type: %v", err)
	}
	if _, err := zeroConstant(irtypes.NewPointer(irtypes.I32)); err != nil {
		t.Fatalf("unexpected error zeroing a pointer type: %v", err)
	}
}
