package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/dshills/alas/internal/ast"
	"github.com/dshills/alas/internal/diag"
	"github.com/dshills/alas/internal/token"
)

// resolveRef walks a VariableReference chain (basic name, struct field,
// array index) down to the pointer it ultimately denotes, generalizing
// the teacher's flat g.variables map lookup to the chained reference form
// this AST supports, grounded on
// original_source/language-crates/codegen/src/pointer.rs's
// access_nested_struct_field_ptr.
func (lw *lowerer) resolveRef(blk *ir.Block, ref *ast.VariableReference) (value.Value, irtypes.Type, error) {
	switch ref.RefKind {
	case ast.RefBasic:
		ptr, ok := lw.table.vars[ref.ID]
		if !ok {
			return nil, nil, diag.New(diag.InternalVariableNotFound, token.Span{}, "variable %q has no allocated slot", ref.Name)
		}
		irTy, err := lw.g.convertType(ref.Ty)
		if err != nil {
			return nil, nil, err
		}
		return ptr, irTy, nil

	case ast.RefField:
		basePtr, _, err := lw.resolveRef(blk, ref.Base)
		if err != nil {
			return nil, nil, err
		}
		baseIrTy, err := lw.g.convertType(ref.Base.Ty)
		if err != nil {
			return nil, nil, err
		}
		idx := ref.Base.Ty.FieldIndex(ref.Field)
		if idx < 0 {
			return nil, nil, diag.New(diag.InternalStructFieldNotFound, token.Span{}, "struct %q has no field %q", ref.Base.Ty.StructName, ref.Field)
		}
		fieldPtr := blk.NewGetElementPtr(baseIrTy, basePtr,
			constant.NewInt(irtypes.I32, 0), constant.NewInt(irtypes.I32, int64(idx)))
		fieldIrTy, err := lw.g.convertType(ref.Ty)
		if err != nil {
			return nil, nil, err
		}
		return fieldPtr, fieldIrTy, nil

	case ast.RefIndex:
		basePtr, _, err := lw.resolveRef(blk, ref.Base)
		if err != nil {
			return nil, nil, err
		}
		baseIrTy, err := lw.g.convertType(ref.Base.Ty)
		if err != nil {
			return nil, nil, err
		}
		idxPtr, idxIrTy, err := lw.lower(blk, ref.IndexOf, nil)
		if err != nil {
			return nil, nil, err
		}
		idxVal := blk.NewLoad(idxIrTy, idxPtr)
		elemPtr := blk.NewGetElementPtr(baseIrTy, basePtr,
			constant.NewInt(irtypes.I32, 0), idxVal)
		elemIrTy, err := lw.g.convertType(ref.Ty)
		if err != nil {
			return nil, nil, err
		}
		return elemPtr, elemIrTy, nil
	}
	return nil, nil, diag.New(diag.InternalVariableNotFound, token.Span{}, "malformed variable reference")
}
