// Package codegen implements the IR generator (spec §4.4): it walks a
// parsed Module's functions and lowers each ParsedToken body to LLVM IR
// via llir/llvm (github.com/llir/llvm), generalizing the teacher's single
// growing-map LLVMCodegen (internal/codegen/llvm.go) to the target-slot
// lowering protocol this spec's two-pass stack allocation strategy
// requires.
package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/dshills/alas/internal/ast"
	"github.com/dshills/alas/internal/config"
	"github.com/dshills/alas/internal/diag"
	"github.com/dshills/alas/internal/token"
	"github.com/dshills/alas/internal/types"
)

// fogType is a local, readable alias for the source language's Type,
// distinguishing it at a glance from the llir/llvm irtypes.Type it lowers
// to throughout this package.
type fogType = types.Type

var boolType = types.Bool

func isVoidType(t fogType) bool { return t.Kind == types.KindVoid }

func litType(v *ast.Value) fogType { return types.Primitive(v.Kind) }

func arrayTypeOf(init *ast.ArrayInitialization) fogType {
	return types.NewArray(init.ElementType, len(init.Elements))
}

// loopCtx tracks the break/continue targets of the loop currently being
// lowered (spec §3 ControlFlow); entering a nested loop pushes a new
// frame, consulted by NodeControlFlow.
type loopCtx struct {
	breakTo, continueTo *ir.Block
}

// Codegen is the IR generator's running state: the module under
// construction, resolved signatures and custom types, and the declared
// LLVM functions, structs, and enums built up as GenerateModule proceeds
// (generalized from the teacher's LLVMCodegen fields).
type Codegen struct {
	module      *ir.Module
	cfg         *config.BuildConfig
	funcs       map[string]*ir.Func
	sigs        map[string]*ast.FunctionSignature
	customTypes map[string]*ast.CustomType
	structTypes map[string]irtypes.Type
}

// New creates a Codegen ready to receive one Module via GenerateModule.
func New(cfg *config.BuildConfig) *Codegen {
	return &Codegen{
		module:      ir.NewModule(),
		cfg:         cfg,
		funcs:       make(map[string]*ir.Func),
		sigs:        make(map[string]*ast.FunctionSignature),
		customTypes: make(map[string]*ast.CustomType),
		structTypes: make(map[string]irtypes.Type),
	}
}

// GenerateModule lowers every function in mod (own, imported, and
// external) to IR, in the order spec §6 requires: custom types first, so
// every function signature below can reference them; then every
// signature is declared so forward/mutually-recursive calls resolve;
// finally every function body with a non-external, non-imported
// definition is lowered.
func (g *Codegen) GenerateModule(mod *ast.Module) (*ir.Module, error) {
	g.module.SourceFilename = mod.Name
	if g.cfg != nil && g.cfg.TargetTriple != "" {
		g.module.TargetTriple = g.cfg.TargetTriple
	}

	for name, ct := range mod.Types {
		g.customTypes[name] = ct
		if err := g.declareCustomType(ct); err != nil {
			return nil, err
		}
	}

	for _, ex := range mod.Externs {
		if err := g.declareSignature(ex); err != nil {
			return nil, err
		}
	}
	for _, fn := range mod.Imported {
		if err := g.declareSignature(fn.Sig); err != nil {
			return nil, err
		}
	}
	for _, fn := range mod.Functions {
		if err := g.declareSignature(fn.Sig); err != nil {
			return nil, err
		}
	}

	for _, fn := range mod.Functions {
		if err := g.generateFunction(fn); err != nil {
			return nil, err
		}
	}
	return g.module, nil
}

func (g *Codegen) declareCustomType(ct *ast.CustomType) error {
	switch ct.Kind {
	case ast.TypeKindStruct:
		fieldTypes := make([]irtypes.Type, len(ct.Ty.Fields))
		for i, f := range ct.Ty.Fields {
			ft, err := g.convertType(f.Type)
			if err != nil {
				return fmt.Errorf("field %q of struct %q: %w", f.Name, ct.Name, err)
			}
			fieldTypes[i] = ft
		}
		st := irtypes.NewStruct(fieldTypes...)
		st.TypeName = ct.Name
		g.module.TypeDefs = append(g.module.TypeDefs, st)
		g.structTypes[ct.Name] = st
	case ast.TypeKindEnum:
		disc, err := g.convertType(*ct.Ty.Discrim)
		if err != nil {
			return err
		}
		g.structTypes[ct.Name] = disc
	}
	return nil
}

func (g *Codegen) declareSignature(sig *ast.FunctionSignature) error {
	if _, exists := g.sigs[sig.Name]; exists {
		return nil
	}
	g.sigs[sig.Name] = sig
	retTy, err := g.convertType(sig.Returns)
	if err != nil {
		return fmt.Errorf("function %q return type: %w", sig.Name, err)
	}
	fn := g.module.NewFunc(sig.Name, retTy)
	for _, p := range sig.Params {
		pt, err := g.convertType(p.Type)
		if err != nil {
			return fmt.Errorf("function %q parameter %q: %w", sig.Name, p.Name, err)
		}
		fn.Params = append(fn.Params, ir.NewParam(p.Name, pt))
	}
	g.funcs[sig.Name] = fn
	return nil
}

// convertType maps the source language's value universe onto LLVM IR
// types (spec §4.4), generalizing the teacher's string-keyed convertType
// switch to this AST's structured Type.
func (g *Codegen) convertType(t fogType) (irtypes.Type, error) {
	switch t.Kind {
	case types.KindI64, types.KindU64:
		return irtypes.I64, nil
	case types.KindI32, types.KindU32:
		return irtypes.I32, nil
	case types.KindI16, types.KindU16:
		return irtypes.I16, nil
	case types.KindU8:
		return irtypes.I8, nil
	case types.KindF64:
		return irtypes.Double, nil
	case types.KindF32:
		return irtypes.Float, nil
	case types.KindF16:
		return irtypes.Half, nil
	case types.KindBool:
		return irtypes.I1, nil
	case types.KindString:
		return irtypes.I8Ptr, nil
	case types.KindVoid:
		return irtypes.Void, nil
	case types.KindStruct:
		if st, ok := g.structTypes[t.StructName]; ok {
			return st, nil
		}
		return nil, diag.New(diag.InvalidSignatureDefinition, token.Span{}, "unknown struct type %q", t.StructName)
	case types.KindEnum:
		if st, ok := g.structTypes[t.EnumName]; ok {
			return st, nil
		}
		return nil, diag.New(diag.InvalidSignatureDefinition, token.Span{}, "unknown enum type %q", t.EnumName)
	case types.KindArray:
		elem, err := g.convertType(*t.Elem)
		if err != nil {
			return nil, err
		}
		return irtypes.NewArray(uint64(t.Length), elem), nil
	case types.KindPointer:
		if t.Pointee == nil {
			return irtypes.I8Ptr, nil
		}
		pointee, err := g.convertType(*t.Pointee)
		if err != nil {
			return nil, err
		}
		return irtypes.NewPointer(pointee), nil
	default:
		return nil, diag.New(diag.InvalidSignatureDefinition, token.Span{}, "unconvertible type %q", t)
	}
}

// generateFunction lowers one function's body. The entry block receives
// every stack slot the body will ever use (buildAllocTable) before a
// single statement is lowered, so loop bodies only ever Store into
// already-allocated slots (spec §4.4).
func (g *Codegen) generateFunction(fn *ast.Function) error {
	llvmFn := g.funcs[fn.Sig.Name]
	entry := llvmFn.NewBlock("entry")

	table, err := g.buildAllocTable(entry, fn.Body)
	if err != nil {
		return fmt.Errorf("function %q: %w", fn.Sig.Name, err)
	}
	for i, p := range fn.Sig.Params {
		irTy, err := g.convertType(p.Type)
		if err != nil {
			return err
		}
		slot := entry.NewAlloca(irTy)
		slot.SetName(p.Name + ".addr")
		entry.NewStore(llvmFn.Params[i], slot)
		table.vars[p.ID] = slot
	}

	lw := &lowerer{g: g, fn: fn.Sig, table: table}
	cur, terminated, err := lw.statements(entry, fn.Body)
	if err != nil {
		return fmt.Errorf("function %q: %w", fn.Sig.Name, err)
	}
	if !terminated {
		if isVoidType(fn.Sig.Returns) {
			cur.NewRet(nil)
		} else {
			zero, err := g.zeroValue(fn.Sig.Returns)
			if err != nil {
				return err
			}
			cur.NewRet(zero)
		}
	}
	return nil
}

func (g *Codegen) zeroValue(t fogType) (value.Value, error) {
	irTy, err := g.convertType(t)
	if err != nil {
		return nil, err
	}
	return zeroConstant(irTy)
}
