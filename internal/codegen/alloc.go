package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"

	"github.com/dshills/alas/internal/ast"
)

// allocTable holds every stack slot a function body will ever write to,
// computed once against the function's entry block before any statement
// is lowered. Grounded on original_source/crates/codegen/src/allocate.rs
// (create_alloca_table / fetch_alloca_ptr): walking the whole body up
// front and allocating each declared variable exactly once means a loop
// body never re-executes an `alloca`, which — unlike a fixed-size stack
// slot hoisted to the entry block — would grow the stack on every
// iteration if emitted inline.
type allocTable struct {
	vars  map[ast.VarID]value.Value
	temps map[*ast.ParsedToken]value.Value
}

// buildAllocTable walks body (recursing into if/loop nested blocks) and
// pre-allocates one stack slot per declared variable and one per
// value-producing expression node, all in entry, before any node is
// lowered (spec §4.4 Stack allocation strategy).
func (g *Codegen) buildAllocTable(entry *ir.Block, body []ast.ParsedToken) (*allocTable, error) {
	t := &allocTable{vars: make(map[ast.VarID]value.Value), temps: make(map[*ast.ParsedToken]value.Value)}
	if err := g.walkAlloc(entry, t, body); err != nil {
		return nil, err
	}
	return t, nil
}

func (g *Codegen) walkAlloc(entry *ir.Block, t *allocTable, body []ast.ParsedToken) error {
	for i := range body {
		if err := g.allocNode(entry, t, &body[i]); err != nil {
			return err
		}
	}
	return nil
}

// allocNode is fetch_alloca_ptr generalized across this AST's node set:
// every node able to produce a usable value gets a slot (unless it's a
// NewVariable, whose slot is keyed by VarID so later RefBasic lookups can
// find it), then the walk recurses into its children.
func (g *Codegen) allocNode(entry *ir.Block, t *allocTable, n *ast.ParsedToken) error {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case ast.NodeNewVariable:
		irTy, err := g.convertType(n.NewVar.Type)
		if err != nil {
			return err
		}
		slot := entry.NewAlloca(irTy)
		slot.SetName(n.NewVar.Name)
		t.vars[n.NewVar.ID] = slot
		return g.allocNode(entry, t, n.NewVar.Initializer)

	case ast.NodeLiteral:
		return g.allocTemp(entry, t, n, litType(n.Lit))

	case ast.NodeVariableReference:
		return nil // aliases an existing slot; never allocates its own

	case ast.NodeTypeCast:
		if err := g.allocNode(entry, t, n.Cast.Inner); err != nil {
			return err
		}
		return g.allocTemp(entry, t, n, n.Cast.Target)

	case ast.NodeMathematicalExpression:
		if err := g.allocNode(entry, t, n.Math.Left); err != nil {
			return err
		}
		if err := g.allocNode(entry, t, n.Math.Right); err != nil {
			return err
		}
		return g.allocTemp(entry, t, n, n.Math.OperandType)

	case ast.NodeComparison:
		if err := g.allocNode(entry, t, n.Cmp.Left); err != nil {
			return err
		}
		if err := g.allocNode(entry, t, n.Cmp.Right); err != nil {
			return err
		}
		return g.allocTemp(entry, t, n, boolType)

	case ast.NodeFunctionCall:
		for _, key := range n.Call.ArgOrder {
			if err := g.allocNode(entry, t, n.Call.Args[key]); err != nil {
				return err
			}
		}
		if !isVoidType(n.Call.Signature.Returns) {
			return g.allocTemp(entry, t, n, n.Call.Signature.Returns)
		}
		return nil

	case ast.NodeSetValue:
		if err := g.allocRef(entry, t, n.Set.Destination); err != nil {
			return err
		}
		return g.allocNode(entry, t, n.Set.Value)

	case ast.NodeReturnValue:
		return g.allocNode(entry, t, n.Return.Value)

	case ast.NodeIf:
		if err := g.allocNode(entry, t, n.If.Condition); err != nil {
			return err
		}
		if err := g.walkAlloc(entry, t, n.If.TrueBranch); err != nil {
			return err
		}
		return g.walkAlloc(entry, t, n.If.FalseBranch)

	case ast.NodeLoop:
		return g.walkAlloc(entry, t, n.Loop.Body)

	case ast.NodeControlFlow:
		return nil

	case ast.NodeArrayIndexing:
		if err := g.allocNode(entry, t, n.Index.Container); err != nil {
			return err
		}
		if err := g.allocNode(entry, t, n.Index.Idx); err != nil {
			return err
		}
		return g.allocTemp(entry, t, n, n.Index.ElemType)

	case ast.NodeArrayInitialization:
		for i := range n.ArrayInit.Elements {
			if err := g.allocNode(entry, t, &n.ArrayInit.Elements[i]); err != nil {
				return err
			}
		}
		arrTy := arrayTypeOf(n.ArrayInit)
		return g.allocTemp(entry, t, n, arrTy)

	case ast.NodeStructInitialization:
		for _, name := range n.StructInit.FieldOrder {
			if err := g.allocNode(entry, t, n.StructInit.Fields[name]); err != nil {
				return err
			}
		}
		return g.allocTemp(entry, t, n, n.StructInit.StructType)

	case ast.NodeGetPointerTo, ast.NodeDerefPointer:
		if err := g.allocNode(entry, t, n.PointerOp.Operand); err != nil {
			return err
		}
		return g.allocTemp(entry, t, n, n.PointerOp.ResultType)
	}
	return nil
}

// allocRef walks an assignment destination's RefField/RefIndex chain,
// allocating a slot for any index sub-expression along the way — an index
// assignment's index (e.g. `a[2] = 5;`) produces a temp exactly like the
// same expression would in value position, and resolveRef (pointer.go)
// lowers it the same way, so it needs the same pre-allocated slot.
func (g *Codegen) allocRef(entry *ir.Block, t *allocTable, ref *ast.VariableReference) error {
	if ref == nil {
		return nil
	}
	switch ref.RefKind {
	case ast.RefField:
		return g.allocRef(entry, t, ref.Base)
	case ast.RefIndex:
		if err := g.allocRef(entry, t, ref.Base); err != nil {
			return err
		}
		return g.allocNode(entry, t, ref.IndexOf)
	}
	return nil
}

func (g *Codegen) allocTemp(entry *ir.Block, t *allocTable, n *ast.ParsedToken, ty fogType) error {
	irTy, err := g.convertType(ty)
	if err != nil {
		return err
	}
	slot := entry.NewAlloca(irTy)
	t.temps[n] = slot
	return nil
}
