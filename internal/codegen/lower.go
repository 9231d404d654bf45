package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/dshills/alas/internal/ast"
	"github.com/dshills/alas/internal/diag"
	"github.com/dshills/alas/internal/types"
)

// lowerer walks one function's body, threading the pre-built allocTable
// (spec §4.4 Stack allocation strategy) through every node it lowers, and
// tracking the break/continue targets of any loop currently in scope.
type lowerer struct {
	g     *Codegen
	fn    *ast.FunctionSignature
	table *allocTable
	loops []loopCtx
}

// statements lowers an ordered statement list into blk, returning the
// block control falls through to afterward and whether that block
// already ends in a terminator (a return or loop-exit branch, per spec
// §4.3 "has at least one return" — full reachability past that point is
// the backend's concern, not the parser's).
func (lw *lowerer) statements(blk *ir.Block, body []ast.ParsedToken) (*ir.Block, bool, error) {
	cur := blk
	for i := range body {
		n := &body[i]
		var terminated bool
		var err error
		cur, terminated, err = lw.statement(cur, n)
		if err != nil {
			return nil, false, err
		}
		if terminated {
			return cur, true, nil
		}
	}
	return cur, false, nil
}

// statement lowers one top-level ParsedToken as a statement (spec §4.3
// Statement forms); expression-shaped nodes used as statements (bare
// function calls) simply have their produced value discarded.
func (lw *lowerer) statement(blk *ir.Block, n *ast.ParsedToken) (*ir.Block, bool, error) {
	switch n.Kind {
	case ast.NodeReturnValue:
		if n.Return.Value == nil {
			blk.NewRet(nil)
			return blk, true, nil
		}
		ptr, irTy, err := lw.lower(blk, n.Return.Value, nil)
		if err != nil {
			return nil, false, err
		}
		blk.NewRet(blk.NewLoad(irTy, ptr))
		return blk, true, nil

	case ast.NodeIf:
		return lw.lowerIf(blk, n)

	case ast.NodeLoop:
		return lw.lowerLoop(blk, n)

	case ast.NodeControlFlow:
		return lw.lowerControlFlow(blk, n)

	default:
		_, _, err := lw.lower(blk, n, nil)
		if err != nil {
			return nil, false, err
		}
		return blk, false, nil
	}
}

func (lw *lowerer) lowerIf(blk *ir.Block, n *ast.ParsedToken) (*ir.Block, bool, error) {
	condPtr, condTy, err := lw.lower(blk, n.If.Condition, nil)
	if err != nil {
		return nil, false, err
	}
	cond := blk.NewLoad(condTy, condPtr)

	parent := blk.Parent
	thenBlk := parent.NewBlock("if.then")
	var elseBlk *ir.Block
	mergeBlk := parent.NewBlock("if.end")

	if len(n.If.FalseBranch) > 0 {
		elseBlk = parent.NewBlock("if.else")
		blk.NewCondBr(cond, thenBlk, elseBlk)
	} else {
		blk.NewCondBr(cond, thenBlk, mergeBlk)
	}

	thenEnd, thenTerm, err := lw.statements(thenBlk, n.If.TrueBranch)
	if err != nil {
		return nil, false, err
	}
	if !thenTerm {
		thenEnd.NewBr(mergeBlk)
	}

	allTerm := thenTerm
	if elseBlk != nil {
		elseEnd, elseTerm, err := lw.statements(elseBlk, n.If.FalseBranch)
		if err != nil {
			return nil, false, err
		}
		if !elseTerm {
			elseEnd.NewBr(mergeBlk)
		}
		allTerm = thenTerm && elseTerm
	} else {
		allTerm = false // the implicit empty else always falls through to merge
	}

	if allTerm {
		// Both branches returned; mergeBlk is unreachable but still needs a
		// terminator.
		mergeBlk.NewUnreachable()
		return mergeBlk, true, nil
	}
	return mergeBlk, false, nil
}

func (lw *lowerer) lowerLoop(blk *ir.Block, n *ast.ParsedToken) (*ir.Block, bool, error) {
	parent := blk.Parent
	bodyBlk := parent.NewBlock("loop.body")
	afterBlk := parent.NewBlock("loop.end")
	blk.NewBr(bodyBlk)

	lw.loops = append(lw.loops, loopCtx{breakTo: afterBlk, continueTo: bodyBlk})
	bodyEnd, terminated, err := lw.statements(bodyBlk, n.Loop.Body)
	lw.loops = lw.loops[:len(lw.loops)-1]
	if err != nil {
		return nil, false, err
	}
	if !terminated {
		bodyEnd.NewBr(bodyBlk)
	}
	return afterBlk, false, nil
}

func (lw *lowerer) lowerControlFlow(blk *ir.Block, n *ast.ParsedToken) (*ir.Block, bool, error) {
	if len(lw.loops) == 0 {
		return nil, false, diag.New(diag.InvalidControlFlowUsage, n.Span, "break/continue outside of a loop")
	}
	top := lw.loops[len(lw.loops)-1]
	if n.Flow.Kind == ast.Break {
		blk.NewBr(top.breakTo)
	} else {
		blk.NewBr(top.continueTo)
	}
	return blk, true, nil
}

// lower is the target-slot lowering protocol (spec §4.4): every node
// lowers to a pointer, either the caller-supplied target or (when target
// is nil) the slot buildAllocTable already reserved for this node, so no
// lowering step ever calls NewAlloca outside the entry block.
func (lw *lowerer) lower(blk *ir.Block, n *ast.ParsedToken, target value.Value) (value.Value, irtypes.Type, error) {
	switch n.Kind {
	case ast.NodeLiteral:
		return lw.lowerLiteral(blk, n, target)

	case ast.NodeNewVariable:
		ptr := lw.table.vars[n.NewVar.ID]
		if _, _, err := lw.lower(blk, n.NewVar.Initializer, ptr); err != nil {
			return nil, nil, err
		}
		irTy, err := lw.g.convertType(n.NewVar.Type)
		return ptr, irTy, err

	case ast.NodeVariableReference:
		ptr, irTy, err := lw.resolveRef(blk, n.VarRef)
		if err != nil {
			return nil, nil, err
		}
		if target == nil {
			return ptr, irTy, nil
		}
		blk.NewStore(blk.NewLoad(irTy, ptr), target)
		return target, irTy, nil

	case ast.NodeSetValue:
		destPtr, destTy, err := lw.resolveRef(blk, n.Set.Destination)
		if err != nil {
			return nil, nil, err
		}
		if _, _, err := lw.lower(blk, n.Set.Value, destPtr); err != nil {
			return nil, nil, err
		}
		return destPtr, destTy, nil

	case ast.NodeMathematicalExpression:
		return lw.lowerMath(blk, n, target)

	case ast.NodeComparison:
		return lw.lowerComparison(blk, n, target)

	case ast.NodeTypeCast:
		return lw.lowerCast(blk, n, target)

	case ast.NodeFunctionCall:
		return lw.lowerCall(blk, n, target)

	case ast.NodeArrayIndexing:
		return lw.lowerIndexing(blk, n, target)

	case ast.NodeArrayInitialization:
		return lw.lowerArrayInit(blk, n, target)

	case ast.NodeStructInitialization:
		return lw.lowerStructInit(blk, n, target)

	case ast.NodeGetPointerTo:
		return lw.lowerGetPointerTo(blk, n, target)

	case ast.NodeDerefPointer:
		return lw.lowerDeref(blk, n, target)
	}
	return nil, nil, diag.New(diag.InvalidSignatureDefinition, n.Span, "node kind %d cannot be lowered as an expression", n.Kind)
}

func (lw *lowerer) dest(n *ast.ParsedToken, target value.Value) value.Value {
	if target != nil {
		return target
	}
	return lw.table.temps[n]
}

// lowerLiteral stores a literal's value into dst. String literals are
// handled separately from the other scalar kinds: grounded on the
// teacher's generateLiteral (internal/codegen/llvm.go), a string becomes an
// anonymous immutable global char-array def, and the value actually
// stored is a GEP'd pointer to its first byte, not the array constant
// itself — constantFor's int/float/bool constants store directly since
// their converted IR type already matches what dest expects.
func (lw *lowerer) lowerLiteral(blk *ir.Block, n *ast.ParsedToken, target value.Value) (value.Value, irtypes.Type, error) {
	dst := lw.dest(n, target)
	if n.Lit.Kind == types.KindString {
		ptr := lw.g.stringConstant(blk, n.Lit.S)
		blk.NewStore(ptr, dst)
		return dst, irtypes.I8Ptr, nil
	}
	irTy, err := lw.g.convertType(litType(n.Lit))
	if err != nil {
		return nil, nil, err
	}
	c, err := constantFor(irTy, n.Lit)
	if err != nil {
		return nil, nil, err
	}
	blk.NewStore(c, dst)
	return dst, irTy, nil
}

// stringConstant defines a new anonymous immutable global char array for s
// and returns a pointer to its first byte (spec §3 Literal: string values
// lower to i8*), grounded on the teacher's generateLiteral string case.
func (g *Codegen) stringConstant(blk *ir.Block, s string) value.Value {
	charArray := constant.NewCharArrayFromString(s + "\x00")
	global := g.module.NewGlobalDef("", charArray)
	global.Immutable = true
	return blk.NewGetElementPtr(charArray.Type(), global, constant.NewInt(irtypes.I64, 0), constant.NewInt(irtypes.I64, 0))
}

// constantFor builds the llir/llvm constant for one non-string literal
// Value against its converted IR type (spec §3 Literal).
func constantFor(irTy irtypes.Type, v *ast.Value) (constant.Constant, error) {
	switch {
	case v.Kind == types.KindBool:
		if v.B {
			return constant.NewInt(irtypes.I1, 1), nil
		}
		return constant.NewInt(irtypes.I1, 0), nil
	case types.Primitive(v.Kind).IsFloat():
		return constant.NewFloat(irTy.(*irtypes.FloatType), v.F), nil
	default:
		return constant.NewInt(irTy.(*irtypes.IntType), v.I), nil
	}
}

func zeroConstant(t irtypes.Type) (value.Value, error) {
	switch ty := t.(type) {
	case *irtypes.IntType:
		return constant.NewInt(ty, 0), nil
	case *irtypes.FloatType:
		return constant.NewFloat(ty, 0), nil
	case *irtypes.PointerType:
		return constant.NewNull(ty), nil
	case *irtypes.StructType:
		fields := make([]constant.Constant, len(ty.Fields))
		for i, ft := range ty.Fields {
			z, err := zeroConstant(ft)
			if err != nil {
				return nil, err
			}
			fields[i] = z.(constant.Constant)
		}
		return constant.NewStruct(ty, fields...), nil
	default:
		return constant.NewInt(irtypes.I64, 0), nil
	}
}

func (lw *lowerer) loadOperand(blk *ir.Block, n *ast.ParsedToken) (value.Value, irtypes.Type, error) {
	ptr, irTy, err := lw.lower(blk, n, nil)
	if err != nil {
		return nil, nil, err
	}
	return blk.NewLoad(irTy, ptr), irTy, nil
}

func (lw *lowerer) lowerMath(blk *ir.Block, n *ast.ParsedToken, target value.Value) (value.Value, irtypes.Type, error) {
	lval, _, err := lw.loadOperand(blk, n.Math.Left)
	if err != nil {
		return nil, nil, err
	}
	rval, _, err := lw.loadOperand(blk, n.Math.Right)
	if err != nil {
		return nil, nil, err
	}
	resTy, err := lw.g.convertType(n.Math.OperandType)
	if err != nil {
		return nil, nil, err
	}
	lval = coerce(blk, lval, resTy)
	rval = coerce(blk, rval, resTy)

	isFloat := n.Math.OperandType.IsFloat()
	isSigned := n.Math.OperandType.IsSignedInteger()
	var result value.Value
	switch n.Math.Op {
	case ast.MathAdd:
		if isFloat {
			result = blk.NewFAdd(lval, rval)
		} else {
			result = blk.NewAdd(lval, rval)
		}
	case ast.MathSub:
		if isFloat {
			result = blk.NewFSub(lval, rval)
		} else {
			result = blk.NewSub(lval, rval)
		}
	case ast.MathMul:
		if isFloat {
			result = blk.NewFMul(lval, rval)
		} else {
			result = blk.NewMul(lval, rval)
		}
	case ast.MathDiv:
		switch {
		case isFloat:
			result = blk.NewFDiv(lval, rval)
		case isSigned:
			result = blk.NewSDiv(lval, rval)
		default:
			result = blk.NewUDiv(lval, rval)
		}
	case ast.MathMod:
		switch {
		case isFloat:
			result = blk.NewFRem(lval, rval)
		case isSigned:
			result = blk.NewSRem(lval, rval)
		default:
			result = blk.NewURem(lval, rval)
		}
	case ast.MathAnd:
		result = blk.NewAnd(lval, rval)
	case ast.MathOr:
		result = blk.NewOr(lval, rval)
	default:
		return nil, nil, diag.New(diag.InvalidMathematicalValue, n.Span, "unknown math operator")
	}

	dst := lw.dest(n, target)
	blk.NewStore(result, dst)
	return dst, resTy, nil
}

func (lw *lowerer) lowerComparison(blk *ir.Block, n *ast.ParsedToken, target value.Value) (value.Value, irtypes.Type, error) {
	lval, _, err := lw.loadOperand(blk, n.Cmp.Left)
	if err != nil {
		return nil, nil, err
	}
	rval, _, err := lw.loadOperand(blk, n.Cmp.Right)
	if err != nil {
		return nil, nil, err
	}
	opTy, err := lw.g.convertType(n.Cmp.OperandType)
	if err != nil {
		return nil, nil, err
	}
	lval = coerce(blk, lval, opTy)
	rval = coerce(blk, rval, opTy)

	var result value.Value
	if n.Cmp.OperandType.IsFloat() {
		result = blk.NewFCmp(fpred(n.Cmp.Order), lval, rval)
	} else {
		result = blk.NewICmp(ipred(n.Cmp.Order, n.Cmp.OperandType.IsSignedInteger()), lval, rval)
	}

	dst := lw.dest(n, target)
	blk.NewStore(result, dst)
	return dst, irtypes.I1, nil
}

func ipred(o ast.Order, signed bool) enum.IPred {
	switch o {
	case ast.OrderEq:
		return enum.IPredEQ
	case ast.OrderNe:
		return enum.IPredNE
	case ast.OrderLt:
		if signed {
			return enum.IPredSLT
		}
		return enum.IPredULT
	case ast.OrderLe:
		if signed {
			return enum.IPredSLE
		}
		return enum.IPredULE
	case ast.OrderGt:
		if signed {
			return enum.IPredSGT
		}
		return enum.IPredUGT
	default:
		if signed {
			return enum.IPredSGE
		}
		return enum.IPredUGE
	}
}

func fpred(o ast.Order) enum.FPred {
	switch o {
	case ast.OrderEq:
		return enum.FPredOEQ
	case ast.OrderNe:
		return enum.FPredONE
	case ast.OrderLt:
		return enum.FPredOLT
	case ast.OrderLe:
		return enum.FPredOLE
	case ast.OrderGt:
		return enum.FPredOGT
	default:
		return enum.FPredOGE
	}
}

// coerce widens/narrows an already-loaded value to match ty when the two
// sides of a binary op were parsed against slightly different integer
// widths (the parser's commonType already agreed the kinds are numeric;
// this only reconciles width/signedness for the IR op).
func coerce(blk *ir.Block, v value.Value, ty irtypes.Type) value.Value {
	if v.Type().Equal(ty) {
		return v
	}
	switch want := ty.(type) {
	case *irtypes.FloatType:
		if _, ok := v.Type().(*irtypes.IntType); ok {
			return blk.NewSIToFP(v, want)
		}
	case *irtypes.IntType:
		if from, ok := v.Type().(*irtypes.IntType); ok {
			if from.BitSize < want.BitSize {
				return blk.NewSExt(v, want)
			}
			return blk.NewTrunc(v, want)
		}
	}
	return v
}

func (lw *lowerer) lowerCast(blk *ir.Block, n *ast.ParsedToken, target value.Value) (value.Value, irtypes.Type, error) {
	srcVal, _, err := lw.loadOperand(blk, n.Cast.Inner)
	if err != nil {
		return nil, nil, err
	}
	dstIrTy, err := lw.g.convertType(n.Cast.Target)
	if err != nil {
		return nil, nil, err
	}

	var result value.Value
	switch want := dstIrTy.(type) {
	case *irtypes.FloatType:
		if _, ok := srcVal.Type().(*irtypes.FloatType); ok {
			result = srcVal
		} else {
			result = blk.NewSIToFP(srcVal, want)
		}
	case *irtypes.IntType:
		switch from := srcVal.Type().(type) {
		case *irtypes.FloatType:
			result = blk.NewFPToSI(srcVal, want)
		case *irtypes.IntType:
			switch {
			case from.BitSize == want.BitSize:
				result = srcVal
			case from.BitSize < want.BitSize:
				result = blk.NewSExt(srcVal, want)
			default:
				result = blk.NewTrunc(srcVal, want)
			}
		default:
			result = srcVal
		}
	default:
		result = srcVal
	}

	dst := lw.dest(n, target)
	blk.NewStore(result, dst)
	return dst, dstIrTy, nil
}

func (lw *lowerer) lowerCall(blk *ir.Block, n *ast.ParsedToken, target value.Value) (value.Value, irtypes.Type, error) {
	callee, ok := lw.g.funcs[n.Call.Signature.Name]
	if !ok {
		return nil, nil, diag.New(diag.InternalFunctionNotFound, n.Span, "function %q was never declared", n.Call.Signature.Name)
	}
	args := make([]value.Value, len(n.Call.ArgOrder))
	for i, key := range n.Call.ArgOrder {
		av, _, err := lw.loadOperand(blk, n.Call.Args[key])
		if err != nil {
			return nil, nil, err
		}
		args[i] = av
	}
	call := blk.NewCall(callee, args...)

	if isVoidType(n.Call.Signature.Returns) {
		return nil, irtypes.Void, nil
	}
	retIrTy, err := lw.g.convertType(n.Call.Signature.Returns)
	if err != nil {
		return nil, nil, err
	}
	dst := lw.dest(n, target)
	blk.NewStore(call, dst)
	return dst, retIrTy, nil
}

func (lw *lowerer) lowerIndexing(blk *ir.Block, n *ast.ParsedToken, target value.Value) (value.Value, irtypes.Type, error) {
	containerPtr, containerIrTy, err := lw.lower(blk, n.Index.Container, nil)
	if err != nil {
		return nil, nil, err
	}
	idxVal, _, err := lw.loadOperand(blk, n.Index.Idx)
	if err != nil {
		return nil, nil, err
	}
	elemPtr := blk.NewGetElementPtr(containerIrTy, containerPtr,
		constant.NewInt(irtypes.I32, 0), idxVal)
	elemIrTy, err := lw.g.convertType(n.Index.ElemType)
	if err != nil {
		return nil, nil, err
	}
	dst := lw.dest(n, target)
	blk.NewStore(blk.NewLoad(elemIrTy, elemPtr), dst)
	return dst, elemIrTy, nil
}

func (lw *lowerer) lowerArrayInit(blk *ir.Block, n *ast.ParsedToken, target value.Value) (value.Value, irtypes.Type, error) {
	arrTy := arrayTypeOf(n.ArrayInit)
	arrIrTy, err := lw.g.convertType(arrTy)
	if err != nil {
		return nil, nil, err
	}
	dst := lw.dest(n, target)
	for i := range n.ArrayInit.Elements {
		elemPtr := blk.NewGetElementPtr(arrIrTy, dst,
			constant.NewInt(irtypes.I32, 0), constant.NewInt(irtypes.I32, int64(i)))
		if _, _, err := lw.lower(blk, &n.ArrayInit.Elements[i], elemPtr); err != nil {
			return nil, nil, err
		}
	}
	return dst, arrIrTy, nil
}

// lowerStructInit lowers a `TypeName { field = value, ... }` literal
// (spec §8 S3) by GEP-addressing each field of the destination struct and
// lowering that field's initializer directly into it, the same
// target-slot-per-field approach lowerArrayInit uses for element slots.
func (lw *lowerer) lowerStructInit(blk *ir.Block, n *ast.ParsedToken, target value.Value) (value.Value, irtypes.Type, error) {
	structTy := n.StructInit.StructType
	structIrTy, err := lw.g.convertType(structTy)
	if err != nil {
		return nil, nil, err
	}
	dst := lw.dest(n, target)
	for _, name := range n.StructInit.FieldOrder {
		idx := structTy.FieldIndex(name)
		if idx < 0 {
			return nil, nil, diag.New(diag.InternalStructFieldNotFound, n.Span, "struct %q has no field %q", structTy.StructName, name)
		}
		fieldPtr := blk.NewGetElementPtr(structIrTy, dst,
			constant.NewInt(irtypes.I32, 0), constant.NewInt(irtypes.I32, int64(idx)))
		if _, _, err := lw.lower(blk, n.StructInit.Fields[name], fieldPtr); err != nil {
			return nil, nil, err
		}
	}
	return dst, structIrTy, nil
}

func (lw *lowerer) lowerGetPointerTo(blk *ir.Block, n *ast.ParsedToken, target value.Value) (value.Value, irtypes.Type, error) {
	operandPtr, _, err := lw.lower(blk, n.PointerOp.Operand, nil)
	if err != nil {
		return nil, nil, err
	}
	resIrTy, err := lw.g.convertType(n.PointerOp.ResultType)
	if err != nil {
		return nil, nil, err
	}
	dst := lw.dest(n, target)
	blk.NewStore(operandPtr, dst)
	return dst, resIrTy, nil
}

func (lw *lowerer) lowerDeref(blk *ir.Block, n *ast.ParsedToken, target value.Value) (value.Value, irtypes.Type, error) {
	ptrVal, ptrIrTy, err := lw.loadOperand(blk, n.PointerOp.Operand)
	if err != nil {
		return nil, nil, err
	}
	pointeeIrTy, err := lw.g.convertType(n.PointerOp.ResultType)
	if err != nil {
		return nil, nil, err
	}
	if _, ok := ptrIrTy.(*irtypes.PointerType); !ok {
		return nil, nil, diag.New(diag.InvalidValueDereference, n.Span, "dereference target is not a pointer")
	}
	dst := lw.dest(n, target)
	blk.NewStore(blk.NewLoad(pointeeIrTy, ptrVal), dst)
	return dst, pointeeIrTy, nil
}
