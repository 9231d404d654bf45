package parser

import (
	"strconv"

	"github.com/dshills/alas/internal/ast"
	"github.com/dshills/alas/internal/diag"
	"github.com/dshills/alas/internal/token"
	"github.com/dshills/alas/internal/types"
)

// expr is parse_value (spec §4.3 Expression value parsing): given a token
// slice and an optional expected type, produces a single ParsedToken plus
// its resolved type. Precedence, tightest to loosest: `*,/,%` > `+,-` >
// comparisons > `&&` > `||` (spec §4.3).
func (p *Parser) expr(sc *scope, expected *types.Type) (*ast.ParsedToken, types.Type, error) {
	return p.parseOr(sc, expected)
}

func (p *Parser) parseOr(sc *scope, expected *types.Type) (*ast.ParsedToken, types.Type, error) {
	left, lty, err := p.parseAnd(sc, expected)
	if err != nil {
		return nil, types.Type{}, err
	}
	for p.peek().Kind == token.KindOrOr {
		p.advance()
		right, _, err := p.parseAnd(sc, &types.Bool)
		if err != nil {
			return nil, types.Type{}, err
		}
		left = &ast.ParsedToken{
			Kind: ast.NodeMathematicalExpression, Span: left.Span.Merge(right.Span),
			Math: &ast.MathExpr{Left: left, Right: right, Op: ast.MathOr, OperandType: types.Bool},
		}
		lty = types.Bool
	}
	return left, lty, nil
}

func (p *Parser) parseAnd(sc *scope, expected *types.Type) (*ast.ParsedToken, types.Type, error) {
	left, lty, err := p.parseComparison(sc, expected)
	if err != nil {
		return nil, types.Type{}, err
	}
	for p.peek().Kind == token.KindAndAnd {
		p.advance()
		right, _, err := p.parseComparison(sc, &types.Bool)
		if err != nil {
			return nil, types.Type{}, err
		}
		left = &ast.ParsedToken{
			Kind: ast.NodeMathematicalExpression, Span: left.Span.Merge(right.Span),
			Math: &ast.MathExpr{Left: left, Right: right, Op: ast.MathAnd, OperandType: types.Bool},
		}
		lty = types.Bool
	}
	return left, lty, nil
}

var comparisonOps = map[token.Kind]ast.Order{
	token.KindEqEq:  ast.OrderEq,
	token.KindNotEq: ast.OrderNe,
	token.KindLt:    ast.OrderLt,
	token.KindLe:    ast.OrderLe,
	token.KindGt:    ast.OrderGt,
	token.KindGe:    ast.OrderGe,
}

func (p *Parser) parseComparison(sc *scope, expected *types.Type) (*ast.ParsedToken, types.Type, error) {
	left, lty, err := p.parseAdd(sc, expected)
	if err != nil {
		return nil, types.Type{}, err
	}
	ord, isCmp := comparisonOps[p.peek().Kind]
	if !isCmp {
		return left, lty, nil
	}
	p.advance()
	right, rty, err := p.parseAdd(sc, &lty)
	if err != nil {
		return nil, types.Type{}, err
	}
	operandTy, err := commonType(lty, rty, left.Span.Merge(right.Span))
	if err != nil {
		return nil, types.Type{}, err
	}
	if operandTy.IsComposite() {
		return nil, types.Type{}, diag.New(diag.TypeMismatchNonIndexable, left.Span.Merge(right.Span),
			"comparison operands cannot be struct or array types")
	}
	node := &ast.ParsedToken{
		Kind: ast.NodeComparison, Span: left.Span.Merge(right.Span),
		Cmp: &ast.Comparison{Left: left, Right: right, Order: ord, OperandType: operandTy},
	}
	return node, types.Bool, nil
}

func (p *Parser) parseAdd(sc *scope, expected *types.Type) (*ast.ParsedToken, types.Type, error) {
	left, lty, err := p.parseMul(sc, expected)
	if err != nil {
		return nil, types.Type{}, err
	}
	for p.peek().Kind == token.KindPlus || p.peek().Kind == token.KindMinus {
		op := ast.MathAdd
		if p.peek().Kind == token.KindMinus {
			op = ast.MathSub
		}
		p.advance()
		right, rty, err := p.parseMul(sc, &lty)
		if err != nil {
			return nil, types.Type{}, err
		}
		operandTy, err := commonType(lty, rty, left.Span.Merge(right.Span))
		if err != nil {
			return nil, types.Type{}, err
		}
		left = &ast.ParsedToken{
			Kind: ast.NodeMathematicalExpression, Span: left.Span.Merge(right.Span),
			Math: &ast.MathExpr{Left: left, Right: right, Op: op, OperandType: operandTy},
		}
		lty = operandTy
	}
	return left, lty, nil
}

func (p *Parser) parseMul(sc *scope, expected *types.Type) (*ast.ParsedToken, types.Type, error) {
	left, lty, err := p.parseCast(sc, expected)
	if err != nil {
		return nil, types.Type{}, err
	}
	for p.peek().Kind == token.KindStar || p.peek().Kind == token.KindSlash || p.peek().Kind == token.KindPercent {
		var op ast.MathOp
		switch p.peek().Kind {
		case token.KindStar:
			op = ast.MathMul
		case token.KindSlash:
			op = ast.MathDiv
		default:
			op = ast.MathMod
		}
		p.advance()
		right, rty, err := p.parseCast(sc, &lty)
		if err != nil {
			return nil, types.Type{}, err
		}
		operandTy, err := commonType(lty, rty, left.Span.Merge(right.Span))
		if err != nil {
			return nil, types.Type{}, err
		}
		left = &ast.ParsedToken{
			Kind: ast.NodeMathematicalExpression, Span: left.Span.Merge(right.Span),
			Math: &ast.MathExpr{Left: left, Right: right, Op: op, OperandType: operandTy},
		}
		lty = operandTy
	}
	return left, lty, nil
}

// parseCast handles the postfix `as T` cast (spec §4.3: "identifiers
// resolve to ... type casts when followed by `as T`").
func (p *Parser) parseCast(sc *scope, expected *types.Type) (*ast.ParsedToken, types.Type, error) {
	inner, ity, err := p.parsePrimary(sc, expected)
	if err != nil {
		return nil, types.Type{}, err
	}
	for p.peek().Kind == token.KindAs {
		p.advance()
		target, err := p.parseTypeRef()
		if err != nil {
			return nil, types.Type{}, err
		}
		if (ity.IsComposite() || target.IsComposite()) && !ity.Equal(target) {
			return nil, types.Type{}, diag.New(diag.InvalidTypeCast, inner.Span, "casts involving struct or array types are compile errors")
		}
		inner = &ast.ParsedToken{Kind: ast.NodeTypeCast, Span: inner.Span, Cast: &ast.TypeCast{Inner: inner, Target: target}}
		ity = target
	}
	return inner, ity, nil
}

// commonType is the operand type shared by both sides of a comparison or
// mathematical expression. Equal types are used as they are. Any two
// numeric types are also accepted, whether or not either side is a
// literal: a float side wins over an integer side, otherwise the left
// side's type is used. Every other pair is a VariableTypeMismatch.
func commonType(a, b types.Type, span token.Span) (types.Type, error) {
	if a.Equal(b) {
		return a, nil
	}
	if a.IsNumeric() && b.IsNumeric() {
		if a.IsFloat() || b.IsFloat() {
			if a.IsFloat() {
				return a, nil
			}
			return b, nil
		}
		return a, nil
	}
	return types.Type{}, diag.New(diag.VariableTypeMismatch, span, "mismatched operand types %s and %s", a, b)
}

// parsePrimary parses literals, identifiers (variable refs, calls, enum
// variants), pointer sigils, parenthesized expressions, and array
// literals (spec §4.3).
func (p *Parser) parsePrimary(sc *scope, expected *types.Type) (*ast.ParsedToken, types.Type, error) {
	t := p.peek()
	switch t.Kind {
	case token.KindIntLiteral, token.KindFloatLiteral, token.KindStringLiteral, token.KindBoolLiteral:
		return p.literal(expected)

	case token.KindLParen:
		p.advance()
		inner, ity, err := p.expr(sc, expected)
		if err != nil {
			return nil, types.Type{}, err
		}
		if _, err := p.expect(token.KindRParen, diag.LeftOpenParentheses, "missing closing ')'"); err != nil {
			return nil, types.Type{}, err
		}
		return inner, ity, nil

	case token.KindLBracket:
		return p.arrayLiteral(sc, expected)

	case token.KindDollar:
		p.advance()
		ref, rty, err := p.variableRefChain(sc)
		if err != nil {
			return nil, types.Type{}, err
		}
		ptrTy := types.NewPointer(&rty)
		return &ast.ParsedToken{
			Kind: ast.NodeGetPointerTo, Span: t.Span,
			PointerOp: &ast.PointerOp{Operand: refToExpr(ref, rty, t.Span), ResultType: ptrTy},
		}, ptrTy, nil

	case token.KindAt:
		p.advance()
		operand, oty, err := p.parseCast(sc, nil)
		if err != nil {
			return nil, types.Type{}, err
		}
		if oty.Kind != types.KindPointer {
			return nil, types.Type{}, diag.New(diag.InvalidValueDereference, t.Span, "@ requires a pointer-typed expression")
		}
		var pointee types.Type
		if oty.Pointee != nil {
			pointee = *oty.Pointee
		} else if expected != nil {
			pointee = *expected
		} else {
			return nil, types.Type{}, diag.New(diag.VagueDereference, t.Span, "untyped dereference without an expected type")
		}
		return &ast.ParsedToken{
			Kind: ast.NodeDerefPointer, Span: t.Span,
			PointerOp: &ast.PointerOp{Operand: operand, ResultType: pointee},
		}, pointee, nil

	case token.KindIdentifier:
		return p.identifierExpr(sc, expected)

	default:
		return nil, types.Type{}, diag.New(diag.InvalidSignatureDefinition, t.Span, "unexpected token %q in expression", t.Text)
	}
}

// literal resolves an unparsed numeric literal against the expected type,
// or to i64/f64 by the decimal-point heuristic if none is given. Out-of-
// range or fractional-to-integer conversions fail with InvalidTypeCast
// (spec §4.3).
func (p *Parser) literal(expected *types.Type) (*ast.ParsedToken, types.Type, error) {
	t := p.advance()
	switch t.Kind {
	case token.KindBoolLiteral:
		return &ast.ParsedToken{Kind: ast.NodeLiteral, Span: t.Span, Lit: &ast.Value{Kind: types.KindBool, B: t.Text == "true"}}, types.Bool, nil

	case token.KindStringLiteral:
		return &ast.ParsedToken{Kind: ast.NodeLiteral, Span: t.Span, Lit: &ast.Value{Kind: types.KindString, S: t.Text}}, types.String, nil

	case token.KindIntLiteral:
		ty := types.I64
		if expected != nil && (expected.IsInteger() || expected.Kind == types.KindBool) {
			ty = *expected
		} else if expected != nil && expected.IsFloat() {
			ty = *expected
		}
		iv, err := strconv.ParseInt(t.Text, 10, 64)
		if err != nil {
			return nil, types.Type{}, diag.New(diag.InvalidTypeCast, t.Span, "integer literal %q out of range", t.Text)
		}
		if ty.IsUnsignedInteger() && iv < 0 {
			return nil, types.Type{}, diag.New(diag.InvalidTypeCast, t.Span, "integer literal %q out of range for %s", t.Text, ty)
		}
		if bits := uint(ty.BitWidth()); ty.IsInteger() && bits < 64 {
			lo, hi := int64(-1)<<(bits-1), int64(1)<<(bits-1)-1
			if ty.IsUnsignedInteger() {
				lo, hi = 0, int64(1)<<bits-1
			}
			if iv < lo || iv > hi {
				return nil, types.Type{}, diag.New(diag.InvalidTypeCast, t.Span, "integer literal %q out of range for %s", t.Text, ty)
			}
		}
		if ty.IsFloat() {
			return &ast.ParsedToken{Kind: ast.NodeLiteral, Span: t.Span, Lit: &ast.Value{Kind: ty.Kind, F: float64(iv)}}, ty, nil
		}
		return &ast.ParsedToken{Kind: ast.NodeLiteral, Span: t.Span, Lit: &ast.Value{Kind: ty.Kind, I: iv}}, ty, nil

	case token.KindFloatLiteral:
		ty := types.F64
		if expected != nil && expected.IsFloat() {
			ty = *expected
		} else if expected != nil && expected.IsInteger() {
			return nil, types.Type{}, diag.New(diag.InvalidTypeCast, t.Span, "fractional literal %q cannot convert to integer type %s", t.Text, expected)
		}
		fv, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			return nil, types.Type{}, diag.New(diag.InvalidTypeCast, t.Span, "invalid float literal %q", t.Text)
		}
		return &ast.ParsedToken{Kind: ast.NodeLiteral, Span: t.Span, Lit: &ast.Value{Kind: ty.Kind, F: fv}}, ty, nil

	default:
		return nil, types.Type{}, diag.New(diag.UnparsableExpression, t.Span, "expected a literal")
	}
}

// arrayLiteral parses `[e1, e2, ...]`, requiring exactly N elements all
// convertible to T when expected is array<T, N> (spec §4.3).
func (p *Parser) arrayLiteral(sc *scope, expected *types.Type) (*ast.ParsedToken, types.Type, error) {
	open := p.advance() // '['
	var elemTy types.Type
	wantLen := -1
	if expected != nil && expected.Kind == types.KindArray {
		elemTy = *expected.Elem
		wantLen = expected.Length
	}
	var elements []ast.ParsedToken
	for p.peek().Kind != token.KindRBracket {
		var el *ast.ParsedToken
		var ety types.Type
		var err error
		if elemTy.Kind != types.KindInvalid {
			el, ety, err = p.expr(sc, &elemTy)
		} else {
			el, ety, err = p.expr(sc, nil)
			elemTy = ety
		}
		if err != nil {
			return nil, types.Type{}, err
		}
		elements = append(elements, *el)
		if p.peek().Kind == token.KindComma {
			p.advance()
		} else {
			break
		}
	}
	closeTok, err := p.expect(token.KindRBracket, diag.LeftOpenParentheses, "missing closing ']'")
	if err != nil {
		return nil, types.Type{}, err
	}
	if wantLen >= 0 && len(elements) != wantLen {
		return nil, types.Type{}, diag.New(diag.ArrayLengthMismatch, open.Span.Merge(closeTok.Span),
			"array literal has %d elements, expected %d", len(elements), wantLen)
	}
	arrTy := types.NewArray(elemTy, len(elements))
	return &ast.ParsedToken{
		Kind: ast.NodeArrayInitialization, Span: open.Span.Merge(closeTok.Span),
		ArrayInit: &ast.ArrayInitialization{Elements: elements, ElementType: elemTy},
	}, arrTy, nil
}

// structLiteral parses `TypeName { field = value, ... }` (spec §8 S3):
// every field of ct's struct type must be assigned exactly once, in any
// order.
func (p *Parser) structLiteral(sc *scope, ct *ast.CustomType) (*ast.ParsedToken, types.Type, error) {
	nameTok := p.advance() // type name
	open := p.advance()    // '{'

	fields := make(map[string]*ast.ParsedToken)
	var order []string
	for p.peek().Kind != token.KindRBrace {
		fieldTok, err := p.expect(token.KindIdentifier, diag.InvalidSignatureDefinition, "expected field name")
		if err != nil {
			return nil, types.Type{}, err
		}
		if _, err := p.expect(token.KindAssign, diag.InvalidSignatureDefinition, "expected '=' after field name"); err != nil {
			return nil, types.Type{}, err
		}
		fty, ok := ct.Ty.FieldType(fieldTok.Text)
		if !ok {
			return nil, types.Type{}, diag.New(diag.StructFieldNotFound, fieldTok.Span, "struct %q has no field %q", ct.Name, fieldTok.Text)
		}
		if _, dup := fields[fieldTok.Text]; dup {
			return nil, types.Type{}, diag.New(diag.InvalidStructFieldDefinition, fieldTok.Span, "field %q assigned more than once", fieldTok.Text)
		}
		val, _, err := p.expr(sc, &fty)
		if err != nil {
			return nil, types.Type{}, err
		}
		fields[fieldTok.Text] = val
		order = append(order, fieldTok.Text)
		if p.peek().Kind == token.KindComma {
			p.advance()
		} else {
			break
		}
	}
	closeTok, err := p.expect(token.KindRBrace, diag.LeftOpenParentheses, "missing closing '}'")
	if err != nil {
		return nil, types.Type{}, err
	}
	if len(order) != len(ct.Ty.Fields) {
		return nil, types.Type{}, diag.New(diag.InvalidFunctionArgumentCount, open.Span.Merge(closeTok.Span),
			"struct literal for %q assigns %d of %d fields", ct.Name, len(order), len(ct.Ty.Fields))
	}
	span := nameTok.Span.Merge(closeTok.Span)
	return &ast.ParsedToken{
		Kind: ast.NodeStructInitialization, Span: span,
		StructInit: &ast.StructInitialization{Fields: fields, FieldOrder: order, StructType: ct.Ty},
	}, ct.Ty, nil
}

// identifierExpr resolves an identifier to a variable reference (chained
// with `.` for struct fields, `[...]` for indexing), a function call when
// followed by `(`, or an enum-variant literal value when written
// `EnumName::Variant` (spec §4.3).
func (p *Parser) identifierExpr(sc *scope, expected *types.Type) (*ast.ParsedToken, types.Type, error) {
	name := p.peek().Text
	startSpan := p.peek().Span

	if p.peekAt(1).Kind == token.KindLParen {
		return p.callExprTyped(sc)
	}

	if ct, ok := p.deps.CustomTypes[name]; ok && ct.Kind == ast.TypeKindStruct && p.peekAt(1).Kind == token.KindLBrace {
		return p.structLiteral(sc, ct)
	}

	if ct, ok := p.deps.CustomTypes[name]; ok && ct.Kind == ast.TypeKindEnum && p.peekAt(1).Kind == token.KindDoubleColon {
		nameTok := p.advance()
		p.advance() // '::'
		variantTok, err := p.expect(token.KindIdentifier, diag.InvalidSignatureDefinition, "expected enum variant name")
		if err != nil {
			return nil, types.Type{}, err
		}
		val, ok := ct.Ty.VariantValue(variantTok.Text)
		if !ok {
			return nil, types.Type{}, diag.New(diag.StructFieldNotFound, variantTok.Span, "unknown variant %q of enum %q", variantTok.Text, ct.Name)
		}
		span := nameTok.Span.Merge(variantTok.Span)
		return &ast.ParsedToken{Kind: ast.NodeLiteral, Span: span, Lit: &ast.Value{Kind: ct.Ty.Discrim.Kind, I: val}}, ct.Ty, nil
	}

	ref, rty, err := p.variableRefChain(sc)
	if err != nil {
		return nil, types.Type{}, err
	}
	span := startSpan
	if p.pos > 0 {
		span = startSpan.Merge(p.toks[p.pos-1].Span)
	}
	if ref.RefKind == ast.RefIndex {
		return &ast.ParsedToken{
			Kind: ast.NodeArrayIndexing, Span: span,
			Index: &ast.ArrayIndexing{Container: refToExpr(ref.Base, ref.Base.Ty, span), Idx: ref.IndexOf, ElemType: rty},
		}, rty, nil
	}
	return refToExpr(ref, rty, span), rty, nil
}

// variableRefChain parses a basic name optionally followed by `.field` or
// `[index]` chains, resolving the base identifier against scope, known
// custom-type field lists (spec §4.3).
func (p *Parser) variableRefChain(sc *scope) (*ast.VariableReference, types.Type, error) {
	nameTok, err := p.expect(token.KindIdentifier, diag.VariableNotFound, "expected identifier")
	if err != nil {
		return nil, types.Type{}, err
	}
	b, ok := sc.lookup(nameTok.Text)
	if !ok {
		return nil, types.Type{}, diag.New(diag.VariableNotFound, nameTok.Span, "undefined variable %q", nameTok.Text)
	}
	ref := &ast.VariableReference{RefKind: ast.RefBasic, Name: nameTok.Text, ID: b.ID, Ty: b.Type}
	curTy := b.Type

	for {
		switch p.peek().Kind {
		case token.KindDot:
			p.advance()
			fieldTok, err := p.expect(token.KindIdentifier, diag.InvalidDotPlacement, "expected field name after '.'")
			if err != nil {
				return nil, types.Type{}, err
			}
			if curTy.Kind != types.KindStruct {
				return nil, types.Type{}, diag.New(diag.TypeMismatchNonIndexable, fieldTok.Span, "%q is not a struct", curTy)
			}
			fty, ok := curTy.FieldType(fieldTok.Text)
			if !ok {
				return nil, types.Type{}, diag.New(diag.StructFieldNotFound, fieldTok.Span, "struct %q has no field %q", curTy.StructName, fieldTok.Text)
			}
			ref = &ast.VariableReference{RefKind: ast.RefField, Base: ref, Field: fieldTok.Text, Ty: fty}
			curTy = fty

		case token.KindLBracket:
			p.advance()
			idxTy := types.I64
			idxExpr, ity, err := p.expr(sc, &idxTy)
			if err != nil {
				return nil, types.Type{}, err
			}
			if !ity.IsInteger() {
				return nil, types.Type{}, diag.New(diag.NonIndexType, idxExpr.Span, "array index must be an integer type")
			}
			if _, err := p.expect(token.KindRBracket, diag.LeftOpenParentheses, "missing closing ']'"); err != nil {
				return nil, types.Type{}, err
			}
			if curTy.Kind != types.KindArray {
				return nil, types.Type{}, diag.New(diag.TypeMismatchNonIndexable, idxExpr.Span, "%q is not indexable", curTy)
			}
			elemTy := *curTy.Elem
			ref = &ast.VariableReference{RefKind: ast.RefIndex, Base: ref, IndexOf: idxExpr, Ty: elemTy}
			curTy = elemTy

		default:
			return ref, curTy, nil
		}
	}
}

// callExprTyped parses a function call in expression position and
// returns its resolved return type alongside the node.
func (p *Parser) callExprTyped(sc *scope) (*ast.ParsedToken, types.Type, error) {
	node, err := p.callExprRaw(sc)
	if err != nil {
		return nil, types.Type{}, err
	}
	return node, node.Call.Signature.Returns, nil
}

// callExpr is the statement-position entry point (spec §4.3 "An
// identifier at statement position ... calls a function").
func (p *Parser) callExpr(sc *scope) (*ast.ParsedToken, types.Type, error) {
	return p.callExprTyped(sc)
}

// callExprRaw implements named-or-positional argument binding (spec §4.3
// Function-call argument binding): named arguments are matched by name
// first; remaining positional arguments fill remaining slots in
// declaration order; excess positional arguments are permitted only when
// the callee's signature has ellipsis_present.
func (p *Parser) callExprRaw(sc *scope) (*ast.ParsedToken, error) {
	nameTok, err := p.expect(token.KindIdentifier, diag.VariableNotFound, "expected function name")
	if err != nil {
		return nil, err
	}
	fnSig, ok := p.deps.Signatures[nameTok.Text]
	if !ok {
		return nil, diag.New(diag.VariableNotFound, nameTok.Span, "undefined function %q", nameTok.Text)
	}
	open, err := p.expect(token.KindLParen, diag.LeftOpenParentheses, "expected '(' after function name")
	if err != nil {
		return nil, err
	}

	named := make(map[string]*ast.ParsedToken)
	var positional []*ast.ParsedToken
	for p.peek().Kind != token.KindRParen {
		if p.peek().Kind == token.KindIdentifier && p.peekAt(1).Kind == token.KindAssign && isParamName(fnSig, p.peek().Text) {
			n := p.advance()
			p.advance() // '='
			paramTy := paramType(fnSig, n.Text)
			val, _, err := p.expr(sc, &paramTy)
			if err != nil {
				return nil, err
			}
			named[n.Text] = val
		} else {
			var expTy *types.Type
			if idx := len(positional); idx < len(fnSig.Params) {
				t := fnSig.Params[idx].Type
				expTy = &t
			}
			val, _, err := p.expr(sc, expTy)
			if err != nil {
				return nil, err
			}
			positional = append(positional, val)
		}
		if p.peek().Kind == token.KindComma {
			p.advance()
		} else {
			break
		}
	}
	closeTok, err := p.expect(token.KindRParen, diag.LeftOpenParentheses, "missing closing ')'")
	if err != nil {
		return nil, err
	}

	args := make(map[ast.ArgKey]*ast.ParsedToken)
	var order []ast.ArgKey
	posIdx := 0
	for _, prm := range fnSig.Params {
		if v, ok := named[prm.Name]; ok {
			key := ast.NamedArg(prm.Name)
			args[key] = v
			order = append(order, key)
			continue
		}
		if posIdx < len(positional) {
			key := ast.PosArg(posIdx)
			args[key] = positional[posIdx]
			order = append(order, key)
			posIdx++
			continue
		}
		return nil, diag.New(diag.InvalidFunctionArgumentCount, open.Span.Merge(closeTok.Span),
			"missing required argument %q for %q", prm.Name, fnSig.Name)
	}
	for ; posIdx < len(positional); posIdx++ {
		if !fnSig.EllipsisPresent {
			return nil, diag.New(diag.InvalidFunctionArgumentCount, open.Span.Merge(closeTok.Span),
				"too many arguments to %q", fnSig.Name)
		}
		key := ast.PosArg(posIdx)
		args[key] = positional[posIdx]
		order = append(order, key)
	}

	return &ast.ParsedToken{
		Kind: ast.NodeFunctionCall, Span: nameTok.Span.Merge(closeTok.Span),
		Call: &ast.FunctionCall{Signature: fnSig, Name: fnSig.Name, Args: args, ArgOrder: order},
	}, nil
}

func isParamName(sig *ast.FunctionSignature, name string) bool {
	for _, p := range sig.Params {
		if p.Name == name {
			return true
		}
	}
	return false
}

func paramType(sig *ast.FunctionSignature, name string) types.Type {
	for _, p := range sig.Params {
		if p.Name == name {
			return p.Type
		}
	}
	return types.Type{}
}
