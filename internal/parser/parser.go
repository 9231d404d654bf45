// Package parser implements the body parser (spec §4.3): for each
// function whose enabling features are satisfied, it walks the function's
// token body producing an ordered []ast.ParsedToken with merged debug
// spans, resolving every identifier to a local in the live scope map, a
// known function, a known custom type, or erroring.
package parser

import (
	"strconv"

	"github.com/dshills/alas/internal/ast"
	"github.com/dshills/alas/internal/diag"
	"github.com/dshills/alas/internal/token"
	"github.com/dshills/alas/internal/types"
)

func errDuplicateDecl(name string) *diag.CompileError {
	return diag.New(diag.VariableTypeMismatch, token.Span{}, "variable %q already declared in this scope", name)
}

// Deps bundles the phase-2 outputs the body parser consumes: the
// signature table (own module, imports, and externals combined) and the
// custom-type table (spec §4.3 Contract).
type Deps struct {
	Signatures  map[string]*ast.FunctionSignature
	CustomTypes map[string]*ast.CustomType
}

// Parser walks one function's token slice.
type Parser struct {
	toks []token.Token
	pos  int
	deps Deps
	fn   *ast.FunctionSignature
	loop int // loop nesting depth; break/continue require loop > 0
}

// ParseFunctionBody parses one function's token slice into an ordered
// []ast.ParsedToken, seeding scope from the function's own parameters
// (spec §4.3 Contract). Nested if/else and loop bodies inherit their
// enclosing scope by recursively descending with a child scope
// (spec §4.3 Scope) rather than through a separate entry point, since a
// single Parser walks the whole function body in one pass.
func ParseFunctionBody(toks []token.Token, fn *ast.FunctionSignature, deps Deps) ([]ast.ParsedToken, error) {
	p := &Parser{toks: toks, deps: deps, fn: fn}
	root := newScope(nil)
	for _, prm := range fn.Params {
		root.declareWithID(prm.Name, prm.Type, prm.ID)
	}

	body, err := p.statements(root, func(k token.Kind) bool { return k == token.KindEOF })
	if err != nil {
		return nil, err
	}

	if fn.Returns.Kind != types.KindVoid && !hasReturn(body) {
		return nil, diag.New(diag.FunctionRequiresReturn, token.Span{}, "function %q must have at least one return", fn.Name)
	}
	return body, nil
}

// hasReturn implements the weaker reachability check spec §3 requires of
// the parser ("has at least one return"; full reachability is left to the
// backend).
func hasReturn(body []ast.ParsedToken) bool {
	for _, n := range body {
		switch n.Kind {
		case ast.NodeReturnValue:
			return true
		case ast.NodeIf:
			if hasReturn(n.If.TrueBranch) || hasReturn(n.If.FalseBranch) {
				return true
			}
		case ast.NodeLoop:
			if hasReturn(n.Loop.Body) {
				return true
			}
		}
	}
	return false
}

// --- cursor helpers ---

func (p *Parser) atEnd() bool { return p.pos >= len(p.toks) || p.peek().Kind == token.KindEOF }
func (p *Parser) peek() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.KindEOF}
	}
	return p.toks[p.pos]
}
func (p *Parser) peekAt(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return token.Token{Kind: token.KindEOF}
	}
	return p.toks[p.pos+n]
}
func (p *Parser) advance() token.Token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}
func (p *Parser) expect(k token.Kind, kind diag.Kind, msg string) (token.Token, error) {
	if p.peek().Kind != k {
		return token.Token{}, diag.New(kind, p.peek().Span, "%s", msg)
	}
	return p.advance(), nil
}

// --- statement-sequence driver ---

// statements parses statements until stop(currentKind) is true, honoring
// nested if/else and loop blocks by brace matching as it descends (spec
// §4.3 "recursively invoking the function-block parser with the
// enclosing scope").
func (p *Parser) statements(sc *scope, stop func(token.Kind) bool) ([]ast.ParsedToken, error) {
	var out []ast.ParsedToken
	for !p.atEnd() && !stop(p.peek().Kind) {
		n, err := p.statement(sc)
		if err != nil {
			return nil, err
		}
		if n != nil {
			out = append(out, *n)
		}
	}
	return out, nil
}

func isRBrace(k token.Kind) bool { return k == token.KindRBrace }

func (p *Parser) block(sc *scope) ([]ast.ParsedToken, error) {
	open, err := p.expect(token.KindLBrace, diag.InvalidIfConditionDefinition, "expected '{'")
	if err != nil {
		return nil, err
	}
	body, err := p.statements(sc, isRBrace)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.KindRBrace, diag.LeftOpenParentheses, "missing closing '}'"); err != nil {
		return nil, diag.Wrap(diag.LeftOpenParentheses, open.Span, err, "unterminated block")
	}
	return body, nil
}

// statement parses one statement form (spec §4.3 Statement forms).
func (p *Parser) statement(sc *scope) (*ast.ParsedToken, error) {
	switch p.peek().Kind {
	case token.KindSemicolon:
		p.advance()
		return nil, nil

	case token.KindReturn:
		return p.returnStmt(sc)

	case token.KindIf:
		return p.ifStmt(sc)

	case token.KindLoop:
		return p.loopStmt(sc)

	case token.KindBreak:
		tok := p.advance()
		if _, err := p.expect(token.KindSemicolon, diag.MissingSemiColon, "expected ';' after break"); err != nil {
			return nil, err
		}
		if p.loop == 0 {
			return nil, diag.New(diag.InvalidControlFlowUsage, tok.Span, "break outside of a loop")
		}
		return &ast.ParsedToken{Kind: ast.NodeControlFlow, Span: tok.Span, Flow: &ast.ControlFlow{Kind: ast.Break}}, nil

	case token.KindContinue:
		tok := p.advance()
		if _, err := p.expect(token.KindSemicolon, diag.MissingSemiColon, "expected ';' after continue"); err != nil {
			return nil, err
		}
		if p.loop == 0 {
			return nil, diag.New(diag.InvalidControlFlowUsage, tok.Span, "continue outside of a loop")
		}
		return &ast.ParsedToken{Kind: ast.NodeControlFlow, Span: tok.Span, Flow: &ast.ControlFlow{Kind: ast.Continue}}, nil

	case token.KindFor, token.KindExtend:
		return nil, diag.New(diag.ReservedKeyword, p.peek().Span, "%q is reserved but not implemented", p.peek().Text)

	case token.KindTypeKeyword:
		return p.declarationStmt(sc)

	case token.KindIdentifier:
		return p.identifierLedStmt(sc)

	default:
		return nil, diag.New(diag.InvalidSignatureDefinition, p.peek().Span, "unexpected token %q in statement position", p.peek().Text)
	}
}

// declarationStmt parses `T x = expr;` — a typed declaration always
// requires an initializer (spec §4.3 Statement forms).
func (p *Parser) declarationStmt(sc *scope) (*ast.ParsedToken, error) {
	start := p.peek().Span
	ty, err := p.parseTypeRef()
	if err != nil {
		return nil, err
	}
	return p.finishDeclaration(sc, ty, start)
}

func (p *Parser) finishDeclaration(sc *scope, ty types.Type, start token.Span) (*ast.ParsedToken, error) {
	nameTok, err := p.expect(token.KindIdentifier, diag.MissingVariableValue, "expected variable name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.KindAssign, diag.MissingVariableValue, "declaration requires an initializer"); err != nil {
		return nil, err
	}
	initVal, initTy, err := p.expr(sc, &ty)
	if err != nil {
		return nil, err
	}
	if err := checkAssignable(ty, initTy, initVal.Span); err != nil {
		return nil, err
	}
	semi, err := p.expect(token.KindSemicolon, diag.MissingSemiColon, "expected ';' after declaration")
	if err != nil {
		return nil, err
	}
	id, err := sc.declare(nameTok.Text, ty)
	if err != nil {
		return nil, diag.New(diag.VariableTypeMismatch, nameTok.Span, "variable %q already declared in this scope", nameTok.Text)
	}
	return &ast.ParsedToken{
		Kind: ast.NodeNewVariable,
		Span: start.Merge(semi.Span),
		NewVar: &ast.NewVariable{Name: nameTok.Text, Type: ty, Initializer: initVal, ID: id, Mutable: true},
	}, nil
}

// identifierLedStmt dispatches an identifier at statement position to an
// assignment, a call, or — for struct/enum names — a typed variable
// declaration (spec §4.3 Statement forms).
func (p *Parser) identifierLedStmt(sc *scope) (*ast.ParsedToken, error) {
	name := p.peek().Text
	start := p.peek().Span

	if ct, ok := p.deps.CustomTypes[name]; ok {
		if _, isVar := sc.lookup(name); !isVar {
			p.advance()
			return p.finishDeclaration(sc, ct.Ty, start)
		}
	}

	if p.peekAt(1).Kind == token.KindLParen {
		call, _, err := p.callExpr(sc)
		if err != nil {
			return nil, err
		}
		semi, err := p.expect(token.KindSemicolon, diag.MissingSemiColon, "expected ';' after call")
		if err != nil {
			return nil, err
		}
		call.Span = call.Span.Merge(semi.Span)
		return call, nil
	}

	ref, refTy, err := p.variableRefChain(sc)
	if err != nil {
		return nil, err
	}

	op := p.peek().Kind
	switch op {
	case token.KindAssign, token.KindPlusAssign, token.KindMinusAssign, token.KindStarAssign, token.KindSlashAssign, token.KindPercentAssign:
		p.advance()
		rhs, rhsTy, err := p.expr(sc, &refTy)
		if err != nil {
			return nil, err
		}
		if err := checkAssignable(refTy, rhsTy, rhs.Span); err != nil {
			return nil, err
		}
		if op != token.KindAssign {
			rhs = &ast.ParsedToken{
				Kind: ast.NodeMathematicalExpression,
				Span: rhs.Span,
				Math: &ast.MathExpr{
					Left:        refToExpr(ref, refTy, start),
					Right:       rhs,
					Op:          compoundOp(op),
					OperandType: refTy,
				},
			}
		}
		semi, err := p.expect(token.KindSemicolon, diag.MissingSemiColon, "expected ';' after assignment")
		if err != nil {
			return nil, err
		}
		return &ast.ParsedToken{
			Kind: ast.NodeSetValue,
			Span: start.Merge(semi.Span),
			Set:  &ast.SetValue{Destination: ref, Value: rhs},
		}, nil
	default:
		return nil, diag.New(diag.InvalidDotPlacement, p.peek().Span, "expected assignment or call after %q", name)
	}
}

// checkAssignable enforces that a parsed value's resolved type matches the
// slot it's being written into (spec §8 S7: `return "x";` in an i32
// function is a VariableTypeMismatch(String, I32), not silently accepted
// invalid IR). Bare numeric/bool literals are already adapted to want by
// literal(), so any mismatch surviving to this check is a genuine error —
// a variable, call, or computed expression of the wrong type.
func checkAssignable(want, got types.Type, span token.Span) error {
	if want.Equal(got) {
		return nil
	}
	return diag.New(diag.VariableTypeMismatch, span, "cannot use a value of type %s where %s is expected", got, want)
}

func refToExpr(ref *ast.VariableReference, ty types.Type, span token.Span) *ast.ParsedToken {
	return &ast.ParsedToken{Kind: ast.NodeVariableReference, Span: span, VarRef: ref}
}

func compoundOp(k token.Kind) ast.MathOp {
	switch k {
	case token.KindPlusAssign:
		return ast.MathAdd
	case token.KindMinusAssign:
		return ast.MathSub
	case token.KindStarAssign:
		return ast.MathMul
	case token.KindSlashAssign:
		return ast.MathDiv
	case token.KindPercentAssign:
		return ast.MathMod
	}
	return ast.MathAdd
}

// returnStmt parses `return;` or `return expr;` (spec §4.3).
func (p *Parser) returnStmt(sc *scope) (*ast.ParsedToken, error) {
	tok := p.advance()
	if p.peek().Kind == token.KindSemicolon {
		semi := p.advance()
		if p.fn.Returns.Kind != types.KindVoid {
			return nil, diag.New(diag.FunctionRequiresReturn, tok.Span, "return; is only valid in void-returning functions or branch blocks")
		}
		return &ast.ParsedToken{Kind: ast.NodeReturnValue, Span: tok.Span.Merge(semi.Span), Return: &ast.ReturnValue{}}, nil
	}
	expectTy := p.fn.Returns
	val, valTy, err := p.expr(sc, &expectTy)
	if err != nil {
		return nil, err
	}
	if err := checkAssignable(expectTy, valTy, val.Span); err != nil {
		return nil, err
	}
	semi, err := p.expect(token.KindSemicolon, diag.MissingSemiColon, "expected ';' after return value")
	if err != nil {
		return nil, err
	}
	return &ast.ParsedToken{Kind: ast.NodeReturnValue, Span: tok.Span.Merge(semi.Span), Return: &ast.ReturnValue{Value: val}}, nil
}

// ifStmt parses `if (cond) { ... } else { ... }`; the else is optional.
// Branches are parsed by recursively invoking the block parser with the
// enclosing scope extended one level (spec §4.3).
func (p *Parser) ifStmt(sc *scope) (*ast.ParsedToken, error) {
	tok := p.advance()
	if _, err := p.expect(token.KindLParen, diag.InvalidIfConditionDefinition, "expected '(' after if"); err != nil {
		return nil, err
	}
	boolTy := types.Bool
	cond, _, err := p.expr(sc, &boolTy)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.KindRParen, diag.LeftOpenParentheses, "expected ')' after if condition"); err != nil {
		return nil, err
	}
	trueBody, err := p.block(newScope(sc))
	if err != nil {
		return nil, err
	}
	var falseBody []ast.ParsedToken
	end := tok.Span
	if p.peek().Kind == token.KindElse {
		p.advance()
		falseBody, err = p.block(newScope(sc))
		if err != nil {
			return nil, err
		}
	}
	if len(falseBody) > 0 {
		end = falseBody[len(falseBody)-1].Span
	} else if len(trueBody) > 0 {
		end = trueBody[len(trueBody)-1].Span
	}
	return &ast.ParsedToken{
		Kind: ast.NodeIf,
		Span: tok.Span.Merge(end),
		If:   &ast.If{Condition: cond, TrueBranch: trueBody, FalseBranch: falseBody},
	}, nil
}

// loopStmt parses `loop { ... }`; inside the body, break/continue become
// legal (spec §4.3).
func (p *Parser) loopStmt(sc *scope) (*ast.ParsedToken, error) {
	tok := p.advance()
	p.loop++
	body, err := p.block(newScope(sc))
	p.loop--
	if err != nil {
		return nil, err
	}
	end := tok.Span
	if len(body) > 0 {
		end = body[len(body)-1].Span
	}
	return &ast.ParsedToken{Kind: ast.NodeLoop, Span: tok.Span.Merge(end), Loop: &ast.Loop{Body: body}}, nil
}

// parseTypeRef parses a single type reference in statement/expression
// position (type keyword, array<T,N>, or a custom-type identifier).
func (p *Parser) parseTypeRef() (types.Type, error) {
	t := p.peek()
	switch t.Kind {
	case token.KindTypeKeyword:
		p.advance()
		if t.Text == "array" {
			return p.finishArrayType()
		}
		return primitiveTypeFromName(t.Text), nil
	case token.KindIdentifier:
		if ct, ok := p.deps.CustomTypes[t.Text]; ok {
			p.advance()
			return ct.Ty, nil
		}
		return types.Type{}, diag.New(diag.InvalidSignatureDefinition, t.Span, "unknown type %q", t.Text)
	default:
		return types.Type{}, diag.New(diag.InvalidSignatureDefinition, t.Span, "expected a type")
	}
}

func (p *Parser) finishArrayType() (types.Type, error) {
	if _, err := p.expect(token.KindLt, diag.InvalidSignatureDefinition, "expected '<' after array"); err != nil {
		return types.Type{}, err
	}
	elem, err := p.parseTypeRef()
	if err != nil {
		return types.Type{}, err
	}
	if _, err := p.expect(token.KindComma, diag.InvalidSignatureDefinition, "expected ',' in array<T, N>"); err != nil {
		return types.Type{}, err
	}
	lenTok, err := p.expect(token.KindIntLiteral, diag.InvalidSignatureDefinition, "array length must be an integer literal")
	if err != nil {
		return types.Type{}, err
	}
	if _, err := p.expect(token.KindGt, diag.InvalidSignatureDefinition, "expected '>' closing array<T, N>"); err != nil {
		return types.Type{}, err
	}
	n, convErr := strconv.Atoi(lenTok.Text)
	if convErr != nil {
		return types.Type{}, diag.New(diag.UnparsableExpression, lenTok.Span, "invalid array length %q", lenTok.Text)
	}
	return types.NewArray(elem, n), nil
}

func primitiveTypeFromName(name string) types.Type {
	switch name {
	case "i64":
		return types.I64
	case "i32":
		return types.I32
	case "i16":
		return types.I16
	case "u64":
		return types.U64
	case "u32":
		return types.U32
	case "u16":
		return types.U16
	case "u8":
		return types.U8
	case "f64":
		return types.F64
	case "f32":
		return types.F32
	case "f16":
		return types.F16
	case "bool":
		return types.Bool
	case "string":
		return types.String
	case "void":
		return types.Void
	default:
		return types.Type{}
	}
}
