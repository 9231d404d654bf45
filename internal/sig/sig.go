// Package sig implements the signature & type collector (spec §4.2): a
// single pass over one source file's tokens that discovers function
// signatures (without bodies), external imports, struct/enum
// definitions, feature-gated items, and compiler hints, producing the
// signature table and custom-type table the body parser and IR generator
// consume.
package sig

import (
	"strconv"
	"sync/atomic"

	"github.com/dshills/alas/internal/ast"
	"github.com/dshills/alas/internal/config"
	"github.com/dshills/alas/internal/diag"
	"github.com/dshills/alas/internal/token"
	"github.com/dshills/alas/internal/types"
)

// UnparsedFunction is a discovered function whose body has not yet been
// parsed: its signature plus the raw token slice between its `{` and
// matching `}` (spec §4.2 Function-body boundary).
type UnparsedFunction struct {
	Sig  *ast.FunctionSignature
	Body []token.Token
	Span token.Span
}

// Table is the collector's full output: the four tables spec §4.2 names.
type Table struct {
	Functions       map[string]*UnparsedFunction
	ExternalImports map[string]*ast.FunctionSignature
	ImportedFuncs   map[string]*ast.Function // module-path -> parsed function
	CustomTypes     map[string]*ast.CustomType
}

func newTable() *Table {
	return &Table{
		Functions:       make(map[string]*UnparsedFunction),
		ExternalImports: make(map[string]*ast.FunctionSignature),
		ImportedFuncs:   make(map[string]*ast.Function),
		CustomTypes:     make(map[string]*ast.CustomType),
	}
}

// collector walks tokens with a cursor, accumulating compiler hints and
// emitting the four tables.
type collector struct {
	toks []token.Token
	pos  int
	cfg  *config.BuildConfig
	tbl  *Table

	hints   map[string]bool
	feature string // pending @feature "name" requirement, "" if none
}

// Collect runs the signature & type collector over one file's token
// stream (spec §4.2 Contract).
func Collect(toks []token.Token, cfg *config.BuildConfig) (*Table, error) {
	c := &collector{toks: toks, cfg: cfg, tbl: newTable(), hints: make(map[string]bool)}
	for !c.atEOF() {
		if err := c.topLevel(); err != nil {
			return nil, err
		}
	}
	return c.tbl, nil
}

func (c *collector) atEOF() bool { return c.peek().Kind == token.KindEOF }
func (c *collector) peek() token.Token {
	if c.pos >= len(c.toks) {
		return token.Token{Kind: token.KindEOF}
	}
	return c.toks[c.pos]
}
func (c *collector) peekAt(n int) token.Token {
	if c.pos+n >= len(c.toks) {
		return token.Token{Kind: token.KindEOF}
	}
	return c.toks[c.pos+n]
}
func (c *collector) advance() token.Token {
	t := c.peek()
	c.pos++
	return t
}
func (c *collector) expect(k token.Kind, errKind diag.Kind, msg string) (token.Token, error) {
	if c.peek().Kind != k {
		return token.Token{}, diag.New(errKind, c.peek().Span, "%s", msg)
	}
	return c.advance(), nil
}

func (c *collector) topLevel() error {
	switch c.peek().Kind {
	case token.KindAt:
		return c.compilerHint()
	case token.KindStruct:
		return c.structDef()
	case token.KindEnum:
		return c.enumDef()
	case token.KindExternal:
		return c.externalDecl()
	case token.KindImport:
		return c.importDecl()
	case token.KindPriv, token.KindPub, token.KindPublib, token.KindBranch:
		return c.functionDecl()
	case token.KindFunction:
		return diag.New(diag.FunctionRequiresExplicitVisibility, c.peek().Span,
			"function declaration must be prefixed by exactly one visibility modifier")
	case token.KindDocComment:
		c.advance()
		return nil
	default:
		return diag.New(diag.InvalidSignatureDefinition, c.peek().Span,
			"unexpected token at top level: %q", c.peek().Text)
	}
}

// compilerHint accumulates @cold, @inline, @nofree, @nounwind, and
// @feature "name" into a buffer consumed by the next function
// declaration (spec §4.2 Key rules).
func (c *collector) compilerHint() error {
	at := c.advance() // '@'
	switch c.peek().Kind {
	case token.KindCold:
		c.advance()
		c.hints["cold"] = true
	case token.KindInline:
		c.advance()
		c.hints["inline"] = true
	case token.KindNofree:
		c.advance()
		c.hints["nofree"] = true
	case token.KindNounwind:
		c.advance()
		c.hints["nounwind"] = true
	case token.KindFeature:
		c.advance()
		nameTok, err := c.expect(token.KindStringLiteral, diag.InvalidFeatureRequirement, "@feature requires a string literal name")
		if err != nil {
			return err
		}
		c.feature = nameTok.Text
	default:
		return diag.New(diag.InvalidCompilerHint, at.Span, "unknown compiler hint")
	}
	return nil
}

func (c *collector) clearHints() (hints map[string]bool, feature string) {
	hints, feature = c.hints, c.feature
	c.hints = make(map[string]bool)
	c.feature = ""
	return
}

func (c *collector) visibility() (ast.Visibility, error) {
	switch c.peek().Kind {
	case token.KindPriv:
		c.advance()
		return ast.VisPrivate, nil
	case token.KindPub:
		c.advance()
		return ast.VisPublic, nil
	case token.KindPublib:
		c.advance()
		return ast.VisPublicLibrary, nil
	case token.KindBranch:
		c.advance()
		return ast.VisBranch, nil
	default:
		return 0, diag.New(diag.FunctionRequiresExplicitVisibility, c.peek().Span,
			"function declaration must be prefixed by exactly one visibility modifier")
	}
}

// parseType parses a single type token (primitive, array<T,N>, or a
// custom-type identifier) into a types.Type.
func (c *collector) parseType() (types.Type, error) {
	t := c.peek()
	switch t.Kind {
	case token.KindTypeKeyword:
		c.advance()
		if t.Text == "array" {
			if _, err := c.expect(token.KindLt, diag.InvalidSignatureDefinition, "expected '<' after array"); err != nil {
				return types.Type{}, err
			}
			elem, err := c.parseType()
			if err != nil {
				return types.Type{}, err
			}
			if _, err := c.expect(token.KindComma, diag.InvalidSignatureDefinition, "expected ',' in array<T, N>"); err != nil {
				return types.Type{}, err
			}
			lenTok, err := c.expect(token.KindIntLiteral, diag.InvalidSignatureDefinition, "array length must be an integer literal")
			if err != nil {
				return types.Type{}, err
			}
			if _, err := c.expect(token.KindGt, diag.InvalidSignatureDefinition, "expected '>' closing array<T, N>"); err != nil {
				return types.Type{}, err
			}
			n, convErr := strconv.Atoi(lenTok.Text)
			if convErr != nil {
				return types.Type{}, diag.New(diag.UnparsableExpression, lenTok.Span, "invalid array length %q", lenTok.Text)
			}
			return types.NewArray(elem, n), nil
		}
		return primitiveType(t.Text), nil
	case token.KindIdentifier:
		c.advance()
		if ct, ok := c.tbl.CustomTypes[t.Text]; ok {
			return ct.Ty, nil
		}
		return types.Type{}, diag.New(diag.InvalidSignatureDefinition, t.Span, "unknown type %q", t.Text)
	case token.KindDollar:
		c.advance()
		if c.peek().Kind == token.KindSemicolon || c.peek().Kind == token.KindComma || c.peek().Kind == token.KindRParen {
			return types.NewPointer(nil), nil
		}
		inner, err := c.parseType()
		if err != nil {
			return types.Type{}, err
		}
		return types.NewPointer(&inner), nil
	default:
		return types.Type{}, diag.New(diag.InvalidSignatureDefinition, t.Span, "expected a type, got %q", t.Text)
	}
}

func primitiveType(name string) types.Type {
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

// paramList parses `(name: type, name: type, ...)`, honoring a trailing
// `...` ellipsis (legal only on external signatures, spec §3 Invariants).
func (c *collector) paramList() ([]ast.Param, bool, error) {
	if _, err := c.expect(token.KindLParen, diag.InvalidSignatureDefinition, "expected '('"); err != nil {
		return nil, false, err
	}
	var params []ast.Param
	ellipsis := false
	for c.peek().Kind != token.KindRParen {
		if c.peek().Kind == token.KindEllipsis {
			c.advance()
			ellipsis = true
			break
		}
		nameTok, err := c.expect(token.KindIdentifier, diag.InvalidSignatureDefinition, "expected parameter name")
		if err != nil {
			return nil, false, err
		}
		if _, err := c.expect(token.KindColon, diag.InvalidSignatureDefinition, "expected ':' after parameter name"); err != nil {
			return nil, false, err
		}
		pty, err := c.parseType()
		if err != nil {
			return nil, false, err
		}
		params = append(params, ast.Param{Name: nameTok.Text, Type: pty, ID: NextVarID()})
		if c.peek().Kind == token.KindComma {
			c.advance()
		} else {
			break
		}
	}
	if _, err := c.expect(token.KindRParen, diag.LeftOpenParentheses, "missing closing ')'"); err != nil {
		return nil, false, err
	}
	return params, ellipsis, nil
}

func (c *collector) externalDecl() error {
	c.advance() // 'external'
	nameTok, err := c.expect(token.KindIdentifier, diag.InvalidSignatureDefinition, "expected external function name")
	if err != nil {
		return err
	}
	params, ellipsis, err := c.paramList()
	if err != nil {
		return err
	}
	retTy := types.Void
	if c.peek().Kind == token.KindColon {
		c.advance()
		retTy, err = c.parseType()
		if err != nil {
			return err
		}
	}
	if _, err := c.expect(token.KindSemicolon, diag.MissingSemiColon, "external declaration must end with ';'"); err != nil {
		return err
	}
	if _, dup := c.tbl.ExternalImports[nameTok.Text]; dup {
		return diag.New(diag.DuplicateSignatureImports, nameTok.Span, "duplicate external import %q", nameTok.Text)
	}
	c.tbl.ExternalImports[nameTok.Text] = &ast.FunctionSignature{
		Name: nameTok.Text, Params: params, EllipsisPresent: ellipsis, Returns: retTy,
	}
	return nil
}

func (c *collector) importDecl() error {
	c.advance() // 'import'
	pathTok, err := c.expect(token.KindStringLiteral, diag.InvalidSignatureDefinition, "expected import path string")
	if err != nil {
		return err
	}
	if _, err := c.expect(token.KindSemicolon, diag.MissingSemiColon, "import declaration must end with ';'"); err != nil {
		return err
	}
	// Recording of the resolved import's functions is performed by the
	// caller via the already-resolved dependency table (spec §4.2
	// Contract); the collector only records that the path was imported.
	if _, exists := c.tbl.ImportedFuncs[pathTok.Text]; !exists {
		c.tbl.ImportedFuncs[pathTok.Text] = nil
	}
	return nil
}

func (c *collector) structDef() error {
	c.advance() // 'struct'
	nameTok, err := c.expect(token.KindIdentifier, diag.InvalidStructFieldDefinition, "expected struct name")
	if err != nil {
		return err
	}
	if _, err := c.expect(token.KindLBrace, diag.InvalidStructFieldDefinition, "expected '{' after struct name"); err != nil {
		return err
	}
	var fields []types.StructField
	for c.peek().Kind != token.KindRBrace {
		fieldName, err := c.expect(token.KindIdentifier, diag.InvalidStructFieldDefinition, "expected field name")
		if err != nil {
			return err
		}
		if _, err := c.expect(token.KindColon, diag.InvalidStructFieldDefinition, "expected ':' after field name"); err != nil {
			return err
		}
		fty, err := c.parseType()
		if err != nil {
			return diag.Wrap(diag.InvalidStructFieldDefinition, fieldName.Span, err, "invalid type for field %q", fieldName.Text)
		}
		fields = append(fields, types.StructField{Name: fieldName.Text, Type: fty})
		if c.peek().Kind == token.KindComma {
			c.advance()
		}
	}
	if _, err := c.expect(token.KindRBrace, diag.InvalidStructFieldDefinition, "missing closing '}'"); err != nil {
		return err
	}
	if _, dup := c.tbl.CustomTypes[nameTok.Text]; dup {
		return diag.New(diag.InvalidStructFieldDefinition, nameTok.Span, "duplicate type %q", nameTok.Text)
	}
	st := types.NewStruct(nameTok.Text, fields)
	c.tbl.CustomTypes[nameTok.Text] = &ast.CustomType{Name: nameTok.Text, Kind: ast.TypeKindStruct, Ty: st}
	return nil
}

// enumDef parses `enum Name { A, B, C }` or `enum<T> Name { A = 1, B = 2 }`;
// untyped enums default to u32 with auto-incrementing values from 0
// (spec §4.2 Key rules).
func (c *collector) enumDef() error {
	c.advance() // 'enum'
	discrim := types.U32
	if c.peek().Kind == token.KindLt {
		c.advance()
		var err error
		discrim, err = c.parseType()
		if err != nil {
			return err
		}
		if _, err := c.expect(token.KindGt, diag.InvalidSignatureDefinition, "expected '>' closing enum<T>"); err != nil {
			return err
		}
	}
	nameTok, err := c.expect(token.KindIdentifier, diag.InvalidSignatureDefinition, "expected enum name")
	if err != nil {
		return err
	}
	if _, err := c.expect(token.KindLBrace, diag.InvalidSignatureDefinition, "expected '{' after enum name"); err != nil {
		return err
	}
	var variants []types.EnumVariant
	next := int64(0)
	for c.peek().Kind != token.KindRBrace {
		variantTok, err := c.expect(token.KindIdentifier, diag.InvalidSignatureDefinition, "expected enum variant name")
		if err != nil {
			return err
		}
		val := next
		if c.peek().Kind == token.KindAssign {
			c.advance()
			litTok, err := c.expect(token.KindIntLiteral, diag.InvalidSignatureDefinition, "enum variant value must be an integer literal")
			if err != nil {
				return err
			}
			parsed, convErr := strconv.ParseInt(litTok.Text, 10, 64)
			if convErr != nil {
				return diag.New(diag.EnumInnerTypeMismatch, litTok.Span, "variant value %q does not fit %s", litTok.Text, discrim)
			}
			val = parsed
		}
		variants = append(variants, types.EnumVariant{Name: variantTok.Text, Value: val})
		next = val + 1
		if c.peek().Kind == token.KindComma {
			c.advance()
		}
	}
	if _, err := c.expect(token.KindRBrace, diag.InvalidSignatureDefinition, "missing closing '}'"); err != nil {
		return err
	}
	en := types.NewEnum(nameTok.Text, discrim, variants)
	c.tbl.CustomTypes[nameTok.Text] = &ast.CustomType{Name: nameTok.Text, Kind: ast.TypeKindEnum, Ty: en}
	return nil
}

func (c *collector) functionDecl() error {
	vis, err := c.visibility()
	if err != nil {
		return err
	}
	if _, err := c.expect(token.KindFunction, diag.InvalidSignatureDefinition, "expected 'function' after visibility modifier"); err != nil {
		return err
	}
	nameTok, err := c.expect(token.KindIdentifier, diag.InvalidSignatureDefinition, "expected function name")
	if err != nil {
		return err
	}
	params, ellipsis, err := c.paramList()
	if err != nil {
		return err
	}
	if ellipsis {
		return diag.New(diag.InvalidSignatureDefinition, nameTok.Span, "'...' is only legal on external signatures")
	}
	retTy := types.Void
	if c.peek().Kind == token.KindColon {
		c.advance()
		retTy, err = c.parseType()
		if err != nil {
			return err
		}
	}

	hints, feature := c.clearHints()

	braceStart, err := c.expect(token.KindLBrace, diag.InvalidSignatureDefinition, "expected '{' starting function body")
	if err != nil {
		return err
	}

	// Function-body boundary: find the matching '}' by brace-depth
	// counting; the raw token slice is stored verbatim for phase 3
	// (spec §4.2 Function-body boundary).
	depth := 1
	bodyStart := c.pos
	for depth > 0 {
		if c.atEOF() {
			return diag.New(diag.LeftOpenParentheses, braceStart.Span, "unterminated function body for %q", nameTok.Text)
		}
		switch c.peek().Kind {
		case token.KindLBrace:
			depth++
		case token.KindRBrace:
			depth--
		}
		if depth == 0 {
			break
		}
		c.advance()
	}
	body := c.toks[bodyStart:c.pos]
	closeBrace := c.advance() // consume matching '}'

	sig := &ast.FunctionSignature{
		Name: nameTok.Text, Params: params, EllipsisPresent: ellipsis, Returns: retTy,
		Visibility: vis, CompilerHints: hints, EnablingFeatures: map[string]bool{},
	}
	if feature != "" {
		sig.EnablingFeatures[feature] = true
	}

	// @feature gates the function: drop it silently if its feature set
	// is non-empty and does not intersect the enabled-features set
	// (spec §4.2 Key rules).
	if len(sig.EnablingFeatures) > 0 && !c.anyFeatureEnabled(sig.EnablingFeatures) {
		return nil
	}

	if _, dup := c.tbl.Functions[nameTok.Text]; dup {
		return diag.New(diag.DuplicateFunctions, nameTok.Span, "duplicate function %q", nameTok.Text)
	}
	c.tbl.Functions[nameTok.Text] = &UnparsedFunction{
		Sig: sig, Body: body, Span: nameTok.Span.Merge(closeBrace.Span),
	}
	return nil
}

func (c *collector) anyFeatureEnabled(required map[string]bool) bool {
	if c.cfg == nil {
		return false
	}
	for name := range required {
		if c.cfg.FeatureEnabled(name) {
			return true
		}
	}
	return false
}

// varIDCounter is the process-wide monotonic unique-id counter (spec §3
// Lifecycle, §5 Shared state: "reads/increments are atomic"). Declared
// here (rather than in package ast) because phase 2 is the first phase to
// allocate ids, for parameters.
var varIDCounter uint64

// NextVarID atomically allocates the next unique variable id.
func NextVarID() ast.VarID {
	return ast.VarID(atomic.AddUint64(&varIDCounter, 1))
}
