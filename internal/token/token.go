// Package token implements the tokenizer (spec §4.1): a byte-level scanner
// producing a sequence of Token with per-token source spans.
package token

// Kind tags the variant of a Token (spec §3 Token).
type Kind int

const (
	// Literals.
	KindIntLiteral Kind = iota
	KindFloatLiteral
	KindStringLiteral
	KindBoolLiteral

	KindIdentifier
	KindTypeKeyword

	// Arithmetic / comparison / bit / logical operators.
	KindPlus
	KindMinus
	KindStar
	KindSlash
	KindPercent
	KindEqEq
	KindNotEq
	KindLt
	KindLe
	KindGt
	KindGe
	KindShl
	KindShr
	KindAndAnd
	KindOrOr
	KindAmp
	KindPipe
	KindCaret
	KindNot

	// Assignment / compound assignment.
	KindAssign
	KindPlusAssign
	KindMinusAssign
	KindStarAssign
	KindSlashAssign
	KindPercentAssign

	// Punctuation.
	KindLParen
	KindRParen
	KindLBrace
	KindRBrace
	KindLBracket
	KindRBracket
	KindComma
	KindSemicolon
	KindColon
	KindDoubleColon
	KindDot
	KindEllipsis

	// Keywords.
	KindFunction
	KindReturn
	KindIf
	KindElse
	KindLoop
	KindBreak
	KindContinue
	KindStruct
	KindEnum
	KindImport
	KindExternal
	KindPriv
	KindPub
	KindPublib
	KindBranch
	KindAs
	KindFeature
	KindCold
	KindInline
	KindNofree
	KindNounwind
	KindFor    // reserved, never emits AST (spec §9 Open Questions)
	KindExtend // reserved, never emits AST (spec §9 Open Questions)

	// Sigils.
	KindAt     // compiler-hint sigil `@`, also DerefPointer prefix
	KindDollar // pointer sigil `$`

	// Doc comment, retained as a token (spec §4.1).
	KindDocComment

	KindEOF
)

var keywords = map[string]Kind{
	"function": KindFunction,
	"return":   KindReturn,
	"if":       KindIf,
	"else":     KindElse,
	"loop":     KindLoop,
	"break":    KindBreak,
	"continue": KindContinue,
	"struct":   KindStruct,
	"enum":     KindEnum,
	"import":   KindImport,
	"external": KindExternal,
	"priv":     KindPriv,
	"pub":      KindPub,
	"publib":   KindPublib,
	"branch":   KindBranch,
	"as":       KindAs,
	"feature":  KindFeature,
	"cold":     KindCold,
	"inline":   KindInline,
	"nofree":   KindNofree,
	"nounwind": KindNounwind,
	"for":      KindFor,
	"extend":   KindExtend,
	"true":     KindBoolLiteral,
	"false":    KindBoolLiteral,
}

var typeKeywords = map[string]bool{
	"i64": true, "i32": true, "i16": true,
	"u64": true, "u32": true, "u16": true, "u8": true,
	"f64": true, "f32": true, "f16": true,
	"bool": true, "string": true, "void": true, "array": true,
}

// Token is one lexical unit plus its source span (spec §3 Token).
type Token struct {
	Kind  Kind
	Text  string // canonical source text, e.g. unparsed numeric literal
	Span  Span
}
