package token

import "testing"

func kinds(toks []Token) []Kind {
	ks := make([]Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestTokenizeBasicFunction(t *testing.T) {
	src := `pub function main(): i32 { i32 x = 2; return x; }`
	toks, err := Tokenize([]byte(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[len(toks)-1].Kind != KindEOF {
		t.Fatalf("expected trailing EOF token")
	}
	want := []Kind{
		KindPub, KindFunction, KindIdentifier, KindLParen, KindRParen, KindColon, KindTypeKeyword, KindLBrace,
		KindTypeKeyword, KindIdentifier, KindAssign, KindIntLiteral, KindSemicolon,
		KindReturn, KindIdentifier, KindSemicolon, KindRBrace, KindEOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("token count mismatch: got %d want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestTokenizeCompoundOperators(t *testing.T) {
	cases := []struct {
		src  string
		kind Kind
	}{
		{"==", KindEqEq}, {"!=", KindNotEq}, {"<=", KindLe}, {">=", KindGe},
		{"&&", KindAndAnd}, {"||", KindOrOr}, {"=+", KindPlusAssign}, {"::", KindDoubleColon},
		{"...", KindEllipsis},
	}
	for _, c := range cases {
		toks, err := Tokenize([]byte(c.src))
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", c.src, err)
		}
		if toks[0].Kind != c.kind {
			t.Errorf("%q: got %v want %v", c.src, toks[0].Kind, c.kind)
		}
	}
}

func TestUnaryMinusDisambiguation(t *testing.T) {
	// Preceded by an identifier: subtraction, two tokens (x, -).
	toks, err := Tokenize([]byte("x -5"))
	if err != nil {
		t.Fatal(err)
	}
	if toks[0].Kind != KindIdentifier || toks[1].Kind != KindMinus || toks[2].Kind != KindIntLiteral {
		t.Fatalf("expected subtraction split, got %v", kinds(toks))
	}

	// Not preceded by anything literal-like: attaches to the number.
	toks, err = Tokenize([]byte("(-5)"))
	if err != nil {
		t.Fatal(err)
	}
	if toks[1].Kind != KindIntLiteral || toks[1].Text != "-5" {
		t.Fatalf("expected negative literal, got %v %q", toks[1].Kind, toks[1].Text)
	}
}

func TestStringEscapes(t *testing.T) {
	toks, err := Tokenize([]byte(`"hi\n\t\\end"`))
	if err != nil {
		t.Fatal(err)
	}
	if toks[0].Text != "hi\n\t\\end" {
		t.Fatalf("got %q", toks[0].Text)
	}
}

func TestUnterminatedString(t *testing.T) {
	_, err := Tokenize([]byte(`"abc`))
	if err == nil {
		t.Fatal("expected OpenQuotes error")
	}
}

func TestArrayTypeLexing(t *testing.T) {
	toks, err := Tokenize([]byte("array<i32, 3>"))
	if err != nil {
		t.Fatal(err)
	}
	want := []Kind{KindTypeKeyword, KindLt, KindTypeKeyword, KindComma, KindIntLiteral, KindGt, KindEOF}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v want %v", i, got[i], want[i])
		}
	}
	if toks[4].Text != "3" {
		t.Fatalf("expected length literal 3, got %q", toks[4].Text)
	}
}

func TestCommentsAreSkipped(t *testing.T) {
	src := "# line comment\nreturn #-> skipped #-> 0;\n"
	toks, err := Tokenize([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if toks[0].Kind != KindReturn {
		t.Fatalf("expected comments skipped, got %v", kinds(toks))
	}
}

func TestDocCommentRetained(t *testing.T) {
	toks, err := Tokenize([]byte("### does a thing\npub"))
	if err != nil {
		t.Fatal(err)
	}
	if toks[0].Kind != KindDocComment || toks[0].Text != " does a thing" {
		t.Fatalf("got %v %q", toks[0].Kind, toks[0].Text)
	}
}

func TestSpanMerge(t *testing.T) {
	a := Span{Start: Position{Line: 2, Column: 5}, End: Position{Line: 2, Column: 8}}
	b := Span{Start: Position{Line: 1, Column: 1}, End: Position{Line: 3, Column: 2}}
	m := a.Merge(b)
	if m.Start != b.Start || m.End != b.End {
		t.Fatalf("expected merge to take widest bounds, got %+v", m)
	}
}
