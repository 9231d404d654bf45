package sig

import (
	"testing"

	"github.com/dshills/alas/internal/config"
	"github.com/dshills/alas/internal/token"
)

func collectSrc(t *testing.T, src string, cfg *config.BuildConfig) *Table {
	t.Helper()
	toks, err := token.Tokenize([]byte(src))
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	tbl, err := Collect(toks, cfg)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	return tbl
}

func TestCollectFunctionSignature(t *testing.T) {
	tbl := collectSrc(t, `pub function add(a: i32, b: i32): i32 { return a + b; }`, nil)
	fn, ok := tbl.Functions["add"]
	if !ok {
		t.Fatal("expected function \"add\" to be collected")
	}
	if len(fn.Sig.Params) != 2 || fn.Sig.Params[0].Name != "a" || fn.Sig.Params[1].Name != "b" {
		t.Fatalf("unexpected params: %+v", fn.Sig.Params)
	}
	if fn.Sig.Returns.String() != "i32" {
		t.Fatalf("unexpected return type: %v", fn.Sig.Returns)
	}
	if len(fn.Body) == 0 {
		t.Fatal("expected a non-empty captured body token slice")
	}
}

func TestCollectRejectsMissingVisibility(t *testing.T) {
	toks, err := token.Tokenize([]byte(`function main(): i32 { return 0; }`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Collect(toks, nil); err == nil {
		t.Fatal("expected FunctionRequiresExplicitVisibility error")
	}
}

func TestCollectDuplicateFunctionIsRejected(t *testing.T) {
	toks, err := token.Tokenize([]byte(`
		pub function f(): void { return; }
		pub function f(): void { return; }
	`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Collect(toks, nil); err == nil {
		t.Fatal("expected a duplicate-function error")
	}
}

func TestCollectExternalDeclaration(t *testing.T) {
	tbl := collectSrc(t, `external puts(s: string): i32;`, nil)
	ext, ok := tbl.ExternalImports["puts"]
	if !ok {
		t.Fatal("expected external \"puts\" to be collected")
	}
	if len(ext.Params) != 1 || ext.Params[0].Name != "s" {
		t.Fatalf("unexpected external params: %+v", ext.Params)
	}
}

func TestCollectStructDefinition(t *testing.T) {
	tbl := collectSrc(t, `struct P { x: i32, y: i32 }`, nil)
	ct, ok := tbl.CustomTypes["P"]
	if !ok {
		t.Fatal("expected struct \"P\" to be collected")
	}
	if len(ct.Ty.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(ct.Ty.Fields))
	}
}

func TestCollectEnumDefaultsAndExplicitValues(t *testing.T) {
	tbl := collectSrc(t, `enum Color { Red, Green, Blue = 9 }`, nil)
	ct, ok := tbl.CustomTypes["Color"]
	if !ok {
		t.Fatal("expected enum \"Color\" to be collected")
	}
	wantValues := map[string]int64{"Red": 0, "Green": 1, "Blue": 9}
	for _, v := range ct.Ty.Variants {
		if wantValues[v.Name] != v.Value {
			t.Errorf("variant %q: got %d want %d", v.Name, v.Value, wantValues[v.Name])
		}
	}
}

func TestFeatureGatedFunctionIsDroppedWhenDisabled(t *testing.T) {
	src := `@feature "experimental" pub function extra(): void { return; }`
	tbl := collectSrc(t, src, config.NewBuildConfig(nil, false, "", ""))
	if _, ok := tbl.Functions["extra"]; ok {
		t.Fatal("expected feature-gated function to be dropped when its feature is disabled")
	}
}

func TestFeatureGatedFunctionIsKeptWhenEnabled(t *testing.T) {
	src := `@feature "experimental" pub function extra(): void { return; }`
	tbl := collectSrc(t, src, config.NewBuildConfig([]string{"experimental"}, false, "", ""))
	if _, ok := tbl.Functions["extra"]; !ok {
		t.Fatal("expected feature-gated function to be kept when its feature is enabled")
	}
}

func TestCompilerHintsAttachToNextFunction(t *testing.T) {
	tbl := collectSrc(t, `@inline @nofree pub function f(): void { return; }`, nil)
	fn := tbl.Functions["f"]
	if !fn.Sig.CompilerHints["inline"] || !fn.Sig.CompilerHints["nofree"] {
		t.Fatalf("expected both hints recorded, got %+v", fn.Sig.CompilerHints)
	}
}

func TestNextVarIDMonotonic(t *testing.T) {
	a := NextVarID()
	b := NextVarID()
	if b <= a {
		t.Fatalf("expected monotonically increasing ids, got %d then %d", a, b)
	}
}
