package parser

import (
	"testing"

	"github.com/dshills/alas/internal/ast"
	"github.com/dshills/alas/internal/sig"
	"github.com/dshills/alas/internal/token"
)

// parseBody tokenizes and collects src, then parses the named function's
// body, mirroring internal/compiler.CompileUnit's own sequencing.
func parseBody(t *testing.T, src, fnName string) []ast.ParsedToken {
	t.Helper()
	toks, err := token.Tokenize([]byte(src))
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	tbl, err := sig.Collect(toks, nil)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	deps := Deps{Signatures: make(map[string]*ast.FunctionSignature), CustomTypes: tbl.CustomTypes}
	for name, fn := range tbl.Functions {
		deps.Signatures[name] = fn.Sig
	}
	unparsed, ok := tbl.Functions[fnName]
	if !ok {
		t.Fatalf("function %q was not collected", fnName)
	}
	body, err := ParseFunctionBody(unparsed.Body, unparsed.Sig, deps)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return body
}

func TestParseArithmeticAndReturn(t *testing.T) {
	body := parseBody(t, `pub function main(): i32 { i32 x = 2; i32 y = 3; return x * y + 1; }`, "main")
	if len(body) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(body))
	}
	if body[0].Kind != ast.NodeNewVariable || body[1].Kind != ast.NodeNewVariable {
		t.Fatalf("expected two declarations first, got %v %v", body[0].Kind, body[1].Kind)
	}
	ret := body[2]
	if ret.Kind != ast.NodeReturnValue {
		t.Fatalf("expected a return statement, got %v", ret.Kind)
	}
	if ret.Return.Value.Kind != ast.NodeMathematicalExpression {
		t.Fatalf("expected the return value to be a math expression, got %v", ret.Return.Value.Kind)
	}
}

func TestParseIfElseBothBranchesReturn(t *testing.T) {
	src := `pub function main(): i32 {
		i32 x = 5;
		if (x > 0) { return 1; } else { return 0; }
	}`
	body := parseBody(t, src, "main")
	ifNode := body[1]
	if ifNode.Kind != ast.NodeIf {
		t.Fatalf("expected an if statement, got %v", ifNode.Kind)
	}
	if len(ifNode.If.TrueBranch) != 1 || len(ifNode.If.FalseBranch) != 1 {
		t.Fatalf("expected one statement per branch, got true=%d false=%d",
			len(ifNode.If.TrueBranch), len(ifNode.If.FalseBranch))
	}
}

func TestParseLoopWithBreak(t *testing.T) {
	src := `pub function main(): i32 {
		i32 i = 0;
		loop {
			if (i == 3) { break; }
			i = i + 1;
		}
		return i;
	}`
	body := parseBody(t, src, "main")
	loopNode := body[1]
	if loopNode.Kind != ast.NodeLoop {
		t.Fatalf("expected a loop statement, got %v", loopNode.Kind)
	}
	if len(loopNode.Loop.Body) != 2 {
		t.Fatalf("expected 2 statements in loop body, got %d", len(loopNode.Loop.Body))
	}
}

func TestParseBreakOutsideLoopIsRejected(t *testing.T) {
	toks, err := token.Tokenize([]byte(`pub function main(): void { break; }`))
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := sig.Collect(toks, nil)
	if err != nil {
		t.Fatal(err)
	}
	unparsed := tbl.Functions["main"]
	deps := Deps{Signatures: map[string]*ast.FunctionSignature{"main": unparsed.Sig}, CustomTypes: tbl.CustomTypes}
	if _, err := ParseFunctionBody(unparsed.Body, unparsed.Sig, deps); err == nil {
		t.Fatal("expected InvalidControlFlowUsage for break outside a loop")
	}
}

func TestParseStructLiteralAndFieldAccess(t *testing.T) {
	src := `struct P { x: i32, y: i32 }
		pub function main(): i32 { P p = P { x = 3, y = 4 }; return p.x * p.y; }`
	body := parseBody(t, src, "main")
	decl := body[0]
	if decl.Kind != ast.NodeNewVariable {
		t.Fatalf("expected a declaration, got %v", decl.Kind)
	}
	init := decl.NewVar.Initializer
	if init.Kind != ast.NodeStructInitialization {
		t.Fatalf("expected a struct initialization, got %v", init.Kind)
	}
	if len(init.StructInit.FieldOrder) != 2 {
		t.Fatalf("expected 2 fields assigned, got %d", len(init.StructInit.FieldOrder))
	}
	ret := body[1]
	if ret.Kind != ast.NodeReturnValue || ret.Return.Value.Kind != ast.NodeMathematicalExpression {
		t.Fatalf("expected p.x * p.y as the return value, got %+v", ret)
	}
}

func TestParseStructLiteralMissingFieldIsRejected(t *testing.T) {
	toks, err := token.Tokenize([]byte(`struct P { x: i32, y: i32 }
		pub function main(): i32 { P p = P { x = 3 }; return p.x; }`))
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := sig.Collect(toks, nil)
	if err != nil {
		t.Fatal(err)
	}
	unparsed := tbl.Functions["main"]
	deps := Deps{Signatures: map[string]*ast.FunctionSignature{"main": unparsed.Sig}, CustomTypes: tbl.CustomTypes}
	if _, err := ParseFunctionBody(unparsed.Body, unparsed.Sig, deps); err == nil {
		t.Fatal("expected an error for an incomplete struct literal")
	}
}

func TestParseArrayIndexing(t *testing.T) {
	body := parseBody(t, `pub function main(): i32 { array<i32, 3> a = [10, 20, 30]; return a[2]; }`, "main")
	ret := body[1]
	if ret.Kind != ast.NodeReturnValue || ret.Return.Value.Kind != ast.NodeArrayIndexing {
		t.Fatalf("expected an array index return, got %+v", ret)
	}
}

func TestParseFunctionCallNamedAndPositionalArgs(t *testing.T) {
	src := `pub function add(a: i32, b: i32): i32 { return a + b; }
		pub function main(): i32 { return add(b = 2, 1); }`
	body := parseBody(t, src, "main")
	ret := body[0]
	call := ret.Return.Value
	if call.Kind != ast.NodeFunctionCall {
		t.Fatalf("expected a function call, got %v", call.Kind)
	}
	if len(call.Call.ArgOrder) != 2 {
		t.Fatalf("expected 2 bound arguments, got %d", len(call.Call.ArgOrder))
	}
}

func TestParseMissingReturnIsRejected(t *testing.T) {
	toks, err := token.Tokenize([]byte(`pub function main(): i32 { i32 x = 1; }`))
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := sig.Collect(toks, nil)
	if err != nil {
		t.Fatal(err)
	}
	unparsed := tbl.Functions["main"]
	deps := Deps{Signatures: map[string]*ast.FunctionSignature{"main": unparsed.Sig}, CustomTypes: tbl.CustomTypes}
	if _, err := ParseFunctionBody(unparsed.Body, unparsed.Sig, deps); err == nil {
		t.Fatal("expected FunctionRequiresReturn")
	}
}

func TestReturnTypeMismatchIsRejected(t *testing.T) {
	toks, err := token.Tokenize([]byte(`pub function main(): i32 { return "x"; }`))
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := sig.Collect(toks, nil)
	if err != nil {
		t.Fatal(err)
	}
	unparsed := tbl.Functions["main"]
	deps := Deps{Signatures: map[string]*ast.FunctionSignature{"main": unparsed.Sig}, CustomTypes: tbl.CustomTypes}
	if _, err := ParseFunctionBody(unparsed.Body, unparsed.Sig, deps); err == nil {
		t.Fatal("expected VariableTypeMismatch for returning a string from an i32 function")
	}
}

func TestDeclarationTypeMismatchIsRejected(t *testing.T) {
	toks, err := token.Tokenize([]byte(`pub function main(): void { i32 x = "hello"; return; }`))
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := sig.Collect(toks, nil)
	if err != nil {
		t.Fatal(err)
	}
	unparsed := tbl.Functions["main"]
	deps := Deps{Signatures: map[string]*ast.FunctionSignature{"main": unparsed.Sig}, CustomTypes: tbl.CustomTypes}
	if _, err := ParseFunctionBody(unparsed.Body, unparsed.Sig, deps); err == nil {
		t.Fatal("expected VariableTypeMismatch for declaring an i32 with a string initializer")
	}
}

func TestAssignmentTypeMismatchIsRejected(t *testing.T) {
	toks, err := token.Tokenize([]byte(`pub function main(): void { i32 x = 1; x = "hello"; return; }`))
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := sig.Collect(toks, nil)
	if err != nil {
		t.Fatal(err)
	}
	unparsed := tbl.Functions["main"]
	deps := Deps{Signatures: map[string]*ast.FunctionSignature{"main": unparsed.Sig}, CustomTypes: tbl.CustomTypes}
	if _, err := ParseFunctionBody(unparsed.Body, unparsed.Sig, deps); err == nil {
		t.Fatal("expected VariableTypeMismatch for assigning a string into an i32 variable")
	}
}

func TestLogicalOrLowersToBitwiseOr(t *testing.T) {
	body := parseBody(t, `pub function main(): bool { bool a = true; bool b = false; return a || b; }`, "main")
	ret := body[2]
	val := ret.Return.Value
	if val.Kind != ast.NodeMathematicalExpression || val.Math.Op != ast.MathOr {
		t.Fatalf("expected %q to lower to a MathOr expression, got kind=%v", "||", val.Kind)
	}
}

func TestLogicalAndLowersToBitwiseAnd(t *testing.T) {
	body := parseBody(t, `pub function main(): bool { bool a = true; bool b = false; return a && b; }`, "main")
	ret := body[2]
	val := ret.Return.Value
	if val.Kind != ast.NodeMathematicalExpression || val.Math.Op != ast.MathAnd {
		t.Fatalf("expected %q to lower to a MathAnd expression, got kind=%v", "&&", val.Kind)
	}
}

func TestParseTypeCast(t *testing.T) {
	body := parseBody(t, `pub function main(): i32 { f64 f = 2.5; i32 i = f as i32; return i; }`, "main")
	cast := body[1].NewVar.Initializer
	if cast.Kind != ast.NodeTypeCast {
		t.Fatalf("expected a type cast, got %v", cast.Kind)
	}
}
