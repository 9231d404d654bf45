package diag

import (
	"errors"
	"strings"
	"testing"

	"github.com/dshills/alas/internal/token"
)

func TestNewAndError(t *testing.T) {
	span := token.Span{Start: token.Position{Line: 3, Column: 5}}
	err := New(VariableNotFound, span, "undefined variable %q", "x")
	if !strings.Contains(err.Error(), "VariableNotFound") || !strings.Contains(err.Error(), `"x"`) {
		t.Fatalf("unexpected error text: %s", err.Error())
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(LeftOpenParentheses, token.Span{}, cause, "unterminated block")
	if !errors.Is(err, cause) {
		t.Fatal("expected Wrap's CompileError to unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected wrapped cause in error text, got %s", err.Error())
	}
}

func TestRenderIncludesPosition(t *testing.T) {
	span := token.Span{Start: token.Position{Line: 7, Column: 2}}
	err := New(MissingSemiColon, span, "expected ';'")
	out := Render("main.fog", err)
	if !strings.HasPrefix(out, "main.fog:7:2:") {
		t.Fatalf("expected a file:line:column prefix, got %q", out)
	}
}
