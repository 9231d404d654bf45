// Package diag implements the span-aware compile-error model shared by all
// four pipeline stages (spec §7 Error Handling Design). It is the one
// ambient-stack package introduced beyond what the teacher codebase
// carries verbatim, because the teacher never needed source spans: its
// errors are plain fmt.Errorf strings (internal/validator/validator.go).
// This package keeps that plain-string texture — CompileError.Error()
// renders the same way validator's errors do — while attaching the span
// every diagnostic in spec §7 requires.
package diag

import "fmt"

import "github.com/dshills/alas/internal/token"

// Kind enumerates the tagged error classes from spec §7: lex, parse,
// type, and codegen errors.
type Kind string

const (
	// Lex errors.
	OpenQuotes          Kind = "OpenQuotes"
	InvalidUtf8Literal  Kind = "InvalidUtf8Literal"
	UnparsableExpression Kind = "UnparsableExpression"

	// Parse errors.
	InvalidSignatureDefinition    Kind = "InvalidSignatureDefinition"
	MissingSemiColon              Kind = "MissingSemiColon"
	LeftOpenParentheses           Kind = "LeftOpenParentheses"
	InvalidStructFieldDefinition  Kind = "InvalidStructFieldDefinition"
	InvalidIfConditionDefinition  Kind = "InvalidIfConditionDefinition"
	InvalidLoopBody               Kind = "InvalidLoopBody"
	VariableNotFound              Kind = "VariableNotFound"
	ArgumentError                 Kind = "ArgumentError"
	InvalidFunctionArgumentCount  Kind = "InvalidFunctionArgumentCount"
	DuplicateFunctions             Kind = "DuplicateFunctions"
	DuplicateSignatureImports      Kind = "DuplicateSignatureImports"
	FunctionRequiresExplicitVisibility Kind = "FunctionRequiresExplicitVisibility"
	StructFieldNotFound            Kind = "StructFieldNotFound"
	InvalidDotPlacement             Kind = "InvalidDotPlacement"
	TypeMismatchNonIndexable        Kind = "TypeMismatchNonIndexable"
	FunctionRequiresReturn          Kind = "FunctionRequiresReturn"
	InvalidCompilerHint             Kind = "InvalidCompilerHint"
	InvalidFeatureRequirement       Kind = "InvalidFeatureRequirement"
	MissingVariableValue           Kind = "MissingVariableValue"
	ReservedKeyword                Kind = "ReservedKeyword"

	// Type errors.
	VariableTypeMismatch Kind = "VariableTypeMismatch"
	InvalidTypeCast      Kind = "InvalidTypeCast"
	InvalidMathematicalValue Kind = "InvalidMathematicalValue"
	ArrayLengthMismatch  Kind = "ArrayLengthMismatch"
	NonIndexType         Kind = "NonIndexType"
	EnumInnerTypeMismatch Kind = "EnumInnerTypeMismatch"
	VagueDereference     Kind = "VagueDereference"

	// Codegen errors.
	InternalVariableNotFound     Kind = "InternalVariableNotFound"
	InternalFunctionNotFound     Kind = "InternalFunctionNotFound"
	InternalFunctionReturnedVoid Kind = "InternalFunctionReturnedVoid"
	InternalStructFieldNotFound  Kind = "InternalStructFieldNotFound"
	InvalidControlFlowUsage      Kind = "InvalidControlFlowUsage"
	InvalidIfCondition           Kind = "InvalidIfCondition"
	GetPointerToFailed           Kind = "GetPointerToFailed"
	InvalidValueDereference      Kind = "InvalidValueDereference"
	InvalidPreAllocation         Kind = "InvalidPreAllocation"
	LibraryLLVMError             Kind = "LibraryLLVMError"
)

// CompileError is the tagged error kind plus source span that spec §6 and
// §7 require every compile error to carry.
type CompileError struct {
	Kind Kind
	Span token.Span
	Msg  string
	Err  error // optional wrapped cause
}

func New(kind Kind, span token.Span, format string, args ...interface{}) *CompileError {
	return &CompileError{Kind: kind, Span: span, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, span token.Span, err error, format string, args ...interface{}) *CompileError {
	return &CompileError{Kind: kind, Span: span, Msg: fmt.Sprintf(format, args...), Err: err}
}

func (e *CompileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Render formats a CompileError with a file:line:column prefix, the same
// shape cmd/alas-compile's stderr reporting uses for validation failures.
func Render(file string, e *CompileError) string {
	return fmt.Sprintf("%s:%d:%d: %s", file, e.Span.Start.Line, e.Span.Start.Column, e.Error())
}
