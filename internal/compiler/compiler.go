// Package compiler wires the four pipeline phases spec §6 describes
// ("AST-level interface" / "Text-level interface") into the two entry
// points an outer build system calls: CompileUnit (tokenize, collect,
// parse) and Lower (generate IR), generalizing the teacher's single
// json.Unmarshal + validator.ValidateJSON decode step
// (cmd/alas-compile/main.go) into a real multi-phase compiler front end.
package compiler

import (
	"fmt"
	"sort"

	"github.com/llir/llvm/ir"

	"github.com/dshills/alas/internal/ast"
	"github.com/dshills/alas/internal/codegen"
	"github.com/dshills/alas/internal/config"
	"github.com/dshills/alas/internal/diag"
	"github.com/dshills/alas/internal/parser"
	"github.com/dshills/alas/internal/sig"
	"github.com/dshills/alas/internal/source"
	"github.com/dshills/alas/internal/token"
)

// CompileUnit runs phases 1-3 (tokenizer, signature & type collector,
// body parser) over one source.Unit, producing a fully parsed Module
// ready for the IR generator (spec §6 AST-level interface).
func CompileUnit(unit *source.Unit, cfg *config.BuildConfig) (*ast.Module, error) {
	toks, err := token.Tokenize(unit.Text)
	if err != nil {
		return nil, renderErr(unit.Path, err)
	}

	tbl, err := sig.Collect(toks, cfg)
	if err != nil {
		return nil, renderErr(unit.Path, err)
	}

	deps := parser.Deps{
		Signatures:  make(map[string]*ast.FunctionSignature),
		CustomTypes: tbl.CustomTypes,
	}
	for name, fn := range tbl.Functions {
		deps.Signatures[name] = fn.Sig
	}
	for name, ext := range tbl.ExternalImports {
		deps.Signatures[name] = ext
	}

	mod := &ast.Module{Name: unit.Path, Types: deps.CustomTypes}

	importPaths := make([]string, 0, len(tbl.ImportedFuncs))
	for path := range tbl.ImportedFuncs {
		importPaths = append(importPaths, path)
	}
	sort.Strings(importPaths)
	for _, path := range importPaths {
		resolved, ok := unit.ImportsResolvedTo[path]
		if !ok {
			return nil, fmt.Errorf("import %q has no resolved module; resolve imports before invoking the core", path)
		}
		for _, fn := range resolved.Functions {
			if fn.Sig.Visibility != ast.VisPublic && fn.Sig.Visibility != ast.VisPublicLibrary {
				continue
			}
			deps.Signatures[fn.Sig.Name] = fn.Sig
			mod.Imported = append(mod.Imported, fn)
		}
		for name, ct := range resolved.Types {
			if _, exists := deps.CustomTypes[name]; !exists {
				deps.CustomTypes[name] = ct
			}
		}
	}

	externNames := make([]string, 0, len(tbl.ExternalImports))
	for name := range tbl.ExternalImports {
		externNames = append(externNames, name)
	}
	sort.Strings(externNames)
	for _, name := range externNames {
		mod.Externs = append(mod.Externs, tbl.ExternalImports[name])
	}

	fnNames := make([]string, 0, len(tbl.Functions))
	for name := range tbl.Functions {
		fnNames = append(fnNames, name)
	}
	sort.Strings(fnNames)
	for _, name := range fnNames {
		unparsed := tbl.Functions[name]
		body, err := parser.ParseFunctionBody(unparsed.Body, unparsed.Sig, deps)
		if err != nil {
			return nil, renderErr(unit.Path, err)
		}
		mod.Functions = append(mod.Functions, &ast.Function{Sig: unparsed.Sig, Body: body, Span: unparsed.Span})
	}

	return mod, nil
}

// Lower runs phase 4 (the IR generator) over an already-parsed Module
// (spec §6 AST-level interface).
func Lower(mod *ast.Module, cfg *config.BuildConfig) (*ir.Module, error) {
	return codegen.New(cfg).GenerateModule(mod)
}

func renderErr(path string, err error) error {
	if ce, ok := err.(*diag.CompileError); ok {
		return fmt.Errorf("%s", diag.Render(path, ce))
	}
	return err
}
