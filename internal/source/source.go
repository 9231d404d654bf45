// Package source defines the core's sole input boundary (spec §1): a
// Unit carrying raw text plus already-resolved imports, and a Resolver
// interface generalized from the teacher's codegen.ModuleResolver /
// FileModuleLoader (internal/codegen/llvm.go) so dependency/module
// discovery across the filesystem — explicitly out of core scope — stays
// behind a thin interface. The one implementation, FileResolver, returns
// only modules registered with it in memory; it never loads a file.
package source

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dshills/alas/internal/ast"
)

// Unit is `SourceUnit { path, text, imports_resolved_to -> ModuleAST }`
// exactly as spec §1 names it.
type Unit struct {
	Path             string
	Text             []byte
	ImportsResolvedTo map[string]*ast.Module
}

// Resolver loads an already-compiled module's exported signatures by
// import path, generalizing the teacher's ModuleResolver interface
// (internal/codegen/llvm.go) from ALaS's JSON-module lookup to this
// spec's Module type.
type Resolver interface {
	ResolveImport(path string) (*ast.Module, error)
}

// FileResolver resolves an import path to an already-built ast.Module
// registered with it in memory. Its search paths, borrowed from the
// teacher's FileModuleLoader, only shape the error message: a file found
// there is reported as not yet resolved and is not read. Modules are kept by the
// outer (out-of-core-scope) build system — the core never re-parses an
// import's source text itself, it only consumes the resolved table
// (spec §5 Ordering guarantees: "Cross-module order follows import-graph
// post-order").
type FileResolver struct {
	searchPaths []string
	resolved    map[string]*ast.Module
}

// NewFileResolver creates a resolver that checks an in-memory table of
// already-resolved modules (populated by the out-of-core build system as
// it walks the import graph post-order). For a path not in the table,
// searchPaths decide only which error is returned.
func NewFileResolver(searchPaths []string) *FileResolver {
	return &FileResolver{searchPaths: searchPaths, resolved: make(map[string]*ast.Module)}
}

// Register makes an already-compiled module available under path,
// matching the build system's post-order population of the dependency
// table before the core ever touches it.
func (r *FileResolver) Register(path string, m *ast.Module) {
	r.resolved[path] = m
}

func (r *FileResolver) ResolveImport(path string) (*ast.Module, error) {
	if m, ok := r.resolved[path]; ok {
		return m, nil
	}
	for _, dir := range r.searchPaths {
		candidate := filepath.Join(dir, path)
		if _, err := os.Stat(candidate); err == nil {
			return nil, fmt.Errorf("module %s found at %s but is not yet resolved; resolve imports before invoking the core", path, candidate)
		}
	}
	return nil, fmt.Errorf("module %s not found in search paths", path)
}
