package parser

import (
	"github.com/dshills/alas/internal/ast"
	"github.com/dshills/alas/internal/sig"
	"github.com/dshills/alas/internal/types"
)

// binding is one scope entry: a variable's type and unique id.
type binding struct {
	Type types.Type
	ID   ast.VarID
}

// scope is a lexical scope level (spec §4.3 Scope): entering an if/else
// or loop body extends the enclosing scope (a child scope whose parent is
// the enclosing one); parent bindings are visible; bindings introduced
// inside a block do not escape once the child scope is discarded. Name
// clashes shadow across levels but are rejected at the same lexical level
// (spec §4.3 Scope).
type scope struct {
	parent *scope
	vars   map[string]binding
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: make(map[string]binding)}
}

// declare introduces a new binding, allocating a fresh unique id. It is an
// error to redeclare a name already present at this exact lexical level.
func (s *scope) declare(name string, ty types.Type) (ast.VarID, error) {
	if _, exists := s.vars[name]; exists {
		return 0, errDuplicateDecl(name)
	}
	id := sig.NextVarID()
	s.vars[name] = binding{Type: ty, ID: id}
	return id, nil
}

// declareWithID is like declare but reuses a caller-supplied id, used to
// seed a function's argument bindings into its top-level scope.
func (s *scope) declareWithID(name string, ty types.Type, id ast.VarID) {
	s.vars[name] = binding{Type: ty, ID: id}
}

// lookup resolves name against this scope and, failing that, each
// enclosing parent in turn (spec §4.3 Scope).
func (s *scope) lookup(name string) (binding, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.vars[name]; ok {
			return b, true
		}
	}
	return binding{}, false
}
