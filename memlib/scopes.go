package memlib

import (
	"fmt"
)

type ScopeKind int

const (
	// RootScope ends name lookup.
	RootScope ScopeKind = iota
	RegionScope
)

// Scope maps SSA or block names to their definitions within one region.
type Scope[T any] struct {
	Elems     map[string]T
	ScopeKind ScopeKind
}

func NewScope[T any](sk ScopeKind) Scope[T] {
	return Scope[T]{
		Elems:     make(map[string]T),
		ScopeKind: sk,
	}
}

func PushScope[T any](scopes *[]Scope[T], sk ScopeKind) {
	*scopes = append(*scopes, NewScope[T](sk))
}

func PopScope[T any](scopes *[]Scope[T]) {
	if len(*scopes) == 0 {
		panic("memlib: pop of empty scope stack")
	}
	*scopes = (*scopes)[:len(*scopes)-1]
}

// Put defines name in the innermost scope. A name visible from there, up to
// the root, cannot be defined again: nested regions see the outer values.
func Put[T any](scopes []Scope[T], name string, elem T) error {
	if _, ok := Get(scopes, name); ok {
		return fmt.Errorf("redefinition of %s", name)
	}
	scopes[len(scopes)-1].Elems[name] = elem
	return nil
}

func Get[T any](scopes []Scope[T], name string) (T, bool) {
	// Search from innermost scope outward, stopping at the root
	for i := len(scopes) - 1; i >= 0; i-- {
		if e, ok := scopes[i].Elems[name]; ok {
			return e, true
		}
		if scopes[i].ScopeKind == RootScope {
			break
		}
	}

	var zero T
	return zero, false
}
