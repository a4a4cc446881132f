package docstore

import (
	"fmt"
)

type scopeKind int

const (
	scopeTransaction scopeKind = iota
	scopeGroup
)

func (k scopeKind) String() string {
	if k == scopeGroup {
		return "group"
	}
	return "transaction"
}

// Scope is an open transaction or transaction group. Each scope works on a
// clone of its parent's state: Commit folds the clone back into the parent,
// Rollback discards it. Because a group's layer absorbs the commits of the
// transactions opened inside it, rolling the group back also undoes those
// committed transactions.
type Scope struct {
	s      *Session
	kind   scopeKind
	name   string
	state  documentState
	closed bool
}

// Name returns the label the scope was opened with.
func (sc *Scope) Name() string {
	return sc.name
}

// Begin opens a transaction. Transactions do not nest: opening one while
// another transaction is active fails with ErrNestedTransaction.
func (s *Session) Begin(name string) (*Scope, error) {
	return s.open(scopeTransaction, name)
}

// BeginGroup opens a transaction group. Groups nest inside other groups
// and wrap transactions, but cannot open inside an active transaction.
func (s *Session) BeginGroup(name string) (*Scope, error) {
	return s.open(scopeGroup, name)
}

func (s *Session) open(kind scopeKind, name string) (*Scope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if n := len(s.scopes); n > 0 && s.scopes[n-1].kind == scopeTransaction {
		return nil, fmt.Errorf("%s %q: %w", kind, name, ErrNestedTransaction)
	}

	sc := &Scope{
		s:     s,
		kind:  kind,
		name:  name,
		state: s.top().clone(),
	}
	s.scopes = append(s.scopes, sc)

	s.log.Debugw("Scope opened", "kind", kind.String(), "name", name, "depth", len(s.scopes))
	return sc, nil
}

// Commit folds the scope's state into its parent and closes the scope.
func (sc *Scope) Commit() error {
	s := sc.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.popScope(sc); err != nil {
		return fmt.Errorf("commit %s %q: %w", sc.kind, sc.name, err)
	}

	if n := len(s.scopes); n > 0 {
		s.scopes[n-1].state = sc.state
	} else {
		s.root = sc.state
	}

	s.log.Debugw("Scope committed", "kind", sc.kind.String(), "name", sc.name, "depth", len(s.scopes)+1)
	return nil
}

// Rollback discards the scope's state and closes the scope. The parent
// state is untouched, including everything mutated or committed inside
// this scope.
func (sc *Scope) Rollback() error {
	s := sc.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.popScope(sc); err != nil {
		return fmt.Errorf("rollback %s %q: %w", sc.kind, sc.name, err)
	}

	s.log.Debugw("Scope rolled back", "kind", sc.kind.String(), "name", sc.name, "depth", len(s.scopes)+1)
	return nil
}

// popScope validates that sc is the innermost open scope and removes it.
// Caller holds s.mu.
func (s *Session) popScope(sc *Scope) error {
	if sc.closed {
		return ErrScopeClosed
	}
	n := len(s.scopes)
	if n == 0 || s.scopes[n-1] != sc {
		return ErrScopeNotCurrent
	}
	s.scopes = s.scopes[:n-1]
	sc.closed = true
	return nil
}

// top returns the state visible to reads. Caller holds s.mu.
func (s *Session) top() documentState {
	if n := len(s.scopes); n > 0 {
		return s.scopes[n-1].state
	}
	return s.root
}

// mutable returns the state of the innermost open transaction. Mutations
// inside a bare group, or with no scope at all, fail with ErrNoTransaction.
// Caller holds s.mu.
func (s *Session) mutable() (documentState, error) {
	if s.closed {
		return documentState{}, ErrSessionClosed
	}
	if n := len(s.scopes); n > 0 && s.scopes[n-1].kind == scopeTransaction {
		return s.scopes[n-1].state, nil
	}
	return documentState{}, ErrNoTransaction
}
