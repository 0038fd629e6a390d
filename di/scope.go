package di

import (
	"errors"
	"reflect"
)

// Scope is a live instance of a named scope: an id-bound region in which
// scoped definitions cache one instance each. A scope resolves everything
// its container resolves, plus the scoped definitions declared under its
// name. Scopes are created from declared names only; resolving a scoped
// definition from the root container fails with OutOfScopeError.
type Scope struct {
	c    *Container
	name string
	id   string

	// closed is guarded by c.mu; instances and created by c.createMu.
	closed    bool
	instances map[key]any
	created   []closeRecord
}

// CreateScope opens a scope instance with the given declared name and a
// container-unique id.
func (c *Container) CreateScope(name, id string) (*Scope, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.createScopeLocked(name, id)
}

func (c *Container) createScopeLocked(name, id string) (*Scope, error) {
	if c.closed {
		return nil, ErrContainerClosed
	}
	if _, ok := c.scopeNames[name]; !ok {
		return nil, UnknownScopeError{Name: name}
	}
	if _, ok := c.scopes[id]; ok {
		return nil, DuplicateScopeError{ID: id}
	}
	s := &Scope{c: c, name: name, id: id, instances: make(map[key]any)}
	c.scopes[id] = s
	c.scopeOrder = append(c.scopeOrder, s)
	c.log.Debug("scope created", "scope", name, "id", id)
	return s, nil
}

// Scope returns the open scope with the given id.
func (c *Container) Scope(id string) (*Scope, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrContainerClosed
	}
	s, ok := c.scopes[id]
	if !ok {
		return nil, ScopeNotFoundError{ID: id}
	}
	return s, nil
}

// ScopeOrCreate returns the open scope with the given id, creating it when
// absent. An existing id under a different name is rejected.
func (c *Container) ScopeOrCreate(name, id string) (*Scope, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.scopes[id]; ok {
		if s.name != name {
			return nil, DuplicateScopeError{ID: id}
		}
		return s, nil
	}
	return c.createScopeLocked(name, id)
}

// Name returns the declared scope name this instance belongs to.
func (s *Scope) Name() string { return s.name }

// ID returns the scope instance id.
func (s *Scope) ID() string { return s.id }

// Params implements Resolver; a scope carries no injection parameters.
func (s *Scope) Params() *Params { return emptyParams }

// Property implements Resolver.
func (s *Scope) Property(k string) (string, bool) { return s.c.props.getString(k) }

func (s *Scope) resolve(t reflect.Type, name Qualifier, params *Params) (any, error) {
	return s.c.resolveEntry(s, t, name, params)
}

func (s *Scope) host() (*Container, *Scope) { return s.c, s }

// Close tears the scope down, running scoped teardown hooks in reverse
// creation order. Idempotent. Afterwards the scope resolves nothing and the
// container forgets its id.
func (s *Scope) Close() error {
	c := s.c
	c.createMu.Lock()
	c.mu.Lock()
	if s.closed {
		c.mu.Unlock()
		c.createMu.Unlock()
		return nil
	}
	recs := c.detachScopeLocked(s)
	c.mu.Unlock()
	c.createMu.Unlock()

	errs := closeRecords(recs)
	c.log.Debug("scope closed", "scope", s.name, "id", s.id)
	return errors.Join(errs...)
}

// detachScopeLocked marks s closed and detaches it from the container,
// returning its teardown records. Caller holds createMu and mu.
func (c *Container) detachScopeLocked(s *Scope) []closeRecord {
	s.closed = true
	recs := s.created
	s.created = nil
	s.instances = nil
	delete(c.scopes, s.id)
	for i, o := range c.scopeOrder {
		if o == s {
			c.scopeOrder = append(c.scopeOrder[:i], c.scopeOrder[i+1:]...)
			break
		}
	}
	return recs
}

func scopeIDOf(s *Scope) string {
	if s == nil {
		return ""
	}
	return s.id
}
