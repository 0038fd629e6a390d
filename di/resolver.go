package di

import (
	"fmt"
	"reflect"
	"sync"
	"time"
)

// Resolver is the read side of a container. The root Container, every Scope
// and the resolver handed to constructors all implement it, so constructor
// code is written once and works in all three positions.
//
// Constructors must resolve their dependencies through the resolver they
// receive. Calling back into the container itself from inside a constructor
// deadlocks on the construction lock.
type Resolver interface {
	// Params returns the injection parameters of the resolution in flight.
	// Empty outside constructors.
	Params() *Params
	// Property returns the property under key, rendered as a string.
	Property(k string) (string, bool)

	resolve(t reflect.Type, name Qualifier, params *Params) (any, error)
	host() (*Container, *Scope)
}

type resolveConfig struct {
	name   Qualifier
	params *Params
}

// ResolveOption configures one resolution. Qualifier values work directly
// as resolve options.
type ResolveOption interface {
	applyResolve(*resolveConfig)
}

type resolveOptionFunc func(*resolveConfig)

func (f resolveOptionFunc) applyResolve(rc *resolveConfig) { f(rc) }

// WithName restricts the resolution to the definition qualified with name.
// Equivalent to passing di.Named(name).
func WithName(name string) ResolveOption {
	return resolveOptionFunc(func(rc *resolveConfig) { rc.name = Qualifier(name) })
}

// WithParams supplies injection parameters for this resolution. They reach
// the constructor through Resolver.Params and are dropped afterwards, never
// cached with the instance.
func WithParams(vals ...any) ResolveOption {
	return resolveOptionFunc(func(rc *resolveConfig) { rc.params = NewParams(vals...) })
}

// Resolve returns the instance for T from r, applying opts.
func Resolve[T any](r Resolver, opts ...ResolveOption) (T, error) {
	var zero T
	if r == nil {
		return zero, ErrNilResolver
	}
	var rc resolveConfig
	for _, opt := range opts {
		if opt != nil {
			opt.applyResolve(&rc)
		}
	}
	v, err := r.resolve(typeOf[T](), rc.name, rc.params)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		k := key{typ: typeOf[T](), name: rc.name}
		return zero, WrongTypeError{Key: k.String(), GotType: typeNameOf(v)}
	}
	return out, nil
}

// MustResolve is Resolve, panicking on error.
func MustResolve[T any](r Resolver, opts ...ResolveOption) T {
	v, err := Resolve[T](r, opts...)
	if err != nil {
		panic(err)
	}
	return v
}

// ResolveNamed is shorthand for Resolve with a qualifier.
func ResolveNamed[T any](r Resolver, name string, opts ...ResolveOption) (T, error) {
	return Resolve[T](r, append([]ResolveOption{Named(name)}, opts...)...)
}

// MustResolveNamed is ResolveNamed, panicking on error.
func MustResolveNamed[T any](r Resolver, name string, opts ...ResolveOption) T {
	v, err := ResolveNamed[T](r, name, opts...)
	if err != nil {
		panic(err)
	}
	return v
}

// ResolveAll returns one instance from every definition registered for T,
// under its primary type or through As, in registration order. Scoped
// definitions not visible from r are skipped rather than failing.
func ResolveAll[T any](r Resolver) ([]T, error) {
	if r == nil {
		return nil, ErrNilResolver
	}
	c, scope := r.host()
	t := typeOf[T]()
	c.mu.RLock()
	var matched []*definition
	for _, d := range c.order {
		if d.key.typ == t {
			matched = append(matched, d)
			continue
		}
		for _, b := range d.binds {
			if b == t {
				matched = append(matched, d)
				break
			}
		}
	}
	c.mu.RUnlock()

	out := make([]T, 0, len(matched))
	for _, d := range matched {
		if d.kind == KindScoped && (scope == nil || scope.name != d.scope) {
			continue
		}
		v, err := r.resolve(d.key.typ, d.key.name, nil)
		if err != nil {
			return nil, err
		}
		tv, ok := v.(T)
		if !ok {
			return nil, WrongTypeError{Key: d.key.String(), GotType: typeNameOf(v)}
		}
		out = append(out, tv)
	}
	return out, nil
}

func (c *Container) resolve(t reflect.Type, name Qualifier, params *Params) (any, error) {
	return c.resolveEntry(nil, t, name, params)
}

func (c *Container) host() (*Container, *Scope) { return c, nil }

// resolveEntry is the resolution entry point for containers and scopes. It
// serves cached singles from a read lock and falls back to a construction
// session under createMu for everything else.
func (c *Container) resolveEntry(scope *Scope, t reflect.Type, name Qualifier, params *Params) (any, error) {
	k := key{typ: t, name: name}

	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return nil, ErrContainerClosed
	}
	if scope != nil && scope.closed {
		c.mu.RUnlock()
		return nil, ScopeClosedError{ID: scope.id}
	}
	if d, ok := c.defs[k]; ok && d.kind == KindSingle {
		if v, hit := c.singles[d.key]; hit {
			c.mu.RUnlock()
			c.observe(ResolveEvent{Key: d.key.String(), Kind: KindSingle, CacheHit: true, ScopeID: scopeIDOf(scope)})
			return v, nil
		}
	}
	c.mu.RUnlock()

	c.createMu.Lock()
	c.mu.RLock()
	closed := c.closed
	scopeClosed := scope != nil && scope.closed
	c.mu.RUnlock()
	if closed {
		c.createMu.Unlock()
		return nil, ErrContainerClosed
	}
	if scopeClosed {
		c.createMu.Unlock()
		return nil, ScopeClosedError{ID: scope.id}
	}
	s := &session{c: c, scope: scope}
	v, err := s.resolveKey(k, params)
	events := s.events
	c.createMu.Unlock()

	for _, ev := range events {
		c.observe(ev)
	}
	return v, err
}

// session is the resolver constructors see. One session lives for one entry
// into the slow path, runs with createMu held, and carries the construction
// stack for cycle detection.
type session struct {
	c      *Container
	scope  *Scope
	stack  []key
	params *Params
	events []ResolveEvent
}

// Params implements Resolver.
func (s *session) Params() *Params {
	if s.params == nil {
		return emptyParams
	}
	return s.params
}

// Property implements Resolver.
func (s *session) Property(k string) (string, bool) { return s.c.props.getString(k) }

func (s *session) host() (*Container, *Scope) { return s.c, s.scope }

func (s *session) resolve(t reflect.Type, name Qualifier, params *Params) (any, error) {
	return s.resolveKey(key{typ: t, name: name}, params)
}

// resolveKey resolves one key within the session: cache check, cycle check,
// construct, cache fill. Runs with createMu held.
func (s *session) resolveKey(k key, params *Params) (any, error) {
	c := s.c
	c.mu.RLock()
	d, ok := c.defs[k]
	c.mu.RUnlock()
	if !ok {
		return nil, DefinitionNotFoundError{Type: k.typ, Name: k.name}
	}
	if d.kind == KindScoped && (s.scope == nil || s.scope.name != d.scope) {
		return nil, OutOfScopeError{Key: d.key.String(), Scope: d.scope}
	}

	switch d.kind {
	case KindSingle:
		c.mu.RLock()
		v, hit := c.singles[d.key]
		c.mu.RUnlock()
		if hit {
			s.record(d, true, 0, nil)
			return v, nil
		}
	case KindScoped:
		if v, hit := s.scope.instances[d.key]; hit {
			s.record(d, true, 0, nil)
			return v, nil
		}
	}

	for _, on := range s.stack {
		if on == d.key {
			return nil, DependencyCycleError{Path: s.cyclePath(d.key)}
		}
	}

	s.stack = append(s.stack, d.key)
	start := time.Now()
	v, err := s.construct(d, params)
	dur := time.Since(start)
	s.stack = s.stack[:len(s.stack)-1]
	if err != nil {
		s.record(d, false, dur, err)
		return nil, err
	}

	switch d.kind {
	case KindSingle:
		c.mu.Lock()
		c.singles[d.key] = v
		c.created = append(c.created, closeRecord{def: d, val: v})
		c.mu.Unlock()
	case KindScoped:
		s.scope.instances[d.key] = v
		s.scope.created = append(s.scope.created, closeRecord{def: d, val: v})
	}
	s.record(d, false, dur, nil)
	return v, nil
}

// construct runs the definition's constructor with params installed for the
// duration of the call. A constructor panic is converted into an
// InstanceCreationError wrapping ErrConstructorPanic.
func (s *session) construct(d *definition, params *Params) (v any, err error) {
	saved := s.params
	if params == nil {
		s.params = emptyParams
	} else {
		s.params = params
	}
	defer func() {
		s.params = saved
		if rec := recover(); rec != nil {
			v = nil
			err = InstanceCreationError{Key: d.key.String(), Err: fmt.Errorf("%w: %v", ErrConstructorPanic, rec)}
		}
	}()
	out, cerr := d.ctor(s)
	if cerr != nil {
		return nil, InstanceCreationError{Key: d.key.String(), Err: cerr}
	}
	return out, nil
}

func (s *session) cyclePath(last key) []string {
	path := make([]string, 0, len(s.stack)+1)
	for _, k := range s.stack {
		path = append(path, k.String())
	}
	return append(path, last.String())
}

func (s *session) record(d *definition, hit bool, dur time.Duration, err error) {
	if s.c.observer == nil {
		return
	}
	s.events = append(s.events, ResolveEvent{
		Key:      d.key.String(),
		Kind:     d.kind,
		CacheHit: hit,
		ScopeID:  scopeIDOf(s.scope),
		Duration: dur,
		Err:      err,
	})
}

// LazyHandle defers a resolution until the first Get. Success is cached;
// a failure is returned and retried on the next Get.
type LazyHandle[T any] struct {
	r    Resolver
	opts []ResolveOption

	mu   sync.Mutex
	done bool
	val  T
}

// Lazy binds a deferred resolution to r's container or scope. Get must not
// run inside a constructor; resolve directly there instead.
func Lazy[T any](r Resolver, opts ...ResolveOption) *LazyHandle[T] {
	h := &LazyHandle[T]{opts: opts}
	if r != nil {
		if c, s := r.host(); s != nil {
			h.r = s
		} else {
			h.r = c
		}
	}
	return h
}

// Get resolves on first use and returns the cached instance afterwards.
func (h *LazyHandle[T]) Get() (T, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return h.val, nil
	}
	var zero T
	if h.r == nil {
		return zero, ErrNilResolver
	}
	v, err := Resolve[T](h.r, h.opts...)
	if err != nil {
		return zero, err
	}
	h.val, h.done = v, true
	return v, nil
}

// MustGet is Get, panicking on error.
func (h *LazyHandle[T]) MustGet() T {
	v, err := h.Get()
	if err != nil {
		panic(err)
	}
	return v
}
