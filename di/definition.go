package di

import (
	"reflect"
	"strconv"
)

// Qualifier disambiguates multiple definitions of the same type.
//
// The zero qualifier ("") is the unnamed default. A Qualifier can be used
// both at registration time (as a DefOption) and at resolution time (as a
// ResolveOption):
//
//	di.Single[Cache](m, newRedis, di.Named("redis"))
//	cache, err := di.Resolve[Cache](c, di.Named("redis"))
type Qualifier string

// Named builds a Qualifier from a plain string.
func Named(name string) Qualifier { return Qualifier(name) }

func (q Qualifier) applyDef(d *definition)         { d.key.name = q }
func (q Qualifier) applyResolve(rc *resolveConfig) { rc.name = q }

// Kind classifies how a definition's instances are cached.
type Kind uint8

const (
	// KindSingle caches at most one instance per container.
	KindSingle Kind = iota
	// KindFactory produces a fresh instance on every resolution.
	KindFactory
	// KindScoped caches at most one instance per scope instance.
	KindScoped
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindFactory:
		return "factory"
	case KindScoped:
		return "scoped"
	default:
		return "unknown"
	}
}

// key is the identity of a definition: the Go type it produces plus an
// optional qualifier. Two definitions conflict iff their keys are equal.
type key struct {
	typ  reflect.Type
	name Qualifier
}

// String renders the key the way errors and cycle paths report it.
//
// Example: *store.DB or Cache (qualifier "redis")
func (k key) String() string {
	if k.name == "" {
		return typeString(k.typ)
	}
	return typeString(k.typ) + " (qualifier " + strconv.Quote(string(k.name)) + ")"
}

// typeOf returns the reflect.Type for T without allocating a T.
func typeOf[T any]() reflect.Type { return reflect.TypeOf((*T)(nil)).Elem() }

func typeString(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// typeNameOf reports the dynamic type of v for error messages.
func typeNameOf(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}

// definition is one registered recipe: how to produce an instance of a type,
// under which key, with which caching behavior.
type definition struct {
	key      key
	kind     Kind
	ctor     func(Resolver) (any, error)
	binds    []reflect.Type
	scope    string
	eager    bool
	override bool
	onClose  func(any) error
	module   string
}

// DefOption configures a definition at registration time.
type DefOption interface {
	applyDef(*definition)
}

type defOptionFunc func(*definition)

func (f defOptionFunc) applyDef(d *definition) { f(d) }

// Eager marks a single for creation while its module loads, instead of on
// first resolution. Only meaningful for Single registrations.
func Eager() DefOption {
	return defOptionFunc(func(d *definition) { d.eager = true })
}

// Override lets the definition replace an existing definition with the same
// key regardless of the container's override policy.
func Override() DefOption {
	return defOptionFunc(func(d *definition) { d.override = true })
}

// InScope ties a scoped definition to a scope name. Required for Scoped
// registrations, invalid for the other kinds.
func InScope(name string) DefOption {
	return defOptionFunc(func(d *definition) { d.scope = name })
}

// As additionally registers the definition under type I, so the same recipe
// answers resolutions of I. The definition's concrete type must be
// assignable to I; violations surface when the module loads.
func As[I any]() DefOption {
	return defOptionFunc(func(d *definition) {
		d.binds = append(d.binds, typeOf[I]())
	})
}

// OnClose attaches a teardown hook invoked with the cached instance when the
// owning container or scope closes (singles in reverse creation order).
//
// The hook also runs when an instantiated single is replaced through an
// override.
func OnClose[T any](fn func(T) error) DefOption {
	return defOptionFunc(func(d *definition) {
		if fn == nil {
			return
		}
		d.onClose = func(v any) error {
			t, ok := v.(T)
			if !ok {
				return WrongTypeError{Key: d.key.String(), GotType: typeNameOf(v)}
			}
			return fn(t)
		}
	})
}
