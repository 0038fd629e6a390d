package di

import (
	"errors"
	"strconv"
)

// VerifyOption supplies injection parameters to Verify for definitions that
// require them at construction time.
type VerifyOption interface {
	applyVerify(*verifyConfig)
}

type verifyConfig struct {
	params map[key]*Params
}

type verifyOptionFunc func(*verifyConfig)

func (f verifyOptionFunc) applyVerify(cfg *verifyConfig) { f(cfg) }

// VerifyParams supplies injection parameters for the unqualified definition
// of T during Verify.
func VerifyParams[T any](vals ...any) VerifyOption {
	return verifyOptionFunc(func(cfg *verifyConfig) {
		cfg.params[key{typ: typeOf[T]()}] = NewParams(vals...)
	})
}

// VerifyParamsNamed supplies injection parameters for the definition of T
// qualified with name.
func VerifyParamsNamed[T any](name string, vals ...any) VerifyOption {
	return verifyOptionFunc(func(cfg *verifyConfig) {
		cfg.params[key{typ: typeOf[T](), name: Qualifier(name)}] = NewParams(vals...)
	})
}

// Verify instantiates every registered definition once on a shadow container
// and returns all failures joined: unresolvable dependencies, cycles and
// constructor errors all surface in one pass. The shadow shares definitions
// and properties but none of the instances, so the live container's caches
// stay untouched; shadow instances are torn down before Verify returns.
// Scoped definitions are verified inside a temporary scope of their name.
func (c *Container) Verify(opts ...VerifyOption) error {
	if c.isClosed() {
		return ErrContainerClosed
	}
	cfg := verifyConfig{params: make(map[key]*Params)}
	for _, opt := range opts {
		if opt != nil {
			opt.applyVerify(&cfg)
		}
	}

	shadow, defs := c.shadow()
	var errs []error
	for i, d := range defs {
		var r Resolver = shadow
		var sc *Scope
		if d.kind == KindScoped {
			var err error
			sc, err = shadow.CreateScope(d.scope, "verify-"+strconv.Itoa(i))
			if err != nil {
				errs = append(errs, err)
				continue
			}
			r = sc
		}
		if _, err := r.resolve(d.key.typ, d.key.name, cfg.params[d.key]); err != nil {
			errs = append(errs, err)
		}
		if sc != nil {
			if err := sc.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if err := shadow.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Container) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// shadow clones the definition table into a fresh container with empty
// caches, no observer and shared properties.
func (c *Container) shadow() (*Container, []*definition) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sh := &Container{
		defs:       make(map[key]*definition, len(c.defs)),
		order:      make([]*definition, len(c.order)),
		scopeNames: make(map[string]struct{}, len(c.scopeNames)),
		singles:    make(map[key]any),
		scopes:     make(map[string]*Scope),
		props:      c.props,
		log:        c.log,
		policy:     c.policy,
	}
	for k, d := range c.defs {
		sh.defs[k] = d
	}
	copy(sh.order, c.order)
	for n := range c.scopeNames {
		sh.scopeNames[n] = struct{}{}
	}
	return sh, sh.order
}
