package di

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// OverridePolicy governs what happens when a loading definition carries the
// same key as one already registered from a different module. Definitions
// conflicting within one module are always rejected, whatever the policy.
type OverridePolicy uint8

const (
	// OverrideDeny rejects the new definition with DuplicateDefinitionError.
	// The default.
	OverrideDeny OverridePolicy = iota
	// OverrideReplace installs the new definition and logs a warning. A
	// cached instance of the replaced single is torn down.
	OverrideReplace
	// OverrideSkip keeps the existing definition and drops the new one with
	// a debug log line.
	OverrideSkip
)

// String implements fmt.Stringer.
func (p OverridePolicy) String() string {
	switch p {
	case OverrideDeny:
		return "deny"
	case OverrideReplace:
		return "replace"
	case OverrideSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// ResolveEvent describes one resolution of a registered definition, as
// reported to the observer installed with WithResolveObserver. Err carries
// the construction failure when there was one.
type ResolveEvent struct {
	Key      string
	Kind     Kind
	CacheHit bool
	ScopeID  string
	Duration time.Duration
	Err      error
}

type containerConfig struct {
	modules     []*Module
	logger      Logger
	policy      OverridePolicy
	propFiles   []string
	propMaps    []map[string]string
	envPrefixes []string
	observer    func(ResolveEvent)
}

// Option configures a container under construction.
type Option func(*containerConfig)

// WithModules loads the given modules during New, in order.
func WithModules(mods ...*Module) Option {
	return func(cfg *containerConfig) { cfg.modules = append(cfg.modules, mods...) }
}

// WithLogger routes the container's own diagnostics through l.
func WithLogger(l Logger) Option {
	return func(cfg *containerConfig) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithOverridePolicy sets the policy applied to conflicting definitions.
func WithOverridePolicy(p OverridePolicy) Option {
	return func(cfg *containerConfig) { cfg.policy = p }
}

// WithProperties overlays explicit properties. Keys are dotted paths.
func WithProperties(m map[string]string) Option {
	return func(cfg *containerConfig) { cfg.propMaps = append(cfg.propMaps, m) }
}

// WithPropertiesFile merges a java-style .properties file. Files load first
// and have the lowest precedence.
func WithPropertiesFile(path string) Option {
	return func(cfg *containerConfig) { cfg.propFiles = append(cfg.propFiles, path) }
}

// WithEnvProperties overlays environment variables carrying prefix, mapping
// APP_DB_DSN (prefix "APP_") to property "db.dsn". Environment overlays
// load last and win over files and maps.
func WithEnvProperties(prefix string) Option {
	return func(cfg *containerConfig) { cfg.envPrefixes = append(cfg.envPrefixes, prefix) }
}

// WithResolveObserver installs fn as the resolve observer. It runs on the
// resolving goroutine after the resolution completes, outside the
// container's locks, so it may itself resolve.
func WithResolveObserver(fn func(ResolveEvent)) Option {
	return func(cfg *containerConfig) { cfg.observer = fn }
}

// closeRecord remembers a cached instance for teardown.
type closeRecord struct {
	def *definition
	val any
}

// Container holds the registered definitions and the cached singles, and is
// the root Resolver. All methods are safe for concurrent use.
//
// Locking: mu guards the definition and cache maps with short critical
// sections and is never held across user code. createMu serializes instance
// construction, so a single's constructor runs at most once even when many
// goroutines race on the first resolution.
type Container struct {
	mu       sync.RWMutex
	createMu sync.Mutex

	defs       map[key]*definition
	order      []*definition
	scopeNames map[string]struct{}
	singles    map[key]any
	created    []closeRecord
	scopes     map[string]*Scope
	scopeOrder []*Scope
	closed     bool

	props    *propertyRegistry
	log      Logger
	policy   OverridePolicy
	observer func(ResolveEvent)
}

// New builds a container: properties load first (files, then maps, then
// environment overlays), then the modules given through WithModules. On any
// failure the partially built container is closed and the error returned.
func New(opts ...Option) (*Container, error) {
	cfg := containerConfig{logger: NopLogger{}, policy: OverrideDeny}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	c := &Container{
		defs:       make(map[key]*definition),
		scopeNames: make(map[string]struct{}),
		singles:    make(map[key]any),
		scopes:     make(map[string]*Scope),
		props:      newPropertyRegistry(),
		log:        cfg.logger,
		policy:     cfg.policy,
		observer:   cfg.observer,
	}
	for _, path := range cfg.propFiles {
		if err := c.props.mergeFile(path); err != nil {
			return nil, fmt.Errorf("di: loading properties %q: %w", path, err)
		}
	}
	for _, m := range cfg.propMaps {
		c.props.mergeMap(m)
	}
	for _, prefix := range cfg.envPrefixes {
		c.props.mergeEnv(prefix)
	}
	if err := c.LoadModules(cfg.modules...); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// LoadModules registers the definitions of mods and their includes, then
// creates the eager singles among them. A module reachable through several
// include paths within one call loads once; loading the same module in a
// second call conflicts with the first load.
//
// Registration stops at the first error, leaving earlier registrations in
// place.
func (c *Container) LoadModules(mods ...*Module) error {
	visited := make(map[*Module]struct{})
	var defs []*definition
	var errs []error
	for _, m := range mods {
		if m == nil {
			continue
		}
		d, e := m.flatten(visited)
		defs = append(defs, d...)
		errs = append(errs, e...)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	var added []*definition
	var replaced []closeRecord
	var regErr error
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrContainerClosed
	}
	for _, d := range defs {
		ok, recs, err := c.registerLocked(d)
		replaced = append(replaced, recs...)
		if err != nil {
			regErr = err
			break
		}
		if ok {
			added = append(added, d)
		}
	}
	c.mu.Unlock()

	for _, rec := range replaced {
		if err := closeInstance(rec); err != nil {
			errs = append(errs, err)
		}
	}
	if regErr != nil {
		return joinWith(errs, regErr)
	}
	for _, d := range added {
		if d.kind != KindSingle || !d.eager {
			continue
		}
		if _, err := c.resolveEntry(nil, d.key.typ, d.key.name, nil); err != nil {
			return joinWith(errs, err)
		}
	}
	return errors.Join(errs...)
}

// registerLocked installs d under its primary and bind keys, applying the
// override policy against existing registrations. It reports whether d was
// installed and returns cached instances displaced by a replacement. Caller
// holds mu.
func (c *Container) registerLocked(d *definition) (bool, []closeRecord, error) {
	keys := make([]key, 0, 1+len(d.binds))
	keys = append(keys, d.key)
	for _, b := range d.binds {
		keys = append(keys, key{typ: b, name: d.key.name})
	}

	var conflictKey key
	var conflicts []*definition
	seen := make(map[*definition]struct{})
	sameModule := false
	for _, k := range keys {
		ex, ok := c.defs[k]
		if !ok {
			continue
		}
		if len(conflicts) == 0 {
			conflictKey = k
		}
		if _, dup := seen[ex]; !dup {
			seen[ex] = struct{}{}
			conflicts = append(conflicts, ex)
		}
		if ex.module == d.module {
			sameModule = true
		}
	}

	var recs []closeRecord
	if len(conflicts) > 0 {
		switch {
		case sameModule:
			return false, nil, DuplicateDefinitionError{Key: conflictKey.String(), Module: d.module}
		case d.override || c.policy == OverrideReplace:
			for _, ex := range conflicts {
				c.log.Warn("definition overridden",
					"key", conflictKey.String(), "old_module", ex.module, "new_module", d.module)
				recs = append(recs, c.dropLocked(ex)...)
			}
		case c.policy == OverrideSkip:
			c.log.Debug("definition skipped",
				"key", conflictKey.String(), "module", d.module, "kept_module", conflicts[0].module)
			return false, nil, nil
		default:
			return false, nil, DuplicateDefinitionError{Key: conflictKey.String(), Module: d.module}
		}
	}

	for _, k := range keys {
		c.defs[k] = d
	}
	c.order = append(c.order, d)
	if d.kind == KindScoped {
		c.scopeNames[d.scope] = struct{}{}
	}
	c.log.Debug("definition registered",
		"key", d.key.String(), "kind", d.kind.String(), "module", d.module)
	return true, recs, nil
}

// dropLocked removes ex from the key maps and the registration order, and
// surrenders its cached single, if any, for teardown. Caller holds mu.
func (c *Container) dropLocked(ex *definition) []closeRecord {
	exKeys := make([]key, 0, 1+len(ex.binds))
	exKeys = append(exKeys, ex.key)
	for _, b := range ex.binds {
		exKeys = append(exKeys, key{typ: b, name: ex.key.name})
	}
	for _, k := range exKeys {
		if c.defs[k] == ex {
			delete(c.defs, k)
		}
	}
	for i, o := range c.order {
		if o == ex {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	var recs []closeRecord
	if v, ok := c.singles[ex.key]; ok {
		delete(c.singles, ex.key)
		for i, rec := range c.created {
			if rec.def == ex {
				c.created = append(c.created[:i], c.created[i+1:]...)
				break
			}
		}
		recs = append(recs, closeRecord{def: ex, val: v})
	}
	return recs
}

// Close tears the container down. Open scopes close first, newest first,
// then singles in reverse creation order. Close is idempotent; once it
// returns, every other operation reports ErrContainerClosed. Teardown
// errors are joined, one TeardownError per failing hook.
func (c *Container) Close() error {
	c.createMu.Lock()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.createMu.Unlock()
		return nil
	}
	c.closed = true
	openScopes := c.scopeOrder
	c.scopeOrder = nil
	scopeRecs := make([][]closeRecord, 0, len(openScopes))
	for _, s := range openScopes {
		scopeRecs = append(scopeRecs, c.detachScopeLocked(s))
	}
	c.scopes = make(map[string]*Scope)
	singles := c.created
	c.created = nil
	c.singles = make(map[key]any)
	c.mu.Unlock()
	c.createMu.Unlock()

	var errs []error
	for i := len(scopeRecs) - 1; i >= 0; i-- {
		errs = append(errs, closeRecords(scopeRecs[i])...)
	}
	errs = append(errs, closeRecords(singles)...)
	c.log.Debug("container closed")
	return errors.Join(errs...)
}

// Property returns the property under key, rendered as a string. Properties
// stay readable after Close.
func (c *Container) Property(k string) (string, bool) { return c.props.getString(k) }

// Params implements Resolver; a container carries no injection parameters.
func (c *Container) Params() *Params { return emptyParams }

func (c *Container) observe(ev ResolveEvent) {
	if c.observer != nil {
		c.observer(ev)
	}
}

// closeRecords runs the teardown hooks of recs in reverse order, collecting
// one error per failing hook.
func closeRecords(recs []closeRecord) []error {
	var errs []error
	for i := len(recs) - 1; i >= 0; i-- {
		if err := closeInstance(recs[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// closeInstance runs one teardown hook, converting a panic into a
// TeardownError like any other failure.
func closeInstance(rec closeRecord) (err error) {
	if rec.def.onClose == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = TeardownError{Key: rec.def.key.String(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if cerr := rec.def.onClose(rec.val); cerr != nil {
		return TeardownError{Key: rec.def.key.String(), Err: cerr}
	}
	return nil
}

func joinWith(errs []error, err error) error {
	if err == nil {
		return errors.Join(errs...)
	}
	if len(errs) == 0 {
		return err
	}
	return errors.Join(append(errs, err)...)
}
