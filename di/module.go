package di

// Module is a named, composable group of definitions. Modules are built up
// front, then handed to a container through New or LoadModules; registration
// problems (nil constructors, contradictory options, in-module duplicates)
// are carried by the module and surfaced when it loads.
//
//	storage := di.NewModule("storage")
//	di.Single[*sql.DB](storage, openDB, di.OnClose((*sql.DB).Close))
//	di.Factory[*Tx](storage, beginTx)
type Module struct {
	name     string
	defs     []*definition
	includes []*Module
	errs     []error
}

// NewModule creates an empty module. Module names should be unique within a
// container; definitions from same-named modules conflict as if they shared
// a module.
func NewModule(name string) *Module { return &Module{name: name} }

// Name returns the module's name.
func (m *Module) Name() string { return m.name }

// Include composes other modules into m. Included definitions load before
// m's own. A module reachable through several include paths is loaded once.
func (m *Module) Include(mods ...*Module) *Module {
	for _, inc := range mods {
		if inc != nil {
			m.includes = append(m.includes, inc)
		}
	}
	return m
}

// Single registers a definition whose instance is created once per container
// and cached.
func Single[T any](m *Module, ctor func(Resolver) (T, error), opts ...DefOption) {
	register(m, KindSingle, ctor, opts)
}

// SingleValue registers an already constructed value as a single.
func SingleValue[T any](m *Module, v T, opts ...DefOption) {
	register(m, KindSingle, func(Resolver) (T, error) { return v, nil }, opts)
}

// Factory registers a definition producing a fresh instance per resolution.
func Factory[T any](m *Module, ctor func(Resolver) (T, error), opts ...DefOption) {
	register(m, KindFactory, ctor, opts)
}

// Scoped registers a definition cached once per scope instance. The scope
// name is set with InScope and is required.
func Scoped[T any](m *Module, ctor func(Resolver) (T, error), opts ...DefOption) {
	register(m, KindScoped, ctor, opts)
}

func register[T any](m *Module, kind Kind, ctor func(Resolver) (T, error), opts []DefOption) {
	d := &definition{
		key:    key{typ: typeOf[T]()},
		kind:   kind,
		module: m.name,
	}
	if ctor == nil {
		m.errs = append(m.errs, NilConstructorError{Key: d.key.String()})
		return
	}
	d.ctor = func(r Resolver) (any, error) { return ctor(r) }
	for _, opt := range opts {
		if opt != nil {
			opt.applyDef(d)
		}
	}
	if err := validate(d); err != nil {
		m.errs = append(m.errs, err)
		return
	}
	m.defs = append(m.defs, d)
}

func validate(d *definition) error {
	switch d.kind {
	case KindSingle:
		if d.scope != "" {
			return InvalidDefinitionError{Key: d.key.String(), Reason: "scope name requires kind scoped"}
		}
	case KindFactory:
		if d.scope != "" {
			return InvalidDefinitionError{Key: d.key.String(), Reason: "scope name requires kind scoped"}
		}
		if d.eager {
			return InvalidDefinitionError{Key: d.key.String(), Reason: "eager requires kind single"}
		}
	case KindScoped:
		if d.scope == "" {
			return InvalidDefinitionError{Key: d.key.String(), Reason: "scoped definition needs a scope name"}
		}
		if d.eager {
			return InvalidDefinitionError{Key: d.key.String(), Reason: "eager requires kind single"}
		}
	}
	for _, b := range d.binds {
		if !d.key.typ.AssignableTo(b) {
			return BindError{Key: d.key.String(), Bind: typeString(b)}
		}
	}
	return nil
}

// flatten returns all definitions reachable from m, includes first, visiting
// each module at most once.
func (m *Module) flatten(visited map[*Module]struct{}) (defs []*definition, errs []error) {
	if m == nil {
		return nil, nil
	}
	if _, ok := visited[m]; ok {
		return nil, nil
	}
	visited[m] = struct{}{}
	for _, inc := range m.includes {
		d, e := inc.flatten(visited)
		defs = append(defs, d...)
		errs = append(errs, e...)
	}
	defs = append(defs, m.defs...)
	errs = append(errs, m.errs...)
	return defs, errs
}
