package di

// Params carries injection parameters: values supplied by the caller at
// resolution time and forwarded to constructors on the resolution path. The
// container never caches or retains them.
//
//	svc, err := di.Resolve[*Report](c, di.WithParams("2026-Q3", 42))
//
// Inside a constructor the bag is read back positionally or by type:
//
//	func newReport(r di.Resolver) (*Report, error) {
//		quarter, err := di.ParamAt[string](r.Params(), 0)
//		...
//	}
type Params struct {
	vals []any
}

// NewParams builds a parameter bag from vals in order.
func NewParams(vals ...any) *Params { return &Params{vals: vals} }

var emptyParams = &Params{}

// Len reports the number of parameters. Safe on a nil bag.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.vals)
}

// At returns the i-th parameter and whether it exists.
func (p *Params) At(i int) (any, bool) {
	if p == nil || i < 0 || i >= len(p.vals) {
		return nil, false
	}
	return p.vals[i], true
}

// Values returns a copy of the parameters in order.
func (p *Params) Values() []any {
	if p == nil || len(p.vals) == 0 {
		return nil
	}
	out := make([]any, len(p.vals))
	copy(out, p.vals)
	return out
}

// ParamAt returns the i-th parameter as P. A missing or nil slot yields
// MissingParamError, a present value of another type WrongTypeParamError.
func ParamAt[P any](p *Params, i int) (P, error) {
	var zero P
	raw, ok := p.At(i)
	if !ok || raw == nil {
		return zero, MissingParamError{Index: i}
	}
	v, ok := raw.(P)
	if !ok {
		return zero, WrongTypeParamError{Index: i, GotType: typeNameOf(raw)}
	}
	return v, nil
}

// ParamOf returns the first parameter assignable to P, searching in order.
func ParamOf[P any](p *Params) (P, error) {
	if p != nil {
		for _, raw := range p.vals {
			if v, ok := raw.(P); ok {
				return v, nil
			}
		}
	}
	var zero P
	return zero, MissingTypedParamError{Type: typeString(typeOf[P]())}
}

// MustParamAt is ParamAt, panicking on error.
func MustParamAt[P any](p *Params, i int) P {
	v, err := ParamAt[P](p, i)
	if err != nil {
		panic(err)
	}
	return v
}

// MustParamOf is ParamOf, panicking on error.
func MustParamOf[P any](p *Params) P {
	v, err := ParamOf[P](p)
	if err != nil {
		panic(err)
	}
	return v
}
