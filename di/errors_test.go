package di_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sghaida/modi/di"
)

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "not found",
			err:  di.DefinitionNotFoundError{Type: reflect.TypeOf(&DB{})},
			want: "di: no definition found for *di_test.DB",
		},
		{
			name: "not found with qualifier",
			err:  di.DefinitionNotFoundError{Type: reflect.TypeOf(&DB{}), Name: di.Named("replica")},
			want: `di: no definition found for *di_test.DB (qualifier "replica")`,
		},
		{
			name: "duplicate definition",
			err:  di.DuplicateDefinitionError{Key: "*di_test.DB", Module: "storage"},
			want: `di: duplicate definition *di_test.DB (module "storage")`,
		},
		{
			name: "nil constructor",
			err:  di.NilConstructorError{Key: "*di_test.DB"},
			want: "di: nil constructor for *di_test.DB",
		},
		{
			name: "invalid definition",
			err:  di.InvalidDefinitionError{Key: "*di_test.DB", Reason: "eager requires kind single"},
			want: "di: invalid definition *di_test.DB: eager requires kind single",
		},
		{
			name: "bind",
			err:  di.BindError{Key: "*di_test.DB", Bind: "io.Reader"},
			want: "di: definition *di_test.DB cannot bind to io.Reader",
		},
		{
			name: "dependency cycle",
			err:  di.DependencyCycleError{Path: []string{"*a.A", "*b.B", "*a.A"}},
			want: "di: dependency cycle: *a.A -> *b.B -> *a.A",
		},
		{
			name: "instance creation",
			err:  di.InstanceCreationError{Key: "*di_test.DB", Err: errBoom},
			want: "di: creating *di_test.DB: boom",
		},
		{
			name: "wrong type",
			err:  di.WrongTypeError{Key: "di_test.Cache", GotType: "*di_test.MemCache"},
			want: "di: definition di_test.Cache has wrong type (*di_test.MemCache)",
		},
		{
			name: "out of scope",
			err:  di.OutOfScopeError{Key: "*di_test.Cart", Scope: "session"},
			want: `di: definition *di_test.Cart requires scope "session"`,
		},
		{
			name: "unknown scope",
			err:  di.UnknownScopeError{Name: "session"},
			want: `di: no definitions declare scope "session"`,
		},
		{
			name: "duplicate scope",
			err:  di.DuplicateScopeError{ID: "user-42"},
			want: `di: scope "user-42" already created`,
		},
		{
			name: "scope not found",
			err:  di.ScopeNotFoundError{ID: "user-42"},
			want: `di: scope "user-42" not found`,
		},
		{
			name: "scope closed",
			err:  di.ScopeClosedError{ID: "user-42"},
			want: `di: scope "user-42" is closed`,
		},
		{
			name: "teardown",
			err:  di.TeardownError{Key: "*di_test.DB", Err: errBoom},
			want: "di: closing *di_test.DB: boom",
		},
		{
			name: "missing property",
			err:  di.MissingPropertyError{Key: "db.dsn"},
			want: `di: property "db.dsn" missing`,
		},
		{
			name: "property type",
			err:  di.PropertyTypeError{Key: "db.pool", Type: "int"},
			want: `di: property "db.pool" not convertible to int`,
		},
		{
			name: "missing param",
			err:  di.MissingParamError{Index: 0},
			want: "di: injection parameter 0 missing",
		},
		{
			name: "wrong type param",
			err:  di.WrongTypeParamError{Index: 0, GotType: "string"},
			want: "di: injection parameter 0 has wrong type (string)",
		},
		{
			name: "missing typed param",
			err:  di.MissingTypedParamError{Type: "*di_test.DB"},
			want: "di: no injection parameter assignable to *di_test.DB",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.EqualError(t, tc.err, tc.want)
		})
	}
}

func TestSentinelMessages(t *testing.T) {
	t.Parallel()

	assert.EqualError(t, di.ErrContainerClosed, "di: container closed")
	assert.EqualError(t, di.ErrNilResolver, "di: nil resolver")
	assert.EqualError(t, di.ErrConstructorPanic, "di: panic during construction")
}

func TestErrorUnwrapping(t *testing.T) {
	t.Parallel()

	create := di.InstanceCreationError{Key: "*di_test.DB", Err: errBoom}
	assert.ErrorIs(t, create, errBoom)

	teardown := di.TeardownError{Key: "*di_test.DB", Err: errBoom}
	assert.ErrorIs(t, teardown, errBoom)

	// nested creation failures unwrap down to the root cause and errors.As
	// stops at the outermost frame
	nested := di.InstanceCreationError{
		Key: "*di_test.UserService",
		Err: di.InstanceCreationError{Key: "*di_test.DB", Err: errBoom},
	}
	assert.ErrorIs(t, nested, errBoom)

	var ice di.InstanceCreationError
	require.True(t, errors.As(nested, &ice))
	assert.Equal(t, "*di_test.UserService", ice.Key)
}
