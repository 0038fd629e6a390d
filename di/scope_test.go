package di_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sghaida/modi/di"
)

type SessionCtx struct {
	User string
}

type Cart struct {
	Session *SessionCtx
	DB      *DB
}

// sessionModule declares a "session" scope with a cart graph inside it.
func sessionModule() *di.Module {
	m := di.NewModule("session")
	di.Single[*DB](m, newDB)
	di.Scoped[*SessionCtx](m, func(di.Resolver) (*SessionCtx, error) {
		return &SessionCtx{User: "anonymous"}, nil
	}, di.InScope("session"))
	di.Scoped[*Cart](m, func(r di.Resolver) (*Cart, error) {
		sess, err := di.Resolve[*SessionCtx](r)
		if err != nil {
			return nil, err
		}
		db, err := di.Resolve[*DB](r)
		if err != nil {
			return nil, err
		}
		return &Cart{Session: sess, DB: db}, nil
	}, di.InScope("session"))
	return m
}

// CreateScope / Scope / ScopeOrCreate
func TestCreateScope_UnknownName(t *testing.T) {
	t.Parallel()

	c, err := di.New(di.WithModules(storageModule()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	_, err = c.CreateScope("session", "s1")
	require.Error(t, err)

	var unknown di.UnknownScopeError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, `di: no definitions declare scope "session"`, unknown.Error())
}

func TestCreateScope_DuplicateID(t *testing.T) {
	t.Parallel()

	c, err := di.New(di.WithModules(sessionModule()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	_, err = c.CreateScope("session", "s1")
	require.NoError(t, err)

	_, err = c.CreateScope("session", "s1")
	require.Error(t, err)

	var dup di.DuplicateScopeError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, `di: scope "s1" already created`, dup.Error())
}

func TestScope_LookupByID(t *testing.T) {
	t.Parallel()

	c, err := di.New(di.WithModules(sessionModule()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	created, err := c.CreateScope("session", "s1")
	require.NoError(t, err)
	assert.Equal(t, "session", created.Name())
	assert.Equal(t, "s1", created.ID())

	got, err := c.Scope("s1")
	require.NoError(t, err)
	assert.Same(t, created, got)

	_, err = c.Scope("missing")
	var notFound di.ScopeNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, `di: scope "missing" not found`, notFound.Error())
}

func TestScopeOrCreate(t *testing.T) {
	t.Parallel()

	m := sessionModule()
	di.Scoped[*Logger](m, newLogger, di.InScope("request"))

	c, err := di.New(di.WithModules(m))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	first, err := c.ScopeOrCreate("session", "s1")
	require.NoError(t, err)

	again, err := c.ScopeOrCreate("session", "s1")
	require.NoError(t, err)
	assert.Same(t, first, again)

	// same id under a different declared name is rejected
	_, err = c.ScopeOrCreate("request", "s1")
	var dup di.DuplicateScopeError
	require.True(t, errors.As(err, &dup))
}

// Scoped resolution
func TestScoped_OneInstancePerScope(t *testing.T) {
	t.Parallel()

	c, err := di.New(di.WithModules(sessionModule()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	s1, err := c.CreateScope("session", "s1")
	require.NoError(t, err)
	s2, err := c.CreateScope("session", "s2")
	require.NoError(t, err)

	cart1 := di.MustResolve[*Cart](s1)
	cart1again := di.MustResolve[*Cart](s1)
	cart2 := di.MustResolve[*Cart](s2)

	assert.Same(t, cart1, cart1again)
	assert.NotSame(t, cart1, cart2)

	// scoped dependencies cache in the same scope
	sess1 := di.MustResolve[*SessionCtx](s1)
	assert.Same(t, cart1.Session, sess1)

	// the root single is shared across scopes
	db := di.MustResolve[*DB](c)
	assert.Same(t, db, cart1.DB)
	assert.Same(t, db, cart2.DB)
}

func TestScoped_FromRootIsOutOfScope(t *testing.T) {
	t.Parallel()

	c, err := di.New(di.WithModules(sessionModule()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	_, err = di.Resolve[*Cart](c)
	require.Error(t, err)

	var oos di.OutOfScopeError
	require.True(t, errors.As(err, &oos))
	assert.Equal(t, `di: definition *di_test.Cart requires scope "session"`, oos.Error())
}

func TestScoped_FromWrongScopeIsOutOfScope(t *testing.T) {
	t.Parallel()

	m := sessionModule()
	di.Scoped[*Logger](m, newLogger, di.InScope("request"))

	c, err := di.New(di.WithModules(m))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	req, err := c.CreateScope("request", "r1")
	require.NoError(t, err)

	_, err = di.Resolve[*Cart](req)
	require.Error(t, err)

	var oos di.OutOfScopeError
	require.True(t, errors.As(err, &oos))
	assert.Equal(t, "session", oos.Scope)
}

func TestScope_PropertyPassthrough(t *testing.T) {
	t.Parallel()

	c, err := di.New(
		di.WithModules(sessionModule()),
		di.WithProperties(map[string]string{"app.name": "modi"}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	s, err := c.CreateScope("session", "s1")
	require.NoError(t, err)

	name, ok := s.Property("app.name")
	require.True(t, ok)
	assert.Equal(t, "modi", name)
	assert.Equal(t, 0, s.Params().Len())
}

// Scope close
func TestScopeClose_TeardownAndRejection(t *testing.T) {
	t.Parallel()

	var order []string
	m := di.NewModule("session")
	di.Single[*DB](m, newDB)
	di.Scoped[*SessionCtx](m, func(di.Resolver) (*SessionCtx, error) {
		return &SessionCtx{User: "u"}, nil
	}, di.InScope("session"), di.OnClose(func(*SessionCtx) error {
		order = append(order, "session-ctx")
		return nil
	}))
	di.Scoped[*Cart](m, func(r di.Resolver) (*Cart, error) {
		sess, err := di.Resolve[*SessionCtx](r)
		if err != nil {
			return nil, err
		}
		return &Cart{Session: sess}, nil
	}, di.InScope("session"), di.OnClose(func(*Cart) error {
		order = append(order, "cart")
		return nil
	}))

	c, err := di.New(di.WithModules(m))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	s, err := c.CreateScope("session", "s1")
	require.NoError(t, err)

	_ = di.MustResolve[*Cart](s)

	require.NoError(t, s.Close())
	// reverse creation order: the cart closes before the context it uses
	assert.Equal(t, []string{"cart", "session-ctx"}, order)

	// closed scopes reject resolution and disappear from the container
	_, err = di.Resolve[*Cart](s)
	var closed di.ScopeClosedError
	require.True(t, errors.As(err, &closed))
	assert.Equal(t, `di: scope "s1" is closed`, closed.Error())

	_, err = c.Scope("s1")
	var notFound di.ScopeNotFoundError
	require.True(t, errors.As(err, &notFound))

	// idempotent
	require.NoError(t, s.Close())

	// the id can be reused after close
	_, err = c.CreateScope("session", "s1")
	require.NoError(t, err)
}

func TestContainerClose_ScopesBeforeSingles(t *testing.T) {
	t.Parallel()

	var order []string
	m := di.NewModule("lifecycle")
	di.Single[*DB](m, newDB, di.OnClose(func(*DB) error {
		order = append(order, "db")
		return nil
	}))
	di.Scoped[*SessionCtx](m, func(di.Resolver) (*SessionCtx, error) {
		return &SessionCtx{User: "u"}, nil
	}, di.InScope("session"), di.OnClose(func(*SessionCtx) error {
		order = append(order, "session-ctx")
		return nil
	}))

	c, err := di.New(di.WithModules(m))
	require.NoError(t, err)

	_ = di.MustResolve[*DB](c)
	s, err := c.CreateScope("session", "s1")
	require.NoError(t, err)
	_ = di.MustResolve[*SessionCtx](s)

	require.NoError(t, c.Close())
	assert.Equal(t, []string{"session-ctx", "db"}, order)
}

func TestScopeClose_JoinsTeardownErrors(t *testing.T) {
	t.Parallel()

	m := di.NewModule("session")
	di.Scoped[*SessionCtx](m, func(di.Resolver) (*SessionCtx, error) {
		return &SessionCtx{User: "u"}, nil
	}, di.InScope("session"), di.OnClose(func(*SessionCtx) error {
		return errors.New("ctx teardown")
	}))

	c, err := di.New(di.WithModules(m))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	s, err := c.CreateScope("session", "s1")
	require.NoError(t, err)
	_ = di.MustResolve[*SessionCtx](s)

	err = s.Close()
	require.Error(t, err)
	assert.ErrorContains(t, err, "di: closing *di_test.SessionCtx: ctx teardown")
}

// ResolveAll visibility
func TestResolveAll_SkipsInvisibleScopedDefinitions(t *testing.T) {
	t.Parallel()

	m := di.NewModule("mixed")
	di.Single[*MemCache](m, func(di.Resolver) (*MemCache, error) {
		return &MemCache{Name: "root"}, nil
	}, di.As[Cache]())
	di.Scoped[*RedisCache](m, func(di.Resolver) (*RedisCache, error) {
		return &RedisCache{Name: "scoped"}, nil
	}, di.InScope("session"), di.As[Cache]())

	c, err := di.New(di.WithModules(m))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	// from the root only the root definition is visible
	rootAll, err := di.ResolveAll[Cache](c)
	require.NoError(t, err)
	require.Len(t, rootAll, 1)
	assert.Equal(t, "root", rootAll[0].(*MemCache).Name)

	// from a session scope both are visible
	s, err := c.CreateScope("session", "s1")
	require.NoError(t, err)
	scopedAll, err := di.ResolveAll[Cache](s)
	require.NoError(t, err)
	require.Len(t, scopedAll, 2)
}
