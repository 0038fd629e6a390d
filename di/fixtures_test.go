package di_test

import (
	"errors"
	"strings"
	"sync"

	"github.com/sghaida/modi/di"
)

// Shared wiring fixtures: a small storage-shaped graph the tests resolve
// against.

type DB struct {
	DSN string
}

type Logger struct {
	Level string
}

type UserService struct {
	DB     *DB
	Logger *Logger
}

type Cache interface {
	Get(k string) (string, bool)
}

type MemCache struct {
	Name string
	vals map[string]string
}

func (m *MemCache) Get(k string) (string, bool) {
	v, ok := m.vals[k]
	return v, ok
}

type RedisCache struct {
	Name string
}

func (r *RedisCache) Get(string) (string, bool) { return "", false }

type Flaky struct{}

type Report struct {
	Quarter string
	Limit   int
	Logger  *Logger
}

func newDB(di.Resolver) (*DB, error) { return &DB{DSN: "postgres://primary"}, nil }

func newLogger(di.Resolver) (*Logger, error) { return &Logger{Level: "info"}, nil }

func newUserService(r di.Resolver) (*UserService, error) {
	db, err := di.Resolve[*DB](r)
	if err != nil {
		return nil, err
	}
	logger, err := di.Resolve[*Logger](r)
	if err != nil {
		return nil, err
	}
	return &UserService{DB: db, Logger: logger}, nil
}

func newReport(r di.Resolver) (*Report, error) {
	quarter, err := di.ParamAt[string](r.Params(), 0)
	if err != nil {
		return nil, err
	}
	limit, err := di.ParamAt[int](r.Params(), 1)
	if err != nil {
		return nil, err
	}
	logger, err := di.Resolve[*Logger](r)
	if err != nil {
		return nil, err
	}
	return &Report{Quarter: quarter, Limit: limit, Logger: logger}, nil
}

// storageModule is the canonical happy-path module.
func storageModule() *di.Module {
	m := di.NewModule("storage")
	di.Single[*DB](m, newDB)
	di.Single[*Logger](m, newLogger)
	di.Factory[*UserService](m, newUserService)
	return m
}

var errBoom = errors.New("boom")

// testLogger captures container diagnostics for assertions.
type testLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *testLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+" "+msg)
}

func (l *testLogger) Debug(msg string, _ ...any) { l.record("DEBUG", msg) }
func (l *testLogger) Info(msg string, _ ...any)  { l.record("INFO", msg) }
func (l *testLogger) Warn(msg string, _ ...any)  { l.record("WARN", msg) }
func (l *testLogger) Error(msg string, _ ...any) { l.record("ERROR", msg) }

func (l *testLogger) has(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}
