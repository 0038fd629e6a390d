package di

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// propertyRegistry layers the container's property sources on a dedicated
// viper instance. Precedence, low to high: properties files, explicit maps,
// environment overlays. Keys are dotted and case-insensitive, viper style.
type propertyRegistry struct {
	mu sync.RWMutex
	v  *viper.Viper
}

func newPropertyRegistry() *propertyRegistry {
	v := viper.New()
	v.SetConfigType("properties")
	return &propertyRegistry{v: v}
}

// mergeFile reads a java-style .properties file into the registry.
func (p *propertyRegistry) mergeFile(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.v.SetConfigFile(path)
	p.v.SetConfigType("properties")
	return p.v.MergeInConfig()
}

// mergeMap overlays explicit key/value pairs on top of file values. Set is
// used per key so dotted keys land on the right path.
func (p *propertyRegistry) mergeMap(m map[string]string) {
	if len(m) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, v := range m {
		p.v.Set(k, v)
	}
}

// mergeEnv overlays environment variables carrying prefix. With prefix
// "APP_", APP_DB_DSN becomes property "db.dsn".
func (p *propertyRegistry) mergeEnv(prefix string) {
	if prefix == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, kv := range os.Environ() {
		k, val, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, prefix) {
			continue
		}
		name := strings.TrimPrefix(k, prefix)
		if name == "" {
			continue
		}
		name = strings.ToLower(strings.ReplaceAll(name, "_", "."))
		p.v.Set(name, val)
	}
}

func (p *propertyRegistry) getString(k string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.v.IsSet(k) {
		return "", false
	}
	s, err := cast.ToStringE(p.v.Get(k))
	if err != nil {
		return "", false
	}
	return s, true
}

// MustProperty returns the property under key or panics with
// MissingPropertyError.
func MustProperty(r Resolver, k string) string {
	v, ok := r.Property(k)
	if !ok {
		panic(MissingPropertyError{Key: k})
	}
	return v
}

// PropertyAs returns the property under key converted to T. Supported types
// are string, bool, int, int64, float64 and time.Duration; anything else
// yields PropertyTypeError.
func PropertyAs[T any](r Resolver, k string) (T, error) {
	var zero T
	s, ok := r.Property(k)
	if !ok {
		return zero, MissingPropertyError{Key: k}
	}
	var out any
	var err error
	switch any(zero).(type) {
	case string:
		out = s
	case bool:
		out, err = cast.ToBoolE(s)
	case int:
		out, err = cast.ToIntE(s)
	case int64:
		out, err = cast.ToInt64E(s)
	case float64:
		out, err = cast.ToFloat64E(s)
	case time.Duration:
		out, err = cast.ToDurationE(s)
	default:
		return zero, PropertyTypeError{Key: k, Type: typeString(typeOf[T]())}
	}
	if err != nil {
		return zero, PropertyTypeError{Key: k, Type: typeString(typeOf[T]())}
	}
	return out.(T), nil
}
