package main

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode"
)

// Definition kinds accepted in a catalog.
const (
	kindSingle  = "single"
	kindFactory = "factory"
	kindScoped  = "scoped"
)

// Definition describes one registration emitted into the module builder.
type Definition struct {
	// Name labels the definition in validation errors.
	Name string `json:"name"`

	// Type is the registered Go type, e.g. "*store.DB".
	Type string `json:"type"`

	// Kind is one of single, factory or scoped.
	Kind string `json:"kind"`

	// Constructor is a symbol with signature func(di.Resolver) (T, error).
	Constructor string `json:"constructor"`

	// Qualifier distinguishes definitions sharing a type.
	Qualifier string `json:"qualifier"`

	// Binds lists extra types the definition answers for.
	Binds []string `json:"binds"`

	// Eager builds the instance while the module loads. Singles only.
	Eager bool `json:"eager"`

	// Override lets the definition replace conflicts regardless of the
	// container's policy.
	Override bool `json:"override"`

	// Scope names the scope a scoped definition lives in.
	Scope string `json:"scope"`

	// OnClose is a symbol with signature func(T) error run at teardown.
	OnClose string `json:"onClose"`
}

// Catalog is the input schema: one module's registrations plus the imports
// the emitted file needs for its types and symbols.
type Catalog struct {
	Package     string       `json:"package"`
	Module      string       `json:"module"`
	Builder     string       `json:"builder"`
	Imports     []string     `json:"imports"`
	Definitions []Definition `json:"definitions"`
}

// loadCatalog reads, parses and validates a catalog file. The raw bytes come
// back too, for the generated header's content hash.
func loadCatalog(path string) (*Catalog, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("modigen: reading catalog: %w", err)
	}
	var cat Catalog
	if err := json.Unmarshal(raw, &cat); err != nil {
		return nil, nil, fmt.Errorf("modigen: parsing catalog: %w", err)
	}
	if err := cat.validate(); err != nil {
		return nil, nil, err
	}
	cat.applyDefaults()
	return &cat, raw, nil
}

// validate applies the same rules the runtime enforces during LoadModules, so
// a catalog that generates is a catalog that loads.
func (c *Catalog) validate() error {
	if strings.TrimSpace(c.Package) == "" {
		return fmt.Errorf("modigen: catalog missing package")
	}
	if strings.TrimSpace(c.Module) == "" {
		return fmt.Errorf("modigen: catalog missing module")
	}
	if len(c.Definitions) == 0 {
		return fmt.Errorf("modigen: catalog %q has no definitions", c.Module)
	}

	seenNames := make(map[string]struct{}, len(c.Definitions))
	seenKeys := make(map[string]struct{}, len(c.Definitions))
	for i, d := range c.Definitions {
		label := d.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}
		if d.Name == "" || d.Type == "" || d.Constructor == "" {
			return fmt.Errorf("modigen: definition %s: name, type and constructor are required", label)
		}
		if _, ok := seenNames[d.Name]; ok {
			return fmt.Errorf("modigen: definition %s: duplicate name", label)
		}
		seenNames[d.Name] = struct{}{}

		key := d.Type + "|" + d.Qualifier
		if _, ok := seenKeys[key]; ok {
			return fmt.Errorf("modigen: definition %s: duplicate registration for %s", label, d.Type)
		}
		seenKeys[key] = struct{}{}

		switch d.Kind {
		case kindSingle:
			if d.Scope != "" {
				return fmt.Errorf("modigen: definition %s: scope name requires kind scoped", label)
			}
		case kindFactory:
			if d.Scope != "" {
				return fmt.Errorf("modigen: definition %s: scope name requires kind scoped", label)
			}
			if d.Eager {
				return fmt.Errorf("modigen: definition %s: eager requires kind single", label)
			}
		case kindScoped:
			if d.Scope == "" {
				return fmt.Errorf("modigen: definition %s: scoped definition needs a scope name", label)
			}
			if d.Eager {
				return fmt.Errorf("modigen: definition %s: eager requires kind single", label)
			}
		default:
			return fmt.Errorf("modigen: definition %s: kind must be one of single, factory or scoped", label)
		}
	}
	return nil
}

// applyDefaults derives the builder name from the module name when the
// catalog leaves it empty, and normalizes the import list.
func (c *Catalog) applyDefaults() {
	if strings.TrimSpace(c.Builder) == "" {
		c.Builder = exportName(identOnly(c.Module)) + "Module"
	}
	slices.Sort(c.Imports)
	c.Imports = slices.Compact(c.Imports)
}

// exportName uppercases the first byte (storage -> Storage).
func exportName(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// identOnly strips everything that cannot appear in a Go identifier, so a
// module named "app-storage" still yields a legal builder name.
func identOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
