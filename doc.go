// Package modi is a small, explicit dependency injection container for Go.
//
// Applications declare their object graph in modules: constructors registered
// as singletons, factories or scoped definitions, with optional qualifiers,
// interface binds and teardown hooks. A container loads the modules, resolves
// requests lazily and caches per the definition's kind, detects dependency
// cycles as they happen and tears everything down in reverse build order.
//
// The goal is to keep wiring declarative but inspectable: no struct tags, no
// field scanning, just constructors that receive a Resolver and ask for what
// they need. Verify builds the whole graph on a throwaway container so a
// broken registration fails in CI instead of in production.
//
// See subpackages:
//   - di: the container, modules, scopes, properties and injection parameters
//   - dilog: adapter from the container's diagnostics to charmbracelet/log
//   - cmd/modigen: generates module builders from JSON catalogs
//   - examples/*: runnable walkthroughs, from a guided tour to a full app
package modi
