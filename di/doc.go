// Package di provides a runtime dependency injection container for Go,
// wired through plain constructors and generics instead of reflection
// over struct fields.
//
// The moving parts:
//
//   - Definition: one recipe for a type, registered as Single (one cached
//     instance per container), Factory (fresh instance per resolution) or
//     Scoped (one cached instance per scope). Definitions can carry a
//     Qualifier, bind extra interface types with As, and attach teardown
//     hooks with OnClose.
//
//   - Module: a named, composable group of definitions. Modules include
//     other modules; a module reachable through several include paths loads
//     once. Conflicts between modules follow the container's
//     OverridePolicy; conflicts inside one module are always errors.
//
//   - Container: holds the loaded definitions, caches singles, hands out
//     scopes, and tears everything down in reverse creation order on Close.
//
//   - Scope: an id-bound region (a session, a request) in which scoped
//     definitions live, closed independently of the container.
//
// Constructors take a Resolver and return (T, error), so wiring code stays
// ordinary Go:
//
//	m := di.NewModule("storage")
//	di.Single[*sql.DB](m, openDB, di.OnClose((*sql.DB).Close))
//	di.Single[*Repo](m, func(r di.Resolver) (*Repo, error) {
//		db, err := di.Resolve[*sql.DB](r)
//		if err != nil {
//			return nil, err
//		}
//		return &Repo{db: db}, nil
//	})
//
//	c, err := di.New(di.WithModules(m))
//	...
//	repo, err := di.Resolve[*Repo](c)
//
// Resolution detects dependency cycles, converts constructor panics into
// errors, and reports failures with typed errors you can assert in tests.
// Verify instantiates the whole graph once on a shadow container to catch
// wiring mistakes before serving traffic.
//
// All container operations are safe for concurrent use. Instance
// construction is serialized, so a single's constructor runs at most once.
//
// Import
//
//	"github.com/sghaida/modi/di"
package di
