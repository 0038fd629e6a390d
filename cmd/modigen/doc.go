// Command modigen generates module builders and typed accessors from JSON
// catalogs.
//
// A catalog lists the definitions one module registers: the type, the
// constructor symbol, the kind (single, factory, scoped) and any options
// (qualifier, binds, eager, scope, teardown hook). modigen validates the
// catalog with the same rules the runtime applies during loading and emits a
// builder function returning a ready *di.Module, plus a Resolve/Must accessor
// pair per definition.
//
// Catalog format (*.modi.json)
//
// Minimal example:
//
//	{
//	  "package": "app",
//	  "module": "storage",
//	  "imports": ["github.com/acme/shop/internal/store"],
//	  "definitions": [
//	    {
//	      "name": "DB",
//	      "type": "*store.DB",
//	      "kind": "single",
//	      "constructor": "store.Open",
//	      "eager": true,
//	      "onClose": "store.Close"
//	    },
//	    {
//	      "name": "Users",
//	      "type": "*store.Users",
//	      "kind": "factory",
//	      "constructor": "store.NewUsers",
//	      "binds": ["store.UserReader"]
//	    }
//	  ]
//	}
//
// Typical go:generate usage
//
// Put this in a Go file of the target package:
//
//	//go:generate go run github.com/sghaida/modi/cmd/modigen generate --spec ./catalog.modi.json --out ./modi.gen.go
//
// Then:
//
//	go generate ./...
//
// Generated output (summary)
//
// For the catalog above modigen emits:
//
//	func StorageModule() *di.Module {
//		m := di.NewModule("storage")
//		di.Single[*store.DB](m, store.Open, di.Eager(), di.OnClose(store.Close))
//		di.Factory[*store.Users](m, store.NewUsers, di.As[store.UserReader]())
//		return m
//	}
//
// plus, per definition, accessors resolving through any Resolver:
//
//	func ResolveDB(r di.Resolver) (*store.DB, error)
//	func MustDB(r di.Resolver) *store.DB
//
// The header records the catalog path and its SHA-256, so a stale generated
// file is visible in review. Output is gofmt-formatted and written atomically;
// regenerating an unchanged catalog yields an identical file.
package main
