package di

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
)

// Sentinel errors for conditions that carry no per-key context. Typed errors
// below cover the rest and keep formatting off the resolution path.
var (
	// ErrContainerClosed is returned by every operation on a closed container.
	ErrContainerClosed = errors.New("di: container closed")

	// ErrNilResolver is returned when a nil Resolver is handed to a package
	// level resolution helper.
	ErrNilResolver = errors.New("di: nil resolver")

	// ErrConstructorPanic wraps a panic recovered from a constructor. It is
	// always found inside an InstanceCreationError.
	ErrConstructorPanic = errors.New("di: panic during construction")
)

// DefinitionNotFoundError is returned when no definition matches the
// requested type and qualifier.
//
// Example: di: no definition found for *store.DB (qualifier "replica")
type DefinitionNotFoundError struct {
	Type reflect.Type
	Name Qualifier
}

// Error implements the error interface.
func (e DefinitionNotFoundError) Error() string {
	msg := "di: no definition found for " + typeString(e.Type)
	if e.Name != "" {
		msg += " (qualifier " + strconv.Quote(string(e.Name)) + ")"
	}
	return msg
}

// DuplicateDefinitionError is returned when a definition conflicts with one
// already registered and the override policy denies the replacement, or when
// both definitions come out of the same module.
//
// Example: di: duplicate definition *store.DB (module "storage")
type DuplicateDefinitionError struct {
	Key    string
	Module string
}

// Error implements the error interface.
func (e DuplicateDefinitionError) Error() string {
	return "di: duplicate definition " + e.Key + " (module " + strconv.Quote(e.Module) + ")"
}

// NilConstructorError is returned when a definition is registered with a nil
// constructor.
//
// Example: di: nil constructor for *store.DB
type NilConstructorError struct {
	Key string
}

// Error implements the error interface.
func (e NilConstructorError) Error() string {
	return "di: nil constructor for " + e.Key
}

// InvalidDefinitionError is returned when a definition's options contradict
// its kind, for example Eager on a factory.
//
// Example: di: invalid definition *store.DB: eager requires kind single
type InvalidDefinitionError struct {
	Key    string
	Reason string
}

// Error implements the error interface.
func (e InvalidDefinitionError) Error() string {
	return "di: invalid definition " + e.Key + ": " + e.Reason
}

// BindError is returned when a definition's concrete type is not assignable
// to a type named through As.
//
// Example: di: definition *store.DB cannot bind to io.Reader
type BindError struct {
	Key  string
	Bind string
}

// Error implements the error interface.
func (e BindError) Error() string {
	return "di: definition " + e.Key + " cannot bind to " + e.Bind
}

// DependencyCycleError is returned when resolution re-enters a definition
// already on the construction path.
//
// Example: di: dependency cycle: *a.A -> *b.B -> *a.A
type DependencyCycleError struct {
	Path []string
}

// Error implements the error interface.
func (e DependencyCycleError) Error() string {
	return "di: dependency cycle: " + strings.Join(e.Path, " -> ")
}

// InstanceCreationError wraps a constructor failure with the definition key
// it belongs to. Unwrap exposes the constructor's error.
//
// Example: di: creating *store.DB: dial tcp: connection refused
type InstanceCreationError struct {
	Key string
	Err error
}

// Error implements the error interface.
func (e InstanceCreationError) Error() string {
	return "di: creating " + e.Key + ": " + e.Err.Error()
}

// Unwrap supports errors.Is and errors.As.
func (e InstanceCreationError) Unwrap() error { return e.Err }

// WrongTypeError is returned when a resolved instance does not assert to the
// requested type.
//
// Example: di: definition Cache has wrong type (*mem.Cache)
type WrongTypeError struct {
	Key     string
	GotType string
}

// Error implements the error interface.
func (e WrongTypeError) Error() string {
	return "di: definition " + e.Key + " has wrong type (" + e.GotType + ")"
}

// OutOfScopeError is returned when a scoped definition is resolved from the
// root container or from a scope with a different name.
//
// Example: di: definition *cart.Cart requires scope "session"
type OutOfScopeError struct {
	Key   string
	Scope string
}

// Error implements the error interface.
func (e OutOfScopeError) Error() string {
	return "di: definition " + e.Key + " requires scope " + strconv.Quote(e.Scope)
}

// UnknownScopeError is returned by CreateScope when no loaded definition
// declares the scope name.
//
// Example: di: no definitions declare scope "session"
type UnknownScopeError struct {
	Name string
}

// Error implements the error interface.
func (e UnknownScopeError) Error() string {
	return "di: no definitions declare scope " + strconv.Quote(e.Name)
}

// DuplicateScopeError is returned when a scope id is already in use.
//
// Example: di: scope "user-42" already created
type DuplicateScopeError struct {
	ID string
}

// Error implements the error interface.
func (e DuplicateScopeError) Error() string {
	return "di: scope " + strconv.Quote(e.ID) + " already created"
}

// ScopeNotFoundError is returned when looking up a scope id that was never
// created or was already closed.
//
// Example: di: scope "user-42" not found
type ScopeNotFoundError struct {
	ID string
}

// Error implements the error interface.
func (e ScopeNotFoundError) Error() string {
	return "di: scope " + strconv.Quote(e.ID) + " not found"
}

// ScopeClosedError is returned when resolving through a closed scope.
//
// Example: di: scope "user-42" is closed
type ScopeClosedError struct {
	ID string
}

// Error implements the error interface.
func (e ScopeClosedError) Error() string {
	return "di: scope " + strconv.Quote(e.ID) + " is closed"
}

// TeardownError wraps an OnClose hook failure with the definition key it
// belongs to. Close joins one per failed hook.
//
// Example: di: closing *store.DB: connection already closed
type TeardownError struct {
	Key string
	Err error
}

// Error implements the error interface.
func (e TeardownError) Error() string {
	return "di: closing " + e.Key + ": " + e.Err.Error()
}

// Unwrap supports errors.Is and errors.As.
func (e TeardownError) Unwrap() error { return e.Err }

// MissingPropertyError is returned when a required property has no value in
// any source.
//
// Example: di: property "db.dsn" missing
type MissingPropertyError struct {
	Key string
}

// Error implements the error interface.
func (e MissingPropertyError) Error() string {
	return "di: property " + strconv.Quote(e.Key) + " missing"
}

// PropertyTypeError is returned when a property value cannot be converted to
// the requested Go type.
//
// Example: di: property "db.pool" not convertible to int
type PropertyTypeError struct {
	Key  string
	Type string
}

// Error implements the error interface.
func (e PropertyTypeError) Error() string {
	return "di: property " + strconv.Quote(e.Key) + " not convertible to " + e.Type
}

// MissingParamError is returned when a positional injection parameter is
// absent or nil.
//
// Example: di: injection parameter 0 missing
type MissingParamError struct {
	Index int
}

// Error implements the error interface.
func (e MissingParamError) Error() string {
	return "di: injection parameter " + strconv.Itoa(e.Index) + " missing"
}

// WrongTypeParamError is returned when a positional injection parameter has
// a different type than requested.
//
// Example: di: injection parameter 0 has wrong type (string)
type WrongTypeParamError struct {
	Index   int
	GotType string
}

// Error implements the error interface.
func (e WrongTypeParamError) Error() string {
	return "di: injection parameter " + strconv.Itoa(e.Index) + " has wrong type (" + e.GotType + ")"
}

// MissingTypedParamError is returned when no injection parameter is
// assignable to the requested type.
//
// Example: di: no injection parameter assignable to *store.DB
type MissingTypedParamError struct {
	Type string
}

// Error implements the error interface.
func (e MissingTypedParamError) Error() string {
	return "di: no injection parameter assignable to " + e.Type
}
