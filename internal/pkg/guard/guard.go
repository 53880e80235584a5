// Package guard detects domain values that were not built by their constructor.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate on a zero-value guard when no
// specific error was supplied.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard is embedded in value objects, entities and commands. Only the
// constructor sets it, so a zero-value struct fails Validate.
//
//	type Profile struct {
//	    tolerance float64
//	    guard     guard.ConstructorGuard
//	}
//
//	func (p Profile) Validate() error {
//	    return p.guard.Validate(ErrProfileIsNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard returns a guard marked as constructed.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns validationError (or ErrDefaultConstructorGuard when it is nil) if the
// guard is a zero value, nil otherwise.
func (g ConstructorGuard) Validate(validationError error) error {
	if g.isConstructed {
		return nil
	}
	if validationError == nil {
		return ErrDefaultConstructorGuard
	}
	return validationError
}
