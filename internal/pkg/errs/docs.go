// Package errs provides the typed errors shared by the logistics engine.
//
// Every error type pairs a sentinel (ErrObjectNotFound, ErrValueIsInvalid, ...) with a
// struct carrying the offending parameter and an optional cause. The struct unwraps to its
// sentinel so callers branch with errors.Is:
//
//	if errors.Is(err, errs.ErrObjectNotFound) {
//	    // the handle no longer resolves
//	}
//
// Pipeline failures that belong to the simulation (no carrier, route unavailable, ...) are
// not errors; they are failure reasons recorded on orders and shipments. Errors from this
// package signal programming or infrastructure faults.
package errs
