// Package execution defines the service that applies a transaction to a
// snapshot of the store.
package execution

import (
	"go.dedis.ch/ballot/core/store"
	"go.dedis.ch/ballot/core/txn"
)

// Step is the context of the execution of a transaction.
type Step struct {
	Current txn.Transaction
}

// Result is the result of a transaction execution.
type Result struct {
	// Accepted is the success state of the transaction.
	Accepted bool

	// Message gives a change to the execution to explain why a transaction has
	// failed.
	Message string

	// Err is the cause of the rejection, if any, so that callers can inspect
	// it.
	Err error
}

// Service is the execution service that defines the primitives to execute a
// transaction.
type Service interface {
	// Execute must apply the transaction to the snapshot and return the result
	// of it. A rejected transaction may leave writes in the snapshot that must
	// be discarded by the caller.
	Execute(snap store.Snapshot, step Step) (Result, error)
}
