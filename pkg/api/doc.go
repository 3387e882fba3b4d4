// Package api defines the core contracts of the ingestflow engine: the
// execution Context threaded through a pipeline run, the Step contract,
// per-item progress reporting, the durable Task state machine and the
// Observer hooks.
//
// Most applications import the root ingestflow package, which re-exports
// these types, rather than this package directly.
package api
