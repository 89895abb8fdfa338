// Package pipeline implements the live encoding pipeline.
//
// A Machine owns all session state and is driven by events; it returns
// effects describing remote calls to make. Effects are executed off the
// writer goroutine by an Executor, whose results come back as events:
//
//	EncodeRequested -> EncodeCall -> EncodeCompleted
//	                -> ResolveCall (decode([id]) per token, joined) -> TokensResolved
//	                -> VerifyCall (decode(ids)) -> VerificationCompleted
//
// Every request is tagged with a strictly increasing Generation. Results
// for any generation other than the latest issued are dropped, so
// overlapping requests can complete in any order without a stale session
// ever becoming visible.
//
// A Machine must be used from a single goroutine. Runner provides that
// loop for headless use; the terminal UI drives the Machine from its
// Update function instead.
package pipeline
