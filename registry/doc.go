// Package registry contains the in-process implementation of core.Registry,
// the process-wide map from generation id to in-flight job state.
//
// The registry is the only shared mutable state in the generation core. It is
// deliberately an explicitly owned, injected object rather than ambient
// global state, so lifetime and test isolation stay explicit.
package registry
