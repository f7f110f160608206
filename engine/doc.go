// Package engine implements the generation lifecycle manager, the
// orchestrator of a single long-running text generation.
//
// For every request the engine resolves the agent descriptor, assembles a
// bounded context bundle from story memory, registers the job, invokes the
// generator backend, and races the result against three cancellation
// triggers: an explicit cancel against the job id, a caller disconnect, and
// the overall timeout deadline. All three funnel into the same registry
// cancel primitive so there is a single reaction path.
//
// Cancellation is pushed to the waiting engine through the registry's done
// channel rather than polled, so cancellation latency is not bounded by a
// polling interval. Registry cleanup runs on every exit path; after Run
// returns, the job id is guaranteed to be gone from the registry.
package engine
