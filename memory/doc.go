// Package memory contains concrete story memory implementations. The
// read-only StoryStore interface and the story data types reside in the core
// package; depend on core.StoryStore in consuming code and select an
// implementation (like the in-memory store below) at wiring time.
//
// Rationale: keeps domain contracts centralized while allowing pluggable
// backends (databases, indexes) to be added without introducing dependency
// cycles.
package memory
