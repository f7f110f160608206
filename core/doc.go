// Package core contains the shared contracts and data types of StoryMesh:
// generation requests and responses, the job registry interface, the story
// memory data model with its read-only store interface, and the context
// bundle produced by retrieval.
//
// Concrete implementations live in sibling packages (registry, memory,
// retrieval, backend, engine) and depend on this package only. Keeping the
// contracts centralized avoids dependency cycles and lets applications swap
// implementations at wiring time.
package core
