// Package testutil provides shared test fixtures and builders used across
// StoryMesh test suites. Not part of the public API.
package testutil
