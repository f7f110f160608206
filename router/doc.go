// Package router maps a logical agent target (e.g. "writer", "plot",
// "market") to its capability descriptor: system instructions plus declared
// capabilities.
//
// Resolution is a pure lookup over a static table with a designated default.
// Resolve never fails; unknown or empty targets fall back to the "writer"
// descriptor so that a generation request can always proceed.
package router
