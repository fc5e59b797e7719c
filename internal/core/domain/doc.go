// Package domain defines the core business entities for docflow.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ChangeSet: A batch of edit, create and delete proposals with frozen identities
//   - Proposal: The tagged union addressing one proposal within a ChangeSet
//   - Selection: The selected identities plus the active type filter
//   - UpdateResult: The outcome of applying proposals, possibly partial
//   - ProgressEvent: A typed event streamed during long-running analysis
//   - DocumentTree: The per-language documentation and API reference trees
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
