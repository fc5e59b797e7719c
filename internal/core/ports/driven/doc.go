// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - DocumentAPI: The documentation backend (analysis, update, documents, versions)
//   - ProgressDialer: Opens the progress stream connection
//   - ProgressConn: One open progress stream connection
//   - Cache: Keyed store with expiry, used for read-through document fetches
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
