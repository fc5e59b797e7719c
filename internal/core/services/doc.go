// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// ChangeService reconciles change proposals with apply results,
// DocumentService reads the backend through TTL caches, and
// ProgressChannel follows a streamed analysis.
package services
