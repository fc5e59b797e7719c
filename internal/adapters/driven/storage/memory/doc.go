// Package memory provides in-process implementations of driven ports:
// the TTL cache behind document fetches and an in-memory ConfigStore.
// Nothing here is persisted.
package memory
