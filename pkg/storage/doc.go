// Package storage persists the connection audit log.
//
// The relay records connection lifecycle events (connect, agent
// identification, disconnect) through the Store interface. Two backends
// are provided:
//
//   - SQLite (default): file-based, zero-setup
//   - MySQL: for deployments with an existing database server
//
// The store is optional. When disabled in configuration the relay runs
// without one, and recording failures never affect message routing.
package storage
