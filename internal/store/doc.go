// Package store records the attempts made by netwait pollers.
//
// Two implementations of [Store] are provided:
//
//   - [MemoryStore]: bounded in-memory log, used by the status endpoint
//   - [SQLiteStore]: persistent history backed by modernc.org/sqlite
//
// Records are decoupled from the netwait.Attempt type so this package does
// not depend on the root package.
package store
