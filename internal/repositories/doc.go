// Package repositories implements SQLite persistence for all domain entities.
//
// Each repository offers Insert, Select and Delete over a filter struct from [models], runs against
// either a [*sql.DB] or a [*sql.Tx] through [DBTX], and knows nothing about authentication.
//
// Key Implementations:
//   - [UserRepository] : accounts, looked up by exact user name
//   - [PieceRepository] : the shared catalog with case-insensitive substring search
//   - [PracticeSessionRepository] : practice sessions, including the single-predicate ownership lookup
//   - [PieceLinkRepository] : the pieces_practiced association table
//
// Every storage error passes through [Classify] before it leaves the package, so callers only
// ever see [shared.Error] values. [Store] bundles the repositories and runs multi-statement work
// in one transaction through [Store.WithTx].
package repositories
