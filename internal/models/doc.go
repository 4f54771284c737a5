// Package models defines domain entities, query filters and the persistence interface for the practice log.
//
// Entities map one-to-one onto tables:
//   - [User] : account with a bcrypt password digest (never serialized)
//   - [Piece] : shared catalog entry, unique by (title, composer)
//   - [PracticeSession] : a practice session owned by exactly one user
//   - [PieceLink] : association between a practice session and a piece it covered
//
// [PracticeSessionWithPieces] is the read model returned by session listings.
//
// Every entity has a matching filter type. A nil pointer or empty string in a filter means
// "no constraint on that field". The generic [Repository] interface ties an entity to its filter.
package models
