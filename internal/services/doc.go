// Package services implements identity, ownership and the multi-table operations of the practice log.
//
// # Identity
//
// [AuthService] registers users, checks credentials with a [Hasher] ([BcryptHasher]) and binds opaque
// session tokens to user ids in a [SessionStore]. Two stores exist:
//   - [MemorySessionStore] : mutex-guarded map with a TTL, for single-process deployments and tests
//   - [RedisSessionStore] : go-redis backed, keys "session:<token>" expiring after the configured TTL
//
// Sessions carry no claims. Every request resolves its token again through [AuthService.CurrentUser].
//
// # Ownership
//
// [PracticeService.VerifyOwnsSession] looks a practice session up by id and owner in one predicate.
// Missing and foreign sessions are both reported as not found.
//
// # Cascades
//
// [PracticeService.CreateSessionWithLinks] and [PracticeService.DeleteSessionCascade] run in one
// transaction each. Creation follows the configured [LinkPolicy] when a link fails. Deletion removes
// links before the session and reports both counts.
//
// # Error Handling
//
// Every error returned from this package is a [shared.Error] classified by the repositories or
// built here; callers map its Kind onto a response.
package services
