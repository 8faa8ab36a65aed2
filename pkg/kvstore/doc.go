// Package kvstore implements the credential-gated key-value store: one
// private namespace per caller identity, one shared read-write store, and
// one shared read-only store writable only by Admin credentials.
//
// # Access Model
//
// Every operation takes the caller's credential and re-validates it against
// the live credential table before touching any map. The namespace a
// private operation lands in is selected solely from the validated
// credential's identity, so no operation can address another identity's
// namespace; isolation is structural, not a runtime check.
//
// Any valid credential, regardless of level, fully owns its private
// namespace and may read the shared stores. Writing the shared read-only
// store requires Admin.
//
// # Locking
//
// Each namespace carries its own lock, and each shared store has one
// dedicated lock. Locks are held for a single map operation, never across
// calls, so cross-tenant contention is limited to the arena index.
//
// # Lifetime
//
// Namespaces are created lazily on first access (and eagerly on credential
// registration) and destroyed when the owning credential is revoked.
package kvstore
