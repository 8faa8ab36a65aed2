// Package snapshot persists engine state: the credential table and every
// store's contents as ordinary key-value records, plus the audit log.
//
// Two backends:
//
//   - A SQLite store ([Open]) for durable state. The schema is three
//     tables: credentials, records (scoped private/shared/readonly) and
//     audit_log. The store implements credential.AuditLogger, so a Manager
//     can audit straight into the same database.
//   - A portable CBOR file format ([WriteFile]/[ReadFile]) for
//     export/import between deployments.
//
// The engine core stays purely in memory; persistence is an integration
// concern layered on kvstore.Snapshot.
package snapshot
