// Package credential issues and stores the immutable credentials that gate
// every key-value store operation.
//
// A Manager owns the credential table: exactly one live credential per
// caller identity. Registration caps the requested level by the ceiling the
// identity resolves to, so no credential can ever exceed its policy
// entitlement, and a credential is never upgraded after issuance.
//
// # Usage
//
//	cfg := credential.DefaultConfig()
//	cfg.Resolver.BasePaths = []string{"/core", "/plugins"}
//	cfg.Resolver.Rules = []access.Rule{
//		{Prefix: "/core", Level: access.Admin},
//		{Prefix: "/plugins", Level: access.ReadOnly},
//	}
//	mgr, err := credential.NewManager(cfg)
//
//	cred, err := mgr.Register("/core/x.mod", access.Admin)
//
// # Thread Safety
//
// Manager is safe for concurrent use. A single mutex guards the credential
// table, so two goroutines registering the same identity concurrently agree
// on one winner; the loser receives the winner's credential.
//
// # Decision Logging
//
// Every register, revoke and denial is logged with structured fields via
// log/slog and optionally recorded through an AuditLogger. Audit failures
// are logged, never propagated into the operation.
package credential
