package credential

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gobeyondidentity/scopedkv/pkg/access"
)

// EscalationPolicy selects what Register does when an already-registered
// identity asks for a strictly higher level.
type EscalationPolicy string

const (
	// EscalationReject fails the request with ErrCodeEscalationDenied.
	// This is the default.
	EscalationReject EscalationPolicy = "reject"
	// EscalationClamp silently returns the held credential unchanged.
	EscalationClamp EscalationPolicy = "clamp"
)

// Config contains the construction options for a Manager.
type Config struct {
	// Resolver is the path policy mapping identities to their ceiling.
	Resolver access.Config

	// Escalation selects the re-registration policy. Empty means
	// EscalationReject.
	Escalation EscalationPolicy

	// Logger for structured decision logging. If nil, uses slog.Default().
	Logger *slog.Logger

	// Audit optionally records every decision. If nil, decisions are only
	// logged through Logger.
	Audit AuditLogger
}

// DefaultConfig returns a Config with the conventional defaults: resolver
// defaults per access.DefaultConfig and escalation rejected.
func DefaultConfig() Config {
	return Config{
		Resolver:   access.DefaultConfig(),
		Escalation: EscalationReject,
	}
}

// Manager owns the credential table: at most one live credential per
// identity. All table access goes through one mutex, so concurrent
// registration of the same identity has exactly one winner.
type Manager struct {
	resolver   *access.Resolver
	escalation EscalationPolicy
	logger     *slog.Logger
	audit      AuditLogger

	mu         sync.Mutex
	table      map[string]Credential
	onRegister []func(Credential)
	onRevoke   []func(Credential)
}

// NewManager validates cfg and creates a Manager. Malformed resolver
// configuration fails here, never a later call.
func NewManager(cfg Config) (*Manager, error) {
	resolver, err := access.NewResolver(cfg.Resolver)
	if err != nil {
		return nil, err
	}

	escalation := cfg.Escalation
	if escalation == "" {
		escalation = EscalationReject
	}
	if escalation != EscalationReject && escalation != EscalationClamp {
		return nil, access.ErrBadConfig(fmt.Sprintf("unknown escalation policy %q", cfg.Escalation))
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		resolver:   resolver,
		escalation: escalation,
		logger:     logger,
		audit:      cfg.Audit,
		table:      make(map[string]Credential),
	}, nil
}

// Resolver returns the manager's path policy resolver.
func (m *Manager) Resolver() *access.Resolver {
	return m.resolver
}

// OnRegister adds a hook fired after a new credential is issued. Hooks run
// outside the table lock; a panicking hook is recovered and logged.
func (m *Manager) OnRegister(fn func(Credential)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRegister = append(m.onRegister, fn)
}

// OnRevoke adds a hook fired after a credential is revoked. The key-value
// store uses this to destroy the identity's namespace.
func (m *Manager) OnRevoke(fn func(Credential)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRevoke = append(m.onRevoke, fn)
}

// Register issues a credential for identity at min(requested, ceiling),
// where ceiling is the resolver's verdict for the identity.
//
// Re-registration at the held level or lower returns the held credential
// unchanged. Re-registration requesting a strictly higher level fails with
// ErrCodeEscalationDenied under EscalationReject, or returns the held
// credential unchanged under EscalationClamp. A credential is never
// upgraded after issuance.
func (m *Manager) Register(identity string, requested access.Level) (Credential, error) {
	if !requested.Valid() {
		return Credential{}, ErrInvalidLevel(requested)
	}

	canon, err := access.Canonicalize(identity)
	if err != nil {
		m.deny("register", identity, err.Error())
		return Credential{}, err
	}

	ceiling, err := m.resolver.Resolve(canon)
	if err != nil {
		m.deny("register", canon, err.Error())
		return Credential{}, err
	}
	allowed := access.Min(requested, ceiling)

	cred, issued, err := m.registerLocked(canon, requested, allowed)
	if err != nil {
		return Credential{}, err
	}

	if issued {
		m.logger.Info("credential issued",
			"identity", canon,
			"requested", requested.String(),
			"ceiling", ceiling.String(),
			"granted", cred.Level.String(),
		)
		m.record(Entry{
			Timestamp: cred.IssuedAt,
			Identity:  canon,
			Op:        "register",
			Decision:  DecisionAllow,
			Level:     cred.Level.String(),
		})
		for _, fn := range m.registerHooks() {
			m.fire("register", cred, fn)
		}
	}
	return cred, nil
}

// registerLocked performs the table transition for Register and reports
// whether a new credential was issued.
func (m *Manager) registerLocked(canon string, requested, allowed access.Level) (Credential, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if held, ok := m.table[canon]; ok {
		if requested <= held.Level {
			return held, false, nil
		}
		if m.escalation == EscalationClamp {
			m.logger.Warn("escalation clamped",
				"identity", canon,
				"held", held.Level.String(),
				"requested", requested.String(),
			)
			return held, false, nil
		}
		err := ErrEscalationDenied(canon, held.Level, requested)
		m.logger.Warn("escalation denied",
			"identity", canon,
			"held", held.Level.String(),
			"requested", requested.String(),
		)
		m.record(Entry{
			Timestamp: time.Now().UTC(),
			Identity:  canon,
			Op:        "register",
			Decision:  DecisionDeny,
			Reason:    err.Message,
		})
		return Credential{}, false, err
	}

	cred := Credential{
		ID:       uuid.NewString(),
		Identity: canon,
		Level:    allowed,
		IssuedAt: time.Now().UTC(),
	}
	m.table[canon] = cred
	return cred, true, nil
}

// Lookup returns the live credential for identity.
func (m *Manager) Lookup(identity string) (Credential, error) {
	canon, err := access.Canonicalize(identity)
	if err != nil {
		return Credential{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	cred, ok := m.table[canon]
	if !ok {
		return Credential{}, ErrNotRegistered(canon)
	}
	return cred, nil
}

// Revoke removes the identity's credential and fires revocation hooks.
// Subsequent lookups fail with ErrCodeNotRegistered.
func (m *Manager) Revoke(identity string) error {
	canon, err := access.Canonicalize(identity)
	if err != nil {
		return err
	}

	m.mu.Lock()
	cred, ok := m.table[canon]
	if ok {
		delete(m.table, canon)
	}
	hooks := make([]func(Credential), len(m.onRevoke))
	copy(hooks, m.onRevoke)
	m.mu.Unlock()

	if !ok {
		return ErrNotRegistered(canon)
	}

	m.logger.Info("credential revoked", "identity", canon, "level", cred.Level.String())
	m.record(Entry{
		Timestamp: time.Now().UTC(),
		Identity:  canon,
		Op:        "revoke",
		Decision:  DecisionAllow,
		Level:     cred.Level.String(),
	})
	for _, fn := range hooks {
		m.fire("revoke", cred, fn)
	}
	return nil
}

// Count returns the number of live credentials.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.table)
}

// Has reports whether identity holds a live credential. Tokens that cannot
// be canonicalized hold nothing.
func (m *Manager) Has(identity string) bool {
	canon, err := access.Canonicalize(identity)
	if err != nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.table[canon]
	return ok
}

// Credentials returns a copy of the credential table in no particular
// order. Used by persistence and the CLI list command.
func (m *Manager) Credentials() []Credential {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Credential, 0, len(m.table))
	for _, cred := range m.table {
		out = append(out, cred)
	}
	return out
}

// Restore installs a previously exported credential verbatim, preserving
// its ID and issue time. Persistence seam only; the credential must still
// satisfy the resolver ceiling.
func (m *Manager) Restore(cred Credential) error {
	if cred.Zero() {
		return ErrInvalidLevel(cred.Level)
	}
	canon, err := access.Canonicalize(cred.Identity)
	if err != nil {
		return err
	}
	ceiling, err := m.resolver.Resolve(canon)
	if err != nil {
		return err
	}
	if cred.Level > ceiling {
		return ErrEscalationDenied(canon, ceiling, cred.Level)
	}
	cred.Identity = canon

	m.mu.Lock()
	m.table[canon] = cred
	hooks := make([]func(Credential), len(m.onRegister))
	copy(hooks, m.onRegister)
	m.mu.Unlock()

	for _, fn := range hooks {
		m.fire("restore", cred, fn)
	}
	return nil
}

func (m *Manager) registerHooks() []func(Credential) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hooks := make([]func(Credential), len(m.onRegister))
	copy(hooks, m.onRegister)
	return hooks
}

// fire runs one hook, recovering panics so a bad hook cannot corrupt the
// registration path.
func (m *Manager) fire(op string, cred Credential, fn func(Credential)) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("credential hook panicked", "op", op, "identity", cred.Identity, "panic", r)
		}
	}()
	fn(cred)
}

// deny logs and audits a failed register attempt.
func (m *Manager) deny(op, identity, reason string) {
	m.logger.Warn("credential denied", "op", op, "identity", identity, "reason", reason)
	m.record(Entry{
		Timestamp: time.Now().UTC(),
		Identity:  identity,
		Op:        op,
		Decision:  DecisionDeny,
		Reason:    reason,
	})
}

// record writes an audit entry. Audit failures are logged, never propagated.
func (m *Manager) record(e Entry) {
	if m.audit == nil {
		return
	}
	if err := m.audit.LogDecision(e); err != nil {
		m.logger.Error("audit record failed", "op", e.Op, "identity", e.Identity, "error", err)
	}
}
