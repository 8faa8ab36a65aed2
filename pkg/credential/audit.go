package credential

import "time"

// Decision values for audit entries.
const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"
)

// Entry represents a single credential decision for audit logging.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Identity  string    `json:"identity"`
	Op        string    `json:"op"`       // register, revoke, restore
	Decision  string    `json:"decision"` // allow or deny
	Level     string    `json:"level,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// AuditLogger records credential decisions for compliance and forensics.
type AuditLogger interface {
	// LogDecision records one decision. Implementations must be safe for
	// concurrent use; the Manager may call from multiple goroutines.
	LogDecision(Entry) error
}

// NopAuditLogger discards all entries. Use when no audit backend is
// configured.
type NopAuditLogger struct{}

// LogDecision discards the entry.
func (NopAuditLogger) LogDecision(Entry) error { return nil }
