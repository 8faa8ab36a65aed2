package credential

import (
	"time"

	"github.com/gobeyondidentity/scopedkv/pkg/access"
)

// Credential is an immutable (identity, level) grant. The Manager stores
// credentials by value and hands out copies, so nothing a caller does to its
// copy can change the granted level.
//
// ID is unique per issuance. After a revoke and re-register the identity
// holds a credential with a new ID, which is how stores detect stale
// credentials that survived a revocation.
type Credential struct {
	ID       string
	Identity string // canonical caller identity token
	Level    access.Level
	IssuedAt time.Time
}

// Zero reports whether c is the zero value, i.e. not an issued credential.
func (c Credential) Zero() bool {
	return c.ID == ""
}
