package kvstore

import (
	"github.com/gobeyondidentity/scopedkv/pkg/credential"
)

// Snapshot is the full engine state: the credential table plus every store,
// as plain key-value records. It is the persistence seam; serialization is
// up to the consumer (pkg/snapshot offers SQLite and CBOR backends).
//
// Export and Restore are trusted integration surfaces for the embedding
// application, not credentialed operations.
type Snapshot struct {
	Credentials []credential.Credential
	Namespaces  map[string]map[string]string
	Shared      map[string]string
	ReadOnly    map[string]string
}

// Export copies out the current state.
func (s *Store) Export() Snapshot {
	snap := Snapshot{
		Credentials: s.creds.Credentials(),
		Namespaces:  make(map[string]map[string]string),
		ReadOnly:    s.readonly.snapshot(),
		Shared:      s.shared.snapshot(),
	}

	s.arenaMu.Lock()
	namespaces := make(map[string]*bucket, len(s.arena))
	for identity, ns := range s.arena {
		namespaces[identity] = ns
	}
	s.arenaMu.Unlock()

	// Only namespaces with a live credential survive an export; buckets are
	// dropped on revoke, so this mirrors the arena exactly.
	for identity, ns := range namespaces {
		snap.Namespaces[identity] = ns.snapshot()
	}
	return snap
}

// Restore installs a previously exported state. Credentials re-enter
// through the manager so the resolver ceiling still binds; a snapshot
// credential above its ceiling fails the whole restore.
func (s *Store) Restore(snap Snapshot) error {
	for _, cred := range snap.Credentials {
		if err := s.creds.Restore(cred); err != nil {
			return err
		}
	}
	for identity, data := range snap.Namespaces {
		s.namespaceFor(identity).restore(data)
	}
	if snap.Shared != nil {
		s.shared.restore(snap.Shared)
	}
	if snap.ReadOnly != nil {
		s.readonly.restore(snap.ReadOnly)
	}
	return nil
}
