package kvstore

import (
	"log/slog"
	"sync"

	"github.com/gobeyondidentity/scopedkv/pkg/access"
	"github.com/gobeyondidentity/scopedkv/pkg/credential"
)

// Config contains the construction options for a Store.
type Config struct {
	// Manager is the credential manager every operation validates against.
	// Required.
	Manager *credential.Manager

	// Logger for structured denial logging. If nil, uses slog.Default().
	Logger *slog.Logger
}

// Store is the key-value façade. It composes the arena of private
// namespaces with the shared read-write store and the shared read-only
// store, and routes every operation through a credential check.
//
// Multiple independent Stores can coexist in one process; nothing here is
// process-global.
type Store struct {
	creds  *credential.Manager
	logger *slog.Logger

	arenaMu sync.Mutex
	arena   map[string]*bucket

	shared   *bucket
	readonly *bucket
}

// New creates a Store over mgr's credential table and subscribes to its
// lifecycle hooks so namespaces appear on registration and vanish on
// revocation.
func New(cfg Config) (*Store, error) {
	if cfg.Manager == nil {
		return nil, access.ErrBadConfig("kvstore requires a credential manager")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		creds:    cfg.Manager,
		logger:   logger,
		arena:    make(map[string]*bucket),
		shared:   newBucket(),
		readonly: newBucket(),
	}
	cfg.Manager.OnRegister(func(c credential.Credential) {
		s.namespaceFor(c.Identity)
	})
	cfg.Manager.OnRevoke(func(c credential.Credential) {
		s.dropNamespace(c.Identity)
	})
	return s, nil
}

// validate re-checks cred against the live credential table and returns the
// live credential. A revoked identity fails not-registered; a credential
// whose ID differs from the live one is stale or forged and fails with
// access denied.
func (s *Store) validate(cred credential.Credential) (credential.Credential, error) {
	if cred.Zero() {
		return credential.Credential{}, ErrAccessDenied(cred.Identity, "zero credential")
	}
	live, err := s.creds.Lookup(cred.Identity)
	if err != nil {
		return credential.Credential{}, err
	}
	if live.ID != cred.ID {
		s.logger.Warn("stale credential rejected", "identity", cred.Identity)
		return credential.Credential{}, ErrAccessDenied(cred.Identity, "credential does not match the live grant")
	}
	return live, nil
}

// namespaceFor returns the identity's namespace, creating it lazily.
func (s *Store) namespaceFor(identity string) *bucket {
	s.arenaMu.Lock()
	defer s.arenaMu.Unlock()
	ns, ok := s.arena[identity]
	if !ok {
		ns = newBucket()
		s.arena[identity] = ns
	}
	return ns
}

func (s *Store) dropNamespace(identity string) {
	s.arenaMu.Lock()
	defer s.arenaMu.Unlock()
	delete(s.arena, identity)
}

// Set writes a key in the caller's private namespace.
func (s *Store) Set(cred credential.Credential, key, value string) error {
	live, err := s.validate(cred)
	if err != nil {
		return err
	}
	s.namespaceFor(live.Identity).set(key, value)
	return nil
}

// Get reads a key from the caller's private namespace. An absent key is
// (_, false, nil), never an error.
func (s *Store) Get(cred credential.Credential, key string) (string, bool, error) {
	live, err := s.validate(cred)
	if err != nil {
		return "", false, err
	}
	v, ok := s.namespaceFor(live.Identity).get(key)
	return v, ok, nil
}

// Has reports whether the caller's private namespace contains key.
func (s *Store) Has(cred credential.Credential, key string) (bool, error) {
	live, err := s.validate(cred)
	if err != nil {
		return false, err
	}
	return s.namespaceFor(live.Identity).has(key), nil
}

// Delete removes a key from the caller's private namespace. Deleting an
// absent key is a no-op.
func (s *Store) Delete(cred credential.Credential, key string) error {
	live, err := s.validate(cred)
	if err != nil {
		return err
	}
	s.namespaceFor(live.Identity).delete(key)
	return nil
}

// Clear empties the caller's private namespace.
func (s *Store) Clear(cred credential.Credential) error {
	live, err := s.validate(cred)
	if err != nil {
		return err
	}
	s.namespaceFor(live.Identity).clear()
	return nil
}

// Keys returns the sorted keys of the caller's private namespace.
func (s *Store) Keys(cred credential.Credential) ([]string, error) {
	live, err := s.validate(cred)
	if err != nil {
		return nil, err
	}
	return s.namespaceFor(live.Identity).keys(), nil
}

// Values returns the values of the caller's private namespace, ordered by
// their keys.
func (s *Store) Values(cred credential.Credential) ([]string, error) {
	live, err := s.validate(cred)
	if err != nil {
		return nil, err
	}
	return s.namespaceFor(live.Identity).values(), nil
}

// SharedSet writes a key in the shared read-write store.
func (s *Store) SharedSet(cred credential.Credential, key, value string) error {
	if _, err := s.validate(cred); err != nil {
		return err
	}
	s.shared.set(key, value)
	return nil
}

// SharedGet reads a key from the shared read-write store.
func (s *Store) SharedGet(cred credential.Credential, key string) (string, bool, error) {
	if _, err := s.validate(cred); err != nil {
		return "", false, err
	}
	v, ok := s.shared.get(key)
	return v, ok, nil
}

// SharedHas reports whether the shared read-write store contains key.
func (s *Store) SharedHas(cred credential.Credential, key string) (bool, error) {
	if _, err := s.validate(cred); err != nil {
		return false, err
	}
	return s.shared.has(key), nil
}

// SharedDelete removes a key from the shared read-write store.
func (s *Store) SharedDelete(cred credential.Credential, key string) error {
	if _, err := s.validate(cred); err != nil {
		return err
	}
	s.shared.delete(key)
	return nil
}

// SharedClear empties the shared read-write store.
func (s *Store) SharedClear(cred credential.Credential) error {
	if _, err := s.validate(cred); err != nil {
		return err
	}
	s.shared.clear()
	return nil
}

// SharedKeys returns the sorted keys of the shared read-write store.
func (s *Store) SharedKeys(cred credential.Credential) ([]string, error) {
	if _, err := s.validate(cred); err != nil {
		return nil, err
	}
	return s.shared.keys(), nil
}

// SharedValues returns the values of the shared read-write store, ordered
// by their keys.
func (s *Store) SharedValues(cred credential.Credential) ([]string, error) {
	if _, err := s.validate(cred); err != nil {
		return nil, err
	}
	return s.shared.values(), nil
}

// ReadOnlyGet reads a key from the shared read-only store. Any valid
// credential may read.
func (s *Store) ReadOnlyGet(cred credential.Credential, key string) (string, bool, error) {
	if _, err := s.validate(cred); err != nil {
		return "", false, err
	}
	v, ok := s.readonly.get(key)
	return v, ok, nil
}

// ReadOnlyHas reports whether the shared read-only store contains key.
func (s *Store) ReadOnlyHas(cred credential.Credential, key string) (bool, error) {
	if _, err := s.validate(cred); err != nil {
		return false, err
	}
	return s.readonly.has(key), nil
}

// ReadOnlyKeys returns the sorted keys of the shared read-only store.
func (s *Store) ReadOnlyKeys(cred credential.Credential) ([]string, error) {
	if _, err := s.validate(cred); err != nil {
		return nil, err
	}
	return s.readonly.keys(), nil
}

// ReadOnlyValues returns the values of the shared read-only store, ordered
// by their keys.
func (s *Store) ReadOnlyValues(cred credential.Credential) ([]string, error) {
	if _, err := s.validate(cred); err != nil {
		return nil, err
	}
	return s.readonly.values(), nil
}

// ReadOnlySet writes a key in the shared read-only store. Admin only; on
// denial the store is untouched.
func (s *Store) ReadOnlySet(cred credential.Credential, key, value string) error {
	if _, err := s.requireAdmin(cred, "set"); err != nil {
		return err
	}
	s.readonly.set(key, value)
	return nil
}

// ReadOnlyDelete removes a key from the shared read-only store. Admin only.
func (s *Store) ReadOnlyDelete(cred credential.Credential, key string) error {
	if _, err := s.requireAdmin(cred, "delete"); err != nil {
		return err
	}
	s.readonly.delete(key)
	return nil
}

// ReadOnlyClear empties the shared read-only store. Admin only.
func (s *Store) ReadOnlyClear(cred credential.Credential) error {
	if _, err := s.requireAdmin(cred, "clear"); err != nil {
		return err
	}
	s.readonly.clear()
	return nil
}

// requireAdmin validates cred and enforces the Admin gate on read-only
// store mutation.
func (s *Store) requireAdmin(cred credential.Credential, op string) (credential.Credential, error) {
	live, err := s.validate(cred)
	if err != nil {
		return credential.Credential{}, err
	}
	if !live.Level.AtLeast(access.Admin) {
		s.logger.Warn("read-only store write denied",
			"identity", live.Identity,
			"level", live.Level.String(),
			"op", op,
		)
		return credential.Credential{}, ErrPrivilegeRequired(live.Identity, op)
	}
	return live, nil
}
