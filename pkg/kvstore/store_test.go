package kvstore

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobeyondidentity/scopedkv/pkg/access"
	"github.com/gobeyondidentity/scopedkv/pkg/credential"
)

func newTestEngine(t *testing.T) (*credential.Manager, *Store) {
	t.Helper()

	cfg := credential.DefaultConfig()
	cfg.Resolver.BasePaths = []string{"/core", "/plugins"}
	cfg.Resolver.Rules = []access.Rule{
		{Prefix: "/core", Level: access.Admin},
		{Prefix: "/plugins", Level: access.ReadOnly},
	}
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	mgr, err := credential.NewManager(cfg)
	require.NoError(t, err)

	store, err := New(Config{Manager: mgr, Logger: cfg.Logger})
	require.NoError(t, err)
	return mgr, store
}

func register(t *testing.T, mgr *credential.Manager, identity string, level access.Level) credential.Credential {
	t.Helper()
	cred, err := mgr.Register(identity, level)
	require.NoError(t, err)
	return cred
}

func TestPrivateRoundTrip(t *testing.T) {
	t.Parallel()

	mgr, store := newTestEngine(t)
	cred := register(t, mgr, "/core/x.mod", access.ReadWrite)

	require.NoError(t, store.Set(cred, "k", "v"))

	v, ok, err := store.Get(cred, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	has, err := store.Has(cred, "k")
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, store.Delete(cred, "k"))
	_, ok, err = store.Get(cred, "k")
	require.NoError(t, err)
	assert.False(t, ok, "absent key is a result, not an error")

	// Deleting an absent key is a no-op.
	require.NoError(t, store.Delete(cred, "k"))
}

func TestNamespaceIsolation(t *testing.T) {
	t.Parallel()
	t.Log("Testing: no identity can observe another identity's private data")

	mgr, store := newTestEngine(t)
	c1 := register(t, mgr, "/core/one.mod", access.ReadWrite)
	c2 := register(t, mgr, "/core/two.mod", access.ReadWrite)

	require.NoError(t, store.Set(c1, "secret", "tenant-one"))

	_, ok, err := store.Get(c2, "secret")
	require.NoError(t, err)
	assert.False(t, ok, "c2 must not observe c1's key")

	require.NoError(t, store.Set(c2, "secret", "tenant-two"))

	v, ok, err := store.Get(c1, "secret")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tenant-one", v, "c2's write must not leak into c1's namespace")
}

func TestLowLevelCredentialOwnsItsNamespace(t *testing.T) {
	t.Parallel()
	t.Log("Testing: isolation is identity-scoped, not level-gated")

	mgr, store := newTestEngine(t)
	// The plugins ceiling clamps this credential to ReadOnly, yet it still
	// fully owns its private namespace.
	cred := register(t, mgr, "/plugins/y.mod", access.ReadOnly)

	require.NoError(t, store.Set(cred, "own", "data"))
	v, ok, err := store.Get(cred, "own")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "data", v)
	require.NoError(t, store.Delete(cred, "own"))
}

func TestKeysAndValuesSorted(t *testing.T) {
	t.Parallel()

	mgr, store := newTestEngine(t)
	cred := register(t, mgr, "/core/x.mod", access.ReadWrite)

	require.NoError(t, store.Set(cred, "b", "2"))
	require.NoError(t, store.Set(cred, "a", "1"))
	require.NoError(t, store.Set(cred, "c", "3"))

	keys, err := store.Keys(cred)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, keys)

	values, err := store.Values(cred)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, values)

	require.NoError(t, store.Clear(cred))
	keys, err = store.Keys(cred)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSharedRoundTrip(t *testing.T) {
	t.Parallel()
	t.Log("Testing: a shared write by one credential is visible to every other valid credential")

	mgr, store := newTestEngine(t)
	c1 := register(t, mgr, "/core/one.mod", access.ReadWrite)
	c2 := register(t, mgr, "/plugins/two.mod", access.ReadOnly)

	require.NoError(t, store.SharedSet(c1, "announce", "hello"))

	v, ok, err := store.SharedGet(c2, "announce")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", v)

	// The read-only-level credential may also write the shared RW store.
	require.NoError(t, store.SharedSet(c2, "reply", "hi"))
	v, ok, err = store.SharedGet(c1, "reply")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hi", v)

	keys, err := store.SharedKeys(c1)
	require.NoError(t, err)
	assert.Equal(t, []string{"announce", "reply"}, keys)

	require.NoError(t, store.SharedDelete(c2, "announce"))
	has, err := store.SharedHas(c1, "announce")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, store.SharedClear(c1))
	values, err := store.SharedValues(c2)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestReadOnlyStoreGating(t *testing.T) {
	t.Parallel()
	t.Log("Testing: readonly_set succeeds iff the credential level is Admin, and never mutates on failure")

	mgr, store := newTestEngine(t)
	admin := register(t, mgr, "/core/boot.mod", access.Admin)
	plugin := register(t, mgr, "/plugins/y.mod", access.Admin) // clamped to ReadOnly
	require.Equal(t, access.ReadOnly, plugin.Level)

	err := store.ReadOnlySet(plugin, "cfg", "evil")
	require.Error(t, err)
	assert.True(t, IsPrivilegeRequired(err))

	_, ok, err := store.ReadOnlyGet(admin, "cfg")
	require.NoError(t, err)
	assert.False(t, ok, "denied write must not mutate the store")

	require.NoError(t, store.ReadOnlySet(admin, "cfg", "1"))

	v, ok, err := store.ReadOnlyGet(plugin, "cfg")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", v, "any valid credential may read the read-only store")

	// Delete and clear carry the same gate.
	err = store.ReadOnlyDelete(plugin, "cfg")
	assert.True(t, IsPrivilegeRequired(err))
	err = store.ReadOnlyClear(plugin)
	assert.True(t, IsPrivilegeRequired(err))

	has, err := store.ReadOnlyHas(plugin, "cfg")
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, store.ReadOnlyDelete(admin, "cfg"))
	keys, err := store.ReadOnlyKeys(admin)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestReadOnlyGateChecksLiveLevel(t *testing.T) {
	t.Parallel()

	// Every level below Admin must be refused.
	for _, level := range []access.Level{access.ReadOnly, access.WriteOnly, access.ReadWrite} {
		mgr, store := newTestEngine(t)
		cred := register(t, mgr, fmt.Sprintf("/core/l%d.mod", int(level)), level)

		err := store.ReadOnlySet(cred, "k", "v")
		require.Error(t, err, "level %s", level)
		assert.True(t, IsPrivilegeRequired(err), "level %s", level)
	}
}

func TestRevokedCredentialIsRejected(t *testing.T) {
	t.Parallel()

	mgr, store := newTestEngine(t)
	cred := register(t, mgr, "/core/x.mod", access.Admin)
	require.NoError(t, store.Set(cred, "k", "v"))

	require.NoError(t, mgr.Revoke("/core/x.mod"))

	_, _, err := store.Get(cred, "k")
	require.Error(t, err)
	assert.True(t, credential.IsNotRegistered(err))

	err = store.SharedSet(cred, "k", "v")
	assert.True(t, credential.IsNotRegistered(err))
}

func TestRevokeDestroysNamespace(t *testing.T) {
	t.Parallel()
	t.Log("Testing: a re-registered identity starts with an empty namespace and a fresh credential")

	mgr, store := newTestEngine(t)
	first := register(t, mgr, "/core/x.mod", access.ReadWrite)
	require.NoError(t, store.Set(first, "k", "v"))

	require.NoError(t, mgr.Revoke("/core/x.mod"))
	second := register(t, mgr, "/core/x.mod", access.ReadWrite)
	require.NotEqual(t, first.ID, second.ID)

	_, ok, err := store.Get(second, "k")
	require.NoError(t, err)
	assert.False(t, ok, "old namespace contents must not survive revocation")

	// The pre-revocation credential is stale even though the identity is
	// registered again.
	_, _, err = store.Get(first, "k")
	require.Error(t, err)
	assert.True(t, IsAccessDenied(err))
}

func TestZeroAndForgedCredentialsRejected(t *testing.T) {
	t.Parallel()

	mgr, store := newTestEngine(t)
	register(t, mgr, "/core/x.mod", access.Admin)

	err := store.Set(credential.Credential{}, "k", "v")
	require.Error(t, err)
	assert.True(t, IsAccessDenied(err))

	forged := credential.Credential{ID: "made-up", Identity: "/core/x.mod", Level: access.Admin}
	err = store.ReadOnlySet(forged, "k", "v")
	require.Error(t, err)
	assert.True(t, IsAccessDenied(err))
}

func TestConcurrentTenants(t *testing.T) {
	t.Parallel()

	mgr, store := newTestEngine(t)

	const tenants = 8
	const writes = 50

	creds := make([]credential.Credential, tenants)
	for i := range creds {
		creds[i] = register(t, mgr, fmt.Sprintf("/core/t%d.mod", i), access.ReadWrite)
	}

	var wg sync.WaitGroup
	for i, cred := range creds {
		wg.Add(1)
		go func(i int, cred credential.Credential) {
			defer wg.Done()
			for j := 0; j < writes; j++ {
				key := fmt.Sprintf("k%d", j)
				if err := store.Set(cred, key, fmt.Sprintf("t%d", i)); err != nil {
					t.Errorf("set: %v", err)
				}
				if err := store.SharedSet(cred, key, "shared"); err != nil {
					t.Errorf("shared set: %v", err)
				}
			}
		}(i, cred)
	}
	wg.Wait()

	for i, cred := range creds {
		v, ok, err := store.Get(cred, "k0")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("t%d", i), v, "tenant %d namespace was polluted", i)
	}
}

func TestNewRequiresManager(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.Error(t, err)
	assert.Equal(t, access.ErrCodeBadConfig, access.ErrorCode(err))
}

func TestExportRestoreRoundTrip(t *testing.T) {
	t.Parallel()

	mgr, store := newTestEngine(t)
	admin := register(t, mgr, "/core/boot.mod", access.Admin)
	plugin := register(t, mgr, "/plugins/y.mod", access.ReadOnly)

	require.NoError(t, store.Set(admin, "a", "1"))
	require.NoError(t, store.Set(plugin, "b", "2"))
	require.NoError(t, store.SharedSet(admin, "s", "3"))
	require.NoError(t, store.ReadOnlySet(admin, "r", "4"))

	snap := store.Export()
	require.Len(t, snap.Credentials, 2)

	// Restore into a fresh engine with the same policy.
	mgr2, store2 := newTestEngine(t)
	require.NoError(t, store2.Restore(snap))
	assert.Equal(t, 2, mgr2.Count())

	cred, err := mgr2.Lookup("/core/boot.mod")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, cred.ID, "restore preserves credential identity")

	v, ok, err := store2.Get(cred, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", v)

	pcred, err := mgr2.Lookup("/plugins/y.mod")
	require.NoError(t, err)
	v, ok, err = store2.ReadOnlyGet(pcred, "r")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "4", v)
}

func TestRestoreRejectsCredentialAboveCeiling(t *testing.T) {
	t.Parallel()
	t.Log("Testing: a tampered snapshot cannot smuggle in a credential above its ceiling")

	_, store := newTestEngine(t)

	snap := Snapshot{
		Credentials: []credential.Credential{
			{ID: "tampered", Identity: "/plugins/y.mod", Level: access.Admin},
		},
	}
	err := store.Restore(snap)
	require.Error(t, err)
	assert.True(t, credential.IsEscalationDenied(err))
}
