package manifest

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFileRoundTrip(t *testing.T) {
	t.Parallel()

	pub, priv, err := GenerateKey()
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "keys", "manifest.key")
	pubPath := filepath.Join(dir, "keys", "manifest.pub")

	require.NoError(t, SaveKey(privPath, priv))
	require.NoError(t, SavePublicKey(pubPath, pub))

	info, err := os.Stat(privPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	gotPriv, err := LoadKey(privPath)
	require.NoError(t, err)
	assert.True(t, priv.Equal(gotPriv))

	gotPub, err := LoadPublicKey(pubPath)
	require.NoError(t, err)
	assert.True(t, pub.Equal(gotPub))
}

func TestLoadedKeySignsVerifiableManifests(t *testing.T) {
	t.Parallel()

	pub, priv, err := GenerateKey()
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "manifest.key")
	require.NoError(t, SaveKey(privPath, priv))

	loaded, err := LoadKey(privPath)
	require.NoError(t, err)

	token, err := NewSigner(loaded, "build-system", 0).Issue("/core/x.mod")
	require.NoError(t, err)
	identity, err := NewVerifier(pub, "build-system").Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "/core/x.mod", identity)
}

func TestLoadKeyRejectsWrongFormat(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	notPEM := filepath.Join(dir, "garbage.key")
	require.NoError(t, os.WriteFile(notPEM, []byte("not a pem file"), 0o600))
	_, err := LoadKey(notPEM)
	assert.Error(t, err)

	// A public key file is not a signing key.
	pub, _, err := GenerateKey()
	require.NoError(t, err)
	pubPath := filepath.Join(dir, "manifest.pub")
	require.NoError(t, SavePublicKey(pubPath, pub))
	_, err = LoadKey(pubPath)
	assert.Error(t, err)

	_, err = LoadKey(filepath.Join(dir, "missing.key"))
	assert.Error(t, err)
}

func TestSaveKeyRejectsTruncatedKey(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	err := SaveKey(filepath.Join(dir, "bad.key"), ed25519.PrivateKey([]byte("short")))
	assert.Error(t, err)
	err = SavePublicKey(filepath.Join(dir, "bad.pub"), ed25519.PublicKey([]byte("short")))
	assert.Error(t, err)
}
