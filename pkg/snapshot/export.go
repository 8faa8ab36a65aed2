package snapshot

import (
	"fmt"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/gobeyondidentity/scopedkv/pkg/access"
	"github.com/gobeyondidentity/scopedkv/pkg/credential"
	"github.com/gobeyondidentity/scopedkv/pkg/kvstore"
)

// exportVersion guards the CBOR layout; bump on incompatible changes.
const exportVersion = 1

// fileSnapshot is the CBOR wire shape of an exported snapshot.
type fileSnapshot struct {
	Version     int                          `cbor:"1,keyasint"`
	Credentials []fileCredential             `cbor:"2,keyasint"`
	Namespaces  map[string]map[string]string `cbor:"3,keyasint"`
	Shared      map[string]string            `cbor:"4,keyasint"`
	ReadOnly    map[string]string            `cbor:"5,keyasint"`
}

type fileCredential struct {
	ID       string    `cbor:"1,keyasint"`
	Identity string    `cbor:"2,keyasint"`
	Level    string    `cbor:"3,keyasint"`
	IssuedAt time.Time `cbor:"4,keyasint"`
}

// Encode serializes a snapshot to its portable CBOR form.
func Encode(snap kvstore.Snapshot) ([]byte, error) {
	fs := fileSnapshot{
		Version:    exportVersion,
		Namespaces: snap.Namespaces,
		Shared:     snap.Shared,
		ReadOnly:   snap.ReadOnly,
	}
	for _, cred := range snap.Credentials {
		fs.Credentials = append(fs.Credentials, fileCredential{
			ID:       cred.ID,
			Identity: cred.Identity,
			Level:    cred.Level.String(),
			IssuedAt: cred.IssuedAt,
		})
	}
	data, err := cbor.Marshal(fs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a portable CBOR snapshot.
func Decode(data []byte) (kvstore.Snapshot, error) {
	var fs fileSnapshot
	if err := cbor.Unmarshal(data, &fs); err != nil {
		return kvstore.Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if fs.Version != exportVersion {
		return kvstore.Snapshot{}, fmt.Errorf("unsupported snapshot version %d", fs.Version)
	}

	snap := kvstore.Snapshot{
		Namespaces: fs.Namespaces,
		Shared:     fs.Shared,
		ReadOnly:   fs.ReadOnly,
	}
	for _, fc := range fs.Credentials {
		level, err := access.ParseLevel(fc.Level)
		if err != nil {
			return kvstore.Snapshot{}, fmt.Errorf("credential %q: %w", fc.Identity, err)
		}
		snap.Credentials = append(snap.Credentials, credential.Credential{
			ID:       fc.ID,
			Identity: fc.Identity,
			Level:    level,
			IssuedAt: fc.IssuedAt.UTC(),
		})
	}
	return snap, nil
}

// WriteFile exports a snapshot to path. Snapshots carry namespace contents,
// so the file is owner-only.
func WriteFile(path string, snap kvstore.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// ReadFile imports a snapshot from path.
func ReadFile(path string) (kvstore.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return kvstore.Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return Decode(data)
}
