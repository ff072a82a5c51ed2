package canonical

import (
	"crypto/sha256"
	"encoding/hex"

	"gopkg.in/yaml.v3"

	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/specerr"
)

// HashOptions controls content hash normalization.
type HashOptions struct {
	// ExcludeProvenance drops metadata.last_sync before hashing so that two
	// builds of identical source hash the same.
	ExcludeProvenance bool
}

// Hash returns the hex SHA-256 of the normalized document: data is parsed,
// re-encoded with sorted keys and hashed, so formatting and key order do
// not affect the result. Provenance timestamps are hashed unless excluded.
func Hash(data []byte, opts HashOptions) (string, error) {
	m, err := ParseMap(data)
	if err != nil {
		return "", err
	}
	if opts.ExcludeProvenance {
		if meta, ok := m["metadata"].(map[string]any); ok {
			delete(meta, "last_sync")
		}
	}

	normalized, err := yaml.Marshal(m)
	if err != nil {
		return "", specerr.Serialization("hash", err)
	}
	sum := sha256.Sum256(normalized)
	return hex.EncodeToString(sum[:]), nil
}

// HashDocument serializes doc and hashes the result.
func HashDocument(doc *Document, opts HashOptions) (string, error) {
	data, err := Serialize(doc)
	if err != nil {
		return "", err
	}
	return Hash(data, opts)
}
