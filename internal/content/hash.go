package content

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// Fingerprint computes the hex-encoded sha256 of data. Content fingerprints
// drive staleness decisions, so the encoding must stay stable across releases.
func Fingerprint(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SetFingerprint computes a deterministic fingerprint for a set of documents,
// based on each document's identity and content fingerprint. Order of the
// input slice does not affect the result. Documents are loaded on demand.
//
// This enables cheap "did anything change" checks between runs.
func SetFingerprint(docs []*Document) (string, error) {
	if len(docs) == 0 {
		// Empty set has a known fingerprint.
		return Fingerprint([]byte("empty-document-set")), nil
	}

	entries := make([]string, 0, len(docs))
	for _, doc := range docs {
		fp, err := doc.Fingerprint()
		if err != nil {
			return "", err
		}
		entries = append(entries, fmt.Sprintf("%s|%s", doc.RelPath, fp))
	}
	sort.Strings(entries)

	h := sha256.New()
	for _, entry := range entries {
		h.Write([]byte(entry))
		h.Write([]byte("\n"))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
